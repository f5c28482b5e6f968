package graphics

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"github.com/vkngwrapper/vkframe/hal"
)

// FrameRenderActivity owns the resources matched one to one with the
// swapchain images: a framebuffer, a primary command buffer and a fence per
// image, plus the render pass they share.
type FrameRenderActivity struct {
	chain      *ImageChain
	clearColor mgl32.Vec4

	renderPass     *RenderPass
	framebuffers   []*Framebuffer
	commandBuffers []*CommandBuffer
	fences         []*Fence
	// submitted marks buffers whose one-time recording has been consumed.
	submitted []bool
	// slotImages is the image index last submitted from each frame slot, or -1.
	slotImages []int

	log logrus.FieldLogger
}

func NewFrameRenderActivity(chain *ImageChain, pool *CommandPool, clearColor mgl32.Vec4, log logrus.FieldLogger) (_ *FrameRenderActivity, err error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "frame")

	device := chain.Device()
	activity := &FrameRenderActivity{
		chain:      chain,
		clearColor: clearColor,
		log:        log,
	}
	defer func() {
		if err != nil {
			activity.Destroy()
		}
	}()

	activity.renderPass, err = NewRenderPass(device, chain.Format().Format)
	if err != nil {
		return nil, err
	}

	for _, view := range chain.ImageViews() {
		framebuffer, err := NewFramebuffer(device, activity.renderPass, view, chain.Extent())
		if err != nil {
			return nil, err
		}
		activity.framebuffers = append(activity.framebuffers, framebuffer)
	}

	for i := range chain.ImageViews() {
		buffer, err := NewCommandBuffer(pool, true, true)
		if err != nil {
			return nil, err
		}
		activity.commandBuffers = append(activity.commandBuffers, buffer)

		fence, err := NewFence(device, true)
		if err != nil {
			return nil, err
		}
		activity.fences = append(activity.fences, fence)

		if err := activity.record(i); err != nil {
			return nil, err
		}
	}
	activity.submitted = make([]bool, len(activity.commandBuffers))
	activity.slotImages = make([]int, len(activity.commandBuffers))
	for i := range activity.slotImages {
		activity.slotImages[i] = -1
	}

	log.Debugf("Recorded %d clear passes", len(activity.commandBuffers))
	return activity, nil
}

// record writes the clear pass for image i.
func (a *FrameRenderActivity) record(i int) error {
	buffer := a.commandBuffers[i]
	if err := buffer.BeginRecording(nil); err != nil {
		return err
	}

	err := buffer.Handle().BeginRenderPass(hal.RenderPassBeginInfo{
		RenderPass:  a.renderPass.Handle(),
		Framebuffer: a.framebuffers[i].Handle(),
		Area:        a.chain.Extent(),
		ClearColor:  a.clearColor,
	})
	if err != nil {
		return driverError(err, "begin render pass")
	}
	buffer.Handle().EndRenderPass()

	return buffer.EndRecording()
}

// WaitSlot blocks until the last submission made from slot has retired, so
// the slot's acquire semaphore has no pending wait when it is reused.
func (a *FrameRenderActivity) WaitSlot(slot int) error {
	idx := a.slotImages[slot]
	if idx < 0 {
		return nil
	}
	return a.fences[idx].Wait()
}

// Submit waits until the current image's previous submission has retired,
// then submits its commands. The submission waits on the frame slot's
// acquire semaphore and signals the slot's render complete semaphore.
func (a *FrameRenderActivity) Submit(queue *Queue) error {
	frame := a.chain.CurrentFrame()
	idx := frame.ImageIndex

	fence := a.fences[idx]
	if err := fence.Wait(); err != nil {
		return err
	}
	if err := fence.Reset(); err != nil {
		return err
	}

	if a.submitted[idx] {
		if err := a.commandBuffers[idx].Reset(); err != nil {
			return err
		}
		if err := a.record(idx); err != nil {
			return err
		}
	}

	sync := a.chain.Semaphores(frame.Slot)
	err := queue.Submit(Submission{
		CommandBuffers:   []*CommandBuffer{a.commandBuffers[idx]},
		WaitSemaphores:   []*Semaphore{sync.ImageAcquired},
		WaitStages:       []hal.PipelineStage{hal.PipelineStageColorAttachmentOutput},
		SignalSemaphores: []*Semaphore{sync.RenderComplete},
	}, fence)
	if err != nil {
		return err
	}
	a.submitted[idx] = true
	a.slotImages[frame.Slot] = idx
	return nil
}

func (a *FrameRenderActivity) Framebuffers() []*Framebuffer {
	return a.framebuffers
}

func (a *FrameRenderActivity) CommandBuffers() []*CommandBuffer {
	return a.commandBuffers
}

func (a *FrameRenderActivity) Fences() []*Fence {
	return a.fences
}

// Destroy releases each kind of resource in its own pass: framebuffers,
// render pass, command buffers, fences.
func (a *FrameRenderActivity) Destroy() {
	a.log.Debug("Destroying frame resources")
	for _, framebuffer := range a.framebuffers {
		framebuffer.Destroy()
	}
	a.framebuffers = nil

	if a.renderPass != nil {
		a.renderPass.Destroy()
		a.renderPass = nil
	}

	for _, buffer := range a.commandBuffers {
		buffer.Destroy()
	}
	a.commandBuffers = nil

	for _, fence := range a.fences {
		fence.Destroy()
	}
	a.fences = nil
}
