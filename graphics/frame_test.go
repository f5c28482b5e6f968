package graphics

import (
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/vkngwrapper/vkframe/hal"
	"github.com/vkngwrapper/vkframe/hal/haltest"
)

type frameRig struct {
	*testChain
	chain *ImageChain
	pool  *CommandPool
}

func newFrameRig(c *qt.C, b *haltest.Backend, imageCount int) *frameRig {
	rig := newTestChain(c, b, nil)
	chain, err := NewImageChain(rig.device, rig.surface, ImageChainOptions{Width: 320, Height: 240, ImageCount: imageCount}, nil)
	c.Assert(err, qt.IsNil)
	pool, err := NewCommandPool(rig.device, 0, nil)
	c.Assert(err, qt.IsNil)
	return &frameRig{testChain: rig, chain: chain, pool: pool}
}

func (r *frameRig) Destroy() {
	r.pool.Destroy()
	r.chain.Destroy()
	r.testChain.Destroy()
}

func TestFrameRenderActivityRecordsClearPass(t *testing.T) {
	c := qt.New(t)
	b := newTestBackend()
	rig := newFrameRig(c, b, 3)
	defer rig.Destroy()

	color := mgl32.Vec4{0.1, 0.2, 0.3, 1}
	activity, err := NewFrameRenderActivity(rig.chain, rig.pool, color, nil)
	c.Assert(err, qt.IsNil)
	defer activity.Destroy()

	c.Assert(activity.Framebuffers(), qt.HasLen, 3)
	c.Assert(activity.CommandBuffers(), qt.HasLen, 3)
	c.Assert(activity.Fences(), qt.HasLen, 3)

	for i, buffer := range activity.CommandBuffers() {
		fake := buffer.Handle().(*haltest.CommandBuffer)
		c.Assert(fake.Commands, qt.DeepEquals, []string{"begin", "beginRenderPass", "endRenderPass", "end"})
		c.Assert(fake.Begins[0].Usage, qt.Equals, hal.CommandBufferUsageOneTimeSubmit)
		c.Assert(fake.Passes[0].Framebuffer, qt.Equals, activity.Framebuffers()[i].Handle())
		c.Assert(fake.Passes[0].Area, qt.Equals, hal.Extent2D{Width: 320, Height: 240})
		c.Assert(fake.Passes[0].ClearColor, qt.Equals, [4]float32{0.1, 0.2, 0.3, 1})
	}
	for i, fb := range activity.Framebuffers() {
		desc := fb.Handle().(*haltest.Framebuffer).Descriptor
		assertHandles(c, desc.Attachments, rig.chain.ImageViews()[i].Handle())
		c.Assert(desc.Layers, qt.Equals, 1)
	}
	for _, fence := range activity.Fences() {
		c.Assert(fence.Handle().(*haltest.Fence).Signaled, qt.IsTrue)
	}
}

func TestFrameRenderActivitySubmitUsesSlotSemaphores(t *testing.T) {
	c := qt.New(t)
	b := newTestBackend()
	b.GPUs[0].AcquireOrder = []int{1, 2, 0}
	rig := newFrameRig(c, b, 3)
	defer rig.Destroy()

	activity, err := NewFrameRenderActivity(rig.chain, rig.pool, DefaultClearColor, nil)
	c.Assert(err, qt.IsNil)
	defer activity.Destroy()

	queue := NewQueue(rig.device, 0, 0)
	for k := 0; k < 6; k++ {
		frame, err := rig.chain.AcquireNextImage()
		c.Assert(err, qt.IsNil)
		c.Assert(activity.Submit(queue), qt.IsNil)

		sub := b.Submits[k]
		sync := rig.chain.Semaphores(frame.Slot)
		assertHandles(c, sub.Info.CommandBuffers, activity.CommandBuffers()[frame.ImageIndex].Handle())
		assertHandles(c, sub.Info.WaitSemaphores, sync.ImageAcquired.Handle())
		c.Assert(sub.Info.WaitStages, qt.DeepEquals, []hal.PipelineStage{hal.PipelineStageColorAttachmentOutput})
		assertHandles(c, sub.Info.SignalSemaphores, sync.RenderComplete.Handle())
		c.Assert(sub.Fence, qt.Equals, activity.Fences()[frame.ImageIndex].Handle())

		// Resubmitted buffers are re-recorded because they are one-time-submit.
		fake := activity.CommandBuffers()[frame.ImageIndex].Handle().(*haltest.CommandBuffer)
		c.Assert(fake.Commands, qt.DeepEquals, []string{"begin", "beginRenderPass", "endRenderPass", "end"})
	}
	c.Assert(b.CallsMatching("reset cmd"), qt.HasLen, 3)
}

func TestFrameRenderActivityDestroyOrder(t *testing.T) {
	c := qt.New(t)
	b := newTestBackend()
	rig := newFrameRig(c, b, 2)
	defer rig.Destroy()

	activity, err := NewFrameRenderActivity(rig.chain, rig.pool, DefaultClearColor, nil)
	c.Assert(err, qt.IsNil)

	b.Calls = nil
	activity.Destroy()
	c.Assert(kinds(b.Calls), qt.DeepEquals, []string{
		"destroy framebuffer", "destroy framebuffer",
		"destroy renderpass",
		"destroy cmd", "destroy cmd",
		"destroy fence", "destroy fence",
	})
	c.Assert(rig.pool.Outstanding(), qt.Equals, 0)
}

func TestFrameRenderActivityCreateFailure(t *testing.T) {
	for _, op := range []string{"CreateRenderPass", "CreateFramebuffer", "Allocate", "CreateFence", "Begin"} {
		t.Run(op, func(t *testing.T) {
			c := qt.New(t)
			b := newTestBackend()
			rig := newFrameRig(c, b, 3)

			b.Fail(op, nil)
			_, err := NewFrameRenderActivity(rig.chain, rig.pool, DefaultClearColor, nil)
			c.Assert(err, qt.Not(qt.IsNil))

			rig.Destroy()
			c.Assert(b.Live(), qt.HasLen, 0)
			c.Assert(b.DoubleDestroys, qt.HasLen, 0)
		})
	}
}

func TestFrameRenderActivityWaitSlot(t *testing.T) {
	c := qt.New(t)
	b := newTestBackend()
	b.GPUs[0].AcquireOrder = []int{2, 0, 1}
	rig := newFrameRig(c, b, 3)
	defer rig.Destroy()

	activity, err := NewFrameRenderActivity(rig.chain, rig.pool, DefaultClearColor, nil)
	c.Assert(err, qt.IsNil)
	defer activity.Destroy()

	// Nothing was submitted from slot 0 yet.
	b.Calls = nil
	c.Assert(activity.WaitSlot(0), qt.IsNil)
	c.Assert(b.Calls, qt.HasLen, 0)

	queue := NewQueue(rig.device, 0, 0)
	frame, err := rig.chain.AcquireNextImage()
	c.Assert(err, qt.IsNil)
	c.Assert(frame, qt.Equals, Frame{Slot: 0, ImageIndex: 2})
	c.Assert(activity.Submit(queue), qt.IsNil)

	// Slot 0 is tied to image 2's fence, not to fence 0.
	fence := activity.Fences()[2].Handle().(*haltest.Fence)
	b.Calls = nil
	c.Assert(activity.WaitSlot(0), qt.IsNil)
	c.Assert(b.Calls, qt.DeepEquals, []string{"wait " + fence.String()})

	// A submission still in flight is waited on before the slot is reused.
	fence.Signaled = false
	c.Assert(errors.Is(activity.WaitSlot(0), ErrDriver), qt.IsTrue)
	c.Assert(activity.WaitSlot(1), qt.IsNil)
}
