package haltest

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vkframe/hal"
)

// Acquisition is one recorded AcquireNextImage call.
type Acquisition struct {
	Swapchain  *Swapchain
	Semaphore  hal.Semaphore
	ImageIndex int
}

type Swapchain struct {
	object
	Descriptor hal.SwapchainDescriptor

	device   *Device
	images   []int
	acquired int
}

func (s *Swapchain) Images() ([]hal.Image, error) {
	if err := s.backend.fail("Images"); err != nil {
		return nil, err
	}
	images := make([]hal.Image, 0, len(s.images))
	for _, img := range s.images {
		images = append(images, img)
	}
	return images, nil
}

func (s *Swapchain) AcquireNextImage(signal hal.Semaphore) (int, error) {
	if err := s.backend.fail("AcquireNextImage"); err != nil {
		return 0, err
	}
	if sem, ok := signal.(*Semaphore); !ok || sem.destroyed {
		return 0, errors.New("acquire without a live semaphore")
	}

	index := s.acquired % len(s.images)
	if order := s.device.GPU.AcquireOrder; len(order) > 0 {
		index = order[s.acquired%len(order)]
	}
	s.acquired++

	s.backend.record("acquire %s image %d", s.String(), index)
	s.backend.Acquires = append(s.backend.Acquires, Acquisition{Swapchain: s, Semaphore: signal, ImageIndex: index})
	return index, nil
}

func (s *Swapchain) Destroy() {
	s.destroy()
}

type ImageView struct {
	object
	Descriptor hal.ImageViewDescriptor
}

func (v *ImageView) Destroy() {
	v.destroy()
}

type RenderPass struct {
	object
	Descriptor hal.RenderPassDescriptor
}

func (p *RenderPass) Destroy() {
	p.destroy()
}

type Framebuffer struct {
	object
	Descriptor hal.FramebufferDescriptor
}

func (f *Framebuffer) Destroy() {
	f.destroy()
}

type CommandPool struct {
	object
	Descriptor hal.CommandPoolDescriptor
	Buffers    []*CommandBuffer
}

func (p *CommandPool) Allocate(level hal.CommandBufferLevel, count int) ([]hal.CommandBuffer, error) {
	if err := p.backend.fail("Allocate"); err != nil {
		return nil, err
	}
	if p.destroyed {
		return nil, errors.Newf("allocate from destroyed %s", p.String())
	}
	buffers := make([]hal.CommandBuffer, 0, count)
	for i := 0; i < count; i++ {
		cb := &CommandBuffer{object: p.backend.newObject("cmd"), Level: level, pool: p}
		cb.track()
		p.Buffers = append(p.Buffers, cb)
		buffers = append(buffers, cb)
	}
	return buffers, nil
}

func (p *CommandPool) Free(buffers ...hal.CommandBuffer) {
	for _, buffer := range buffers {
		buffer.(*CommandBuffer).destroy()
	}
}

// Destroy releases every buffer still allocated from the pool, as the driver
// does.
func (p *CommandPool) Destroy() {
	p.destroy()
	for _, cb := range p.Buffers {
		if !cb.destroyed {
			cb.destroyed = true
			delete(p.backend.live, cb.id)
		}
	}
}

type CommandBuffer struct {
	object
	Level hal.CommandBufferLevel

	// Commands is the log of recorded commands since the last reset.
	Commands  []string
	Begins    []hal.BeginInfo
	Passes    []hal.RenderPassBeginInfo
	Recording bool

	pool *CommandPool
}

func (b *CommandBuffer) Begin(info hal.BeginInfo) error {
	if err := b.backend.fail("Begin"); err != nil {
		return err
	}
	if b.Recording {
		return errors.Newf("%s is already recording", b.String())
	}
	b.Recording = true
	b.Begins = append(b.Begins, info)
	b.Commands = append(b.Commands, "begin")
	return nil
}

func (b *CommandBuffer) End() error {
	if err := b.backend.fail("End"); err != nil {
		return err
	}
	if !b.Recording {
		return errors.Newf("%s is not recording", b.String())
	}
	b.Recording = false
	b.Commands = append(b.Commands, "end")
	return nil
}

func (b *CommandBuffer) Reset(releaseResources bool) error {
	if err := b.backend.fail("Reset"); err != nil {
		return err
	}
	b.Recording = false
	b.Commands = nil
	b.backend.record("reset %s release=%t", b.String(), releaseResources)
	return nil
}

func (b *CommandBuffer) BeginRenderPass(info hal.RenderPassBeginInfo) error {
	if !b.Recording {
		return errors.Newf("%s is not recording", b.String())
	}
	b.Passes = append(b.Passes, info)
	b.Commands = append(b.Commands, "beginRenderPass")
	return nil
}

func (b *CommandBuffer) EndRenderPass() {
	b.Commands = append(b.Commands, "endRenderPass")
}

type Fence struct {
	object
	Signaled bool
}

// Wait fails instead of blocking forever when nothing will signal the fence.
func (f *Fence) Wait() error {
	if err := f.backend.fail("FenceWait"); err != nil {
		return err
	}
	if !f.Signaled {
		return errors.Newf("wait on unsignaled %s would never return", f.String())
	}
	f.backend.record("wait %s", f.String())
	return nil
}

func (f *Fence) Reset() error {
	if err := f.backend.fail("FenceReset"); err != nil {
		return err
	}
	f.Signaled = false
	f.backend.record("reset %s", f.String())
	return nil
}

func (f *Fence) Destroy() {
	f.destroy()
}

type Semaphore struct {
	object
}

func (s *Semaphore) Destroy() {
	s.destroy()
}
