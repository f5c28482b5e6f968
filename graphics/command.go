package graphics

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/vkngwrapper/vkframe/hal"
)

// CommandPool allocates command buffers for one queue family. It tracks
// outstanding buffers so that destroying the pool and then a buffer never
// frees the buffer twice.
type CommandPool struct {
	device      *Device
	family      int
	handle      hal.CommandPool
	outstanding map[*CommandBuffer]struct{}
	log         logrus.FieldLogger
}

func NewCommandPool(device *Device, family int, log logrus.FieldLogger) (*CommandPool, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "command")
	log.Debugf("Creating command pool for family %d", family)

	handle, err := device.Handle().CreateCommandPool(hal.CommandPoolDescriptor{
		QueueFamily:  family,
		ResetBuffers: true,
	})
	if err != nil {
		return nil, driverError(err, "create command pool")
	}

	return &CommandPool{
		device:      device,
		family:      family,
		handle:      handle,
		outstanding: map[*CommandBuffer]struct{}{},
		log:         log,
	}, nil
}

func (p *CommandPool) Family() int {
	return p.family
}

// Outstanding is the number of buffers allocated and not yet freed.
func (p *CommandPool) Outstanding() int {
	return len(p.outstanding)
}

// Destroy releases the pool and, implicitly, every buffer still allocated
// from it.
func (p *CommandPool) Destroy() {
	p.log.Debug("Destroying command pool")
	for buffer := range p.outstanding {
		buffer.freed = true
	}
	p.outstanding = map[*CommandBuffer]struct{}{}
	p.handle.Destroy()
}

// InheritanceInfo is the render pass state a secondary buffer continues.
type InheritanceInfo struct {
	RenderPass  *RenderPass
	Framebuffer *Framebuffer
	Subpass     int
}

type CommandBuffer struct {
	pool          *CommandPool
	handle        hal.CommandBuffer
	primary       bool
	oneTimeSubmit bool
	freed         bool
}

func NewCommandBuffer(pool *CommandPool, primary, oneTimeSubmit bool) (*CommandBuffer, error) {
	level := hal.CommandBufferLevelPrimary
	if !primary {
		level = hal.CommandBufferLevelSecondary
	}

	buffers, err := pool.handle.Allocate(level, 1)
	if err != nil {
		return nil, driverError(err, "allocate command buffer")
	}

	buffer := &CommandBuffer{
		pool:          pool,
		handle:        buffers[0],
		primary:       primary,
		oneTimeSubmit: oneTimeSubmit,
	}
	pool.outstanding[buffer] = struct{}{}
	return buffer, nil
}

func (b *CommandBuffer) Handle() hal.CommandBuffer {
	return b.handle
}

func (b *CommandBuffer) Primary() bool {
	return b.primary
}

// BeginRecording starts recording. Secondary buffers must be given the
// render pass state they continue.
func (b *CommandBuffer) BeginRecording(inheritance *InheritanceInfo) error {
	info := hal.BeginInfo{}
	if b.oneTimeSubmit {
		info.Usage |= hal.CommandBufferUsageOneTimeSubmit
	}

	if !b.primary {
		if inheritance == nil {
			return errors.WithStack(ErrMissingInheritance)
		}
		info.Usage |= hal.CommandBufferUsageRenderPassContinue
		info.Inheritance = &hal.InheritanceInfo{Subpass: inheritance.Subpass}
		if inheritance.RenderPass != nil {
			info.Inheritance.RenderPass = inheritance.RenderPass.Handle()
		}
		if inheritance.Framebuffer != nil {
			info.Inheritance.Framebuffer = inheritance.Framebuffer.Handle()
		}
	}

	if err := b.handle.Begin(info); err != nil {
		return driverError(err, "begin command buffer")
	}
	return nil
}

func (b *CommandBuffer) EndRecording() error {
	if err := b.handle.End(); err != nil {
		return driverError(err, "end command buffer")
	}
	return nil
}

// Reset returns the buffer to the initial state and releases its resources.
func (b *CommandBuffer) Reset() error {
	if err := b.handle.Reset(true); err != nil {
		return driverError(err, "reset command buffer")
	}
	return nil
}

// Destroy frees the buffer back to its pool. It is a no-op once the pool
// has been destroyed.
func (b *CommandBuffer) Destroy() {
	if b.freed {
		return
	}
	b.freed = true
	delete(b.pool.outstanding, b)
	b.pool.handle.Free(b.handle)
}
