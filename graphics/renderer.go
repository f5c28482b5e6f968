package graphics

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vkngwrapper/vkframe/hal"
)

// Renderer owns every GPU object the frame loop needs. Fields are listed in
// construction order; Destroy releases them in exactly the reverse order.
type Renderer struct {
	context       *Context
	physical      *PhysicalDeviceInfo
	device        *Device
	surface       *Surface
	graphicsQueue *Queue
	presentQueue  *Queue
	chain         *ImageChain
	pool          *CommandPool
	frames        *FrameRenderActivity

	window    Window
	opts      Options
	session   uuid.UUID
	stale     bool
	destroyed bool
	log       logrus.FieldLogger
}

// NewRenderer builds the whole pipeline for window. On failure everything
// created so far is released before the error is returned.
func NewRenderer(backend hal.Backend, window Window, opts Options) (_ *Renderer, err error) {
	session := uuid.New()
	log := opts.logger().WithField("session", session.String())

	r := &Renderer{
		window:  window,
		opts:    opts,
		session: session,
		log:     log,
	}
	defer func() {
		if err != nil {
			r.Destroy()
		}
	}()

	r.context, err = NewContext(backend, ContextOptions{
		ApplicationName:  opts.ApplicationName,
		Validate:         opts.Validate,
		WindowExtensions: window.RequiredExtensions(),
		Logger:           log,
	})
	if err != nil {
		return nil, err
	}

	r.physical, err = SelectPhysicalDevice(r.context, opts.PreferredDevice, log)
	if err != nil {
		return nil, err
	}

	r.device, err = NewDevice(r.physical, log)
	if err != nil {
		return nil, err
	}

	r.surface, err = NewSurface(r.physical, window.Handle())
	if err != nil {
		return nil, err
	}

	graphicsFamily, err := ResolveGraphicsFamily(r.device)
	if err != nil {
		return nil, err
	}
	r.graphicsQueue = NewQueue(r.device, graphicsFamily, 0)

	presentFamily, err := ResolvePresentFamily(r.device, r.surface)
	if err != nil {
		return nil, err
	}
	r.presentQueue = NewQueue(r.device, presentFamily, 0)

	width, height := window.DrawableSize()
	r.chain, err = NewImageChain(r.device, r.surface, ImageChainOptions{
		Width:      width,
		Height:     height,
		ImageCount: opts.ImageCount,
		VSync:      opts.VSync,
	}, log)
	if err != nil {
		return nil, err
	}

	r.pool, err = NewCommandPool(r.device, graphicsFamily, log)
	if err != nil {
		return nil, err
	}

	r.frames, err = NewFrameRenderActivity(r.chain, r.pool, opts.ClearColor, log)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"device":   r.physical.Name(),
		"graphics": graphicsFamily,
		"present":  presentFamily,
	}).Info("Renderer initialized")
	return r, nil
}

func (r *Renderer) Session() uuid.UUID {
	return r.session
}

func (r *Renderer) Context() *Context {
	return r.context
}

func (r *Renderer) Device() *Device {
	return r.device
}

func (r *Renderer) ImageChain() *ImageChain {
	return r.chain
}

func (r *Renderer) Destroyed() bool {
	return r.destroyed
}

// Render acquires an image, submits its commands and presents it. A resize
// or an out of date swapchain rebuilds the chain first; a zero sized window
// skips the frame.
func (r *Renderer) Render() error {
	if r.destroyed {
		return errors.WithStack(ErrDestroyed)
	}

	if r.window.Resized() {
		r.window.ResetResized()
		r.stale = true
	}
	if r.stale {
		width, height := r.window.DrawableSize()
		if width == 0 || height == 0 {
			return nil
		}
		if err := r.recreate(width, height); err != nil {
			return err
		}
	}

	if err := r.frames.WaitSlot(r.chain.NextSlot()); err != nil {
		return err
	}
	if _, err := r.chain.AcquireNextImage(); err != nil {
		if errors.Is(err, hal.ErrOutOfDate) {
			r.stale = true
			return nil
		}
		return err
	}

	if err := r.frames.Submit(r.graphicsQueue); err != nil {
		return err
	}

	if err := r.chain.PresentImage(r.presentQueue); err != nil {
		if errors.Is(err, hal.ErrOutOfDate) || errors.Is(err, hal.ErrSuboptimal) {
			r.stale = true
			return nil
		}
		return err
	}
	return nil
}

// recreate rebuilds the swapchain and everything sized by it.
func (r *Renderer) recreate(width, height int) error {
	r.log.Debugf("Recreating swapchain for %dx%d", width, height)
	if err := r.device.WaitIdle(); err != nil {
		return err
	}

	if r.frames != nil {
		r.frames.Destroy()
		r.frames = nil
	}
	if r.chain != nil {
		r.chain.Destroy()
		r.chain = nil
	}

	var err error
	r.chain, err = NewImageChain(r.device, r.surface, ImageChainOptions{
		Width:      width,
		Height:     height,
		ImageCount: r.opts.ImageCount,
		VSync:      r.opts.VSync,
	}, r.log)
	if err != nil {
		return err
	}

	r.frames, err = NewFrameRenderActivity(r.chain, r.pool, r.opts.ClearColor, r.log)
	if err != nil {
		return err
	}

	r.stale = false
	return nil
}

// Destroy drains the queues and the device, then releases everything in
// reverse construction order. It is safe to call more than once and on a
// partially constructed renderer.
func (r *Renderer) Destroy() error {
	if r.destroyed {
		return nil
	}
	r.destroyed = true
	r.log.Debug("Destroying renderer")

	var err error
	if r.presentQueue != nil {
		err = errors.CombineErrors(err, r.presentQueue.WaitIdle())
	}
	if r.graphicsQueue != nil {
		err = errors.CombineErrors(err, r.graphicsQueue.WaitIdle())
	}
	if r.device != nil {
		err = errors.CombineErrors(err, r.device.WaitIdle())
	}

	if r.frames != nil {
		r.frames.Destroy()
		r.frames = nil
	}
	if r.pool != nil {
		r.pool.Destroy()
		r.pool = nil
	}
	if r.chain != nil {
		r.chain.Destroy()
		r.chain = nil
	}
	if r.surface != nil {
		r.surface.Destroy()
		r.surface = nil
	}
	if r.device != nil {
		r.device.Destroy()
		r.device = nil
	}
	if r.physical != nil {
		r.physical.Destroy()
		r.physical = nil
	}
	if r.context != nil {
		r.context.Destroy()
		r.context = nil
	}
	r.graphicsQueue = nil
	r.presentQueue = nil
	return err
}
