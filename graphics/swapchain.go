package graphics

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/vkngwrapper/vkframe/hal"
)

var preferredSurfaceFormat = hal.SurfaceFormat{
	Format:     hal.FormatB8G8R8A8SRGB,
	ColorSpace: hal.ColorSpaceSRGBNonlinear,
}

// negotiateImageCount clamps requested into the surface's bounds. A
// MaxImageCount of zero means no upper bound.
func negotiateImageCount(requested int, caps hal.SurfaceCapabilities) int {
	count := requested
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	if count < caps.MinImageCount {
		count = caps.MinImageCount
	}
	return count
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// negotiateExtent uses the surface's current extent unless the surface
// leaves it to the swapchain, in which case the window size is clamped to
// the allowed range.
func negotiateExtent(width, height int, caps hal.SurfaceCapabilities) hal.Extent2D {
	if !caps.CurrentExtent.Undefined() {
		return caps.CurrentExtent
	}
	return hal.Extent2D{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// chooseSurfaceFormat returns the preferred format when supported and the
// first supported format otherwise.
func chooseSurfaceFormat(formats []hal.SurfaceFormat) (hal.SurfaceFormat, error) {
	if len(formats) == 0 {
		return hal.SurfaceFormat{}, errors.WithStack(ErrNoSurfaceFormats)
	}
	for _, format := range formats {
		if format == preferredSurfaceFormat {
			return format, nil
		}
	}
	return formats[0], nil
}

func choosePresentMode(vsync bool) hal.PresentMode {
	if vsync {
		return hal.PresentModeFIFO
	}
	return hal.PresentModeImmediate
}

type ImageView struct {
	handle hal.ImageView
}

func NewImageView(device *Device, image hal.Image, format hal.Format) (*ImageView, error) {
	handle, err := device.Handle().CreateImageView(hal.ImageViewDescriptor{
		Image:       image,
		Format:      format,
		Aspect:      hal.ImageAspectColor,
		MipLevels:   1,
		ArrayLayers: 1,
	})
	if err != nil {
		return nil, driverError(err, "create image view")
	}
	return &ImageView{handle: handle}, nil
}

func (v *ImageView) Handle() hal.ImageView {
	return v.handle
}

func (v *ImageView) Destroy() {
	v.handle.Destroy()
}

// SyncSemaphores belong to a frame slot, never to an image index.
type SyncSemaphores struct {
	ImageAcquired  *Semaphore
	RenderComplete *Semaphore
}

// Frame identifies an acquired image. Slot selects the semaphores used to
// acquire and present it; ImageIndex is the image the driver handed out and
// selects the image's framebuffer, command buffer and fence. The two differ
// whenever the driver returns images out of order.
type Frame struct {
	Slot       int
	ImageIndex int
}

type ImageChainOptions struct {
	Width      int
	Height     int
	ImageCount int
	VSync      bool
}

// ImageChain is the swapchain together with its image views and the
// per-slot semaphores.
type ImageChain struct {
	device      *Device
	handle      hal.Swapchain
	format      hal.SurfaceFormat
	extent      hal.Extent2D
	presentMode hal.PresentMode
	views       []*ImageView
	semaphores  []SyncSemaphores

	nextSlot int
	current  Frame
	log      logrus.FieldLogger
}

func NewImageChain(device *Device, surface *Surface, opts ImageChainOptions, log logrus.FieldLogger) (_ *ImageChain, err error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "swapchain")
	log.Debug("Creating swapchain")

	physical := device.PhysicalDevice().Handle()
	caps, err := physical.SurfaceCapabilities(surface.Handle())
	if err != nil {
		return nil, driverError(err, "get surface capabilities")
	}
	formats, err := physical.SurfaceFormats(surface.Handle())
	if err != nil {
		return nil, driverError(err, "get surface formats")
	}

	imageCount := negotiateImageCount(opts.ImageCount, caps)
	if imageCount != opts.ImageCount {
		log.Warnf("Requested %d images, surface allows [%d, %d], using %d",
			opts.ImageCount, caps.MinImageCount, caps.MaxImageCount, imageCount)
	}

	format, err := chooseSurfaceFormat(formats)
	if err != nil {
		return nil, err
	}
	if format != preferredSurfaceFormat {
		log.Debugf("Preferred surface format unavailable, using format %d", format.Format)
	}

	chain := &ImageChain{
		device:      device,
		format:      format,
		extent:      negotiateExtent(opts.Width, opts.Height, caps),
		presentMode: choosePresentMode(opts.VSync),
		log:         log,
	}
	defer func() {
		if err != nil {
			chain.Destroy()
		}
	}()

	chain.handle, err = device.Handle().CreateSwapchain(hal.SwapchainDescriptor{
		Surface:       surface.Handle(),
		MinImageCount: imageCount,
		Format:        format,
		Extent:        chain.extent,
		ArrayLayers:   1,
		PresentMode:   chain.presentMode,
		Clipped:       true,
	})
	if err != nil {
		return nil, driverError(err, "create swapchain")
	}

	images, err := chain.handle.Images()
	if err != nil {
		return nil, driverError(err, "get swapchain images")
	}
	if len(images) == 0 {
		return nil, errors.New("swapchain has no images")
	}
	for _, image := range images {
		view, err := NewImageView(device, image, format.Format)
		if err != nil {
			return nil, err
		}
		chain.views = append(chain.views, view)
	}

	for range images {
		acquired, err := NewSemaphore(device)
		if err != nil {
			return nil, err
		}
		chain.semaphores = append(chain.semaphores, SyncSemaphores{ImageAcquired: acquired})

		complete, err := NewSemaphore(device)
		if err != nil {
			return nil, err
		}
		chain.semaphores[len(chain.semaphores)-1].RenderComplete = complete
	}

	log.WithFields(logrus.Fields{
		"images":  len(images),
		"width":   chain.extent.Width,
		"height":  chain.extent.Height,
		"present": chain.presentMode,
	}).Info("Swapchain created")
	return chain, nil
}

func (c *ImageChain) Device() *Device {
	return c.device
}

func (c *ImageChain) Handle() hal.Swapchain {
	return c.handle
}

func (c *ImageChain) Format() hal.SurfaceFormat {
	return c.format
}

func (c *ImageChain) Extent() hal.Extent2D {
	return c.extent
}

func (c *ImageChain) PresentMode() hal.PresentMode {
	return c.presentMode
}

func (c *ImageChain) ImageCount() int {
	return len(c.views)
}

func (c *ImageChain) ImageViews() []*ImageView {
	return c.views
}

// Semaphores returns the pair owned by a frame slot.
func (c *ImageChain) Semaphores(slot int) SyncSemaphores {
	return c.semaphores[slot]
}

// CurrentFrame is the frame produced by the last successful acquire.
func (c *ImageChain) CurrentFrame() Frame {
	return c.current
}

// NextSlot is the slot the next acquire will use.
func (c *ImageChain) NextSlot() int {
	return c.nextSlot
}

// AcquireNextImage blocks until the driver hands out an image, signaling the
// current slot's acquire semaphore, and advances the slot. Errors marked
// hal.ErrOutOfDate mean the chain must be recreated.
func (c *ImageChain) AcquireNextImage() (Frame, error) {
	slot := c.nextSlot
	imageIndex, err := c.handle.AcquireNextImage(c.semaphores[slot].ImageAcquired.Handle())
	if err != nil {
		return Frame{}, driverError(err, "acquire next image")
	}

	c.current = Frame{Slot: slot, ImageIndex: imageIndex}
	c.nextSlot = (slot + 1) % len(c.semaphores)
	return c.current, nil
}

// PresentImage presents the current frame's image once its slot's render
// complete semaphore is signaled.
func (c *ImageChain) PresentImage(queue *Queue) error {
	err := queue.Handle().Present(hal.PresentInfo{
		Swapchain:      c.handle,
		ImageIndex:     c.current.ImageIndex,
		WaitSemaphores: []hal.Semaphore{c.semaphores[c.current.Slot].RenderComplete.Handle()},
	})
	if err != nil {
		return driverError(err, "present image")
	}
	return nil
}

// Destroy releases the image views before the swapchain that backs their
// images, then the semaphores.
func (c *ImageChain) Destroy() {
	c.log.Debug("Destroying swapchain")
	c.extent = hal.Extent2D{}
	for _, view := range c.views {
		view.Destroy()
	}
	c.views = nil
	if c.handle != nil {
		c.handle.Destroy()
		c.handle = nil
	}
	for _, sync := range c.semaphores {
		if sync.ImageAcquired != nil {
			sync.ImageAcquired.Destroy()
		}
		if sync.RenderComplete != nil {
			sync.RenderComplete.Destroy()
		}
	}
	c.semaphores = nil
}
