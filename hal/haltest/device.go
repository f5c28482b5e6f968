package haltest

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vkframe/hal"
)

// GPU is a scripted physical device.
type GPU struct {
	Props    hal.PhysicalDeviceProperties
	Exts     []string
	Families []hal.QueueFamily
	Feats    hal.Features
	Memory   hal.MemoryProperties
	Formats  []hal.SurfaceFormat
	Caps     hal.SurfaceCapabilities

	// PresentFamilies lists the families that can present; nil means all.
	PresentFamilies []int

	// ImageCount overrides how many images a swapchain hands out; zero
	// means exactly the requested minimum.
	ImageCount int
	// AcquireOrder is cycled through by AcquireNextImage; nil means
	// round robin.
	AcquireOrder []int

	Devices []*Device

	backend *Backend
}

// NewGPU returns a GPU with one graphics+present family, the swapchain
// extension, a 2..8 image surface and the preferred surface format.
func NewGPU(name string) *GPU {
	return &GPU{
		Props: hal.PhysicalDeviceProperties{Name: name, APIVersion: hal.Version(1<<22 | 2<<12)},
		Exts:  []string{"VK_KHR_swapchain"},
		Families: []hal.QueueFamily{
			{Flags: hal.QueueGraphics | hal.QueueCompute | hal.QueueTransfer, QueueCount: 1},
		},
		Formats: []hal.SurfaceFormat{
			{Format: hal.FormatB8G8R8A8UnsignedNormalized, ColorSpace: hal.ColorSpaceSRGBNonlinear},
			{Format: hal.FormatB8G8R8A8SRGB, ColorSpace: hal.ColorSpaceSRGBNonlinear},
		},
		Caps: hal.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  8,
			CurrentExtent:  hal.Extent2D{Width: hal.UndefinedDimension, Height: hal.UndefinedDimension},
			MinImageExtent: hal.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: hal.Extent2D{Width: 4096, Height: 4096},
		},
	}
}

func (g *GPU) Properties() (hal.PhysicalDeviceProperties, error) {
	if err := g.backend.fail("Properties"); err != nil {
		return hal.PhysicalDeviceProperties{}, err
	}
	return g.Props, nil
}

func (g *GPU) Extensions() ([]string, error) {
	if err := g.backend.fail("Extensions"); err != nil {
		return nil, err
	}
	return g.Exts, nil
}

func (g *GPU) QueueFamilies() []hal.QueueFamily {
	return g.Families
}

func (g *GPU) Features() hal.Features {
	return g.Feats
}

func (g *GPU) MemoryProperties() hal.MemoryProperties {
	return g.Memory
}

func (g *GPU) SurfaceSupport(surface hal.Surface, family int) (bool, error) {
	if err := g.backend.fail("SurfaceSupport"); err != nil {
		return false, err
	}
	if g.PresentFamilies == nil {
		return true, nil
	}
	for _, f := range g.PresentFamilies {
		if f == family {
			return true, nil
		}
	}
	return false, nil
}

func (g *GPU) SurfaceCapabilities(surface hal.Surface) (hal.SurfaceCapabilities, error) {
	if err := g.backend.fail("SurfaceCapabilities"); err != nil {
		return hal.SurfaceCapabilities{}, err
	}
	return g.Caps, nil
}

func (g *GPU) SurfaceFormats(surface hal.Surface) ([]hal.SurfaceFormat, error) {
	if err := g.backend.fail("SurfaceFormats"); err != nil {
		return nil, err
	}
	return g.Formats, nil
}

func (g *GPU) CreateDevice(desc hal.DeviceDescriptor) (hal.Device, error) {
	if err := g.backend.fail("CreateDevice"); err != nil {
		return nil, err
	}
	d := &Device{object: g.backend.newObject("device"), GPU: g, Descriptor: desc, queues: map[[2]int]*Queue{}}
	d.track()
	g.Devices = append(g.Devices, d)
	return d, nil
}

type Device struct {
	object
	GPU        *GPU
	Descriptor hal.DeviceDescriptor
	Swapchains []*Swapchain
	Pools      []*CommandPool

	queues map[[2]int]*Queue
}

func (d *Device) Queue(family, index int) hal.Queue {
	key := [2]int{family, index}
	if q, ok := d.queues[key]; ok {
		return q
	}
	q := &Queue{device: d, Family: family, Index: index}
	d.queues[key] = q
	return q
}

func (d *Device) WaitIdle() error {
	if err := d.backend.fail("DeviceWaitIdle"); err != nil {
		return err
	}
	d.backend.record("wait idle %s", d.String())
	return nil
}

func (d *Device) CreateSwapchain(desc hal.SwapchainDescriptor) (hal.Swapchain, error) {
	if err := d.backend.fail("CreateSwapchain"); err != nil {
		return nil, err
	}
	count := desc.MinImageCount
	if d.GPU.ImageCount > 0 {
		count = d.GPU.ImageCount
	}
	s := &Swapchain{object: d.backend.newObject("swapchain"), Descriptor: desc, device: d}
	s.track()
	for i := 0; i < count; i++ {
		s.images = append(s.images, i)
	}
	d.Swapchains = append(d.Swapchains, s)
	return s, nil
}

func (d *Device) CreateImageView(desc hal.ImageViewDescriptor) (hal.ImageView, error) {
	if err := d.backend.fail("CreateImageView"); err != nil {
		return nil, err
	}
	v := &ImageView{object: d.backend.newObject("view"), Descriptor: desc}
	v.track()
	return v, nil
}

func (d *Device) CreateRenderPass(desc hal.RenderPassDescriptor) (hal.RenderPass, error) {
	if err := d.backend.fail("CreateRenderPass"); err != nil {
		return nil, err
	}
	p := &RenderPass{object: d.backend.newObject("renderpass"), Descriptor: desc}
	p.track()
	return p, nil
}

func (d *Device) CreateFramebuffer(desc hal.FramebufferDescriptor) (hal.Framebuffer, error) {
	if err := d.backend.fail("CreateFramebuffer"); err != nil {
		return nil, err
	}
	f := &Framebuffer{object: d.backend.newObject("framebuffer"), Descriptor: desc}
	f.track()
	return f, nil
}

func (d *Device) CreateCommandPool(desc hal.CommandPoolDescriptor) (hal.CommandPool, error) {
	if err := d.backend.fail("CreateCommandPool"); err != nil {
		return nil, err
	}
	p := &CommandPool{object: d.backend.newObject("pool"), Descriptor: desc}
	p.track()
	d.Pools = append(d.Pools, p)
	return p, nil
}

func (d *Device) CreateFence(signaled bool) (hal.Fence, error) {
	if err := d.backend.fail("CreateFence"); err != nil {
		return nil, err
	}
	f := &Fence{object: d.backend.newObject("fence"), Signaled: signaled}
	f.track()
	return f, nil
}

func (d *Device) CreateSemaphore() (hal.Semaphore, error) {
	if err := d.backend.fail("CreateSemaphore"); err != nil {
		return nil, err
	}
	s := &Semaphore{object: d.backend.newObject("semaphore")}
	s.track()
	return s, nil
}

func (d *Device) Destroy() {
	d.destroy()
}

// Submission is one recorded queue submit.
type Submission struct {
	Queue *Queue
	Info  hal.SubmitInfo
	Fence hal.Fence
}

type Queue struct {
	device *Device
	Family int
	Index  int
}

// Submit completes the work immediately: a passed fence is signaled
// before Submit returns.
func (q *Queue) Submit(info hal.SubmitInfo, fence hal.Fence) error {
	b := q.device.backend
	if err := b.fail("Submit"); err != nil {
		return err
	}
	if f, ok := fence.(*Fence); ok && f != nil {
		if f.Signaled {
			return errors.Newf("submit with %s still signaled", f.String())
		}
		f.Signaled = true
	}
	b.record("submit queue(%d,%d)", q.Family, q.Index)
	b.Submits = append(b.Submits, Submission{Queue: q, Info: info, Fence: fence})
	return nil
}

func (q *Queue) Present(info hal.PresentInfo) error {
	b := q.device.backend
	b.record("present queue(%d,%d) image %d", q.Family, q.Index, info.ImageIndex)
	b.Presents = append(b.Presents, info)
	return b.fail("Present")
}

func (q *Queue) WaitIdle() error {
	if err := q.device.backend.fail("QueueWaitIdle"); err != nil {
		return err
	}
	q.device.backend.record("wait idle queue(%d,%d)", q.Family, q.Index)
	return nil
}
