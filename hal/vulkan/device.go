package vulkan

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/vkframe/hal"
)

type physicalDevice struct {
	instance *instance
	handle   core1_0.PhysicalDevice
}

func (p *physicalDevice) Properties() (hal.PhysicalDeviceProperties, error) {
	properties, err := p.instance.driver.GetPhysicalDeviceProperties(p.handle)
	if err != nil {
		return hal.PhysicalDeviceProperties{}, err
	}

	return hal.PhysicalDeviceProperties{
		Name:              properties.DriverName,
		VendorID:          properties.VendorID,
		DeviceID:          properties.DeviceID,
		APIVersion:        hal.Version(properties.APIVersion),
		PipelineCacheUUID: properties.PipelineCacheUUID,
	}, nil
}

func (p *physicalDevice) Extensions() ([]string, error) {
	extensions, _, err := p.instance.driver.EnumerateDeviceExtensionProperties(p.handle)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(extensions))
	for name := range extensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (p *physicalDevice) QueueFamilies() []hal.QueueFamily {
	var families []hal.QueueFamily
	for _, queueFamily := range p.instance.driver.GetPhysicalDeviceQueueFamilyProperties(p.handle) {
		families = append(families, hal.QueueFamily{
			Flags:      hal.QueueFlags(queueFamily.QueueFlags),
			QueueCount: queueFamily.QueueCount,
		})
	}
	return families
}

func (p *physicalDevice) Features() hal.Features {
	features := p.instance.driver.GetPhysicalDeviceFeatures(p.handle)
	return hal.Features{
		SamplerAnisotropy:  features.SamplerAnisotropy,
		GeometryShader:     features.GeometryShader,
		TessellationShader: features.TessellationShader,
		FillModeNonSolid:   features.FillModeNonSolid,
		WideLines:          features.WideLines,
	}
}

func (p *physicalDevice) MemoryProperties() hal.MemoryProperties {
	memProperties := p.instance.driver.GetPhysicalDeviceMemoryProperties(p.handle)

	var props hal.MemoryProperties
	for _, memoryType := range memProperties.MemoryTypes {
		props.Types = append(props.Types, hal.MemoryType{
			PropertyFlags: uint32(memoryType.PropertyFlags),
			HeapIndex:     memoryType.HeapIndex,
		})
	}
	for _, heap := range memProperties.MemoryHeaps {
		props.Heaps = append(props.Heaps, hal.MemoryHeap{Size: uint64(heap.Size)})
	}
	return props
}

func (p *physicalDevice) SurfaceSupport(s hal.Surface, family int) (bool, error) {
	vkSurface, err := unwrapSurface(s)
	if err != nil {
		return false, err
	}

	supported, _, err := p.instance.surfaceExtension.GetPhysicalDeviceSurfaceSupport(vkSurface.handle, p.handle, family)
	return supported, err
}

func (p *physicalDevice) surfaceCapabilities(s hal.Surface) (*khr_surface.SurfaceCapabilities, error) {
	vkSurface, err := unwrapSurface(s)
	if err != nil {
		return nil, err
	}

	capabilities, _, err := p.instance.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(vkSurface.handle, p.handle)
	return capabilities, err
}

func (p *physicalDevice) SurfaceCapabilities(s hal.Surface) (hal.SurfaceCapabilities, error) {
	capabilities, err := p.surfaceCapabilities(s)
	if err != nil {
		return hal.SurfaceCapabilities{}, err
	}

	return hal.SurfaceCapabilities{
		MinImageCount:  capabilities.MinImageCount,
		MaxImageCount:  capabilities.MaxImageCount,
		CurrentExtent:  hal.Extent2D{Width: capabilities.CurrentExtent.Width, Height: capabilities.CurrentExtent.Height},
		MinImageExtent: hal.Extent2D{Width: capabilities.MinImageExtent.Width, Height: capabilities.MinImageExtent.Height},
		MaxImageExtent: hal.Extent2D{Width: capabilities.MaxImageExtent.Width, Height: capabilities.MaxImageExtent.Height},
	}, nil
}

func (p *physicalDevice) SurfaceFormats(s hal.Surface) ([]hal.SurfaceFormat, error) {
	vkSurface, err := unwrapSurface(s)
	if err != nil {
		return nil, err
	}

	formats, _, err := p.instance.surfaceExtension.GetPhysicalDeviceSurfaceFormats(vkSurface.handle, p.handle)
	if err != nil {
		return nil, err
	}

	var result []hal.SurfaceFormat
	for _, format := range formats {
		result = append(result, hal.SurfaceFormat{
			Format:     hal.Format(format.Format),
			ColorSpace: hal.ColorSpace(format.ColorSpace),
		})
	}
	return result, nil
}

func (p *physicalDevice) CreateDevice(desc hal.DeviceDescriptor) (hal.Device, error) {
	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	for _, request := range desc.Queues {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: request.Family,
			QueuePriorities:  request.Priorities,
		})
	}

	handle, _, err := p.instance.driver.CreateDevice(p.handle, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: desc.Extensions,
	})
	if err != nil {
		return nil, err
	}
	deviceDriver, err := p.instance.driver.BuildDeviceDriver(handle)
	if err != nil {
		return nil, err
	}

	return &device{
		physical:           p,
		driver:             deviceDriver,
		swapchainExtension: khr_swapchain.CreateExtensionDriverFromCoreDriver(deviceDriver),
	}, nil
}

type device struct {
	physical           *physicalDevice
	driver             core1_0.CoreDeviceDriver
	swapchainExtension khr_swapchain.ExtensionDriver
}

func (d *device) Queue(family, index int) hal.Queue {
	return &queue{device: d, handle: d.driver.GetQueue(family, index)}
}

func (d *device) WaitIdle() error {
	_, err := d.driver.DeviceWaitIdle()
	return err
}

func (d *device) CreateFence(signaled bool) (hal.Fence, error) {
	var options core1_0.FenceCreateInfo
	if signaled {
		options.Flags = core1_0.FenceCreateSignaled
	}

	handle, _, err := d.driver.CreateFence(nil, options)
	if err != nil {
		return nil, err
	}
	return &fence{device: d, handle: handle}, nil
}

func (d *device) CreateSemaphore() (hal.Semaphore, error) {
	handle, _, err := d.driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, err
	}
	return &semaphore{device: d, handle: handle}, nil
}

func (d *device) Destroy() {
	d.driver.DestroyDevice(nil)
}

type queue struct {
	device *device
	handle core1_0.Queue
}

func (q *queue) Submit(info hal.SubmitInfo, f hal.Fence) error {
	submit := core1_0.SubmitInfo{}
	for _, buffer := range info.CommandBuffers {
		submit.CommandBuffers = append(submit.CommandBuffers, buffer.(*commandBuffer).handle)
	}
	for _, s := range info.WaitSemaphores {
		submit.WaitSemaphores = append(submit.WaitSemaphores, s.(*semaphore).handle)
	}
	for _, stage := range info.WaitStages {
		submit.WaitDstStageMask = append(submit.WaitDstStageMask, core1_0.PipelineStageFlags(stage))
	}
	for _, s := range info.SignalSemaphores {
		submit.SignalSemaphores = append(submit.SignalSemaphores, s.(*semaphore).handle)
	}

	var fencePtr *core1_0.Fence
	if f != nil {
		fencePtr = &f.(*fence).handle
	}

	_, err := q.device.driver.QueueSubmit(q.handle, fencePtr, submit)
	return err
}

func (q *queue) Present(info hal.PresentInfo) error {
	chain, ok := info.Swapchain.(*swapchain)
	if !ok {
		return errors.Newf("swapchain %T was not created by the vulkan backend", info.Swapchain)
	}

	var waitSemaphores []core1_0.Semaphore
	for _, s := range info.WaitSemaphores {
		waitSemaphores = append(waitSemaphores, s.(*semaphore).handle)
	}

	res, err := q.device.swapchainExtension.QueuePresent(q.handle, khr_swapchain.PresentInfo{
		WaitSemaphores: waitSemaphores,
		Swapchains:     []khr_swapchain.Swapchain{chain.handle},
		ImageIndices:   []int{info.ImageIndex},
	})
	if res == khr_swapchain.VKErrorOutOfDate {
		return errors.Mark(errors.New("present: swapchain out of date"), hal.ErrOutOfDate)
	} else if res == khr_swapchain.VKSuboptimal {
		return errors.Mark(errors.New("present: swapchain suboptimal"), hal.ErrSuboptimal)
	}
	return err
}

func (q *queue) WaitIdle() error {
	_, err := q.device.driver.QueueWaitIdle(q.handle)
	return err
}
