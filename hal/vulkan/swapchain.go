package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/vkframe/hal"
)

func presentMode(mode hal.PresentMode) khr_surface.PresentMode {
	switch mode {
	case hal.PresentModeImmediate:
		return khr_surface.PresentModeImmediate
	case hal.PresentModeMailbox:
		return khr_surface.PresentModeMailbox
	case hal.PresentModeFIFORelaxed:
		return khr_surface.PresentModeFIFORelaxed
	}
	return khr_surface.PresentModeFIFO
}

func (d *device) CreateSwapchain(desc hal.SwapchainDescriptor) (hal.Swapchain, error) {
	vkSurface, err := unwrapSurface(desc.Surface)
	if err != nil {
		return nil, err
	}

	capabilities, err := d.physical.surfaceCapabilities(desc.Surface)
	if err != nil {
		return nil, err
	}

	handle, _, err := d.swapchainExtension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: vkSurface.handle,

		MinImageCount:    desc.MinImageCount,
		ImageFormat:      core1_0.Format(desc.Format.Format),
		ImageColorSpace:  khr_surface.ColorSpace(desc.Format.ColorSpace),
		ImageExtent:      core1_0.Extent2D{Width: desc.Extent.Width, Height: desc.Extent.Height},
		ImageArrayLayers: desc.ArrayLayers,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode: core1_0.SharingModeExclusive,

		PreTransform:   capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode(desc.PresentMode),
		Clipped:        desc.Clipped,
	})
	if err != nil {
		return nil, err
	}

	return &swapchain{device: d, handle: handle}, nil
}

type swapchain struct {
	device *device
	handle khr_swapchain.Swapchain
}

func (s *swapchain) Images() ([]hal.Image, error) {
	images, _, err := s.device.swapchainExtension.GetSwapchainImages(s.handle)
	if err != nil {
		return nil, err
	}

	result := make([]hal.Image, 0, len(images))
	for _, image := range images {
		result = append(result, image)
	}
	return result, nil
}

func (s *swapchain) AcquireNextImage(signal hal.Semaphore) (int, error) {
	vkSemaphore, ok := signal.(*semaphore)
	if !ok {
		return 0, errors.Newf("semaphore %T was not created by the vulkan backend", signal)
	}

	imageIndex, res, err := s.device.swapchainExtension.AcquireNextImage(s.handle, common.NoTimeout, &vkSemaphore.handle, nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return 0, errors.Mark(errors.New("acquire: swapchain out of date"), hal.ErrOutOfDate)
	} else if err != nil {
		return 0, err
	}
	return imageIndex, nil
}

func (s *swapchain) Destroy() {
	if s.handle.Initialized() {
		s.device.swapchainExtension.DestroySwapchain(s.handle, nil)
		s.handle = khr_swapchain.Swapchain{}
	}
}

func (d *device) CreateImageView(desc hal.ImageViewDescriptor) (hal.ImageView, error) {
	image, ok := desc.Image.(core1_0.Image)
	if !ok {
		return nil, errors.Newf("image %T was not created by the vulkan backend", desc.Image)
	}

	handle, _, err := d.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   core1_0.Format(desc.Format),
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectFlags(desc.Aspect),
			BaseMipLevel:   0,
			LevelCount:     desc.MipLevels,
			BaseArrayLayer: 0,
			LayerCount:     desc.ArrayLayers,
		},
	})
	if err != nil {
		return nil, err
	}
	return &imageView{device: d, handle: handle}, nil
}

type imageView struct {
	device *device
	handle core1_0.ImageView
}

func (v *imageView) Destroy() {
	if v.handle.Initialized() {
		v.device.driver.DestroyImageView(v.handle, nil)
		v.handle = core1_0.ImageView{}
	}
}
