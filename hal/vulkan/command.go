package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/vkframe/hal"
)

func (d *device) CreateRenderPass(desc hal.RenderPassDescriptor) (hal.RenderPass, error) {
	handle, _, err := d.driver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         core1_0.Format(desc.ColorFormat),
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return &renderPass{device: d, handle: handle}, nil
}

type renderPass struct {
	device *device
	handle core1_0.RenderPass
}

func (r *renderPass) Destroy() {
	if r.handle.Initialized() {
		r.device.driver.DestroyRenderPass(r.handle, nil)
		r.handle = core1_0.RenderPass{}
	}
}

func (d *device) CreateFramebuffer(desc hal.FramebufferDescriptor) (hal.Framebuffer, error) {
	pass, ok := desc.RenderPass.(*renderPass)
	if !ok {
		return nil, errors.Newf("render pass %T was not created by the vulkan backend", desc.RenderPass)
	}

	var attachments []core1_0.ImageView
	for _, view := range desc.Attachments {
		attachments = append(attachments, view.(*imageView).handle)
	}

	handle, _, err := d.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  pass.handle,
		Layers:      uint32(desc.Layers),
		Attachments: attachments,
		Width:       desc.Extent.Width,
		Height:      desc.Extent.Height,
	})
	if err != nil {
		return nil, err
	}
	return &framebuffer{device: d, handle: handle}, nil
}

type framebuffer struct {
	device *device
	handle core1_0.Framebuffer
}

func (f *framebuffer) Destroy() {
	if f.handle.Initialized() {
		f.device.driver.DestroyFramebuffer(f.handle, nil)
		f.handle = core1_0.Framebuffer{}
	}
}

func (d *device) CreateCommandPool(desc hal.CommandPoolDescriptor) (hal.CommandPool, error) {
	options := core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: desc.QueueFamily,
	}
	if desc.ResetBuffers {
		options.Flags = core1_0.CommandPoolCreateResetBuffer
	}

	handle, _, err := d.driver.CreateCommandPool(nil, options)
	if err != nil {
		return nil, err
	}
	return &commandPool{device: d, handle: handle}, nil
}

type commandPool struct {
	device *device
	handle core1_0.CommandPool
}

func (p *commandPool) Allocate(level hal.CommandBufferLevel, count int) ([]hal.CommandBuffer, error) {
	vkLevel := core1_0.CommandBufferLevelPrimary
	if level == hal.CommandBufferLevelSecondary {
		vkLevel = core1_0.CommandBufferLevelSecondary
	}

	buffers, _, err := p.device.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        p.handle,
		Level:              vkLevel,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, err
	}

	result := make([]hal.CommandBuffer, 0, len(buffers))
	for _, buffer := range buffers {
		result = append(result, &commandBuffer{device: p.device, handle: buffer})
	}
	return result, nil
}

func (p *commandPool) Free(buffers ...hal.CommandBuffer) {
	var handles []core1_0.CommandBuffer
	for _, buffer := range buffers {
		handles = append(handles, buffer.(*commandBuffer).handle)
	}
	if len(handles) > 0 {
		p.device.driver.FreeCommandBuffers(handles...)
	}
}

func (p *commandPool) Destroy() {
	if p.handle.Initialized() {
		p.device.driver.DestroyCommandPool(p.handle, nil)
		p.handle = core1_0.CommandPool{}
	}
}

type commandBuffer struct {
	device *device
	handle core1_0.CommandBuffer
}

func (b *commandBuffer) Begin(info hal.BeginInfo) error {
	var options core1_0.CommandBufferBeginInfo
	if info.Usage&hal.CommandBufferUsageOneTimeSubmit != 0 {
		options.Flags |= core1_0.CommandBufferUsageOneTimeSubmit
	}
	if info.Usage&hal.CommandBufferUsageRenderPassContinue != 0 {
		options.Flags |= core1_0.CommandBufferUsageRenderPassContinue
	}
	if info.Usage&hal.CommandBufferUsageSimultaneousUse != 0 {
		options.Flags |= core1_0.CommandBufferUsageSimultaneousUse
	}

	if info.Inheritance != nil {
		inheritance := &core1_0.CommandBufferInheritanceInfo{
			Subpass: info.Inheritance.Subpass,
		}
		if pass, ok := info.Inheritance.RenderPass.(*renderPass); ok {
			inheritance.RenderPass = pass.handle
		}
		if fb, ok := info.Inheritance.Framebuffer.(*framebuffer); ok {
			inheritance.Framebuffer = fb.handle
		}
		options.InheritanceInfo = inheritance
	}

	_, err := b.device.driver.BeginCommandBuffer(b.handle, options)
	return err
}

func (b *commandBuffer) End() error {
	_, err := b.device.driver.EndCommandBuffer(b.handle)
	return err
}

func (b *commandBuffer) Reset(releaseResources bool) error {
	var flags core1_0.CommandBufferResetFlags
	if releaseResources {
		flags = core1_0.CommandBufferResetReleaseResources
	}
	_, err := b.device.driver.ResetCommandBuffer(b.handle, flags)
	return err
}

func (b *commandBuffer) BeginRenderPass(info hal.RenderPassBeginInfo) error {
	pass, ok := info.RenderPass.(*renderPass)
	if !ok {
		return errors.Newf("render pass %T was not created by the vulkan backend", info.RenderPass)
	}
	fb, ok := info.Framebuffer.(*framebuffer)
	if !ok {
		return errors.Newf("framebuffer %T was not created by the vulkan backend", info.Framebuffer)
	}

	return b.device.driver.CmdBeginRenderPass(b.handle, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  pass.handle,
			Framebuffer: fb.handle,
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: core1_0.Extent2D{Width: info.Area.Width, Height: info.Area.Height},
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat(info.ClearColor),
			},
		})
}

func (b *commandBuffer) EndRenderPass() {
	b.device.driver.CmdEndRenderPass(b.handle)
}
