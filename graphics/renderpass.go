package graphics

import "github.com/vkngwrapper/vkframe/hal"

// RenderPass is a single subpass pass over one color attachment that clears
// on load and leaves the image ready to present.
type RenderPass struct {
	handle hal.RenderPass
}

func NewRenderPass(device *Device, format hal.Format) (*RenderPass, error) {
	handle, err := device.Handle().CreateRenderPass(hal.RenderPassDescriptor{ColorFormat: format})
	if err != nil {
		return nil, driverError(err, "create render pass")
	}
	return &RenderPass{handle: handle}, nil
}

func (r *RenderPass) Handle() hal.RenderPass {
	return r.handle
}

func (r *RenderPass) Destroy() {
	r.handle.Destroy()
}

type Framebuffer struct {
	handle hal.Framebuffer
}

func NewFramebuffer(device *Device, pass *RenderPass, view *ImageView, extent hal.Extent2D) (*Framebuffer, error) {
	handle, err := device.Handle().CreateFramebuffer(hal.FramebufferDescriptor{
		RenderPass:  pass.Handle(),
		Attachments: []hal.ImageView{view.Handle()},
		Extent:      extent,
		Layers:      1,
	})
	if err != nil {
		return nil, driverError(err, "create framebuffer")
	}
	return &Framebuffer{handle: handle}, nil
}

func (f *Framebuffer) Handle() hal.Framebuffer {
	return f.handle
}

func (f *Framebuffer) Destroy() {
	f.handle.Destroy()
}
