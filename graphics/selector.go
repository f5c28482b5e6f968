package graphics

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/vkngwrapper/vkframe/hal"
)

// PhysicalDeviceInfo is an immutable snapshot of one GPU's capabilities.
type PhysicalDeviceInfo struct {
	Properties    hal.PhysicalDeviceProperties
	Extensions    []string
	QueueFamilies []hal.QueueFamily
	Features      hal.Features
	Memory        hal.MemoryProperties

	handle     hal.PhysicalDevice
	instance   hal.Instance
	extensions map[string]bool
}

func newPhysicalDeviceInfo(instance hal.Instance, handle hal.PhysicalDevice) (*PhysicalDeviceInfo, error) {
	properties, err := handle.Properties()
	if err != nil {
		return nil, driverError(err, "get physical device properties")
	}

	extensions, err := handle.Extensions()
	if err != nil {
		return nil, driverError(err, "enumerate device extensions")
	}

	info := &PhysicalDeviceInfo{
		Properties:    properties,
		Extensions:    extensions,
		QueueFamilies: handle.QueueFamilies(),
		Features:      handle.Features(),
		Memory:        handle.MemoryProperties(),

		handle:     handle,
		instance:   instance,
		extensions: make(map[string]bool, len(extensions)),
	}
	for _, name := range extensions {
		info.extensions[name] = true
	}
	return info, nil
}

func (p *PhysicalDeviceInfo) Name() string {
	return p.Properties.Name
}

func (p *PhysicalDeviceInfo) Handle() hal.PhysicalDevice {
	return p.handle
}

func (p *PhysicalDeviceInfo) HasExtension(name string) bool {
	return p.extensions[name]
}

func (p *PhysicalDeviceInfo) HasGraphicsQueueFamily() bool {
	for _, family := range p.QueueFamilies {
		if family.Flags&hal.QueueGraphics != 0 {
			return true
		}
	}
	return false
}

// Destroy drops the snapshot. The GPU itself is owned by the instance.
func (p *PhysicalDeviceInfo) Destroy() {
	p.handle = nil
	p.extensions = nil
	p.Extensions = nil
	p.QueueFamilies = nil
}

// SelectPhysicalDevice returns the first GPU, in enumeration order, that has
// a graphics queue family and supports the swapchain extension. A candidate
// named preferredName wins over earlier candidates.
func SelectPhysicalDevice(ctx *Context, preferredName string, log logrus.FieldLogger) (*PhysicalDeviceInfo, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "selector")
	log.Debug("Selecting physical device")

	devices, err := ctx.Instance().EnumeratePhysicalDevices()
	if err != nil {
		return nil, driverError(err, "enumerate physical devices")
	}
	if len(devices) == 0 {
		return nil, ErrNoPhysicalDevices
	}
	log.Debugf("Found %d physical devices", len(devices))

	var candidates []*PhysicalDeviceInfo
	for _, device := range devices {
		info, err := newPhysicalDeviceInfo(ctx.Instance(), device)
		if err != nil {
			releaseCandidates(candidates, log)
			return nil, err
		}

		name := info.Name()
		if !info.HasGraphicsQueueFamily() {
			log.Debugf("Device %s does not support graphics", name)
			info.Destroy()
			continue
		}
		if !info.HasExtension(extSwapchain) {
			log.Debugf("Device %s does not support the swapchain extension", name)
			info.Destroy()
			continue
		}

		if preferredName != "" && name == preferredName {
			log.Infof("Selected preferred device %s", name)
			releaseCandidates(candidates, log)
			return info, nil
		}
		candidates = append(candidates, info)
	}

	if len(candidates) == 0 {
		return nil, errors.Wrapf(ErrNoSuitableDevice, "%d devices enumerated", len(devices))
	}
	if preferredName != "" {
		log.Warnf("Preferred device %s not found", preferredName)
	}

	selected := candidates[0]
	releaseCandidates(candidates[1:], log)
	log.Infof("Selected device %s (API %s)", selected.Name(), selected.Properties.APIVersion)
	return selected, nil
}

func releaseCandidates(candidates []*PhysicalDeviceInfo, log logrus.FieldLogger) {
	for _, info := range candidates {
		log.Debugf("Released snapshot of %s", info.Name())
		info.Destroy()
	}
}
