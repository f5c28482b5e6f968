package graphics

import (
	"github.com/sirupsen/logrus"

	"github.com/vkngwrapper/vkframe/hal"
)

// Device is the open connection to the selected GPU. It references but
// does not own its PhysicalDeviceInfo.
type Device struct {
	physical *PhysicalDeviceInfo
	handle   hal.Device
	log      logrus.FieldLogger
}

// NewDevice requests every queue family the GPU reports, each with one
// zero-priority queue per advertised queue.
func NewDevice(physical *PhysicalDeviceInfo, log logrus.FieldLogger) (*Device, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "device")
	log.Debug("Creating device")

	extensions := []string{extSwapchain}
	if requiresPortability && physical.HasExtension(extPortabilitySubset) {
		extensions = append(extensions, extPortabilitySubset)
	}

	var queues []hal.QueueRequest
	for i, family := range physical.QueueFamilies {
		queues = append(queues, hal.QueueRequest{
			Family:     i,
			Priorities: make([]float32, family.QueueCount),
		})
	}

	handle, err := physical.Handle().CreateDevice(hal.DeviceDescriptor{
		Queues:     queues,
		Extensions: extensions,
	})
	if err != nil {
		return nil, driverError(err, "create device")
	}

	return &Device{
		physical: physical,
		handle:   handle,
		log:      log,
	}, nil
}

func (d *Device) PhysicalDevice() *PhysicalDeviceInfo {
	return d.physical
}

func (d *Device) Handle() hal.Device {
	return d.handle
}

// WaitIdle blocks until all queued work on the device has completed.
func (d *Device) WaitIdle() error {
	if err := d.handle.WaitIdle(); err != nil {
		return driverError(err, "device wait idle")
	}
	return nil
}

func (d *Device) Destroy() {
	d.log.Debug("Destroying device")
	d.handle.Destroy()
}
