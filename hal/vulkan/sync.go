package vulkan

import (
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

type fence struct {
	device *device
	handle core1_0.Fence
}

func (f *fence) Wait() error {
	_, err := f.device.driver.WaitForFences(true, common.NoTimeout, f.handle)
	return err
}

func (f *fence) Reset() error {
	_, err := f.device.driver.ResetFences(f.handle)
	return err
}

func (f *fence) Destroy() {
	if f.handle.Initialized() {
		f.device.driver.DestroyFence(f.handle, nil)
		f.handle = core1_0.Fence{}
	}
}

type semaphore struct {
	device *device
	handle core1_0.Semaphore
}

func (s *semaphore) Destroy() {
	if s.handle.Initialized() {
		s.device.driver.DestroySemaphore(s.handle, nil)
		s.handle = core1_0.Semaphore{}
	}
}
