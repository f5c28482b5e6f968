package graphics

import "github.com/vkngwrapper/vkframe/hal"

// Fence lets the CPU observe completion of GPU work.
type Fence struct {
	handle hal.Fence
}

func NewFence(device *Device, signaled bool) (*Fence, error) {
	handle, err := device.Handle().CreateFence(signaled)
	if err != nil {
		return nil, driverError(err, "create fence")
	}
	return &Fence{handle: handle}, nil
}

func (f *Fence) Handle() hal.Fence {
	return f.handle
}

// Wait blocks without a timeout.
func (f *Fence) Wait() error {
	if err := f.handle.Wait(); err != nil {
		return driverError(err, "wait for fence")
	}
	return nil
}

func (f *Fence) Reset() error {
	if err := f.handle.Reset(); err != nil {
		return driverError(err, "reset fence")
	}
	return nil
}

func (f *Fence) Destroy() {
	f.handle.Destroy()
}

// Semaphore orders one queue operation after another on the GPU.
type Semaphore struct {
	handle hal.Semaphore
}

func NewSemaphore(device *Device) (*Semaphore, error) {
	handle, err := device.Handle().CreateSemaphore()
	if err != nil {
		return nil, driverError(err, "create semaphore")
	}
	return &Semaphore{handle: handle}, nil
}

func (s *Semaphore) Handle() hal.Semaphore {
	return s.handle
}

func (s *Semaphore) Destroy() {
	s.handle.Destroy()
}
