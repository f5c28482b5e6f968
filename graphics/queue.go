package graphics

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vkframe/hal"
)

// ResolveGraphicsFamily returns the first queue family with graphics
// capability.
func ResolveGraphicsFamily(device *Device) (int, error) {
	for i, family := range device.PhysicalDevice().QueueFamilies {
		if family.Flags&hal.QueueGraphics != 0 {
			return i, nil
		}
	}
	return 0, errors.Wrap(ErrNoQueueFamily, "graphics")
}

// ResolvePresentFamily returns the first queue family that can present to
// surface.
func ResolvePresentFamily(device *Device, surface *Surface) (int, error) {
	physical := device.PhysicalDevice()
	for i := range physical.QueueFamilies {
		supported, err := physical.Handle().SurfaceSupport(surface.Handle(), i)
		if err != nil {
			return 0, driverError(err, "get surface support")
		}
		if supported {
			return i, nil
		}
	}
	return 0, errors.Wrap(ErrNoQueueFamily, "present")
}

// Queue is identified by its family and index within the family.
type Queue struct {
	family int
	index  int
	handle hal.Queue
}

func NewQueue(device *Device, family, index int) *Queue {
	return &Queue{
		family: family,
		index:  index,
		handle: device.Handle().Queue(family, index),
	}
}

func (q *Queue) Family() int {
	return q.family
}

func (q *Queue) Index() int {
	return q.index
}

func (q *Queue) Handle() hal.Queue {
	return q.handle
}

// Submission lists the semaphores a submit waits on and signals. Empty
// lists mean no ordering dependency.
type Submission struct {
	CommandBuffers   []*CommandBuffer
	WaitSemaphores   []*Semaphore
	WaitStages       []hal.PipelineStage
	SignalSemaphores []*Semaphore
}

// Submit enqueues work and returns without waiting for it. fence, when not
// nil, is signaled once the whole submission has completed.
func (q *Queue) Submit(sub Submission, fence *Fence) error {
	info := hal.SubmitInfo{WaitStages: sub.WaitStages}
	for _, buffer := range sub.CommandBuffers {
		info.CommandBuffers = append(info.CommandBuffers, buffer.Handle())
	}
	for _, semaphore := range sub.WaitSemaphores {
		info.WaitSemaphores = append(info.WaitSemaphores, semaphore.Handle())
	}
	for _, semaphore := range sub.SignalSemaphores {
		info.SignalSemaphores = append(info.SignalSemaphores, semaphore.Handle())
	}

	var halFence hal.Fence
	if fence != nil {
		halFence = fence.Handle()
	}
	if err := q.handle.Submit(info, halFence); err != nil {
		return driverError(err, "queue submit")
	}
	return nil
}

// WaitIdle drains all work submitted to this queue.
func (q *Queue) WaitIdle() error {
	if err := q.handle.WaitIdle(); err != nil {
		return driverError(err, "queue wait idle")
	}
	return nil
}
