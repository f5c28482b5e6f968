package graphics

import (
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"

	"github.com/vkngwrapper/vkframe/hal"
	"github.com/vkngwrapper/vkframe/hal/haltest"
)

func TestCommandBufferUsageFlags(t *testing.T) {
	c := qt.New(t)
	b := newTestBackend()
	rig := newTestChain(c, b, nil)
	defer rig.Destroy()

	pool, err := NewCommandPool(rig.device, 0, nil)
	c.Assert(err, qt.IsNil)
	defer pool.Destroy()
	c.Assert(rig.device.Handle().(*haltest.Device).Pools[0].Descriptor, qt.Equals,
		hal.CommandPoolDescriptor{QueueFamily: 0, ResetBuffers: true})

	primary, err := NewCommandBuffer(pool, true, true)
	c.Assert(err, qt.IsNil)
	c.Assert(primary.BeginRecording(nil), qt.IsNil)
	c.Assert(primary.EndRecording(), qt.IsNil)
	fake := primary.Handle().(*haltest.CommandBuffer)
	c.Assert(fake.Level, qt.Equals, hal.CommandBufferLevelPrimary)
	c.Assert(fake.Begins[0].Usage, qt.Equals, hal.CommandBufferUsageOneTimeSubmit)
	c.Assert(fake.Begins[0].Inheritance, qt.IsNil)

	reusable, err := NewCommandBuffer(pool, true, false)
	c.Assert(err, qt.IsNil)
	c.Assert(reusable.BeginRecording(nil), qt.IsNil)
	c.Assert(reusable.Handle().(*haltest.CommandBuffer).Begins[0].Usage, qt.Equals, hal.CommandBufferUsage(0))

	pass, err := NewRenderPass(rig.device, hal.FormatB8G8R8A8SRGB)
	c.Assert(err, qt.IsNil)
	defer pass.Destroy()

	secondary, err := NewCommandBuffer(pool, false, false)
	c.Assert(err, qt.IsNil)
	c.Assert(secondary.Primary(), qt.IsFalse)
	c.Assert(secondary.BeginRecording(&InheritanceInfo{RenderPass: pass, Subpass: 0}), qt.IsNil)
	begin := secondary.Handle().(*haltest.CommandBuffer).Begins[0]
	c.Assert(begin.Usage, qt.Equals, hal.CommandBufferUsageRenderPassContinue)
	c.Assert(begin.Inheritance.RenderPass, qt.Equals, pass.Handle())
	c.Assert(begin.Inheritance.Framebuffer, qt.IsNil)
}

func TestSecondaryCommandBufferRequiresInheritance(t *testing.T) {
	c := qt.New(t)
	b := newTestBackend()
	rig := newTestChain(c, b, nil)
	defer rig.Destroy()

	pool, err := NewCommandPool(rig.device, 0, nil)
	c.Assert(err, qt.IsNil)
	defer pool.Destroy()

	secondary, err := NewCommandBuffer(pool, false, true)
	c.Assert(err, qt.IsNil)
	err = secondary.BeginRecording(nil)
	c.Assert(errors.Is(err, ErrMissingInheritance), qt.IsTrue)
	c.Assert(secondary.Handle().(*haltest.CommandBuffer).Begins, qt.HasLen, 0)
}

func TestCommandBufferFreeAfterPoolDestroy(t *testing.T) {
	c := qt.New(t)
	b := newTestBackend()
	rig := newTestChain(c, b, nil)
	defer rig.Destroy()

	pool, err := NewCommandPool(rig.device, 0, nil)
	c.Assert(err, qt.IsNil)

	freed, err := NewCommandBuffer(pool, true, false)
	c.Assert(err, qt.IsNil)
	kept, err := NewCommandBuffer(pool, true, false)
	c.Assert(err, qt.IsNil)
	c.Assert(pool.Outstanding(), qt.Equals, 2)

	freed.Destroy()
	freed.Destroy()
	c.Assert(pool.Outstanding(), qt.Equals, 1)

	pool.Destroy()
	kept.Destroy()

	c.Assert(b.DoubleDestroys, qt.HasLen, 0)
	c.Assert(b.CallsMatching("destroy cmd"), qt.HasLen, 1)
}

func TestCommandBufferReset(t *testing.T) {
	c := qt.New(t)
	b := newTestBackend()
	rig := newTestChain(c, b, nil)
	defer rig.Destroy()

	pool, err := NewCommandPool(rig.device, 0, nil)
	c.Assert(err, qt.IsNil)
	defer pool.Destroy()

	buffer, err := NewCommandBuffer(pool, true, true)
	c.Assert(err, qt.IsNil)
	c.Assert(buffer.BeginRecording(nil), qt.IsNil)
	c.Assert(buffer.Reset(), qt.IsNil)
	c.Assert(b.CallsMatching("reset cmd"), qt.HasLen, 1)
	c.Assert(b.CallsMatching("reset cmd")[0], qt.Matches, `reset cmd#\d+ release=true`)
}

func TestFence(t *testing.T) {
	c := qt.New(t)
	b := newTestBackend()
	rig := newTestChain(c, b, nil)
	defer rig.Destroy()

	fence, err := NewFence(rig.device, true)
	c.Assert(err, qt.IsNil)
	defer fence.Destroy()

	c.Assert(fence.Wait(), qt.IsNil)
	c.Assert(fence.Reset(), qt.IsNil)
	c.Assert(errors.Is(fence.Wait(), ErrDriver), qt.IsTrue)

	queue := NewQueue(rig.device, 0, 0)
	c.Assert(queue.Submit(Submission{}, fence), qt.IsNil)
	c.Assert(fence.Wait(), qt.IsNil)
}
