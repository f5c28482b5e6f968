package graphics

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"

	"github.com/vkngwrapper/vkframe/hal"
	"github.com/vkngwrapper/vkframe/hal/haltest"
)

func computeOnlyGPU(name string) *haltest.GPU {
	gpu := haltest.NewGPU(name)
	gpu.Families = []hal.QueueFamily{{Flags: hal.QueueCompute, QueueCount: 4}}
	return gpu
}

func headlessGPU(name string) *haltest.GPU {
	gpu := haltest.NewGPU(name)
	gpu.Exts = nil
	return gpu
}

func TestSelectPhysicalDevice(t *testing.T) {
	logger, _ := newTestLogger()

	tests := []struct {
		about     string
		gpus      []*haltest.GPU
		preferred string
		expect    string
		expectErr error
	}{{
		about:  "first filtered device wins",
		gpus:   []*haltest.GPU{computeOnlyGPU("compute"), haltest.NewGPU("a"), haltest.NewGPU("b")},
		expect: "a",
	}, {
		about:     "preferred device wins regardless of position",
		gpus:      []*haltest.GPU{haltest.NewGPU("a"), haltest.NewGPU("b"), haltest.NewGPU("c")},
		preferred: "c",
		expect:    "c",
	}, {
		about:     "preferred device that fails filtering is ignored",
		gpus:      []*haltest.GPU{haltest.NewGPU("a"), headlessGPU("b")},
		preferred: "b",
		expect:    "a",
	}, {
		about:     "unknown preferred device falls back to the first",
		gpus:      []*haltest.GPU{haltest.NewGPU("a"), haltest.NewGPU("b")},
		preferred: "z",
		expect:    "a",
	}, {
		about:     "no devices",
		expectErr: ErrNoPhysicalDevices,
	}, {
		about:     "nothing survives filtering",
		gpus:      []*haltest.GPU{computeOnlyGPU("compute"), headlessGPU("headless")},
		expectErr: ErrNoSuitableDevice,
	}}

	for _, test := range tests {
		t.Run(test.about, func(t *testing.T) {
			c := qt.New(t)
			b := newTestBackend()
			b.GPUs = test.gpus

			ctx, err := NewContext(b, ContextOptions{Logger: logger})
			c.Assert(err, qt.IsNil)
			defer ctx.Destroy()

			info, err := SelectPhysicalDevice(ctx, test.preferred, logger)
			if test.expectErr != nil {
				c.Assert(errors.Is(err, test.expectErr), qt.IsTrue, qt.Commentf("got %v", err))
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(info.Name(), qt.Equals, test.expect)
		})
	}
}

func TestSelectPhysicalDeviceIsDeterministic(t *testing.T) {
	c := qt.New(t)
	b := newTestBackend()
	b.GPUs = []*haltest.GPU{haltest.NewGPU("a"), haltest.NewGPU("b"), haltest.NewGPU("c")}

	ctx, err := NewContext(b, ContextOptions{})
	c.Assert(err, qt.IsNil)
	defer ctx.Destroy()

	for i := 0; i < 10; i++ {
		info, err := SelectPhysicalDevice(ctx, "b", nil)
		c.Assert(err, qt.IsNil)
		c.Assert(info.Handle(), qt.Equals, hal.PhysicalDevice(b.GPUs[1]))
	}
}

func TestPhysicalDeviceInfo(t *testing.T) {
	c := qt.New(t)
	b := newTestBackend()
	gpu := b.GPUs[0]
	gpu.Props.VendorID = 0x10de
	gpu.Feats.SamplerAnisotropy = true
	gpu.Memory.Heaps = []hal.MemoryHeap{{Size: 1 << 30}}

	ctx, err := NewContext(b, ContextOptions{})
	c.Assert(err, qt.IsNil)
	defer ctx.Destroy()

	info, err := SelectPhysicalDevice(ctx, "", nil)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Properties.VendorID, qt.Equals, uint32(0x10de))
	c.Assert(info.Features.SamplerAnisotropy, qt.IsTrue)
	c.Assert(info.Memory.Heaps, qt.HasLen, 1)
	c.Assert(info.HasExtension(extSwapchain), qt.IsTrue)
	c.Assert(info.HasExtension("VK_KHR_ray_query"), qt.IsFalse)
	c.Assert(info.HasGraphicsQueueFamily(), qt.IsTrue)
	c.Assert(info.Properties.APIVersion.String(), qt.Equals, "1.2.0")
}

func TestSelectPhysicalDeviceDriverFailure(t *testing.T) {
	c := qt.New(t)
	b := newTestBackend()

	ctx, err := NewContext(b, ContextOptions{})
	c.Assert(err, qt.IsNil)
	defer ctx.Destroy()

	b.Fail("EnumeratePhysicalDevices", nil)
	_, err = SelectPhysicalDevice(ctx, "", nil)
	c.Assert(errors.Is(err, ErrDriver), qt.IsTrue)
	c.Assert(errors.Is(err, haltest.ErrInjected), qt.IsTrue)
}

func TestSelectPhysicalDeviceSnapshotFailureReleasesCandidates(t *testing.T) {
	c := qt.New(t)
	logger, hook := newTestLogger()
	b := newTestBackend()
	b.GPUs = []*haltest.GPU{haltest.NewGPU("a"), haltest.NewGPU("b"), haltest.NewGPU("c")}

	ctx, err := NewContext(b, ContextOptions{Logger: logger})
	c.Assert(err, qt.IsNil)
	defer ctx.Destroy()

	// "a" and "b" become candidates, "c" fails while being inspected.
	b.Pass("Properties", 2)
	b.Fail("Properties", nil)
	hook.Reset()

	info, err := SelectPhysicalDevice(ctx, "", logger)
	c.Assert(info, qt.IsNil)
	c.Assert(errors.Is(err, ErrDriver), qt.IsTrue)
	c.Assert(errors.Is(err, haltest.ErrInjected), qt.IsTrue)

	var released []string
	for _, message := range levels(hook, logrus.DebugLevel) {
		if strings.HasPrefix(message, "Released snapshot") {
			released = append(released, message)
		}
	}
	c.Assert(released, qt.DeepEquals, []string{"Released snapshot of a", "Released snapshot of b"})
}
