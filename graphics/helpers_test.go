package graphics

import (
	"strings"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/vkngwrapper/vkframe/hal"
	"github.com/vkngwrapper/vkframe/hal/haltest"
)

type testWindow struct {
	width      int
	height     int
	resized    bool
	extensions []string
}

func newTestWindow() *testWindow {
	return &testWindow{width: 800, height: 600, extensions: []string{"VK_KHR_surface"}}
}

func (w *testWindow) Handle() any                  { return w }
func (w *testWindow) RequiredExtensions() []string { return w.extensions }
func (w *testWindow) DrawableSize() (int, int)     { return w.width, w.height }
func (w *testWindow) Resized() bool                { return w.resized }
func (w *testWindow) ResetResized()                { w.resized = false }

func (w *testWindow) resize(width, height int) {
	w.width, w.height = width, height
	w.resized = true
}

func newTestBackend() *haltest.Backend {
	b := haltest.NewBackend()
	b.Layers = []string{layerKhronosValidation}
	b.Extensions = []string{"VK_KHR_surface", extDebugUtils}
	b.GPUs = []*haltest.GPU{haltest.NewGPU("gpu0")}
	return b
}

func newTestLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func testOptions(logger logrus.FieldLogger) Options {
	opts := DefaultOptions()
	opts.ApplicationName = "test"
	opts.Logger = logger
	return opts
}

// testChain builds the objects an image chain depends on.
type testChain struct {
	ctx     *Context
	device  *Device
	surface *Surface
}

func newTestChain(c *qt.C, b *haltest.Backend, logger logrus.FieldLogger) *testChain {
	ctx, err := NewContext(b, ContextOptions{Validate: true, WindowExtensions: []string{"VK_KHR_surface"}, Logger: logger})
	c.Assert(err, qt.IsNil)
	physical, err := SelectPhysicalDevice(ctx, "", logger)
	c.Assert(err, qt.IsNil)
	device, err := NewDevice(physical, logger)
	c.Assert(err, qt.IsNil)
	surface, err := NewSurface(physical, newTestWindow())
	c.Assert(err, qt.IsNil)
	return &testChain{ctx: ctx, device: device, surface: surface}
}

func (t *testChain) Destroy() {
	t.surface.Destroy()
	t.device.Destroy()
	t.ctx.Destroy()
}

// kinds strips object ids from logged calls: "destroy fence#7" becomes
// "destroy fence".
func kinds(calls []string) []string {
	out := make([]string, 0, len(calls))
	for _, call := range calls {
		if i := strings.IndexByte(call, '#'); i >= 0 {
			call = call[:i]
		}
		out = append(out, call)
	}
	return out
}

func levels(hook *test.Hook, level logrus.Level) []string {
	var messages []string
	for _, entry := range hook.AllEntries() {
		if entry.Level == level {
			messages = append(messages, entry.Message)
		}
	}
	return messages
}

// assertHandles compares handle slices by identity.
func assertHandles[T comparable](c *qt.C, got []T, want ...T) {
	c.Helper()
	c.Assert(got, qt.HasLen, len(want))
	for i := range want {
		c.Assert(got[i], qt.Equals, want[i], qt.Commentf("handle %d", i))
	}
}

var _ hal.Backend = (*haltest.Backend)(nil)
