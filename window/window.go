// Package window is the SDL2 windowing layer: it owns the native window,
// reports the Vulkan instance extensions and drawable size, and tracks the
// resize, close, keyboard and mouse state between frames.
package window

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/vkframe/window/input"
)

type Options struct {
	Title  string
	Width  int
	Height int
	Logger logrus.FieldLogger
}

type Window struct {
	handle      *sdl.Window
	resized     bool
	shouldClose bool
	pressed     map[sdl.Keycode]bool
	mouse       *input.Mouse
	log         logrus.FieldLogger
}

// New initialises SDL video and opens a resizable Vulkan window. It must be
// called from the main thread.
func New(opts Options) (*Window, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "window")

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "sdl.Init()")
	}

	handle, err := sdl.CreateWindow(opts.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(opts.Width), int32(opts.Height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.CreateWindow()")
	}

	log.Debugf("Created window %q %dx%d", opts.Title, opts.Width, opts.Height)
	return &Window{
		handle:  handle,
		pressed: map[sdl.Keycode]bool{},
		mouse:   input.NewMouse(),
		log:     log,
	}, nil
}

// ProcAddr is the loader entry point used to build the Vulkan driver.
func (w *Window) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

func (w *Window) Handle() any {
	return w.handle
}

func (w *Window) RequiredExtensions() []string {
	return w.handle.VulkanGetInstanceExtensions()
}

func (w *Window) DrawableSize() (int, int) {
	width, height := w.handle.VulkanGetDrawableSize()
	return int(width), int(height)
}

func (w *Window) Resized() bool {
	return w.resized
}

func (w *Window) ResetResized() {
	w.resized = false
}

func (w *Window) ShouldClose() bool {
	return w.shouldClose
}

func (w *Window) SetShouldClose() {
	w.shouldClose = true
}

func (w *Window) IsKeyPressed(key sdl.Keycode) bool {
	return w.pressed[key]
}

func (w *Window) Mouse() *input.Mouse {
	return w.mouse
}

// PollEvents drains the SDL event queue and refreshes the mouse displacement.
func (w *Window) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handleEvent(event)
	}
	w.mouse.Input()
}

func (w *Window) handleEvent(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		w.shouldClose = true
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_RESTORED:
			w.resized = true
		case sdl.WINDOWEVENT_CLOSE:
			w.shouldClose = true
		case sdl.WINDOWEVENT_ENTER:
			w.mouse.SetInWindow(true)
		case sdl.WINDOWEVENT_LEAVE:
			w.mouse.SetInWindow(false)
		}
	case *sdl.MouseMotionEvent:
		w.mouse.Move(float32(e.X), float32(e.Y))
	case *sdl.MouseButtonEvent:
		pressed := e.State == sdl.PRESSED
		switch e.Button {
		case sdl.BUTTON_LEFT:
			w.mouse.SetButton(input.ButtonLeft, pressed)
		case sdl.BUTTON_RIGHT:
			w.mouse.SetButton(input.ButtonRight, pressed)
		}
	case *sdl.KeyboardEvent:
		switch e.Type {
		case sdl.KEYDOWN:
			w.pressed[e.Keysym.Sym] = true
		case sdl.KEYUP:
			delete(w.pressed, e.Keysym.Sym)
			if e.Keysym.Sym == sdl.K_ESCAPE {
				w.shouldClose = true
			}
		}
	}
}

func (w *Window) Destroy() {
	w.log.Debug("Destroying window")
	if w.handle != nil {
		if err := w.handle.Destroy(); err != nil {
			w.log.WithError(err).Warn("Destroying window failed")
		}
		w.handle = nil
	}
	sdl.Quit()
}
