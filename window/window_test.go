package window

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/vkframe/window/input"
)

// newEventWindow builds a window without a native handle; handleEvent
// never touches SDL itself.
func newEventWindow() *Window {
	log, _ := test.NewNullLogger()
	return &Window{
		pressed: map[sdl.Keycode]bool{},
		mouse:   input.NewMouse(),
		log:     log,
	}
}

func TestMouseEvents(t *testing.T) {
	c := qt.New(t)
	w := newEventWindow()

	w.handleEvent(&sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_ENTER})
	w.handleEvent(&sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION, X: 40, Y: 30})
	w.mouse.Input()
	w.handleEvent(&sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION, X: 44, Y: 20})
	w.mouse.Input()

	m := w.Mouse()
	c.Assert(m.InWindow, qt.IsTrue)
	c.Assert(m.Current, qt.Equals, mgl32.Vec2{44, 20})
	c.Assert(m.Displacement, qt.Equals, mgl32.Vec2{-10, 4})

	w.handleEvent(&sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONDOWN, Button: sdl.BUTTON_LEFT, State: sdl.PRESSED})
	w.handleEvent(&sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONDOWN, Button: sdl.BUTTON_RIGHT, State: sdl.PRESSED})
	c.Assert(m.LeftPressed, qt.IsTrue)
	c.Assert(m.RightPressed, qt.IsTrue)

	w.handleEvent(&sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONUP, Button: sdl.BUTTON_LEFT, State: sdl.RELEASED})
	c.Assert(m.LeftPressed, qt.IsFalse)
	c.Assert(m.RightPressed, qt.IsTrue)

	w.handleEvent(&sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_LEAVE})
	c.Assert(m.InWindow, qt.IsFalse)
}

func TestWindowEvents(t *testing.T) {
	c := qt.New(t)
	w := newEventWindow()

	w.handleEvent(&sdl.WindowEvent{Type: sdl.WINDOWEVENT, Event: sdl.WINDOWEVENT_RESIZED, Data1: 1024, Data2: 768})
	c.Assert(w.Resized(), qt.IsTrue)
	w.ResetResized()
	c.Assert(w.Resized(), qt.IsFalse)

	w.handleEvent(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Sym: sdl.K_w}})
	c.Assert(w.IsKeyPressed(sdl.K_w), qt.IsTrue)
	w.handleEvent(&sdl.KeyboardEvent{Type: sdl.KEYUP, Keysym: sdl.Keysym{Sym: sdl.K_w}})
	c.Assert(w.IsKeyPressed(sdl.K_w), qt.IsFalse)
	c.Assert(w.ShouldClose(), qt.IsFalse)

	w.handleEvent(&sdl.KeyboardEvent{Type: sdl.KEYUP, Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE}})
	c.Assert(w.ShouldClose(), qt.IsTrue)
}

func TestQuitEvent(t *testing.T) {
	c := qt.New(t)
	w := newEventWindow()
	w.handleEvent(&sdl.QuitEvent{Type: sdl.QUIT})
	c.Assert(w.ShouldClose(), qt.IsTrue)
}
