// Package input tracks pointer state between frames independently of the
// windowing backend that feeds it.
package input

import "github.com/go-gl/mathgl/mgl32"

type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
)

// Mouse holds the cursor position seen by the last two Input calls.
// Displacement is expressed as rotation input: X carries the vertical
// movement and Y the horizontal one.
type Mouse struct {
	Previous     mgl32.Vec2
	Current      mgl32.Vec2
	Displacement mgl32.Vec2

	InWindow     bool
	LeftPressed  bool
	RightPressed bool
}

func NewMouse() *Mouse {
	return &Mouse{Previous: mgl32.Vec2{-1, -1}}
}

func (m *Mouse) Move(x, y float32) {
	m.Current = mgl32.Vec2{x, y}
}

func (m *Mouse) SetInWindow(inside bool) {
	m.InWindow = inside
}

func (m *Mouse) SetButton(button Button, pressed bool) {
	switch button {
	case ButtonLeft:
		m.LeftPressed = pressed
	case ButtonRight:
		m.RightPressed = pressed
	}
}

// Input recomputes the displacement once per frame. Until a first position
// inside the window is known the displacement stays zero.
func (m *Mouse) Input() {
	m.Displacement = mgl32.Vec2{}

	if m.Previous.X() > 0 && m.Previous.Y() > 0 && m.InWindow {
		delta := m.Current.Sub(m.Previous)
		m.Displacement = mgl32.Vec2{delta.Y(), delta.X()}
	}
	if m.InWindow {
		m.Previous = m.Current
	}
}
