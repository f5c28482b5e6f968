package graphics

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
)

// DefaultClearColor is the colour every image is cleared to.
var DefaultClearColor = mgl32.Vec4{0.5, 0.7, 0.9, 1}

// Options is read once at startup and never changes afterwards.
type Options struct {
	ApplicationName string
	Validate        bool
	// PreferredDevice selects a GPU by exact name when it passes filtering.
	PreferredDevice string
	ImageCount      int
	VSync           bool
	ClearColor      mgl32.Vec4

	Logger logrus.FieldLogger
}

func DefaultOptions() Options {
	return Options{
		ApplicationName: "vkframe",
		Validate:        true,
		ImageCount:      3,
		VSync:           true,
		ClearColor:      DefaultClearColor,
	}
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger == nil {
		return logrus.StandardLogger()
	}
	return o.Logger
}

// Window is what the core needs from the windowing layer.
type Window interface {
	// Handle is the native window the surface binds to.
	Handle() any
	// RequiredExtensions lists the instance extensions the window needs to
	// present.
	RequiredExtensions() []string
	// DrawableSize is the current size in pixels.
	DrawableSize() (width, height int)
	Resized() bool
	ResetResized()
}
