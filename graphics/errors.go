package graphics

import "github.com/cockroachdb/errors"

var (
	// ErrDriver marks every error produced by a rejected driver call.
	ErrDriver             = errors.New("driver call failed")
	ErrNoPhysicalDevices  = errors.New("no physical devices found")
	ErrNoSuitableDevice   = errors.New("no suitable physical device found")
	ErrNoQueueFamily      = errors.New("no matching queue family")
	ErrMissingInheritance = errors.New("secondary command buffer requires inheritance info")
	ErrNoSurfaceFormats   = errors.New("surface reports no formats")
	ErrMissingExtension   = errors.New("required instance extension not available")
	ErrDestroyed          = errors.New("renderer destroyed")
	ErrWindowHandle       = errors.New("window handle unusable by the backend")
)

func driverError(err error, call string) error {
	return errors.Mark(errors.Wrapf(err, "%s", call), ErrDriver)
}
