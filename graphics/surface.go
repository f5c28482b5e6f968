package graphics

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/vkframe/hal"
)

// Surface binds a native window to the instance the GPU belongs to.
type Surface struct {
	handle hal.Surface
}

func NewSurface(physical *PhysicalDeviceInfo, window any) (*Surface, error) {
	handle, err := physical.instance.CreateSurface(window)
	if errors.Is(err, hal.ErrUnsupportedWindow) {
		return nil, errors.Mark(errors.Wrap(err, "create surface"), ErrWindowHandle)
	} else if err != nil {
		return nil, driverError(err, "create surface")
	}
	return &Surface{handle: handle}, nil
}

func (s *Surface) Handle() hal.Surface {
	return s.handle
}

func (s *Surface) Destroy() {
	s.handle.Destroy()
}
