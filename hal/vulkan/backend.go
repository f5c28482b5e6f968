// Package vulkan implements hal on top of vkngwrapper.
package vulkan

import (
	"sort"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"

	"github.com/vkngwrapper/vkframe/hal"
)

type Backend struct {
	globalDriver core1_0.GlobalDriver
}

// NewBackend loads the global driver through the loader entry point, usually
// sdl.VulkanGetVkGetInstanceProcAddr().
func NewBackend(procAddr unsafe.Pointer) (*Backend, error) {
	globalDriver, err := core.CreateDriverFromProcAddr(procAddr)
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan driver")
	}
	return &Backend{globalDriver: globalDriver}, nil
}

func (b *Backend) AvailableLayers() ([]string, error) {
	layers, _, err := b.globalDriver.AvailableLayers()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(layers))
	for name := range layers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (b *Backend) AvailableExtensions() ([]string, error) {
	extensions, _, err := b.globalDriver.AvailableExtensions()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(extensions))
	for name := range extensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (b *Backend) CreateInstance(desc hal.InstanceDescriptor) (hal.Instance, error) {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:       desc.ApplicationName,
		ApplicationVersion:    common.CreateVersion(1, 0, 0),
		EngineName:            desc.EngineName,
		EngineVersion:         common.CreateVersion(1, 0, 0),
		APIVersion:            common.Vulkan1_2,
		EnabledExtensionNames: desc.Extensions,
		EnabledLayerNames:     desc.Layers,
	}
	if desc.EnumeratePortability {
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	handle, _, err := b.globalDriver.CreateInstance(nil, instanceOptions)
	if err != nil {
		return nil, err
	}
	instanceDriver, err := b.globalDriver.BuildInstanceDriver(handle)
	if err != nil {
		return nil, err
	}

	return &instance{
		driver:           instanceDriver,
		surfaceExtension: khr_surface.CreateExtensionDriverFromCoreDriver(instanceDriver),
		debugEnabled:     hasExtension(desc.Extensions, ext_debug_utils.ExtensionName),
	}, nil
}

func hasExtension(extensions []string, name string) bool {
	for _, ext := range extensions {
		if ext == name {
			return true
		}
	}
	return false
}

type instance struct {
	driver           core1_0.CoreInstanceDriver
	surfaceExtension khr_surface.ExtensionDriver
	debugEnabled     bool
}

func (i *instance) CreateDebugMessenger(callback hal.DebugCallback) (hal.DebugMessenger, error) {
	if !i.debugEnabled {
		return nil, errors.Newf("instance was created without %s", ext_debug_utils.ExtensionName)
	}

	debugDriver := ext_debug_utils.CreateExtensionDriverFromCoreDriver(i.driver)
	messenger, _, err := debugDriver.CreateDebugUtilsMessenger(nil, ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback: func(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
			callback(hal.DebugMessage{
				Severity: convertSeverity(severity),
				Type:     msgType.String(),
				Message:  data.Message,
			})
			return false
		},
	})
	if err != nil {
		return nil, err
	}

	return &debugMessenger{driver: debugDriver, handle: messenger}, nil
}

func convertSeverity(severity ext_debug_utils.DebugUtilsMessageSeverityFlags) hal.Severity {
	switch {
	case severity&ext_debug_utils.SeverityError != 0:
		return hal.SeverityError
	case severity&ext_debug_utils.SeverityWarning != 0:
		return hal.SeverityWarning
	case severity&ext_debug_utils.SeverityInfo != 0:
		return hal.SeverityInfo
	}
	return hal.SeverityVerbose
}

func (i *instance) EnumeratePhysicalDevices() ([]hal.PhysicalDevice, error) {
	physicalDevices, _, err := i.driver.EnumeratePhysicalDevices()
	if err != nil {
		return nil, err
	}

	devices := make([]hal.PhysicalDevice, 0, len(physicalDevices))
	for _, device := range physicalDevices {
		devices = append(devices, &physicalDevice{instance: i, handle: device})
	}
	return devices, nil
}

func (i *instance) CreateSurface(window any) (hal.Surface, error) {
	sdlWindow, ok := window.(*sdl.Window)
	if !ok || sdlWindow == nil {
		return nil, errors.Wrapf(hal.ErrUnsupportedWindow, "%T", window)
	}

	handle, err := vkng_sdl2.CreateSurface(i.driver.Instance(), i.surfaceExtension, sdlWindow)
	if err != nil {
		return nil, err
	}
	return &surface{extension: i.surfaceExtension, handle: handle}, nil
}

func (i *instance) Destroy() {
	i.driver.DestroyInstance(nil)
}

type debugMessenger struct {
	driver ext_debug_utils.ExtensionDriver
	handle ext_debug_utils.DebugUtilsMessenger
}

func (m *debugMessenger) Destroy() {
	if m.handle.Initialized() {
		m.driver.DestroyDebugUtilsMessenger(m.handle, nil)
		m.handle = ext_debug_utils.DebugUtilsMessenger{}
	}
}

type surface struct {
	extension khr_surface.ExtensionDriver
	handle    khr_surface.Surface
}

func (s *surface) Destroy() {
	if s.handle.Initialized() {
		s.extension.DestroySurface(s.handle, nil)
		s.handle = khr_surface.Surface{}
	}
}

func unwrapSurface(s hal.Surface) (*surface, error) {
	vkSurface, ok := s.(*surface)
	if !ok {
		return nil, errors.Newf("surface %T was not created by the vulkan backend", s)
	}
	return vkSurface, nil
}
