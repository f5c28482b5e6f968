package graphics

import (
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/vkngwrapper/vkframe/hal"
)

const (
	extDebugUtils             = "VK_EXT_debug_utils"
	extPortabilityEnumeration = "VK_KHR_portability_enumeration"
	extPortabilitySubset      = "VK_KHR_portability_subset"
	extSwapchain              = "VK_KHR_swapchain"

	layerKhronosValidation  = "VK_LAYER_KHRONOS_validation"
	layerStandardValidation = "VK_LAYER_LUNARG_standard_validation"
)

var legacyValidationLayers = []string{
	"VK_LAYER_GOOGLE_threading",
	"VK_LAYER_LUNARG_parameter_validation",
	"VK_LAYER_LUNARG_object_tracker",
	"VK_LAYER_LUNARG_core_validation",
}

// requiresPortability is true where the native driver is a portability
// implementation layered over another API.
var requiresPortability = runtime.GOOS == "darwin"

// ContextOptions configures NewContext.
type ContextOptions struct {
	ApplicationName string
	Validate        bool
	// WindowExtensions are the instance extensions the windowing layer
	// needs; all of them must be available.
	WindowExtensions []string
	Logger           logrus.FieldLogger
}

// Context owns the API instance and, when validation is active, the debug
// messenger attached to it.
type Context struct {
	backend   hal.Backend
	instance  hal.Instance
	messenger hal.DebugMessenger
	validate  bool
	log       logrus.FieldLogger
}

// validationLayers picks the layers to enable from the available set.
func validationLayers(available []string) []string {
	supported := make(map[string]bool, len(available))
	for _, name := range available {
		supported[name] = true
	}

	if supported[layerKhronosValidation] {
		return []string{layerKhronosValidation}
	}
	if supported[layerStandardValidation] {
		return []string{layerStandardValidation}
	}

	var layers []string
	for _, name := range legacyValidationLayers {
		if supported[name] {
			layers = append(layers, name)
		}
	}
	return layers
}

func NewContext(backend hal.Backend, opts ContextOptions) (*Context, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "context")
	log.Debug("Creating instance")

	var layers []string
	validate := opts.Validate
	if validate {
		available, err := backend.AvailableLayers()
		if err != nil {
			return nil, driverError(err, "enumerate instance layers")
		}
		log.Debugf("Instance supports %d layers", len(available))

		layers = validationLayers(available)
		if len(layers) == 0 {
			validate = false
			log.Warn("Validation was requested but no supported validation layers were found, falling back to no validation")
		}
	}
	log.Debugf("Validation %t", validate)
	for _, layer := range layers {
		log.Debugf("Using validation layer %s", layer)
	}

	available, err := backend.AvailableExtensions()
	if err != nil {
		return nil, driverError(err, "enumerate instance extensions")
	}
	supported := make(map[string]bool, len(available))
	for _, name := range available {
		supported[name] = true
	}
	log.Debugf("Instance supports %d extensions", len(available))

	var extensions []string
	for _, name := range opts.WindowExtensions {
		if !supported[name] {
			return nil, errors.Wrapf(ErrMissingExtension, "window extension %s", name)
		}
		extensions = append(extensions, name)
	}
	if validate {
		extensions = append(extensions, extDebugUtils)
	}
	portability := requiresPortability && supported[extPortabilityEnumeration]
	if portability {
		extensions = append(extensions, extPortabilityEnumeration)
	}

	instance, err := backend.CreateInstance(hal.InstanceDescriptor{
		ApplicationName:      opts.ApplicationName,
		EngineName:           "vkframe",
		Layers:               layers,
		Extensions:           extensions,
		EnumeratePortability: portability,
	})
	if err != nil {
		return nil, driverError(err, "create instance")
	}

	c := &Context{
		backend:  backend,
		instance: instance,
		validate: validate,
		log:      log,
	}

	if validate {
		c.messenger, err = instance.CreateDebugMessenger(c.mirror)
		if err != nil {
			instance.Destroy()
			return nil, driverError(err, "create debug messenger")
		}
	}

	return c, nil
}

// mirror forwards a validation message to the log. The driver call that
// triggered it always continues.
func (c *Context) mirror(msg hal.DebugMessage) {
	entry := c.log.WithField("type", msg.Type)
	switch msg.Severity {
	case hal.SeverityInfo:
		entry.Info(msg.Message)
	case hal.SeverityWarning:
		entry.Warn(msg.Message)
	case hal.SeverityError:
		entry.Error(msg.Message)
	default:
		entry.Debug(msg.Message)
	}
}

func (c *Context) Instance() hal.Instance {
	return c.instance
}

// Validated reports whether validation layers and the debug messenger are
// active.
func (c *Context) Validated() bool {
	return c.validate
}

// Destroy removes the debug messenger before the instance it belongs to.
func (c *Context) Destroy() {
	c.log.Debug("Destroying instance")
	if c.messenger != nil {
		c.messenger.Destroy()
		c.messenger = nil
	}
	if c.instance != nil {
		c.instance.Destroy()
		c.instance = nil
	}
}
