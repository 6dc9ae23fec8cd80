package engine

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"Vulkube/internal/gpu"
	"Vulkube/internal/logging"
)

const (
	validationLayer      = "VK_LAYER_KHRONOS_validation"
	debugReportExtension = "VK_EXT_debug_report"
)

// ContextConfig configures instance creation.
type ContextConfig struct {
	ApplicationName  string
	EnableValidation bool
	// Extensions are the instance extensions the window system needs.
	Extensions []string
	// Diagnostics receives validation messages. When nil they are routed
	// to the context's logger by severity.
	Diagnostics gpu.DebugCallback
}

// GraphicsContext owns the API instance and, when validation is enabled,
// the debug messenger. It is the root of every other GPU object.
type GraphicsContext struct {
	driver gpu.InstanceDriver
	log    logrus.FieldLogger

	Instance   gpu.Instance
	Validation bool
	messenger  gpu.DebugMessenger
}

// NewGraphicsContext creates the instance. A missing validation layer is a
// setup error when validation was requested.
func NewGraphicsContext(driver gpu.InstanceDriver, cfg ContextConfig, log logrus.FieldLogger) (*GraphicsContext, error) {
	c := &GraphicsContext{
		driver:     driver,
		log:        log.WithField("component", "context"),
		Validation: cfg.EnableValidation,
	}

	info := gpu.InstanceCreateInfo{
		ApplicationName:    cfg.ApplicationName,
		ApplicationVersion: makeVersion(0, 1, 0),
		EngineName:         "Vulkube",
		EngineVersion:      makeVersion(0, 1, 0),
		APIVersion:         makeVersion(1, 1, 0),
		Extensions:         slices.Clone(cfg.Extensions),
	}
	if cfg.EnableValidation {
		layers, err := driver.EnumerateInstanceLayers()
		if err != nil {
			return nil, errors.Wrap(err, "enumerate instance layers")
		}
		if !slices.Contains(layers, validationLayer) {
			return nil, errors.Wrapf(ErrValidationUnavailable, "layer %s", validationLayer)
		}
		info.Layers = []string{validationLayer}
		info.Extensions = append(info.Extensions, debugReportExtension)
	}

	instance, err := driver.CreateInstance(info)
	if err != nil {
		return nil, errors.Wrap(err, "create instance")
	}
	c.Instance = instance

	if cfg.EnableValidation {
		sink := cfg.Diagnostics
		if sink == nil {
			sink = logging.Diagnostics(c.log)
		}
		messenger, err := driver.CreateDebugMessenger(instance, sink)
		if err != nil {
			c.Destroy()
			return nil, errors.Wrap(err, "create debug callback")
		}
		c.messenger = messenger
	}

	c.log.WithFields(logrus.Fields{
		"application": cfg.ApplicationName,
		"validation":  cfg.EnableValidation,
		"extensions":  info.Extensions,
	}).Info("Vulkan instance created")
	return c, nil
}

// Destroy tears down the messenger and then the instance. It is safe to
// call more than once.
func (c *GraphicsContext) Destroy() {
	if c == nil {
		return
	}
	if c.messenger != 0 {
		c.driver.DestroyDebugMessenger(c.Instance, c.messenger)
		c.messenger = 0
	}
	if c.Instance != 0 {
		c.driver.DestroyInstance(c.Instance)
		c.Instance = 0
	}
}

func makeVersion(major, minor, patch uint32) uint32 {
	return major<<22 | minor<<12 | patch
}
