// Package window opens the native window the renderer presents to. Two
// backends are available: GLFW and SDL2.
package window

import (
	"unsafe"

	"github.com/cockroachdb/errors"

	"Vulkube/internal/config"
	"Vulkube/internal/engine"
)

type Config struct {
	Title   string
	Width   int
	Height  int
	Backend string
}

// Window is an engine.Window that also owns the native resources and the
// Vulkan loader entry point.
type Window interface {
	engine.Window
	// InstanceProcAddr returns vkGetInstanceProcAddr as resolved by the
	// window system.
	InstanceProcAddr() unsafe.Pointer
	Destroy()
}

// New opens a resizable window with the configured backend. It must run on
// the main thread.
func New(cfg Config) (Window, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Newf("invalid window size %dx%d", cfg.Width, cfg.Height)
	}
	switch cfg.Backend {
	case "", config.BackendGLFW:
		return newGLFW(cfg)
	case config.BackendSDL2:
		return newSDL(cfg)
	default:
		return nil, errors.Newf("unknown window backend %q", cfg.Backend)
	}
}
