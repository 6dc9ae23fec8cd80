package engine

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"Vulkube/internal/gpu"
)

// Layer receives the application's lifecycle callbacks.
type Layer interface {
	OnInit() error
	OnPrepareFrame() error
	OnRenderFrame() error
	// OnCleanup releases everything OnInit created, including after a
	// partial OnInit.
	OnCleanup()
	OnResize(width, height int)
}

// EventLoop is the part of the window system the application loop drives.
type EventLoop interface {
	PollEvents()
	ShouldClose() bool
	SetResizeCallback(fn func(width, height int))
}

// Window is the window-system collaborator.
type Window interface {
	gpu.SurfaceSource
	FramebufferSizer
	EventLoop
	RequiredInstanceExtensions() []string
	// WaitEvents blocks until at least one event has been processed.
	WaitEvents()
}

// Application runs a single layer against a window.
type Application struct {
	events EventLoop
	layer  Layer
	log    logrus.FieldLogger
}

func NewApplication(events EventLoop, layer Layer, log logrus.FieldLogger) *Application {
	return &Application{
		events: events,
		layer:  layer,
		log:    log.WithField("component", "application"),
	}
}

// Run initializes the layer and drives frames until the window asks to
// close or ctx is cancelled. The layer is cleaned up on every return path.
func (a *Application) Run(ctx context.Context) error {
	a.events.SetResizeCallback(func(width, height int) {
		a.layer.OnResize(width, height)
	})
	defer a.layer.OnCleanup()

	if err := a.layer.OnInit(); err != nil {
		return errors.Wrap(err, "init vulkan")
	}

	a.log.Info("Entering main loop")
	for !a.events.ShouldClose() {
		if ctx.Err() != nil {
			a.log.Info("Shutdown requested")
			return nil
		}
		a.events.PollEvents()
		if err := a.layer.OnPrepareFrame(); err != nil {
			return errors.Wrap(err, "prepare frame")
		}
		if err := a.layer.OnRenderFrame(); err != nil {
			return errors.Wrap(err, "draw frame")
		}
	}
	a.log.Info("Window closed")
	return nil
}
