//go:generate glslc assets/shaders/shader.vert -o assets/shaders/spv/shader.vert.spv
//go:generate glslc assets/shaders/shader.frag -o assets/shaders/spv/shader.frag.spv

package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"

	"Vulkube/internal/config"
	"Vulkube/internal/engine"
	"Vulkube/internal/logging"
	"Vulkube/internal/vkdriver"
	"Vulkube/internal/window"
)

func init() {
	// GLFW/SDL and Vulkan presentation require the main thread.
	runtime.LockOSThread()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Load configuration")
	}
	_, log, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		logrus.WithError(err).Fatal("Configure logging")
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Renderer stopped")
	}
}

func run(cfg config.Config, log *logrus.Entry) error {
	win, err := window.New(window.Config{
		Title:   cfg.AppName,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Backend: cfg.WindowBackend,
	})
	if err != nil {
		return err
	}
	defer win.Destroy()

	driver, err := vkdriver.New(win.InstanceProcAddr())
	if err != nil {
		return err
	}

	rc := engine.DefaultRendererConfig()
	rc.Context.ApplicationName = cfg.AppName
	rc.Context.EnableValidation = cfg.EnableValidation
	rc.Device.Discrete = cfg.RequireDiscrete
	rc.Swapchain.PreferredFormat = cfg.SurfaceFormat
	rc.Swapchain.PreferredPresentMode = cfg.PresentMode
	rc.Shaders = engine.ShaderPaths{Vertex: cfg.VertexShader, Fragment: cfg.FragmentShader}
	rc.StatsInterval = cfg.StatsInterval

	log.WithFields(logrus.Fields{
		"backend":    cfg.WindowBackend,
		"width":      cfg.Width,
		"height":     cfg.Height,
		"validation": cfg.EnableValidation,
	}).Info("Starting renderer")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer := engine.NewFrameRenderer(driver, win, rc, log)
	return engine.NewApplication(win, renderer, log).Run(ctx)
}
