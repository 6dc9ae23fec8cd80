// Package config reads the engine's settings from the environment and an
// optional dotenv file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"

	"Vulkube/internal/gpu"
)

const (
	BackendGLFW = "glfw"
	BackendSDL2 = "sdl2"
)

type Config struct {
	AppName          string
	Width            int
	Height           int
	EnableValidation bool
	RequireDiscrete  bool
	SurfaceFormat    gpu.Format
	PresentMode      gpu.PresentMode
	VertexShader     string
	FragmentShader   string
	WindowBackend    string
	LogLevel         string
	LogFormat        string
	StatsInterval    time.Duration
}

var surfaceFormats = map[string]gpu.Format{
	"b8g8r8a8_srgb":  gpu.FormatB8g8r8a8Srgb,
	"b8g8r8a8_unorm": gpu.FormatB8g8r8a8Unorm,
	"r8g8b8a8_srgb":  gpu.FormatR8g8b8a8Srgb,
	"r8g8b8a8_unorm": gpu.FormatR8g8b8a8Unorm,
}

var presentModes = map[string]gpu.PresentMode{
	"immediate":    gpu.PresentModeImmediate,
	"mailbox":      gpu.PresentModeMailbox,
	"fifo":         gpu.PresentModeFifo,
	"fifo_relaxed": gpu.PresentModeFifoRelaxed,
}

// Load reads the dotenv file named by KUBE_ENV_FILE (default ".env") if it
// exists, then resolves every key against the environment.
func Load() (Config, error) {
	file := os.Getenv("KUBE_ENV_FILE")
	if file == "" {
		file = ".env"
	}
	if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, errors.Wrapf(err, "load %s", file)
	}
	envy.Reload()

	cfg := Config{
		AppName:          envy.Get("KUBE_APP_NAME", "Vulkan Sandbox"),
		EnableValidation: enableValidation(envy.Get("VK_VALIDATION", "")),
		VertexShader:     envy.Get("KUBE_VERTEX_SHADER", "assets/shaders/spv/shader.vert.spv"),
		FragmentShader:   envy.Get("KUBE_FRAGMENT_SHADER", "assets/shaders/spv/shader.frag.spv"),
		LogLevel:         envy.Get("KUBE_LOG_LEVEL", "info"),
		LogFormat:        envy.Get("KUBE_LOG_FORMAT", "text"),
	}

	var err error
	if cfg.Width, err = positiveInt("KUBE_WIDTH", 800); err != nil {
		return Config{}, err
	}
	if cfg.Height, err = positiveInt("KUBE_HEIGHT", 600); err != nil {
		return Config{}, err
	}
	if cfg.RequireDiscrete, err = strconv.ParseBool(envy.Get("KUBE_REQUIRE_DISCRETE", "true")); err != nil {
		return Config{}, errors.Wrap(err, "KUBE_REQUIRE_DISCRETE")
	}

	format := strings.ToLower(envy.Get("KUBE_SURFACE_FORMAT", "b8g8r8a8_srgb"))
	var ok bool
	if cfg.SurfaceFormat, ok = surfaceFormats[format]; !ok {
		return Config{}, errors.Newf("KUBE_SURFACE_FORMAT: unknown format %q", format)
	}
	mode := strings.ToLower(envy.Get("KUBE_PRESENT_MODE", "mailbox"))
	if cfg.PresentMode, ok = presentModes[mode]; !ok {
		return Config{}, errors.Newf("KUBE_PRESENT_MODE: unknown mode %q", mode)
	}

	cfg.WindowBackend = strings.ToLower(envy.Get("KUBE_WINDOW_BACKEND", BackendGLFW))
	if cfg.WindowBackend != BackendGLFW && cfg.WindowBackend != BackendSDL2 {
		return Config{}, errors.Newf("KUBE_WINDOW_BACKEND: unknown backend %q", cfg.WindowBackend)
	}

	if cfg.StatsInterval, err = time.ParseDuration(envy.Get("KUBE_STATS_INTERVAL", "5s")); err != nil {
		return Config{}, errors.Wrap(err, "KUBE_STATS_INTERVAL")
	}
	return cfg, nil
}

// enableValidation keeps validation on unless explicitly disabled.
func enableValidation(val string) bool {
	switch val {
	case "0", "false", "False", "FALSE":
		return false
	default:
		return true
	}
}

func positiveInt(key string, def int) (int, error) {
	raw := envy.Get(key, strconv.Itoa(def))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrap(err, key)
	}
	if n <= 0 {
		return 0, errors.Newf("%s: must be positive, got %d", key, n)
	}
	return n, nil
}
