package engine

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"Vulkube/internal/gpu"
)

// SwapchainConfig holds the preferences used for every swapchain
// generation.
type SwapchainConfig struct {
	PreferredFormat      gpu.Format
	PreferredColorSpace  gpu.ColorSpace
	PreferredPresentMode gpu.PresentMode
}

func DefaultSwapchainConfig() SwapchainConfig {
	return SwapchainConfig{
		PreferredFormat:      gpu.FormatB8g8r8a8Srgb,
		PreferredColorSpace:  gpu.ColorSpaceSrgbNonlinear,
		PreferredPresentMode: gpu.PresentModeMailbox,
	}
}

// FramebufferSizer reports the window's framebuffer size in pixels.
type FramebufferSizer interface {
	FramebufferSize() (width, height int)
}

// Swapchain is one generation of the presentable image chain. Images are
// owned by the chain; views are owned by the generation.
type Swapchain struct {
	Handle      gpu.Swapchain
	Images      []gpu.Image
	Views       []gpu.ImageView
	Format      gpu.SurfaceFormat
	PresentMode gpu.PresentMode
	Extent      gpu.Extent2D
	Generation  uint64
}

// SwapchainManager creates and rebuilds swapchain generations without
// touching the context, device or surface.
type SwapchainManager struct {
	driver  gpu.Driver
	device  *LogicalDevice
	surface gpu.Surface
	window  FramebufferSizer
	cfg     SwapchainConfig
	log     logrus.FieldLogger

	current    *Swapchain
	generation uint64
}

func NewSwapchainManager(driver gpu.Driver, device *LogicalDevice, surface gpu.Surface, window FramebufferSizer, cfg SwapchainConfig, log logrus.FieldLogger) (*SwapchainManager, error) {
	m := &SwapchainManager{
		driver:  driver,
		device:  device,
		surface: surface,
		window:  window,
		cfg:     cfg,
		log:     log.WithField("component", "swapchain"),
	}
	if err := m.create(); err != nil {
		return nil, err
	}
	return m, nil
}

// Current returns the live generation, or nil after Destroy.
func (m *SwapchainManager) Current() *Swapchain {
	return m.current
}

// Rebuild destroys the current generation and creates the next one with
// the original configuration. The caller must make sure the device is idle.
func (m *SwapchainManager) Rebuild() error {
	m.Destroy()
	return m.create()
}

// Destroy destroys the image views and then the chain.
func (m *SwapchainManager) Destroy() {
	if m == nil || m.current == nil {
		return
	}
	dev := m.device.Handle
	for _, view := range m.current.Views {
		m.driver.DestroyImageView(dev, view)
	}
	if m.current.Handle != 0 {
		m.driver.DestroySwapchain(dev, m.current.Handle)
	}
	m.current = nil
}

func (m *SwapchainManager) create() error {
	phys := m.device.Physical.Handle
	caps, err := m.driver.SurfaceCapabilities(phys, m.surface)
	if err != nil {
		return errors.Wrap(err, "query surface capabilities")
	}
	formats, err := m.driver.SurfaceFormats(phys, m.surface)
	if err != nil {
		return errors.Wrap(err, "query surface formats")
	}
	modes, err := m.driver.PresentModes(phys, m.surface)
	if err != nil {
		return errors.Wrap(err, "query present modes")
	}

	format := ChooseSurfaceFormat(formats, m.cfg.PreferredFormat, m.cfg.PreferredColorSpace)
	mode := ChoosePresentMode(modes, m.cfg.PreferredPresentMode)
	extent := ChooseExtent(caps, m.window)

	info := gpu.SwapchainCreateInfo{
		Surface:       m.surface,
		MinImageCount: ImageCount(caps),
		Format:        format,
		Extent:        extent,
		PresentMode:   mode,
		PreTransform:  caps.CurrentTransform,
	}
	if q := m.device.Physical.Queues; q.HasPresent && q.Graphics != q.Present {
		info.QueueFamilies = []uint32{q.Graphics, q.Present}
	}

	dev := m.device.Handle
	handle, err := m.driver.CreateSwapchain(dev, info)
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	sc := &Swapchain{
		Handle:      handle,
		Format:      format,
		PresentMode: mode,
		Extent:      extent,
	}
	// Assigned before the views so a failure below is cleaned up by Destroy.
	m.current = sc

	images, err := m.driver.SwapchainImages(dev, handle)
	if err != nil {
		m.Destroy()
		return errors.Wrap(err, "get swapchain images")
	}
	sc.Images = images
	for i, img := range images {
		view, err := m.driver.CreateImageView(dev, img, format.Format)
		if err != nil {
			m.Destroy()
			return errors.Wrapf(err, "create image view %d", i)
		}
		sc.Views = append(sc.Views, view)
	}

	m.generation++
	sc.Generation = m.generation
	m.log.WithFields(logrus.Fields{
		"generation": sc.Generation,
		"images":     len(images),
		"width":      extent.Width,
		"height":     extent.Height,
		"format":     format.Format,
		"present":    mode,
	}).Debug("Swapchain created")
	return nil
}

// ChooseSurfaceFormat returns the preferred pair when available and the
// first available format otherwise.
func ChooseSurfaceFormat(available []gpu.SurfaceFormat, format gpu.Format, colorSpace gpu.ColorSpace) gpu.SurfaceFormat {
	for _, f := range available {
		if f.Format == format && f.ColorSpace == colorSpace {
			return f
		}
	}
	if len(available) == 0 {
		return gpu.SurfaceFormat{Format: format, ColorSpace: colorSpace}
	}
	return available[0]
}

// ChoosePresentMode falls back to FIFO, which every surface supports.
func ChoosePresentMode(available []gpu.PresentMode, preferred gpu.PresentMode) gpu.PresentMode {
	for _, m := range available {
		if m == preferred {
			return m
		}
	}
	return gpu.PresentModeFifo
}

// ChooseExtent uses the surface's current extent when it is defined and
// otherwise clamps the window's framebuffer size into the supported range.
func ChooseExtent(caps gpu.SurfaceCapabilities, window FramebufferSizer) gpu.Extent2D {
	if caps.CurrentExtent.Width != gpu.UndefinedExtent {
		return caps.CurrentExtent
	}
	w, h := window.FramebufferSize()
	return gpu.Extent2D{
		Width:  clamp(uint32(max(w, 0)), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(uint32(max(h, 0)), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ImageCount asks for one image more than the minimum, capped at the
// maximum when the surface has one.
func ImageCount(caps gpu.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func clamp(val, lo, hi uint32) uint32 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
