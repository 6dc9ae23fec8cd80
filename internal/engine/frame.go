package engine

import (
	"context"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	mgl32 "github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"Vulkube/internal/gpu"
)

// MaxFramesInFlight is the size of the frame-slot ring.
const MaxFramesInFlight = 2

// FrameSlot holds the per-frame command and synchronization objects. The
// in-flight fence guards every other member.
type FrameSlot struct {
	CommandBuffer  gpu.CommandBuffer
	ImageAvailable gpu.Semaphore
	RenderFinished gpu.Semaphore
	InFlight       gpu.Fence
}

type RendererConfig struct {
	Context       ContextConfig
	Device        DeviceRequirements
	Swapchain     SwapchainConfig
	Shaders       ShaderPaths
	ClearColor    mgl32.Vec4
	Vertices      []Vertex
	StatsInterval time.Duration
}

// DefaultRendererConfig draws the built-in triangle on black.
func DefaultRendererConfig() RendererConfig {
	return RendererConfig{
		Context:    ContextConfig{ApplicationName: "Vulkan Sandbox", EnableValidation: true},
		Device:     DefaultDeviceRequirements(),
		Swapchain:  DefaultSwapchainConfig(),
		Shaders:    DefaultShaderPaths(),
		ClearColor: mgl32.Vec4{0, 0, 0, 1},
		Vertices:   Triangle,
	}
}

// FrameRenderer is the Layer that brings up the whole GPU stack and runs
// the acquire, record, submit and present loop over MaxFramesInFlight
// slots.
type FrameRenderer struct {
	driver gpu.Driver
	window Window
	cfg    RendererConfig
	log    logrus.FieldLogger

	gc           *GraphicsContext
	surface      *PresentationSurface
	device       *LogicalDevice
	swapchains   *SwapchainManager
	pipeline     *PipelineBuilder
	commandPool  gpu.CommandPool
	vertexBuffer DeviceBuffer
	vertexCount  uint32
	slots        []FrameSlot
	stats        *FrameStats
	ready        bool

	slot         int
	imageIndex   uint32
	frameAborted bool
	suboptimal   bool
	// resized is raised by the window's resize callback, which runs on the
	// loop thread inside PollEvents.
	resized bool
}

var _ Layer = (*FrameRenderer)(nil)

func NewFrameRenderer(driver gpu.Driver, window Window, cfg RendererConfig, log logrus.FieldLogger) *FrameRenderer {
	return &FrameRenderer{
		driver: driver,
		window: window,
		cfg:    cfg,
		log:    log.WithField("component", "renderer"),
	}
}

// OnInit creates every GPU object in dependency order. On failure the
// objects created so far are released before returning.
func (r *FrameRenderer) OnInit() (err error) {
	defer func() {
		if err != nil {
			r.OnCleanup()
		}
	}()

	code, err := LoadShaders(context.Background(), r.cfg.Shaders)
	if err != nil {
		return err
	}

	ctxCfg := r.cfg.Context
	ctxCfg.Extensions = slices.Concat(r.window.RequiredInstanceExtensions(), ctxCfg.Extensions)
	if r.gc, err = NewGraphicsContext(r.driver, ctxCfg, r.log); err != nil {
		return err
	}
	if r.surface, err = NewPresentationSurface(r.gc, r.window); err != nil {
		return err
	}
	info, err := SelectPhysicalDevice(r.driver, r.gc.Instance, r.surface.Handle, r.cfg.Device)
	if err != nil {
		return err
	}
	if r.device, err = NewLogicalDevice(r.driver, info, r.gc.Validation, r.log); err != nil {
		return err
	}
	if r.swapchains, err = NewSwapchainManager(r.driver, r.device, r.surface.Handle, r.window, r.cfg.Swapchain, r.log); err != nil {
		return err
	}
	r.pipeline = NewPipelineBuilder(r.driver, r.device, r.log)
	if err = r.pipeline.Build(r.swapchains.Current(), code); err != nil {
		return err
	}
	if r.commandPool, err = r.driver.CreateCommandPool(r.device.Handle, info.Queues.Graphics); err != nil {
		return errors.Wrap(err, "create command pool")
	}

	uploader := NewResourceUploader(r.driver, r.device, r.commandPool, r.device.GraphicsQueue)
	if r.vertexBuffer, err = uploader.Upload(VertexBytes(r.cfg.Vertices), gpu.BufferUsageVertexBufferBit); err != nil {
		return errors.Wrap(err, "upload vertices")
	}
	r.vertexCount = uint32(len(r.cfg.Vertices))

	if err = r.createFrameSlots(); err != nil {
		return err
	}
	r.stats = NewFrameStats(r.cfg.StatsInterval, r.log)
	r.ready = true
	return nil
}

func (r *FrameRenderer) createFrameSlots() error {
	dev := r.device.Handle
	cmds, err := r.driver.AllocateCommandBuffers(dev, r.commandPool, MaxFramesInFlight)
	if err != nil {
		return errors.Wrap(err, "allocate command buffers")
	}
	r.slots = make([]FrameSlot, MaxFramesInFlight)
	for i := range r.slots {
		slot := &r.slots[i]
		slot.CommandBuffer = cmds[i]
		if slot.ImageAvailable, err = r.driver.CreateSemaphore(dev); err != nil {
			return errors.Wrapf(err, "create imageAvailable semaphore %d", i)
		}
		if slot.RenderFinished, err = r.driver.CreateSemaphore(dev); err != nil {
			return errors.Wrapf(err, "create renderFinished semaphore %d", i)
		}
		// Signaled so the first wait on each slot returns at once.
		if slot.InFlight, err = r.driver.CreateFence(dev, true); err != nil {
			return errors.Wrapf(err, "create fence %d", i)
		}
	}
	return nil
}

// OnPrepareFrame waits for the current slot and acquires the next image.
// A stale swapchain is rebuilt and the rest of the frame is skipped.
func (r *FrameRenderer) OnPrepareFrame() error {
	if !r.ready {
		return ErrNotInitialized
	}
	r.frameAborted = false
	dev := r.device.Handle
	slot := r.slots[r.slot]

	if err := r.driver.WaitForFence(dev, slot.InFlight); err != nil {
		return errors.Wrapf(err, "wait for frame slot %d", r.slot)
	}

	index, res := r.driver.AcquireNextImage(dev, r.swapchains.Current().Handle, slot.ImageAvailable)
	switch {
	case res.Stale():
		r.frameAborted = true
		return r.recreateSwapchain()
	case res == gpu.Suboptimal:
		r.suboptimal = true
	case res != gpu.Success:
		return errors.Wrap(res, "acquire next image")
	}
	r.imageIndex = index

	// Reset only once the frame is certain to submit, so an aborted frame
	// leaves the fence signaled for the next use of this slot.
	if err := r.driver.ResetFence(dev, slot.InFlight); err != nil {
		return errors.Wrapf(err, "reset fence %d", r.slot)
	}
	return nil
}

// OnRenderFrame records, submits and presents the prepared frame, then
// advances to the next slot whether or not the frame was drawn.
func (r *FrameRenderer) OnRenderFrame() error {
	if !r.ready {
		return ErrNotInitialized
	}
	defer r.advance()
	if r.frameAborted {
		return nil
	}

	slot := r.slots[r.slot]
	if err := r.recordCommandBuffer(slot.CommandBuffer); err != nil {
		return err
	}

	submit := gpu.SubmitInfo{
		WaitSemaphores:   []gpu.Semaphore{slot.ImageAvailable},
		WaitStages:       []gpu.PipelineStageFlags{gpu.PipelineStageColorAttachmentOutputBit},
		CommandBuffers:   []gpu.CommandBuffer{slot.CommandBuffer},
		SignalSemaphores: []gpu.Semaphore{slot.RenderFinished},
	}
	if err := r.driver.QueueSubmit(r.device.GraphicsQueue, submit, slot.InFlight); err != nil {
		return errors.Wrap(err, "queue submit")
	}

	res := r.driver.QueuePresent(r.device.PresentQueue, gpu.PresentInfo{
		WaitSemaphores: []gpu.Semaphore{slot.RenderFinished},
		Swapchain:      r.swapchains.Current().Handle,
		ImageIndex:     r.imageIndex,
	})
	if res != gpu.Success && res != gpu.Suboptimal && !res.Stale() {
		return errors.Wrap(res, "queue present")
	}
	r.stats.Tick()
	if res != gpu.Success || r.suboptimal || r.resized {
		return r.recreateSwapchain()
	}
	return nil
}

func (r *FrameRenderer) advance() {
	r.slot = (r.slot + 1) % MaxFramesInFlight
}

func (r *FrameRenderer) recordCommandBuffer(cmd gpu.CommandBuffer) error {
	if err := r.driver.ResetCommandBuffer(cmd); err != nil {
		return errors.Wrap(err, "reset command buffer")
	}
	if err := r.driver.BeginCommandBuffer(cmd, false); err != nil {
		return errors.Wrap(err, "begin command buffer")
	}

	extent := r.swapchains.Current().Extent
	area := gpu.Rect2D{Extent: extent}
	r.driver.CmdBeginRenderPass(cmd, gpu.RenderPassBeginInfo{
		RenderPass:  r.pipeline.RenderPass,
		Framebuffer: r.pipeline.Framebuffers()[r.imageIndex],
		RenderArea:  area,
		ClearColor:  [4]float32(r.cfg.ClearColor),
	})
	r.driver.CmdBindPipeline(cmd, r.pipeline.Handle)
	r.driver.CmdSetViewport(cmd, gpu.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MaxDepth: 1,
	})
	r.driver.CmdSetScissor(cmd, area)
	r.driver.CmdBindVertexBuffer(cmd, r.vertexBuffer.Buffer)
	r.driver.CmdDraw(cmd, r.vertexCount)
	r.driver.CmdEndRenderPass(cmd)

	if err := r.driver.EndCommandBuffer(cmd); err != nil {
		return errors.Wrap(err, "end command buffer")
	}
	return nil
}

// recreateSwapchain blocks while the window has no area, waits for the
// device to go idle, and rebuilds the swapchain and framebuffers. The render
// pass, pipeline, command pool and frame slots survive.
func (r *FrameRenderer) recreateSwapchain() error {
	for {
		w, h := r.window.FramebufferSize()
		if w > 0 && h > 0 {
			break
		}
		if r.window.ShouldClose() {
			return nil
		}
		r.window.WaitEvents()
	}
	if err := r.device.WaitIdle(); err != nil {
		return err
	}

	r.pipeline.DestroyFramebuffers()
	if err := r.swapchains.Rebuild(); err != nil {
		return err
	}
	sc := r.swapchains.Current()
	if err := r.pipeline.BuildFramebuffers(sc); err != nil {
		return err
	}
	r.resized = false
	r.suboptimal = false

	r.log.WithFields(logrus.Fields{
		"generation": sc.Generation,
		"width":      sc.Extent.Width,
		"height":     sc.Extent.Height,
	}).Info("Swapchain recreated")
	return nil
}

// OnResize raises the resize flag; the swapchain is rebuilt after the next
// present.
func (r *FrameRenderer) OnResize(width, height int) {
	r.resized = true
}

// OnCleanup waits for the device and destroys everything in reverse
// creation order. Objects that were never created are skipped.
func (r *FrameRenderer) OnCleanup() {
	r.ready = false
	if r.device != nil && r.device.Handle != 0 {
		if err := r.device.WaitIdle(); err != nil {
			r.log.WithError(err).Error("Device did not go idle before cleanup")
		}
		dev := r.device.Handle
		for _, slot := range r.slots {
			if slot.RenderFinished != 0 {
				r.driver.DestroySemaphore(dev, slot.RenderFinished)
			}
			if slot.ImageAvailable != 0 {
				r.driver.DestroySemaphore(dev, slot.ImageAvailable)
			}
			if slot.InFlight != 0 {
				r.driver.DestroyFence(dev, slot.InFlight)
			}
		}
		r.slots = nil
		if r.commandPool != 0 {
			r.driver.DestroyCommandPool(dev, r.commandPool)
			r.commandPool = 0
		}
		r.pipeline.Destroy()
		r.vertexBuffer.Destroy(r.driver, dev)
		r.swapchains.Destroy()
	}
	r.device.Destroy()
	r.surface.Destroy()
	r.gc.Destroy()
}

// Slot returns the index of the frame slot the next frame will use.
func (r *FrameRenderer) Slot() int {
	return r.slot
}

// ImageIndex returns the swapchain image acquired by the last prepared
// frame.
func (r *FrameRenderer) ImageIndex() uint32 {
	return r.imageIndex
}

// Swapchain returns the live swapchain generation.
func (r *FrameRenderer) Swapchain() *Swapchain {
	if r.swapchains == nil {
		return nil
	}
	return r.swapchains.Current()
}

// Framebuffers returns the framebuffers of the live generation.
func (r *FrameRenderer) Framebuffers() []gpu.Framebuffer {
	if r.pipeline == nil {
		return nil
	}
	return r.pipeline.Framebuffers()
}

// Slots exposes the frame-slot ring.
func (r *FrameRenderer) Slots() []FrameSlot {
	return r.slots
}

// VertexBuffer returns the device-local vertex buffer.
func (r *FrameRenderer) VertexBuffer() DeviceBuffer {
	return r.vertexBuffer
}
