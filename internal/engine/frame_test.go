package engine

import (
	"slices"
	"testing"

	qt "github.com/frankban/quicktest"

	"Vulkube/internal/gpu"
	"Vulkube/internal/window/windowtest"
)

func TestFrameNotInitialized(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	c.Assert(f.renderer.OnPrepareFrame(), qt.ErrorIs, ErrNotInitialized)
	c.Assert(f.renderer.OnRenderFrame(), qt.ErrorIs, ErrNotInitialized)

	f.init(c)
	f.renderer.OnCleanup()
	c.Assert(f.renderer.OnPrepareFrame(), qt.ErrorIs, ErrNotInitialized)
}

func TestFrameSlotsAlternate(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.init(c)
	slots := f.renderer.Slots()
	c.Assert(slots, qt.HasLen, MaxFramesInFlight)

	var seen []int
	for range 6 {
		seen = append(seen, f.renderer.Slot())
		f.frame(c)
	}
	c.Assert(seen, qt.DeepEquals, []int{0, 1, 0, 1, 0, 1})

	frames := f.driver.Submits[1:]
	c.Assert(frames, qt.HasLen, 6)
	for i, s := range frames {
		slot := slots[i%MaxFramesInFlight]
		c.Assert(s.Fence, qt.Equals, slot.InFlight)
		c.Assert(s.CommandBuffers, qt.DeepEquals, []gpu.CommandBuffer{slot.CommandBuffer})
		c.Assert(s.Wait, qt.DeepEquals, []gpu.Semaphore{slot.ImageAvailable})
		c.Assert(s.WaitStages, qt.DeepEquals, []gpu.PipelineStageFlags{gpu.PipelineStageColorAttachmentOutputBit})
		c.Assert(s.Signal, qt.DeepEquals, []gpu.Semaphore{slot.RenderFinished})
		c.Assert(f.driver.Presents[i].Wait, qt.DeepEquals, []gpu.Semaphore{slot.RenderFinished})
	}
	c.Assert(f.driver.Violations, qt.HasLen, 0)
}

func TestFrameWaitsBeforeReuse(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.init(c)
	start := len(f.driver.Calls)
	for range 4 {
		f.frame(c)
	}

	var got []string
	for _, op := range f.driver.Calls[start:] {
		switch op {
		case "WaitForFence", "AcquireNextImage", "ResetFence", "ResetCommandBuffer", "QueueSubmit", "QueuePresent":
			got = append(got, op)
		}
	}
	frame := []string{"WaitForFence", "AcquireNextImage", "ResetFence", "ResetCommandBuffer", "QueueSubmit", "QueuePresent"}
	want := slices.Concat(frame, frame, frame, frame)
	c.Assert(got, qt.DeepEquals, want)
	c.Assert(f.driver.Violations, qt.HasLen, 0)
}

func TestFramePresentsAcquiredImage(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.init(c)
	fbs := f.renderer.Framebuffers()
	c.Assert(fbs, qt.HasLen, 3)

	for i := range 7 {
		f.frame(c)
		want := uint32(i % 3)
		c.Assert(f.renderer.ImageIndex(), qt.Equals, want)
		c.Assert(f.driver.Presents[i].ImageIndex, qt.Equals, want)
		c.Assert(f.driver.Presents[i].Swapchain, qt.Equals, f.renderer.Swapchain().Handle)
		c.Assert(f.driver.Submits[i+1].Commands[0].Framebuffer, qt.Equals, fbs[want])
	}
	c.Assert(f.driver.Violations, qt.HasLen, 0)
}

func TestFrameRecordsDraw(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.renderer.cfg.ClearColor = [4]float32{0.1, 0.2, 0.3, 1}
	f.init(c)
	f.frame(c)

	cmds := f.driver.Recorded(f.renderer.Slots()[0].CommandBuffer)
	var ops []string
	for _, cmd := range cmds {
		ops = append(ops, cmd.Op)
	}
	c.Assert(ops, qt.DeepEquals, []string{
		"BeginRenderPass", "BindPipeline", "SetViewport", "SetScissor",
		"BindVertexBuffer", "Draw", "EndRenderPass",
	})
	area := gpu.Rect2D{Extent: gpu.Extent2D{Width: 800, Height: 600}}
	c.Assert(cmds[0].Scissor, qt.Equals, area)
	c.Assert(cmds[0].ClearColor, qt.Equals, [4]float32{0.1, 0.2, 0.3, 1})
	c.Assert(cmds[1].Pipeline, qt.Equals, f.renderer.pipeline.Handle)
	c.Assert(cmds[2].Viewport, qt.Equals, gpu.Viewport{Width: 800, Height: 600, MaxDepth: 1})
	c.Assert(cmds[3].Scissor, qt.Equals, area)
	c.Assert(cmds[4].Buffer, qt.Equals, f.renderer.VertexBuffer().Buffer)
	c.Assert(cmds[5].Count, qt.Equals, uint32(3))
}

func TestFrameUploadsTriangle(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.init(c)

	vb := f.renderer.VertexBuffer()
	c.Assert(f.driver.ReadBuffer(vb.Buffer), qt.DeepEquals, VertexBytes(Triangle))
	typeIndex, _ := f.driver.MemoryTypeOf(vb.Buffer)
	c.Assert(typeIndex, qt.Equals, uint32(0))
	c.Assert(f.driver.Live("buffer"), qt.Equals, 1)
}

func TestFrameOutOfDateAcquireAbortsFrame(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.driver.AcquireResults = []gpu.Result{gpu.Success, gpu.ErrorOutOfDate, gpu.Success, gpu.ErrorOutOfDate}
	f.init(c)
	slots := f.renderer.Slots()

	var seen []int
	for i := range 6 {
		seen = append(seen, f.renderer.Slot())
		f.frame(c)
		if i == 1 {
			// An aborted frame leaves its fence signaled so the next wait
			// on the slot returns at once.
			c.Assert(f.driver.FenceSignaled(slots[1].InFlight), qt.IsTrue)
		}
	}
	c.Assert(seen, qt.DeepEquals, []int{0, 1, 0, 1, 0, 1})
	c.Assert(f.driver.Presents, qt.HasLen, 4)
	c.Assert(f.driver.Submits, qt.HasLen, 5)
	c.Assert(f.driver.Swapchains, qt.HasLen, 3)
	c.Assert(f.renderer.Swapchain().Generation, qt.Equals, uint64(3))
	c.Assert(f.renderer.pipeline.Generation(), qt.Equals, uint64(3))
	c.Assert(f.driver.Violations, qt.HasLen, 0)
	c.Assert(f.driver.Live("swapchain"), qt.Equals, 1)
	c.Assert(f.driver.Live("framebuffer"), qt.Equals, 3)
	c.Assert(f.driver.Live("image_view"), qt.Equals, 3)
}

func TestFrameOutOfDatePresentRecreates(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.driver.PresentResults = []gpu.Result{gpu.ErrorOutOfDate}
	f.init(c)
	old := f.renderer.Swapchain().Handle

	f.frame(c)
	c.Assert(f.driver.Presents[0].Swapchain, qt.Equals, old)
	c.Assert(f.driver.Swapchains, qt.HasLen, 2)
	c.Assert(f.renderer.Swapchain().Handle, qt.Not(qt.Equals), old)
	c.Assert(f.renderer.Slot(), qt.Equals, 1)
	c.Assert(f.hook.LastEntry().Message, qt.Equals, "Swapchain recreated")

	f.frame(c)
	c.Assert(f.driver.Swapchains, qt.HasLen, 2)
	c.Assert(f.driver.Violations, qt.HasLen, 0)
}

func TestFrameSuboptimalAcquireRecreatesAfterPresent(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.driver.AcquireResults = []gpu.Result{gpu.Suboptimal}
	f.init(c)

	c.Assert(f.renderer.OnPrepareFrame(), qt.IsNil)
	c.Assert(f.driver.Swapchains, qt.HasLen, 1)
	c.Assert(f.renderer.OnRenderFrame(), qt.IsNil)
	c.Assert(f.driver.Presents, qt.HasLen, 1)
	c.Assert(f.driver.Swapchains, qt.HasLen, 2)

	f.frame(c)
	c.Assert(f.driver.Swapchains, qt.HasLen, 2)
	c.Assert(f.driver.Violations, qt.HasLen, 0)
}

func TestFrameSuboptimalPresentRecreates(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.driver.PresentResults = []gpu.Result{gpu.Suboptimal}
	f.init(c)

	f.frame(c)
	c.Assert(f.driver.Swapchains, qt.HasLen, 2)
	c.Assert(f.driver.Violations, qt.HasLen, 0)
}

func TestFrameResizeRecreatesAfterPresent(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.init(c)
	f.frame(c)
	old := f.renderer.Swapchain().Handle

	f.adapter.Capabilities.CurrentExtent = gpu.Extent2D{Width: 1024, Height: 768}
	f.renderer.OnResize(1024, 768)
	c.Assert(f.driver.Swapchains, qt.HasLen, 1)

	f.frame(c)
	c.Assert(f.driver.Presents[1].Swapchain, qt.Equals, old)
	c.Assert(f.driver.Swapchains, qt.HasLen, 2)
	sc := f.renderer.Swapchain()
	c.Assert(sc.Generation, qt.Equals, uint64(2))
	c.Assert(sc.Extent, qt.Equals, gpu.Extent2D{Width: 1024, Height: 768})
	for _, fb := range f.renderer.Framebuffers() {
		info, ok := f.driver.Framebuffer(fb)
		c.Assert(ok, qt.IsTrue)
		c.Assert(info.Width, qt.Equals, uint32(1024))
		c.Assert(info.Height, qt.Equals, uint32(768))
	}

	// The flag is cleared by the rebuild.
	f.frame(c)
	c.Assert(f.driver.Swapchains, qt.HasLen, 2)
	cmds := f.driver.Submits[len(f.driver.Submits)-1].Commands
	c.Assert(cmds[2].Viewport, qt.Equals, gpu.Viewport{Width: 1024, Height: 768, MaxDepth: 1})
	c.Assert(f.driver.Violations, qt.HasLen, 0)
}

func TestFrameRecreationWaitsWhileMinimized(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.adapter.Capabilities.CurrentExtent = gpu.Extent2D{Width: gpu.UndefinedExtent, Height: gpu.UndefinedExtent}
	f.init(c)

	f.window.Width, f.window.Height = 0, 0
	f.window.OnWait = func(w *windowtest.Window) {
		if w.Waits == 2 {
			w.Width, w.Height = 640, 480
		}
	}
	f.driver.Before("DeviceWaitIdle", func() {
		c.Check(f.window.Width*f.window.Height > 0, qt.IsTrue)
	})
	f.driver.PresentResults = []gpu.Result{gpu.ErrorOutOfDate}

	f.frame(c)
	c.Assert(f.window.Waits, qt.Equals, 2)
	c.Assert(f.driver.Swapchains, qt.HasLen, 2)
	c.Assert(f.renderer.Swapchain().Extent, qt.Equals, gpu.Extent2D{Width: 640, Height: 480})
	c.Assert(f.driver.Violations, qt.HasLen, 0)
}

func TestFrameRecreationAbandonedWhenClosedWhileMinimized(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.init(c)

	f.window.Sizes = [][2]int{{0, 0}}
	f.window.OnWait = func(w *windowtest.Window) { w.Closed = true }
	f.driver.AcquireResults = []gpu.Result{gpu.ErrorOutOfDate}

	c.Assert(f.renderer.OnPrepareFrame(), qt.IsNil)
	c.Assert(f.renderer.OnRenderFrame(), qt.IsNil)
	c.Assert(f.window.Waits, qt.Equals, 1)
	c.Assert(f.driver.Swapchains, qt.HasLen, 1)
	c.Assert(f.driver.Submits, qt.HasLen, 1)

	f.renderer.OnCleanup()
	c.Assert(f.driver.Leaks(), qt.HasLen, 0)
	c.Assert(f.driver.Violations, qt.HasLen, 0)
}

func TestFrameFatalErrors(t *testing.T) {
	c := qt.New(t)

	c.Run("acquire", func(c *qt.C) {
		f := newFixture(c)
		f.driver.AcquireResults = []gpu.Result{gpu.ErrorDeviceLost}
		f.init(c)
		err := f.renderer.OnPrepareFrame()
		c.Assert(err, qt.ErrorIs, gpu.ErrorDeviceLost)
		c.Assert(err, qt.ErrorMatches, `acquire next image: vulkan: device lost`)
	})

	c.Run("present", func(c *qt.C) {
		f := newFixture(c)
		f.driver.PresentResults = []gpu.Result{gpu.ErrorDeviceLost}
		f.init(c)
		c.Assert(f.renderer.OnPrepareFrame(), qt.IsNil)
		err := f.renderer.OnRenderFrame()
		c.Assert(err, qt.ErrorIs, gpu.ErrorDeviceLost)
		c.Assert(f.renderer.Slot(), qt.Equals, 1)
		c.Assert(f.driver.Swapchains, qt.HasLen, 1)
	})

	c.Run("submit", func(c *qt.C) {
		f := newFixture(c)
		f.init(c)
		c.Assert(f.renderer.OnPrepareFrame(), qt.IsNil)
		f.driver.FailNext("QueueSubmit", gpu.ErrorDeviceLost)
		err := f.renderer.OnRenderFrame()
		c.Assert(err, qt.ErrorMatches, `queue submit: vulkan: device lost`)
		c.Assert(f.driver.Presents, qt.HasLen, 0)
	})

	c.Run("fence", func(c *qt.C) {
		f := newFixture(c)
		f.init(c)
		f.driver.FailNext("WaitForFence", gpu.ErrorDeviceLost)
		err := f.renderer.OnPrepareFrame()
		c.Assert(err, qt.ErrorMatches, `wait for frame slot 0: vulkan: device lost`)
		c.Assert(f.driver.Count("AcquireNextImage"), qt.Equals, 0)
	})
}

func TestFrameTeardownOrder(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.init(c)
	for range 3 {
		f.frame(c)
	}

	before, calls := len(f.driver.Destroyed()), len(f.driver.Calls)
	f.renderer.OnCleanup()
	c.Assert(f.driver.Calls[calls], qt.Equals, "DeviceWaitIdle")
	c.Assert(f.driver.Destroyed()[before:], qt.DeepEquals, []string{
		"semaphore", "semaphore", "fence",
		"semaphore", "semaphore", "fence",
		"command_pool",
		"framebuffer", "framebuffer", "framebuffer",
		"pipeline", "pipeline_layout", "render_pass",
		"buffer", "memory",
		"image_view", "image_view", "image_view",
		"swapchain",
		"device",
		"surface",
		"debug_messenger",
		"instance",
	})
	c.Assert(f.driver.Leaks(), qt.HasLen, 0)
	c.Assert(f.driver.Violations, qt.HasLen, 0)

	f.renderer.OnCleanup()
	c.Assert(f.driver.Violations, qt.HasLen, 0)
}

func TestInitFailureReleasesEverything(t *testing.T) {
	for _, op := range []string{
		"CreateInstance",
		"CreateDebugMessenger",
		"CreateSurface",
		"CreateDevice",
		"CreateSwapchain",
		"CreateImageView",
		"CreateRenderPass",
		"CreateShaderModule",
		"CreateGraphicsPipeline",
		"CreateFramebuffer",
		"CreateCommandPool",
		"AllocateMemory",
		"QueueSubmit",
		"AllocateCommandBuffers",
		"CreateSemaphore",
		"CreateFence",
	} {
		t.Run(op, func(t *testing.T) {
			c := qt.New(t)
			f := newFixture(c)
			f.driver.FailNext(op, gpu.ErrorOutOfHostMemory)

			err := f.renderer.OnInit()
			c.Assert(err, qt.ErrorIs, gpu.ErrorOutOfHostMemory)
			c.Assert(f.driver.Leaks(), qt.HasLen, 0)
			c.Assert(f.driver.Violations, qt.HasLen, 0)
			c.Assert(f.renderer.OnPrepareFrame(), qt.ErrorIs, ErrNotInitialized)

			f.renderer.OnCleanup()
			c.Assert(f.driver.Violations, qt.HasLen, 0)
		})
	}
}

func TestInitFailsWithoutSuitableDevice(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.adapter.Properties.Type = gpu.PhysicalDeviceTypeIntegratedGpu

	err := f.renderer.OnInit()
	c.Assert(err, qt.ErrorIs, ErrNoSuitableDevice)
	c.Assert(f.driver.Leaks(), qt.HasLen, 0)
	c.Assert(f.driver.Destroyed(), qt.DeepEquals, []string{"surface", "debug_messenger", "instance"})
}
