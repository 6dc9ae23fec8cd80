package engine

import (
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"

	"Vulkube/internal/gpu"
	"Vulkube/internal/window/windowtest"
)

func TestChooseSurfaceFormat(t *testing.T) {
	c := qt.New(t)
	unorm := gpu.SurfaceFormat{Format: gpu.FormatB8g8r8a8Unorm, ColorSpace: gpu.ColorSpaceSrgbNonlinear}
	srgb := gpu.SurfaceFormat{Format: gpu.FormatB8g8r8a8Srgb, ColorSpace: gpu.ColorSpaceSrgbNonlinear}

	got := ChooseSurfaceFormat([]gpu.SurfaceFormat{unorm, srgb}, gpu.FormatB8g8r8a8Srgb, gpu.ColorSpaceSrgbNonlinear)
	c.Assert(got, qt.Equals, srgb)

	got = ChooseSurfaceFormat([]gpu.SurfaceFormat{unorm}, gpu.FormatB8g8r8a8Srgb, gpu.ColorSpaceSrgbNonlinear)
	c.Assert(got, qt.Equals, unorm)

	got = ChooseSurfaceFormat(nil, gpu.FormatB8g8r8a8Srgb, gpu.ColorSpaceSrgbNonlinear)
	c.Assert(got, qt.Equals, srgb)
}

func TestChoosePresentMode(t *testing.T) {
	c := qt.New(t)
	c.Assert(ChoosePresentMode([]gpu.PresentMode{gpu.PresentModeFifo, gpu.PresentModeMailbox}, gpu.PresentModeMailbox),
		qt.Equals, gpu.PresentModeMailbox)
	c.Assert(ChoosePresentMode([]gpu.PresentMode{gpu.PresentModeImmediate, gpu.PresentModeFifo}, gpu.PresentModeMailbox),
		qt.Equals, gpu.PresentModeFifo)
	c.Assert(ChoosePresentMode(nil, gpu.PresentModeMailbox), qt.Equals, gpu.PresentModeFifo)
}

func TestChooseExtent(t *testing.T) {
	caps := gpu.SurfaceCapabilities{
		CurrentExtent:  gpu.Extent2D{Width: gpu.UndefinedExtent, Height: gpu.UndefinedExtent},
		MinImageExtent: gpu.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: gpu.Extent2D{Width: 4096, Height: 2048},
	}
	tests := []struct {
		name          string
		current       gpu.Extent2D
		width, height int
		want          gpu.Extent2D
	}{
		{"defined extent wins", gpu.Extent2D{Width: 640, Height: 480}, 1024, 768, gpu.Extent2D{Width: 640, Height: 480}},
		{"window size inside range", caps.CurrentExtent, 1024, 768, gpu.Extent2D{Width: 1024, Height: 768}},
		{"clamped to maximum", caps.CurrentExtent, 5000, 3000, gpu.Extent2D{Width: 4096, Height: 2048}},
		{"clamped to minimum", caps.CurrentExtent, 0, -5, gpu.Extent2D{Width: 1, Height: 1}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			caps := caps
			caps.CurrentExtent = test.current
			got := ChooseExtent(caps, windowtest.New(test.width, test.height))
			qt.Assert(t, got, qt.Equals, test.want)
		})
	}
}

func TestImageCount(t *testing.T) {
	c := qt.New(t)
	c.Assert(ImageCount(gpu.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 3}), qt.Equals, uint32(3))
	c.Assert(ImageCount(gpu.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 3}), qt.Equals, uint32(3))
	c.Assert(ImageCount(gpu.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}), qt.Equals, uint32(3))
	c.Assert(ImageCount(gpu.SurfaceCapabilities{MinImageCount: 4}), qt.Equals, uint32(5))
}

func TestSwapchainImagesAndFramebuffers(t *testing.T) {
	c := qt.New(t)
	for _, minImages := range []uint32{2, 3} {
		c.Run(fmt.Sprintf("min %d", minImages), func(c *qt.C) {
			f := newFixture(c)
			f.adapter.Capabilities.MinImageCount = minImages
			f.adapter.Capabilities.MaxImageCount = 3
			f.init(c)

			sc := f.renderer.Swapchain()
			c.Assert(sc.Images, qt.HasLen, 3)
			c.Assert(sc.Views, qt.HasLen, 3)
			c.Assert(f.renderer.Framebuffers(), qt.HasLen, 3)
			c.Assert(f.driver.Live("image_view"), qt.Equals, 3)
			c.Assert(f.driver.Live("framebuffer"), qt.Equals, 3)
			c.Assert(sc.Generation, qt.Equals, uint64(1))
			c.Assert(sc.Format.Format, qt.Equals, gpu.FormatB8g8r8a8Srgb)
			c.Assert(sc.PresentMode, qt.Equals, gpu.PresentModeMailbox)

			for i, fb := range f.renderer.Framebuffers() {
				info, ok := f.driver.Framebuffer(fb)
				c.Assert(ok, qt.IsTrue)
				c.Assert(info.Attachments, qt.DeepEquals, []gpu.ImageView{sc.Views[i]})
				c.Assert(info.Width, qt.Equals, uint32(800))
				c.Assert(info.Height, qt.Equals, uint32(600))
				c.Assert(info.RenderPass, qt.Equals, f.renderer.pipeline.RenderPass)
			}
		})
	}
}

func TestSwapchainExclusiveOnSharedFamily(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.init(c)

	c.Assert(f.driver.Swapchains, qt.HasLen, 1)
	c.Assert(f.driver.Swapchains[0].QueueFamilies, qt.IsNil)
	c.Assert(f.driver.Swapchains[0].MinImageCount, qt.Equals, uint32(3))
}

func TestSwapchainRebuildKeepsConfiguration(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.init(c)

	f.adapter.Capabilities.CurrentExtent = gpu.Extent2D{Width: 1280, Height: 720}
	c.Assert(f.renderer.swapchains.Rebuild(), qt.IsNil)

	sc := f.renderer.Swapchain()
	c.Assert(sc.Generation, qt.Equals, uint64(2))
	c.Assert(sc.Extent, qt.Equals, gpu.Extent2D{Width: 1280, Height: 720})
	c.Assert(sc.Format.Format, qt.Equals, gpu.FormatB8g8r8a8Srgb)
	c.Assert(f.driver.Live("swapchain"), qt.Equals, 1)
	c.Assert(f.driver.Live("image_view"), qt.Equals, 3)
}

func TestSwapchainCreateFailureReleasesViews(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.init(c)

	f.renderer.pipeline.DestroyFramebuffers()
	f.driver.FailNext("CreateImageView", gpu.ErrorOutOfDeviceMemory)
	err := f.renderer.swapchains.Rebuild()
	c.Assert(err, qt.ErrorIs, gpu.ErrorOutOfDeviceMemory)
	c.Assert(f.renderer.Swapchain(), qt.IsNil)
	c.Assert(f.driver.Live("swapchain"), qt.Equals, 0)
	c.Assert(f.driver.Live("image_view"), qt.Equals, 0)
}
