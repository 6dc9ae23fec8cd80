package gputest

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"Vulkube/internal/gpu"
)

func newDevice(c *qt.C) (*Driver, gpu.Device) {
	d := New(Adapter("GPU", gpu.PhysicalDeviceTypeDiscreteGpu))
	dev, err := d.CreateDevice(1, gpu.DeviceCreateInfo{QueueFamilies: []uint32{0}})
	c.Assert(err, qt.IsNil)
	return d, dev
}

func TestFenceLifecycle(t *testing.T) {
	c := qt.New(t)
	d, dev := newDevice(c)
	fence, err := d.CreateFence(dev, false)
	c.Assert(err, qt.IsNil)

	c.Assert(d.WaitForFence(dev, fence), qt.ErrorIs, ErrNeverSignaled)

	pool, _ := d.CreateCommandPool(dev, 0)
	cmds, _ := d.AllocateCommandBuffers(dev, pool, 1)
	c.Assert(d.BeginCommandBuffer(cmds[0], false), qt.IsNil)
	c.Assert(d.EndCommandBuffer(cmds[0]), qt.IsNil)
	c.Assert(d.QueueSubmit(0x10, gpu.SubmitInfo{CommandBuffers: cmds}, fence), qt.IsNil)
	c.Assert(d.FenceSignaled(fence), qt.IsFalse)

	// Resetting in-flight work is what the fake exists to catch.
	c.Assert(d.ResetCommandBuffer(cmds[0]), qt.IsNil)
	c.Assert(d.ResetFence(dev, fence), qt.IsNil)
	c.Assert(d.Violations, qt.HasLen, 2)

	c.Assert(d.WaitForFence(dev, fence), qt.IsNil)
	c.Assert(d.FenceSignaled(fence), qt.IsTrue)
}

func TestSemaphoreTracking(t *testing.T) {
	c := qt.New(t)
	d, dev := newDevice(c)
	sc, err := d.CreateSwapchain(dev, gpu.SwapchainCreateInfo{
		MinImageCount: 2,
		Extent:        gpu.Extent2D{Width: 4, Height: 4},
	})
	c.Assert(err, qt.IsNil)
	sem, _ := d.CreateSemaphore(dev)

	index, res := d.AcquireNextImage(dev, sc, sem)
	c.Assert(res, qt.Equals, gpu.Success)
	c.Assert(index, qt.Equals, uint32(0))
	_, _ = d.AcquireNextImage(dev, sc, sem)
	c.Assert(d.Violations, qt.HasLen, 1)

	d.AcquireResults = []gpu.Result{gpu.ErrorOutOfDate}
	_, res = d.AcquireNextImage(dev, sc, sem)
	c.Assert(res, qt.Equals, gpu.ErrorOutOfDate)

	d.DestroySwapchain(dev, sc)
	_ = d.QueuePresent(0x10, gpu.PresentInfo{Swapchain: sc})
	c.Assert(d.Violations, qt.HasLen, 2)
}

func TestLeaksAndDestroyOrder(t *testing.T) {
	c := qt.New(t)
	d, dev := newDevice(c)
	sem, _ := d.CreateSemaphore(dev)
	fence, _ := d.CreateFence(dev, true)
	c.Assert(d.Leaks(), qt.HasLen, 3)

	d.DestroyFence(dev, fence)
	d.DestroySemaphore(dev, sem)
	d.DestroyDevice(dev)
	c.Assert(d.Leaks(), qt.HasLen, 0)
	c.Assert(d.Destroyed(), qt.DeepEquals, []string{"fence", "semaphore", "device"})

	d.DestroyDevice(dev)
	c.Assert(d.Violations, qt.DeepEquals, []string{"destroy of unknown device#257"})
}

func TestFailNext(t *testing.T) {
	c := qt.New(t)
	d, dev := newDevice(c)
	d.FailNext("CreateFence", gpu.ErrorOutOfHostMemory)
	_, err := d.CreateFence(dev, false)
	c.Assert(err, qt.Equals, error(gpu.ErrorOutOfHostMemory))
	_, err = d.CreateFence(dev, false)
	c.Assert(err, qt.IsNil)
	c.Assert(d.Count("CreateFence"), qt.Equals, 2)
}
