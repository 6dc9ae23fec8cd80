package engine

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus/hooks/test"

	"Vulkube/internal/gpu"
	"Vulkube/internal/gpu/gputest"
)

func newUploader(c *qt.C, spec *gputest.PhysicalDeviceSpec) (*ResourceUploader, *gputest.Driver) {
	driver := gputest.New(spec)
	log, _ := test.NewNullLogger()
	instance, err := driver.CreateInstance(gpu.InstanceCreateInfo{})
	c.Assert(err, qt.IsNil)
	info, err := SelectPhysicalDevice(driver, instance, 0, DeviceRequirements{GraphicsQueue: true})
	c.Assert(err, qt.IsNil)
	dev, err := NewLogicalDevice(driver, info, false, log)
	c.Assert(err, qt.IsNil)
	pool, err := driver.CreateCommandPool(dev.Handle, info.Queues.Graphics)
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() {
		driver.DestroyCommandPool(dev.Handle, pool)
		dev.Destroy()
		driver.DestroyInstance(instance)
	})
	return NewResourceUploader(driver, dev, pool, dev.GraphicsQueue), driver
}

func TestUploadRoundTrip(t *testing.T) {
	c := qt.New(t)
	u, driver := newUploader(c, gputest.Adapter("GPU", gpu.PhysicalDeviceTypeDiscreteGpu))
	data := []byte("0123456789abcdef")

	buf, err := u.Upload(data, gpu.BufferUsageVertexBufferBit)
	c.Assert(err, qt.IsNil)
	defer buf.Destroy(driver, u.device.Handle)

	c.Assert(buf.Size, qt.Equals, uint64(len(data)))
	c.Assert(driver.ReadBuffer(buf.Buffer), qt.DeepEquals, data)
	typeIndex, ok := driver.MemoryTypeOf(buf.Buffer)
	c.Assert(ok, qt.IsTrue)
	c.Assert(typeIndex, qt.Equals, uint32(0))

	// Only the destination survives the upload.
	c.Assert(driver.Live("buffer"), qt.Equals, 1)
	c.Assert(driver.Live("memory"), qt.Equals, 1)
	c.Assert(driver.Live("command_buffer"), qt.Equals, 0)
	c.Assert(driver.Submits, qt.HasLen, 1)
	c.Assert(driver.Submits[0].Fence, qt.Equals, gpu.Fence(0))
	c.Assert(driver.Submits[0].Commands, qt.HasLen, 1)
	c.Assert(driver.Submits[0].Commands[0].Op, qt.Equals, "CopyBuffer")
	c.Assert(driver.Submits[0].Commands[0].Dst, qt.Equals, buf.Buffer)
	c.Assert(driver.Count("QueueWaitIdle"), qt.Equals, 1)
	c.Assert(driver.Violations, qt.HasLen, 0)
}

func TestUploadWithoutHostVisibleMemory(t *testing.T) {
	c := qt.New(t)
	spec := gputest.Adapter("GPU", gpu.PhysicalDeviceTypeDiscreteGpu)
	spec.MemoryTypes = []gpu.MemoryType{{PropertyFlags: gpu.MemoryPropertyDeviceLocalBit}}
	u, driver := newUploader(c, spec)

	_, err := u.Upload([]byte{1, 2, 3, 4}, gpu.BufferUsageVertexBufferBit)
	c.Assert(err, qt.ErrorIs, ErrNoMemoryType)
	c.Assert(driver.Live("buffer"), qt.Equals, 0)
	c.Assert(driver.Live("memory"), qt.Equals, 0)
}

func TestUploadMemoryTypeFilter(t *testing.T) {
	c := qt.New(t)
	spec := gputest.Adapter("GPU", gpu.PhysicalDeviceTypeDiscreteGpu)
	spec.MemoryTypes = append(spec.MemoryTypes, gpu.MemoryType{PropertyFlags: gpu.MemoryPropertyDeviceLocalBit})
	u, driver := newUploader(c, spec)
	driver.MemoryTypeBits = 0b110

	buf, err := u.Upload([]byte{1, 2, 3, 4}, gpu.BufferUsageVertexBufferBit)
	c.Assert(err, qt.IsNil)
	defer buf.Destroy(driver, u.device.Handle)
	typeIndex, _ := driver.MemoryTypeOf(buf.Buffer)
	c.Assert(typeIndex, qt.Equals, uint32(2))
}

func TestUploadFailuresReleaseEverything(t *testing.T) {
	for _, op := range []string{
		"CreateBuffer",
		"AllocateMemory",
		"BindBufferMemory",
		"MapMemory",
		"AllocateCommandBuffers",
		"BeginCommandBuffer",
		"QueueSubmit",
	} {
		t.Run(op, func(t *testing.T) {
			c := qt.New(t)
			u, driver := newUploader(c, gputest.Adapter("GPU", gpu.PhysicalDeviceTypeDiscreteGpu))
			driver.FailNext(op, gpu.ErrorOutOfDeviceMemory)

			_, err := u.Upload([]byte("abcd"), gpu.BufferUsageVertexBufferBit)
			c.Assert(err, qt.ErrorIs, gpu.ErrorOutOfDeviceMemory)
			c.Assert(driver.Live("buffer"), qt.Equals, 0)
			c.Assert(driver.Live("memory"), qt.Equals, 0)
			c.Assert(driver.Live("command_buffer"), qt.Equals, 0)
			c.Assert(driver.Violations, qt.HasLen, 0)
		})
	}
}

func TestFindMemoryType(t *testing.T) {
	types := []gpu.MemoryType{
		{PropertyFlags: gpu.MemoryPropertyDeviceLocalBit},
		{PropertyFlags: gpu.MemoryPropertyHostVisibleBit | gpu.MemoryPropertyHostCoherentBit},
		{PropertyFlags: gpu.MemoryPropertyHostVisibleBit | gpu.MemoryPropertyHostCoherentBit | gpu.MemoryPropertyHostCachedBit},
	}
	hostVisible := gpu.MemoryPropertyHostVisibleBit | gpu.MemoryPropertyHostCoherentBit
	tests := []struct {
		name   string
		filter uint32
		props  gpu.MemoryPropertyFlags
		want   uint32
		err    error
	}{
		{"first match", 0b111, hostVisible, 1, nil},
		{"filter skips a match", 0b100, hostVisible, 2, nil},
		{"device local", 0b111, gpu.MemoryPropertyDeviceLocalBit, 0, nil},
		{"filter excludes every match", 0b001, hostVisible, 0, ErrNoMemoryType},
		{"no type has the properties", 0b111, gpu.MemoryPropertyDeviceLocalBit | gpu.MemoryPropertyHostCachedBit, 0, ErrNoMemoryType},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := qt.New(t)
			got, err := FindMemoryType(types, tc.filter, tc.props)
			if tc.err != nil {
				c.Assert(err, qt.ErrorIs, tc.err)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.Equals, tc.want)
		})
	}
}
