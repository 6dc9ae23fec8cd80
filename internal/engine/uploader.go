package engine

import (
	"github.com/cockroachdb/errors"

	"Vulkube/internal/gpu"
)

// DeviceBuffer is a buffer together with the memory bound to it.
type DeviceBuffer struct {
	Buffer gpu.Buffer
	Memory gpu.DeviceMemory
	Size   uint64
}

// Destroy releases the buffer and then its memory.
func (b *DeviceBuffer) Destroy(driver gpu.DeviceDriver, device gpu.Device) {
	if b.Buffer != 0 {
		driver.DestroyBuffer(device, b.Buffer)
		b.Buffer = 0
	}
	if b.Memory != 0 {
		driver.FreeMemory(device, b.Memory)
		b.Memory = 0
	}
}

// ResourceUploader places host data in device-local memory through a
// transient staging buffer.
type ResourceUploader struct {
	driver gpu.Driver
	device *LogicalDevice
	pool   gpu.CommandPool
	queue  gpu.Queue
}

func NewResourceUploader(driver gpu.Driver, device *LogicalDevice, pool gpu.CommandPool, queue gpu.Queue) *ResourceUploader {
	return &ResourceUploader{driver: driver, device: device, pool: pool, queue: queue}
}

// Upload copies data into a new device-local buffer with the given usage
// plus transfer-destination. It blocks until the copy has completed; the
// staging buffer is gone by the time it returns.
func (u *ResourceUploader) Upload(data []byte, usage gpu.BufferUsageFlags) (DeviceBuffer, error) {
	size := uint64(len(data))
	dev := u.device.Handle

	staging, err := u.CreateBuffer(size, gpu.BufferUsageTransferSrcBit,
		gpu.MemoryPropertyHostVisibleBit|gpu.MemoryPropertyHostCoherentBit)
	if err != nil {
		return DeviceBuffer{}, errors.Wrap(err, "create staging buffer")
	}
	defer staging.Destroy(u.driver, dev)

	mapped, err := u.driver.MapMemory(dev, staging.Memory, size)
	if err != nil {
		return DeviceBuffer{}, errors.Wrap(err, "map staging buffer")
	}
	copy(mapped, data)
	u.driver.UnmapMemory(dev, staging.Memory)

	dst, err := u.CreateBuffer(size, usage|gpu.BufferUsageTransferDstBit, gpu.MemoryPropertyDeviceLocalBit)
	if err != nil {
		return DeviceBuffer{}, errors.Wrap(err, "create device buffer")
	}
	if err := u.copyBuffer(staging.Buffer, dst.Buffer, size); err != nil {
		dst.Destroy(u.driver, dev)
		return DeviceBuffer{}, err
	}
	return dst, nil
}

func (u *ResourceUploader) copyBuffer(src, dst gpu.Buffer, size uint64) error {
	dev := u.device.Handle
	cmds, err := u.driver.AllocateCommandBuffers(dev, u.pool, 1)
	if err != nil {
		return errors.Wrap(err, "allocate transfer command buffer")
	}
	defer u.driver.FreeCommandBuffers(dev, u.pool, cmds)
	cmd := cmds[0]

	if err := u.driver.BeginCommandBuffer(cmd, true); err != nil {
		return errors.Wrap(err, "begin transfer command buffer")
	}
	u.driver.CmdCopyBuffer(cmd, src, dst, size)
	if err := u.driver.EndCommandBuffer(cmd); err != nil {
		return errors.Wrap(err, "end transfer command buffer")
	}
	if err := u.driver.QueueSubmit(u.queue, gpu.SubmitInfo{CommandBuffers: cmds}, 0); err != nil {
		return errors.Wrap(err, "submit transfer")
	}
	if err := u.driver.QueueWaitIdle(u.queue); err != nil {
		return errors.Wrap(err, "wait for transfer")
	}
	return nil
}

// CreateBuffer creates a buffer and binds it to fresh memory with the
// requested properties.
func (u *ResourceUploader) CreateBuffer(size uint64, usage gpu.BufferUsageFlags, props gpu.MemoryPropertyFlags) (DeviceBuffer, error) {
	dev := u.device.Handle
	buf, err := u.driver.CreateBuffer(dev, size, usage)
	if err != nil {
		return DeviceBuffer{}, errors.Wrap(err, "create buffer")
	}
	out := DeviceBuffer{Buffer: buf, Size: size}

	req := u.driver.BufferMemoryRequirements(dev, buf)
	typeIndex, err := FindMemoryType(u.device.Physical.MemoryTypes, req.MemoryTypeBits, props)
	if err != nil {
		out.Destroy(u.driver, dev)
		return DeviceBuffer{}, err
	}
	mem, err := u.driver.AllocateMemory(dev, req.Size, typeIndex)
	if err != nil {
		out.Destroy(u.driver, dev)
		return DeviceBuffer{}, errors.Wrap(err, "allocate buffer memory")
	}
	out.Memory = mem
	if err := u.driver.BindBufferMemory(dev, buf, mem); err != nil {
		out.Destroy(u.driver, dev)
		return DeviceBuffer{}, errors.Wrap(err, "bind buffer memory")
	}
	return out, nil
}

// FindMemoryType returns the first type allowed by filter whose properties
// include props.
func FindMemoryType(types []gpu.MemoryType, filter uint32, props gpu.MemoryPropertyFlags) (uint32, error) {
	for i, t := range types {
		if i >= 32 {
			break
		}
		if filter&(1<<uint(i)) != 0 && t.PropertyFlags&props == props {
			return uint32(i), nil
		}
	}
	return 0, errors.Wrapf(ErrNoMemoryType, "filter %#x properties %#x", filter, uint32(props))
}
