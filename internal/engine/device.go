package engine

import (
	"fmt"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"Vulkube/internal/gpu"
)

const swapchainExtension = "VK_KHR_swapchain"

// DeviceRequirements are the predicates a physical device must satisfy.
type DeviceRequirements struct {
	Discrete      bool
	GraphicsQueue bool
	PresentQueue  bool
}

// DefaultDeviceRequirements asks for a discrete GPU with graphics and
// present queues.
func DefaultDeviceRequirements() DeviceRequirements {
	return DeviceRequirements{Discrete: true, GraphicsQueue: true, PresentQueue: true}
}

type QueueFamilyIndices struct {
	Graphics    uint32
	Present     uint32
	HasGraphics bool
	HasPresent  bool
}

// Unique returns the distinct families in use, graphics first.
func (q QueueFamilyIndices) Unique() []uint32 {
	var out []uint32
	if q.HasGraphics {
		out = append(out, q.Graphics)
	}
	if q.HasPresent && !slices.Contains(out, q.Present) {
		out = append(out, q.Present)
	}
	return out
}

// PhysicalDeviceInfo is the snapshot taken of the selected device.
type PhysicalDeviceInfo struct {
	Handle      gpu.PhysicalDevice
	Properties  gpu.PhysicalDeviceProperties
	Queues      QueueFamilyIndices
	Extensions  []string
	MemoryTypes []gpu.MemoryType
}

// SelectPhysicalDevice returns the first enumerated device that satisfies
// every requested predicate. Devices are not ranked against each other.
func SelectPhysicalDevice(driver gpu.InstanceDriver, instance gpu.Instance, surface gpu.Surface, req DeviceRequirements) (PhysicalDeviceInfo, error) {
	devices, err := driver.EnumeratePhysicalDevices(instance)
	if err != nil {
		return PhysicalDeviceInfo{}, errors.Wrap(err, "enumerate physical devices")
	}
	for _, dev := range devices {
		info, ok, err := inspectDevice(driver, dev, surface, req)
		if err != nil {
			return PhysicalDeviceInfo{}, err
		}
		if ok {
			return info, nil
		}
	}
	return PhysicalDeviceInfo{}, errors.Wrapf(ErrNoSuitableDevice, "%d devices enumerated", len(devices))
}

func inspectDevice(driver gpu.InstanceDriver, dev gpu.PhysicalDevice, surface gpu.Surface, req DeviceRequirements) (PhysicalDeviceInfo, bool, error) {
	info := PhysicalDeviceInfo{
		Handle:     dev,
		Properties: driver.PhysicalDeviceProperties(dev),
	}
	if req.Discrete && info.Properties.Type != gpu.PhysicalDeviceTypeDiscreteGpu {
		return info, false, nil
	}

	queues, err := findQueueFamilies(driver, dev, surface, req.PresentQueue)
	if err != nil {
		return info, false, err
	}
	info.Queues = queues
	if req.GraphicsQueue && !queues.HasGraphics {
		return info, false, nil
	}

	if req.PresentQueue {
		if !queues.HasPresent {
			return info, false, nil
		}
		exts, err := driver.DeviceExtensions(dev)
		if err != nil {
			return info, false, errors.Wrapf(err, "enumerate extensions of %s", info.Properties.Name)
		}
		if !slices.Contains(exts, swapchainExtension) {
			return info, false, nil
		}
		formats, err := driver.SurfaceFormats(dev, surface)
		if err != nil {
			return info, false, errors.Wrap(err, "query surface formats")
		}
		modes, err := driver.PresentModes(dev, surface)
		if err != nil {
			return info, false, errors.Wrap(err, "query present modes")
		}
		if len(formats) == 0 || len(modes) == 0 {
			return info, false, nil
		}
		info.Extensions = []string{swapchainExtension}
	}

	info.MemoryTypes = driver.MemoryTypes(dev)
	return info, true, nil
}

func findQueueFamilies(driver gpu.InstanceDriver, dev gpu.PhysicalDevice, surface gpu.Surface, wantPresent bool) (QueueFamilyIndices, error) {
	var indices QueueFamilyIndices
	for i, family := range driver.QueueFamilies(dev) {
		if !indices.HasGraphics && family.Flags&gpu.QueueGraphicsBit != 0 {
			indices.Graphics = uint32(i)
			indices.HasGraphics = true
		}
		if wantPresent && !indices.HasPresent {
			present, err := driver.SurfaceSupport(dev, uint32(i), surface)
			if err != nil {
				return indices, errors.Wrapf(err, "query present support of family %d", i)
			}
			if present {
				indices.Present = uint32(i)
				indices.HasPresent = true
			}
		}
		if indices.HasGraphics && (indices.HasPresent || !wantPresent) {
			break
		}
	}
	return indices, nil
}

// LogicalDevice owns the device handle and its queues. Objects created on
// the device belong to the components that created them.
type LogicalDevice struct {
	driver gpu.Driver

	Handle        gpu.Device
	Physical      PhysicalDeviceInfo
	GraphicsQueue gpu.Queue
	PresentQueue  gpu.Queue
	Name          string
}

// NewLogicalDevice creates one queue in each distinct family of info and
// enables only the extensions discovered during selection.
func NewLogicalDevice(driver gpu.Driver, info PhysicalDeviceInfo, validation bool, log logrus.FieldLogger) (*LogicalDevice, error) {
	create := gpu.DeviceCreateInfo{
		QueueFamilies: info.Queues.Unique(),
		Extensions:    info.Extensions,
	}
	if validation {
		create.Layers = []string{validationLayer}
	}
	handle, err := driver.CreateDevice(info.Handle, create)
	if err != nil {
		return nil, errors.Wrap(err, "create logical device")
	}
	d := &LogicalDevice{
		driver:   driver,
		Handle:   handle,
		Physical: info,
		Name:     info.Properties.Name,
	}
	if info.Queues.HasGraphics {
		d.GraphicsQueue = driver.GetQueue(handle, info.Queues.Graphics, 0)
	}
	if info.Queues.HasPresent {
		d.PresentQueue = driver.GetQueue(handle, info.Queues.Present, 0)
	}

	log.WithFields(logrus.Fields{
		"component":      "device",
		"device":         d.Name,
		"type":           info.Properties.Type.String(),
		"api":            versionString(info.Properties.APIVersion),
		"pipeline_cache": uuid.UUID(info.Properties.PipelineCacheUUID).String(),
		"queue_families": create.QueueFamilies,
	}).Info("Logical device created")
	return d, nil
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *LogicalDevice) WaitIdle() error {
	if err := d.driver.DeviceWaitIdle(d.Handle); err != nil {
		return errors.Wrap(err, "device wait idle")
	}
	return nil
}

func (d *LogicalDevice) Destroy() {
	if d == nil || d.Handle == 0 {
		return
	}
	d.driver.DestroyDevice(d.Handle)
	d.Handle = 0
}

func versionString(v uint32) string {
	return fmt.Sprintf("%d.%d.%d", v>>22, (v>>12)&0x3ff, v&0xfff)
}
