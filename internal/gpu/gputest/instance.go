package gputest

import (
	"slices"

	"github.com/cockroachdb/errors"

	"Vulkube/internal/gpu"
)

func (d *Driver) EnumerateInstanceLayers() ([]string, error) {
	if res := d.enter("EnumerateInstanceLayers"); res != gpu.Success {
		return nil, res
	}
	return append([]string(nil), d.Layers...), nil
}

func (d *Driver) CreateInstance(info gpu.InstanceCreateInfo) (gpu.Instance, error) {
	if res := d.enter("CreateInstance"); res != gpu.Success {
		return 0, res
	}
	for _, l := range info.Layers {
		if !slices.Contains(d.Layers, l) {
			return 0, gpu.ErrorLayerNotPresent
		}
	}
	d.Instance = info
	return gpu.Instance(d.create("instance")), nil
}

func (d *Driver) DestroyInstance(instance gpu.Instance) {
	d.enter("DestroyInstance")
	d.destroy("instance", uint64(instance))
}

func (d *Driver) CreateDebugMessenger(instance gpu.Instance, callback gpu.DebugCallback) (gpu.DebugMessenger, error) {
	if res := d.enter("CreateDebugMessenger"); res != gpu.Success {
		return 0, res
	}
	m := gpu.DebugMessenger(d.create("debug_messenger"))
	d.messengers[m] = callback
	return m, nil
}

func (d *Driver) DestroyDebugMessenger(instance gpu.Instance, messenger gpu.DebugMessenger) {
	d.enter("DestroyDebugMessenger")
	delete(d.messengers, messenger)
	d.destroy("debug_messenger", uint64(messenger))
}

func (d *Driver) CreateSurface(instance gpu.Instance, source gpu.SurfaceSource) (gpu.Surface, error) {
	if res := d.enter("CreateSurface"); res != gpu.Success {
		return 0, res
	}
	if _, err := source.CreateSurface(instance); err != nil {
		return 0, errors.Wrap(err, "window surface")
	}
	return gpu.Surface(d.create("surface")), nil
}

func (d *Driver) DestroySurface(instance gpu.Instance, surface gpu.Surface) {
	d.enter("DestroySurface")
	d.destroy("surface", uint64(surface))
}

func (d *Driver) EnumeratePhysicalDevices(instance gpu.Instance) ([]gpu.PhysicalDevice, error) {
	if res := d.enter("EnumeratePhysicalDevices"); res != gpu.Success {
		return nil, res
	}
	out := make([]gpu.PhysicalDevice, len(d.Devices))
	for i := range d.Devices {
		out[i] = gpu.PhysicalDevice(i + 1)
	}
	return out, nil
}

func (d *Driver) PhysicalDeviceProperties(device gpu.PhysicalDevice) gpu.PhysicalDeviceProperties {
	return d.spec(device).Properties
}

func (d *Driver) QueueFamilies(device gpu.PhysicalDevice) []gpu.QueueFamily {
	spec := d.spec(device)
	out := make([]gpu.QueueFamily, len(spec.QueueFamilies))
	for i, f := range spec.QueueFamilies {
		out[i] = gpu.QueueFamily{Flags: f.Flags, Count: 1}
	}
	return out
}

func (d *Driver) SurfaceSupport(device gpu.PhysicalDevice, family uint32, surface gpu.Surface) (bool, error) {
	if res := d.enter("SurfaceSupport"); res != gpu.Success {
		return false, res
	}
	spec := d.spec(device)
	if int(family) >= len(spec.QueueFamilies) {
		return false, nil
	}
	return spec.QueueFamilies[family].Present, nil
}

func (d *Driver) DeviceExtensions(device gpu.PhysicalDevice) ([]string, error) {
	if res := d.enter("DeviceExtensions"); res != gpu.Success {
		return nil, res
	}
	return append([]string(nil), d.spec(device).Extensions...), nil
}

func (d *Driver) SurfaceCapabilities(device gpu.PhysicalDevice, surface gpu.Surface) (gpu.SurfaceCapabilities, error) {
	if res := d.enter("SurfaceCapabilities"); res != gpu.Success {
		return gpu.SurfaceCapabilities{}, res
	}
	return d.spec(device).Capabilities, nil
}

func (d *Driver) SurfaceFormats(device gpu.PhysicalDevice, surface gpu.Surface) ([]gpu.SurfaceFormat, error) {
	if res := d.enter("SurfaceFormats"); res != gpu.Success {
		return nil, res
	}
	return append([]gpu.SurfaceFormat(nil), d.spec(device).Formats...), nil
}

func (d *Driver) PresentModes(device gpu.PhysicalDevice, surface gpu.Surface) ([]gpu.PresentMode, error) {
	if res := d.enter("PresentModes"); res != gpu.Success {
		return nil, res
	}
	return append([]gpu.PresentMode(nil), d.spec(device).PresentModes...), nil
}

func (d *Driver) MemoryTypes(device gpu.PhysicalDevice) []gpu.MemoryType {
	return append([]gpu.MemoryType(nil), d.spec(device).MemoryTypes...)
}

func (d *Driver) CreateDevice(physical gpu.PhysicalDevice, info gpu.DeviceCreateInfo) (gpu.Device, error) {
	if res := d.enter("CreateDevice"); res != gpu.Success {
		return 0, res
	}
	spec := d.spec(physical)
	for _, ext := range info.Extensions {
		if !slices.Contains(spec.Extensions, ext) {
			return 0, gpu.ErrorExtensionNotPresent
		}
	}
	d.Device = info
	d.device = spec
	return gpu.Device(d.create("device")), nil
}
