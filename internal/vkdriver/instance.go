package vkdriver

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vulkan-go/vulkan"

	"Vulkube/internal/gpu"
)

func (d *Driver) EnumerateInstanceLayers() ([]string, error) {
	var count uint32
	if err := check(vulkan.EnumerateInstanceLayerProperties(&count, nil), "enumerate instance layers"); err != nil {
		return nil, err
	}
	props := make([]vulkan.LayerProperties, count)
	if err := check(vulkan.EnumerateInstanceLayerProperties(&count, props), "enumerate instance layers"); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for i := range props {
		props[i].Deref()
		names = append(names, vulkan.ToString(props[i].LayerName[:]))
	}
	return names, nil
}

func (d *Driver) CreateInstance(info gpu.InstanceCreateInfo) (gpu.Instance, error) {
	appInfo := vulkan.ApplicationInfo{
		SType:              vulkan.StructureTypeApplicationInfo,
		PApplicationName:   safeString(info.ApplicationName),
		ApplicationVersion: info.ApplicationVersion,
		PEngineName:        safeString(info.EngineName),
		EngineVersion:      info.EngineVersion,
		ApiVersion:         info.APIVersion,
	}
	createInfo := vulkan.InstanceCreateInfo{
		SType:                   vulkan.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(info.Extensions)),
		PpEnabledExtensionNames: safeStrings(info.Extensions),
		EnabledLayerCount:       uint32(len(info.Layers)),
		PpEnabledLayerNames:     safeStrings(info.Layers),
	}

	var instance vulkan.Instance
	if err := check(vulkan.CreateInstance(&createInfo, nil, &instance), "create instance"); err != nil {
		return 0, err
	}
	if err := vulkan.InitInstance(instance); err != nil {
		vulkan.DestroyInstance(instance, nil)
		return 0, errors.Wrap(err, "vkInitInstance")
	}
	return d.instances.put(instance), nil
}

func (d *Driver) DestroyInstance(instance gpu.Instance) {
	vulkan.DestroyInstance(d.instances.take(instance), nil)
}

func (d *Driver) CreateDebugMessenger(instance gpu.Instance, callback gpu.DebugCallback) (gpu.DebugMessenger, error) {
	createInfo := vulkan.DebugReportCallbackCreateInfo{
		SType: vulkan.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vulkan.DebugReportFlags(
			vulkan.DebugReportErrorBit |
				vulkan.DebugReportWarningBit |
				vulkan.DebugReportPerformanceWarningBit),
		PfnCallback: func(flags vulkan.DebugReportFlags, objectType vulkan.DebugReportObjectType, object uint64, location uint, messageCode int32, layerPrefix string, message string, userData unsafe.Pointer) vulkan.Bool32 {
			callback(severity(flags), layerPrefix, message)
			return vulkan.False
		},
	}
	var cb vulkan.DebugReportCallback
	if err := check(vulkan.CreateDebugReportCallback(d.instances.get(instance), &createInfo, nil, &cb), "create debug callback"); err != nil {
		return 0, err
	}
	return d.messengers.put(cb), nil
}

func (d *Driver) DestroyDebugMessenger(instance gpu.Instance, messenger gpu.DebugMessenger) {
	vulkan.DestroyDebugReportCallback(d.instances.get(instance), d.messengers.take(messenger), nil)
}

func (d *Driver) CreateSurface(instance gpu.Instance, source gpu.SurfaceSource) (gpu.Surface, error) {
	ptr, err := source.CreateSurface(d.instances.get(instance))
	if err != nil {
		return 0, err
	}
	return d.surfaces.put(vulkan.SurfaceFromPointer(ptr)), nil
}

func (d *Driver) DestroySurface(instance gpu.Instance, surface gpu.Surface) {
	vulkan.DestroySurface(d.instances.get(instance), d.surfaces.take(surface), nil)
}

func (d *Driver) EnumeratePhysicalDevices(instance gpu.Instance) ([]gpu.PhysicalDevice, error) {
	inst := d.instances.get(instance)
	var count uint32
	if err := check(vulkan.EnumeratePhysicalDevices(inst, &count, nil), "enumerate physical devices"); err != nil {
		return nil, err
	}
	devices := make([]vulkan.PhysicalDevice, count)
	if err := check(vulkan.EnumeratePhysicalDevices(inst, &count, devices), "enumerate physical devices list"); err != nil {
		return nil, err
	}
	handles := make([]gpu.PhysicalDevice, len(devices))
	for i, dev := range devices {
		handles[i] = d.physical.put(dev)
	}
	return handles, nil
}

func (d *Driver) PhysicalDeviceProperties(device gpu.PhysicalDevice) gpu.PhysicalDeviceProperties {
	var props vulkan.PhysicalDeviceProperties
	vulkan.GetPhysicalDeviceProperties(d.physical.get(device), &props)
	props.Deref()
	return gpu.PhysicalDeviceProperties{
		Name:              vulkan.ToString(props.DeviceName[:]),
		Type:              gpu.PhysicalDeviceType(props.DeviceType),
		APIVersion:        props.ApiVersion,
		DriverVersion:     props.DriverVersion,
		VendorID:          props.VendorID,
		DeviceID:          props.DeviceID,
		PipelineCacheUUID: props.PipelineCacheUUID,
	}
}

func (d *Driver) QueueFamilies(device gpu.PhysicalDevice) []gpu.QueueFamily {
	dev := d.physical.get(device)
	var count uint32
	vulkan.GetPhysicalDeviceQueueFamilyProperties(dev, &count, nil)
	props := make([]vulkan.QueueFamilyProperties, count)
	vulkan.GetPhysicalDeviceQueueFamilyProperties(dev, &count, props)

	families := make([]gpu.QueueFamily, len(props))
	for i := range props {
		props[i].Deref()
		families[i] = gpu.QueueFamily{
			Flags: gpu.QueueFlags(props[i].QueueFlags),
			Count: props[i].QueueCount,
		}
	}
	return families
}

func (d *Driver) SurfaceSupport(device gpu.PhysicalDevice, family uint32, surface gpu.Surface) (bool, error) {
	var present vulkan.Bool32
	res := vulkan.GetPhysicalDeviceSurfaceSupport(d.physical.get(device), family, d.surfaces.get(surface), &present)
	if err := check(res, "query surface support"); err != nil {
		return false, err
	}
	return present == vulkan.True, nil
}

func (d *Driver) DeviceExtensions(device gpu.PhysicalDevice) ([]string, error) {
	dev := d.physical.get(device)
	var count uint32
	if err := check(vulkan.EnumerateDeviceExtensionProperties(dev, "", &count, nil), "enumerate device extensions"); err != nil {
		return nil, err
	}
	props := make([]vulkan.ExtensionProperties, count)
	if err := check(vulkan.EnumerateDeviceExtensionProperties(dev, "", &count, props), "enumerate device extensions"); err != nil {
		return nil, err
	}
	names := make([]string, len(props))
	for i := range props {
		props[i].Deref()
		names[i] = vulkan.ToString(props[i].ExtensionName[:])
	}
	return names, nil
}

func (d *Driver) SurfaceCapabilities(device gpu.PhysicalDevice, surface gpu.Surface) (gpu.SurfaceCapabilities, error) {
	var caps vulkan.SurfaceCapabilities
	res := vulkan.GetPhysicalDeviceSurfaceCapabilities(d.physical.get(device), d.surfaces.get(surface), &caps)
	if err := check(res, "query surface capabilities"); err != nil {
		return gpu.SurfaceCapabilities{}, err
	}
	caps.Deref()
	return gpu.SurfaceCapabilities{
		MinImageCount:    caps.MinImageCount,
		MaxImageCount:    caps.MaxImageCount,
		CurrentExtent:    extent(caps.CurrentExtent),
		MinImageExtent:   extent(caps.MinImageExtent),
		MaxImageExtent:   extent(caps.MaxImageExtent),
		CurrentTransform: uint32(caps.CurrentTransform),
	}, nil
}

func (d *Driver) SurfaceFormats(device gpu.PhysicalDevice, surface gpu.Surface) ([]gpu.SurfaceFormat, error) {
	dev, surf := d.physical.get(device), d.surfaces.get(surface)
	var count uint32
	if err := check(vulkan.GetPhysicalDeviceSurfaceFormats(dev, surf, &count, nil), "query surface formats"); err != nil {
		return nil, err
	}
	formats := make([]vulkan.SurfaceFormat, count)
	if count > 0 {
		if err := check(vulkan.GetPhysicalDeviceSurfaceFormats(dev, surf, &count, formats), "query surface formats"); err != nil {
			return nil, err
		}
	}
	out := make([]gpu.SurfaceFormat, len(formats))
	for i := range formats {
		formats[i].Deref()
		out[i] = gpu.SurfaceFormat{
			Format:     gpu.Format(formats[i].Format),
			ColorSpace: gpu.ColorSpace(formats[i].ColorSpace),
		}
	}
	return out, nil
}

func (d *Driver) PresentModes(device gpu.PhysicalDevice, surface gpu.Surface) ([]gpu.PresentMode, error) {
	dev, surf := d.physical.get(device), d.surfaces.get(surface)
	var count uint32
	if err := check(vulkan.GetPhysicalDeviceSurfacePresentModes(dev, surf, &count, nil), "query present modes"); err != nil {
		return nil, err
	}
	modes := make([]vulkan.PresentMode, count)
	if count > 0 {
		if err := check(vulkan.GetPhysicalDeviceSurfacePresentModes(dev, surf, &count, modes), "query present modes"); err != nil {
			return nil, err
		}
	}
	out := make([]gpu.PresentMode, len(modes))
	for i, m := range modes {
		out[i] = gpu.PresentMode(m)
	}
	return out, nil
}

func (d *Driver) MemoryTypes(device gpu.PhysicalDevice) []gpu.MemoryType {
	var props vulkan.PhysicalDeviceMemoryProperties
	vulkan.GetPhysicalDeviceMemoryProperties(d.physical.get(device), &props)
	props.Deref()

	types := make([]gpu.MemoryType, props.MemoryTypeCount)
	for i := range types {
		props.MemoryTypes[i].Deref()
		types[i] = gpu.MemoryType{
			PropertyFlags: gpu.MemoryPropertyFlags(props.MemoryTypes[i].PropertyFlags),
			HeapIndex:     props.MemoryTypes[i].HeapIndex,
		}
	}
	return types
}

func (d *Driver) CreateDevice(physical gpu.PhysicalDevice, info gpu.DeviceCreateInfo) (gpu.Device, error) {
	queueInfos := make([]vulkan.DeviceQueueCreateInfo, 0, len(info.QueueFamilies))
	for _, family := range info.QueueFamilies {
		queueInfos = append(queueInfos, vulkan.DeviceQueueCreateInfo{
			SType:            vulkan.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	createInfo := vulkan.DeviceCreateInfo{
		SType:                   vulkan.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		PEnabledFeatures:        []vulkan.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(info.Extensions)),
		PpEnabledExtensionNames: safeStrings(info.Extensions),
		EnabledLayerCount:       uint32(len(info.Layers)),
		PpEnabledLayerNames:     safeStrings(info.Layers),
	}

	var device vulkan.Device
	if err := check(vulkan.CreateDevice(d.physical.get(physical), &createInfo, nil, &device), "create logical device"); err != nil {
		return 0, err
	}
	return d.devices.put(device), nil
}
