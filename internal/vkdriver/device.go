package vkdriver

import (
	"slices"
	"unsafe"

	"github.com/vulkan-go/vulkan"

	"Vulkube/internal/gpu"
)

func (d *Driver) DestroyDevice(device gpu.Device) {
	vulkan.DestroyDevice(d.devices.take(device), nil)
}

func (d *Driver) GetQueue(device gpu.Device, family, index uint32) gpu.Queue {
	var queue vulkan.Queue
	vulkan.GetDeviceQueue(d.devices.get(device), family, index, &queue)
	return d.queues.put(queue)
}

func (d *Driver) DeviceWaitIdle(device gpu.Device) error {
	return check(vulkan.DeviceWaitIdle(d.devices.get(device)), "device wait idle")
}

func (d *Driver) QueueWaitIdle(queue gpu.Queue) error {
	return check(vulkan.QueueWaitIdle(d.queues.get(queue)), "queue wait idle")
}

func (d *Driver) CreateSwapchain(device gpu.Device, info gpu.SwapchainCreateInfo) (gpu.Swapchain, error) {
	createInfo := vulkan.SwapchainCreateInfo{
		SType:            vulkan.StructureTypeSwapchainCreateInfo,
		Surface:          d.surfaces.get(info.Surface),
		MinImageCount:    info.MinImageCount,
		ImageFormat:      vulkan.Format(info.Format.Format),
		ImageColorSpace:  vulkan.ColorSpace(info.Format.ColorSpace),
		ImageExtent:      vkExtent(info.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       vulkan.ImageUsageFlags(vulkan.ImageUsageColorAttachmentBit),
		ImageSharingMode: vulkan.SharingModeExclusive,
		PreTransform:     vulkan.SurfaceTransformFlagBits(info.PreTransform),
		CompositeAlpha:   vulkan.CompositeAlphaOpaqueBit,
		PresentMode:      vulkan.PresentMode(info.PresentMode),
		Clipped:          vulkan.True,
		OldSwapchain:     vulkan.Swapchain(vulkan.NullHandle),
	}
	if info.OldSwapchain != 0 {
		createInfo.OldSwapchain = d.swapchains.get(info.OldSwapchain)
	}
	if len(info.QueueFamilies) > 1 {
		createInfo.ImageSharingMode = vulkan.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = uint32(len(info.QueueFamilies))
		createInfo.PQueueFamilyIndices = info.QueueFamilies
	}

	var swapchain vulkan.Swapchain
	if err := check(vulkan.CreateSwapchain(d.devices.get(device), &createInfo, nil, &swapchain), "create swapchain"); err != nil {
		return 0, err
	}
	return d.swapchains.put(swapchain), nil
}

// DestroySwapchain also forgets the swapchain's image handles, which the
// swapchain owns.
func (d *Driver) DestroySwapchain(device gpu.Device, swapchain gpu.Swapchain) {
	for _, h := range d.owned[swapchain] {
		d.images.take(h)
	}
	delete(d.owned, swapchain)
	vulkan.DestroySwapchain(d.devices.get(device), d.swapchains.take(swapchain), nil)
}

func (d *Driver) SwapchainImages(device gpu.Device, swapchain gpu.Swapchain) ([]gpu.Image, error) {
	dev, sc := d.devices.get(device), d.swapchains.get(swapchain)
	var count uint32
	if err := check(vulkan.GetSwapchainImages(dev, sc, &count, nil), "get swapchain images"); err != nil {
		return nil, err
	}
	images := make([]vulkan.Image, count)
	if err := check(vulkan.GetSwapchainImages(dev, sc, &count, images), "get swapchain images"); err != nil {
		return nil, err
	}
	handles := make([]gpu.Image, len(images))
	for i, img := range images {
		handles[i] = d.images.put(img)
	}
	d.owned[swapchain] = handles
	return handles, nil
}

func (d *Driver) AcquireNextImage(device gpu.Device, swapchain gpu.Swapchain, signal gpu.Semaphore) (uint32, gpu.Result) {
	var index uint32
	res := vulkan.AcquireNextImage(d.devices.get(device), d.swapchains.get(swapchain), vulkan.MaxUint64,
		d.semaphores.get(signal), vulkan.Fence(vulkan.NullHandle), &index)
	return index, gpu.Result(res)
}

func (d *Driver) QueuePresent(queue gpu.Queue, info gpu.PresentInfo) gpu.Result {
	presentInfo := vulkan.PresentInfo{
		SType:              vulkan.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(info.WaitSemaphores)),
		PWaitSemaphores:    d.nativeSemaphores(info.WaitSemaphores),
		SwapchainCount:     1,
		PSwapchains:        []vulkan.Swapchain{d.swapchains.get(info.Swapchain)},
		PImageIndices:      []uint32{info.ImageIndex},
	}
	return gpu.Result(vulkan.QueuePresent(d.queues.get(queue), &presentInfo))
}

func (d *Driver) CreateImageView(device gpu.Device, image gpu.Image, format gpu.Format) (gpu.ImageView, error) {
	viewInfo := vulkan.ImageViewCreateInfo{
		SType:    vulkan.StructureTypeImageViewCreateInfo,
		Image:    d.images.get(image),
		ViewType: vulkan.ImageViewType2d,
		Format:   vulkan.Format(format),
		Components: vulkan.ComponentMapping{
			R: vulkan.ComponentSwizzleIdentity,
			G: vulkan.ComponentSwizzleIdentity,
			B: vulkan.ComponentSwizzleIdentity,
			A: vulkan.ComponentSwizzleIdentity,
		},
		SubresourceRange: vulkan.ImageSubresourceRange{
			AspectMask: vulkan.ImageAspectFlags(vulkan.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vulkan.ImageView
	if err := check(vulkan.CreateImageView(d.devices.get(device), &viewInfo, nil, &view), "create image view"); err != nil {
		return 0, err
	}
	return d.views.put(view), nil
}

func (d *Driver) DestroyImageView(device gpu.Device, view gpu.ImageView) {
	vulkan.DestroyImageView(d.devices.get(device), d.views.take(view), nil)
}

func (d *Driver) CreateRenderPass(device gpu.Device, info gpu.RenderPassCreateInfo) (gpu.RenderPass, error) {
	attachments := make([]vulkan.AttachmentDescription, len(info.ColorAttachments))
	refs := make([]vulkan.AttachmentReference, len(info.ColorAttachments))
	for i, a := range info.ColorAttachments {
		attachments[i] = vulkan.AttachmentDescription{
			Format:         vulkan.Format(a.Format),
			Samples:        vulkan.SampleCountFlagBits(a.Samples),
			LoadOp:         vulkan.AttachmentLoadOp(a.LoadOp),
			StoreOp:        vulkan.AttachmentStoreOp(a.StoreOp),
			StencilLoadOp:  vulkan.AttachmentLoadOpDontCare,
			StencilStoreOp: vulkan.AttachmentStoreOpDontCare,
			InitialLayout:  vulkan.ImageLayout(a.InitialLayout),
			FinalLayout:    vulkan.ImageLayout(a.FinalLayout),
		}
		refs[i] = vulkan.AttachmentReference{
			Attachment: uint32(i),
			Layout:     vulkan.ImageLayoutColorAttachmentOptimal,
		}
	}
	subpass := vulkan.SubpassDescription{
		PipelineBindPoint:    vulkan.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(refs)),
		PColorAttachments:    refs,
	}
	deps := make([]vulkan.SubpassDependency, len(info.Dependencies))
	for i, dep := range info.Dependencies {
		deps[i] = vulkan.SubpassDependency{
			SrcSubpass:    dep.SrcSubpass,
			DstSubpass:    dep.DstSubpass,
			SrcStageMask:  vulkan.PipelineStageFlags(dep.SrcStageMask),
			DstStageMask:  vulkan.PipelineStageFlags(dep.DstStageMask),
			SrcAccessMask: vulkan.AccessFlags(dep.SrcAccessMask),
			DstAccessMask: vulkan.AccessFlags(dep.DstAccessMask),
		}
	}

	createInfo := vulkan.RenderPassCreateInfo{
		SType:           vulkan.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vulkan.SubpassDescription{subpass},
		DependencyCount: uint32(len(deps)),
		PDependencies:   deps,
	}
	var pass vulkan.RenderPass
	if err := check(vulkan.CreateRenderPass(d.devices.get(device), &createInfo, nil, &pass), "create render pass"); err != nil {
		return 0, err
	}
	return d.renderPasses.put(pass), nil
}

func (d *Driver) DestroyRenderPass(device gpu.Device, pass gpu.RenderPass) {
	vulkan.DestroyRenderPass(d.devices.get(device), d.renderPasses.take(pass), nil)
}

func (d *Driver) CreateShaderModule(device gpu.Device, code []byte) (gpu.ShaderModule, error) {
	words, err := shaderWords(code)
	if err != nil {
		return 0, err
	}
	createInfo := vulkan.ShaderModuleCreateInfo{
		SType:    vulkan.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    words,
	}
	var module vulkan.ShaderModule
	if err := check(vulkan.CreateShaderModule(d.devices.get(device), &createInfo, nil, &module), "create shader module"); err != nil {
		return 0, err
	}
	return d.modules.put(module), nil
}

func (d *Driver) DestroyShaderModule(device gpu.Device, module gpu.ShaderModule) {
	vulkan.DestroyShaderModule(d.devices.get(device), d.modules.take(module), nil)
}

func (d *Driver) CreatePipelineLayout(device gpu.Device) (gpu.PipelineLayout, error) {
	layoutInfo := vulkan.PipelineLayoutCreateInfo{
		SType: vulkan.StructureTypePipelineLayoutCreateInfo,
	}
	var layout vulkan.PipelineLayout
	if err := check(vulkan.CreatePipelineLayout(d.devices.get(device), &layoutInfo, nil, &layout), "create pipeline layout"); err != nil {
		return 0, err
	}
	return d.layouts.put(layout), nil
}

func (d *Driver) DestroyPipelineLayout(device gpu.Device, layout gpu.PipelineLayout) {
	vulkan.DestroyPipelineLayout(d.devices.get(device), d.layouts.take(layout), nil)
}

func (d *Driver) CreateGraphicsPipeline(device gpu.Device, info gpu.GraphicsPipelineCreateInfo) (gpu.Pipeline, error) {
	stages := make([]vulkan.PipelineShaderStageCreateInfo, len(info.Stages))
	for i, s := range info.Stages {
		stages[i] = vulkan.PipelineShaderStageCreateInfo{
			SType:  vulkan.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vulkan.ShaderStageFlagBits(s.Stage),
			Module: d.modules.get(s.Module),
			PName:  safeString(s.EntryPoint),
		}
	}

	bindings := make([]vulkan.VertexInputBindingDescription, len(info.VertexBindings))
	for i, b := range info.VertexBindings {
		bindings[i] = vulkan.VertexInputBindingDescription{
			Binding:   b.Binding,
			Stride:    b.Stride,
			InputRate: vulkan.VertexInputRateVertex,
		}
	}
	attributes := make([]vulkan.VertexInputAttributeDescription, len(info.VertexAttributes))
	for i, a := range info.VertexAttributes {
		attributes[i] = vulkan.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   vulkan.Format(a.Format),
			Offset:   a.Offset,
		}
	}
	vertexInput := vulkan.PipelineVertexInputStateCreateInfo{
		SType:                           vulkan.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}
	inputAssembly := vulkan.PipelineInputAssemblyStateCreateInfo{
		SType:                  vulkan.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vulkan.PrimitiveTopology(info.Topology),
		PrimitiveRestartEnable: vulkan.False,
	}
	// Viewport and scissor are dynamic, only the counts are fixed here.
	viewportState := vulkan.PipelineViewportStateCreateInfo{
		SType:         vulkan.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: info.ViewportCount,
		ScissorCount:  info.ScissorCount,
	}
	rasterizer := vulkan.PipelineRasterizationStateCreateInfo{
		SType:                   vulkan.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vulkan.False,
		RasterizerDiscardEnable: vulkan.False,
		PolygonMode:             vulkan.PolygonMode(info.Rasterization.PolygonMode),
		LineWidth:               info.Rasterization.LineWidth,
		CullMode:                vulkan.CullModeFlags(info.Rasterization.CullMode),
		FrontFace:               vulkan.FrontFace(info.Rasterization.FrontFace),
		DepthBiasEnable:         vkBool(info.Rasterization.DepthBiasEnable),
	}
	multisampling := vulkan.PipelineMultisampleStateCreateInfo{
		SType:                vulkan.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vulkan.SampleCountFlagBits(info.Samples),
		MinSampleShading:     1.0,
	}
	blendAttachments := make([]vulkan.PipelineColorBlendAttachmentState, len(info.BlendAttachments))
	for i, b := range info.BlendAttachments {
		blendAttachments[i] = vulkan.PipelineColorBlendAttachmentState{
			BlendEnable:    vkBool(b.BlendEnable),
			ColorWriteMask: vulkan.ColorComponentFlags(b.WriteMask),
		}
	}
	colorBlending := vulkan.PipelineColorBlendStateCreateInfo{
		SType:           vulkan.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vkBool(info.LogicOpEnable),
		LogicOp:         vulkan.LogicOp(info.LogicOp),
		AttachmentCount: uint32(len(blendAttachments)),
		PAttachments:    blendAttachments,
	}
	dynamicStates := make([]vulkan.DynamicState, len(info.DynamicStates))
	for i, s := range info.DynamicStates {
		dynamicStates[i] = vulkan.DynamicState(s)
	}
	dynamicState := vulkan.PipelineDynamicStateCreateInfo{
		SType:             vulkan.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	pipelineInfo := vulkan.GraphicsPipelineCreateInfo{
		SType:               vulkan.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PColorBlendState:    &colorBlending,
		PDynamicState:       &dynamicState,
		Layout:              d.layouts.get(info.Layout),
		RenderPass:          d.renderPasses.get(info.RenderPass),
		Subpass:             info.Subpass,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vulkan.Pipeline, 1)
	res := vulkan.CreateGraphicsPipelines(d.devices.get(device), vulkan.PipelineCache(vulkan.NullHandle), 1,
		[]vulkan.GraphicsPipelineCreateInfo{pipelineInfo}, nil, pipelines)
	if err := check(res, "create graphics pipeline"); err != nil {
		return 0, err
	}
	return d.pipelines.put(pipelines[0]), nil
}

func (d *Driver) DestroyPipeline(device gpu.Device, pipeline gpu.Pipeline) {
	vulkan.DestroyPipeline(d.devices.get(device), d.pipelines.take(pipeline), nil)
}

func (d *Driver) CreateFramebuffer(device gpu.Device, info gpu.FramebufferCreateInfo) (gpu.Framebuffer, error) {
	attachments := make([]vulkan.ImageView, len(info.Attachments))
	for i, v := range info.Attachments {
		attachments[i] = d.views.get(v)
	}
	createInfo := vulkan.FramebufferCreateInfo{
		SType:           vulkan.StructureTypeFramebufferCreateInfo,
		RenderPass:      d.renderPasses.get(info.RenderPass),
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           info.Width,
		Height:          info.Height,
		Layers:          info.Layers,
	}
	var fb vulkan.Framebuffer
	if err := check(vulkan.CreateFramebuffer(d.devices.get(device), &createInfo, nil, &fb), "create framebuffer"); err != nil {
		return 0, err
	}
	return d.framebuffers.put(fb), nil
}

func (d *Driver) DestroyFramebuffer(device gpu.Device, framebuffer gpu.Framebuffer) {
	vulkan.DestroyFramebuffer(d.devices.get(device), d.framebuffers.take(framebuffer), nil)
}

func (d *Driver) CreateCommandPool(device gpu.Device, family uint32) (gpu.CommandPool, error) {
	poolInfo := vulkan.CommandPoolCreateInfo{
		SType:            vulkan.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: family,
		Flags:            vulkan.CommandPoolCreateFlags(vulkan.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vulkan.CommandPool
	if err := check(vulkan.CreateCommandPool(d.devices.get(device), &poolInfo, nil, &pool), "create command pool"); err != nil {
		return 0, err
	}
	return d.pools.put(pool), nil
}

// DestroyCommandPool frees the pool's command buffers along with it.
func (d *Driver) DestroyCommandPool(device gpu.Device, pool gpu.CommandPool) {
	native := d.pools.take(pool)
	for _, h := range d.pooled[pool] {
		d.commands.take(h)
	}
	delete(d.pooled, pool)
	vulkan.DestroyCommandPool(d.devices.get(device), native, nil)
}

func (d *Driver) AllocateCommandBuffers(device gpu.Device, pool gpu.CommandPool, count int) ([]gpu.CommandBuffer, error) {
	allocInfo := vulkan.CommandBufferAllocateInfo{
		SType:              vulkan.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.pools.get(pool),
		Level:              vulkan.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}
	buffers := make([]vulkan.CommandBuffer, count)
	if err := check(vulkan.AllocateCommandBuffers(d.devices.get(device), &allocInfo, buffers), "allocate command buffers"); err != nil {
		return nil, err
	}
	handles := make([]gpu.CommandBuffer, count)
	for i, buf := range buffers {
		handles[i] = d.commands.put(buf)
	}
	d.pooled[pool] = append(d.pooled[pool], handles...)
	return handles, nil
}

func (d *Driver) FreeCommandBuffers(device gpu.Device, pool gpu.CommandPool, buffers []gpu.CommandBuffer) {
	native := make([]vulkan.CommandBuffer, len(buffers))
	for i, h := range buffers {
		native[i] = d.commands.take(h)
	}
	d.pooled[pool] = slices.DeleteFunc(d.pooled[pool], func(h gpu.CommandBuffer) bool {
		return slices.Contains(buffers, h)
	})
	vulkan.FreeCommandBuffers(d.devices.get(device), d.pools.get(pool), uint32(len(native)), native)
}

func (d *Driver) QueueSubmit(queue gpu.Queue, info gpu.SubmitInfo, fence gpu.Fence) error {
	stages := make([]vulkan.PipelineStageFlags, len(info.WaitStages))
	for i, s := range info.WaitStages {
		stages[i] = vulkan.PipelineStageFlags(s)
	}
	cmds := make([]vulkan.CommandBuffer, len(info.CommandBuffers))
	for i, h := range info.CommandBuffers {
		cmds[i] = d.commands.get(h)
	}
	submitInfo := vulkan.SubmitInfo{
		SType:                vulkan.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(info.WaitSemaphores)),
		PWaitSemaphores:      d.nativeSemaphores(info.WaitSemaphores),
		PWaitDstStageMask:    stages,
		CommandBufferCount:   uint32(len(cmds)),
		PCommandBuffers:      cmds,
		SignalSemaphoreCount: uint32(len(info.SignalSemaphores)),
		PSignalSemaphores:    d.nativeSemaphores(info.SignalSemaphores),
	}
	nativeFence := vulkan.Fence(vulkan.NullHandle)
	if fence != 0 {
		nativeFence = d.fences.get(fence)
	}
	return check(vulkan.QueueSubmit(d.queues.get(queue), 1, []vulkan.SubmitInfo{submitInfo}, nativeFence), "queue submit")
}

func (d *Driver) nativeSemaphores(handles []gpu.Semaphore) []vulkan.Semaphore {
	out := make([]vulkan.Semaphore, len(handles))
	for i, h := range handles {
		out[i] = d.semaphores.get(h)
	}
	return out
}

func (d *Driver) CreateSemaphore(device gpu.Device) (gpu.Semaphore, error) {
	semInfo := vulkan.SemaphoreCreateInfo{
		SType: vulkan.StructureTypeSemaphoreCreateInfo,
	}
	var sem vulkan.Semaphore
	if err := check(vulkan.CreateSemaphore(d.devices.get(device), &semInfo, nil, &sem), "create semaphore"); err != nil {
		return 0, err
	}
	return d.semaphores.put(sem), nil
}

func (d *Driver) DestroySemaphore(device gpu.Device, semaphore gpu.Semaphore) {
	vulkan.DestroySemaphore(d.devices.get(device), d.semaphores.take(semaphore), nil)
}

func (d *Driver) CreateFence(device gpu.Device, signaled bool) (gpu.Fence, error) {
	fenceInfo := vulkan.FenceCreateInfo{
		SType: vulkan.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceInfo.Flags = vulkan.FenceCreateFlags(vulkan.FenceCreateSignaledBit)
	}
	var fence vulkan.Fence
	if err := check(vulkan.CreateFence(d.devices.get(device), &fenceInfo, nil, &fence), "create fence"); err != nil {
		return 0, err
	}
	return d.fences.put(fence), nil
}

func (d *Driver) DestroyFence(device gpu.Device, fence gpu.Fence) {
	vulkan.DestroyFence(d.devices.get(device), d.fences.take(fence), nil)
}

func (d *Driver) WaitForFence(device gpu.Device, fence gpu.Fence) error {
	res := vulkan.WaitForFences(d.devices.get(device), 1, []vulkan.Fence{d.fences.get(fence)}, vulkan.True, vulkan.MaxUint64)
	return check(res, "wait for fence")
}

func (d *Driver) ResetFence(device gpu.Device, fence gpu.Fence) error {
	return check(vulkan.ResetFences(d.devices.get(device), 1, []vulkan.Fence{d.fences.get(fence)}), "reset fence")
}

func (d *Driver) CreateBuffer(device gpu.Device, size uint64, usage gpu.BufferUsageFlags) (gpu.Buffer, error) {
	bufferInfo := vulkan.BufferCreateInfo{
		SType:       vulkan.StructureTypeBufferCreateInfo,
		Size:        vulkan.DeviceSize(size),
		Usage:       vulkan.BufferUsageFlags(usage),
		SharingMode: vulkan.SharingModeExclusive,
	}
	var buffer vulkan.Buffer
	if err := check(vulkan.CreateBuffer(d.devices.get(device), &bufferInfo, nil, &buffer), "create buffer"); err != nil {
		return 0, err
	}
	return d.buffers.put(buffer), nil
}

func (d *Driver) DestroyBuffer(device gpu.Device, buffer gpu.Buffer) {
	vulkan.DestroyBuffer(d.devices.get(device), d.buffers.take(buffer), nil)
}

func (d *Driver) BufferMemoryRequirements(device gpu.Device, buffer gpu.Buffer) gpu.MemoryRequirements {
	var req vulkan.MemoryRequirements
	vulkan.GetBufferMemoryRequirements(d.devices.get(device), d.buffers.get(buffer), &req)
	req.Deref()
	return gpu.MemoryRequirements{
		Size:           uint64(req.Size),
		Alignment:      uint64(req.Alignment),
		MemoryTypeBits: req.MemoryTypeBits,
	}
}

func (d *Driver) AllocateMemory(device gpu.Device, size uint64, typeIndex uint32) (gpu.DeviceMemory, error) {
	allocInfo := vulkan.MemoryAllocateInfo{
		SType:           vulkan.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vulkan.DeviceSize(size),
		MemoryTypeIndex: typeIndex,
	}
	var memory vulkan.DeviceMemory
	if err := check(vulkan.AllocateMemory(d.devices.get(device), &allocInfo, nil, &memory), "allocate memory"); err != nil {
		return 0, err
	}
	return d.memory.put(memory), nil
}

func (d *Driver) FreeMemory(device gpu.Device, memory gpu.DeviceMemory) {
	vulkan.FreeMemory(d.devices.get(device), d.memory.take(memory), nil)
}

func (d *Driver) BindBufferMemory(device gpu.Device, buffer gpu.Buffer, memory gpu.DeviceMemory) error {
	res := vulkan.BindBufferMemory(d.devices.get(device), d.buffers.get(buffer), d.memory.get(memory), 0)
	return check(res, "bind buffer memory")
}

func (d *Driver) MapMemory(device gpu.Device, memory gpu.DeviceMemory, size uint64) ([]byte, error) {
	var data unsafe.Pointer
	res := vulkan.MapMemory(d.devices.get(device), d.memory.get(memory), 0, vulkan.DeviceSize(size), 0, &data)
	if err := check(res, "map memory"); err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(data), size), nil
}

func (d *Driver) UnmapMemory(device gpu.Device, memory gpu.DeviceMemory) {
	vulkan.UnmapMemory(d.devices.get(device), d.memory.get(memory))
}
