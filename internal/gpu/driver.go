package gpu

// SurfaceSource is a window that can produce a presentation surface for an
// API instance. The instance passed in is the driver's native handle.
type SurfaceSource interface {
	CreateSurface(instance any) (uintptr, error)
}

// InstanceDriver covers instance-level entry points and physical device
// queries.
type InstanceDriver interface {
	EnumerateInstanceLayers() ([]string, error)
	CreateInstance(info InstanceCreateInfo) (Instance, error)
	DestroyInstance(instance Instance)
	CreateDebugMessenger(instance Instance, callback DebugCallback) (DebugMessenger, error)
	DestroyDebugMessenger(instance Instance, messenger DebugMessenger)
	CreateSurface(instance Instance, source SurfaceSource) (Surface, error)
	DestroySurface(instance Instance, surface Surface)

	EnumeratePhysicalDevices(instance Instance) ([]PhysicalDevice, error)
	PhysicalDeviceProperties(device PhysicalDevice) PhysicalDeviceProperties
	QueueFamilies(device PhysicalDevice) []QueueFamily
	SurfaceSupport(device PhysicalDevice, family uint32, surface Surface) (bool, error)
	DeviceExtensions(device PhysicalDevice) ([]string, error)
	SurfaceCapabilities(device PhysicalDevice, surface Surface) (SurfaceCapabilities, error)
	SurfaceFormats(device PhysicalDevice, surface Surface) ([]SurfaceFormat, error)
	PresentModes(device PhysicalDevice, surface Surface) ([]PresentMode, error)
	MemoryTypes(device PhysicalDevice) []MemoryType
	CreateDevice(physical PhysicalDevice, info DeviceCreateInfo) (Device, error)
}

// DeviceDriver covers objects created on a logical device and queue
// operations.
type DeviceDriver interface {
	DestroyDevice(device Device)
	GetQueue(device Device, family, index uint32) Queue
	DeviceWaitIdle(device Device) error
	QueueWaitIdle(queue Queue) error

	CreateSwapchain(device Device, info SwapchainCreateInfo) (Swapchain, error)
	DestroySwapchain(device Device, swapchain Swapchain)
	SwapchainImages(device Device, swapchain Swapchain) ([]Image, error)
	// AcquireNextImage blocks without timeout until an image is available.
	AcquireNextImage(device Device, swapchain Swapchain, signal Semaphore) (uint32, Result)
	QueuePresent(queue Queue, info PresentInfo) Result

	CreateImageView(device Device, image Image, format Format) (ImageView, error)
	DestroyImageView(device Device, view ImageView)
	CreateRenderPass(device Device, info RenderPassCreateInfo) (RenderPass, error)
	DestroyRenderPass(device Device, pass RenderPass)
	CreateShaderModule(device Device, code []byte) (ShaderModule, error)
	DestroyShaderModule(device Device, module ShaderModule)
	CreatePipelineLayout(device Device) (PipelineLayout, error)
	DestroyPipelineLayout(device Device, layout PipelineLayout)
	CreateGraphicsPipeline(device Device, info GraphicsPipelineCreateInfo) (Pipeline, error)
	DestroyPipeline(device Device, pipeline Pipeline)
	CreateFramebuffer(device Device, info FramebufferCreateInfo) (Framebuffer, error)
	DestroyFramebuffer(device Device, framebuffer Framebuffer)

	CreateCommandPool(device Device, family uint32) (CommandPool, error)
	DestroyCommandPool(device Device, pool CommandPool)
	AllocateCommandBuffers(device Device, pool CommandPool, count int) ([]CommandBuffer, error)
	FreeCommandBuffers(device Device, pool CommandPool, buffers []CommandBuffer)
	QueueSubmit(queue Queue, info SubmitInfo, fence Fence) error

	CreateSemaphore(device Device) (Semaphore, error)
	DestroySemaphore(device Device, semaphore Semaphore)
	CreateFence(device Device, signaled bool) (Fence, error)
	DestroyFence(device Device, fence Fence)
	// WaitForFence blocks without timeout until the fence is signaled.
	WaitForFence(device Device, fence Fence) error
	ResetFence(device Device, fence Fence) error

	CreateBuffer(device Device, size uint64, usage BufferUsageFlags) (Buffer, error)
	DestroyBuffer(device Device, buffer Buffer)
	BufferMemoryRequirements(device Device, buffer Buffer) MemoryRequirements
	AllocateMemory(device Device, size uint64, typeIndex uint32) (DeviceMemory, error)
	FreeMemory(device Device, memory DeviceMemory)
	BindBufferMemory(device Device, buffer Buffer, memory DeviceMemory) error
	// MapMemory returns a host view of the first size bytes of memory. The
	// slice is valid until UnmapMemory.
	MapMemory(device Device, memory DeviceMemory, size uint64) ([]byte, error)
	UnmapMemory(device Device, memory DeviceMemory)
}

// CommandDriver records into command buffers.
type CommandDriver interface {
	ResetCommandBuffer(buffer CommandBuffer) error
	BeginCommandBuffer(buffer CommandBuffer, oneTimeSubmit bool) error
	EndCommandBuffer(buffer CommandBuffer) error
	CmdBeginRenderPass(buffer CommandBuffer, info RenderPassBeginInfo)
	CmdEndRenderPass(buffer CommandBuffer)
	CmdBindPipeline(buffer CommandBuffer, pipeline Pipeline)
	CmdSetViewport(buffer CommandBuffer, viewport Viewport)
	CmdSetScissor(buffer CommandBuffer, scissor Rect2D)
	CmdBindVertexBuffer(buffer CommandBuffer, vertices Buffer)
	CmdDraw(buffer CommandBuffer, vertexCount uint32)
	CmdCopyBuffer(buffer CommandBuffer, src, dst Buffer, size uint64)
}

// Driver is the full API surface the engine needs.
type Driver interface {
	InstanceDriver
	DeviceDriver
	CommandDriver
}
