package gpu

type InstanceCreateInfo struct {
	ApplicationName    string
	ApplicationVersion uint32
	EngineName         string
	EngineVersion      uint32
	APIVersion         uint32
	Extensions         []string
	Layers             []string
}

type DeviceCreateInfo struct {
	// QueueFamilies holds one entry per distinct family; one queue is
	// created in each.
	QueueFamilies []uint32
	Extensions    []string
	Layers        []string
}

type SwapchainCreateInfo struct {
	Surface       Surface
	MinImageCount uint32
	Format        SurfaceFormat
	Extent        Extent2D
	PresentMode   PresentMode
	PreTransform  uint32
	QueueFamilies []uint32 // set when images are shared across families
	OldSwapchain  Swapchain
}

type AttachmentDescription struct {
	Format        Format
	Samples       SampleCount
	LoadOp        AttachmentLoadOp
	StoreOp       AttachmentStoreOp
	InitialLayout ImageLayout
	FinalLayout   ImageLayout
}

type SubpassDependency struct {
	SrcSubpass    uint32
	DstSubpass    uint32
	SrcStageMask  PipelineStageFlags
	DstStageMask  PipelineStageFlags
	SrcAccessMask AccessFlags
	DstAccessMask AccessFlags
}

// RenderPassCreateInfo describes a single-subpass render pass whose
// subpass writes every color attachment in order.
type RenderPassCreateInfo struct {
	ColorAttachments []AttachmentDescription
	Dependencies     []SubpassDependency
}

type ShaderStageInfo struct {
	Stage      ShaderStage
	Module     ShaderModule
	EntryPoint string
}

type VertexBinding struct {
	Binding uint32
	Stride  uint32
}

type VertexAttribute struct {
	Location uint32
	Binding  uint32
	Format   Format
	Offset   uint32
}

type RasterizationState struct {
	PolygonMode     PolygonMode
	CullMode        CullModeFlags
	FrontFace       FrontFace
	LineWidth       float32
	DepthBiasEnable bool
}

type ColorBlendAttachment struct {
	BlendEnable bool
	// WriteMask is the RGBA component mask; 0xF writes all four.
	WriteMask uint32
}

type GraphicsPipelineCreateInfo struct {
	Stages           []ShaderStageInfo
	VertexBindings   []VertexBinding
	VertexAttributes []VertexAttribute
	Topology         PrimitiveTopology
	ViewportCount    uint32
	ScissorCount     uint32
	Rasterization    RasterizationState
	Samples          SampleCount
	LogicOpEnable    bool
	LogicOp          LogicOp
	BlendAttachments []ColorBlendAttachment
	DynamicStates    []DynamicState
	Layout           PipelineLayout
	RenderPass       RenderPass
	Subpass          uint32
}

type FramebufferCreateInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Width       uint32
	Height      uint32
	Layers      uint32
}

type RenderPassBeginInfo struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	RenderArea  Rect2D
	ClearColor  [4]float32
}

type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStageFlags
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}

type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchain      Swapchain
	ImageIndex     uint32
}
