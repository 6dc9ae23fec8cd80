// Package gpu describes the slice of the Vulkan API the engine drives.
//
// Handles are opaque 64-bit values and enums carry Vulkan's numeric values,
// so a driver backed by the real API converts them by cast or table lookup.
package gpu

// Opaque object handles. Zero is the null handle for every type.
type (
	Instance       uint64
	DebugMessenger uint64
	Surface        uint64
	PhysicalDevice uint64
	Device         uint64
	Queue          uint64
	Swapchain      uint64
	Image          uint64
	ImageView      uint64
	RenderPass     uint64
	PipelineLayout uint64
	Pipeline       uint64
	Framebuffer    uint64
	ShaderModule   uint64
	CommandPool    uint64
	CommandBuffer  uint64
	Semaphore      uint64
	Fence          uint64
	Buffer         uint64
	DeviceMemory   uint64
)

type Format int32

const (
	FormatUndefined       Format = 0
	FormatR8g8b8a8Unorm   Format = 37
	FormatR8g8b8a8Srgb    Format = 43
	FormatB8g8r8a8Unorm   Format = 44
	FormatB8g8r8a8Srgb    Format = 50
	FormatR32g32Sfloat    Format = 103
	FormatR32g32b32Sfloat Format = 106
)

type ColorSpace int32

const ColorSpaceSrgbNonlinear ColorSpace = 0

type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

type PhysicalDeviceType int32

const (
	PhysicalDeviceTypeOther         PhysicalDeviceType = 0
	PhysicalDeviceTypeIntegratedGpu PhysicalDeviceType = 1
	PhysicalDeviceTypeDiscreteGpu   PhysicalDeviceType = 2
	PhysicalDeviceTypeVirtualGpu    PhysicalDeviceType = 3
	PhysicalDeviceTypeCpu           PhysicalDeviceType = 4
)

func (t PhysicalDeviceType) String() string {
	switch t {
	case PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case PhysicalDeviceTypeCpu:
		return "cpu"
	default:
		return "other"
	}
}

type QueueFlags uint32

const (
	QueueGraphicsBit QueueFlags = 0x1
	QueueComputeBit  QueueFlags = 0x2
	QueueTransferBit QueueFlags = 0x4
)

type MemoryPropertyFlags uint32

const (
	MemoryPropertyDeviceLocalBit  MemoryPropertyFlags = 0x1
	MemoryPropertyHostVisibleBit  MemoryPropertyFlags = 0x2
	MemoryPropertyHostCoherentBit MemoryPropertyFlags = 0x4
	MemoryPropertyHostCachedBit   MemoryPropertyFlags = 0x8
)

type BufferUsageFlags uint32

const (
	BufferUsageTransferSrcBit  BufferUsageFlags = 0x1
	BufferUsageTransferDstBit  BufferUsageFlags = 0x2
	BufferUsageIndexBufferBit  BufferUsageFlags = 0x40
	BufferUsageVertexBufferBit BufferUsageFlags = 0x80
)

type ImageLayout int32

const (
	ImageLayoutUndefined              ImageLayout = 0
	ImageLayoutColorAttachmentOptimal ImageLayout = 2
	ImageLayoutPresentSrc             ImageLayout = 1000001002
)

type AttachmentLoadOp int32

const (
	AttachmentLoadOpLoad     AttachmentLoadOp = 0
	AttachmentLoadOpClear    AttachmentLoadOp = 1
	AttachmentLoadOpDontCare AttachmentLoadOp = 2
)

type AttachmentStoreOp int32

const (
	AttachmentStoreOpStore    AttachmentStoreOp = 0
	AttachmentStoreOpDontCare AttachmentStoreOp = 1
)

type PipelineStageFlags uint32

const PipelineStageColorAttachmentOutputBit PipelineStageFlags = 0x400

type AccessFlags uint32

const AccessColorAttachmentWriteBit AccessFlags = 0x100

// SubpassExternal names the implicit subpass outside the render pass.
const SubpassExternal = ^uint32(0)

type PrimitiveTopology int32

const PrimitiveTopologyTriangleList PrimitiveTopology = 3

type PolygonMode int32

const PolygonModeFill PolygonMode = 0

type CullModeFlags uint32

const (
	CullModeNone    CullModeFlags = 0
	CullModeBackBit CullModeFlags = 0x2
)

type FrontFace int32

const (
	FrontFaceCounterClockwise FrontFace = 0
	FrontFaceClockwise        FrontFace = 1
)

type LogicOp int32

const LogicOpCopy LogicOp = 3

type DynamicState int32

const (
	DynamicStateViewport DynamicState = 0
	DynamicStateScissor  DynamicState = 1
)

type ShaderStage uint32

const (
	ShaderStageVertexBit   ShaderStage = 0x1
	ShaderStageFragmentBit ShaderStage = 0x10
)

type SampleCount uint32

const SampleCount1Bit SampleCount = 0x1

type Severity int

const (
	SeverityVerbose Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "verbose"
	}
}

// DebugCallback receives validation-layer messages.
type DebugCallback func(severity Severity, prefix, message string)

type Extent2D struct {
	Width  uint32
	Height uint32
}

// Area returns the number of pixels the extent covers.
func (e Extent2D) Area() uint64 {
	return uint64(e.Width) * uint64(e.Height)
}

type Offset2D struct {
	X int32
	Y int32
}

type Rect2D struct {
	Offset Offset2D
	Extent Extent2D
}

type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type SurfaceCapabilities struct {
	MinImageCount    uint32
	MaxImageCount    uint32
	CurrentExtent    Extent2D
	MinImageExtent   Extent2D
	MaxImageExtent   Extent2D
	CurrentTransform uint32
}

// UndefinedExtent is the current-extent value a surface reports when the
// swapchain decides the size.
const UndefinedExtent = ^uint32(0)

type PhysicalDeviceProperties struct {
	Name              string
	Type              PhysicalDeviceType
	APIVersion        uint32
	DriverVersion     uint32
	VendorID          uint32
	DeviceID          uint32
	PipelineCacheUUID [16]byte
}

type QueueFamily struct {
	Flags QueueFlags
	Count uint32
}

type MemoryType struct {
	PropertyFlags MemoryPropertyFlags
	HeapIndex     uint32
}

type MemoryRequirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}
