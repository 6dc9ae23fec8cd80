package engine

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"Vulkube/internal/gpu"
)

const shaderEntryPoint = "main"

// Pipeline is immutable once built apart from its dynamic viewport and
// scissor.
type Pipeline struct {
	RenderPass gpu.RenderPass
	Layout     gpu.PipelineLayout
	Handle     gpu.Pipeline
}

// PipelineBuilder owns the render pass, pipeline layout, graphics pipeline
// and the framebuffers of the current swapchain generation.
type PipelineBuilder struct {
	driver gpu.Driver
	device *LogicalDevice
	log    logrus.FieldLogger

	Pipeline
	framebuffers []gpu.Framebuffer
	generation   uint64
}

func NewPipelineBuilder(driver gpu.Driver, device *LogicalDevice, log logrus.FieldLogger) *PipelineBuilder {
	return &PipelineBuilder{
		driver: driver,
		device: device,
		log:    log.WithField("component", "pipeline"),
	}
}

// Build creates the render pass, the empty pipeline layout, the graphics
// pipeline and one framebuffer per swapchain view. Shader modules live only
// for the duration of the call.
func (b *PipelineBuilder) Build(sc *Swapchain, code ShaderCode) error {
	if err := b.createRenderPass(sc.Format.Format); err != nil {
		return err
	}
	if err := b.createPipeline(code); err != nil {
		return err
	}
	if err := b.BuildFramebuffers(sc); err != nil {
		return err
	}
	b.log.WithField("framebuffers", len(b.framebuffers)).Debug("Graphics pipeline ready")
	return nil
}

func (b *PipelineBuilder) createRenderPass(format gpu.Format) error {
	info := gpu.RenderPassCreateInfo{
		ColorAttachments: []gpu.AttachmentDescription{{
			Format:        format,
			Samples:       gpu.SampleCount1Bit,
			LoadOp:        gpu.AttachmentLoadOpClear,
			StoreOp:       gpu.AttachmentStoreOpStore,
			InitialLayout: gpu.ImageLayoutUndefined,
			FinalLayout:   gpu.ImageLayoutPresentSrc,
		}},
		Dependencies: []gpu.SubpassDependency{{
			SrcSubpass:    gpu.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  gpu.PipelineStageColorAttachmentOutputBit,
			DstStageMask:  gpu.PipelineStageColorAttachmentOutputBit,
			SrcAccessMask: 0,
			DstAccessMask: gpu.AccessColorAttachmentWriteBit,
		}},
	}
	pass, err := b.driver.CreateRenderPass(b.device.Handle, info)
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}
	b.RenderPass = pass
	return nil
}

func (b *PipelineBuilder) createPipeline(code ShaderCode) error {
	dev := b.device.Handle
	vert, err := b.driver.CreateShaderModule(dev, code.Vertex)
	if err != nil {
		return errors.Wrap(err, "create vertex shader module")
	}
	defer b.driver.DestroyShaderModule(dev, vert)
	frag, err := b.driver.CreateShaderModule(dev, code.Fragment)
	if err != nil {
		return errors.Wrap(err, "create fragment shader module")
	}
	defer b.driver.DestroyShaderModule(dev, frag)

	layout, err := b.driver.CreatePipelineLayout(dev)
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}
	b.Layout = layout

	info := gpu.GraphicsPipelineCreateInfo{
		Stages: []gpu.ShaderStageInfo{
			{Stage: gpu.ShaderStageVertexBit, Module: vert, EntryPoint: shaderEntryPoint},
			{Stage: gpu.ShaderStageFragmentBit, Module: frag, EntryPoint: shaderEntryPoint},
		},
		VertexBindings:   []gpu.VertexBinding{vertexBinding()},
		VertexAttributes: vertexAttributes(),
		Topology:         gpu.PrimitiveTopologyTriangleList,
		ViewportCount:    1,
		ScissorCount:     1,
		Rasterization: gpu.RasterizationState{
			PolygonMode: gpu.PolygonModeFill,
			CullMode:    gpu.CullModeBackBit,
			FrontFace:   gpu.FrontFaceClockwise,
			LineWidth:   1,
		},
		Samples:          gpu.SampleCount1Bit,
		LogicOp:          gpu.LogicOpCopy,
		BlendAttachments: []gpu.ColorBlendAttachment{{BlendEnable: false, WriteMask: 0xF}},
		DynamicStates:    []gpu.DynamicState{gpu.DynamicStateViewport, gpu.DynamicStateScissor},
		Layout:           layout,
		RenderPass:       b.RenderPass,
	}
	pipeline, err := b.driver.CreateGraphicsPipeline(dev, info)
	if err != nil {
		return errors.Wrap(err, "create graphics pipeline")
	}
	b.Handle = pipeline
	return nil
}

// BuildFramebuffers creates one framebuffer per image view of sc, sized to
// its extent.
func (b *PipelineBuilder) BuildFramebuffers(sc *Swapchain) error {
	b.framebuffers = make([]gpu.Framebuffer, 0, len(sc.Views))
	for i, view := range sc.Views {
		fb, err := b.driver.CreateFramebuffer(b.device.Handle, gpu.FramebufferCreateInfo{
			RenderPass:  b.RenderPass,
			Attachments: []gpu.ImageView{view},
			Width:       sc.Extent.Width,
			Height:      sc.Extent.Height,
			Layers:      1,
		})
		if err != nil {
			return errors.Wrapf(err, "create framebuffer %d", i)
		}
		b.framebuffers = append(b.framebuffers, fb)
	}
	b.generation = sc.Generation
	return nil
}

// Framebuffers returns the framebuffers indexed by swapchain image.
func (b *PipelineBuilder) Framebuffers() []gpu.Framebuffer {
	return b.framebuffers
}

// Generation is the swapchain generation the framebuffers were built for.
func (b *PipelineBuilder) Generation() uint64 {
	return b.generation
}

func (b *PipelineBuilder) DestroyFramebuffers() {
	for _, fb := range b.framebuffers {
		b.driver.DestroyFramebuffer(b.device.Handle, fb)
	}
	b.framebuffers = nil
	b.generation = 0
}

// Destroy releases framebuffers, pipeline, layout and render pass in that
// order. Objects never created are skipped.
func (b *PipelineBuilder) Destroy() {
	if b == nil {
		return
	}
	b.DestroyFramebuffers()
	dev := b.device.Handle
	if b.Handle != 0 {
		b.driver.DestroyPipeline(dev, b.Handle)
		b.Handle = 0
	}
	if b.Layout != 0 {
		b.driver.DestroyPipelineLayout(dev, b.Layout)
		b.Layout = 0
	}
	if b.RenderPass != 0 {
		b.driver.DestroyRenderPass(dev, b.RenderPass)
		b.RenderPass = 0
	}
}
