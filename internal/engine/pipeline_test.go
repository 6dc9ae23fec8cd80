package engine

import (
	"testing"
	"unsafe"

	qt "github.com/frankban/quicktest"

	"Vulkube/internal/gpu"
)

func TestPipelineBuild(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.init(c)

	c.Assert(f.driver.RenderPasses, qt.HasLen, 1)
	attachment := f.driver.RenderPasses[0].ColorAttachments[0]
	c.Assert(attachment.Format, qt.Equals, f.renderer.Swapchain().Format.Format)
	c.Assert(attachment.LoadOp, qt.Equals, gpu.AttachmentLoadOpClear)
	c.Assert(attachment.StoreOp, qt.Equals, gpu.AttachmentStoreOpStore)
	c.Assert(attachment.InitialLayout, qt.Equals, gpu.ImageLayoutUndefined)
	c.Assert(attachment.FinalLayout, qt.Equals, gpu.ImageLayoutPresentSrc)
	dep := f.driver.RenderPasses[0].Dependencies[0]
	c.Assert(dep.SrcSubpass, qt.Equals, gpu.SubpassExternal)
	c.Assert(dep.DstAccessMask, qt.Equals, gpu.AccessColorAttachmentWriteBit)

	c.Assert(f.driver.Pipelines, qt.HasLen, 1)
	p := f.driver.Pipelines[0]
	c.Assert(p.Stages, qt.HasLen, 2)
	c.Assert(p.Stages[0].Stage, qt.Equals, gpu.ShaderStageVertexBit)
	c.Assert(p.Stages[1].Stage, qt.Equals, gpu.ShaderStageFragmentBit)
	c.Assert(p.Stages[0].EntryPoint, qt.Equals, "main")
	c.Assert(p.Topology, qt.Equals, gpu.PrimitiveTopologyTriangleList)
	c.Assert(p.Rasterization.CullMode, qt.Equals, gpu.CullModeBackBit)
	c.Assert(p.Rasterization.FrontFace, qt.Equals, gpu.FrontFaceClockwise)
	c.Assert(p.DynamicStates, qt.DeepEquals, []gpu.DynamicState{gpu.DynamicStateViewport, gpu.DynamicStateScissor})
	c.Assert(p.RenderPass, qt.Equals, f.renderer.pipeline.RenderPass)
	c.Assert(p.Layout, qt.Equals, f.renderer.pipeline.Layout)
	c.Assert(p.VertexBindings, qt.DeepEquals, []gpu.VertexBinding{{Binding: 0, Stride: 24}})
	c.Assert(p.VertexAttributes[1].Offset, qt.Equals, uint32(12))

	// Shader modules do not outlive pipeline creation.
	c.Assert(f.driver.Live("shader_module"), qt.Equals, 0)
	c.Assert(f.driver.Count("DestroyShaderModule"), qt.Equals, 2)
	c.Assert(f.renderer.pipeline.Generation(), qt.Equals, uint64(1))
}

func TestPipelineBuildFailuresReleaseShaders(t *testing.T) {
	for _, op := range []string{"CreatePipelineLayout", "CreateGraphicsPipeline", "CreateFramebuffer"} {
		t.Run(op, func(t *testing.T) {
			c := qt.New(t)
			f := newFixture(c)
			f.driver.FailNext(op, gpu.ErrorOutOfHostMemory)
			err := f.renderer.OnInit()
			c.Assert(err, qt.ErrorIs, gpu.ErrorOutOfHostMemory)
			c.Assert(f.driver.Live("shader_module"), qt.Equals, 0)
			c.Assert(f.driver.Leaks(), qt.HasLen, 0)
		})
	}
}

func TestVertexBytes(t *testing.T) {
	c := qt.New(t)
	c.Assert(unsafe.Sizeof(Vertex{}), qt.Equals, uintptr(24))
	data := VertexBytes(Triangle)
	c.Assert(data, qt.HasLen, 72)
	c.Assert(VertexBytes(nil), qt.IsNil)

	// Second vertex, x component: 0.5 little-endian.
	c.Assert(data[24:28], qt.DeepEquals, []byte{0x00, 0x00, 0x00, 0x3f})
}
