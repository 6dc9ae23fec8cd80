package vkdriver

import (
	"github.com/vulkan-go/vulkan"

	"Vulkube/internal/gpu"
)

func (d *Driver) ResetCommandBuffer(buffer gpu.CommandBuffer) error {
	return check(vulkan.ResetCommandBuffer(d.commands.get(buffer), 0), "reset command buffer")
}

func (d *Driver) BeginCommandBuffer(buffer gpu.CommandBuffer, oneTimeSubmit bool) error {
	beginInfo := vulkan.CommandBufferBeginInfo{
		SType: vulkan.StructureTypeCommandBufferBeginInfo,
	}
	if oneTimeSubmit {
		beginInfo.Flags = vulkan.CommandBufferUsageFlags(vulkan.CommandBufferUsageOneTimeSubmitBit)
	}
	return check(vulkan.BeginCommandBuffer(d.commands.get(buffer), &beginInfo), "begin command buffer")
}

func (d *Driver) EndCommandBuffer(buffer gpu.CommandBuffer) error {
	return check(vulkan.EndCommandBuffer(d.commands.get(buffer)), "end command buffer")
}

func (d *Driver) CmdBeginRenderPass(buffer gpu.CommandBuffer, info gpu.RenderPassBeginInfo) {
	clearValues := []vulkan.ClearValue{vulkan.NewClearValue(info.ClearColor[:])}
	renderPassInfo := vulkan.RenderPassBeginInfo{
		SType:           vulkan.StructureTypeRenderPassBeginInfo,
		RenderPass:      d.renderPasses.get(info.RenderPass),
		Framebuffer:     d.framebuffers.get(info.Framebuffer),
		RenderArea:      vkRect(info.RenderArea),
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vulkan.CmdBeginRenderPass(d.commands.get(buffer), &renderPassInfo, vulkan.SubpassContentsInline)
}

func (d *Driver) CmdEndRenderPass(buffer gpu.CommandBuffer) {
	vulkan.CmdEndRenderPass(d.commands.get(buffer))
}

func (d *Driver) CmdBindPipeline(buffer gpu.CommandBuffer, pipeline gpu.Pipeline) {
	vulkan.CmdBindPipeline(d.commands.get(buffer), vulkan.PipelineBindPointGraphics, d.pipelines.get(pipeline))
}

func (d *Driver) CmdSetViewport(buffer gpu.CommandBuffer, viewport gpu.Viewport) {
	vulkan.CmdSetViewport(d.commands.get(buffer), 0, 1, []vulkan.Viewport{{
		X:        viewport.X,
		Y:        viewport.Y,
		Width:    viewport.Width,
		Height:   viewport.Height,
		MinDepth: viewport.MinDepth,
		MaxDepth: viewport.MaxDepth,
	}})
}

func (d *Driver) CmdSetScissor(buffer gpu.CommandBuffer, scissor gpu.Rect2D) {
	vulkan.CmdSetScissor(d.commands.get(buffer), 0, 1, []vulkan.Rect2D{vkRect(scissor)})
}

func (d *Driver) CmdBindVertexBuffer(buffer gpu.CommandBuffer, vertices gpu.Buffer) {
	vulkan.CmdBindVertexBuffers(d.commands.get(buffer), 0, 1,
		[]vulkan.Buffer{d.buffers.get(vertices)}, []vulkan.DeviceSize{0})
}

func (d *Driver) CmdDraw(buffer gpu.CommandBuffer, vertexCount uint32) {
	vulkan.CmdDraw(d.commands.get(buffer), vertexCount, 1, 0, 0)
}

func (d *Driver) CmdCopyBuffer(buffer gpu.CommandBuffer, src, dst gpu.Buffer, size uint64) {
	vulkan.CmdCopyBuffer(d.commands.get(buffer), d.buffers.get(src), d.buffers.get(dst), 1,
		[]vulkan.BufferCopy{{Size: vulkan.DeviceSize(size)}})
}
