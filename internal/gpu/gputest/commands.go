package gputest

import (
	"github.com/cockroachdb/errors"

	"Vulkube/internal/gpu"
)

func (d *Driver) command(buffer gpu.CommandBuffer) *commandState {
	st, ok := d.commands[buffer]
	if !ok {
		d.violate("use of unknown command buffer %d", buffer)
		return &commandState{}
	}
	return st
}

func (d *Driver) ResetCommandBuffer(buffer gpu.CommandBuffer) error {
	if res := d.enter("ResetCommandBuffer"); res != gpu.Success {
		return res
	}
	st := d.command(buffer)
	if st.pending {
		d.violate("reset of command buffer %d while in flight", buffer)
	}
	st.recording = false
	st.commands = nil
	return nil
}

func (d *Driver) BeginCommandBuffer(buffer gpu.CommandBuffer, oneTimeSubmit bool) error {
	if res := d.enter("BeginCommandBuffer"); res != gpu.Success {
		return res
	}
	st := d.command(buffer)
	if st.pending {
		d.violate("begin of command buffer %d while in flight", buffer)
	}
	if st.recording {
		return errors.Newf("gputest: command buffer %d already recording", buffer)
	}
	st.recording = true
	st.commands = nil
	return nil
}

func (d *Driver) EndCommandBuffer(buffer gpu.CommandBuffer) error {
	if res := d.enter("EndCommandBuffer"); res != gpu.Success {
		return res
	}
	st := d.command(buffer)
	if !st.recording {
		return errors.Newf("gputest: command buffer %d is not recording", buffer)
	}
	st.recording = false
	return nil
}

func (d *Driver) record(buffer gpu.CommandBuffer, c Command) {
	st := d.command(buffer)
	if !st.recording {
		d.violate("%s recorded outside of begin/end on %d", c.Op, buffer)
	}
	st.commands = append(st.commands, c)
}

func (d *Driver) CmdBeginRenderPass(buffer gpu.CommandBuffer, info gpu.RenderPassBeginInfo) {
	if _, ok := d.fbs[info.Framebuffer]; !ok {
		d.violate("render pass begins on dead framebuffer %d", info.Framebuffer)
	}
	d.record(buffer, Command{
		Op:          "BeginRenderPass",
		Framebuffer: info.Framebuffer,
		Scissor:     info.RenderArea,
		ClearColor:  info.ClearColor,
	})
}

func (d *Driver) CmdEndRenderPass(buffer gpu.CommandBuffer) {
	d.record(buffer, Command{Op: "EndRenderPass"})
}

func (d *Driver) CmdBindPipeline(buffer gpu.CommandBuffer, pipeline gpu.Pipeline) {
	d.record(buffer, Command{Op: "BindPipeline", Pipeline: pipeline})
}

func (d *Driver) CmdSetViewport(buffer gpu.CommandBuffer, viewport gpu.Viewport) {
	d.record(buffer, Command{Op: "SetViewport", Viewport: viewport})
}

func (d *Driver) CmdSetScissor(buffer gpu.CommandBuffer, scissor gpu.Rect2D) {
	d.record(buffer, Command{Op: "SetScissor", Scissor: scissor})
}

func (d *Driver) CmdBindVertexBuffer(buffer gpu.CommandBuffer, vertices gpu.Buffer) {
	d.record(buffer, Command{Op: "BindVertexBuffer", Buffer: vertices})
}

func (d *Driver) CmdDraw(buffer gpu.CommandBuffer, vertexCount uint32) {
	d.record(buffer, Command{Op: "Draw", Count: vertexCount})
}

func (d *Driver) CmdCopyBuffer(buffer gpu.CommandBuffer, src, dst gpu.Buffer, size uint64) {
	d.record(buffer, Command{Op: "CopyBuffer", Src: src, Dst: dst, Size: size})
}
