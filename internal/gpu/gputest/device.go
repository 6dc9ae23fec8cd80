package gputest

import (
	"github.com/cockroachdb/errors"

	"Vulkube/internal/gpu"
)

func (d *Driver) DestroyDevice(device gpu.Device) {
	d.enter("DestroyDevice")
	d.destroy("device", uint64(device))
}

// GetQueue hands out one stable handle per family.
func (d *Driver) GetQueue(device gpu.Device, family, index uint32) gpu.Queue {
	return gpu.Queue(0x10 + family)
}

func (d *Driver) DeviceWaitIdle(device gpu.Device) error {
	if res := d.enter("DeviceWaitIdle"); res != gpu.Success {
		return res
	}
	d.completeAll()
	return nil
}

func (d *Driver) QueueWaitIdle(queue gpu.Queue) error {
	if res := d.enter("QueueWaitIdle"); res != gpu.Success {
		return res
	}
	d.completeAll()
	return nil
}

func (d *Driver) CreateSwapchain(device gpu.Device, info gpu.SwapchainCreateInfo) (gpu.Swapchain, error) {
	if res := d.enter("CreateSwapchain"); res != gpu.Success {
		return 0, res
	}
	if info.Extent.Area() == 0 {
		return 0, errors.Newf("gputest: swapchain extent %dx%d", info.Extent.Width, info.Extent.Height)
	}
	d.Swapchains = append(d.Swapchains, info)
	sc := gpu.Swapchain(d.create("swapchain"))
	st := &swapchainState{info: info}
	for i := uint32(0); i < info.MinImageCount; i++ {
		d.next++
		st.images = append(st.images, gpu.Image(d.next))
	}
	d.swapchains[sc] = st
	return sc, nil
}

func (d *Driver) DestroySwapchain(device gpu.Device, swapchain gpu.Swapchain) {
	d.enter("DestroySwapchain")
	delete(d.swapchains, swapchain)
	d.destroy("swapchain", uint64(swapchain))
}

func (d *Driver) SwapchainImages(device gpu.Device, swapchain gpu.Swapchain) ([]gpu.Image, error) {
	if res := d.enter("SwapchainImages"); res != gpu.Success {
		return nil, res
	}
	st, ok := d.swapchains[swapchain]
	if !ok {
		return nil, errors.Newf("gputest: unknown swapchain %d", swapchain)
	}
	return append([]gpu.Image(nil), st.images...), nil
}

func (d *Driver) AcquireNextImage(device gpu.Device, swapchain gpu.Swapchain, signal gpu.Semaphore) (uint32, gpu.Result) {
	res := d.enter("AcquireNextImage")
	if res == gpu.Success && len(d.AcquireResults) > 0 {
		res = d.AcquireResults[0]
		d.AcquireResults = d.AcquireResults[1:]
	}
	st, ok := d.swapchains[swapchain]
	if !ok {
		d.violate("acquire from destroyed swapchain %d", swapchain)
		return 0, gpu.ErrorOutOfDate
	}
	if res != gpu.Success && res != gpu.Suboptimal {
		return 0, res
	}
	if d.semaphores[signal] {
		d.violate("acquire signals semaphore %d that is already signaled", signal)
	}
	d.semaphores[signal] = true
	index := st.next
	st.next = (st.next + 1) % uint32(len(st.images))
	return index, res
}

func (d *Driver) QueuePresent(queue gpu.Queue, info gpu.PresentInfo) gpu.Result {
	res := d.enter("QueuePresent")
	if res == gpu.Success && len(d.PresentResults) > 0 {
		res = d.PresentResults[0]
		d.PresentResults = d.PresentResults[1:]
	}
	st, ok := d.swapchains[info.Swapchain]
	if !ok {
		d.violate("present to destroyed swapchain %d", info.Swapchain)
	} else if int(info.ImageIndex) >= len(st.images) {
		d.violate("present of image %d from a chain of %d", info.ImageIndex, len(st.images))
	}
	for _, s := range info.WaitSemaphores {
		if !d.semaphores[s] {
			d.violate("present waits on unsignaled semaphore %d", s)
		}
		d.semaphores[s] = false
	}
	d.Presents = append(d.Presents, Present{
		Queue:      queue,
		Swapchain:  info.Swapchain,
		ImageIndex: info.ImageIndex,
		Wait:       info.WaitSemaphores,
	})
	return res
}

func (d *Driver) CreateImageView(device gpu.Device, image gpu.Image, format gpu.Format) (gpu.ImageView, error) {
	if res := d.enter("CreateImageView"); res != gpu.Success {
		return 0, res
	}
	return gpu.ImageView(d.create("image_view")), nil
}

func (d *Driver) DestroyImageView(device gpu.Device, view gpu.ImageView) {
	d.enter("DestroyImageView")
	d.destroy("image_view", uint64(view))
}

func (d *Driver) CreateRenderPass(device gpu.Device, info gpu.RenderPassCreateInfo) (gpu.RenderPass, error) {
	if res := d.enter("CreateRenderPass"); res != gpu.Success {
		return 0, res
	}
	d.RenderPasses = append(d.RenderPasses, info)
	return gpu.RenderPass(d.create("render_pass")), nil
}

func (d *Driver) DestroyRenderPass(device gpu.Device, pass gpu.RenderPass) {
	d.enter("DestroyRenderPass")
	d.destroy("render_pass", uint64(pass))
}

func (d *Driver) CreateShaderModule(device gpu.Device, code []byte) (gpu.ShaderModule, error) {
	if res := d.enter("CreateShaderModule"); res != gpu.Success {
		return 0, res
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return 0, errors.Newf("gputest: shader code of %d bytes", len(code))
	}
	return gpu.ShaderModule(d.create("shader_module")), nil
}

func (d *Driver) DestroyShaderModule(device gpu.Device, module gpu.ShaderModule) {
	d.enter("DestroyShaderModule")
	d.destroy("shader_module", uint64(module))
}

func (d *Driver) CreatePipelineLayout(device gpu.Device) (gpu.PipelineLayout, error) {
	if res := d.enter("CreatePipelineLayout"); res != gpu.Success {
		return 0, res
	}
	return gpu.PipelineLayout(d.create("pipeline_layout")), nil
}

func (d *Driver) DestroyPipelineLayout(device gpu.Device, layout gpu.PipelineLayout) {
	d.enter("DestroyPipelineLayout")
	d.destroy("pipeline_layout", uint64(layout))
}

func (d *Driver) CreateGraphicsPipeline(device gpu.Device, info gpu.GraphicsPipelineCreateInfo) (gpu.Pipeline, error) {
	if res := d.enter("CreateGraphicsPipeline"); res != gpu.Success {
		return 0, res
	}
	for _, s := range info.Stages {
		if d.live[uint64(s.Module)] != "shader_module" {
			d.violate("pipeline stage uses dead shader module %d", s.Module)
		}
	}
	d.Pipelines = append(d.Pipelines, info)
	return gpu.Pipeline(d.create("pipeline")), nil
}

func (d *Driver) DestroyPipeline(device gpu.Device, pipeline gpu.Pipeline) {
	d.enter("DestroyPipeline")
	d.destroy("pipeline", uint64(pipeline))
}

func (d *Driver) CreateFramebuffer(device gpu.Device, info gpu.FramebufferCreateInfo) (gpu.Framebuffer, error) {
	if res := d.enter("CreateFramebuffer"); res != gpu.Success {
		return 0, res
	}
	for _, v := range info.Attachments {
		if d.live[uint64(v)] != "image_view" {
			d.violate("framebuffer attaches dead image view %d", v)
		}
	}
	fb := gpu.Framebuffer(d.create("framebuffer"))
	d.fbs[fb] = info
	return fb, nil
}

func (d *Driver) DestroyFramebuffer(device gpu.Device, framebuffer gpu.Framebuffer) {
	d.enter("DestroyFramebuffer")
	delete(d.fbs, framebuffer)
	d.destroy("framebuffer", uint64(framebuffer))
}

func (d *Driver) CreateCommandPool(device gpu.Device, family uint32) (gpu.CommandPool, error) {
	if res := d.enter("CreateCommandPool"); res != gpu.Success {
		return 0, res
	}
	return gpu.CommandPool(d.create("command_pool")), nil
}

// DestroyCommandPool frees every command buffer still allocated from pool.
func (d *Driver) DestroyCommandPool(device gpu.Device, pool gpu.CommandPool) {
	d.enter("DestroyCommandPool")
	for cb, st := range d.commands {
		if st.pool != pool {
			continue
		}
		if st.pending {
			d.violate("command pool destroyed while buffer %d is in flight", cb)
		}
		delete(d.commands, cb)
		delete(d.live, uint64(cb))
	}
	d.destroy("command_pool", uint64(pool))
}

func (d *Driver) AllocateCommandBuffers(device gpu.Device, pool gpu.CommandPool, count int) ([]gpu.CommandBuffer, error) {
	if res := d.enter("AllocateCommandBuffers"); res != gpu.Success {
		return nil, res
	}
	out := make([]gpu.CommandBuffer, count)
	for i := range out {
		out[i] = gpu.CommandBuffer(d.create("command_buffer"))
		d.commands[out[i]] = &commandState{pool: pool}
	}
	return out, nil
}

func (d *Driver) FreeCommandBuffers(device gpu.Device, pool gpu.CommandPool, buffers []gpu.CommandBuffer) {
	d.enter("FreeCommandBuffers")
	for _, cb := range buffers {
		if st, ok := d.commands[cb]; ok && st.pending {
			d.violate("free of command buffer %d while in flight", cb)
		}
		delete(d.commands, cb)
		d.destroy("command_buffer", uint64(cb))
	}
}

// QueueSubmit records the submission and executes buffer copies at once.
// The fence stays pending until a wait observes it.
func (d *Driver) QueueSubmit(queue gpu.Queue, info gpu.SubmitInfo, fence gpu.Fence) error {
	if res := d.enter("QueueSubmit"); res != gpu.Success {
		return res
	}
	submit := Submit{
		Queue:          queue,
		CommandBuffers: info.CommandBuffers,
		Wait:           info.WaitSemaphores,
		WaitStages:     info.WaitStages,
		Signal:         info.SignalSemaphores,
		Fence:          fence,
	}
	for _, s := range info.WaitSemaphores {
		if !d.semaphores[s] {
			d.violate("submit waits on unsignaled semaphore %d", s)
		}
		d.semaphores[s] = false
	}
	for _, cb := range info.CommandBuffers {
		st, ok := d.commands[cb]
		if !ok {
			return errors.Newf("gputest: submit of unknown command buffer %d", cb)
		}
		if st.recording {
			d.violate("submit of command buffer %d that is still recording", cb)
		}
		if st.pending {
			d.violate("submit of command buffer %d that is already in flight", cb)
		}
		st.pending = true
		st.fence = fence
		submit.Commands = append(submit.Commands, st.commands...)
		d.execute(st.commands)
	}
	for _, s := range info.SignalSemaphores {
		d.semaphores[s] = true
	}
	if fence != 0 {
		fs, ok := d.fences[fence]
		if !ok {
			return errors.Newf("gputest: submit with unknown fence %d", fence)
		}
		if fs.signaled || fs.pending {
			d.violate("submit with fence %d that was not reset", fence)
		}
		fs.signaled = false
		fs.pending = true
	}
	d.Submits = append(d.Submits, submit)
	return nil
}

func (d *Driver) execute(cmds []Command) {
	for _, c := range cmds {
		if c.Op != "CopyBuffer" {
			continue
		}
		src, dst := d.buffers[c.Src], d.buffers[c.Dst]
		if src == nil || dst == nil || src.memory == 0 || dst.memory == 0 {
			d.violate("copy between unbound buffers %d -> %d", c.Src, c.Dst)
			continue
		}
		copy(d.memory[dst.memory].data[:c.Size], d.memory[src.memory].data[:c.Size])
	}
}

func (d *Driver) CreateSemaphore(device gpu.Device) (gpu.Semaphore, error) {
	if res := d.enter("CreateSemaphore"); res != gpu.Success {
		return 0, res
	}
	s := gpu.Semaphore(d.create("semaphore"))
	d.semaphores[s] = false
	return s, nil
}

func (d *Driver) DestroySemaphore(device gpu.Device, semaphore gpu.Semaphore) {
	d.enter("DestroySemaphore")
	delete(d.semaphores, semaphore)
	d.destroy("semaphore", uint64(semaphore))
}

func (d *Driver) CreateFence(device gpu.Device, signaled bool) (gpu.Fence, error) {
	if res := d.enter("CreateFence"); res != gpu.Success {
		return 0, res
	}
	f := gpu.Fence(d.create("fence"))
	d.fences[f] = &fenceState{signaled: signaled}
	return f, nil
}

func (d *Driver) DestroyFence(device gpu.Device, fence gpu.Fence) {
	d.enter("DestroyFence")
	if st, ok := d.fences[fence]; ok && st.pending {
		d.violate("destroy of fence %d while in flight", fence)
	}
	delete(d.fences, fence)
	d.destroy("fence", uint64(fence))
}

// WaitForFence completes the work guarded by a pending fence. Waiting on a
// fence that is neither signaled nor pending returns ErrNeverSignaled.
func (d *Driver) WaitForFence(device gpu.Device, fence gpu.Fence) error {
	if res := d.enter("WaitForFence"); res != gpu.Success {
		return res
	}
	st, ok := d.fences[fence]
	switch {
	case !ok:
		return errors.Newf("gputest: wait on unknown fence %d", fence)
	case st.signaled:
		return nil
	case st.pending:
		d.complete(fence)
		return nil
	default:
		return errors.Wrapf(ErrNeverSignaled, "fence %d", fence)
	}
}

func (d *Driver) ResetFence(device gpu.Device, fence gpu.Fence) error {
	if res := d.enter("ResetFence"); res != gpu.Success {
		return res
	}
	st, ok := d.fences[fence]
	if !ok {
		return errors.Newf("gputest: reset of unknown fence %d", fence)
	}
	if st.pending {
		d.violate("reset of fence %d while in flight", fence)
	}
	st.signaled = false
	return nil
}

func (d *Driver) CreateBuffer(device gpu.Device, size uint64, usage gpu.BufferUsageFlags) (gpu.Buffer, error) {
	if res := d.enter("CreateBuffer"); res != gpu.Success {
		return 0, res
	}
	b := gpu.Buffer(d.create("buffer"))
	d.buffers[b] = &bufferState{size: size, usage: usage}
	return b, nil
}

func (d *Driver) DestroyBuffer(device gpu.Device, buffer gpu.Buffer) {
	d.enter("DestroyBuffer")
	delete(d.buffers, buffer)
	d.destroy("buffer", uint64(buffer))
}

func (d *Driver) BufferMemoryRequirements(device gpu.Device, buffer gpu.Buffer) gpu.MemoryRequirements {
	bits := d.MemoryTypeBits
	if bits == 0 && d.device != nil {
		bits = 1<<uint(len(d.device.MemoryTypes)) - 1
	}
	var size uint64
	if st, ok := d.buffers[buffer]; ok {
		size = st.size
	}
	return gpu.MemoryRequirements{Size: size, Alignment: 16, MemoryTypeBits: bits}
}

func (d *Driver) AllocateMemory(device gpu.Device, size uint64, typeIndex uint32) (gpu.DeviceMemory, error) {
	if res := d.enter("AllocateMemory"); res != gpu.Success {
		return 0, res
	}
	if d.device == nil || int(typeIndex) >= len(d.device.MemoryTypes) {
		return 0, errors.Newf("gputest: memory type %d out of range", typeIndex)
	}
	m := gpu.DeviceMemory(d.create("memory"))
	d.memory[m] = &memoryState{typeIndex: typeIndex, data: make([]byte, size)}
	return m, nil
}

func (d *Driver) FreeMemory(device gpu.Device, memory gpu.DeviceMemory) {
	d.enter("FreeMemory")
	if st, ok := d.memory[memory]; ok && st.mapped {
		d.violate("free of mapped memory %d", memory)
	}
	delete(d.memory, memory)
	d.destroy("memory", uint64(memory))
}

func (d *Driver) BindBufferMemory(device gpu.Device, buffer gpu.Buffer, memory gpu.DeviceMemory) error {
	if res := d.enter("BindBufferMemory"); res != gpu.Success {
		return res
	}
	b, ok := d.buffers[buffer]
	m, mok := d.memory[memory]
	if !ok || !mok {
		return errors.Newf("gputest: bind of buffer %d to memory %d", buffer, memory)
	}
	if uint64(len(m.data)) < b.size {
		return errors.Newf("gputest: memory %d holds %d bytes, buffer needs %d", memory, len(m.data), b.size)
	}
	b.memory = memory
	return nil
}

func (d *Driver) MapMemory(device gpu.Device, memory gpu.DeviceMemory, size uint64) ([]byte, error) {
	if res := d.enter("MapMemory"); res != gpu.Success {
		return nil, res
	}
	m, ok := d.memory[memory]
	if !ok {
		return nil, errors.Newf("gputest: map of unknown memory %d", memory)
	}
	if d.device.MemoryTypes[m.typeIndex].PropertyFlags&gpu.MemoryPropertyHostVisibleBit == 0 {
		return nil, gpu.ErrorMemoryMapFailed
	}
	m.mapped = true
	return m.data[:size], nil
}

func (d *Driver) UnmapMemory(device gpu.Device, memory gpu.DeviceMemory) {
	d.enter("UnmapMemory")
	if m, ok := d.memory[memory]; ok {
		m.mapped = false
	}
}
