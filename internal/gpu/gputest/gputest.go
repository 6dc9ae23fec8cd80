// Package gputest provides an in-memory gpu.Driver for tests.
//
// The fake keeps every object it hands out in a live set, records the order
// objects are destroyed in, and models fences, semaphores and queue work
// closely enough to flag synchronization mistakes: submitted work completes
// only when something waits for it, and resetting or reusing an object that
// is still in flight is recorded as a violation.
package gputest

import (
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"

	"Vulkube/internal/gpu"
)

// ErrNeverSignaled is returned by WaitForFence when nothing could ever
// signal the fence. A real driver would block forever.
var ErrNeverSignaled = errors.New("gputest: wait on a fence that is never signaled")

type QueueFamilySpec struct {
	Flags   gpu.QueueFlags
	Present bool
}

// PhysicalDeviceSpec describes one fake adapter. Tests may mutate it
// between calls, for example to change the surface extent.
type PhysicalDeviceSpec struct {
	Properties    gpu.PhysicalDeviceProperties
	QueueFamilies []QueueFamilySpec
	Extensions    []string
	Formats       []gpu.SurfaceFormat
	PresentModes  []gpu.PresentMode
	Capabilities  gpu.SurfaceCapabilities
	MemoryTypes   []gpu.MemoryType
}

// Adapter returns a spec for a device that satisfies the engine's default
// requirements: one family with graphics and present support, the swapchain
// extension, an sRGB surface format and both FIFO and mailbox present modes.
func Adapter(name string, kind gpu.PhysicalDeviceType) *PhysicalDeviceSpec {
	return &PhysicalDeviceSpec{
		Properties: gpu.PhysicalDeviceProperties{
			Name:       name,
			Type:       kind,
			APIVersion: 1<<22 | 1<<12,
		},
		QueueFamilies: []QueueFamilySpec{
			{Flags: gpu.QueueGraphicsBit | gpu.QueueTransferBit, Present: true},
		},
		Extensions: []string{"VK_KHR_swapchain"},
		Formats: []gpu.SurfaceFormat{
			{Format: gpu.FormatB8g8r8a8Unorm, ColorSpace: gpu.ColorSpaceSrgbNonlinear},
			{Format: gpu.FormatB8g8r8a8Srgb, ColorSpace: gpu.ColorSpaceSrgbNonlinear},
		},
		PresentModes: []gpu.PresentMode{gpu.PresentModeFifo, gpu.PresentModeMailbox},
		Capabilities: gpu.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  3,
			CurrentExtent:  gpu.Extent2D{Width: 800, Height: 600},
			MinImageExtent: gpu.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: gpu.Extent2D{Width: 4096, Height: 4096},
		},
		MemoryTypes: []gpu.MemoryType{
			{PropertyFlags: gpu.MemoryPropertyDeviceLocalBit},
			{PropertyFlags: gpu.MemoryPropertyHostVisibleBit | gpu.MemoryPropertyHostCoherentBit},
		},
	}
}

// Command is one recorded command-buffer operation.
type Command struct {
	Op          string
	Framebuffer gpu.Framebuffer
	Pipeline    gpu.Pipeline
	Buffer      gpu.Buffer
	Viewport    gpu.Viewport
	Scissor     gpu.Rect2D
	ClearColor  [4]float32
	Count       uint32
	Src, Dst    gpu.Buffer
	Size        uint64
}

type Submit struct {
	Queue          gpu.Queue
	CommandBuffers []gpu.CommandBuffer
	Commands       []Command
	Wait           []gpu.Semaphore
	WaitStages     []gpu.PipelineStageFlags
	Signal         []gpu.Semaphore
	Fence          gpu.Fence
}

type Present struct {
	Queue      gpu.Queue
	Swapchain  gpu.Swapchain
	ImageIndex uint32
	Wait       []gpu.Semaphore
}

type fenceState struct {
	signaled bool
	pending  bool
}

type commandState struct {
	pool      gpu.CommandPool
	recording bool
	pending   bool
	fence     gpu.Fence
	commands  []Command
}

type bufferState struct {
	size   uint64
	usage  gpu.BufferUsageFlags
	memory gpu.DeviceMemory
}

type memoryState struct {
	typeIndex uint32
	data      []byte
	mapped    bool
}

type swapchainState struct {
	info   gpu.SwapchainCreateInfo
	images []gpu.Image
	next   uint32
}

// Driver is a fake gpu.Driver. The zero value is not usable; call New.
type Driver struct {
	// Layers lists the instance layers reported as installed.
	Layers  []string
	Devices []*PhysicalDeviceSpec

	// AcquireResults and PresentResults are consumed one per call. Once
	// exhausted every call succeeds.
	AcquireResults []gpu.Result
	PresentResults []gpu.Result

	// MemoryTypeBits overrides the type filter reported for buffers. Zero
	// allows every type.
	MemoryTypeBits uint32

	Instance     gpu.InstanceCreateInfo
	Device       gpu.DeviceCreateInfo
	Swapchains   []gpu.SwapchainCreateInfo
	RenderPasses []gpu.RenderPassCreateInfo
	Pipelines    []gpu.GraphicsPipelineCreateInfo
	Submits      []Submit
	Presents     []Present
	Violations   []string
	Calls        []string

	next       uint64
	live       map[uint64]string
	destroyed  []string
	device     *PhysicalDeviceSpec
	messengers map[gpu.DebugMessenger]gpu.DebugCallback
	swapchains map[gpu.Swapchain]*swapchainState
	fences     map[gpu.Fence]*fenceState
	semaphores map[gpu.Semaphore]bool
	commands   map[gpu.CommandBuffer]*commandState
	buffers    map[gpu.Buffer]*bufferState
	memory     map[gpu.DeviceMemory]*memoryState
	fbs        map[gpu.Framebuffer]gpu.FramebufferCreateInfo
	failures   map[string]gpu.Result
	hooks      map[string][]func()
}

var _ gpu.Driver = (*Driver)(nil)

func New(devices ...*PhysicalDeviceSpec) *Driver {
	return &Driver{
		Layers:     []string{"VK_LAYER_KHRONOS_validation"},
		Devices:    devices,
		next:       0x100,
		live:       map[uint64]string{},
		messengers: map[gpu.DebugMessenger]gpu.DebugCallback{},
		swapchains: map[gpu.Swapchain]*swapchainState{},
		fences:     map[gpu.Fence]*fenceState{},
		semaphores: map[gpu.Semaphore]bool{},
		commands:   map[gpu.CommandBuffer]*commandState{},
		buffers:    map[gpu.Buffer]*bufferState{},
		memory:     map[gpu.DeviceMemory]*memoryState{},
		fbs:        map[gpu.Framebuffer]gpu.FramebufferCreateInfo{},
		failures:   map[string]gpu.Result{},
		hooks:      map[string][]func(){},
	}
}

// FailNext makes the next call to op return res.
func (d *Driver) FailNext(op string, res gpu.Result) {
	d.failures[op] = res
}

// Before registers fn to run at the start of every call to op.
func (d *Driver) Before(op string, fn func()) {
	d.hooks[op] = append(d.hooks[op], fn)
}

// Count returns how many times op was called.
func (d *Driver) Count(op string) int {
	n := 0
	for _, c := range d.Calls {
		if c == op {
			n++
		}
	}
	return n
}

// Leaks lists objects that were created and never destroyed.
func (d *Driver) Leaks() []string {
	var out []string
	for h, kind := range d.live {
		out = append(out, fmt.Sprintf("%s#%d", kind, h))
	}
	sort.Strings(out)
	return out
}

// Destroyed returns the kinds of destroyed objects in destruction order.
func (d *Driver) Destroyed() []string {
	return append([]string(nil), d.destroyed...)
}

// Live returns the number of live objects of the given kind.
func (d *Driver) Live(kind string) int {
	n := 0
	for _, k := range d.live {
		if k == kind {
			n++
		}
	}
	return n
}

// Recorded returns the commands currently recorded in buffer.
func (d *Driver) Recorded(buffer gpu.CommandBuffer) []Command {
	if st, ok := d.commands[buffer]; ok {
		return append([]Command(nil), st.commands...)
	}
	return nil
}

// FenceSignaled reports the host-visible state of fence.
func (d *Driver) FenceSignaled(fence gpu.Fence) bool {
	st, ok := d.fences[fence]
	return ok && st.signaled
}

// Framebuffer returns the create info of a live framebuffer.
func (d *Driver) Framebuffer(fb gpu.Framebuffer) (gpu.FramebufferCreateInfo, bool) {
	info, ok := d.fbs[fb]
	return info, ok
}

// ReadBuffer returns a copy of the bytes stored in buffer's memory. It is a
// test-only readback path that ignores host visibility.
func (d *Driver) ReadBuffer(buffer gpu.Buffer) []byte {
	st, ok := d.buffers[buffer]
	if !ok || st.memory == 0 {
		return nil
	}
	mem := d.memory[st.memory]
	return append([]byte(nil), mem.data[:st.size]...)
}

// MemoryTypeOf returns the memory type index backing buffer.
func (d *Driver) MemoryTypeOf(buffer gpu.Buffer) (uint32, bool) {
	st, ok := d.buffers[buffer]
	if !ok || st.memory == 0 {
		return 0, false
	}
	return d.memory[st.memory].typeIndex, true
}

// Emit delivers a diagnostic message to every live debug messenger.
func (d *Driver) Emit(severity gpu.Severity, prefix, message string) {
	for _, cb := range d.messengers {
		cb(severity, prefix, message)
	}
}

func (d *Driver) enter(op string) gpu.Result {
	d.Calls = append(d.Calls, op)
	for _, fn := range d.hooks[op] {
		fn()
	}
	if res, ok := d.failures[op]; ok {
		delete(d.failures, op)
		return res
	}
	return gpu.Success
}

func (d *Driver) create(kind string) uint64 {
	d.next++
	d.live[d.next] = kind
	return d.next
}

func (d *Driver) destroy(kind string, h uint64) {
	if h == 0 {
		return
	}
	got, ok := d.live[h]
	if !ok {
		d.violate("destroy of unknown %s#%d", kind, h)
		return
	}
	if got != kind {
		d.violate("destroy of %s#%d as %s", got, h, kind)
	}
	delete(d.live, h)
	d.destroyed = append(d.destroyed, kind)
}

func (d *Driver) violate(format string, args ...any) {
	d.Violations = append(d.Violations, fmt.Sprintf(format, args...))
}

func (d *Driver) spec(device gpu.PhysicalDevice) *PhysicalDeviceSpec {
	i := int(device) - 1
	if i < 0 || i >= len(d.Devices) {
		return nil
	}
	return d.Devices[i]
}

func (d *Driver) complete(fence gpu.Fence) {
	if st, ok := d.fences[fence]; ok && st.pending {
		st.pending = false
		st.signaled = true
	}
	for _, cmd := range d.commands {
		if cmd.pending && cmd.fence == fence {
			cmd.pending = false
		}
	}
}

func (d *Driver) completeAll() {
	for f, st := range d.fences {
		if st.pending {
			d.complete(f)
		}
	}
	for _, cmd := range d.commands {
		cmd.pending = false
	}
}
