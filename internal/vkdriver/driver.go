// Package vkdriver implements gpu.Driver on top of the vulkan-go bindings.
//
// Native handles never leave this package. Each object kind has a table
// that hands out small integer handles, so the engine only sees gpu's
// uint64 handle types.
package vkdriver

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vulkan-go/vulkan"

	"Vulkube/internal/gpu"
)

// table maps engine handles to native objects. Handle zero is never issued.
type table[H ~uint64, T any] struct {
	next  H
	items map[H]T
}

func (t *table[H, T]) put(v T) H {
	if t.items == nil {
		t.items = make(map[H]T)
	}
	t.next++
	t.items[t.next] = v
	return t.next
}

func (t *table[H, T]) get(h H) T {
	return t.items[h]
}

func (t *table[H, T]) take(h H) T {
	v := t.items[h]
	delete(t.items, h)
	return v
}

// Driver is not safe for concurrent use; the renderer drives it from the
// thread that owns the window.
type Driver struct {
	instances    table[gpu.Instance, vulkan.Instance]
	messengers   table[gpu.DebugMessenger, vulkan.DebugReportCallback]
	surfaces     table[gpu.Surface, vulkan.Surface]
	physical     table[gpu.PhysicalDevice, vulkan.PhysicalDevice]
	devices      table[gpu.Device, vulkan.Device]
	queues       table[gpu.Queue, vulkan.Queue]
	swapchains   table[gpu.Swapchain, vulkan.Swapchain]
	images       table[gpu.Image, vulkan.Image]
	views        table[gpu.ImageView, vulkan.ImageView]
	renderPasses table[gpu.RenderPass, vulkan.RenderPass]
	modules      table[gpu.ShaderModule, vulkan.ShaderModule]
	layouts      table[gpu.PipelineLayout, vulkan.PipelineLayout]
	pipelines    table[gpu.Pipeline, vulkan.Pipeline]
	framebuffers table[gpu.Framebuffer, vulkan.Framebuffer]
	pools        table[gpu.CommandPool, vulkan.CommandPool]
	commands     table[gpu.CommandBuffer, vulkan.CommandBuffer]
	semaphores   table[gpu.Semaphore, vulkan.Semaphore]
	fences       table[gpu.Fence, vulkan.Fence]
	buffers      table[gpu.Buffer, vulkan.Buffer]
	memory       table[gpu.DeviceMemory, vulkan.DeviceMemory]

	// owned lists the images each swapchain owns; pooled lists the command
	// buffers allocated from each pool.
	owned  map[gpu.Swapchain][]gpu.Image
	pooled map[gpu.CommandPool][]gpu.CommandBuffer
}

var _ gpu.Driver = (*Driver)(nil)

// New loads the Vulkan entry points through procAddr, the window system's
// vkGetInstanceProcAddr.
func New(procAddr unsafe.Pointer) (*Driver, error) {
	if procAddr == nil {
		return nil, errors.New("vkGetInstanceProcAddr is not available")
	}
	vulkan.SetGetInstanceProcAddr(procAddr)
	if err := vulkan.Init(); err != nil {
		return nil, errors.Wrap(err, "vulkan init")
	}
	return &Driver{
		owned:  make(map[gpu.Swapchain][]gpu.Image),
		pooled: make(map[gpu.CommandPool][]gpu.CommandBuffer),
	}, nil
}

func check(res vulkan.Result, op string) error {
	if err := vulkan.Error(res); err != nil {
		return errors.Wrap(gpu.Result(res), op)
	}
	return nil
}

func safeString(s string) string {
	return s + "\x00"
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}

// shaderWords copies SPIR-V bytes into a word-aligned slice.
func shaderWords(code []byte) ([]uint32, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.Newf("shader code length %d is not a multiple of 4", len(code))
	}
	words := make([]uint32, len(code)/4)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(code)), code)
	return words, nil
}

func severity(flags vulkan.DebugReportFlags) gpu.Severity {
	switch {
	case flags&vulkan.DebugReportFlags(vulkan.DebugReportErrorBit) != 0:
		return gpu.SeverityError
	case flags&vulkan.DebugReportFlags(vulkan.DebugReportWarningBit|vulkan.DebugReportPerformanceWarningBit) != 0:
		return gpu.SeverityWarning
	case flags&vulkan.DebugReportFlags(vulkan.DebugReportInformationBit) != 0:
		return gpu.SeverityInfo
	default:
		return gpu.SeverityVerbose
	}
}

func extent(e vulkan.Extent2D) gpu.Extent2D {
	e.Deref()
	return gpu.Extent2D{Width: e.Width, Height: e.Height}
}

func vkExtent(e gpu.Extent2D) vulkan.Extent2D {
	return vulkan.Extent2D{Width: e.Width, Height: e.Height}
}

func vkRect(r gpu.Rect2D) vulkan.Rect2D {
	return vulkan.Rect2D{
		Offset: vulkan.Offset2D{X: r.Offset.X, Y: r.Offset.Y},
		Extent: vkExtent(r.Extent),
	}
}

func vkBool(b bool) vulkan.Bool32 {
	if b {
		return vulkan.True
	}
	return vulkan.False
}
