// Package windowtest provides a scripted window for driving the renderer
// without a display.
package windowtest

import (
	"sync/atomic"
	"unsafe"
)

// Window is a fake window. Sizes is consumed one entry per FramebufferSize
// call once the list is non-empty; the last entry sticks.
type Window struct {
	Width, Height int
	Sizes         [][2]int
	Extensions    []string
	SurfaceErr    error
	// CloseAfter makes ShouldClose report true after that many polls when
	// positive.
	CloseAfter int
	// OnWait runs inside every WaitEvents call.
	OnWait func(w *Window)

	Polls    int
	Waits    int
	Surfaces int
	Closed   bool

	onResize func(width, height int)
}

var nextSurface atomic.Uintptr

func New(width, height int) *Window {
	return &Window{
		Width:      width,
		Height:     height,
		Extensions: []string{"VK_KHR_surface", "VK_KHR_xlib_surface"},
	}
}

func (w *Window) CreateSurface(instance any) (uintptr, error) {
	if w.SurfaceErr != nil {
		return 0, w.SurfaceErr
	}
	w.Surfaces++
	return 0x9000 + nextSurface.Add(1), nil
}

func (w *Window) FramebufferSize() (int, int) {
	if len(w.Sizes) > 0 {
		size := w.Sizes[0]
		if len(w.Sizes) > 1 {
			w.Sizes = w.Sizes[1:]
		}
		w.Width, w.Height = size[0], size[1]
	}
	return w.Width, w.Height
}

func (w *Window) PollEvents() {
	w.Polls++
}

func (w *Window) WaitEvents() {
	w.Waits++
	if w.OnWait != nil {
		w.OnWait(w)
	}
}

func (w *Window) ShouldClose() bool {
	return w.Closed || (w.CloseAfter > 0 && w.Polls >= w.CloseAfter)
}

func (w *Window) SetResizeCallback(fn func(width, height int)) {
	w.onResize = fn
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.Extensions
}

func (w *Window) InstanceProcAddr() unsafe.Pointer {
	return nil
}

func (w *Window) Destroy() {
	w.Closed = true
}

// Resize changes the framebuffer size and fires the resize callback the
// way a window system would during event processing.
func (w *Window) Resize(width, height int) {
	w.Width, w.Height = width, height
	w.Sizes = nil
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
