package window

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
)

type sdlWindow struct {
	win      *sdl.Window
	closed   bool
	onResize func(width, height int)
}

func newSDL(cfg Config) (*sdlWindow, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl")
	}
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl: load vulkan library")
	}

	win, err := sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width), int32(cfg.Height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}
	return &sdlWindow{win: win}, nil
}

func (w *sdlWindow) CreateSurface(instance any) (uintptr, error) {
	surface, err := w.win.VulkanCreateSurface(instance)
	if err != nil {
		return 0, errors.Wrap(err, "sdl: create vulkan surface")
	}
	return uintptr(surface), nil
}

// FramebufferSize reports 0x0 while minimized; SDL keeps the last drawable
// size in that state.
func (w *sdlWindow) FramebufferSize() (int, int) {
	if w.win.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return 0, 0
	}
	width, height := w.win.VulkanGetDrawableSize()
	return int(width), int(height)
}

func (w *sdlWindow) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handle(event)
	}
}

func (w *sdlWindow) WaitEvents() {
	if event := sdl.WaitEvent(); event != nil {
		w.handle(event)
	}
	w.PollEvents()
}

func (w *sdlWindow) handle(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		w.closed = true
	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
			w.closed = true
		}
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			if w.onResize != nil {
				w.onResize(int(e.Data1), int(e.Data2))
			}
		case sdl.WINDOWEVENT_CLOSE:
			w.closed = true
		}
	}
}

func (w *sdlWindow) ShouldClose() bool {
	return w.closed
}

func (w *sdlWindow) SetResizeCallback(fn func(width, height int)) {
	w.onResize = fn
}

func (w *sdlWindow) RequiredInstanceExtensions() []string {
	return w.win.VulkanGetInstanceExtensions()
}

func (w *sdlWindow) InstanceProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

func (w *sdlWindow) Destroy() {
	w.win.Destroy()
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}
