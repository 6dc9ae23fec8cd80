package engine

import (
	"github.com/cockroachdb/errors"

	"Vulkube/internal/gpu"
)

// PresentationSurface binds a GraphicsContext to a window.
type PresentationSurface struct {
	gc     *GraphicsContext
	Handle gpu.Surface
}

func NewPresentationSurface(gc *GraphicsContext, window gpu.SurfaceSource) (*PresentationSurface, error) {
	handle, err := gc.driver.CreateSurface(gc.Instance, window)
	if err != nil {
		return nil, errors.Wrap(err, "create window surface")
	}
	return &PresentationSurface{gc: gc, Handle: handle}, nil
}

// Destroy releases the surface. It must run before the context is destroyed.
func (s *PresentationSurface) Destroy() {
	if s == nil || s.Handle == 0 {
		return
	}
	s.gc.driver.DestroySurface(s.gc.Instance, s.Handle)
	s.Handle = 0
}
