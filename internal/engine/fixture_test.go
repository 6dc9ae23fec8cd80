package engine

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"Vulkube/internal/gpu"
	"Vulkube/internal/gpu/gputest"
	"Vulkube/internal/window/windowtest"
)

// spirv is a stand-in shader binary: the fake driver only checks its size.
var spirv = []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}

func writeShaders(t testing.TB) ShaderPaths {
	dir := t.TempDir()
	paths := ShaderPaths{
		Vertex:   filepath.Join(dir, "shader.vert.spv"),
		Fragment: filepath.Join(dir, "shader.frag.spv"),
	}
	for _, p := range []string{paths.Vertex, paths.Fragment} {
		if err := os.WriteFile(p, spirv, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return paths
}

type fixture struct {
	driver   *gputest.Driver
	adapter  *gputest.PhysicalDeviceSpec
	window   *windowtest.Window
	renderer *FrameRenderer
	log      *logrus.Logger
	hook     *test.Hook
}

func newFixture(c *qt.C) *fixture {
	adapter := gputest.Adapter("Fake GPU", gpu.PhysicalDeviceTypeDiscreteGpu)
	log, hook := test.NewNullLogger()
	f := &fixture{
		driver:  gputest.New(adapter),
		adapter: adapter,
		window:  windowtest.New(800, 600),
		log:     log,
		hook:    hook,
	}
	cfg := DefaultRendererConfig()
	cfg.Shaders = writeShaders(c)
	f.renderer = NewFrameRenderer(f.driver, f.window, cfg, log)
	return f
}

func (f *fixture) init(c *qt.C) {
	c.Helper()
	c.Assert(f.renderer.OnInit(), qt.IsNil)
	c.Cleanup(f.renderer.OnCleanup)
}

func (f *fixture) frame(c *qt.C) {
	c.Helper()
	c.Assert(f.renderer.OnPrepareFrame(), qt.IsNil)
	c.Assert(f.renderer.OnRenderFrame(), qt.IsNil)
}
