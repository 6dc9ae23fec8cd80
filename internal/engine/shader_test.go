package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestLoadShaders(t *testing.T) {
	c := qt.New(t)
	paths := writeShaders(c)
	code, err := LoadShaders(context.Background(), paths)
	c.Assert(err, qt.IsNil)
	c.Assert(code.Vertex, qt.DeepEquals, spirv)
	c.Assert(code.Fragment, qt.DeepEquals, spirv)
}

func TestLoadShadersEmpty(t *testing.T) {
	c := qt.New(t)
	paths := writeShaders(c)
	c.Assert(os.WriteFile(paths.Fragment, nil, 0o644), qt.IsNil)

	_, err := LoadShaders(context.Background(), paths)
	c.Assert(err, qt.ErrorIs, ErrEmptyShader)
	c.Assert(err, qt.ErrorMatches, `.*shader.frag.spv: shader binary is empty`)
}

func TestLoadShadersMissing(t *testing.T) {
	c := qt.New(t)
	paths := writeShaders(c)
	paths.Vertex = filepath.Join(c.TempDir(), "missing.spv")

	_, err := LoadShaders(context.Background(), paths)
	c.Assert(err, qt.ErrorIs, os.ErrNotExist)
	c.Assert(err, qt.ErrorMatches, `read shader .*missing.spv: .*`)
}

func TestInitFailsBeforeGPUWorkOnMissingShader(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.renderer.cfg.Shaders.Vertex = filepath.Join(c.TempDir(), "missing.spv")

	err := f.renderer.OnInit()
	c.Assert(err, qt.ErrorIs, os.ErrNotExist)
	c.Assert(f.driver.Calls, qt.HasLen, 0)
}
