package engine

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// ShaderPaths locates the precompiled stage binaries.
type ShaderPaths struct {
	Vertex   string
	Fragment string
}

func DefaultShaderPaths() ShaderPaths {
	return ShaderPaths{
		Vertex:   "assets/shaders/spv/shader.vert.spv",
		Fragment: "assets/shaders/spv/shader.frag.spv",
	}
}

// ShaderCode holds the raw stage binaries. Only non-emptiness is checked.
type ShaderCode struct {
	Vertex   []byte
	Fragment []byte
}

// LoadShaders reads both stages concurrently.
func LoadShaders(ctx context.Context, paths ShaderPaths) (ShaderCode, error) {
	var code ShaderCode
	group, _ := errgroup.WithContext(ctx)
	group.Go(func() error {
		data, err := readShader(paths.Vertex)
		code.Vertex = data
		return err
	})
	group.Go(func() error {
		data, err := readShader(paths.Fragment)
		code.Fragment = data
		return err
	})
	if err := group.Wait(); err != nil {
		return ShaderCode{}, err
	}
	return code, nil
}

func readShader(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", path)
	}
	if len(data) == 0 {
		return nil, errors.Wrapf(ErrEmptyShader, "%s", path)
	}
	return data, nil
}
