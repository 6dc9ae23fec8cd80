package engine

import (
	"unsafe"

	mgl32 "github.com/go-gl/mathgl/mgl32"

	"Vulkube/internal/gpu"
)

// Vertex is the record layout the pipeline's vertex input expects.
type Vertex struct {
	Pos   mgl32.Vec3
	Color mgl32.Vec3
}

// Triangle is the fixed geometry drawn every frame.
var Triangle = []Vertex{
	{Pos: mgl32.Vec3{0, -0.5, 0}, Color: mgl32.Vec3{1, 0, 0}},
	{Pos: mgl32.Vec3{0.5, 0.5, 0}, Color: mgl32.Vec3{0, 1, 0}},
	{Pos: mgl32.Vec3{-0.5, 0.5, 0}, Color: mgl32.Vec3{0, 0, 1}},
}

func vertexBinding() gpu.VertexBinding {
	return gpu.VertexBinding{Binding: 0, Stride: uint32(unsafe.Sizeof(Vertex{}))}
}

func vertexAttributes() []gpu.VertexAttribute {
	return []gpu.VertexAttribute{
		{Location: 0, Binding: 0, Format: gpu.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Pos))},
		{Location: 1, Binding: 0, Format: gpu.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Color))},
	}
}

// VertexBytes returns the in-memory representation of verts.
func VertexBytes(verts []Vertex) []byte {
	if len(verts) == 0 {
		return nil
	}
	size := len(verts) * int(unsafe.Sizeof(Vertex{}))
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(&verts[0])), size))
	return out
}
