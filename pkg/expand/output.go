package expand

import (
	"iter"

	"github.com/chazu/ramify/pkg/mesh"
	"github.com/chazu/ramify/pkg/transform"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/lucasb-eyer/go-colorful"
)

// OutputMesh is one emitted instance: the transform accumulated from the
// root to a leaf, and the shared mesh at that leaf. Only the transform is
// per-instance; coordinates are computed on demand.
type OutputMesh struct {
	transform transform.Transform
	mesh      *mesh.Mesh
}

// NewOutputMesh pairs a transform with a mesh.
func NewOutputMesh(t transform.Transform, m *mesh.Mesh) OutputMesh {
	return OutputMesh{transform: t, mesh: m}
}

// Transform returns the accumulated transform.
func (o OutputMesh) Transform() transform.Transform {
	return o.transform
}

// Mesh returns the shared source mesh.
func (o OutputMesh) Mesh() *mesh.Mesh {
	return o.mesh
}

// Name returns the source mesh's name.
func (o OutputMesh) Name() string {
	return o.mesh.Name()
}

// Color returns the resolved absolute color.
func (o OutputMesh) Color() colorful.Color {
	return o.transform.ResolvedColor()
}

// VertexCount returns the number of vertices this record emits.
func (o OutputMesh) VertexCount() int {
	return o.mesh.VertexCount()
}

// NormalCount returns the number of normals this record emits.
func (o OutputMesh) NormalCount() int {
	return o.mesh.NormalCount()
}

// Vertices iterates the transformed vertices.
func (o OutputMesh) Vertices() iter.Seq[v3.Vec] {
	return func(yield func(v3.Vec) bool) {
		for v := range o.mesh.Vertices() {
			if !yield(o.transform.ApplyTo(v)) {
				return
			}
		}
	}
}

// Normals iterates the transformed normals. The boolean is false when the
// source mesh has no normals.
func (o OutputMesh) Normals() (iter.Seq[v3.Vec], bool) {
	if !o.mesh.HasNormals() {
		return nil, false
	}
	return func(yield func(v3.Vec) bool) {
		for n := range o.mesh.Normals() {
			if !yield(o.transform.ApplyToNormal(n)) {
				return
			}
		}
	}, true
}

// Faces iterates the faces. Indices are 1-based and local to this record;
// exporters must offset them.
func (o OutputMesh) Faces() iter.Seq[[]int] {
	return o.mesh.Faces()
}
