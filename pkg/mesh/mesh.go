// Package mesh holds immutable, shareable polygon meshes. A *Mesh is built
// once and then aliased by any number of expanded instances; nothing in this
// package mutates a mesh after construction.
package mesh

import (
	"fmt"
	"iter"
	"slices"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is a polygon mesh described by vertices, optional per-vertex normals
// and faces. Face indices are 1-based, following the Wavefront object file
// convention.
type Mesh struct {
	name     string
	vertices []v3.Vec
	normals  []v3.Vec
	faces    [][]int
}

// New copies the given data into a new immutable mesh. Normals may be nil;
// when present there must be one per vertex. Every face index must lie in
// [1, len(vertices)].
func New(vertices, normals []v3.Vec, faces [][]int) (*Mesh, error) {
	if normals != nil && len(normals) != len(vertices) {
		return nil, fmt.Errorf("mesh: %d normals for %d vertices", len(normals), len(vertices))
	}
	copied := make([][]int, len(faces))
	for i, f := range faces {
		for _, idx := range f {
			if idx < 1 || idx > len(vertices) {
				return nil, fmt.Errorf("mesh: face %d: index %d out of range [1, %d]", i, idx, len(vertices))
			}
		}
		copied[i] = slices.Clone(f)
	}
	m := &Mesh{
		vertices: slices.Clone(vertices),
		faces:    copied,
	}
	if normals != nil {
		m.normals = slices.Clone(normals)
	}
	return m, nil
}

// MustNew is New for static data; it panics on invalid input.
func MustNew(vertices, normals []v3.Vec, faces [][]int) *Mesh {
	m, err := New(vertices, normals, faces)
	if err != nil {
		panic(err)
	}
	return m
}

// Named returns m with a display name attached. The geometry is shared.
func (m *Mesh) Named(name string) *Mesh {
	return &Mesh{name: name, vertices: m.vertices, normals: m.normals, faces: m.faces}
}

// Name returns the display name, or "" if none was set.
func (m *Mesh) Name() string {
	return m.name
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.vertices)
}

// NormalCount returns the number of normals (0 if the mesh has none).
func (m *Mesh) NormalCount() int {
	return len(m.normals)
}

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int {
	return len(m.faces)
}

// HasNormals reports whether the mesh defines per-vertex normals.
func (m *Mesh) HasNormals() bool {
	return m.normals != nil
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.vertices) == 0
}

// Vertex returns the i-th vertex (0-based).
func (m *Mesh) Vertex(i int) v3.Vec {
	return m.vertices[i]
}

// Normal returns the i-th normal (0-based).
func (m *Mesh) Normal(i int) v3.Vec {
	return m.normals[i]
}

// Vertices iterates the vertices in order.
func (m *Mesh) Vertices() iter.Seq[v3.Vec] {
	return func(yield func(v3.Vec) bool) {
		for _, v := range m.vertices {
			if !yield(v) {
				return
			}
		}
	}
}

// Normals iterates the normals in order. It yields nothing when the mesh has
// no normals.
func (m *Mesh) Normals() iter.Seq[v3.Vec] {
	return func(yield func(v3.Vec) bool) {
		for _, n := range m.normals {
			if !yield(n) {
				return
			}
		}
	}
}

// Faces iterates the faces. Each yielded slice is a copy and may be kept or
// modified by the caller.
func (m *Mesh) Faces() iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		for _, f := range m.faces {
			if !yield(slices.Clone(f)) {
				return
			}
		}
	}
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (m *Mesh) Bounds() (min, max v3.Vec) {
	if len(m.vertices) == 0 {
		return v3.Vec{}, v3.Vec{}
	}
	min, max = m.vertices[0], m.vertices[0]
	for _, v := range m.vertices[1:] {
		min = min.Min(v)
		max = max.Max(v)
	}
	return min, max
}
