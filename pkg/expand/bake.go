package expand

import (
	"context"
	"iter"
	"runtime"

	"github.com/chazu/ramify/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/sync/errgroup"
)

// Baked is an OutputMesh with its coordinates already transformed. Faces are
// still read from the shared source mesh.
type Baked struct {
	vertices []v3.Vec
	normals  []v3.Vec
	color    colorful.Color
	mesh     *mesh.Mesh
}

// BakeOne transforms a single record.
func BakeOne(o OutputMesh) Baked {
	b := Baked{
		vertices: make([]v3.Vec, 0, o.VertexCount()),
		color:    o.Color(),
		mesh:     o.mesh,
	}
	for v := range o.Vertices() {
		b.vertices = append(b.vertices, v)
	}
	if normals, ok := o.Normals(); ok {
		b.normals = make([]v3.Vec, 0, o.NormalCount())
		for n := range normals {
			b.normals = append(b.normals, n)
		}
	}
	return b
}

// Bake transforms records in parallel using up to workers goroutines
// (GOMAXPROCS when workers <= 0). Records are independent and the shared
// meshes are only read, so no locking is needed. The output order matches
// the input order. Bake stops early and returns ctx's error if ctx is
// cancelled.
func Bake(ctx context.Context, records []OutputMesh, workers int) ([]Baked, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]Baked, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = BakeOne(records[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Wait always cancels gctx; only the caller's context matters here.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Mesh returns the shared source mesh.
func (b Baked) Mesh() *mesh.Mesh {
	return b.mesh
}

// Name returns the source mesh's name.
func (b Baked) Name() string {
	return b.mesh.Name()
}

// Color returns the resolved absolute color.
func (b Baked) Color() colorful.Color {
	return b.color
}

// VertexCount returns the number of vertices.
func (b Baked) VertexCount() int {
	return len(b.vertices)
}

// NormalCount returns the number of normals.
func (b Baked) NormalCount() int {
	return len(b.normals)
}

// Vertices iterates the baked vertices.
func (b Baked) Vertices() iter.Seq[v3.Vec] {
	return sliceSeq(b.vertices)
}

// Normals iterates the baked normals, if the source mesh has any.
func (b Baked) Normals() (iter.Seq[v3.Vec], bool) {
	if b.normals == nil {
		return nil, false
	}
	return sliceSeq(b.normals), true
}

// Faces iterates the source mesh's faces (1-based, local).
func (b Baked) Faces() iter.Seq[[]int] {
	return b.mesh.Faces()
}

func sliceSeq(vs []v3.Vec) iter.Seq[v3.Vec] {
	return func(yield func(v3.Vec) bool) {
		for _, v := range vs {
			if !yield(v) {
				return
			}
		}
	}
}
