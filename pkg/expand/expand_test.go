package expand_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/chazu/ramify/pkg/expand"
	"github.com/chazu/ramify/pkg/mesh"
	"github.com/chazu/ramify/pkg/rule"
	"github.com/chazu/ramify/pkg/transform"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// offsetOf returns where the record maps the origin.
func offsetOf(m expand.OutputMesh) v3.Vec {
	return m.Transform().ApplyTo(v3.Vec{})
}

// ---------------------------------------------------------------------------
// End-to-end
// ---------------------------------------------------------------------------

func TestThreeShiftedCubes(t *testing.T) {
	r := rule.New().
		Push(transform.Translate(0, 0, 0), rule.Cube()).
		Push(transform.Translate(1, 0, 0), rule.Cube()).
		Push(transform.Translate(2, 0, 0), rule.Cube())

	out := expand.Collect(r)
	if len(out) != 3 {
		t.Fatalf("got %d meshes, want 3", len(out))
	}

	base := slices.Collect(mesh.Cube().Vertices())
	baseFaces := slices.Collect(mesh.Cube().Faces())
	for i, m := range out {
		shift := v3.Vec{X: float64(i)}
		verts := slices.Collect(m.Vertices())
		if len(verts) != len(base) {
			t.Fatalf("mesh %d: %d vertices, want %d", i, len(verts), len(base))
		}
		for j, v := range verts {
			if want := base[j].Add(shift); !v.Equals(want, 1e-12) {
				t.Errorf("mesh %d vertex %d = %v, want %v", i, j, v, want)
			}
		}
		faces := slices.Collect(m.Faces())
		if len(faces) != len(baseFaces) {
			t.Fatalf("mesh %d: %d faces", i, len(faces))
		}
		for j := range faces {
			if !slices.Equal(faces[j], baseFaces[j]) {
				t.Errorf("mesh %d face %d = %v, want %v", i, j, faces[j], baseFaces[j])
			}
		}
		if _, ok := m.Normals(); ok {
			t.Errorf("mesh %d: cube should have no normals", i)
		}
	}
}

func TestMeshSharing(t *testing.T) {
	r := rule.New().Push(transform.Replicate(1000, transform.TranslateX(1.5)), rule.Cube())
	out := expand.Collect(r)
	if len(out) != 1000 {
		t.Fatalf("got %d meshes, want 1000", len(out))
	}
	shared := mesh.Cube()
	offsets := make(map[float64]bool)
	for _, m := range out {
		if m.Mesh() != shared {
			t.Fatal("record does not alias the shared cube")
		}
		offsets[offsetOf(m).X] = true
	}
	if len(offsets) != 1000 {
		t.Errorf("got %d distinct transforms, want 1000", len(offsets))
	}
}

// ---------------------------------------------------------------------------
// Ordering and composition
// ---------------------------------------------------------------------------

func TestDeclarationOrder(t *testing.T) {
	inner := rule.New().
		Push(transform.TranslateY(1), rule.Cube()).
		Push(transform.TranslateY(2), rule.Cube())
	r := rule.New().
		Push(transform.TranslateX(10), rule.Cube()).
		PushRule(transform.TranslateX(20), inner).
		Push(transform.TranslateX(30), rule.Cube())

	want := []v3.Vec{{X: 10}, {X: 20, Y: 1}, {X: 20, Y: 2}, {X: 30}}
	var got []v3.Vec
	for m := range expand.Generate(r) {
		got = append(got, offsetOf(m))
	}
	if len(got) != len(want) {
		t.Fatalf("got %d meshes, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equals(want[i], 1e-12) {
			t.Errorf("mesh %d at %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAncestorFrameAppliesOutward(t *testing.T) {
	// The child's translation is evaluated inside the parent's scaled frame.
	inner := rule.New().Push(transform.TranslateX(1), rule.Cube())
	r := rule.New().PushRule(transform.Scale(2), inner)
	out := expand.Collect(r)
	if len(out) != 1 {
		t.Fatalf("got %d meshes", len(out))
	}
	if p := offsetOf(out[0]); !p.Equals(v3.Vec{X: 2}, 1e-12) {
		t.Errorf("offset = %v, want (2,0,0)", p)
	}
}

func TestColorOverrideAtLeaf(t *testing.T) {
	red := transform.HSV{H: 0, S: 1, V: 1}
	leaf := rule.New().Push(transform.Color(red), rule.Cube())
	r := rule.New().PushRule(transform.Hue(10), leaf)
	out := expand.Collect(r)
	if len(out) != 1 {
		t.Fatalf("got %d meshes", len(out))
	}
	if hex := out[0].Color().Hex(); hex != "#ff0000" {
		t.Errorf("color = %s, want #ff0000", hex)
	}
}

func TestUntransformedEntriesInheritFrame(t *testing.T) {
	inner := rule.New().Push(nil, rule.Cube())
	r := rule.New().PushRule(transform.TranslateZ(4), inner)
	out := expand.Collect(r)
	if p := offsetOf(out[0]); !p.Equals(v3.Vec{Z: 4}, 1e-12) {
		t.Errorf("offset = %v, want (0,0,4)", p)
	}
}

func TestNormalsTransformed(t *testing.T) {
	r := rule.New().Push(transform.Chain(transform.Translate(5, 0, 0), transform.RotateZ(90)), rule.IcoSphere())
	out := expand.Collect(r)
	normals, ok := out[0].Normals()
	if !ok {
		t.Fatal("icosphere record has no normals")
	}
	src := slices.Collect(mesh.IcoSphere().Normals())
	i := 0
	for n := range normals {
		want := v3.Vec{X: -src[i].Y, Y: src[i].X, Z: src[i].Z}
		if !n.Equals(want, 1e-9) {
			t.Errorf("normal %d = %v, want %v", i, n, want)
		}
		i++
	}
	if i != len(src) {
		t.Errorf("got %d normals, want %d", i, len(src))
	}
}

// ---------------------------------------------------------------------------
// Producers
// ---------------------------------------------------------------------------

// infinite always recurses: one cube, then itself shifted up.
type infinite struct{ calls *int }

func (p infinite) Expand() *rule.Rule {
	*p.calls++
	return rule.New().
		Push(nil, rule.Cube()).
		Push(transform.TranslateY(1), rule.Defer(p))
}

func TestInfiniteGraphLazyPrefix(t *testing.T) {
	calls := 0
	var got []expand.OutputMesh
	for m := range expand.Take(expand.Generate(infinite{calls: &calls}), 50) {
		got = append(got, m)
	}
	if len(got) != 50 {
		t.Fatalf("got %d meshes, want 50", len(got))
	}
	for i, m := range got {
		if y := offsetOf(m).Y; y != float64(i) {
			t.Errorf("mesh %d at y=%v, want %d", i, y, i)
		}
	}
	if calls > 51 {
		t.Errorf("producer expanded %d times for 50 meshes", calls)
	}
}

func TestIteratorWorklistStaysSmall(t *testing.T) {
	calls := 0
	it := expand.New(infinite{calls: &calls})
	for range 1000 {
		if _, ok := it.Next(); !ok {
			t.Fatal("infinite graph ended")
		}
		if it.Pending() > 2 {
			t.Fatalf("worklist grew to %d", it.Pending())
		}
	}
}

// depthTile recurses until its depth budget runs out.
type depthTile struct{ depth int }

func (d depthTile) Expand() *rule.Rule {
	r := rule.New().Push(transform.Chain(transform.Scale(0.4), transform.Translate(0.25, 0.25, 0)), rule.Cube())
	if d.depth > 0 {
		r.Push(transform.Chain(transform.Scale(0.5), transform.Translate(0.25, -0.25, 0)), rule.Defer(depthTile{d.depth - 1}))
	}
	return r
}

func TestDepthBudgetTerminates(t *testing.T) {
	out := expand.Collect(depthTile{depth: 4})
	if len(out) != 5 {
		t.Errorf("got %d meshes, want 5", len(out))
	}
}

func TestProducerReinvokedEachVisit(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	offsets := []float64{0.1, -0.1, 0.2, -0.2}
	calls := 0
	randCube := rule.ProducerFunc(func() *rule.Rule {
		calls++
		return rule.New().Push(transform.TranslateX(offsets[rng.IntN(len(offsets))]), rule.Cube())
	})
	r := rule.New().Push(transform.Replicate(40, transform.TranslateY(1)), rule.Defer(randCube))

	out := expand.Collect(r)
	if calls != 40 {
		t.Errorf("producer called %d times, want 40", calls)
	}
	distinct := make(map[float64]bool)
	for _, m := range out {
		distinct[offsetOf(m).X] = true
	}
	if len(distinct) < 2 {
		t.Errorf("randomized producer gave %d distinct offsets", len(distinct))
	}

	// A fresh traversal calls the producer again.
	expand.Collect(r)
	if calls != 80 {
		t.Errorf("producer called %d times after second traversal, want 80", calls)
	}
}

func TestNilAndEmpty(t *testing.T) {
	if out := expand.Collect(nil); len(out) != 0 {
		t.Errorf("nil root gave %d meshes", len(out))
	}
	if out := expand.Collect(rule.New()); len(out) != 0 {
		t.Errorf("empty rule gave %d meshes", len(out))
	}
	nilProducer := rule.ProducerFunc(func() *rule.Rule { return nil })
	r := rule.New().
		Push(nil, rule.Defer(nilProducer)).
		Push(nil, rule.Mesh(nil)).
		Push(nil, rule.Cube())
	if out := expand.Collect(r); len(out) != 1 {
		t.Errorf("got %d meshes, want 1", len(out))
	}
}

func TestTakeZero(t *testing.T) {
	n := 0
	for range expand.Take(expand.Generate(rule.New().Push(nil, rule.Cube())), 0) {
		n++
	}
	if n != 0 {
		t.Errorf("Take(0) yielded %d", n)
	}
}

// ---------------------------------------------------------------------------
// Hooks
// ---------------------------------------------------------------------------

type countingHooks struct {
	expansions, entries, emitted, peak int
}

func (h *countingHooks) OnExpand(n int) {
	h.expansions++
	h.entries += n
}
func (h *countingHooks) OnEmit(expand.OutputMesh) { h.emitted++ }
func (h *countingHooks) OnWorklist(n int) {
	if n > h.peak {
		h.peak = n
	}
}

func TestHooks(t *testing.T) {
	h := &countingHooks{}
	r := rule.New().Push(transform.Replicate(6, transform.TranslateX(1)), rule.Cube())
	expand.Collect(r, expand.WithHooks(h))
	if h.expansions != 1 || h.entries != 6 || h.emitted != 6 || h.peak != 6 {
		t.Errorf("hooks = %+v", *h)
	}
}

// ---------------------------------------------------------------------------
// Bake
// ---------------------------------------------------------------------------

func TestBakeMatchesLazy(t *testing.T) {
	r := rule.New().
		Push(transform.Replicate(20, transform.Chain(transform.RotateZ(18), transform.TranslateY(0.3))), rule.IcoSphere()).
		Push(transform.Replicate(20, transform.TranslateX(1)), rule.Cube())
	records := expand.Collect(r)

	baked, err := expand.Bake(context.Background(), records, 4)
	if err != nil {
		t.Fatalf("Bake: %v", err)
	}
	if len(baked) != len(records) {
		t.Fatalf("baked %d, want %d", len(baked), len(records))
	}
	for i, b := range baked {
		want := slices.Collect(records[i].Vertices())
		got := slices.Collect(b.Vertices())
		if !slices.Equal(got, want) {
			t.Fatalf("record %d vertices differ", i)
		}
		if b.Mesh() != records[i].Mesh() {
			t.Errorf("record %d lost mesh identity", i)
		}
		if b.Color() != records[i].Color() {
			t.Errorf("record %d color differs", i)
		}
		_, lazyHas := records[i].Normals()
		bn, bakedHas := b.Normals()
		if lazyHas != bakedHas {
			t.Errorf("record %d normals presence differs", i)
		}
		if bakedHas && len(slices.Collect(bn)) != b.NormalCount() {
			t.Errorf("record %d normal count mismatch", i)
		}
	}
}

func TestBakeSucceeds(t *testing.T) {
	records := expand.Collect(rule.New().Push(transform.Replicate(3, transform.TranslateX(1)), rule.Cube()))
	tests := []struct {
		name    string
		records []expand.OutputMesh
		workers int
	}{
		{"three records", records, 2},
		{"default workers", records, 0},
		{"more workers than records", records, 16},
		{"no records", nil, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baked, err := expand.Bake(context.Background(), tt.records, tt.workers)
			if err != nil {
				t.Fatalf("Bake: %v", err)
			}
			if len(baked) != len(tt.records) {
				t.Fatalf("baked %d, want %d", len(baked), len(tt.records))
			}
			for i, b := range baked {
				want := tt.records[i].Transform().ApplyTo(mesh.Cube().Vertex(0))
				if got := slices.Collect(b.Vertices())[0]; !got.Equals(want, 1e-12) {
					t.Errorf("record %d first vertex = %v, want %v", i, got, want)
				}
			}
		})
	}
}

func TestBakeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	records := expand.Collect(rule.New().Push(transform.Replicate(10, transform.TranslateX(1)), rule.Cube()))
	_, err := expand.Bake(ctx, records, 2)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
