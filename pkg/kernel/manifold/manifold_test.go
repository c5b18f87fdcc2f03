//go:build manifold

package manifold

import (
	"math"
	"testing"

	"github.com/chazu/ramify/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func mustNew(t *testing.T) kernel.Kernel {
	t.Helper()
	k, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return k
}

func must(t *testing.T, s kernel.Solid, err error) kernel.Solid {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func checkBounds(t *testing.T, s kernel.Solid, wantMin, wantMax v3.Vec, tol float64) {
	t.Helper()
	min, max := s.BoundingBox()
	if !min.Equals(wantMin, tol) || !max.Equals(wantMax, tol) {
		t.Errorf("bounds = %v..%v, want %v..%v", min, max, wantMin, wantMax)
	}
}

func TestBox(t *testing.T) {
	k := mustNew(t)
	box := must(t, k.Box(10, 20, 30))
	checkBounds(t, box, v3.Vec{X: -5, Y: -10, Z: -15}, v3.Vec{X: 5, Y: 10, Z: 15}, 1e-6)
}

func TestInvalidPrimitives(t *testing.T) {
	k := mustNew(t)
	if _, err := k.Box(0, 1, 1); err == nil {
		t.Error("Box with zero size should fail")
	}
	if _, err := k.Cylinder(1, -1); err == nil {
		t.Error("Cylinder with negative radius should fail")
	}
	if _, err := k.Sphere(0); err == nil {
		t.Error("Sphere with zero radius should fail")
	}
}

func TestCylinder(t *testing.T) {
	k := mustNew(t)
	min, max := must(t, k.Cylinder(20, 5)).BoundingBox()
	if math.Abs(min.Z+10) > 0.01 || math.Abs(max.Z-10) > 0.01 {
		t.Errorf("Z bounds = %f..%f, want -10..10", min.Z, max.Z)
	}
	if min.X > -4.5 || max.X < 4.5 || min.Y > -4.5 || max.Y < 4.5 {
		t.Errorf("XY bounds = %v..%v, want about ±5", min, max)
	}
}

func TestDifferenceKeepsOuterBounds(t *testing.T) {
	k := mustNew(t)
	box := must(t, k.Box(10, 10, 10))
	hole := must(t, k.Cylinder(20, 3))
	checkBounds(t, k.Difference(box, hole), v3.Vec{X: -5, Y: -5, Z: -5}, v3.Vec{X: 5, Y: 5, Z: 5}, 1e-6)
}

func TestTranslate(t *testing.T) {
	k := mustNew(t)
	moved := k.Translate(must(t, k.Box(10, 10, 10)), 100, 200, 300)
	checkBounds(t, moved, v3.Vec{X: 95, Y: 195, Z: 295}, v3.Vec{X: 105, Y: 205, Z: 305}, 1e-6)
}

func TestToMesh(t *testing.T) {
	k := mustNew(t)
	m, err := k.ToMesh(must(t, k.Box(1, 1, 1)))
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	// Welding merges the corners Manifold splits along sharp edges.
	if m.VertexCount() != 8 {
		t.Errorf("vertex count = %d, want 8", m.VertexCount())
	}
	if m.FaceCount() != 12 {
		t.Errorf("face count = %d, want 12", m.FaceCount())
	}
	if m.NormalCount() != m.VertexCount() {
		t.Errorf("normals = %d, vertices = %d", m.NormalCount(), m.VertexCount())
	}
}

func TestSphereMesh(t *testing.T) {
	k, err := New(WithSegments(24))
	if err != nil {
		t.Fatal(err)
	}
	m, err := k.ToMesh(must(t, k.Sphere(0.5)))
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	for v := range m.Vertices() {
		if math.Abs(v.Length()-0.5) > 1e-3 {
			t.Fatalf("vertex %v off the sphere", v)
		}
	}
}
