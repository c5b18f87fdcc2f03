// Package kernel defines the abstract solid modeling interface used to build
// custom leaf meshes. Implementations provide primitives and boolean
// operations behind this interface and tessellate the result into a
// mesh.Mesh that rules can instance like any other leaf.
package kernel

import (
	"github.com/chazu/ramify/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Solid is an opaque handle to a kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max v3.Vec)
}

// Kernel is the abstract geometry kernel interface. All primitives are
// centered on the origin so they compose with rule transforms the same way
// the built-in cube and icosphere do.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) (Solid, error)
	Cylinder(height, radius float64) (Solid, error)
	Sphere(radius float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*mesh.Mesh, error)
}
