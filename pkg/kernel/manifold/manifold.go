//go:build manifold

// Package manifold provides a CGo-based geometry kernel binding to the
// Manifold library (https://github.com/elalish/manifold). Booleans are exact
// mesh operations, so tessellated solids keep sharp edges that marching
// cubes would round off.
//
// This package requires the Manifold C library (manifoldc) to be installed.
// Build with: go build -tags=manifold
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/chazu/ramify/pkg/kernel"
	"github.com/chazu/ramify/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var _ kernel.Kernel = (*ManifoldKernel)(nil)
var _ kernel.Solid = (*manifoldSolid)(nil)

type manifoldSolid struct {
	ptr *C.ManifoldManifold
}

func (s *manifoldSolid) BoundingBox() (min, max v3.Vec) {
	alloc := C.manifold_alloc_box()
	bbox := C.manifold_bounding_box(alloc, s.ptr)
	defer C.manifold_delete_box(bbox)

	min = v3.Vec{
		X: float64(C.manifold_box_min_x(bbox)),
		Y: float64(C.manifold_box_min_y(bbox)),
		Z: float64(C.manifold_box_min_z(bbox)),
	}
	max = v3.Vec{
		X: float64(C.manifold_box_max_x(bbox)),
		Y: float64(C.manifold_box_max_y(bbox)),
		Z: float64(C.manifold_box_max_z(bbox)),
	}
	return min, max
}

// newSolid wraps ptr and frees it when the solid is collected.
func newSolid(ptr *C.ManifoldManifold) *manifoldSolid {
	s := &manifoldSolid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *manifoldSolid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

func unwrap(s kernel.Solid) *C.ManifoldManifold {
	return s.(*manifoldSolid).ptr
}

// ManifoldKernel implements kernel.Kernel using the Manifold C library.
type ManifoldKernel struct {
	segments int
}

// New creates a ManifoldKernel.
func New(opts ...Option) (kernel.Kernel, error) {
	k := &ManifoldKernel{segments: DefaultSegments}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

func (k *ManifoldKernel) Box(x, y, z float64) (kernel.Solid, error) {
	if x <= 0 || y <= 0 || z <= 0 {
		return nil, fmt.Errorf("manifold: box: size (%g, %g, %g) must be positive", x, y, z)
	}
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_cube(alloc, C.double(x), C.double(y), C.double(z), C.int(1))
	return newSolid(ptr), nil
}

// Cylinder creates a cylinder along the Z axis, centered on the origin.
func (k *ManifoldKernel) Cylinder(height, radius float64) (kernel.Solid, error) {
	if height <= 0 || radius <= 0 {
		return nil, fmt.Errorf("manifold: cylinder: height %g and radius %g must be positive", height, radius)
	}
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_cylinder(alloc,
		C.double(height),
		C.double(radius), // radius_low
		C.double(radius), // radius_high
		C.int(k.segments),
		C.int(1), // center
	)
	return newSolid(ptr), nil
}

func (k *ManifoldKernel) Sphere(radius float64) (kernel.Solid, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("manifold: sphere: radius %g must be positive", radius)
	}
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_sphere(alloc, C.double(radius), C.int(k.segments))
	return newSolid(ptr), nil
}

func (k *ManifoldKernel) Union(a, b kernel.Solid) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	return newSolid(C.manifold_union(alloc, unwrap(a), unwrap(b)))
}

// Difference returns a minus b.
func (k *ManifoldKernel) Difference(a, b kernel.Solid) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	return newSolid(C.manifold_difference(alloc, unwrap(a), unwrap(b)))
}

func (k *ManifoldKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	return newSolid(C.manifold_intersection(alloc, unwrap(a), unwrap(b)))
}

func (k *ManifoldKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	return newSolid(C.manifold_translate(alloc, unwrap(s), C.double(x), C.double(y), C.double(z)))
}

// Rotate rotates by Euler angles in degrees around X, then Y, then Z.
func (k *ManifoldKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	return newSolid(C.manifold_rotate(alloc, unwrap(s), C.double(x), C.double(y), C.double(z)))
}

// ToMesh reads the solid's MeshGL and rebuilds it with kernel.FromTriangles,
// so the result has 1-based faces and smoothed normals like every other
// leaf mesh.
func (k *ManifoldKernel) ToMesh(s kernel.Solid) (*mesh.Mesh, error) {
	if s == nil {
		return nil, fmt.Errorf("manifold: tessellate: nil solid")
	}
	meshAlloc := C.manifold_alloc_meshgl()
	meshGL := C.manifold_get_meshgl(meshAlloc, unwrap(s))
	defer C.manifold_delete_meshgl(meshGL)

	numVert := int(C.manifold_meshgl_num_vert(meshGL))
	numTri := int(C.manifold_meshgl_num_tri(meshGL))
	if numVert == 0 || numTri == 0 {
		return kernel.FromTriangles(nil)
	}

	// The first three of numProp properties per vertex are its position.
	numProp := int(C.manifold_meshgl_num_prop(meshGL))
	props := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties((*C.float)(unsafe.Pointer(&props[0])), meshGL)

	indices := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts((*C.uint32_t)(unsafe.Pointer(&indices[0])), meshGL)

	position := func(i uint32) v3.Vec {
		base := int(i) * numProp
		return v3.Vec{X: float64(props[base]), Y: float64(props[base+1]), Z: float64(props[base+2])}
	}
	tris := make([][3]v3.Vec, numTri)
	for t := range numTri {
		for j := range 3 {
			idx := indices[t*3+j]
			if int(idx) >= numVert {
				return nil, fmt.Errorf("manifold: tessellate: triangle %d references vertex %d of %d", t, idx, numVert)
			}
			tris[t][j] = position(idx)
		}
	}
	return kernel.FromTriangles(tris)
}
