package kernel

import (
	"math"

	"github.com/chazu/ramify/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// weldTolerance is the grid size used to merge coincident vertices.
const weldTolerance = 1e-9

type weldKey [3]int64

func keyOf(v v3.Vec) weldKey {
	return weldKey{
		int64(math.Round(v.X / weldTolerance)),
		int64(math.Round(v.Y / weldTolerance)),
		int64(math.Round(v.Z / weldTolerance)),
	}
}

// FromTriangles welds a triangle soup into an indexed mesh. Coincident
// corners are merged and each vertex gets the area-weighted average of its
// faces' normals. Triangles that collapse after welding are dropped.
func FromTriangles(tris [][3]v3.Vec) (*mesh.Mesh, error) {
	index := make(map[weldKey]int, len(tris))
	var vertices, normals []v3.Vec
	faces := make([][]int, 0, len(tris))

	for _, tri := range tris {
		var face [3]int
		for j, p := range tri {
			k := keyOf(p)
			i, ok := index[k]
			if !ok {
				i = len(vertices)
				index[k] = i
				vertices = append(vertices, p)
				normals = append(normals, v3.Vec{})
			}
			face[j] = i
		}
		if face[0] == face[1] || face[1] == face[2] || face[0] == face[2] {
			continue
		}
		// Cross product length is twice the area, which weights the sum.
		n := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
		for _, i := range face {
			normals[i] = normals[i].Add(n)
		}
		faces = append(faces, []int{face[0] + 1, face[1] + 1, face[2] + 1})
	}

	for i, n := range normals {
		if l := n.Length(); l > 0 {
			normals[i] = n.MulScalar(1 / l)
		}
	}
	if len(vertices) == 0 {
		normals = nil
	}
	return mesh.New(vertices, normals, faces)
}
