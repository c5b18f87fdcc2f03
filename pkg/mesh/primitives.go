package mesh

import (
	"math"
	"sync"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Cube returns the shared unit cube centered at the origin (edge length 1).
// It is built on first use and never modified.
var Cube = sync.OnceValue(func() *Mesh {
	return MustNew(
		[]v3.Vec{
			{X: -0.5, Y: 0.5, Z: 0.5},
			{X: -0.5, Y: -0.5, Z: 0.5},
			{X: 0.5, Y: -0.5, Z: 0.5},
			{X: 0.5, Y: 0.5, Z: 0.5},
			{X: -0.5, Y: 0.5, Z: -0.5},
			{X: -0.5, Y: -0.5, Z: -0.5},
			{X: 0.5, Y: -0.5, Z: -0.5},
			{X: 0.5, Y: 0.5, Z: -0.5},
		},
		nil,
		[][]int{
			{1, 2, 3, 4},
			{8, 7, 6, 5},
			{4, 3, 7, 8},
			{5, 1, 4, 8},
			{5, 6, 2, 1},
			{2, 6, 7, 3},
		},
	).Named("cube")
})

// IcoSphere returns the shared unsubdivided icosphere of radius 0.5.
var IcoSphere = sync.OnceValue(func() *Mesh {
	return Sphere(0)
})

// Sphere builds a new icosphere of radius 0.5 centered at the origin. Each
// resolution step splits every triangle into four. Normals point outward.
// Unlike Cube and IcoSphere the result is not cached; callers share the
// returned mesh themselves.
func Sphere(resolution int) *Mesh {
	if resolution < 0 {
		resolution = 0
	}
	t := (1 + math.Sqrt(5)) / 2
	points := []v3.Vec{
		{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
		{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
		{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
	}
	for i := range points {
		points[i] = points[i].Normalize()
	}
	tris := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for range resolution {
		midpoints := make(map[[2]int]int)
		midpoint := func(a, b int) int {
			key := [2]int{min(a, b), max(a, b)}
			if idx, ok := midpoints[key]; ok {
				return idx
			}
			p := points[a].Add(points[b]).MulScalar(0.5).Normalize()
			points = append(points, p)
			midpoints[key] = len(points) - 1
			return len(points) - 1
		}
		next := make([][3]int, 0, len(tris)*4)
		for _, tri := range tris {
			a := midpoint(tri[0], tri[1])
			b := midpoint(tri[1], tri[2])
			c := midpoint(tri[2], tri[0])
			next = append(next,
				[3]int{tri[0], a, c},
				[3]int{tri[1], b, a},
				[3]int{tri[2], c, b},
				[3]int{a, b, c},
			)
		}
		tris = next
	}

	vertices := make([]v3.Vec, len(points))
	for i, p := range points {
		vertices[i] = p.MulScalar(0.5)
	}
	faces := make([][]int, len(tris))
	for i, tri := range tris {
		faces[i] = []int{tri[0] + 1, tri[1] + 1, tri[2] + 1}
	}
	return MustNew(vertices, points, faces).Named("icosphere")
}
