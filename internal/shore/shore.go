// Package shore implements the coastline polyline used as the seaward
// boundary for river growth: signed distance to the boundary (positive
// inland) and indexed vertex access.
package shore

import (
	"math"

	"github.com/talgya/terrain-hydrology/internal/geom"
)

// Shore is a closed polyline: vertices[0] == vertices[len(vertices)-1].
type Shore struct {
	vertices []geom.Point // includes the closing duplicate of vertices[0]
}

// New builds a Shore from an ordered list of vertices forming a closed
// loop. If the caller did not close the loop (last != first), the first
// vertex is appended to close it.
func New(vertices []geom.Point) *Shore {
	v := make([]geom.Point, len(vertices))
	copy(v, vertices)
	if len(v) == 0 {
		return &Shore{vertices: v}
	}
	if v[0] != v[len(v)-1] {
		v = append(v, v[0])
	}
	return &Shore{vertices: v}
}

// NumVertices returns the number of distinct vertices (excluding the
// closing duplicate).
func (s *Shore) NumVertices() int {
	if len(s.vertices) == 0 {
		return 0
	}
	return len(s.vertices) - 1
}

// At returns the i-th vertex. i is taken modulo NumVertices so callers may
// index with values outside [0, NumVertices).
func (s *Shore) At(i int) geom.Point {
	n := s.NumVertices()
	i = ((i % n) + n) % n
	return s.vertices[i]
}

// Contains reports whether (x, y) lies strictly inside the polygon bounded
// by the shore, using a ray-cast (even-odd) test.
func (s *Shore) Contains(x, y float64) bool {
	inside := false
	n := s.NumVertices()
	for i := 0; i < n; i++ {
		a := s.vertices[i]
		b := s.vertices[i+1]
		if (a.Y > y) != (b.Y > y) {
			xCross := a.X + (y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if x < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// DistanceToShore returns the signed Euclidean distance from (x, y) to the
// polyline: positive if the query lies strictly inside the polygon, zero on
// the boundary, negative outside.
func (s *Shore) DistanceToShore(x, y float64) float64 {
	n := s.NumVertices()
	if n == 0 {
		return 0
	}

	p := geom.Point{X: x, Y: y}
	minDist := math.Inf(1)
	for i := 0; i < n; i++ {
		a := s.vertices[i]
		b := s.vertices[i+1]
		res := geom.PointToSegment(p, a, b)
		if res.Dist < minDist {
			minDist = res.Dist
		}
	}

	if s.Contains(x, y) {
		return minDist
	}
	if minDist == 0 {
		return 0
	}
	return -minDist
}
