package terrain

import (
	"math"

	"github.com/talgya/terrain-hydrology/internal/geom"
	"github.com/talgya/terrain-hydrology/internal/honeycomb"
	"github.com/talgya/terrain-hydrology/internal/hydrology"
	"github.com/talgya/terrain-hydrology/internal/shore"
)

// degenerateTolerance matches the native module's FLOAT_TOLERANCE: below
// this, a distance is treated as zero for the purposes of the divide-by-
// zero guard in ComputeElevation.
const degenerateTolerance = 0.001

// lerpRidge interpolates the ridge elevation at t's projection onto the
// segment q0-q1, given d, the perpendicular distance from t to the segment.
// The projection length L from q0 is derived from d and the straight-line
// distance h from q0 to t as sqrt(max(0, h^2-d^2)).
//
// If the segment is degenerate (q0 ~= q1) the division by its length would
// produce a NaN or an infinity; in that case the ridge's own elevation at q0
// is returned instead.
func lerpRidge(q0, q1 *honeycomb.Q, t geom.Point, d float64) float64 {
	h := geom.Distance(q0.Position, t)
	segLen := geom.Distance(q0.Position, q1.Position)
	if segLen < degenerateTolerance {
		return q0.Elevation
	}
	l := math.Sqrt(math.Max(0, h*h-d*d))
	result := q0.Elevation + (l/segLen)*(q1.Elevation-q0.Elevation)
	if math.IsNaN(result) {
		return q0.Elevation
	}
	return result
}

// closestRidge finds, among the ridges bounding a cell, the one nearest to
// t, returning its distance and the elevation at the closest point.
func closestRidge(t geom.Point, ridges []*honeycomb.Ridge) (dist, elevation float64, found bool) {
	dist = -1

	for _, ridge := range ridges {
		if ridge.Degenerate() {
			d := geom.Distance(ridge.Q0.Position, t)
			if dist < 0 || d < dist {
				dist = d
				elevation = ridge.Q0.Elevation
				found = true
			}
			continue
		}

		res := geom.PointToSegment(t, ridge.Q0.Position, ridge.Q1.Position)
		if dist > 0 && dist < res.Dist {
			continue
		}

		if res.EndpointHit {
			d0 := geom.Distance(ridge.Q0.Position, t)
			d1 := geom.Distance(ridge.Q1.Position, t)
			if d0 < d1 {
				dist, elevation = d0, ridge.Q0.Elevation
			} else {
				dist, elevation = d1, ridge.Q1.Elevation
			}
		} else {
			dist = res.Dist
			elevation = lerpRidge(ridge.Q0, ridge.Q1, t, res.Dist)
		}
		found = true
	}

	return dist, elevation, found
}

// segmentProject2D projects t onto the segment a-b, returning the distance
// and the clamped arc-length parameter s in [0,1], used to interpolate a
// carried z-value along a river polyline.
func segmentProject2D(t, a, b geom.Point) (dist, s float64) {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq < 1e-9 {
		return geom.Distance(t, a), 0
	}

	raw := t.Sub(a).Dot(ab) / lenSq
	s = raw
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}

	proj := a.Add(ab.Scale(s))
	return geom.Distance(t, proj), s
}

// projectPolyline finds the closest point on poly to t, returning the
// distance and the elevation (z) interpolated at that projection.
func projectPolyline(t geom.Point, poly hydrology.RiverPolyline) (dist, z float64) {
	dist = math.Inf(1)
	for i := 0; i < len(poly)-1; i++ {
		a := geom.Point{X: poly[i].X, Y: poly[i].Y}
		b := geom.Point{X: poly[i+1].X, Y: poly[i+1].Y}
		d, s := segmentProject2D(t, a, b)
		if d < dist {
			dist = d
			z = poly[i].Z + s*(poly[i+1].Z-poly[i].Z)
		}
	}
	return dist, z
}

// ComputeElevation computes the elevation for sample t: a weighted
// interpolation between the closest ridge's elevation and the closest
// (possibly projected) river elevation, weighted by their respective
// distances. The shore itself is treated as an implicit zero-elevation
// ridge.
func ComputeElevation(t *T, hy *hydrology.Network, cells *honeycomb.Honeycomb, sh *shore.Shore) float64 {
	ridges := cells.CellRidges(t.CellID)

	closestRidgeDist, ridgeElevation, _ := closestRidge(t.Loc, ridges)

	distToShore := sh.DistanceToShore(t.Loc.X, t.Loc.Y)
	if closestRidgeDist < 0 || distToShore < closestRidgeDist {
		closestRidgeDist = distToShore
		ridgeElevation = 0
	}

	var closestRiverDist, projectedZ float64
	node := hy.GetNode(t.CellID)
	if node != nil && len(node.Rivers) > 0 {
		best := math.Inf(1)
		var bestZ float64
		for _, river := range node.Rivers {
			d, z := projectPolyline(t.Loc, river)
			if d < best {
				best, bestZ = d, z
			}
		}
		closestRiverDist, projectedZ = best, bestZ
	} else if node != nil {
		closestRiverDist = geom.Distance(t.Loc, node.Loc)
		projectedZ = node.Elevation
	}

	if math.Abs(closestRiverDist) < degenerateTolerance && math.Abs(closestRidgeDist) < degenerateTolerance {
		closestRiverDist = 1
	}

	total := closestRidgeDist + closestRiverDist
	if total == 0 {
		return ridgeElevation
	}

	return projectedZ*(closestRidgeDist/total) + ridgeElevation*(closestRiverDist/total)
}
