// Package geom provides the 2-D geometric primitives shared by the river
// growth and terrain elevation engines: points, distance, and point-to-
// segment projection.
package geom

import "math"

// segmentEpsilon is the minimum segment length, in project units, below
// which a segment is treated as degenerate (a single point).
const segmentEpsilon = 1e-3

// Point is an ordered pair of real numbers in metric units.
type Point struct {
	X, Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Norm returns the Euclidean length of p treated as a vector from the origin.
func (p Point) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// Distance returns the Euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// SegmentResult is the result of projecting a point onto a segment.
type SegmentResult struct {
	Dist        float64 // Euclidean distance from the point to the projection
	EndpointHit bool    // true if the projection landed on (or was clamped to) an endpoint
}

// PointToSegment projects t onto the segment a-b and returns the distance
// from t to the projection, along with whether the projection fell on one
// of the segment's endpoints rather than strictly between them.
//
// Segments shorter than segmentEpsilon are treated as a single point at a.
func PointToSegment(t, a, b Point) SegmentResult {
	ab := b.Sub(a)
	if ab.Norm() < segmentEpsilon {
		return SegmentResult{Dist: Distance(t, a), EndpointHit: true}
	}

	s := t.Sub(a).Dot(ab) / ab.Dot(ab)

	switch {
	case s <= 0:
		return SegmentResult{Dist: Distance(t, a), EndpointHit: true}
	case s >= 1:
		return SegmentResult{Dist: Distance(t, b), EndpointHit: true}
	default:
		proj := a.Add(ab.Scale(s))
		return SegmentResult{Dist: Distance(t, proj), EndpointHit: false}
	}
}
