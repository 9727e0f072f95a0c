package shore

import (
	"math"
	"testing"

	"github.com/talgya/terrain-hydrology/internal/geom"
)

// hexagon returns a six-vertex, non-regular hexagonal shore spanning
// x in [-2000, 2000] and y in [-1720, 1320].
func hexagon() *Shore {
	return New([]geom.Point{
		{-1000, 1320},
		{-2000, 0},
		{-1000, -1720},
		{1000, -1720},
		{2000, 0},
		{1000, 1320},
	})
}

func TestContainsInsideAndOutside(t *testing.T) {
	s := hexagon()
	if !s.Contains(0, 0) {
		t.Error("expected origin to be inside the hexagon")
	}
	if s.Contains(5000, 5000) {
		t.Error("expected far point to be outside the hexagon")
	}
}

func TestDistanceToShoreSign(t *testing.T) {
	s := hexagon()
	if d := s.DistanceToShore(0, 0); d <= 0 {
		t.Errorf("expected positive distance inside, got %v", d)
	}
	if d := s.DistanceToShore(5000, 5000); d >= 0 {
		t.Errorf("expected negative distance outside, got %v", d)
	}
}

func TestAtWrapsModularly(t *testing.T) {
	s := hexagon()
	n := s.NumVertices()
	if n != 6 {
		t.Fatalf("expected 6 vertices, got %d", n)
	}
	if s.At(0) != s.At(6) {
		t.Errorf("At should wrap: At(0)=%v At(6)=%v", s.At(0), s.At(6))
	}
	if s.At(-1) != s.At(5) {
		t.Errorf("At should wrap negative indices: At(-1)=%v At(5)=%v", s.At(-1), s.At(5))
	}
}

func TestDistanceToShoreMagnitudeNearZero(t *testing.T) {
	s := hexagon()
	d := s.DistanceToShore(-2000, 0)
	if math.Abs(d) > 1e-6 {
		t.Errorf("expected ~0 distance on the boundary vertex, got %v", d)
	}
}
