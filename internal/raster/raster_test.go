package raster

import (
	"testing"

	"github.com/talgya/terrain-hydrology/internal/geom"
)

func TestNewDimensions(t *testing.T) {
	cells := [][]float64{
		{0.1, 0.2, 0.3},
		{0.4, 0.5, 0.6},
	}
	r := New(cells, 10)

	if r.Width() != 3 {
		t.Errorf("Width() = %d, want 3", r.Width())
	}
	if r.Height() != 2 {
		t.Errorf("Height() = %d, want 2", r.Height())
	}
}

func TestSampleLooksUpCellByResolution(t *testing.T) {
	cells := [][]float64{
		{0.1, 0.2, 0.3},
		{0.4, 0.5, 0.6},
	}
	r := New(cells, 10)

	got := r.Sample(geom.Point{X: 15, Y: 5})
	if got != 0.2 {
		t.Errorf("Sample(15,5) = %v, want cells[0][1] = 0.2", got)
	}
}

func TestSampleClampsOutOfBoundsPoints(t *testing.T) {
	cells := [][]float64{
		{0.1, 0.2, 0.3},
		{0.4, 0.5, 0.6},
	}
	r := New(cells, 10)

	if got := r.Sample(geom.Point{X: -50, Y: -50}); got != 0.1 {
		t.Errorf("Sample below origin = %v, want clamped to cells[0][0] = 0.1", got)
	}
	if got := r.Sample(geom.Point{X: 1000, Y: 1000}); got != 0.6 {
		t.Errorf("Sample far beyond bounds = %v, want clamped to cells[1][2] = 0.6", got)
	}
}

func TestCellAtReturnsRawGridValue(t *testing.T) {
	cells := [][]float64{
		{0.1, 0.2, 0.3},
		{0.4, 0.5, 0.6},
	}
	r := New(cells, 10)

	if got := r.CellAt(2, 1); got != 0.6 {
		t.Errorf("CellAt(2,1) = %v, want cells[1][2] = 0.6", got)
	}
}

func TestSampleEmptyRasterReturnsZero(t *testing.T) {
	r := New(nil, 10)
	if got := r.Sample(geom.Point{X: 5, Y: 5}); got != 0 {
		t.Errorf("Sample on empty raster = %v, want 0", got)
	}
	if r.Width() != 0 || r.Height() != 0 {
		t.Errorf("empty raster dimensions = (%d,%d), want (0,0)", r.Width(), r.Height())
	}
}
