// Package raster implements the river-slope raster consumed during growth:
// a grid of per-cell slope values sampled by world-space location.
package raster

import "github.com/talgya/terrain-hydrology/internal/geom"

// SlopeRaster is a dense grid of slope values, indexed [y][x], with a given
// number of meters per cell (resolution).
type SlopeRaster struct {
	cells      [][]float64
	resolution float64
}

// New builds a raster from row-major cells (cells[y][x]) and the given
// meters-per-cell resolution.
func New(cells [][]float64, resolution float64) *SlopeRaster {
	return &SlopeRaster{cells: cells, resolution: resolution}
}

// Width and Height return the raster's dimensions in cells.
func (r *SlopeRaster) Width() int {
	if len(r.cells) == 0 {
		return 0
	}
	return len(r.cells[0])
}

func (r *SlopeRaster) Height() int {
	return len(r.cells)
}

// CellAt returns the raw slope value at raster cell (x, y), with no
// world-space conversion or bounds clamping; callers iterating the grid
// directly (e.g. to serialize it) should use this instead of Sample.
func (r *SlopeRaster) CellAt(x, y int) float64 {
	return r.cells[y][x]
}

// Sample returns the slope at the raster cell containing world-space point
// p, clamping to the raster's edges for points outside it.
func (r *SlopeRaster) Sample(p geom.Point) float64 {
	if len(r.cells) == 0 {
		return 0
	}

	x := int(p.X / r.resolution)
	y := int(p.Y / r.resolution)

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x >= r.Width() {
		x = r.Width() - 1
	}
	if y >= r.Height() {
		y = r.Height() - 1
	}

	return r.cells[y][x]
}
