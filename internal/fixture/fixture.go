// Package fixture builds synthetic worlds — a slope raster and a coastline
// — for manual exploration (cmd/seedfixture) and for package tests that
// want a realistic multi-table store without a hand-maintained file.
package fixture

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/terrain-hydrology/internal/geom"
	"github.com/talgya/terrain-hydrology/internal/raster"
)

// World is a synthetic, internally-consistent input to the growth stage: a
// coastline polygon and a slope raster covering its bounding box.
type World struct {
	Shore      []geom.Point
	Slope      *raster.SlopeRaster
	Resolution float64
	EdgeLength float64
}

// octaveNoise layers several frequencies of a normalized opensimplex source
// into fractal terrain-like noise in [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	if maxVal == 0 {
		return 0
	}
	return total / maxVal
}

// Hexagon returns a regular, CCW-ordered hexagon of the given circumradius
// centered at the origin, for use as a coastline.
func Hexagon(radius float64) []geom.Point {
	verts := make([]geom.Point, 6)
	for k := 0; k < 6; k++ {
		theta := float64(k) * math.Pi / 3
		verts[k] = geom.Point{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)}
	}
	return verts
}

// New builds a synthetic World whose coastline is a hexagon of the given
// radius, and whose slope raster covers [-radius, radius]^2 at the given
// resolution (meters per cell) with opensimplex-derived rolling terrain.
func New(seed int64, radius, resolution, edgeLength float64) *World {
	noise := opensimplex.NewNormalized(seed)

	side := int(2*radius/resolution) + 1
	cells := make([][]float64, side)
	for row := range cells {
		cells[row] = make([]float64, side)
	}

	for row := 0; row < side; row++ {
		worldY := -radius + float64(row)*resolution
		for col := 0; col < side; col++ {
			worldX := -radius + float64(col)*resolution
			n := octaveNoise(noise, worldX, worldY, 4, 0.0015, 0.5)
			cells[row][col] = n * 0.4 // gentle slope magnitude, keeps growth well-behaved
		}
	}

	return &World{
		Shore:      Hexagon(radius),
		Slope:      raster.New(cells, resolution),
		Resolution: resolution,
		EdgeLength: edgeLength,
	}
}
