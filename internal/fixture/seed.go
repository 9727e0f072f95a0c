package fixture

import (
	"fmt"
	"math"

	"github.com/talgya/terrain-hydrology/internal/store"
)

// MouthSeed is one seed river mouth to register on the coastline.
type MouthSeed struct {
	ContourIndex int
	Priority     int
}

// SeedStore populates s with w's parameters, slope raster, and shoreline,
// plus one RiverNodes seed row per mouth, each placed at its shore vertex.
// It leaves Qs/Ridges/Cells/Ts empty — those belong to the elevation stage
// and are populated separately by tests that exercise it.
func SeedStore(s *store.Store, w *World, mouths []MouthSeed) error {
	params := map[string]float64{
		"minX": -w.shoreRadius(), "maxX": w.shoreRadius(),
		"minY": -w.shoreRadius(), "maxY": w.shoreRadius(),
		"edgeLength": w.EdgeLength, "resolution": w.Resolution,
	}
	for key, value := range params {
		if err := s.SetParam(key, value); err != nil {
			return fmt.Errorf("fixture: seed parameter %s: %w", key, err)
		}
	}

	if err := s.SeedSlope(w.Slope); err != nil {
		return fmt.Errorf("fixture: seed slope: %w", err)
	}
	if err := s.SeedShore(w.Shore); err != nil {
		return fmt.Errorf("fixture: seed shore: %w", err)
	}

	for i, m := range mouths {
		loc := w.Shore[m.ContourIndex%len(w.Shore)]
		if err := s.SeedGrowthMouth(i, m.Priority, m.ContourIndex, loc); err != nil {
			return fmt.Errorf("fixture: seed mouth %d: %w", i, err)
		}
	}

	return nil
}

func (w *World) shoreRadius() float64 {
	max := 0.0
	for _, v := range w.Shore {
		if d := v.X*v.X + v.Y*v.Y; d > max {
			max = d
		}
	}
	return math.Sqrt(max)
}
