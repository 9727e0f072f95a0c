// Package terrain holds terrain sample points and the elevation
// interpolation engine that assigns each one an elevation derived from the
// nearest ridge and nearest river.
package terrain

import "github.com/talgya/terrain-hydrology/internal/geom"

// T is a terrain sample point inside some river cell, for which an
// elevation must be computed.
type T struct {
	Loc       geom.Point
	CellID    uint64
	Elevation float64
	Computed  bool
}

// Samples is a dense, id-indexed collection of terrain samples.
type Samples struct {
	ts []*T
}

// NewSamples returns an empty collection.
func NewSamples() *Samples {
	return &Samples{}
}

// DumpT appends a terrain sample loaded from a prior stage.
func (s *Samples) DumpT(loc geom.Point, cellID uint64) uint64 {
	id := uint64(len(s.ts))
	s.ts = append(s.ts, &T{Loc: loc, CellID: cellID})
	return id
}

// NumTs returns the number of terrain samples.
func (s *Samples) NumTs() int {
	return len(s.ts)
}

// GetT returns the sample at the given index.
func (s *Samples) GetT(i int) *T {
	return s.ts[i]
}

// All returns every terrain sample, in id order.
func (s *Samples) All() []*T {
	return s.ts
}
