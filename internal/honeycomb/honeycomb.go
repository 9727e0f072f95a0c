// Package honeycomb holds the read-only ridge graph consumed by the
// terrain elevation engine: ridge endpoints (Qs), ridges between them, and
// each river node's ordered list of bounding ridges.
//
// Construction of the honeycomb itself — the Voronoi-like cell
// decomposition — is an external collaborator; this package only stores
// and serves the result, loaded in three passes (Qs, then ridges, then
// cell membership).
package honeycomb

import "github.com/talgya/terrain-hydrology/internal/geom"

// Q is a ridge endpoint.
type Q struct {
	Position      geom.Point
	Elevation     float64
	AdjacentCells map[uint64]struct{}
}

// Ridge is a boundary segment between two cells. Q1 is nil for a degenerate
// (point) ridge, which arises at honeycomb boundaries and contributes to
// closest-ridge calculations via its single endpoint.
type Ridge struct {
	Q0, Q1 *Q
}

// Degenerate reports whether this is a point-ridge (only Q0 present).
func (r Ridge) Degenerate() bool {
	return r.Q1 == nil
}

// Honeycomb is the read-only ridge graph. Zero value is empty; populate it
// with DumpQ, DumpRidge, and DumpCellRidge in that order.
type Honeycomb struct {
	qs         map[uint64]*Q
	ridges     map[uint64]*Ridge
	cellRidges map[uint64][]*Ridge
}

// New returns an empty Honeycomb.
func New() *Honeycomb {
	return &Honeycomb{
		qs:         make(map[uint64]*Q),
		ridges:     make(map[uint64]*Ridge),
		cellRidges: make(map[uint64][]*Ridge),
	}
}

// DumpQ registers a ridge endpoint under its save id.
func (h *Honeycomb) DumpQ(saveID uint64, position geom.Point, elevation float64, adjacentCells []uint64) {
	cells := make(map[uint64]struct{}, len(adjacentCells))
	for _, c := range adjacentCells {
		cells[c] = struct{}{}
	}
	h.qs[saveID] = &Q{Position: position, Elevation: elevation, AdjacentCells: cells}
}

// DumpRidge registers a ridge under its save id, referencing two
// previously-dumped Q save ids. q1SaveID may be the same as q0SaveID's
// sentinel (handled by callers passing hasQ1=false) to represent a
// degenerate ridge.
func (h *Honeycomb) DumpRidge(saveID, q0SaveID uint64, q1SaveID uint64, hasQ1 bool) {
	ridge := &Ridge{Q0: h.qs[q0SaveID]}
	if hasQ1 {
		ridge.Q1 = h.qs[q1SaveID]
	}
	h.ridges[saveID] = ridge
}

// DumpCellRidge appends a ridge (identified by its save id) to a cell's
// ordered ridge list.
func (h *Honeycomb) DumpCellRidge(cellID, ridgeSaveID uint64) {
	ridge, ok := h.ridges[ridgeSaveID]
	if !ok {
		return
	}
	h.cellRidges[cellID] = append(h.cellRidges[cellID], ridge)
}

// CellRidges returns the ordered ridges bounding the given cell's river
// node.
func (h *Honeycomb) CellRidges(cellID uint64) []*Ridge {
	return h.cellRidges[cellID]
}
