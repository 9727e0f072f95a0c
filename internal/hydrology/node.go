// Package hydrology models the forest of river trees grown inward from the
// coast: nodes, parent/child linkage, and the spatial indices used to query
// them by area.
package hydrology

import "github.com/talgya/terrain-hydrology/internal/geom"

// RiverPoint is a vertex of a river polyline: a planar location with an
// elevation carried along the line.
type RiverPoint struct {
	X, Y, Z float64
}

// RiverPolyline is an ordered sequence of RiverPoints, populated only when a
// node is loaded from a prior stage (growth never populates it).
type RiverPolyline []RiverPoint

// Node is a node in a river tree (a "hydrology primitive").
//
// ID is assigned strictly in insertion order starting at 0, is never
// reassigned, and is never reused — it doubles as this node's index into
// the network's arena.
type Node struct {
	ID       uint64
	ParentID *uint64 // nil iff this node is a mouth
	Children map[uint64]struct{}

	Loc          geom.Point
	Elevation    float64
	Priority     int
	ContourIndex int // meaningful only for mouths; -1 otherwise

	Rivers []RiverPolyline // populated only when loaded from a prior stage

	LocalWatershed, InheritedWatershed, Flow float64
}

// IsMouth reports whether this node is a root of its tree.
func (n *Node) IsMouth() bool {
	return n.ParentID == nil
}

// Edge is a derived (not stored) pair of node ids, oriented child->parent.
type Edge struct {
	Child, Parent uint64
}
