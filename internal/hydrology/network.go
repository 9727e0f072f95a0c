package hydrology

import (
	"fmt"
	"sync"

	"github.com/talgya/terrain-hydrology/internal/geom"
	"github.com/talgya/terrain-hydrology/internal/spatial"
)

// Network is a forest of river trees, each rooted at a mouth node on the
// coast. It is empty when constructed and grows only through AddMouthNode /
// AddRegularNode; nodes are never removed.
//
// Two parallel spatial indices back area queries: positions (one entry per
// node, for "is anything within radius of p" checks) and edges (two entries
// per regular node — both its own and its parent's location, keyed to the
// child's id — so that QueryArea can reconstruct edges and, by design,
// double-count edges wholly inside the query square).
type Network struct {
	mu    sync.Mutex
	nodes []*Node

	positions *spatial.Forest
	edges     *spatial.Forest
}

// New constructs an empty network spanning [lowerLeft, upperRight], with
// tiles sized from edgeLength.
func New(lowerLeft, upperRight geom.Point, edgeLength float64) *Network {
	tileEdge := edgeLength * 16
	return &Network{
		positions: spatial.New(lowerLeft, upperRight, tileEdge),
		edges:     spatial.New(lowerLeft, upperRight, tileEdge),
	}
}

// AddMouthNode appends a new root node, inserts it into the position
// index (a mouth has no edge, so the edge index is untouched), and returns
// its id.
func (n *Network) AddMouthNode(loc geom.Point, elevation float64, priority, contourIndex int) uint64 {
	n.mu.Lock()
	id := uint64(len(n.nodes))
	node := &Node{
		ID:           id,
		Loc:          loc,
		Elevation:    elevation,
		Priority:     priority,
		ContourIndex: contourIndex,
		Children:     make(map[uint64]struct{}),
	}
	n.nodes = append(n.nodes, node)
	n.mu.Unlock()

	n.positions.Insert(loc, id)
	return id
}

// AddRegularNode appends a node with the given parent. The parent's
// Children set gains this node's id. Both endpoints of the implicit
// child->parent edge are inserted into the edge index, keyed to the new
// node's id only — never the parent's.
//
// The caller is responsible for ensuring elevation is monotone along the
// path; this layer does not enforce it.
//
// AddRegularNode acquires its own tile locks for the spatial-index
// inserts. A caller that is already holding an AreaLock covering loc (and
// the parent's location) — typically because it just used that lock to
// search the area before deciding to insert — must call
// AddRegularNodeLocked instead, or it will self-deadlock re-locking the
// same tile.
func (n *Network) AddRegularNode(loc geom.Point, elevation float64, priority int, parentID uint64) (uint64, error) {
	id, parentLoc, err := n.linkRegularNode(loc, elevation, priority, parentID)
	if err != nil {
		return 0, err
	}

	n.positions.Insert(loc, id)
	n.edges.Insert(loc, id)
	n.edges.Insert(parentLoc, id)

	return id, nil
}

// AddRegularNodeLocked behaves exactly like AddRegularNode, except it
// inserts into the spatial indices via InsertLocked rather than Insert.
// The caller must already hold an AreaLock (from LockArea) covering both
// loc and the parent's location — the same lock used to search the area
// for an acceptable position — so the read-then-insert critical section
// that search implies is atomic instead of re-entering an already-held
// tile lock.
func (n *Network) AddRegularNodeLocked(loc geom.Point, elevation float64, priority int, parentID uint64) (uint64, error) {
	id, parentLoc, err := n.linkRegularNode(loc, elevation, priority, parentID)
	if err != nil {
		return 0, err
	}

	n.positions.InsertLocked(loc, id)
	n.edges.InsertLocked(loc, id)
	n.edges.InsertLocked(parentLoc, id)

	return id, nil
}

// linkRegularNode creates and links a new regular node under the arena
// lock, returning its id and the parent's location, but does not touch
// either spatial index — that is the caller's responsibility, so it can
// choose between Insert and InsertLocked.
func (n *Network) linkRegularNode(loc geom.Point, elevation float64, priority int, parentID uint64) (uint64, geom.Point, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if int(parentID) >= len(n.nodes) {
		return 0, geom.Point{}, fmt.Errorf("hydrology: unknown parent id %d", parentID)
	}
	parent := n.nodes[parentID]

	id := uint64(len(n.nodes))
	node := &Node{
		ID:           id,
		ParentID:     &parentID,
		Loc:          loc,
		Elevation:    elevation,
		Priority:     priority,
		ContourIndex: -1,
		Children:     make(map[uint64]struct{}),
	}
	n.nodes = append(n.nodes, node)
	parent.Children[id] = struct{}{}

	return id, parent.Loc, nil
}

// DumpMouthNode appends a fully-formed mouth node (used when loading a
// network from a prior stage's output, e.g. for elevation generation).
func (n *Network) DumpMouthNode(loc geom.Point, elevation float64, contourIndex int, rivers []RiverPolyline, localWatershed, inheritedWatershed, flow float64) uint64 {
	n.mu.Lock()
	id := uint64(len(n.nodes))
	node := &Node{
		ID:                 id,
		Loc:                loc,
		Elevation:          elevation,
		ContourIndex:       contourIndex,
		Rivers:             rivers,
		LocalWatershed:     localWatershed,
		InheritedWatershed: inheritedWatershed,
		Flow:               flow,
		Children:           make(map[uint64]struct{}),
	}
	n.nodes = append(n.nodes, node)
	n.mu.Unlock()

	n.positions.Insert(loc, id)
	return id
}

// DumpRegularNode appends a fully-formed regular node (used when loading).
func (n *Network) DumpRegularNode(loc geom.Point, elevation float64, parentID uint64, rivers []RiverPolyline, localWatershed, inheritedWatershed, flow float64) (uint64, error) {
	n.mu.Lock()
	if int(parentID) >= len(n.nodes) {
		n.mu.Unlock()
		return 0, fmt.Errorf("hydrology: unknown parent id %d", parentID)
	}
	parent := n.nodes[parentID]

	id := uint64(len(n.nodes))
	node := &Node{
		ID:                 id,
		ParentID:           &parentID,
		Loc:                loc,
		Elevation:          elevation,
		ContourIndex:       -1,
		Rivers:             rivers,
		LocalWatershed:     localWatershed,
		InheritedWatershed: inheritedWatershed,
		Flow:               flow,
		Children:           make(map[uint64]struct{}),
	}
	n.nodes = append(n.nodes, node)
	parent.Children[id] = struct{}{}
	n.mu.Unlock()

	n.positions.Insert(loc, id)
	return id, nil
}

// GetNode returns the node with the given id. O(1).
func (n *Network) GetNode(id uint64) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	if int(id) >= len(n.nodes) {
		return nil
	}
	return n.nodes[id]
}

// NumNodes returns the total number of nodes in the network.
func (n *Network) NumNodes() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.nodes)
}

// AllNodes returns every node in the network, in id order.
func (n *Network) AllNodes() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Node, len(n.nodes))
	copy(out, n.nodes)
	return out
}

// QueryArea returns every edge (node, node.parent) with either endpoint in
// the square centered at center with half-side radius. Edges with both
// endpoints in the square are returned twice — callers that compute counts
// from symmetric iteration rely on this.
//
// QueryArea must not be called by a goroutine already holding an AreaLock
// covering the query square; use QueryAreaLocked instead.
func (n *Network) QueryArea(center geom.Point, radius float64) []Edge {
	return queryArea(n.edges.SearchRange(center, radius), n)
}

// QueryAreaLocked behaves like QueryArea, but queries the edge index via
// SearchRangeLocked rather than SearchRange. The caller must already hold
// an AreaLock (from LockArea) covering center+/-radius — PickNewNodeLoc is
// exactly this caller, since it holds the lock it will go on to insert
// under.
func (n *Network) QueryAreaLocked(center geom.Point, radius float64) []Edge {
	return queryArea(n.edges.SearchRangeLocked(center, radius), n)
}

func queryArea(ids []any, n *Network) []Edge {
	edges := make([]Edge, 0, len(ids))
	for _, raw := range ids {
		id := raw.(uint64)
		node := n.GetNode(id)
		if node == nil || node.ParentID == nil {
			continue
		}
		edges = append(edges, Edge{Child: id, Parent: *node.ParentID})
	}
	return edges
}

// SearchNodes returns the ids of every node within [center-radius,
// center+radius].
//
// SearchNodes must not be called by a goroutine already holding an
// AreaLock covering the query square; use SearchNodesLocked instead.
func (n *Network) SearchNodes(center geom.Point, radius float64) []uint64 {
	return toNodeIDs(n.positions.SearchRange(center, radius))
}

// SearchNodesLocked behaves like SearchNodes, but queries the position
// index via SearchRangeLocked rather than SearchRange. The caller must
// already hold an AreaLock (from LockArea) covering center+/-radius.
func (n *Network) SearchNodesLocked(center geom.Point, radius float64) []uint64 {
	return toNodeIDs(n.positions.SearchRangeLocked(center, radius))
}

func toNodeIDs(raw []any) []uint64 {
	ids := make([]uint64, len(raw))
	for i, r := range raw {
		ids[i] = r.(uint64)
	}
	return ids
}

// AreaLock holds writer locks, across both the position and edge indices,
// on every tile intersecting the query square.
type AreaLock struct {
	pos, edge *spatial.AreaLock
}

// Release drops both sets of locks.
func (l *AreaLock) Release() {
	l.pos.Release()
	l.edge.Release()
}

// LockArea acquires an AreaLock covering center+/-radius across both
// spatial indices, in the deterministic per-index tile order each Forest
// already guarantees.
func (n *Network) LockArea(center geom.Point, radius float64) *AreaLock {
	return &AreaLock{
		pos:  n.positions.AreaLock(center, radius),
		edge: n.edges.AreaLock(center, radius),
	}
}

// Bounds returns the network's bounding box.
func (n *Network) Bounds() (lowerLeft, upperRight geom.Point) {
	return n.positions.Bounds()
}

// Contains reports whether p lies within the network's bounding box,
// inclusive of the boundary.
func (n *Network) Contains(p geom.Point) bool {
	return n.positions.Contains(p)
}

// ContainsStrict reports whether p lies strictly inside the network's
// bounding box, excluding the boundary itself.
func (n *Network) ContainsStrict(p geom.Point) bool {
	return n.positions.ContainsStrict(p)
}
