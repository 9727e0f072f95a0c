// Package kdtree implements a two-dimensional KD-tree over geom.Point keys
// with opaque payloads, used by internal/spatial to index river nodes
// within a tile.
package kdtree

import (
	"sort"

	"github.com/talgya/terrain-hydrology/internal/geom"
)

// node is one element of the tree.
type node struct {
	point   geom.Point
	payload any
	left    *node
	right   *node
}

// Tree is a 2-D KD-tree, alternating splits on X then Y by depth.
// It is append-only: there is no delete operation. Zero value is an empty
// tree ready to use.
type Tree struct {
	root *node
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{}
}

// Insert adds point/payload to the tree. Expected O(depth); the tree may
// become unbalanced with many sequential insertions in sorted order.
func (t *Tree) Insert(point geom.Point, payload any) {
	t.root = insert(t.root, point, payload, 0)
}

func insert(n *node, point geom.Point, payload any, depth int) *node {
	if n == nil {
		return &node{point: point, payload: payload}
	}
	if axisLess(point, n.point, depth) {
		n.left = insert(n.left, point, payload, depth+1)
	} else {
		n.right = insert(n.right, point, payload, depth+1)
	}
	return n
}

func axisLess(a, b geom.Point, depth int) bool {
	if depth%2 == 0 {
		return a.X < b.X
	}
	return a.Y < b.Y
}

func axisValue(p geom.Point, depth int) float64 {
	if depth%2 == 0 {
		return p.X
	}
	return p.Y
}

// SearchRange returns the payloads of every point falling within the
// axis-aligned square centered at center with the given half-side (so the
// square spans [center-halfSide, center+halfSide] on both axes).
func (t *Tree) SearchRange(center geom.Point, halfSide float64) []any {
	var results []any
	searchRange(t.root, center, halfSide, 0, &results)
	return results
}

func searchRange(n *node, center geom.Point, halfSide float64, depth int, results *[]any) {
	if n == nil {
		return
	}

	if n.point.X >= center.X-halfSide && n.point.X <= center.X+halfSide &&
		n.point.Y >= center.Y-halfSide && n.point.Y <= center.Y+halfSide {
		*results = append(*results, n.payload)
	}

	axis := axisValue(n.point, depth)
	lo := axisValue(center, depth) - halfSide
	hi := axisValue(center, depth) + halfSide

	if lo <= axis {
		searchRange(n.left, center, halfSide, depth+1, results)
	}
	if hi >= axis {
		searchRange(n.right, center, halfSide, depth+1, results)
	}
}

// entry pairs a point with its payload, used during reconstruction and BFS.
type entry struct {
	point   geom.Point
	payload any
}

// Reconstruct rebuilds the tree as a balanced tree via median-of-axis
// partitioning, recovering query performance after many insertions.
func (t *Tree) Reconstruct() {
	entries := collect(t.root)
	t.root = build(entries, 0)
}

func collect(n *node) []entry {
	if n == nil {
		return nil
	}
	entries := collect(n.left)
	entries = append(entries, entry{n.point, n.payload})
	entries = append(entries, collect(n.right)...)
	return entries
}

func build(entries []entry, depth int) *node {
	if len(entries) == 0 {
		return nil
	}

	sort.Slice(entries, func(i, j int) bool {
		return axisValue(entries[i].point, depth) < axisValue(entries[j].point, depth)
	})

	mid := len(entries) / 2
	n := &node{point: entries[mid].point, payload: entries[mid].payload}
	n.left = build(entries[:mid], depth+1)
	n.right = build(entries[mid+1:], depth+1)
	return n
}

// BreadthFirstSearch returns payloads in breadth-first order. Used only to
// verify structural invariants in tests.
func (t *Tree) BreadthFirstSearch() []any {
	if t.root == nil {
		return nil
	}

	var results []any
	queue := []*node{t.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		results = append(results, n.payload)
		if n.left != nil {
			queue = append(queue, n.left)
		}
		if n.right != nil {
			queue = append(queue, n.right)
		}
	}
	return results
}
