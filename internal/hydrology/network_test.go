package hydrology

import (
	"testing"

	"github.com/talgya/terrain-hydrology/internal/geom"
)

func newTestNetwork() *Network {
	return New(geom.Point{0, 0}, geom.Point{1000, 1000}, 10)
}

func TestIDsAssignedInCallOrder(t *testing.T) {
	n := newTestNetwork()

	m0 := n.AddMouthNode(geom.Point{10, 10}, 0, 1, 0)
	r1, err := n.AddRegularNode(geom.Point{20, 20}, 1, 1, m0)
	if err != nil {
		t.Fatal(err)
	}
	m2 := n.AddMouthNode(geom.Point{500, 500}, 0, 1, 1)
	r3, err := n.AddRegularNode(geom.Point{30, 30}, 2, 1, r1)
	if err != nil {
		t.Fatal(err)
	}

	if m0 != 0 || r1 != 1 || m2 != 2 || r3 != 3 {
		t.Errorf("ids not in call order: %d %d %d %d", m0, r1, m2, r3)
	}
}

func TestParentChildrenInvariant(t *testing.T) {
	n := newTestNetwork()

	m0 := n.AddMouthNode(geom.Point{10, 10}, 0, 1, 0)
	r1, err := n.AddRegularNode(geom.Point{20, 20}, 1, 1, m0)
	if err != nil {
		t.Fatal(err)
	}

	parent := n.GetNode(m0)
	if _, ok := parent.Children[r1]; !ok {
		t.Errorf("expected parent.Children to contain %d, got %v", r1, parent.Children)
	}
}

func TestQueryAreaDoubleCountsEnclosedEdges(t *testing.T) {
	n := newTestNetwork()

	m0 := n.AddMouthNode(geom.Point{500, 500}, 0, 1, 0)
	_, err := n.AddRegularNode(geom.Point{505, 505}, 1, 1, m0)
	if err != nil {
		t.Fatal(err)
	}

	edges := n.QueryArea(geom.Point{500, 500}, 50)
	if len(edges) != 2 {
		t.Fatalf("expected the fully-enclosed edge to be double-counted (2 entries), got %d: %v", len(edges), edges)
	}
}

func TestQueryAreaPartialOverlapSingleCount(t *testing.T) {
	n := newTestNetwork()

	m0 := n.AddMouthNode(geom.Point{100, 100}, 0, 1, 0)
	_, err := n.AddRegularNode(geom.Point{900, 900}, 1, 1, m0)
	if err != nil {
		t.Fatal(err)
	}

	// Query square around only the child's endpoint.
	edges := n.QueryArea(geom.Point{900, 900}, 5)
	if len(edges) != 1 {
		t.Fatalf("expected exactly one edge when only one endpoint is in range, got %d", len(edges))
	}
}

func TestAddRegularNodeUnknownParent(t *testing.T) {
	n := newTestNetwork()
	if _, err := n.AddRegularNode(geom.Point{0, 0}, 0, 1, 42); err == nil {
		t.Error("expected error for unknown parent id")
	}
}

// TestAddRegularNodeLockedUnderHeldAreaLock exercises the exact sequence
// growth.Alpha relies on: search the area, then insert into it, all while
// holding the one AreaLock acquired for the search. AddRegularNode would
// self-deadlock here (it re-locks the same tile); AddRegularNodeLocked
// must not.
func TestAddRegularNodeLockedUnderHeldAreaLock(t *testing.T) {
	n := newTestNetwork()
	m0 := n.AddMouthNode(geom.Point{500, 500}, 0, 1, 0)

	candidate := geom.Point{520, 500}
	lock := n.LockArea(candidate, 50)

	_ = n.SearchNodesLocked(candidate, 50)
	r1, err := n.AddRegularNodeLocked(candidate, 1, 1, m0)
	lock.Release()
	if err != nil {
		t.Fatalf("AddRegularNodeLocked failed: %v", err)
	}

	got := n.GetNode(r1)
	if got == nil || got.Loc != candidate {
		t.Fatalf("expected node %d at %v, got %+v", r1, candidate, got)
	}

	parent := n.GetNode(m0)
	if _, ok := parent.Children[r1]; !ok {
		t.Errorf("expected parent.Children to contain %d, got %v", r1, parent.Children)
	}

	if ids := n.SearchNodes(candidate, 1); len(ids) != 1 || ids[0] != r1 {
		t.Errorf("expected the locked insert to be visible to a subsequent search, got %v", ids)
	}
}
