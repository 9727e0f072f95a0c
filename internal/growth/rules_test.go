package growth

import (
	"math"
	"math/rand"
	"testing"

	"github.com/talgya/terrain-hydrology/internal/geom"
	"github.com/talgya/terrain-hydrology/internal/hydrology"
	"github.com/talgya/terrain-hydrology/internal/shore"
)

func TestSelectNodeLoneTopPriorityWinsRegardlessOfZeta(t *testing.T) {
	candidates := []Candidate{
		{NodeID: 0, Priority: 1, Elevation: 4},
		{NodeID: 1, Priority: 2, Elevation: 6},
		{NodeID: 2, Priority: 3, Elevation: 14},
		{NodeID: 3, Priority: 3, Elevation: 8},
		{NodeID: 4, Priority: 1, Elevation: 24},
		{NodeID: 5, Priority: 4, Elevation: 23},
	}

	idx := SelectNode(candidates, 14)
	if idx != 5 {
		t.Fatalf("SelectNode = %d, want 5 (lone priority-4 candidate)", idx)
	}
}

func TestSelectNodeTiedPriorityPrefersHighestElevationBelowZeta(t *testing.T) {
	candidates := []Candidate{
		{NodeID: 0, Priority: 2, Elevation: 5},
		{NodeID: 1, Priority: 2, Elevation: 9},
		{NodeID: 2, Priority: 2, Elevation: 20},
	}

	idx := SelectNode(candidates, 10)
	if idx != 1 {
		t.Fatalf("SelectNode = %d, want 1 (elevation 9, highest <= zeta 10)", idx)
	}
}

func TestSelectNodeTiedPriorityAllAboveZetaPicksLowestElevation(t *testing.T) {
	candidates := []Candidate{
		{NodeID: 0, Priority: 2, Elevation: 50},
		{NodeID: 1, Priority: 2, Elevation: 30},
	}

	idx := SelectNode(candidates, 10)
	if idx != 1 {
		t.Fatalf("SelectNode = %d, want 1 (lowest elevation among all-above-zeta tie)", idx)
	}
}

// hexagon returns a regular, CCW-ordered hexagon centered at the origin with
// the given circumradius, starting at angle 0 (so At(0) == (radius, 0)).
func hexagon(radius float64) *shore.Shore {
	verts := make([]geom.Point, 6)
	for k := 0; k < 6; k++ {
		theta := float64(k) * math.Pi / 3
		verts[k] = geom.Point{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)}
	}
	return shore.New(verts)
}

func TestCoastNormalPointsInlandAtHexagonVertex(t *testing.T) {
	sh := hexagon(2000)
	mouthLoc := sh.At(0) // (2000, 0)

	normal := CoastNormal(sh, mouthLoc, 0)

	// The hexagon's interior lies to the -X side of the (2000,0) vertex;
	// any valid inward normal there must have a negative X component.
	if math.Cos(normal) >= 0 {
		t.Fatalf("CoastNormal = %v rad, want a direction with negative X component (inland)", normal)
	}
}

func TestIsAcceptablePositionRejectsNearExistingNode(t *testing.T) {
	sh := hexagon(10000)
	net := hydrology.New(geom.Point{-10000, -10000}, geom.Point{10000, 10000}, 100)
	net.AddMouthNode(geom.Point{5000, 0}, 0, 1, 0)

	params := Params{Sigma: 1.0, Eta: 1.0, EdgeLength: 100}

	// 10 units away from the mouth: well inside eta*edgeLength = 100.
	tooClose := geom.Point{5010, 0}
	if IsAcceptablePosition(tooClose, 200, 999, net, sh, params) {
		t.Fatalf("expected rejection: candidate only 10 units from an existing node")
	}
}

func TestIsAcceptablePositionRejectsNearShore(t *testing.T) {
	sh := hexagon(10000)
	net := hydrology.New(geom.Point{-10000, -10000}, geom.Point{10000, 10000}, 100)

	params := Params{Sigma: 1.0, Eta: 1.0, EdgeLength: 100}

	// 5 units inland of the (10000,0) vertex: well inside sigma*edgeLength = 100.
	nearShore := geom.Point{9995, 0}
	if IsAcceptablePosition(nearShore, 200, 999, net, sh, params) {
		t.Fatalf("expected rejection: candidate only ~5 units from the shore")
	}
}

func TestIsAcceptablePositionAcceptsOpenInteriorPoint(t *testing.T) {
	sh := hexagon(10000)
	net := hydrology.New(geom.Point{-10000, -10000}, geom.Point{10000, 10000}, 100)
	net.AddMouthNode(geom.Point{9000, 0}, 0, 1, 0)

	params := Params{Sigma: 1.0, Eta: 1.0, EdgeLength: 100}

	// Dead center of the hexagon: far from both the mouth node and the shore.
	open := geom.Point{0, 0}
	if !IsAcceptablePosition(open, 200, 999, net, sh, params) {
		t.Fatalf("expected acceptance: candidate is far from both shore and existing nodes")
	}
}

// TestIsAcceptablePositionLockedUnderHeldAreaLock exercises the exact
// sequence PickNewNodeLoc relies on: acquire an AreaLock over the
// candidate square, then evaluate acceptance under it. The self-locking
// IsAcceptablePosition would deadlock here, reentering the writer lock
// this goroutine already holds; IsAcceptablePositionLocked must not.
func TestIsAcceptablePositionLockedUnderHeldAreaLock(t *testing.T) {
	sh := hexagon(10000)
	net := hydrology.New(geom.Point{-10000, -10000}, geom.Point{10000, 10000}, 100)
	net.AddMouthNode(geom.Point{9000, 0}, 0, 1, 0)

	params := Params{Sigma: 1.0, Eta: 1.0, EdgeLength: 100}

	open := geom.Point{0, 0}
	lock := net.LockArea(open, 200)
	accepted := IsAcceptablePositionLocked(open, 200, 999, net, sh, params)
	lock.Release()

	if !accepted {
		t.Fatalf("expected acceptance under a held AreaLock: candidate is far from both shore and existing nodes")
	}
}

func TestPickNewNodeLocFindsAcceptablePosition(t *testing.T) {
	sh := hexagon(10000)
	net := hydrology.New(geom.Point{-10000, -10000}, geom.Point{10000, 10000}, 100)
	mouthID := net.AddMouthNode(geom.Point{0, 0}, 0, 1, 0)
	mouth := net.GetNode(mouthID)

	params := Params{
		Sigma:         1.0,
		Eta:           1.0,
		EdgeLength:    100,
		MaxTries:      50,
		RiverAngleDev: 0.3,
	}

	rng := rand.New(rand.NewSource(1))
	p, lock, ok := PickNewNodeLoc(rng, net, sh, mouth, params)
	if !ok {
		t.Fatalf("PickNewNodeLoc failed to find an acceptable position")
	}
	// IsAcceptablePosition takes its own tile locks, so the area lock
	// returned by PickNewNodeLoc is released before checking with it.
	lock.Release()

	if !IsAcceptablePosition(p, 2*params.EdgeLength, mouth.ID, net, sh, params) {
		t.Fatalf("PickNewNodeLoc returned %v, which IsAcceptablePosition rejects", p)
	}

	gotDist := geom.Distance(p, mouth.Loc)
	if math.Abs(gotDist-params.EdgeLength) > 1e-6 {
		t.Errorf("expected the new point exactly EdgeLength from its parent, got distance %v", gotDist)
	}
}

type constantSlope float64

func (c constantSlope) Sample(geom.Point) float64 { return float64(c) }

func TestAlphaTerminateModeYieldsNoChildren(t *testing.T) {
	sh := hexagon(10000)
	net := hydrology.New(geom.Point{-10000, -10000}, geom.Point{10000, 10000}, 100)
	mouthID := net.AddMouthNode(geom.Point{0, 0}, 0, 1, 0)

	params := Params{
		Pa: 0, Pc: 0, // Pa+Pc == 0 guarantees branchTerminate every roll
		Sigma: 1.0, Eta: 1.0, EdgeLength: 100, MaxTries: 50, RiverAngleDev: 0.3,
	}

	rng := rand.New(rand.NewSource(1))
	children := Alpha(rng, net, sh, constantSlope(0), Candidate{NodeID: mouthID, Priority: 1}, params)
	if len(children) != 0 {
		t.Fatalf("Alpha with Pa=Pc=0 produced %d children, want 0", len(children))
	}
}

func TestAlphaContinuationModeYieldsOneChild(t *testing.T) {
	sh := hexagon(10000)
	net := hydrology.New(geom.Point{-10000, -10000}, geom.Point{10000, 10000}, 100)
	mouthID := net.AddMouthNode(geom.Point{0, 0}, 0, 1, 0)

	params := Params{
		Pa: 0, Pc: 1, // guarantees branchContinuation every roll
		Sigma: 1.0, Eta: 1.0, EdgeLength: 100, MaxTries: 50, RiverAngleDev: 0.3,
	}

	rng := rand.New(rand.NewSource(1))
	children := Alpha(rng, net, sh, constantSlope(0), Candidate{NodeID: mouthID, Priority: 1}, params)
	if len(children) != 1 {
		t.Fatalf("Alpha with Pa=0,Pc=1 produced %d children, want 1", len(children))
	}
	if net.NumNodes() != 2 {
		t.Errorf("expected the child to be inserted into the network, NumNodes = %d", net.NumNodes())
	}
}
