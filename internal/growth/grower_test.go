package growth

import (
	"sync/atomic"
	"testing"

	"github.com/talgya/terrain-hydrology/internal/geom"
	"github.com/talgya/terrain-hydrology/internal/hydrology"
)

// TestGrowTerminatesAndPopulatesNetwork exercises the parallel worker loop
// end to end on a small, bounded hexagon: growth forced to always attempt
// exactly one child (Pa=0, Pc=1) must still terminate once no further
// positions satisfy IsAcceptablePosition within the shore, and every
// progress tick must correspond to one processed candidate.
func TestGrowTerminatesAndPopulatesNetwork(t *testing.T) {
	sh := hexagon(300)
	net := hydrology.New(geom.Point{-300, -300}, geom.Point{300, 300}, 50)

	// The mouths sit on the hexagon's 120-degree vertices, so a first child
	// one EdgeLength inland is at most EdgeLength*sin(60deg) from the shore;
	// Sigma must stay well below that for any first child to be accepted.
	params := Params{
		Pa: 0, Pc: 1,
		Sigma: 0.3, Eta: 1.0, EdgeLength: 50, MaxTries: 20, RiverAngleDev: 0.2,
		SlopeRate: 0,
	}

	var mouths []Candidate
	for k := 0; k < 6; k++ {
		loc := sh.At(k)
		id := net.AddMouthNode(loc, 0, 1, k)
		mouths = append(mouths, Candidate{NodeID: id, Priority: 1, Elevation: 0})
	}
	startNodes := net.NumNodes()

	var progressCount int64
	Grow(net, sh, constantSlope(0), mouths, params, 4, 1, func() {
		atomic.AddInt64(&progressCount, 1)
	})

	if net.NumNodes() <= startNodes {
		t.Errorf("Grow did not add any nodes beyond the %d seeded mouths", startNodes)
	}

	if progressCount == 0 {
		t.Errorf("expected at least one progress tick, got 0")
	}

	// Every node beyond the mouths is pushed onto the pool as a candidate
	// and taken exactly once (continuation mode yields at most one child
	// per Alpha call), so progress ticks equal every mouth plus every
	// created node, leaves included, and never fall below the number of
	// created nodes.
	if int64(net.NumNodes()-startNodes) > progressCount {
		t.Errorf("more nodes created (%d) than progress ticks recorded (%d)", net.NumNodes()-startNodes, progressCount)
	}
}

func TestGrowWithSingleWorkerIsDeterministicGivenSeed(t *testing.T) {
	params := Params{
		Pa: 0, Pc: 1,
		Sigma: 1.0, Eta: 1.0, EdgeLength: 50, MaxTries: 20, RiverAngleDev: 0.2,
	}

	run := func() int {
		sh := hexagon(300)
		net := hydrology.New(geom.Point{-300, -300}, geom.Point{300, 300}, 50)
		id := net.AddMouthNode(sh.At(0), 0, 1, 0)
		Grow(net, sh, constantSlope(0), []Candidate{{NodeID: id, Priority: 1}}, params, 1, 42, nil)
		return net.NumNodes()
	}

	a, b := run(), run()
	if a != b {
		t.Errorf("single-worker Grow with fixed seed was not deterministic: got %d then %d nodes", a, b)
	}
}
