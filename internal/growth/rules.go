package growth

import (
	"math"
	"math/rand"

	"github.com/talgya/terrain-hydrology/internal/geom"
	"github.com/talgya/terrain-hydrology/internal/hydrology"
	"github.com/talgya/terrain-hydrology/internal/raster"
	"github.com/talgya/terrain-hydrology/internal/shore"
)

// Candidate is an expansion candidate: a node eligible for further growth,
// carrying the priority/elevation SelectNode needs to rank it.
type Candidate struct {
	NodeID    uint64
	Priority  int
	Elevation float64
}

// SelectNode picks among candidates using their priorities. Among
// candidates sharing the highest priority, it picks the one whose
// elevation is the closest to zeta without exceeding it; if none of the
// top-priority candidates satisfy that threshold, it falls back to the
// top-priority candidate with the lowest elevation. A lone top-priority
// candidate always wins regardless of zeta.
//
// This formulation matches the one worked example available for the
// behavior (a lone top-priority candidate winning outright regardless of
// zeta); it is not proven to match every case.
func SelectNode(candidates []Candidate, zeta float64) int {
	if len(candidates) == 0 {
		return -1
	}

	topPriority := candidates[0].Priority
	for _, c := range candidates {
		if c.Priority > topPriority {
			topPriority = c.Priority
		}
	}

	topIdx := make([]int, 0, len(candidates))
	for i, c := range candidates {
		if c.Priority == topPriority {
			topIdx = append(topIdx, i)
		}
	}

	if len(topIdx) == 1 {
		return topIdx[0]
	}

	bestBelowZeta := -1
	for _, i := range topIdx {
		if candidates[i].Elevation <= zeta {
			if bestBelowZeta == -1 || candidates[i].Elevation > candidates[bestBelowZeta].Elevation {
				bestBelowZeta = i
			}
		}
	}
	if bestBelowZeta != -1 {
		return bestBelowZeta
	}

	minIdx := topIdx[0]
	for _, i := range topIdx {
		if candidates[i].Elevation < candidates[minIdx].Elevation {
			minIdx = i
		}
	}
	return minIdx
}

// CoastNormal computes the outward-pointing (into land) normal of the
// shore segment between the vertices at contourIndex-2 and contourIndex+1
// (modular indexing), for a mouth located at mouthLoc. Returns an angle in
// radians.
func CoastNormal(sh *shore.Shore, mouthLoc geom.Point, contourIndex int) float64 {
	a := sh.At(contourIndex - 2)
	b := sh.At(contourIndex + 1)
	d := b.Sub(a)

	if d.Norm() < 1e-9 {
		return 0
	}

	n1 := geom.Point{X: -d.Y, Y: d.X}
	n2 := geom.Point{X: d.Y, Y: -d.X}

	probeDist := 1.0
	probe1 := mouthLoc.Add(n1.Scale(probeDist / n1.Norm()))
	if sh.DistanceToShore(probe1.X, probe1.Y) > 0 {
		return math.Atan2(n1.Y, n1.X)
	}
	return math.Atan2(n2.Y, n2.X)
}

// headingFor computes the extension heading at parent: the coast normal if
// parent is a mouth, otherwise the direction from parent's own parent
// (the "grandparent" relative to a prospective child) to parent.
func headingFor(net *hydrology.Network, sh *shore.Shore, parent *hydrology.Node) float64 {
	if parent.IsMouth() {
		return CoastNormal(sh, parent.Loc, parent.ContourIndex)
	}
	grandparent := net.GetNode(*parent.ParentID)
	dir := parent.Loc.Sub(grandparent.Loc)
	return math.Atan2(dir.Y, dir.X)
}

// IsAcceptablePosition reports whether p may host a new node, given that
// ignoreNodeID (typically the proposing parent) should be excluded from the
// node- and edge-proximity checks. searchRadius bounds the area queried for
// nearby nodes/edges and must be at least eta*EdgeLength for the checks to
// be meaningful.
//
// IsAcceptablePosition must not be called by a goroutine already holding
// an AreaLock covering p and searchRadius; use IsAcceptablePositionLocked
// instead.
func IsAcceptablePosition(p geom.Point, searchRadius float64, ignoreNodeID uint64, net *hydrology.Network, sh *shore.Shore, params Params) bool {
	return isAcceptablePosition(p, searchRadius, ignoreNodeID, net, sh, params,
		net.SearchNodes, net.QueryArea)
}

// IsAcceptablePositionLocked behaves like IsAcceptablePosition, but queries
// the spatial indices via SearchNodesLocked/QueryAreaLocked rather than
// their self-locking counterparts. The caller must already hold an
// AreaLock (from Network.LockArea) covering p and searchRadius —
// PickNewNodeLoc is exactly this caller, since it holds the lock it will
// go on to insert under. Calling the self-locking SearchNodes/QueryArea
// from a goroutine that already holds that area's writer lock would
// reenter a non-reentrant sync.RWMutex and block forever.
func IsAcceptablePositionLocked(p geom.Point, searchRadius float64, ignoreNodeID uint64, net *hydrology.Network, sh *shore.Shore, params Params) bool {
	return isAcceptablePosition(p, searchRadius, ignoreNodeID, net, sh, params,
		net.SearchNodesLocked, net.QueryAreaLocked)
}

func isAcceptablePosition(
	p geom.Point,
	searchRadius float64,
	ignoreNodeID uint64,
	net *hydrology.Network,
	sh *shore.Shore,
	params Params,
	searchNodes func(geom.Point, float64) []uint64,
	queryArea func(geom.Point, float64) []hydrology.Edge,
) bool {
	if !(sh.DistanceToShore(p.X, p.Y) > params.Sigma*params.EdgeLength) {
		return false
	}

	minSpacing := params.Eta * params.EdgeLength

	for _, id := range searchNodes(p, searchRadius) {
		if id == ignoreNodeID {
			continue
		}
		node := net.GetNode(id)
		if node == nil {
			continue
		}
		if geom.Distance(node.Loc, p) < minSpacing {
			return false
		}
	}

	for _, edge := range queryArea(p, searchRadius) {
		if edge.Child == ignoreNodeID || edge.Parent == ignoreNodeID {
			continue
		}
		childNode := net.GetNode(edge.Child)
		parentNode := net.GetNode(edge.Parent)
		if childNode == nil || parentNode == nil {
			continue
		}
		res := geom.PointToSegment(p, childNode.Loc, parentNode.Loc)
		if res.Dist < minSpacing {
			return false
		}
	}

	if !net.ContainsStrict(p) {
		return false
	}

	return true
}

// PickNewNodeLoc proposes a child position for parent: it perturbs the
// extension heading by a Gaussian draw, advances by EdgeLength, and
// retries (up to MaxTries) until the candidate passes
// IsAcceptablePositionLocked, returning the accepted point together with
// the area lock acquired over its search square. The caller must Release
// the lock once finished with it (whether or not insertion follows).
//
// The acceptance check runs under the same AreaLock used to guard the
// insertion that follows, via IsAcceptablePositionLocked rather than
// IsAcceptablePosition — the self-locking form would reenter the writer
// lock this goroutine already holds on the candidate's own tile and block
// forever.
//
// Returns ok=false if MaxTries is exhausted without finding an acceptable
// position; that child is then silently dropped by the caller.
func PickNewNodeLoc(rng *rand.Rand, net *hydrology.Network, sh *shore.Shore, parent *hydrology.Node, params Params) (geom.Point, *hydrology.AreaLock, bool) {
	heading := headingFor(net, sh, parent)
	searchRadius := 2 * params.EdgeLength

	for try := 0; try < params.MaxTries; try++ {
		theta := heading + rng.NormFloat64()*params.RiverAngleDev
		candidate := parent.Loc.Add(geom.Point{X: math.Cos(theta), Y: math.Sin(theta)}.Scale(params.EdgeLength))

		areaLock := net.LockArea(candidate, searchRadius)
		if IsAcceptablePositionLocked(candidate, searchRadius, parent.ID, net, sh, params) {
			return candidate, areaLock, true
		}
		areaLock.Release()
	}

	return geom.Point{}, nil, false
}

// SlopeSampler is the subset of raster.SlopeRaster that Alpha needs, kept
// as an interface so tests can substitute a fixed-value stub.
type SlopeSampler interface {
	Sample(p geom.Point) float64
}

var _ SlopeSampler = (*raster.SlopeRaster)(nil)

// branchMode is the result of rolling the weighted branching decision.
type branchMode int

const (
	branchTwoChildren branchMode = iota
	branchContinuation
	branchTerminate
)

func rollBranchMode(rng *rand.Rand, params Params) branchMode {
	r := rng.Float64()
	switch {
	case r < params.Pa:
		return branchTwoChildren
	case r < params.Pa+params.Pc:
		return branchContinuation
	default:
		return branchTerminate
	}
}

// Alpha performs one expansion step on the selected node: it rolls a
// branching mode, proposes 0, 1, or 2 children via PickNewNodeLoc, inserts
// whichever succeed as regular nodes, and returns the resulting candidates
// for the caller to push onto the candidate set.
//
// Each accepted child is inserted via AddRegularNodeLocked while
// PickNewNodeLoc's area lock is still held, so the position search and the
// insertion that follows it form one atomic critical section; the lock is
// only released once the insert (or its failure) is known.
func Alpha(rng *rand.Rand, net *hydrology.Network, sh *shore.Shore, slope SlopeSampler, selected Candidate, params Params) []Candidate {
	parent := net.GetNode(selected.NodeID)
	if parent == nil {
		return nil
	}

	numChildren := 0
	switch rollBranchMode(rng, params) {
	case branchTwoChildren:
		numChildren = 2
	case branchContinuation:
		numChildren = 1
	case branchTerminate:
		numChildren = 0
	}

	var children []Candidate
	for i := 0; i < numChildren; i++ {
		p, lock, ok := PickNewNodeLoc(rng, net, sh, parent, params)
		if !ok {
			continue
		}

		elevation := parent.Elevation + params.EdgeLength*slope.Sample(p)*params.SlopeRate
		childID, err := net.AddRegularNodeLocked(p, elevation, selected.Priority, parent.ID)
		lock.Release()
		if err != nil {
			continue
		}

		children = append(children, Candidate{NodeID: childID, Priority: selected.Priority, Elevation: elevation})
	}

	return children
}
