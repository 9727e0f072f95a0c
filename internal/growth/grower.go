package growth

import (
	"math/rand"
	"sync"

	"github.com/talgya/terrain-hydrology/internal/hydrology"
	"github.com/talgya/terrain-hydrology/internal/shore"
)

// candidateSet is the shared, mutex-guarded pool of nodes eligible for
// further expansion. outstanding tracks candidates that are
// either sitting in items or are currently being processed by a worker's
// Alpha call; the pool is exhausted only when outstanding reaches zero, so
// a worker that finds items empty but outstanding > 0 waits rather than
// exiting (another worker may still push new candidates).
type candidateSet struct {
	mu          sync.Mutex
	cond        *sync.Cond
	items       []Candidate
	outstanding int64
}

func newCandidateSet(seed []Candidate) *candidateSet {
	cs := &candidateSet{items: append([]Candidate(nil), seed...), outstanding: int64(len(seed))}
	cs.cond = sync.NewCond(&cs.mu)
	return cs
}

// take blocks until either a candidate is available or the pool is
// permanently exhausted (ok=false).
func (cs *candidateSet) take(zeta float64) (Candidate, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for len(cs.items) == 0 && cs.outstanding > 0 {
		cs.cond.Wait()
	}
	if cs.outstanding <= 0 {
		return Candidate{}, false
	}

	idx := SelectNode(cs.items, zeta)
	c := cs.items[idx]
	cs.items = append(cs.items[:idx], cs.items[idx+1:]...)
	return c, true
}

// complete reports that the candidate taken earlier finished processing,
// yielding children new candidates, and wakes any worker waiting for work
// or for the pool's final exhaustion.
func (cs *candidateSet) complete(children []Candidate) {
	cs.mu.Lock()
	cs.items = append(cs.items, children...)
	cs.outstanding += int64(len(children)) - 1
	cs.mu.Unlock()
	cs.cond.Broadcast()
}

// Grow runs the parallel growth loop over the seeded mouth candidates until
// the candidate set is exhausted, using numWorkers goroutines. Each worker
// owns its own *rand.Rand, seeded deterministically from seed plus the
// worker's index, so no lock is needed around random draws.
//
// onProgress, if non-nil, is invoked once per processed candidate (used by
// callers to emit a progress marker); it must be safe to call concurrently
// from multiple goroutines.
func Grow(net *hydrology.Network, sh *shore.Shore, slope SlopeSampler, mouths []Candidate, params Params, numWorkers int, seed int64, onProgress func()) {
	if numWorkers < 1 {
		numWorkers = 1
	}

	cs := newCandidateSet(mouths)

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(workerIdx int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed + int64(workerIdx)))

			for {
				c, ok := cs.take(params.Zeta)
				if !ok {
					return
				}

				children := Alpha(rng, net, sh, slope, c, params)
				cs.complete(children)

				if onProgress != nil {
					onProgress()
				}
			}
		}(w)
	}
	wg.Wait()
}
