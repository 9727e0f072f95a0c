// Package spatial implements the partitioned spatial index ("forest" of
// KD-trees) that backs concurrent river-network growth: a grid of tiles,
// each owning a KD-tree and a reader/writer lock, plus a multi-tile area
// lock that serializes read-then-insert critical sections across workers.
package spatial

import (
	"math"
	"sort"
	"sync"

	"github.com/talgya/terrain-hydrology/internal/geom"
	"github.com/talgya/terrain-hydrology/internal/kdtree"
)

// Tile owns a rectangle of the plane and the KD-tree indexing points within
// it, guarded by its own reader/writer lock.
type Tile struct {
	mu   sync.RWMutex
	tree *kdtree.Tree

	minX, minY, maxX, maxY float64
}

// Forest partitions a bounding box into a regular grid of tiles of side at
// most L, each independently lockable, and answers range queries across
// however many tiles a query square touches.
type Forest struct {
	lowerLeft, upperRight geom.Point
	tileSide              float64
	cols, rows            int
	tiles                 []*Tile
}

// New partitions [lowerLeft, upperRight] into a grid of tiles with edge
// length at most tileEdge.
func New(lowerLeft, upperRight geom.Point, tileEdge float64) *Forest {
	width := upperRight.X - lowerLeft.X
	height := upperRight.Y - lowerLeft.Y

	cols := int(math.Ceil(width / tileEdge))
	rows := int(math.Ceil(height / tileEdge))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	f := &Forest{
		lowerLeft:  lowerLeft,
		upperRight: upperRight,
		tileSide:   tileEdge,
		cols:       cols,
		rows:       rows,
	}

	colWidth := width / float64(cols)
	rowHeight := height / float64(rows)

	f.tiles = make([]*Tile, cols*rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			f.tiles[row*cols+col] = &Tile{
				tree: kdtree.New(),
				minX: lowerLeft.X + float64(col)*colWidth,
				minY: lowerLeft.Y + float64(row)*rowHeight,
				maxX: lowerLeft.X + float64(col+1)*colWidth,
				maxY: lowerLeft.Y + float64(row+1)*rowHeight,
			}
		}
	}

	return f
}

// tileIndexFor returns the row-major index of the tile containing p,
// clamping to the grid edges so points exactly on the upper bound still
// resolve to a tile.
func (f *Forest) tileIndexFor(p geom.Point) int {
	width := f.upperRight.X - f.lowerLeft.X
	height := f.upperRight.Y - f.lowerLeft.Y

	col := int((p.X - f.lowerLeft.X) / width * float64(f.cols))
	row := int((p.Y - f.lowerLeft.Y) / height * float64(f.rows))

	col = clamp(col, 0, f.cols-1)
	row = clamp(row, 0, f.rows-1)

	return row*f.cols + col
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// tilesIntersecting returns the row-major indices of every tile intersecting
// the square [center-radius, center+radius], in deterministic (ascending)
// order — the order required by AreaLock to avoid deadlock.
func (f *Forest) tilesIntersecting(center geom.Point, radius float64) []int {
	minCorner := geom.Point{X: center.X - radius, Y: center.Y - radius}
	maxCorner := geom.Point{X: center.X + radius, Y: center.Y + radius}

	minColIdx, minRowIdx := f.colRow(minCorner)
	maxColIdx, maxRowIdx := f.colRow(maxCorner)

	var indices []int
	for row := minRowIdx; row <= maxRowIdx; row++ {
		for col := minColIdx; col <= maxColIdx; col++ {
			indices = append(indices, row*f.cols+col)
		}
	}
	sort.Ints(indices)
	return indices
}

func (f *Forest) colRow(p geom.Point) (col, row int) {
	width := f.upperRight.X - f.lowerLeft.X
	height := f.upperRight.Y - f.lowerLeft.Y

	col = int((p.X - f.lowerLeft.X) / width * float64(f.cols))
	row = int((p.Y - f.lowerLeft.Y) / height * float64(f.rows))

	return clamp(col, 0, f.cols-1), clamp(row, 0, f.rows-1)
}

// Insert locates the tile containing point, takes its writer lock, and
// inserts payload into that tile's KD-tree.
//
// Insert must not be called on a tile already covered by an AreaLock held
// by the same goroutine: sync.RWMutex is not reentrant, so the goroutine
// would deadlock against its own held lock. Use InsertLocked instead when
// a covering AreaLock is already held.
func (f *Forest) Insert(point geom.Point, payload any) {
	tile := f.tiles[f.tileIndexFor(point)]
	tile.mu.Lock()
	defer tile.mu.Unlock()
	tile.tree.Insert(point, payload)
}

// InsertLocked inserts payload into the tile containing point without
// acquiring that tile's lock. The caller must already hold a covering
// AreaLock — from a prior call to AreaLock — spanning a square that
// contains point; this is how a worker that has already locked the area
// it searched turns that search into an atomic read-then-insert without
// re-locking (and self-deadlocking on) the same tile.
func (f *Forest) InsertLocked(point geom.Point, payload any) {
	tile := f.tiles[f.tileIndexFor(point)]
	tile.tree.Insert(point, payload)
}

// SearchRange returns the union of payloads, across every tile intersecting
// the query square, whose point falls within [center-radius, center+radius].
//
// SearchRange must not be called on a tile already covered by an AreaLock
// held by the same goroutine: taking a reader lock on a tile that
// goroutine already holds the writer lock on reenters a non-reentrant
// sync.RWMutex and blocks forever. Use SearchRangeLocked instead when a
// covering AreaLock is already held.
func (f *Forest) SearchRange(center geom.Point, radius float64) []any {
	var results []any
	for _, idx := range f.tilesIntersecting(center, radius) {
		tile := f.tiles[idx]
		tile.mu.RLock()
		results = append(results, tile.tree.SearchRange(center, radius)...)
		tile.mu.RUnlock()
	}
	return results
}

// SearchRangeLocked behaves like SearchRange, but does not acquire any
// tile's reader lock. The caller must already hold a covering AreaLock —
// typically the same lock it is about to insert under — spanning
// [center-radius, center+radius]; this is how a worker that holds the
// writer lock for an area can still query it, as part of one atomic
// search-then-insert critical section, without reentering the lock it
// already holds.
func (f *Forest) SearchRangeLocked(center geom.Point, radius float64) []any {
	var results []any
	for _, idx := range f.tilesIntersecting(center, radius) {
		tile := f.tiles[idx]
		results = append(results, tile.tree.SearchRange(center, radius)...)
	}
	return results
}

// AreaLock holds writer locks on every tile intersecting a query square.
// Release (or letting it be garbage collected after calling Release) drops
// all of them.
type AreaLock struct {
	tiles []*Tile
}

// AreaLock acquires writer locks, in deterministic row-major tile-index
// order, on every tile intersecting [center-radius, center+radius]. The
// deterministic order prevents deadlock between workers whose lock squares
// overlap in more than one tile.
func (f *Forest) AreaLock(center geom.Point, radius float64) *AreaLock {
	indices := f.tilesIntersecting(center, radius)
	lock := &AreaLock{tiles: make([]*Tile, 0, len(indices))}
	for _, idx := range indices {
		tile := f.tiles[idx]
		tile.mu.Lock()
		lock.tiles = append(lock.tiles, tile)
	}
	return lock
}

// Release unlocks every tile held by the area lock, in reverse acquisition
// order.
func (l *AreaLock) Release() {
	for i := len(l.tiles) - 1; i >= 0; i-- {
		l.tiles[i].mu.Unlock()
	}
	l.tiles = nil
}

// Bounds returns the forest's lower-left and upper-right corners.
func (f *Forest) Bounds() (lowerLeft, upperRight geom.Point) {
	return f.lowerLeft, f.upperRight
}

// Contains reports whether p lies within the forest's bounding box,
// inclusive of the boundary.
func (f *Forest) Contains(p geom.Point) bool {
	return p.X >= f.lowerLeft.X && p.X <= f.upperRight.X &&
		p.Y >= f.lowerLeft.Y && p.Y <= f.upperRight.Y
}

// ContainsStrict reports whether p lies strictly inside the forest's
// bounding box, excluding the boundary itself.
func (f *Forest) ContainsStrict(p geom.Point) bool {
	return p.X > f.lowerLeft.X && p.X < f.upperRight.X &&
		p.Y > f.lowerLeft.Y && p.Y < f.upperRight.Y
}
