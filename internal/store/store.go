// Package store is the SQLite-backed spatial database that the growth and
// elevation stages read their inputs from and write their outputs to:
// Parameters, RiverSlope, Shoreline, RiverNodes, Rivers, Qs, Ridges, Cells,
// and Ts.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/terrain-hydrology/internal/geom"
	"github.com/talgya/terrain-hydrology/internal/growth"
	"github.com/talgya/terrain-hydrology/internal/honeycomb"
	"github.com/talgya/terrain-hydrology/internal/hydrology"
	"github.com/talgya/terrain-hydrology/internal/raster"
	"github.com/talgya/terrain-hydrology/internal/shore"
	"github.com/talgya/terrain-hydrology/internal/terrain"
)

// Store wraps a SQLite connection holding one world's growth/elevation
// tables.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates the database at path and ensures its schema exists.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// StampRun records a fresh run id for the given stage ("growth" or
// "elevation") in world_meta, for diagnosing which binary invocation
// produced the data currently in the store.
func (s *Store) StampRun(stage string) (string, error) {
	runID := uuid.NewString()
	_, err := s.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		"last_run_"+stage, runID,
	)
	if err != nil {
		return "", fmt.Errorf("store: stamp run: %w", err)
	}
	return runID, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS parameters (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS river_slope (
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		slope REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shoreline (
		id INTEGER PRIMARY KEY,
		x REAL NOT NULL,
		y REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS river_nodes (
		id INTEGER PRIMARY KEY,
		parent INTEGER,
		priority INTEGER,
		contour_index INTEGER NOT NULL DEFAULT -1,
		x REAL NOT NULL,
		y REAL NOT NULL,
		elevation REAL,
		local_watershed REAL,
		inherited_watershed REAL,
		flow REAL
	);

	CREATE TABLE IF NOT EXISTS rivers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		node_id INTEGER NOT NULL,
		polyline_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS qs (
		id INTEGER PRIMARY KEY,
		x REAL NOT NULL,
		y REAL NOT NULL,
		elevation REAL NOT NULL,
		adjacent_cells_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ridges (
		id INTEGER PRIMARY KEY,
		q0_id INTEGER NOT NULL,
		q1_id INTEGER
	);

	CREATE TABLE IF NOT EXISTS cells (
		cell_id INTEGER NOT NULL,
		ridge_id INTEGER NOT NULL,
		ord INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ts (
		id INTEGER PRIMARY KEY,
		x REAL NOT NULL,
		y REAL NOT NULL,
		cell_id INTEGER NOT NULL,
		elevation REAL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_river_nodes_parent ON river_nodes(parent);
	CREATE INDEX IF NOT EXISTS idx_rivers_node ON rivers(node_id);
	CREATE INDEX IF NOT EXISTS idx_cells_cell ON cells(cell_id, ord);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Params is the subset of the Parameters table the growth and elevation
// stages both need.
type Params struct {
	MinX, MaxX, MinY, MaxY float64
	EdgeLength             float64
	Resolution             float64
}

// LoadParams reads every row of the Parameters key/value table.
func (s *Store) LoadParams() (Params, error) {
	rows := map[string]float64{}
	var kvs []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := s.conn.Select(&kvs, "SELECT key, value FROM parameters"); err != nil {
		return Params{}, fmt.Errorf("store: load parameters: %w", err)
	}
	for _, kv := range kvs {
		var f float64
		if _, err := fmt.Sscanf(kv.Value, "%g", &f); err != nil {
			return Params{}, fmt.Errorf("store: parameter %q is not numeric: %w", kv.Key, err)
		}
		rows[kv.Key] = f
	}

	required := []string{"minX", "maxX", "minY", "maxY", "edgeLength", "resolution"}
	for _, key := range required {
		if _, ok := rows[key]; !ok {
			return Params{}, fmt.Errorf("store: missing required parameter %q", key)
		}
	}

	return Params{
		MinX: rows["minX"], MaxX: rows["maxX"],
		MinY: rows["minY"], MaxY: rows["maxY"],
		EdgeLength: rows["edgeLength"], Resolution: rows["resolution"],
	}, nil
}

// LoadSlopeRaster reconstructs the dense river-slope raster from its sparse
// row representation, sizing the grid from MAX(x)+1, MAX(y)+1.
func (s *Store) LoadSlopeRaster(resolution float64) (*raster.SlopeRaster, error) {
	var rows []struct {
		X     int     `db:"x"`
		Y     int     `db:"y"`
		Slope float64 `db:"slope"`
	}
	if err := s.conn.Select(&rows, "SELECT x, y, slope FROM river_slope"); err != nil {
		return nil, fmt.Errorf("store: load river slope: %w", err)
	}
	if len(rows) == 0 {
		return raster.New(nil, resolution), nil
	}

	width, height := 0, 0
	for _, r := range rows {
		if r.X+1 > width {
			width = r.X + 1
		}
		if r.Y+1 > height {
			height = r.Y + 1
		}
	}

	cells := make([][]float64, height)
	for y := range cells {
		cells[y] = make([]float64, width)
	}
	for _, r := range rows {
		cells[r.Y][r.X] = r.Slope
	}

	return raster.New(cells, resolution), nil
}

// LoadShore reads the ordered shoreline polyline.
func (s *Store) LoadShore() (*shore.Shore, error) {
	var rows []struct {
		X float64 `db:"x"`
		Y float64 `db:"y"`
	}
	if err := s.conn.Select(&rows, "SELECT x, y FROM shoreline ORDER BY id"); err != nil {
		return nil, fmt.Errorf("store: load shoreline: %w", err)
	}

	verts := make([]geom.Point, len(rows))
	for i, r := range rows {
		verts[i] = geom.Point{X: r.X, Y: r.Y}
	}
	return shore.New(verts), nil
}

// LoadGrowthSeeds reads the RiverNodes growth-input rows (seed mouths) and
// registers them as mouth nodes in net, returning a candidate per seed
// ready to hand to growth.Grow.
func (s *Store) LoadGrowthSeeds(net *hydrology.Network) ([]growth.Candidate, error) {
	var rows []struct {
		ID           int64   `db:"id"`
		Priority     int     `db:"priority"`
		ContourIndex int     `db:"contour_index"`
		X            float64 `db:"x"`
		Y            float64 `db:"y"`
	}
	if err := s.conn.Select(&rows, "SELECT id, priority, contour_index, x, y FROM river_nodes WHERE parent IS NULL ORDER BY id"); err != nil {
		return nil, fmt.Errorf("store: load growth seeds: %w", err)
	}

	candidates := make([]growth.Candidate, 0, len(rows))
	for _, r := range rows {
		loc := geom.Point{X: r.X, Y: r.Y}
		id := net.AddMouthNode(loc, 0, r.Priority, r.ContourIndex)
		candidates = append(candidates, growth.Candidate{NodeID: id, Priority: r.Priority, Elevation: 0})
	}
	return candidates, nil
}

// SaveGrowthOutput truncates RiverNodes and inserts one row per node in the
// grown network, using each mouth's own id as its "parent" column value
// (the parent-or-self convention used throughout this store).
func (s *Store) SaveGrowthOutput(net *hydrology.Network) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return fmt.Errorf("store: begin growth output: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM river_nodes"); err != nil {
		return fmt.Errorf("store: truncate river_nodes: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT INTO river_nodes
		(id, parent, contour_index, x, y, elevation)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare river_nodes insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range net.AllNodes() {
		parent := n.ID
		if n.ParentID != nil {
			parent = *n.ParentID
		}
		if _, err := stmt.Exec(n.ID, parent, n.ContourIndex, n.Loc.X, n.Loc.Y, n.Elevation); err != nil {
			return fmt.Errorf("store: insert river_node %d: %w", n.ID, err)
		}
	}

	slog.Info("wrote growth output", "nodes", net.NumNodes())
	return tx.Commit()
}

// LoadElevationInput reads the full RiverNodes (elevation-input variant)
// plus Rivers into net, and the Qs/Edges/Cells tables into a Honeycomb.
func (s *Store) LoadElevationInput(net *hydrology.Network, hc *honeycomb.Honeycomb) error {
	var nodeRows []struct {
		ID                 int64           `db:"id"`
		Parent             sql.NullInt64   `db:"parent"`
		X                  float64         `db:"x"`
		Y                  float64         `db:"y"`
		Elevation          float64         `db:"elevation"`
		ContourIndex       int             `db:"contour_index"`
		LocalWatershed     sql.NullFloat64 `db:"local_watershed"`
		InheritedWatershed sql.NullFloat64 `db:"inherited_watershed"`
		Flow               sql.NullFloat64 `db:"flow"`
	}
	if err := s.conn.Select(&nodeRows, "SELECT id, parent, x, y, elevation, contour_index, local_watershed, inherited_watershed, flow FROM river_nodes ORDER BY id"); err != nil {
		return fmt.Errorf("store: load elevation-input nodes: %w", err)
	}

	rivers, err := s.loadRiversByNode()
	if err != nil {
		return err
	}

	for _, r := range nodeRows {
		loc := geom.Point{X: r.X, Y: r.Y}
		polylines := rivers[uint64(r.ID)]

		isMouth := !r.Parent.Valid || r.Parent.Int64 == r.ID
		if isMouth {
			id := net.DumpMouthNode(loc, r.Elevation, r.ContourIndex, polylines, r.LocalWatershed.Float64, r.InheritedWatershed.Float64, r.Flow.Float64)
			if int64(id) != r.ID {
				return fmt.Errorf("store: river_nodes must be dumped in id order, expected %d got %d", r.ID, id)
			}
			continue
		}

		id, err := net.DumpRegularNode(loc, r.Elevation, uint64(r.Parent.Int64), polylines, r.LocalWatershed.Float64, r.InheritedWatershed.Float64, r.Flow.Float64)
		if err != nil {
			return fmt.Errorf("store: dump river_node %d: %w", r.ID, err)
		}
		if int64(id) != r.ID {
			return fmt.Errorf("store: river_nodes must be dumped in id order, expected %d got %d", r.ID, id)
		}
	}

	return s.loadHoneycomb(hc)
}

func (s *Store) loadRiversByNode() (map[uint64][]hydrology.RiverPolyline, error) {
	var rows []struct {
		NodeID       int64  `db:"node_id"`
		PolylineJSON string `db:"polyline_json"`
	}
	if err := s.conn.Select(&rows, "SELECT node_id, polyline_json FROM rivers ORDER BY id"); err != nil {
		return nil, fmt.Errorf("store: load rivers: %w", err)
	}

	out := make(map[uint64][]hydrology.RiverPolyline)
	for _, r := range rows {
		var polyline hydrology.RiverPolyline
		if err := json.Unmarshal([]byte(r.PolylineJSON), &polyline); err != nil {
			return nil, fmt.Errorf("store: decode polyline for node %d: %w", r.NodeID, err)
		}
		out[uint64(r.NodeID)] = append(out[uint64(r.NodeID)], polyline)
	}
	return out, nil
}

func (s *Store) loadHoneycomb(hc *honeycomb.Honeycomb) error {
	var qRows []struct {
		ID                int64   `db:"id"`
		X                 float64 `db:"x"`
		Y                 float64 `db:"y"`
		Elevation         float64 `db:"elevation"`
		AdjacentCellsJSON string  `db:"adjacent_cells_json"`
	}
	if err := s.conn.Select(&qRows, "SELECT id, x, y, elevation, adjacent_cells_json FROM qs ORDER BY id"); err != nil {
		return fmt.Errorf("store: load qs: %w", err)
	}
	for _, r := range qRows {
		var cells []uint64
		if err := json.Unmarshal([]byte(r.AdjacentCellsJSON), &cells); err != nil {
			return fmt.Errorf("store: decode adjacent cells for q %d: %w", r.ID, err)
		}
		hc.DumpQ(uint64(r.ID), geom.Point{X: r.X, Y: r.Y}, r.Elevation, cells)
	}

	var ridgeRows []struct {
		ID  int64         `db:"id"`
		Q0  int64         `db:"q0_id"`
		Q1  sql.NullInt64 `db:"q1_id"`
	}
	if err := s.conn.Select(&ridgeRows, "SELECT id, q0_id, q1_id FROM ridges ORDER BY id"); err != nil {
		return fmt.Errorf("store: load ridges: %w", err)
	}
	for _, r := range ridgeRows {
		hc.DumpRidge(uint64(r.ID), uint64(r.Q0), uint64(r.Q1.Int64), r.Q1.Valid)
	}

	var cellRows []struct {
		CellID  int64 `db:"cell_id"`
		RidgeID int64 `db:"ridge_id"`
	}
	if err := s.conn.Select(&cellRows, "SELECT cell_id, ridge_id FROM cells ORDER BY cell_id, ord"); err != nil {
		return fmt.Errorf("store: load cells: %w", err)
	}
	for _, r := range cellRows {
		hc.DumpCellRidge(uint64(r.CellID), uint64(r.RidgeID))
	}

	return nil
}

// LoadTerrainSamples reads the Ts table into a Samples collection.
func (s *Store) LoadTerrainSamples() (*terrain.Samples, error) {
	var rows []struct {
		ID     int64   `db:"id"`
		X      float64 `db:"x"`
		Y      float64 `db:"y"`
		CellID int64   `db:"cell_id"`
	}
	if err := s.conn.Select(&rows, "SELECT id, x, y, cell_id FROM ts ORDER BY id"); err != nil {
		return nil, fmt.Errorf("store: load ts: %w", err)
	}

	samples := terrain.NewSamples()
	for _, r := range rows {
		id := samples.DumpT(geom.Point{X: r.X, Y: r.Y}, uint64(r.CellID))
		if int64(id) != r.ID {
			return nil, fmt.Errorf("store: ts must be dumped in id order, expected %d got %d", r.ID, id)
		}
	}
	return samples, nil
}

// SaveElevationOutput writes every computed sample's elevation back to Ts,
// keyed by id.
func (s *Store) SaveElevationOutput(samples *terrain.Samples) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return fmt.Errorf("store: begin elevation output: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex("UPDATE ts SET elevation = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("store: prepare ts update: %w", err)
	}
	defer stmt.Close()

	all := samples.All()
	for i, t := range all {
		if _, err := stmt.Exec(t.Elevation, i); err != nil {
			return fmt.Errorf("store: update ts %d: %w", i, err)
		}
	}

	slog.Info("wrote elevation output", "samples", len(all))
	return tx.Commit()
}
