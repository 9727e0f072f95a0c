package store

import (
	"fmt"

	"github.com/talgya/terrain-hydrology/internal/geom"
	"github.com/talgya/terrain-hydrology/internal/raster"
)

// SetParam upserts one Parameters key/value row. Exposed for fixture
// seeding and tests; production stores are normally seeded externally.
func (s *Store) SetParam(key string, value float64) error {
	_, err := s.conn.Exec(
		"INSERT INTO parameters (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, fmt.Sprintf("%g", value),
	)
	return err
}

// SeedSlope writes a dense slope raster into RiverSlope as sparse
// (x, y, slope) rows.
func (s *Store) SeedSlope(r *raster.SlopeRaster) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM river_slope"); err != nil {
		return err
	}

	stmt, err := tx.Preparex("INSERT INTO river_slope (x, y, slope) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			if _, err := stmt.Exec(x, y, r.CellAt(x, y)); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// SeedShore writes an ordered shoreline polyline.
func (s *Store) SeedShore(vertices []geom.Point) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM shoreline"); err != nil {
		return err
	}

	stmt, err := tx.Preparex("INSERT INTO shoreline (id, x, y) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, v := range vertices {
		if _, err := stmt.Exec(i, v.X, v.Y); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SeedGrowthMouth inserts one RiverNodes growth-input seed row (a mouth
// with no parent).
func (s *Store) SeedGrowthMouth(id, priority, contourIndex int, loc geom.Point) error {
	_, err := s.conn.Exec(
		"INSERT INTO river_nodes (id, parent, priority, contour_index, x, y) VALUES (?, NULL, ?, ?, ?, ?)",
		id, priority, contourIndex, loc.X, loc.Y,
	)
	return err
}
