package store

import (
	"testing"

	"github.com/talgya/terrain-hydrology/internal/geom"
	"github.com/talgya/terrain-hydrology/internal/hydrology"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStampRunRecordsDistinctIDsPerStage(t *testing.T) {
	s := openTestStore(t)

	growthID, err := s.StampRun("growth")
	if err != nil {
		t.Fatalf("StampRun(growth) failed: %v", err)
	}
	elevationID, err := s.StampRun("elevation")
	if err != nil {
		t.Fatalf("StampRun(elevation) failed: %v", err)
	}

	if growthID == "" || elevationID == "" {
		t.Fatalf("StampRun returned an empty id")
	}
	if growthID == elevationID {
		t.Errorf("StampRun produced the same id for two stages: %q", growthID)
	}

	var storedGrowth string
	if err := s.conn.Get(&storedGrowth, "SELECT value FROM world_meta WHERE key = 'last_run_growth'"); err != nil {
		t.Fatalf("read back last_run_growth: %v", err)
	}
	if storedGrowth != growthID {
		t.Errorf("world_meta last_run_growth = %q, want %q", storedGrowth, growthID)
	}
}

func TestLoadParamsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	rows := map[string]string{
		"minX": "-1000", "maxX": "1000",
		"minY": "-1000", "maxY": "1000",
		"edgeLength": "40", "resolution": "2",
	}
	for k, v := range rows {
		if _, err := s.conn.Exec("INSERT INTO parameters (key, value) VALUES (?, ?)", k, v); err != nil {
			t.Fatalf("seed parameter %s: %v", k, err)
		}
	}

	params, err := s.LoadParams()
	if err != nil {
		t.Fatalf("LoadParams failed: %v", err)
	}
	if params.EdgeLength != 40 || params.Resolution != 2 {
		t.Errorf("LoadParams = %+v, want edgeLength=40 resolution=2", params)
	}
	if params.MinX != -1000 || params.MaxX != 1000 {
		t.Errorf("LoadParams bounds = [%v,%v], want [-1000,1000]", params.MinX, params.MaxX)
	}
}

func TestLoadParamsMissingKeyErrors(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.LoadParams(); err == nil {
		t.Fatalf("expected an error when Parameters is empty")
	}
}

func TestLoadShoreOrdersByID(t *testing.T) {
	s := openTestStore(t)
	seed := []struct {
		id   int
		x, y float64
	}{
		{2, 10, 0}, {0, 0, 0}, {1, 5, 5},
	}
	for _, row := range seed {
		if _, err := s.conn.Exec("INSERT INTO shoreline (id, x, y) VALUES (?, ?, ?)", row.id, row.x, row.y); err != nil {
			t.Fatalf("seed shoreline row: %v", err)
		}
	}

	sh, err := s.LoadShore()
	if err != nil {
		t.Fatalf("LoadShore failed: %v", err)
	}
	if got := sh.At(1); got != (geom.Point{X: 5, Y: 5}) {
		t.Errorf("LoadShore did not order by id: At(1) = %v, want (5,5)", got)
	}
}

func TestGrowthSeedsAndOutputRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.conn.Exec(
		"INSERT INTO river_nodes (id, parent, priority, contour_index, x, y) VALUES (0, NULL, 1, 0, 100, 200)",
	); err != nil {
		t.Fatalf("seed growth input: %v", err)
	}

	net := hydrology.New(geom.Point{-10000, -10000}, geom.Point{10000, 10000}, 40)
	candidates, err := s.LoadGrowthSeeds(net)
	if err != nil {
		t.Fatalf("LoadGrowthSeeds failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].NodeID != 0 {
		t.Fatalf("LoadGrowthSeeds = %+v, want one candidate for node 0", candidates)
	}

	childID, err := net.AddRegularNode(geom.Point{140, 200}, 5, 1, 0)
	if err != nil {
		t.Fatalf("AddRegularNode: %v", err)
	}

	if err := s.SaveGrowthOutput(net); err != nil {
		t.Fatalf("SaveGrowthOutput failed: %v", err)
	}

	var rows []struct {
		ID     int64   `db:"id"`
		Parent int64   `db:"parent"`
		X      float64 `db:"x"`
	}
	if err := s.conn.Select(&rows, "SELECT id, parent, x FROM river_nodes ORDER BY id"); err != nil {
		t.Fatalf("read back river_nodes: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows after SaveGrowthOutput, got %d", len(rows))
	}
	if rows[0].Parent != 0 {
		t.Errorf("mouth row parent = %d, want 0 (self)", rows[0].Parent)
	}
	if rows[1].ID != int64(childID) || rows[1].Parent != 0 {
		t.Errorf("child row = %+v, want id=%d parent=0", rows[1], childID)
	}
}

func TestDumpNodesBinaryRecordsParentAndChildren(t *testing.T) {
	net := hydrology.New(geom.Point{-1000, -1000}, geom.Point{1000, 1000}, 40)
	mouth := net.AddMouthNode(geom.Point{0, 0}, 0, 1, 0)
	child, err := net.AddRegularNode(geom.Point{40, 0}, 1, 1, mouth)
	if err != nil {
		t.Fatalf("AddRegularNode: %v", err)
	}

	data, err := DumpNodesBinary(net)
	if err != nil {
		t.Fatalf("DumpNodesBinary failed: %v", err)
	}

	// mouth record: id(8) + parentId(8, self) + reserved(8) + numChildren(1) + 1 childId(8)
	wantMouthLen := 8 + 8 + 8 + 1 + 8
	if len(data) < wantMouthLen {
		t.Fatalf("dump too short: %d bytes", len(data))
	}

	gotMouthID := beUint64(data[0:8])
	gotParentID := beUint64(data[8:16])
	gotNumChildren := data[24]
	gotChildID := beUint64(data[25:33])

	if gotMouthID != mouth || gotParentID != mouth || gotNumChildren != 1 || gotChildID != child {
		t.Errorf("mouth record = id:%d parent:%d numChildren:%d child:%d, want id:%d parent:%d numChildren:1 child:%d",
			gotMouthID, gotParentID, gotNumChildren, gotChildID, mouth, mouth, child)
	}
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, byt := range b {
		v = v<<8 | uint64(byt)
	}
	return v
}
