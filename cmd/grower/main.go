// Command grower grows a river network inward from a coastline, reading
// its seed mouths and terrain inputs from a SQLite store and writing the
// resulting node tree back to it.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/talgya/terrain-hydrology/internal/config"
	"github.com/talgya/terrain-hydrology/internal/entropy"
	"github.com/talgya/terrain-hydrology/internal/geom"
	"github.com/talgya/terrain-hydrology/internal/growth"
	"github.com/talgya/terrain-hydrology/internal/hydrology"
	"github.com/talgya/terrain-hydrology/internal/progress"
	"github.com/talgya/terrain-hydrology/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(os.Args[1:]); err != nil {
		var invalid *config.InvalidError
		if errors.As(err, &invalid) {
			fmt.Fprintln(os.Stderr, err)
		} else {
			slog.Error("grower failed", "error", err)
		}
		os.Exit(1)
	}
}

func run(argv []string) error {
	cfg, err := config.ParseGrower(argv)
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	runID, err := s.StampRun("growth")
	if err != nil {
		return err
	}
	slog.Info("starting growth run", "run_id", runID)

	dbParams, err := s.LoadParams()
	if err != nil {
		return fmt.Errorf("load parameters: %w", err)
	}
	params := cfg.Params
	params.EdgeLength = dbParams.EdgeLength
	params.Resolution = dbParams.Resolution

	slopeRaster, err := s.LoadSlopeRaster(dbParams.Resolution)
	if err != nil {
		return fmt.Errorf("load slope raster: %w", err)
	}
	sh, err := s.LoadShore()
	if err != nil {
		return fmt.Errorf("load shore: %w", err)
	}

	net := hydrology.New(
		geom.Point{X: dbParams.MinX, Y: dbParams.MinY},
		geom.Point{X: dbParams.MaxX, Y: dbParams.MaxY},
		params.EdgeLength,
	)

	mouths, err := s.LoadGrowthSeeds(net)
	if err != nil {
		return fmt.Errorf("load growth seeds: %w", err)
	}

	randomOrgClient := entropy.NewClient(os.Getenv("RANDOM_ORG_API_KEY"))
	seed := entropy.SeedFromSource(randomOrgClient)

	reporter := progress.New(os.Stdout, len(mouths))
	growth.Grow(net, sh, slopeRaster, mouths, params, numWorkers(), seed, reporter.Tick)
	reporter.Done()

	if err := s.SaveGrowthOutput(net); err != nil {
		return fmt.Errorf("save growth output: %w", err)
	}

	slog.Info("growth complete", "nodes", net.NumNodes())
	return nil
}

// numWorkers defaults to 4; set GROWER_WORKERS to override for benchmarking
// or constrained environments.
func numWorkers() int {
	n, err := strconv.Atoi(os.Getenv("GROWER_WORKERS"))
	if err != nil || n <= 0 {
		return 4
	}
	return n
}
