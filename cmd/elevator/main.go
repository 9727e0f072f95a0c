// Command elevator assigns an elevation to every terrain sample in a store,
// interpolating between the nearest honeycomb ridge and the nearest river
// polyline.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/talgya/terrain-hydrology/internal/config"
	"github.com/talgya/terrain-hydrology/internal/geom"
	"github.com/talgya/terrain-hydrology/internal/honeycomb"
	"github.com/talgya/terrain-hydrology/internal/hydrology"
	"github.com/talgya/terrain-hydrology/internal/progress"
	"github.com/talgya/terrain-hydrology/internal/store"
	"github.com/talgya/terrain-hydrology/internal/terrain"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(os.Args[1:]); err != nil {
		var invalid *config.InvalidError
		if errors.As(err, &invalid) {
			fmt.Fprintln(os.Stderr, err)
		} else {
			slog.Error("elevator failed", "error", err)
		}
		os.Exit(1)
	}
}

func run(argv []string) error {
	cfg, err := config.ParseElevator(argv)
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	runID, err := s.StampRun("elevation")
	if err != nil {
		return err
	}
	slog.Info("starting elevation run", "run_id", runID)

	dbParams, err := s.LoadParams()
	if err != nil {
		return fmt.Errorf("load parameters: %w", err)
	}

	sh, err := s.LoadShore()
	if err != nil {
		return fmt.Errorf("load shore: %w", err)
	}

	net := hydrology.New(
		geom.Point{X: dbParams.MinX, Y: dbParams.MinY},
		geom.Point{X: dbParams.MaxX, Y: dbParams.MaxY},
		dbParams.EdgeLength,
	)
	hc := honeycomb.New()
	if err := s.LoadElevationInput(net, hc); err != nil {
		return fmt.Errorf("load elevation input: %w", err)
	}

	samples, err := s.LoadTerrainSamples()
	if err != nil {
		return fmt.Errorf("load terrain samples: %w", err)
	}

	reporter := progress.New(os.Stdout, samples.NumTs())
	for _, sample := range samples.All() {
		sample.Elevation = terrain.ComputeElevation(sample, net, hc, sh)
		sample.Computed = true
		reporter.Tick()
	}
	reporter.Done()

	if err := s.SaveElevationOutput(samples); err != nil {
		return fmt.Errorf("save elevation output: %w", err)
	}

	slog.Info("elevation complete", "samples", samples.NumTs())
	return nil
}
