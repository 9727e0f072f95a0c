// Command seedfixture populates a SQLite store with a synthetic world (a
// hexagonal coastline and opensimplex-derived slope raster) for manual
// exploration of cmd/grower and cmd/elevator without a hand-authored
// database.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/talgya/terrain-hydrology/internal/fixture"
	"github.com/talgya/terrain-hydrology/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: seedfixture <db-path>")
		os.Exit(1)
	}

	seed := int64(1)
	if env := os.Getenv("SEEDFIXTURE_SEED"); env != "" {
		if v, err := strconv.ParseInt(env, 10, 64); err == nil {
			seed = v
		}
	}

	if err := run(os.Args[1], seed); err != nil {
		slog.Error("seedfixture failed", "error", err)
		os.Exit(1)
	}
}

func run(dbPath string, seed int64) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	world := fixture.New(seed, 10000, 50, 250)

	mouths := make([]fixture.MouthSeed, len(world.Shore))
	for i := range world.Shore {
		mouths[i] = fixture.MouthSeed{ContourIndex: i, Priority: 1}
	}

	if err := fixture.SeedStore(s, world, mouths); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}

	slog.Info("fixture written", "db", dbPath, "mouths", len(mouths))
	return nil
}
