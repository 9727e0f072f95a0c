// Package config parses and validates the two binaries' command-line
// arguments.
package config

import (
	"fmt"
	"strconv"

	"github.com/talgya/terrain-hydrology/internal/growth"
)

// InvalidError reports a missing or unparseable command-line argument.
type InvalidError struct {
	Usage string
	Err   error
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid arguments: %v\nusage: %s", e.Err, e.Usage)
}

func (e *InvalidError) Unwrap() error { return e.Err }

const growerUsage = "grower <db-path> <Pa> <Pc> <sigma> <eta> <zeta> <slopeRate> <maxTries> <riverAngleDev>"

// GrowerConfig is the parsed argument set for cmd/grower.
type GrowerConfig struct {
	DBPath string
	Params growth.Params
}

// ParseGrower parses argv (excluding the program name) into a GrowerConfig.
func ParseGrower(argv []string) (GrowerConfig, error) {
	if len(argv) != 9 {
		return GrowerConfig{}, &InvalidError{Usage: growerUsage, Err: fmt.Errorf("expected 9 arguments, got %d", len(argv))}
	}

	floats := make([]float64, 7)
	names := []string{"Pa", "Pc", "sigma", "eta", "zeta", "slopeRate", "riverAngleDev"}
	// positions: Pa(1) Pc(2) sigma(3) eta(4) zeta(5) slopeRate(6) maxTries(7) riverAngleDev(8)
	floatArgs := []string{argv[1], argv[2], argv[3], argv[4], argv[5], argv[6], argv[8]}
	for i, raw := range floatArgs {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return GrowerConfig{}, &InvalidError{Usage: growerUsage, Err: fmt.Errorf("%s: %w", names[i], err)}
		}
		floats[i] = f
	}

	maxTries, err := strconv.Atoi(argv[7])
	if err != nil {
		return GrowerConfig{}, &InvalidError{Usage: growerUsage, Err: fmt.Errorf("maxTries: %w", err)}
	}
	if maxTries <= 0 {
		return GrowerConfig{}, &InvalidError{Usage: growerUsage, Err: fmt.Errorf("maxTries must be positive, got %d", maxTries)}
	}

	return GrowerConfig{
		DBPath: argv[0],
		Params: growth.Params{
			Pa: floats[0], Pc: floats[1],
			Sigma: floats[2], Eta: floats[3], Zeta: floats[4],
			SlopeRate: floats[5], MaxTries: maxTries, RiverAngleDev: floats[6],
		},
	}, nil
}

const elevatorUsage = "elevator <db-path>"

// ElevatorConfig is the parsed argument set for cmd/elevator.
type ElevatorConfig struct {
	DBPath string
}

// ParseElevator parses argv (excluding the program name) into an
// ElevatorConfig.
func ParseElevator(argv []string) (ElevatorConfig, error) {
	if len(argv) != 1 {
		return ElevatorConfig{}, &InvalidError{Usage: elevatorUsage, Err: fmt.Errorf("expected 1 argument, got %d", len(argv))}
	}
	return ElevatorConfig{DBPath: argv[0]}, nil
}
