// Package config holds the capacity limits and output locations of a run.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/qrv0/csrmv/internal/runerr"
)

const (
	DefaultMaxN       = 5000
	DefaultMaxNNZ     = 50_000_000
	DefaultResultsDir = "results"
)

// Environment variables read by FromEnv.
const (
	EnvMaxN       = "CSRMV_MAX_N"
	EnvMaxNNZ     = "CSRMV_MAX_NNZ"
	EnvResultsDir = "CSRMV_RESULTS_DIR"
)

// Limits bounds the dimensions accepted from an input file.
// Values exactly at the limit are accepted.
type Limits struct {
	MaxN   int
	MaxNNZ int
}

type Config struct {
	Limits     Limits
	ResultsDir string
}

func Default() Config {
	return Config{
		Limits:     Limits{MaxN: DefaultMaxN, MaxNNZ: DefaultMaxNNZ},
		ResultsDir: DefaultResultsDir,
	}
}

// FromEnv starts from Default and applies any CSRMV_* overrides.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	if v, ok := lookup(EnvMaxN); ok && v != "" {
		n, err := parseLimit(EnvMaxN, v)
		if err != nil {
			return c, err
		}
		c.Limits.MaxN = n
	}
	if v, ok := lookup(EnvMaxNNZ); ok && v != "" {
		n, err := parseLimit(EnvMaxNNZ, v)
		if err != nil {
			return c, err
		}
		c.Limits.MaxNNZ = n
	}
	if v, ok := lookup(EnvResultsDir); ok && v != "" {
		c.ResultsDir = v
	}
	return c, nil
}

func parseLimit(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s=%q: want a non-negative integer: %w", name, v, runerr.ErrUsage)
	}
	return n, nil
}
