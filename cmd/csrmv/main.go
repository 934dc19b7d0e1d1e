// Command csrmv multiplies a sparse matrix read from a COO text file (or a
// CSRX snapshot) by the dense vector stored with it, and appends the result
// and the multiplication time to results/results.txt and results/time.txt.
//
//	csrmv <input file>
//
// Limits and the output directory come from CSRMV_MAX_N, CSRMV_MAX_NNZ and
// CSRMV_RESULTS_DIR.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/qrv0/csrmv/internal/config"
	"github.com/qrv0/csrmv/internal/coo"
	"github.com/qrv0/csrmv/internal/csr"
	"github.com/qrv0/csrmv/internal/fileformat"
	"github.com/qrv0/csrmv/internal/report"
	"github.com/qrv0/csrmv/internal/runerr"
	"github.com/qrv0/csrmv/internal/snapshot"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("csrmv: ")
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, runerr.ErrUsage) {
			usage()
		}
		log.Print(err)
		os.Exit(runerr.ExitCode(err))
	}
}

func usage() {
	fmt.Println("usage: csrmv <input file>")
	fmt.Println("  input is a COO text file (optionally .zst or .lz4) or a .csrx snapshot")
}

func run(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one input file, got %d arguments: %w", len(args), runerr.ErrUsage)
	}
	path := args[0]
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	isSnapshot, err := fileformat.IsContainer(path)
	if err != nil {
		return fmt.Errorf("%v: %w", err, runerr.ErrFileOpen)
	}
	logs, err := report.Open(cfg.ResultsDir)
	if err != nil {
		return err
	}
	defer logs.Close()

	m, vec, err := load(path, isSnapshot, cfg.Limits)
	if err != nil {
		return err
	}

	var elapsed time.Duration
	result := csr.Timed(m, vec, func(d time.Duration) { elapsed = d })
	if err := logs.Write(stdout, path, result, elapsed); err != nil {
		return err
	}
	return logs.Close()
}

func load(path string, isSnapshot bool, lim config.Limits) (*csr.Matrix, []float64, error) {
	if isSnapshot {
		s, err := snapshot.Read(path, lim)
		if err != nil {
			return nil, nil, err
		}
		return s.Matrix, s.Vector, nil
	}
	p, err := coo.ReadFile(path, lim)
	if err != nil {
		return nil, nil, err
	}
	return csr.Build(p.N, p.Triplets), p.Vector, nil
}
