// Command gencoo writes a synthetic COO input file. Outputs ending in .zst
// or .lz4 are compressed on the fly.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/qrv0/csrmv/internal/coo"
	"github.com/qrv0/csrmv/internal/gen"
	"github.com/qrv0/csrmv/internal/runerr"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("gencoo: ")
	if err := run(os.Args[1:]); err != nil {
		log.Print(err)
		os.Exit(runerr.ExitCode(err))
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("gencoo", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	out := fs.String("out", "large_test.txt", "output path (.txt, .zst or .lz4)")
	n := fs.Int("n", 5000, "matrix dimension")
	nnz := fs.Int("nnz", 50000, "number of stored elements")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, "usage: gencoo [--n N] [--nnz NNZ] [--out FILE]")
		return fmt.Errorf("%v: %w", err, runerr.ErrUsage)
	}
	s := gen.Spec{N: *n, NNZ: *nnz}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, runerr.ErrUsage)
	}
	w, err := coo.Create(*out)
	if err != nil {
		return err
	}
	if err := gen.Write(w, s); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", *out, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", *out, err)
	}
	fmt.Printf("Wrote %s (n=%d nnz=%d)\n", *out, *n, *nnz)
	return nil
}
