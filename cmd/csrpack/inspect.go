package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/qrv0/csrmv/internal/config"
	"github.com/qrv0/csrmv/internal/runerr"
	"github.com/qrv0/csrmv/internal/snapshot"
)

// matrices up to this size are printed in full
const inspectDenseMax = 16

func cmdInspect(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("inspect: expected one .csrx file: %w", runerr.ErrUsage)
	}
	path := args[0]
	meta, sections, err := snapshot.Verify(path)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, "META:")
	fmt.Fprintln(stdout, string(b))
	fmt.Fprintln(stdout, "Sections:")
	for _, s := range sections {
		state := "ok"
		if !s.OK() {
			state = "CORRUPT"
		}
		fmt.Fprintf(stdout, "  %-9s stored=%d raw=%d chunks=%d %s\n", s.Name, s.StoredBytes, s.RawBytes, s.Chunks, state)
	}

	if meta.N == 0 || meta.N > inspectDenseMax {
		return nil
	}
	s, err := snapshot.Read(path, config.Limits{MaxN: meta.N, MaxNNZ: meta.NNZ})
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	fmt.Fprintf(stdout, "A =\n%v\n", mat.Formatted(s.Matrix.Dense(), mat.Squeeze()))
	fmt.Fprintf(stdout, "x =\n%v\n", mat.Formatted(mat.NewVecDense(len(s.Vector), s.Vector), mat.Squeeze()))
	return nil
}
