package main

import (
	"fmt"
	"io"

	"github.com/qrv0/csrmv/internal/config"
	"github.com/qrv0/csrmv/internal/coo"
	"github.com/qrv0/csrmv/internal/csr"
	"github.com/qrv0/csrmv/internal/runerr"
	"github.com/qrv0/csrmv/internal/snapshot"
)

func cmdPack(args []string, stdout io.Writer) error {
	fs := newFlagSet("pack")
	in := fs.String("in", "", "input COO text file (.zst/.lz4 accepted)")
	out := fs.String("out", "", "output .csrx")
	comp := fs.String("comp", "zstd", "section compression: zstd, lz4 or none")
	chunk := fs.Int("chunk", 0, "checksum chunk size in bytes (0 = 1 MiB)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("pack: %v: %w", err, runerr.ErrUsage)
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("pack: --in and --out are required: %w", runerr.ErrUsage)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	p, err := coo.ReadFile(*in, cfg.Limits)
	if err != nil {
		return err
	}
	m := csr.Build(p.N, p.Triplets)
	opt := snapshot.Options{Compression: *comp, ChunkSize: *chunk, Source: *in}
	if err := snapshot.Write(*out, m, p.Vector, opt); err != nil {
		return fmt.Errorf("pack: %w", err)
	}
	fmt.Fprintf(stdout, "Packed %s -> %s (n=%d nnz=%d)\n", *in, *out, m.N, m.NNZ())
	return nil
}
