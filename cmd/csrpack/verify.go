package main

import (
	"fmt"
	"io"

	"github.com/qrv0/csrmv/internal/runerr"
	"github.com/qrv0/csrmv/internal/snapshot"
)

func cmdVerify(args []string, stdout io.Writer) error {
	fs := newFlagSet("verify")
	in := fs.String("in", "", "input .csrx")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("verify: %v: %w", err, runerr.ErrUsage)
	}
	if *in == "" {
		return fmt.Errorf("verify: --in is required: %w", runerr.ErrUsage)
	}
	_, sections, err := snapshot.Verify(*in)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	okAll := true
	for _, s := range sections {
		switch {
		case s.Err != nil:
			fmt.Fprintf(stdout, "section %s: %v\n", s.Name, s.Err)
			okAll = false
		case len(s.BadChunks) > 0:
			for _, c := range s.BadChunks {
				fmt.Fprintf(stdout, "section %s: chunk %d mismatch\n", s.Name, c)
			}
			okAll = false
		}
	}
	if !okAll {
		return errVerifyFailed
	}
	fmt.Fprintln(stdout, "checksum verify: OK")
	return nil
}
