package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"time"

	"github.com/qrv0/csrmv/internal/downloader"
	"github.com/qrv0/csrmv/internal/runerr"
)

func cmdPull(args []string, stdout io.Writer) error {
	fs := newFlagSet("pull")
	dir := fs.String("dir", ".", "destination directory")
	timeout := fs.Duration("timeout", 10*time.Minute, "download timeout")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("pull: %v: %w", err, runerr.ErrUsage)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("pull: expected one url: %w", runerr.ErrUsage)
	}
	raw := fs.Arg(0)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("pull: invalid url %q: %w", raw, runerr.ErrUsage)
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return fmt.Errorf("pull: url %q has no file name: %w", raw, runerr.ErrUsage)
	}
	out := filepath.Join(*dir, name)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	n, err := downloader.Download(ctx, nil, raw, out)
	if err != nil {
		return fmt.Errorf("pull: %w", err)
	}
	fmt.Fprintf(stdout, "Downloaded: %s (%d bytes)\n", out, n)
	return nil
}
