package coo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	lz4 "github.com/pierrec/lz4/v4"

	"github.com/qrv0/csrmv/internal/config"
	"github.com/qrv0/csrmv/internal/runerr"
)

// Compression is picked from the file extension: .zst for zstd, .lz4 for lz4.
type Compression int

const (
	CompNone Compression = iota
	CompZSTD
	CompLZ4
)

func CompressionOf(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return CompZSTD
	case ".lz4":
		return CompLZ4
	}
	return CompNone
}

type decodedFile struct {
	io.Reader
	dec func()
	f   *os.File
}

func (d *decodedFile) Close() error {
	if d.dec != nil {
		d.dec()
	}
	return d.f.Close()
}

// Open opens a text input, decompressing it on the fly when the extension
// asks for it. Failures are reported as runerr.ErrFileOpen.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, runerr.ErrFileOpen)
	}
	switch CompressionOf(path) {
	case CompZSTD:
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%s: zstd: %v: %w", path, err, runerr.ErrFileOpen)
		}
		return &decodedFile{Reader: dec, dec: dec.Close, f: f}, nil
	case CompLZ4:
		return &decodedFile{Reader: lz4.NewReader(f), f: f}, nil
	}
	return f, nil
}

type encodedFile struct {
	io.Writer
	enc io.Closer
	f   *os.File
}

func (e *encodedFile) Close() error {
	if e.enc != nil {
		if err := e.enc.Close(); err != nil {
			e.f.Close()
			return err
		}
	}
	return e.f.Close()
}

// Create is the writing counterpart of Open.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, runerr.ErrFileOpen)
	}
	switch CompressionOf(path) {
	case CompZSTD:
		enc, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &encodedFile{Writer: enc, enc: enc, f: f}, nil
	case CompLZ4:
		w := lz4.NewWriter(f)
		return &encodedFile{Writer: w, enc: w, f: f}, nil
	}
	return f, nil
}

// ReadFile opens and parses path in one go.
func ReadFile(path string, lim config.Limits) (*Problem, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Parse(rc, lim)
}
