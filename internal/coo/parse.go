// Package coo reads sparse matrices in coordinate form from text inputs.
//
// An input holds a header line "n nnz", then nnz lines "row col value" with
// 0-based indices, then n lines with one vector element each. Comments start
// with '#' and run to the end of the line.
package coo

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/qrv0/csrmv/internal/config"
	"github.com/qrv0/csrmv/internal/runerr"
)

// Triplet is one stored entry of a COO matrix.
type Triplet struct {
	Row, Col int
	Value    float64
}

// Problem is a parsed input: an n×n matrix in COO form and a dense vector.
// Triplets keep input order and duplicates are not merged.
type Problem struct {
	N, NNZ   int
	Triplets []Triplet
	Vector   []float64
}

// Parse reads a complete problem from r. Buffers are sized to the declared
// dimensions after they have been checked against lim. Every row and column
// index is checked against n.
func Parse(r io.Reader, lim config.Limits) (*Problem, error) {
	lr := NewLineReader(r)

	line, ok := lr.Next()
	if !ok {
		return nil, missing(lr, "dimension line \"n nnz\" not found")
	}
	n, nnz, err := parseHeader(line)
	if err != nil {
		return nil, fmt.Errorf("line %d: %v: %w", lr.Line(), err, runerr.ErrInputFormat)
	}
	if n > lim.MaxN || nnz > lim.MaxNNZ {
		return nil, fmt.Errorf("n=%d nnz=%d exceed the limits (%d and %d): %w",
			n, nnz, lim.MaxN, lim.MaxNNZ, runerr.ErrCapacityExceeded)
	}

	p := &Problem{N: n, NNZ: nnz}
	if p.Triplets, err = makeSlice[Triplet](nnz); err != nil {
		return nil, err
	}
	if p.Vector, err = makeSlice[float64](n); err != nil {
		return nil, err
	}

	for i := 0; i < nnz; i++ {
		line, ok := lr.Next()
		if !ok {
			return nil, missing(lr, fmt.Sprintf("nonzero element %d not found", i))
		}
		t, err := parseTriplet(line, n)
		if err != nil {
			return nil, fmt.Errorf("line %d: nonzero element %d: %v: %w", lr.Line(), i, err, runerr.ErrInputFormat)
		}
		p.Triplets[i] = t
	}

	for i := 0; i < n; i++ {
		line, ok := lr.Next()
		if !ok {
			return nil, missing(lr, fmt.Sprintf("vector element %d not found", i))
		}
		f := strings.Fields(line)
		if len(f) != 1 {
			return nil, fmt.Errorf("line %d: vector element %d: want 1 value, got %d fields: %w",
				lr.Line(), i, len(f), runerr.ErrInputFormat)
		}
		v, err := strconv.ParseFloat(f[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: vector element %d: %v: %w", lr.Line(), i, err, runerr.ErrInputFormat)
		}
		p.Vector[i] = v
	}
	return p, nil
}

func missing(lr *LineReader, what string) error {
	if err := lr.Err(); err != nil {
		return fmt.Errorf("%s: read error after line %d: %v: %w", what, lr.Line(), err, runerr.ErrInputFormat)
	}
	return fmt.Errorf("%s: %w", what, runerr.ErrInputFormat)
}

func parseHeader(line string) (n, nnz int, err error) {
	f := strings.Fields(line)
	if len(f) != 2 {
		return 0, 0, fmt.Errorf("want \"n nnz\", got %d fields", len(f))
	}
	if n, err = strconv.Atoi(f[0]); err != nil {
		return 0, 0, err
	}
	if nnz, err = strconv.Atoi(f[1]); err != nil {
		return 0, 0, err
	}
	if n < 0 || nnz < 0 {
		return 0, 0, fmt.Errorf("negative dimension n=%d nnz=%d", n, nnz)
	}
	return n, nnz, nil
}

func parseTriplet(line string, n int) (Triplet, error) {
	f := strings.Fields(line)
	if len(f) != 3 {
		return Triplet{}, fmt.Errorf("want \"row col value\", got %d fields", len(f))
	}
	row, err := strconv.Atoi(f[0])
	if err != nil {
		return Triplet{}, err
	}
	col, err := strconv.Atoi(f[1])
	if err != nil {
		return Triplet{}, err
	}
	v, err := strconv.ParseFloat(f[2], 64)
	if err != nil {
		return Triplet{}, err
	}
	if row < 0 || row >= n {
		return Triplet{}, fmt.Errorf("row %d outside [0, %d)", row, n)
	}
	if col < 0 || col >= n {
		return Triplet{}, fmt.Errorf("column %d outside [0, %d)", col, n)
	}
	return Triplet{Row: row, Col: col, Value: v}, nil
}

// makeSlice turns a failed allocation into ErrAllocation instead of a crash
// where the runtime allows it.
func makeSlice[T any](n int) (s []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("reserving %d elements: %v: %w", n, r, runerr.ErrAllocation)
		}
	}()
	return make([]T, n), nil
}
