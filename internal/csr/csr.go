// Package csr holds square sparse matrices in compressed sparse row form and
// the matrix-vector product over them.
//
// Entries of row i occupy positions [RowStart[i], RowStart[i+1]) of ColIndex
// and Values, in the order they were supplied to Build. Repeated (row, col)
// pairs are kept as separate entries; MulVec sums them like any other entry.
package csr

import (
	"errors"
	"fmt"
	"time"

	"github.com/qrv0/csrmv/internal/coo"
)

// ErrMalformed reports a Matrix whose arrays violate the CSR invariants.
var ErrMalformed = errors.New("csr: malformed matrix")

type Matrix struct {
	N        int
	RowStart []int // len N+1
	ColIndex []int // len nnz
	Values   []float64
}

// Build converts triplets of an n×n matrix with a stable counting sort by row.
// Every row must lie in [0, n); Build panics otherwise. Column indices are
// copied as given and are checked by the parser, not here.
func Build(n int, ts []coo.Triplet) *Matrix {
	if n < 0 {
		panic("csr: negative dimension")
	}
	for _, t := range ts {
		if t.Row < 0 || n <= t.Row {
			panic("csr: row index out of range")
		}
	}
	nnz := len(ts)

	rowStart := make([]int, n+1)
	for _, t := range ts {
		rowStart[t.Row]++
	}
	sum := 0
	for i := 0; i < n; i++ {
		c := rowStart[i]
		rowStart[i] = sum
		sum += c
	}
	rowStart[n] = sum

	cursor := make([]int, n+1)
	copy(cursor, rowStart)
	colIndex := make([]int, nnz)
	values := make([]float64, nnz)
	for _, t := range ts {
		pos := cursor[t.Row]
		colIndex[pos] = t.Col
		values[pos] = t.Value
		cursor[t.Row]++
	}
	return &Matrix{N: n, RowStart: rowStart, ColIndex: colIndex, Values: values}
}

func (m *Matrix) NNZ() int { return len(m.Values) }

// Row returns the stored column indices and values of row i. The slices alias m.
func (m *Matrix) Row(i int) (cols []int, vals []float64) {
	lo, hi := m.RowStart[i], m.RowStart[i+1]
	return m.ColIndex[lo:hi], m.Values[lo:hi]
}

// MulVec computes dst = A*x. Each dst[i] is accumulated left to right over
// the stored entries of row i, so rows without entries yield 0.
func (m *Matrix) MulVec(dst, x []float64) {
	if m.N != len(x) {
		panic("csr: dimension mismatch")
	}
	if m.N != len(dst) {
		panic("csr: dimension mismatch")
	}
	for i := 0; i < m.N; i++ {
		s := 0.0
		for j := m.RowStart[i]; j < m.RowStart[i+1]; j++ {
			s += m.Values[j] * x[m.ColIndex[j]]
		}
		dst[i] = s
	}
}

// Multiply returns A*x in a newly allocated slice.
func Multiply(m *Matrix, x []float64) []float64 {
	dst := make([]float64, m.N)
	m.MulVec(dst, x)
	return dst
}

// Timed runs Multiply and passes its wall-clock duration to hook when hook is non-nil.
func Timed(m *Matrix, x []float64, hook func(time.Duration)) []float64 {
	dst := make([]float64, m.N)
	start := time.Now()
	m.MulVec(dst, x)
	elapsed := time.Since(start)
	if hook != nil {
		hook(elapsed)
	}
	return dst
}

// Triplets lists the stored entries row by row in storage order.
func (m *Matrix) Triplets() []coo.Triplet {
	out := make([]coo.Triplet, 0, m.NNZ())
	for i := 0; i < m.N; i++ {
		for j := m.RowStart[i]; j < m.RowStart[i+1]; j++ {
			out = append(out, coo.Triplet{Row: i, Col: m.ColIndex[j], Value: m.Values[j]})
		}
	}
	return out
}

// Validate checks the structural invariants of m, including that every
// column index lies in [0, N).
func (m *Matrix) Validate() error {
	if m.N < 0 {
		return fmt.Errorf("%w: negative dimension %d", ErrMalformed, m.N)
	}
	if len(m.RowStart) != m.N+1 {
		return fmt.Errorf("%w: len(RowStart)=%d, want %d", ErrMalformed, len(m.RowStart), m.N+1)
	}
	if len(m.ColIndex) != len(m.Values) {
		return fmt.Errorf("%w: len(ColIndex)=%d != len(Values)=%d", ErrMalformed, len(m.ColIndex), len(m.Values))
	}
	if m.RowStart[0] != 0 {
		return fmt.Errorf("%w: RowStart[0]=%d", ErrMalformed, m.RowStart[0])
	}
	if m.RowStart[m.N] != len(m.Values) {
		return fmt.Errorf("%w: RowStart[%d]=%d, want nnz=%d", ErrMalformed, m.N, m.RowStart[m.N], len(m.Values))
	}
	for i := 0; i < m.N; i++ {
		if m.RowStart[i] > m.RowStart[i+1] {
			return fmt.Errorf("%w: RowStart decreases at row %d", ErrMalformed, i)
		}
	}
	for k, c := range m.ColIndex {
		if c < 0 || c >= m.N {
			return fmt.Errorf("%w: ColIndex[%d]=%d outside [0, %d)", ErrMalformed, k, c, m.N)
		}
	}
	return nil
}
