// Package gen writes synthetic COO inputs for benchmarking and tests.
//
// Element i of the matrix sits at row i%n, column (i*7)%n with value
// (i%100)+1; the vector is all ones. Every line carries a trailing comment.
package gen

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

type Spec struct {
	N, NNZ int
}

func (s Spec) Validate() error {
	if s.N < 0 || s.NNZ < 0 {
		return fmt.Errorf("gen: negative dimension n=%d nnz=%d", s.N, s.NNZ)
	}
	if s.N == 0 && s.NNZ > 0 {
		return errors.New("gen: nnz > 0 needs n > 0")
	}
	return nil
}

// Entry returns element i of the pattern.
func (s Spec) Entry(i int) (row, col int, value float64) {
	return i % s.N, (i * 7) % s.N, float64(i%100) + 1
}

func Write(w io.Writer, s Spec) error {
	if err := s.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriterSize(w, 1<<16)
	fmt.Fprintf(bw, "%d %d   # n and nnz\n\n", s.N, s.NNZ)
	var buf []byte
	for i := 0; i < s.NNZ; i++ {
		row, col, v := s.Entry(i)
		buf = buf[:0]
		buf = strconv.AppendInt(buf, int64(row), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(col), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, v, 'f', 1, 64)
		buf = append(buf, "   # element "...)
		buf = strconv.AppendInt(buf, int64(i), 10)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	bw.WriteString("\n")
	for i := 0; i < s.N; i++ {
		fmt.Fprintf(bw, "1   # vector[%d] = 1\n", i)
	}
	return bw.Flush()
}
