package csr

import "gonum.org/v1/gonum/mat"

var _ mat.Matrix = (*Matrix)(nil)

func (m *Matrix) Dims() (r, c int) { return m.N, m.N }

// At returns the sum of all stored entries at (i, j).
func (m *Matrix) At(i, j int) float64 {
	if i < 0 || m.N <= i {
		panic(mat.ErrRowAccess)
	}
	if j < 0 || m.N <= j {
		panic(mat.ErrColAccess)
	}
	var v float64
	cols, vals := m.Row(i)
	for k, c := range cols {
		if c == j {
			v += vals[k]
		}
	}
	return v
}

func (m *Matrix) T() mat.Matrix { return mat.Transpose{Matrix: m} }

// Dense expands m into a gonum dense matrix. Intended for small matrices.
func (m *Matrix) Dense() *mat.Dense {
	if m.N == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(m.N, m.N, nil)
	for i := 0; i < m.N; i++ {
		cols, vals := m.Row(i)
		for k, c := range cols {
			d.Set(i, c, d.At(i, c)+vals[k])
		}
	}
	return d
}
