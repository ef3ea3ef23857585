// Package tensor provides the dense matrix and vector primitives the
// transformer is assembled from. Tensors carry explicit dimensions so a
// shape mismatch surfaces as an error at the call site instead of silent
// misindexing. All elements are fixed-point int64 values.
package tensor

import (
	"fmt"

	"github.com/andi0b/abacus/internal/fixed"
)

// Tensor is a dense row-major matrix of fixed-point values.
type Tensor struct {
	Rows int
	Cols int
	Data []int64
}

// New allocates a zeroed rows x cols tensor.
func New(rows, cols int) Tensor {
	return Tensor{Rows: rows, Cols: cols, Data: make([]int64, rows*cols)}
}

// FromSlice wraps a flat row-major slice as a tensor, validating that
// the element count matches the declared shape.
func FromSlice(rows, cols int, data []int64) (Tensor, error) {
	if len(data) != rows*cols {
		return Tensor{}, fmt.Errorf("tensor: %d elements do not fit shape [%d,%d]", len(data), rows, cols)
	}
	return Tensor{Rows: rows, Cols: cols, Data: data}, nil
}

// At returns the element at row r, column c.
func (t Tensor) At(r, c int) int64 {
	return t.Data[r*t.Cols+c]
}

// Set stores v at row r, column c.
func (t Tensor) Set(r, c int, v int64) {
	t.Data[r*t.Cols+c] = v
}

// Row returns row r as a slice aliasing the tensor's storage.
func (t Tensor) Row(r int) []int64 {
	return t.Data[r*t.Cols : (r+1)*t.Cols]
}

// MatMul computes A[m,k] * B[k,n] = C[m,n].
func MatMul(a, b Tensor) (Tensor, error) {
	if a.Cols != b.Rows {
		return Tensor{}, fmt.Errorf("tensor: matmul shape mismatch [%d,%d] x [%d,%d]", a.Rows, a.Cols, b.Rows, b.Cols)
	}
	out := New(a.Rows, b.Cols)
	for i := 0; i < a.Rows; i++ {
		for j := 0; j < b.Cols; j++ {
			var sum int64
			for k := 0; k < a.Cols; k++ {
				sum += fixed.Mul(a.At(i, k), b.At(k, j))
			}
			out.Set(i, j, sum)
		}
	}
	return out, nil
}

// MatVec computes A[m,n] * x[n] = y[m].
func MatVec(m Tensor, v []int64) ([]int64, error) {
	if m.Cols != len(v) {
		return nil, fmt.Errorf("tensor: matvec shape mismatch [%d,%d] x [%d]", m.Rows, m.Cols, len(v))
	}
	out := make([]int64, m.Rows)
	for i := 0; i < m.Rows; i++ {
		row := m.Row(i)
		var sum int64
		for j, w := range row {
			sum += fixed.Mul(w, v[j])
		}
		out[i] = sum
	}
	return out, nil
}

// VecMat computes x[m] * A[m,n] = y[n]. This is the orientation the
// model's projection weights are stored in.
func VecMat(v []int64, m Tensor) ([]int64, error) {
	if m.Rows != len(v) {
		return nil, fmt.Errorf("tensor: vecmat shape mismatch [%d] x [%d,%d]", len(v), m.Rows, m.Cols)
	}
	out := make([]int64, m.Cols)
	for j := 0; j < m.Rows; j++ {
		x := v[j]
		if x == 0 {
			continue
		}
		row := m.Row(j)
		for i, w := range row {
			out[i] += fixed.Mul(x, w)
		}
	}
	return out, nil
}

// Transpose returns a new tensor with rows and columns swapped.
func Transpose(t Tensor) Tensor {
	out := New(t.Cols, t.Rows)
	for r := 0; r < t.Rows; r++ {
		for c := 0; c < t.Cols; c++ {
			out.Set(c, r, t.At(r, c))
		}
	}
	return out
}

// Add computes the elementwise sum of two equally shaped tensors.
func Add(a, b Tensor) (Tensor, error) {
	if err := sameShape("add", a, b); err != nil {
		return Tensor{}, err
	}
	out := New(a.Rows, a.Cols)
	for i, v := range a.Data {
		out.Data[i] = v + b.Data[i]
	}
	return out, nil
}

// Sub computes the elementwise difference of two equally shaped tensors.
func Sub(a, b Tensor) (Tensor, error) {
	if err := sameShape("sub", a, b); err != nil {
		return Tensor{}, err
	}
	out := New(a.Rows, a.Cols)
	for i, v := range a.Data {
		out.Data[i] = v - b.Data[i]
	}
	return out, nil
}

// Hadamard computes the elementwise fixed-point product of two equally
// shaped tensors.
func Hadamard(a, b Tensor) (Tensor, error) {
	if err := sameShape("hadamard", a, b); err != nil {
		return Tensor{}, err
	}
	out := New(a.Rows, a.Cols)
	for i, v := range a.Data {
		out.Data[i] = fixed.Mul(v, b.Data[i])
	}
	return out, nil
}

func sameShape(op string, a, b Tensor) error {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return fmt.Errorf("tensor: %s shape mismatch [%d,%d] vs [%d,%d]", op, a.Rows, a.Cols, b.Rows, b.Cols)
	}
	return nil
}

// Dot computes the fixed-point dot product of two vectors. The slices
// must be the same length; attention guarantees this by construction.
func Dot(a, b []int64) int64 {
	var sum int64
	for i, v := range a {
		sum += fixed.Mul(v, b[i])
	}
	return sum
}

// AddVec computes the elementwise sum of two equal-length vectors.
func AddVec(a, b []int64) ([]int64, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("tensor: addvec length mismatch %d vs %d", len(a), len(b))
	}
	out := make([]int64, len(a))
	for i, v := range a {
		out[i] = v + b[i]
	}
	return out, nil
}

// Scale multiplies every element of a vector by a fixed-point scalar.
func Scale(v []int64, s int64) []int64 {
	out := make([]int64, len(v))
	for i, x := range v {
		out[i] = fixed.Mul(x, s)
	}
	return out
}
