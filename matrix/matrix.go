package matrix

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrDimensionMismatch is returned when left.Width != right.Height.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Matrix is a dense row-major matrix.
type Matrix[T ~float32 | ~float64] struct {
	Entries []T
	Width   int
	Height  int
}

// New wraps entries as a width x height matrix. It panics if the entry
// count does not match the shape.
func New[T ~float32 | ~float64](entries []T, width, height int) Matrix[T] {
	if len(entries) != width*height {
		panic(fmt.Sprintf("matrix: %d entries for %dx%d", len(entries), width, height))
	}
	return Matrix[T]{Entries: entries, Width: width, Height: height}
}

// Zeros returns a width x height matrix of zeros.
func Zeros[T ~float32 | ~float64](width, height int) Matrix[T] {
	return Matrix[T]{Entries: make([]T, width*height), Width: width, Height: height}
}

// At returns the entry at row i, column j.
func (m Matrix[T]) At(i, j int) T {
	return m.Entries[i*m.Width+j]
}

// checkMul rejects incompatible shapes before any work is done.
func checkMul[T ~float32 | ~float64](left, right Matrix[T]) error {
	if left.Width != right.Height {
		return fmt.Errorf("%w: %dx%d times %dx%d", ErrDimensionMismatch,
			left.Height, left.Width, right.Height, right.Width)
	}
	return nil
}

// Mul is the CPU reference product left x right.
func Mul[T ~float32 | ~float64](left, right Matrix[T]) (Matrix[T], error) {
	if err := checkMul(left, right); err != nil {
		return Matrix[T]{}, err
	}
	out := Zeros[T](right.Width, left.Height)
	for i := 0; i < left.Height; i++ {
		row := left.Entries[i*left.Width : (i+1)*left.Width]
		for j := 0; j < right.Width; j++ {
			var sum T
			for k, a := range row {
				sum += a * right.Entries[k*right.Width+j]
			}
			out.Entries[i*right.Width+j] = sum
		}
	}
	return out, nil
}

// Equal reports whether a and b have the same shape and every entry pair
// differs by at most tol.
func Equal[T ~float32 | ~float64](a, b Matrix[T], tol float64) bool {
	if a.Width != b.Width || a.Height != b.Height || len(a.Entries) != len(b.Entries) {
		return false
	}
	for i := range a.Entries {
		if math.Abs(float64(a.Entries[i])-float64(b.Entries[i])) > tol {
			return false
		}
	}
	return true
}

// ToDense converts m to a gonum matrix. gonum does not allow empty
// matrices, so m must have a non-zero shape.
func ToDense[T ~float32 | ~float64](m Matrix[T]) *mat.Dense {
	data := make([]float64, len(m.Entries))
	for i, v := range m.Entries {
		data[i] = float64(v)
	}
	return mat.NewDense(m.Height, m.Width, data)
}

// FromDense converts a gonum matrix to a float32 Matrix.
func FromDense(d mat.Matrix) Matrix[float32] {
	rows, cols := d.Dims()
	out := Zeros[float32](cols, rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Entries[i*cols+j] = float32(d.At(i, j))
		}
	}
	return out
}

// MulDense computes left x right with gonum, as an independent check of
// the reference and GPU products.
func MulDense[T ~float32 | ~float64](left, right Matrix[T]) (Matrix[float32], error) {
	if err := checkMul(left, right); err != nil {
		return Matrix[float32]{}, err
	}
	if left.Height == 0 || left.Width == 0 || right.Width == 0 {
		return Zeros[float32](right.Width, left.Height), nil
	}
	var c mat.Dense
	c.Mul(ToDense(left), ToDense(right))
	return FromDense(&c), nil
}
