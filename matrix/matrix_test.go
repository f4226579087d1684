package matrix

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfluke/kernelrun/gpu"
	"github.com/openfluke/kernelrun/logging"
)

func randomMatrix(rng *rand.Rand, width, height int) Matrix[float32] {
	m := Zeros[float32](width, height)
	for i := range m.Entries {
		m.Entries[i] = rng.Float32()*2 - 1
	}
	return m
}

func TestMulSquare(t *testing.T) {
	m := New([]float32{0, 1, 2, 3}, 2, 2)
	got, err := Mul(m, m)
	require.NoError(t, err)
	assert.Equal(t, New([]float32{2, 3, 6, 11}, 2, 2), got)
}

func TestMulRectangular(t *testing.T) {
	// 2x3 times 3x1
	left := New([]float64{1, 2, 3, 4, 5, 6}, 3, 2)
	right := New([]float64{1, 0, -1}, 1, 3)
	got, err := Mul(left, right)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Width)
	assert.Equal(t, 2, got.Height)
	assert.Equal(t, []float64{-2, -2}, got.Entries)
}

func TestMulDimensionMismatch(t *testing.T) {
	left := Zeros[float32](3, 2)
	right := Zeros[float32](2, 2)
	_, err := Mul(left, right)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = MulDense(left, right)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMulMatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, shape := range [][3]int{{1, 1, 1}, {4, 4, 4}, {7, 3, 5}, {16, 33, 2}} {
		left := randomMatrix(rng, shape[1], shape[0])
		right := randomMatrix(rng, shape[2], shape[1])

		ref, err := Mul(left, right)
		require.NoError(t, err)
		dense, err := MulDense(left, right)
		require.NoError(t, err)
		assert.True(t, Equal(ref, dense, 1e-4), "shape %v", shape)
	}
}

func TestDenseRoundTrip(t *testing.T) {
	m := New([]float32{1, 2, 3, 4, 5, 6}, 3, 2)
	d := ToDense(m)
	r, c := d.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 6.0, d.At(1, 2))
	assert.Equal(t, m, FromDense(d))
}

func TestNewPanicsOnBadShape(t *testing.T) {
	assert.Panics(t, func() { New([]float32{1, 2, 3}, 2, 2) })
}

func TestEqual(t *testing.T) {
	a := New([]float32{1, 2}, 2, 1)
	assert.True(t, Equal(a, New([]float32{1, 2.00001}, 2, 1), 1e-3))
	assert.False(t, Equal(a, New([]float32{1, 2.1}, 2, 1), 1e-3))
	assert.False(t, Equal(a, New([]float32{1, 2}, 1, 2), 1e-3))
}

func TestGPUMulRejectsMismatchBeforeAllocation(t *testing.T) {
	left := Zeros[float32](3, 2)
	right := Zeros[float32](2, 2)
	for _, s := range []Strategy{ByRow, ByCol} {
		// A cancelled context would make any GPU work fail with
		// context.Canceled; the shape check has to win.
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := MulGPU(ctx, s, left, right)
		assert.ErrorIs(t, err, ErrDimensionMismatch, s.String())
	}
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "row", ByRow.String())
	assert.Equal(t, "col", ByCol.String())
	assert.Equal(t, "Strategy(7)", Strategy(7).String())
}

func skipWithoutGPU(t *testing.T, err error) {
	t.Helper()
	if gpu.Unavailable(err) {
		t.Skipf("GPU not available (expected on headless CI): %v", err)
	}
	require.NoError(t, err)
}

func TestGPUMulSquare(t *testing.T) {
	logging.EnsureInitialized()
	m := New([]float32{0, 1, 2, 3}, 2, 2)
	want, err := Mul(m, m)
	require.NoError(t, err)

	for _, s := range []Strategy{ByRow, ByCol} {
		got, err := MulGPU(context.Background(), s, m, m)
		skipWithoutGPU(t, err)
		assert.Equal(t, want, got, s.String())
		assert.Equal(t, []float32{2, 3, 6, 11}, got.Entries, s.String())
	}
}

func TestGPUMulRectangular(t *testing.T) {
	logging.EnsureInitialized()
	rng := rand.New(rand.NewSource(7))
	// Heights and widths straddle the 32-wide workgroup.
	for _, shape := range [][3]int{{3, 5, 2}, {33, 17, 40}, {64, 8, 1}} {
		left := randomMatrix(rng, shape[1], shape[0])
		right := randomMatrix(rng, shape[2], shape[1])
		want, err := Mul(left, right)
		require.NoError(t, err)

		row, err := MulByRow(context.Background(), left, right)
		skipWithoutGPU(t, err)
		col, err := MulByCol(context.Background(), left, right)
		require.NoError(t, err)

		assert.True(t, Equal(want, row, 1e-4), "row %v", shape)
		assert.True(t, Equal(want, col, 1e-4), "col %v", shape)
	}
}
