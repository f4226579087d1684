package pods

import (
	"fmt"
	"math/rand"

	"github.com/openfluke/kernelrun/matrix"
)

// MatMulPod multiplies two random square matrices on the GPU with the
// given strategy and checks the result against the CPU reference and
// gonum.
type MatMulPod struct {
	Strategy matrix.Strategy
}

func (p MatMulPod) Name() string { return "matmul/" + p.Strategy.String() }

func (p MatMulPod) Run(x *ExecContext) error {
	n := x.Config.Demo.MatrixSize
	rng := rand.New(rand.NewSource(x.Seed))
	left := randomSquare(rng, n)
	right := randomSquare(rng, n)

	got, err := matrix.MulGPU(x.Ctx, p.Strategy, left, right, x.GPU...)
	if err != nil {
		return err
	}
	ref, err := matrix.Mul(left, right)
	if err != nil {
		return err
	}
	dense, err := matrix.MulDense(left, right)
	if err != nil {
		return err
	}

	// f32 accumulation over n terms of magnitude <= 1.
	tol := 1e-5 * float64(n)
	if !matrix.Equal(got, ref, tol) {
		return fmt.Errorf("%w: %s %dx%d vs triple loop", ErrMismatch, p.Name(), n, n)
	}
	if !matrix.Equal(got, dense, tol) {
		return fmt.Errorf("%w: %s %dx%d vs gonum", ErrMismatch, p.Name(), n, n)
	}
	fmt.Fprintf(x.Out, "%s: %dx%d matches cpu reference (tol %.1e)\n", p.Name(), n, n, tol)
	return nil
}

func randomSquare(rng *rand.Rand, n int) matrix.Matrix[float32] {
	m := matrix.Zeros[float32](n, n)
	for i := range m.Entries {
		m.Entries[i] = rng.Float32()*2 - 1
	}
	return m
}
