package matrix

import (
	"context"
	"fmt"

	"github.com/openfluke/kernelrun/gpu"
	"github.com/openfluke/kernelrun/kernels"
)

// Strategy selects how the matmul work is split across invocations.
type Strategy int

const (
	// ByRow runs one invocation per output row.
	ByRow Strategy = iota
	// ByCol runs one invocation per output column.
	ByCol
)

func (s Strategy) String() string {
	switch s {
	case ByRow:
		return "row"
	case ByCol:
		return "col"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// MulByRow computes left x right on the GPU, one invocation per row.
func MulByRow(ctx context.Context, left, right Matrix[float32], opts ...gpu.Option) (Matrix[float32], error) {
	return MulGPU(ctx, ByRow, left, right, opts...)
}

// MulByCol computes left x right on the GPU, one invocation per column.
func MulByCol(ctx context.Context, left, right Matrix[float32], opts ...gpu.Option) (Matrix[float32], error) {
	return MulGPU(ctx, ByCol, left, right, opts...)
}

// MulGPU computes left x right on the GPU with the given strategy. Shapes
// are checked before any GPU resource is touched.
func MulGPU(ctx context.Context, strategy Strategy, left, right Matrix[float32], opts ...gpu.Option) (Matrix[float32], error) {
	if err := checkMul(left, right); err != nil {
		return Matrix[float32]{}, err
	}

	var kernel string
	var grid gpu.Grid
	switch strategy {
	case ByRow:
		kernel = kernels.MatMulByRow
		grid = gpu.Grid1D(gpu.Workgroups(left.Height, kernels.MatMulWorkgroupSize))
	case ByCol:
		kernel = kernels.MatMulByCol
		grid = gpu.Grid1D(gpu.Workgroups(right.Width, kernels.MatMulWorkgroupSize))
	default:
		return Matrix[float32]{}, fmt.Errorf("unknown strategy %v", strategy)
	}

	inputs := []gpu.Input{
		gpu.Slice(left.Entries),
		gpu.Scalar(uint32(left.Width)),
		gpu.Slice(right.Entries),
		gpu.Scalar(uint32(right.Width)),
	}
	entries, err := gpu.Run[float32](ctx, kernel, inputs, grid, left.Height*right.Width, opts...)
	if err != nil {
		return Matrix[float32]{}, fmt.Errorf("run shader: %w", err)
	}
	return New(entries, right.Width, left.Height), nil
}
