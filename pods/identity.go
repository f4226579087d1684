package pods

import (
	"fmt"

	"github.com/openfluke/kernelrun/gpu"
	"github.com/openfluke/kernelrun/kernels"
)

// IdentityPod pushes 0..N-1 through the pass-through kernel and checks
// that every element comes back in order.
type IdentityPod struct{}

func (IdentityPod) Name() string { return "identity" }

func (IdentityPod) Run(x *ExecContext) error {
	n := x.Config.Demo.IdentityElements
	input := make([]float32, n)
	for i := range input {
		input[i] = float32(i)
	}

	grid := gpu.Grid1D(gpu.Workgroups(n, kernels.IdentityWorkgroupSize))
	res, err := gpu.RunProfiled[float32](x.Ctx, kernels.Identity, []gpu.Input{gpu.Slice(input)}, grid, n, x.GPU...)
	if err != nil {
		return err
	}

	if len(res.Data) != n {
		return fmt.Errorf("%w: got %d elements, want %d", ErrMismatch, len(res.Data), n)
	}
	for i, v := range res.Data {
		if v != input[i] {
			return fmt.Errorf("%w: element %d is %v, want %v", ErrMismatch, i, v, input[i])
		}
	}

	fmt.Fprintf(x.Out, "identity: got back %d elements\n", len(res.Data))
	fmt.Fprintf(x.Out, "identity: first %v\n", res.Data[:min(20, n)])
	if res.Profile != nil {
		fmt.Fprintf(x.Out, "identity: kernel took %.3fms\n", res.Profile.Milliseconds())
	}
	return nil
}
