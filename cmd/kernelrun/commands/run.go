package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/openfluke/webgpu/wgpu"
	"github.com/spf13/cobra"
	"github.com/x448/float16"

	"github.com/openfluke/kernelrun/gpu"
	"github.com/openfluke/kernelrun/kernels"
)

var (
	kernelPath string
	inputSpecs []string
	gridSpec   string
	outSpec    string
	showCount  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Dispatch a WGSL kernel and print its output",
	Long: `Compile a WGSL compute kernel, bind the given inputs to @group(0) in
order, dispatch the grid and print the output buffer bound at
@group(1) @binding(0).

Inputs and the output are written TYPE:VALUES where TYPE is one of
f32, u32, i32 or f16. VALUES is a comma separated list, range:N for
0..N-1, or @FILE for raw little-endian elements read from FILE.

Without --grid, ceil(COUNT / gpu.workgroup_size) workgroups are
launched along X.

The kernel is a WGSL file, or one of the bundled kernels:
identity, mmul_by_row, mmul_by_col.`,
	Example: `  kernelrun run --kernel identity --input f32:range:10000 --out f32:10000
  kernelrun run --kernel scale.wgsl --input i32:1,2,3 --input f32:0.5 --grid 1 --out f32:3`,
	RunE: runKernel,
}

func init() {
	runCmd.Flags().StringVar(&kernelPath, "kernel", "", "WGSL file or bundled kernel name (required)")
	runCmd.Flags().StringArrayVar(&inputSpecs, "input", nil, "input buffer TYPE:VALUES, repeatable, bound in order")
	runCmd.Flags().StringVar(&gridSpec, "grid", "", "workgroup counts X[,Y[,Z]] (default covers the output with gpu.workgroup_size)")
	runCmd.Flags().StringVar(&outSpec, "out", "", "output buffer TYPE:COUNT (required)")
	runCmd.Flags().IntVar(&showCount, "show", 20, "number of output elements to print, -1 for all")
	_ = runCmd.MarkFlagRequired("kernel")
	_ = runCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(runCmd)
}

func runKernel(cmd *cobra.Command, args []string) error {
	kernel, err := loadKernel(kernelPath)
	if err != nil {
		return err
	}
	inputs := make([]gpu.Input, 0, len(inputSpecs))
	for i, spec := range inputSpecs {
		in, err := parseInput(spec)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		inputs = append(inputs, in)
	}
	typ, count, err := parseOutput(outSpec)
	if err != nil {
		return err
	}
	grid := gpu.Grid1D(gpu.Workgroups(count, cfg.GPU.WorkgroupSize))
	if gridSpec != "" {
		if grid, err = parseGrid(gridSpec); err != nil {
			return err
		}
	}
	opts, err := gpuOptions(cfg)
	if err != nil {
		return err
	}

	d := dispatch{
		cmd:    cmd,
		kernel: kernel,
		inputs: inputs,
		grid:   grid,
		count:  count,
		show:   showCount,
		opts:   opts,
	}
	switch typ {
	case "f32":
		return runTyped(d, formatFloat32)
	case "u32":
		return runTyped(d, func(v uint32) string { return strconv.FormatUint(uint64(v), 10) })
	case "i32":
		return runTyped(d, func(v int32) string { return strconv.FormatInt(int64(v), 10) })
	case "f16":
		return runTyped(d, func(v float16.Float16) string { return formatFloat32(v.Float32()) })
	}
	return fmt.Errorf("unknown element type %q", typ)
}

type dispatch struct {
	cmd    *cobra.Command
	kernel string
	inputs []gpu.Input
	grid   gpu.Grid
	count  int
	show   int
	opts   []gpu.Option
}

func runTyped[T gpu.Pod](d dispatch, format func(T) string) error {
	res, err := gpu.RunProfiled[T](commandContext(d.cmd), d.kernel, d.inputs, d.grid, d.count, d.opts...)
	if err != nil {
		return err
	}
	printResult(d.cmd.OutOrStdout(), res, d.show, format)
	return nil
}

func printResult[T gpu.Pod](w io.Writer, res *gpu.Result[T], show int, format func(T) string) {
	n := len(res.Data)
	if show < 0 || show > n {
		show = n
	}
	parts := make([]string, show)
	for i, v := range res.Data[:show] {
		parts[i] = format(v)
	}
	fmt.Fprintf(w, "got back %d elements\n", n)
	fmt.Fprintf(w, "[%s]\n", strings.Join(parts, " "))
	if res.Profile != nil {
		fmt.Fprintf(w, "kernel took %.3fms\n", res.Profile.Milliseconds())
	}
}

func formatFloat32(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

var bundledKernels = map[string]string{
	"identity":    kernels.Identity,
	"mmul_by_row": kernels.MatMulByRow,
	"mmul_by_col": kernels.MatMulByCol,
}

func loadKernel(path string) (string, error) {
	if src, ok := bundledKernels[path]; ok {
		return src, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading kernel: %w", err)
	}
	return string(b), nil
}

// parseInput decodes TYPE:VALUES into a typed input view.
func parseInput(spec string) (gpu.Input, error) {
	typ, values, ok := strings.Cut(spec, ":")
	if !ok {
		return gpu.Input{}, fmt.Errorf("want TYPE:VALUES, got %q", spec)
	}
	switch typ {
	case "f32":
		s, err := parseValues(values, func(f string) (float32, error) {
			v, err := strconv.ParseFloat(f, 32)
			return float32(v), err
		}, func(i int) float32 { return float32(i) })
		return gpu.Slice(s), err
	case "u32":
		s, err := parseValues(values, func(f string) (uint32, error) {
			v, err := strconv.ParseUint(f, 0, 32)
			return uint32(v), err
		}, func(i int) uint32 { return uint32(i) })
		return gpu.Slice(s), err
	case "i32":
		s, err := parseValues(values, func(f string) (int32, error) {
			v, err := strconv.ParseInt(f, 0, 32)
			return int32(v), err
		}, func(i int) int32 { return int32(i) })
		return gpu.Slice(s), err
	case "f16":
		s, err := parseValues(values, func(f string) (float16.Float16, error) {
			v, err := strconv.ParseFloat(f, 32)
			return float16.Fromfloat32(float32(v)), err
		}, func(i int) float16.Float16 { return float16.Fromfloat32(float32(i)) })
		return gpu.Slice(s), err
	}
	return gpu.Input{}, fmt.Errorf("unknown element type %q", typ)
}

func parseValues[T gpu.Pod](values string, parse func(string) (T, error), fromIndex func(int) T) ([]T, error) {
	switch {
	case strings.HasPrefix(values, "range:"):
		n, err := strconv.Atoi(strings.TrimPrefix(values, "range:"))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad range %q", values)
		}
		out := make([]T, n)
		for i := range out {
			out[i] = fromIndex(i)
		}
		return out, nil

	case strings.HasPrefix(values, "@"):
		b, err := os.ReadFile(strings.TrimPrefix(values, "@"))
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		var zero [1]T
		stride := gpu.Slice(zero[:]).Stride()
		if len(b)%stride != 0 {
			return nil, fmt.Errorf("%d bytes is not a whole number of %d-byte elements", len(b), stride)
		}
		out := make([]T, len(b)/stride)
		copy(wgpu.ToBytes(out), b)
		return out, nil
	}

	if strings.TrimSpace(values) == "" {
		return nil, nil
	}
	fields := strings.Split(values, ",")
	out := make([]T, 0, len(fields))
	for _, f := range fields {
		v, err := parse(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("bad value %q: %w", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseGrid reads X[,Y[,Z]]; missing dimensions are 1.
func parseGrid(spec string) (gpu.Grid, error) {
	fields := strings.Split(spec, ",")
	if len(fields) > 3 {
		return gpu.Grid{}, fmt.Errorf("grid %q has more than three dimensions", spec)
	}
	dims := [3]uint32{1, 1, 1}
	for i, f := range fields {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return gpu.Grid{}, fmt.Errorf("bad grid %q: %w", spec, err)
		}
		dims[i] = uint32(v)
	}
	return gpu.Grid{X: dims[0], Y: dims[1], Z: dims[2]}, nil
}

// parseOutput reads TYPE:COUNT.
func parseOutput(spec string) (string, int, error) {
	typ, count, ok := strings.Cut(spec, ":")
	if !ok {
		return "", 0, fmt.Errorf("want TYPE:COUNT, got %q", spec)
	}
	switch typ {
	case "f32", "u32", "i32", "f16":
	default:
		return "", 0, fmt.Errorf("unknown element type %q", typ)
	}
	n, err := strconv.Atoi(count)
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("bad output count %q", count)
	}
	return typ, n, nil
}
