package gpu

import (
	"fmt"
	"time"

	"github.com/openfluke/webgpu/wgpu"
)

// Grid is the number of workgroups launched along each dimension.
type Grid struct {
	X, Y, Z uint32
}

// Grid1D launches x workgroups along the first dimension.
func Grid1D(x uint32) Grid {
	return Grid{X: x, Y: 1, Z: 1}
}

// Workgroups returns the number of workgroups of the given size needed
// to cover n elements: ceil(n / size).
func Workgroups(n, size int) uint32 {
	if n <= 0 || size <= 0 {
		return 0
	}
	return uint32((n + size - 1) / size)
}

// compile builds the compute pipeline for kernel against the two layouts.
func compile(s *Session, r *Resources, kernel, label string) (*wgpu.ComputePipeline, error) {
	start := time.Now()
	module, err := s.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label + "_Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: kernel},
	})
	logger.WithField("span", "shader compilation").
		WithField("elapsed", time.Since(start)).
		Debug("close")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShaderCompilation, err)
	}
	defer module.Release()

	layout, err := s.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label + "_Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.InputLayout, r.OutputLayout},
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	defer layout.Release()

	// No entry point: the backend picks the module's compute entry.
	pipeline, err := s.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  label + "_Pipe",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module: module,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: pipeline create: %v", ErrShaderCompilation, err)
	}
	return pipeline, nil
}

// dispatch compiles kernel, records the compute pass and the profiling
// copies, and submits them as the single submission of this call.
func dispatch(s *Session, r *Resources, kernel string, grid Grid, label string) error {
	pipeline, err := compile(s, r, kernel, label)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	enc, err := s.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label + "_Enc"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	defer enc.Release()

	if Debug {
		Log("Dispatching %s with grid %d x %d x %d", label, grid.X, grid.Y, grid.Z)
	}
	if s.Timestamps {
		if err := enc.WriteTimestamp(s.QuerySet, 0); err != nil {
			return fmt.Errorf("write start timestamp: %w", err)
		}
	}
	pass := enc.BeginComputePass(&wgpu.ComputePassDescriptor{Label: label + "_Pass"})
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, r.InputGroup, nil)
	pass.SetBindGroup(1, r.OutputGroup, nil)
	pass.DispatchWorkgroups(grid.X, grid.Y, grid.Z)
	err = pass.End()
	pass.Release()
	if err != nil {
		return fmt.Errorf("end compute pass: %w", err)
	}
	if s.Timestamps {
		if err := enc.WriteTimestamp(s.QuerySet, 1); err != nil {
			return fmt.Errorf("write end timestamp: %w", err)
		}
		if err := enc.ResolveQuerySet(s.QuerySet, 0, timestampSlots, r.QueryBuffer, 0); err != nil {
			return fmt.Errorf("resolve timestamps: %w", err)
		}
	}
	// Copied even without timestamps; the staging bytes are only read
	// when Timestamps is set.
	if err := enc.CopyBufferToBuffer(r.QueryBuffer, 0, r.QueryStagingBuffer, 0, querySize); err != nil {
		return fmt.Errorf("copy timestamps: %w", err)
	}
	if r.OutputStaging != nil {
		if err := enc.CopyBufferToBuffer(r.OutputBuffer, 0, r.OutputStaging, 0, r.OutputBuffer.GetSize()); err != nil {
			return fmt.Errorf("copy output to staging: %w", err)
		}
	}

	cmd, err := enc.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish command: %w", err)
	}
	defer cmd.Release()

	s.Queue.Submit(cmd)
	return nil
}
