package gpu

import (
	"context"
	"fmt"

	"github.com/openfluke/webgpu/wgpu"
)

// Options configures device selection for a dispatch.
type Options struct {
	PowerPreference wgpu.PowerPreference
	// Label prefixes every GPU object created for the dispatch.
	Label string
}

// Option mutates Options.
type Option func(*Options)

// WithPowerPreference selects the adapter power preference.
func WithPowerPreference(p wgpu.PowerPreference) Option {
	return func(o *Options) { o.PowerPreference = p }
}

// WithLabel sets the object label prefix.
func WithLabel(label string) Option {
	return func(o *Options) { o.Label = label }
}

// NewOptions applies opts over the defaults: high-performance adapter,
// label "kernelrun".
func NewOptions(opts ...Option) Options {
	o := Options{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
		Label:           "kernelrun",
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Result is the owned output of a dispatch.
type Result[T Pod] struct {
	Data []T
	// Profile is nil when the device has no timestamp queries.
	Profile *ProfilingSample
}

// Run executes kernel once over inputs and returns outputLen elements of T
// read from @group(1) @binding(0). Input i is visible to the kernel at
// @group(0) @binding(i). grid is dispatched exactly as given.
func Run[T Pod](ctx context.Context, kernel string, inputs []Input, grid Grid, outputLen int, opts ...Option) ([]T, error) {
	res, err := RunProfiled[T](ctx, kernel, inputs, grid, outputLen, opts...)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// RunProfiled is Run plus the GPU timestamps of the compute pass.
func RunProfiled[T Pod](ctx context.Context, kernel string, inputs []Input, grid Grid, outputLen int, opts ...Option) (*Result[T], error) {
	if outputLen < 0 {
		return nil, fmt.Errorf("negative output length %d", outputLen)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := NewOptions(opts...)

	s, err := Acquire(o)
	if err != nil {
		return nil, err
	}
	defer s.Release()
	return runOn[T](ctx, s, kernel, inputs, grid, outputLen, o.Label)
}

// runOn performs one dispatch on an acquired session.
func runOn[T Pod](ctx context.Context, s *Session, kernel string, inputs []Input, grid Grid, outputLen int, label string) (*Result[T], error) {
	outputSize := uint64(outputLen) * uint64(sizeOf[T]())
	r, err := bind(s, inputs, outputSize, label)
	if err != nil {
		return nil, err
	}
	defer r.Release()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := dispatch(s, r, kernel, grid, label); err != nil {
		return nil, err
	}

	m, err := readBack(ctx, s, r)
	if err != nil {
		return nil, err
	}

	res := &Result[T]{Data: decode[T](m.output, outputLen)}
	logger.Infof("got back %d elements", len(res.Data))

	if s.Timestamps {
		res.Profile = newProfilingSample(m.query, s.TimestampPeriod())
		if res.Profile != nil {
			logger.Infof("kernel took %.3fms", res.Profile.Milliseconds())
		}
	}
	return res, nil
}
