package pods

import (
	"context"
	"io"
	"os"

	"github.com/openfluke/kernelrun/config"
	"github.com/openfluke/kernelrun/gpu"
)

// Pod is a self-checking demo that drives the harness end to end.
type Pod interface {
	Name() string
	Run(x *ExecContext) error
}

// ExecContext carries the settings a pod runs with.
type ExecContext struct {
	Ctx    context.Context
	Config *config.Config
	Out    io.Writer
	GPU    []gpu.Option // forwarded to every dispatch
	Seed   int64
}

func NewContext(cfg *config.Config) *ExecContext {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &ExecContext{
		Ctx:    context.Background(),
		Config: cfg,
		Out:    os.Stdout,
		Seed:   1,
	}
}

func (ec *ExecContext) WithGPU(opts ...gpu.Option) *ExecContext {
	ec.GPU = append(ec.GPU, opts...)
	return ec
}

func (ec *ExecContext) WithOutput(w io.Writer) *ExecContext {
	ec.Out = w
	return ec
}
