package pods

import (
	"fmt"
	"sort"

	"github.com/openfluke/kernelrun/matrix"
)

var registry = map[string]Pod{}

// Register adds p under its name, replacing any previous pod of that name.
func Register(p Pod) { registry[p.Name()] = p }

func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func Lookup(name string) (Pod, bool) {
	p, ok := registry[name]
	return p, ok
}

func Run(name string, x *ExecContext) error {
	p, ok := registry[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPod, name)
	}
	if err := p.Run(x); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func init() {
	Register(IdentityPod{})
	Register(MatMulPod{Strategy: matrix.ByRow})
	Register(MatMulPod{Strategy: matrix.ByCol})
}
