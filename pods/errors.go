package pods

import "errors"

var (
	// ErrUnknownPod is returned by Run for a name nobody registered.
	ErrUnknownPod = errors.New("unknown pod")
	// ErrMismatch means the GPU result disagrees with the CPU reference.
	ErrMismatch = errors.New("gpu result differs from cpu reference")
)
