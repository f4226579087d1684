package gpu

import "errors"

// Failure kinds of a dispatch. Backend errors are wrapped around these
// so errors.Is identifies the stage that failed.
var (
	ErrNoAdapter         = errors.New("no compute-capable adapter")
	ErrDeviceCreation    = errors.New("device creation failed")
	ErrShaderCompilation = errors.New("shader compilation failed")
	ErrBufferMap         = errors.New("buffer map failed")
)

// Unavailable reports whether err means no usable GPU exists in this
// environment, as opposed to a failure of the dispatch itself.
func Unavailable(err error) bool {
	return errors.Is(err, ErrNoAdapter) || errors.Is(err, ErrDeviceCreation)
}
