package gpu

import (
	"unsafe"

	"github.com/openfluke/webgpu/wgpu"
)

// Pod is the set of element types that can be handed to a kernel as raw
// bytes: fixed size, no pointers, no padding.
type Pod interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// Input is a type-erased byte view over one caller slice, bound to the
// kernel at the binding index equal to its position in the input list.
type Input struct {
	bytes  []byte
	stride int
}

// Slice views s as kernel input. The bytes alias s; nothing is copied.
func Slice[E Pod](s []E) Input {
	return Input{bytes: wgpu.ToBytes(s), stride: sizeOf[E]()}
}

// Scalar wraps a single value, e.g. a matrix width, as a one-element input.
func Scalar[E Pod](v E) Input {
	return Slice([]E{v})
}

// Bytes returns the raw view.
func (in Input) Bytes() []byte { return in.bytes }

// Stride is the element size in bytes.
func (in Input) Stride() int { return in.stride }

// Size is the view length in bytes.
func (in Input) Size() int { return len(in.bytes) }

// Len is the element count.
func (in Input) Len() int {
	if in.stride == 0 {
		return 0
	}
	return len(in.bytes) / in.stride
}

func sizeOf[E Pod]() int {
	var zero E
	return int(unsafe.Sizeof(zero))
}
