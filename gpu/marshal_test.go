package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/x448/float16"
)

func TestSliceStrideAndLength(t *testing.T) {
	f := Slice([]float32{1, 2, 3})
	assert.Equal(t, 4, f.Stride())
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, 12, f.Size())
	assert.Equal(t, math.Float32bits(2), binary.LittleEndian.Uint32(f.Bytes()[4:8]))

	u := Slice([]uint64{7})
	assert.Equal(t, 8, u.Stride())
	assert.Equal(t, uint64(7), binary.LittleEndian.Uint64(u.Bytes()))

	h := Slice([]float16.Float16{float16.Fromfloat32(1.5), float16.Fromfloat32(-2)})
	assert.Equal(t, 2, h.Stride())
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, float16.Fromfloat32(1.5).Bits(), binary.LittleEndian.Uint16(h.Bytes()))
}

func TestSliceAliasesCallerMemory(t *testing.T) {
	data := []uint32{1, 2}
	in := Slice(data)
	data[1] = 0xdeadbeef
	assert.Equal(t, uint32(0xdeadbeef), binary.LittleEndian.Uint32(in.Bytes()[4:]))
}

func TestScalar(t *testing.T) {
	in := Scalar(uint32(42))
	assert.Equal(t, 1, in.Len())
	assert.Equal(t, uint32(42), binary.LittleEndian.Uint32(in.Bytes()))
}

func TestEmptyInput(t *testing.T) {
	in := Slice([]int16{})
	assert.Equal(t, 0, in.Size())
	assert.Equal(t, 0, in.Len())
	assert.Equal(t, 2, in.Stride())

	var zero Input
	assert.Equal(t, 0, zero.Len())
}

func TestHeterogeneousInputsKeepOrder(t *testing.T) {
	inputs := []Input{
		Slice([]float32{0, 1, 2, 3}),
		Scalar(uint32(2)),
		Slice([]int8{-1, 1}),
		Slice([]float64{3.5}),
	}
	strides := make([]int, len(inputs))
	for i, in := range inputs {
		strides[i] = in.Stride()
	}
	assert.Equal(t, []int{4, 4, 1, 8}, strides)
	assert.Equal(t, int8(-1), int8(inputs[2].Bytes()[0]))
	assert.Equal(t, 3.5, math.Float64frombits(binary.LittleEndian.Uint64(inputs[3].Bytes())))
}
