package gpu

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/openfluke/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func f32Bytes(vals ...float32) []byte {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v))
	}
	return b
}

func TestDecodeCopiesOut(t *testing.T) {
	raw := f32Bytes(0, 1, 2, 3)
	out := decode[float32](raw, 4)
	assert.Equal(t, []float32{0, 1, 2, 3}, out)

	// The result must not alias the mapped range.
	copy(raw, f32Bytes(9))
	assert.Equal(t, float32(0), out[0])
}

func TestDecodeOtherTypes(t *testing.T) {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint32(raw, 7)
	binary.LittleEndian.PutUint32(raw[4:], math.MaxUint32)
	assert.Equal(t, []uint32{7, math.MaxUint32}, decode[uint32](raw, 2))
	assert.Equal(t, []int32{7, -1}, decode[int32](raw, 2))
	assert.Equal(t, []uint64{7 | math.MaxUint32<<32}, decode[uint64](raw, 1))
}

func TestDecodeOddLengthFromPaddedRange(t *testing.T) {
	// The output buffer is rounded up to four bytes; decode must still
	// return exactly the requested element count.
	raw := make([]byte, alignedSize(3))
	copy(raw, []byte{7, 8, 9})
	assert.Equal(t, []uint8{7, 8, 9}, decode[uint8](raw, 3))

	halves := []float16.Float16{float16.Fromfloat32(1), float16.Fromfloat32(-2), float16.Fromfloat32(0.5)}
	raw = make([]byte, alignedSize(uint64(2*len(halves))))
	copy(raw, wgpu.ToBytes(halves))
	require.Len(t, raw, 8)
	got := decode[float16.Float16](raw, len(halves))
	require.Len(t, got, 3)
	assert.Equal(t, halves, got)
}

func TestDecodeEmpty(t *testing.T) {
	assert.Empty(t, decode[float32](nil, 0))
}

func TestProfilingSample(t *testing.T) {
	raw := make([]byte, querySize)
	binary.LittleEndian.PutUint64(raw, 1_000)
	binary.LittleEndian.PutUint64(raw[8:], 2_501_000)

	p := newProfilingSample(raw, 1.0)
	require.NotNil(t, p)
	assert.Equal(t, uint64(1_000), p.Start)
	assert.Equal(t, uint64(2_501_000), p.End)
	assert.InDelta(t, 2.5, p.Milliseconds(), 1e-9)
	assert.InDelta(t, float64(2500*time.Microsecond), float64(p.Elapsed()), 1)

	p.Period = 2.0
	assert.InDelta(t, 5.0, p.Milliseconds(), 1e-9)
}

func TestProfilingSampleBackwardsIsZero(t *testing.T) {
	p := ProfilingSample{Start: 10, End: 5, Period: 1}
	assert.Zero(t, p.Milliseconds())
	assert.Zero(t, p.Elapsed())
}

func TestProfilingSampleShortRange(t *testing.T) {
	assert.Nil(t, newProfilingSample(make([]byte, 8), 1))
}

func TestTimestampPeriodIsNanoseconds(t *testing.T) {
	s := &Session{}
	assert.Equal(t, 1.0, s.TimestampPeriod())

	raw := make([]byte, querySize)
	binary.LittleEndian.PutUint64(raw[8:], 1_000_000)
	p := newProfilingSample(raw, s.TimestampPeriod())
	require.NotNil(t, p)
	assert.InDelta(t, 1.0, p.Milliseconds(), 1e-12)
}
