package gpu

import (
	"testing"

	"github.com/openfluke/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestAlignedSize(t *testing.T) {
	assert.Equal(t, uint64(4), alignedSize(0))
	assert.Equal(t, uint64(4), alignedSize(2))
	assert.Equal(t, uint64(8), alignedSize(8))
	assert.Equal(t, uint64(12), alignedSize(10))
}

func TestPadded(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	assert.Same(t, &b[0], &padded(b)[0])

	got := padded([]byte{1, 2, 3, 4, 5, 6})
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 0, 0}, got)
	assert.Equal(t, []byte{0, 0, 0, 0}, padded(nil))
}

func TestOutputUsage(t *testing.T) {
	mappable := outputUsage(true)
	assert.NotZero(t, mappable&wgpu.BufferUsageStorage)
	assert.NotZero(t, mappable&wgpu.BufferUsageMapRead)

	// Without mappable primary buffers MapRead may not sit on a storage
	// buffer; the output is copied out instead.
	copied := outputUsage(false)
	assert.NotZero(t, copied&wgpu.BufferUsageStorage)
	assert.NotZero(t, copied&wgpu.BufferUsageCopySrc)
	assert.Zero(t, copied&wgpu.BufferUsageMapRead)
}

func TestReadablePrefersStaging(t *testing.T) {
	out, staging := &wgpu.Buffer{}, &wgpu.Buffer{}

	r := &Resources{OutputBuffer: out}
	assert.Same(t, out, r.readable())

	r.OutputStaging = staging
	assert.Same(t, staging, r.readable())
}
