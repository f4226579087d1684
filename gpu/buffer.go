package gpu

import (
	"fmt"

	"github.com/openfluke/webgpu/wgpu"
)

// querySize holds the two resolved 8-byte timestamps.
const querySize = timestampSlots * 8

// bufferAlign is the size granularity WebGPU requires of buffers that are
// mapped or initialized at creation. Zero-sized bindings are invalid too.
const bufferAlign = 4

func alignedSize(n uint64) uint64 {
	if n == 0 {
		return bufferAlign
	}
	return (n + bufferAlign - 1) &^ (bufferAlign - 1)
}

// padded returns b grown with zeros to alignedSize(len(b)). b is returned
// as is when it already fits.
func padded(b []byte) []byte {
	n := alignedSize(uint64(len(b)))
	if uint64(len(b)) == n {
		return b
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// Resources are the GPU objects owned by one dispatch.
type Resources struct {
	InputBuffers       []*wgpu.Buffer
	OutputBuffer       *wgpu.Buffer
	QueryBuffer        *wgpu.Buffer
	QueryStagingBuffer *wgpu.Buffer

	// OutputStaging is nil when OutputBuffer is mappable itself.
	OutputStaging *wgpu.Buffer

	InputLayout  *wgpu.BindGroupLayout
	OutputLayout *wgpu.BindGroupLayout
	InputGroup   *wgpu.BindGroup
	OutputGroup  *wgpu.BindGroup

	outputMapped  bool
	stagingMapped bool
}

// bind uploads every input into its own storage buffer, allocates the
// output and profiling buffers and builds the two bind groups. Input i is
// bound at @group(0) @binding(i); the output at @group(1) @binding(0).
func bind(s *Session, inputs []Input, outputSize uint64, label string) (*Resources, error) {
	r := &Resources{}
	fail := func(err error) (*Resources, error) {
		r.Release()
		return nil, err
	}

	r.InputBuffers = make([]*wgpu.Buffer, 0, len(inputs))
	for i, in := range inputs {
		buf, err := s.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    fmt.Sprintf("%s_In%d", label, i),
			Contents: padded(in.Bytes()),
			Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fail(fmt.Errorf("allocate input buffer %d: %w", i, err))
		}
		r.InputBuffers = append(r.InputBuffers, buf)
	}

	var err error
	r.OutputBuffer, err = s.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + "_Out",
		Size:  alignedSize(outputSize),
		Usage: outputUsage(s.MappableOutput),
	})
	if err != nil {
		return fail(fmt.Errorf("allocate output buffer: %w", err))
	}
	if !s.MappableOutput {
		r.OutputStaging, err = s.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label + "_OutStaging",
			Size:  alignedSize(outputSize),
			Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fail(fmt.Errorf("allocate output staging buffer: %w", err))
		}
	}

	r.QueryBuffer, err = s.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + "_Query",
		Size:  querySize,
		Usage: wgpu.BufferUsageQueryResolve | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return fail(fmt.Errorf("allocate query buffer: %w", err))
	}

	r.QueryStagingBuffer, err = s.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + "_QueryStaging",
		Size:  querySize,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fail(fmt.Errorf("allocate query staging buffer: %w", err))
	}

	// Everything is read_write storage, inputs included: kernels may
	// update their inputs in place.
	inputEntries := make([]wgpu.BindGroupLayoutEntry, len(r.InputBuffers))
	for i := range r.InputBuffers {
		inputEntries[i] = storageEntry(uint32(i))
	}
	r.InputLayout, err = s.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   label + "_InBGL",
		Entries: inputEntries,
	})
	if err != nil {
		return fail(fmt.Errorf("create input bind group layout: %w", err))
	}

	r.OutputLayout, err = s.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   label + "_OutBGL",
		Entries: []wgpu.BindGroupLayoutEntry{storageEntry(0)},
	})
	if err != nil {
		return fail(fmt.Errorf("create output bind group layout: %w", err))
	}

	groupEntries := make([]wgpu.BindGroupEntry, len(r.InputBuffers))
	for i, buf := range r.InputBuffers {
		groupEntries[i] = wgpu.BindGroupEntry{Binding: uint32(i), Buffer: buf, Size: wgpu.WholeSize}
	}
	r.InputGroup, err = s.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label + "_InBind",
		Layout:  r.InputLayout,
		Entries: groupEntries,
	})
	if err != nil {
		return fail(fmt.Errorf("create input bind group: %w", err))
	}

	r.OutputGroup, err = s.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + "_OutBind",
		Layout: r.OutputLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.OutputBuffer, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fail(fmt.Errorf("create output bind group: %w", err))
	}

	if Debug {
		Log("Bound %d inputs, output %d bytes", len(r.InputBuffers), outputSize)
	}
	return r, nil
}

// outputUsage is the usage of the kernel's output buffer. MapRead may only
// be combined with Storage when the device has mappable primary buffers.
func outputUsage(mappable bool) wgpu.BufferUsage {
	if mappable {
		return wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead
	}
	return wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc
}

// readable is the buffer the output is mapped from.
func (r *Resources) readable() *wgpu.Buffer {
	if r.OutputStaging != nil {
		return r.OutputStaging
	}
	return r.OutputBuffer
}

func storageEntry(binding uint32) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageCompute,
		Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage},
	}
}

// Release unmaps and destroys every buffer and releases the bind groups
// and layouts. Mapped ranges obtained from these buffers are invalid
// afterwards.
func (r *Resources) Release() {
	if r == nil {
		return
	}
	if r.InputGroup != nil {
		r.InputGroup.Release()
	}
	if r.OutputGroup != nil {
		r.OutputGroup.Release()
	}
	if r.InputLayout != nil {
		r.InputLayout.Release()
	}
	if r.OutputLayout != nil {
		r.OutputLayout.Release()
	}
	for _, buf := range r.InputBuffers {
		buf.Destroy()
		buf.Release()
	}
	if r.outputMapped {
		r.readable().Unmap()
	}
	if r.OutputBuffer != nil {
		r.OutputBuffer.Destroy()
		r.OutputBuffer.Release()
	}
	if r.OutputStaging != nil {
		r.OutputStaging.Destroy()
		r.OutputStaging.Release()
	}
	if r.QueryBuffer != nil {
		r.QueryBuffer.Destroy()
		r.QueryBuffer.Release()
	}
	if r.QueryStagingBuffer != nil {
		if r.stagingMapped {
			r.QueryStagingBuffer.Unmap()
		}
		r.QueryStagingBuffer.Destroy()
		r.QueryStagingBuffer.Release()
	}
	*r = Resources{}
}
