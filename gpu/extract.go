package gpu

import (
	"time"

	"github.com/openfluke/webgpu/wgpu"
)

// ProfilingSample is the pair of timestamps written around the compute
// pass. Period is nanoseconds per tick.
type ProfilingSample struct {
	Start  uint64
	End    uint64
	Period float64
}

// Milliseconds returns the elapsed kernel time. A sample whose end precedes
// its start reports zero.
func (p ProfilingSample) Milliseconds() float64 {
	if p.End < p.Start {
		return 0
	}
	return float64(p.End-p.Start) * p.Period * 1e-6
}

// Elapsed returns the kernel time as a Duration.
func (p ProfilingSample) Elapsed() time.Duration {
	return time.Duration(p.Milliseconds() * float64(time.Millisecond))
}

// newProfilingSample reads the two resolved timestamps from the staging
// bytes.
func newProfilingSample(query []byte, period float64) *ProfilingSample {
	if len(query) < querySize {
		return nil
	}
	ticks := wgpu.FromBytes[uint64](query[:querySize])
	return &ProfilingSample{Start: ticks[0], End: ticks[1], Period: period}
}

// decode copies n elements of T out of the mapped output range. The copy
// outlives the mapping.
func decode[T Pod](raw []byte, n int) []T {
	out := make([]T, n)
	if len(raw) == 0 {
		return out
	}
	copy(out, wgpu.FromBytes[T](raw))
	return out
}
