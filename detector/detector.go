package detector

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/openfluke/webgpu/wgpu"
	"golang.org/x/sys/cpu"

	"github.com/openfluke/kernelrun/gpu"
)

/* ---------- public API ---------- */

// Report is a portable summary of the adapter/device a dispatch would get.
type Report struct {
	WhenISO     string          `json:"when_iso"`
	Backend     string          `json:"backend"`
	AdapterType string          `json:"adapter_type"`
	VendorID    string          `json:"vendor_id_hex"`
	DeviceID    string          `json:"device_id_hex"`
	Name        string          `json:"name"`
	Driver      string          `json:"driver"`
	Timestamps  bool            `json:"timestamp_queries"`
	Recommended Recommendations `json:"recommended"`
	Limits      Limits          `json:"limits"`
	Features    []string        `json:"features"`
	Host        Host            `json:"host"`
}

type Limits struct {
	MaxComputeInvocationsPerWorkgroup uint32 `json:"max_compute_invocations_per_workgroup"`
	MaxComputeWorkgroupSizeX          uint32 `json:"max_compute_workgroup_size_x"`
	MaxComputeWorkgroupSizeY          uint32 `json:"max_compute_workgroup_size_y"`
	MaxComputeWorkgroupSizeZ          uint32 `json:"max_compute_workgroup_size_z"`
	MaxComputeWorkgroupsPerDimension  uint32 `json:"max_compute_workgroups_per_dimension"`
	MaxStorageBuffersPerShaderStage   uint32 `json:"max_storage_buffers_per_shader_stage"`
	MaxStorageBufferBindingSize       uint64 `json:"max_storage_buffer_binding_size"`
	MaxBufferSize                     uint64 `json:"max_buffer_size"`
}

type Recommendations struct {
	// Largest conservative 1D workgroup the adapter accepts.
	WorkgroupX uint32 `json:"workgroup_x"`
	// Largest element count a 1D dispatch of WorkgroupX can cover.
	MaxElements1D uint64 `json:"max_elements_1d"`
}

// Host describes the CPU the reference implementations run on.
type Host struct {
	OS   string   `json:"os"`
	Arch string   `json:"arch"`
	CPUs int      `json:"cpus"`
	SIMD []string `json:"simd,omitempty"`
}

// DetectJSON runs a probe and returns the JSON string.
func DetectJSON(opts ...gpu.Option) (string, error) {
	rep, err := Detect(opts...)
	if err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Detect acquires a session the same way a dispatch does and summarizes it.
func Detect(opts ...gpu.Option) (*Report, error) {
	s, err := gpu.Acquire(gpu.NewOptions(opts...))
	if err != nil {
		return nil, err
	}
	defer s.Release()

	info := s.Adapter.GetInfo()
	limits := s.Device.GetLimits()

	var feats []string
	for _, f := range s.Device.EnumerateFeatures() {
		feats = append(feats, featureName(f))
	}

	wgX := chooseWorkgroup(limits)
	return &Report{
		WhenISO:     time.Now().UTC().Format(time.RFC3339),
		Backend:     backendName(info.BackendType),
		AdapterType: adapterTypeName(info.AdapterType),
		VendorID:    fmt.Sprintf("0x%04x", info.VendorId),
		DeviceID:    fmt.Sprintf("0x%04x", info.DeviceId),
		Name:        strings.TrimSpace(info.Name),
		Driver:      strings.TrimSpace(info.DriverDescription),
		Timestamps:  s.Timestamps,
		Limits: Limits{
			MaxComputeInvocationsPerWorkgroup: limits.Limits.MaxComputeInvocationsPerWorkgroup,
			MaxComputeWorkgroupSizeX:          limits.Limits.MaxComputeWorkgroupSizeX,
			MaxComputeWorkgroupSizeY:          limits.Limits.MaxComputeWorkgroupSizeY,
			MaxComputeWorkgroupSizeZ:          limits.Limits.MaxComputeWorkgroupSizeZ,
			MaxComputeWorkgroupsPerDimension:  limits.Limits.MaxComputeWorkgroupsPerDimension,
			MaxStorageBuffersPerShaderStage:   limits.Limits.MaxStorageBuffersPerShaderStage,
			MaxStorageBufferBindingSize:       limits.Limits.MaxStorageBufferBindingSize,
			MaxBufferSize:                     limits.Limits.MaxBufferSize,
		},
		Features: feats,
		Recommended: Recommendations{
			WorkgroupX:    wgX,
			MaxElements1D: uint64(wgX) * uint64(limits.Limits.MaxComputeWorkgroupsPerDimension),
		},
		Host: detectHost(),
	}, nil
}

/* ---------- helpers ---------- */

func chooseWorkgroup(l wgpu.SupportedLimits) uint32 {
	maxX := l.Limits.MaxComputeWorkgroupSizeX
	maxTot := l.Limits.MaxComputeInvocationsPerWorkgroup

	candidates := []uint32{256, 128, 64, 32, 16, 8, 4, 1}
	for _, c := range candidates {
		if c <= maxX && c <= maxTot {
			return c
		}
	}
	// absolute portability fallback
	return 1
}

func featureName(f wgpu.FeatureName) string     { return f.String() }
func backendName(b wgpu.BackendType) string     { return b.String() }
func adapterTypeName(t wgpu.AdapterType) string { return t.String() }

func detectHost() Host {
	return Host{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
		CPUs: runtime.NumCPU(),
		SIMD: simdFeatures(),
	}
}

func simdFeatures() []string {
	var out []string
	add := func(ok bool, name string) {
		if ok {
			out = append(out, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add(cpu.X86.HasSSE41, "sse4.1")
		add(cpu.X86.HasAVX, "avx")
		add(cpu.X86.HasAVX2, "avx2")
		add(cpu.X86.HasFMA, "fma")
		add(cpu.X86.HasAVX512F, "avx512f")
	case "arm64":
		add(cpu.ARM64.HasASIMD, "asimd")
		add(cpu.ARM64.HasFPHP, "fphp")
		add(cpu.ARM64.HasSVE, "sve")
	}
	return out
}
