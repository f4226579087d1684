package gpu

import (
	"fmt"
	"slices"

	"github.com/openfluke/webgpu/wgpu"
)

// timestampFeature gates the query set used to time the compute pass.
// The binding's feature enum has no constant for timestamp writes inside
// encoders, so that half of the capability is confirmed by
// encoderTimestamps.
const timestampFeature = wgpu.FeatureNameTimestampQuery

// mappableFeature lets a storage buffer also carry MapRead, so the output
// can be mapped without a staging copy.
const mappableFeature = wgpu.NativeFeatureMappablePrimaryBuffers

// timestampSlots is the number of timestamps written per dispatch.
const timestampSlots = 2

// Session holds one WebGPU device acquired for a single dispatch.
type Session struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue

	// QuerySet is nil unless Timestamps is true.
	QuerySet *wgpu.QuerySet
	// Timestamps reports whether the device granted timestamp queries and
	// accepts timestamp writes on a command encoder.
	Timestamps bool
	// MappableOutput reports whether the output storage buffer can be
	// mapped directly. Otherwise it is copied into a staging buffer.
	MappableOutput bool
}

// Acquire creates an instance, picks an adapter with the requested power
// preference and opens a device on it. The device gets every feature the
// adapter supports; timestamp queries are requested only when advertised,
// so their absence never fails device creation.
func Acquire(opts Options) (*Session, error) {
	s := &Session{}

	s.Instance = wgpu.CreateInstance(nil)
	if s.Instance == nil {
		return nil, fmt.Errorf("%w: failed to create WebGPU instance", ErrNoAdapter)
	}

	adapter, err := s.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: opts.PowerPreference,
	})
	if err != nil || adapter == nil {
		s.Release()
		return nil, fmt.Errorf("%w: request adapter: %v", ErrNoAdapter, err)
	}
	s.Adapter = adapter

	info := adapter.GetInfo()
	if Debug {
		Log("Using GPU adapter: %s (vendor: %s, backend: %s)", info.Name, info.VendorName, info.BackendType.String())
	}

	features := adapter.EnumerateFeatures()
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            opts.Label,
		RequiredFeatures: features,
	})
	if err != nil || device == nil {
		s.Release()
		return nil, fmt.Errorf("%w: %v", ErrDeviceCreation, err)
	}
	s.Device = device
	s.Queue = device.GetQueue()

	granted := device.EnumerateFeatures()
	s.MappableOutput = slices.Contains(granted, mappableFeature)
	if slices.Contains(granted, timestampFeature) {
		s.QuerySet, err = device.CreateQuerySet(&wgpu.QuerySetDescriptor{
			Label: opts.Label + "_Timestamps",
			Type:  wgpu.QueryTypeTimestamp,
			Count: timestampSlots,
		})
		if err != nil {
			logger.WithError(err).Warn("timestamp query set unavailable, profiling disabled")
			s.QuerySet = nil
		} else if err := s.encoderTimestamps(opts.Label); err != nil {
			logger.WithError(err).Warn("timestamps inside encoders unsupported, profiling disabled")
			s.QuerySet.Release()
			s.QuerySet = nil
		}
	}
	s.Timestamps = s.QuerySet != nil
	if Debug {
		Log("Device ready: %d features, timestamps=%v, mappable output=%v", len(features), s.Timestamps, s.MappableOutput)
	}
	return s, nil
}

// encoderTimestamps records one timestamp on a throwaway encoder. The write
// fails validation when the device lacks timestamps inside encoders.
func (s *Session) encoderTimestamps(label string) error {
	enc, err := s.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label + "_TimestampCheck"})
	if err != nil {
		return err
	}
	defer enc.Release()
	return enc.WriteTimestamp(s.QuerySet, 0)
}

// TimestampPeriod is the duration of one timestamp tick in nanoseconds.
// The binding has no queue timestamp-period query; resolved WebGPU
// timestamps are already expressed in nanoseconds.
func (s *Session) TimestampPeriod() float64 {
	return 1.0
}

// Release frees everything the session acquired. Safe on a partial session.
func (s *Session) Release() {
	if s == nil {
		return
	}
	if s.QuerySet != nil {
		s.QuerySet.Release()
		s.QuerySet = nil
	}
	if s.Queue != nil {
		s.Queue.Release()
		s.Queue = nil
	}
	if s.Device != nil {
		s.Device.Release()
		s.Device = nil
	}
	if s.Adapter != nil {
		s.Adapter.Release()
		s.Adapter = nil
	}
	if s.Instance != nil {
		s.Instance.Release()
		s.Instance = nil
	}
	s.Timestamps = false
	s.MappableOutput = false
}
