package gpu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openfluke/webgpu/wgpu"
)

// mapped holds the host-visible ranges of a finished dispatch. They are
// valid until the owning Resources are released.
type mapped struct {
	output []byte
	query  []byte
}

// mapRead requests a read mapping of the whole buffer. The returned channel
// receives exactly one value when the driver reports completion.
func mapRead(buf *wgpu.Buffer) (<-chan error, error) {
	done := make(chan error, 1)
	err := buf.MapAsync(wgpu.MapModeRead, 0, buf.GetSize(), func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			done <- fmt.Errorf("map status: %v", status)
			return
		}
		done <- nil
	})
	if err != nil {
		return nil, err
	}
	return done, nil
}

// readBack maps the readable output buffer and the query staging buffer, waits for the
// device to finish all submitted work and joins both completions.
func readBack(ctx context.Context, s *Session, r *Resources) (*mapped, error) {
	out := r.readable()
	outDone, err := mapRead(out)
	if err != nil {
		return nil, fmt.Errorf("%w: output: %v", ErrBufferMap, err)
	}
	queryDone, err := mapRead(r.QueryStagingBuffer)
	if err != nil {
		return nil, fmt.Errorf("%w: query staging: %v", ErrBufferMap, err)
	}

	poll := func(block bool) { s.Device.Poll(block, nil) }
	outErr, queryErr, err := wait(ctx, poll, outDone, queryDone)
	if err != nil {
		return nil, err
	}
	r.outputMapped = outErr == nil
	r.stagingMapped = queryErr == nil
	if err := errors.Join(outErr, queryErr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBufferMap, err)
	}

	m := &mapped{
		output: out.GetMappedRange(0, uint(out.GetSize())),
		query:  r.QueryStagingBuffer.GetMappedRange(0, uint(r.QueryStagingBuffer.GetSize())),
	}
	if m.output == nil || m.query == nil {
		return nil, fmt.Errorf("%w: mapped range nil", ErrBufferMap)
	}
	return m, nil
}

// wait drives the device until both one-shot completions have fired.
// Without a cancellable context it blocks in poll(true), which waits for
// all submitted work and has no timeout. With one, it polls without
// blocking and gives up when ctx is done.
func wait(ctx context.Context, poll func(block bool), a, b <-chan error) (errA, errB error, err error) {
	var gotA, gotB bool
	collect := func() bool {
		if !gotA {
			select {
			case errA = <-a:
				gotA = true
			default:
			}
		}
		if !gotB {
			select {
			case errB = <-b:
				gotB = true
			default:
			}
		}
		return gotA && gotB
	}

	if ctx.Done() == nil {
		for !collect() {
			poll(true)
		}
		return errA, errB, nil
	}

	for !collect() {
		poll(false)
		select {
		case <-ctx.Done():
			return nil, nil, fmt.Errorf("waiting for device: %w", ctx.Err())
		default:
			time.Sleep(time.Millisecond)
		}
	}
	return errA, errB, nil
}
