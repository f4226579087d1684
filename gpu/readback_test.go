package gpu

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice fires the completions after a number of polls, the way a
// driver invokes map callbacks from inside Poll.
type fakeDevice struct {
	polls    int
	blocking int
	fireAt   map[int]func()
}

func (d *fakeDevice) poll(block bool) {
	d.polls++
	if block {
		d.blocking++
	}
	if fn, ok := d.fireAt[d.polls]; ok {
		fn()
	}
}

func TestWaitJoinsBothCompletions(t *testing.T) {
	a := make(chan error, 1)
	b := make(chan error, 1)
	d := &fakeDevice{fireAt: map[int]func(){
		1: func() { b <- nil },
		2: func() { a <- nil },
	}}

	errA, errB, err := wait(context.Background(), d.poll, a, b)
	require.NoError(t, err)
	assert.NoError(t, errA)
	assert.NoError(t, errB)
	assert.Equal(t, 2, d.polls)
	assert.Equal(t, 2, d.blocking)
}

func TestWaitReportsEachFailure(t *testing.T) {
	a := make(chan error, 1)
	b := make(chan error, 1)
	mapErr := errors.New("map status: error")
	d := &fakeDevice{fireAt: map[int]func(){
		1: func() { a <- nil; b <- mapErr },
	}}

	errA, errB, err := wait(context.Background(), d.poll, a, b)
	require.NoError(t, err)
	assert.NoError(t, errA)
	assert.Equal(t, mapErr, errB)
	assert.Equal(t, 1, d.polls)
}

func TestWaitAlreadyComplete(t *testing.T) {
	a := make(chan error, 1)
	b := make(chan error, 1)
	a <- nil
	b <- nil
	d := &fakeDevice{}

	_, _, err := wait(context.Background(), d.poll, a, b)
	require.NoError(t, err)
	assert.Zero(t, d.polls)
}

func TestWaitCancellable(t *testing.T) {
	a := make(chan error, 1)
	b := make(chan error, 1)
	d := &fakeDevice{fireAt: map[int]func(){
		3: func() { a <- nil; b <- nil },
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, _, err := wait(ctx, d.poll, a, b)
	require.NoError(t, err)
	assert.Equal(t, 3, d.polls)
	assert.Zero(t, d.blocking)
}

func TestWaitTimesOut(t *testing.T) {
	a := make(chan error, 1)
	b := make(chan error, 1)
	d := &fakeDevice{}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err := wait(ctx, d.poll, a, b)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, d.blocking)
}
