package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRun_InvokesImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(ctx, time.Hour, func(context.Context) {
			calls.Add(1)
			cancel()
		})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestRun_RepeatsOnInterval(t *testing.T) {
	var calls atomic.Int32
	stop := Start(context.Background(), 10*time.Millisecond, func(context.Context) {
		calls.Add(1)
	})

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	stop()

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load(), "no runs after stop")
}

func TestStart_StopWaitsForJob(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool

	stop := Start(context.Background(), time.Hour, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		finished.Store(true)
	})

	<-started
	stop()
	assert.True(t, finished.Load())
}
