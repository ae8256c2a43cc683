// Package scheduler runs a job immediately and then on a fixed interval.
package scheduler

import (
	"context"
	"log"
	"time"
)

// DefaultInterval is how often the refresh job runs.
const DefaultInterval = 3 * time.Hour

// Job is one scheduled unit of work. It must not panic; errors are its own to log.
type Job func(ctx context.Context)

// Run invokes job once, then every interval until ctx is cancelled.
// Runs never overlap: a tick that fires while job is still running is dropped.
func Run(ctx context.Context, interval time.Duration, job Job) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	log.Printf("[scheduler] starting (interval %v)", interval)
	job(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			job(ctx)
		case <-ctx.Done():
			log.Printf("[scheduler] stopped")
			return
		}
	}
}

// Start runs the scheduler in a goroutine and returns a function that stops it
// and waits for the current job to return.
func Start(ctx context.Context, interval time.Duration, job Job) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(ctx, interval, job)
	}()
	return func() {
		cancel()
		<-done
	}
}
