package concurrency

import (
	"context"
	"time"
)

// ThrottledWorker runs a job on demand, at most once per interval. Requests
// made while a run is pending are coalesced into that run.
type ThrottledWorker struct {
	interval    time.Duration
	jobCallback func() error
	pending     chan struct{}
}

func NewThrottledWorker(interval time.Duration, jobCallback func() error) *ThrottledWorker {
	return &ThrottledWorker{
		interval:    interval,
		jobCallback: jobCallback,
		pending:     make(chan struct{}, 1),
	}
}

// Trigger requests a run and never blocks.
func (w *ThrottledWorker) Trigger() {
	select {
	case w.pending <- struct{}{}:
	default:
	}
}

// Run processes triggers until ctx is cancelled. Job errors go to onError.
func (w *ThrottledWorker) Run(ctx context.Context, onError func(err error)) {
	limiter := time.NewTicker(w.interval)
	defer limiter.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.pending:
		}

		select {
		case <-ctx.Done():
			return
		case <-limiter.C:
		}

		if err := w.jobCallback(); err != nil && onError != nil {
			onError(err)
		}
	}
}
