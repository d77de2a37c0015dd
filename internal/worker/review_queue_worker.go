package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ayo6706/otc-ledger/internal/observability"
	"github.com/ayo6706/otc-ledger/internal/repository"
	"go.uber.org/zap"
)

// QueueCounter refreshes the review queue figures.
type QueueCounter interface {
	Run(ctx context.Context) (repository.ReviewQueueCounts, error)
}

// ReviewQueueWorker periodically recounts pending recharges, pending cuts and active loans.
type ReviewQueueWorker struct {
	svc      QueueCounter
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewReviewQueueWorker constructs a worker with a default one minute interval.
func NewReviewQueueWorker(svc QueueCounter) *ReviewQueueWorker {
	return &ReviewQueueWorker{
		svc:      svc,
		interval: time.Minute,
		stopCh:   make(chan struct{}),
	}
}

// WithInterval updates the run interval.
func (w *ReviewQueueWorker) WithInterval(interval time.Duration) *ReviewQueueWorker {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// Start blocks and refreshes the queue at the configured interval.
func (w *ReviewQueueWorker) Start(ctx context.Context) {
	zap.L().Info("review queue worker starting", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("review queue worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("review queue worker stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop stops the running worker loop.
func (w *ReviewQueueWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *ReviewQueueWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

func (w *ReviewQueueWorker) runOnce(ctx context.Context) {
	if _, err := w.svc.Run(ctx); err != nil {
		observability.IncrementWorkerRun("review_queue", "failed")
		zap.L().Error("review queue refresh failed", zap.Error(err))
		return
	}
	observability.IncrementWorkerRun("review_queue", "success")
}
