package replication

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/MiguelCoelho27/UALFlix/internal/model"
	"github.com/MiguelCoelho27/UALFlix/internal/store"
)

// DefaultOpTimeout bounds each Secondary store call made by the worker.
const DefaultOpTimeout = 5 * time.Second

// Worker is the sole consumer of the replication queue and the only
// writer applying queued operations to the Secondary store. It blocks on
// the queue channel (no busy polling) and stops when its context is
// cancelled. Failed operations are logged and dropped: no retry, no
// dead-letter queue.
type Worker struct {
	queue     *Queue
	secondary store.VideoStore
	opTimeout time.Duration
	logger    *zap.Logger

	startOnce sync.Once
	stopped   chan struct{}
	inFlight  atomic.Int64
}

// NewWorker creates a replication worker draining queue into secondary.
func NewWorker(queue *Queue, secondary store.VideoStore, opTimeout time.Duration, logger *zap.Logger) *Worker {
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	return &Worker{
		queue:     queue,
		secondary: secondary,
		opTimeout: opTimeout,
		logger:    logger,
		stopped:   make(chan struct{}),
	}
}

// Start launches the consumer goroutine. It is safe to call more than
// once; only the first call starts the loop. The worker runs until ctx
// is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.logger.Info("async replication worker started",
			zap.Duration("op_timeout", w.opTimeout))
		go w.run(ctx)
	})
}

// Stopped is closed once the worker loop has exited.
func (w *Worker) Stopped() <-chan struct{} {
	return w.stopped
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.stopped)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("async replication worker stopping",
				zap.Int64("pending", w.queue.Depth()))
			return
		case op := <-w.queue.take():
			w.inFlight.Add(1)
			w.process(ctx, op)
			w.inFlight.Add(-1)
			w.queue.markDone()
		}
	}
}

func (w *Worker) process(ctx context.Context, op *model.AsyncOp) {
	opCtx, cancel := context.WithTimeout(ctx, w.opTimeout)
	defer cancel()

	if err := w.apply(opCtx, op); err != nil {
		// Drop on error; the divergence is observable through the
		// consistency audit, never through the original caller.
		w.logger.Error("async replication failed, dropping operation",
			zap.String("kind", string(op.Kind)),
			zap.String("video_id", op.VideoID),
			zap.Duration("queued_for", time.Since(op.EnqueuedAt)),
			zap.Error(err))
		return
	}

	w.logger.Debug("async replication applied",
		zap.String("kind", string(op.Kind)),
		zap.String("video_id", op.VideoID),
		zap.Duration("queued_for", time.Since(op.EnqueuedAt)))
}

func (w *Worker) apply(ctx context.Context, op *model.AsyncOp) error {
	switch op.Kind {
	case model.OpCreate:
		if op.Video == nil {
			return fmt.Errorf("create operation without record for id %s", op.VideoID)
		}
		return w.secondary.Insert(ctx, op.Video)
	case model.OpUpdate:
		err := w.secondary.ApplyPatch(ctx, op.VideoID, op.Patch)
		if errors.Is(err, store.ErrNoChange) {
			// The Secondary already holds the patched values; an absolute
			// view-count update retried after convergence lands here.
			return nil
		}
		return err
	case model.OpDelete:
		err := w.secondary.Delete(ctx, op.VideoID)
		if errors.Is(err, store.ErrNotFound) {
			// Deleting an id the Secondary never received is a no-op.
			return nil
		}
		return err
	default:
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

// Drain blocks until the queue is empty and no operation is in flight,
// or ctx expires. Test and shutdown helper.
func (w *Worker) Drain(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		if w.queue.Depth() == 0 && w.inFlight.Load() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
