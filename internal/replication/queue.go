// Package replication provides the async replication queue and the single
// background worker that drains it against the Secondary store.
package replication

import (
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/MiguelCoelho27/UALFlix/internal/model"
)

// ErrQueueFull is returned when an operation cannot be enqueued. Callers
// on the async path log and continue; the write already landed on the
// Primary and the divergence surfaces later through a consistency audit.
var ErrQueueFull = errors.New("replication queue full")

// DefaultQueueCapacity bounds the pending-operation channel.
const DefaultQueueCapacity = 1024

// Queue is the multi-producer, single-consumer buffer between request
// handlers and the replication worker. FIFO order is preserved, so
// operations on the same id apply to the Secondary in enqueue order.
type Queue struct {
	ops    chan *model.AsyncOp
	depth  atomic.Int64
	logger *zap.Logger
}

// NewQueue creates a replication queue with the given capacity.
func NewQueue(capacity int, logger *zap.Logger) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{
		ops:    make(chan *model.AsyncOp, capacity),
		logger: logger,
	}
}

// Enqueue adds an operation without blocking. A full queue drops the
// operation and returns ErrQueueFull. The depth counter is incremented
// before the send so a racing consumer can never drive Depth below zero.
func (q *Queue) Enqueue(op *model.AsyncOp) error {
	op.EnqueuedAt = time.Now()

	q.depth.Add(1)
	select {
	case q.ops <- op:
		q.logger.Debug("operation enqueued for async replication",
			zap.String("kind", string(op.Kind)),
			zap.String("video_id", op.VideoID),
			zap.Int64("queue_depth", q.depth.Load()))
		return nil
	default:
		q.depth.Add(-1)
		q.logger.Warn("replication queue full, dropping operation",
			zap.String("kind", string(op.Kind)),
			zap.String("video_id", op.VideoID))
		return ErrQueueFull
	}
}

// Depth returns the number of operations waiting in the queue.
func (q *Queue) Depth() int64 {
	return q.depth.Load()
}

// take hands the channel to the worker; the depth counter is decremented
// by the worker once the dequeued operation has been applied or dropped.
func (q *Queue) take() <-chan *model.AsyncOp {
	return q.ops
}

func (q *Queue) markDone() {
	q.depth.Add(-1)
}
