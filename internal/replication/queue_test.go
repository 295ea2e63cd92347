package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MiguelCoelho27/UALFlix/internal/model"
)

func TestQueue_EnqueuePreservesOrder(t *testing.T) {
	queue := NewQueue(8, zap.NewNop())

	for i, kind := range []model.OpKind{model.OpCreate, model.OpUpdate, model.OpDelete} {
		err := queue.Enqueue(&model.AsyncOp{Kind: kind, VideoID: "v1"})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), queue.Depth())
	}

	// FIFO: operations come back in enqueue order.
	for _, want := range []model.OpKind{model.OpCreate, model.OpUpdate, model.OpDelete} {
		op := <-queue.take()
		queue.markDone()
		assert.Equal(t, want, op.Kind)
		assert.False(t, op.EnqueuedAt.IsZero())
	}
	assert.Equal(t, int64(0), queue.Depth())
}

func TestQueue_FullDropsWithoutBlocking(t *testing.T) {
	queue := NewQueue(2, zap.NewNop())

	require.NoError(t, queue.Enqueue(&model.AsyncOp{Kind: model.OpCreate, VideoID: "v1"}))
	require.NoError(t, queue.Enqueue(&model.AsyncOp{Kind: model.OpCreate, VideoID: "v2"}))

	err := queue.Enqueue(&model.AsyncOp{Kind: model.OpCreate, VideoID: "v3"})
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, int64(2), queue.Depth())
}

func TestQueue_DepthNeverNegative(t *testing.T) {
	queue := NewQueue(1, zap.NewNop())

	const total = 200
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			<-queue.take()
			queue.markDone()
		}
	}()

	// A fast consumer can dequeue and markDone before Enqueue returns;
	// the counter must still never read below zero.
	for enqueued := 0; enqueued < total; {
		err := queue.Enqueue(&model.AsyncOp{Kind: model.OpCreate, VideoID: "v1"})
		if err == nil {
			enqueued++
		} else {
			require.ErrorIs(t, err, ErrQueueFull)
		}
		assert.GreaterOrEqual(t, queue.Depth(), int64(0))
	}

	<-done
	assert.Equal(t, int64(0), queue.Depth())
}

func TestQueue_DefaultCapacity(t *testing.T) {
	queue := NewQueue(0, zap.NewNop())
	assert.Equal(t, DefaultQueueCapacity, cap(queue.ops))
}
