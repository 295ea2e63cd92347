package replication

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MiguelCoelho27/UALFlix/internal/model"
	"github.com/MiguelCoelho27/UALFlix/internal/store"
)

func testVideo(id string) *model.Video {
	return &model.Video{
		ID:          id,
		Title:       "Title " + id,
		Description: "test record",
		Duration:    120,
		Genre:       "test",
		VideoURL:    "http://upload:5001/stream/" + id + ".mp4",
		CreatedAt:   time.Now().UTC(),
	}
}

func drainWorker(t *testing.T, w *Worker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, w.Drain(ctx))
}

func TestWorker_AppliesQueuedOperations(t *testing.T) {
	logger := zap.NewNop()
	secondary := store.NewMemoryStore()
	queue := NewQueue(16, logger)
	worker := NewWorker(queue, secondary, time.Second, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	video := testVideo("v1")
	require.NoError(t, queue.Enqueue(&model.AsyncOp{Kind: model.OpCreate, VideoID: video.ID, Video: video}))

	title := "Renamed"
	require.NoError(t, queue.Enqueue(&model.AsyncOp{
		Kind:    model.OpUpdate,
		VideoID: video.ID,
		Patch:   &model.VideoPatch{Title: &title},
	}))

	drainWorker(t, worker)

	got, err := secondary.Get(context.Background(), video.ID)
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
}

func TestWorker_ToleratesIdempotentReplays(t *testing.T) {
	logger := zap.NewNop()
	secondary := store.NewMemoryStore()
	queue := NewQueue(16, logger)
	worker := NewWorker(queue, secondary, time.Second, logger)

	ctx := context.Background()
	video := testVideo("v1")
	require.NoError(t, secondary.Insert(ctx, video.Clone()))

	// A patch matching the stored values and a delete for an unknown id
	// are both treated as already applied.
	sameTitle := video.Title
	assert.NoError(t, worker.apply(ctx, &model.AsyncOp{
		Kind:    model.OpUpdate,
		VideoID: video.ID,
		Patch:   &model.VideoPatch{Title: &sameTitle},
	}))
	assert.NoError(t, worker.apply(ctx, &model.AsyncOp{Kind: model.OpDelete, VideoID: "never-seen"}))
}

func TestWorker_FailedOperationIsDropped(t *testing.T) {
	logger := zap.NewNop()
	secondary := store.NewMemoryStore()
	queue := NewQueue(16, logger)
	worker := NewWorker(queue, secondary, time.Second, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	// A create op without its record cannot apply; the worker drops it
	// and keeps consuming.
	require.NoError(t, queue.Enqueue(&model.AsyncOp{Kind: model.OpCreate, VideoID: "broken"}))

	video := testVideo("v2")
	require.NoError(t, queue.Enqueue(&model.AsyncOp{Kind: model.OpCreate, VideoID: video.ID, Video: video}))

	drainWorker(t, worker)

	_, err := secondary.Get(context.Background(), "broken")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = secondary.Get(context.Background(), video.ID)
	assert.NoError(t, err)
}

func TestWorker_StopsOnContextCancel(t *testing.T) {
	logger := zap.NewNop()
	queue := NewQueue(16, logger)
	worker := NewWorker(queue, store.NewMemoryStore(), time.Second, logger)

	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)
	cancel()

	select {
	case <-worker.Stopped():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}

func TestWorker_StartIsIdempotent(t *testing.T) {
	logger := zap.NewNop()
	queue := NewQueue(16, logger)
	worker := NewWorker(queue, store.NewMemoryStore(), time.Second, logger)

	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)
	worker.Start(ctx)
	cancel()

	select {
	case <-worker.Stopped():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
