package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MiguelCoelho27/UALFlix/internal/cache"
	"github.com/MiguelCoelho27/UALFlix/internal/catalog"
	"github.com/MiguelCoelho27/UALFlix/internal/config"
	"github.com/MiguelCoelho27/UALFlix/internal/handler"
	"github.com/MiguelCoelho27/UALFlix/internal/health"
	"github.com/MiguelCoelho27/UALFlix/internal/model"
	"github.com/MiguelCoelho27/UALFlix/internal/replication"
	"github.com/MiguelCoelho27/UALFlix/internal/store"
)

type testServer struct {
	handler   http.Handler
	primary   *store.MemoryStore
	secondary *store.MemoryStore
	worker    *replication.Worker
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()

	primary := store.NewMemoryStore()
	secondary := store.NewMemoryStore()
	memCache := cache.NewMemoryCache(time.Hour, 50)
	queue := replication.NewQueue(64, logger)
	worker := replication.NewWorker(queue, secondary, time.Second, logger)
	auditor := catalog.NewAuditor(primary, secondary, 10, time.Second, nil, logger)

	coordinator := catalog.NewCoordinator(primary, secondary, memCache, queue, auditor, logger, catalog.Options{
		OpTimeout: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	worker.Start(ctx)

	cfg := config.DefaultConfig()
	handlers := handler.NewHandlers(coordinator, 5*time.Second, logger)
	checker := health.NewChecker(primary, secondary, memCache, logger)

	return &testServer{
		handler:   New(cfg, handlers, checker, logger).Handler(),
		primary:   primary,
		secondary: secondary,
		worker:    worker,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createVideo(t *testing.T, title string) model.Video {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/videos", map[string]any{
		"title":       title,
		"description": "a test video",
		"duration":    120,
		"genre":       "test",
		"video_url":   "http://upload:5001/stream/test.mp4",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var video model.Video
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &video))
	return video
}

func TestServer_CreateAndGetVideo(t *testing.T) {
	s := newTestServer(t)

	video := s.createVideo(t, "Metropolis")
	assert.NotEmpty(t, video.ID)
	assert.Equal(t, "Metropolis", video.Title)

	rec := s.do(t, http.MethodGet, "/videos/"+video.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Video
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, video.ID, got.ID)
}

func TestServer_CreateVideo_BadRequests(t *testing.T) {
	s := newTestServer(t)

	// Missing required fields.
	rec := s.do(t, http.MethodPost, "/videos", map[string]any{"title": "only a title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, handler.ErrorCodeInvalidRequest, resp.ErrorCode)

	// Non-numeric duration.
	rec = s.do(t, http.MethodPost, "/videos", map[string]any{
		"title":       "t",
		"description": "d",
		"duration":    "two minutes",
		"genre":       "g",
		"video_url":   "http://upload:5001/stream/t.mp4",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown replication mode.
	rec = s.do(t, http.MethodPost, "/videos?mode=eventual", map[string]any{
		"title":       "t",
		"description": "d",
		"duration":    120,
		"genre":       "g",
		"video_url":   "http://upload:5001/stream/t.mp4",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_GetVideo_NotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/videos/unknown-id", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, handler.ErrorCodeVideoNotFound, resp.ErrorCode)
}

func TestServer_UpdateVideo(t *testing.T) {
	s := newTestServer(t)
	video := s.createVideo(t, "Before")

	rec := s.do(t, http.MethodPut, "/videos/"+video.ID, map[string]any{"title": "After"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated model.Video
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "After", updated.Title)

	// Same values again: rejected as a no-change update.
	rec = s.do(t, http.MethodPut, "/videos/"+video.ID, map[string]any{"title": "After"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, handler.ErrorCodeNoChange, resp.ErrorCode)

	// Empty patch.
	rec = s.do(t, http.MethodPut, "/videos/"+video.ID, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_DeleteVideo(t *testing.T) {
	s := newTestServer(t)
	video := s.createVideo(t, "Ephemeral")

	rec := s.do(t, http.MethodDelete, "/videos/"+video.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/videos/"+video.ID+"?use_cache=false", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/videos/"+video.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_IncrementViewsAndPopular(t *testing.T) {
	s := newTestServer(t)
	first := s.createVideo(t, "First")
	second := s.createVideo(t, "Second")

	for i := 0; i < 3; i++ {
		rec := s.do(t, http.MethodPost, "/videos/"+second.ID+"/views", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := s.do(t, http.MethodPost, "/videos/"+first.ID+"/views", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var counted struct {
		ID    string `json:"id"`
		Views int64  `json:"views"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counted))
	assert.Equal(t, int64(1), counted.Views)

	// popular routes ahead of /videos/{id}.
	rec = s.do(t, http.MethodGet, "/videos/popular?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var popular []model.Video
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &popular))
	require.Len(t, popular, 2)
	assert.Equal(t, second.ID, popular[0].ID)
	assert.Equal(t, first.ID, popular[1].ID)

	rec = s.do(t, http.MethodGet, "/videos/popular?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ListVideos(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		s.createVideo(t, fmt.Sprintf("Video %d", i))
	}

	for _, path := range []string{"/videos", "/videos?use_cache=false"} {
		rec := s.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var videos []model.Video
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &videos))
		assert.Len(t, videos, 3, path)
	}
}

func TestServer_AdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.createVideo(t, "Audited")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.worker.Drain(ctx))

	rec := s.do(t, http.MethodGet, "/admin/replication/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status model.ReplicationStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.CacheConnected)
	assert.Equal(t, int64(0), status.QueueDepth)

	rec = s.do(t, http.MethodPost, "/admin/consistency/check", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report model.ConsistencyReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Consistent)

	rec = s.do(t, http.MethodPost, "/admin/cache/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cleared struct {
		Status  string `json:"status"`
		Entries int64  `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cleared))
	assert.Equal(t, "cleared", cleared.Status)
	assert.Equal(t, int64(1), cleared.Entries)
}

func TestServer_HealthProbes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status health.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ready", status.Status)
	assert.Equal(t, "healthy", status.Checks["primary"])
}
