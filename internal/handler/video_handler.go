package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/MiguelCoelho27/UALFlix/internal/catalog"
	"github.com/MiguelCoelho27/UALFlix/internal/model"
)

// Handlers contains the HTTP handlers and their dependencies.
type Handlers struct {
	coordinator *catalog.Coordinator
	logger      *zap.Logger
	timeout     time.Duration
}

// NewHandlers creates the HTTP handlers around the coordinator.
func NewHandlers(coordinator *catalog.Coordinator, timeout time.Duration, logger *zap.Logger) *Handlers {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Handlers{
		coordinator: coordinator,
		logger:      logger,
		timeout:     timeout,
	}
}

// createVideoRequest is the POST /videos body. Duration is decoded as a
// json.Number so a non-numeric value is rejected as a validation error
// rather than a decoding failure.
type createVideoRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Duration    json.Number `json:"duration"`
	Genre       string      `json:"genre"`
	VideoURL    string      `json:"video_url"`
}

// updateVideoRequest is the PUT /videos/{id} body; absent fields stay
// untouched.
type updateVideoRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Duration    *json.Number `json:"duration"`
	Genre       *string      `json:"genre"`
	VideoURL    *string      `json:"video_url"`
}

// videoResponse wraps a record with an optional replication flag, set
// when a synchronous Secondary write failed but the Primary write stood.
type videoResponse struct {
	*model.Video
	Replication string `json:"replication,omitempty"`
}

// CreateVideo handles POST /videos.
func (h *Handlers) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, &catalog.ValidationError{Field: "body", Reason: "malformed JSON: " + err.Error()})
		return
	}

	duration, err := req.Duration.Int64()
	if req.Duration != "" && err != nil {
		h.writeError(w, r, &catalog.ValidationError{Field: "duration", Reason: "must be numeric"})
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	video, err := h.coordinator.Create(ctx, catalog.CreateRequest{
		Title:       req.Title,
		Description: req.Description,
		Duration:    duration,
		Genre:       req.Genre,
		VideoURL:    req.VideoURL,
	}, writeMode(r))

	resp := videoResponse{Video: video}
	var repErr *catalog.ReplicationError
	if errors.As(err, &repErr) {
		// Primary write committed; surface the degraded replication state
		// without failing the request.
		resp.Replication = "degraded"
	} else if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, resp)
}

// GetVideo handles GET /videos/{id}.
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	video, err := h.coordinator.Get(ctx, mux.Vars(r)["id"], useCache(r), readSource(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, video)
}

// ListVideos handles GET /videos.
func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	videos, err := h.coordinator.List(ctx, useCache(r), readSource(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, videos)
}

// UpdateVideo handles PUT /videos/{id}.
func (h *Handlers) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	var req updateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, &catalog.ValidationError{Field: "body", Reason: "malformed JSON: " + err.Error()})
		return
	}

	patch := &model.VideoPatch{
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		VideoURL:    req.VideoURL,
	}
	if req.Duration != nil {
		duration, err := req.Duration.Int64()
		if err != nil {
			h.writeError(w, r, &catalog.ValidationError{Field: "duration", Reason: "must be numeric"})
			return
		}
		patch.Duration = &duration
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	video, err := h.coordinator.Update(ctx, mux.Vars(r)["id"], patch, writeMode(r))

	resp := videoResponse{Video: video}
	var repErr *catalog.ReplicationError
	if errors.As(err, &repErr) {
		resp.Replication = "degraded"
	} else if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// DeleteVideo handles DELETE /videos/{id}.
func (h *Handlers) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id := mux.Vars(r)["id"]
	if err := h.coordinator.Delete(ctx, id, writeMode(r)); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"id":     id,
	})
}

// IncrementView handles POST /videos/{id}/views.
func (h *Handlers) IncrementView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	id := mux.Vars(r)["id"]
	views, err := h.coordinator.IncrementView(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"id":    id,
		"views": views,
	})
}

// PopularVideos handles GET /videos/popular.
func (h *Handlers) PopularVideos(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, r, &catalog.ValidationError{Field: "limit", Reason: "must be a positive integer"})
			return
		}
		limit = parsed
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	videos, err := h.coordinator.Popular(ctx, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, videos)
}

func (h *Handlers) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

// writeMode parses ?mode, defaulting to sync.
func writeMode(r *http.Request) model.WriteMode {
	switch r.URL.Query().Get("mode") {
	case string(model.WriteAsync):
		return model.WriteAsync
	case "":
		return model.WriteSync
	default:
		return model.WriteMode(r.URL.Query().Get("mode"))
	}
}

// useCache parses ?use_cache, defaulting to true.
func useCache(r *http.Request) bool {
	return r.URL.Query().Get("use_cache") != "false"
}

// readSource parses ?read_from, defaulting to primary. Unknown values
// are passed through so the coordinator rejects them as validation
// errors.
func readSource(r *http.Request) model.ReadSource {
	raw := r.URL.Query().Get("read_from")
	if raw == "" {
		return model.ReadPrimary
	}
	return model.ReadSource(raw)
}
