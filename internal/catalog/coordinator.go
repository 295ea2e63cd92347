// Package catalog implements the replication-and-cache coordinator for
// video metadata. Writes land on the Primary store first and reach the
// Secondary either inline (sync) or through the background replication
// worker (async); reads are served cache-first with a selectable store.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MiguelCoelho27/UALFlix/internal/cache"
	"github.com/MiguelCoelho27/UALFlix/internal/files"
	"github.com/MiguelCoelho27/UALFlix/internal/metrics"
	"github.com/MiguelCoelho27/UALFlix/internal/model"
	"github.com/MiguelCoelho27/UALFlix/internal/replication"
	"github.com/MiguelCoelho27/UALFlix/internal/store"
)

// DefaultListLimit caps the combined result of cached list assembly.
const DefaultListLimit = 30

// CreateRequest carries the required fields for a new video record.
type CreateRequest struct {
	Title       string
	Description string
	Duration    int64
	Genre       string
	VideoURL    string
}

// Coordinator is the public surface of the catalog core. One instance is
// constructed at startup and shared by all request handlers; it holds the
// long-lived store, cache, and queue handles.
type Coordinator struct {
	primary   store.VideoStore
	secondary store.VideoStore
	cache     cache.VideoCache
	queue     *replication.Queue
	auditor   *Auditor
	files     files.Remover
	metrics   *metrics.Metrics
	logger    *zap.Logger
	opTimeout time.Duration
	listLimit int
}

// Options tunes coordinator behavior beyond its required collaborators.
type Options struct {
	// OpTimeout bounds every store and cache call. Zero means 5s.
	OpTimeout time.Duration
	// ListLimit caps the cached list assembly. Zero means DefaultListLimit.
	ListLimit int
	// Files handles best-effort media removal. Nil means no-op.
	Files files.Remover
	// Metrics records instrumentation. Nil disables recording.
	Metrics *metrics.Metrics
}

// NewCoordinator creates the coordinator.
func NewCoordinator(
	primary, secondary store.VideoStore,
	videoCache cache.VideoCache,
	queue *replication.Queue,
	auditor *Auditor,
	logger *zap.Logger,
	opts Options,
) *Coordinator {
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 5 * time.Second
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = DefaultListLimit
	}
	if opts.Files == nil {
		opts.Files = files.NopRemover{}
	}

	return &Coordinator{
		primary:   primary,
		secondary: secondary,
		cache:     videoCache,
		queue:     queue,
		auditor:   auditor,
		files:     opts.Files,
		metrics:   opts.Metrics,
		logger:    logger,
		opTimeout: opts.OpTimeout,
		listLimit: opts.ListLimit,
	}
}

// Create validates the request, writes the record to the Primary and
// replicates it per mode. In sync mode a failed Secondary write does not
// roll back the Primary: the record is returned together with a
// *ReplicationError and the caller decides how to surface the degraded
// result.
func (c *Coordinator) Create(ctx context.Context, req CreateRequest, mode model.WriteMode) (*model.Video, error) {
	start := time.Now()
	if err := validateCreate(req); err != nil {
		c.metrics.RecordError("create", "validation")
		return nil, err
	}
	if !mode.Valid() {
		c.metrics.RecordError("create", "validation")
		return nil, &ValidationError{Field: "mode", Reason: "must be sync or async"}
	}

	video := &model.Video{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		Genre:       req.Genre,
		VideoURL:    req.VideoURL,
		Views:       0,
		CreatedAt:   time.Now().UTC(),
	}

	if err := c.withTimeout(ctx, func(ctx context.Context) error {
		return c.primary.Insert(ctx, video)
	}); err != nil {
		c.metrics.RecordError("create", "primary")
		return nil, err
	}

	var repErr *ReplicationError
	switch mode {
	case model.WriteSync:
		if err := c.withTimeout(ctx, func(ctx context.Context) error {
			return c.secondary.Insert(ctx, video.Clone())
		}); err != nil {
			repErr = &ReplicationError{Op: "create", Err: err}
			c.metrics.RecordReplication("create", "sync", "error")
			c.logger.Error("sync replication failed, primary write kept",
				zap.String("video_id", video.ID),
				zap.Error(err))
		} else {
			c.metrics.RecordReplication("create", "sync", "ok")
		}
	case model.WriteAsync:
		c.enqueue(&model.AsyncOp{
			Kind:    model.OpCreate,
			VideoID: video.ID,
			Video:   video.Clone(),
		})
	}

	// Cache and ranking updates happen regardless of replication mode.
	c.cacheSet(ctx, video)
	c.bump(ctx, video.ID, float64(video.Views))

	c.metrics.RecordOperation("create", string(mode), time.Since(start).Seconds())
	c.logger.Info("video created",
		zap.String("video_id", video.ID),
		zap.String("title", video.Title),
		zap.String("mode", string(mode)))

	if repErr != nil {
		return video, repErr
	}
	return video, nil
}

// Get returns the record for id. With useCache a hit is served without
// touching any store and a miss repopulates the cache after the store
// read.
func (c *Coordinator) Get(ctx context.Context, id string, useCache bool, readFrom model.ReadSource) (*model.Video, error) {
	st, err := c.pick(readFrom)
	if err != nil {
		return nil, err
	}

	if useCache {
		if video := c.cacheGet(ctx, id); video != nil {
			return video, nil
		}
	}

	var video *model.Video
	if err := c.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		video, err = st.Get(ctx, id)
		return err
	}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		c.metrics.RecordError("get", "store")
		return nil, err
	}

	if useCache {
		c.cacheSet(ctx, video)
	}
	return video, nil
}

// List returns a bounded, most-recent-first view of the catalog. With
// useCache it is assembled from the popularity ranking first and then
// topped up with the latest records from the chosen store, de-duplicated
// by id; without it the store is scanned directly.
func (c *Coordinator) List(ctx context.Context, useCache bool, readFrom model.ReadSource) ([]*model.Video, error) {
	st, err := c.pick(readFrom)
	if err != nil {
		return nil, err
	}

	if !useCache {
		var videos []*model.Video
		err := c.withTimeout(ctx, func(ctx context.Context) error {
			var err error
			videos, err = st.List(ctx)
			return err
		})
		return videos, err
	}

	seen := make(map[string]struct{})
	videos := make([]*model.Video, 0, c.listLimit)

	ids, err := c.cache.TopIDs(ctx, c.listLimit)
	if err != nil {
		c.softCacheFailure("list ranking read failed", err)
		ids = nil
	}
	for _, id := range ids {
		if len(videos) >= c.listLimit {
			break
		}
		video := c.resolve(ctx, st, id)
		if video == nil {
			continue
		}
		seen[video.ID] = struct{}{}
		videos = append(videos, video)
	}

	var recent []*model.Video
	if err := c.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		recent, err = st.ListRecent(ctx, c.listLimit)
		return err
	}); err != nil {
		return nil, err
	}
	for _, video := range recent {
		if len(videos) >= c.listLimit {
			break
		}
		if _, dup := seen[video.ID]; dup {
			continue
		}
		seen[video.ID] = struct{}{}
		videos = append(videos, video)
	}

	return videos, nil
}

// Update applies a typed partial update to the Primary and replicates it
// per mode, invalidating (not repopulating) the cached snapshot. Returns
// ErrNotFound if the id is absent and ErrNoChange if the store reports no
// modification.
func (c *Coordinator) Update(ctx context.Context, id string, patch *model.VideoPatch, mode model.WriteMode) (*model.Video, error) {
	start := time.Now()
	if err := validatePatch(patch); err != nil {
		c.metrics.RecordError("update", "validation")
		return nil, err
	}
	if !mode.Valid() {
		c.metrics.RecordError("update", "validation")
		return nil, &ValidationError{Field: "mode", Reason: "must be sync or async"}
	}

	if err := c.withTimeout(ctx, func(ctx context.Context) error {
		return c.primary.ApplyPatch(ctx, id, patch)
	}); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, store.ErrNoChange):
			return nil, ErrNoChange
		}
		c.metrics.RecordError("update", "primary")
		return nil, err
	}

	var repErr *ReplicationError
	switch mode {
	case model.WriteSync:
		if err := c.withTimeout(ctx, func(ctx context.Context) error {
			err := c.secondary.ApplyPatch(ctx, id, patch)
			if errors.Is(err, store.ErrNoChange) {
				return nil
			}
			return err
		}); err != nil {
			repErr = &ReplicationError{Op: "update", Err: err}
			c.metrics.RecordReplication("update", "sync", "error")
			c.logger.Error("sync replication failed, primary update kept",
				zap.String("video_id", id),
				zap.Error(err))
		} else {
			c.metrics.RecordReplication("update", "sync", "ok")
		}
	case model.WriteAsync:
		c.enqueue(&model.AsyncOp{
			Kind:    model.OpUpdate,
			VideoID: id,
			Patch:   patch,
		})
	}

	c.invalidate(ctx, id)

	var updated *model.Video
	if err := c.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		updated, err = c.primary.Get(ctx, id)
		return err
	}); err != nil {
		return nil, err
	}

	c.metrics.RecordOperation("update", string(mode), time.Since(start).Seconds())
	if repErr != nil {
		return updated, repErr
	}
	return updated, nil
}

// Delete removes the record from the Primary, replicates the removal per
// mode (Secondary failures are best-effort either way) and requests
// media cleanup from the upload service.
func (c *Coordinator) Delete(ctx context.Context, id string, mode model.WriteMode) error {
	start := time.Now()
	if !mode.Valid() {
		return &ValidationError{Field: "mode", Reason: "must be sync or async"}
	}

	// Fetch first: the media URL is needed for cleanup after the row is gone.
	var video *model.Video
	if err := c.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		video, err = c.primary.Get(ctx, id)
		return err
	}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := c.withTimeout(ctx, func(ctx context.Context) error {
		return c.primary.Delete(ctx, id)
	}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		c.metrics.RecordError("delete", "primary")
		return err
	}

	switch mode {
	case model.WriteSync:
		if err := c.withTimeout(ctx, func(ctx context.Context) error {
			err := c.secondary.Delete(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}); err != nil {
			// Best effort: the primary deletion result is authoritative.
			c.metrics.RecordReplication("delete", "sync", "error")
			c.logger.Error("secondary delete failed",
				zap.String("video_id", id),
				zap.Error(err))
		} else {
			c.metrics.RecordReplication("delete", "sync", "ok")
		}
	case model.WriteAsync:
		c.enqueue(&model.AsyncOp{
			Kind:    model.OpDelete,
			VideoID: id,
		})
	}

	c.invalidate(ctx, id)

	if err := c.files.Remove(ctx, video.VideoURL); err != nil {
		c.logger.Warn("media file removal failed",
			zap.String("video_id", id),
			zap.String("video_url", video.VideoURL),
			zap.Error(err))
	}

	c.metrics.RecordOperation("delete", string(mode), time.Since(start).Seconds())
	c.logger.Info("video deleted",
		zap.String("video_id", id),
		zap.String("mode", string(mode)))
	return nil
}

// IncrementView atomically bumps the Primary view count and returns the
// new value. The Secondary always receives the absolute count through the
// async path so a retried operation cannot double-count.
func (c *Coordinator) IncrementView(ctx context.Context, id string) (int64, error) {
	start := time.Now()

	var views int64
	if err := c.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		views, err = c.primary.IncrementViews(ctx, id)
		return err
	}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrNotFound
		}
		c.metrics.RecordError("increment_view", "primary")
		return 0, err
	}

	absolute := views
	c.enqueue(&model.AsyncOp{
		Kind:    model.OpUpdate,
		VideoID: id,
		Patch:   &model.VideoPatch{Views: &absolute},
	})

	c.bump(ctx, id, 1)
	c.invalidate(ctx, id)

	c.metrics.RecordOperation("increment_view", "async", time.Since(start).Seconds())
	return views, nil
}

// Popular returns up to limit records by descending popularity score,
// resolved cache-first with Primary fallback and re-caching.
func (c *Coordinator) Popular(ctx context.Context, limit int) ([]*model.Video, error) {
	if limit <= 0 {
		return nil, &ValidationError{Field: "limit", Reason: "must be positive"}
	}

	ids, err := c.cache.TopIDs(ctx, limit)
	if err != nil {
		c.softCacheFailure("popularity ranking read failed", err)
		return []*model.Video{}, nil
	}

	videos := make([]*model.Video, 0, len(ids))
	for _, id := range ids {
		if video := c.resolve(ctx, c.primary, id); video != nil {
			videos = append(videos, video)
		}
	}
	return videos, nil
}

// Status reports cache connectivity, ranking size, pending queue depth
// and the latest consistency report.
func (c *Coordinator) Status(ctx context.Context) *model.ReplicationStatus {
	status := &model.ReplicationStatus{
		QueueDepth: c.queue.Depth(),
		LastReport: c.auditor.Last(),
	}

	if err := c.cache.Ping(ctx); err == nil {
		status.CacheConnected = true
		if count, err := c.cache.PopularCount(ctx); err == nil {
			status.CachedPopularCount = count
		} else {
			c.softCacheFailure("popularity count failed", err)
		}
	} else {
		c.softCacheFailure("cache ping failed", err)
	}

	return status
}

// CheckConsistency runs an on-demand audit of both stores.
func (c *Coordinator) CheckConsistency(ctx context.Context) (*model.ConsistencyReport, error) {
	return c.auditor.Check(ctx)
}

// ClearCache removes every cached snapshot plus the popularity ranking
// and returns the number of snapshot entries cleared.
func (c *Coordinator) ClearCache(ctx context.Context) (int64, error) {
	cleared, err := c.cache.Clear(ctx)
	if err != nil {
		return cleared, err
	}
	c.logger.Info("cache cleared", zap.Int64("entries", cleared))
	return cleared, nil
}

func (c *Coordinator) pick(readFrom model.ReadSource) (store.VideoStore, error) {
	switch readFrom {
	case model.ReadPrimary:
		return c.primary, nil
	case model.ReadSecondary:
		return c.secondary, nil
	default:
		return nil, &ValidationError{Field: "read_from", Reason: "must be primary or secondary"}
	}
}

// resolve fetches id cache-first from st, re-caching on store hits.
// Unresolvable ids (deleted but still ranked) yield nil.
func (c *Coordinator) resolve(ctx context.Context, st store.VideoStore, id string) *model.Video {
	if video := c.cacheGet(ctx, id); video != nil {
		return video
	}

	var video *model.Video
	if err := c.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		video, err = st.Get(ctx, id)
		return err
	}); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Warn("store read failed while resolving ranked id",
				zap.String("video_id", id),
				zap.Error(err))
		}
		return nil
	}

	c.cacheSet(ctx, video)
	return video
}

func (c *Coordinator) enqueue(op *model.AsyncOp) {
	if err := c.queue.Enqueue(op); err != nil {
		// The Primary write already committed; the gap surfaces through
		// the consistency audit.
		c.metrics.RecordReplication(string(op.Kind), "async", "dropped")
		return
	}
	c.metrics.RecordReplication(string(op.Kind), "async", "queued")
}

func (c *Coordinator) cacheGet(ctx context.Context, id string) *model.Video {
	video, err := c.cache.Get(ctx, id)
	if err != nil {
		c.softCacheFailure("cache read failed", err)
		return nil
	}
	if video == nil {
		c.metrics.RecordCacheMiss()
		return nil
	}
	c.metrics.RecordCacheHit()
	return video
}

func (c *Coordinator) cacheSet(ctx context.Context, video *model.Video) {
	if err := c.cache.Set(ctx, video); err != nil {
		c.softCacheFailure("cache write failed", err)
	}
}

func (c *Coordinator) invalidate(ctx context.Context, id string) {
	if err := c.cache.Invalidate(ctx, id); err != nil {
		c.softCacheFailure("cache invalidation failed", err)
	}
}

func (c *Coordinator) bump(ctx context.Context, id string, delta float64) {
	if err := c.cache.Bump(ctx, id, delta); err != nil {
		c.softCacheFailure("popularity bump failed", err)
	}
}

// softCacheFailure absorbs a cache error: logged and counted, never
// surfaced to the caller.
func (c *Coordinator) softCacheFailure(msg string, err error) {
	c.metrics.RecordCacheError()
	c.logger.Warn(msg, zap.Error(err))
}

func (c *Coordinator) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	return fn(opCtx)
}

func validateCreate(req CreateRequest) error {
	if req.Title == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if req.Description == "" {
		return &ValidationError{Field: "description", Reason: "required"}
	}
	if req.Duration <= 0 {
		return &ValidationError{Field: "duration", Reason: "must be a positive number of seconds"}
	}
	if req.Genre == "" {
		return &ValidationError{Field: "genre", Reason: "required"}
	}
	if req.VideoURL == "" {
		return &ValidationError{Field: "video_url", Reason: "required"}
	}
	return nil
}

func validatePatch(patch *model.VideoPatch) error {
	if patch.IsEmpty() {
		return &ValidationError{Field: "fields", Reason: "at least one updatable field is required"}
	}
	if patch.Title != nil && *patch.Title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if patch.Duration != nil && *patch.Duration <= 0 {
		return &ValidationError{Field: "duration", Reason: "must be a positive number of seconds"}
	}
	if patch.Views != nil && *patch.Views < 0 {
		return &ValidationError{Field: "views", Reason: "must not be negative"}
	}
	return nil
}
