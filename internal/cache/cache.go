// Package cache provides the TTL video cache and the bounded popularity
// ranking. Cache entries are never authoritative; callers treat every
// error from this package as a soft failure and fall back to the stores.
package cache

import (
	"context"
	"time"

	"github.com/MiguelCoelho27/UALFlix/internal/model"
)

// VideoCache is the contract for the cache layer.
type VideoCache interface {
	// Get retrieves a cached video snapshot. A miss returns (nil, nil).
	Get(ctx context.Context, id string) (*model.Video, error)

	// Set stores a snapshot, resetting its TTL.
	Set(ctx context.Context, video *model.Video) error

	// Invalidate removes a single cached snapshot immediately.
	Invalidate(ctx context.Context, id string) error

	// Bump adds delta to the popularity score for id, creating the entry
	// if absent, then trims the ranking to its configured cap.
	Bump(ctx context.Context, id string, delta float64) error

	// TopIDs returns up to limit ids by descending popularity score.
	TopIDs(ctx context.Context, limit int) ([]string, error)

	// PopularCount returns the number of ranked ids.
	PopularCount(ctx context.Context) (int64, error)

	// Clear removes all cached snapshots and the ranking, returning the
	// number of snapshot entries removed.
	Clear(ctx context.Context) (int64, error)

	// Ping checks cache connectivity.
	Ping(ctx context.Context) error
}

// Defaults for the cache layer; overridable through configuration.
const (
	DefaultTTL       = time.Hour
	DefaultMaxRanked = 50
)
