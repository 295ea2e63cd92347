// Package store provides the video record stores. The Primary and
// Secondary stores share this interface; request handlers only ever
// write to the Primary, while the Secondary is written by replication.
package store

import (
	"context"
	"errors"

	"github.com/MiguelCoelho27/UALFlix/internal/model"
)

// ErrNotFound is returned when an id is absent from the store.
var ErrNotFound = errors.New("not found")

// ErrNoChange is returned when an update matched a row but modified nothing.
var ErrNoChange = errors.New("no change")

// VideoStore is the persistence contract for video records.
type VideoStore interface {
	// Insert stores a new record under the id already assigned to it.
	Insert(ctx context.Context, video *model.Video) error

	// Get returns the record for id or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Video, error)

	// List returns all records, most recently created first.
	List(ctx context.Context) ([]*model.Video, error)

	// ListRecent returns up to limit records, most recently created first.
	ListRecent(ctx context.Context, limit int) ([]*model.Video, error)

	// ApplyPatch applies the present patch fields to the record. Returns
	// ErrNotFound if the id is absent and ErrNoChange if the patch left
	// the stored row byte-identical.
	ApplyPatch(ctx context.Context, id string, patch *model.VideoPatch) error

	// IncrementViews atomically adds one to the view count and returns the
	// new value, or ErrNotFound.
	IncrementViews(ctx context.Context, id string) (int64, error)

	// Delete removes the record, returning ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// Count returns the number of records in the store.
	Count(ctx context.Context) (int64, error)

	// SampleOldest returns up to limit records in insertion order. Used by
	// the consistency auditor; deliberately not a full scan.
	SampleOldest(ctx context.Context, limit int) ([]*model.Video, error)

	// Ping checks store connectivity.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close()
}
