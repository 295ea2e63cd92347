package store

import (
	"context"
	"sort"
	"sync"

	"github.com/MiguelCoelho27/UALFlix/internal/model"
)

// MemoryStore is an in-memory VideoStore. It backs unit tests and local
// development runs where no PostgreSQL instance is available.
type MemoryStore struct {
	mu     sync.RWMutex
	videos map[string]*model.Video
	order  []string // ids in insertion order
}

// NewMemoryStore creates an empty in-memory video store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		videos: make(map[string]*model.Video),
	}
}

// Insert stores a new record under its pre-assigned id.
func (s *MemoryStore) Insert(ctx context.Context, video *model.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.videos[video.ID]; !exists {
		s.order = append(s.order, video.ID)
	}
	s.videos[video.ID] = video.Clone()
	return nil
}

// Get returns the record for id or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	video, exists := s.videos[id]
	if !exists {
		return nil, ErrNotFound
	}
	return video.Clone(), nil
}

// List returns all records, most recently created first.
func (s *MemoryStore) List(ctx context.Context) ([]*model.Video, error) {
	return s.ListRecent(ctx, len(s.snapshotOrder()))
}

// ListRecent returns up to limit records, most recently created first.
func (s *MemoryStore) ListRecent(ctx context.Context, limit int) ([]*model.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	videos := make([]*model.Video, 0, len(s.videos))
	for i := len(s.order) - 1; i >= 0 && len(videos) < limit; i-- {
		if video, exists := s.videos[s.order[i]]; exists {
			videos = append(videos, video.Clone())
		}
	}

	// Insertion order already approximates created_at; keep ties stable.
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].CreatedAt.After(videos[j].CreatedAt)
	})
	return videos, nil
}

// SampleOldest returns up to limit records in insertion order.
func (s *MemoryStore) SampleOldest(ctx context.Context, limit int) ([]*model.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	videos := make([]*model.Video, 0, limit)
	for _, id := range s.order {
		if len(videos) >= limit {
			break
		}
		if video, exists := s.videos[id]; exists {
			videos = append(videos, video.Clone())
		}
	}
	return videos, nil
}

// ApplyPatch applies the present patch fields to the record.
func (s *MemoryStore) ApplyPatch(ctx context.Context, id string, patch *model.VideoPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, exists := s.videos[id]
	if !exists {
		return ErrNotFound
	}

	updated := video.Clone()
	patch.Apply(updated)
	if *updated == *video {
		return ErrNoChange
	}

	s.videos[id] = updated
	return nil
}

// IncrementViews atomically adds one to the view count.
func (s *MemoryStore) IncrementViews(ctx context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, exists := s.videos[id]
	if !exists {
		return 0, ErrNotFound
	}

	video.Views++
	return video.Views, nil
}

// Delete removes the record, returning ErrNotFound if absent.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.videos[id]; !exists {
		return ErrNotFound
	}

	delete(s.videos, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Count returns the number of records in the store.
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.videos)), nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}

func (s *MemoryStore) snapshotOrder() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order := make([]string, len(s.order))
	copy(order, s.order)
	return order
}
