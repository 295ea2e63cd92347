package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/MiguelCoelho27/UALFlix/internal/model"
)

// PostgresStore implements VideoStore over a PostgreSQL database. The
// Primary and Secondary stores are two instances of this type pointed at
// independent databases with an identical schema.
type PostgresStore struct {
	pool   *pgxpool.Pool
	name   string
	logger *zap.Logger
}

const createVideosTable = `
	CREATE TABLE IF NOT EXISTS videos (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		duration    BIGINT NOT NULL,
		genre       TEXT NOT NULL DEFAULT '',
		video_url   TEXT NOT NULL DEFAULT '',
		views       BIGINT NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// NewPostgresStore creates a video store backed by PostgreSQL. The name
// labels the store ("primary" or "secondary") in logs.
func NewPostgresStore(
	name string,
	host string,
	port int,
	database, user, password string,
	maxConns, minConns int,
	logger *zap.Logger,
) (*PostgresStore, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s pool_max_conns=%d pool_min_conns=%d",
		host, port, database, user, password, maxConns, minConns,
	)

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", name, err)
	}

	if _, err := pool.Exec(context.Background(), createVideosTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure videos schema on %s: %w", name, err)
	}

	return &PostgresStore{
		pool:   pool,
		name:   name,
		logger: logger,
	}, nil
}

// Insert stores a new record under its pre-assigned id.
func (s *PostgresStore) Insert(ctx context.Context, video *model.Video) error {
	query := `
		INSERT INTO videos (id, title, description, duration, genre, video_url, views, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.Duration,
		video.Genre,
		video.VideoURL,
		video.Views,
		video.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert video into %s: %w", s.name, err)
	}

	return nil
}

// Get returns the record for id or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, id string) (*model.Video, error) {
	query := `
		SELECT id, title, description, duration, genre, video_url, views, created_at
		FROM videos
		WHERE id = $1
	`

	var video model.Video
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&video.ID,
		&video.Title,
		&video.Description,
		&video.Duration,
		&video.Genre,
		&video.VideoURL,
		&video.Views,
		&video.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video from %s: %w", s.name, err)
	}

	return &video, nil
}

// List returns all records, most recently created first.
func (s *PostgresStore) List(ctx context.Context) ([]*model.Video, error) {
	return s.queryVideos(ctx, `
		SELECT id, title, description, duration, genre, video_url, views, created_at
		FROM videos
		ORDER BY created_at DESC
	`)
}

// ListRecent returns up to limit records, most recently created first.
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*model.Video, error) {
	return s.queryVideos(ctx, `
		SELECT id, title, description, duration, genre, video_url, views, created_at
		FROM videos
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
}

// SampleOldest returns up to limit records in insertion order.
func (s *PostgresStore) SampleOldest(ctx context.Context, limit int) ([]*model.Video, error) {
	return s.queryVideos(ctx, `
		SELECT id, title, description, duration, genre, video_url, views, created_at
		FROM videos
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
}

func (s *PostgresStore) queryVideos(ctx context.Context, query string, args ...any) ([]*model.Video, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos from %s: %w", s.name, err)
	}
	defer rows.Close()

	videos := make([]*model.Video, 0)
	for rows.Next() {
		var video model.Video
		if err := rows.Scan(
			&video.ID,
			&video.Title,
			&video.Description,
			&video.Duration,
			&video.Genre,
			&video.VideoURL,
			&video.Views,
			&video.CreatedAt,
		); err != nil {
			return nil, err
		}
		videos = append(videos, &video)
	}

	return videos, rows.Err()
}

// ApplyPatch applies the present patch fields to the record. The update
// only touches rows whose current values differ, so a patch that changes
// nothing is reported as ErrNoChange rather than silently succeeding.
func (s *PostgresStore) ApplyPatch(ctx context.Context, id string, patch *model.VideoPatch) error {
	sets, cols, args := buildPatchArgs(patch)
	if len(sets) == 0 {
		// Nothing to apply; still distinguish missing ids.
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return ErrNoChange
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE videos SET %s WHERE id = $%d AND (%s) IS DISTINCT FROM (%s)`,
		strings.Join(sets, ", "),
		len(args),
		strings.Join(cols, ", "),
		placeholders(len(cols)),
	)

	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update video in %s: %w", s.name, err)
	}

	if result.RowsAffected() == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return ErrNoChange
	}

	return nil
}

func buildPatchArgs(patch *model.VideoPatch) (sets, cols []string, args []any) {
	add := func(col string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
		cols = append(cols, col)
	}

	if patch == nil {
		return nil, nil, nil
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Duration != nil {
		add("duration", *patch.Duration)
	}
	if patch.Genre != nil {
		add("genre", *patch.Genre)
	}
	if patch.VideoURL != nil {
		add("video_url", *patch.VideoURL)
	}
	if patch.Views != nil {
		add("views", *patch.Views)
	}
	return sets, cols, args
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}

// IncrementViews atomically adds one to the view count.
func (s *PostgresStore) IncrementViews(ctx context.Context, id string) (int64, error) {
	query := `
		UPDATE videos
		SET views = views + 1
		WHERE id = $1
		RETURNING views
	`

	var views int64
	err := s.pool.QueryRow(ctx, query, id).Scan(&views)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment views in %s: %w", s.name, err)
	}

	return views, nil
}

// Delete removes the record, returning ErrNotFound if absent.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video from %s: %w", s.name, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Count returns the number of records in the store.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM videos`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count videos in %s: %w", s.name, err)
	}
	return count, nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
