package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MiguelCoelho27/UALFlix/internal/model"
)

const (
	videoKeyPrefix   = "video:"
	popularVideosKey = "popular_videos"
)

// RedisCache implements VideoCache over Redis. Snapshots live under
// "video:<id>" string keys; the popularity ranking is a sorted set under
// a fixed key, trimmed to the top maxRanked ids after every bump.
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	maxRanked int
	logger    *zap.Logger
}

// NewRedisCache creates a Redis-backed video cache.
func NewRedisCache(
	host string,
	port int,
	password string,
	db int,
	ttl time.Duration,
	maxRanked int,
	logger *zap.Logger,
) (*RedisCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxRanked <= 0 {
		maxRanked = DefaultMaxRanked
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client:    client,
		ttl:       ttl,
		maxRanked: maxRanked,
		logger:    logger,
	}, nil
}

// Get retrieves a cached video snapshot. A miss returns (nil, nil).
func (c *RedisCache) Get(ctx context.Context, id string) (*model.Video, error) {
	data, err := c.client.Get(ctx, videoKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	var video model.Video
	if err := json.Unmarshal(data, &video); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached video: %w", err)
	}

	return &video, nil
}

// Set stores a snapshot with a fresh TTL.
func (c *RedisCache) Set(ctx context.Context, video *model.Video) error {
	data, err := json.Marshal(video)
	if err != nil {
		return fmt.Errorf("failed to marshal video: %w", err)
	}

	return c.client.Set(ctx, videoKeyPrefix+video.ID, data, c.ttl).Err()
}

// Invalidate removes a single cached snapshot.
func (c *RedisCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, videoKeyPrefix+id).Err()
}

// Bump adds delta to the popularity score for id and trims the ranking
// to the top maxRanked entries by score.
func (c *RedisCache) Bump(ctx context.Context, id string, delta float64) error {
	if err := c.client.ZIncrBy(ctx, popularVideosKey, delta, id).Err(); err != nil {
		return fmt.Errorf("failed to bump popularity score: %w", err)
	}

	// Evict everything below the top maxRanked scores.
	return c.client.ZRemRangeByRank(ctx, popularVideosKey, 0, int64(-(c.maxRanked + 1))).Err()
}

// TopIDs returns up to limit ids by descending popularity score.
func (c *RedisCache) TopIDs(ctx context.Context, limit int) ([]string, error) {
	ids, err := c.client.ZRevRange(ctx, popularVideosKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read popularity ranking: %w", err)
	}
	return ids, nil
}

// PopularCount returns the number of ranked ids.
func (c *RedisCache) PopularCount(ctx context.Context) (int64, error) {
	return c.client.ZCard(ctx, popularVideosKey).Result()
}

// Clear removes all cached snapshots and the ranking.
func (c *RedisCache) Clear(ctx context.Context) (int64, error) {
	var cleared int64

	iter := c.client.Scan(ctx, 0, videoKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return cleared, fmt.Errorf("failed to clear cache entry: %w", err)
		}
		cleared++
	}
	if err := iter.Err(); err != nil {
		return cleared, fmt.Errorf("failed to scan cache entries: %w", err)
	}

	if err := c.client.Del(ctx, popularVideosKey).Err(); err != nil {
		return cleared, fmt.Errorf("failed to clear popularity ranking: %w", err)
	}

	return cleared, nil
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
