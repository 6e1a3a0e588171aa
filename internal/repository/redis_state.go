package repository

import (
	"context"
	"errors"
	"time"

	"StableBench/internal/domain/models"
	domrepo "StableBench/internal/domain/repository"
	"StableBench/pkg/cache"
)

const latestTickKey = "benchmark:latest"

// RedisLatestStore keeps the most recent tick in the distributed cache
// so API replicas that do not compute ticks can still serve it.
type RedisLatestStore struct {
	cache cache.Service
	ttl   time.Duration
}

func NewRedisLatestStore(c cache.Service, ttl time.Duration) *RedisLatestStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisLatestStore{cache: c, ttl: ttl}
}

func (s *RedisLatestStore) SetLatest(ctx context.Context, t *models.BenchmarkTick) error {
	return s.cache.Set(ctx, latestTickKey, t, s.ttl)
}

// GetLatest returns the cached tick, or (nil, nil) when nothing has
// been published yet. An empty cache is not an error.
func (s *RedisLatestStore) GetLatest(ctx context.Context) (*models.BenchmarkTick, error) {
	var t models.BenchmarkTick
	if err := s.cache.Get(ctx, latestTickKey, &t); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

var _ domrepo.LatestStore = (*RedisLatestStore)(nil)
