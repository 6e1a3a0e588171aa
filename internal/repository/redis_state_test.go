package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"StableBench/internal/domain/models"
	"StableBench/pkg/cache"
)

// fakeCacheService is an in-memory stand-in for the distributed cache.
// Only Set and Get are implemented; the latest store uses nothing else.
type fakeCacheService struct {
	cache.Service
	data map[string][]byte
}

func newFakeCacheService() *fakeCacheService {
	return &fakeCacheService{data: make(map[string][]byte)}
}

func (f *fakeCacheService) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = b
	return nil
}

func (f *fakeCacheService) Get(_ context.Context, key string, dest interface{}) error {
	b, ok := f.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(b, dest)
}

func TestLatestStoreMissIsNotAnError(t *testing.T) {
	s := NewRedisLatestStore(newFakeCacheService(), time.Minute)
	tick, err := s.GetLatest(context.Background())
	if err != nil {
		t.Fatalf("empty cache returned error: %v", err)
	}
	if tick != nil {
		t.Fatalf("empty cache returned tick: %+v", tick)
	}
}

func TestLatestStoreRoundTrip(t *testing.T) {
	s := NewRedisLatestStore(newFakeCacheService(), time.Minute)
	want := &models.BenchmarkTick{
		Tick:      7,
		Timestamp: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	if err := s.SetLatest(context.Background(), want); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.GetLatest(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Tick != want.Tick || !got.Timestamp.Equal(want.Timestamp) {
		t.Fatalf("got %+v, want tick %d", got, want.Tick)
	}
}
