package di

import (
	"testing"

	icache "StableBench/internal/service/cache"
	"StableBench/pkg/config"
)

func TestResponseCacheSelection(t *testing.T) {
	cfg := &config.Config{}
	if _, ok := provideResponseCache(cfg).(*icache.TTLCache); !ok {
		t.Fatalf("redis disabled: want the in-process TTL cache")
	}

	cfg.Redis.Enabled = true
	cfg.Redis.Host = "localhost"
	cfg.Redis.Port = 6379
	if _, ok := provideResponseCache(cfg).(*icache.RedisCache); !ok {
		t.Fatalf("redis enabled: want the redis-backed cache")
	}
}
