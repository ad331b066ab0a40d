// Package cache keeps recent upstream responses so identical requests inside
// the freshness window are not sent again.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	model "github.com/cowin-slot-notifier/src/model"
)

const (
	DefaultSize = 100
	DefaultTTL  = 30 * time.Minute
)

// ResponseCache stores opaque values under a key for a bounded time.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Fetcher serves SessionFetcher calls from a ResponseCache keyed by request URL.
// Only successful fetches are stored.
type Fetcher struct {
	next  model.SessionFetcher
	store ResponseCache
	keyOf func(model.QueryKey) string
	ttl   time.Duration
}

func NewFetcher(next model.SessionFetcher, store ResponseCache, keyOf func(model.QueryKey) string, ttl time.Duration) *Fetcher {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Fetcher{next: next, store: store, keyOf: keyOf, ttl: ttl}
}

func (f *Fetcher) Fetch(ctx context.Context, key model.QueryKey) ([]model.Center, error) {
	cacheKey := f.keyOf(key)

	value, ok, err := f.store.Get(ctx, cacheKey)
	if err != nil {
		log.Warn().Err(err).Str("cache_key", cacheKey).Msg("cache read failed")
	}
	if ok {
		var centers []model.Center
		if err := json.Unmarshal(value, &centers); err == nil {
			log.Debug().Str("cache_key", cacheKey).Msg("cache hit")
			return centers, nil
		}
		log.Warn().Str("cache_key", cacheKey).Msg("discarding unreadable cache entry")
	}

	centers, err := f.next.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	if centers == nil {
		centers = []model.Center{}
	}

	encoded, err := json.Marshal(centers)
	if err != nil {
		return centers, nil
	}
	if err := f.store.Put(ctx, cacheKey, encoded, f.ttl); err != nil {
		log.Warn().Err(err).Str("cache_key", cacheKey).Msg("cache write failed")
	}
	return centers, nil
}
