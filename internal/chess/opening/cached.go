package opening

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache stores JSON values by key. *cache.CacheService satisfies it.
type Cache interface {
	Lookup(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

const (
	lookupKeyPrefix = "opening:lookup:"

	// sharedCallTimeout bounds an upstream call once it no longer follows its first caller.
	sharedCallTimeout = 30 * time.Second
)

// CachedLookup caches lookup answers, misses included, and collapses concurrent
// requests for the same position into one upstream call. Errors are never cached.
type CachedLookup struct {
	next   Lookup
	cache  Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

func NewCachedLookup(next Lookup, c Cache, ttl time.Duration, logger *zap.Logger) *CachedLookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedLookup{next: next, cache: c, ttl: ttl, logger: logger}
}

func (c *CachedLookup) Lookup(ctx context.Context, fen string) (LookupResult, error) {
	key := lookupKeyPrefix + fen
	var cached LookupResult
	found, err := c.cache.Lookup(ctx, key, &cached)
	if err != nil {
		c.logger.Warn("opening_cache_read_failed", zap.String("fen", fen), zap.Error(err))
	} else if found {
		return cached, nil
	}

	// The shared call outlives any single caller: one session cancelling a stale
	// resolution must not fail another session waiting on the same position.
	ch := c.group.DoChan(fen, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedCallTimeout)
		defer cancel()
		res, err := c.next.Lookup(callCtx, fen)
		if err != nil {
			return LookupResult{}, err
		}
		if err := c.cache.Set(callCtx, key, res, c.ttl); err != nil {
			c.logger.Warn("opening_cache_write_failed", zap.String("fen", fen), zap.Error(err))
		}
		return res, nil
	})
	select {
	case <-ctx.Done():
		return LookupResult{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return LookupResult{}, r.Err
		}
		return r.Val.(LookupResult), nil
	}
}
