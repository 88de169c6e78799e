package opening

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/RedBe-an/OpenChess/internal/service/cache"
)

func newTestCache(t *testing.T) *cache.CacheService {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	port, _ := strconv.Atoi(mr.Port())
	c, err := cache.NewCacheService(cache.CacheConfig{Host: mr.Host(), Port: port}, nil)
	if err != nil {
		t.Fatalf("NewCacheService: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCachedLookupCachesHitsAndMisses(t *testing.T) {
	l := newCountingLookup()
	l.hits["hit"] = hit("Ruy Lopez", "C60", 1)
	cl := NewCachedLookup(l, newTestCache(t), time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := cl.Lookup(ctx, "hit")
		if err != nil || !res.Found() || res.Opening.Name != "Ruy Lopez" || len(res.TopGames) != 1 {
			t.Fatalf("Lookup hit #%d: %+v %v", i, res, err)
		}
		res, err = cl.Lookup(ctx, "miss")
		if err != nil || res.Found() {
			t.Fatalf("Lookup miss #%d: %+v %v", i, res, err)
		}
	}
	if l.count() != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", l.count())
	}
}

func TestCachedLookupDoesNotCacheErrors(t *testing.T) {
	l := newCountingLookup()
	l.failing["p"] = 1
	l.hits["p"] = hit("Pirc Defense", "B07", 0)
	cl := NewCachedLookup(l, newTestCache(t), time.Minute, nil)
	ctx := context.Background()
	if _, err := cl.Lookup(ctx, "p"); err == nil {
		t.Fatalf("expected upstream error")
	}
	res, err := cl.Lookup(ctx, "p")
	if err != nil || !res.Found() {
		t.Fatalf("expected hit after failure, got %+v %v", res, err)
	}
}

func TestCachedLookupCollapsesConcurrentRequests(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	slow := LookupFunc(func(ctx context.Context, fen string) (LookupResult, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return hit("Scandinavian Defense", "B01", 0), nil
	})
	cl := NewCachedLookup(slow, newTestCache(t), time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cl.Lookup(context.Background(), "same")
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls)
	}
}

func TestCachedLookupCallerCancelDoesNotFailOthers(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	slow := LookupFunc(func(ctx context.Context, fen string) (LookupResult, error) {
		once.Do(func() { close(started) })
		select {
		case <-release:
			return hit("Dutch Defense", "A80", 0), nil
		case <-ctx.Done():
			return LookupResult{}, ctx.Err()
		}
	})
	cl := NewCachedLookup(slow, newTestCache(t), time.Minute, nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cl.Lookup(firstCtx, "shared")
		firstErr <- err
	}()
	<-started

	type outcome struct {
		res LookupResult
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		res, err := cl.Lookup(context.Background(), "shared")
		second <- outcome{res, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("cancelled caller: expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancelled caller did not return")
	}

	close(release)
	select {
	case got := <-second:
		if got.err != nil || !got.res.Found() || got.res.Opening.Name != "Dutch Defense" {
			t.Fatalf("second caller: %+v %v", got.res, got.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("second caller did not return")
	}
}
