package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/RedBe-an/OpenChess/internal/chess/game"
	"github.com/RedBe-an/OpenChess/internal/service/cache"
)

// DefaultTTL keeps a saved session for a day.
const DefaultTTL = 24 * time.Hour

// Record is the stored form of a session.
type Record struct {
	ID        string    `json:"id"`
	Moves     []string  `json:"moves"`
	Position  string    `json:"position"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists sessions in the cache as their UCI move list.
type Store struct {
	cache *cache.CacheService
	ttl   time.Duration
}

func NewStore(c *cache.CacheService, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{cache: c, ttl: ttl}
}

func (s *Store) key(id string) string { return "session:" + strings.TrimSpace(id) }

func (s *Store) Save(ctx context.Context, c *Controller) error {
	if c == nil {
		return fmt.Errorf("cannot save nil session")
	}
	c.mu.Lock()
	payload := &Record{
		ID:        c.id,
		Moves:     c.mgr.UCIHistory(),
		Position:  c.mgr.Position(),
		UpdatedAt: time.Now(),
	}
	c.mu.Unlock()
	return s.cache.Set(ctx, s.key(payload.ID), payload, s.ttl)
}

// Load returns the stored record, or nil when the session is unknown or expired.
func (s *Store) Load(ctx context.Context, id string) (*Record, error) {
	payload := &Record{}
	found, err := s.cache.Lookup(ctx, s.key(id), payload)
	if err != nil {
		return nil, err
	}
	if !found || payload.ID == "" {
		return nil, nil
	}
	return payload, nil
}

// Exists reports whether a session is stored under id.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	payload, err := s.Load(ctx, id)
	return payload != nil, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.cache.Del(ctx, s.key(id))
}

// Restore rebuilds a stored session and starts resolving its position. It returns nil
// without error when nothing is stored under id.
func (s *Store) Restore(ctx context.Context, id string, resolver Resolver, opts ...Option) (*Controller, error) {
	payload, err := s.Load(ctx, id)
	if err != nil || payload == nil {
		return nil, err
	}
	mgr := game.NewManager()
	if err := mgr.LoadUCI(payload.Moves); err != nil {
		return nil, fmt.Errorf("restore session %s: %w", id, err)
	}
	opts = append(opts, WithID(payload.ID))
	c := newController(mgr, resolver, opts...)
	if mgr.Len() > 0 {
		c.Refresh()
	}
	return c, nil
}
