package openingstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/RedBe-an/OpenChess/internal/domain"
	"github.com/RedBe-an/OpenChess/internal/slug"
)

// memrepo is an in-memory Repository used when no database is configured.
type memrepo struct {
	mu sync.RWMutex

	byPGN map[string]*domain.OpeningInfo
	order []string // insertion order of pgn keys
}

func NewMemoryRepository() Repository {
	return &memrepo{byPGN: make(map[string]*domain.OpeningInfo)}
}

func (m *memrepo) FindBySlug(_ context.Context, s string) (*domain.OpeningInfo, error) {
	want := slug.Normalize(s)
	return m.first(func(info *domain.OpeningInfo) bool { return info.URLSlug == want }), nil
}

func (m *memrepo) FindByName(_ context.Context, name string) (*domain.OpeningInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	return m.first(func(info *domain.OpeningInfo) bool { return strings.EqualFold(info.Name, name) }), nil
}

// first returns a copy of the matching record with the shortest move text.
func (m *memrepo) first(match func(*domain.OpeningInfo) bool) *domain.OpeningInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *domain.OpeningInfo
	for _, key := range m.order {
		info := m.byPGN[key]
		if !match(info) {
			continue
		}
		if best == nil || len(info.MovesNotation) < len(best.MovesNotation) {
			best = info
		}
	}
	if best == nil {
		return nil
	}
	rec := *best
	return &rec
}

func (m *memrepo) Search(_ context.Context, term string, limit int) ([]*domain.OpeningInfo, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	term = strings.ToLower(strings.TrimSpace(term))
	m.mu.RLock()
	var out []*domain.OpeningInfo
	for _, key := range m.order {
		info := m.byPGN[key]
		if strings.Contains(strings.ToLower(info.Name), term) {
			rec := *info
			out = append(out, &rec)
		}
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ECOCode != out[j].ECOCode {
			return out[i].ECOCode < out[j].ECOCode
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memrepo) Upsert(_ context.Context, info *domain.OpeningInfo) error {
	if err := validate(info); err != nil {
		return err
	}
	rec := domain.OpeningInfo{
		ECOCode:       strings.TrimSpace(info.ECOCode),
		Name:          strings.TrimSpace(info.Name),
		URLSlug:       info.URLSlug,
		MovesNotation: strings.TrimSpace(info.MovesNotation),
		ContentRef:    strings.TrimSpace(info.ContentRef),
	}
	if strings.TrimSpace(rec.URLSlug) == "" {
		rec.URLSlug = rec.Name
	}
	rec.URLSlug = slug.Normalize(rec.URLSlug)

	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.byPGN[rec.MovesNotation]; ok {
		if rec.ContentRef == "" {
			rec.ContentRef = prev.ContentRef
		}
	} else {
		m.order = append(m.order, rec.MovesNotation)
	}
	m.byPGN[rec.MovesNotation] = &rec
	return nil
}

func (m *memrepo) SetContentRef(_ context.Context, s, ref string) (int64, error) {
	want := slug.Normalize(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, info := range m.byPGN {
		if info.URLSlug == want {
			info.ContentRef = ref
			n++
		}
	}
	return n, nil
}

func (m *memrepo) Count(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Stats{Total: int64(len(m.byPGN))}
	for _, info := range m.byPGN {
		if info.ContentRef != "" {
			st.WithContent++
		}
	}
	st.WithoutContent = st.Total - st.WithContent
	return st, nil
}
