package opening

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/RedBe-an/OpenChess/internal/domain"
	"github.com/RedBe-an/OpenChess/internal/retry"
)

// MaxTopGames is the default number of reference games kept per result.
const MaxTopGames = 5

// Config tunes a Resolver.
type Config struct {
	Retry retry.Policy
	// MaxTopGames caps the reference games kept; 0 means MaxTopGames.
	MaxTopGames int
	// MaxAncestors caps the ancestor positions tried after a miss; 0 means all of them.
	MaxAncestors int
	// Budget bounds the wall-clock time of one ResolveWithFallback; 0 means unbounded.
	Budget time.Duration
}

// DefaultConfig returns the default retry policy with five reference games and no bounds.
func DefaultConfig() Config {
	return Config{Retry: retry.DefaultPolicy(), MaxTopGames: MaxTopGames}
}

// Resolution is the outcome of ResolveWithFallback.
type Resolution struct {
	Info     *domain.OpeningInfo `json:"info,omitempty"`
	TopGames []domain.TopGame    `json:"top_games"`
	// IsFallback is set when Info was found on an ancestor rather than the current position.
	IsFallback bool `json:"is_fallback"`
	// MatchedPosition is the position Info was found for.
	MatchedPosition string `json:"matched_position,omitempty"`
	// Depth is the backtrack index of the match: 0 for the current position.
	Depth int `json:"depth"`
	// Lookups counts lookup calls made, not counting retries.
	Lookups int `json:"lookups"`
	// Failures counts lookups that still failed after retries and were treated as misses.
	Failures int `json:"failures"`
	// Truncated is set when the ancestor cap or the time budget stopped the search early.
	Truncated bool `json:"truncated,omitempty"`
}

// Found reports whether an opening was identified.
func (r Resolution) Found() bool { return r.Info != nil }

// Resolver runs lookups with retries and walks ancestor positions on a miss.
type Resolver struct {
	lookup Lookup
	cfg    Config
	logger *zap.Logger
}

func NewResolver(lookup Lookup, cfg Config, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxTopGames <= 0 {
		cfg.MaxTopGames = MaxTopGames
	}
	if cfg.MaxAncestors < 0 {
		cfg.MaxAncestors = 0
	}
	return &Resolver{lookup: lookup, cfg: cfg, logger: logger}
}

// Resolve looks up one exact position. Lookup failures are logged and reported as
// "no opening".
func (r *Resolver) Resolve(ctx context.Context, fen string) (*domain.OpeningInfo, []domain.TopGame) {
	res, _ := r.resolveOnce(ctx, fen)
	if !res.Found() {
		return nil, []domain.TopGame{}
	}
	return res.Opening, res.TopGames
}

func (r *Resolver) resolveOnce(ctx context.Context, fen string) (LookupResult, bool) {
	res, err := retry.Do(ctx, r.cfg.Retry, func(ctx context.Context) (LookupResult, error) {
		return r.lookup.Lookup(ctx, fen)
	})
	if err != nil {
		r.logger.Warn("opening_lookup_failed",
			zap.String("fen", fen),
			zap.Int("attempts", r.cfg.Retry.Attempts()),
			zap.Error(err),
		)
		return LookupResult{}, false
	}
	if !res.Found() {
		return LookupResult{}, true
	}
	games := res.TopGames
	if len(games) > r.cfg.MaxTopGames {
		games = games[:r.cfg.MaxTopGames]
	}
	info := *res.Opening
	return LookupResult{Opening: &info, TopGames: append([]domain.TopGame{}, games...)}, true
}

// ResolveWithFallback resolves the current position of src and, on a miss, its ancestors
// from most to least recent, stopping at the first hit. The error is non-nil only when
// the ancestry cannot be rebuilt.
func (r *Resolver) ResolveWithFallback(ctx context.Context, src Source) (Resolution, error) {
	if r.cfg.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Budget)
		defer cancel()
	}

	out := Resolution{TopGames: []domain.TopGame{}}
	current := src.Position()
	if r.try(ctx, current, 0, &out) {
		return out, nil
	}

	ancestry, err := src.Ancestry()
	if err != nil {
		return Resolution{TopGames: []domain.TopGame{}}, fmt.Errorf("rebuild ancestry: %w", err)
	}
	if len(ancestry) <= 1 {
		return out, nil
	}
	ancestors := ancestry[1:]
	if limit := r.cfg.MaxAncestors; limit > 0 && len(ancestors) > limit {
		ancestors = ancestors[:limit]
		out.Truncated = true
	}
	for i, fen := range ancestors {
		if ctx.Err() != nil {
			out.Truncated = true
			r.logger.Debug("opening_backtrack_stopped",
				zap.Int("depth", i+1),
				zap.Error(ctx.Err()),
			)
			break
		}
		if r.try(ctx, fen, i+1, &out) {
			out.IsFallback = true
			out.Truncated = false
			return out, nil
		}
	}
	return out, nil
}

func (r *Resolver) try(ctx context.Context, fen string, depth int, out *Resolution) bool {
	out.Lookups++
	res, ok := r.resolveOnce(ctx, fen)
	if !ok {
		out.Failures++
		return false
	}
	if !res.Found() {
		return false
	}
	out.Info = res.Opening
	out.TopGames = res.TopGames
	out.MatchedPosition = fen
	out.Depth = depth
	r.logger.Debug("opening_resolved",
		zap.String("name", res.Opening.Name),
		zap.String("eco", res.Opening.ECOCode),
		zap.Int("depth", depth),
	)
	return true
}
