// Package opening names the opening of a position, falling back to the most recent
// ancestor position that has a known opening.
package opening

import (
	"context"

	"github.com/RedBe-an/OpenChess/internal/domain"
)

// LookupResult is the answer of an opening reference for one exact position.
// A nil Opening is the normal "no match" answer.
type LookupResult struct {
	Opening  *domain.OpeningInfo `json:"opening,omitempty"`
	TopGames []domain.TopGame    `json:"top_games,omitempty"`
}

// Found reports whether the result names an opening.
func (r LookupResult) Found() bool {
	return r.Opening != nil && (r.Opening.Name != "" || r.Opening.ECOCode != "")
}

// Lookup queries an opening reference by exact position.
type Lookup interface {
	Lookup(ctx context.Context, fen string) (LookupResult, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, fen string) (LookupResult, error)

func (f LookupFunc) Lookup(ctx context.Context, fen string) (LookupResult, error) {
	return f(ctx, fen)
}

// Source is a game whose position and ancestry can be resolved.
type Source interface {
	Position() string
	Ancestry() ([]string, error)
}
