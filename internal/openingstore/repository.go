// Package openingstore persists opening records: ECO code, name, slug, moves and the
// reference of the description document.
package openingstore

import (
	"context"
	"errors"
	"strings"

	"github.com/RedBe-an/OpenChess/internal/domain"
)

var ErrInvalidRecord = errors.New("invalid opening record")

// Stats counts records by description availability.
type Stats struct {
	Total          int64 `json:"total"`
	WithContent    int64 `json:"with_content"`
	WithoutContent int64 `json:"without_content"`
}

// Repository looks up opening records. A nil record with a nil error means "no record".
type Repository interface {
	FindBySlug(ctx context.Context, slug string) (*domain.OpeningInfo, error)
	FindByName(ctx context.Context, name string) (*domain.OpeningInfo, error)
	Search(ctx context.Context, term string, limit int) ([]*domain.OpeningInfo, error)
	Upsert(ctx context.Context, info *domain.OpeningInfo) error
	// SetContentRef points every record with the slug at ref and returns how many changed.
	SetContentRef(ctx context.Context, slug, ref string) (int64, error)
	Count(ctx context.Context) (Stats, error)
}

const defaultSearchLimit = 10

func validate(info *domain.OpeningInfo) error {
	if info == nil || strings.TrimSpace(info.Name) == "" || strings.TrimSpace(info.MovesNotation) == "" {
		return ErrInvalidRecord
	}
	return nil
}
