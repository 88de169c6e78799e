package openingstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RedBe-an/OpenChess/internal/content"
	"github.com/RedBe-an/OpenChess/internal/domain"
)

// ErrNoPage is returned when a slug has no record or the record has no description.
var ErrNoPage = errors.New("opening page not found")

// Page is an opening record with its description document.
type Page struct {
	Record  *domain.OpeningInfo
	Content []byte
}

// LoadPage finds the record for a slug path ("sicilian-defense" or "sicilian/najdorf")
// and fetches its description document.
func LoadPage(ctx context.Context, repo Repository, store content.Store, slugPath string) (Page, error) {
	parts := strings.FieldsFunc(slugPath, func(r rune) bool { return r == '/' })
	if len(parts) == 0 {
		return Page{}, fmt.Errorf("%w: empty slug", ErrNoPage)
	}
	s := strings.ToLower(strings.Join(parts, "-"))

	rec, err := repo.FindBySlug(ctx, s)
	if err != nil {
		return Page{}, fmt.Errorf("find opening %q: %w", s, err)
	}
	if rec == nil {
		return Page{}, fmt.Errorf("%w: %s", ErrNoPage, s)
	}
	if rec.ContentRef == "" || store == nil {
		return Page{}, fmt.Errorf("%w: %s has no description", ErrNoPage, s)
	}
	data, err := store.Fetch(ctx, rec.ContentRef)
	if errors.Is(err, content.ErrNotFound) {
		return Page{}, fmt.Errorf("%w: %s", ErrNoPage, err)
	}
	if err != nil {
		return Page{}, fmt.Errorf("fetch description of %s: %w", s, err)
	}
	return Page{Record: rec, Content: data}, nil
}
