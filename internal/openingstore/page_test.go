package openingstore

import (
	"context"
	"errors"
	"testing"

	"github.com/RedBe-an/OpenChess/internal/content"
)

func TestLoadPage(t *testing.T) {
	store, err := content.NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}
	ctx := context.Background()
	if err := store.Put(ctx, "mdx/ruy-lopez.mdx", []byte("# Ruy Lopez")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	eachRepo(t, func(t *testing.T, repo Repository) {
		page, err := LoadPage(ctx, repo, store, "Ruy-Lopez")
		if err != nil {
			t.Fatalf("LoadPage: %v", err)
		}
		if page.Record.Name != "Ruy Lopez" || string(page.Content) != "# Ruy Lopez" {
			t.Fatalf("unexpected page: %+v %q", page.Record, page.Content)
		}
		if _, err := LoadPage(ctx, repo, store, "ruy/lopez"); err != nil {
			t.Fatalf("LoadPage slug path: %v", err)
		}

		for _, s := range []string{"", "king-s-gambit", "sicilian-defense"} {
			if _, err := LoadPage(ctx, repo, store, s); !errors.Is(err, ErrNoPage) {
				t.Fatalf("LoadPage(%q): expected ErrNoPage, got %v", s, err)
			}
		}
		if _, err := LoadPage(ctx, repo, nil, "ruy-lopez"); !errors.Is(err, ErrNoPage) {
			t.Fatalf("LoadPage without store: expected ErrNoPage, got %v", err)
		}
	})
}

func TestLoadPageMissingDocument(t *testing.T) {
	store, err := content.NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}
	repo := NewMemoryRepository()
	seed(t, repo)
	if _, err := LoadPage(context.Background(), repo, store, "ruy-lopez"); !errors.Is(err, ErrNoPage) {
		t.Fatalf("expected ErrNoPage, got %v", err)
	}
}
