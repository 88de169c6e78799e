package openingstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/RedBe-an/OpenChess/internal/domain"
)

func newSQLiteRepo(t *testing.T) Repository {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if err := EnsureSchema(context.Background(), db, DialectSQLite); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return NewSQLRepository(db, DialectSQLite)
}

func seed(t *testing.T, repo Repository) {
	t.Helper()
	records := []domain.OpeningInfo{
		{ECOCode: "B20", Name: "Sicilian Defense", MovesNotation: "1. e4 c5"},
		{ECOCode: "B27", Name: "Sicilian Defense", URLSlug: "Sicilian Defense", MovesNotation: "1. e4 c5 2. Nf3 g6"},
		{ECOCode: "C60", Name: "Ruy Lopez", MovesNotation: "1. e4 e5 2. Nf3 Nc6 3. Bb5", ContentRef: "mdx/ruy-lopez.mdx"},
		{ECOCode: "D85", Name: "Grünfeld Defense: Exchange Variation", MovesNotation: "1. d4 Nf6 2. c4 g6 3. Nc3 d5 4. cxd5"},
		{ECOCode: "A40", Name: "100% Gambit", MovesNotation: "1. d4 e5"},
	}
	for i := range records {
		if err := repo.Upsert(context.Background(), &records[i]); err != nil {
			t.Fatalf("Upsert %q: %v", records[i].Name, err)
		}
	}
}

func eachRepo(t *testing.T, fn func(t *testing.T, repo Repository)) {
	t.Run("sqlite", func(t *testing.T) {
		repo := newSQLiteRepo(t)
		seed(t, repo)
		fn(t, repo)
	})
	t.Run("memory", func(t *testing.T) {
		repo := NewMemoryRepository()
		seed(t, repo)
		fn(t, repo)
	})
}

func TestFindBySlugAndName(t *testing.T) {
	eachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		info, err := repo.FindBySlug(ctx, "sicilian-defense")
		if err != nil || info == nil {
			t.Fatalf("FindBySlug: %+v %v", info, err)
		}
		if info.ECOCode != "B20" || info.URLSlug != "sicilian-defense" {
			t.Fatalf("expected shortest line first, got %+v", info)
		}
		info, err = repo.FindBySlug(ctx, "Grünfeld Defense: Exchange Variation")
		if err != nil || info == nil || info.ECOCode != "D85" {
			t.Fatalf("FindBySlug accented: %+v %v", info, err)
		}
		info, err = repo.FindByName(ctx, "ruy LOPEZ")
		if err != nil || info == nil || info.ContentRef != "mdx/ruy-lopez.mdx" {
			t.Fatalf("FindByName: %+v %v", info, err)
		}
		info, err = repo.FindByName(ctx, "Bongcloud")
		if err != nil || info != nil {
			t.Fatalf("expected no record, got %+v %v", info, err)
		}
	})
}

func TestSearch(t *testing.T) {
	eachRepo(t, func(t *testing.T, repo Repository) {
		got, err := repo.Search(context.Background(), "defense", 10)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(got) != 3 || got[0].ECOCode != "B20" || got[2].ECOCode != "D85" {
			t.Fatalf("unexpected search result: %+v", got)
		}
		got, _ = repo.Search(context.Background(), "100%", 10)
		if len(got) != 1 {
			t.Fatalf("expected literal %% match, got %d", len(got))
		}
		got, _ = repo.Search(context.Background(), "", 2)
		if len(got) != 2 {
			t.Fatalf("expected limit 2, got %d", len(got))
		}
	})
}

func TestSetContentRefAndCount(t *testing.T) {
	eachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		st, err := repo.Count(ctx)
		if err != nil || st.Total != 5 || st.WithContent != 1 || st.WithoutContent != 4 {
			t.Fatalf("Count before: %+v %v", st, err)
		}
		n, err := repo.SetContentRef(ctx, "sicilian-defense", "mdx/sicilian-defense.mdx")
		if err != nil || n != 2 {
			t.Fatalf("SetContentRef: n=%d err=%v", n, err)
		}
		if n, _ := repo.SetContentRef(ctx, "nothing-here", "x"); n != 0 {
			t.Fatalf("expected no rows, got %d", n)
		}
		st, _ = repo.Count(ctx)
		if st.WithContent != 3 || st.WithoutContent != 2 {
			t.Fatalf("Count after: %+v", st)
		}
		// re-upserting without a ref keeps the existing one
		if err := repo.Upsert(ctx, &domain.OpeningInfo{ECOCode: "B20", Name: "Sicilian Defense", MovesNotation: "1. e4 c5"}); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		info, _ := repo.FindBySlug(ctx, "sicilian-defense")
		if info == nil || info.ContentRef != "mdx/sicilian-defense.mdx" {
			t.Fatalf("content ref lost on upsert: %+v", info)
		}
	})
}

func TestUpsertRejectsInvalid(t *testing.T) {
	eachRepo(t, func(t *testing.T, repo Repository) {
		if err := repo.Upsert(context.Background(), &domain.OpeningInfo{Name: "No moves"}); !errors.Is(err, ErrInvalidRecord) {
			t.Fatalf("expected ErrInvalidRecord, got %v", err)
		}
	})
}

func TestParseURL(t *testing.T) {
	cases := []struct {
		in      string
		dialect Dialect
		dsn     string
	}{
		{"postgres://u:p@localhost:5432/openchess?sslmode=disable", DialectPostgres, "postgres://u:p@localhost:5432/openchess?sslmode=disable"},
		{"sqlite://data/openings.db", DialectSQLite, "data/openings.db"},
		{"file:openings.db?cache=shared", DialectSQLite, "file:openings.db?cache=shared"},
	}
	for _, tc := range cases {
		d, dsn, err := parseURL(tc.in)
		if err != nil || d != tc.dialect || dsn != tc.dsn {
			t.Fatalf("parseURL(%q) = %q %q %v", tc.in, d, dsn, err)
		}
	}
	if _, _, err := parseURL("mysql://x"); err == nil {
		t.Fatalf("expected unsupported scheme error")
	}
}
