package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/RedBe-an/OpenChess/internal/domain"
	"github.com/RedBe-an/OpenChess/internal/openingstore"
)

func TestPrintInfo(t *testing.T) {
	ctx := context.Background()
	repo := openingstore.NewMemoryRepository()
	for _, info := range []*domain.OpeningInfo{
		{ECOCode: "B20", Name: "Sicilian Defense", MovesNotation: "1. e4 c5", ContentRef: "mdx/sicilian-defense.mdx"},
		{ECOCode: "B23", Name: "Sicilian Defense: Closed", MovesNotation: "1. e4 c5 2. Nc3"},
		{ECOCode: "C50", Name: "Italian Game", MovesNotation: "1. e4 e5 2. Nf3 Nc6 3. Bc4"},
	} {
		if err := repo.Upsert(ctx, info); err != nil {
			t.Fatalf("upsert %s: %v", info.Name, err)
		}
	}

	var out bytes.Buffer
	if err := printInfo(ctx, &out, repo, "sicilian", 10); err != nil {
		t.Fatalf("printInfo: %v", err)
	}
	got := out.String()
	for _, want := range []string{"openings: 3", "with content: 1", "without content: 2", "2 result(s)", "[B23] Sicilian Defense: Closed"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Italian") {
		t.Fatalf("search leaked unrelated record:\n%s", got)
	}
}
