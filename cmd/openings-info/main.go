// Command openings-info prints opening record counts and searches records by name.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/RedBe-an/OpenChess/internal/chessbuilder"
	appcfg "github.com/RedBe-an/OpenChess/internal/config"
	"github.com/RedBe-an/OpenChess/internal/obslog"
	"github.com/RedBe-an/OpenChess/internal/openingstore"
)

func main() {
	search := flag.String("search", "", "list records whose name contains this term")
	limit := flag.Int("limit", 10, "maximum search results")
	flag.Parse()

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	deps, err := chessbuilder.New(cfg, logger)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer deps.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := printInfo(ctx, os.Stdout, deps.Records, *search, *limit); err != nil {
		log.Fatalf("openings-info: %v", err)
	}
}

func printInfo(ctx context.Context, w io.Writer, repo openingstore.Repository, term string, limit int) error {
	stats, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}
	fmt.Fprintf(w, "openings: %d\n", stats.Total)
	fmt.Fprintf(w, "with content: %d\n", stats.WithContent)
	fmt.Fprintf(w, "without content: %d\n", stats.WithoutContent)
	if term == "" {
		return nil
	}

	found, err := repo.Search(ctx, term, limit)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	fmt.Fprintf(w, "\nsearch %q: %d result(s)\n", term, len(found))
	for _, info := range found {
		eco := info.ECOCode
		if eco == "" {
			eco = "?"
		}
		fmt.Fprintf(w, "  [%s] %s  /openings/%s  %s\n", eco, info.Name, info.URLSlug, info.MovesNotation)
	}
	return nil
}
