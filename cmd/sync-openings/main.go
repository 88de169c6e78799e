// Command sync-openings uploads opening description files and links them to their records.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/RedBe-an/OpenChess/internal/chessbuilder"
	appcfg "github.com/RedBe-an/OpenChess/internal/config"
	"github.com/RedBe-an/OpenChess/internal/obslog"
)

func main() {
	dir := flag.String("dir", "./openings", "directory holding *.mdx files")
	workers := flag.Int("workers", 4, "concurrent uploads")
	dryRun := flag.Bool("dry-run", false, "list what would be uploaded")
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
	if deps.Content == nil {
		log.Fatalf("no content store: set OPENCHESS_CONTENT_DIR or OPENCHESS_CONTENT_URL")
	}
	if deps.DB == nil {
		logger.Warn("sync_memory_records", zap.String("reason", "DATABASE_URL not set; links are not persisted"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := &syncer{store: deps.Content, records: deps.Records, logger: logger.Named("sync"), workers: *workers, dryRun: *dryRun}
	rep, err := s.run(ctx, *dir)
	fmt.Println(rep)
	if err != nil {
		logger.Error("sync_failed", zap.Error(err))
		log.Fatalf("sync failed: %v", err)
	}
}
