package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/RedBe-an/OpenChess/internal/content"
	"github.com/RedBe-an/OpenChess/internal/openingstore"
	"github.com/RedBe-an/OpenChess/internal/slug"
)

// report summarizes one sync run.
type report struct {
	Files     int
	Uploaded  int64
	Linked    int64
	Unmatched []string
}

type syncer struct {
	store   content.Store
	records openingstore.Repository
	logger  *zap.Logger
	workers int
	dryRun  bool
}

// run uploads every *.mdx file under dir and links it to the records sharing its slug.
func (s *syncer) run(ctx context.Context, dir string) (report, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.mdx"))
	if err != nil {
		return report{}, err
	}
	sort.Strings(files)
	rep := report{Files: len(files)}
	if len(files) == 0 {
		return rep, nil
	}

	var uploaded, linked atomic.Int64
	unmatched := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.workers))
	for i, file := range files {
		g.Go(func() error {
			name := slug.FromFileName(filepath.Base(file))
			if name == "" {
				s.logger.Warn("sync_skip", zap.String("file", file), zap.String("reason", "empty slug"))
				return nil
			}
			ref := content.MDXRef(name)
			if s.dryRun {
				s.logger.Info("sync_dry_run", zap.String("file", file), zap.String("ref", ref))
				return nil
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			if err := s.store.Put(gctx, ref, data); err != nil {
				return fmt.Errorf("upload %s: %w", ref, err)
			}
			uploaded.Add(1)
			n, err := s.records.SetContentRef(gctx, name, ref)
			if err != nil {
				return fmt.Errorf("link %s: %w", name, err)
			}
			if n == 0 {
				unmatched[i] = name
				s.logger.Warn("sync_unmatched", zap.String("slug", name))
				return nil
			}
			linked.Add(n)
			s.logger.Info("sync_linked", zap.String("slug", name), zap.String("ref", ref), zap.Int64("records", n))
			return nil
		})
	}
	err = g.Wait()

	rep.Uploaded = uploaded.Load()
	rep.Linked = linked.Load()
	for _, name := range unmatched {
		if name != "" {
			rep.Unmatched = append(rep.Unmatched, name)
		}
	}
	return rep, err
}

func (r report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "files: %d, uploaded: %d, linked records: %d", r.Files, r.Uploaded, r.Linked)
	if len(r.Unmatched) > 0 {
		fmt.Fprintf(&b, "\nno matching record: %s", strings.Join(r.Unmatched, ", "))
	}
	return b.String()
}
