// Package chessbuilder wires the opening lookup, stores and session dependencies from config.
package chessbuilder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/RedBe-an/OpenChess/internal/chess/opening"
	"github.com/RedBe-an/OpenChess/internal/config"
	"github.com/RedBe-an/OpenChess/internal/content"
	"github.com/RedBe-an/OpenChess/internal/explorer"
	"github.com/RedBe-an/OpenChess/internal/msgcat"
	"github.com/RedBe-an/OpenChess/internal/openingstore"
	"github.com/RedBe-an/OpenChess/internal/presenter"
	"github.com/RedBe-an/OpenChess/internal/retry"
	"github.com/RedBe-an/OpenChess/internal/service/cache"
	"github.com/RedBe-an/OpenChess/internal/session"
)

type Deps struct {
	Explorer *explorer.Client
	Resolver *opening.Resolver
	Records  openingstore.Repository

	// Cache and Sessions are nil without REDIS_URL.
	Cache    *cache.CacheService
	Sessions *session.Store

	// DB is nil for the in-memory repository.
	DB *sql.DB

	// Content is nil when no content source is configured.
	Content content.Store

	Messages  *msgcat.Catalog
	Formatter *presenter.Formatter

	logger *zap.Logger
}

const (
	setupTimeout = 5 * time.Second
	userAgent    = "OpenChess (+https://github.com/RedBe-an/OpenChess)"
)

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = d.Close()
		}
	}()

	// Messages
	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	d.Messages = cat
	d.Formatter = presenter.NewFormatter(cat)

	// Opening lookup
	explorerOpts := []explorer.Option{
		explorer.WithTimeout(cfg.LookupTimeout),
		explorer.WithDatabase(cfg.ExplorerDatabase),
		explorer.WithMaxConnsPerHost(cfg.ExplorerMaxConns),
		explorer.WithHeaderProvider(func() map[string]string { return map[string]string{"User-Agent": userAgent} }),
	}
	if cfg.ExplorerToken != "" {
		explorerOpts = append(explorerOpts, explorer.WithToken(cfg.ExplorerToken))
	}
	d.Explorer = explorer.NewClient(cfg.ExplorerURL, explorerOpts...)
	var lookup opening.Lookup = d.Explorer

	// Cache (Redis optional)
	if strings.TrimSpace(cfg.RedisURL) != "" {
		cconf, perr := parseRedisURL(cfg.RedisURL)
		if perr != nil {
			return nil, fmt.Errorf("parse redis url: %w", perr)
		}
		d.Cache, err = cache.NewCacheService(*cconf, logger)
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		lookup = opening.NewCachedLookup(lookup, d.Cache, cfg.CacheTTL, logger.Named("lookup"))
		d.Sessions = session.NewStore(d.Cache, cfg.SessionTTL)
	} else {
		logger.Info("redis_disabled", zap.String("reason", "REDIS_URL not set; lookups are not cached and sessions cannot be saved"))
	}

	d.Resolver = opening.NewResolver(lookup, opening.Config{
		Retry:        retry.Policy{Retries: cfg.LookupRetries, Delay: cfg.LookupRetryDelay, Retryable: explorer.Retryable},
		MaxTopGames:  cfg.MaxTopGames,
		MaxAncestors: cfg.MaxBacktrack,
		Budget:       cfg.ResolveBudget,
	}, logger.Named("resolver"))

	// Opening records (DB optional)
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
		defer cancel()
		db, dialect, err := openingstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		d.DB = db
		if err := openingstore.EnsureSchema(ctx, db, dialect); err != nil {
			return nil, err
		}
		d.Records = openingstore.NewSQLRepository(db, dialect)
	} else {
		d.Records = openingstore.NewMemoryRepository()
	}

	// Content (optional)
	switch {
	case cfg.ContentDir != "":
		store, err := content.NewDirStore(cfg.ContentDir)
		if err != nil {
			return nil, err
		}
		d.Content = store
	case cfg.ContentURL != "":
		d.Content = content.NewHTTPStore(cfg.ContentURL, content.WithBearerToken(cfg.ContentToken), content.WithRequestTimeout(cfg.LookupTimeout))
	}

	ok = true
	return d, nil
}

// NewSession creates a session wired to the resolver and the stores.
func (d *Deps) NewSession(opts ...session.Option) *session.Controller {
	return session.New(d.Resolver, append(d.sessionOptions(), opts...)...)
}

// RestoreSession loads a stored session; it returns nil when none is stored under id.
func (d *Deps) RestoreSession(ctx context.Context, id string, opts ...session.Option) (*session.Controller, error) {
	if d.Sessions == nil {
		return nil, ErrNoSessionStore
	}
	return d.Sessions.Restore(ctx, id, d.Resolver, append(d.sessionOptions(), opts...)...)
}

var ErrNoSessionStore = errors.New("session store not configured")

func (d *Deps) sessionOptions() []session.Option {
	opts := []session.Option{session.WithLogger(d.logger.Named("session")), session.WithRecords(d.Records)}
	if d.Content != nil {
		opts = append(opts, session.WithContent(d.Content))
	}
	return opts
}

// Close releases the database and Redis connections.
func (d *Deps) Close() error {
	var errs []error
	if d.DB != nil {
		errs = append(errs, d.DB.Close())
	}
	if d.Cache != nil {
		errs = append(errs, d.Cache.Close())
	}
	return errors.Join(errs...)
}

func parseRedisURL(raw string) (*cache.CacheConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	host := u.Hostname()
	portStr := u.Port()
	if portStr == "" {
		portStr = "6379"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redis db %q", p)
		}
		db = n
	}
	pass, _ := u.User.Password()
	return &cache.CacheConfig{Host: host, Port: port, Password: pass, DB: db, TLS: u.Scheme == "rediss", Prefix: "openchess:"}, nil
}
