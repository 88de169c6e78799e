package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	ExplorerURL      string
	ExplorerToken    string
	ExplorerDatabase string
	ExplorerMaxConns int

	LookupRetries    int
	LookupRetryDelay time.Duration
	LookupTimeout    time.Duration
	MaxTopGames      int
	MaxBacktrack     int
	ResolveBudget    time.Duration

	RedisURL   string
	CacheTTL   time.Duration
	SessionTTL time.Duration

	DatabaseURL string

	ContentDir   string
	ContentURL   string
	ContentToken string

	MessagesDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ExplorerURL:      "https://explorer.lichess.ovh",
		ExplorerDatabase: "masters",
		ExplorerMaxConns: 16,
		LookupRetries:    3,
		LookupRetryDelay: time.Second,
		LookupTimeout:    10 * time.Second,
		MaxTopGames:      5,
		ResolveBudget:    30 * time.Second,
		CacheTTL:         10 * time.Minute,
		SessionTTL:       24 * time.Hour,
	}

	if v := strings.TrimSpace(os.Getenv("OPENCHESS_EXPLORER_URL")); v != "" {
		cfg.ExplorerURL = v
	}
	cfg.ExplorerToken = strings.TrimSpace(os.Getenv("OPENCHESS_EXPLORER_TOKEN"))
	if v := strings.TrimSpace(os.Getenv("OPENCHESS_EXPLORER_DB")); v != "" {
		cfg.ExplorerDatabase = v
	}

	var err error
	if cfg.ExplorerMaxConns, err = intEnv("OPENCHESS_EXPLORER_MAX_CONNS", cfg.ExplorerMaxConns, 1); err != nil {
		return nil, err
	}
	if cfg.LookupRetries, err = intEnv("OPENCHESS_LOOKUP_RETRIES", cfg.LookupRetries, 0); err != nil {
		return nil, err
	}
	if cfg.LookupRetryDelay, err = millisEnv("OPENCHESS_LOOKUP_RETRY_DELAY_MS", cfg.LookupRetryDelay); err != nil {
		return nil, err
	}
	if cfg.LookupTimeout, err = millisEnv("OPENCHESS_LOOKUP_TIMEOUT_MS", cfg.LookupTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxTopGames, err = intEnv("OPENCHESS_MAX_TOP_GAMES", cfg.MaxTopGames, 1); err != nil {
		return nil, err
	}
	if cfg.MaxBacktrack, err = intEnv("OPENCHESS_MAX_BACKTRACK", cfg.MaxBacktrack, 0); err != nil {
		return nil, err
	}
	if cfg.ResolveBudget, err = millisEnv("OPENCHESS_RESOLVE_BUDGET_MS", cfg.ResolveBudget); err != nil {
		return nil, err
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	if cfg.CacheTTL, err = secondsEnv("OPENCHESS_CACHE_TTL_SEC", cfg.CacheTTL); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = secondsEnv("OPENCHESS_SESSION_TTL_SEC", cfg.SessionTTL); err != nil {
		return nil, err
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	cfg.ContentDir = strings.TrimSpace(os.Getenv("OPENCHESS_CONTENT_DIR"))
	cfg.ContentURL = strings.TrimSpace(os.Getenv("OPENCHESS_CONTENT_URL"))
	cfg.ContentToken = strings.TrimSpace(os.Getenv("OPENCHESS_CONTENT_TOKEN"))

	cfg.MessagesDir = strings.TrimSpace(os.Getenv("OPENCHESS_MESSAGES_DIR"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if u, err := url.Parse(c.ExplorerURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("OPENCHESS_EXPLORER_URL must be an http(s) url, got %q", c.ExplorerURL)
	}
	if c.ContentURL != "" {
		if u, err := url.Parse(c.ContentURL); err != nil || u.Host == "" {
			return fmt.Errorf("OPENCHESS_CONTENT_URL must be an absolute url, got %q", c.ContentURL)
		}
	}
	if c.ContentDir != "" && c.ContentURL != "" {
		return errors.New("set only one of OPENCHESS_CONTENT_DIR and OPENCHESS_CONTENT_URL")
	}
	return nil
}

func intEnv(key string, def, min int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return 0, fmt.Errorf("%s must be an integer >= %d, got %q", key, min, v)
	}
	return n, nil
}

func millisEnv(key string, def time.Duration) (time.Duration, error) {
	n, err := intEnv(key, -1, 0)
	if err != nil || n < 0 {
		return def, err
	}
	return time.Duration(n) * time.Millisecond, nil
}

func secondsEnv(key string, def time.Duration) (time.Duration, error) {
	n, err := intEnv(key, -1, 0)
	if err != nil || n < 0 {
		return def, err
	}
	return time.Duration(n) * time.Second, nil
}
