package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ExplorerURL != "https://explorer.lichess.ovh" || cfg.LookupRetries != 3 || cfg.LookupRetryDelay != time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ExplorerMaxConns != 16 {
		t.Fatalf("unexpected explorer defaults: %+v", cfg)
	}
	if cfg.MaxTopGames != 5 || cfg.MaxBacktrack != 0 || cfg.ResolveBudget != 30*time.Second {
		t.Fatalf("unexpected resolver defaults: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OPENCHESS_EXPLORER_URL", "http://localhost:9002")
	t.Setenv("OPENCHESS_LOOKUP_RETRIES", "0")
	t.Setenv("OPENCHESS_LOOKUP_RETRY_DELAY_MS", "250")
	t.Setenv("OPENCHESS_MAX_BACKTRACK", "12")
	t.Setenv("OPENCHESS_SESSION_TTL_SEC", "60")
	t.Setenv("OPENCHESS_EXPLORER_MAX_CONNS", "4")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LookupRetries != 0 || cfg.LookupRetryDelay != 250*time.Millisecond || cfg.MaxBacktrack != 12 || cfg.SessionTTL != time.Minute || cfg.ExplorerMaxConns != 4 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"OPENCHESS_LOOKUP_RETRIES":     "-1",
		"OPENCHESS_MAX_TOP_GAMES":      "zero",
		"OPENCHESS_EXPLORER_URL":       "ftp://explorer",
		"OPENCHESS_EXPLORER_MAX_CONNS": "0",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, val)
			}
		})
	}
}
