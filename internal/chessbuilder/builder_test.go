package chessbuilder

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/RedBe-an/OpenChess/internal/config"
)

func TestParseRedisURL(t *testing.T) {
	c, err := parseRedisURL("redis://:pw@cache.local:6380/2")
	if err != nil {
		t.Fatalf("parseRedisURL: %v", err)
	}
	if c.Host != "cache.local" || c.Port != 6380 || c.Password != "pw" || c.DB != 2 {
		t.Fatalf("unexpected config: %+v", c)
	}
	c, err = parseRedisURL("redis://localhost")
	if err != nil || c.Port != 6379 || c.DB != 0 {
		t.Fatalf("defaults: %+v %v", c, err)
	}
	if c.TLS {
		t.Fatalf("redis:// must not enable TLS")
	}
	c, err = parseRedisURL("rediss://cache.example:6380")
	if err != nil || !c.TLS || c.Host != "cache.example" {
		t.Fatalf("rediss: %+v %v", c, err)
	}
	if _, err := parseRedisURL("http://localhost"); err == nil {
		t.Fatalf("expected scheme error")
	}
}

func TestNewWithoutOptionalServices(t *testing.T) {
	d, err := New(&config.AppConfig{ExplorerURL: "http://localhost:1", MaxTopGames: 5}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()
	if d.Cache != nil || d.Sessions != nil || d.DB != nil || d.Content != nil {
		t.Fatalf("unexpected optional services: %+v", d)
	}
	if d.Records == nil || d.Resolver == nil || d.Formatter == nil {
		t.Fatalf("missing required services")
	}
	if _, err := d.RestoreSession(context.Background(), "x"); err != ErrNoSessionStore {
		t.Fatalf("expected ErrNoSessionStore, got %v", err)
	}
	s := d.NewSession()
	defer s.Close()
	if s.ID() == "" {
		t.Fatalf("session without id")
	}
}

func TestNewWithRedisSQLiteAndContentDir(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	dir := t.TempDir()
	cfg := &config.AppConfig{
		ExplorerURL: "http://localhost:1",
		RedisURL:    fmt.Sprintf("redis://%s/0", mr.Addr()),
		DatabaseURL: "sqlite://" + filepath.Join(dir, "openings.db"),
		ContentDir:  filepath.Join(dir, "content"),
	}
	d, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()
	if d.Cache == nil || d.Sessions == nil || d.DB == nil || d.Content == nil {
		t.Fatalf("expected all optional services: %+v", d)
	}
	st, err := d.Records.Count(context.Background())
	if err != nil || st.Total != 0 {
		t.Fatalf("Count: %+v %v", st, err)
	}
}
