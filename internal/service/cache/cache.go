// Package cache is a small JSON cache over Redis shared by the opening lookup and the
// session store.
package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CacheConfig addresses a Redis database.
type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	// TLS enables TLS to Host (rediss:// URLs).
	TLS bool
	// Prefix is prepended to every key.
	Prefix string
}

func (c CacheConfig) options() *redis.Options {
	opts := &redis.Options{
		Addr:     c.addr(),
		Password: c.Password,
		DB:       c.DB,
	}
	if c.TLS {
		host, _, _ := net.SplitHostPort(opts.Addr)
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
	}
	return opts
}

func (c CacheConfig) addr() string {
	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = 6379
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

type CacheService struct {
	rdb    *redis.Client
	prefix string
	logger *zap.Logger
}

// NewCacheService connects and pings Redis.
func NewCacheService(cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	rdb := redis.NewClient(cfg.options())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(rdb, cfg.Prefix, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client, prefix string, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{rdb: rdb, prefix: prefix, logger: logger}
}

func (c *CacheService) key(k string) string { return c.prefix + k }

// Get decodes the value stored at key into dest. A missing key leaves dest untouched
// and returns nil.
func (c *CacheService) Get(ctx context.Context, key string, dest any) error {
	_, err := c.Lookup(ctx, key, dest)
	return err
}

// Lookup is Get that also reports whether the key existed.
func (c *CacheService) Lookup(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("cache_decode_failed", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores v as JSON. A non-positive ttl keeps the key until deleted.
func (c *CacheService) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *CacheService) Del(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("cache del %s: %w", key, err)
	}
	return nil
}

func (c *CacheService) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
