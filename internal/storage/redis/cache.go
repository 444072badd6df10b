// Package rediscache provides the Redis cache sink.
package rediscache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JakeFAU/hasaki-crawler/internal/crawler"
)

// SinkName identifies this sink in logs and metrics.
const SinkName = "redis"

// Defaults for the cache entries.
const (
	DefaultNamespace = "hasaki"
	DefaultTTL       = time.Hour
)

// Config holds the connection parameters and entry policy.
type Config struct {
	Host      string
	Port      int
	Namespace string
	TTL       time.Duration
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Cache stores each record under "<namespace>:<item_name>" with a fixed
// expiry. Entries are never refreshed; a later record with the same name
// overwrites the earlier one.
type Cache struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// Connect dials the server and pings it before returning.
func Connect(ctx context.Context, cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr()})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, cfg), nil
}

// New wraps an existing client.
func New(client *redis.Client, cfg Config) *Cache {
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, namespace: ns, ttl: ttl}
}

// Name implements crawler.Sink.
func (c *Cache) Name() string { return SinkName }

// Write sets the record with its expiry in one command.
func (c *Cache) Write(ctx context.Context, record crawler.Record) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("cache is not configured")
	}
	value, err := record.CacheValue()
	if err != nil {
		return err
	}
	key := record.CacheKey(c.namespace)
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Close releases the client.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}
