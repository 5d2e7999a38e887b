package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// Config is the Redis part of the service configuration.
type Config struct {
	Addr     string
	Password string
	DB       int
	// PoolSize of zero keeps the driver default.
	PoolSize int
	CacheTTL time.Duration
}

func (c Config) options() *redis.Options {
	return &redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
		PoolSize: c.PoolSize,
	}
}

// Stores holds the Redis-backed collaborators of the seminar service. The
// profile cache and the idempotency keys share one client.
type Stores struct {
	client      *redis.Client
	Cache       *SeminarCache
	Idempotency *IdempotencyStore
}

// Open connects to Redis and fails unless the server answers a ping.
func Open(ctx context.Context, cfg Config) (*Stores, error) {
	client := redis.NewClient(cfg.options())

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return &Stores{
		client:      client,
		Cache:       NewSeminarCache(client, cfg.CacheTTL),
		Idempotency: NewIdempotencyStore(client),
	}, nil
}

// Ping backs the readiness probe.
func (s *Stores) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Stores) Close() error {
	return s.client.Close()
}
