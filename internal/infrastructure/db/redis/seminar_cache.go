package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

const (
	defaultCacheTTL = 5 * time.Minute
	// versionTTL outlives any profile entry so a version never resets while
	// a profile written under it can still be cached.
	versionTTL = 24 * time.Hour
)

// setIfVersion writes the profile only while the seminar's version is still
// the one the caller read before loading it.
var setIfVersion = redis.NewScript(`
local current = redis.call("GET", KEYS[1]) or "0"
if current ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// SeminarCache stores rendered seminar profiles as JSON.
// Key formats: seminar:profile:<seminar_id>, seminar:version:<seminar_id>
type SeminarCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSeminarCache wraps client. A non-positive ttl falls back to five minutes.
func NewSeminarCache(client *redis.Client, ttl time.Duration) *SeminarCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &SeminarCache{client: client, ttl: ttl}
}

// Get reports a miss as (nil, false, nil).
func (c *SeminarCache) Get(ctx context.Context, id int64) (*ports.SeminarProfile, bool, error) {
	raw, err := c.client.Get(ctx, profileKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	p, err := decodeProfile(raw)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// Version returns the seminar's invalidation counter; zero when never invalidated.
func (c *SeminarCache) Version(ctx context.Context, id int64) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache version: %w", err)
	}
	return v, nil
}

// SetIfVersion caches p unless the seminar was invalidated after version was read.
func (c *SeminarCache) SetIfVersion(ctx context.Context, p *ports.SeminarProfile, version int64) (bool, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return false, fmt.Errorf("cache encode: %w", err)
	}
	n, err := setIfVersion.Run(ctx, c.client,
		[]string{versionKey(p.ID), profileKey(p.ID)},
		version, raw, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("cache set: %w", err)
	}
	return n == 1, nil
}

// Invalidate bumps the version and drops the entry in one transaction.
func (c *SeminarCache) Invalidate(ctx context.Context, id int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(id))
		pipe.Expire(ctx, versionKey(id), versionTTL)
		pipe.Del(ctx, profileKey(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

func decodeProfile(raw []byte) (*ports.SeminarProfile, error) {
	var p ports.SeminarProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &p, nil
}

func profileKey(id int64) string {
	return fmt.Sprintf("seminar:profile:%d", id)
}

func versionKey(id int64) string {
	return fmt.Sprintf("seminar:version:%d", id)
}
