package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed request can hold its key.
	pendingTTL    = time.Minute
	pendingMarker = "pending"
)

var releaseIfPending = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// IdempotencyStore maps a client-supplied key to the seminar it created.
// A key is first claimed with a pending marker, then completed with the
// seminar id, or released when creation fails.
// Key format: idem:seminar:<user_id>:<key>
type IdempotencyStore struct {
	client *redis.Client
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Claim reserves key for the caller. When someone else holds it, claimed is
// false and seminarID is the seminar already created, or zero while the
// holder is still working.
func (s *IdempotencyStore) Claim(ctx context.Context, userID int64, key string) (seminarID int64, claimed bool, err error) {
	k := idempotencyKey(userID, key)
	ok, err := s.client.SetNX(ctx, k, pendingMarker, pendingTTL).Result()
	if err != nil {
		return 0, false, fmt.Errorf("idempotency claim: %w", err)
	}
	if ok {
		return 0, true, nil
	}

	raw, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Released or expired since SetNX; the client retries.
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("idempotency claim: %w", err)
	}
	id, err := parseStoredID(raw)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency claim: %w", err)
	}
	return id, false, nil
}

// Complete records the seminar created under a claimed key.
func (s *IdempotencyStore) Complete(ctx context.Context, userID int64, key string, seminarID int64) error {
	if err := s.client.Set(ctx, idempotencyKey(userID, key), seminarID, idempotencyTTL).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release frees a claimed key that never produced a seminar.
func (s *IdempotencyStore) Release(ctx context.Context, userID int64, key string) error {
	if err := releaseIfPending.Run(ctx, s.client, []string{idempotencyKey(userID, key)}, pendingMarker).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

// parseStoredID returns zero for a pending marker.
func parseStoredID(raw string) (int64, error) {
	if raw == pendingMarker {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("stored value %q is not a seminar id", raw)
	}
	return id, nil
}

func idempotencyKey(userID int64, key string) string {
	return fmt.Sprintf("idem:seminar:%d:%s", userID, key)
}
