package sessioncache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Lookup when no entry exists for the email.
var ErrCacheMiss = errors.New("cache miss")

// ErrCacheUnavailable wraps transport-level Redis failures. Callers that can
// fall back to the credential store should treat it like a miss.
var ErrCacheUnavailable = errors.New("cache unavailable")

// DefaultTTL is the entry lifetime applied when NewStore receives a
// non-positive ttl.
const DefaultTTL = 60 * time.Second

const defaultPrefix = "aid"

// Store is a Redis-backed cache mapping email to identity id. Entries live
// for a fixed window from the moment of insertion: Lookup never extends the
// TTL, so a hot entry still falls back to the credential store once per
// window.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewStore creates a cache [Store] backed by the given Redis client. prefix
// namespaces the keys (empty selects "aid"); ttl is the fixed entry lifetime
// (non-positive selects [DefaultTTL]).
func NewStore(client redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Store{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *Store) key(email string) string {
	return s.prefix + ":" + email
}

// Lookup returns the cached identity id for email. The read does not touch
// the entry's TTL. Absent entries return [ErrCacheMiss]; transport failures
// return an error wrapping [ErrCacheUnavailable].
//
//	Performance: 1 Redis GET.
func (s *Store) Lookup(ctx context.Context, email string) (string, error) {
	id, err := s.redis.Get(ctx, s.key(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	return id, nil
}

// Save inserts or replaces the entry for email with the configured fixed TTL.
// Expiry runs from this write; subsequent reads do not extend it.
//
//	Performance: 1 Redis SET with expiry.
func (s *Store) Save(ctx context.Context, email, identityID string) error {
	if err := s.redis.Set(ctx, s.key(email), identityID, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	return nil
}

// Forget drops the entry for email, if any. Normal flows never invalidate
// (entries expire passively); Forget exists for integrations that delete
// identities and cannot tolerate a stale window.
func (s *Store) Forget(ctx context.Context, email string) error {
	if err := s.redis.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	return nil
}

// TTL reports the fixed entry lifetime the store applies on Save.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return time.Since(start), nil
}
