package sessioncache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newCacheTest(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(rdb, "aid", ttl)
	return store, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestLookupMiss(t *testing.T) {
	store, _, done := newCacheTest(t, time.Minute)
	defer done()

	_, err := store.Lookup(context.Background(), "nobody@example.com")
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestSaveThenLookup(t *testing.T) {
	store, _, done := newCacheTest(t, time.Minute)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, "user@example.com", "id-42"); err != nil {
		t.Fatalf("save: %v", err)
	}

	id, err := store.Lookup(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if id != "id-42" {
		t.Fatalf("expected id-42, got %q", id)
	}
}

func TestEntryExpiresAfterFixedWindow(t *testing.T) {
	store, mr, done := newCacheTest(t, time.Minute)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, "user@example.com", "id-42"); err != nil {
		t.Fatalf("save: %v", err)
	}

	mr.FastForward(61 * time.Second)

	if _, err := store.Lookup(ctx, "user@example.com"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired entry to miss, got %v", err)
	}
}

func TestLookupDoesNotExtendTTL(t *testing.T) {
	store, mr, done := newCacheTest(t, time.Minute)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, "user@example.com", "id-42"); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A read mid-window must not push expiry out.
	mr.FastForward(40 * time.Second)
	if _, err := store.Lookup(ctx, "user@example.com"); err != nil {
		t.Fatalf("mid-window lookup: %v", err)
	}

	mr.FastForward(21 * time.Second)
	if _, err := store.Lookup(ctx, "user@example.com"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected entry to expire on original schedule, got %v", err)
	}
}

func TestSaveResetsWindow(t *testing.T) {
	store, mr, done := newCacheTest(t, time.Minute)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, "user@example.com", "id-42"); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(40 * time.Second)

	// Re-insert restarts the fixed window.
	if err := store.Save(ctx, "user@example.com", "id-42"); err != nil {
		t.Fatalf("second save: %v", err)
	}
	mr.FastForward(40 * time.Second)

	id, err := store.Lookup(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("lookup after re-insert: %v", err)
	}
	if id != "id-42" {
		t.Fatalf("expected id-42, got %q", id)
	}
}

func TestForget(t *testing.T) {
	store, _, done := newCacheTest(t, time.Minute)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, "user@example.com", "id-42"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Forget(ctx, "user@example.com"); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if _, err := store.Lookup(ctx, "user@example.com"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected forgotten entry to miss, got %v", err)
	}

	// Forget on an absent entry is a no-op.
	if err := store.Forget(ctx, "user@example.com"); err != nil {
		t.Fatalf("second forget: %v", err)
	}
}

func TestLookupUnavailable(t *testing.T) {
	store, mr, done := newCacheTest(t, time.Minute)
	defer done()

	mr.Close()

	_, err := store.Lookup(context.Background(), "user@example.com")
	if !errors.Is(err, ErrCacheUnavailable) {
		t.Fatalf("expected ErrCacheUnavailable, got %v", err)
	}
}

func TestNewStoreDefaults(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewStore(rdb, "", 0)
	if store.TTL() != DefaultTTL {
		t.Fatalf("expected default TTL %v, got %v", DefaultTTL, store.TTL())
	}

	ctx := context.Background()
	if err := store.Save(ctx, "user@example.com", "id-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := rdb.Get(ctx, "aid:user@example.com").Result(); err != nil {
		t.Fatalf("expected default key prefix, got %v", err)
	}
}
