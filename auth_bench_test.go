package authkit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Unfeir/authkit/jwt"
	"github.com/Unfeir/authkit/password"
	"github.com/Unfeir/authkit/sessioncache"
)

func BenchmarkAuthorize(b *testing.B) {
	engine, _, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	pair, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	if err != nil {
		b.Fatalf("Login failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Authorize(context.Background(), pair.AccessToken); err != nil {
			b.Fatalf("Authorize failed: %v", err)
		}
	}
}

func BenchmarkAuthorizeCached(b *testing.B) {
	engine, _, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	mr, err := miniredis.Run()
	if err != nil {
		b.Fatalf("miniredis.Run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := engine.config
	engine.cache = sessioncache.NewStore(rdb, cfg.Cache.Prefix, cfg.Cache.TTL)

	pair, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	if err != nil {
		b.Fatalf("Login failed: %v", err)
	}
	// Warm the cache so the loop measures hits only. Miniredis time stands
	// still without FastForward, so the entry cannot expire mid-run.
	if _, err := engine.Authorize(context.Background(), pair.AccessToken); err != nil {
		b.Fatalf("warmup Authorize failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Authorize(context.Background(), pair.AccessToken); err != nil {
			b.Fatalf("Authorize failed: %v", err)
		}
	}
}

func BenchmarkRefresh(b *testing.B) {
	engine, _, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	pair, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123")
	if err != nil {
		b.Fatalf("Login failed: %v", err)
	}
	refresh := pair.RefreshToken

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		next, err := engine.Refresh(context.Background(), refresh)
		if err != nil {
			b.Fatalf("Refresh failed: %v", err)
		}
		refresh = next.RefreshToken
	}
}

func BenchmarkLogin(b *testing.B) {
	engine, _, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Login(context.Background(), "alice@example.com", "correct-password-123"); err != nil {
			b.Fatalf("Login failed: %v", err)
		}
	}
}

func newBenchmarkEngine(tb testing.TB) (*Engine, *fakeStore, func()) {
	tb.Helper()

	cfg := testEngineConfig()
	cfg.Metrics.Enabled = false
	cfg.Audit.Enabled = false

	hasher, err := password.NewHasher(password.Config{
		Memory:           cfg.Password.Memory,
		Iterations:       cfg.Password.Iterations,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	})
	if err != nil {
		tb.Fatalf("NewHasher failed: %v", err)
	}
	tokens, err := jwt.NewManager(jwt.Config{
		Secret:        cfg.Token.Secret,
		SigningMethod: jwt.SigningMethod(cfg.Token.SigningMethod),
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
		RequireIAT:    true,
		MaxFutureIAT:  cfg.Token.MaxFutureIAT,
	})
	if err != nil {
		tb.Fatalf("NewManager failed: %v", err)
	}

	store := newFakeStore()
	engine := &Engine{
		config:  cfg,
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		metrics: NewMetrics(cfg.Metrics),
	}

	digest, err := hasher.Hash("correct-password-123")
	if err != nil {
		tb.Fatalf("Hash failed: %v", err)
	}
	if _, err := store.Create(context.Background(), &Identity{
		Email:          "alice@example.com",
		Username:       "alice",
		PasswordHash:   digest,
		EmailConfirmed: true,
	}); err != nil {
		tb.Fatalf("seed Create failed: %v", err)
	}

	return engine, store, func() { engine.Close() }
}
