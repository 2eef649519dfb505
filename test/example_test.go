package test

import (
	"context"

	authkit "github.com/Unfeir/authkit"
	"github.com/Unfeir/authkit/store/memory"
	"github.com/redis/go-redis/v9"
)

// ExampleNew demonstrates engine construction with production-style dependencies.
func ExampleNew() {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})

	cfg := authkit.DefaultConfig()
	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")

	engine, _ := authkit.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(memory.NewStore()).
		Build()
	_ = engine
}

// ExampleEngine_Login shows a typical login entrypoint call and structured error handling.
func ExampleEngine_Login() {
	var engine *authkit.Engine
	pair, err := engine.Login(context.Background(), "alice@example.com", "password")
	if err != nil {
		switch authkit.KindOf(err) {
		case authkit.KindUnauthorized, authkit.KindRateLimited:
			_ = err
		default:
			_ = err
		}
		return
	}
	_ = pair.AccessToken
}

// ExampleEngine_MetricsSnapshot shows how to read in-process metrics counters.
func ExampleEngine_MetricsSnapshot() {
	var engine *authkit.Engine
	snapshot := engine.MetricsSnapshot()
	_ = snapshot
}
