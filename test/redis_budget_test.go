//go:build integration
// +build integration

package test

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authkit "github.com/Unfeir/authkit"
)

// cmdCounter is a go-redis Hook that counts Redis round-trips
// (individual commands and pipeline calls).
type cmdCounter struct {
	commands  atomic.Int64
	pipelines atomic.Int64
}

func (h *cmdCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (h *cmdCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		// One pipeline call is one network round-trip regardless of command count.
		h.pipelines.Add(1)
		h.commands.Add(int64(len(cmds)))
		return next(ctx, cmds)
	}
}

func (h *cmdCounter) Reset() {
	h.commands.Store(0)
	h.pipelines.Store(0)
}

func (h *cmdCounter) Commands() int64  { return h.commands.Load() }
func (h *cmdCounter) Pipelines() int64 { return h.pipelines.Load() }

// newCountedEngine builds an engine on miniredis with a cmdCounter installed
// and one confirmed identity seeded. Cache and the email login throttle are
// on, so every measured flow pays its full Redis cost. Reset the counter
// before each measured call.
func newCountedEngine(t *testing.T) (*authkit.Engine, *cmdCounter, string) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	counter := &cmdCounter{}
	rdb.AddHook(counter)

	// Warm the connection: go-redis may emit extra commands on first use
	// (handshake, CLIENT SETNAME, etc.). A PING up front keeps that noise
	// out of the measured budgets.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("warmup ping: %v", err)
	}

	engine, _, mailer := newIntegrationEngine(t, engineOptions{
		client: rdb,
		mutate: func(cfg *authkit.Config) {
			cfg.Limits.EnableLoginThrottle = true
			cfg.Limits.MaxLoginAttempts = 5
			cfg.Limits.LoginWindow = 15 * time.Minute
		},
	})

	const email = "budget@example.com"
	signUpConfirmed(t, engine, mailer, email, "sturdy-passphrase")

	counter.Reset()
	return engine, counter, email
}

// TestAuthorizeRedisBudget verifies the authorize hot path: a cold call pays
// GET + SET to fill the identity cache, a warm call pays the single GET.
func TestAuthorizeRedisBudget(t *testing.T) {
	engine, counter, email := newCountedEngine(t)
	ctx := context.Background()

	pair, err := engine.Login(ctx, email, "sturdy-passphrase")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	counter.Reset()
	if _, err := engine.Authorize(ctx, pair.AccessToken); err != nil {
		t.Fatalf("cold authorize: %v", err)
	}
	if cmds := counter.Commands(); cmds > 2 {
		t.Errorf("cold Authorize used %d Redis commands; budget is ≤ 2 (GET miss + SET fill)", cmds)
	}
	t.Logf("cold Authorize: %d commands, %d pipelines", counter.Commands(), counter.Pipelines())

	counter.Reset()
	if _, err := engine.Authorize(ctx, pair.AccessToken); err != nil {
		t.Fatalf("warm authorize: %v", err)
	}
	if cmds := counter.Commands(); cmds > 1 {
		t.Errorf("warm Authorize used %d Redis commands; budget is ≤ 1 (cache GET)", cmds)
	}
	if pipes := counter.Pipelines(); pipes != 0 {
		t.Errorf("warm Authorize used %d pipelines; the hot path must not pipeline", pipes)
	}
	t.Logf("warm Authorize: %d commands, %d pipelines", counter.Commands(), counter.Pipelines())
}

// TestRefreshRedisBudget verifies that refresh rotation never touches Redis:
// the flow is token parse + credential store only.
func TestRefreshRedisBudget(t *testing.T) {
	engine, counter, email := newCountedEngine(t)
	ctx := context.Background()

	pair, err := engine.Login(ctx, email, "sturdy-passphrase")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	counter.Reset()
	if _, err := engine.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if cmds := counter.Commands(); cmds != 0 {
		t.Errorf("Refresh used %d Redis commands; budget is 0", cmds)
	}
	t.Logf("Refresh: %d commands, %d pipelines", counter.Commands(), counter.Pipelines())
}

// TestLoginRedisBudget verifies a successful login with the email throttle
// enabled pays exactly the throttle check plus the counter reset.
func TestLoginRedisBudget(t *testing.T) {
	engine, counter, email := newCountedEngine(t)
	ctx := context.Background()

	counter.Reset()
	if _, err := engine.Login(ctx, email, "sturdy-passphrase"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if cmds := counter.Commands(); cmds > 2 {
		t.Errorf("Login used %d Redis commands; budget is ≤ 2 (throttle GET + reset DEL)", cmds)
	}
	t.Logf("Login: %d commands, %d pipelines", counter.Commands(), counter.Pipelines())
}

// TestFailedLoginRedisBudget pins the fixed-window write shape: the first
// failure in a window pays GET + INCR + EXPIRE, later failures skip the
// EXPIRE.
func TestFailedLoginRedisBudget(t *testing.T) {
	engine, counter, email := newCountedEngine(t)
	ctx := context.Background()

	counter.Reset()
	if _, err := engine.Login(ctx, email, "wrong"); err == nil {
		t.Fatal("expected login failure")
	}
	if cmds := counter.Commands(); cmds > 3 {
		t.Errorf("first failed Login used %d Redis commands; budget is ≤ 3 (GET + INCR + EXPIRE)", cmds)
	}
	t.Logf("first failed Login: %d commands, %d pipelines", counter.Commands(), counter.Pipelines())

	counter.Reset()
	if _, err := engine.Login(ctx, email, "wrong"); err == nil {
		t.Fatal("expected login failure")
	}
	if cmds := counter.Commands(); cmds > 2 {
		t.Errorf("repeat failed Login used %d Redis commands; budget is ≤ 2 (GET + INCR)", cmds)
	}
	t.Logf("repeat failed Login: %d commands, %d pipelines", counter.Commands(), counter.Pipelines())
}
