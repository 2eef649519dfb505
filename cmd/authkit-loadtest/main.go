// Command authkit-loadtest drives the engine's hot paths against Redis (or
// an embedded miniredis) and prints per-phase latency percentiles.
//
// Three phases run in order: authorize (token parse + cache + store lookup),
// refresh (rotation with per-identity serialization), and login
// (argon2-bound, so it gets its own smaller ops budget).
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authkit "github.com/Unfeir/authkit"
	"github.com/Unfeir/authkit/jwt"
	"github.com/Unfeir/authkit/password"
	"github.com/Unfeir/authkit/store/memory"
)

const seedPassword = "correct-horse-battery"

type identitySession struct {
	email string
	mu    sync.Mutex
	pair  authkit.TokenPair
}

func main() {
	var (
		identities  = flag.Int("identities", 20000, "number of identities to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase (authorize + refresh)")
		loginOps    = flag.Int("login-ops", 2000, "login operations (argon2-bound)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *identities <= 0 || *concurrency <= 0 || *ops <= 0 || *loginOps <= 0 {
		fmt.Fprintln(os.Stderr, "identities, concurrency, ops, and login-ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := authkit.DefaultConfig()
	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	// Cheap argon2 parameters: the login phase measures flow overhead, not
	// KDF tuning.
	cfg.Password.Memory = 8192
	cfg.Password.Iterations = 1
	cfg.Password.Parallelism = 1
	cfg.Password.KeyLength = 16

	store := memory.NewStore()
	engine, err := authkit.New().
		WithConfig(cfg).
		WithRedis(client).
		WithCredentialStore(store).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	states, err := seedIdentities(ctx, cfg, store, *identities)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	authorizeStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		state := states[r.Intn(len(states))]
		state.mu.Lock()
		token := state.pair.AccessToken
		state.mu.Unlock()

		_, err := engine.Authorize(ctx, token)
		return err
	})

	refreshStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		state := states[r.Intn(len(states))]
		state.mu.Lock()
		defer state.mu.Unlock()

		pair, err := engine.Refresh(ctx, state.pair.RefreshToken)
		if err != nil {
			return err
		}
		state.pair = *pair
		return nil
	})

	loginStats := runPhase(*loginOps, *concurrency, func(r *rand.Rand) error {
		state := states[r.Intn(len(states))]
		pair, err := engine.Login(ctx, state.email, seedPassword)
		if err != nil {
			return err
		}
		state.mu.Lock()
		state.pair = *pair
		state.mu.Unlock()
		return nil
	})

	fmt.Println("---- results ----")
	printStats("authorize", authorizeStats)
	printStats("refresh", refreshStats)
	printStats("login", loginStats)

	snap := engine.MetricsSnapshot()
	fmt.Println("---- engine counters ----")
	for _, c := range []struct {
		name string
		id   authkit.MetricID
	}{
		{"authorize_success", authkit.MetricAuthorizeSuccess},
		{"cache_hit", authkit.MetricCacheHit},
		{"cache_miss", authkit.MetricCacheMiss},
		{"refresh_success", authkit.MetricRefreshSuccess},
		{"refresh_replay_detected", authkit.MetricRefreshReplayDetected},
		{"login_success", authkit.MetricLoginSuccess},
	} {
		fmt.Printf("%s=%d\n", c.name, snap.Counters[c.id])
	}
}

// seedIdentities creates confirmed identities with one shared password
// digest and an active session each, minted directly so seeding skips the
// argon2 and login paths.
func seedIdentities(ctx context.Context, cfg authkit.Config, store *memory.Store, n int) ([]*identitySession, error) {
	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Iterations:  cfg.Password.Iterations,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	digest, err := hasher.Hash(seedPassword)
	if err != nil {
		return nil, err
	}

	tokens, err := jwt.NewManager(jwt.Config{
		Secret:        cfg.Token.Secret,
		SigningMethod: jwt.SigningMethod(cfg.Token.SigningMethod),
		Issuer:        cfg.Token.Issuer,
	})
	if err != nil {
		return nil, err
	}

	fmt.Printf("seeding %d identities...\n", n)
	start := time.Now()

	states := make([]*identitySession, n)
	for i := 0; i < n; i++ {
		email := fmt.Sprintf("user%d@example.com", i)

		access, err := tokens.Issue(jwt.ScopeAccess, email, cfg.Token.AccessTTL)
		if err != nil {
			return nil, err
		}
		refresh, err := tokens.Issue(jwt.ScopeRefresh, email, cfg.Token.RefreshTTL)
		if err != nil {
			return nil, err
		}

		if _, err := store.Create(ctx, &authkit.Identity{
			Email:          email,
			Username:       fmt.Sprintf("user%d", i),
			PasswordHash:   digest,
			EmailConfirmed: true,
			RefreshToken:   &refresh,
		}); err != nil {
			return nil, err
		}

		states[i] = &identitySession{
			email: email,
			pair: authkit.TokenPair{
				AccessToken:  access,
				RefreshToken: refresh,
				TokenType:    "bearer",
			},
		}
	}

	fmt.Printf("seeded in %s\n", time.Since(start).Round(time.Millisecond))
	return states, nil
}

func runPhase(ops, concurrency int, op func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    atomic.Int64
		failures  atomic.Int64
		mu        sync.Mutex
		latencies = make([]time.Duration, 0, ops)
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				if int(cursor.Add(1))-1 >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					failures.Add(1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures.Load())
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
