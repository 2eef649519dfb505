//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"sync"
	"testing"

	authkit "github.com/Unfeir/authkit"
)

// TestRefreshRaceReplayedTokenDies hammers Refresh with one token from many
// goroutines. Rotation is compare-then-save, so more than one caller may win
// the comparison; the guarantee under test is that every loser gets
// ErrRefreshReuse and the presented token is dead once the race settles.
func TestRefreshRaceReplayedTokenDies(t *testing.T) {
	engine, _, mailer := newIntegrationEngine(t, engineOptions{})
	ctx := context.Background()

	signUpConfirmed(t, engine, mailer, "race@example.com", "sturdy-passphrase")
	pair, err := engine.Login(ctx, "race@example.com", "sturdy-passphrase")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err := engine.Refresh(ctx, pair.RefreshToken)
			results <- err
		}()
	}

	close(start)
	wg.Wait()
	close(results)

	success := 0
	for err := range results {
		switch {
		case err == nil:
			success++
		case errors.Is(err, authkit.ErrRefreshReuse):
		default:
			t.Fatalf("unexpected refresh error: %v", err)
		}
	}

	if success < 1 {
		t.Fatal("expected at least one rotation to succeed")
	}

	// The raced token must not work again regardless of who won.
	if _, err := engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, authkit.ErrRefreshReuse) {
		t.Fatalf("expected ErrRefreshReuse for settled replay, got %v", err)
	}
}
