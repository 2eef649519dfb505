package authkit

import (
	"context"
	"errors"
	"testing"

	"github.com/Unfeir/authkit/jwt"
)

func TestRefreshRotatesActiveToken(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	engine := newTestEngine(t, store)
	identity := seedIdentity(t, engine, store, "a@x.com", "u", "pw12345")

	pair, err := engine.Login(ctx, "a@x.com", "pw12345")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	rotated, err := engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("expected a new refresh token")
	}
	if rotated.AccessToken == "" || rotated.TokenType != "bearer" {
		t.Fatalf("unexpected rotated pair: %+v", rotated)
	}
	if _, err := engine.tokens.Parse(rotated.AccessToken, jwt.ScopeAccess); err != nil {
		t.Fatalf("rotated access token parse failed: %v", err)
	}

	stored := store.get(identity.ID)
	if stored.RefreshToken == nil || *stored.RefreshToken != rotated.RefreshToken {
		t.Fatal("expected the rotated refresh token to be persisted")
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, newFakeStore())

	_, err := engine.Refresh(ctx, "not-a-token")
	if !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid, got %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	engine := newTestEngine(t, store)
	seedIdentity(t, engine, store, "a@x.com", "u", "pw12345")

	pair, err := engine.Login(ctx, "a@x.com", "pw12345")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	_, err = engine.Refresh(ctx, pair.AccessToken)
	if !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid for an access token, got %v", err)
	}
}

func TestRefreshUnknownIdentity(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, newFakeStore())

	token, err := engine.tokens.Issue(jwt.ScopeRefresh, "ghost@x.com", engine.config.Token.RefreshTTL)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err = engine.Refresh(ctx, token)
	if !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid, got %v", err)
	}
}

func TestRefreshWithoutActiveSession(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	engine := newTestEngine(t, store)
	seedIdentity(t, engine, store, "a@x.com", "u", "pw12345")

	// A well-formed token for an identity with no active session. Nothing
	// to revoke, so no store write happens.
	token, err := engine.tokens.Issue(jwt.ScopeRefresh, "a@x.com", engine.config.Token.RefreshTTL)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err = engine.Refresh(ctx, token)
	if !errors.Is(err, ErrRefreshReuse) {
		t.Fatalf("expected ErrRefreshReuse, got %v", err)
	}
	if store.saveCalls != 0 {
		t.Fatalf("expected no store writes, got %d saves", store.saveCalls)
	}
}

func TestRefreshReplayRevokesActiveSession(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cfg := testEngineConfig()
	cfg.Metrics.Enabled = true
	engine := newTestEngineWithConfig(t, cfg, store)
	identity := seedIdentity(t, engine, store, "a@x.com", "u", "pw12345")

	pair, err := engine.Login(ctx, "a@x.com", "pw12345")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	rotated, err := engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if _, err := engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRefreshReuse) {
		t.Fatalf("expected ErrRefreshReuse on replay, got %v", err)
	}
	if stored := store.get(identity.ID); stored.RefreshToken != nil {
		t.Fatal("expected the active refresh token to be revoked")
	}
	if got := engine.metrics.Value(MetricRefreshReplayDetected); got != 1 {
		t.Fatalf("expected one replay detection, got %d", got)
	}

	// The rotated token dies with the revocation.
	if _, err := engine.Refresh(ctx, rotated.RefreshToken); !errors.Is(err, ErrRefreshReuse) {
		t.Fatalf("expected ErrRefreshReuse after revocation, got %v", err)
	}
	if got := engine.metrics.Value(MetricRefreshSuccess); got != 1 {
		t.Fatalf("expected exactly one successful refresh, got %d", got)
	}
}

func TestRefreshStoreSaveFailure(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	engine := newTestEngine(t, store)
	seedIdentity(t, engine, store, "a@x.com", "u", "pw12345")

	pair, err := engine.Login(ctx, "a@x.com", "pw12345")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	store.saveErr = errors.New("disk full")

	_, err = engine.Refresh(ctx, pair.RefreshToken)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
