//go:build integration
// +build integration

package test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authkit "github.com/Unfeir/authkit"
	"github.com/Unfeir/authkit/store/memory"
)

var integrationSecret = []byte("0123456789abcdef0123456789abcdef")

// channelMailer hands tokens to the test instead of sending mail, so flows
// that continue with a mailed token (confirm, reset) stay fully in-process.
type channelMailer struct {
	tokens chan string
}

func newChannelMailer() *channelMailer {
	return &channelMailer{tokens: make(chan string, 16)}
}

func (m *channelMailer) SendConfirmation(_ context.Context, _, _, token string) error {
	m.tokens <- token
	return nil
}

func (m *channelMailer) SendPasswordReset(_ context.Context, _, _, token string) error {
	m.tokens <- token
	return nil
}

func (m *channelMailer) next(t *testing.T) string {
	t.Helper()
	select {
	case token := <-m.tokens:
		return token
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mailed token")
		return ""
	}
}

// engineOptions tunes newIntegrationEngine. A nil client means a private
// miniredis; mutate runs against the default config before Build.
type engineOptions struct {
	client redis.UniversalClient
	mutate func(*authkit.Config)
}

// newIntegrationEngine builds an engine the way a consumer would: public
// builder, miniredis, in-memory credential store, channel mailer.
func newIntegrationEngine(t *testing.T, opts engineOptions) (*authkit.Engine, *memory.Store, *channelMailer) {
	t.Helper()

	client := opts.client
	if client == nil {
		mr, err := miniredis.Run()
		if err != nil {
			t.Fatalf("miniredis run failed: %v", err)
		}
		t.Cleanup(mr.Close)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		client = rdb
	}

	cfg := authkit.DefaultConfig()
	cfg.Token.Secret = integrationSecret
	if opts.mutate != nil {
		opts.mutate(&cfg)
	}

	store := memory.NewStore()
	mailer := newChannelMailer()

	engine, err := authkit.New().
		WithConfig(cfg).
		WithRedis(client).
		WithCredentialStore(store).
		WithMailer(mailer).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, store, mailer
}

// signUpConfirmed walks the public sign-up and confirmation flows and
// returns the new identity's ID.
func signUpConfirmed(t *testing.T, engine *authkit.Engine, mailer *channelMailer, email, password string) string {
	t.Helper()

	identity, err := engine.SignUp(context.Background(), authkit.SignUpInput{
		Email:    email,
		Username: "integration",
		Password: password,
	})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if _, err := engine.ConfirmEmail(context.Background(), mailer.next(t)); err != nil {
		t.Fatalf("ConfirmEmail failed: %v", err)
	}
	return identity.ID
}
