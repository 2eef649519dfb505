package authkit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"

	"github.com/Unfeir/authkit/internal/audit"
	"github.com/Unfeir/authkit/internal/rate"
	"github.com/Unfeir/authkit/jwt"
	"github.com/Unfeir/authkit/password"
	"github.com/Unfeir/authkit/sessioncache"
)

// Field limits mirror the identities schema (store/postgres/migrations).
const (
	maxEmailLength    = 150
	maxUsernameLength = 50
)

// Engine orchestrates every authentication flow over the wired
// dependencies: credential store, token manager, hasher, and the optional
// cache, limiter, audit, mail, and metrics subsystems. Build one with
// [Builder]; a built Engine is immutable and safe for concurrent use.
//
//	Docs: docs/engine.md
type Engine struct {
	config  Config
	store   CredentialStore
	cache   *sessioncache.Store
	limiter *rate.Limiter
	metrics *Metrics
	audit   *audit.Dispatcher
	mail    *mailDispatcher
	hasher  *password.Hasher
	tokens  *jwt.Manager
}

// Close drains and stops the audit and mail dispatchers. Flows must not
// be called after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.mail != nil {
		e.mail.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MailDropped reports how many mail sends were discarded because the
// dispatcher buffer was full.
func (e *Engine) MailDropped() uint64 {
	if e == nil || e.mail == nil {
		return 0
	}
	return e.mail.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters and
// histograms. With metrics disabled the maps are empty, never nil.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil || e.hasher == nil || e.tokens == nil {
		return ErrEngineNotReady
	}
	return nil
}

// findByEmail loads an identity, passing ErrIdentityNotFound through and
// folding every other store failure into ErrStoreUnavailable.
func (e *Engine) findByEmail(ctx context.Context, email string) (*Identity, error) {
	identity, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return identity, nil
}

// resolveIdentityID maps an email to its identity id through the session
// cache. A hit never touches the store and never extends the entry TTL. A
// miss, and an unreachable cache, fall through to the store; the refreshed
// entry is written back best-effort.
func (e *Engine) resolveIdentityID(ctx context.Context, email string) (string, error) {
	if e.cache != nil {
		id, err := e.cache.Lookup(ctx, email)
		switch {
		case err == nil:
			e.metricInc(MetricCacheHit)
			return id, nil
		case errors.Is(err, sessioncache.ErrCacheUnavailable):
			e.metricInc(MetricCacheDegraded)
		default:
			e.metricInc(MetricCacheMiss)
		}
	}

	identity, err := e.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if e.cache != nil {
		if err := e.cache.Save(ctx, email, identity.ID); err != nil {
			// The next authorize for this email falls through to the store again.
			log.Print("authkit: cache set failed: ", err)
		}
	}

	return identity.ID, nil
}

// issuePair mints the access+refresh pair returned by Login and Refresh.
func (e *Engine) issuePair(email string) (*TokenPair, error) {
	access, err := e.tokens.Issue(jwt.ScopeAccess, email, e.config.Token.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := e.tokens.Issue(jwt.ScopeRefresh, email, e.config.Token.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

func validateEmail(email string) error {
	if email == "" || len(email) > maxEmailLength {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

func (e *Engine) checkPasswordPolicy(password string) error {
	if len(password) < e.config.Password.MinLength {
		return ErrPasswordPolicy
	}
	return nil
}
