package authkit

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Login verifies the credentials and returns a fresh access+refresh pair.
// Unknown emails fail [ErrInvalidEmail], wrong passwords
// [ErrInvalidPassword], unconfirmed identities [ErrEmailNotConfirmed],
// and a tripped throttle [ErrLoginRateLimited].
//
// A successful login persists the refresh token on the identity; the pair
// returned here supersedes whatever pair an earlier login issued.
//
//	Docs: docs/engine.md
func (e *Engine) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	ip := clientIPFromContext(ctx)

	if e.limiter != nil {
		if err := e.limiter.CheckLogin(ctx, email, ip); err != nil {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", email, ErrLoginRateLimited, nil)
			e.emitRateLimit(ctx, "login", email, nil)
			return nil, ErrLoginRateLimited
		}
	}

	if password == "" {
		return nil, e.loginFailure(ctx, email, ip, "", "empty_password", ErrInvalidPassword)
	}

	identity, err := e.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, e.loginFailure(ctx, email, ip, "", "identity_not_found", ErrInvalidEmail)
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", email, err, func() map[string]string {
			return map[string]string{
				"reason": "store_lookup_failed",
			}
		})
		return nil, err
	}

	if !e.hasher.Verify(password, identity.PasswordHash) {
		return nil, e.loginFailure(ctx, email, ip, identity.ID, "password_mismatch", ErrInvalidPassword)
	}

	if e.config.Security.RequireConfirmedEmail && !identity.EmailConfirmed {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity.ID, email, ErrEmailNotConfirmed, func() map[string]string {
			return map[string]string{
				"reason": "email_unconfirmed",
			}
		})
		return nil, ErrEmailNotConfirmed
	}

	rehashed := false
	if e.config.Password.UpgradeOnLogin && e.hasher.NeedsRehash(identity.PasswordHash) {
		if upgraded, err := e.hasher.Hash(password); err == nil {
			identity.PasswordHash = upgraded
			rehashed = true
		} else {
			log.Print("authkit: password hash upgrade generation failed")
		}
	}
	password = ""

	pair, err := e.issuePair(identity.Email)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity.ID, email, err, func() map[string]string {
			return map[string]string{
				"reason": "issue_pair_failed",
			}
		})
		return nil, err
	}

	// One Save carries the new refresh token and, when due, the upgraded hash.
	identity.RefreshToken = &pair.RefreshToken
	if err := e.store.Save(ctx, identity); err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity.ID, email, wrapped, func() map[string]string {
			return map[string]string{
				"reason": "store_save_failed",
			}
		})
		return nil, wrapped
	}
	if rehashed {
		e.metricInc(MetricHashUpgrade)
	}

	if e.limiter != nil {
		if err := e.limiter.ResetLogin(ctx, email, ip); err != nil {
			log.Print("authkit: login throttle reset failed: ", err)
		}
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, identity.ID, identity.Email, nil, func() map[string]string {
		if !rehashed {
			return nil
		}
		return map[string]string{
			"hash_upgraded": "true",
		}
	})
	return pair, nil
}

// loginFailure charges a failed attempt to the login throttle and reports the
// flow error, preferring the throttle verdict when this attempt tripped it.
func (e *Engine) loginFailure(ctx context.Context, email, ip, identityID, reason string, cause error) error {
	if e.limiter != nil {
		if err := e.limiter.IncrementLogin(ctx, email, ip); err != nil {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, identityID, email, ErrLoginRateLimited, nil)
			e.emitRateLimit(ctx, "login", email, nil)
			return ErrLoginRateLimited
		}
	}
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, identityID, email, cause, func() map[string]string {
		return map[string]string{
			"reason": reason,
		}
	})
	return cause
}
