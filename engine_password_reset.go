package authkit

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Unfeir/authkit/jwt"
)

// RequestPasswordReset dispatches a reset mail for a known email. Unknown
// emails fail [ErrIdentityNotFound]; with the reset throttle on, repeated
// requests fail [ErrPasswordResetRateLimited].
//
// The reset mail carries an email-verification token; nothing is persisted
// until the token is exchanged through [Engine.ExchangeResetToken].
//
//	Docs: docs/engine.md
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if err := e.ready(); err != nil {
		return err
	}

	if e.limiter != nil {
		if err := e.limiter.CheckResetRequest(ctx, email); err != nil {
			e.metricInc(MetricResetRequestRateLimited)
			e.emitAudit(ctx, auditEventResetRequest, false, "", email, ErrPasswordResetRateLimited, nil)
			e.emitRateLimit(ctx, "password_reset", email, nil)
			return ErrPasswordResetRateLimited
		}
	}

	identity, err := e.findByEmail(ctx, email)
	if err != nil {
		e.emitAudit(ctx, auditEventResetRequest, false, "", email, err, nil)
		return err
	}

	token, err := e.tokens.Issue(jwt.ScopeEmailVerification, identity.Email, e.config.Token.EmailTokenTTL)
	if err != nil {
		e.emitAudit(ctx, auditEventResetRequest, false, identity.ID, identity.Email, err, nil)
		return err
	}
	e.mail.sendPasswordReset(ctx, identity.Email, identity.Username, token)

	e.metricInc(MetricResetRequest)
	e.emitAudit(ctx, auditEventResetRequest, true, identity.ID, identity.Email, nil, nil)
	return nil
}

// ExchangeResetToken trades the emailed verification token for a
// short-lived reset_password token. Bad and stale tokens fail
// [ErrResetInvalid].
//
// The minted reset token becomes the identity's single active reset token
// and is also returned in-band. Deployments that want reset tokens delivered
// exclusively through the emailed link must not expose the return value to
// the requesting client.
//
//	Docs: docs/engine.md
func (e *Engine) ExchangeResetToken(ctx context.Context, emailToken string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}

	email, err := e.tokens.Parse(emailToken, jwt.ScopeEmailVerification)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrResetInvalid, err)
		e.emitAudit(ctx, auditEventResetExchange, false, "", "", wrapped, func() map[string]string {
			return map[string]string{
				"reason": "decode_failed",
			}
		})
		return "", wrapped
	}

	identity, err := e.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.emitAudit(ctx, auditEventResetExchange, false, "", email, ErrResetInvalid, func() map[string]string {
				return map[string]string{
					"reason": "identity_not_found",
				}
			})
			return "", ErrResetInvalid
		}
		e.emitAudit(ctx, auditEventResetExchange, false, "", email, err, func() map[string]string {
			return map[string]string{
				"reason": "store_lookup_failed",
			}
		})
		return "", err
	}

	resetToken, err := e.tokens.Issue(jwt.ScopeResetPassword, identity.Email, e.config.Token.ResetTTL)
	if err != nil {
		e.emitAudit(ctx, auditEventResetExchange, false, identity.ID, identity.Email, err, nil)
		return "", err
	}

	identity.PasswordResetToken = &resetToken
	if err := e.store.Save(ctx, identity); err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		e.emitAudit(ctx, auditEventResetExchange, false, identity.ID, identity.Email, wrapped, func() map[string]string {
			return map[string]string{
				"reason": "store_save_failed",
			}
		})
		return "", wrapped
	}

	e.metricInc(MetricResetExchange)
	e.emitAudit(ctx, auditEventResetExchange, true, identity.ID, identity.Email, nil, nil)
	return resetToken, nil
}

// SetNewPassword replaces the password against a valid reset token. The
// two password arguments must match ([ErrPasswordMismatch]) and satisfy
// the policy; the token must be the identity's current stored one.
//
// Success consumes the stored reset token, so repeating the same request
// fails with [ErrResetInvalid]. It also clears the login throttle so the
// owner is not locked out by the attacker's failed attempts.
//
//	Docs: docs/engine.md
func (e *Engine) SetNewPassword(ctx context.Context, resetToken, newPassword, confirmPassword string) error {
	if err := e.ready(); err != nil {
		return err
	}

	if newPassword != confirmPassword {
		e.metricInc(MetricPasswordSetFailure)
		e.emitAudit(ctx, auditEventPasswordSetFailure, false, "", "", ErrPasswordMismatch, func() map[string]string {
			return map[string]string{
				"reason": "password_mismatch",
			}
		})
		return ErrPasswordMismatch
	}
	if err := e.checkPasswordPolicy(newPassword); err != nil {
		e.metricInc(MetricPasswordSetFailure)
		e.emitAudit(ctx, auditEventPasswordSetFailure, false, "", "", err, func() map[string]string {
			return map[string]string{
				"reason": "password_policy",
			}
		})
		return err
	}

	email, err := e.tokens.Parse(resetToken, jwt.ScopeResetPassword)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrResetInvalid, err)
		e.metricInc(MetricPasswordSetFailure)
		e.emitAudit(ctx, auditEventPasswordSetFailure, false, "", "", wrapped, func() map[string]string {
			return map[string]string{
				"reason": "decode_failed",
			}
		})
		return wrapped
	}

	identity, err := e.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.metricInc(MetricPasswordSetFailure)
			e.emitAudit(ctx, auditEventPasswordSetFailure, false, "", email, ErrResetInvalid, func() map[string]string {
				return map[string]string{
					"reason": "identity_not_found",
				}
			})
			return ErrResetInvalid
		}
		e.metricInc(MetricPasswordSetFailure)
		e.emitAudit(ctx, auditEventPasswordSetFailure, false, "", email, err, func() map[string]string {
			return map[string]string{
				"reason": "store_lookup_failed",
			}
		})
		return err
	}

	if identity.PasswordResetToken == nil || *identity.PasswordResetToken != resetToken {
		e.metricInc(MetricPasswordSetFailure)
		e.emitAudit(ctx, auditEventPasswordSetFailure, false, identity.ID, identity.Email, ErrResetInvalid, func() map[string]string {
			return map[string]string{
				"reason": "token_superseded",
			}
		})
		return ErrResetInvalid
	}

	digest, err := e.hasher.Hash(newPassword)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
		e.metricInc(MetricPasswordSetFailure)
		e.emitAudit(ctx, auditEventPasswordSetFailure, false, identity.ID, identity.Email, wrapped, func() map[string]string {
			return map[string]string{
				"reason": "hash_policy",
			}
		})
		return wrapped
	}
	newPassword = ""
	confirmPassword = ""

	identity.PasswordHash = digest
	identity.PasswordResetToken = nil
	if err := e.store.Save(ctx, identity); err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		e.metricInc(MetricPasswordSetFailure)
		e.emitAudit(ctx, auditEventPasswordSetFailure, false, identity.ID, identity.Email, wrapped, func() map[string]string {
			return map[string]string{
				"reason": "store_save_failed",
			}
		})
		return wrapped
	}

	if e.limiter != nil {
		if err := e.limiter.ResetLogin(ctx, identity.Email, clientIPFromContext(ctx)); err != nil {
			log.Print("authkit: login throttle reset failed: ", err)
		}
	}

	e.metricInc(MetricPasswordSetSuccess)
	e.emitAudit(ctx, auditEventPasswordSetSuccess, true, identity.ID, identity.Email, nil, nil)
	return nil
}
