package authkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/Unfeir/authkit/jwt"
)

// ConfirmEmail marks the identity named by an email-verification token as
// confirmed. Bad tokens and vanished identities both fail
// [ErrVerificationInvalid].
//
// Confirming an already-confirmed identity is not an error; the result
// reports AlreadyConfirmed and nothing is written.
//
//	Docs: docs/engine.md
func (e *Engine) ConfirmEmail(ctx context.Context, token string) (ConfirmResult, error) {
	if err := e.ready(); err != nil {
		return ConfirmResult{}, err
	}

	email, err := e.tokens.Parse(token, jwt.ScopeEmailVerification)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrVerificationInvalid, err)
		e.metricInc(MetricConfirmEmailFailure)
		e.emitAudit(ctx, auditEventConfirmEmailFailure, false, "", "", wrapped, func() map[string]string {
			return map[string]string{
				"reason": "decode_failed",
			}
		})
		return ConfirmResult{}, wrapped
	}

	identity, err := e.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.metricInc(MetricConfirmEmailFailure)
			e.emitAudit(ctx, auditEventConfirmEmailFailure, false, "", email, ErrVerificationInvalid, func() map[string]string {
				return map[string]string{
					"reason": "identity_not_found",
				}
			})
			return ConfirmResult{}, ErrVerificationInvalid
		}
		e.metricInc(MetricConfirmEmailFailure)
		e.emitAudit(ctx, auditEventConfirmEmailFailure, false, "", email, err, func() map[string]string {
			return map[string]string{
				"reason": "store_lookup_failed",
			}
		})
		return ConfirmResult{}, err
	}

	if identity.EmailConfirmed {
		e.metricInc(MetricConfirmEmailRepeat)
		e.emitAudit(ctx, auditEventConfirmEmailRepeat, true, identity.ID, identity.Email, nil, nil)
		return ConfirmResult{IdentityID: identity.ID, AlreadyConfirmed: true}, nil
	}

	identity.EmailConfirmed = true
	if err := e.store.Save(ctx, identity); err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		e.metricInc(MetricConfirmEmailFailure)
		e.emitAudit(ctx, auditEventConfirmEmailFailure, false, identity.ID, identity.Email, wrapped, func() map[string]string {
			return map[string]string{
				"reason": "store_save_failed",
			}
		})
		return ConfirmResult{}, wrapped
	}

	e.metricInc(MetricConfirmEmailSuccess)
	e.emitAudit(ctx, auditEventConfirmEmailSuccess, true, identity.ID, identity.Email, nil, nil)
	return ConfirmResult{IdentityID: identity.ID}, nil
}

// ResendConfirmation dispatches a fresh confirmation mail for an
// unconfirmed identity. Already-confirmed identities get the idempotent
// AlreadyConfirmed result and no mail; unknown emails fail
// [ErrIdentityNotFound].
//
//	Docs: docs/engine.md
func (e *Engine) ResendConfirmation(ctx context.Context, email string) (ConfirmResult, error) {
	if err := e.ready(); err != nil {
		return ConfirmResult{}, err
	}

	identity, err := e.findByEmail(ctx, email)
	if err != nil {
		e.emitAudit(ctx, auditEventConfirmResend, false, "", email, err, nil)
		return ConfirmResult{}, err
	}

	if identity.EmailConfirmed {
		e.emitAudit(ctx, auditEventConfirmResend, true, identity.ID, identity.Email, nil, func() map[string]string {
			return map[string]string{
				"already_confirmed": "true",
			}
		})
		return ConfirmResult{IdentityID: identity.ID, AlreadyConfirmed: true}, nil
	}

	token, err := e.tokens.Issue(jwt.ScopeEmailVerification, identity.Email, e.config.Token.EmailTokenTTL)
	if err != nil {
		e.emitAudit(ctx, auditEventConfirmResend, false, identity.ID, identity.Email, err, nil)
		return ConfirmResult{}, err
	}
	e.mail.sendConfirmation(ctx, identity.Email, identity.Username, token)

	e.metricInc(MetricResendConfirmation)
	e.emitAudit(ctx, auditEventConfirmResend, true, identity.ID, identity.Email, nil, nil)
	return ConfirmResult{IdentityID: identity.ID}, nil
}
