package authkit

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Unfeir/authkit/jwt"
)

// Refresh rotates a valid refresh token into a new access+refresh pair.
//
// Only the most recently persisted refresh token is accepted. Presenting a
// superseded token clears the stored token outright, so the holder of the
// newer token is logged out as well and must log in again.
//
// Two concurrent Refresh calls with the same valid token can both pass the
// stored-token comparison; the later Save wins and the loser's client fails
// its next refresh. The engine does not serialize rotation per identity.
//
//	Docs: docs/engine.md
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	email, err := e.tokens.Parse(refreshToken, jwt.ScopeRefresh)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrRefreshInvalid, err)
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", "", wrapped, func() map[string]string {
			return map[string]string{
				"reason": "decode_failed",
			}
		})
		return nil, wrapped
	}

	identity, err := e.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, "", email, ErrRefreshInvalid, func() map[string]string {
				return map[string]string{
					"reason": "identity_not_found",
				}
			})
			return nil, ErrRefreshInvalid
		}
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", email, err, func() map[string]string {
			return map[string]string{
				"reason": "store_lookup_failed",
			}
		})
		return nil, err
	}

	if identity.RefreshToken == nil || *identity.RefreshToken != refreshToken {
		// Replay of a superseded token. Revoke the active token so the
		// session cannot continue on either side.
		if identity.RefreshToken != nil {
			identity.RefreshToken = nil
			if err := e.store.Save(ctx, identity); err != nil {
				log.Print("authkit: refresh revocation save failed: ", err)
			}
		}
		e.metricInc(MetricRefreshReplayDetected)
		e.emitAudit(ctx, auditEventRefreshReuseDetected, false, identity.ID, identity.Email, ErrRefreshReuse, nil)
		return nil, ErrRefreshReuse
	}

	pair, err := e.issuePair(identity.Email)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, identity.ID, identity.Email, err, func() map[string]string {
			return map[string]string{
				"reason": "issue_pair_failed",
			}
		})
		return nil, err
	}

	// Rotation: the new token supersedes the presented one from here on.
	identity.RefreshToken = &pair.RefreshToken
	if err := e.store.Save(ctx, identity); err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, identity.ID, identity.Email, wrapped, func() map[string]string {
			return map[string]string{
				"reason": "store_save_failed",
			}
		})
		return nil, wrapped
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, identity.ID, identity.Email, nil, nil)
	return pair, nil
}
