package authkit

import (
	"context"
	"time"

	"github.com/Unfeir/authkit/jwt"
)

// Authorize returns the identity id for a valid access token. Every failure,
// including an unreachable credential store, surfaces as the one generic
// [ErrCredentialsInvalid]; the audit trail keeps the underlying cause.
//
// This is the hot path: with the cache warm it costs one token verification
// and one Redis GET, no store round trip.
//
//	Docs: docs/engine.md
func (e *Engine) Authorize(ctx context.Context, accessToken string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}

	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricAuthorizeLatency, time.Since(start))
		}()
	}

	email, err := e.tokens.Parse(accessToken, jwt.ScopeAccess)
	if err != nil {
		return "", e.authorizeFailure(ctx, "", err)
	}

	id, err := e.resolveIdentityID(ctx, email)
	if err != nil {
		return "", e.authorizeFailure(ctx, email, err)
	}

	e.metricInc(MetricAuthorizeSuccess)
	return id, nil
}

// authorizeFailure funnels every authorize failure into one generic verdict
// so callers cannot distinguish which check rejected the token.
func (e *Engine) authorizeFailure(ctx context.Context, email string, cause error) error {
	e.metricInc(MetricAuthorizeFailure)
	e.emitAudit(ctx, auditEventAuthorizeFailure, false, "", email, cause, nil)
	return ErrCredentialsInvalid
}
