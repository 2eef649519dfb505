package authkit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Unfeir/authkit/jwt"
)

// SignUp registers a new identity. Duplicates return [ErrEmailTaken],
// whether caught by the pre-check or by the store on a concurrent insert.
//
// The created identity starts unconfirmed; a confirmation mail carrying an
// email-verification token is dispatched off the request path, and a mail
// failure never fails the signup itself.
//
//	Docs: docs/engine.md
func (e *Engine) SignUp(ctx context.Context, input SignUpInput) (*Identity, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	if err := validateEmail(input.Email); err != nil {
		e.metricInc(MetricSignUpFailure)
		e.emitAudit(ctx, auditEventSignUpFailure, false, "", input.Email, err, func() map[string]string {
			return map[string]string{
				"reason": "invalid_email",
			}
		})
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	if username == "" || len(username) > maxUsernameLength {
		e.metricInc(MetricSignUpFailure)
		e.emitAudit(ctx, auditEventSignUpFailure, false, "", input.Email, ErrInvalidUsername, func() map[string]string {
			return map[string]string{
				"reason": "invalid_username",
			}
		})
		return nil, ErrInvalidUsername
	}

	if err := e.checkPasswordPolicy(input.Password); err != nil {
		e.metricInc(MetricSignUpFailure)
		e.emitAudit(ctx, auditEventSignUpFailure, false, "", input.Email, err, func() map[string]string {
			return map[string]string{
				"reason": "password_policy",
			}
		})
		return nil, err
	}

	if _, err := e.findByEmail(ctx, input.Email); err == nil {
		e.metricInc(MetricSignUpDuplicate)
		e.emitAudit(ctx, auditEventSignUpDuplicate, false, "", input.Email, ErrEmailTaken, nil)
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrIdentityNotFound) {
		e.metricInc(MetricSignUpFailure)
		e.emitAudit(ctx, auditEventSignUpFailure, false, "", input.Email, err, func() map[string]string {
			return map[string]string{
				"reason": "store_lookup_failed",
			}
		})
		return nil, err
	}

	digest, err := e.hasher.Hash(input.Password)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
		e.metricInc(MetricSignUpFailure)
		e.emitAudit(ctx, auditEventSignUpFailure, false, "", input.Email, wrapped, func() map[string]string {
			return map[string]string{
				"reason": "hash_policy",
			}
		})
		return nil, wrapped
	}

	identity, err := e.store.Create(ctx, &Identity{
		Email:        input.Email,
		Username:     username,
		PasswordHash: digest,
	})
	if err != nil {
		// A concurrent signup can win the insert between the duplicate
		// pre-check above and this Create.
		if errors.Is(err, ErrEmailTaken) {
			e.metricInc(MetricSignUpDuplicate)
			e.emitAudit(ctx, auditEventSignUpDuplicate, false, "", input.Email, err, nil)
			return nil, err
		}
		wrapped := fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		e.metricInc(MetricSignUpFailure)
		e.emitAudit(ctx, auditEventSignUpFailure, false, "", input.Email, wrapped, func() map[string]string {
			return map[string]string{
				"reason": "store_create_failed",
			}
		})
		return nil, wrapped
	}
	input.Password = ""

	token, err := e.tokens.Issue(jwt.ScopeEmailVerification, identity.Email, e.config.Token.EmailTokenTTL)
	if err != nil {
		// The identity exists either way; the caller can request a fresh
		// confirmation mail through ResendConfirmation.
		log.Print("authkit: confirmation token issue failed: ", err)
	} else {
		e.mail.sendConfirmation(ctx, identity.Email, identity.Username, token)
	}

	e.metricInc(MetricSignUpSuccess)
	e.emitAudit(ctx, auditEventSignUpSuccess, true, identity.ID, identity.Email, nil, func() map[string]string {
		return map[string]string{
			"username": identity.Username,
		}
	})
	return identity, nil
}
