package authkit

import "errors"

// Sentinel errors returned by [Engine] operations. Flows may wrap these
// with cause context; classify with [errors.Is] or [KindOf], never by
// message text.
var (
	ErrEngineNotReady    = errors.New("engine not initialized")
	ErrEmailTaken        = errors.New("email already in use")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrInvalidUsername   = errors.New("invalid username")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	ErrIdentityNotFound  = errors.New("identity not found")

	// ErrRefreshInvalid covers malformed, expired, or wrong-scope refresh
	// tokens. ErrRefreshReuse means the token was valid but no longer the
	// stored one; the engine revokes the active session when it sees this.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	ErrRefreshReuse   = errors.New("refresh token reuse detected")

	ErrVerificationInvalid = errors.New("invalid verification token")
	ErrResetInvalid        = errors.New("invalid reset token")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrPasswordPolicy      = errors.New("password policy violation")

	// ErrCredentialsInvalid is the only failure [Engine.Authorize] returns;
	// the underlying cause goes to the audit trail, not the caller.
	ErrCredentialsInvalid = errors.New("could not validate credentials")

	ErrLoginRateLimited         = errors.New("login rate limited")
	ErrPasswordResetRateLimited = errors.New("password reset rate limited")
	ErrStoreUnavailable         = errors.New("credential store unavailable")
)

// ErrorKind classifies engine errors into transport-agnostic categories so
// HTTP or RPC layers can map them to status codes without matching every
// sentinel individually.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindInvalidInput
	KindUnauthorized
	KindConflict
	KindNotFound
	KindRateLimited
	KindUnavailable
)

// KindOf maps err to its [ErrorKind] via [errors.Is], so wrapped sentinels
// classify the same as bare ones. Unrecognized errors map to [KindUnknown].
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrInvalidUsername),
		errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrPasswordPolicy),
		errors.Is(err, ErrVerificationInvalid),
		errors.Is(err, ErrResetInvalid):
		return KindInvalidInput
	case errors.Is(err, ErrCredentialsInvalid),
		errors.Is(err, ErrEmailNotConfirmed),
		errors.Is(err, ErrRefreshInvalid),
		errors.Is(err, ErrRefreshReuse):
		return KindUnauthorized
	case errors.Is(err, ErrEmailTaken):
		return KindConflict
	case errors.Is(err, ErrIdentityNotFound):
		return KindNotFound
	case errors.Is(err, ErrLoginRateLimited),
		errors.Is(err, ErrPasswordResetRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrEngineNotReady):
		return KindUnavailable
	default:
		return KindUnknown
	}
}

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}
