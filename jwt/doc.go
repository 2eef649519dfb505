// Package jwt manages issuance and verification of the scoped, signed,
// time-bounded tokens the engine hands out for every flow.
//
// # Scopes
//
// Every token carries exactly one [Scope] claim (access, refresh,
// reset_password, email_verification). [Manager.Parse] requires callers to
// name the scope they expect; there is no unscoped decode path for
// authorization decisions.
//
// # Failure surface
//
// Parse failures collapse into four sentinel kinds callers pattern-match on
// with errors.Is: [ErrTokenMalformed], [ErrBadSignature], [ErrTokenExpired],
// and [ErrScopeMismatch].
//
// # Architecture boundaries
//
// This package owns the wire format (JWS compact serialization, symmetric
// HMAC family) and nothing else. Token persistence and the single-active
// policy for refresh/reset tokens belong to the Engine and its credential
// store.
package jwt
