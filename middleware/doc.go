// Package middleware exposes net/http adapters for bearer-token enforcement
// built on top of authkit.Engine authorization.
//
// # Guards
//
//   - [RequireAuth] — reads the Authorization header, calls Engine.Authorize,
//     and injects the identity ID into the request context.
//   - [WithRequestMetadata] — stamps client IP and user agent into the
//     context so audit events carry request attribution.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT implement
// authentication logic itself — all decisions are delegated to Engine.Authorize.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from Engine.Authorize.
package middleware
