// Package authkit provides an email+password authentication engine with JWT
// access tokens, rotating refresh tokens, signed confirmation and
// password-reset mail tokens, and Redis-backed throttles and identity
// caching.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authkit is the public surface. It exposes [Engine], [Builder], [Config],
// the [CredentialStore], [Mailer], and [AuditSink] integration points, and
// value types (Identity, TokenPair, MetricsSnapshot, SecurityReport). All
// internal coordination — audit dispatch, mail dispatch, rate limiting, the
// metric registry — lives under internal/ and is never exported. Token
// signing sits in jwt, hashing in password, the identity cache in
// sessioncache; ready-made credential stores live under store/.
//
// # What this package must NOT do
//
//   - Expose Redis clients, dispatchers, or encoding details in its public API.
//   - Perform I/O during construction (Build is allocation and validation
//     only; nothing touches the network until an Engine method runs).
//   - Import store/ or middleware/ — those import authkit, and the core
//     depends only on jwt, password, sessioncache, and internal packages.
//
// # Performance contract
//
// Authorize is the hot path: one token parse plus at most one Redis GET, and
// a cache hit never touches the credential store. Login, Refresh, and the
// mail-token flows are allowed one credential-store lookup plus one Save per
// call; Login's dominant cost is the argon2 verification.
package authkit
