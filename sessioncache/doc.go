// Package sessioncache provides a Redis-backed identity cache for the
// authorization hot path.
//
// # Expiry model
//
// Entries map email to identity id and carry a fixed TTL measured from
// insertion. Reads never slide the window: a continuously hot entry still
// expires on schedule, forcing one credential-store round trip per window.
// This bounds staleness without any invalidation protocol.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) only. It does NOT decide
// what happens on a miss or an outage — the Engine composes Lookup and Save
// around its credential store and treats an unavailable cache as a miss.
//
// # What this package must NOT do
//
//   - Import authkit or jwt (no upward imports).
//   - Query the credential store or any other fallback source.
//   - Cache anything beyond the identity id (no credential material).
package sessioncache
