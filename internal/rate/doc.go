// Package rate provides internal primitives used to build Redis-backed rate limit keys,
// errors, and limiter behavior for security-sensitive authentication workflows.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - al:  — login per-email
//   - ali: — login per-IP
//   - apr: — password-reset requests per-email
//
// # What this package must NOT do
//
//   - Implement domain-specific policies (which flows throttle, and when, is Engine logic).
//   - Be imported outside the authkit module.
package rate
