// Package internal contains helper packages that are intentionally private to authkit.
//
// # Sub-packages
//
//   - audit — async event dispatch (Dispatcher + Sink implementations)
//   - metrics — padded in-process counters and latency histograms
//   - rate — Redis-backed fixed-window limiters for login and reset requests
//
// # What this package must NOT do
//
//   - Export types that appear in the public authkit API.
//   - Be imported by any package outside the authkit module.
package internal
