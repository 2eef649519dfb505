// Package memory provides an in-memory [authkit.CredentialStore].
//
// # Storage model
//
// Identities live in a mutex-guarded map keyed by id, with a secondary
// email index. Every read and write works on a deep copy, so callers can
// mutate returned identities without racing the store, and a later Save is
// the only way to publish a change.
//
// # When to use it
//
// Tests, examples, and single-node tools. Nothing survives process exit;
// anything durable belongs on the store/postgres implementation.
package memory
