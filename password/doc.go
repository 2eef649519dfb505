// Package password implements password hashing and verification with Argon2id defaults.
//
// # Output format
//
// Digests are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<iterations>,p=<threads>$<salt>$<key>
//
// The [Hasher] supports transparent parameter upgrades: if the stored digest was
// produced with weaker parameters, [Hasher.NeedsRehash] returns true so the caller
// can re-hash on the next successful login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (minimum
// length, reuse history) is enforced by the Engine; the only input rule applied
// here is the [Config.MaxPasswordBytes] cap, which bounds key-derivation cost.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive digests.
//   - Import any other authkit package.
//   - Log plaintext passwords or digest parameters at runtime.
package password
