// Package postgres provides the durable [authkit.CredentialStore] on
// PostgreSQL, driven through database/sql with the pgx stdlib driver.
//
// # Schema
//
// One table, identities, owned by the embedded goose migrations in the
// migrations subpackage. [Store.RunMigrations] applies them in order and is
// safe to call on every startup.
//
// # Error mapping
//
// Misses (sql.ErrNoRows, zero rows updated) return errors wrapping
// [authkit.ErrIdentityNotFound]; unique violations on the email column
// return errors wrapping [authkit.ErrEmailTaken]. Everything else comes
// back as a plain wrapped driver error — the engine folds those into
// [authkit.ErrStoreUnavailable].
package postgres
