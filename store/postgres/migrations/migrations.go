// Package migrations contains the embedded goose SQL migrations for the
// PostgreSQL credential store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
