// Package migrations holds the versioned SQLite schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
