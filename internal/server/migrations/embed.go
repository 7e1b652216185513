// Package migrations embeds the goose SQL migrations for the server store.
// The SQL is kept portable so the same files run on both the postgres and
// sqlite3 dialects.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
