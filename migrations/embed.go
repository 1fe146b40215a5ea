// Package migrations embeds the SQL schema migrations for the transcript
// database.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files applied by golang-migrate.
//
//go:embed *.sql
var FS embed.FS
