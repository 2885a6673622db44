// Package migrations embeds the SQL schema applied when the ledger uses Postgres.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files.
//
//go:embed *.sql
var FS embed.FS
