// Package migrations embeds the SQL schema for the Postgres record store.
package migrations

import "embed"

// FS contains all .sql files in this directory, applied in name order
//
//go:embed *.sql
var FS embed.FS
