// Package migrations embeds the SQL schema for the audit ledger so
// golang-migrate can run them without touching the filesystem at runtime.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
