// Package migrations embeds the SQL schema migrations.
package migrations

import "embed"

// FS holds the versioned *.sql files in golang-migrate naming.
//
//go:embed *.sql
var FS embed.FS
