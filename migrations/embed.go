// Package migrations embeds the reconcile journal schema.
package migrations

import "embed"

// FS holds the numbered *.up.sql / *.down.sql files applied by golang-migrate.
//
//go:embed *.sql
var FS embed.FS
