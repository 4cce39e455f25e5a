package migrations

import "embed"

// FS contains embedded SQLite migrations for word statistics.
//
//go:embed *.sql
var FS embed.FS
