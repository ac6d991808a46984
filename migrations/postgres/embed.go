// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contains the PostgreSQL migrations for sesamo.
//
//go:embed *.sql
var FS embed.FS
