// Package migrations embeds the SQL schema applied by database.RunMigrations.
package migrations

import "embed"

// FS holds the NNN_name.{up,down}.sql files.
//
//go:embed *.sql
var FS embed.FS
