// Package migrations embeds the journal schema so the publisher binary can
// migrate its database without the SQL files on disk.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files at its root, ready for
// database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
