// Package migrations embeds the SQL schema for the sqlite storage backend.
//
// Only nodes configured with storage.backend=sqlite import it; the default
// file-per-record backend needs no schema.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
