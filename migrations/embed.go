// Package migrations embeds the SQL migration files into the binary so
// hearthctl can create its history schema without shipping loose files.
package migrations

import (
	"embed"

	"github.com/hearthlabs/hearthctl/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
