// Package migrations holds the schema for each supported database.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"

	"skillmatch/internal/database"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// For returns the migration files for dialect.
func For(dialect database.Dialect) (fs.FS, error) {
	switch dialect {
	case database.DialectPostgres, database.DialectSQLite:
		return fs.Sub(files, string(dialect))
	default:
		return nil, fmt.Errorf("no migrations for dialect %q", dialect)
	}
}
