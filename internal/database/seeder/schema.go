package seeder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"skillmatch/internal/database"
)

var ErrSchemaMismatch = errors.New("schema mismatch")

// EnsureTableColumns fails with ErrSchemaMismatch when table lacks any of
// columns, so a seeder never runs against an unmigrated schema.
func EnsureTableColumns(ctx context.Context, db database.DB, table string, columns ...string) error {
	missing, err := MissingColumns(ctx, db, table, columns...)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		qualified := make([]string, len(missing))
		for i, c := range missing {
			qualified[i] = table + "." + c
		}
		return fmt.Errorf("%w: missing %s", ErrSchemaMismatch, strings.Join(qualified, ", "))
	}
	return nil
}

// MissingColumns returns the entries of columns that table does not have, in
// the order given.
func MissingColumns(ctx context.Context, db database.DB, table string, columns ...string) ([]string, error) {
	if db == nil {
		return nil, database.ErrNilDB
	}
	if strings.TrimSpace(table) == "" {
		return nil, errors.New("empty table name")
	}

	query := `SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1`
	if db.Dialect() == database.DialectSQLite {
		query = `SELECT name FROM pragma_table_info($1)`
	}

	rows, err := db.Query(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	have := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		have[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []string
	for _, c := range columns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	return missing, nil
}
