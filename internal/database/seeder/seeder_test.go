package seeder

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillmatch/internal/database"
	"skillmatch/internal/database/migration"
	"skillmatch/internal/database/sqlite"
	"skillmatch/internal/domain/matching"
	"skillmatch/migrations"
)

func migratedDB(t *testing.T) database.DB {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	src, err := migrations.For(database.DialectSQLite)
	require.NoError(t, err)
	_, err = migration.Runner{FS: src, Dialect: database.DialectSQLite}.Run(ctx, db.SQLDB())
	require.NoError(t, err)
	return db
}

func TestSkillsSeeder_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := migratedDB(t)

	vocab := matching.NewVocabulary([]string{"go", "rust", "machine learning"})
	r := Runner{Seeders: Defaults(vocab)}

	added, err := r.Run(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	added, err = r.Run(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, added)

	var n int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM skills`).Scan(&n))
	assert.Equal(t, 3, n)
}

func TestEnsureTableColumns(t *testing.T) {
	ctx := context.Background()
	db := migratedDB(t)

	assert.NoError(t, EnsureTableColumns(ctx, db, "matches", "id", "status", "jd_skills"))

	err := EnsureTableColumns(ctx, db, "skills", "category", "name", "weight")
	require.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "skills.category, skills.weight")

	missing, err := MissingColumns(ctx, db, "no_such_table", "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, missing)

	_, err = MissingColumns(ctx, nil, "skills")
	assert.ErrorIs(t, err, database.ErrNilDB)
}
