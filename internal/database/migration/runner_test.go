package migration

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillmatch/internal/database"
	"skillmatch/internal/database/sqlite"
	"skillmatch/migrations"
)

func openSQLite(t *testing.T) database.DB {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunner_AppliesEmbeddedSQLiteSchema(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	src, err := migrations.For(database.DialectSQLite)
	require.NoError(t, err)

	r := Runner{FS: src, Dialect: database.DialectSQLite}
	pending, err := r.Pending(ctx, db.SQLDB())
	require.NoError(t, err)
	assert.Len(t, pending, 4)

	applied, err := r.Run(ctx, db.SQLDB())
	require.NoError(t, err)
	require.Len(t, applied, 4)
	assert.Equal(t, "create_users", applied[0].Name)

	// second run is a no-op
	applied, err = r.Run(ctx, db.SQLDB())
	require.NoError(t, err)
	assert.Empty(t, applied)

	var n int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 4, n)

	for _, table := range []string{"users", "skills", "matches", "feedback"} {
		var name string
		err := db.QueryRow(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=$1`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestRunner_ChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	first := fstest.MapFS{"V1__init.sql": {Data: []byte("CREATE TABLE a (id INTEGER);")}}
	_, err := Runner{FS: first, Dialect: database.DialectSQLite}.Run(ctx, db.SQLDB())
	require.NoError(t, err)

	edited := fstest.MapFS{"V1__init.sql": {Data: []byte("CREATE TABLE a (id INTEGER, name TEXT);")}}
	_, err = Runner{FS: edited, Dialect: database.DialectSQLite}.Run(ctx, db.SQLDB())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestRunner_StopsAtFailingMigration(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	src := fstest.MapFS{
		"V1__ok.sql":     {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"V2__broken.sql": {Data: []byte("CREATE TABLE a (id INTEGER);")},
	}
	applied, err := Runner{FS: src, Dialect: database.DialectSQLite}.Run(ctx, db.SQLDB())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "V2__broken.sql")
	require.Len(t, applied, 1)
	assert.Equal(t, int64(1), applied[0].Version)

	var n int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestLoadMigrations(t *testing.T) {
	t.Run("ordered and filtered", func(t *testing.T) {
		migs, err := loadMigrations(fstest.MapFS{
			"V10__later.sql": {Data: []byte("SELECT 10;")},
			"V2__early.sql":  {Data: []byte("SELECT 2;")},
			"README.md":      {Data: []byte("docs")},
		})
		require.NoError(t, err)
		require.Len(t, migs, 2)
		assert.Equal(t, int64(2), migs[0].Version)
		assert.Equal(t, "early", migs[0].Name)
		assert.Equal(t, int64(10), migs[1].Version)
	})

	t.Run("duplicate version", func(t *testing.T) {
		_, err := loadMigrations(fstest.MapFS{
			"V1__a.sql": {Data: []byte("SELECT 1;")},
			"V1__b.sql": {Data: []byte("SELECT 1;")},
		})
		assert.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := loadMigrations(fstest.MapFS{"V1__a.sql": {Data: []byte("  \n")}})
		assert.Error(t, err)
	})

	t.Run("nil source", func(t *testing.T) {
		migs, err := loadMigrations(nil)
		require.NoError(t, err)
		assert.Empty(t, migs)
	})
}
