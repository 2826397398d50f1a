package sqlitemigrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countRows(t *testing.T, db *sql.DB, query string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query).Scan(&n))
	return n
}

func TestApply_Records_Each_File_Once(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openMemoryDB(t)
	migrations := fstest.MapFS{
		"001_items.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE items;")},
		"README.md":     {Data: []byte("not a migration")},
	}

	// When migrations are applied twice
	req.NoError(Apply(ctx, db, migrations, ""))
	req.NoError(Apply(ctx, db, migrations, ""))

	// Then the file is recorded once and the table exists
	req.Equal(1, countRows(t, db, "SELECT COUNT(*) FROM schema_migrations"))
	req.Equal(0, countRows(t, db, "SELECT COUNT(*) FROM items"))
}

func TestApply_Failed_Migration_Is_Not_Recorded(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openMemoryDB(t)
	bad := fstest.MapFS{
		"001_bad.sql": {Data: []byte("-- +migrate Up\nCREAT TABLE things(id INT);")},
	}

	req.Error(Apply(ctx, db, bad, ""))
	req.Equal(0, countRows(t, db, "SELECT COUNT(*) FROM schema_migrations"))
}

func TestUpSection(t *testing.T) {
	req := require.New(t)
	req.Equal("\nUP;\n", UpSection("-- +migrate Up\nUP;\n-- +migrate Down\nDOWN;"))
	req.Equal("PLAIN;", UpSection("PLAIN;"))
}
