package schema_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"catalogetl/internal/schema"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestSplitStatements(t *testing.T) {
	script := `-- header comment
CREATE TABLE a (id INT);

-- only a comment;
CREATE TABLE b (
    id INT -- trailing comments stay
);
   ;
`
	got := schema.SplitStatements(script)
	require.Len(t, got, 2)
	assert.Equal(t, "CREATE TABLE a (id INT)", got[0])
	assert.Contains(t, got[1], "CREATE TABLE b")
}

func TestScript_EmbeddedForEveryKind(t *testing.T) {
	for _, kind := range []string{"mysql", "postgres", "sqlite", "mssql"} {
		s, err := schema.Script(kind)
		require.NoError(t, err, kind)
		stmts := schema.SplitStatements(s)
		assert.GreaterOrEqual(t, len(stmts), 7, kind)
		for _, table := range []string{"games", "categories", "genres", "tags", "game_categories", "game_genres", "game_tags"} {
			assert.Contains(t, s, table, kind)
		}
	}
	_, err := schema.Script("oracle")
	assert.Error(t, err)
}

func TestReadScript(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "custom.sql")
	require.NoError(t, os.WriteFile(p, []byte("CREATE TABLE x (id INT);"), 0o644))

	s, err := schema.ReadScript("sqlite", p)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE x (id INT);", s)

	_, err = schema.ReadScript("sqlite", filepath.Join(dir, "missing.sql"))
	assert.Error(t, err)

	s, err = schema.ReadScript("sqlite", "")
	require.NoError(t, err)
	assert.Contains(t, s, "CREATE TABLE IF NOT EXISTS games")
}

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestApply_SQLiteIsRerunnable(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	script, err := schema.Script("sqlite")
	require.NoError(t, err)

	rep, err := schema.Apply(ctx, db, script)
	require.NoError(t, err)
	assert.Empty(t, rep.Warnings)
	assert.Equal(t, rep.Statements, rep.Executed)

	rep, err = schema.Apply(ctx, db, script)
	require.NoError(t, err)
	assert.Empty(t, rep.Warnings)

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name LIKE 'game%'"))
	assert.Equal(t, 4, n)
}

func TestApply_FailingStatementIsWarning(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	rep, err := schema.Apply(ctx, db, "CREATE TABLE t (id INT);\nCREATE TABLE t (id INT);\nCREATE TABLE u (id INT);")
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Statements)
	assert.Equal(t, 2, rep.Executed)
	require.Len(t, rep.Warnings, 1)
	assert.Equal(t, 1, rep.Warnings[0].Index)
	assert.Contains(t, rep.Warnings[0].Err, "already exists")
}

func TestApply_SQLiteConstraints(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	script, err := schema.Script("sqlite")
	require.NoError(t, err)
	_, err = schema.Apply(ctx, db, script)
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO games (app_id, name) VALUES (0, 'zero')")
	assert.Error(t, err, "app_id must be positive")
	_, err = db.Exec("INSERT INTO games (app_id, name) VALUES (1, NULL)")
	assert.Error(t, err, "name is required")
	_, err = db.Exec("INSERT INTO games (app_id, name) VALUES (1, 'ok')")
	assert.NoError(t, err)
}
