package sqlite

import (
	"context"
	"testing"

	"catalogetl/internal/storage"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	dsn, err := Dialect{}.DSN(storage.Config{Database: "/tmp/catalog.db"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/catalog.db", dsn)

	dsn, err = Dialect{}.DSN(storage.Config{DSN: "file:x.db?mode=rwc", Database: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "file:x.db?mode=rwc", dsn)

	_, err = Dialect{}.DSN(storage.Config{})
	assert.Error(t, err)
}

func TestUpsert(t *testing.T) {
	st := Dialect{}.Upsert("games", []string{"app_id", "name"}, "app_id", []string{"name"})
	assert.Equal(t, `INSERT INTO "games" ("app_id", "name") VALUES (?, ?) ON CONFLICT ("app_id") DO UPDATE SET "name" = EXCLUDED."name"`, st.SQL)
}

func TestOpen_EnforcesForeignKeysAndClassifiesDuplicates(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.Config{Kind: "sqlite", Database: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	var fk int
	require.NoError(t, db.GetContext(ctx, &fk, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, fk)

	_, err = db.ExecContext(ctx, `CREATE TABLE p (id INTEGER PRIMARY KEY, name TEXT UNIQUE)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `CREATE TABLE c (pid INTEGER REFERENCES p (id))`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO p (id, name) VALUES (1, 'a')`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO p (id, name) VALUES (2, 'a')`)
	require.Error(t, err)
	assert.True(t, db.Dialect.IsDuplicate(err), "unique: %v", err)

	_, err = db.ExecContext(ctx, `INSERT INTO p (id, name) VALUES (1, 'b')`)
	require.Error(t, err)
	assert.True(t, db.Dialect.IsDuplicate(errors.Wrap(err, "insert")), "primary key: %v", err)

	_, err = db.ExecContext(ctx, `INSERT INTO c (pid) VALUES (99)`)
	require.Error(t, err, "foreign keys are enforced")
	assert.False(t, db.Dialect.IsDuplicate(err))
}
