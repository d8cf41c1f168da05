package storage_test

import (
	"context"
	"strings"
	"testing"

	"catalogetl/internal/parser/csv"
	"catalogetl/internal/schema"
	"catalogetl/internal/storage"
	_ "catalogetl/internal/storage/sqlite"

	"github.com/stretchr/testify/require"
)

// openCatalog returns an in-memory sqlite database with the catalog schema.
func openCatalog(t *testing.T) *storage.DB {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.Config{Kind: "sqlite", Database: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	script, err := schema.Script("sqlite")
	require.NoError(t, err)
	rep, err := schema.Apply(ctx, db, script)
	require.NoError(t, err)
	require.Empty(t, rep.Warnings)
	return db
}

// records parses CSV text; the first line is the header.
func records(t *testing.T, lines ...string) []csv.Record {
	t.Helper()
	tbl, err := csv.NewParser(csv.Options{}).Parse(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.Zero(t, tbl.Skipped)
	return tbl.Records
}
