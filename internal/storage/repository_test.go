package storage_test

import (
	"testing"

	"catalogetl/internal/storage"
	_ "catalogetl/internal/storage/all"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BuiltinKinds(t *testing.T) {
	kinds := storage.ListKinds()
	for _, k := range []string{"mssql", "mysql", "postgres", "sqlite"} {
		assert.Contains(t, kinds, k)
		d, err := storage.Lookup(k)
		require.NoError(t, err)
		assert.Equal(t, k, d.Kind())
	}
	assert.IsIncreasing(t, kinds)
}

func TestRegistry_UnknownKind(t *testing.T) {
	_, err := storage.Lookup("oracle")
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrUnknownKind))
	assert.Contains(t, err.Error(), "storage.kind=oracle")
}

func TestListKinds_ReturnsCopy(t *testing.T) {
	a := storage.ListKinds()
	a[0] = "mutated"
	assert.NotEqual(t, "mutated", storage.ListKinds()[0])
}

func TestStmt_Bind(t *testing.T) {
	vals := []any{1, "x"}
	assert.Equal(t, vals, storage.Stmt{SQL: "q"}.Bind(vals))

	st := storage.Stmt{SQL: "q", Args: func(v []any) []any { return append(v, v[0]) }}
	assert.Equal(t, []any{1, "x", 1}, st.Bind([]any{1, "x"}))
}

func TestOnConflictUpdate(t *testing.T) {
	q := func(s string) string { return `"` + s + `"` }
	assert.Equal(t, ` ON CONFLICT ("id") DO UPDATE SET "a" = EXCLUDED."a", "b" = EXCLUDED."b"`,
		storage.OnConflictUpdate(q, "id", []string{"a", "b"}))
	assert.Equal(t, ` ON CONFLICT ("id") DO NOTHING`, storage.OnConflictUpdate(q, "id", nil))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "inserted", storage.OutcomeInserted.String())
	assert.Equal(t, "already_present", storage.OutcomeAlreadyPresent.String())
	assert.Equal(t, "failed", storage.OutcomeFailed.String())
	assert.Equal(t, "outcome(9)", storage.Outcome(9).String())
}
