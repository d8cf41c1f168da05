package mssql

import (
	"testing"

	"catalogetl/internal/storage"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMsIdent(t *testing.T) {
	assert.Equal(t, "[games]", msIdent("games"))
	assert.Equal(t, "[a]]b]", msIdent("a]b"))
}

func TestDSN(t *testing.T) {
	dsn, err := Dialect{}.DSN(storage.Config{Host: "db", User: "sa", Password: "pw", Database: "steam"})
	require.NoError(t, err)
	assert.Equal(t, "sqlserver://sa:pw@db:1433?database=steam", dsn)
}

func TestUpsert(t *testing.T) {
	st := Dialect{}.Upsert("games", []string{"app_id", "name"}, "app_id", []string{"name"})
	assert.Equal(t,
		"MERGE INTO [games] WITH (HOLDLOCK) AS t USING (VALUES (@p1, @p2)) AS s ([app_id], [name]) ON t.[app_id] = s.[app_id]"+
			" WHEN MATCHED THEN UPDATE SET t.[name] = s.[name]"+
			" WHEN NOT MATCHED THEN INSERT ([app_id], [name]) VALUES (s.[app_id], s.[name]);",
		st.SQL)

	st = Dialect{}.Upsert("games", []string{"app_id"}, "app_id", nil)
	assert.NotContains(t, st.SQL, "WHEN MATCHED THEN")
}

func TestInsertIfAbsent(t *testing.T) {
	st := Dialect{}.InsertIfAbsent("game_tags", []string{"app_id", "tag_id"}, []string{"app_id", "tag_id"})
	assert.Equal(t,
		"INSERT INTO [game_tags] ([app_id], [tag_id]) SELECT @p1, @p2 WHERE NOT EXISTS (SELECT 1 FROM [game_tags] WHERE [app_id] = @p3 AND [tag_id] = @p4)",
		st.SQL)
	assert.Equal(t, []any{int64(7), int64(3), int64(7), int64(3)}, st.Bind([]any{int64(7), int64(3)}))

	st = Dialect{}.InsertIfAbsent("tags", []string{"name"}, []string{"name"})
	assert.Equal(t, []any{"RPG", "RPG"}, st.Bind([]any{"RPG"}))
}

func TestIsDuplicate(t *testing.T) {
	d := Dialect{}
	assert.True(t, d.IsDuplicate(mssql.Error{Number: 2627}))
	assert.True(t, d.IsDuplicate(errors.Wrap(mssql.Error{Number: 2601}, "insert")))
	assert.False(t, d.IsDuplicate(mssql.Error{Number: 547}))
	assert.False(t, d.IsDuplicate(errors.New("boom")))
}

func TestDSN_Passthrough(t *testing.T) {
	dsn, err := Dialect{}.DSN(storage.Config{DSN: "sqlserver://u:p@h?database=x"})
	require.NoError(t, err)
	assert.Equal(t, "sqlserver://u:p@h?database=x", dsn)

	_, err = Dialect{}.DSN(storage.Config{Database: "x"})
	assert.Error(t, err)
}
