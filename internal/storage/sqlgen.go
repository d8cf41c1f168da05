package storage

import (
	"strings"

	"github.com/huandu/go-sqlbuilder"
)

// InsertSQL renders "INSERT INTO table (cols) VALUES (...)" with one
// placeholder per column in flavor's syntax.
func InsertSQL(flavor sqlbuilder.Flavor, quote func(string) string, table string, cols []string) string {
	ib := flavor.NewInsertBuilder()
	ib.InsertInto(quote(table))
	ib.Cols(MapIdent(quote, cols)...)
	ib.Values(make([]interface{}, len(cols))...)
	sql, _ := ib.Build()
	return sql
}

// OnConflictUpdate renders the ON CONFLICT clause shared by postgres and
// sqlite. With no mutable columns the clause becomes DO NOTHING.
func OnConflictUpdate(quote func(string) string, key string, mutable []string) string {
	if len(mutable) == 0 {
		return " ON CONFLICT (" + quote(key) + ") DO NOTHING"
	}
	sets := make([]string, len(mutable))
	for i, c := range mutable {
		q := quote(c)
		sets[i] = q + " = EXCLUDED." + q
	}
	return " ON CONFLICT (" + quote(key) + ") DO UPDATE SET " + strings.Join(sets, ", ")
}

// MapIdent maps a list of column names to their quoted forms.
func MapIdent(quote func(string) string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quote(c)
	}
	return out
}
