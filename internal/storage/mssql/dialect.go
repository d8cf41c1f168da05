// Package mssql registers the "mssql" storage dialect for SQL Server.
package mssql

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"catalogetl/internal/storage"

	"github.com/huandu/go-sqlbuilder"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/pkg/errors"
)

const defaultPort = 1433

var _ storage.Dialect = Dialect{}

func init() { storage.Register("mssql", Dialect{}) }

// Dialect speaks SQL Server through go-mssqldb with @pN placeholders.
type Dialect struct{}

func (Dialect) Kind() string              { return "mssql" }
func (Dialect) DriverName() string        { return "sqlserver" }
func (Dialect) Flavor() sqlbuilder.Flavor { return sqlbuilder.SQLServer }
func (Dialect) Quote(ident string) string { return msIdent(ident) }
func (Dialect) RowSavepoints() bool       { return false }

// DSN builds a sqlserver:// URL unless cfg.DSN is set.
func (Dialect) DSN(cfg storage.Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.Host == "" {
		return "", errors.New("mssql: storage.host is required without storage.dsn")
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	q := url.Values{}
	q.Set("database", cfg.Database)
	u := url.URL{
		Scheme:   "sqlserver",
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		RawQuery: q.Encode(),
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String(), nil
}

// Upsert renders a MERGE keyed on key. HOLDLOCK serializes the
// match-then-insert window.
func (Dialect) Upsert(table string, cols []string, key string, mutable []string) storage.Stmt {
	quoted := storage.MapIdent(msIdent, cols)
	src := make([]string, len(cols))
	for i, c := range quoted {
		src[i] = "s." + c
	}
	var b strings.Builder
	fmt.Fprintf(&b, "MERGE INTO %s WITH (HOLDLOCK) AS t USING (VALUES (%s)) AS s (%s) ON t.%s = s.%s",
		msIdent(table), placeholders(1, len(cols)), strings.Join(quoted, ", "), msIdent(key), msIdent(key))
	if len(mutable) > 0 {
		sets := make([]string, len(mutable))
		for i, c := range mutable {
			q := msIdent(c)
			sets[i] = "t." + q + " = s." + q
		}
		b.WriteString(" WHEN MATCHED THEN UPDATE SET " + strings.Join(sets, ", "))
	}
	fmt.Fprintf(&b, " WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s);", strings.Join(quoted, ", "), strings.Join(src, ", "))
	return storage.Stmt{SQL: b.String()}
}

// InsertIfAbsent renders INSERT ... SELECT ... WHERE NOT EXISTS. The unique
// values are bound a second time for the existence probe.
func (Dialect) InsertIfAbsent(table string, cols []string, unique []string) storage.Stmt {
	pos := make(map[string]int, len(cols))
	for i, c := range cols {
		pos[c] = i
	}
	idx := make([]int, 0, len(unique))
	conds := make([]string, 0, len(unique))
	for i, u := range unique {
		idx = append(idx, pos[u])
		conds = append(conds, fmt.Sprintf("%s = @p%d", msIdent(u), len(cols)+i+1))
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s WHERE NOT EXISTS (SELECT 1 FROM %s WHERE %s)",
		msIdent(table),
		strings.Join(storage.MapIdent(msIdent, cols), ", "),
		placeholders(1, len(cols)),
		msIdent(table),
		strings.Join(conds, " AND "),
	)
	return storage.Stmt{
		SQL: sql,
		Args: func(values []any) []any {
			out := make([]any, 0, len(values)+len(idx))
			out = append(out, values...)
			for _, i := range idx {
				out = append(out, values[i])
			}
			return out
		},
	}
}

// IsDuplicate matches error 2627 (PK/unique constraint) and 2601 (unique index).
func (Dialect) IsDuplicate(err error) bool {
	var me mssql.Error
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == 2627 || me.Number == 2601
}

func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = "@p" + strconv.Itoa(from+i)
	}
	return strings.Join(ps, ", ")
}

// msIdent safely quotes a SQL Server identifier using [brackets], escaping ].
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }
