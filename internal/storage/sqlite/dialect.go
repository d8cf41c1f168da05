// Package sqlite registers the "sqlite" storage dialect using the cgo-free
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"strings"

	"catalogetl/internal/storage"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var _ storage.Dialect = Dialect{}

func init() { storage.Register("sqlite", Dialect{}) }

// Dialect speaks SQLite 3.24+ (ON CONFLICT upserts).
type Dialect struct{}

func (Dialect) Kind() string              { return "sqlite" }
func (Dialect) DriverName() string        { return "sqlite" }
func (Dialect) Flavor() sqlbuilder.Flavor { return sqlbuilder.SQLite }
func (Dialect) Quote(ident string) string { return sqIdent(ident) }
func (Dialect) RowSavepoints() bool       { return false }

// DSN is cfg.DSN, else cfg.Database as a file path (":memory:" works with
// the single-connection pool).
func (Dialect) DSN(cfg storage.Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if strings.TrimSpace(cfg.Database) == "" {
		return "", errors.New("sqlite: database path must not be empty")
	}
	return cfg.Database, nil
}

// InitConn enables foreign keys and a busy timeout on the pinned connection.
func (Dialect) InitConn(ctx context.Context, db *sqlx.DB) error {
	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return errors.Wrap(err, pragma)
		}
	}
	return nil
}

func (Dialect) Upsert(table string, cols []string, key string, mutable []string) storage.Stmt {
	sql := storage.InsertSQL(sqlbuilder.SQLite, sqIdent, table, cols)
	return storage.Stmt{SQL: sql + storage.OnConflictUpdate(sqIdent, key, mutable)}
}

func (Dialect) InsertIfAbsent(table string, cols []string, unique []string) storage.Stmt {
	sql := storage.InsertSQL(sqlbuilder.SQLite, sqIdent, table, cols)
	return storage.Stmt{SQL: sql + " ON CONFLICT DO NOTHING"}
}

func (Dialect) IsDuplicate(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	}
	return false
}

// sqIdent quotes a single SQLite identifier with double quotes.
func sqIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
