// Package postgres registers the "postgres" storage dialect backed by pgx.
package postgres

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"catalogetl/internal/storage"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pkg/errors"
)

const (
	defaultPort = 5432

	uniqueViolation = "23505"
)

var _ storage.Dialect = Dialect{}

func init() { storage.Register("postgres", Dialect{}) }

// Dialect speaks PostgreSQL through pgx's database/sql adapter.
//
// A failed statement aborts a Postgres transaction, so rows run inside
// savepoints to keep the rest of the batch committable.
type Dialect struct{}

func (Dialect) Kind() string              { return "postgres" }
func (Dialect) DriverName() string        { return "pgx" }
func (Dialect) Flavor() sqlbuilder.Flavor { return sqlbuilder.PostgreSQL }
func (Dialect) Quote(ident string) string { return pgIdent(ident) }
func (Dialect) RowSavepoints() bool       { return true }

// DSN builds a postgres:// URL unless cfg.DSN is set.
func (Dialect) DSN(cfg storage.Config) (string, error) {
	if cfg.DSN != "" {
		if _, err := pgconn.ParseConfig(cfg.DSN); err != nil {
			return "", errors.Wrap(err, "postgres dsn")
		}
		return cfg.DSN, nil
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Path:   "/" + cfg.Database,
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String(), nil
}

func (Dialect) Upsert(table string, cols []string, key string, mutable []string) storage.Stmt {
	sql := storage.InsertSQL(sqlbuilder.PostgreSQL, pgIdent, table, cols)
	return storage.Stmt{SQL: sql + storage.OnConflictUpdate(pgIdent, key, mutable)}
}

func (Dialect) InsertIfAbsent(table string, cols []string, unique []string) storage.Stmt {
	sql := storage.InsertSQL(sqlbuilder.PostgreSQL, pgIdent, table, cols)
	return storage.Stmt{SQL: sql + " ON CONFLICT DO NOTHING"}
}

func (Dialect) IsDuplicate(err error) bool {
	var pe *pgconn.PgError
	return errors.As(err, &pe) && pe.Code == uniqueViolation
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
