// Package mysql registers the "mysql" storage dialect.
package mysql

import (
	"net"
	"strconv"
	"strings"

	"catalogetl/internal/storage"

	"github.com/go-sql-driver/mysql"
	"github.com/huandu/go-sqlbuilder"
	"github.com/pkg/errors"
)

const (
	defaultPort = 3306

	// erDupEntry is ER_DUP_ENTRY.
	erDupEntry = 1062
)

var _ storage.Dialect = Dialect{}

func init() { storage.Register("mysql", Dialect{}) }

// Dialect speaks MySQL 8 through go-sql-driver/mysql.
type Dialect struct{}

func (Dialect) Kind() string              { return "mysql" }
func (Dialect) DriverName() string        { return "mysql" }
func (Dialect) Flavor() sqlbuilder.Flavor { return sqlbuilder.MySQL }
func (Dialect) Quote(ident string) string { return myIdent(ident) }
func (Dialect) RowSavepoints() bool       { return false }

// DSN builds a TCP DSN with utf8mb4 unless cfg.DSN is set.
func (Dialect) DSN(cfg storage.Config) (string, error) {
	if cfg.DSN != "" {
		if _, err := mysql.ParseDSN(cfg.DSN); err != nil {
			return "", errors.Wrap(err, "mysql dsn")
		}
		return cfg.DSN, nil
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	c.DBName = cfg.Database
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN(), nil
}

// Upsert uses ON DUPLICATE KEY UPDATE col = VALUES(col).
func (Dialect) Upsert(table string, cols []string, key string, mutable []string) storage.Stmt {
	sql := storage.InsertSQL(sqlbuilder.MySQL, myIdent, table, cols)
	if len(mutable) == 0 {
		q := myIdent(key)
		return storage.Stmt{SQL: sql + " ON DUPLICATE KEY UPDATE " + q + " = " + q}
	}
	sets := make([]string, len(mutable))
	for i, c := range mutable {
		q := myIdent(c)
		sets[i] = q + " = VALUES(" + q + ")"
	}
	return storage.Stmt{SQL: sql + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")}
}

// InsertIfAbsent uses INSERT IGNORE; unique is enforced by the table's keys.
func (Dialect) InsertIfAbsent(table string, cols []string, unique []string) storage.Stmt {
	ib := sqlbuilder.MySQL.NewInsertBuilder()
	ib.InsertIgnoreInto(myIdent(table))
	ib.Cols(storage.MapIdent(myIdent, cols)...)
	ib.Values(make([]interface{}, len(cols))...)
	sql, _ := ib.Build()
	return storage.Stmt{SQL: sql}
}

func (Dialect) IsDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == erDupEntry
}

// myIdent safely quotes a single identifier segment for MySQL.
func myIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }
