// Package storage contains the database-agnostic half of the pipeline: the
// Dialect registry, the DB handle, insert-if-absent outcome classification
// and the bulk upsert loader.
//
// Backends (mysql, postgres, sqlite, mssql) live in subpackages and register a
// Dialect from init(). Import storage/all to enable every backend.
package storage

import (
	"sort"
	"sync"

	"github.com/huandu/go-sqlbuilder"
	"github.com/pkg/errors"
)

// ErrUnknownKind is returned when no Dialect is registered for a kind.
var ErrUnknownKind = errors.New("unsupported storage.kind")

// Config holds connection coordinates. DSN, when set, wins over the
// individual fields.
type Config struct {
	Kind     string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	DSN      string
}

// Stmt is a statement with a fixed bind order. Args maps the logical column
// values to the bind arguments the SQL expects; nil means identity.
type Stmt struct {
	SQL  string
	Args func(values []any) []any
}

// Bind returns the arguments for values.
func (s Stmt) Bind(values []any) []any {
	if s.Args == nil {
		return values
	}
	return s.Args(values)
}

// Dialect captures everything that differs between backends.
type Dialect interface {
	// Kind is the storage.kind this dialect registers under.
	Kind() string
	// DriverName is the database/sql driver name.
	DriverName() string
	// DSN builds the driver connection string from cfg.
	DSN(cfg Config) (string, error)
	// Flavor is the sqlbuilder flavor used for placeholders and LIMIT syntax.
	Flavor() sqlbuilder.Flavor
	// Quote quotes a single identifier.
	Quote(ident string) string
	// Upsert inserts cols into table; on a key collision only mutable is
	// overwritten.
	Upsert(table string, cols []string, key string, mutable []string) Stmt
	// InsertIfAbsent inserts cols unless a row with the same unique values
	// exists. An absent row must report one affected row; a present one zero.
	InsertIfAbsent(table string, cols []string, unique []string) Stmt
	// IsDuplicate reports whether err is a unique/primary key violation.
	IsDuplicate(err error) bool
	// RowSavepoints reports whether a failed statement aborts the enclosing
	// transaction, so each row must run inside its own savepoint.
	RowSavepoints() bool
}

var (
	regMu    sync.RWMutex
	dialects = map[string]Dialect{}
)

// Register registers (or replaces) the Dialect for kind.
func Register(kind string, d Dialect) {
	regMu.Lock()
	defer regMu.Unlock()
	dialects[kind] = d
}

// Lookup returns the Dialect registered for kind.
func Lookup(kind string) (Dialect, error) {
	regMu.RLock()
	d, ok := dialects[kind]
	regMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKind, "storage.kind=%s", kind)
	}
	return d, nil
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(dialects))
	for k := range dialects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
