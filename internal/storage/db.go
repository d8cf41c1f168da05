package storage

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// pingTimeout bounds the connectivity check in Open.
const pingTimeout = 10 * time.Second

// DB is an open connection plus the dialect that speaks to it.
//
// The pool is pinned to a single connection: the pipeline is a single
// writer, and every stage finishes its reads before it starts writing.
type DB struct {
	*sqlx.DB
	Dialect Dialect
}

// Open resolves cfg.Kind, connects and pings. Any failure is returned as-is
// for the caller to treat as fatal.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	d, err := Lookup(cfg.Kind)
	if err != nil {
		return nil, err
	}
	dsn, err := d.DSN(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: dsn", cfg.Kind)
	}
	db, err := sqlx.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: open", cfg.Kind)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "%s: ping", cfg.Kind)
	}
	if init, ok := d.(interface {
		InitConn(ctx context.Context, db *sqlx.DB) error
	}); ok {
		if err := init.InitConn(ctx, db); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "%s: init connection", cfg.Kind)
		}
	}
	return &DB{DB: db, Dialect: d}, nil
}

// Count returns SELECT COUNT(*) FROM table.
func (db *DB) Count(ctx context.Context, table string) (int64, error) {
	sb := db.Dialect.Flavor().NewSelectBuilder()
	sb.Select("COUNT(*)").From(db.Dialect.Quote(table))
	q, args := sb.Build()
	var n int64
	if err := db.GetContext(ctx, &n, q, args...); err != nil {
		return 0, errors.Wrapf(err, "count %s", table)
	}
	return n, nil
}
