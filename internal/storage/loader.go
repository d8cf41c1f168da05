package storage

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"catalogetl/internal/logger"
	"catalogetl/internal/parser/csv"
	"catalogetl/internal/schema"
	"catalogetl/internal/transformer"
	"catalogetl/internal/transformer/builtin"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const (
	DefaultBatchSize       = 500
	DefaultMaxErrorDetails = 5

	rowSavepoint = "catalog_row"
)

// RowFailure is one row that could not be persisted.
type RowFailure struct {
	Line  int    `json:"line"`
	AppID int64  `json:"app_id"`
	Err   string `json:"error"`
}

// LoadReport summarizes a Load call.
type LoadReport struct {
	// Rows is the number of source records attempted.
	Rows int `json:"rows"`
	// Upserted counts rows inserted or refreshed and committed.
	Upserted int `json:"upserted"`
	// Errors counts rows that failed, including rows lost to a failed commit.
	Errors int `json:"errors"`
	// Batches counts successful commits.
	Batches int `json:"batches"`
	// Failures holds the first MaxErrorDetails failures verbatim.
	Failures []RowFailure `json:"failures,omitempty"`

	// DuplicateKeys counts records whose app_id appeared earlier in the
	// source; ConflictingDuplicates is the subset whose values differ.
	DuplicateKeys         int `json:"duplicate_keys"`
	ConflictingDuplicates int `json:"conflicting_duplicates"`
}

// LoaderOptions configures a Loader. Zero values get defaults.
type LoaderOptions struct {
	BatchSize       int
	MaxErrorDetails int
	Columns         schema.ColumnMap
	Logger          *logger.Logger
}

// Loader upserts source records into the games table in source order,
// committing every BatchSize successful rows.
type Loader struct {
	db         *DB
	mapper     *transformer.Mapper
	log        *logger.Logger
	batchSize  int
	maxDetails int
	upsert     Stmt
}

// NewLoader prepares the dialect's upsert for the games table.
func NewLoader(db *DB, opt LoaderOptions) *Loader {
	if opt.BatchSize <= 0 {
		opt.BatchSize = DefaultBatchSize
	}
	if opt.MaxErrorDetails <= 0 {
		opt.MaxErrorDetails = DefaultMaxErrorDetails
	}
	if opt.Logger == nil {
		opt.Logger = logger.Nop()
	}
	return &Loader{
		db:         db,
		mapper:     transformer.NewMapper(opt.Columns),
		log:        opt.Logger,
		batchSize:  opt.BatchSize,
		maxDetails: opt.MaxErrorDetails,
		upsert:     db.Dialect.Upsert(schema.GamesTable, schema.Columns, schema.KeyColumn, schema.MutableColumns),
	}
}

// Load maps and upserts every record. Row-level failures are counted and do
// not stop the loop. The returned error is set only when the loop cannot
// continue: ctx is done, or a transaction cannot be started. The report is
// valid in both cases.
func (l *Loader) Load(ctx context.Context, recs []csv.Record) (*LoadReport, error) {
	rep := &LoadReport{}
	dups := builtin.NewDupTracker()
	savepoints := l.db.Dialect.RowSavepoints()

	var (
		start     = time.Now()
		lastFlush = start
		pending   int
		lastTotal int
	)

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return rep, errors.Wrap(err, "loader: begin")
	}

	commit := func() error {
		if pending == 0 {
			return nil
		}
		if err := tx.Commit(); err != nil {
			l.log.Error("loader: commit failed; batch rows counted as errors", "rows", pending, "error", err)
			rep.Errors += pending
			l.fail(rep, RowFailure{Err: "commit: " + err.Error()})
		} else {
			rep.Upserted += pending
			rep.Batches++
			now := time.Now()
			sinceLast := now.Sub(lastFlush)
			rps := float64(0)
			if sinceLast > 0 {
				rps = float64(rep.Upserted-lastTotal) / sinceLast.Seconds()
			}
			l.log.Info("loader: batch committed",
				"batch", rep.Batches,
				"rps", int64(rps),
				"rows", pending,
				"total_upserted", rep.Upserted,
				"elapsed", now.Sub(start).Truncate(time.Millisecond).String(),
			)
			lastFlush = now
			lastTotal = rep.Upserted
		}
		pending = 0
		tx, err = l.db.BeginTxx(ctx, nil)
		return errors.Wrap(err, "loader: begin")
	}

	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			_ = tx.Rollback()
			return rep, err
		}
		rep.Rows++
		p := l.mapper.Map(rec)
		// Uncoercible keys map to 0 and are rejected by the table; they are
		// not duplicates of each other.
		if p.AppID > 0 && dups.Observe(p.AppID, fingerprint(p.Values())) {
			l.log.Debug("loader: duplicate app_id in source; later row wins", "line", rec.Line, "app_id", p.AppID)
		}

		if err := l.exec(ctx, tx, savepoints, p.Values()); err != nil {
			rep.Errors++
			l.fail(rep, RowFailure{Line: rec.Line, AppID: p.AppID, Err: err.Error()})
			continue
		}
		pending++
		if pending >= l.batchSize {
			if err := commit(); err != nil {
				return rep, err
			}
		}
	}

	if pending > 0 {
		if err := commit(); err != nil {
			return rep, err
		}
	}
	_ = tx.Rollback()

	rep.DuplicateKeys = dups.Duplicates()
	rep.ConflictingDuplicates = dups.Conflicting()
	if rep.Errors > len(rep.Failures) {
		l.log.Warn("loader: further row errors not shown", "suppressed", rep.Errors-len(rep.Failures))
	}
	l.log.Info("loader: done",
		"rows", rep.Rows,
		"upserted", rep.Upserted,
		"errors", rep.Errors,
		"batches", rep.Batches,
		"duplicate_keys", rep.DuplicateKeys,
	)
	return rep, nil
}

func (l *Loader) exec(ctx context.Context, tx *sqlx.Tx, savepoint bool, vals []any) error {
	if !savepoint {
		_, err := tx.ExecContext(ctx, l.upsert.SQL, l.upsert.Bind(vals)...)
		return err
	}
	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+rowSavepoint); err != nil {
		return errors.Wrap(err, "savepoint")
	}
	if _, err := tx.ExecContext(ctx, l.upsert.SQL, l.upsert.Bind(vals)...); err != nil {
		if _, rerr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+rowSavepoint); rerr != nil {
			return errors.Wrapf(err, "rollback to savepoint failed (%v)", rerr)
		}
		return err
	}
	_, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+rowSavepoint)
	return errors.Wrap(err, "release savepoint")
}

// fail keeps the first maxDetails failures and logs them.
func (l *Loader) fail(rep *LoadReport, f RowFailure) {
	if len(rep.Failures) >= l.maxDetails {
		return
	}
	rep.Failures = append(rep.Failures, f)
	l.log.Warn("loader: row failed", "line", f.Line, "app_id", f.AppID, "error", f.Err)
}

// fingerprint serializes row values with pointers dereferenced.
func fingerprint(vals []any) []byte {
	var b bytes.Buffer
	for _, v := range vals {
		switch x := v.(type) {
		case *string:
			if x == nil {
				b.WriteByte(0)
			} else {
				b.WriteString(*x)
			}
		case *int64:
			if x == nil {
				b.WriteByte(0)
			} else {
				b.WriteString(strconv.FormatInt(*x, 10))
			}
		case int64:
			b.WriteString(strconv.FormatInt(x, 10))
		case float64:
			b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		case bool:
			b.WriteString(strconv.FormatBool(x))
		}
		b.WriteByte(0x1f)
	}
	return b.Bytes()
}
