// Package pipeline drives one catalog run: read the source, connect, apply
// the schema, bulk upsert the games, normalize relations and count.
//
// Only prerequisites are fatal (source, connection, schema file). Everything
// per-row or per-relation is aggregated into the Report.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"catalogetl/internal/config"
	"catalogetl/internal/datasource"
	"catalogetl/internal/datasource/httpds"
	"catalogetl/internal/logger"
	"catalogetl/internal/metrics"
	"catalogetl/internal/normalize"
	"catalogetl/internal/parser/csv"
	"catalogetl/internal/schema"
	"catalogetl/internal/storage"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrSetup marks failures of run prerequisites. Test with errors.Is.
var ErrSetup = errors.New("pipeline setup failed")

// SetupError is a fatal failure in one stage.
type SetupError struct {
	Stage string
	Err   error
}

func (e *SetupError) Error() string { return fmt.Sprintf("%s: %s: %v", ErrSetup, e.Stage, e.Err) }

func (e *SetupError) Unwrap() error { return e.Err }

func (e *SetupError) Is(target error) bool { return target == ErrSetup }

func setupErr(stage string, err error) error { return &SetupError{Stage: stage, Err: err} }

var tracer = otel.Tracer("catalogetl/pipeline")

// Deps are the collaborators of a Pipeline. Zero values get defaults.
type Deps struct {
	Logger  *logger.Logger
	Metrics metrics.Backend
	// Source overrides the location in the config.
	Source datasource.Source
	// RunID overrides the generated run identifier.
	RunID string
}

// Pipeline runs a catalog load for one Config.
type Pipeline struct {
	cfg  config.Config
	deps Deps
}

// New fills defaults for a nil Logger and an empty RunID.
func New(cfg config.Config, deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.RunID == "" {
		deps.RunID = uuid.NewString()
	}
	return &Pipeline{cfg: cfg, deps: deps}
}

// Run executes every stage in order. The report is always non-nil. A
// non-nil error is either a *SetupError (errors.Is(err, ErrSetup)) or a
// context error from an interrupted load.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	cfg := p.cfg
	log := p.deps.Logger.With("run_id", p.deps.RunID, "job", cfg.Job)
	rec := metrics.New(p.deps.Metrics, cfg.Job)
	rep := &Report{RunID: p.deps.RunID, Job: cfg.Job, StartedAt: time.Now(), FinalCount: -1}
	defer func() {
		rep.Duration = time.Since(rep.StartedAt)
		if err := rec.Flush(); err != nil {
			log.Warn("metrics flush failed", "error", err)
		}
	}()

	ctx, span := tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run_id", p.deps.RunID),
		attribute.String("job", cfg.Job),
		attribute.String("storage.kind", cfg.Storage.Kind),
	))
	defer span.End()

	fail := func(err error) (*Report, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("run failed", "error", err)
		return rep, err
	}

	log.Info("run started", "source", cfg.Source.Path, "storage", cfg.Storage.Kind)

	// read
	var table *csv.Table
	err := p.stage(ctx, rec, "read", func(ctx context.Context) error {
		var err error
		table, err = p.read(ctx, log, &rep.Source)
		return err
	})
	if err != nil {
		return fail(setupErr("read source", err))
	}
	rec.Records(metrics.KindRead, rep.Source.Rows)
	rec.Records(metrics.KindParseErrors, rep.Source.Skipped)
	if rep.Source.Skipped > 0 {
		log.Warn("source rows skipped", "skipped", rep.Source.Skipped, "first", rep.Source.SkipReasons[0])
	}

	// connect
	var db *storage.DB
	err = p.stage(ctx, rec, "connect", func(ctx context.Context) error {
		var err error
		db, err = storage.Open(ctx, StorageConfig(cfg.Storage))
		return err
	})
	if err != nil {
		return fail(setupErr("connect", err))
	}
	defer db.Close()

	// schema
	err = p.stage(ctx, rec, "schema", func(ctx context.Context) error {
		script, err := schema.ReadScript(cfg.Storage.Kind, cfg.Storage.SchemaPath)
		if err != nil {
			return err
		}
		rep.Setup, err = schema.Apply(ctx, db, script)
		return err
	})
	if err != nil {
		return fail(setupErr("schema", err))
	}
	for _, w := range rep.Setup.Warnings {
		log.Warn("schema statement failed", "index", w.Index, "statement", w.Statement, "error", w.Err)
	}

	// load
	err = p.stage(ctx, rec, "load", func(ctx context.Context) error {
		loader := storage.NewLoader(db, storage.LoaderOptions{
			BatchSize:       cfg.Runtime.BatchSize,
			MaxErrorDetails: cfg.Runtime.MaxErrorDetails,
			Columns:         cfg.ColumnMap(),
			Logger:          log,
		})
		lr, err := loader.Load(ctx, table.Records)
		if lr != nil {
			rep.Load = *lr
		}
		return err
	})
	rec.Records(metrics.KindUpserted, rep.Load.Upserted)
	rec.Records(metrics.KindRowErrors, rep.Load.Errors)
	rec.Batches(rep.Load.Batches)
	if err != nil {
		return fail(errors.Wrap(err, "load"))
	}

	// normalize
	err = p.stage(ctx, rec, "normalize", func(ctx context.Context) error {
		var err error
		rep.Relations, err = normalize.New(db, relations(cfg.Relations), log).Run(ctx)
		return err
	})
	for _, r := range rep.Relations {
		rec.RecordsFor(metrics.KindLookupInserted, r.Name, r.LookupInserted)
		rec.RecordsFor(metrics.KindLookupPresent, r.Name, r.LookupPresent)
		rec.RecordsFor(metrics.KindLinksInserted, r.Name, r.LinksInserted)
		rec.RecordsFor(metrics.KindLinksPresent, r.Name, r.LinksPresent)
		rec.RecordsFor(metrics.KindLinksFailed, r.Name, r.LinksFailed)
	}
	if err != nil {
		return fail(errors.Wrap(err, "normalize"))
	}

	// count
	_ = p.stage(ctx, rec, "count", func(ctx context.Context) error {
		n, err := db.Count(ctx, schema.GamesTable)
		if err != nil {
			rep.CountErr = err.Error()
			log.Warn("final count failed", "error", err)
			return err
		}
		rep.FinalCount = n
		return nil
	})

	span.SetAttributes(
		attribute.Int("load.upserted", rep.Load.Upserted),
		attribute.Int("load.errors", rep.Load.Errors),
		attribute.Int64("final_count", rep.FinalCount),
	)
	log.Info("run finished",
		"rows", rep.Source.Rows,
		"upserted", rep.Load.Upserted,
		"errors", rep.Load.Errors,
		"final_count", rep.FinalCount,
		"warnings", rep.HasWarnings(),
		"elapsed", time.Since(rep.StartedAt).Truncate(time.Millisecond).String(),
	)
	return rep, nil
}

// stage runs fn inside a span and records its outcome.
func (p *Pipeline) stage(ctx context.Context, rec *metrics.Recorder, name string, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "pipeline."+name)
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	rec.Stage(name, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, name+" failed")
	}
	return err
}

func (p *Pipeline) read(ctx context.Context, log *logger.Logger, sr *SourceReport) (*csv.Table, error) {
	src := p.deps.Source
	if src == nil {
		src = datasource.New(p.cfg.Source.Path, httpds.Config{MaxRetries: p.cfg.Source.Retries, Logger: log})
	}
	sr.Location = p.cfg.Source.Path
	if s, ok := src.(fmt.Stringer); ok {
		sr.Location = s.String()
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	table, err := csv.NewParser(csv.Options{Comma: p.cfg.Source.CommaRune()}).Parse(rc)
	if err != nil {
		return nil, err
	}
	sr.Rows = len(table.Records)
	sr.Skipped = table.Skipped
	sr.Ragged = table.Ragged
	sr.SkipReasons = table.SkipReasons
	log.Info("source parsed", "location", sr.Location, "rows", sr.Rows, "columns", len(table.Headers), "ragged", sr.Ragged)
	return table, nil
}

// StorageConfig maps the storage section of a Config to connection settings.
func StorageConfig(s config.Storage) storage.Config {
	return storage.Config{
		Kind:     s.Kind,
		Host:     s.Host,
		Port:     s.Port,
		User:     s.User,
		Password: s.Password,
		Database: s.Database,
		DSN:      s.DSN,
	}
}

func relations(rs []config.Relation) []normalize.Relation {
	out := make([]normalize.Relation, len(rs))
	for i, r := range rs {
		out[i] = normalize.Relation{
			Name:          r.Name,
			Column:        r.Column,
			LookupTable:   r.LookupTable,
			JunctionTable: r.JunctionTable,
			FKColumn:      r.FKColumn,
			Delimiter:     r.Delimiter,
		}
	}
	return out
}
