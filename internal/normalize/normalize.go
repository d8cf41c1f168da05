// Package normalize derives lookup and junction tables from the delimited
// list columns of the games table.
//
// Each relation runs two sequential passes. The vocabulary pass collects
// every distinct label across the table and persists it; only then does the
// link pass resolve labels to lookup ids and insert junction rows. All
// inserts are insert-if-absent, so a re-run converges to the same state.
package normalize

import (
	"context"
	"strings"
	"time"

	"catalogetl/internal/logger"
	"catalogetl/internal/schema"
	"catalogetl/internal/storage"
	"catalogetl/internal/transformer/builtin"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// maxLabelLen matches the lookup tables' name column.
const maxLabelLen = 255

var tracer = otel.Tracer("catalogetl/normalize")

// Relation names a list column of the games table and the lookup/junction
// pair it feeds. The junction table has columns (app_id, FKColumn); the
// lookup table has (id, name).
type Relation struct {
	Name          string
	Column        string
	LookupTable   string
	JunctionTable string
	FKColumn      string
	Delimiter     string
}

// RelationReport summarizes one relation. Err is set when a storage error
// other than a duplicate aborted the relation; counters reflect the work
// committed before that.
type RelationReport struct {
	Name           string `json:"name"`
	Labels         int    `json:"labels"`
	LookupInserted int    `json:"lookup_inserted"`
	LookupPresent  int    `json:"lookup_present"`
	LinksInserted  int    `json:"links_inserted"`
	LinksPresent   int    `json:"links_present"`
	// LinksFailed counts labels that had no lookup row to link to.
	LinksFailed int           `json:"links_failed"`
	Err         string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Normalizer runs the configured relations against a loaded games table.
type Normalizer struct {
	db        *storage.DB
	relations []Relation
	log       *logger.Logger
}

// New returns a Normalizer for relations. A nil log discards output.
func New(db *storage.DB, relations []Relation, log *logger.Logger) *Normalizer {
	if log == nil {
		log = logger.Nop()
	}
	return &Normalizer{db: db, relations: relations, log: log}
}

// Run normalizes every relation in order. A failing relation is reported
// and the next one still runs. Run itself only fails when ctx is done.
func (n *Normalizer) Run(ctx context.Context) ([]RelationReport, error) {
	out := make([]RelationReport, 0, len(n.relations))
	for _, rel := range n.relations {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		rep := n.relation(ctx, rel)
		out = append(out, rep)
		if rep.Err != "" {
			n.log.Error("normalize: relation aborted", "relation", rel.Name, "error", rep.Err)
			continue
		}
		n.log.Info("normalize: relation done",
			"relation", rel.Name,
			"labels", rep.Labels,
			"lookup_inserted", rep.LookupInserted,
			"links_inserted", rep.LinksInserted,
			"links_present", rep.LinksPresent,
			"links_failed", rep.LinksFailed,
			"elapsed", rep.Duration.Truncate(time.Millisecond).String(),
		)
	}
	return out, ctx.Err()
}

func (n *Normalizer) relation(ctx context.Context, rel Relation) RelationReport {
	ctx, span := tracer.Start(ctx, "normalize."+rel.Name)
	defer span.End()
	span.SetAttributes(
		attribute.String("relation.column", rel.Column),
		attribute.String("relation.lookup_table", rel.LookupTable),
	)

	start := time.Now()
	rep := RelationReport{Name: rel.Name}
	err := n.run(ctx, rel, &rep)
	rep.Duration = time.Since(start)
	if err != nil {
		rep.Err = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "relation aborted")
	}
	span.SetAttributes(
		attribute.Int("relation.labels", rep.Labels),
		attribute.Int("relation.links_inserted", rep.LinksInserted),
	)
	return rep
}

func (n *Normalizer) run(ctx context.Context, rel Relation, rep *RelationReport) error {
	vocab, err := n.vocabulary(ctx, rel)
	if err != nil {
		return err
	}
	rep.Labels = len(vocab)

	if err := n.insertLabels(ctx, rel, vocab, rep); err != nil {
		return err
	}
	ids, err := n.labelIDs(ctx, rel)
	if err != nil {
		return err
	}
	rows, err := n.lists(ctx, rel)
	if err != nil {
		return err
	}
	return n.insertLinks(ctx, rel, rows, ids, rep)
}

// vocabulary reads the distinct non-empty list values and splits them into
// the distinct label set of the whole table.
func (n *Normalizer) vocabulary(ctx context.Context, rel Relation) ([]string, error) {
	d := n.db.Dialect
	col := d.Quote(rel.Column)
	sb := d.Flavor().NewSelectBuilder()
	sb.Select(col).Distinct().From(d.Quote(schema.GamesTable))
	sb.Where(sb.IsNotNull(col), sb.NotEqual(col, ""))
	q, args := sb.Build()

	var lists []string
	if err := n.db.SelectContext(ctx, &lists, q, args...); err != nil {
		return nil, errors.Wrapf(err, "%s: scan %s", rel.Name, rel.Column)
	}
	set := builtin.NewLabelSet()
	for _, l := range lists {
		set.AddList(l, rel.Delimiter)
	}
	labels := set.Labels()
	for i, l := range labels {
		labels[i] = clip(l)
	}
	return labels, nil
}

func (n *Normalizer) insertLabels(ctx context.Context, rel Relation, labels []string, rep *RelationReport) error {
	d := n.db.Dialect
	st := d.InsertIfAbsent(rel.LookupTable, []string{"name"}, []string{"name"})
	var tally storage.Tally
	err := n.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, l := range labels {
			r := tally.Add(storage.InsertIfAbsent(ctx, tx, d, st, l))
			if r.Outcome == storage.OutcomeFailed {
				return errors.Wrapf(r.Err, "%s: insert label %q", rel.Name, l)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	rep.LookupInserted = tally.Inserted
	rep.LookupPresent = tally.Present
	return nil
}

type labelRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// labelIDs maps stored labels to ids. A case-folded index catches backends
// whose collation treats "RPG" and "rpg" as the same label.
func (n *Normalizer) labelIDs(ctx context.Context, rel Relation) (map[string]int64, error) {
	d := n.db.Dialect
	sb := d.Flavor().NewSelectBuilder()
	sb.Select(d.Quote("id"), d.Quote("name")).From(d.Quote(rel.LookupTable))
	q, args := sb.Build()

	var rows []labelRow
	if err := n.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrapf(err, "%s: read %s", rel.Name, rel.LookupTable)
	}
	ids := make(map[string]int64, 2*len(rows))
	for _, r := range rows {
		ids[r.Name] = r.ID
	}
	for _, r := range rows {
		k := strings.ToLower(r.Name)
		if _, ok := ids[k]; !ok {
			ids[k] = r.ID
		}
	}
	return ids, nil
}

type listRow struct {
	AppID int64  `db:"app_id"`
	List  string `db:"list"`
}

func (n *Normalizer) lists(ctx context.Context, rel Relation) ([]listRow, error) {
	d := n.db.Dialect
	col := d.Quote(rel.Column)
	sb := d.Flavor().NewSelectBuilder()
	sb.Select(d.Quote(schema.KeyColumn), col+" AS list").From(d.Quote(schema.GamesTable))
	sb.Where(sb.IsNotNull(col), sb.NotEqual(col, ""))
	sb.OrderBy(d.Quote(schema.KeyColumn))
	q, args := sb.Build()

	var rows []listRow
	if err := n.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrapf(err, "%s: scan %s rows", rel.Name, rel.Column)
	}
	return rows, nil
}

func (n *Normalizer) insertLinks(ctx context.Context, rel Relation, rows []listRow, ids map[string]int64, rep *RelationReport) error {
	d := n.db.Dialect
	cols := []string{schema.KeyColumn, rel.FKColumn}
	st := d.InsertIfAbsent(rel.JunctionTable, cols, cols)

	var tally storage.Tally
	missing := 0
	err := n.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, row := range rows {
			for _, l := range builtin.SplitLabels(row.List, rel.Delimiter) {
				l = clip(l)
				id, ok := ids[l]
				if !ok {
					id, ok = ids[strings.ToLower(l)]
				}
				if !ok {
					missing++
					n.log.Debug("normalize: label has no lookup row", "relation", rel.Name, "app_id", row.AppID, "label", l)
					continue
				}
				r := tally.Add(storage.InsertIfAbsent(ctx, tx, d, st, row.AppID, id))
				if r.Outcome == storage.OutcomeFailed {
					return errors.Wrapf(r.Err, "%s: link app_id=%d label %q", rel.Name, row.AppID, l)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	rep.LinksInserted = tally.Inserted
	rep.LinksPresent = tally.Present
	rep.LinksFailed = missing
	return nil
}

// inTx runs fn in a transaction, committing on success.
func (n *Normalizer) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := n.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}

func clip(label string) string {
	if s := builtin.String(label, maxLabelLen); s != nil {
		return *s
	}
	return label
}
