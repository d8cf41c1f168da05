// Package analytics holds the read-only query templates run against a
// loaded catalog. Every template is built with sqlbuilder in the target
// dialect's flavor, so caller values are always bound parameters.
package analytics

import (
	"context"
	"strings"

	"catalogetl/internal/storage"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ErrNotFound is returned by GameDetails for an unknown app_id.
var ErrNotFound = errors.New("game not found")

type selectBuilder = sqlbuilder.SelectBuilder

// Row is one result row keyed by column name.
type Row map[string]any

// Analytics runs templates on one database.
type Analytics struct {
	db     sqlx.QueryerContext
	flavor sqlbuilder.Flavor
}

// New runs templates in the flavor of db's dialect.
func New(db *storage.DB) *Analytics {
	return &Analytics{db: db, flavor: db.Dialect.Flavor()}
}

func (a *Analytics) newSelect() *selectBuilder {
	return a.flavor.NewSelectBuilder()
}

// query runs sb and scans every row into a map.
func (a *Analytics) query(ctx context.Context, sb *selectBuilder) ([]Row, error) {
	q, args := sb.Build()
	rows, err := a.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "analytics: query")
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		m := map[string]any{}
		if err := rows.MapScan(m); err != nil {
			return nil, errors.Wrap(err, "analytics: scan")
		}
		r := make(Row, len(m))
		for k, v := range m {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			r[strings.ToLower(k)] = v
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "analytics: rows")
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	}
	return n
}

// ratioExpr is the positive review share in percent, NULL without reviews.
const ratioExpr = "ROUND(AVG(positive_reviews * 1.0) / NULLIF(AVG(positive_reviews * 1.0) + AVG(negative_reviews * 1.0), 0) * 100, 1)"
