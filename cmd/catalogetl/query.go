package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"catalogetl/internal/analytics"
	"catalogetl/internal/pipeline"
	"catalogetl/internal/storage"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// params are the --param key=value pairs of a query.
type params map[string]string

func (p params) str(key string) string { return p[key] }

func (p params) getInt(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	return n, errors.Wrapf(err, "param %s", key)
}

func (p params) getInt64(key string, def int64) (int64, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	return n, errors.Wrapf(err, "param %s", key)
}

// getFloat returns nil when key is absent.
func (p params) getFloat(key string) (*float64, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "param %s", key)
	}
	return &f, nil
}

type template struct {
	usage string
	run   func(ctx context.Context, a *analytics.Analytics, p params) (any, error)
}

var templates = map[string]template{
	"search": {"name genre min_price max_price min_positive platform limit", func(ctx context.Context, a *analytics.Analytics, p params) (any, error) {
		f := analytics.SearchFilter{Name: p.str("name"), Genre: p.str("genre"), Platform: p.str("platform")}
		var err error
		if f.MinPrice, err = p.getFloat("min_price"); err != nil {
			return nil, err
		}
		if f.MaxPrice, err = p.getFloat("max_price"); err != nil {
			return nil, err
		}
		if v, ok := p["min_positive"]; ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, errors.Wrap(err, "param min_positive")
			}
			f.MinPositive = &n
		}
		if f.Limit, err = p.getInt("limit", analytics.DefaultLimit); err != nil {
			return nil, err
		}
		return a.SearchGames(ctx, f)
	}},
	"game": {"app_id", func(ctx context.Context, a *analytics.Analytics, p params) (any, error) {
		id, err := p.getInt64("app_id", 0)
		if err != nil {
			return nil, err
		}
		return a.GameDetails(ctx, id)
	}},
	"price-stats": {"", func(ctx context.Context, a *analytics.Analytics, _ params) (any, error) {
		return a.PriceStatistics(ctx)
	}},
	"price-trend": {"", func(ctx context.Context, a *analytics.Analytics, _ params) (any, error) {
		return a.PriceTrendByYear(ctx)
	}},
	"genre-stats": {"top_n", func(ctx context.Context, a *analytics.Analytics, p params) (any, error) {
		n, err := p.getInt("top_n", 15)
		if err != nil {
			return nil, err
		}
		return a.GenreStatistics(ctx, n)
	}},
	"genre-playtime": {"min_games", func(ctx context.Context, a *analytics.Analytics, p params) (any, error) {
		n, err := p.getInt("min_games", 50)
		if err != nil {
			return nil, err
		}
		return a.GenrePlaytime(ctx, n)
	}},
	"top-rated": {"min_reviews genre limit", func(ctx context.Context, a *analytics.Analytics, p params) (any, error) {
		minReviews, err := p.getInt64("min_reviews", 1000)
		if err != nil {
			return nil, err
		}
		limit, err := p.getInt("limit", analytics.DefaultLimit)
		if err != nil {
			return nil, err
		}
		return a.TopRated(ctx, minReviews, p.str("genre"), limit)
	}},
	"platforms": {"", func(ctx context.Context, a *analytics.Analytics, _ params) (any, error) {
		return a.PlatformReviews(ctx)
	}},
	"recommendations": {"", func(ctx context.Context, a *analytics.Analytics, _ params) (any, error) {
		return a.RecommendationTiers(ctx)
	}},
	"publishers": {"min_games top_n", func(ctx context.Context, a *analytics.Analytics, p params) (any, error) {
		minGames, err := p.getInt("min_games", 5)
		if err != nil {
			return nil, err
		}
		topN, err := p.getInt("top_n", analytics.DefaultLimit)
		if err != nil {
			return nil, err
		}
		return a.PublisherRanking(ctx, minGames, topN)
	}},
	"discounts": {"year (defaults to the current year)", func(ctx context.Context, a *analytics.Analytics, p params) (any, error) {
		now := time.Now()
		year, err := p.getInt("year", now.Year())
		if err != nil {
			return nil, err
		}
		return a.DiscountByAge(ctx, time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
	}},
	"summary": {"", func(ctx context.Context, a *analytics.Analytics, _ params) (any, error) {
		return a.DatasetSummary(ctx)
	}},
}

func templateHelp() string {
	names := make([]string, 0, len(templates))
	for n := range templates {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, n := range names {
		fmt.Fprintf(&b, "  %-15s %s\n", n, templates[n].usage)
	}
	return b.String()
}

func newQueryCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var kv map[string]string
	cmd := &cobra.Command{
		Use:   "query <template>",
		Short: "Run a read-only analytics query and print JSON",
		Long:  "Templates and their --param keys:\n\n" + templateHelp(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := templates[args[0]]
			if !ok {
				return errors.Errorf("unknown template %q; known:\n%s", args[0], templateHelp())
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := storage.Open(ctx, pipeline.StorageConfig(cfg.Storage))
			if err != nil {
				return err
			}
			defer db.Close()

			out, err := t.run(ctx, analytics.New(db), params(kv))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	flags := cmd.Flags()
	flags.StringToStringVarP(&kv, "param", "p", nil, "template parameter key=value (repeatable)")
	flags.String("storage-kind", "", "mysql, postgres, sqlite or mssql")
	flags.String("database", "", "database name, or file path for sqlite")
	flags.String("dsn", "", "driver DSN, overrides the other storage settings")
	return cmd
}
