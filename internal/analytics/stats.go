package analytics

import (
	"context"
	"fmt"
)

// PriceStatistics summarizes prices with a bucketed distribution.
func (a *Analytics) PriceStatistics(ctx context.Context) (Row, error) {
	sb := a.newSelect()
	sb.Select(
		"COUNT(*) AS total_games",
		"ROUND(AVG(price), 2) AS avg_price",
		"MIN(price) AS min_price",
		"MAX(price) AS max_price",
		"SUM(CASE WHEN price = 0 THEN 1 ELSE 0 END) AS free_games",
		"SUM(CASE WHEN price > 0 AND price <= 5 THEN 1 ELSE 0 END) AS under_5",
		"SUM(CASE WHEN price > 5 AND price <= 20 THEN 1 ELSE 0 END) AS between_5_20",
		"SUM(CASE WHEN price > 20 AND price <= 60 THEN 1 ELSE 0 END) AS between_20_60",
		"SUM(CASE WHEN price > 60 THEN 1 ELSE 0 END) AS above_60",
	).From("games")
	sb.Where(sb.IsNotNull("price"))
	return a.first(ctx, sb)
}

// PriceTrendByYear averages paid-game prices per release year since 2000,
// with the difference from the overall paid average.
func (a *Analytics) PriceTrendByYear(ctx context.Context) ([]Row, error) {
	overall := a.newSelect()
	overall.Select("AVG(price)").From("games")
	overall.Where(overall.GreaterThan("price", 0))

	sb := a.newSelect()
	sb.Select(
		"release_year",
		"COUNT(*) AS game_count",
		"ROUND(AVG(price), 2) AS avg_price",
		fmt.Sprintf("ROUND(AVG(price) - (%s), 2) AS diff_from_overall", sb.Var(overall)),
	).From("games")
	sb.Where(
		sb.IsNotNull("release_year"),
		sb.GreaterEqualThan("release_year", 2000),
		sb.GreaterThan("price", 0),
	)
	sb.GroupBy("release_year").OrderBy("release_year")
	return a.query(ctx, sb)
}

// GenreStatistics returns the topN genres by game count.
func (a *Analytics) GenreStatistics(ctx context.Context, topN int) ([]Row, error) {
	sb := a.newSelect()
	sb.Select(
		"g.name AS genre",
		"COUNT(DISTINCT gg.app_id) AS game_count",
		"ROUND(AVG(gm.price), 2) AS avg_price",
		"ROUND(AVG(gm.avg_playtime_forever * 1.0), 0) AS avg_playtime_minutes",
		"ROUND(AVG(gm.positive_reviews * 1.0), 0) AS avg_positive_reviews",
	).
		From("genres g").
		Join("game_genres gg", "g.id = gg.genre_id").
		Join("games gm", "gg.app_id = gm.app_id")
	sb.GroupBy("g.name").OrderBy("game_count DESC", "g.name").Limit(clampLimit(topN))
	return a.query(ctx, sb)
}

// GenrePlaytime ranks genres with at least minGames played games by
// average playtime in hours.
func (a *Analytics) GenrePlaytime(ctx context.Context, minGames int) ([]Row, error) {
	sb := a.newSelect()
	sb.Select(
		"g.name AS genre",
		"COUNT(DISTINCT gg.app_id) AS game_count",
		"ROUND(AVG(gm.avg_playtime_forever * 1.0) / 60, 1) AS avg_playtime_hours",
		"ROUND(AVG(gm.price), 2) AS avg_price",
	).
		From("genres g").
		Join("game_genres gg", "g.id = gg.genre_id").
		Join("games gm", "gg.app_id = gm.app_id")
	sb.Where(sb.GreaterThan("gm.avg_playtime_forever", 0))
	sb.GroupBy("g.name")
	sb.Having(sb.GreaterEqualThan("COUNT(DISTINCT gg.app_id)", minGames))
	sb.OrderBy("avg_playtime_hours DESC", "g.name").Limit(MaxLimit)
	return a.query(ctx, sb)
}

// PlatformReviews compares review averages for Windows-only, Mac and Linux
// games. Each row carries a "platform" key.
func (a *Analytics) PlatformReviews(ctx context.Context) ([]Row, error) {
	groups := []struct {
		label string
		where func(*selectBuilder) []string
	}{
		{"windows_only", func(sb *selectBuilder) []string {
			return []string{sb.Equal("windows", true), sb.Equal("mac", false), sb.Equal("linux", false)}
		}},
		{"mac_support", func(sb *selectBuilder) []string { return []string{sb.Equal("mac", true)} }},
		{"linux_support", func(sb *selectBuilder) []string { return []string{sb.Equal("linux", true)} }},
	}
	out := make([]Row, 0, len(groups))
	for _, g := range groups {
		sb := a.newSelect()
		sb.Select(
			"COUNT(*) AS game_count",
			"ROUND(AVG(positive_reviews * 1.0), 0) AS avg_positive",
			"ROUND(AVG(negative_reviews * 1.0), 0) AS avg_negative",
			ratioExpr+" AS positive_ratio",
		).From("games")
		sb.Where(g.where(sb)...)
		r, err := a.first(ctx, sb)
		if err != nil {
			return nil, err
		}
		r["platform"] = g.label
		out = append(out, r)
	}
	return out, nil
}

// DatasetSummary merges headline counts, paid-game averages and the
// number of distinct genres into one row.
func (a *Analytics) DatasetSummary(ctx context.Context) (Row, error) {
	counts := a.newSelect()
	counts.Select(
		"COUNT(*) AS total_games",
		"SUM(CASE WHEN price = 0 THEN 1 ELSE 0 END) AS free_games",
		fmt.Sprintf("SUM(CASE WHEN windows = %s THEN 1 ELSE 0 END) AS windows_games", counts.Var(true)),
		fmt.Sprintf("SUM(CASE WHEN mac = %s THEN 1 ELSE 0 END) AS mac_games", counts.Var(true)),
		fmt.Sprintf("SUM(CASE WHEN linux = %s THEN 1 ELSE 0 END) AS linux_games", counts.Var(true)),
		"MIN(release_year) AS earliest_year",
		"MAX(release_year) AS latest_year",
	).From("games")

	avgs := a.newSelect()
	avgs.Select(
		"ROUND(AVG(price), 2) AS avg_price",
		"ROUND(AVG(positive_reviews * 1.0), 0) AS avg_positive_reviews",
		"ROUND(AVG(negative_reviews * 1.0), 0) AS avg_negative_reviews",
		"ROUND(AVG(avg_playtime_forever * 1.0) / 60, 1) AS avg_playtime_hours",
		"ROUND(AVG(metacritic_score * 1.0), 0) AS avg_metacritic",
	).From("games")
	avgs.Where(avgs.GreaterThan("price", 0))

	genres := a.newSelect()
	genres.Select("COUNT(DISTINCT name) AS total_genres").From("genres")

	out := Row{}
	for _, sb := range []*selectBuilder{counts, avgs, genres} {
		r, err := a.first(ctx, sb)
		if err != nil {
			return nil, err
		}
		for k, v := range r {
			out[k] = v
		}
	}
	return out, nil
}

// first returns the first row of sb, or an empty Row.
func (a *Analytics) first(ctx context.Context, sb *selectBuilder) (Row, error) {
	rows, err := a.query(ctx, sb)
	if err != nil || len(rows) == 0 {
		return Row{}, err
	}
	return rows[0], nil
}
