package analytics

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// SearchFilter narrows SearchGames. Zero fields do not filter.
type SearchFilter struct {
	// Name matches a substring of the game name.
	Name string
	// Genre matches a normalized genre label exactly.
	Genre       string
	MinPrice    *float64
	MaxPrice    *float64
	MinPositive *int64
	// Platform is windows, mac or linux.
	Platform string
	// Limit defaults to DefaultLimit and is capped at MaxLimit.
	Limit int
}

var platforms = map[string]string{"windows": "windows", "mac": "mac", "linux": "linux"}

// SearchGames lists games matching f, most positively reviewed first.
func (a *Analytics) SearchGames(ctx context.Context, f SearchFilter) ([]Row, error) {
	sb := a.newSelect()
	sb.Select("app_id", "name", "release_date", "price", "positive_reviews", "negative_reviews",
		"genres", "developers", "publishers", "windows", "mac", "linux").
		From("games")

	var where []string
	if f.Name != "" {
		where = append(where, sb.Like("name", "%"+f.Name+"%"))
	}
	if f.Genre != "" {
		sub := a.newSelect()
		sub.Select("gg.app_id").
			From("game_genres gg").
			Join("genres g", "g.id = gg.genre_id").
			Where(sub.Equal("g.name", f.Genre))
		where = append(where, sb.In("app_id", sub))
	}
	if f.MinPrice != nil {
		where = append(where, sb.GreaterEqualThan("price", *f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, sb.LessEqualThan("price", *f.MaxPrice))
	}
	if f.MinPositive != nil {
		where = append(where, sb.GreaterEqualThan("positive_reviews", *f.MinPositive))
	}
	if f.Platform != "" {
		col, ok := platforms[strings.ToLower(f.Platform)]
		if !ok {
			return nil, errors.Errorf("analytics: unknown platform %q", f.Platform)
		}
		where = append(where, sb.Equal(col, true))
	}
	if len(where) > 0 {
		sb.Where(where...)
	}
	sb.OrderBy("positive_reviews").Desc().Limit(clampLimit(f.Limit))
	return a.query(ctx, sb)
}

// GameDetails returns every column of one game.
func (a *Analytics) GameDetails(ctx context.Context, appID int64) (Row, error) {
	sb := a.newSelect()
	sb.Select("*").From("games").Where(sb.Equal("app_id", appID))
	rows, err := a.query(ctx, sb)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "app_id=%d", appID)
	}
	return rows[0], nil
}

// TopRated ranks games with at least minReviews reviews by positive share,
// optionally within one genre.
func (a *Analytics) TopRated(ctx context.Context, minReviews int64, genre string, limit int) ([]Row, error) {
	sb := a.newSelect()
	sb.Select("app_id", "name", "release_year", "price", "genres", "positive_reviews", "negative_reviews",
		"ROUND(positive_reviews * 100.0 / (positive_reviews + negative_reviews), 1) AS positive_ratio",
		"developers", "publishers").
		From("games")
	where := []string{sb.GreaterEqualThan("positive_reviews + negative_reviews", minReviews)}
	if minReviews <= 0 {
		where = []string{sb.GreaterThan("positive_reviews + negative_reviews", 0)}
	}
	if genre != "" {
		sub := a.newSelect()
		sub.Select("gg.app_id").
			From("game_genres gg").
			Join("genres g", "g.id = gg.genre_id").
			Where(sub.Equal("g.name", genre))
		where = append(where, sb.In("app_id", sub))
	}
	sb.Where(where...)
	sb.OrderBy("positive_ratio DESC", "positive_reviews DESC").Limit(clampLimit(limit))
	return a.query(ctx, sb)
}
