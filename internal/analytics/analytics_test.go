package analytics_test

import (
	"context"
	"testing"
	"time"

	"catalogetl/internal/analytics"
	"catalogetl/internal/normalize"
	"catalogetl/internal/schema"
	"catalogetl/internal/storage"
	_ "catalogetl/internal/storage/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type game struct {
	id              int64
	name            string
	price           float64
	year            int
	pos, neg        int
	win, mac, linux int
	genres          string
	playtime        int
	recommendations int
	discount        int
	publisher       string
}

var catalog = []game{
	{1, "Alpha", 9.99, 2020, 90, 10, 1, 1, 0, "Action, RPG", 120, 50, 60, "Acme"},
	{2, "Beta", 0, 2021, 10, 10, 1, 0, 0, "Action", 0, 0, 0, "Acme"},
	{3, "Gamma", 4.5, 2020, 300, 0, 1, 0, 1, "RPG, Indie", 600, 5000, 20, "Indie Co"},
}

func seeded(t *testing.T) *analytics.Analytics {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.Config{Kind: "sqlite", Database: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	script, err := schema.Script("sqlite")
	require.NoError(t, err)
	_, err = schema.Apply(ctx, db, script)
	require.NoError(t, err)

	for _, g := range catalog {
		_, err := db.ExecContext(ctx, `INSERT INTO games
			(app_id, name, price, release_year, positive_reviews, negative_reviews, windows, mac, linux, genres, avg_playtime_forever,
			 recommendations, discount, publishers)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.id, g.name, g.price, g.year, g.pos, g.neg, g.win, g.mac, g.linux, g.genres, g.playtime,
			g.recommendations, g.discount, g.publisher)
		require.NoError(t, err)
	}
	genres := normalize.Relation{Name: "genres", Column: "genres", LookupTable: "genres", JunctionTable: "game_genres", FKColumn: "genre_id", Delimiter: ","}
	_, err = normalize.New(db, []normalize.Relation{genres}, nil).Run(ctx)
	require.NoError(t, err)
	return analytics.New(db)
}

func names(rows []analytics.Row, key string) []any {
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, r[key])
	}
	return out
}

func TestSearchGames(t *testing.T) {
	ctx := context.Background()
	a := seeded(t)
	one, five := 1.0, 5.0

	tests := []struct {
		name   string
		filter analytics.SearchFilter
		want   []any
	}{
		{"no filter ranks by positive reviews", analytics.SearchFilter{}, []any{"Gamma", "Alpha", "Beta"}},
		{"name substring", analytics.SearchFilter{Name: "mm"}, []any{"Gamma"}},
		{"genre through junction", analytics.SearchFilter{Genre: "Action"}, []any{"Alpha", "Beta"}},
		{"platform", analytics.SearchFilter{Platform: "Linux"}, []any{"Gamma"}},
		{"min price", analytics.SearchFilter{MinPrice: &one}, []any{"Gamma", "Alpha"}},
		{"min price above cheaper game", analytics.SearchFilter{MinPrice: &five}, []any{"Alpha"}},
		{"max price", analytics.SearchFilter{MaxPrice: &five}, []any{"Gamma", "Beta"}},
		{"price range", analytics.SearchFilter{MinPrice: &one, MaxPrice: &five}, []any{"Gamma"}},
		{"limit", analytics.SearchFilter{Limit: 1}, []any{"Gamma"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := a.SearchGames(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(rows, "name"))
		})
	}

	_, err := a.SearchGames(ctx, analytics.SearchFilter{Platform: "amiga"})
	assert.Error(t, err)
}

func TestGameDetails(t *testing.T) {
	ctx := context.Background()
	a := seeded(t)

	r, err := a.GameDetails(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", r["name"])
	assert.EqualValues(t, 2020, r["release_year"])

	_, err = a.GameDetails(ctx, 99)
	assert.ErrorIs(t, err, analytics.ErrNotFound)
}

func TestTopRated(t *testing.T) {
	ctx := context.Background()
	a := seeded(t)

	rows, err := a.TopRated(ctx, 50, "", 10)
	require.NoError(t, err)
	assert.Equal(t, []any{"Gamma", "Alpha"}, names(rows, "name"))
	assert.InDelta(t, 100.0, rows[0]["positive_ratio"], 0.001)
	assert.InDelta(t, 90.0, rows[1]["positive_ratio"], 0.001)

	rows, err = a.TopRated(ctx, 0, "Action", 10)
	require.NoError(t, err)
	assert.Equal(t, []any{"Alpha", "Beta"}, names(rows, "name"))
}

func TestPriceStatistics(t *testing.T) {
	r, err := seeded(t).PriceStatistics(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, r["total_games"])
	assert.EqualValues(t, 1, r["free_games"])
	assert.EqualValues(t, 1, r["under_5"])
	assert.EqualValues(t, 1, r["between_5_20"])
	assert.EqualValues(t, 0, r["above_60"])
	assert.InDelta(t, 9.99, r["max_price"], 0.001)
}

func TestPriceTrendByYear(t *testing.T) {
	rows, err := seeded(t).PriceTrendByYear(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 2020, rows[0]["release_year"])
	assert.EqualValues(t, 2, rows[0]["game_count"])
	assert.InDelta(t, 0.0, rows[0]["diff_from_overall"], 0.01)
}

func TestGenreStatistics(t *testing.T) {
	ctx := context.Background()
	a := seeded(t)

	rows, err := a.GenreStatistics(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []any{"Action", "RPG", "Indie"}, names(rows, "genre"))
	assert.Equal(t, []any{int64(2), int64(2), int64(1)}, names(rows, "game_count"))

	rows, err = a.GenreStatistics(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestGenrePlaytime(t *testing.T) {
	rows, err := seeded(t).GenrePlaytime(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []any{"Indie", "RPG", "Action"}, names(rows, "genre"))
	assert.InDelta(t, 10.0, rows[0]["avg_playtime_hours"], 0.001)
	assert.InDelta(t, 6.0, rows[1]["avg_playtime_hours"], 0.001)
}

func TestPlatformReviews(t *testing.T) {
	rows, err := seeded(t).PlatformReviews(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []any{"windows_only", "mac_support", "linux_support"}, names(rows, "platform"))
	for _, r := range rows {
		assert.EqualValues(t, 1, r["game_count"], r["platform"])
	}
	assert.InDelta(t, 50.0, rows[0]["positive_ratio"], 0.001)
}

func TestDatasetSummary(t *testing.T) {
	r, err := seeded(t).DatasetSummary(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, r["total_games"])
	assert.EqualValues(t, 1, r["free_games"])
	assert.EqualValues(t, 3, r["windows_games"])
	assert.EqualValues(t, 1, r["mac_games"])
	assert.EqualValues(t, 1, r["linux_games"])
	assert.EqualValues(t, 2020, r["earliest_year"])
	assert.EqualValues(t, 2021, r["latest_year"])
	assert.EqualValues(t, 3, r["total_genres"])
	assert.InDelta(t, 7.25, r["avg_price"], 0.02)
}

func TestRecommendationTiers(t *testing.T) {
	rows, err := seeded(t).RecommendationTiers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{"1000+ recommendations", "1-100 recommendations", "0 recommendations"},
		names(rows, "recommendation_tier"))
	assert.InDelta(t, 90.0, rows[1]["positive_ratio"], 0.001)
	assert.InDelta(t, 50.0, rows[2]["positive_ratio"], 0.001)
}

func TestPublisherRanking(t *testing.T) {
	ctx := context.Background()
	a := seeded(t)

	rows, err := a.PublisherRanking(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []any{"Indie Co", "Acme"}, names(rows, "publishers"))
	assert.InDelta(t, 100.0, rows[0]["positive_ratio"], 0.001)
	assert.InDelta(t, 83.3, rows[1]["positive_ratio"], 0.001)

	rows, err = a.PublisherRanking(ctx, 2, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0]["publishers"])
	assert.EqualValues(t, 2, rows[0]["game_count"])
}

func TestDiscountByAge(t *testing.T) {
	ctx := context.Background()
	a := seeded(t)

	rows, err := a.DiscountByAge(ctx, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []any{"3-5 years old", "1-2 years old"}, names(rows, "age_group"))
	assert.EqualValues(t, 2, rows[0]["game_count"])
	assert.InDelta(t, 40.0, rows[0]["avg_discount"], 0.001)
	assert.EqualValues(t, 1, rows[0]["large_discounts"])
	assert.InDelta(t, 7.25, rows[0]["avg_price"], 0.02)
	assert.EqualValues(t, 0, rows[1]["large_discounts"])

	rows, err = a.DiscountByAge(ctx, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []any{"1-2 years old", "New (this year)"}, names(rows, "age_group"))
}
