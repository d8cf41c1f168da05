package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
)

// RecommendationTiers compares review averages across recommendation
// count tiers, for games with at least one review.
func (a *Analytics) RecommendationTiers(ctx context.Context) ([]Row, error) {
	tiers := a.newSelect()
	tiers.Select(
		`CASE
			WHEN recommendations = 0 THEN '0 recommendations'
			WHEN recommendations BETWEEN 1 AND 100 THEN '1-100 recommendations'
			WHEN recommendations BETWEEN 101 AND 1000 THEN '101-1000 recommendations'
			WHEN recommendations > 1000 THEN '1000+ recommendations'
		END AS recommendation_tier`,
		"positive_reviews",
		"negative_reviews",
	).From("games")
	tiers.Where(tiers.GreaterThan("positive_reviews + negative_reviews", 0))

	sb := a.newSelect()
	sb.Select(
		"recommendation_tier",
		"COUNT(*) AS game_count",
		"ROUND(AVG(positive_reviews * 1.0), 0) AS avg_positive",
		"ROUND(AVG(negative_reviews * 1.0), 0) AS avg_negative",
		ratioExpr+" AS positive_ratio",
	).From(sb.BuilderAs(tiers, "t"))
	sb.GroupBy("recommendation_tier").OrderBy("avg_positive DESC", "recommendation_tier")
	return a.query(ctx, sb)
}

// PublisherRanking ranks publishers with at least minGames reviewed games
// by positive share. Games need ten reviews to count.
func (a *Analytics) PublisherRanking(ctx context.Context, minGames, topN int) ([]Row, error) {
	// SQL Server cannot group on NVARCHAR(MAX).
	publisher := "publishers"
	if a.flavor == sqlbuilder.SQLServer {
		publisher = "CAST(publishers AS NVARCHAR(450))"
	}

	sb := a.newSelect()
	sb.Select(
		publisher+" AS publishers",
		"COUNT(*) AS game_count",
		"ROUND(AVG(positive_reviews * 1.0), 0) AS avg_positive",
		"ROUND(AVG(negative_reviews * 1.0), 0) AS avg_negative",
		ratioExpr+" AS positive_ratio",
		"ROUND(AVG(price), 2) AS avg_price",
	).From("games")
	sb.Where(
		sb.IsNotNull("publishers"),
		sb.NotEqual("publishers", ""),
		sb.GreaterEqualThan("positive_reviews + negative_reviews", 10),
	)
	sb.GroupBy(publisher)
	sb.Having(sb.GreaterEqualThan("COUNT(*)", minGames))
	sb.OrderBy("positive_ratio DESC", "avg_positive DESC").Limit(clampLimit(topN))
	return a.query(ctx, sb)
}

// DiscountByAge groups games released after 2000 by age relative to now
// and compares their discounts.
func (a *Analytics) DiscountByAge(ctx context.Context, now time.Time) ([]Row, error) {
	groups := a.newSelect()
	age := fmt.Sprintf("(%s - release_year)", groups.Var(now.Year()))
	groups.Select(
		fmt.Sprintf(`CASE
			WHEN %[1]s = 0 THEN 'New (this year)'
			WHEN %[1]s BETWEEN 1 AND 2 THEN '1-2 years old'
			WHEN %[1]s BETWEEN 3 AND 5 THEN '3-5 years old'
			WHEN %[1]s > 5 THEN '5+ years old'
		END AS age_group`, age),
		"discount",
		"price",
	).From("games")
	groups.Where(
		groups.IsNotNull("release_year"),
		groups.GreaterThan("release_year", 2000),
	)

	sb := a.newSelect()
	sb.Select(
		"age_group",
		"COUNT(*) AS game_count",
		"ROUND(AVG(discount * 1.0), 1) AS avg_discount",
		"SUM(CASE WHEN discount > 50 THEN 1 ELSE 0 END) AS large_discounts",
		"ROUND(AVG(price), 2) AS avg_price",
	).From(sb.BuilderAs(groups, "t"))
	sb.GroupBy("age_group").OrderBy("avg_discount DESC", "age_group")
	return a.query(ctx, sb)
}
