package schema

import (
	"sort"
)

// ColumnMap maps a games column to the source header it is read from.
type ColumnMap map[string]string

// DefaultColumnMap returns the header mapping for the public Steam games
// export.
//
// discount is read from "DiscountDLC count". The export has no discount
// header; that name is kept as-is so existing loads stay reproducible.
// Override "discount" in the columns config once the source is confirmed.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		"app_id":                  "AppID",
		"name":                    "Name",
		"release_date":            "Release date",
		"release_year":            "Release date",
		"estimated_owners":        "Estimated owners",
		"peak_ccu":                "Peak CCU",
		"required_age":            "Required age",
		"price":                   "Price",
		"discount":                "DiscountDLC count",
		"dlc_count":               "DLC count",
		"about_the_game":          "About the game",
		"supported_languages":     "Supported languages",
		"full_audio_languages":    "Full audio languages",
		"reviews":                 "Reviews",
		"header_image":            "Header image",
		"website":                 "Website",
		"support_url":             "Support url",
		"support_email":           "Support email",
		"windows":                 "Windows",
		"mac":                     "Mac",
		"linux":                   "Linux",
		"metacritic_score":        "Metacritic score",
		"metacritic_url":          "Metacritic url",
		"user_score":              "User score",
		"positive_reviews":        "Positive",
		"negative_reviews":        "Negative",
		"score_rank":              "Score rank",
		"achievements":            "Achievements",
		"recommendations":         "Recommendations",
		"notes":                   "Notes",
		"avg_playtime_forever":    "Average playtime forever",
		"avg_playtime_2weeks":     "Average playtime two weeks",
		"median_playtime_forever": "Median playtime forever",
		"median_playtime_2weeks":  "Median playtime two weeks",
		"developers":              "Developers",
		"publishers":              "Publishers",
		"categories":              "Categories",
		"genres":                  "Genres",
		"tags":                    "Tags",
		"screenshots":             "Screenshots",
		"movies":                  "Movies",
	}
}

// Merge returns the defaults with overrides applied. Empty override
// values are ignored.
func (m ColumnMap) Merge(overrides map[string]string) ColumnMap {
	out := make(ColumnMap, len(m)+len(overrides))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range overrides {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Unknown lists keys of m that are not games columns, sorted.
func (m ColumnMap) Unknown() []string {
	known := make(map[string]struct{}, len(Columns))
	for _, c := range Columns {
		known[c] = struct{}{}
	}
	var out []string
	for k := range m {
		if _, ok := known[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
