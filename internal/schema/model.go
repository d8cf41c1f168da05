// Package schema describes the relational shape the pipeline writes: the
// games entity, its source-column mapping and the DDL scripts that create
// the games, lookup and junction tables.
package schema

// GamesTable is the primary entity table.
const GamesTable = "games"

// KeyColumn is the natural key of GamesTable.
const KeyColumn = "app_id"

// Product is one games row. Pointer fields are nullable.
type Product struct {
	AppID                 int64   `db:"app_id"`
	Name                  *string `db:"name"`
	ReleaseDate           *string `db:"release_date"`
	ReleaseYear           *int64  `db:"release_year"`
	EstimatedOwners       *string `db:"estimated_owners"`
	PeakCCU               int64   `db:"peak_ccu"`
	RequiredAge           int64   `db:"required_age"`
	Price                 float64 `db:"price"`
	Discount              int64   `db:"discount"`
	DLCCount              int64   `db:"dlc_count"`
	AboutTheGame          *string `db:"about_the_game"`
	SupportedLanguages    *string `db:"supported_languages"`
	FullAudioLanguages    *string `db:"full_audio_languages"`
	Reviews               *string `db:"reviews"`
	HeaderImage           *string `db:"header_image"`
	Website               *string `db:"website"`
	SupportURL            *string `db:"support_url"`
	SupportEmail          *string `db:"support_email"`
	Windows               bool    `db:"windows"`
	Mac                   bool    `db:"mac"`
	Linux                 bool    `db:"linux"`
	MetacriticScore       int64   `db:"metacritic_score"`
	MetacriticURL         *string `db:"metacritic_url"`
	UserScore             int64   `db:"user_score"`
	PositiveReviews       int64   `db:"positive_reviews"`
	NegativeReviews       int64   `db:"negative_reviews"`
	ScoreRank             *string `db:"score_rank"`
	Achievements          int64   `db:"achievements"`
	Recommendations       int64   `db:"recommendations"`
	Notes                 *string `db:"notes"`
	AvgPlaytimeForever    int64   `db:"avg_playtime_forever"`
	AvgPlaytime2Weeks     int64   `db:"avg_playtime_2weeks"`
	MedianPlaytimeForever int64   `db:"median_playtime_forever"`
	MedianPlaytime2Weeks  int64   `db:"median_playtime_2weeks"`
	Developers            *string `db:"developers"`
	Publishers            *string `db:"publishers"`
	Categories            *string `db:"categories"`
	Genres                *string `db:"genres"`
	Tags                  *string `db:"tags"`
	Screenshots           *string `db:"screenshots"`
	Movies                *string `db:"movies"`
}

// Columns is the insert column order of GamesTable. Values returns
// arguments in the same order.
var Columns = []string{
	"app_id", "name", "release_date", "release_year", "estimated_owners",
	"peak_ccu", "required_age", "price", "discount", "dlc_count",
	"about_the_game", "supported_languages", "full_audio_languages", "reviews",
	"header_image", "website", "support_url", "support_email",
	"windows", "mac", "linux",
	"metacritic_score", "metacritic_url", "user_score",
	"positive_reviews", "negative_reviews", "score_rank",
	"achievements", "recommendations", "notes",
	"avg_playtime_forever", "avg_playtime_2weeks",
	"median_playtime_forever", "median_playtime_2weeks",
	"developers", "publishers", "categories", "genres", "tags",
	"screenshots", "movies",
}

// MutableColumns are overwritten when a row with an existing key is
// ingested again. Every other column keeps its stored value.
var MutableColumns = []string{"name", "price", "positive_reviews", "negative_reviews"}

// Values returns p's fields in Columns order. Nil pointers become SQL NULL.
func (p *Product) Values() []any {
	return []any{
		p.AppID, p.Name, p.ReleaseDate, p.ReleaseYear, p.EstimatedOwners,
		p.PeakCCU, p.RequiredAge, p.Price, p.Discount, p.DLCCount,
		p.AboutTheGame, p.SupportedLanguages, p.FullAudioLanguages, p.Reviews,
		p.HeaderImage, p.Website, p.SupportURL, p.SupportEmail,
		p.Windows, p.Mac, p.Linux,
		p.MetacriticScore, p.MetacriticURL, p.UserScore,
		p.PositiveReviews, p.NegativeReviews, p.ScoreRank,
		p.Achievements, p.Recommendations, p.Notes,
		p.AvgPlaytimeForever, p.AvgPlaytime2Weeks,
		p.MedianPlaytimeForever, p.MedianPlaytime2Weeks,
		p.Developers, p.Publishers, p.Categories, p.Genres, p.Tags,
		p.Screenshots, p.Movies,
	}
}
