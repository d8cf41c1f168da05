// Package transformer maps parsed source records onto schema.Product.
//
// Named-field lookup happens exactly once, here. Everything downstream of the
// mapper works with the typed Product struct, never with header names.
//
// Mapping cannot fail: every field goes through one coercer from
// transformer/builtin, and a malformed cell degrades to that coercer's
// default.
package transformer

import (
	"catalogetl/internal/schema"
	"catalogetl/internal/transformer/builtin"
)

// Record is a source row addressed by header name. Get reports false for
// absent columns and blank cells.
type Record interface {
	Get(header string) (string, bool)
}

// Mapper turns source records into products using a column map.
type Mapper struct {
	cols schema.ColumnMap
}

// NewMapper returns a Mapper for cols. A nil map uses schema.DefaultColumnMap.
func NewMapper(cols schema.ColumnMap) *Mapper {
	if cols == nil {
		cols = schema.DefaultColumnMap()
	}
	return &Mapper{cols: cols}
}

// Map converts one record. Columns missing from the record map to their
// coercer defaults.
func (m *Mapper) Map(r Record) schema.Product {
	cell := func(column string) any {
		header, ok := m.cols[column]
		if !ok {
			return nil
		}
		v, ok := r.Get(header)
		if !ok {
			return nil
		}
		return v
	}
	str := func(column string, max int) *string { return builtin.String(cell(column), max) }
	num := func(column string) int64 { return builtin.Int(cell(column)) }

	released := builtin.ResolveDate(cell("release_date"))
	year := released.Year()
	if m.cols["release_year"] != m.cols["release_date"] {
		year = builtin.ResolveDate(cell("release_year")).Year()
	}

	return schema.Product{
		AppID:                 num("app_id"),
		Name:                  str("name", 500),
		ReleaseDate:           released.Canonical(),
		ReleaseYear:           year,
		EstimatedOwners:       str("estimated_owners", 50),
		PeakCCU:               num("peak_ccu"),
		RequiredAge:           num("required_age"),
		Price:                 builtin.Float(cell("price")),
		Discount:              num("discount"),
		DLCCount:              num("dlc_count"),
		AboutTheGame:          str("about_the_game", 0),
		SupportedLanguages:    str("supported_languages", 0),
		FullAudioLanguages:    str("full_audio_languages", 0),
		Reviews:               str("reviews", 0),
		HeaderImage:           str("header_image", 500),
		Website:               str("website", 500),
		SupportURL:            str("support_url", 500),
		SupportEmail:          str("support_email", 200),
		Windows:               builtin.Bool(cell("windows")),
		Mac:                   builtin.Bool(cell("mac")),
		Linux:                 builtin.Bool(cell("linux")),
		MetacriticScore:       num("metacritic_score"),
		MetacriticURL:         str("metacritic_url", 500),
		UserScore:             num("user_score"),
		PositiveReviews:       num("positive_reviews"),
		NegativeReviews:       num("negative_reviews"),
		ScoreRank:             str("score_rank", 50),
		Achievements:          num("achievements"),
		Recommendations:       num("recommendations"),
		Notes:                 str("notes", 0),
		AvgPlaytimeForever:    num("avg_playtime_forever"),
		AvgPlaytime2Weeks:     num("avg_playtime_2weeks"),
		MedianPlaytimeForever: num("median_playtime_forever"),
		MedianPlaytime2Weeks:  num("median_playtime_2weeks"),
		Developers:            str("developers", 0),
		Publishers:            str("publishers", 0),
		Categories:            str("categories", 0),
		Genres:                str("genres", 0),
		Tags:                  str("tags", 0),
		Screenshots:           str("screenshots", 0),
		Movies:                str("movies", 0),
	}
}
