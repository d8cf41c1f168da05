package builtin

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Precision tells how much of a resolved Date came from the source text.
type Precision int

const (
	// PrecisionNone means nothing usable was found.
	PrecisionNone Precision = iota
	// PrecisionYear means only a year was found; the date is January 1st.
	PrecisionYear
	// PrecisionDay means a full layout matched.
	PrecisionDay
)

func (p Precision) String() string {
	switch p {
	case PrecisionYear:
		return "year"
	case PrecisionDay:
		return "day"
	default:
		return "none"
	}
}

// CanonicalLayout is the storage form of a resolved date.
const CanonicalLayout = "2006-01-02"

// dateLayouts are tried in order; the first full match wins.
var dateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-1-2",
	"2 Jan, 2006",
}

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// yearToken returns the first year in s that is not glued to a letter,
// digit or underscore on either side. RE2's \b only knows ASCII, so
// "2019年" would match it; here it does not.
func yearToken(s string) string {
	for i := 0; i < len(s); {
		loc := yearPattern.FindStringIndex(s[i:])
		if loc == nil {
			return ""
		}
		start, end := i+loc[0], i+loc[1]
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return s[start:end]
		}
		i = start + 1
	}
	return ""
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Date is the result of ResolveDate.
type Date struct {
	Time      time.Time
	Precision Precision
}

// Valid reports whether any date was resolved.
func (d Date) Valid() bool { return d.Precision != PrecisionNone }

// Canonical returns the date as YYYY-MM-DD, or nil.
func (d Date) Canonical() *string {
	if !d.Valid() {
		return nil
	}
	s := d.Time.Format(CanonicalLayout)
	return &s
}

// Year returns the calendar year, or nil.
func (d Date) Year() *int64 {
	if !d.Valid() {
		return nil
	}
	y := int64(d.Time.Year())
	return &y
}

// ResolveDate degrades in three tiers: a full match against dateLayouts,
// then January 1st of the first 19xx/20xx year token, then nothing.
func ResolveDate(v any) Date {
	if IsMissing(v) {
		return Date{}
	}
	s := strings.TrimSpace(text(v))
	if s == "" {
		return Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t, Precision: PrecisionDay}
		}
	}
	if m := yearToken(s); m != "" {
		t, err := time.Parse("2006", m)
		if err == nil {
			return Date{Time: t, Precision: PrecisionYear}
		}
	}
	return Date{}
}
