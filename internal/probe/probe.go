// Package probe samples a catalog source before a load: it sniffs the
// delimiter, infers a type per header and reports how the headers line up
// with the configured column map.
package probe

import (
	"bufio"
	"context"
	"sort"
	"strconv"
	"strings"

	"catalogetl/internal/datasource"
	"catalogetl/internal/parser/csv"
	"catalogetl/internal/schema"
	"catalogetl/internal/transformer/builtin"

	"github.com/pkg/errors"
)

// DefaultSampleRows bounds type inference when Options.SampleRows is zero.
const DefaultSampleRows = 1000

// candidates are the delimiters considered when sniffing.
var candidates = []rune{',', ';', '\t', '|'}

type Options struct {
	// Comma forces the delimiter. Zero sniffs it from the header line.
	Comma      rune
	SampleRows int
}

// Column describes one source header.
type Column struct {
	Header string `json:"header"`
	// Target is the games column read from this header, empty if none.
	Target string `json:"target,omitempty"`
	// Type is one of integer, boolean, real, date or text.
	Type string `json:"type"`
	// Filled counts non-blank sampled cells.
	Filled int `json:"filled"`
}

type Result struct {
	Location  string   `json:"location"`
	Delimiter string   `json:"delimiter"`
	Rows      int      `json:"rows"`
	Sampled   int      `json:"sampled"`
	Skipped   int      `json:"skipped"`
	Ragged    int      `json:"ragged"`
	Columns   []Column `json:"columns"`
	// Missing lists games columns whose mapped header is absent.
	Missing []string `json:"missing,omitempty"`
}

// Probe reads src and describes it against cm.
func Probe(ctx context.Context, location string, src datasource.Source, cm schema.ColumnMap, opt Options) (*Result, error) {
	if opt.SampleRows <= 0 {
		opt.SampleRows = DefaultSampleRows
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "probe: open source")
	}
	defer rc.Close()

	br := bufio.NewReader(rc)
	comma := opt.Comma
	if comma == 0 {
		head, _ := br.Peek(64 << 10)
		comma = SniffDelimiter(head)
	}

	tbl, err := csv.NewParser(csv.Options{Comma: comma}).Parse(br)
	if err != nil {
		return nil, errors.Wrap(err, "probe: parse")
	}

	res := &Result{
		Location:  location,
		Delimiter: string(comma),
		Rows:      len(tbl.Records),
		Skipped:   tbl.Skipped,
		Ragged:    tbl.Ragged,
	}
	sample := tbl.Records
	if len(sample) > opt.SampleRows {
		sample = sample[:opt.SampleRows]
	}
	res.Sampled = len(sample)

	targets := make(map[string]string, len(cm))
	for col, header := range cm {
		targets[header] = col
	}
	present := make(map[string]bool, len(tbl.Headers))
	for _, h := range tbl.Headers {
		if h == "" || present[h] {
			continue
		}
		present[h] = true
		values := make([]string, 0, len(sample))
		for _, r := range sample {
			if v, ok := r.Get(h); ok {
				values = append(values, v)
			}
		}
		res.Columns = append(res.Columns, Column{
			Header: h,
			Target: targets[h],
			Type:   InferType(values),
			Filled: len(values),
		})
	}
	for col, header := range cm {
		if !present[header] {
			res.Missing = append(res.Missing, col)
		}
	}
	sort.Strings(res.Missing)
	return res, nil
}

// SniffDelimiter picks the candidate that occurs most often outside quotes
// on the first line of sample. Ties and empty input fall back to ','.
func SniffDelimiter(sample []byte) rune {
	line := string(sample)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	counts := make(map[rune]int, len(candidates))
	quoted := false
	for _, r := range line {
		if r == '"' {
			quoted = !quoted
			continue
		}
		if !quoted {
			counts[r]++
		}
	}
	best, n := ',', counts[',']
	for _, c := range candidates[1:] {
		if counts[c] > n {
			best, n = c, counts[c]
		}
	}
	return best
}

// InferType names the narrowest type every value satisfies. Values are
// expected to be non-blank; an empty slice is text.
func InferType(values []string) string {
	if len(values) == 0 {
		return "text"
	}
	switch {
	case allMatch(values, isInt):
		return "integer"
	case allMatch(values, isBool):
		return "boolean"
	case allMatch(values, isFloat):
		return "real"
	case allMatch(values, isDate):
		return "date"
	}
	return "text"
}

func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(strings.TrimSpace(v)) {
			return false
		}
	}
	return true
}

func isBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "t", "f", "yes", "no", "y", "n":
		return true
	}
	return false
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// isDate accepts values the release date resolver matches to the day.
func isDate(s string) bool {
	return builtin.ResolveDate(s).Precision == builtin.PrecisionDay
}
