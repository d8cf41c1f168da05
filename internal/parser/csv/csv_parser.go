// Package csv parses a delimited file with a header row into a
// memory-resident Table whose records are addressed by header name.
//
// Parsing is tolerant: missing trailing fields read as blank, extra fields
// are ignored, and rows the reader cannot tokenize are skipped and counted.
// Only I/O failures and a missing header abort the parse.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// maxSkipReasons bounds Table.SkipReasons.
const maxSkipReasons = 20

// Options configures the parser. The zero value reads comma-separated input.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune
}

// Table is a fully parsed input.
type Table struct {
	Headers []string
	Records []Record

	// Skipped counts rows dropped because they could not be tokenized.
	Skipped     int
	SkipReasons []string

	// Ragged counts rows whose field count differs from the header.
	Ragged int
}

// Record is one data row. Line is the 1-based source line the row starts on.
type Record struct {
	Line   int
	fields []string
	index  map[string]int
}

// Get returns the cell under header. Absent headers, short rows and blank
// cells all report false.
func (r Record) Get(header string) (string, bool) {
	i, ok := r.index[header]
	if !ok || i >= len(r.fields) {
		return "", false
	}
	v := r.fields[i]
	if v == "" {
		return "", false
	}
	return v, true
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads the header and every data row from r.
func (p *Parser) Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(decodeReader(r))
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	h, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("read csv header: empty input")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}
	headers, index := normalizeHeaders(h)

	t := &Table{Headers: headers}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, errors.Wrapf(err, "read csv row after %d records", len(t.Records))
			}
			t.Skipped++
			if len(t.SkipReasons) < maxSkipReasons {
				t.SkipReasons = append(t.SkipReasons, fmt.Sprintf("line %d: %v", perr.StartLine, perr.Err))
			}
			continue
		}
		if len(row) != len(headers) {
			t.Ragged++
		}
		line, _ := cr.FieldPos(0)
		t.Records = append(t.Records, Record{Line: line, fields: row, index: index})
	}
	return t, nil
}

// normalizeHeaders trims header cells and builds the name index. When a
// name repeats, the first column keeps it.
func normalizeHeaders(h []string) ([]string, map[string]int) {
	res := make([]string, len(h))
	index := make(map[string]int, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		res[i] = c
		if c == "" {
			continue
		}
		if _, dup := index[c]; !dup {
			index[c] = i
		}
	}
	return res, index
}
