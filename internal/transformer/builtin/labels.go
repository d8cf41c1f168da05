package builtin

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultDelimiter separates labels in list columns such as "Genres".
const DefaultDelimiter = ","

// SplitLabels splits a delimited list, trims each token, folds it to NFC
// and drops empty tokens. Repeated labels collapse to their first
// occurrence, so "Action, RPG, Action" yields [Action RPG].
func SplitLabels(list, delim string) []string {
	if delim == "" {
		delim = DefaultDelimiter
	}
	parts := strings.Split(list, delim)
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		l := CanonicalLabel(p)
		if l == "" {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// CanonicalLabel is the stored form of a single label.
func CanonicalLabel(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// LabelSet accumulates distinct labels across many lists, keeping
// first-seen order so lookup inserts are deterministic.
type LabelSet struct {
	order []string
	seen  map[string]struct{}
}

// NewLabelSet returns an empty set.
func NewLabelSet() *LabelSet {
	return &LabelSet{seen: make(map[string]struct{})}
}

// AddList splits list and adds every label, returning how many were new.
func (s *LabelSet) AddList(list, delim string) int {
	n := 0
	for _, l := range SplitLabels(list, delim) {
		if _, ok := s.seen[l]; ok {
			continue
		}
		s.seen[l] = struct{}{}
		s.order = append(s.order, l)
		n++
	}
	return n
}

// Len is the number of distinct labels.
func (s *LabelSet) Len() int { return len(s.order) }

// Labels returns the distinct labels in first-seen order.
func (s *LabelSet) Labels() []string {
	return append([]string(nil), s.order...)
}
