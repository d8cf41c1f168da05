// Package builtin holds the field-level building blocks used by the row
// mapper and the relationship normalizer: lossy-tolerant coercers, the
// release-date resolver, list-label splitting and duplicate-key tracking.
//
// Coercers accept raw cell values as `any`. nil and floating-point NaN are
// treated as missing. None of them return an error: malformed input degrades
// to the documented default.
package builtin

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// truthy is the closed vocabulary accepted as boolean true.
var truthy = map[string]struct{}{
	"true": {},
	"1":    {},
	"yes":  {},
}

// IsMissing reports whether v is a missing-value marker.
func IsMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// Bool coerces v to a boolean. Missing is false, booleans pass through and
// everything else is compared, lower-cased, against {"true","1","yes"}.
func Bool(v any) bool {
	if IsMissing(v) {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	_, ok := truthy[strings.ToLower(text(v))]
	return ok
}

// Int coerces v to an integer with a default of 0.
func Int(v any) int64 { return IntOr(v, 0) }

// IntOr parses v as a float and truncates it toward zero. Missing,
// unparseable, non-finite and out-of-range values yield def.
func IntOr(v any, def int64) int64 {
	if IsMissing(v) {
		return def
	}
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	}
	f, ok := parseFloat(v)
	if !ok || math.IsInf(f, 0) || math.IsNaN(f) {
		return def
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return def
	}
	return int64(f)
}

// Float coerces v to a float with a default of 0.
func Float(v any) float64 { return FloatOr(v, 0) }

// FloatOr parses v as a float. Missing, unparseable and non-finite values
// yield def; databases reject NaN and Inf in numeric columns.
func FloatOr(v any, def float64) float64 {
	if IsMissing(v) {
		return def
	}
	f, ok := parseFloat(v)
	if !ok || math.IsInf(f, 0) || math.IsNaN(f) {
		return def
	}
	return f
}

func parseFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text(v)), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// String trims v and truncates it to maxLen runes when maxLen > 0.
// Missing values and values that are empty after trimming become nil.
func String(v any, maxLen int) *string {
	if IsMissing(v) {
		return nil
	}
	s := strings.TrimSpace(text(v))
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		s = string([]rune(s)[:maxLen])
	}
	if s == "" {
		return nil
	}
	return &s
}
