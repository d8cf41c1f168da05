package builtin

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBool(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   any
		want bool
	}{
		{nil, false},
		{math.NaN(), false},
		{true, true},
		{false, false},
		{"TRUE", true},
		{"Yes", true},
		{"1", true},
		{"0", false},
		{"no", false},
		{"y", false},
		{"", false},
		{" true", false},
		{1.0, true},
		{2, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Bool(tc.in), "Bool(%#v)", tc.in)
	}
}

func TestInt(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   any
		def  int64
		want int64
	}{
		{"missing", nil, 0, 0},
		{"missing custom default", nil, 7, 7},
		{"nan", math.NaN(), 3, 3},
		{"plain", "42", 0, 42},
		{"float string truncates", "19.99", 0, 19},
		{"negative truncates toward zero", "-2.7", 0, -2},
		{"padded", "  12 ", 0, 12},
		{"garbage", "twelve", 5, 5},
		{"thousands separator", "1,000", 0, 0},
		{"empty", "", 9, 9},
		{"inf", "inf", 4, 4},
		{"overflow", "1e300", 4, 4},
		{"native float", 3.9, 0, 3},
		{"native int", 8, 0, 8},
		{"bool", true, 0, 1},
		{"struct", struct{}{}, 6, 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IntOr(tc.in, tc.def))
		})
	}
	assert.Equal(t, int64(0), Int("x"))
}

func TestFloat(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.0, Float(nil))
	assert.Equal(t, 19.99, Float("19.99"))
	assert.Equal(t, 19.99, Float(" 19.99 "))
	assert.Equal(t, 0.0, Float("free"))
	assert.Equal(t, 1.5, FloatOr("n/a", 1.5))
	assert.Equal(t, 2.5, FloatOr(math.Inf(1), 2.5))
	assert.Equal(t, 2.5, FloatOr("NaN", 2.5))
	assert.Equal(t, 3.0, Float(3))
}

func TestString(t *testing.T) {
	t.Parallel()
	assert.Nil(t, String(nil, 0))
	assert.Nil(t, String(math.NaN(), 10))
	assert.Nil(t, String("   ", 0))

	got := String("  Half-Life  ", 0)
	require.NotNil(t, got)
	assert.Equal(t, "Half-Life", *got)

	got = String("abcdef", 3)
	require.NotNil(t, got)
	assert.Equal(t, "abc", *got)

	got = String("žluťoučký", 4)
	require.NotNil(t, got)
	assert.Equal(t, "žluť", *got, "truncation counts runes, not bytes")

	got = String(1234, 0)
	require.NotNil(t, got)
	assert.Equal(t, "1234", *got)
}
