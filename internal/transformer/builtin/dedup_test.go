package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDupTracker(t *testing.T) {
	t.Parallel()
	d := NewDupTracker()
	assert.False(t, d.Observe(10, []byte("a")))
	assert.False(t, d.Observe(20, []byte("a")))
	assert.True(t, d.Observe(10, []byte("a")))
	assert.True(t, d.Observe(10, []byte("b")))
	assert.Equal(t, 2, d.Duplicates())
	assert.Equal(t, 1, d.Conflicting())
}
