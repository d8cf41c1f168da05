package builtin

import (
	"github.com/zeebo/xxh3"
)

// DupTracker watches natural keys as rows stream past and reports keys seen
// more than once. A repeated key whose row content differs from the previous
// occurrence is a conflicting duplicate: the later row wins on upsert, so the
// earlier values for the mutable columns are lost.
//
// Only a 64-bit fingerprint per key is retained.
type DupTracker struct {
	last        map[int64]uint64
	duplicates  int
	conflicting int
}

// NewDupTracker returns a tracker with no keys seen.
func NewDupTracker() *DupTracker {
	return &DupTracker{last: make(map[int64]uint64)}
}

// Observe records key with a fingerprint of its row content.
// It returns true when key was already seen.
func (d *DupTracker) Observe(key int64, content []byte) bool {
	fp := xxh3.Hash(content)
	prev, ok := d.last[key]
	d.last[key] = fp
	if !ok {
		return false
	}
	d.duplicates++
	if prev != fp {
		d.conflicting++
	}
	return true
}

// Duplicates is the number of rows whose key was seen before.
func (d *DupTracker) Duplicates() int { return d.duplicates }

// Conflicting is the subset of Duplicates whose content changed.
func (d *DupTracker) Conflicting() int { return d.conflicting }
