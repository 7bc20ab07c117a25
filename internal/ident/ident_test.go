package ident

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixedGenerators(t *testing.T) {
	scanID := Scan()()
	historyID := History()()

	assert.True(t, strings.HasPrefix(scanID, "scan_"))
	assert.True(t, strings.HasPrefix(historyID, "history_"))
	assert.NotEqual(t, strings.TrimPrefix(scanID, "scan_"), strings.TrimPrefix(historyID, "history_"))
}

func TestUUIDv7Unique(t *testing.T) {
	gen := UUIDv7()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := gen()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestSequence(t *testing.T) {
	gen := Sequence("h")
	assert.Equal(t, "h1", gen())
	assert.Equal(t, "h2", gen())
	assert.Equal(t, "h3", gen())
}
