// Package ident generates the opaque identifiers carried by scans and
// history entries.
package ident

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces time-sortable RFC 9562 UUID v7 strings.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Scan returns the generator used for analysis result IDs ("scan_...").
func Scan() Generator { return Prefixed("scan_", UUIDv7()) }

// History returns the generator used for history entry IDs ("history_...").
// The prefix keeps history IDs disjoint from scan IDs.
func History() Generator { return Prefixed("history_", UUIDv7()) }

// Sequence returns a deterministic Generator ("<prefix>1", "<prefix>2", ...)
// for tests and reproducible demos.
func Sequence(prefix string) Generator {
	var n atomic.Int64
	return func() string {
		return prefix + strconv.FormatInt(n.Add(1), 10)
	}
}
