// Package history keeps the ordered log of saved analysis results.
//
// The log is append-only and ordered most-recently-saved first. Memory is
// the process-lifetime store; SQLite wraps it with write-through
// persistence so the log survives restarts.
package history

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/vburojevic/mscope/internal/domain"
	"go.uber.org/zap"
)

// Store is the append/list/find contract the session relies on.
type Store interface {
	// Append adds entry at the front of the log.
	Append(ctx context.Context, entry domain.HistoryEntry) error
	// List yields entries most-recent-first. The sequence is restartable:
	// ranging over it again re-reads the store.
	List() iter.Seq[domain.HistoryEntry]
	// Find returns the entry with the given ID or ErrNotFound.
	Find(id string) (domain.HistoryEntry, error)
	// Len returns the number of entries.
	Len() int
}

// Memory is an in-memory Store, safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry // oldest first; List walks it backwards
	logger  *zap.Logger
}

// Option configures a store.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the store's logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	o := buildOptions(opts)
	return &Memory{logger: o.logger}
}

// Append adds entry at the front of the log. It fails only for entries that
// were not built by domain.NewHistoryEntry.
func (m *Memory) Append(_ context.Context, entry domain.HistoryEntry) error {
	if entry.IsZero() {
		return fmt.Errorf("%w: zero entry", domain.ErrInvalidEntry)
	}
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	n := len(m.entries)
	m.mu.Unlock()

	m.logger.Debug("history entry appended",
		zap.String("id", entry.ID()),
		zap.String("name", entry.Name()),
		zap.Int("entries", n))
	return nil
}

// List yields a point-in-time view of the log, most recent first.
func (m *Memory) List() iter.Seq[domain.HistoryEntry] {
	return func(yield func(domain.HistoryEntry) bool) {
		m.mu.RLock()
		snapshot := slices.Clone(m.entries)
		m.mu.RUnlock()

		for i := len(snapshot) - 1; i >= 0; i-- {
			if !yield(snapshot[i]) {
				return
			}
		}
	}
}

// Find scans the log for id.
func (m *Memory) Find(id string) (domain.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].ID() == id {
			return m.entries[i], nil
		}
	}
	return domain.HistoryEntry{}, fmt.Errorf("%w: %q", domain.ErrNotFound, id)
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Entries collects s into a slice.
func Entries(s Store) []domain.HistoryEntry {
	return slices.Collect(s.List())
}
