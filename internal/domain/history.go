package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// HistoryEntry is a named, saved copy of an analysis result.
type HistoryEntry struct {
	id       string
	name     string
	savedAt  time.Time
	snapshot AnalysisResult
}

// NewHistoryEntry builds an entry owning an independent copy of snapshot.
// The name is trimmed; a blank name fails with ErrEmptyName. Duplicate names
// are allowed.
func NewHistoryEntry(id, name string, savedAt time.Time, snapshot AnalysisResult) (HistoryEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return HistoryEntry{}, ErrEmptyName
	}
	if strings.TrimSpace(id) == "" {
		return HistoryEntry{}, fmt.Errorf("%w: id is required", ErrInvalidEntry)
	}
	if snapshot.IsZero() {
		return HistoryEntry{}, fmt.Errorf("%w: snapshot is empty", ErrInvalidEntry)
	}
	if id == snapshot.ID() {
		return HistoryEntry{}, fmt.Errorf("%w: id %q collides with its snapshot id", ErrInvalidEntry, id)
	}
	return HistoryEntry{
		id:       id,
		name:     name,
		savedAt:  savedAt.UTC(),
		snapshot: snapshot.Clone(),
	}, nil
}

func (e HistoryEntry) ID() string         { return e.id }
func (e HistoryEntry) Name() string       { return e.name }
func (e HistoryEntry) SavedAt() time.Time { return e.savedAt }

// Snapshot returns a copy of the saved result.
func (e HistoryEntry) Snapshot() AnalysisResult { return e.snapshot.Clone() }

// IsZero reports whether e was never built by NewHistoryEntry.
func (e HistoryEntry) IsZero() bool { return e.id == "" }

type historyWire struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	SavedAt  time.Time      `json:"savedAt"`
	Snapshot AnalysisResult `json:"data"`
}

// MarshalJSON encodes e as {id, name, savedAt, data}.
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(historyWire{ID: e.id, Name: e.name, SavedAt: e.savedAt, Snapshot: e.snapshot})
}

// UnmarshalJSON decodes and validates an entry.
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var w historyWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	entry, err := NewHistoryEntry(w.ID, w.Name, w.SavedAt, w.Snapshot)
	if err != nil {
		return err
	}
	*e = entry
	return nil
}
