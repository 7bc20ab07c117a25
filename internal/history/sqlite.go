package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vburojevic/mscope/internal/domain"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	id       TEXT NOT NULL UNIQUE,
	name     TEXT NOT NULL,
	saved_at TEXT NOT NULL,
	snapshot TEXT NOT NULL
)`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=10000",
	"PRAGMA synchronous=NORMAL",
}

// SQLite is a durable Store. Reads are served from an in-memory copy loaded
// at open time; appends write through to the database before the copy is
// updated, so a failed insert leaves both unchanged.
type SQLite struct {
	db     *sql.DB
	mem    *Memory
	path   string
	logger *zap.Logger

	// appendMu keeps the in-memory order identical to the insert order.
	appendMu sync.Mutex
}

// OpenSQLite opens (creating if needed) the history database at path and
// loads its entries.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLite, error) {
	o := buildOptions(opts)

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("history: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	// One connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: %s: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: schema: %w", err)
	}

	s := &SQLite{db: db, mem: NewMemory(opts...), path: path, logger: o.logger}
	entries, err := s.Load(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	// Load is most-recent-first; Memory wants oldest first.
	for i := len(entries) - 1; i >= 0; i-- {
		s.mem.entries = append(s.mem.entries, entries[i])
	}
	s.logger.Debug("history loaded", zap.String("path", path), zap.Int("entries", len(entries)))
	return s, nil
}

// Load reads every persisted entry, most recent first.
func (s *SQLite) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, saved_at, snapshot FROM history ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("history: load: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var id, name, savedAt, snapshot string
		if err := rows.Scan(&id, &name, &savedAt, &snapshot); err != nil {
			return nil, fmt.Errorf("history: scan row: %w", err)
		}
		entry, err := decodeRow(id, name, savedAt, snapshot)
		if err != nil {
			return nil, fmt.Errorf("history: entry %s: %w", id, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: load: %w", err)
	}
	return entries, nil
}

func decodeRow(id, name, savedAt, snapshot string) (domain.HistoryEntry, error) {
	ts, err := time.Parse(time.RFC3339Nano, savedAt)
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("saved_at: %w", err)
	}
	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(snapshot), &result); err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("snapshot: %w", err)
	}
	return domain.NewHistoryEntry(id, name, ts, result)
}

// Append inserts entry and then adds it to the in-memory log.
func (s *SQLite) Append(ctx context.Context, entry domain.HistoryEntry) error {
	if entry.IsZero() {
		return fmt.Errorf("%w: zero entry", domain.ErrInvalidEntry)
	}
	snapshot, err := json.Marshal(entry.Snapshot())
	if err != nil {
		return fmt.Errorf("history: encode snapshot: %w", err)
	}

	s.appendMu.Lock()
	defer s.appendMu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO history (id, name, saved_at, snapshot) VALUES (?, ?, ?, ?)`,
		entry.ID(), entry.Name(), entry.SavedAt().Format(time.RFC3339Nano), string(snapshot))
	if err != nil {
		return fmt.Errorf("history: insert %s: %w", entry.ID(), err)
	}
	return s.mem.Append(ctx, entry)
}

// List yields entries most-recent-first.
func (s *SQLite) List() iter.Seq[domain.HistoryEntry] { return s.mem.List() }

// Find returns the entry with id or ErrNotFound.
func (s *SQLite) Find(id string) (domain.HistoryEntry, error) { return s.mem.Find(id) }

// Len returns the number of entries.
func (s *SQLite) Len() int { return s.mem.Len() }

// Path returns the database path.
func (s *SQLite) Path() string { return s.path }

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }
