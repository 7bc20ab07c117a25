package output

import (
	"io"

	"github.com/vburojevic/mscope/internal/domain"
)

// Emitter writes command output in either NDJSON or text, so commands do
// not branch on the format themselves.
type Emitter struct {
	json *NDJSONWriter
	text *TextWriter
}

// NewEmitter returns an emitter for format ("ndjson" or "text").
func NewEmitter(w io.Writer, format string) *Emitter {
	if format == string(FormatText) {
		return &Emitter{text: NewTextWriter(w)}
	}
	return &Emitter{json: NewNDJSONWriter(w)}
}

// JSON reports whether the emitter writes NDJSON.
func (e *Emitter) JSON() bool { return e.json != nil }

func (e *Emitter) Result(r domain.AnalysisResult) error {
	stats := domain.ComputeStatistics(r)
	if e.json != nil {
		if err := e.json.WriteResult(r); err != nil {
			return err
		}
		return e.json.WriteStats(r, stats)
	}
	return e.text.WriteResult(r, stats)
}

func (e *Emitter) History(entries []domain.HistoryEntry) error {
	if e.json != nil {
		for _, entry := range entries {
			if err := e.json.WriteHistorySummary(entry); err != nil {
				return err
			}
		}
		return nil
	}
	return e.text.WriteHistory(entries)
}

func (e *Emitter) HistoryEntry(entry domain.HistoryEntry) error {
	if e.json != nil {
		return e.json.WriteHistoryEntry(entry)
	}
	return e.text.WriteHistoryEntry(entry)
}

func (e *Emitter) Info(msg, path string) error {
	if e.json != nil {
		return e.json.WriteInfo(msg, path)
	}
	return e.text.WriteInfo(msg, path)
}

func (e *Emitter) Warning(msg string) error {
	if e.json != nil {
		return e.json.WriteWarning(msg)
	}
	return e.text.WriteWarning(msg)
}

func (e *Emitter) Error(code, msg string, hint ...string) error {
	if e.json != nil {
		return e.json.WriteError(code, msg, hint...)
	}
	return e.text.WriteError(code, msg, hint...)
}
