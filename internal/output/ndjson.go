package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/vburojevic/mscope/internal/domain"
)

// NDJSONWriter writes records as NDJSON
type NDJSONWriter struct {
	w       io.Writer
	encoder *json.Encoder
}

// NewNDJSONWriter creates a new NDJSON writer
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false) // image refs are URLs
	return &NDJSONWriter{
		w:       w,
		encoder: enc,
	}
}

// ResultOutput wraps an analysis result
type ResultOutput struct {
	Type          string                `json:"type"` // Always "result"
	SchemaVersion int                   `json:"schemaVersion"`
	Result        domain.AnalysisResult `json:"result"`
}

// StatsOutput carries the derived percentage distribution of a result
type StatsOutput struct {
	Type          string         `json:"type"` // Always "stats"
	SchemaVersion int            `json:"schemaVersion"`
	ResultID      string         `json:"resultId"`
	Total         int            `json:"total"`
	Shares        []domain.Share `json:"shares"`
	PercentSum    int            `json:"percentSum"`
}

// HistoryOutput is one saved entry
type HistoryOutput struct {
	Type          string              `json:"type"` // Always "history"
	SchemaVersion int                 `json:"schemaVersion"`
	Entry         domain.HistoryEntry `json:"entry"`
}

// HistorySummaryOutput lists a saved entry without its snapshot
type HistorySummaryOutput struct {
	Type          string `json:"type"` // Always "history_entry"
	SchemaVersion int    `json:"schemaVersion"`
	ID            string `json:"id"`
	Name          string `json:"name"`
	SavedAt       string `json:"savedAt"`
	ResultID      string `json:"resultId"`
	Total         int    `json:"totalOrganisms"`
}

// StateOutput describes the session state
type StateOutput struct {
	Type          string `json:"type"` // Always "state"
	SchemaVersion int    `json:"schemaVersion"`
	Phase         string `json:"phase"`
	Page          string `json:"page"`
	Subview       string `json:"subview"`
	CurrentID     string `json:"currentId,omitempty"`
	Saving        bool   `json:"saving"`
	Scanning      bool   `json:"scanning"`
	HistoryCount  int    `json:"historyCount"`
}

// ErrorOutput represents a structured error for NDJSON output
type ErrorOutput struct {
	Type          string `json:"type"` // Always "error"
	SchemaVersion int    `json:"schemaVersion"`
	Code          string `json:"code"`    // Machine-readable error code
	Message       string `json:"message"` // Human-readable message
	Hint          string `json:"hint,omitempty"`
}

// InfoOutput represents an informational message
type InfoOutput struct {
	Type          string `json:"type"` // Always "info"
	SchemaVersion int    `json:"schemaVersion"`
	Message       string `json:"message"`
	Path          string `json:"path,omitempty"`
}

// WarningOutput represents a warning message
type WarningOutput struct {
	Type          string `json:"type"` // Always "warning"
	SchemaVersion int    `json:"schemaVersion"`
	Message       string `json:"message"`
}

// MetadataOutput describes build metadata
type MetadataOutput struct {
	Type          string `json:"type"` // Always "metadata"
	SchemaVersion int    `json:"schemaVersion"`
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	BuildDate     string `json:"build_date,omitempty"`
}

// NewStatsOutput builds the stats record for r.
func NewStatsOutput(r domain.AnalysisResult, stats domain.Statistics) *StatsOutput {
	return &StatsOutput{
		Type:          "stats",
		SchemaVersion: SchemaVersion,
		ResultID:      r.ID(),
		Total:         stats.Total,
		Shares:        stats.Shares,
		PercentSum:    stats.PercentSum(),
	}
}

// NewHistorySummary builds the listing record for e.
func NewHistorySummary(e domain.HistoryEntry) *HistorySummaryOutput {
	snap := e.Snapshot()
	return &HistorySummaryOutput{
		Type:          "history_entry",
		SchemaVersion: SchemaVersion,
		ID:            e.ID(),
		Name:          e.Name(),
		SavedAt:       e.SavedAt().Format(time.RFC3339),
		ResultID:      snap.ID(),
		Total:         snap.TotalOrganisms(),
	}
}

// WriteResult outputs an analysis result
func (w *NDJSONWriter) WriteResult(r domain.AnalysisResult) error {
	return w.encoder.Encode(&ResultOutput{
		Type:          "result",
		SchemaVersion: SchemaVersion,
		Result:        r,
	})
}

// WriteStats outputs the percentage distribution of r
func (w *NDJSONWriter) WriteStats(r domain.AnalysisResult, stats domain.Statistics) error {
	return w.encoder.Encode(NewStatsOutput(r, stats))
}

// WriteHistoryEntry outputs a saved entry including its snapshot
func (w *NDJSONWriter) WriteHistoryEntry(e domain.HistoryEntry) error {
	return w.encoder.Encode(&HistoryOutput{
		Type:          "history",
		SchemaVersion: SchemaVersion,
		Entry:         e,
	})
}

// WriteHistorySummary outputs a listing line for a saved entry
func (w *NDJSONWriter) WriteHistorySummary(e domain.HistoryEntry) error {
	return w.encoder.Encode(NewHistorySummary(e))
}

// WriteState outputs the session state
func (w *NDJSONWriter) WriteState(s *StateOutput) error {
	s.Type = "state"
	s.SchemaVersion = SchemaVersion
	return w.encoder.Encode(s)
}

// WriteError outputs an error
func (w *NDJSONWriter) WriteError(code, message string, hint ...string) error {
	out := &ErrorOutput{
		Type:          "error",
		SchemaVersion: SchemaVersion,
		Code:          code,
		Message:       message,
	}
	if len(hint) > 0 {
		out.Hint = hint[0]
	}
	return w.encoder.Encode(out)
}

// WriteInfo outputs an informational message
func (w *NDJSONWriter) WriteInfo(message, path string) error {
	return w.encoder.Encode(&InfoOutput{
		Type:          "info",
		SchemaVersion: SchemaVersion,
		Message:       message,
		Path:          path,
	})
}

// WriteWarning outputs a warning message
func (w *NDJSONWriter) WriteWarning(message string) error {
	return w.encoder.Encode(&WarningOutput{
		Type:          "warning",
		SchemaVersion: SchemaVersion,
		Message:       message,
	})
}

// WriteMetadata outputs build metadata
func (w *NDJSONWriter) WriteMetadata(version, commit, buildDate string) error {
	return w.encoder.Encode(&MetadataOutput{
		Type:          "metadata",
		SchemaVersion: SchemaVersion,
		Version:       version,
		Commit:        commit,
		BuildDate:     buildDate,
	})
}

// WriteRaw outputs raw JSON data
func (w *NDJSONWriter) WriteRaw(v any) error {
	return w.encoder.Encode(v)
}
