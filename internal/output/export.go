package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vburojevic/mscope/internal/domain"
)

// Format names an export format.
type Format string

const (
	FormatNDJSON Format = "ndjson"
	FormatCSV    Format = "csv"
	FormatText   Format = "text"
	FormatPDF    Format = "pdf"
)

// Formats lists the formats Export understands, including ones it rejects.
func Formats() []Format { return []Format{FormatNDJSON, FormatCSV, FormatText, FormatPDF} }

// ParseFormat resolves a format name. "excel" and "xlsx" are accepted as
// aliases for csv, which spreadsheet tools open directly.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ndjson", "json":
		return FormatNDJSON, nil
	case "csv", "excel", "xlsx":
		return FormatCSV, nil
	case "text", "txt":
		return FormatText, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, s)
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatText:
		return ".txt"
	case FormatPDF:
		return ".pdf"
	default:
		return ".ndjson"
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/x-ndjson"
	}
}

// Export writes a report of r in format f. PDF is not implemented and
// returns ErrUnsupportedFormat without writing anything.
func Export(w io.Writer, f Format, r domain.AnalysisResult) error {
	if r.IsZero() {
		return domain.ErrNoActiveResult
	}
	stats := domain.ComputeStatistics(r)
	switch f {
	case FormatNDJSON:
		nw := NewNDJSONWriter(w)
		if err := nw.WriteResult(r); err != nil {
			return err
		}
		return nw.WriteStats(r, stats)
	case FormatCSV:
		return writeCSV(w, r, stats)
	case FormatText:
		return NewTextWriter(w).WriteResult(r, stats)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, f)
	}
}

// ExportFileName returns a file name for exporting r as f.
func ExportFileName(r domain.AnalysisResult, f Format) string {
	return "analysis-" + r.ID() + f.Extension()
}

// ExportFile writes r to dir/ExportFileName(r, f) and returns the path. The
// file is not created for unsupported formats or a missing result.
func ExportFile(dir string, f Format, r domain.AnalysisResult) (path string, err error) {
	if r.IsZero() {
		return "", domain.ErrNoActiveResult
	}
	if f != FormatNDJSON && f != FormatCSV && f != FormatText {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, f)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path = filepath.Join(dir, ExportFileName(r, f))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()
	return path, Export(file, f, r)
}

func writeCSV(w io.Writer, r domain.AnalysisResult, stats domain.Statistics) error {
	env := r.Environmental()
	cw := csv.NewWriter(w)
	records := [][]string{
		{"id", r.ID()},
		{"location", env.Location},
		{"temperature", env.Temperature},
		{"timestamp", env.Timestamp.Format(time.RFC3339)},
		{"total_organisms", strconv.Itoa(r.TotalOrganisms())},
		{"unique_species", strconv.Itoa(r.UniqueSpecies())},
		{},
		{"alert", "species", "count", "risk"},
	}
	for _, a := range r.HighRiskAlerts() {
		records = append(records, []string{a.Name, a.Species, strconv.Itoa(a.Count), string(a.RiskLevel)})
	}
	records = append(records, []string{}, []string{"species", "count", "percentage"})
	for _, s := range stats.Shares {
		records = append(records, []string{s.Name, strconv.Itoa(s.Count), strconv.Itoa(s.Percentage)})
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
