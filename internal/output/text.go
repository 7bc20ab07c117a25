package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/vburojevic/mscope/internal/domain"
)

// TextWriter writes records as styled, human-readable text
type TextWriter struct {
	w io.Writer
}

// NewTextWriter creates a new text writer
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

// WriteResult outputs the dashboard report for a result: summary figures,
// alerts, environment and the species distribution table.
func (w *TextWriter) WriteResult(r domain.AnalysisResult, stats domain.Statistics) error {
	env := r.Environmental()
	alerts := r.HighRiskAlerts()

	var b strings.Builder
	b.WriteString(Styles.Header.Render("Analysis "+r.ID()) + "\n")
	b.WriteString(Styles.Label.Render("Total organisms: ") + Styles.Value.Render(strconv.Itoa(r.TotalOrganisms())) + " | ")
	b.WriteString(Styles.Label.Render("Unique species: ") + Styles.Value.Render(strconv.Itoa(r.UniqueSpecies())) + " | ")
	b.WriteString(Styles.Label.Render("Alerts: ") + Styles.Value.Render(strconv.Itoa(len(alerts))) + "\n")
	b.WriteString(Styles.Label.Render("Location: ") + env.Location + "\n")
	b.WriteString(Styles.Label.Render("Temperature: ") + env.Temperature + "\n")
	b.WriteString(Styles.Label.Render("Sampled: ") + env.Timestamp.Format(time.RFC1123) + "\n")
	if r.ImageRef() != "" {
		b.WriteString(Styles.Label.Render("Image: ") + r.ImageRef() + "\n")
	}
	b.WriteString(StatusText(len(alerts)) + "\n")
	for _, a := range alerts {
		fmt.Fprintf(&b, "  %s %s (%s) count=%d\n", RiskBadge(a.RiskLevel), a.Name, a.Species, a.Count)
	}
	b.WriteString("\n")
	if _, err := io.WriteString(w.w, b.String()); err != nil {
		return err
	}
	return w.writeShares(stats)
}

func (w *TextWriter) writeShares(stats domain.Statistics) error {
	table := tablewriter.NewWriter(w.w)
	table.Header("Species", "Count", "Share", "")
	for _, s := range stats.Shares {
		if err := table.Append([]string{s.Name, strconv.Itoa(s.Count), strconv.Itoa(s.Percentage) + "%", Bar(s.Percentage, 20)}); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteHistory outputs saved entries as a table, most recent first
func (w *TextWriter) WriteHistory(entries []domain.HistoryEntry) error {
	if len(entries) == 0 {
		_, err := io.WriteString(w.w, Styles.Muted.Render("No saved samples yet.")+"\n")
		return err
	}
	table := tablewriter.NewWriter(w.w)
	table.Header("ID", "Name", "Saved", "Organisms", "Alerts")
	for _, e := range entries {
		snap := e.Snapshot()
		row := []string{
			e.ID(),
			e.Name(),
			e.SavedAt().Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(snap.TotalOrganisms()),
			strconv.Itoa(len(snap.HighRiskAlerts())),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteHistoryEntry outputs one saved entry with its full report
func (w *TextWriter) WriteHistoryEntry(e domain.HistoryEntry) error {
	line := Styles.Title.Render(e.Name()) + Styles.Muted.Render(" saved "+e.SavedAt().Local().Format(time.RFC1123)+" ("+e.ID()+")") + "\n"
	if _, err := io.WriteString(w.w, line); err != nil {
		return err
	}
	snap := e.Snapshot()
	return w.WriteResult(snap, domain.ComputeStatistics(snap))
}

// WriteError outputs a styled error
func (w *TextWriter) WriteError(code, message string, hint ...string) error {
	errorLabel := Styles.Danger.Render("Error")
	codeStr := Styles.Warning.Render("[" + code + "]")
	line := errorLabel + " " + codeStr + ": " + message + "\n"
	if len(hint) > 0 && hint[0] != "" {
		line += Styles.Help.Render("Hint: "+hint[0]) + "\n"
	}
	_, err := io.WriteString(w.w, line)
	return err
}

// WriteInfo outputs an informational line
func (w *TextWriter) WriteInfo(message, path string) error {
	line := Styles.Success.Render("✓") + " " + message
	if path != "" {
		line += " " + Styles.Muted.Render(path)
	}
	_, err := io.WriteString(w.w, line+"\n")
	return err
}

// WriteWarning outputs a warning line
func (w *TextWriter) WriteWarning(message string) error {
	_, err := io.WriteString(w.w, Styles.Warning.Render("Warning:")+" "+message+"\n")
	return err
}

// Bar renders pct as a horizontal bar width cells wide.
func Bar(pct, width int) string {
	pct = max(0, min(pct, 100))
	filled := (pct*width + 50) / 100
	return Styles.Bar.Render(strings.Repeat("█", filled)) + Styles.Muted.Render(strings.Repeat("░", width-filled))
}
