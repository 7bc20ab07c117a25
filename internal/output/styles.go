package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/vburojevic/mscope/internal/domain"
)

// Styles holds all lipgloss styles for text output
var Styles = struct {
	// Risk styles
	Low      lipgloss.Style
	Moderate lipgloss.Style
	High     lipgloss.Style

	// Report styles
	Header  lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Danger  lipgloss.Style

	// TUI styles
	Title     lipgloss.Style
	Brand     lipgloss.Style
	NavItem   lipgloss.Style
	NavActive lipgloss.Style
	Card      lipgloss.Style
	Bar       lipgloss.Style
	StatusBar lipgloss.Style
	Selected  lipgloss.Style
	Modal     lipgloss.Style
	Help      lipgloss.Style
}{
	Low:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),             // Green
	Moderate: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true), // Orange
	High:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true), // Red bold

	Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("239")),
	Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	Value:   lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
	Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
	Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	Danger:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

	Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1),
	Brand:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45")),
	NavItem:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Padding(0, 1),
	NavActive: lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true).Underline(true).Padding(0, 1),
	Card:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("239")).Padding(0, 1),
	Bar:       lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	StatusBar: lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("252")).Padding(0, 1),
	Selected:  lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("39")),
	Modal:     lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("39")).Padding(1, 2),
	Help:      lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
}

// RiskStyle returns the style for a risk level
func RiskStyle(level domain.RiskLevel) lipgloss.Style {
	switch level {
	case domain.RiskHigh:
		return Styles.High
	case domain.RiskModerate:
		return Styles.Moderate
	default:
		return Styles.Low
	}
}

// RiskBadge returns a short styled risk label
func RiskBadge(level domain.RiskLevel) string {
	switch level {
	case domain.RiskHigh:
		return Styles.High.Render("HIGH")
	case domain.RiskModerate:
		return Styles.Moderate.Render("MOD")
	case domain.RiskLow:
		return Styles.Low.Render("LOW")
	default:
		return Styles.Muted.Render("???")
	}
}

// StatusText returns styled alert status text
func StatusText(alerts int) string {
	if alerts > 0 {
		return Styles.Danger.Render("HIGH-RISK SPECIES DETECTED")
	}
	return Styles.Success.Render("NO HIGH-RISK SPECIES")
}
