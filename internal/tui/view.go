package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vburojevic/mscope/internal/domain"
	"github.com/vburojevic/mscope/internal/output"
)

const (
	barWidth    = 24
	timeDisplay = "2006-01-02 15:04:05 MST"
)

var aboutText = []string{
	"The microscopy system is a portable analysis station for marine",
	"microorganisms. It automates the manual counting and classification of",
	"plankton slides so biodiversity can be monitored on site.",
}

var coreFeatures = []string{
	"Edge inference next to the microscope, no uplink required.",
	"Detection, segmentation and classification of each organism.",
	"Minutes per sample instead of hours.",
	"Repeatable counts without manual tallying errors.",
	"Immediate alerts for harmful algal bloom species.",
}

var howTo = [][2]string{
	{"Home", "the dashboard. Press s to scan the slide under the microscope."},
	{"Save", "press w and enter a unique name for the slide, e.g. Dock-A-Slide-05."},
	{"History", "lists every saved sample, newest first. Press enter to reload one."},
	{"Export", "e writes a CSV report and x an NDJSON report of the current scan."},
}

// View renders the TUI
func (m Model) View() string {
	if m.view.Phase == domain.PhaseLoading {
		return m.renderSplash()
	}
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if m.view.Saving {
		b.WriteString(m.renderSaveModal())
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderSplash() string {
	title := output.Styles.Brand.Render("Microscopy")
	sub := output.Styles.Muted.Render("AI-Powered Marine Analysis")
	body := lipgloss.JoinVertical(lipgloss.Center, title, sub, "", m.spinner.View())
	if m.width == 0 || m.height == 0 {
		return body
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m Model) renderHeader() string {
	brand := output.Styles.Brand.Render("Microscopy")
	items := make([]string, 0, len(domain.Pages()))
	for i, p := range domain.Pages() {
		label := fmt.Sprintf("%d %s", i+1, p.Title())
		if p == m.view.Page {
			items = append(items, output.Styles.NavActive.Render(label))
		} else {
			items = append(items, output.Styles.NavItem.Render(label))
		}
	}
	nav := lipgloss.JoinHorizontal(lipgloss.Top, items...)

	status := ""
	if m.scanning {
		status = m.spinner.View() + " scanning"
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, output.Styles.Title.Render(brand), "  ", nav, "  ", status)
}

func (m Model) renderFooter() string {
	var notice string
	switch {
	case m.notice == "":
	case m.noticeErr:
		notice = output.Styles.Danger.Render(m.notice)
	default:
		notice = output.Styles.Success.Render(m.notice)
	}

	help := "1/2/3 pages  s scan  w save  e csv  x ndjson  q quit"
	switch {
	case m.view.Saving:
		help = "enter save  esc cancel"
	case m.view.Page == domain.PageHistory:
		help = "↑/↓ select  enter load  1/2/3 pages  q quit"
	case m.view.Subview == domain.SubviewWelcome && m.view.Page == domain.PageHome:
		help = "enter start  1/2/3 pages  q quit"
	}

	scroll := ""
	if m.ready && !m.view.Saving {
		scroll = fmt.Sprintf(" %3.f%%", m.viewport.ScrollPercent()*100)
	}
	bar := output.Styles.StatusBar.Render(fmt.Sprintf("%d saved%s", m.view.HistoryCount, scroll))
	return notice + "\n" + bar + " " + output.Styles.Help.Render(help)
}

func (m Model) renderSaveModal() string {
	body := strings.Join([]string{
		output.Styles.Title.Render("Save Sample"),
		"",
		"Enter a unique name or ID for this sample slide.",
		"",
		m.textinput.View(),
	}, "\n")
	modal := output.Styles.Modal.Render(body)
	if m.width == 0 {
		return modal
	}
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, modal)
}

func (m Model) renderPage() string {
	switch m.view.Page {
	case domain.PageAbout:
		return renderAbout()
	case domain.PageHistory:
		return m.renderHistory()
	}
	switch m.view.Subview {
	case domain.SubviewWelcome:
		return renderWelcome()
	case domain.SubviewAwaitingScan:
		return renderAwaiting()
	}
	if m.view.Current == nil || m.view.Stats == nil {
		return renderAwaiting()
	}
	return renderDashboard(*m.view.Current, *m.view.Stats)
}

func renderWelcome() string {
	var b strings.Builder
	b.WriteString(output.Styles.Header.Render("Welcome"))
	b.WriteString("\n\n")
	b.WriteString("Place a sample slide under the microscope.\n")
	b.WriteString(output.Styles.Muted.Render("Press enter to continue."))
	return b.String()
}

func renderAwaiting() string {
	var b strings.Builder
	b.WriteString(output.Styles.Header.Render("Ready for Analysis"))
	b.WriteString("\n\n")
	b.WriteString("Press s to scan the sample.\n")
	return b.String()
}

func renderDashboard(r domain.AnalysisResult, stats domain.Statistics) string {
	var b strings.Builder

	b.WriteString(output.Styles.Header.Render("Live Feed"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", output.Styles.Label.Render("Scan:"), r.ID())
	if ref := r.ImageRef(); ref != "" {
		fmt.Fprintf(&b, "%s %s\n", output.Styles.Label.Render("Image:"), ref)
	}
	b.WriteString("\n")

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		statCard("Total Organisms Counted", r.TotalOrganisms()),
		" ",
		statCard("Unique Species Detected", r.UniqueSpecies()),
	)
	b.WriteString(cards)
	b.WriteString("\n\n")

	alerts := r.HighRiskAlerts()
	b.WriteString(output.StatusText(len(alerts)))
	b.WriteString("\n")
	if len(alerts) > 0 {
		b.WriteString(output.Styles.Header.Render("High-Risk Alerts"))
		b.WriteString("\n")
		for _, a := range alerts {
			fmt.Fprintf(&b, "  %s %s (%s)  count %d\n",
				output.RiskBadge(a.RiskLevel),
				output.RiskStyle(a.RiskLevel).Render(a.Name),
				a.Species, a.Count)
		}
	}
	b.WriteString("\n")

	env := r.Environmental()
	b.WriteString(output.Styles.Header.Render("Environmental Data"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s %s\n", output.Styles.Label.Render("Location:   "), env.Location)
	fmt.Fprintf(&b, "  %s %s\n", output.Styles.Label.Render("Temperature:"), env.Temperature)
	fmt.Fprintf(&b, "  %s %s\n", output.Styles.Label.Render("Sampled:    "), env.Timestamp.Local().Format(timeDisplay))
	b.WriteString("\n")

	b.WriteString(output.Styles.Header.Render("Species Distribution"))
	b.WriteString("\n")
	nameWidth := 0
	for _, s := range stats.Shares {
		nameWidth = max(nameWidth, lipgloss.Width(s.Name))
	}
	for _, s := range stats.Shares {
		fmt.Fprintf(&b, "  %-*s %s %d (%d%%)\n",
			nameWidth, s.Name,
			output.Bar(s.Percentage, barWidth),
			s.Count, s.Percentage)
	}
	return b.String()
}

func statCard(title string, value int) string {
	body := output.Styles.Label.Render(title) + "\n" + output.Styles.Value.Render(fmt.Sprintf("%d", value))
	return output.Styles.Card.Render(body)
}

func renderAbout() string {
	var b strings.Builder
	b.WriteString(output.Styles.Header.Render("About the System"))
	b.WriteString("\n\n")
	b.WriteString(strings.Join(aboutText, "\n"))
	b.WriteString("\n\n")
	b.WriteString(output.Styles.Brand.Render("Core Features"))
	b.WriteString("\n")
	for _, f := range coreFeatures {
		b.WriteString("  • " + f + "\n")
	}
	b.WriteString("\n")
	b.WriteString(output.Styles.Header.Render("How to Use This Interface"))
	b.WriteString("\n\n")
	for _, h := range howTo {
		fmt.Fprintf(&b, "  %s %s\n", output.Styles.Value.Render(h[0]+":"), h[1])
	}
	return b.String()
}

func (m Model) renderHistory() string {
	var b strings.Builder
	b.WriteString(output.Styles.Header.Render("Saved Samples"))
	b.WriteString("\n\n")
	if len(m.entries) == 0 {
		b.WriteString("No samples have been saved yet. Go to the Home page to perform a scan and save the results.\n")
		return b.String()
	}
	for i, e := range m.entries {
		line := fmt.Sprintf("%s  %s",
			e.Name(),
			output.Styles.Muted.Render(e.Snapshot().Environmental().Timestamp.Local().Format(timeDisplay)))
		if i == m.cursor {
			b.WriteString(output.Styles.Selected.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}
