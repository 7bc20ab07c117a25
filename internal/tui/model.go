// Package tui is the interactive terminal dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vburojevic/mscope/internal/domain"
	"github.com/vburojevic/mscope/internal/output"
	"github.com/vburojevic/mscope/internal/session"
)

// Model represents the TUI state
type Model struct {
	ctrl      *session.Controller
	splash    *session.Splash
	exportDir string

	view      session.View
	entries   []domain.HistoryEntry
	cursor    int
	scanning  bool
	viewport  viewport.Model
	textinput textinput.Model
	spinner   spinner.Model
	width     int
	height    int
	ready     bool

	notice    string
	noticeErr bool
}

// SplashDoneMsg is sent when the loading timer fires or is cancelled
type SplashDoneMsg struct{}

// ScanDoneMsg carries the outcome of a scan request
type ScanDoneMsg struct {
	Result domain.AnalysisResult
	Err    error
}

// ExportDoneMsg carries the outcome of an export
type ExportDoneMsg struct {
	Path string
	Err  error
}

// New creates a new TUI model. splash may be nil when the controller is
// already past Loading.
func New(ctrl *session.Controller, splash *session.Splash, exportDir string) Model {
	ti := textinput.New()
	ti.Placeholder = "e.g., Bay-Sample-001"
	ti.CharLimit = 80
	ti.Width = 40

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(output.Styles.Brand))

	return Model{
		ctrl:      ctrl,
		splash:    splash,
		exportDir: exportDir,
		view:      ctrl.View(),
		textinput: ti,
		spinner:   sp,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForSplash(m.splash), m.spinner.Tick)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.view.Phase == domain.PhaseLoading {
			if msg.String() == "q" {
				return m.quit()
			}
			return m, nil
		}
		if m.view.Saving {
			return m.updateSaveModal(msg)
		}
		m.clearNotice()
		cmd = m.handleKey(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 2
		viewportHeight := max(m.height-headerHeight-footerHeight, 1)

		if !m.ready {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}

	case SplashDoneMsg:
		m.refresh()

	case ScanDoneMsg:
		m.scanning = false
		if msg.Err != nil {
			m.setError(msg.Err)
		} else {
			m.setNotice(fmt.Sprintf("Scan %s complete", msg.Result.ID()))
		}
		m.refresh()
		m.viewport.GotoTop()

	case ExportDoneMsg:
		if msg.Err != nil {
			m.setError(msg.Err)
		} else {
			m.setNotice("Exported " + msg.Path)
		}

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.updateViewport()
	if m.ready && !m.view.Saving {
		if _, isKey := msg.(tea.KeyMsg); !isKey {
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		m.ctrl.Close()
		return tea.Quit
	case "1", "h":
		m.navigate(domain.PageHome)
	case "2", "a":
		m.navigate(domain.PageAbout)
	case "3", "y":
		m.navigate(domain.PageHistory)
	case "s":
		return m.startScan()
	case "w":
		if _, err := m.ctrl.RequestSave(); err != nil {
			m.setError(err)
			return nil
		}
		m.refresh()
		m.textinput.SetValue("")
		m.textinput.Focus()
		return textinput.Blink
	case "e":
		return m.export(output.FormatCSV)
	case "x":
		return m.export(output.FormatNDJSON)
	case "p":
		return m.export(output.FormatPDF)
	case "enter":
		return m.activate()
	case "j", "down":
		if m.view.Page == domain.PageHistory {
			m.cursor = min(m.cursor+1, max(len(m.entries)-1, 0))
		} else {
			m.viewport.ScrollDown(1)
		}
	case "k", "up":
		if m.view.Page == domain.PageHistory {
			m.cursor = max(m.cursor-1, 0)
		} else {
			m.viewport.ScrollUp(1)
		}
	case "g", "home":
		m.viewport.GotoTop()
	case "G", "end":
		m.viewport.GotoBottom()
	}
	return nil
}

// activate handles enter: dismiss the welcome screen on Home, replay the
// highlighted entry on History.
func (m *Model) activate() tea.Cmd {
	switch m.view.Page {
	case domain.PageHome:
		if m.view.Subview == domain.SubviewWelcome {
			if err := m.ctrl.AcknowledgeIntro(); err != nil {
				m.setError(err)
			}
			m.refresh()
			return nil
		}
		if m.view.Subview == domain.SubviewAwaitingScan {
			return m.startScan()
		}
	case domain.PageHistory:
		if len(m.entries) == 0 {
			return nil
		}
		entry := m.entries[m.cursor]
		if _, err := m.ctrl.SelectHistory(entry.ID()); err != nil {
			m.setError(err)
		} else {
			m.setNotice("Loaded " + entry.Name())
		}
		m.refresh()
		m.viewport.GotoTop()
	}
	return nil
}

func (m Model) updateSaveModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	w, ok := m.ctrl.SaveWorkflow()
	if !ok {
		m.refresh()
		return m, nil
	}
	switch msg.String() {
	case "esc":
		_ = w.Cancel()
		m.textinput.Blur()
		m.refresh()
		return m, nil
	case "enter":
		entry, err := w.Confirm(context.Background(), m.textinput.Value())
		if err != nil {
			m.setError(err)
			m.refresh()
			return m, nil
		}
		m.textinput.Blur()
		m.setNotice(fmt.Sprintf("Sample %q saved successfully!", entry.Name()))
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	w.SetName(m.textinput.Value())
	return m, cmd
}

func (m *Model) navigate(page domain.Page) {
	if err := m.ctrl.Navigate(page); err != nil {
		m.setError(err)
	}
	m.refresh()
	if page == domain.PageHistory {
		m.cursor = 0
	}
	m.viewport.GotoTop()
}

func (m *Model) startScan() tea.Cmd {
	if m.view.Page != domain.PageHome {
		m.navigate(domain.PageHome)
	}
	if m.scanning {
		m.setError(domain.ErrScanInProgress)
		return nil
	}
	m.scanning = true
	ctrl := m.ctrl
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		res, err := ctrl.RequestScan(context.Background())
		return ScanDoneMsg{Result: res, Err: err}
	})
}

func (m *Model) export(format output.Format) tea.Cmd {
	res, ok := m.ctrl.Current()
	if !ok {
		m.setError(domain.ErrNoActiveResult)
		return nil
	}
	if format == output.FormatPDF {
		m.setError(fmt.Errorf("%w: pdf export is not available yet", domain.ErrUnsupportedFormat))
		return nil
	}
	dir := m.exportDir
	return func() tea.Msg {
		path, err := output.ExportFile(dir, format, res)
		return ExportDoneMsg{Path: path, Err: err}
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.ctrl.Close()
	return m, tea.Quit
}

func (m *Model) refresh() {
	m.view = m.ctrl.View()
	m.entries = slices.Collect(m.ctrl.History())
	if m.cursor >= len(m.entries) {
		m.cursor = max(len(m.entries)-1, 0)
	}
}

func (m *Model) updateViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderPage())
}

func (m *Model) setNotice(s string) {
	m.notice = s
	m.noticeErr = false
}

func (m *Model) setError(err error) {
	m.notice = noticeFor(err)
	m.noticeErr = true
}

func (m *Model) clearNotice() {
	m.notice = ""
	m.noticeErr = false
}

// noticeFor turns a session error into a user-facing line.
func noticeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoActiveResult):
		return "Please perform a scan before saving."
	case errors.Is(err, domain.ErrEmptyName):
		return "Please enter a name for the sample."
	case errors.Is(err, domain.ErrScanInProgress):
		return "A scan is already running."
	case errors.Is(err, domain.ErrNotFound):
		return "That sample is no longer in the history."
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return "PDF export is not available yet. Use e for CSV or x for NDJSON."
	case errors.Is(err, domain.ErrAcquisition):
		return "Scan failed: " + err.Error()
	default:
		return err.Error()
	}
}

// waitForSplash waits for the loading timer to finish
func waitForSplash(s *session.Splash) tea.Cmd {
	if s == nil {
		return func() tea.Msg { return SplashDoneMsg{} }
	}
	return func() tea.Msg {
		<-s.Done()
		return SplashDoneMsg{}
	}
}
