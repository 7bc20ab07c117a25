package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/vburojevic/mscope/internal/logging"
	"github.com/vburojevic/mscope/internal/tui"
	"go.uber.org/zap"
)

// UICmd launches the interactive dashboard
type UICmd struct {
	NoSplash  bool   `help:"Skip the loading splash screen"`
	ExportDir string `help:"Directory for e/x exports (default: export.dir from config)"`
	LogFile   string `help:"Write diagnostic logs to this file while the dashboard is open"`
}

// Run executes the UI command
func (c *UICmd) Run(globals *Globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return outputError(globals, &CLIError{
			Code:    "NOT_A_TERMINAL",
			Message: "the dashboard needs an interactive terminal",
			Hint:    "Use `mscope scan` or `mscope serve` when output is redirected",
		})
	}

	// Anything written to stderr would tear the alternate screen.
	logger := zap.NewNop()
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return outputError(globals, fmt.Errorf("open log file: %w", err))
		}
		defer f.Close()
		level := globals.LogLevel
		if globals.Verbose {
			level = "debug"
		}
		logger, err = logging.New(logging.Options{Level: level, JSON: true, Output: f})
		if err != nil {
			return outputError(globals, err)
		}
	}
	globals.Logger = logger

	ctrl, closeSession, err := openSession(ctx, globals)
	if err != nil {
		return outputError(globals, err)
	}
	defer closeSession()

	splash := ctrl.ScheduleLoading(globals.Config.Splash())
	if c.NoSplash {
		splash.Cancel()
		_ = ctrl.FinishLoading()
	}

	exportDir := c.ExportDir
	if exportDir == "" {
		exportDir = globals.Config.Export.Dir
	}

	// Create TUI model
	model := tui.New(ctrl, splash, exportDir)

	// Run the TUI
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Handle context cancellation
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
