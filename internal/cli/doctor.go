package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/mattn/go-isatty"
	"github.com/vburojevic/mscope/internal/history"
	"github.com/vburojevic/mscope/internal/output"
)

// DoctorCmd checks configuration, storage and the scan source
type DoctorCmd struct {
	SkipScan bool `help:"Do not run a trial scan"`
}

// checkResult represents a single diagnostic check
type checkResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// doctorReport is the complete diagnostic report
type doctorReport struct {
	Type          string        `json:"type"`
	SchemaVersion int           `json:"schemaVersion"`
	Timestamp     string        `json:"timestamp"`
	Checks        []checkResult `json:"checks"`
	AllPassed     bool          `json:"all_passed"`
	ErrorCount    int           `json:"error_count"`
	WarnCount     int           `json:"warn_count"`
}

// Run executes the doctor command
func (c *DoctorCmd) Run(globals *Globals) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	checks := []checkResult{
		c.checkConfig(globals),
		c.checkHistory(ctx, globals),
		c.checkExportDir(globals),
	}
	if !c.SkipScan {
		checks = append(checks, c.checkScan(ctx, globals))
	}
	checks = append(checks, c.checkServerAddr(globals), c.checkTerminal())

	errorCount := 0
	warnCount := 0
	for _, check := range checks {
		switch check.Status {
		case "error":
			errorCount++
		case "warning":
			warnCount++
		}
	}

	report := doctorReport{
		Type:          "doctor",
		SchemaVersion: output.SchemaVersion,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Checks:        checks,
		AllPassed:     errorCount == 0,
		ErrorCount:    errorCount,
		WarnCount:     warnCount,
	}

	if globals.Format == string(output.FormatNDJSON) {
		return output.NewNDJSONWriter(globals.Stdout).WriteRaw(report)
	}

	w := globals.Stdout
	fmt.Fprintln(w, "mscope Doctor")
	fmt.Fprintln(w, "=============")
	fmt.Fprintln(w)

	for _, check := range checks {
		var icon string
		switch check.Status {
		case "ok":
			icon = output.Styles.Success.Render("✓")
		case "warning":
			icon = output.Styles.Warning.Render("⚠")
		case "error":
			icon = output.Styles.Danger.Render("✗")
		}

		fmt.Fprintf(w, "%s %s\n", icon, check.Name)
		if check.Message != "" {
			fmt.Fprintf(w, "  %s\n", check.Message)
		}
		if check.Details != "" {
			fmt.Fprintf(w, "  %s\n", check.Details)
		}
	}

	fmt.Fprintln(w)
	if errorCount == 0 && warnCount == 0 {
		fmt.Fprintln(w, "All checks passed!")
	} else {
		fmt.Fprintf(w, "Errors: %d, Warnings: %d\n", errorCount, warnCount)
	}
	return nil
}

func (c *DoctorCmd) checkConfig(globals *Globals) checkResult {
	cfg := globals.Config
	if err := cfg.Validate(); err != nil {
		return checkResult{
			Name:    "Config",
			Status:  "error",
			Message: "Config has invalid settings",
			Details: err.Error(),
		}
	}

	if globals.ConfigFile == "" {
		return checkResult{
			Name:    "Config",
			Status:  "ok",
			Message: "Using defaults (no config file)",
			Details: "Create with: mscope config generate -o ~/.mscope.yaml",
		}
	}

	absPath, _ := filepath.Abs(globals.ConfigFile)
	return checkResult{
		Name:    "Config",
		Status:  "ok",
		Message: fmt.Sprintf("Loaded from: %s", absPath),
		Details: fmt.Sprintf("Format: %s, Log level: %s", cfg.Format, cfg.LogLevel),
	}
}

func (c *DoctorCmd) checkHistory(ctx context.Context, globals *Globals) checkResult {
	store, closeStore, err := openStore(ctx, globals)
	if err != nil {
		return checkResult{
			Name:    "History",
			Status:  "error",
			Message: "History store could not be opened",
			Details: err.Error(),
		}
	}
	defer closeStore()

	if globals.Config.History.Backend == history.BackendMemory {
		return checkResult{
			Name:    "History",
			Status:  "warning",
			Message: "Memory backend: saved samples are lost on exit",
			Details: "Set history.backend: sqlite to keep them",
		}
	}
	return checkResult{
		Name:    "History",
		Status:  "ok",
		Message: fmt.Sprintf("%d saved samples", store.Len()),
		Details: globals.Config.History.Path,
	}
}

func (c *DoctorCmd) checkExportDir(globals *Globals) checkResult {
	dir := globals.Config.Export.Dir
	existing := dir
	for {
		info, err := os.Stat(existing)
		if err == nil {
			if !info.IsDir() {
				return checkResult{
					Name:    "Exports",
					Status:  "error",
					Message: existing + " is not a directory",
				}
			}
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return checkResult{Name: "Exports", Status: "error", Message: err.Error()}
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		existing = parent
	}

	if !c.checkWritePermission(existing) {
		return checkResult{
			Name:    "Exports",
			Status:  "error",
			Message: "Export directory is not writable",
			Details: existing,
		}
	}
	msg := "Writable"
	if existing != dir {
		msg = "Will be created on first export"
	}
	return checkResult{Name: "Exports", Status: "ok", Message: msg, Details: dir}
}

func (c *DoctorCmd) checkScan(ctx context.Context, globals *Globals) checkResult {
	clk := clock.New()
	start := clk.Now()
	res, err := newSource(globals.Config, clk).Produce(ctx)
	if err != nil {
		return checkResult{
			Name:    "Scan",
			Status:  "error",
			Message: "Trial scan failed",
			Details: err.Error(),
		}
	}
	return checkResult{
		Name:    "Scan",
		Status:  "ok",
		Message: fmt.Sprintf("%s in %s", res.ID(), clk.Since(start).Round(time.Millisecond)),
		Details: res.Environmental().Location,
	}
}

func (c *DoctorCmd) checkServerAddr(globals *Globals) checkResult {
	addr := globals.Config.Server.Addr
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return checkResult{
			Name:    "Server",
			Status:  "error",
			Message: "server.addr is not host:port",
			Details: err.Error(),
		}
	}
	return checkResult{Name: "Server", Status: "ok", Message: "mscope serve will listen on " + addr}
}

func (c *DoctorCmd) checkTerminal() checkResult {
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return checkResult{Name: "Terminal", Status: "ok", Message: "Interactive dashboard available"}
	}
	return checkResult{
		Name:    "Terminal",
		Status:  "warning",
		Message: "stdout is not a terminal",
		Details: "mscope ui needs one; scan, history and serve work without",
	}
}

// checkWritePermission checks if we can write to a directory
func (c *DoctorCmd) checkWritePermission(path string) bool {
	testFile := filepath.Join(path, ".mscope_test_"+fmt.Sprint(os.Getpid()))
	f, err := os.Create(testFile)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(testFile)
	return true
}
