package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/vburojevic/mscope/internal/domain"
	"github.com/vburojevic/mscope/internal/history"
	"github.com/vburojevic/mscope/internal/output"
)

// ScanCmd runs a single scan outside the dashboard
type ScanCmd struct {
	Save   string `short:"s" help:"Save the result to history under this name"`
	Export string `short:"e" help:"Also export the result (csv, ndjson, text)"`
	Out    string `short:"o" help:"Directory for --export (default: export.dir from config)"`
}

// Run executes the scan command
func (c *ScanCmd) Run(globals *Globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	emitter := globals.Emitter()

	// Reject a bad format before paying for a scan.
	var format output.Format
	if c.Export != "" {
		f, err := output.ParseFormat(c.Export)
		if err != nil {
			return outputError(globals, err)
		}
		if f == output.FormatPDF {
			return outputError(globals, fmt.Errorf("%w: pdf reports are not available yet", domain.ErrUnsupportedFormat))
		}
		format = f
	}

	ctrl, closeSession, err := openSession(ctx, globals)
	if err != nil {
		return outputError(globals, err)
	}
	defer closeSession()

	if err := ctrl.FinishLoading(); err != nil {
		return outputError(globals, err)
	}

	globals.Debug("Requesting scan")
	res, err := ctrl.RequestScan(ctx)
	if err != nil {
		return outputError(globals, err)
	}
	if err := emitter.Result(res); err != nil {
		return err
	}

	if c.Save != "" {
		entry, err := ctrl.SaveAs(ctx, c.Save)
		if err != nil {
			return outputError(globals, err)
		}
		if globals.Config.History.Backend == history.BackendMemory {
			emitWarning(globals, emitter, "history backend is memory; the saved sample is discarded on exit")
		}
		if err := emitter.HistoryEntry(entry); err != nil {
			return err
		}
	}

	if format != "" {
		dir := c.Out
		if dir == "" {
			dir = globals.Config.Export.Dir
		}
		path, err := output.ExportFile(dir, format, res)
		if err != nil {
			return outputError(globals, err)
		}
		emitInfo(globals, emitter, "exported "+string(format)+" report", path)
	}
	return nil
}
