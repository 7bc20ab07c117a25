package cli

import (
	"context"

	"github.com/vburojevic/mscope/internal/history"
	"github.com/vburojevic/mscope/internal/output"
)

// HistoryCmd works with saved samples
type HistoryCmd struct {
	List   HistoryListCmd   `cmd:"" default:"withargs" help:"List saved samples, most recent first"`
	Show   HistoryShowCmd   `cmd:"" help:"Show one saved sample"`
	Export HistoryExportCmd `cmd:"" help:"Export a saved sample's analysis"`
}

// HistoryListCmd lists saved samples
type HistoryListCmd struct {
	FilterFlags `embed:""`

	Limit int `short:"n" default:"0" help:"Show at most this many entries (0 = all)"`
}

// Run executes the history list command
func (c *HistoryListCmd) Run(globals *Globals) error {
	pipeline, err := c.buildFilters()
	if err != nil {
		return outputError(globals, err)
	}

	store, closeStore, err := openHistory(globals)
	if err != nil {
		return outputError(globals, err)
	}
	defer closeStore()

	entries := pipeline.Select(store.List())
	globals.Debug("history list: %d entries after filters", len(entries))
	if c.Limit > 0 && len(entries) > c.Limit {
		entries = entries[:c.Limit]
	}
	return globals.Emitter().History(entries)
}

// HistoryShowCmd shows a saved sample
type HistoryShowCmd struct {
	ID string `arg:"" help:"History entry ID"`
}

// Run executes the history show command
func (c *HistoryShowCmd) Run(globals *Globals) error {
	store, closeStore, err := openHistory(globals)
	if err != nil {
		return outputError(globals, err)
	}
	defer closeStore()

	entry, err := store.Find(c.ID)
	if err != nil {
		return outputError(globals, err)
	}
	return globals.Emitter().HistoryEntry(entry)
}

// HistoryExportCmd exports a saved sample
type HistoryExportCmd struct {
	ID     string `arg:"" help:"History entry ID"`
	Format string `name:"as" short:"F" default:"csv" help:"Export format (csv, ndjson, text)"`
	Out    string `short:"o" help:"Output directory (default: export.dir from config)"`
}

// Run executes the history export command
func (c *HistoryExportCmd) Run(globals *Globals) error {
	format, err := output.ParseFormat(c.Format)
	if err != nil {
		return outputError(globals, err)
	}

	store, closeStore, err := openHistory(globals)
	if err != nil {
		return outputError(globals, err)
	}
	defer closeStore()

	entry, err := store.Find(c.ID)
	if err != nil {
		return outputError(globals, err)
	}

	dir := c.Out
	if dir == "" {
		dir = globals.Config.Export.Dir
	}
	path, err := output.ExportFile(dir, format, entry.Snapshot())
	if err != nil {
		return outputError(globals, err)
	}
	emitInfo(globals, globals.Emitter(), "exported "+entry.Name(), path)
	return nil
}

// openHistory opens the store, warning when it cannot hold anything from a
// previous run.
func openHistory(globals *Globals) (history.Store, func() error, error) {
	if globals.Config.History.Backend == history.BackendMemory {
		emitWarning(globals, globals.Emitter(), "history backend is memory; set history.backend: sqlite to keep samples between runs")
	}
	return openStore(context.Background(), globals)
}
