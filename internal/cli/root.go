package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/vburojevic/mscope/internal/config"
	"github.com/vburojevic/mscope/internal/logging"
	"github.com/vburojevic/mscope/internal/output"
	"go.uber.org/zap"
)

// CLI is the root command structure for mscope
type CLI struct {
	// Global flags
	Format   string `short:"f" default:"${config_format}" enum:"ndjson,text" help:"Output format"`
	LogLevel string `short:"l" default:"${config_log_level}" enum:"debug,info,warn,warning,error" help:"Minimum diagnostic log level"`
	Quiet    bool   `short:"q" help:"Suppress info and warning output (only emit results)"`
	Verbose  bool   `short:"v" help:"Show debug output (scans, store writes, state transitions)"`
	Config   string `help:"Path to a config file (default: search ./.mscope.yaml, ~/.mscope.yaml, ~/.config/mscope/config.yaml)"`

	Version VersionCmd `cmd:"" help:"Show version information"`

	// Commands
	UI         UICmd         `cmd:"" default:"withargs" help:"Interactive dashboard (default)"`
	Serve      ServeCmd      `cmd:"" help:"Serve the dashboard session over HTTP"`
	Scan       ScanCmd       `cmd:"" help:"Run one scan and print the analysis"`
	History    HistoryCmd    `cmd:"" help:"List, show and export saved samples"`
	Cfg        ConfigCmd     `cmd:"" name:"config" help:"Show or manage configuration"`
	Doctor     DoctorCmd     `cmd:"" help:"Check configuration, storage and the scan source"`
	Examples   ExamplesCmd   `cmd:"" help:"Show usage examples"`
	Completion CompletionCmd `cmd:"" help:"Generate shell completions"`
}

// Globals holds shared state for all commands
type Globals struct {
	Format     string
	LogLevel   string
	Quiet      bool
	Verbose    bool
	Stdout     io.Writer
	Stderr     io.Writer
	Config     *config.Config
	ConfigFile string
	Logger     *zap.Logger
}

// NewGlobals creates a new Globals instance from CLI flags
func NewGlobals(cli *CLI) *Globals {
	return NewGlobalsWithConfig(cli, config.Default())
}

// NewGlobalsWithConfig creates a new Globals instance with config fallbacks
func NewGlobalsWithConfig(cli *CLI, cfg *config.Config) *Globals {
	g := &Globals{
		Format:   cli.Format,
		LogLevel: cli.LogLevel,
		Quiet:    cli.Quiet,
		Verbose:  cli.Verbose,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Config:   cfg,
	}

	// Apply config values if CLI flags weren't explicitly set
	if cfg != nil {
		if !cli.Quiet && cfg.Quiet {
			g.Quiet = cfg.Quiet
		}
		if !cli.Verbose && cfg.Verbose {
			g.Verbose = cfg.Verbose
		}
	} else {
		g.Config = config.Default()
	}

	g.Logger = newLogger(g)
	return g
}

// newLogger builds the diagnostic logger. Verbose forces debug; quiet keeps
// only errors.
func newLogger(g *Globals) *zap.Logger {
	level := g.LogLevel
	switch {
	case g.Verbose:
		level = "debug"
	case g.Quiet:
		level = "error"
	}
	logger, err := logging.New(logging.Options{
		Level:  level,
		JSON:   g.Format == string(output.FormatNDJSON),
		Output: g.Stderr,
	})
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Debug logs a debug message if verbose mode is enabled
func (g *Globals) Debug(format string, args ...any) {
	if g.Verbose {
		g.logger().Debug(fmt.Sprintf(format, args...))
	}
}

// Emitter returns an emitter for the selected output format.
func (g *Globals) Emitter() *output.Emitter {
	return output.NewEmitter(g.Stdout, g.Format)
}

func (g *Globals) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

// VersionCmd shows version information
type VersionCmd struct{}

// Run executes the version command
func (v *VersionCmd) Run(globals *Globals) error {
	if globals.Format == string(output.FormatNDJSON) {
		return output.NewNDJSONWriter(globals.Stdout).WriteMetadata(Version, Commit, BuildDate)
	}
	_, err := io.WriteString(globals.Stdout, "mscope version "+Version+" ("+Commit+")\n")
	return err
}

// Version information (set at build time)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)
