package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/vburojevic/mscope/internal/config"
	"github.com/vburojevic/mscope/internal/output"
)

// ConfigCmd shows or manages configuration
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" default:"withargs" help:"Show current configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Show configuration file path"`
	Generate ConfigGenerateCmd `cmd:"" help:"Generate sample configuration file"`
}

// ConfigShowCmd shows current configuration
type ConfigShowCmd struct{}

// Run executes the config show command
func (c *ConfigShowCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if cfg == nil {
		cfg = config.Default()
	}

	if globals.Format == string(output.FormatNDJSON) {
		return output.NewNDJSONWriter(globals.Stdout).WriteRaw(map[string]any{
			"type":            "config",
			"schemaVersion":   output.SchemaVersion,
			"format":          cfg.Format,
			"log_level":       cfg.LogLevel,
			"quiet":           cfg.Quiet,
			"verbose":         cfg.Verbose,
			"splash_duration": cfg.SplashDuration,
			"scan":            cfg.Scan,
			"history":         cfg.History,
			"server":          cfg.Server,
			"export":          cfg.Export,
			"path":            globals.ConfigFile,
		})
	}

	// Text output
	w := globals.Stdout
	fmt.Fprintln(w, "Current Configuration:")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "  format:          %s\n", cfg.Format)
	fmt.Fprintf(w, "  log_level:       %s\n", cfg.LogLevel)
	fmt.Fprintf(w, "  quiet:           %v\n", cfg.Quiet)
	fmt.Fprintf(w, "  verbose:         %v\n", cfg.Verbose)
	fmt.Fprintf(w, "  splash_duration: %s\n", cfg.SplashDuration)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Scan:")
	fmt.Fprintf(w, "  location: %s\n", cfg.Scan.Location)
	fmt.Fprintf(w, "  seed:     %d\n", cfg.Scan.Seed)
	fmt.Fprintf(w, "  timeout:  %s\n", cfg.Scan.Timeout)
	fmt.Fprintf(w, "  latency:  %s\n", cfg.Scan.Latency)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "History:")
	fmt.Fprintf(w, "  backend: %s\n", cfg.History.Backend)
	fmt.Fprintf(w, "  path:    %s\n", cfg.History.Path)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Server:")
	fmt.Fprintf(w, "  addr:            %s\n", cfg.Server.Addr)
	fmt.Fprintf(w, "  allowed_origins: %s\n", strings.Join(cfg.Server.AllowedOrigins, ", "))
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Export:")
	fmt.Fprintf(w, "  dir: %s\n", cfg.Export.Dir)

	if globals.ConfigFile != "" {
		fmt.Fprintln(w, "")
		fmt.Fprintf(w, "Loaded from: %s\n", globals.ConfigFile)
	}
	return nil
}

// ConfigPathCmd shows config file path
type ConfigPathCmd struct{}

// Run executes the config path command
func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := globals.ConfigFile
	if path == "" {
		path = config.ConfigFile()
	}

	if globals.Format == string(output.FormatNDJSON) {
		return output.NewNDJSONWriter(globals.Stdout).WriteRaw(map[string]any{
			"type":          "config_path",
			"schemaVersion": output.SchemaVersion,
			"path":          path,
		})
	}

	if path == "" {
		fmt.Fprintln(globals.Stdout, "No configuration file found")
		fmt.Fprintln(globals.Stdout, "")
		fmt.Fprintln(globals.Stdout, "Create one at:")
		fmt.Fprintln(globals.Stdout, "  ./.mscope.yaml")
		fmt.Fprintln(globals.Stdout, "  ~/.mscope.yaml")
		fmt.Fprintln(globals.Stdout, "  ~/.config/mscope/config.yaml")
	} else {
		fmt.Fprintf(globals.Stdout, "Config file: %s\n", path)
	}
	return nil
}

// ConfigGenerateCmd generates a sample configuration file
type ConfigGenerateCmd struct {
	Output string `short:"o" help:"Write to this file instead of stdout"`
	Force  bool   `help:"Overwrite an existing file"`
}

// Run executes the config generate command
func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	cfg := config.Default()
	if c.Output == "" {
		return config.Generate(globals.Stdout, cfg)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !c.Force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(c.Output, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return outputError(globals, &CLIError{
				Code:    "CONFIG_EXISTS",
				Message: fmt.Sprintf("%s already exists", c.Output),
				Hint:    "Pass --force to overwrite it",
				Err:     err,
			})
		}
		return outputError(globals, err)
	}
	if err := config.Generate(f, cfg); err != nil {
		f.Close()
		return outputError(globals, err)
	}
	if err := f.Close(); err != nil {
		return outputError(globals, err)
	}
	emitInfo(globals, globals.Emitter(), "wrote sample configuration", c.Output)
	return nil
}
