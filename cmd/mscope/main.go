package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/vburojevic/mscope/internal/cli"
	"github.com/vburojevic/mscope/internal/config"
)

func main() {
	// Load configuration from files/environment before parsing so its values
	// become flag defaults.
	cfg, path, err := config.Resolve(configFlag(os.Args[1:]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
		path = ""
	}

	var c cli.CLI

	// These will be overridden by CLI flags if specified
	vars := kong.Vars{
		"config_format":    cfg.Format,
		"config_log_level": cfg.LogLevel,
	}

	ctx := kong.Parse(&c,
		kong.Name("mscope"),
		kong.Description("mscope: microscopy sample analysis dashboard\n\nRun without arguments for the interactive dashboard, or 'mscope serve' for the HTTP API."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		vars,
	)

	globals := cli.NewGlobalsWithConfig(&c, cfg)
	globals.ConfigFile = path
	if err := ctx.Run(globals); err != nil {
		os.Exit(1)
	}
}

// configFlag finds --config in args; kong has not parsed yet.
func configFlag(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
