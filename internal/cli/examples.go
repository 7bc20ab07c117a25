package cli

import (
	"fmt"
	"strings"

	"github.com/vburojevic/mscope/internal/domain"
	"github.com/vburojevic/mscope/internal/filter"
	"github.com/vburojevic/mscope/internal/output"
)

// ExamplesCmd shows usage examples for mscope commands
type ExamplesCmd struct {
	Command string `arg:"" optional:"" help:"Show examples for one command (scan, history, serve, ...)"`
}

// Example represents a single usage example
type Example struct {
	Command     string `json:"command"`
	Description string `json:"description"`
	Output      string `json:"output,omitempty"`
}

// CommandExamples holds examples for a single command
type CommandExamples struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Examples    []Example `json:"examples"`
}

// WorkflowExample shows a multi-step workflow
type WorkflowExample struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
}

// AllExamples is the NDJSON record for the examples command
type AllExamples struct {
	Type          string            `json:"type"`
	SchemaVersion int               `json:"schemaVersion"`
	Version       string            `json:"version"`
	Commands      []CommandExamples `json:"commands"`
	Workflows     []WorkflowExample `json:"workflows,omitempty"`
}

var exampleOrder = []string{"ui", "scan", "history", "serve", "config", "doctor", "completion"}

var commandExamples = map[string]CommandExamples{
	"ui": {
		Name:        "ui",
		Description: "Interactive dashboard: scan, review, save and replay samples",
		Examples: []Example{
			{Command: "mscope", Description: "Open the dashboard with the splash screen"},
			{Command: "mscope ui --no-splash --export-dir ./reports", Description: "Skip the splash; e and x write reports to ./reports"},
			{Command: "mscope ui --log-file /tmp/mscope.log -v", Description: "Keep debug logs out of the terminal"},
		},
	},
	"scan": {
		Name:        "scan",
		Description: "Run one scan and print the analysis with its species shares",
		Examples: []Example{
			{Command: "mscope scan", Description: "Print the result and stats as NDJSON", Output: `{"type":"result","result":{"id":"scan_...","totalOrganisms":80,...}}`},
			{Command: "mscope -f text scan", Description: "Human-readable dashboard report"},
			{Command: "mscope scan --save Bay-Sample-001", Description: "Scan and save to history in one step", Output: `{"type":"history","entry":{"id":"...","name":"Bay-Sample-001",...}}`},
			{Command: "mscope scan -e csv -o ./reports", Description: "Scan and write a CSV report"},
		},
	},
	"history": {
		Name:        "history",
		Description: "List, show, filter and export saved samples",
		Examples: []Example{
			{Command: "mscope history", Description: "List saved samples, most recent first"},
			{Command: "mscope history list -n 5 -p '^Bay'", Description: "Last five samples named Bay..."},
			{Command: "mscope history list --risk moderate --species 'Dino*'", Description: "Samples with a moderate or high alert that counted a Dino... species"},
			{Command: "mscope history list -w 'total>=50 && savedAt>=2026-10-01'", Description: "Field expressions; fields: " + strings.Join(filter.Fields, ", ")},
			{Command: "mscope history show <id>", Description: "Full snapshot of one sample"},
			{Command: "mscope history export <id> -F ndjson", Description: "Write a saved sample's report to export.dir"},
		},
	},
	"serve": {
		Name:        "serve",
		Description: "Serve one dashboard session over HTTP",
		Examples: []Example{
			{Command: "mscope serve", Description: "Listen on server.addr from the config"},
			{Command: "mscope serve -a :9090 --origins https://lab.example", Description: "Custom address with a CORS origin"},
			{Command: "curl -X POST localhost:8080/v1/scan", Description: "Trigger a scan", Output: `{"type":"result",...}`},
			{Command: "curl 'localhost:8080/v1/history?risk=high'", Description: "Filter saved samples with the history list flags as query parameters"},
		},
	},
	"config": {
		Name:        "config",
		Description: "Show or manage configuration",
		Examples: []Example{
			{Command: "mscope config", Description: "Show the effective configuration"},
			{Command: "mscope config generate -o ~/.mscope.yaml", Description: "Write a sample config file"},
			{Command: "MSCOPE_HISTORY_BACKEND=sqlite mscope scan --save X", Description: "Override a setting from the environment"},
		},
	},
	"doctor": {
		Name:        "doctor",
		Description: "Check configuration, storage and the scan source",
		Examples: []Example{
			{Command: "mscope doctor", Description: "Run every check including a trial scan"},
			{Command: "mscope -f ndjson doctor --skip-scan", Description: "Machine-readable report without scanning"},
		},
	},
	"completion": {
		Name:        "completion",
		Description: "Generate shell completions",
		Examples: []Example{
			{Command: `eval "$(mscope completion zsh)"`, Description: "Enable zsh completion for this shell"},
		},
	},
}

var workflows = []WorkflowExample{
	{
		Name:        "field_survey",
		Description: "Scan samples at a site and keep a persistent record",
		Steps: []string{
			"mscope config generate -o ~/.mscope.yaml",
			"# set history.backend: sqlite and scan.location",
			"mscope scan --save Site-3-Slide-01",
			"mscope scan --save Site-3-Slide-02",
			"mscope history list --risk high",
		},
	},
	{
		Name:        "lab_report",
		Description: "Export the high-risk samples of the week",
		Steps: []string{
			"mscope -f ndjson history list -w 'risk=high && savedAt>=2026-10-12' | jq -r .id",
			"mscope history export <id> -F csv -o ./reports",
		},
	},
}

// Run executes the examples command
func (c *ExamplesCmd) Run(globals *Globals) error {
	var cmds []CommandExamples
	if c.Command != "" {
		examples, ok := commandExamples[c.Command]
		if !ok {
			return outputError(globals, &CLIError{
				Code:    "UNKNOWN_COMMAND",
				Message: fmt.Sprintf("no examples for %q", c.Command),
				Hint:    "Available: " + strings.Join(exampleOrder, ", "),
				Err:     domain.ErrNotFound,
			})
		}
		cmds = []CommandExamples{examples}
	} else {
		for _, name := range exampleOrder {
			cmds = append(cmds, commandExamples[name])
		}
	}

	if globals.Format == string(output.FormatNDJSON) {
		all := AllExamples{
			Type:          "examples",
			SchemaVersion: output.SchemaVersion,
			Version:       Version,
			Commands:      cmds,
		}
		if c.Command == "" {
			all.Workflows = workflows
		}
		return output.NewNDJSONWriter(globals.Stdout).WriteRaw(all)
	}
	return c.outputText(globals, cmds)
}

func (c *ExamplesCmd) outputText(globals *Globals, cmds []CommandExamples) error {
	var sb strings.Builder

	if c.Command == "" {
		sb.WriteString("MSCOPE USAGE EXAMPLES\n")
		sb.WriteString("=====================\n\n")
	}
	for _, cmd := range cmds {
		c.formatCommandExamples(&sb, cmd)
		sb.WriteString("\n")
	}

	if c.Command == "" {
		sb.WriteString("WORKFLOWS\n")
		sb.WriteString("---------\n\n")
		for _, wf := range workflows {
			fmt.Fprintf(&sb, "## %s\n", wf.Name)
			fmt.Fprintf(&sb, "%s\n\n", wf.Description)
			for _, step := range wf.Steps {
				fmt.Fprintf(&sb, "  %s\n", step)
			}
			sb.WriteString("\n")
		}
	}

	_, err := fmt.Fprint(globals.Stdout, sb.String())
	return err
}

func (c *ExamplesCmd) formatCommandExamples(sb *strings.Builder, cmd CommandExamples) {
	fmt.Fprintf(sb, "## %s\n", strings.ToUpper(cmd.Name))
	fmt.Fprintf(sb, "%s\n\n", cmd.Description)

	for _, ex := range cmd.Examples {
		fmt.Fprintf(sb, "  %s\n", ex.Command)
		fmt.Fprintf(sb, "    %s\n", ex.Description)
		if ex.Output != "" {
			fmt.Fprintf(sb, "    Output: %s\n", ex.Output)
		}
		sb.WriteString("\n")
	}
}
