package cli

import (
	"fmt"
)

// CompletionCmd generates shell completions
type CompletionCmd struct {
	Shell string `arg:"" enum:"bash,zsh,fish" help:"Shell type (bash, zsh, fish)"`
}

// Run executes the completion command
func (c *CompletionCmd) Run(globals *Globals) error {
	var script string
	switch c.Shell {
	case "bash":
		script = bashCompletion
	case "zsh":
		script = zshCompletion
	case "fish":
		script = fishCompletion
	default:
		return fmt.Errorf("unsupported shell: %s", c.Shell)
	}
	_, err := fmt.Fprint(globals.Stdout, script)
	return err
}

const bashCompletion = `# mscope bash completion script
# Add to ~/.bashrc or ~/.bash_profile:
#   eval "$(mscope completion bash)"

_mscope_history_ids() {
    mscope -q -f ndjson history list 2>/dev/null | grep -o '"id":"[^"]*"' | cut -d'"' -f4
}

_mscope_completions() {
    local cur prev words cword
    _init_completion || return

    local commands="ui serve scan history config doctor examples version completion"
    local global_flags="-f --format -l --log-level -q --quiet -v --verbose --config"

    case "${prev}" in
        mscope)
            COMPREPLY=($(compgen -W "${commands}" -- "${cur}"))
            return
            ;;
        -f|--format)
            COMPREPLY=($(compgen -W "ndjson text" -- "${cur}"))
            return
            ;;
        -l|--log-level)
            COMPREPLY=($(compgen -W "debug info warn error" -- "${cur}"))
            return
            ;;
        --risk)
            COMPREPLY=($(compgen -W "low moderate high" -- "${cur}"))
            return
            ;;
        -e|--export|-F|--as)
            COMPREPLY=($(compgen -W "csv ndjson text" -- "${cur}"))
            return
            ;;
        show|export)
            if [[ "${words[1]}" == "history" ]]; then
                COMPREPLY=($(compgen -W "$(_mscope_history_ids)" -- "${cur}"))
                return
            fi
            ;;
        history)
            COMPREPLY=($(compgen -W "list show export" -- "${cur}"))
            return
            ;;
        config)
            COMPREPLY=($(compgen -W "show path generate" -- "${cur}"))
            return
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "${cur}"))
            return
            ;;
    esac

    case "${words[1]}" in
        ui)
            COMPREPLY=($(compgen -W "--no-splash --export-dir --log-file ${global_flags}" -- "${cur}"))
            ;;
        serve)
            COMPREPLY=($(compgen -W "-a --addr --origins --no-splash ${global_flags}" -- "${cur}"))
            ;;
        scan)
            COMPREPLY=($(compgen -W "-s --save -e --export -o --out ${global_flags}" -- "${cur}"))
            ;;
        doctor)
            COMPREPLY=($(compgen -W "--skip-scan ${global_flags}" -- "${cur}"))
            ;;
        history)
            if [[ "${words[2]}" == "export" ]]; then
                COMPREPLY=($(compgen -W "-F --as -o --out ${global_flags}" -- "${cur}"))
                return
            fi
            COMPREPLY=($(compgen -W "-n --limit -p --pattern -x --exclude -w --where --risk --species --location ${global_flags}" -- "${cur}"))
            ;;
        *)
            COMPREPLY=($(compgen -W "${commands} ${global_flags}" -- "${cur}"))
            ;;
    esac
}

complete -F _mscope_completions mscope
`

const zshCompletion = `#compdef mscope
# mscope zsh completion script
# Add to ~/.zshrc:
#   eval "$(mscope completion zsh)"

_mscope() {
    local -a commands
    commands=(
        'ui:Interactive dashboard'
        'serve:Serve the dashboard session over HTTP'
        'scan:Run one scan and print the analysis'
        'history:List, show and export saved samples'
        'config:Show or manage configuration'
        'doctor:Check configuration, storage and the scan source'
        'examples:Show usage examples'
        'version:Show version information'
        'completion:Generate shell completions'
    )

    local -a global_opts
    global_opts=(
        '-f[Output format]:format:(ndjson text)'
        '--format[Output format]:format:(ndjson text)'
        '-l[Minimum diagnostic log level]:level:(debug info warn error)'
        '--log-level[Minimum diagnostic log level]:level:(debug info warn error)'
        '-q[Suppress info and warning output]'
        '--quiet[Suppress info and warning output]'
        '-v[Show debug output]'
        '--verbose[Show debug output]'
        '--config[Config file]:file:_files'
    )

    _arguments -C \
        $global_opts \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                ui)
                    _arguments \
                        '--no-splash[Skip the splash screen]' \
                        '--export-dir[Export directory]:dir:_directories' \
                        '--log-file[Diagnostic log file]:file:_files' \
                        $global_opts
                    ;;
                serve)
                    _arguments \
                        '-a[Listen address]:addr:' \
                        '--addr[Listen address]:addr:' \
                        '*--origins[Allowed CORS origin]:origin:' \
                        '--no-splash[Start in the Ready phase]' \
                        $global_opts
                    ;;
                scan)
                    _arguments \
                        '-s[Save under name]:name:' \
                        '--save[Save under name]:name:' \
                        '-e[Export format]:format:(csv ndjson text)' \
                        '--export[Export format]:format:(csv ndjson text)' \
                        '-o[Export directory]:dir:_directories' \
                        '--out[Export directory]:dir:_directories' \
                        $global_opts
                    ;;
                history)
                    _arguments \
                        '1:action:(list show export)' \
                        '-n[Maximum entries]:limit:' \
                        '-p[Name regex]:pattern:' \
                        '*-x[Exclude name regex]:pattern:' \
                        '*-w[Field expression]:expr:' \
                        '--risk[Minimum alert level]:level:(low moderate high)' \
                        '*--species[Species name]:species:' \
                        '--location[Location prefix]:location:' \
                        '-F[Export format]:format:(csv ndjson text)' \
                        '--as[Export format]:format:(csv ndjson text)' \
                        '-o[Export directory]:dir:_directories'
                    ;;
                config)
                    _arguments '1:action:(show path generate)'
                    ;;
                completion)
                    _arguments '1:shell:(bash zsh fish)'
                    ;;
            esac
            ;;
    esac
}

compdef _mscope mscope
`

const fishCompletion = `# mscope fish completion script
# Add to ~/.config/fish/completions/mscope.fish

# Disable file completion by default
complete -c mscope -f

# Commands
complete -c mscope -n "__fish_use_subcommand" -a "ui" -d "Interactive dashboard"
complete -c mscope -n "__fish_use_subcommand" -a "serve" -d "Serve the dashboard session over HTTP"
complete -c mscope -n "__fish_use_subcommand" -a "scan" -d "Run one scan and print the analysis"
complete -c mscope -n "__fish_use_subcommand" -a "history" -d "List, show and export saved samples"
complete -c mscope -n "__fish_use_subcommand" -a "config" -d "Show or manage configuration"
complete -c mscope -n "__fish_use_subcommand" -a "doctor" -d "Check configuration, storage and the scan source"
complete -c mscope -n "__fish_use_subcommand" -a "examples" -d "Show usage examples"
complete -c mscope -n "__fish_use_subcommand" -a "version" -d "Show version information"
complete -c mscope -n "__fish_use_subcommand" -a "completion" -d "Generate shell completions"

# Global flags
complete -c mscope -s f -l format -d "Output format" -xa "ndjson text"
complete -c mscope -s l -l log-level -d "Minimum diagnostic log level" -xa "debug info warn error"
complete -c mscope -s q -l quiet -d "Suppress info and warning output"
complete -c mscope -s v -l verbose -d "Show debug output"
complete -c mscope -l config -d "Config file" -r -F

# ui
complete -c mscope -n "__fish_seen_subcommand_from ui" -l no-splash -d "Skip the splash screen"
complete -c mscope -n "__fish_seen_subcommand_from ui" -l export-dir -d "Export directory" -r -F
complete -c mscope -n "__fish_seen_subcommand_from ui" -l log-file -d "Diagnostic log file" -r -F

# serve
complete -c mscope -n "__fish_seen_subcommand_from serve" -s a -l addr -d "Listen address"
complete -c mscope -n "__fish_seen_subcommand_from serve" -l origins -d "Allowed CORS origin"
complete -c mscope -n "__fish_seen_subcommand_from serve" -l no-splash -d "Start in the Ready phase"

# scan
complete -c mscope -n "__fish_seen_subcommand_from scan" -s s -l save -d "Save under name" -r
complete -c mscope -n "__fish_seen_subcommand_from scan" -s e -l export -d "Export format" -xa "csv ndjson text"
complete -c mscope -n "__fish_seen_subcommand_from scan" -s o -l out -d "Export directory" -r -F

# history
complete -c mscope -n "__fish_seen_subcommand_from history" -a "list show export"
complete -c mscope -n "__fish_seen_subcommand_from list" -s n -l limit -d "Maximum entries" -r
complete -c mscope -n "__fish_seen_subcommand_from list" -s p -l pattern -d "Name regex" -r
complete -c mscope -n "__fish_seen_subcommand_from list" -s x -l exclude -d "Exclude name regex" -r
complete -c mscope -n "__fish_seen_subcommand_from list" -s w -l where -d "Field expression" -r
complete -c mscope -n "__fish_seen_subcommand_from list" -l risk -d "Minimum alert level" -xa "low moderate high"
complete -c mscope -n "__fish_seen_subcommand_from list" -l species -d "Species name" -r
complete -c mscope -n "__fish_seen_subcommand_from list" -l location -d "Location prefix" -r
complete -c mscope -n "__fish_seen_subcommand_from export" -s F -l as -d "Export format" -xa "csv ndjson text"
complete -c mscope -n "__fish_seen_subcommand_from export" -s o -l out -d "Export directory" -r -F
complete -c mscope -n "__fish_seen_subcommand_from show export" -a "(mscope -q -f ndjson history list 2>/dev/null | string match -r '\"id\":\"[^\"]*\"' | string split -f4 '\"')"

# config
complete -c mscope -n "__fish_seen_subcommand_from config" -a "show path generate"

# completion
complete -c mscope -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
