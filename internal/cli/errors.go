package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vburojevic/mscope/internal/domain"
	"github.com/vburojevic/mscope/internal/filter"
	"github.com/vburojevic/mscope/internal/output"
)

// CLIError is a structured error used for consistent NDJSON/text emission.
type CLIError struct {
	Code    string
	Message string
	Hint    string
	Err     error
}

func (e *CLIError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// outputErrorCommon normalizes error emission across commands, respecting
// ndjson vs text formats so scripts always get machine-readable failures.
func outputErrorCommon(globals *Globals, code, message string, hint ...string) error {
	if globals != nil && globals.Format == string(output.FormatNDJSON) {
		_ = output.NewNDJSONWriter(globals.Stdout).WriteError(code, message, hint...)
	} else if globals != nil {
		fmt.Fprintf(globals.Stderr, "Error [%s]: %s\n", code, message)
		if len(hint) > 0 && hint[0] != "" {
			fmt.Fprintf(globals.Stderr, "Hint: %s\n", hint[0])
		}
	}
	return errors.New(message)
}

// outputError emits err with its domain code and hint.
func outputError(globals *Globals, err error) error {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		_ = outputErrorCommon(globals, cliErr.Code, cliErr.Message, cliErr.Hint)
		return err
	}
	_ = outputErrorCommon(globals, domain.Code(err), err.Error(), hintFor(err))
	return err
}

// emitWarning respects format/quiet.
func emitWarning(globals *Globals, emitter *output.Emitter, msg string) {
	if globals.Quiet {
		return
	}
	if emitter != nil && emitter.JSON() {
		_ = emitter.Warning(msg)
		return
	}
	fmt.Fprintf(globals.Stderr, "Warning: %s\n", msg)
}

// emitInfo respects quiet.
func emitInfo(globals *Globals, emitter *output.Emitter, msg, path string) {
	if globals.Quiet {
		return
	}
	_ = emitter.Info(msg, path)
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "List saved samples with `mscope history list`"
	case errors.Is(err, domain.ErrAcquisition):
		return "Check the instrument connection, or raise scan.timeout in the config"
	case errors.Is(err, domain.ErrEmptyName):
		return "Pass a non-blank name, e.g. --save Bay-Sample-001"
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return "Supported export formats: csv, ndjson, text"
	case errors.Is(err, domain.ErrInvalidFilter):
		return "Where fields: " + strings.Join(filter.Fields, ", ")
	case errors.Is(err, domain.ErrInvalidResult):
		return "The instrument returned a malformed result; rerun the scan"
	}
	return ""
}
