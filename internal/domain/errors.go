package domain

import "errors"

// Errors returned by the scan, session, history and export layers. Every
// one except ErrDisposed leaves the session usable.
var (
	ErrInvalidResult     = errors.New("invalid analysis result")
	ErrAcquisition       = errors.New("acquisition failed")
	ErrNoActiveResult    = errors.New("no active result: perform a scan before saving")
	ErrEmptyName         = errors.New("sample name must not be empty")
	ErrNotFound          = errors.New("history entry not found")
	ErrScanInProgress    = errors.New("a scan is already in progress")
	ErrInvalidEntry      = errors.New("invalid history entry")
	ErrUnknownPage       = errors.New("unknown page")
	ErrNoSaveInProgress  = errors.New("no save in progress")
	ErrDisposed          = errors.New("session is closed")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrInvalidFilter     = errors.New("invalid history filter")
)

// Error codes for NDJSON and HTTP error payloads.
const (
	CodeInvalidResult     = "INVALID_RESULT"
	CodeAcquisition       = "ACQUISITION_ERROR"
	CodeNoActiveResult    = "NO_ACTIVE_RESULT"
	CodeEmptyName         = "EMPTY_NAME"
	CodeNotFound          = "NOT_FOUND"
	CodeScanInProgress    = "SCAN_IN_PROGRESS"
	CodeInvalidEntry      = "INVALID_ENTRY"
	CodeUnknownPage       = "UNKNOWN_PAGE"
	CodeNoSaveInProgress  = "NO_SAVE_IN_PROGRESS"
	CodeDisposed          = "SESSION_CLOSED"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeInvalidFilter     = "INVALID_FILTER"
	CodeInternal          = "INTERNAL_ERROR"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidResult, CodeInvalidResult},
	{ErrAcquisition, CodeAcquisition},
	{ErrNoActiveResult, CodeNoActiveResult},
	{ErrEmptyName, CodeEmptyName},
	{ErrNotFound, CodeNotFound},
	{ErrScanInProgress, CodeScanInProgress},
	{ErrInvalidEntry, CodeInvalidEntry},
	{ErrUnknownPage, CodeUnknownPage},
	{ErrNoSaveInProgress, CodeNoSaveInProgress},
	{ErrDisposed, CodeDisposed},
	{ErrUnsupportedFormat, CodeUnsupportedFormat},
	{ErrInvalidFilter, CodeInvalidFilter},
}

// Code maps err onto its machine-readable error code. Errors outside the
// taxonomy map to CodeInternal.
func Code(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}
