package wkhtmltox

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for engine operations.
var (
	ErrIllegalInit      = errors.New("engine may only be initialized once per process")
	ErrNotInitialized   = errors.New("engine is not initialized")
	ErrBlocked          = errors.New("engine is busy with another job")
	ErrThreadMismatch   = errors.New("engine used from a thread other than the one that initialized it")
	ErrEncoding         = errors.New("string contains a NUL byte")
	ErrSettingFailure   = errors.New("engine rejected setting")
	ErrConversionFailed = errors.New("conversion failed")

	// Ownership and lifecycle errors.
	ErrConsumed     = errors.New("settings already transferred to the engine")
	ErrConverted    = errors.New("converter already converted or closed")
	ErrOutputClosed = errors.New("output is closed")
	ErrInconsistent = errors.New("engine reported failure without reporting an error")

	// Backend loading errors.
	ErrLibraryNotFound     = errors.New("wkhtmltox library not found")
	ErrUnsupportedPlatform = errors.New("native backend is not supported on this platform")
	ErrNoObjects           = errors.New("engine kind has no object settings")

	// Builder errors, reported before the engine is touched.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidSize        = errors.New("invalid size")
	ErrInvalidMargin      = errors.New("invalid margin")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidFormat      = errors.New("invalid image format")
	ErrNoSources          = errors.New("no source to convert")
	ErrWrongKind          = errors.New("builder used with the wrong engine")

	// Worker errors.
	ErrWorkerClosed = errors.New("worker is closed")
	ErrJobPanicked  = errors.New("job panicked")

	// Local errors unrelated to the engine.
	ErrWriteOutput = errors.New("failed to write output")
)

// ThreadMismatchError reports an engine call from the wrong OS thread.
type ThreadMismatchError struct {
	Expected uint64
	Actual   uint64
}

func (e *ThreadMismatchError) Error() string {
	return fmt.Sprintf("%v: initialized on thread %d, called from thread %d", ErrThreadMismatch, e.Expected, e.Actual)
}

func (e *ThreadMismatchError) Unwrap() error { return ErrThreadMismatch }

// Scope names the settings object a setting was applied to.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeObject Scope = "object"
)

// SettingError reports a key/value pair the engine refused.
type SettingError struct {
	Scope Scope
	Name  string
	Value string
}

func (e *SettingError) Error() string {
	return fmt.Sprintf("failed to update %s setting '%s'='%s'", e.Scope, e.Name, e.Value)
}

func (e *SettingError) Unwrap() error { return ErrSettingFailure }

// EncodingError reports a setting or payload that cannot cross the C boundary.
type EncodingError struct {
	Field string // "name", "value" or "html"
	Text  string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%v: %s %q", ErrEncoding, e.Field, e.Text)
}

func (e *EncodingError) Unwrap() error { return ErrEncoding }

// ConversionError carries every error message the engine reported for a job.
type ConversionError struct {
	Messages []string
	// HTTPCode is the last HTTP error code seen while loading sources, 0 if none.
	HTTPCode int
}

// Message joins the reported errors the way they are shown to users.
func (e *ConversionError) Message() string {
	return strings.Join(e.Messages, ", ")
}

func (e *ConversionError) Error() string {
	if e.HTTPCode != 0 {
		return fmt.Sprintf("%v: %s (http status %d)", ErrConversionFailed, e.Message(), e.HTTPCode)
	}
	return fmt.Sprintf("%v: %s", ErrConversionFailed, e.Message())
}

func (e *ConversionError) Unwrap() error { return ErrConversionFailed }
