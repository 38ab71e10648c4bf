package main

import (
	"context"
	"errors"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-wkhtmltox"
	"github.com/alnah/go-wkhtmltox/chromium"
	"github.com/alnah/go-wkhtmltox/internal/config"
	"github.com/alnah/go-wkhtmltox/internal/hints"
	"github.com/alnah/go-wkhtmltox/internal/pdfcheck"
)

// Exit codes for the wkhtmltox CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or rejected setting
	ExitIO      = 3 // File not found, permission denied
	ExitEngine  = 4 // Engine, library, or browser errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Usage/config/setting errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrInvalidSetting) ||
		errors.Is(err, flag.ErrHelp) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, wkhtmltox.ErrSettingFailure) ||
		errors.Is(err, wkhtmltox.ErrEncoding) ||
		errors.Is(err, wkhtmltox.ErrInvalidPageSize) ||
		errors.Is(err, wkhtmltox.ErrInvalidSize) ||
		errors.Is(err, wkhtmltox.ErrInvalidMargin) ||
		errors.Is(err, wkhtmltox.ErrInvalidOrientation) ||
		errors.Is(err, wkhtmltox.ErrInvalidFormat) ||
		errors.Is(err, wkhtmltox.ErrNoSources) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrInputNotFound) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, wkhtmltox.ErrWriteOutput) {
		return ExitIO
	}

	// Engine errors (exit 4)
	if errors.Is(err, wkhtmltox.ErrLibraryNotFound) ||
		errors.Is(err, wkhtmltox.ErrUnsupportedPlatform) ||
		errors.Is(err, wkhtmltox.ErrNotInitialized) ||
		errors.Is(err, wkhtmltox.ErrIllegalInit) ||
		errors.Is(err, wkhtmltox.ErrBlocked) ||
		errors.Is(err, wkhtmltox.ErrThreadMismatch) ||
		errors.Is(err, wkhtmltox.ErrConversionFailed) ||
		errors.Is(err, wkhtmltox.ErrInconsistent) ||
		errors.Is(err, wkhtmltox.ErrJobPanicked) ||
		errors.Is(err, chromium.ErrBrowserConnect) ||
		errors.Is(err, chromium.ErrPageCreate) ||
		errors.Is(err, chromium.ErrPageLoad) ||
		errors.Is(err, chromium.ErrRender) ||
		errors.Is(err, ErrVerify) ||
		errors.Is(err, pdfcheck.ErrMalformed) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ExitEngine
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error, configName string) string {
	switch {
	case errors.Is(err, wkhtmltox.ErrLibraryNotFound):
		return hints.ForLibraryNotFound(wkhtmltox.LibraryPaths())
	case errors.Is(err, wkhtmltox.ErrUnsupportedPlatform):
		return hints.ForUnsupportedPlatform()
	case errors.Is(err, chromium.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, wkhtmltox.ErrThreadMismatch):
		return hints.ForThreadMismatch()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(config.SearchPaths(configName))
	case errors.Is(err, wkhtmltox.ErrWriteOutput):
		return hints.ForOutputDirectory()
	}
	return ""
}
