// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-wkhtmltox/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForLibraryNotFound returns hints when libwkhtmltox cannot be loaded.
func ForLibraryNotFound(searched []string) string {
	hints := []string{"install wkhtmltox (https://wkhtmltopdf.org/downloads.html)"}
	if os.Getenv("WKHTMLTOX_LIBRARY") == "" {
		hints = append(hints, "set WKHTMLTOX_LIBRARY or --lib to the shared library path")
	}
	if len(searched) > 0 {
		hints = append(hints, "searched: "+strings.Join(searched, ", "))
	}
	hints = append(hints, "or use --backend chromium")
	return formatHints(hints)
}

// ForUnsupportedPlatform returns a hint when the native backend cannot run here.
func ForUnsupportedPlatform() string {
	return format("use --backend chromium on this platform")
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	// Detect CI environment
	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	// Suggest ROD_NO_SANDBOX for container/CI environments
	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}

	// Suggest ROD_BROWSER_BIN if not set
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for slow pages, raise the --timeout flag")
}

// ForThreadMismatch explains the engine thread rule.
func ForThreadMismatch() string {
	return format("all engine calls must come from the thread that initialized it; use a wkhtmltox.Worker")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-wkhtmltox/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	// Find a user config path (contains .config/go-wkhtmltox) to suggest
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-wkhtmltox") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
