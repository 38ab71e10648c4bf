package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-wkhtmltox"
	"github.com/alnah/go-wkhtmltox/chromium"
	"github.com/alnah/go-wkhtmltox/internal/fileutil"
	"github.com/alnah/go-wkhtmltox/internal/hints"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Library  libraryInfo `json:"library"`
	Chromium chromeInfo  `json:"chromium"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// libraryInfo holds libwkhtmltox detection results.
type libraryInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Container bool   `json:"container"`
	CI        bool   `json:"ci"`
}

// systemInfo holds system check results.
type systemInfo struct {
	ThreadChecks bool `json:"thread_checks"`
	TempWritable bool `json:"temp_writable"`
}

// doctorProbes are the checks run by doctor. Replaced in tests.
type doctorProbes struct {
	probeLibrary func(path string) (string, error)
	lookBrowser  func() (string, bool)
	threadChecks func() bool
	tempWritable func() error
	inContainer  func() bool
	getenv       func(string) string
}

func defaultProbes() doctorProbes {
	return doctorProbes{
		probeLibrary: wkhtmltox.ProbeLibrary,
		lookBrowser:  chromium.LookPath,
		threadChecks: wkhtmltox.ThreadChecksEnforced,
		tempWritable: func() error { return fileutil.CheckWritable(os.TempDir()) },
		inContainer:  hints.IsInContainer,
		getenv:       os.Getenv,
	}
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	jsonOutput := fs.Bool("json", false, "print results as JSON")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}

	result := runDoctor(defaultProbes())

	if *jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks. One working backend is enough.
func runDoctor(p doctorProbes) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	checkLibrary(result, p)
	checkChromium(result, p)
	if !result.Library.Found && !result.Chromium.Found {
		result.Errors = append(result.Errors,
			"No backend available. Install wkhtmltox or Chrome/Chromium")
	}
	checkEnvironment(result, p)
	checkSystem(result, p)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}

	return result
}

// checkLibrary loads libwkhtmltox without initializing it.
func checkLibrary(result *doctorResult, p doctorProbes) {
	path := p.getenv("WKHTMLTOX_LIBRARY")
	version, err := p.probeLibrary(path)
	if err != nil {
		result.Library.Error = err.Error()
		result.Warnings = append(result.Warnings,
			"libwkhtmltox not loadable, only --backend chromium will work")
		return
	}

	result.Library.Found = true
	result.Library.Version = version
	result.Library.Path = path
	if path == "" {
		for _, candidate := range wkhtmltox.LibraryPaths() {
			if fileutil.FileExists(candidate) {
				result.Library.Path = candidate
				break
			}
		}
	}
}

// checkChromium locates a browser without downloading one.
func checkChromium(result *doctorResult, p doctorProbes) {
	path, found := p.lookBrowser()
	if !found {
		result.Warnings = append(result.Warnings,
			"Chrome/Chromium not found, --backend chromium will download one on first use")
		return
	}
	result.Chromium.Found = true
	result.Chromium.Path = path
	result.Chromium.Sandbox = p.getenv("ROD_NO_SANDBOX") != "1"
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, p doctorProbes) {
	result.Env.Container = p.inContainer()
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if p.getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if result.Chromium.Found && (result.Env.Container || result.Env.CI) && p.getenv("ROD_NO_SANDBOX") != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// checkSystem verifies thread identification and the temp directory.
func checkSystem(result *doctorResult, p doctorProbes) {
	result.System.ThreadChecks = p.threadChecks()
	if !result.System.ThreadChecks {
		result.Warnings = append(result.Warnings,
			"OS thread ids unavailable on this platform, engine thread checks are off")
	}

	if err := p.tempWritable(); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %v", err))
	} else {
		result.System.TempWritable = true
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "wkhtmltox doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "libwkhtmltox")
	if r.Library.Found {
		if r.Library.Path != "" {
			fmt.Fprintf(w, "  [OK] Found at %s\n", r.Library.Path)
		} else {
			fmt.Fprintln(w, "  [OK] Found in the system library path")
		}
		fmt.Fprintf(w, "  [OK] Version: %s\n", r.Library.Version)
	} else {
		fmt.Fprintf(w, "  [WARN] Not loadable: %s\n", r.Library.Error)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chromium.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chromium.Path)
		if r.Chromium.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintln(w, "  [OK] Container: detected")
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.ThreadChecks {
		fmt.Fprintln(w, "  [OK] Thread checks: enforced")
	} else {
		fmt.Fprintln(w, "  [WARN] Thread checks: unavailable")
	}
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to convert")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
