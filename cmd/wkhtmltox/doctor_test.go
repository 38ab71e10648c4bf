package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
)

// fakeProbes returns probes for a healthy host; tests override fields.
func fakeProbes(env map[string]string) doctorProbes {
	return doctorProbes{
		probeLibrary: func(string) (string, error) { return "0.12.6", nil },
		lookBrowser:  func() (string, bool) { return "/usr/bin/chromium", true },
		threadChecks: func() bool { return true },
		tempWritable: func() error { return nil },
		inContainer:  func() bool { return false },
		getenv:       func(k string) string { return env[k] },
	}
}

func TestRunDoctor(t *testing.T) {
	tests := []struct {
		name         string
		env          map[string]string
		modify       func(*doctorProbes)
		wantStatus   string
		wantWarning  string
		wantError    string
		wantLibrary  bool
		wantChromium bool
	}{
		{
			name:         "both backends",
			wantStatus:   statusReady,
			wantLibrary:  true,
			wantChromium: true,
		},
		{
			name: "library missing",
			modify: func(p *doctorProbes) {
				p.probeLibrary = func(string) (string, error) { return "", errors.New("not found") }
			},
			wantStatus:   statusWarnings,
			wantWarning:  "only --backend chromium",
			wantChromium: true,
		},
		{
			name: "browser missing",
			modify: func(p *doctorProbes) {
				p.lookBrowser = func() (string, bool) { return "", false }
			},
			wantStatus:  statusWarnings,
			wantWarning: "will download one",
			wantLibrary: true,
		},
		{
			name: "no backend",
			modify: func(p *doctorProbes) {
				p.probeLibrary = func(string) (string, error) { return "", errors.New("not found") }
				p.lookBrowser = func() (string, bool) { return "", false }
			},
			wantStatus: statusErrors,
			wantError:  "No backend available",
		},
		{
			name: "container without sandbox override",
			modify: func(p *doctorProbes) {
				p.inContainer = func() bool { return true }
			},
			wantStatus:   statusWarnings,
			wantWarning:  "ROD_NO_SANDBOX",
			wantLibrary:  true,
			wantChromium: true,
		},
		{
			name:         "ci with sandbox disabled",
			env:          map[string]string{"CI": "true", "ROD_NO_SANDBOX": "1"},
			wantStatus:   statusReady,
			wantLibrary:  true,
			wantChromium: true,
		},
		{
			name: "no thread ids",
			modify: func(p *doctorProbes) {
				p.threadChecks = func() bool { return false }
			},
			wantStatus:   statusWarnings,
			wantWarning:  "thread checks are off",
			wantLibrary:  true,
			wantChromium: true,
		},
		{
			name: "temp not writable",
			modify: func(p *doctorProbes) {
				p.tempWritable = func() error { return errors.New("read-only file system") }
			},
			wantStatus:   statusErrors,
			wantError:    "read-only file system",
			wantLibrary:  true,
			wantChromium: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fakeProbes(tt.env)
			if tt.modify != nil {
				tt.modify(&p)
			}

			got := runDoctor(p)

			if got.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q (warnings %v, errors %v)", got.Status, tt.wantStatus, got.Warnings, got.Errors)
			}
			if got.Library.Found != tt.wantLibrary {
				t.Errorf("Library.Found = %v, want %v", got.Library.Found, tt.wantLibrary)
			}
			if got.Chromium.Found != tt.wantChromium {
				t.Errorf("Chromium.Found = %v, want %v", got.Chromium.Found, tt.wantChromium)
			}
			if tt.wantWarning != "" && !containsSubstring(got.Warnings, tt.wantWarning) {
				t.Errorf("Warnings = %v, want one containing %q", got.Warnings, tt.wantWarning)
			}
			if tt.wantError != "" && !containsSubstring(got.Errors, tt.wantError) {
				t.Errorf("Errors = %v, want one containing %q", got.Errors, tt.wantError)
			}
		})
	}
}

func TestRunDoctor_LibraryPathFromEnv(t *testing.T) {
	var probed string
	p := fakeProbes(map[string]string{"WKHTMLTOX_LIBRARY": "/opt/wk/libwkhtmltox.so"})
	p.probeLibrary = func(path string) (string, error) {
		probed = path
		return "0.12.6", nil
	}

	got := runDoctor(p)

	if probed != "/opt/wk/libwkhtmltox.so" {
		t.Errorf("probed %q, want the WKHTMLTOX_LIBRARY path", probed)
	}
	if got.Library.Path != "/opt/wk/libwkhtmltox.so" || got.Library.Version != "0.12.6" {
		t.Errorf("Library = %+v", got.Library)
	}
}

func TestPrintDoctorResult(t *testing.T) {
	p := fakeProbes(nil)
	p.probeLibrary = func(string) (string, error) { return "", errors.New("cannot open shared object") }

	var buf bytes.Buffer
	printDoctorResult(&buf, runDoctor(p))
	out := buf.String()

	for _, want := range []string{
		"[WARN] Not loadable: cannot open shared object",
		"[OK] Found at /usr/bin/chromium",
		"[OK] Thread checks: enforced",
		"Status: Ready with warnings",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunDoctorCmd_JSON(t *testing.T) {
	env := newTestEnv(t)

	code := runMain([]string{"wkhtmltox", "doctor", "--json"}, env.Environment)

	var got doctorResult
	if err := json.Unmarshal(env.stdout.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, env.stdout)
	}
	if !slices.Contains([]string{statusReady, statusWarnings, statusErrors}, got.Status) {
		t.Errorf("Status = %q", got.Status)
	}
	wantCode := ExitSuccess
	if got.Status == statusErrors {
		wantCode = ExitGeneral
	}
	if code != wantCode {
		t.Errorf("runMain() = %d, want %d for status %q", code, wantCode, got.Status)
	}
}

func TestRunDoctorCmd_BadFlag(t *testing.T) {
	env := newTestEnv(t)

	if code := runMain([]string{"wkhtmltox", "doctor", "--yaml"}, env.Environment); code != ExitUsage {
		t.Errorf("runMain() = %d, want %d", code, ExitUsage)
	}
}

func containsSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
