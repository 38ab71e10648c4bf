package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/go-wkhtmltox"
	"github.com/alnah/go-wkhtmltox/internal/config"
)

// fakeEngine records jobs and returns a canned result.
type fakeEngine struct {
	mu     sync.Mutex
	kind   wkhtmltox.Kind
	cfg    *config.Config
	jobs   []Job
	result *Result
	err    error
	closed bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{result: &Result{Data: []byte("%PDF-fake"), JobID: "job-1"}}
}

func (e *fakeEngine) Run(_ context.Context, job Job) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jobs = append(e.jobs, job)
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func (e *fakeEngine) Close(context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) getJobs() []Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Job(nil), e.jobs...)
}

// testEnv is an Environment with captured output and a fake engine.
type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	engine *fakeEngine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// Isolate from the developer's environment.
	for name := range knownEnvVars {
		t.Setenv(name, "")
	}

	te := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		engine: newFakeEngine(),
	}
	te.Environment = &Environment{
		Stdin:  strings.NewReader(""),
		Stdout: te.stdout,
		Stderr: te.stderr,
		NewEngine: func(kind wkhtmltox.Kind, cfg *config.Config) (Engine, error) {
			te.engine.kind = kind
			te.engine.cfg = cfg
			return te.engine, nil
		},
	}
	return te
}

// setupTestDir creates a temp directory with the given file structure.
// Files map paths to content. Returns the temp directory path.
func setupTestDir(t *testing.T, files map[string]string) string {
	t.Helper()
	tempDir := t.TempDir()

	for path, content := range files {
		fullPath := filepath.Join(tempDir, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0750); err != nil {
			t.Fatalf("failed to create dir for %s: %v", path, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}

	return tempDir
}
