package wkhtmltox

import (
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"
)

func TestLibrary_InitOnce(t *testing.T) {
	t.Parallel()

	te := newTestEngine(t, KindPDF)

	second := newFakeBackend()
	guard, err := te.lib.Init(WithBackend(second))
	if !errors.Is(err, ErrIllegalInit) {
		t.Fatalf("second Init() error = %v, want %v", err, ErrIllegalInit)
	}
	if guard != nil {
		t.Error("second Init() returned a guard")
	}
	if n := len(second.callLog()); n != 0 {
		t.Errorf("second backend got %d calls, want none", n)
	}
	if n := te.backend.count("init"); n != 1 {
		t.Errorf("native init called %d times, want 1", n)
	}
}

func TestLibrary_InitOnce_Concurrent(t *testing.T) {
	t.Parallel()

	lib := newLibrary(KindImage, newTestThread().current)
	backend := newFakeBackend()

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		illegal   int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := lib.Init(WithBackend(backend))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrIllegalInit):
				illegal++
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || illegal != callers-1 {
		t.Errorf("succeeded = %d, illegal = %d, want 1 and %d", succeeded, illegal, callers-1)
	}
	if n := backend.count("init"); n != 1 {
		t.Errorf("native init called %d times, want 1", n)
	}
}

func TestLibrary_InitNativeFailure(t *testing.T) {
	t.Parallel()

	lib := newLibrary(KindPDF, newTestThread().current)
	backend := newFakeBackend()
	backend.initOK = false

	guard, err := lib.Init(WithBackend(backend))
	if err != nil {
		t.Fatalf("Init() error = %v, want a guard despite native failure", err)
	}
	assertState(t, lib, StateUninitialized)

	if _, err := lib.NewGlobalSettings(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("NewGlobalSettings() error = %v, want %v", err, ErrNotInitialized)
	}
	if _, err := lib.Init(WithBackend(newFakeBackend())); !errors.Is(err, ErrIllegalInit) {
		t.Errorf("retry Init() error = %v, want %v", err, ErrIllegalInit)
	}
	if lib.Version() != "" {
		t.Errorf("Version() = %q, want empty before a successful init", lib.Version())
	}
	if err := guard.Close(); err != nil {
		t.Errorf("guard.Close() error = %v", err)
	}
}

func TestLibrary_InitLoadFailureIsRetryable(t *testing.T) {
	t.Parallel()

	lib := newLibrary(KindPDF, newTestThread().current)

	_, err := lib.Init(WithLibraryPath(filepath.Join(t.TempDir(), "libmissing.so")))
	if !errors.Is(err, ErrLibraryNotFound) && !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("Init() error = %v, want a load error", err)
	}
	assertState(t, lib, StateUninitialized)

	if _, err := lib.Init(WithBackend(newFakeBackend())); err != nil {
		t.Fatalf("Init() after load failure error = %v", err)
	}
	assertState(t, lib, StateReady)
}

func TestLibrary_InitOptions(t *testing.T) {
	t.Parallel()

	lib := newLibrary(KindPDF, newTestThread().current)
	backend := newFakeBackend()

	if _, err := lib.Init(WithBackend(backend), WithGraphics(true)); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !slices.Contains(backend.callLog(), "init graphics=true") {
		t.Errorf("calls = %v, want init with graphics", backend.callLog())
	}
	if got := lib.Version(); got != "0.12.6-fake" {
		t.Errorf("Version() = %q", got)
	}
	if lib.Kind() != KindPDF {
		t.Errorf("Kind() = %v", lib.Kind())
	}
}

func TestLibrary_ThreadMismatch(t *testing.T) {
	t.Parallel()

	te := newTestEngine(t, KindPDF)
	global, err := te.lib.NewGlobalSettings()
	if err != nil {
		t.Fatalf("NewGlobalSettings() error = %v", err)
	}
	obj, err := te.lib.NewObjectSettings()
	if err != nil {
		t.Fatalf("NewObjectSettings() error = %v", err)
	}
	before := len(te.backend.callLog())

	te.thread.id.Store(2)

	checks := map[string]func() error{
		"NewGlobalSettings":    func() error { _, err := te.lib.NewGlobalSettings(); return err },
		"NewObjectSettings":    func() error { _, err := te.lib.NewObjectSettings(); return err },
		"GlobalSettings.Set":   func() error { return global.Set("orientation", "Landscape") },
		"ObjectSettings.Set":   func() error { return obj.Set("page", "a.html") },
		"NewConverter":         func() error { _, err := global.NewConverter(); return err },
		"GlobalSettings.Close": global.Close,
		"ObjectSettings.Close": obj.Close,
		"Guard.Close":          te.guard.Close,
	}
	for name, call := range checks {
		err := call()
		var mismatch *ThreadMismatchError
		if !errors.As(err, &mismatch) {
			t.Errorf("%s error = %v, want *ThreadMismatchError", name, err)
			continue
		}
		if mismatch.Expected != 1 || mismatch.Actual != 2 {
			t.Errorf("%s mismatch = %+v, want 1 -> 2", name, mismatch)
		}
	}

	if after := len(te.backend.callLog()); after != before {
		t.Errorf("native calls from the wrong thread: %v", te.backend.callLog()[before:])
	}
	assertState(t, te.lib, StateBusy)

	// Back on the init thread everything works again.
	te.thread.id.Store(1)
	if err := global.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	assertState(t, te.lib, StateReady)
}

func TestLibrary_NoObjectsForImage(t *testing.T) {
	t.Parallel()

	te := newTestEngine(t, KindImage)
	if _, err := te.lib.NewObjectSettings(); !errors.Is(err, ErrNoObjects) {
		t.Errorf("NewObjectSettings() error = %v, want %v", err, ErrNoObjects)
	}
}

func TestLibrary_NotInitialized(t *testing.T) {
	t.Parallel()

	lib := newLibrary(KindPDF, newTestThread().current)

	if _, err := lib.NewGlobalSettings(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("NewGlobalSettings() error = %v, want %v", err, ErrNotInitialized)
	}
	if _, err := lib.NewObjectSettings(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("NewObjectSettings() error = %v, want %v", err, ErrNotInitialized)
	}
	if lib.Version() != "" {
		t.Errorf("Version() = %q, want empty", lib.Version())
	}
}

func TestProcessLibraries(t *testing.T) {
	t.Parallel()

	if PDF().Kind() != KindPDF || Image().Kind() != KindImage {
		t.Error("process libraries have the wrong kinds")
	}
	if PDF() != PDF() {
		t.Error("PDF() is not a singleton")
	}
}
