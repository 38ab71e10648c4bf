package wkhtmltox

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// Compile-time interface check.
var _ Backend = (*fakeBackend)(nil)

// fakeBackend is a scriptable in-memory engine. Every native call is logged
// in calls so tests can assert on order and on the absence of calls.
type fakeBackend struct {
	mu     sync.Mutex
	events Events
	next   Handle
	calls  []string

	initOK   bool
	deinitOK bool
	// reject lists "global:name" or "object:name" keys the engine refuses.
	reject map[string]bool
	// convert runs the job; the default reports progress and success.
	convert  func(ev Events, conv Handle) bool
	output   []byte
	httpCode int

	converterData *string
	objectData    []*string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		initOK:   true,
		deinitOK: true,
		reject:   make(map[string]bool),
		output:   []byte("%PDF-1.4 fake"),
		convert: func(ev Events, conv Handle) bool {
			ev.Progress(conv, 50)
			ev.Finished(conv, 1)
			return true
		},
	}
}

func (b *fakeBackend) record(format string, args ...any) {
	b.mu.Lock()
	b.calls = append(b.calls, fmt.Sprintf(format, args...))
	b.mu.Unlock()
}

// callLog returns a copy of the native calls made so far.
func (b *fakeBackend) callLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// count returns how many calls start with prefix.
func (b *fakeBackend) count(prefix string) int {
	n := 0
	for _, c := range b.callLog() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (b *fakeBackend) handle() Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	return b.next
}

func (b *fakeBackend) Bind(events Events) { b.events = events }

func (b *fakeBackend) Init(useGraphics bool) bool {
	b.record("init graphics=%t", useGraphics)
	return b.initOK
}

func (b *fakeBackend) Deinit() bool {
	b.record("deinit")
	return b.deinitOK
}

func (b *fakeBackend) Version() string { return "0.12.6-fake" }

func (b *fakeBackend) CreateGlobalSettings() Handle {
	h := b.handle()
	b.record("create_global %d", h)
	return h
}

func (b *fakeBackend) DestroyGlobalSettings(settings Handle) {
	b.record("destroy_global %d", settings)
}

func (b *fakeBackend) SetGlobalSetting(settings Handle, name, value string) bool {
	b.record("set_global %s=%s", name, value)
	return !b.reject["global:"+name]
}

func (b *fakeBackend) CreateObjectSettings() Handle {
	h := b.handle()
	b.record("create_object %d", h)
	return h
}

func (b *fakeBackend) DestroyObjectSettings(settings Handle) {
	b.record("destroy_object %d", settings)
}

func (b *fakeBackend) SetObjectSetting(settings Handle, name, value string) bool {
	b.record("set_object %s=%s", name, value)
	return !b.reject["object:"+name]
}

func (b *fakeBackend) CreateConverter(settings Handle, data *string) Handle {
	h := b.handle()
	b.record("create_converter %d", h)
	b.mu.Lock()
	b.converterData = data
	b.mu.Unlock()
	return h
}

func (b *fakeBackend) DestroyConverter(converter Handle) {
	b.record("destroy_converter %d", converter)
}

func (b *fakeBackend) AddObject(converter, settings Handle, data *string) {
	b.record("add_object %d", settings)
	b.mu.Lock()
	b.objectData = append(b.objectData, data)
	b.mu.Unlock()
}

func (b *fakeBackend) InstallCallbacks(converter Handle) {
	b.record("install_callbacks %d", converter)
}

func (b *fakeBackend) Convert(converter Handle) bool {
	b.record("convert %d", converter)
	return b.convert(b.events, converter)
}

func (b *fakeBackend) HTTPErrorCode(Handle) int { return b.httpCode }

func (b *fakeBackend) Output(Handle) []byte {
	b.record("get_output")
	return b.output
}

// testThread stands in for the OS thread id so tests can impersonate other
// threads without leaving their goroutine.
type testThread struct {
	id atomic.Uint64
}

func newTestThread() *testThread {
	th := &testThread{}
	th.id.Store(1)
	return th
}

func (th *testThread) current() uint64 { return th.id.Load() }

// testEngine is an initialized library on a fake backend.
type testEngine struct {
	lib     *Library
	backend *fakeBackend
	thread  *testThread
	guard   *Guard
}

// newTestEngine initializes a fresh library of kind. Libraries created here
// are independent of the process-wide PDF and Image ones.
func newTestEngine(t *testing.T, kind Kind) *testEngine {
	t.Helper()

	te := &testEngine{backend: newFakeBackend(), thread: newTestThread()}
	te.lib = newLibrary(kind, te.thread.current)

	guard, err := te.lib.Init(WithBackend(te.backend))
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if got := te.lib.State(); got != StateReady {
		t.Fatalf("State() after Init = %v, want %v", got, StateReady)
	}
	te.guard = guard
	return te
}

// assertState fails the test if the library is not in want.
func assertState(t *testing.T, lib *Library, want State) {
	t.Helper()
	if got := lib.State(); got != want {
		t.Errorf("State() = %v, want %v", got, want)
	}
}
