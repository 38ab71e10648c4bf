package wkhtmltox

import (
	"sync"

	"go.uber.org/zap"
)

// Library is the process-wide handle on one engine kind. There are exactly two,
// returned by PDF and Image. They live until the process exits and can be
// initialized only once.
type Library struct {
	kind     Kind
	state    engineState
	registry *callbackRegistry
	threadID func() uint64

	mu      sync.Mutex
	backend Backend // set once by Init
}

var (
	pdfLibrary   = newLibrary(KindPDF, currentThreadID)
	imageLibrary = newLibrary(KindImage, currentThreadID)
)

// PDF returns the process-wide wkhtmltopdf library.
func PDF() *Library { return pdfLibrary }

// Image returns the process-wide wkhtmltoimage library.
func Image() *Library { return imageLibrary }

func newLibrary(kind Kind, threadID func() uint64) *Library {
	return &Library{
		kind:     kind,
		registry: newCallbackRegistry(kind),
		threadID: threadID,
	}
}

// InitPDF initializes wkhtmltopdf. See Library.Init.
func InitPDF(opts ...InitOption) (*Guard, error) {
	return pdfLibrary.Init(opts...)
}

// InitImage initializes wkhtmltoimage. See Library.Init.
func InitImage(opts ...InitOption) (*Guard, error) {
	return imageLibrary.Init(opts...)
}

// InitOption configures Library.Init.
type InitOption func(*initConfig)

type initConfig struct {
	backend     Backend
	libraryPath string
	graphics    bool
}

// WithBackend replaces the native libwkhtmltox backend.
func WithBackend(b Backend) InitOption {
	return func(c *initConfig) { c.backend = b }
}

// WithLibraryPath loads libwkhtmltox from path instead of the default search
// locations. Ignored when WithBackend is used.
func WithLibraryPath(path string) InitOption {
	return func(c *initConfig) { c.libraryPath = path }
}

// WithGraphics lets the engine use an X server / graphics system.
func WithGraphics(enabled bool) InitOption {
	return func(c *initConfig) { c.graphics = enabled }
}

// Init initializes the engine on the calling OS thread and returns the guard
// whose Close deinitializes it for the rest of the process.
//
// Init succeeds at most once per process; every later call returns
// ErrIllegalInit, whatever the outcome of the first. The calling goroutine
// must stay locked to its OS thread (runtime.LockOSThread) for as long as the
// engine is used: every later call is checked against this thread.
//
// A failed native init still returns a guard. It is logged, and the engine
// reports ErrNotInitialized afterwards. A backend that cannot be loaded at all
// returns ErrLibraryNotFound and leaves Init available.
func (l *Library) Init(opts ...InitOption) (*Guard, error) {
	var cfg initConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := l.state.beginInit(); err != nil {
		return nil, err
	}

	backend := cfg.backend
	if backend == nil {
		b, err := openNativeBackend(l.kind, cfg.libraryPath)
		if err != nil {
			l.state.abortInit()
			return nil, err
		}
		backend = b
	}
	l.mu.Lock()
	l.backend = backend
	l.mu.Unlock()
	backend.Bind(l.registry)

	log := l.log()
	log.Debug(l.kind.String()+"_init", zap.Bool("graphics", cfg.graphics))
	if backend.Init(cfg.graphics) {
		l.state.finishInit(l.threadID())
	} else {
		log.Error("failed to initialize " + l.kind.String())
	}

	return &Guard{lib: l}, nil
}

// ThreadChecksEnforced reports whether this platform can identify OS threads.
// Without it every call looks like it comes from the init thread.
func ThreadChecksEnforced() bool { return currentThreadID() != 0 }

// Kind reports which engine this library drives.
func (l *Library) Kind() Kind { return l.kind }

// State reports the current lifecycle state.
func (l *Library) State() State { return l.state.current() }

// Version returns the engine version, or "" when no engine is loaded.
func (l *Library) Version() string {
	switch l.state.current() {
	case StateUninitialized, StateDeinitialized:
		return ""
	}
	return l.native().Version()
}

// NewGlobalSettings acquires the engine for a new job. The engine stays busy
// until the job's Output, failed conversion or unconverted settings/converter
// is closed.
func (l *Library) NewGlobalSettings() (*GlobalSettings, error) {
	if err := l.checkThread(); err != nil {
		return nil, err
	}
	gen, err := l.state.acquire()
	if err != nil {
		return nil, err
	}

	l.log().Debug(l.kind.String() + "_create_global_settings")
	return &GlobalSettings{
		settings: settings{
			lib:    l,
			scope:  ScopeGlobal,
			handle: l.native().CreateGlobalSettings(),
		},
		gen: gen,
	}, nil
}

// NewObjectSettings creates settings for one source of a PDF job. It does
// not acquire the engine.
func (l *Library) NewObjectSettings() (*ObjectSettings, error) {
	if l.kind != KindPDF {
		return nil, ErrNoObjects
	}
	if err := l.checkThread(); err != nil {
		return nil, err
	}
	if err := l.state.usable(); err != nil {
		return nil, err
	}

	l.log().Debug(l.kind.String() + "_create_object_settings")
	return &ObjectSettings{
		settings: settings{
			lib:    l,
			scope:  ScopeObject,
			handle: l.native().CreateObjectSettings(),
		},
	}, nil
}

// native returns the bound backend, nil before Init.
func (l *Library) native() Backend {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backend
}

func (l *Library) checkThread() error {
	return l.state.checkThread(l.threadID())
}

func (l *Library) log() *zap.Logger {
	return Logger().With(zap.Stringer("engine", l.kind))
}
