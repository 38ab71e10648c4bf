package wkhtmltox

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type converterState int

const (
	converterOpen converterState = iota
	converterConverted
	converterClosed
)

// Converter is one conversion job. It is created by consuming GlobalSettings,
// accumulates sources with AttachPage and AttachHTML, and runs once with
// Convert. A converter that is never converted must be closed.
//
// There is no cancellation: Convert blocks until the engine returns. Use a
// Worker to stop waiting on a slow job.
type Converter struct {
	lib    *Library
	handle Handle
	gen    uint64
	jobID  uuid.UUID
	state  converterState
}

func newConverter(lib *Library, handle Handle, g *GlobalSettings) *Converter {
	return &Converter{
		lib:    lib,
		handle: handle,
		gen:    g.gen,
		jobID:  uuid.New(),
	}
}

// JobID identifies the job in logs.
func (c *Converter) JobID() uuid.UUID { return c.jobID }

// AttachPage sets the "page" key of obj to source (a URL or a local path) and
// hands obj to the engine. obj is consumed even when the engine later fails
// to load the source.
func (c *Converter) AttachPage(obj *ObjectSettings, source string) error {
	if err := c.attachable(obj); err != nil {
		return err
	}
	if err := obj.set("page", source); err != nil {
		return err
	}
	return c.attach(obj, nil)
}

// AttachHTML hands obj to the engine with html as its content. The payload
// takes precedence over a "page" key, except that an empty payload falls back
// to "page".
func (c *Converter) AttachHTML(obj *ObjectSettings, html string) error {
	if err := c.attachable(obj); err != nil {
		return err
	}
	if err := checkCString("html", html); err != nil {
		return err
	}
	return c.attach(obj, &html)
}

func (c *Converter) attachable(obj *ObjectSettings) error {
	if c.lib.kind != KindPDF {
		return ErrNoObjects
	}
	if err := c.lib.checkThread(); err != nil {
		return err
	}
	if c.state != converterOpen {
		return ErrConverted
	}
	if obj.ownership != ownershipOwned {
		return ErrConsumed
	}
	return c.lib.state.usable()
}

func (c *Converter) attach(obj *ObjectSettings, data *string) error {
	backend := c.lib.native()
	return obj.transfer(func(h Handle) {
		c.log().Debug(c.lib.kind.String()+"_add_object", zap.Bool("inline", data != nil))
		backend.AddObject(c.handle, h, data)
	})
}

// ConvertOption configures a single Convert call.
type ConvertOption func(*convertConfig)

type convertConfig struct {
	progress func(percent int)
	phase    func(index int, description string)
}

// WithProgress observes progress, in percent, while the job runs. fn is
// called on the engine thread and must not call back into the engine.
func WithProgress(fn func(percent int)) ConvertOption {
	return func(c *convertConfig) { c.progress = fn }
}

// WithPhase observes phase changes while the job runs. fn is called on the
// engine thread and must not call back into the engine.
func WithPhase(fn func(index int, description string)) ConvertOption {
	return func(c *convertConfig) { c.phase = fn }
}

// jobResult collects what the engine reports during one Convert call.
type jobResult struct {
	mu       sync.Mutex
	messages []string
	warnings []string
}

func (r *jobResult) addError(msg string) {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
}

func (r *jobResult) addWarning(msg string) {
	r.mu.Lock()
	r.warnings = append(r.warnings, msg)
	r.mu.Unlock()
}

// failure builds the error for a failed job, nil if no message was reported.
func (r *jobResult) failure() *ConversionError {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return nil
	}
	return &ConversionError{Messages: append([]string(nil), r.messages...)}
}

// Convert runs the job and blocks until the engine reports completion.
//
// On success the returned Output owns the converter and keeps the engine busy
// until it is closed. On failure the converter is destroyed, the engine is
// ready again and the error is a *ConversionError carrying every message the
// engine reported, in order. A native failure without any message, or a
// native failure after the engine signaled success, returns ErrInconsistent.
func (c *Converter) Convert(opts ...ConvertOption) (*Output, error) {
	if err := c.lib.checkThread(); err != nil {
		return nil, err
	}
	if c.state != converterOpen {
		return nil, ErrConverted
	}
	if err := c.lib.state.usable(); err != nil {
		return nil, err
	}
	c.state = converterConverted

	var cfg convertConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	log := c.log()
	result := &jobResult{}
	done := make(chan error, 1)
	handlers := &jobHandlers{
		finished: func(code int) {
			log.Debug("finished", zap.Int("code", code))
			if code != 0 {
				done <- nil
				return
			}
			if f := result.failure(); f != nil {
				done <- f
				return
			}
			done <- ErrInconsistent
		},
		err: func(msg string) {
			log.Debug("engine error", zap.String("message", msg))
			result.addError(msg)
		},
		warning: func(msg string) {
			log.Warn("engine warning", zap.String("message", msg))
			result.addWarning(msg)
		},
		progress: cfg.progress,
		phase:    cfg.phase,
	}

	backend := c.lib.native()
	backend.InstallCallbacks(c.handle)
	ok, pending := c.run(backend, handlers)

	if pending {
		// The engine returned without signaling completion.
		switch f := result.failure(); {
		case ok:
			done <- nil
		case f != nil:
			done <- f
		default:
			done <- ErrInconsistent
		}
	}
	err := <-done

	if err == nil && !ok {
		err = ErrInconsistent
	}
	if err != nil {
		if ce, isConv := err.(*ConversionError); isConv {
			ce.HTTPCode = backend.HTTPErrorCode(c.handle)
		}
		log.Debug("conversion failed", zap.Error(err))
		c.destroy()
		return nil, err
	}

	data := backend.Output(c.handle)
	log.Debug(c.lib.kind.String()+"_get_output", zap.Int("bytes", len(data)))
	return &Output{
		conv:     c,
		data:     data,
		warnings: result.warnings,
	}, nil
}

// run registers handlers for the duration of the native call and reports the
// native result and whether the finished handler never fired.
func (c *Converter) run(backend Backend, h *jobHandlers) (ok, pending bool) {
	c.lib.registry.register(c.handle, h)
	defer func() {
		pending = c.lib.registry.remove(c.handle)
	}()

	c.log().Debug(c.lib.kind.String() + "_convert")
	return backend.Convert(c.handle), false
}

// Close destroys a converter that was never converted and returns the engine
// to ready. It is a no-op after Convert.
func (c *Converter) Close() error {
	if c.state != converterOpen {
		return nil
	}
	if err := c.lib.checkThread(); err != nil {
		return err
	}
	c.destroy()
	return nil
}

// destroy releases the native converter and ends the job's generation.
func (c *Converter) destroy() {
	c.state = converterClosed
	log := c.log()
	if c.lib.state.usable() == nil {
		log.Debug(c.lib.kind.String() + "_destroy_converter")
		c.lib.native().DestroyConverter(c.handle)
	} else {
		log.Warn("engine deinitialized, leaking converter")
	}
	if c.lib.state.release(c.gen) {
		log.Debug(c.lib.kind.String() + " ready again")
	}
}

func (c *Converter) log() *zap.Logger {
	return c.lib.log().With(zap.Stringer("job", c.jobID))
}
