package wkhtmltox

import (
	"sync"

	"go.uber.org/zap"
)

// jobHandlers are the callbacks of one in-flight conversion.
type jobHandlers struct {
	finished func(code int)
	err      func(message string)
	warning  func(message string)
	progress func(percent int)
	phase    func(index int, description string)
}

// callbackRegistry maps a converter handle to the handlers of the job running
// on it. The engine cannot carry caller data through its callbacks, so this is
// the only way a notification finds its caller. Entries live exactly as long
// as one Convert call.
type callbackRegistry struct {
	kind Kind

	mu   sync.Mutex
	jobs map[Handle]*jobHandlers
}

var _ Events = (*callbackRegistry)(nil)

func newCallbackRegistry(kind Kind) *callbackRegistry {
	return &callbackRegistry{
		kind: kind,
		jobs: make(map[Handle]*jobHandlers),
	}
}

// register installs handlers for converter, replacing any stale entry.
func (r *callbackRegistry) register(converter Handle, h *jobHandlers) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[converter] = h
}

// remove drops the entry for converter. It reports whether the finished
// handler was still waiting, i.e. the engine never signaled completion.
// Removing an absent entry is a no-op.
func (r *callbackRegistry) remove(converter Handle) (pending bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.jobs[converter]
	if !ok {
		return false
	}
	delete(r.jobs, converter)
	return h.finished != nil
}

func (r *callbackRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

func (r *callbackRegistry) lookup(converter Handle) *jobHandlers {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[converter]
}

// Finished fires the finished handler at most once.
func (r *callbackRegistry) Finished(converter Handle, code int) {
	r.mu.Lock()
	var fn func(int)
	if h, ok := r.jobs[converter]; ok {
		fn, h.finished = h.finished, nil
	}
	r.mu.Unlock()

	if fn == nil {
		Logger().Warn("finished callback without a waiting job",
			zap.Stringer("engine", r.kind),
			zap.Uintptr("converter", uintptr(converter)),
			zap.Int("code", code))
		return
	}
	fn(code)
}

func (r *callbackRegistry) Error(converter Handle, message string) {
	h := r.lookup(converter)
	if h == nil || h.err == nil {
		Logger().Warn("error callback without a waiting job",
			zap.Stringer("engine", r.kind),
			zap.Uintptr("converter", uintptr(converter)),
			zap.String("message", message))
		return
	}
	h.err(message)
}

func (r *callbackRegistry) Warning(converter Handle, message string) {
	if h := r.lookup(converter); h != nil && h.warning != nil {
		h.warning(message)
	}
}

func (r *callbackRegistry) Progress(converter Handle, percent int) {
	if h := r.lookup(converter); h != nil && h.progress != nil {
		h.progress(percent)
	}
}

func (r *callbackRegistry) Phase(converter Handle, index int, description string) {
	if h := r.lookup(converter); h != nil && h.phase != nil {
		h.phase(index, description)
	}
}
