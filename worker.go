package wkhtmltox

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// Worker sizing constants.
const (
	// MinWorkers ensures at least one goroutine prepares sources.
	MinWorkers = 1

	// MaxWorkers caps source preparation concurrency.
	MaxWorkers = 8

	// cpuDivisor leaves headroom for the engine thread.
	cpuDivisor = 2
)

// Worker owns one engine on a dedicated, locked OS thread and runs jobs on it
// one at a time, in submission order. It is safe for concurrent use.
//
// The engine cannot be interrupted. When the context of Do ends, Do returns
// but the job keeps running to completion on the engine thread; the next job
// waits for it.
type Worker struct {
	lib       *Library
	jobs      chan job
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type job struct {
	fn     func(*Guard) error
	result chan error
}

// WorkerOption configures NewWorker.
type WorkerOption func(*workerConfig)

type workerConfig struct {
	init []InitOption
}

// WithInitOptions passes opts to Library.Init on the engine thread.
func WithInitOptions(opts ...InitOption) WorkerOption {
	return func(c *workerConfig) { c.init = append(c.init, opts...) }
}

// NewWorker initializes the engine of kind on a new OS thread. Since the
// engine can be initialized only once per process, so can a Worker of each
// kind.
func NewWorker(kind Kind, opts ...WorkerOption) (*Worker, error) {
	lib := pdfLibrary
	if kind == KindImage {
		lib = imageLibrary
	}
	return newWorker(lib, opts...)
}

func newWorker(lib *Library, opts ...WorkerOption) (*Worker, error) {
	var cfg workerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	w := &Worker{
		lib:  lib,
		jobs: make(chan job),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	ready := make(chan error, 1)
	go w.loop(cfg.init, ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return w, nil
}

// loop never unlocks its thread: the runtime discards it when loop returns,
// together with whatever thread-local state the engine left behind.
func (w *Worker) loop(initOpts []InitOption, ready chan<- error) {
	runtime.LockOSThread()
	defer close(w.done)

	guard, err := w.lib.Init(initOpts...)
	if err != nil {
		ready <- err
		return
	}
	if state := w.lib.State(); state != StateReady {
		_ = guard.Close()
		ready <- fmt.Errorf("%w: %s failed to initialize", ErrNotInitialized, w.lib.kind)
		return
	}
	ready <- nil

	log := w.lib.log()
	log.Debug("worker started")
	for {
		select {
		case j := <-w.jobs:
			j.result <- w.run(guard, j.fn)
		case <-w.quit:
			if err := guard.Close(); err != nil {
				log.Warn("failed to close engine", zap.Error(err))
			}
			log.Debug("worker stopped")
			return
		}
	}
}

func (w *Worker) run(guard *Guard, fn func(*Guard) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return fn(guard)
}

// Do runs fn on the engine thread and returns its error. fn must release
// everything it creates (settings, converters, outputs) before returning.
//
// If ctx ends before fn returns, Do returns ctx.Err() and fn keeps running.
func (w *Worker) Do(ctx context.Context, fn func(*Guard) error) error {
	j := job{fn: fn, result: make(chan error, 1)}
	select {
	case w.jobs <- j:
	case <-w.quit:
		return ErrWorkerClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		w.lib.log().Warn("caller stopped waiting, job keeps running", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

// ConvertPDF runs a PDF job and returns a copy of the document.
func (w *Worker) ConvertPDF(ctx context.Context, build func(*PDFBuilder) (*Output, error)) ([]byte, error) {
	var data []byte
	err := w.Do(ctx, func(g *Guard) error {
		out, err := build(g.PDFBuilder())
		if err != nil {
			return err
		}
		defer func() { _ = out.Close() }()
		data = bytes.Clone(out.Bytes())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ConvertImage runs an image job and returns a copy of the image.
func (w *Worker) ConvertImage(ctx context.Context, build func(*ImageBuilder) (*Output, error)) ([]byte, error) {
	var data []byte
	err := w.Do(ctx, func(g *Guard) error {
		out, err := build(g.ImageBuilder())
		if err != nil {
			return err
		}
		defer func() { _ = out.Close() }()
		data = bytes.Clone(out.Bytes())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Close waits for the running job, deinitializes the engine and stops the
// thread. Jobs submitted afterwards fail with ErrWorkerClosed.
func (w *Worker) Close() error {
	return w.Shutdown(context.Background())
}

// Shutdown is Close bounded by ctx. If ctx ends while a job is still running,
// Shutdown returns ctx.Err() and abandons the thread: the engine is
// deinitialized once the job returns, or never if it hangs.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.closeOnce.Do(func() { close(w.quit) })
	select {
	case <-w.done:
		return nil
	default:
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.lib.log().Warn("engine thread abandoned with a job still running", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

// ResolveWorkers determines how many goroutines prepare sources.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolveWorkers(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers.
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	if n < MinWorkers {
		return MinWorkers
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}
