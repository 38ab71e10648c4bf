package main

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alnah/go-wkhtmltox"
	"github.com/alnah/go-wkhtmltox/chromium"
	"github.com/alnah/go-wkhtmltox/internal/config"
)

// Engine runs conversion jobs. Close gives up waiting for a running job when
// ctx ends.
type Engine interface {
	Run(ctx context.Context, job Job) (*Result, error)
	Close(ctx context.Context) error
}

// Job is one conversion: every input becomes one object of the document.
// Image jobs take exactly one input.
type Job struct {
	Kind   wkhtmltox.Kind
	Inputs []Input
	Config *config.Config
}

// Result is a finished conversion, copied off the engine thread.
type Result struct {
	Data     []byte
	Warnings []string
	JobID    string
}

// workerEngine runs jobs on a wkhtmltox.Worker.
type workerEngine struct {
	w *wkhtmltox.Worker
}

// Compile-time interface implementation check.
var _ Engine = (*workerEngine)(nil)

// newWorkerEngine initializes the backend selected by cfg on a new worker.
func newWorkerEngine(kind wkhtmltox.Kind, cfg *config.Config) (Engine, error) {
	w, err := wkhtmltox.NewWorker(kind, wkhtmltox.WithInitOptions(initOptions(kind, cfg)...))
	if err != nil {
		return nil, err
	}
	return &workerEngine{w: w}, nil
}

// initOptions maps the backend config to Library.Init options.
func initOptions(kind wkhtmltox.Kind, cfg *config.Config) []wkhtmltox.InitOption {
	if cfg.Backend.Name == config.BackendChromium {
		var opts []chromium.Option
		if cfg.Backend.Browser != "" {
			opts = append(opts, chromium.WithBrowserBin(cfg.Backend.Browser))
		}
		if d := cfg.TimeoutDuration(); d > 0 {
			opts = append(opts, chromium.WithTimeout(d))
		}
		return []wkhtmltox.InitOption{wkhtmltox.WithBackend(chromium.New(kind, opts...))}
	}

	opts := []wkhtmltox.InitOption{wkhtmltox.WithGraphics(cfg.Backend.Graphics)}
	if cfg.Backend.Library != "" {
		opts = append(opts, wkhtmltox.WithLibraryPath(cfg.Backend.Library))
	}
	return opts
}

func (e *workerEngine) Run(ctx context.Context, job Job) (*Result, error) {
	var res *Result
	err := e.w.Do(ctx, func(g *wkhtmltox.Guard) error {
		out, err := build(g, job)
		if err != nil {
			return err
		}
		defer func() { _ = out.Close() }()

		res = &Result{
			Data:     bytes.Clone(out.Bytes()),
			Warnings: out.Warnings(),
			JobID:    out.JobID().String(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *workerEngine) Close(ctx context.Context) error {
	return e.w.Shutdown(ctx)
}

// build configures and runs job on the engine thread.
func build(g *wkhtmltox.Guard, job Job) (*wkhtmltox.Output, error) {
	observe := observers(wkhtmltox.Logger())

	if job.Kind == wkhtmltox.KindImage {
		if len(job.Inputs) != 1 {
			return nil, fmt.Errorf("%w: image takes exactly one input, got %d", ErrUsage, len(job.Inputs))
		}
		b := configureImage(g.ImageBuilder(), job.Config).Observe(observe...)
		in := job.Inputs[0]
		switch {
		case in.Inline:
			return b.BuildFromHTML(in.HTML)
		case in.URL:
			return b.BuildFromURL(in.Ref)
		default:
			return b.BuildFromPath(in.Ref)
		}
	}

	b, err := configurePDF(g.PDFBuilder(), job.Config)
	if err != nil {
		return nil, err
	}
	sources := make([]wkhtmltox.Source, len(job.Inputs))
	for i, in := range job.Inputs {
		sources[i] = in.source()
	}
	return b.Observe(observe...).Build(sources...)
}

// observers log job progress at debug level.
func observers(log *zap.Logger) []wkhtmltox.ConvertOption {
	return []wkhtmltox.ConvertOption{
		wkhtmltox.WithProgress(func(percent int) {
			log.Debug("progress", zap.Int("percent", percent))
		}),
		wkhtmltox.WithPhase(func(index int, description string) {
			log.Debug("phase", zap.Int("index", index), zap.String("description", description))
		}),
	}
}

// configurePDF maps cfg.PDF onto b. Raw settings are applied after the typed
// ones and win over them.
func configurePDF(b *wkhtmltox.PDFBuilder, cfg *config.Config) (*wkhtmltox.PDFBuilder, error) {
	p := cfg.PDF
	if p.PageSize != "" {
		size, err := wkhtmltox.ParsePageSize(p.PageSize)
		if err != nil {
			return nil, err
		}
		b.PageSize(size)
	}
	if p.Orientation != "" {
		o, err := wkhtmltox.ParseOrientation(p.Orientation)
		if err != nil {
			return nil, err
		}
		b.Orientation(o)
	}
	if p.Margin != "" {
		m, err := wkhtmltox.ParseMargin(p.Margin)
		if err != nil {
			return nil, err
		}
		b.Margin(m)
	}
	if p.Title != "" {
		b.Title(p.Title)
	}
	if p.DPI > 0 {
		b.DPI(p.DPI)
	}
	if p.ImageQuality > 0 {
		b.ImageQuality(p.ImageQuality)
	}
	if p.OutlineDepth > 0 {
		b.Outline(p.OutlineDepth)
	}
	for _, s := range p.Global {
		b.GlobalSetting(s.Name, s.Value)
	}
	for _, s := range p.Object {
		b.ObjectSetting(s.Name, s.Value)
	}
	return b, nil
}

// configureImage maps cfg.Image onto b.
func configureImage(b *wkhtmltox.ImageBuilder, cfg *config.Config) *wkhtmltox.ImageBuilder {
	img := cfg.Image
	if img.Format != "" {
		b.Format(img.Format)
	}
	if img.Transparent {
		b.Transparent(true)
	}
	if img.Quality > 0 {
		b.ImageQuality(img.Quality)
	}
	for _, s := range img.Global {
		b.GlobalSetting(s.Name, s.Value)
	}
	return b
}
