package chromium

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-wkhtmltox"
)

var _ wkhtmltox.Backend = (*Backend)(nil)

// defaultTimeout bounds one conversion.
const defaultTimeout = 30 * time.Second

// Phases reported through the phase callback.
const (
	phaseLoad = iota
	phaseRender
)

var phaseNames = [...]string{"Loading pages", "Rendering"}

// Backend renders with headless Chromium through go-rod while honoring the
// libwkhtmltox contract: handles, ordered settings and job events fired from
// inside Convert.
type Backend struct {
	kind     wkhtmltox.Kind
	timeout  time.Duration
	renderer renderer

	mu         sync.Mutex
	events     wkhtmltox.Events
	next       wkhtmltox.Handle
	settings   map[wkhtmltox.Handle]*settingsObject
	converters map[wkhtmltox.Handle]*job
}

type settingsObject struct {
	global bool
	values map[string]string
}

type object struct {
	values map[string]string
	html   *string
}

type job struct {
	global   map[string]string
	data     *string
	objects  []object
	output   []byte
	httpCode int
}

// Option configures New.
type Option func(*Backend)

// WithTimeout bounds each conversion.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("chromium: WithTimeout duration must be positive")
	}
	return func(b *Backend) { b.timeout = d }
}

// WithBrowserBin uses the browser at path instead of the one found or
// downloaded by rod.
func WithBrowserBin(path string) Option {
	return func(b *Backend) {
		if r, ok := b.renderer.(*rodRenderer); ok {
			r.bin = path
		}
	}
}

// New returns a backend for kind. The browser starts on the first conversion.
func New(kind wkhtmltox.Kind, opts ...Option) *Backend {
	return newBackend(kind, &rodRenderer{}, opts...)
}

func newBackend(kind wkhtmltox.Kind, r renderer, opts ...Option) *Backend {
	b := &Backend{
		kind:       kind,
		timeout:    defaultTimeout,
		renderer:   r,
		settings:   make(map[wkhtmltox.Handle]*settingsObject),
		converters: make(map[wkhtmltox.Handle]*job),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Bind(events wkhtmltox.Events) {
	b.mu.Lock()
	b.events = events
	b.mu.Unlock()
}

func (b *Backend) Init(bool) bool { return true }

func (b *Backend) Deinit() bool {
	return b.renderer.Close() == nil
}

func (b *Backend) Version() string {
	return "chromium " + b.renderer.Version()
}

func (b *Backend) CreateGlobalSettings() wkhtmltox.Handle {
	return b.newSettings(true)
}

func (b *Backend) DestroyGlobalSettings(settings wkhtmltox.Handle) {
	b.mu.Lock()
	delete(b.settings, settings)
	b.mu.Unlock()
}

func (b *Backend) SetGlobalSetting(settings wkhtmltox.Handle, name, value string) bool {
	keys := pdfGlobalKeys
	if b.kind == wkhtmltox.KindImage {
		keys = imageGlobalKeys
	}
	return b.set(settings, keys, name, value)
}

func (b *Backend) CreateObjectSettings() wkhtmltox.Handle {
	return b.newSettings(false)
}

func (b *Backend) DestroyObjectSettings(settings wkhtmltox.Handle) {
	b.mu.Lock()
	delete(b.settings, settings)
	b.mu.Unlock()
}

func (b *Backend) SetObjectSetting(settings wkhtmltox.Handle, name, value string) bool {
	return b.set(settings, pdfObjectKeys, name, value)
}

func (b *Backend) CreateConverter(settings wkhtmltox.Handle, data *string) wkhtmltox.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()

	j := &job{global: map[string]string{}}
	if s, ok := b.settings[settings]; ok {
		j.global = s.values
		delete(b.settings, settings)
	}
	if data != nil && b.kind == wkhtmltox.KindImage {
		html := *data
		j.data = &html
	}
	h := b.handle()
	b.converters[h] = j
	return h
}

func (b *Backend) DestroyConverter(converter wkhtmltox.Handle) {
	b.mu.Lock()
	delete(b.converters, converter)
	b.mu.Unlock()
}

func (b *Backend) AddObject(converter, settings wkhtmltox.Handle, data *string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	obj := object{values: map[string]string{}}
	if s, ok := b.settings[settings]; ok {
		obj.values = s.values
		delete(b.settings, settings)
	}
	if data != nil {
		html := *data
		obj.html = &html
	}
	if j, ok := b.converters[converter]; ok {
		j.objects = append(j.objects, obj)
	}
}

// InstallCallbacks is a no-op: events always go to the bound sink.
func (b *Backend) InstallCallbacks(wkhtmltox.Handle) {}

// Convert renders the job and fires its events before returning.
func (b *Backend) Convert(converter wkhtmltox.Handle) bool {
	b.mu.Lock()
	j, ok := b.converters[converter]
	events := b.events
	b.mu.Unlock()
	if !ok || events == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	for _, key := range j.ignored() {
		events.Warning(converter, fmt.Sprintf("setting %q has no effect with chromium", key))
	}

	events.Phase(converter, phaseLoad, phaseNames[phaseLoad])
	events.Progress(converter, 0)

	var (
		data []byte
		err  error
	)
	if b.kind == wkhtmltox.KindImage {
		data, err = b.renderImage(ctx, converter, j, events)
	} else {
		data, err = b.renderPDF(ctx, converter, j, events)
	}
	if err != nil {
		var status *statusError
		if errors.As(err, &status) {
			b.mu.Lock()
			j.httpCode = status.code
			b.mu.Unlock()
		}
		events.Error(converter, err.Error())
		events.Finished(converter, 0)
		return false
	}

	b.mu.Lock()
	j.output = data
	b.mu.Unlock()

	events.Progress(converter, 100)
	events.Finished(converter, 1)
	return true
}

func (b *Backend) renderPDF(ctx context.Context, conv wkhtmltox.Handle, j *job, events wkhtmltox.Events) ([]byte, error) {
	src, err := pdfSource(j.objects)
	if err != nil {
		return nil, err
	}
	src.title = j.global["documentTitle"]
	req, err := printOptions(j.global, j.objects)
	if err != nil {
		return nil, err
	}
	events.Phase(conv, phaseRender, phaseNames[phaseRender])
	events.Progress(conv, 50)
	return b.renderer.PDF(ctx, src, req)
}

func (b *Backend) renderImage(ctx context.Context, conv wkhtmltox.Handle, j *job, events wkhtmltox.Events) ([]byte, error) {
	src := source{javascript: true}
	switch {
	case j.data != nil && *j.data != "":
		src.html = *j.data
	case j.global["in"] != "":
		src.url = pageURL(j.global["in"])
	default:
		return nil, errors.New("no input: set \"in\" or pass html")
	}
	shot, err := screenshotOptions(j.global)
	if err != nil {
		return nil, err
	}
	events.Phase(conv, phaseRender, phaseNames[phaseRender])
	events.Progress(conv, 50)
	return b.renderer.Image(ctx, src, shot)
}

func (b *Backend) HTTPErrorCode(converter wkhtmltox.Handle) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if j, ok := b.converters[converter]; ok {
		return j.httpCode
	}
	return 0
}

func (b *Backend) Output(converter wkhtmltox.Handle) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if j, ok := b.converters[converter]; ok {
		return j.output
	}
	return nil
}

func (b *Backend) newSettings(global bool) wkhtmltox.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.handle()
	b.settings[h] = &settingsObject{global: global, values: map[string]string{}}
	return h
}

func (b *Backend) set(settings wkhtmltox.Handle, keys map[string]validator, name, value string) bool {
	valid, known := keys[name]
	if !known || valid(value) != nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.settings[settings]
	if !ok {
		return false
	}
	s.values[name] = value
	return true
}

// handle returns a fresh non-zero handle. Callers hold mu.
func (b *Backend) handle() wkhtmltox.Handle {
	b.next++
	return b.next
}

// ignored lists the settings of j that Chromium cannot honor.
func (j *job) ignored() []string {
	var keys []string
	for k := range j.global {
		if ignoredKeys[k] {
			keys = append(keys, k)
		}
	}
	for _, o := range j.objects {
		for k := range o.values {
			if ignoredKeys[k] {
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)
	return keys
}

// pdfSource merges the objects of a job into one document. Any number of
// inline HTML objects are joined with page breaks; a page reference must be
// the only object. An empty inline payload falls back to the object's page.
func pdfSource(objects []object) (source, error) {
	if len(objects) == 0 {
		return source{}, errors.New("no object to convert")
	}

	var (
		parts []string
		pages []string
	)
	javascript := true
	for _, o := range objects {
		if v, ok := o.values["web.enableJavascript"]; ok {
			if on, _ := strconv.ParseBool(v); !on {
				javascript = false
			}
		}
		if o.html != nil && *o.html != "" {
			parts = append(parts, *o.html)
			continue
		}
		if p := o.values["page"]; p != "" {
			pages = append(pages, p)
			continue
		}
		return source{}, errors.New("object has neither html nor page")
	}

	switch {
	case len(pages) == 0:
		return source{html: strings.Join(parts, pageBreak), javascript: javascript}, nil
	case len(pages) == 1 && len(parts) == 0:
		return source{url: pageURL(pages[0]), javascript: javascript}, nil
	}
	return source{}, fmt.Errorf("chromium renders a single page reference per document, got %d pages and %d html objects", len(pages), len(parts))
}

const pageBreak = `<div style="break-after: page"></div>`

// printOptions maps wkhtmltopdf global settings to Chromium print options.
func printOptions(global map[string]string, objects []object) (*proto.PagePrintToPDF, error) {
	req := &proto.PagePrintToPDF{PrintBackground: true}

	width, height := paperSizes["a4"].width/25.4, paperSizes["a4"].height/25.4
	if name := global["size.pageSize"]; name != "" {
		p := paperSizes[strings.ToLower(name)]
		width, height = p.width/25.4, p.height/25.4
	}
	if v := global["size.width"]; v != "" {
		w, err := parseLength(v)
		if err != nil {
			return nil, err
		}
		width = w
	}
	if v := global["size.height"]; v != "" {
		h, err := parseLength(v)
		if err != nil {
			return nil, err
		}
		height = h
	}
	req.PaperWidth = &width
	req.PaperHeight = &height
	req.Landscape = strings.EqualFold(global["orientation"], "landscape")

	for key, field := range map[string]**float64{
		"margin.top":    &req.MarginTop,
		"margin.bottom": &req.MarginBottom,
		"margin.left":   &req.MarginLeft,
		"margin.right":  &req.MarginRight,
	} {
		v, ok := global[key]
		if !ok {
			continue
		}
		inches, err := parseLength(v)
		if err != nil {
			return nil, err
		}
		*field = &inches
	}

	for _, o := range objects {
		if v, ok := o.values["web.background"]; ok {
			if on, _ := strconv.ParseBool(v); !on {
				req.PrintBackground = false
			}
		}
	}
	return req, nil
}

// screenshotOptions maps wkhtmltoimage global settings to a screenshot.
func screenshotOptions(global map[string]string) (shot, error) {
	s := shot{format: proto.PageCaptureScreenshotFormatPng}
	switch strings.ToLower(global["fmt"]) {
	case "jpg", "jpeg":
		s.format = proto.PageCaptureScreenshotFormatJpeg
	}
	if v := global["quality"]; v != "" && s.format == proto.PageCaptureScreenshotFormatJpeg {
		q, err := strconv.Atoi(v)
		if err != nil {
			return shot{}, err
		}
		s.quality = &q
	}
	if v := global["transparent"]; v != "" {
		s.transparent, _ = strconv.ParseBool(v)
	}
	if v := global["screenWidth"]; v != "" {
		s.width, _ = strconv.Atoi(v)
	}
	if v := global["screenHeight"]; v != "" {
		s.height, _ = strconv.Atoi(v)
	}
	return s, nil
}
