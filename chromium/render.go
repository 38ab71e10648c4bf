package chromium

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Sentinel errors for browser operations.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrRender         = errors.New("failed to render")
)

// renderer abstracts the browser to enable testing without one.
type renderer interface {
	PDF(ctx context.Context, src source, req *proto.PagePrintToPDF) ([]byte, error)
	Image(ctx context.Context, src source, s shot) ([]byte, error)
	Version() string
	Close() error
}

// source is what a page loads: a URL or inline HTML.
type source struct {
	url        string
	html       string
	title      string
	javascript bool
}

// shot describes a screenshot.
type shot struct {
	format        proto.PageCaptureScreenshotFormat
	quality       *int
	transparent   bool
	width, height int
}

// statusError reports a page served with an HTTP error status.
type statusError struct {
	url  string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: %s returned http status %d", ErrPageLoad, e.url, e.code)
}

func (e *statusError) Unwrap() error { return ErrPageLoad }

// pageURL turns a local path into a file URL and leaves URLs untouched.
func pageURL(ref string) string {
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return ref
	}
	abs, err := filepath.Abs(ref)
	if err != nil {
		abs = ref
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

// rodRenderer drives headless Chromium with go-rod.
// Rod downloads Chromium on first run if none is found.
type rodRenderer struct {
	bin string

	mu      sync.Mutex
	browser *rod.Browser
}

// ensureBrowser lazily connects to the browser.
func (r *rodRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New()

	// Pre-installed browser (Docker/containerized environments)
	bin := r.bin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || bin != "" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.browser = browser
	return browser, nil
}

// open loads src in a new page.
func (r *rodRenderer) open(ctx context.Context, src source) (*rod.Page, error) {
	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	page = page.Context(ctx)

	if !src.javascript {
		if err := (proto.EmulationSetScriptExecutionDisabled{Value: true}).Call(page); err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
		}
	}

	if src.url != "" {
		err = page.Navigate(src.url)
	} else {
		err = page.SetDocumentContent(src.html)
	}
	if err == nil {
		err = page.WaitLoad()
	}
	if err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if src.url != "" {
		if code := responseStatus(page); code >= 400 {
			_ = page.Close()
			return nil, &statusError{url: src.url, code: code}
		}
	}
	if src.title != "" {
		if _, err := page.Eval(`t => { document.title = t }`, src.title); err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("%w: setting title: %v", ErrRender, err)
		}
	}
	return page, nil
}

// responseStatus returns the HTTP status of the main document, 0 if unknown.
func responseStatus(page *rod.Page) int {
	res, err := page.Eval(`() => {
		const nav = performance.getEntriesByType("navigation")[0];
		return nav && nav.responseStatus ? nav.responseStatus : 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

func (r *rodRenderer) PDF(ctx context.Context, src source, req *proto.PagePrintToPDF) ([]byte, error) {
	page, err := r.open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer func() { _ = page.Close() }()

	reader, err := page.PDF(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrRender, err)
	}
	return data, nil
}

func (r *rodRenderer) Image(ctx context.Context, src source, s shot) ([]byte, error) {
	page, err := r.open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer func() { _ = page.Close() }()

	if s.width > 0 || s.height > 0 {
		width, height := s.width, s.height
		if width == 0 {
			width = 1024
		}
		if height == 0 {
			height = 768
		}
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             width,
			Height:            height,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRender, err)
		}
	}
	if s.transparent {
		alpha := 0.0
		err := proto.EmulationSetDefaultBackgroundColorOverride{
			Color: &proto.DOMRGBA{A: &alpha},
		}.Call(page)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRender, err)
		}
	}

	data, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  s.format,
		Quality: s.quality,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return data, nil
}

// Version reports the browser product, or "(not started)" before the first
// conversion.
func (r *rodRenderer) Version() string {
	r.mu.Lock()
	browser := r.browser
	r.mu.Unlock()

	if browser == nil {
		return "(not started)"
	}
	v, err := browser.Version()
	if err != nil {
		return "(unknown)"
	}
	return strings.TrimSpace(v.Product)
}

// Close releases browser resources.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		err := r.browser.Close()
		r.browser = nil
		return err
	}
	return nil
}

// LookPath reports the browser rod would launch, without downloading one.
func LookPath() (string, bool) {
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		_, err := os.Stat(bin)
		return bin, err == nil
	}
	return launcher.LookPath()
}
