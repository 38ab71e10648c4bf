//go:build darwin || linux

package libwkhtmltox

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Library is one loaded C API, pdf or image.
type Library struct {
	kind   Kind
	handle uintptr

	init                  func(useGraphics int32) int32
	deinit                func() int32
	version               func() string
	createGlobalSettings  func() uintptr
	destroyGlobalSettings func(settings uintptr)
	setGlobalSetting      func(settings uintptr, name, value string) int32
	destroyConverter      func(conv uintptr)
	setErrorCallback      func(conv, cb uintptr)
	setWarningCallback    func(conv, cb uintptr)
	setPhaseCallback      func(conv, cb uintptr)
	setProgressCallback   func(conv, cb uintptr)
	setFinishedCallback   func(conv, cb uintptr)
	convert               func(conv uintptr) int32
	currentPhase          func(conv uintptr) int32
	phaseDescription      func(conv uintptr, phase int32) string
	httpErrorCode         func(conv uintptr) int32
	getOutput             func(conv uintptr, data *uintptr) int64

	// wkhtmltopdf only.
	createObjectSettings  func() uintptr
	destroyObjectSettings func(settings uintptr)
	setObjectSetting      func(settings uintptr, name, value string) int32
	createPDFConverter    func(settings uintptr) uintptr
	addObject             func(conv, settings uintptr, data *byte)

	// wkhtmltoimage only.
	createImageConverter func(settings uintptr, data *byte) uintptr
}

// Open loads libwkhtmltox from path, or from DefaultPaths when path is empty,
// and resolves the functions of kind.
func Open(kind Kind, path string) (*Library, error) {
	candidates := defaultPaths
	if path != "" {
		candidates = []string{path}
	}

	var errs []error
	for _, p := range candidates {
		h, err := purego.Dlopen(p, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		l := &Library{kind: kind, handle: h}
		if err := l.resolve(); err != nil {
			return nil, err
		}
		return l, nil
	}
	return nil, fmt.Errorf("%w: tried %s: %v", ErrNotFound, strings.Join(candidates, ", "), errors.Join(errs...))
}

func (l *Library) resolve() error {
	p := l.kind.prefix()
	syms := []struct {
		fptr any
		name string
	}{
		{&l.init, "init"},
		{&l.deinit, "deinit"},
		{&l.version, "version"},
		{&l.createGlobalSettings, "create_global_settings"},
		{&l.destroyGlobalSettings, "destroy_global_settings"},
		{&l.setGlobalSetting, "set_global_setting"},
		{&l.destroyConverter, "destroy_converter"},
		{&l.setErrorCallback, "set_error_callback"},
		{&l.setWarningCallback, "set_warning_callback"},
		{&l.setPhaseCallback, "set_phase_changed_callback"},
		{&l.setProgressCallback, "set_progress_changed_callback"},
		{&l.setFinishedCallback, "set_finished_callback"},
		{&l.convert, "convert"},
		{&l.currentPhase, "current_phase"},
		{&l.phaseDescription, "phase_description"},
		{&l.httpErrorCode, "http_error_code"},
		{&l.getOutput, "get_output"},
	}
	if l.kind == PDF {
		syms = append(syms, []struct {
			fptr any
			name string
		}{
			{&l.createObjectSettings, "create_object_settings"},
			{&l.destroyObjectSettings, "destroy_object_settings"},
			{&l.setObjectSetting, "set_object_setting"},
			{&l.createPDFConverter, "create_converter"},
			{&l.addObject, "add_object"},
		}...)
	} else {
		syms = append(syms, struct {
			fptr any
			name string
		}{&l.createImageConverter, "create_converter"})
	}

	for _, s := range syms {
		name := p + "_" + s.name
		sym, err := purego.Dlsym(l.handle, name)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSymbol, name, err)
		}
		purego.RegisterFunc(s.fptr, sym)
	}
	return nil
}

// SetSink routes the callbacks of every converter of this kind to s.
func (l *Library) SetSink(s Sink) {
	sinks[l.kind].Store(&s)
}

func (l *Library) Init(useGraphics bool) bool {
	var g int32
	if useGraphics {
		g = 1
	}
	return l.init(g) == 1
}

func (l *Library) Deinit() bool    { return l.deinit() == 1 }
func (l *Library) Version() string { return l.version() }

func (l *Library) CreateGlobalSettings() uintptr { return l.createGlobalSettings() }

func (l *Library) DestroyGlobalSettings(settings uintptr) { l.destroyGlobalSettings(settings) }

func (l *Library) SetGlobalSetting(settings uintptr, name, value string) bool {
	return l.setGlobalSetting(settings, name, value) == 1
}

func (l *Library) CreateObjectSettings() uintptr { return l.createObjectSettings() }

func (l *Library) DestroyObjectSettings(settings uintptr) { l.destroyObjectSettings(settings) }

func (l *Library) SetObjectSetting(settings uintptr, name, value string) bool {
	return l.setObjectSetting(settings, name, value) == 1
}

// CreateConverter consumes settings. data is the inline HTML of an image
// converter; a nil data is passed as NULL.
func (l *Library) CreateConverter(settings uintptr, data *string) uintptr {
	if l.kind == PDF {
		return l.createPDFConverter(settings)
	}
	return l.createImageConverter(settings, cString(data))
}

func (l *Library) DestroyConverter(conv uintptr) { l.destroyConverter(conv) }

// AddObject consumes settings. A nil data is passed as NULL.
func (l *Library) AddObject(conv, settings uintptr, data *string) {
	l.addObject(conv, settings, cString(data))
}

// InstallCallbacks points every callback of conv at the kind's sink.
func (l *Library) InstallCallbacks(conv uintptr) {
	cb := callbacksFor(l)
	l.setErrorCallback(conv, cb.err)
	l.setWarningCallback(conv, cb.warning)
	l.setPhaseCallback(conv, cb.phase)
	l.setProgressCallback(conv, cb.progress)
	l.setFinishedCallback(conv, cb.finished)
}

func (l *Library) Convert(conv uintptr) bool { return l.convert(conv) == 1 }

func (l *Library) HTTPErrorCode(conv uintptr) int { return int(l.httpErrorCode(conv)) }

// Output returns the converter-owned output buffer. It is valid until the
// converter is destroyed.
func (l *Library) Output(conv uintptr) []byte {
	var data uintptr
	n := l.getOutput(conv, &data)
	if n <= 0 || data == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(data)), int(n)) // #nosec G103 -- C-owned memory
}

// cString returns a NUL-terminated copy of s, or nil for a nil s. The engine
// copies the payload before the call returns.
func cString(s *string) *byte {
	if s == nil {
		return nil
	}
	b := make([]byte, len(*s)+1)
	copy(b, *s)
	return &b[0]
}

// goString copies a NUL-terminated C string.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	ptr := unsafe.Pointer(p) // #nosec G103 -- C-owned memory
	n := 0
	for *(*byte)(unsafe.Add(ptr, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(ptr), n))
}
