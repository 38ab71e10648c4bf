package wkhtmltox

import (
	"errors"
	"fmt"

	"github.com/alnah/go-wkhtmltox/internal/libwkhtmltox"
)

var _ Backend = (*nativeBackend)(nil)

// nativeBackend drives libwkhtmltox loaded at runtime.
type nativeBackend struct {
	lib *libwkhtmltox.Library
}

func openNativeBackend(kind Kind, path string) (Backend, error) {
	k := libwkhtmltox.PDF
	if kind == KindImage {
		k = libwkhtmltox.Image
	}
	lib, err := libwkhtmltox.Open(k, path)
	switch {
	case errors.Is(err, libwkhtmltox.ErrUnsupported):
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedPlatform, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrLibraryNotFound, err)
	}
	return &nativeBackend{lib: lib}, nil
}

// LibraryPaths lists where the native backend looks for libwkhtmltox when no
// path is given.
func LibraryPaths() []string {
	return libwkhtmltox.DefaultPaths()
}

// ProbeLibrary loads libwkhtmltox from path ("" searches LibraryPaths) without
// initializing it and returns its version.
func ProbeLibrary(path string) (string, error) {
	b, err := openNativeBackend(KindPDF, path)
	if err != nil {
		return "", err
	}
	return b.Version(), nil
}

func (b *nativeBackend) Bind(events Events) {
	b.lib.SetSink(eventSink{events})
}

func (b *nativeBackend) Init(useGraphics bool) bool { return b.lib.Init(useGraphics) }
func (b *nativeBackend) Deinit() bool               { return b.lib.Deinit() }
func (b *nativeBackend) Version() string            { return b.lib.Version() }

func (b *nativeBackend) CreateGlobalSettings() Handle {
	return Handle(b.lib.CreateGlobalSettings())
}

func (b *nativeBackend) DestroyGlobalSettings(settings Handle) {
	b.lib.DestroyGlobalSettings(uintptr(settings))
}

func (b *nativeBackend) SetGlobalSetting(settings Handle, name, value string) bool {
	return b.lib.SetGlobalSetting(uintptr(settings), name, value)
}

func (b *nativeBackend) CreateObjectSettings() Handle {
	return Handle(b.lib.CreateObjectSettings())
}

func (b *nativeBackend) DestroyObjectSettings(settings Handle) {
	b.lib.DestroyObjectSettings(uintptr(settings))
}

func (b *nativeBackend) SetObjectSetting(settings Handle, name, value string) bool {
	return b.lib.SetObjectSetting(uintptr(settings), name, value)
}

func (b *nativeBackend) CreateConverter(settings Handle, data *string) Handle {
	return Handle(b.lib.CreateConverter(uintptr(settings), data))
}

func (b *nativeBackend) DestroyConverter(converter Handle) {
	b.lib.DestroyConverter(uintptr(converter))
}

func (b *nativeBackend) AddObject(converter, settings Handle, data *string) {
	b.lib.AddObject(uintptr(converter), uintptr(settings), data)
}

func (b *nativeBackend) InstallCallbacks(converter Handle) {
	b.lib.InstallCallbacks(uintptr(converter))
}

func (b *nativeBackend) Convert(converter Handle) bool {
	return b.lib.Convert(uintptr(converter))
}

func (b *nativeBackend) HTTPErrorCode(converter Handle) int {
	return b.lib.HTTPErrorCode(uintptr(converter))
}

func (b *nativeBackend) Output(converter Handle) []byte {
	return b.lib.Output(uintptr(converter))
}

// eventSink adapts Events to the uintptr handles of the C API.
type eventSink struct {
	events Events
}

func (s eventSink) Finished(conv uintptr, code int) {
	s.events.Finished(Handle(conv), code)
}

func (s eventSink) Error(conv uintptr, msg string) {
	s.events.Error(Handle(conv), msg)
}

func (s eventSink) Warning(conv uintptr, msg string) {
	s.events.Warning(Handle(conv), msg)
}

func (s eventSink) Progress(conv uintptr, percent int) {
	s.events.Progress(Handle(conv), percent)
}

func (s eventSink) Phase(conv uintptr, index int, desc string) {
	s.events.Phase(Handle(conv), index, desc)
}
