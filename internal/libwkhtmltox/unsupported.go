//go:build !(darwin || linux)

package libwkhtmltox

var defaultPaths []string

// Library is unavailable on this platform.
type Library struct{}

// Open always fails with ErrUnsupported.
func Open(kind Kind, path string) (*Library, error) {
	return nil, ErrUnsupported
}

func (l *Library) SetSink(Sink)                                  {}
func (l *Library) Init(bool) bool                                { return false }
func (l *Library) Deinit() bool                                  { return false }
func (l *Library) Version() string                               { return "" }
func (l *Library) CreateGlobalSettings() uintptr                 { return 0 }
func (l *Library) DestroyGlobalSettings(uintptr)                 {}
func (l *Library) SetGlobalSetting(uintptr, string, string) bool { return false }
func (l *Library) CreateObjectSettings() uintptr                 { return 0 }
func (l *Library) DestroyObjectSettings(uintptr)                 {}
func (l *Library) SetObjectSetting(uintptr, string, string) bool { return false }
func (l *Library) CreateConverter(uintptr, *string) uintptr      { return 0 }
func (l *Library) DestroyConverter(uintptr)                      {}
func (l *Library) AddObject(uintptr, uintptr, *string)           {}
func (l *Library) InstallCallbacks(uintptr)                      {}
func (l *Library) Convert(uintptr) bool                          { return false }
func (l *Library) HTTPErrorCode(uintptr) int                     { return 0 }
func (l *Library) Output(uintptr) []byte                         { return nil }
