package wkhtmltox

// Kind selects one of the two engines shipped by wkhtmltox.
type Kind int

const (
	KindPDF Kind = iota
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "wkhtmltopdf"
	case KindImage:
		return "wkhtmltoimage"
	}
	return "unknown"
}

// Handle is an opaque engine resource (settings object or converter).
// The zero Handle is never a valid resource.
type Handle uintptr

// Events receives job notifications from a backend. Backends have no way to
// attach caller data to a job: every notification names the converter only,
// and the library correlates it to the waiting caller.
type Events interface {
	Finished(converter Handle, code int)
	Error(converter Handle, message string)
	Warning(converter Handle, message string)
	Progress(converter Handle, percent int)
	Phase(converter Handle, index int, description string)
}

// Backend is the C surface of one engine kind. Implementations are not
// expected to be safe for concurrent use; the library serializes calls and
// issues all of them from the initializing thread.
//
// Setters return false when the engine refuses a key or value. Convert runs the
// whole job synchronously and reports through the bound Events before it
// returns. A nil data pointer is a C NULL; an empty string is not.
type Backend interface {
	// Bind is called once, before Init, with the sink for job events.
	Bind(events Events)

	Init(useGraphics bool) bool
	Deinit() bool
	Version() string

	CreateGlobalSettings() Handle
	DestroyGlobalSettings(settings Handle)
	SetGlobalSetting(settings Handle, name, value string) bool

	// Object settings exist for KindPDF only.
	CreateObjectSettings() Handle
	DestroyObjectSettings(settings Handle)
	SetObjectSetting(settings Handle, name, value string) bool

	// CreateConverter consumes the global settings. data is only honored by
	// KindImage, which takes its inline HTML at creation time.
	CreateConverter(settings Handle, data *string) Handle
	DestroyConverter(converter Handle)
	// AddObject consumes the object settings.
	AddObject(converter, settings Handle, data *string)

	InstallCallbacks(converter Handle)
	Convert(converter Handle) bool
	HTTPErrorCode(converter Handle) int
	// Output returns the converter-owned result. The slice is valid until
	// DestroyConverter.
	Output(converter Handle) []byte
}
