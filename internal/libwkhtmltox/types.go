package libwkhtmltox

import "errors"

var (
	ErrNotFound    = errors.New("libwkhtmltox not found")
	ErrSymbol      = errors.New("libwkhtmltox symbol missing")
	ErrUnsupported = errors.New("libwkhtmltox bindings are not available on this platform")
)

// Kind selects the C API prefix.
type Kind int

const (
	PDF Kind = iota
	Image
)

func (k Kind) prefix() string {
	if k == Image {
		return "wkhtmltoimage"
	}
	return "wkhtmltopdf"
}

// Sink receives the callbacks of a running conversion. conv is the converter
// pointer the callback was fired for.
type Sink interface {
	Finished(conv uintptr, code int)
	Error(conv uintptr, message string)
	Warning(conv uintptr, message string)
	Progress(conv uintptr, percent int)
	Phase(conv uintptr, index int, description string)
}

// DefaultPaths lists the locations tried when Open is given no path.
func DefaultPaths() []string {
	return defaultPaths
}
