// Package pdfcheck verifies that converter output parses as a PDF document.
package pdfcheck

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Sentinel errors for PDF verification.
var (
	ErrEmpty     = errors.New("empty PDF output")
	ErrMalformed = errors.New("malformed PDF output")
	ErrNoPages   = errors.New("PDF has no pages")
)

// Info summarizes a verified document.
type Info struct {
	Pages int
	Bytes int
}

// Verify parses data and counts its pages. A document without pages fails.
func Verify(data []byte) (info Info, err error) {
	if len(data) == 0 {
		return Info{}, ErrEmpty
	}

	// The reader panics on some truncated inputs.
	defer func() {
		if r := recover(); r != nil {
			info, err = Info{}, fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	pages := r.NumPage()
	if pages == 0 {
		return Info{}, ErrNoPages
	}
	return Info{Pages: pages, Bytes: len(data)}, nil
}
