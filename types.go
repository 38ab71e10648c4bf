package wkhtmltox

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unit is the unit of a Size.
type Unit string

const (
	Millimeter Unit = "mm"
	Inch       Unit = "in"
)

// Size is a length understood by the engine, e.g. "10mm".
type Size struct {
	Value float64
	Unit  Unit
}

// Millimeters returns a size in millimeters.
func Millimeters(v float64) Size { return Size{Value: v, Unit: Millimeter} }

// Inches returns a size in inches.
func Inches(v float64) Size { return Size{Value: v, Unit: Inch} }

func (s Size) String() string {
	return strconv.FormatFloat(s.Value, 'f', -1, 64) + string(s.Unit)
}

// ParseSize parses "10mm", "0.5in" or a bare number of millimeters.
func ParseSize(s string) (Size, error) {
	text := strings.ToLower(strings.TrimSpace(s))
	unit := Millimeter
	switch {
	case strings.HasSuffix(text, string(Millimeter)):
		text = strings.TrimSuffix(text, string(Millimeter))
	case strings.HasSuffix(text, string(Inch)):
		text = strings.TrimSuffix(text, string(Inch))
		unit = Inch
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	return Size{Value: v, Unit: unit}, nil
}

// Margin holds the four page margins.
type Margin struct {
	Top    Size
	Right  Size
	Bottom Size
	Left   Size
}

// NewMargin builds a margin from one to four sizes, in CSS order:
//
//	1 value:  all sides
//	2 values: top and bottom, left and right
//	3 values: top, left and right, bottom
//	4 values: top, right, bottom, left
//
// Panics on any other count (programmer error).
func NewMargin(sizes ...Size) Margin {
	switch len(sizes) {
	case 1:
		return Margin{sizes[0], sizes[0], sizes[0], sizes[0]}
	case 2:
		return Margin{sizes[0], sizes[1], sizes[0], sizes[1]}
	case 3:
		return Margin{sizes[0], sizes[1], sizes[2], sizes[1]}
	case 4:
		return Margin{sizes[0], sizes[1], sizes[2], sizes[3]}
	}
	panic("wkhtmltox: NewMargin takes 1 to 4 sizes")
}

// ParseMargin parses one to four space-separated sizes, e.g. "10mm 5mm".
func ParseMargin(s string) (Margin, error) {
	fields := strings.Fields(s)
	if len(fields) < 1 || len(fields) > 4 {
		return Margin{}, fmt.Errorf("%w: %q (want 1 to 4 sizes)", ErrInvalidMargin, s)
	}
	sizes := make([]Size, 0, len(fields))
	for _, f := range fields {
		size, err := ParseSize(f)
		if err != nil {
			return Margin{}, fmt.Errorf("%w: %v", ErrInvalidMargin, err)
		}
		sizes = append(sizes, size)
	}
	return NewMargin(sizes...), nil
}

// PageSize is a named paper format or a custom width and height.
type PageSize struct {
	name          string
	width, height Size
}

// Named page sizes.
var (
	PageA0        = PageSize{name: "A0"}
	PageA1        = PageSize{name: "A1"}
	PageA2        = PageSize{name: "A2"}
	PageA3        = PageSize{name: "A3"}
	PageA4        = PageSize{name: "A4"}
	PageA5        = PageSize{name: "A5"}
	PageA6        = PageSize{name: "A6"}
	PageA7        = PageSize{name: "A7"}
	PageA8        = PageSize{name: "A8"}
	PageA9        = PageSize{name: "A9"}
	PageB0        = PageSize{name: "B0"}
	PageB1        = PageSize{name: "B1"}
	PageB2        = PageSize{name: "B2"}
	PageB3        = PageSize{name: "B3"}
	PageB4        = PageSize{name: "B4"}
	PageB5        = PageSize{name: "B5"}
	PageB6        = PageSize{name: "B6"}
	PageB7        = PageSize{name: "B7"}
	PageB8        = PageSize{name: "B8"}
	PageB9        = PageSize{name: "B9"}
	PageB10       = PageSize{name: "B10"}
	PageC5E       = PageSize{name: "C5E"}
	PageComm10E   = PageSize{name: "Comm10E"}
	PageDLE       = PageSize{name: "DLE"}
	PageExecutive = PageSize{name: "Executive"}
	PageFolio     = PageSize{name: "Folio"}
	PageLedger    = PageSize{name: "Ledger"}
	PageLegal     = PageSize{name: "Legal"}
	PageLetter    = PageSize{name: "Letter"}
	PageTabloid   = PageSize{name: "Tabloid"}
)

var namedPageSizes = []PageSize{
	PageA0, PageA1, PageA2, PageA3, PageA4, PageA5, PageA6, PageA7, PageA8, PageA9,
	PageB0, PageB1, PageB2, PageB3, PageB4, PageB5, PageB6, PageB7, PageB8, PageB9, PageB10,
	PageC5E, PageComm10E, PageDLE, PageExecutive, PageFolio, PageLedger, PageLegal,
	PageLetter, PageTabloid,
}

// CustomPageSize returns a page of the given width and height.
func CustomPageSize(width, height Size) PageSize {
	return PageSize{width: width, height: height}
}

// ParsePageSize accepts a named size (case-insensitive) or "WIDTHxHEIGHT",
// e.g. "210mmx297mm".
func ParsePageSize(s string) (PageSize, error) {
	for _, p := range namedPageSizes {
		if strings.EqualFold(p.name, s) {
			return p, nil
		}
	}
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return PageSize{}, fmt.Errorf("%w: %q", ErrInvalidPageSize, s)
	}
	width, err := ParseSize(w)
	if err != nil {
		return PageSize{}, fmt.Errorf("%w: %q", ErrInvalidPageSize, s)
	}
	height, err := ParseSize(h)
	if err != nil {
		return PageSize{}, fmt.Errorf("%w: %q", ErrInvalidPageSize, s)
	}
	return CustomPageSize(width, height), nil
}

// Custom reports whether p has explicit dimensions.
func (p PageSize) Custom() bool { return p.name == "" }

func (p PageSize) String() string {
	if p.Custom() {
		return p.width.String() + "x" + p.height.String()
	}
	return p.name
}

// Orientation of the printed page.
type Orientation string

const (
	Portrait  Orientation = "Portrait"
	Landscape Orientation = "Landscape"
)

// ParseOrientation parses "portrait" or "landscape" (case-insensitive).
func ParseOrientation(s string) (Orientation, error) {
	switch {
	case strings.EqualFold(s, string(Portrait)):
		return Portrait, nil
	case strings.EqualFold(s, string(Landscape)):
		return Landscape, nil
	}
	return "", fmt.Errorf("%w: %q (must be portrait or landscape)", ErrInvalidOrientation, s)
}

// Image formats accepted by ImageBuilder.Format. The empty format lets the
// engine pick one from the output name.
var imageFormats = []string{"", "jpg", "png", "bmp", "svg"}
