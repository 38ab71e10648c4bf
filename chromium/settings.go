package chromium

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// validator checks one setting value. It returns an error for values the
// engine would reject.
type validator func(value string) error

// Settings understood by the backend, per scope. Keys absent from these tables
// are rejected, as libwkhtmltox rejects keys it does not know. Keys marked
// ignored are accepted for compatibility and reported as warnings.
var (
	pdfGlobalKeys = map[string]validator{
		"size.pageSize": validPageSize,
		"size.width":    validLength,
		"size.height":   validLength,
		"orientation":   validOrientation,
		"margin.top":    validLength,
		"margin.bottom": validLength,
		"margin.left":   validLength,
		"margin.right":  validLength,
		"documentTitle": anyValue,
		"outline":       validBool,
		"outlineDepth":  validUint,
		"dpi":           validUint,
		"imageQuality":  validUint,
		"out":           anyValue,
	}

	pdfObjectKeys = map[string]validator{
		"page":                 anyValue,
		"web.background":       validBool,
		"web.printMediaType":   validBool,
		"web.enableJavascript": validBool,
	}

	imageGlobalKeys = map[string]validator{
		"in":           anyValue,
		"out":          anyValue,
		"fmt":          validImageFormat,
		"transparent":  validBool,
		"quality":      validUint,
		"screenWidth":  validUint,
		"screenHeight": validUint,
	}

	// ignoredKeys have no Chromium counterpart.
	ignoredKeys = map[string]bool{
		"outline":            true,
		"outlineDepth":       true,
		"dpi":                true,
		"imageQuality":       true,
		"out":                true,
		"web.printMediaType": true,
	}
)

func anyValue(string) error { return nil }

func validBool(v string) error {
	if _, err := strconv.ParseBool(v); err != nil {
		return fmt.Errorf("not a boolean: %q", v)
	}
	return nil
}

func validUint(v string) error {
	if _, err := strconv.ParseUint(v, 10, 32); err != nil {
		return fmt.Errorf("not a positive integer: %q", v)
	}
	return nil
}

func validOrientation(v string) error {
	switch strings.ToLower(v) {
	case "portrait", "landscape":
		return nil
	}
	return fmt.Errorf("unknown orientation: %q", v)
}

func validLength(v string) error {
	_, err := parseLength(v)
	return err
}

func validPageSize(v string) error {
	if _, ok := paperSizes[strings.ToLower(v)]; !ok {
		return fmt.Errorf("unknown page size: %q", v)
	}
	return nil
}

func validImageFormat(v string) error {
	switch strings.ToLower(v) {
	case "", "png", "jpg", "jpeg":
		return nil
	}
	return fmt.Errorf("unsupported image format: %q", v)
}

// parseLength converts "10mm", "2cm", "1in", "96px" or a bare number of
// millimeters to inches.
func parseLength(v string) (float64, error) {
	text := strings.ToLower(strings.TrimSpace(v))
	factor := 1 / 25.4
	for _, u := range []struct {
		suffix string
		inches float64
	}{
		{"mm", 1 / 25.4},
		{"cm", 1 / 2.54},
		{"in", 1},
		{"px", 1.0 / 96},
	} {
		if strings.HasSuffix(text, u.suffix) {
			text = strings.TrimSuffix(text, u.suffix)
			factor = u.inches
			break
		}
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("invalid length: %q", v)
	}
	return n * factor, nil
}

// paper is a page size in millimeters, portrait.
type paper struct {
	width, height float64
}

// paperSizes holds the QPrinter page sizes accepted by size.pageSize.
var paperSizes = map[string]paper{
	"a0":        {841, 1189},
	"a1":        {594, 841},
	"a2":        {420, 594},
	"a3":        {297, 420},
	"a4":        {210, 297},
	"a5":        {148, 210},
	"a6":        {105, 148},
	"a7":        {74, 105},
	"a8":        {52, 74},
	"a9":        {37, 52},
	"b0":        {1000, 1414},
	"b1":        {707, 1000},
	"b2":        {500, 707},
	"b3":        {353, 500},
	"b4":        {250, 353},
	"b5":        {176, 250},
	"b6":        {125, 176},
	"b7":        {88, 125},
	"b8":        {62, 88},
	"b9":        {33, 62},
	"b10":       {31, 44},
	"c5e":       {163, 229},
	"comm10e":   {105, 241},
	"dle":       {110, 220},
	"executive": {190.5, 254},
	"folio":     {210, 330},
	"ledger":    {431.8, 279.4},
	"legal":     {215.9, 355.6},
	"letter":    {215.9, 279.4},
	"tabloid":   {279.4, 431.8},
}
