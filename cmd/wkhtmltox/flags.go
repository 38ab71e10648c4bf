package main

import (
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-wkhtmltox"
	"github.com/alnah/go-wkhtmltox/internal/config"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// backendFlags select and locate the engine.
type backendFlags struct {
	name     string
	library  string
	browser  string
	graphics bool
}

// pdfFlags holds pdf command flags.
type pdfFlags struct {
	pageSize     string
	orientation  string
	margin       string
	title        string
	dpi          uint
	imageQuality uint
	outlineDepth uint
	objectSets   []string
	verify       bool
}

// imageFlags holds image command flags.
type imageFlags struct {
	format      string
	transparent bool
	quality     uint
}

// convertFlags holds all flags for the pdf and image commands.
type convertFlags struct {
	common  commonFlags
	backend backendFlags
	output  string
	timeout string
	workers int
	sets    []string
	pdf     pdfFlags
	image   imageFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log every engine call")
}

// addBackendFlags adds engine selection flags to a FlagSet.
func addBackendFlags(fs *flag.FlagSet, f *backendFlags) {
	fs.StringVar(&f.name, "backend", "", "engine backend: native, chromium")
	fs.StringVar(&f.library, "lib", "", "libwkhtmltox path (native backend)")
	fs.StringVar(&f.browser, "browser", "", "Chrome/Chromium binary (chromium backend)")
	fs.BoolVar(&f.graphics, "graphics", false, "let wkhtmltox use the X server")
}

// addPDFFlags adds pdf layout flags to a FlagSet.
func addPDFFlags(fs *flag.FlagSet, f *pdfFlags) {
	fs.StringVarP(&f.pageSize, "page-size", "p", "", "page size: A4, Letter, ... or WxH (e.g. 100mmx150mm)")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.StringVar(&f.margin, "margin", "", "page margins, 1 to 4 sizes in CSS order (e.g. \"10mm 5mm\")")
	fs.StringVar(&f.title, "title", "", "document title")
	fs.UintVar(&f.dpi, "dpi", 0, "rendering resolution")
	fs.UintVar(&f.imageQuality, "image-quality", 0, "JPEG quality of embedded images (1-100)")
	fs.UintVar(&f.outlineDepth, "outline-depth", 0, "PDF outline depth (0 = no outline)")
	fs.StringArrayVar(&f.objectSets, "object-set", nil, "raw object setting key=value (repeatable)")
	fs.BoolVar(&f.verify, "verify", false, "parse the generated PDF and check it has pages")
}

// addImageFlags adds image flags to a FlagSet.
func addImageFlags(fs *flag.FlagSet, f *imageFlags) {
	fs.StringVar(&f.format, "format", "", "image format: png, jpg, bmp, svg (default from output name)")
	fs.BoolVar(&f.transparent, "transparent", false, "transparent background (png)")
	fs.UintVar(&f.quality, "quality", 0, "JPEG quality (1-100)")
}

// parseConvertFlags parses pdf or image command flags and returns positional args.
func parseConvertFlags(kind wkhtmltox.Kind, args []string, stderr io.Writer) (*convertFlags, []string, error) {
	name := commandName(kind)
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &convertFlags{}

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory (- = stdout)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "job timeout (e.g., 30s, 2m)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "input preparation workers (0 = auto)")
	fs.StringArrayVar(&f.sets, "set", nil, "raw global setting key=value (repeatable)")

	addCommonFlags(fs, &f.common)
	addBackendFlags(fs, &f.backend)
	if kind == wkhtmltox.KindPDF {
		addPDFFlags(fs, &f.pdf)
	} else {
		addImageFlags(fs, &f.image)
	}

	fs.Usage = func() { printConvertUsage(stderr, kind) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}

// mergeFlags applies explicitly set flags over cfg (CLI wins). --set goes to
// the global settings of kind.
func mergeFlags(kind wkhtmltox.Kind, f *convertFlags, cfg *config.Config) error {
	if f.backend.name != "" {
		cfg.Backend.Name = f.backend.name
	}
	if f.backend.library != "" {
		cfg.Backend.Library = f.backend.library
	}
	if f.backend.browser != "" {
		cfg.Backend.Browser = f.backend.browser
	}
	if f.backend.graphics {
		cfg.Backend.Graphics = true
	}
	if f.timeout != "" {
		cfg.Timeout = f.timeout
	}
	if f.workers != 0 {
		cfg.Workers = f.workers
	}

	// Per-kind flags
	p := f.pdf
	if p.pageSize != "" {
		cfg.PDF.PageSize = p.pageSize
	}
	if p.orientation != "" {
		cfg.PDF.Orientation = p.orientation
	}
	if p.margin != "" {
		cfg.PDF.Margin = p.margin
	}
	if p.title != "" {
		cfg.PDF.Title = p.title
	}
	if p.dpi > 0 {
		cfg.PDF.DPI = p.dpi
	}
	if p.imageQuality > 0 {
		cfg.PDF.ImageQuality = p.imageQuality
	}
	if p.outlineDepth > 0 {
		cfg.PDF.OutlineDepth = p.outlineDepth
	}
	objects, err := parseSettings(p.objectSets)
	if err != nil {
		return err
	}
	cfg.PDF.Object = append(cfg.PDF.Object, objects...)

	img := f.image
	if img.format != "" {
		cfg.Image.Format = strings.ToLower(img.format)
	}
	if img.transparent {
		cfg.Image.Transparent = true
	}
	if img.quality > 0 {
		cfg.Image.Quality = img.quality
	}

	globals, err := parseSettings(f.sets)
	if err != nil {
		return err
	}
	if kind == wkhtmltox.KindImage {
		cfg.Image.Global = append(cfg.Image.Global, globals...)
	} else {
		cfg.PDF.Global = append(cfg.PDF.Global, globals...)
	}

	return cfg.Validate()
}

// parseSettings splits "key=value" flags. The value may contain '='.
func parseSettings(raw []string) ([]config.Setting, error) {
	settings := make([]config.Setting, 0, len(raw))
	for _, r := range raw {
		name, value, ok := strings.Cut(r, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSetting, r)
		}
		settings = append(settings, config.Setting{Name: name, Value: value})
	}
	return settings, nil
}

func commandName(kind wkhtmltox.Kind) string {
	if kind == wkhtmltox.KindImage {
		return "image"
	}
	return "pdf"
}
