package wkhtmltox

import (
	"fmt"
	"os"
	"slices"
	"strconv"

	"go.uber.org/zap"
)

// settingList keeps settings in insertion order. Setting a key again replaces
// its value in place.
type settingList []Setting

func (l *settingList) put(name, value string) {
	for i := range *l {
		if (*l)[i].Name == name {
			(*l)[i].Value = value
			return
		}
	}
	*l = append(*l, Setting{Name: name, Value: value})
}

// Source is one input of a PDF job: a page reference or inline HTML.
type Source struct {
	ref    string
	html   string
	inline bool
}

// PageSource is a URL or a local path, resolved by the engine.
func PageSource(ref string) Source { return Source{ref: ref} }

// HTMLSource is inline HTML.
func HTMLSource(html string) Source { return Source{html: html, inline: true} }

func (s Source) String() string {
	if s.inline {
		return "<inline html>"
	}
	return s.ref
}

// PDFBuilder collects the options of a PDF job and runs it. Options are
// applied in the order they were set; the first rejected setting aborts the
// job.
type PDFBuilder struct {
	lib     *Library
	global  settingList
	object  settingList
	convert []ConvertOption
	err     error
}

// NewPDFBuilder returns a builder for jobs on lib, normally PDF().
func NewPDFBuilder(lib *Library) *PDFBuilder {
	b := &PDFBuilder{lib: lib}
	if lib.kind != KindPDF {
		b.err = fmt.Errorf("%w: pdf builder on %s", ErrWrongKind, lib.kind)
	}
	return b
}

// PDFBuilder returns a builder for jobs on the guarded engine.
func (g *Guard) PDFBuilder() *PDFBuilder { return NewPDFBuilder(g.lib) }

// PageSize sets a named or custom paper size.
func (b *PDFBuilder) PageSize(p PageSize) *PDFBuilder {
	if p.Custom() {
		b.global.put("size.width", p.width.String())
		b.global.put("size.height", p.height.String())
		return b
	}
	b.global.put("size.pageSize", p.name)
	return b
}

// Margin sets the four page margins.
func (b *PDFBuilder) Margin(m Margin) *PDFBuilder {
	b.global.put("margin.top", m.Top.String())
	b.global.put("margin.bottom", m.Bottom.String())
	b.global.put("margin.left", m.Left.String())
	b.global.put("margin.right", m.Right.String())
	return b
}

func (b *PDFBuilder) Orientation(o Orientation) *PDFBuilder {
	b.global.put("orientation", string(o))
	return b
}

func (b *PDFBuilder) DPI(dpi uint) *PDFBuilder {
	b.global.put("dpi", strconv.FormatUint(uint64(dpi), 10))
	return b
}

// ImageQuality sets the JPEG quality of embedded images.
func (b *PDFBuilder) ImageQuality(q uint) *PDFBuilder {
	b.global.put("imageQuality", strconv.FormatUint(uint64(q), 10))
	return b
}

// Title sets the document title.
func (b *PDFBuilder) Title(title string) *PDFBuilder {
	b.global.put("documentTitle", title)
	return b
}

// Outline turns on the document outline down to depth.
func (b *PDFBuilder) Outline(depth uint) *PDFBuilder {
	b.global.put("outline", "true")
	b.global.put("outlineDepth", strconv.FormatUint(uint64(depth), 10))
	return b
}

// GlobalSetting sets any global setting. The engine receives it verbatim and
// may crash on values it does not support.
func (b *PDFBuilder) GlobalSetting(name, value string) *PDFBuilder {
	b.global.put(name, value)
	return b
}

// ObjectSetting sets any object setting, applied to every source. The engine
// receives it verbatim and may crash on values it does not support.
func (b *PDFBuilder) ObjectSetting(name, value string) *PDFBuilder {
	b.object.put(name, value)
	return b
}

// Observe passes opts to the conversion.
func (b *PDFBuilder) Observe(opts ...ConvertOption) *PDFBuilder {
	b.convert = append(b.convert, opts...)
	return b
}

// GlobalSettings returns the global settings in the order they are applied.
func (b *PDFBuilder) GlobalSettings() []Setting { return slices.Clone(b.global) }

// ObjectSettings returns the object settings in the order they are applied.
func (b *PDFBuilder) ObjectSettings() []Setting { return slices.Clone(b.object) }

// BuildFromURL converts the page at url.
func (b *PDFBuilder) BuildFromURL(url string) (*Output, error) {
	return b.Build(PageSource(url))
}

// BuildFromPath converts the local HTML file at path.
func (b *PDFBuilder) BuildFromPath(path string) (*Output, error) {
	return b.Build(PageSource(path))
}

// BuildFromHTML converts html.
func (b *PDFBuilder) BuildFromHTML(html string) (*Output, error) {
	return b.Build(HTMLSource(html))
}

// Build converts sources into one document, in order. The builder can be
// reused for another job once the returned Output is closed.
func (b *PDFBuilder) Build(sources ...Source) (*Output, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	global, err := b.lib.NewGlobalSettings()
	if err != nil {
		return nil, err
	}
	if err := global.SetAll(b.global); err != nil {
		_ = global.Close()
		return nil, err
	}
	conv, err := global.NewConverter()
	if err != nil {
		_ = global.Close()
		return nil, err
	}
	for _, src := range sources {
		if err := b.attach(conv, src); err != nil {
			_ = conv.Close()
			return nil, err
		}
	}
	return conv.Convert(b.convert...)
}

func (b *PDFBuilder) attach(conv *Converter, src Source) error {
	obj, err := b.lib.NewObjectSettings()
	if err != nil {
		return err
	}
	if err := obj.SetAll(b.object); err != nil {
		_ = obj.Close()
		return err
	}
	if src.inline {
		err = conv.AttachHTML(obj, src.html)
	} else {
		err = conv.AttachPage(obj, src.ref)
	}
	if err != nil {
		_ = obj.Close()
		return err
	}
	return nil
}

// ImageBuilder collects the options of an image job and runs it.
type ImageBuilder struct {
	lib     *Library
	global  settingList
	convert []ConvertOption
	err     error
}

// NewImageBuilder returns a builder for jobs on lib, normally Image().
func NewImageBuilder(lib *Library) *ImageBuilder {
	b := &ImageBuilder{lib: lib}
	if lib.kind != KindImage {
		b.err = fmt.Errorf("%w: image builder on %s", ErrWrongKind, lib.kind)
	}
	return b
}

// ImageBuilder returns a builder for jobs on the guarded engine.
func (g *Guard) ImageBuilder() *ImageBuilder { return NewImageBuilder(g.lib) }

// Format sets the output format: "jpg", "png", "bmp", "svg", or "" to let
// the engine decide.
func (b *ImageBuilder) Format(format string) *ImageBuilder {
	if !slices.Contains(imageFormats, format) {
		b.err = fmt.Errorf("%w: %q (must be jpg, png, bmp or svg)", ErrInvalidFormat, format)
		return b
	}
	b.global.put("fmt", format)
	return b
}

// Transparent renders a transparent background (png and svg only).
func (b *ImageBuilder) Transparent(transparent bool) *ImageBuilder {
	b.global.put("transparent", strconv.FormatBool(transparent))
	return b
}

// ImageQuality sets the compression quality, 0 to 100.
func (b *ImageBuilder) ImageQuality(q uint) *ImageBuilder {
	b.global.put("quality", strconv.FormatUint(uint64(q), 10))
	return b
}

// GlobalSetting sets any global setting. The engine receives it verbatim and
// may crash on values it does not support.
func (b *ImageBuilder) GlobalSetting(name, value string) *ImageBuilder {
	b.global.put(name, value)
	return b
}

// Observe passes opts to the conversion.
func (b *ImageBuilder) Observe(opts ...ConvertOption) *ImageBuilder {
	b.convert = append(b.convert, opts...)
	return b
}

// GlobalSettings returns the global settings in the order they are applied.
func (b *ImageBuilder) GlobalSettings() []Setting { return slices.Clone(b.global) }

// BuildFromURL renders the page at url.
func (b *ImageBuilder) BuildFromURL(url string) (*Output, error) {
	return b.build("in", url, nil)
}

// BuildFromPath renders the local HTML file at path. A missing file is
// rejected up front: the engine would otherwise try it as a URL.
func (b *ImageBuilder) BuildFromPath(path string) (*Output, error) {
	if b.err != nil {
		return nil, b.err
	}
	if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
		b.lib.log().Warn("image source does not exist", zap.String("path", path))
		return nil, &SettingError{Scope: ScopeGlobal, Name: "in", Value: path}
	}
	return b.build("in", path, nil)
}

// BuildFromHTML renders html.
func (b *ImageBuilder) BuildFromHTML(html string) (*Output, error) {
	return b.build("", "", &html)
}

func (b *ImageBuilder) build(key, ref string, html *string) (*Output, error) {
	if b.err != nil {
		return nil, b.err
	}

	global, err := b.lib.NewGlobalSettings()
	if err != nil {
		return nil, err
	}
	if err := global.SetAll(b.global); err != nil {
		_ = global.Close()
		return nil, err
	}

	var conv *Converter
	if html != nil {
		conv, err = global.NewConverterWithHTML(*html)
	} else {
		if err := global.Set(key, ref); err != nil {
			_ = global.Close()
			return nil, err
		}
		conv, err = global.NewConverter()
	}
	if err != nil {
		_ = global.Close()
		return nil, err
	}
	return conv.Convert(b.convert...)
}
