package wkhtmltox

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestPDFBuilder_SettingsOrder(t *testing.T) {
	t.Parallel()

	b := NewPDFBuilder(newLibrary(KindPDF, newTestThread().current)).
		PageSize(PageLetter).
		Orientation(Landscape).
		Margin(NewMargin(Millimeters(10), Millimeters(5))).
		DPI(300).
		ImageQuality(80).
		Title("Report").
		Outline(3).
		GlobalSetting("orientation", "Portrait").
		ObjectSetting("web.defaultEncoding", "utf-8").
		ObjectSetting("web.defaultEncoding", "latin1")

	wantGlobal := []Setting{
		{"size.pageSize", "Letter"},
		{"orientation", "Portrait"},
		{"margin.top", "10mm"},
		{"margin.bottom", "10mm"},
		{"margin.left", "5mm"},
		{"margin.right", "5mm"},
		{"dpi", "300"},
		{"imageQuality", "80"},
		{"documentTitle", "Report"},
		{"outline", "true"},
		{"outlineDepth", "3"},
	}
	if got := b.GlobalSettings(); !slices.Equal(got, wantGlobal) {
		t.Errorf("GlobalSettings() =\n%v\nwant\n%v", got, wantGlobal)
	}
	wantObject := []Setting{{"web.defaultEncoding", "latin1"}}
	if got := b.ObjectSettings(); !slices.Equal(got, wantObject) {
		t.Errorf("ObjectSettings() = %v, want %v", got, wantObject)
	}

	// Returned slices are copies.
	b.GlobalSettings()[0].Value = "A0"
	if b.GlobalSettings()[0].Value != "Letter" {
		t.Error("GlobalSettings() exposes the builder's storage")
	}
}

func TestPDFBuilder_CustomPageSize(t *testing.T) {
	t.Parallel()

	b := NewPDFBuilder(newLibrary(KindPDF, newTestThread().current)).
		PageSize(CustomPageSize(Millimeters(100), Inches(6.5)))

	want := []Setting{{"size.width", "100mm"}, {"size.height", "6.5in"}}
	if got := b.GlobalSettings(); !slices.Equal(got, want) {
		t.Errorf("GlobalSettings() = %v, want %v", got, want)
	}
}

func TestPDFBuilder_Build(t *testing.T) {
	t.Parallel()

	te := newTestEngine(t, KindPDF)
	out, err := te.guard.PDFBuilder().
		Orientation(Landscape).
		ObjectSetting("load.blockLocalFileAccess", "true").
		Build(HTMLSource("<b>hi</b>"), PageSource("https://example.com"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer func() { _ = out.Close() }()

	log := te.backend.callLog()
	for _, want := range []string{
		"set_global orientation=Landscape",
		"set_object load.blockLocalFileAccess=true",
		"set_object page=https://example.com",
	} {
		if !slices.Contains(log, want) {
			t.Errorf("missing native call %q in %v", want, log)
		}
	}
	if n := te.backend.count("add_object"); n != 2 {
		t.Errorf("add_object called %d times, want 2", n)
	}
	if n := te.backend.count("set_object load.blockLocalFileAccess"); n != 2 {
		t.Errorf("object setting applied %d times, want once per source", n)
	}
}

func TestPDFBuilder_Errors(t *testing.T) {
	t.Parallel()

	t.Run("wrong kind", func(t *testing.T) {
		t.Parallel()

		te := newTestEngine(t, KindImage)
		_, err := NewPDFBuilder(te.lib).BuildFromHTML("x")
		if !errors.Is(err, ErrWrongKind) {
			t.Errorf("error = %v, want %v", err, ErrWrongKind)
		}
		if n := te.backend.count("create"); n != 0 {
			t.Errorf("engine touched %d times", n)
		}
	})

	t.Run("no sources", func(t *testing.T) {
		t.Parallel()

		te := newTestEngine(t, KindPDF)
		if _, err := te.guard.PDFBuilder().Build(); !errors.Is(err, ErrNoSources) {
			t.Errorf("error = %v, want %v", err, ErrNoSources)
		}
		assertState(t, te.lib, StateReady)
	})

	t.Run("rejected global setting", func(t *testing.T) {
		t.Parallel()

		te := newTestEngine(t, KindPDF)
		te.backend.reject["global:bogus"] = true

		_, err := te.guard.PDFBuilder().GlobalSetting("bogus", "1").BuildFromURL("https://example.com")
		var settingErr *SettingError
		if !errors.As(err, &settingErr) || settingErr.Name != "bogus" {
			t.Fatalf("error = %v, want SettingError on bogus", err)
		}
		assertState(t, te.lib, StateReady)
		if n := te.backend.count("destroy_global"); n != 1 {
			t.Errorf("destroy_global called %d times, want 1", n)
		}
	})

	t.Run("rejected object setting", func(t *testing.T) {
		t.Parallel()

		te := newTestEngine(t, KindPDF)
		te.backend.reject["object:bogus"] = true

		_, err := te.guard.PDFBuilder().ObjectSetting("bogus", "1").BuildFromPath("a.html")
		if !errors.Is(err, ErrSettingFailure) {
			t.Fatalf("error = %v, want %v", err, ErrSettingFailure)
		}
		assertState(t, te.lib, StateReady)
		if te.backend.count("destroy_object") != 1 || te.backend.count("destroy_converter") != 1 {
			t.Errorf("job not cleaned up: %v", te.backend.callLog())
		}
	})

	t.Run("conversion failure", func(t *testing.T) {
		t.Parallel()

		te := newTestEngine(t, KindPDF)
		te.backend.convert = func(ev Events, conv Handle) bool {
			ev.Error(conv, "bad css")
			ev.Error(conv, "bad font")
			ev.Finished(conv, 0)
			return false
		}

		_, err := te.guard.PDFBuilder().BuildFromHTML("<p>x</p>")
		var convErr *ConversionError
		if !errors.As(err, &convErr) || convErr.Message() != "bad css, bad font" {
			t.Fatalf("error = %v, want conversion error with both messages", err)
		}
		assertState(t, te.lib, StateReady)
	})
}

func TestPDFBuilder_Reusable(t *testing.T) {
	t.Parallel()

	te := newTestEngine(t, KindPDF)
	b := te.guard.PDFBuilder().Title("again")

	for i := range 3 {
		out, err := b.BuildFromHTML("<p>x</p>")
		if err != nil {
			t.Fatalf("Build() #%d error = %v", i, err)
		}
		if err := out.Close(); err != nil {
			t.Fatalf("Close() #%d error = %v", i, err)
		}
	}
	if n := te.backend.count("convert"); n != 3 {
		t.Errorf("convert called %d times, want 3", n)
	}
}

func TestImageBuilder(t *testing.T) {
	t.Parallel()

	t.Run("settings order", func(t *testing.T) {
		t.Parallel()

		b := NewImageBuilder(newLibrary(KindImage, newTestThread().current)).
			Format("jpg").
			Transparent(false).
			ImageQuality(70).
			GlobalSetting("screenWidth", "1280")

		want := []Setting{
			{"fmt", "jpg"},
			{"transparent", "false"},
			{"quality", "70"},
			{"screenWidth", "1280"},
		}
		if got := b.GlobalSettings(); !slices.Equal(got, want) {
			t.Errorf("GlobalSettings() = %v, want %v", got, want)
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Parallel()

		te := newTestEngine(t, KindImage)
		_, err := te.guard.ImageBuilder().Format("gif").BuildFromHTML("x")
		if !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("error = %v, want %v", err, ErrInvalidFormat)
		}
		if n := te.backend.count("create"); n != 0 {
			t.Errorf("engine touched %d times", n)
		}
	})

	t.Run("wrong kind", func(t *testing.T) {
		t.Parallel()

		te := newTestEngine(t, KindPDF)
		if _, err := NewImageBuilder(te.lib).BuildFromURL("https://example.com"); !errors.Is(err, ErrWrongKind) {
			t.Errorf("error = %v, want %v", err, ErrWrongKind)
		}
	})

	t.Run("from url", func(t *testing.T) {
		t.Parallel()

		te := newTestEngine(t, KindImage)
		out, err := te.guard.ImageBuilder().Format("png").BuildFromURL("https://example.com")
		if err != nil {
			t.Fatalf("BuildFromURL() error = %v", err)
		}
		defer func() { _ = out.Close() }()

		if !slices.Contains(te.backend.callLog(), "set_global in=https://example.com") {
			t.Errorf("calls = %v, want the in key", te.backend.callLog())
		}
		if te.backend.converterData != nil {
			t.Error("url job passed inline data")
		}
	})

	t.Run("from html", func(t *testing.T) {
		t.Parallel()

		te := newTestEngine(t, KindImage)
		out, err := te.guard.ImageBuilder().BuildFromHTML("<b>hi</b>")
		if err != nil {
			t.Fatalf("BuildFromHTML() error = %v", err)
		}
		defer func() { _ = out.Close() }()

		if d := te.backend.converterData; d == nil || *d != "<b>hi</b>" {
			t.Errorf("converter data = %v, want the html", d)
		}
	})

	t.Run("from path", func(t *testing.T) {
		t.Parallel()

		te := newTestEngine(t, KindImage)
		path := filepath.Join(t.TempDir(), "page.html")
		if err := os.WriteFile(path, []byte("<p>x</p>"), 0o600); err != nil {
			t.Fatal(err)
		}

		out, err := te.guard.ImageBuilder().BuildFromPath(path)
		if err != nil {
			t.Fatalf("BuildFromPath() error = %v", err)
		}
		defer func() { _ = out.Close() }()

		if !slices.Contains(te.backend.callLog(), "set_global in="+path) {
			t.Errorf("calls = %v, want the in key", te.backend.callLog())
		}
	})

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()

		te := newTestEngine(t, KindImage)
		missing := filepath.Join(t.TempDir(), "nope.html")

		_, err := te.guard.ImageBuilder().BuildFromPath(missing)
		var settingErr *SettingError
		if !errors.As(err, &settingErr) || settingErr.Name != "in" || settingErr.Value != missing {
			t.Fatalf("error = %v, want SettingError on in", err)
		}
		if n := te.backend.count("create"); n != 0 {
			t.Errorf("engine touched %d times", n)
		}
	})
}
