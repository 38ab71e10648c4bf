// Package wkhtmltox renders HTML to PDF and images with the wkhtmltox engine
// (wkhtmltopdf and wkhtmltoimage), enforcing the rules the engine itself does
// not check.
//
// # Engine Rules
//
// The engine is process-global and not reentrant:
//
//  1. It can be initialized once per process. A second Init, successful or
//     not, fails with ErrIllegalInit.
//  2. Every call must come from the OS thread that initialized it. Lock the
//     goroutine with runtime.LockOSThread before Init; calls from another
//     thread fail with a *ThreadMismatchError.
//  3. It runs one job at a time. While a job is alive, NewGlobalSettings fails
//     with ErrBlocked instead of queueing.
//
// # Quick Start
//
//	runtime.LockOSThread()
//	guard, err := wkhtmltox.InitPDF()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer guard.Close()
//
//	out, err := guard.PDFBuilder().
//	    Orientation(wkhtmltox.Landscape).
//	    Title("Report").
//	    BuildFromHTML("<h1>Hello</h1>")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer out.Close()
//	err = out.Save("report.pdf")
//
// Output reads straight from the engine's buffer. The engine stays busy until
// the Output is closed.
//
// # Low-level API
//
// Builders are made of four steps that can be used directly:
//
//	global, _ := guard.NewGlobalSettings()   // engine is now busy
//	_ = global.Set("orientation", "Landscape")
//	conv, _ := global.NewConverter()         // global is consumed
//	obj, _ := guard.NewObjectSettings()
//	_ = conv.AttachHTML(obj, "<b>hi</b>")    // obj is consumed
//	out, err := conv.Convert()               // out owns the converter
//
// Consumed settings are owned by the engine and must not be closed; Close on
// them is a no-op. Settings, converters and outputs that are still owned must
// be closed on the engine thread to end the job.
//
// # Workers
//
// Worker runs the engine on a dedicated thread and accepts jobs from any
// goroutine:
//
//	w, err := wkhtmltox.NewWorker(wkhtmltox.KindPDF)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	pdf, err := w.ConvertPDF(ctx, func(b *wkhtmltox.PDFBuilder) (*wkhtmltox.Output, error) {
//	    return b.BuildFromURL("https://example.com")
//	})
//
// A job cannot be cancelled. When ctx ends, the caller stops waiting and the
// job finishes on the engine thread.
//
// # Backends
//
// The default backend loads libwkhtmltox at runtime, without cgo. WithBackend
// replaces it, for instance with the headless Chromium backend of the
// chromium package.
package wkhtmltox
