// Package chromium is a wkhtmltox backend that renders with headless Chromium
// through go-rod, for hosts without libwkhtmltox.
//
// It accepts the common subset of wkhtmltopdf and wkhtmltoimage settings and
// rejects every other key, as libwkhtmltox does. Settings without a Chromium
// counterpart (outline, dpi) are accepted and reported as job warnings. A PDF
// job renders either any number of inline HTML objects, joined with page
// breaks, or a single page reference.
//
//	runtime.LockOSThread()
//	guard, err := wkhtmltox.InitPDF(wkhtmltox.WithBackend(chromium.New(wkhtmltox.KindPDF)))
package chromium
