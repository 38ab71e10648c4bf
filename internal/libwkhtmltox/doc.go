// Package libwkhtmltox binds the C API of libwkhtmltox (wkhtmltopdf and
// wkhtmltoimage) without cgo, using purego.
//
// The bindings are thin: every method maps to one C function and none of them
// is safe for concurrent use. Callers are responsible for running every call on
// the thread that called Init.
package libwkhtmltox
