//go:build linux

package wkhtmltox

import "golang.org/x/sys/unix"

// currentThreadID returns the kernel id of the calling OS thread.
func currentThreadID() uint64 {
	return uint64(unix.Gettid())
}
