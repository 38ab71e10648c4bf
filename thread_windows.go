//go:build windows

package wkhtmltox

import "golang.org/x/sys/windows"

// currentThreadID returns the id of the calling OS thread.
func currentThreadID() uint64 {
	return uint64(windows.GetCurrentThreadId())
}
