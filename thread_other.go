//go:build !linux && !darwin && !windows

package wkhtmltox

// currentThreadID has no portable implementation here; every caller reports
// the same id, so thread affinity is not enforced on these platforms.
func currentThreadID() uint64 {
	return 0
}
