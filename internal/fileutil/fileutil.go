// Package fileutil classifies command-line references and probes paths.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotWritable is returned by CheckWritable.
var ErrNotWritable = errors.New("directory is not writable")

// CheckWritable verifies that a file can be created in dir ("" for the
// default temp dir). The probe file is removed.
func CheckWritable(dir string) error {
	f, err := os.CreateTemp(dir, "wkhtmltox-probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotWritable, dir, err)
	}
	name := f.Name()
	closeErr := f.Close()
	removeErr := os.Remove(name)
	if err := errors.Join(closeErr, removeErr); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotWritable, dir, err)
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "production" -> false (name)
//   - "./wkhtmltox.yaml" -> true (relative path)
//   - "/etc/wkhtmltox.toml" -> true (absolute)
//   - "C:\conf\wkhtmltox.yaml" -> true (Windows)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// IsURL reports whether s is a reference the engine fetches itself rather than
// a local file: http, https, file and data URLs.
func IsURL(s string) bool {
	for _, scheme := range []string{"http://", "https://", "file://", "data:"} {
		if len(s) > len(scheme) && strings.EqualFold(s[:len(scheme)], scheme) {
			return true
		}
	}
	return false
}

// ReplaceExt swaps the extension of path, e.g. ("doc.md", ".pdf") -> "doc.pdf".
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
