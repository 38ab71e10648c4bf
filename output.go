package wkhtmltox

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	_ io.Reader   = (*Output)(nil)
	_ io.WriterTo = (*Output)(nil)
	_ io.Closer   = (*Output)(nil)
)

// Output is the result of a successful conversion. It reads directly from the
// buffer owned by the converter, so it keeps the converter alive and the
// engine busy until Close. Reads are single pass.
//
// Output must be closed on the engine thread. Close returns the engine to
// ready whether or not the bytes were read.
type Output struct {
	conv     *Converter
	data     []byte
	off      int
	warnings []string
	closed   bool
}

// Read implements io.Reader over the remaining bytes.
func (o *Output) Read(p []byte) (int, error) {
	if o.closed {
		return 0, ErrOutputClosed
	}
	if o.off >= len(o.data) {
		return 0, io.EOF
	}
	n := copy(p, o.data[o.off:])
	o.off += n
	return n, nil
}

// WriteTo implements io.WriterTo: it copies every remaining byte to w.
func (o *Output) WriteTo(w io.Writer) (int64, error) {
	if o.closed {
		return 0, ErrOutputClosed
	}
	if o.off >= len(o.data) {
		return 0, nil
	}
	n, err := w.Write(o.data[o.off:])
	o.off += n
	if err != nil {
		return int64(n), fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return int64(n), nil
}

// Bytes returns the unread bytes without consuming them. The slice is only
// valid until Close; copy it to keep it.
func (o *Output) Bytes() []byte {
	if o.closed {
		return nil
	}
	return o.data[o.off:]
}

// Len returns the number of unread bytes.
func (o *Output) Len() int {
	if o.closed {
		return 0
	}
	return len(o.data) - o.off
}

// Warnings returns the warnings the engine reported during the job.
func (o *Output) Warnings() []string { return o.warnings }

// JobID identifies the job in logs.
func (o *Output) JobID() uuid.UUID { return o.conv.jobID }

// Save writes the remaining bytes to path, replacing any existing file.
func (o *Output) Save(path string) error {
	// #nosec G304,G302 -- user-provided path, output files are meant to be readable
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	if _, err := o.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	o.conv.log().Debug("output saved", zap.String("path", path))
	return nil
}

// Close destroys the converter and returns the engine to ready. It is
// idempotent.
func (o *Output) Close() error {
	if o.closed {
		return nil
	}
	if err := o.conv.lib.checkThread(); err != nil {
		return err
	}
	o.closed = true
	o.data = nil
	o.conv.destroy()
	return nil
}
