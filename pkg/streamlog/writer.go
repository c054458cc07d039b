package streamlog

import (
	"io"
	"log/slog"
	"time"
)

// Writer appends records to an io.Writer. It is not safe for concurrent
// use; the watch loop is the only writer.
type Writer struct {
	w   io.Writer
	now func() time.Time
}

// NewWriter returns a Writer targeting w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, now: time.Now}
}

// Write appends one record, stamping it with the current time.
func (sw *Writer) Write(stream, line string) {
	rec := Record{Stream: stream, Timestamp: sw.now(), Line: line}
	if _, err := sw.w.Write(Format(rec)); err != nil {
		slog.Error("streamlog write failed", "error", err)
	}
}

// MirrorLine lets a Writer serve as an output mirror for the sink.
func (sw *Writer) MirrorLine(stream, line string) {
	sw.Write(stream, line)
}
