// Package sink writes surviving, possibly-rewritten lines to the console
// and mirrors them to any configured secondary destinations (log file,
// stream-tagged log, follow hub). It also owns the line counters.
package sink

import (
	"fmt"
	"io"
	"log/slog"
)

// Counters tracks line totals for the stats command and the exit summary.
// All fields increase monotonically. The invariant Written == Total -
// Suppressed holds after every routed line.
type Counters struct {
	Total      int64 // every observed line, counted before filtering
	Suppressed int64 // lines dropped by the filter pipeline
	Written    int64 // lines that reached the sink
}

// Summary returns the human-readable exit summary.
func (c *Counters) Summary() string {
	return fmt.Sprintf("Suppressed %d/%d lines.", c.Suppressed, c.Total)
}

// Mirror receives a copy of every emitted line together with the stream
// it came from. Mirrors must not block the caller.
type Mirror interface {
	MirrorLine(stream, line string)
}

// Sink is the final stage of the pipeline. Callers guarantee the line has
// already passed filtering and rewriting.
type Sink struct {
	console  io.Writer
	counters *Counters
	mirrors  []Mirror
}

// New returns a Sink writing to console and mirroring to the given mirrors.
func New(console io.Writer, counters *Counters, mirrors ...Mirror) *Sink {
	return &Sink{console: console, counters: counters, mirrors: mirrors}
}

// Emit writes the line plus a newline to the console, forwards it to all
// mirrors, and counts it as written.
func (s *Sink) Emit(stream, line string) {
	if _, err := fmt.Fprintln(s.console, line); err != nil {
		slog.Error("console write failed", "error", err)
	}
	for _, m := range s.mirrors {
		m.MirrorLine(stream, line)
	}
	s.counters.Written++
}

// LineWriter mirrors emitted lines to an io.Writer as plain text, one
// line per write. Used for the default log file format.
type LineWriter struct {
	W io.Writer
}

func (lw *LineWriter) MirrorLine(stream, line string) {
	if _, err := fmt.Fprintln(lw.W, line); err != nil {
		slog.Error("log write failed", "error", err)
	}
}
