// Package overlay interleaves operator input with output watching. In
// the watching state the operator's terminal is in raw mode and a
// non-blocking probe runs once per tick; any keystroke switches the
// terminal back to cooked line editing and opens a command prompt. An
// empty prompt line resumes watching.
package overlay

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"outsift/internal/dispatch"
)

// TermControl switches the operator terminal between raw polling mode
// and cooked line-editing mode. Both calls are idempotent.
type TermControl interface {
	Raw() error
	Restore() error
}

// Overlay owns the operator input device. A single reader goroutine
// feeds chunks over a channel so the probe never blocks the watch loop.
type Overlay struct {
	input   <-chan []byte
	pending []byte
	closed  bool
	term    TermControl
	disp    *dispatch.Dispatcher
	out     io.Writer
}

// New starts the input reader goroutine. out receives prompt text and
// command replies; it should be the operator's terminal, not the sink.
func New(in io.Reader, term TermControl, disp *dispatch.Dispatcher, out io.Writer) *Overlay {
	ch := make(chan []byte, 8)
	go func() {
		defer close(ch)
		buf := make([]byte, 1024)
		for {
			n, err := in.Read(buf)
			if n > 0 {
				ch <- append([]byte(nil), buf[:n]...)
			}
			if err != nil {
				return
			}
		}
	}()
	return &Overlay{input: ch, term: term, disp: disp, out: out}
}

// CheckInput is the once-per-tick keystroke probe. When a keystroke is
// pending it runs a full prompt session and reports its outcome;
// otherwise it returns immediately with Continue.
func (o *Overlay) CheckInput() dispatch.Outcome {
	if o.closed {
		return dispatch.Continue
	}
	select {
	case _, ok := <-o.input:
		if !ok {
			o.closed = true
			return dispatch.Continue
		}
		// The trigger keystroke only opens the prompt; it is not input.
		return o.prompt()
	default:
		return dispatch.Continue
	}
}

// prompt runs the cooked-mode command loop until the operator submits an
// empty line (resume) or a terminating command.
func (o *Overlay) prompt() dispatch.Outcome {
	if err := o.term.Restore(); err != nil {
		slog.Warn("could not leave raw mode", "error", err)
	}
	defer func() {
		if err := o.term.Raw(); err != nil {
			slog.Warn("could not re-enter raw mode", "error", err)
		}
	}()

	fmt.Fprintln(o.out, "-- command mode: empty line resumes, help lists commands --")
	for {
		fmt.Fprint(o.out, "> ")
		line, ok := o.readLine()
		if !ok {
			return dispatch.Continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			fmt.Fprintln(o.out, "-- watching --")
			return dispatch.Continue
		}
		if o.disp.Dispatch(line) == dispatch.Terminate {
			return dispatch.Terminate
		}
	}
}

// readLine blocks until a full line arrives. Bytes beyond the newline
// stay pending for the next call.
func (o *Overlay) readLine() (string, bool) {
	for {
		if i := bytes.IndexByte(o.pending, '\n'); i >= 0 {
			line := string(o.pending[:i])
			o.pending = o.pending[i+1:]
			return line, true
		}
		chunk, ok := <-o.input
		if !ok {
			o.closed = true
			line := string(o.pending)
			o.pending = nil
			return line, line != ""
		}
		o.pending = append(o.pending, chunk...)
	}
}
