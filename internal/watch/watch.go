// Package watch runs the outer loop: pump the child's output, route
// every line through the filter and snippet pipeline, and probe for
// operator keystrokes, all on one logical control thread.
package watch

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"time"

	"outsift/internal/dispatch"
	"outsift/internal/overlay"
	"outsift/internal/pump"
	"outsift/internal/rules"
	"outsift/internal/sink"
	"outsift/pkg/streamlog"
)

// DefaultTickBudget bounds both output latency and keystroke-detection
// latency per loop iteration.
const DefaultTickBudget = 300 * time.Millisecond

// Stream name used for lines arriving on standard input in pipe mode.
const StreamStdin = "stdin"

// Options assembles a session. The caller supplies ready-built rule
// collections (initial configuration) and any sink mirrors.
type Options struct {
	// Command is the ready-to-exec child argument vector. Empty means
	// pipe mode.
	Command []string
	// PTY captures the child under a pseudo-terminal (merged stream).
	PTY bool
	// Pipe forces reading from Input even when a command is present.
	Pipe bool
	// Interactive enables the operator overlay. Ignored unless Term is
	// also set (i.e. the input is a real terminal).
	Interactive bool
	// TickBudget bounds one pump drain; zero means DefaultTickBudget.
	TickBudget time.Duration

	// Console receives surviving lines. Control receives prompt text
	// and command replies. Input is the operator terminal, or the text
	// source in pipe mode.
	Console io.Writer
	Control io.Writer
	Input   io.Reader
	// Term switches the operator terminal between raw and cooked mode;
	// nil disables interactivity.
	Term overlay.TermControl

	Filters  *rules.FilterSet
	Snippets *rules.SnippetList
	Mirrors  []sink.Mirror
}

// Session is one watch run. Not safe for concurrent use.
type Session struct {
	opts     Options
	counters sink.Counters
	out      *sink.Sink
	exitCode int
}

// New builds a session from opts.
func New(opts Options) *Session {
	if opts.TickBudget <= 0 {
		opts.TickBudget = DefaultTickBudget
	}
	s := &Session{opts: opts}
	s.out = sink.New(opts.Console, &s.counters, opts.Mirrors...)
	return s
}

// route sends one observed line through the pipeline. Every line counts
// toward the total; only survivors are rewritten and emitted.
func (s *Session) route(stream, line string) {
	s.counters.Total++
	if s.opts.Filters.ShouldDrop(line) {
		s.counters.Suppressed++
		return
	}
	s.out.Emit(stream, s.opts.Snippets.Apply(line))
}

// Run executes the session until the child exits, the operator quits,
// or the input source is exhausted.
func (s *Session) Run() error {
	if s.opts.Pipe || len(s.opts.Command) == 0 {
		return s.runPipe()
	}
	return s.runWatch()
}

// runPipe routes standard input straight through the pipeline; the pump
// and the overlay are not involved.
func (s *Session) runPipe() error {
	scanner := bufio.NewScanner(s.opts.Input)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		s.route(StreamStdin, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

func (s *Session) runWatch() error {
	p, err := pump.Start(s.opts.Command, pump.Options{PTY: s.opts.PTY})
	if err != nil {
		return fmt.Errorf("spawning child: %w", err)
	}
	slog.Debug("child started", "pid", p.PID(), "pty", s.opts.PTY)

	var ov *overlay.Overlay
	if s.opts.Interactive && s.opts.Term != nil {
		if err := s.opts.Term.Raw(); err != nil {
			slog.Warn("interactivity disabled", "error", err)
		} else {
			defer s.opts.Term.Restore()
			disp := &dispatch.Dispatcher{
				Filters:  s.opts.Filters,
				Snippets: s.opts.Snippets,
				Counters: &s.counters,
				Out:      s.opts.Control,
				Diag:     p,
			}
			ov = overlay.New(s.opts.Input, s.opts.Term, disp, s.opts.Control)
		}
	}

	for {
		if !p.Tick(s.opts.TickBudget, s.route) {
			break
		}
		if ov != nil && ov.CheckInput() == dispatch.Terminate {
			// Operator quit: the sole exit path besides child exit.
			p.ForceTerminate(s.route)
			break
		}
	}

	s.exitCode = p.ExitCode()
	if sig := p.Signal(); sig != "" {
		slog.Info("child ended by signal", "signal", sig)
	}
	return nil
}

// RunReplay feeds records from a stream-tagged log through the pipeline
// as if the child were producing them now.
func (s *Session) RunReplay(r *streamlog.Reader) error {
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("replaying log: %w", err)
		}
		s.route(rec.Stream, rec.Line)
	}
}

// Counters exposes the session counters for the embedding CLI.
func (s *Session) Counters() *sink.Counters {
	return &s.counters
}

// Summary returns the human-readable suppression summary.
func (s *Session) Summary() string {
	return s.counters.Summary()
}

// ChildExitCode reports the child's exit status after Run returns; zero
// in pipe and replay modes.
func (s *Session) ChildExitCode() int {
	return s.exitCode
}
