// Package dispatch interprets operator commands typed at the interactive
// prompt and mutates the rule sets accordingly. Termination is signalled
// through an explicit Outcome value; there is no control flow through
// panics or sentinel errors.
package dispatch

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"

	"outsift/internal/procinfo"
	"outsift/internal/rules"
	"outsift/internal/sink"
)

// Outcome tells the outer loop what to do after a command.
type Outcome int

const (
	Continue Outcome = iota
	Terminate
)

// Diagnoser exposes child-process state for the stack and bufs commands.
type Diagnoser interface {
	BufferContents() map[string][]byte
	PID() int
}

const helpText = `commands:
  stack                      dump goroutines and child process state
  bufs                       show raw unterminated buffer contents
  pats                       list active filter and snippet rules
  stats                      show suppressed/total line counts
  ignore_line <text>         suppress lines equal to <text>
  ignore_substring <text>    suppress lines containing <text>
  ignore_re <regex>          suppress lines matching <regex>
  snippet s/<search>/<replace>/
                             rewrite first occurrence of <search>
  help, h                    this summary
  quit, q                    terminate the child and exit
an empty line resumes watching`

// Dispatcher mutates the shared rule collections. It runs on the single
// control thread, between pump ticks, so no locking is needed.
type Dispatcher struct {
	Filters  *rules.FilterSet
	Snippets *rules.SnippetList
	Counters *sink.Counters
	Out      io.Writer
	Diag     Diagnoser // nil when no child is attached
}

// Dispatch interprets one trimmed command line. Malformed or unknown
// commands report to Out and leave all state unchanged.
func (d *Dispatcher) Dispatch(input string) Outcome {
	input = strings.TrimSpace(input)
	if input == "" {
		return Continue
	}
	name, arg, _ := strings.Cut(input, " ")

	switch name {
	case "quit", "q":
		return Terminate
	case "help", "h":
		fmt.Fprintln(d.Out, helpText)
	case "stats":
		fmt.Fprintf(d.Out, "suppressed: %d\ntotal_lines: %d\n",
			d.Counters.Suppressed, d.Counters.Total)
	case "pats":
		d.printRules()
	case "stack":
		d.dumpStack()
	case "bufs":
		d.dumpBuffers()
	case "ignore_line":
		if arg == "" {
			fmt.Fprintln(d.Out, "usage: ignore_line <text>")
			break
		}
		d.Filters.AddExact(arg)
	case "ignore_substring":
		if arg == "" {
			fmt.Fprintln(d.Out, "usage: ignore_substring <text>")
			break
		}
		d.Filters.AddSubstring(arg)
	case "ignore_re":
		if arg == "" {
			fmt.Fprintln(d.Out, "usage: ignore_re <regex>")
			break
		}
		if err := d.Filters.AddRegex(arg); err != nil {
			fmt.Fprintln(d.Out, err)
		}
	case "snippet":
		s, err := rules.ParseSnippet(arg)
		if err != nil {
			fmt.Fprintf(d.Out, "%v\nusage: snippet s/<search>/<replace>/\n", err)
			break
		}
		d.Snippets.Add(s)
	default:
		fmt.Fprintf(d.Out, "unknown command %q; try help\n", name)
	}
	return Continue
}

func (d *Dispatcher) printRules() {
	entries := append(d.Filters.Describe(), d.Snippets.Describe()...)
	if len(entries) == 0 {
		fmt.Fprintln(d.Out, "(no active rules)")
		return
	}
	for _, e := range entries {
		fmt.Fprintln(d.Out, e)
	}
}

func (d *Dispatcher) dumpStack() {
	buf := make([]byte, 64*1024)
	n := runtime.Stack(buf, true)
	d.Out.Write(buf[:n])

	if d.Diag == nil {
		fmt.Fprintln(d.Out, "no child process attached")
		return
	}
	info, err := procinfo.Describe(int32(d.Diag.PID()))
	if err != nil {
		fmt.Fprintf(d.Out, "child diagnostics unavailable: %v\n", err)
		return
	}
	fmt.Fprint(d.Out, info)
}

func (d *Dispatcher) dumpBuffers() {
	if d.Diag == nil {
		fmt.Fprintln(d.Out, "no child process attached")
		return
	}
	contents := d.Diag.BufferContents()
	streams := make([]string, 0, len(contents))
	for stream := range contents {
		streams = append(streams, stream)
	}
	sort.Strings(streams)
	for _, stream := range streams {
		fmt.Fprintf(d.Out, "%s: %q\n", stream, contents[stream])
	}
}
