// Package pump owns the child process and drains its output. Reader
// goroutines forward raw chunks over a channel; the single control
// thread consumes them in bounded ticks, splits them into lines, and
// hands each line to the routing callback. Per-stream ordering is
// preserved because each reader sends in read order and lines leave the
// per-stream buffer in arrival order.
package pump

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"

	"outsift/pkg/linebuf"
)

// Stream names used for routed lines and buffer dumps.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
	StreamTTY    = "tty" // merged stream in pty capture mode
)

// RouteFunc receives every extracted line together with its stream.
type RouteFunc func(stream, line string)

// Options controls how the child is captured.
type Options struct {
	// PTY runs the child under a pseudo-terminal. stdout and stderr
	// arrive merged as the single tty stream, but children that detect
	// a terminal keep their interactive output behavior.
	PTY bool
	// Dir is the child's working directory; empty means inherit.
	Dir string
}

type chunk struct {
	stream string
	data   []byte
}

// Pump drives one child process. Not safe for concurrent use; the watch
// loop is the only caller.
type Pump struct {
	cmd     *exec.Cmd
	ptmx    *os.File
	usePTY  bool
	chunks  chan chunk
	streams []string
	buffers map[string]*linebuf.Buffer

	exited   bool
	exitCode int
	signal   string
}

// Start spawns the child from a ready-to-exec argument vector. The
// child's stdin is not wired; it reads EOF immediately in pipe mode and
// has no writer on its pty in pty mode.
func Start(argv []string, opts Options) (*Pump, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = opts.Dir

	p := &Pump{
		cmd:     cmd,
		usePTY:  opts.PTY,
		chunks:  make(chan chunk, 64),
		buffers: make(map[string]*linebuf.Buffer),
	}

	if opts.PTY {
		return p, p.startPTY()
	}
	return p, p.startPipes()
}

func (p *Pump) startPipes() error {
	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := p.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating stderr pipe: %w", err)
	}

	p.addStream(StreamStdout)
	p.addStream(StreamStderr)

	// Readers start before the process so no early output is missed.
	readersDone := make(chan struct{}, 2)
	go readChunks(stdout, StreamStdout, p.chunks, readersDone)
	go readChunks(stderr, StreamStderr, p.chunks, readersDone)

	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("starting command: %w", err)
	}

	go func() {
		<-readersDone
		<-readersDone
		p.recordExit(p.cmd.Wait())
		close(p.chunks)
	}()
	return nil
}

func (p *Pump) startPTY() error {
	ptmx, err := pty.Start(p.cmd)
	if err != nil {
		return fmt.Errorf("starting command with pty: %w", err)
	}
	_ = pty.Setsize(ptmx, &pty.Winsize{Rows: 24, Cols: 80})
	p.ptmx = ptmx
	p.addStream(StreamTTY)

	readersDone := make(chan struct{}, 1)
	go readChunks(ptmx, StreamTTY, p.chunks, readersDone)

	go func() {
		<-readersDone
		p.recordExit(p.cmd.Wait())
		_ = ptmx.Close()
		close(p.chunks)
	}()
	return nil
}

func (p *Pump) addStream(name string) {
	p.streams = append(p.streams, name)
	p.buffers[name] = &linebuf.Buffer{}
}

// readChunks forwards raw reads in order. A pty read error after child
// exit (EIO on Linux) is treated the same as EOF.
func readChunks(r io.Reader, stream string, chunks chan<- chunk, done chan<- struct{}) {
	buf := make([]byte, 8192)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunks <- chunk{stream: stream, data: append([]byte(nil), buf[:n]...)}
		}
		if err != nil {
			break
		}
	}
	done <- struct{}{}
}

// recordExit runs on the waiter goroutine. The fields it writes are read
// only after the chunk channel is observed closed, so the close forms
// the necessary ordering.
func (p *Pump) recordExit(err error) {
	if err == nil {
		return
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		p.exitCode = 1
		return
	}
	p.exitCode = exitErr.ExitCode()
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		p.signal = status.Signal().String()
	}
}

// Tick drains available output for at most budget, routing every
// complete line. It returns false once the child has exited and the
// final flush has run.
func (p *Pump) Tick(budget time.Duration, route RouteFunc) bool {
	if p.exited {
		return false
	}
	timer := time.NewTimer(budget)
	defer timer.Stop()
	for {
		select {
		case c, ok := <-p.chunks:
			if !ok {
				p.finish(route)
				return false
			}
			p.consume(c, route)
		case <-timer.C:
			return true
		}
	}
}

func (p *Pump) consume(c chunk, route RouteFunc) {
	buf := p.buffers[c.stream]
	buf.Append(c.data)
	for _, line := range buf.ExtractLines() {
		route(c.stream, p.clean(line))
	}
}

// clean strips the carriage return a pty appends before each newline.
func (p *Pump) clean(line string) string {
	if p.usePTY {
		return strings.TrimSuffix(line, "\r")
	}
	return line
}

// finish flushes any unterminated remainders and marks the pump done.
func (p *Pump) finish(route RouteFunc) {
	for _, stream := range p.streams {
		for _, line := range p.buffers[stream].FlushRemainder() {
			route(stream, p.clean(line))
		}
	}
	p.exited = true
	slog.Debug("child exited", "pid", p.PID(), "exitCode", p.exitCode, "signal", p.signal)
}

// Running reports whether the child is still alive.
func (p *Pump) Running() bool {
	return !p.exited
}

// ForceTerminate stops the child: SIGTERM first, SIGKILL if it has not
// exited within the grace window. Output already in flight keeps being
// routed so nothing is silently dropped.
func (p *Pump) ForceTerminate(route RouteFunc) {
	if p.exited {
		return
	}
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Signal(syscall.SIGTERM)
	}

	grace := time.NewTimer(2 * time.Second)
	defer grace.Stop()
	killed := false
	for {
		select {
		case c, ok := <-p.chunks:
			if !ok {
				p.finish(route)
				return
			}
			p.consume(c, route)
		case <-grace.C:
			if !killed && p.cmd.Process != nil {
				_ = p.cmd.Process.Kill()
				killed = true
				grace.Reset(2 * time.Second)
			}
		}
	}
}

// PID returns the child's process id, or 0 before start.
func (p *Pump) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// ExitCode is valid once Running reports false.
func (p *Pump) ExitCode() int {
	return p.exitCode
}

// Signal returns the name of the signal that ended the child, if any.
func (p *Pump) Signal() string {
	return p.signal
}

// BufferContents returns the unterminated remainder of every stream
// buffer, for the bufs diagnostic command.
func (p *Pump) BufferContents() map[string][]byte {
	out := make(map[string][]byte, len(p.streams))
	for _, stream := range p.streams {
		out[stream] = p.buffers[stream].Remainder()
	}
	return out
}

// Streams returns the capture stream names in display order.
func (p *Pump) Streams() []string {
	return p.streams
}
