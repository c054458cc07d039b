package overlay

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// RawMode is a scoped acquisition of terminal raw mode. Raw saves the
// prior state on first use; Restore puts it back and is safe to call on
// every exit path, including when Raw never ran.
type RawMode struct {
	fd    int
	saved *term.State
}

// NewRawMode controls the terminal behind f.
func NewRawMode(f *os.File) *RawMode {
	return &RawMode{fd: int(f.Fd())}
}

func (r *RawMode) Raw() error {
	if r.saved != nil {
		return nil
	}
	state, err := term.MakeRaw(r.fd)
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	r.saved = state
	return nil
}

func (r *RawMode) Restore() error {
	if r.saved == nil {
		return nil
	}
	err := term.Restore(r.fd, r.saved)
	r.saved = nil
	if err != nil {
		return fmt.Errorf("restoring terminal: %w", err)
	}
	return nil
}

// IsTerminal reports whether f is attached to a terminal. Interactivity
// is disabled when the operator input is not one.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
