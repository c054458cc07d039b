package streamlog

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Reader parses records from a stream-tagged log.
type Reader struct {
	r *bufio.Reader
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next record. It returns io.EOF at a clean end of
// input and a descriptive error on a truncated or corrupt record.
func (sr *Reader) Next() (Record, error) {
	var rec Record

	stream, err := sr.readField(' ')
	if err == io.EOF {
		return rec, io.EOF
	}
	if err != nil {
		return rec, fmt.Errorf("reading stream: %w", err)
	}
	rec.Stream = stream

	tsField, err := sr.readField(' ')
	if err != nil {
		return rec, fmt.Errorf("reading timestamp: %w", err)
	}
	ts, err := time.Parse(timestampLayout, tsField)
	if err != nil {
		return rec, fmt.Errorf("parsing timestamp: %w", err)
	}
	rec.Timestamp = ts

	lenField, err := sr.readField(':')
	if err != nil {
		return rec, fmt.Errorf("reading length: %w", err)
	}
	length, err := strconv.Atoi(strings.TrimSpace(lenField))
	if err != nil || length < 0 {
		return rec, fmt.Errorf("parsing length %q", lenField)
	}

	// Skip the single space after the colon.
	if b, err := sr.r.ReadByte(); err != nil {
		return rec, fmt.Errorf("reading record separator: %w", err)
	} else if b != ' ' {
		return rec, fmt.Errorf("expected space after length, got %q", b)
	}

	content := make([]byte, length)
	if _, err := io.ReadFull(sr.r, content); err != nil {
		return rec, fmt.Errorf("reading %d content bytes: %w", length, err)
	}
	rec.Line = string(content)

	if b, err := sr.r.ReadByte(); err != nil {
		return rec, fmt.Errorf("reading record terminator: %w", err)
	} else if b != '\n' {
		return rec, fmt.Errorf("expected newline after content, got %q", b)
	}

	return rec, nil
}

// readField reads up to and consumes delim, returning the bytes before
// it. A clean io.EOF is only reported when no bytes preceded it; input
// that ends mid-field is a truncated record.
func (sr *Reader) readField(delim byte) (string, error) {
	field, err := sr.r.ReadString(delim)
	if err != nil {
		if err == io.EOF {
			if field == "" {
				return "", io.EOF
			}
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return field[:len(field)-1], nil
}
