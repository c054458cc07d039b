// Package linebuf accumulates raw bytes from an output stream and hands
// out complete newline-terminated lines. A trailing fragment without a
// newline stays buffered until more bytes arrive or the stream ends.
package linebuf

import "bytes"

// Buffer is a byte accumulator for one output stream. Bytes are appended
// at the tail and leave only as complete lines from the head.
type Buffer struct {
	data    []byte
	retired bool
}

// Append adds raw bytes to the tail of the buffer.
func (b *Buffer) Append(p []byte) {
	if b.retired || len(p) == 0 {
		return
	}
	b.data = append(b.data, p...)
}

// ExtractLines removes every complete newline-terminated line from the
// head of the buffer and returns them in order, newlines stripped. Any
// remainder without a trailing newline stays buffered for the next call.
func (b *Buffer) ExtractLines() []string {
	var lines []string
	for {
		idx := bytes.IndexByte(b.data, '\n')
		if idx < 0 {
			break
		}
		lines = append(lines, string(b.data[:idx]))
		b.data = b.data[idx+1:]
	}
	if len(b.data) == 0 {
		b.data = nil
	}
	return lines
}

// FlushRemainder drains whatever is left in the buffer after the stream
// has ended. Any embedded newlines still split lines; a final piece with
// no terminator is returned as-is. The buffer is retired afterwards and
// ignores further appends.
func (b *Buffer) FlushRemainder() []string {
	lines := b.ExtractLines()
	if len(b.data) > 0 {
		lines = append(lines, string(b.data))
		b.data = nil
	}
	b.retired = true
	return lines
}

// Remainder returns a copy of the buffered bytes that do not yet form a
// complete line. Used for diagnostics only.
func (b *Buffer) Remainder() []byte {
	return append([]byte(nil), b.data...)
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}
