// Package streamlog defines a simple length-prefixed format that keeps
// the origin stream and timestamp of every logged line, so stdout and
// stderr identity survives in a single log file and the file can later
// be replayed through a fresh rule set.
//
// One record per line:
//
//	stream timestamp length: content\n
//
// where length is the byte length of content and content carries no
// trailing newline of its own.
package streamlog

import (
	"fmt"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Record is a single logged line with its stream of origin.
type Record struct {
	Stream    string
	Timestamp time.Time // UTC
	Line      string
}

// Format renders a record in the on-disk format.
func Format(r Record) []byte {
	ts := r.Timestamp.UTC().Format(timestampLayout)
	out := fmt.Appendf(nil, "%s %s %d: ", r.Stream, ts, len(r.Line))
	out = append(out, r.Line...)
	return append(out, '\n')
}
