package linebuf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractLines_ChunkedFeed(t *testing.T) {
	var buf Buffer

	buf.Append([]byte("ab"))
	require.Empty(t, buf.ExtractLines())

	buf.Append([]byte("c\nde"))
	require.Equal(t, []string{"abc"}, buf.ExtractLines())

	buf.Append([]byte("f\n"))
	require.Equal(t, []string{"def"}, buf.ExtractLines())
	require.Zero(t, buf.Len())
}

func TestExtractLines_MultipleLinesInOneChunk(t *testing.T) {
	var buf Buffer
	buf.Append([]byte("one\ntwo\nthree\npartial"))

	require.Equal(t, []string{"one", "two", "three"}, buf.ExtractLines())
	require.Equal(t, []byte("partial"), buf.Remainder())
}

func TestExtractLines_EmptyLines(t *testing.T) {
	var buf Buffer
	buf.Append([]byte("\n\nx\n"))

	require.Equal(t, []string{"", "", "x"}, buf.ExtractLines())
}

func TestFlushRemainder_UnterminatedTail(t *testing.T) {
	var buf Buffer
	buf.Append([]byte("tail"))

	require.Equal(t, []string{"tail"}, buf.FlushRemainder())
	require.Zero(t, buf.Len())
}

func TestFlushRemainder_MixedTail(t *testing.T) {
	var buf Buffer
	buf.Append([]byte("done\nnot done"))

	require.Equal(t, []string{"done", "not done"}, buf.FlushRemainder())
}

func TestFlushRemainder_Empty(t *testing.T) {
	var buf Buffer
	require.Empty(t, buf.FlushRemainder())
}

func TestFlushRemainder_RetiresBuffer(t *testing.T) {
	var buf Buffer
	buf.Append([]byte("x"))
	buf.FlushRemainder()

	// A retired buffer ignores further appends.
	buf.Append([]byte("late\n"))
	require.Empty(t, buf.ExtractLines())
	require.Zero(t, buf.Len())
}
