package watch

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"outsift/internal/rules"
	"outsift/pkg/streamlog"
)

func newSession(t *testing.T, opts Options) (*Session, *bytes.Buffer) {
	t.Helper()
	var console bytes.Buffer
	if opts.Filters == nil {
		opts.Filters = &rules.FilterSet{}
	}
	if opts.Snippets == nil {
		opts.Snippets = &rules.SnippetList{}
	}
	opts.Console = &console
	if opts.Control == nil {
		opts.Control = &bytes.Buffer{}
	}
	return New(opts), &console
}

func TestPipeMode_FilterAndRewrite(t *testing.T) {
	filters := &rules.FilterSet{}
	filters.AddSubstring("WARN")
	snippets := &rules.SnippetList{}
	snippets.Add(rules.Snippet{Search: "ERROR", Replace: "E"})

	s, console := newSession(t, Options{
		Input:    strings.NewReader("2021 WARN disk\n2021 INFO disk\nERROR: disk full ERROR\n"),
		Filters:  filters,
		Snippets: snippets,
	})

	require.NoError(t, s.Run())
	require.Equal(t, "2021 INFO disk\nE: disk full ERROR\n", console.String())

	c := s.Counters()
	require.EqualValues(t, 3, c.Total)
	require.EqualValues(t, 1, c.Suppressed)
	require.EqualValues(t, 2, c.Written)
	require.Equal(t, "Suppressed 1/3 lines.", s.Summary())
}

func TestPipeMode_CountersInvariant(t *testing.T) {
	filters := &rules.FilterSet{}
	filters.AddExact("drop")

	s, _ := newSession(t, Options{
		Input:   strings.NewReader("drop\nkeep\ndrop\nkeep\nkeep\n"),
		Filters: filters,
	})

	require.NoError(t, s.Run())
	c := s.Counters()
	require.Equal(t, c.Total, c.Suppressed+c.Written)
}

func TestPipeMode_UnterminatedFinalLine(t *testing.T) {
	s, console := newSession(t, Options{
		Input: strings.NewReader("one\ntail"),
	})

	require.NoError(t, s.Run())
	require.Equal(t, "one\ntail\n", console.String())
}

func TestWatchMode_ChildOutputFiltered(t *testing.T) {
	filters := &rules.FilterSet{}
	filters.AddSubstring("noise")

	s, console := newSession(t, Options{
		Command:    []string{"sh", "-c", "echo keep; echo noise line; echo also keep"},
		TickBudget: 50 * time.Millisecond,
		Filters:    filters,
	})

	require.NoError(t, s.Run())
	require.Equal(t, "keep\nalso keep\n", console.String())
	require.EqualValues(t, 3, s.Counters().Total)
	require.EqualValues(t, 1, s.Counters().Suppressed)
}

func TestWatchMode_ChildExitCode(t *testing.T) {
	s, _ := newSession(t, Options{
		Command:    []string{"sh", "-c", "exit 7"},
		TickBudget: 50 * time.Millisecond,
	})

	require.NoError(t, s.Run())
	require.Equal(t, 7, s.ChildExitCode())
}

func TestWatchMode_FinalFlush(t *testing.T) {
	s, console := newSession(t, Options{
		Command:    []string{"sh", "-c", "printf 'no newline at end'"},
		TickBudget: 50 * time.Millisecond,
	})

	require.NoError(t, s.Run())
	require.Equal(t, "no newline at end\n", console.String())
}

func TestWatchMode_SpawnFailure(t *testing.T) {
	s, _ := newSession(t, Options{
		Command:    []string{"/nonexistent/binary-xyz"},
		TickBudget: 50 * time.Millisecond,
	})

	require.Error(t, s.Run())
}

func TestReplay_ReFiltersRecordedLog(t *testing.T) {
	var logBuf bytes.Buffer
	w := streamlog.NewWriter(&logBuf)
	w.MirrorLine("stdout", "keep this")
	w.MirrorLine("stderr", "WARN skip this")
	w.MirrorLine("stdout", "and this")

	filters := &rules.FilterSet{}
	filters.AddSubstring("WARN")
	s, console := newSession(t, Options{Filters: filters})

	require.NoError(t, s.RunReplay(streamlog.NewReader(&logBuf)))
	require.Equal(t, "keep this\nand this\n", console.String())
	require.EqualValues(t, 1, s.Counters().Suppressed)
}
