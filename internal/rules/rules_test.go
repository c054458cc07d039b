package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterSet_Exact(t *testing.T) {
	var f FilterSet
	f.AddExact("drop me")

	require.True(t, f.ShouldDrop("drop me"))
	require.False(t, f.ShouldDrop("drop me not"))
	require.False(t, f.ShouldDrop(" drop me"))
}

func TestFilterSet_Substring(t *testing.T) {
	var f FilterSet
	f.AddSubstring("WARN")

	require.True(t, f.ShouldDrop("2021 WARN disk"))
	require.False(t, f.ShouldDrop("2021 INFO disk"))
}

func TestFilterSet_Regex(t *testing.T) {
	var f FilterSet
	require.NoError(t, f.AddRegex(`^\d{4}-\d{2}-\d{2} DEBUG`))

	require.True(t, f.ShouldDrop("2021-07-01 DEBUG noise"))
	require.False(t, f.ShouldDrop("DEBUG noise without date"))
}

func TestFilterSet_BadRegexRejected(t *testing.T) {
	var f FilterSet
	require.Error(t, f.AddRegex("(unclosed"))
	require.Zero(t, f.Len())
	require.False(t, f.ShouldDrop("(unclosed"))
}

func TestFilterSet_AnyCategoryFires(t *testing.T) {
	var f FilterSet
	f.AddExact("exact")
	f.AddSubstring("sub")
	require.NoError(t, f.AddRegex("re+"))

	require.True(t, f.ShouldDrop("exact"))
	require.True(t, f.ShouldDrop("xx sub yy"))
	require.True(t, f.ShouldDrop("zz reee"))
	require.False(t, f.ShouldDrop("clean"))
	require.Equal(t, 3, f.Len())
	require.Len(t, f.Describe(), 3)
}

func TestSnippetList_FirstOccurrenceOnly(t *testing.T) {
	var l SnippetList
	l.Add(Snippet{Search: "ERROR", Replace: ""})

	require.Equal(t, ": disk full ERROR", l.Apply("ERROR: disk full ERROR"))
}

func TestSnippetList_InsertionOrderChaining(t *testing.T) {
	var l SnippetList
	l.Add(Snippet{Search: "foo", Replace: "bar"})
	l.Add(Snippet{Search: "bar", Replace: "baz"})

	// First rule rewrites the first foo; second rule then sees its output.
	require.Equal(t, "baz foo", l.Apply("foo foo"))
}

func TestSnippetList_NoMatchLeavesLine(t *testing.T) {
	var l SnippetList
	l.Add(Snippet{Search: "absent", Replace: "x"})

	require.Equal(t, "hello", l.Apply("hello"))
}

func TestParseSnippet(t *testing.T) {
	s, err := ParseSnippet("s/foo/bar/")
	require.NoError(t, err)
	require.Equal(t, Snippet{Search: "foo", Replace: "bar"}, s)

	// Empty replacement is valid.
	s, err = ParseSnippet("s/ERROR//")
	require.NoError(t, err)
	require.Equal(t, Snippet{Search: "ERROR", Replace: ""}, s)
}

func TestParseSnippet_Malformed(t *testing.T) {
	for _, arg := range []string{
		"",
		"s/foo/bar",    // missing trailing delimiter
		"s/foo/",       // missing replace field
		"s//bar/",      // empty search
		"x/foo/bar/",   // wrong prefix
		"s/foo/bar/xx", // trailing junk
		"foo/bar",
	} {
		_, err := ParseSnippet(arg)
		require.Error(t, err, "arg %q", arg)
	}
}
