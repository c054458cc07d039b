package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderToHTML_HelpStructure(t *testing.T) {
	src := "# outsift\n\nCommands:\n\n- `stats` show counters\n- `quit` terminate\n"
	out := RenderToHTML(src)

	require.Contains(t, out, "<h1")
	require.Contains(t, out, "<ul>")
	require.Contains(t, out, "<code>stats</code>")
}

func TestRenderToHTML_CodeBlock(t *testing.T) {
	out := RenderToHTML("```\nsnippet s/foo/bar/\n```")

	require.Contains(t, out, "<pre>")
	require.Contains(t, out, "snippet s/foo/bar/")
}

func TestRenderToHTML_StripsScripts(t *testing.T) {
	out := RenderToHTML("hello <script>alert(1)</script> world")

	require.NotContains(t, out, "<script")
	require.Contains(t, out, "hello")
}

func TestRenderToHTML_BlocksJavascriptLinks(t *testing.T) {
	out := RenderToHTML("[click](javascript:alert(1))")
	require.NotContains(t, out, "javascript:")
}

func TestRenderToHTML_Empty(t *testing.T) {
	require.Empty(t, RenderToHTML(""))
}
