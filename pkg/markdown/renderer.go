// Package markdown renders markdown to sanitized HTML. outsift uses it
// for the follow server's index page, which embeds the command help.
package markdown

import (
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

// RenderToHTML converts markdown to HTML and strips anything unsafe, so
// help text can be served to a browser without escaping concerns.
func RenderToHTML(src string) string {
	unsafe := blackfriday.Run(
		[]byte(src),
		blackfriday.WithExtensions(
			blackfriday.CommonExtensions|blackfriday.AutoHeadingIDs,
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre", "span")
	policy.AllowAttrs("id").Matching(bluemonday.SpaceSeparatedTokens).OnElements("h1", "h2", "h3", "h4", "h5", "h6")

	return string(policy.SanitizeBytes(unsafe))
}
