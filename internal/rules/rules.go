// Package rules holds the suppression and rewrite rules that curate the
// watched output. Rule collections are append-only and owned by a single
// control thread; the dispatcher mutates them between pump ticks and the
// pipeline only reads them.
package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// FilterSet decides which lines are suppressed. A line is dropped when it
// equals any exact rule, contains any substring rule, or matches any
// regex rule. The three categories carry equal priority.
type FilterSet struct {
	exact      []string
	substrings []string
	patterns   []*regexp.Regexp
}

// AddExact appends an exact-match suppression rule.
func (f *FilterSet) AddExact(text string) {
	f.exact = append(f.exact, text)
}

// AddSubstring appends a substring suppression rule.
func (f *FilterSet) AddSubstring(text string) {
	f.substrings = append(f.substrings, text)
}

// AddRegex compiles and appends a regex suppression rule. A pattern that
// does not compile is rejected here so matching can never fail later.
func (f *FilterSet) AddRegex(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	f.patterns = append(f.patterns, re)
	return nil
}

// ShouldDrop reports whether the line matches any active rule.
func (f *FilterSet) ShouldDrop(line string) bool {
	for _, e := range f.exact {
		if line == e {
			return true
		}
	}
	for _, s := range f.substrings {
		if strings.Contains(line, s) {
			return true
		}
	}
	for _, re := range f.patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// Describe returns one human-readable entry per rule, for the pats command.
func (f *FilterSet) Describe() []string {
	var out []string
	for _, e := range f.exact {
		out = append(out, fmt.Sprintf("line: %q", e))
	}
	for _, s := range f.substrings {
		out = append(out, fmt.Sprintf("substring: %q", s))
	}
	for _, re := range f.patterns {
		out = append(out, fmt.Sprintf("regex: %s", re.String()))
	}
	return out
}

// Len returns the total number of filter rules.
func (f *FilterSet) Len() int {
	return len(f.exact) + len(f.substrings) + len(f.patterns)
}

// Snippet is one search/replace rewrite rule. Apply replaces only the
// first occurrence of Search, matching sed's default (non-global) s///.
type Snippet struct {
	Search  string
	Replace string
}

// SnippetList applies rewrite rules in insertion order; the output of one
// rule feeds the next.
type SnippetList struct {
	snippets []Snippet
}

// Add appends a rewrite rule.
func (l *SnippetList) Add(s Snippet) {
	l.snippets = append(l.snippets, s)
}

// Apply runs every rule over the line in insertion order, each replacing
// at most the first occurrence of its search text.
func (l *SnippetList) Apply(line string) string {
	for _, s := range l.snippets {
		line = strings.Replace(line, s.Search, s.Replace, 1)
	}
	return line
}

// Describe returns one human-readable entry per rule, for the pats command.
func (l *SnippetList) Describe() []string {
	var out []string
	for _, s := range l.snippets {
		out = append(out, fmt.Sprintf("snippet: s/%s/%s/", s.Search, s.Replace))
	}
	return out
}

// Len returns the number of rewrite rules.
func (l *SnippetList) Len() int {
	return len(l.snippets)
}

// ParseSnippet parses the interactive s/<search>/<replace>/ form. The
// delimiter is a literal slash and all three separators must be present;
// anything else is rejected so a typo cannot silently install a bad rule.
func ParseSnippet(arg string) (Snippet, error) {
	usage := fmt.Errorf("malformed snippet %q: expected s/<search>/<replace>/", arg)
	rest, ok := strings.CutPrefix(arg, "s/")
	if !ok {
		return Snippet{}, usage
	}
	search, rest, ok := strings.Cut(rest, "/")
	if !ok || search == "" {
		return Snippet{}, usage
	}
	replace, rest, ok := strings.Cut(rest, "/")
	if !ok || rest != "" {
		return Snippet{}, usage
	}
	return Snippet{Search: search, Replace: replace}, nil
}
