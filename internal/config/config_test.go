package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"outsift/internal/rules"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_JSON(t *testing.T) {
	path := writeConfig(t, "outsift.json", `{
		"ignore_substrings": ["WARN", "DEBUG"],
		"ignore_lines": ["exact noise"],
		"ignore_regexps": ["^trace:"],
		"snippets": ["s/secret/*****/"],
		"tick_ms": 150,
		"log_format": "tagged"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"WARN", "DEBUG"}, cfg.IgnoreSubstrings)
	require.Equal(t, 150, cfg.TickMs)
	require.Equal(t, "tagged", cfg.LogFormat)

	var filters rules.FilterSet
	var snippets rules.SnippetList
	require.NoError(t, cfg.ApplyRules(&filters, &snippets))
	require.Equal(t, 4, filters.Len())
	require.True(t, filters.ShouldDrop("a WARN b"))
	require.True(t, filters.ShouldDrop("exact noise"))
	require.True(t, filters.ShouldDrop("trace: enter"))
	require.Equal(t, "***** stuff", snippets.Apply("secret stuff"))
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "outsift.yaml", "ignore_substrings:\n  - noisy\ntick_ms: 500\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"noisy"}, cfg.IgnoreSubstrings)
	require.Equal(t, 500, cfg.TickMs)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestApplyRules_BadRegexFailsSetup(t *testing.T) {
	cfg := &Config{IgnoreRegexps: []string{"(unclosed"}}
	require.Error(t, cfg.ApplyRules(&rules.FilterSet{}, &rules.SnippetList{}))
}

func TestApplyRules_MalformedSnippetFailsSetup(t *testing.T) {
	cfg := &Config{Snippets: []string{"s/broken"}}
	require.Error(t, cfg.ApplyRules(&rules.FilterSet{}, &rules.SnippetList{}))
}
