// Package config loads the optional outsift config file. The file
// supplies initial rule lists and option defaults; command-line flags
// override the scalar options and extend the rule lists.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"outsift/internal/rules"
)

// Config mirrors the config file layout. JSON and YAML are both
// accepted; the extension decides the parser.
type Config struct {
	IgnoreLines      []string `mapstructure:"ignore_lines"`
	IgnoreSubstrings []string `mapstructure:"ignore_substrings"`
	IgnoreRegexps    []string `mapstructure:"ignore_regexps"`
	Snippets         []string `mapstructure:"snippets"` // s/<search>/<replace>/ forms
	TickMs           int      `mapstructure:"tick_ms"`
	Log              string   `mapstructure:"log"`
	LogFormat        string   `mapstructure:"log_format"`
	Follow           string   `mapstructure:"follow"`
}

// Load reads and decodes the file at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyRules installs the configured rules into the given collections.
// A bad regex or malformed snippet is a setup failure, not a warning:
// the operator should not discover a dead rule mid-session.
func (c *Config) ApplyRules(filters *rules.FilterSet, snippets *rules.SnippetList) error {
	for _, text := range c.IgnoreLines {
		filters.AddExact(text)
	}
	for _, text := range c.IgnoreSubstrings {
		filters.AddSubstring(text)
	}
	for _, pattern := range c.IgnoreRegexps {
		if err := filters.AddRegex(pattern); err != nil {
			return err
		}
	}
	for _, arg := range c.Snippets {
		s, err := rules.ParseSnippet(arg)
		if err != nil {
			return err
		}
		snippets.Add(s)
	}
	return nil
}
