package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"outsift/internal/config"
	"outsift/internal/follow"
	"outsift/internal/overlay"
	"outsift/internal/rules"
	"outsift/internal/sink"
	"outsift/internal/watch"
	"outsift/pkg/streamlog"
)

var (
	configPath    string
	logPath       string
	autoLog       bool
	logFormat     string
	tickBudget    time.Duration
	usePTY        bool
	pipeMode      bool
	noInteractive bool
	followAddr    string

	ignoreLines      []string
	ignoreSubstrings []string
	ignoreRegexps    []string
	snippetArgs      []string
)

const helpMarkdown = `# outsift

outsift runs a command and curates its output in real time: suppression
rules drop noisy lines, snippet rules rewrite the survivors, and any
keystroke opens a command prompt while the child keeps running.

## Interactive commands

- ` + "`stats`" + ` show suppressed/total line counts
- ` + "`pats`" + ` list active rules
- ` + "`ignore_line <text>`" + ` / ` + "`ignore_substring <text>`" + ` / ` + "`ignore_re <regex>`" + ` add suppression rules
- ` + "`snippet s/<search>/<replace>/`" + ` add a rewrite rule
- ` + "`stack`" + ` / ` + "`bufs`" + ` diagnostics
- ` + "`quit`" + ` terminate the child and exit
`

var rootCmd = &cobra.Command{
	Use:   "outsift [flags] -- command [args...]",
	Short: "Filter and rewrite a command's output in real time",
	Long: `outsift spawns a command and pumps its stdout/stderr through a
filter/rewrite pipeline, line by line and in order. While the command
runs, press any key to enter a prompt where rules can be added and
statistics inspected; an empty line resumes watching.

Without a command (or with --pipe) outsift filters standard input
instead.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, args)
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay <logfile>",
	Short: "Re-run a stream-tagged log through the filter pipeline",
	Long: `Replay parses a log written with --log-format tagged and routes
every recorded line through the current rule set, as if the original
command were running now.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay(args[0])
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Config file with initial rules and options (JSON or YAML)")
	flags.StringArrayVar(&ignoreLines, "ignore-line", nil, "Suppress lines equal to this text (repeatable)")
	flags.StringArrayVar(&ignoreSubstrings, "ignore-substring", nil, "Suppress lines containing this text (repeatable)")
	flags.StringArrayVar(&ignoreRegexps, "ignore-re", nil, "Suppress lines matching this regex (repeatable)")
	flags.StringArrayVar(&snippetArgs, "snippet", nil, "Rewrite rule s/<search>/<replace>/ (repeatable)")

	rootCmd.Flags().StringVarP(&logPath, "log", "l", "", "Mirror output to this file")
	rootCmd.Flags().BoolVar(&autoLog, "auto-log", false, "Mirror output to an auto-named timestamped file")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "text", "Log file format: text or tagged")
	rootCmd.Flags().DurationVar(&tickBudget, "tick", watch.DefaultTickBudget, "Per-tick drain budget (bounds output and keystroke latency)")
	rootCmd.Flags().BoolVar(&usePTY, "pty", false, "Run the command under a pseudo-terminal (merged output stream)")
	rootCmd.Flags().BoolVar(&pipeMode, "pipe", false, "Read lines from stdin instead of spawning a command")
	rootCmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "Disable the operator command prompt")
	rootCmd.Flags().StringVar(&followAddr, "follow", "", "Serve the curated stream to WebSocket clients on this address")

	rootCmd.AddCommand(replayCmd)
}

// buildRules assembles the initial rule sets from config file and flags,
// config entries first so flags layer on top.
func buildRules(cfg *config.Config) (*rules.FilterSet, *rules.SnippetList, error) {
	filters := &rules.FilterSet{}
	snippets := &rules.SnippetList{}

	if cfg != nil {
		if err := cfg.ApplyRules(filters, snippets); err != nil {
			return nil, nil, err
		}
	}
	for _, text := range ignoreLines {
		filters.AddExact(text)
	}
	for _, text := range ignoreSubstrings {
		filters.AddSubstring(text)
	}
	for _, pattern := range ignoreRegexps {
		if err := filters.AddRegex(pattern); err != nil {
			return nil, nil, err
		}
	}
	for _, arg := range snippetArgs {
		s, err := rules.ParseSnippet(arg)
		if err != nil {
			return nil, nil, err
		}
		snippets.Add(s)
	}
	return filters, snippets, nil
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return nil, nil
	}
	return config.Load(configPath)
}

// openLogSink resolves the log target to an open file, or nil when no
// logging was requested. The caller closes it exactly once.
func openLogSink(cmd *cobra.Command, cfg *config.Config) (*os.File, error) {
	path := logPath
	if path == "" && cfg != nil && !cmd.Flags().Changed("log") {
		path = cfg.Log
	}
	if autoLog && path == "" {
		path = fmt.Sprintf("outsift-%s.log", time.Now().Format("2006-01-02_15-04-05"))
	}
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	slog.Info("logging output", "path", path, "format", logFormat)
	return f, nil
}

func logMirror(f *os.File) (sink.Mirror, error) {
	switch logFormat {
	case "text":
		return &sink.LineWriter{W: f}, nil
	case "tagged":
		return streamlog.NewWriter(f), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or tagged)", logFormat)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	filters, snippets, err := buildRules(cfg)
	if err != nil {
		return err
	}

	if cfg != nil {
		if cfg.TickMs > 0 && !cmd.Flags().Changed("tick") {
			tickBudget = time.Duration(cfg.TickMs) * time.Millisecond
		}
		if cfg.LogFormat != "" && !cmd.Flags().Changed("log-format") {
			logFormat = cfg.LogFormat
		}
		if cfg.Follow != "" && !cmd.Flags().Changed("follow") {
			followAddr = cfg.Follow
		}
	}

	logFile, err := openLogSink(cmd, cfg)
	if err != nil {
		return err
	}
	var mirrors []sink.Mirror
	if logFile != nil {
		defer func() { _ = logFile.Close() }()
		m, err := logMirror(logFile)
		if err != nil {
			return err
		}
		mirrors = append(mirrors, m)
	}

	if followAddr != "" {
		hub := follow.NewHub()
		mirrors = append(mirrors, hub)
		go func() {
			if err := follow.Serve(followAddr, hub, helpMarkdown); err != nil {
				slog.Error("follow server stopped", "error", err)
			}
		}()
	}

	opts := watch.Options{
		Command:    args,
		PTY:        usePTY,
		Pipe:       pipeMode,
		TickBudget: tickBudget,
		Console:    os.Stdout,
		Control:    os.Stderr,
		Input:      os.Stdin,
		Filters:    filters,
		Snippets:   snippets,
		Mirrors:    mirrors,
	}
	if !noInteractive && !pipeMode && len(args) > 0 && overlay.IsTerminal(os.Stdin) {
		opts.Interactive = true
		opts.Term = overlay.NewRawMode(os.Stdin)
	}

	session := watch.New(opts)
	if err := session.Run(); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, session.Summary())
	return nil
}

func runReplay(path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	filters, snippets, err := buildRules(cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer func() { _ = f.Close() }()

	session := watch.New(watch.Options{
		Console:  os.Stdout,
		Control:  io.Discard,
		Filters:  filters,
		Snippets: snippets,
	})
	if err := session.RunReplay(streamlog.NewReader(f)); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, session.Summary())
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
