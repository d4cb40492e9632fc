package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/binderlink/binderlink/internal/config"
	"github.com/binderlink/binderlink/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F"))
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F"))
	styleLabel   = lipgloss.NewStyle().Bold(true)
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// colorOutput is decided once per invocation from the output stream.
var colorOutput = false

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "binderlink",
		Short: "Build, share and serve launch links for reproducible environments",
		Long: `binderlink turns a repository reference into a build spec, a shareable
launch URL and a README badge.

It runs as a command line tool or as an HTTP service with a live form
session over WebSocket:

  binderlink link --provider gh --repo binder-examples/requirements
  binderlink form
  binderlink serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			colorOutput = isTerminal(cmd.OutOrStdout())
			if !colorOutput {
				errors.DisableColors()
			}
			logger, err := newLogger(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to "+config.ConfigFileName+" (default: ./"+config.ConfigFileName+" when present)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(
		serveCmd(opts),
		linkCmd(opts),
		specCmd(opts),
		providersCmd(opts),
		formCmd(opts),
		eventsCmd(opts),
		configCmd(opts),
		versionCmd(),
	)

	return rootCmd
}

// newLogger builds the process logger from the --log-* flags.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Newf(errors.CategoryCLI, "unknown log level %q", level)
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, errors.Newf(errors.CategoryCLI, "unknown log format %q", format)
	}
}

// loadConfig reads the configuration named by --config, or
// ./binderlink.json when present, or falls back to defaults.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case opts.configPath != "":
		cfg, err = config.LoadFile(opts.configPath)
	case config.Exists("."):
		cfg, err = config.Load(".")
	default:
		cfg = config.New()
		cfg.ApplyEnv()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func paint(s lipgloss.Style, text string) string {
	if !colorOutput {
		return text
	}
	return s.Render(text)
}

// printError prints coded errors in their long form.
func printError(w io.Writer, err error) {
	var e *errors.Error
	if stderrors.As(err, &e) {
		fmt.Fprint(w, e.Format())
		return
	}
	fmt.Fprintf(w, "%s %s\n", paint(styleError, "Error:"), err)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint(styleSuccess, "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint(styleWarn, "⚠"), fmt.Sprintf(format, args...))
}

// field prints a labelled value.
func field(w io.Writer, label, value string) {
	if value == "" {
		value = paint(styleDim, "(none)")
	}
	fmt.Fprintf(w, "%s %s\n", paint(styleLabel, label+":"), value)
}
