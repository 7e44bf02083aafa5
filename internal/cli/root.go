package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wmiq/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string
	Snapshot   string
	LogFormat  string
	Live       bool

	// Config is the merged configuration, set before any command runs.
	Config config.Config
	// Logger writes diagnostics to stderr.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the wmiq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "wmiq",
		Short: "wmiq - typed WMI queries",
		Long: `Query WMI classes live or from recorded snapshots.

Snapshots are stored in a SQLite database and answer the same WQL a live
session does, so queries and scenarios run anywhere.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the snapshot database")
	cmd.PersistentFlags().StringVar(&opts.Snapshot, "snapshot", "", "snapshot ID or name (default: most recent)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "log format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.Live, "live", false, "query the local WMI service instead of a snapshot")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	})

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewSelectCommand(opts))
	cmd.AddCommand(NewSnapshotCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve loads the configuration and lets explicitly set flags override
// it. Unset flags take their value from the configuration.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = o.Format
	}
	if flags.Changed("db") {
		cfg.Database = o.Database
	}
	if flags.Changed("snapshot") {
		cfg.Snapshot = o.Snapshot
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.LogFormat
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}

	if !isValidFormat(cfg.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", cfg.Format, ValidFormats))
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	o.Config = cfg
	o.Format = cfg.Format
	o.Database = cfg.Database
	o.Snapshot = cfg.Snapshot
	o.LogFormat = cfg.Log.Format
	o.Logger = newLogger(cmd.ErrOrStderr(), cfg.Log)
	return nil
}

// logger returns the configured logger, or a discarding one when the
// command runs without the root (as in tests).
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
