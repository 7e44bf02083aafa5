package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/wmiq/internal/snapshot"
)

// SnapshotOptions holds flags shared by the snapshot subcommands.
type SnapshotOptions struct {
	*RootOptions

	// IDs overrides the snapshot ID generator (for testing).
	IDs snapshot.IDGenerator
	// Now overrides the clock (for testing).
	Now func() time.Time
}

func (o *SnapshotOptions) ids() snapshot.IDGenerator {
	if o.IDs == nil {
		return snapshot.UUIDv7Generator{}
	}
	return o.IDs
}

func (o *SnapshotOptions) now() time.Time {
	if o.Now == nil {
		return time.Now().UTC()
	}
	return o.Now()
}

// SnapshotSummary describes a stored snapshot.
type SnapshotSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Host      string `json:"host,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ClassSummary describes one class of a snapshot.
type ClassSummary struct {
	Name       string   `json:"name"`
	Properties []string `json:"properties"`
	Instances  int      `json:"instances"`
}

func summarize(snap snapshot.Snapshot) SnapshotSummary {
	return SnapshotSummary{
		ID:        snap.ID,
		Name:      snap.Name,
		Host:      snap.Host,
		Namespace: snap.Namespace,
		CreatedAt: snap.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewSnapshotCommand creates the snapshot command group.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage recorded snapshots",
		Long: `Record, import and inspect snapshots.

A snapshot is a set of class instances stored in the database named by
--db. Queries against a snapshot behave as they would against the live
service the snapshot was taken from.`,
	}

	cmd.AddCommand(newSnapshotImportCommand(opts))
	cmd.AddCommand(newSnapshotListCommand(opts))
	cmd.AddCommand(newSnapshotShowCommand(opts))
	cmd.AddCommand(newSnapshotCaptureCommand(opts))

	return cmd
}

func newSnapshotImportCommand(opts *SnapshotOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import <fixture>",
		Short: "Import a YAML or CUE fixture as a snapshot",
		Long: `Import a fixture file (.yaml, .yml or .cue) into the database,
creating the database when it does not exist.

Examples:
  wmiq snapshot import --db inventory.db testdata/inventory.yaml
  wmiq snapshot import --db inventory.db --name baseline inventory.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := snapshot.LoadFixture(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load fixture", err)
			}
			if name != "" {
				fx.Snapshot = name
			}

			if opts.Database == "" {
				return NewExitError(ExitCommandError, "database path is required (--db)")
			}
			st, err := snapshot.Open(opts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer st.Close()

			snap, err := snapshot.Import(cmd.Context(), st, fx, opts.ids(), opts.now())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to import fixture", err)
			}
			opts.logger().Info("snapshot imported", "snapshot", snap.Name, "id", snap.ID, "classes", len(fx.Classes))

			return newFormatter(cmd, opts.RootOptions).Success(summarize(snap), func(w io.Writer) {
				fmt.Fprintf(w, "Imported snapshot %s (%s)\n", snap.Name, snap.ID)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "snapshot name (default: the fixture's)")

	return cmd
}

func newSnapshotListCommand(opts *SnapshotOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List snapshots, oldest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(opts.Database)
			if err != nil {
				return err
			}
			defer st.Close()

			snaps, err := st.Snapshots(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list snapshots", err)
			}

			summaries := make([]SnapshotSummary, len(snaps))
			for i, snap := range snaps {
				summaries[i] = summarize(snap)
			}
			return newFormatter(cmd, opts.RootOptions).Success(summaries, func(w io.Writer) {
				if len(summaries) == 0 {
					fmt.Fprintln(w, "No snapshots found.")
					return
				}
				for _, s := range summaries {
					fmt.Fprintf(w, "%s  %s  %s\n", s.ID, s.CreatedAt, s.Name)
				}
			})
		},
	}
}

func newSnapshotShowCommand(opts *SnapshotOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [snapshot]",
		Short: "Show the classes of a snapshot",
		Long: `Show the classes of a snapshot with their properties and instance
counts. Without an argument the snapshot selected by --snapshot is shown,
or the most recent one.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := opts.Snapshot
			if len(args) == 1 {
				ref = args[0]
			}

			st, err := openStore(opts.Database)
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := st.FindSnapshot(cmd.Context(), ref)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to select snapshot", err)
			}
			classes, err := st.Classes(cmd.Context(), snap.ID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read classes", err)
			}

			summaries := make([]ClassSummary, len(classes))
			for i, c := range classes {
				summaries[i] = ClassSummary{Name: c.Name, Properties: c.Properties, Instances: c.Instances}
			}
			data := struct {
				Snapshot SnapshotSummary `json:"snapshot"`
				Classes  []ClassSummary  `json:"classes"`
			}{summarize(snap), summaries}

			return newFormatter(cmd, opts.RootOptions).Success(data, func(w io.Writer) {
				fmt.Fprintf(w, "Snapshot %s (%s)\n", snap.Name, snap.ID)
				for _, c := range summaries {
					fmt.Fprintf(w, "  %s: %d instance(s) [%s]\n", c.Name, c.Instances, strings.Join(c.Properties, ", "))
				}
			})
		},
	}
}

func newSnapshotCaptureCommand(opts *SnapshotOptions) *cobra.Command {
	var (
		name     string
		classes  []string
		from     string
		parallel int
		perSec   float64
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Record classes into a new snapshot",
		Long: `Query every given class with "SELECT * FROM <class>" and store the
results as a new snapshot in --db.

The classes are read from the live service with --live, or from a
snapshot of another database with --from (the --snapshot flag selects
which one).

Examples:
  wmiq snapshot capture --live --db inventory.db --class Win32_Process --class Win32_Service
  wmiq snapshot capture --from old.db --db new.db --class Win32_Process --name copy`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(classes) == 0 {
				return NewExitError(ExitCommandError, "at least one --class is required")
			}
			if from == "" && !opts.Live {
				return NewExitError(ExitCommandError, "a source is required: --live or --from <db>")
			}
			if from != "" && opts.Live {
				return NewExitError(ExitCommandError, "--live and --from are mutually exclusive")
			}
			if opts.Database == "" {
				return NewExitError(ExitCommandError, "database path is required (--db)")
			}
			capRate := opts.Config.Rate
			if cmd.Flags().Changed("rate") {
				capRate = perSec
			}
			if capRate < 0 {
				return NewExitError(ExitCommandError, "--rate must not be negative")
			}

			var (
				src *source
				err error
			)
			if opts.Live {
				src, err = openLive(opts.RootOptions)
			} else {
				src, err = openSnapshotSource(cmd.Context(), opts.RootOptions, from, opts.Snapshot)
			}
			if err != nil {
				return err
			}
			defer src.Close()

			st, err := snapshot.Open(opts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open database", err)
			}
			defer st.Close()

			limit := opts.Config.Parallel
			if cmd.Flags().Changed("parallel") {
				limit = parallel
			}
			if name == "" {
				name = "capture-" + opts.now().Format("20060102T150405Z")
			}

			snap, err := snapshot.Capture(cmd.Context(), src.conn, st, snapshot.CaptureOptions{
				Name:      name,
				Host:      src.host,
				Namespace: src.namespace,
				Classes:   classes,
				Limit:     limit,
				Rate:      capRate,
				IDs:       opts.ids(),
				At:        opts.now(),
				Logger:    opts.logger(),
			})
			if err != nil {
				return WrapExitError(ExitFailure, "capture failed", err)
			}

			return newFormatter(cmd, opts.RootOptions).Success(summarize(snap), func(w io.Writer) {
				fmt.Fprintf(w, "Captured %d class(es) into snapshot %s (%s)\n", len(classes), snap.Name, snap.ID)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "snapshot name (default: capture-<timestamp>)")
	cmd.Flags().StringArrayVarP(&classes, "class", "c", nil, "class to capture (repeatable)")
	cmd.Flags().StringVar(&from, "from", "", "snapshot database to copy from")
	cmd.Flags().IntVar(&parallel, "parallel", 1, "classes queried at once")
	cmd.Flags().Float64Var(&perSec, "rate", 0, "class queries started per second (0: unlimited)")

	return cmd
}
