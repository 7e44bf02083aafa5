package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wmiq"
	"github.com/roach88/wmiq/variant"
)

// SelectOptions holds flags for the select command.
type SelectOptions struct {
	*RootOptions
	Fields []string
	Where  []string // name=value
	DryRun bool
}

// NewSelectCommand creates the select command.
func NewSelectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SelectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "select <class>",
		Short: "Build and run a query for a class",
		Long: `Build a WQL query from a class, its fields and equality filters, then
run it.

Filter values are typed from their text: true and false are booleans,
decimal integers are numbers and anything else is a quoted string.

Examples:
  wmiq select Win32_Process --field Name --field ProcessId --where ParentProcessId=4
  wmiq select Win32_LogicalDisk --where DeviceID=C: --dry-run`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Fields, "field", "f", nil, "field to fetch (repeatable, default *)")
	cmd.Flags().StringArrayVarP(&opts.Where, "where", "w", nil, "equality filter name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the query without running it")

	return cmd
}

func runSelect(cmd *cobra.Command, opts *SelectOptions, class string) error {
	filters, err := parseFilters(opts.Where)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid filter", err)
	}
	fields := opts.Fields
	if len(fields) == 0 {
		fields = []string{"*"}
	}
	text := wmiq.BuildQuery(class, fields, filters)

	out := newFormatter(cmd, opts.RootOptions)
	if opts.DryRun {
		return out.Success(QueryOutput{Query: text}, func(w io.Writer) {
			fmt.Fprintln(w, text)
		})
	}

	src, err := opts.openSource(cmd.Context())
	if err != nil {
		return err
	}
	defer src.Close()

	rows, err := wmiq.RawQuery[variant.Object](src.conn, text)
	if err != nil {
		return queryFailure(out, err)
	}
	opts.logger().Info("query completed", "query", text, "rows", len(rows))
	return printRows(out, text, rows)
}

// parseFilters turns name=value arguments into typed filter values. A name
// given twice keeps the last value.
func parseFilters(args []string) (map[string]wmiq.FilterValue, error) {
	filters := make(map[string]wmiq.FilterValue, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("filter %q: want name=value", arg)
		}
		filters[name] = wmiq.ParseFilterValue(value)
	}
	return filters, nil
}
