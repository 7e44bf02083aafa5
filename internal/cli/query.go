package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wmiq"
	"github.com/roach88/wmiq/variant"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Names bool // list property names instead of values
}

// QueryOutput is the payload of a successful query.
type QueryOutput struct {
	Query string            `json:"query"`
	Count int               `json:"count"`
	Rows  []*variant.Object `json:"rows,omitempty"`
	Names [][]string        `json:"names,omitempty"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <wql>",
		Short: "Run a WQL query",
		Long: `Run a WQL query and print every result as an ordered property map.

Exit codes:
  0 - Query succeeded
  1 - The provider rejected the query or a result could not be decoded
  2 - Command error (database not found, etc.)

Examples:
  wmiq query --db inventory.db "SELECT Name, ProcessId FROM Win32_Process"
  wmiq query --db inventory.db --names "SELECT * FROM Win32_OperatingSystem"
  wmiq query --live --format json "SELECT * FROM Win32_LogicalDisk"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Names, "names", false, "print property names of each result instead of values")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions, text string) error {
	src, err := opts.openSource(cmd.Context())
	if err != nil {
		return err
	}
	defer src.Close()

	out := newFormatter(cmd, opts.RootOptions)
	if opts.Names {
		names, err := propertyNames(src.conn, text)
		if err != nil {
			return queryFailure(out, err)
		}
		return out.Success(QueryOutput{Query: text, Count: len(names), Names: names}, func(w io.Writer) {
			for _, row := range names {
				fmt.Fprintln(w, strings.Join(row, ", "))
			}
			fmt.Fprintf(w, "%d result(s)\n", len(names))
		})
	}

	rows, err := wmiq.RawQuery[variant.Object](src.conn, text)
	if err != nil {
		return queryFailure(out, err)
	}
	opts.logger().Info("query completed", "query", text, "rows", len(rows))
	return printRows(out, text, rows)
}

// propertyNames lists the property names of every result of text.
func propertyNames(conn *wmiq.Connection, text string) ([][]string, error) {
	e, err := conn.ExecQueryNativeWrapper(text)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	out := make([][]string, 0)
	for obj, err := range e.All() {
		if err != nil {
			return nil, err
		}
		names, err := obj.PropertyNames()
		if err != nil {
			return nil, err
		}
		out = append(out, names)
	}
	return out, nil
}

// printRows prints one JSON object per row, properties in provider order.
func printRows(out *OutputFormatter, text string, rows []variant.Object) error {
	ptrs := make([]*variant.Object, len(rows))
	for i := range rows {
		ptrs[i] = &rows[i]
	}

	lines := make([]string, len(ptrs))
	for i, row := range ptrs {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to render row %d: %w", i, err)
		}
		lines[i] = string(data)
	}

	return out.Success(QueryOutput{Query: text, Count: len(ptrs), Rows: ptrs}, func(w io.Writer) {
		for _, line := range lines {
			fmt.Fprintln(w, line)
		}
		fmt.Fprintf(w, "%d row(s)\n", len(lines))
	})
}
