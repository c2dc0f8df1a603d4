package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sqlterm/sqlterm/internal/db"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Execute SQL against the configured server",
		Long: `Execute SQL against the configured SQL Server connection.

Results can be rendered as a table, JSON, CSV, or Markdown for scripting
and integration. When invoked without arguments on a terminal, enters
interactive REPL mode.`,
		Example: `  # Execute SQL directly
  sqlterm query "SELECT TOP 10 * FROM dbo.Orders"

  # Output as JSON
  sqlterm query "SELECT name FROM sys.tables" --format json

  # Read SQL from a file
  sqlterm query --input report.sql

  # Interactive mode
  sqlterm query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQueryDatabasesCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand())
	cmd.AddCommand(newQueryBatchCommand(opts))

	return cmd
}

// connect opens the configured connection for one command invocation.
func connect(cmd *cobra.Command) (*db.Conn, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return db.Connect(cmd.Context(), cfg.Connection, newLogger(cfg))
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !term.IsTerminal(int(os.Stdin.Fd())):
		// Read from stdin (piped input)
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, opts)
	}

	conn, err := connect(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	return executeAndRender(cmd.Context(), cmd.OutOrStdout(), conn, sqlQuery, opts.Format)
}

func executeAndRender(ctx context.Context, w io.Writer, conn *db.Conn, sqlQuery, format string) error {
	result, err := db.Execute(ctx, conn, sqlQuery)
	if err != nil {
		return err
	}
	return renderResult(w, result, format)
}

// newQueryTablesCommand creates the tables subcommand.
func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables and views in the current database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := connect(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()
			return listObjects(cmd, conn, opts.Format)
		},
	}
}

// newQueryDatabasesCommand creates the databases subcommand.
func newQueryDatabasesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "databases",
		Short: "List databases on the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := connect(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			databases, err := db.Databases(cmd.Context(), conn)
			if err != nil {
				return err
			}
			for _, name := range databases {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// newQuerySchemaCommand creates the schema subcommand.
func newQuerySchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <schema.table>",
		Short: "Show the DDL for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			schema, tableName := splitObjectName(args[0])
			ddl, err := db.TableDDL(cmd.Context(), conn, schema, tableName)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), ddl)
			return nil
		},
	}
}

// newQueryBatchCommand creates the batch subcommand: sequential execution
// of semicolon-separated statements from a file, fail-fast.
func newQueryBatchCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <file>",
		Short: "Run semicolon-separated statements from a file sequentially",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}

			var queries []string
			for _, stmt := range strings.Split(string(content), ";") {
				if s := strings.TrimSpace(stmt); s != "" {
					queries = append(queries, s)
				}
			}
			if len(queries) == 0 {
				return fmt.Errorf("no statements found in %s", args[0])
			}

			conn, err := connect(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			results, err := db.ExecuteBatch(cmd.Context(), conn, queries)
			if err != nil {
				return err
			}
			for i, result := range results {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "-- statement %d\n", i+1)
				if err := renderResult(cmd.OutOrStdout(), result, opts.Format); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func listObjects(cmd *cobra.Command, conn *db.Conn, format string) error {
	ctx := cmd.Context()

	tables, err := db.Tables(ctx, conn, "")
	if err != nil {
		return err
	}
	views, err := db.Views(ctx, conn, "")
	if err != nil {
		return err
	}

	result := &db.QueryResult{
		Columns: []db.ColumnInfo{
			db.NewColumnInfo("schema", "NVARCHAR"),
			db.NewColumnInfo("name", "NVARCHAR"),
			db.NewColumnInfo("type", "NVARCHAR"),
		},
	}
	for _, obj := range append(tables, views...) {
		result.Rows = append(result.Rows, []db.Value{
			db.TextValue(obj.Schema),
			db.TextValue(obj.Name),
			db.TextValue(obj.Type.String()),
		})
	}
	result.RowCount = len(result.Rows)

	return renderResult(cmd.OutOrStdout(), result, format)
}

// splitObjectName splits "schema.table" into parts, defaulting the schema
// to dbo.
func splitObjectName(name string) (string, string) {
	clean := strings.NewReplacer("[", "", "]", "").Replace(name)
	if parts := strings.SplitN(clean, ".", 2); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "dbo", clean
}
