package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/sqlterm/sqlterm/internal/db"
	"github.com/sqlterm/sqlterm/internal/history"
)

func runQueryREPL(cmd *cobra.Command, opts *QueryOptions) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	conn, err := db.Connect(ctx, cfg.Connection, newLogger(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	histPath := cfg.History.Path
	if histPath == "" {
		histPath = history.DefaultPath()
	}
	hist := history.New(cfg.History.MaxEntries, histPath)

	completer := newObjectCompleter(ctx, conn)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sqlterm> ",
		HistoryFile:     filepath.Join(filepath.Dir(histPath), "repl_history"),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	version, err := conn.ServerVersion(ctx)
	if err != nil {
		version = "SQL Server"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s (database: %s)\n", version, conn.Database())
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	var multiLineBuffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt("sqlterm> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(ctx, cmd, conn, hist, line, opts.Format); quit {
				break
			}
			continue
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString(" ")
			rl.SetPrompt("    ...> ")
			continue
		}
		rl.SetPrompt("sqlterm> ")

		query := strings.TrimSuffix(multiLineBuffer.String(), ";")
		multiLineBuffer.Reset()

		result, err := db.Execute(ctx, conn, query)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			continue
		}

		rowCount := result.RowCount
		hist.Add(query, result.ExecutionTime.Milliseconds(), &rowCount, conn.Database())

		if err := renderResult(cmd.OutOrStdout(), result, opts.Format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

// handleDotCommand runs a REPL dot-command and reports whether the
// operator asked to quit.
func handleDotCommand(ctx context.Context, cmd *cobra.Command, conn *db.Conn, hist *history.Store, line, format string) (quit bool) {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(cmd.OutOrStdout())
		return false

	case ".tables":
		if err := listObjects(cmd, conn, format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return false

	case ".databases":
		databases, err := db.Databases(ctx, conn)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false
		}
		for _, name := range databases {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return false

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .schema <schema.table>")
			return false
		}
		schema, tableName := splitObjectName(parts[1])
		ddl, err := db.TableDDL(ctx, conn, schema, tableName)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), ddl)
		return false

	case ".schemas":
		schemas, err := db.Schemas(ctx, conn)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false
		}
		for _, name := range schemas {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return false

	case ".search":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .search <term>")
			return false
		}
		objects, err := db.SearchObjects(ctx, conn, strings.Join(parts[1:], " "))
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false
		}
		for _, obj := range objects {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s.%s\n", obj.Type, obj.Schema, obj.Name)
		}
		return false

	case ".count":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .count <schema.table>")
			return false
		}
		schema, tableName := splitObjectName(parts[1])
		count, err := db.TableRowCount(ctx, conn, schema, tableName)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "~%d rows\n", count)
		return false

	case ".reconnect":
		if err := conn.Reconnect(ctx); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false
		}
		if err := conn.TestConnection(ctx); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Reconnected")
		return false

	case ".history":
		entries := hist.Entries()
		if len(parts) > 1 {
			entries = hist.Search(strings.Join(parts[1:], " "))
		}
		for _, e := range entries {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n",
				e.Timestamp.Format("2006-01-02 15:04:05"), e.Query)
		}
		return false

	case ".clear":
		fmt.Print("\033[H\033[2J")
		return false

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
		return false
	}
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help            Show this help message
  .tables          List tables and views
  .databases       List databases on the server
  .schemas         List schemas in the current database
  .schema <name>   Show DDL for a table
  .search <term>   Find objects by name
  .count <name>    Approximate row count for a table
  .history [term]  Show query history, optionally filtered
  .reconnect       Drop and re-establish the connection
  .clear           Clear the screen
  .quit / .exit    Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// newObjectCompleter creates a readline completer over table and view
// names. Lookup failures leave completion empty.
func newObjectCompleter(ctx context.Context, conn *db.Conn) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface

	tables, err := db.Tables(ctx, conn, "")
	if err == nil {
		for _, t := range tables {
			items = append(items, readline.PcItem(t.Schema+"."+t.Name))
		}
	}
	views, err := db.Views(ctx, conn, "")
	if err == nil {
		for _, v := range views {
			items = append(items, readline.PcItem(v.Schema+"."+v.Name))
		}
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".databases"),
		readline.PcItem(".schemas"),
		readline.PcItem(".schema"),
		readline.PcItem(".search"),
		readline.PcItem(".count"),
		readline.PcItem(".history"),
		readline.PcItem(".reconnect"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
