// Package cli provides the command-line interface for sqlterm.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlterm/sqlterm/internal/config"
	"github.com/sqlterm/sqlterm/internal/tui"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sqlterm",
		Short: "sqlterm - interactive SQL Server terminal client",
		Long: `sqlterm is an interactive terminal client for SQL Server.

Run it without arguments to open the full-screen UI with a query editor,
results browser, schema explorer, and query history. Use the query
subcommand for one-shot execution or a line-based REPL.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), cfg, newLogger(cfg))
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default sqlterm.yaml)")
	flags.String("connection.host", "", "server host")
	flags.Int("connection.port", 0, "server port")
	flags.String("connection.user", "", "login user")
	flags.String("connection.password", "", "login password")
	flags.String("connection.database", "", "database name")
	flags.Bool("verbose", false, "enable debug logging")

	rootCmd.AddCommand(NewQueryCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// loadConfig resolves configuration from defaults, file, environment, and
// the command's persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cfgFile, cmd.Root().PersistentFlags())
}

// newLogger returns a debug logger on stderr when verbose is set,
// otherwise a discard logger.
func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.Verbose {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
