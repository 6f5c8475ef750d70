// Package main is the schema migration tool for the impact store.
//
// Migrations are embedded in the binary, so the tool only needs DATABASE_URL to run.
package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/patthub/impact-measurement-tool/internal/config"
)

// Set at build time with -ldflags.
var (
	Version   = "1.0.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "imeto-migrate",
		Short:   "Apply the impact store schema to PostgreSQL",
		Version: fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildTime),
		Long: `Applies the embedded schema migrations to the database named by DATABASE_URL.
MIGRATION_TABLE overrides the tracking table (default schema_migrations).`,
		SilenceUsage: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withRunner(func(_ *cobra.Command, r *Runner) error {
				return r.Up()
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: withRunner(func(_ *cobra.Command, r *Runner) error {
				return r.Down()
			}),
		},
		&cobra.Command{
			Use:     "status",
			Aliases: []string{"version"},
			Short:   "Show the applied schema version",
			RunE: withRunner(func(cmd *cobra.Command, r *Runner) error {
				status, err := r.Status()
				if err != nil {
					return err
				}

				printStatus(cmd.OutOrStdout(), status)

				return nil
			}),
		},
		newDropCmd(),
	)

	return root
}

func newDropCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop all tables",
		RunE: withRunner(func(cmd *cobra.Command, r *Runner) error {
			if !yes && !confirm(cmd, "This will drop all tables. Continue? (y/N): ") {
				cmd.Println("Operation cancelled.")

				return nil
			}

			return r.Drop()
		}),
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func withRunner(run func(*cobra.Command, *Runner) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: config.GetEnvLogLevel("LOG_LEVEL", slog.LevelInfo),
		}))

		cfg, err := LoadConfig()
		if err != nil {
			return err
		}

		catalog, err := LoadCatalog(nil)
		if err != nil {
			return fmt.Errorf("embedded migrations are invalid: %w", err)
		}

		runner, err := NewRunner(cfg, catalog, logger)
		if err != nil {
			return err
		}

		defer func() {
			if err := runner.Close(); err != nil {
				logger.Warn("Failed to close migration runner", slog.String("error", err.Error()))
			}
		}()

		if err := run(cmd, runner); err != nil {
			logger.Error("Migration command failed", slog.String("command", cmd.Name()), slog.String("error", err.Error()))

			return err
		}

		return nil
	}
}

func printStatus(w io.Writer, s Status) {
	state := "clean"
	if s.Dirty {
		state = "dirty, needs manual repair"
	}

	_, _ = fmt.Fprintf(w, "Database schema: v%03d (%s)\n", s.Version, state)
	_, _ = fmt.Fprintf(w, "Migrator supports: v%03d\n", s.Latest)

	switch {
	case s.Ahead():
		_, _ = fmt.Fprintln(w, "Database is newer than this migrator; upgrade the tool before migrating")
	case s.Pending() > 0:
		_, _ = fmt.Fprintf(w, "%d migration(s) pending\n", s.Pending())
	default:
		_, _ = fmt.Fprintln(w, "Up to date")
	}
}

func confirm(cmd *cobra.Command, prompt string) bool {
	cmd.Print(prompt)

	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')

	return strings.EqualFold(strings.TrimSpace(answer), "y")
}
