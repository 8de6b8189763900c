package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"nullsafe/internal/config"
	"nullsafe/internal/database"
	"nullsafe/internal/database/queries"
	"nullsafe/internal/logging"
	"nullsafe/internal/query"
	"nullsafe/internal/scenario"
	"nullsafe/internal/version"
)

func main() {
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "nullsafe-check",
		Short: "Compare null-safe and standard SQL equality against a seeded users table",
		Long: `nullsafe-check seeds a users table, runs nine queries built with
WhereNullSafe and OrWhereNullSafe and prints the rows or generated SQL.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log, os.Stderr)
			if err != nil {
				return err
			}
			logger = logger.With("run_id", uuid.New().String())
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, cfg.Run.Timeout)
			defer cancel()

			return run(ctx, cfg, out, logger)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().String("driver", "sqlite3", "database driver (sqlite3, mysql, postgres)")
	rootCmd.Flags().Bool("setup", true, "create the database and seed the users table before running")
	rootCmd.Flags().Bool("teardown", false, "drop the users table after running")
	rootCmd.Flags().Bool("verify", false, "compare results with the expected rows and fail on mismatch")

	rootCmd.AddCommand(newSQLCmd(out))
	return rootCmd
}

func newSQLCmd(out io.Writer) *cobra.Command {
	var dialectName, table string

	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the SQL of every check without connecting to a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := query.DialectFor(dialectName)
			if err != nil {
				return err
			}
			return scenario.PrintSQL(out, d, table, scenario.Default())
		},
	}
	cmd.Flags().StringVar(&dialectName, "dialect", "mysql", "SQL dialect (mysql, postgres, sqlite3)")
	cmd.Flags().StringVar(&table, "table", "users", "table name")
	return cmd
}

// run connects, optionally seeds, runs the checks and always closes the
// connection before returning
func run(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) (err error) {
	logger.Info("starting run", "driver", cfg.Database.Driver, "table", cfg.Database.Table, "version", version.String())

	if cfg.Run.Setup {
		if err := database.EnsureDatabase(ctx, cfg.Database); err != nil {
			return err
		}
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Warn("failed to close database", "error", cerr)
		}
		logger.Info("database connection closed")
	}()

	users := queries.NewUserQueries(db, cfg.Database.Table)
	if cfg.Run.Setup {
		if err := users.Setup(ctx); err != nil {
			return fmt.Errorf("failed to set up fixtures: %w", err)
		}
	}
	if cfg.Run.Teardown {
		defer func() {
			if terr := users.Teardown(context.WithoutCancel(ctx)); terr != nil && err == nil {
				err = terr
			}
		}()
	}

	runner := scenario.NewRunner(db, users.Table(), out, cfg.Run.Verify).WithLogger(logger)
	if err := runner.Run(ctx); err != nil {
		return err
	}

	logger.Info("run completed", "verified", cfg.Run.Verify)
	return nil
}
