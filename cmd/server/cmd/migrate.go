package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/Togather-Foundation/eventdesk/internal/storage/postgres"
	"github.com/spf13/cobra"
)

var (
	migrateDatabaseURL string
	migrationsPath     string
	migrateDownSteps   int
)

func newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		Long: `Apply, roll back or inspect database migrations.

The database URL comes from --database-url or DATABASE_URL. Migrations are
compiled into the binary unless --path points at a directory of .sql files.`,
	}
	migrateCmd.PersistentFlags().StringVar(&migrateDatabaseURL, "database-url", "", "PostgreSQL connection URL (default: $DATABASE_URL)")
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "migrations directory (default: embedded)")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL, err := resolveDatabaseURL()
			if err != nil {
				return err
			}
			if err := postgres.MigrateUp(dbURL, migrationsPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if migrateDownSteps < 1 {
				return fmt.Errorf("--steps must be at least 1 (got %d)", migrateDownSteps)
			}
			dbURL, err := resolveDatabaseURL()
			if err != nil {
				return err
			}
			if err := postgres.MigrateDown(dbURL, migrationsPath, migrateDownSteps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", migrateDownSteps)
			return nil
		},
	}
	down.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL, err := resolveDatabaseURL()
			if err != nil {
				return err
			}
			v, dirty, err := postgres.MigrationVersion(dbURL, migrationsPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case v == 0:
				fmt.Fprintln(out, "no migrations applied")
			case dirty:
				fmt.Fprintf(out, "version %d (dirty)\n", v)
			default:
				fmt.Fprintf(out, "version %d\n", v)
			}
			return nil
		},
	}

	migrateCmd.AddCommand(up, down, version)
	return migrateCmd
}

// resolveDatabaseURL does not go through loadConfig so migrations can run
// without the server secrets.
func resolveDatabaseURL() (string, error) {
	if err := loadEnvFile(envFile); err != nil {
		return "", err
	}
	if migrateDatabaseURL != "" {
		return migrateDatabaseURL, nil
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v, nil
	}
	return "", errors.New("DATABASE_URL is required (set it or pass --database-url)")
}
