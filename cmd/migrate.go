package cmd

import (
	"fmt"
	"strconv"

	"github.com/vibast-solutions/ms-go-jobtracker/migrations"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		migrator, err := newMigratorForCommands()
		if err != nil {
			return err
		}
		defer migrator.Close()

		if err := migrator.Up(); err != nil {
			return err
		}
		return printVersion(migrator)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (one step by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid number of steps %q", args[0])
			}
			steps = n
		}

		migrator, err := newMigratorForCommands()
		if err != nil {
			return err
		}
		defer migrator.Close()

		if err := migrator.Down(steps); err != nil {
			return err
		}
		return printVersion(migrator)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		migrator, err := newMigratorForCommands()
		if err != nil {
			return err
		}
		defer migrator.Close()

		return printVersion(migrator)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

func newMigratorForCommands() (*migrations.Migrator, error) {
	cfg, err := loadCommandConfig()
	if err != nil {
		return nil, err
	}
	return migrations.Open(cfg.DSN())
}

// applyMigrations brings the schema up to date and releases the migration
// connection before returning.
func applyMigrations(dsn string) error {
	migrator, err := migrations.Open(dsn)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Up()
}

func printVersion(migrator *migrations.Migrator) error {
	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	fmt.Printf("version: %d\n", version)
	fmt.Printf("dirty: %t\n", dirty)
	return nil
}
