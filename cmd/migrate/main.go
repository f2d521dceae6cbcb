// Command migrate applies the SQL schema under db/migrations.
//
//	migrate up [N]       apply all (or N) pending migrations
//	migrate down [N]     roll back all (or N) migrations
//	migrate force V      set the recorded version and clear the dirty flag
//	migrate repair       clear a dirty flag at the current version
//	migrate version      print the current version
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/PortNumber53/depenados/internal/config"
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(defaultDeps()).Execute(); err != nil {
		os.Exit(1)
	}
}

type deps struct {
	loadEnv func(...string) error
	getenv  func(string) string
	openDB  func(driverName, dataSourceName string) (*sql.DB, error)
	out     io.Writer
}

func defaultDeps() deps {
	return deps{
		loadEnv: godotenv.Load,
		getenv:  os.Getenv,
		openDB:  sql.Open,
		out:     os.Stdout,
	}
}

type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Version() (version uint, dirty bool, err error)
}

// Factories are swapped in tests so no real Postgres is needed.
var withPostgresInstance = func(db *sql.DB) (migratedb.Driver, error) {
	return postgres.WithInstance(db, &postgres.Config{})
}

var newMigrateWithDB = func(sourceURL, databaseName string, driver migratedb.Driver) (migrator, error) {
	return migrate.NewWithDatabaseInstance(sourceURL, databaseName, driver)
}

func newMigrator(db *sql.DB, dir string) (migrator, error) {
	driver, err := withPostgresInstance(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := newMigrateWithDB("file://"+dir, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func newRootCmd(d deps) *cobra.Command {
	var dir string

	// withMigrator opens the database named by DATABASE_URL and hands a
	// migrator for it to fn; fn's message is printed on success.
	withMigrator := func(fn func(m migrator) (string, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			if d.loadEnv != nil {
				_ = d.loadEnv()
			}
			cfg := config.FromEnv(d.getenv)
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL environment variable is required")
			}
			if d.openDB == nil {
				return errors.New("openDB dependency is required")
			}
			db, err := d.openDB("postgres", cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			m, err := newMigrator(db, dir)
			if err != nil {
				return err
			}
			msg, err := fn(m)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		}
	}

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply or roll back database migrations",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	if d.out != nil {
		root.SetOut(d.out)
	}
	root.PersistentFlags().StringVar(&dir, "path", "db/migrations", "directory holding the migration files")

	root.AddCommand(&cobra.Command{
		Use:   "up [N]",
		Short: "Apply pending migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := stepsArg(args)
			if err != nil {
				return err
			}
			return withMigrator(func(m migrator) (string, error) { return apply(m, "up", steps) })(cmd, args)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "down [N]",
		Short: "Roll back migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := stepsArg(args)
			if err != nil {
				return err
			}
			return withMigrator(func(m migrator) (string, error) { return apply(m, "down", steps) })(cmd, args)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "force V",
		Short: "Set the migration version and clear the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 0 {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return withMigrator(func(m migrator) (string, error) {
				if err := m.Force(v); err != nil {
					return "", fmt.Errorf("failed to force version %d: %w", v, err)
				}
				return fmt.Sprintf("Forced database to version %d", v), nil
			})(cmd, args)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "repair",
		Short: "Clear a dirty flag at the current version",
		Args:  cobra.NoArgs,
		RunE:  withMigrator(repair),
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current migration version",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(m migrator) (string, error) {
			v, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				return "No migrations applied", nil
			}
			if err != nil {
				return "", fmt.Errorf("failed to read migration version: %w", err)
			}
			if dirty {
				return fmt.Sprintf("Version %d (dirty)", v), nil
			}
			return fmt.Sprintf("Version %d", v), nil
		}),
	})
	return root
}

func stepsArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid step count %q", args[0])
	}
	return n, nil
}

// apply runs direction for steps migrations; zero means all of them.
func apply(m migrator, direction string, steps int) (string, error) {
	var err error
	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return "", fmt.Errorf("invalid direction: %s (must be 'up' or 'down')", direction)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return "No migrations to apply", nil
	}
	if err != nil {
		return "", fmt.Errorf("migration failed: %w", err)
	}
	return fmt.Sprintf("Migration %s completed successfully", direction), nil
}

func repair(m migrator) (string, error) {
	v, dirty, err := m.Version()
	if err != nil {
		return "", fmt.Errorf("failed to read migration version: %w", err)
	}
	if !dirty {
		return "Database is not dirty (no force needed)", nil
	}
	if err := m.Force(int(v)); err != nil {
		return "", fmt.Errorf("failed to force dirty version %d: %w", v, err)
	}
	return fmt.Sprintf("Forced dirty database to version %d", v), nil
}
