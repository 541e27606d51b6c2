package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// migrationsDir maps a driver to its directory inside the embedded migrations.
func migrationsDir(driver string) (string, error) {
	switch driver {
	case DriverPostgres:
		return "migrations/postgresql", nil
	case DriverMySQL:
		return "migrations/mysql", nil
	case DriverSQLite:
		return "migrations/sqlite", nil
	default:
		return "", fmt.Errorf("unsupported migration driver: %s", driver)
	}
}

// migrationURL builds the golang-migrate database URL for a connection string.
// PostgreSQL connection strings must already be URLs.
func migrationURL(driver, connectionString string) string {
	switch driver {
	case DriverMySQL:
		return "mysql://" + connectionString
	case DriverSQLite:
		return "sqlite://" + connectionString
	default:
		return connectionString
	}
}

// newMigrate opens a dedicated migrate instance. It uses its own connection so closing it
// never closes a pool shared with the repositories.
func newMigrate(driver, connectionString string) (*migrate.Migrate, error) {
	dir, err := migrationsDir(driver)
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrationURL(driver, connectionString))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, nil
}

func closeMigrate(m *migrate.Migrate, err error) error {
	sourceErr, dbErr := m.Close()
	return errors.Join(err, sourceErr, dbErr)
}

// Migrate applies every pending migration for the driver. No pending migration is not an error.
func Migrate(driver, connectionString string) error {
	m, err := newMigrate(driver, connectionString)
	if err != nil {
		return err
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		err = nil
	}
	if err != nil {
		err = fmt.Errorf("failed to run migrations: %w", err)
	}

	return closeMigrate(m, err)
}

// MigrateDown reverts every applied migration for the driver.
func MigrateDown(driver, connectionString string) error {
	m, err := newMigrate(driver, connectionString)
	if err != nil {
		return err
	}

	err = m.Down()
	if errors.Is(err, migrate.ErrNoChange) {
		err = nil
	}
	if err != nil {
		err = fmt.Errorf("failed to revert migrations: %w", err)
	}

	return closeMigrate(m, err)
}
