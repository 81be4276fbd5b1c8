/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/humaidq/labranges/logging"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embedMigrations embed.FS

// Driver names a supported storage backend.
type Driver string

// Supported drivers.
const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// ParseDriver validates a driver name.
func ParseDriver(name string) (Driver, error) {
	switch Driver(name) {
	case DriverPostgres, DriverSQLite:
		return Driver(name), nil
	case "":
		return DriverPostgres, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, name)
}

// Migrations returns the embedded migration files of a driver, rooted at the
// migration directory.
func Migrations(driver Driver) (fs.FS, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
		return fs.Sub(embedMigrations, "migrations/"+string(driver))
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
}

func gooseDialect(driver Driver) (goose.Dialect, error) {
	switch driver {
	case DriverPostgres:
		return goose.DialectPostgres, nil
	case DriverSQLite:
		return goose.DialectSQLite3, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
}

// OpenSQL opens a database/sql handle for driver, as used by the migration
// commands.
func OpenSQL(ctx context.Context, driver Driver, databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, ErrDatabaseURLRequired
	}

	var name string
	switch driver {
	case DriverPostgres:
		name = "pgx"
	case DriverSQLite:
		name = "sqlite"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	sqlDB, err := sql.Open(name, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqlDB, nil
}

// NewMigrator returns a goose provider for the embedded migrations of driver.
func NewMigrator(driver Driver, sqlDB *sql.DB) (*goose.Provider, error) {
	dialect, err := gooseDialect(driver)
	if err != nil {
		return nil, err
	}

	fsys, err := Migrations(driver)
	if err != nil {
		return nil, err
	}

	provider, err := goose.NewProvider(dialect, sqlDB, fsys,
		goose.WithLogger(logging.StdLogger(logging.SourceDB)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	return provider, nil
}

// syncSchema applies every pending migration.
func syncSchema(ctx context.Context, driver Driver, sqlDB *sql.DB) error {
	provider, err := NewMigrator(driver, sqlDB)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	for _, res := range results {
		logger.Info("Applied migration", "version", res.Source.Version, "duration", res.Duration)
	}

	return nil
}

// requiredColumns lists the tables and columns the engine reads and writes.
var requiredColumns = map[string][]string{
	"lab_parameters": {"id", "analysis", "category", "name"},
	"reference_ranges": {
		"id", "parameter_id", "sex", "age_min", "age_max", "unit", "method",
		"lower_bound", "upper_bound", "text_value", "origin", "created_at",
	},
}

// checkColumns compares the columns found per table against requiredColumns.
func checkColumns(found func(table string) (map[string]bool, error)) error {
	for _, table := range []string{"lab_parameters", "reference_ranges"} {
		columns, err := found(table)
		if err != nil {
			return fmt.Errorf("failed to inspect table %s: %w", table, err)
		}

		if len(columns) == 0 {
			return fmt.Errorf("%w: table %s is missing", ErrSchemaMismatch, table)
		}

		for _, column := range requiredColumns[table] {
			if !columns[column] {
				return fmt.Errorf("%w: column %s.%s is missing", ErrSchemaMismatch, table, column)
			}
		}
	}

	return nil
}

// LegacyTable is the older single-table range store. It is optional.
const LegacyTable = "legacy_reference_ranges"

// markLegacyQuery fills text on legacy rows with neither bounds nor text.
// param is the driver's placeholder for the text argument.
func markLegacyQuery(param string) string {
	return `
	UPDATE legacy_reference_ranges
	SET text_value = ` + param + `
	WHERE COALESCE(TRIM(lower_bound), '') = ''
	  AND COALESCE(TRIM(upper_bound), '') = ''
	  AND COALESCE(TRIM(text_value), '') = ''
`
}
