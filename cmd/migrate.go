/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	"github.com/urfave/cli/v3"

	"github.com/humaidq/labranges/db"
)

// NewMigrateCommand returns the migrate command and its subcommands.
func NewMigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Database migration commands",
		Flags: databaseFlags(),
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Run all pending migrations",
				Action: migrateUp,
			},
			{
				Name:   "down",
				Usage:  "Roll back the last migration",
				Action: migrateDown,
			},
			{
				Name:   "status",
				Usage:  "Show migration status",
				Action: migrateStatus,
			},
			{
				Name:   "create",
				Usage:  "Create a new migration file <name> for the selected driver",
				Action: migrateCreate,
			},
			{
				Name:   "version",
				Usage:  "Print the current version of the database",
				Action: migrateVersion,
			},
		},
	}
}

// getMigrator opens a database/sql handle for goose. Closing the provider
// closes the handle.
func getMigrator(ctx context.Context, cmd *cli.Command) (*goose.Provider, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	driver, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		return nil, err
	}

	if err := db.EnsureDatabase(ctx, driver, cfg.DatabaseURL); err != nil {
		return nil, err
	}

	sqlDB, err := db.OpenSQL(ctx, driver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	provider, err := db.NewMigrator(driver, sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return provider, nil
}

func closeMigrator(provider *goose.Provider) {
	if err := provider.Close(); err != nil {
		appLogger.Warn("Failed to close migration database", "error", err)
	}
}

func migrateUp(ctx context.Context, cmd *cli.Command) error {
	provider, err := getMigrator(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(provider)

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	for _, res := range results {
		fmt.Fprintln(cmd.Root().Writer, res)
	}

	fmt.Fprintln(cmd.Root().Writer, "Migrations completed successfully")
	return nil
}

func migrateDown(ctx context.Context, cmd *cli.Command) error {
	provider, err := getMigrator(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(provider)

	res, err := provider.Down(ctx)
	if errors.Is(err, goose.ErrNoNextVersion) {
		fmt.Fprintln(cmd.Root().Writer, "No migration to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	fmt.Fprintln(cmd.Root().Writer, res)
	fmt.Fprintln(cmd.Root().Writer, "Migration rolled back successfully")
	return nil
}

func migrateStatus(ctx context.Context, cmd *cli.Command) error {
	provider, err := getMigrator(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(provider)

	statuses, err := provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	for _, s := range statuses {
		applied := "Pending"
		if s.State == goose.StateApplied {
			applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(cmd.Root().Writer, "%-20s %s\n", applied, filepath.Base(s.Source.Path))
	}

	return nil
}

func migrateVersion(ctx context.Context, cmd *cli.Command) error {
	provider, err := getMigrator(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(provider)

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get database version: %w", err)
	}

	fmt.Fprintf(cmd.Root().Writer, "Database version: %d\n", version)
	return nil
}

func migrateCreate(_ context.Context, cmd *cli.Command) error {
	args := cmd.Args()
	if args.Len() < 1 {
		return errMigrationNameRequired
	}
	name := args.First()

	driver, err := db.ParseDriver(cmd.String("driver"))
	if err != nil {
		return err
	}

	// Writes to the source tree, not the embedded copy.
	migrationsDir := filepath.Join("db", "migrations", string(driver))
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create migrations directory: %w", err)
	}

	goose.SetSequential(true)
	if err := goose.Create(nil, migrationsDir, name, "sql"); err != nil {
		return fmt.Errorf("failed to create migration: %w", err)
	}

	fmt.Fprintf(cmd.Root().Writer, "Created new migration in %s/\n", migrationsDir)
	return nil
}
