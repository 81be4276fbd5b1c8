/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/labranges/db"
)

// NewSeedCommand returns the seed command.
func NewSeedCommand() *cli.Command {
	return &cli.Command{
		Name:   "seed",
		Usage:  "Migrate the database and load a demo catalog with inconsistent ranges",
		Flags:  databaseFlags(),
		Action: seed,
	}
}

func seed(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := openBootstrappedStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SyncSchema(ctx); err != nil {
		return err
	}

	res, err := db.Seed(ctx, store)
	if err != nil {
		return fmt.Errorf("failed to seed: %w", err)
	}

	fmt.Fprintf(cmd.Root().Writer, "Seeded %d parameters and %d ranges\n", res.Parameters, res.Ranges)

	return nil
}
