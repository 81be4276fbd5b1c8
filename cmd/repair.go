/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/labranges/ranges"
)

// NewRepairCommand returns the repair command.
func NewRepairCommand() *cli.Command {
	return &cli.Command{
		Name:  "repair",
		Usage: "Normalize, deduplicate and complete reference ranges in one transaction",
		Flags: append(databaseFlags(),
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "compute and report every change, then roll back",
			},
			&cli.StringFlag{
				Name:    "placeholder",
				Sources: cli.EnvVars("PLACEHOLDER_TEXT"),
				Usage:   "text written to ranges that still need a value",
			},
		),
		Action: repair,
	}
}

func repair(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.IsSet("placeholder") {
		cfg.PlaceholderText = cmd.String("placeholder")
	}

	store, err := openCheckedStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := ranges.Repair(ctx, store, ranges.Options{
		Placeholder: cfg.PlaceholderText,
		DryRun:      cmd.Bool("dry-run"),
	})
	if err != nil {
		return fmt.Errorf("repair failed: %w", err)
	}

	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")

	return enc.Encode(summary)
}
