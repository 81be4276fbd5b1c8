/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import "github.com/urfave/cli/v3"

// NewApp returns the labranges root command. Every call builds a fresh
// command tree, so parsed flag values never carry over between runs.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:  "labranges",
		Usage: "Reconcile and audit laboratory reference ranges",
		Commands: []*cli.Command{
			NewRepairCommand(),
			NewAuditCommand(),
			NewMigrateCommand(),
			NewSeedCommand(),
		},
	}
}
