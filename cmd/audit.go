/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/labranges/audit"
)

// NewAuditCommand returns the audit command.
func NewAuditCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "Report parameters whose reference ranges leave ages uncovered",
		Flags: append(databaseFlags(),
			&cli.StringFlag{
				Name:  "format",
				Value: string(audit.FormatTable),
				Usage: "output format: json, table or html",
			},
			&cli.StringFlag{
				Name:    "delimiter",
				Sources: cli.EnvVars("AUDIT_DELIMITER"),
				Usage:   "table column delimiter",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "also list parameters without findings",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write the report to a file instead of stdout",
			},
		),
		Action: runAudit,
	}
}

func runAudit(ctx context.Context, cmd *cli.Command) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.IsSet("delimiter") {
		cfg.AuditDelimiter = cmd.String("delimiter")
	}

	format, err := audit.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	delim, err := audit.ParseDelimiter(cfg.AuditDelimiter)
	if err != nil {
		return err
	}

	patterns, err := audit.CompilePatterns(cfg.SexDependentPatterns)
	if err != nil {
		return fmt.Errorf("invalid sex-dependent pattern: %w", err)
	}

	store, err := openCheckedStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := audit.Run(ctx, store, audit.Options{
		Classifier:   audit.NewAllowlistClassifier(cfg.QualitativeAllowlist),
		SexDependent: patterns,
		IncludeOK:    cmd.Bool("all"),
	})
	if err != nil {
		return err
	}

	var out io.Writer = cmd.Root().Writer
	if path := cmd.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		out = f
	}

	return audit.Render(out, report, format, delim)
}
