/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import "errors"

var (
	errMigrationNameRequired = errors.New("migration name is required")
	errSchemaNotMigrated     = errors.New("run `labranges migrate up` first")
)
