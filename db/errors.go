/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import "errors"

var (
	// ErrDatabaseConnectionNotInitialized is returned by store methods
	// called before Open or after Close.
	ErrDatabaseConnectionNotInitialized = errors.New("database connection not initialized")
	ErrDatabaseURLRequired              = errors.New("database url is required")
	ErrDatabaseNameNotSpecified         = errors.New("database name not specified in connection URL")
	// ErrSchemaMismatch means a required table or column is missing.
	ErrSchemaMismatch    = errors.New("database schema mismatch")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
