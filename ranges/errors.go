/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ranges

import "errors"

var (
	// ErrStoreRequired is returned when Repair is called without a store.
	ErrStoreRequired = errors.New("repair store is required")

	errDryRun = errors.New("dry run, rolling back")
)
