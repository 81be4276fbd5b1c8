/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package audit

import "errors"

var (
	// ErrSourceRequired is returned when Run is called without a source.
	ErrSourceRequired = errors.New("audit source is required")

	// ErrUnknownFormat is returned for an unsupported report format.
	ErrUnknownFormat = errors.New("unknown report format")

	// ErrInvalidDelimiter is returned when the table delimiter is not a
	// single character.
	ErrInvalidDelimiter = errors.New("delimiter must be a single character")
)
