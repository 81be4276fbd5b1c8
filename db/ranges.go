/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/humaidq/labranges/ranges"
)

const listRangesQuery = `
	SELECT id, parameter_id, sex, age_min, age_max, unit, method,
	       lower_bound, upper_bound, text_value, origin
	FROM reference_ranges
	ORDER BY created_at, id
`

const listParametersQuery = `
	SELECT id, analysis, category, name
	FROM lab_parameters
	ORDER BY analysis, category, name, id
`

// rowScanner is satisfied by pgx.Rows and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRawRange(row rowScanner) (ranges.RawRange, error) {
	var r ranges.RawRange

	err := row.Scan(&r.ID, &r.ParameterID, &r.Sex, &r.AgeMin, &r.AgeMax, &r.Unit, &r.Method,
		&r.Lower, &r.Upper, &r.TextValue, &r.Origin)
	if err != nil {
		return ranges.RawRange{}, fmt.Errorf("failed to scan range: %w", err)
	}

	return r, nil
}

// encodeRange renders an engine-built range in the stored text form. Empty
// unit and method are stored as NULL.
func encodeRange(r ranges.Range) ranges.RawRange {
	sex := string(r.Sex)

	row := ranges.RawRange{
		ID:          r.ID,
		ParameterID: r.ParameterID,
		Sex:         &sex,
		Unit:        nullable(r.Unit),
		Method:      nullable(r.Method),
		TextValue:   r.Text,
		Origin:      originOrDefault(string(r.Origin)),
	}

	row.AgeMin = formatOptional(r.AgeMin)
	row.AgeMax = formatOptional(r.AgeMax)
	row.Lower = formatOptional(r.Lower)
	row.Upper = formatOptional(r.Upper)

	return row
}

func formatOptional(f *float64) *string {
	if f == nil {
		return nil
	}

	s := ranges.FormatNumber(*f)

	return &s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func originOrDefault(origin string) string {
	if origin == "" {
		return string(ranges.OriginAuthored)
	}

	return origin
}

// newRowID keeps a caller-provided id and otherwise generates a time-ordered
// one, so that rows inserted later sort later.
func newRowID(id uuid.UUID) (uuid.UUID, error) {
	if id != uuid.Nil {
		return id, nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to generate range id: %w", err)
	}

	return id, nil
}
