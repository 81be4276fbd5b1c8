// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package ranges

import (
	"testing"

	"github.com/google/uuid"
)

const testParameter = "glucose"

func numeric(order int, sex Sex, ageMin, ageMax, lower, upper float64) Range {
	return Range{
		ID:          uuid.New(),
		ParameterID: testParameter,
		Sex:         sex,
		AgeMin:      ptr(ageMin),
		AgeMax:      ptr(ageMax),
		Unit:        "mg/dL",
		Lower:       ptr(lower),
		Upper:       ptr(upper),
		Origin:      OriginAuthored,
		Order:       order,
	}
}

func textual(order int, sex Sex, ageMin, ageMax float64, text string) Range {
	return Range{
		ID:          uuid.New(),
		ParameterID: testParameter,
		Sex:         sex,
		AgeMin:      ptr(ageMin),
		AgeMax:      ptr(ageMax),
		Unit:        "mg/dL",
		Text:        &text,
		Origin:      OriginAuthored,
		Order:       order,
	}
}

func orders(rs []Range) []int {
	out := make([]int, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Order)
	}
	return out
}

func spans(rs []Range) []Interval {
	out := make([]Interval, 0, len(rs))
	for _, r := range rs {
		span, _ := r.Span()
		out = append(out, span)
	}
	return out
}

func assertFloatPtr(t *testing.T, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("expected %v, got nil", want)
	}
	if *got != want {
		t.Fatalf("expected %v, got %v", want, *got)
	}
}
