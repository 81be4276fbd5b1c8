/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import "github.com/humaidq/labranges/ranges"

// AgeRange represents the age buckets reference ranges are usually authored
// in.
type AgeRange string

// AgeRange values represent supported age groups for lab ranges.
const (
	AgePediatric AgeRange = "Pediatric" // 0-17
	AgeAdult     AgeRange = "Adult"     // 18-49
	AgeMiddleAge AgeRange = "MiddleAge" // 50-64
	AgeSenior    AgeRange = "Senior"    // 65+
)

// Bounds returns the half-open age interval of the bucket in years.
func (a AgeRange) Bounds() ranges.Interval {
	switch a {
	case AgePediatric:
		return ranges.Interval{Start: 0, End: 18}
	case AgeAdult:
		return ranges.Interval{Start: 18, End: 50}
	case AgeMiddleAge:
		return ranges.Interval{Start: 50, End: 65}
	case AgeSenior:
		return ranges.Interval{Start: 65, End: ranges.DomainMax}
	}

	return ranges.Domain
}

// LabTestCategory groups parameters into analyses.
type LabTestCategory string

// LabTestCategory values used by the demo catalog.
const (
	CategoryBloodCounts   LabTestCategory = "Blood Counts"
	CategoryLipidPanel    LabTestCategory = "Lipid Panel"
	CategoryMetabolic     LabTestCategory = "Metabolic"
	CategoryHormones      LabTestCategory = "Hormones"
	CategoryImmunology    LabTestCategory = "Immunology"
	CategoryUrinalysis    LabTestCategory = "Urinalysis"
)
