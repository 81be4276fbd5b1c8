/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ranges

import (
	"github.com/google/uuid"
)

// Sex represents the biological-sex bucket a reference range applies to.
type Sex string

// Sex values. Unisex ranges apply regardless of sex.
const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
	SexUnisex Sex = "Unisex"
)

// Origin records who wrote a reference range row.
type Origin string

// Origin values. Rows inserted by the repair pipeline are never "authored".
const (
	OriginAuthored    Origin = "authored"
	OriginGapFill     Origin = "gap_fill"
	OriginPlaceholder Origin = "placeholder"
)

// Age domain covered by every partition, in years.
const (
	DomainMin = 0.0
	DomainMax = 120.0
)

// DefaultPlaceholderText marks a qualitative range that still needs an
// operator to supply its text.
const DefaultPlaceholderText = "(Texto libre)"

// Domain is the full age interval every partition must cover.
var Domain = Interval{Start: DomainMin, End: DomainMax}

// Parameter is a lab test parameter from the catalog.
type Parameter struct {
	ID       string `db:"id" json:"id"`
	Analysis string `db:"analysis" json:"analysis"`
	Category string `db:"category" json:"category"`
	Name     string `db:"name" json:"name"`
}

// RawRange is a reference_ranges row exactly as operators stored it. Ages and
// bounds are free text; only Normalize interprets them.
type RawRange struct {
	ID          uuid.UUID `db:"id"`
	ParameterID string    `db:"parameter_id"`
	Sex         *string   `db:"sex"`
	AgeMin      *string   `db:"age_min"`
	AgeMax      *string   `db:"age_max"`
	Unit        *string   `db:"unit"`
	Method      *string   `db:"method"`
	Lower       *string   `db:"lower_bound"`
	Upper       *string   `db:"upper_bound"`
	TextValue   *string   `db:"text_value"`
	Origin      string    `db:"origin"`
}

// Range is a normalized reference range. A nil age means the stored value was
// unreadable and the range takes no part in interval arithmetic.
type Range struct {
	ID          uuid.UUID
	ParameterID string
	Sex         Sex
	AgeMin      *float64
	AgeMax      *float64
	Unit        string
	Method      string
	Lower       *float64
	Upper       *float64
	Text        *string
	Origin      Origin

	// Order is the position of the row in the stable (created_at, id) order
	// and breaks ties between ranges with identical domains.
	Order int
}

// Span returns the half-open age interval of the range. ok is false when
// either age is unreadable.
func (r Range) Span() (Interval, bool) {
	if r.AgeMin == nil || r.AgeMax == nil {
		return Interval{}, false
	}

	return Interval{Start: *r.AgeMin, End: *r.AgeMax}, true
}

// Numeric reports whether the range has both numeric bounds.
func (r Range) Numeric() bool {
	return r.Lower != nil && r.Upper != nil
}

// HasValue reports whether the range carries numeric bounds or text.
func (r Range) HasValue() bool {
	return r.Lower != nil || r.Upper != nil || r.Text != nil
}

// TextKey returns the text value, or "" when there is none.
func (r Range) TextKey() string {
	if r.Text == nil {
		return ""
	}

	return *r.Text
}

// Partition is the sex-agnostic grouping key. Ranges in different
// partitions never interact.
type Partition struct {
	ParameterID string
	Unit        string
	Method      string
}

// FinePartition narrows Partition by sex and text value.
type FinePartition struct {
	Partition
	Sex  Sex
	Text string
}

// Partition returns the sex-agnostic partition of the range.
func (r Range) Partition() Partition {
	return Partition{ParameterID: r.ParameterID, Unit: r.Unit, Method: r.Method}
}

// FinePartition returns the (parameter, sex, unit, method, text) partition.
func (r Range) FinePartition() FinePartition {
	return FinePartition{Partition: r.Partition(), Sex: r.Sex, Text: r.TextKey()}
}

// sexPartition groups numeric ranges for the frontier sweep over each sex
// bucket of a partition.
type sexPartition struct {
	Partition
	Sex Sex
}

func (r Range) sexPartition() sexPartition {
	return sexPartition{Partition: r.Partition(), Sex: r.Sex}
}

// Reason explains why the pipeline deleted a range.
type Reason string

// Deletion reasons, one per redundancy rule.
const (
	ReasonValueEqualSex    Reason = "value_equal_sex"
	ReasonUnisexSuperseded Reason = "unisex_superseded"
	ReasonWide             Reason = "wide_range"
	ReasonTiled            Reason = "tiled_range"
	ReasonPrefixExhausted  Reason = "prefix_exhausted"
	ReasonSubsumed         Reason = "subsumed"
)

// Deletion is a range the pipeline removes.
type Deletion struct {
	Range  Range
	Reason Reason
}

// Truncation moves the start of a range forward.
type Truncation struct {
	Range  Range
	AgeMin float64
}

func ptr(f float64) *float64 {
	return &f
}
