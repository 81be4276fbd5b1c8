/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ranges

import (
	"sort"
	"strings"
)

// Interval is a half-open age interval [Start, End).
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Empty reports whether the interval contains no ages.
func (i Interval) Empty() bool {
	return i.Start >= i.End
}

// Contains reports whether o lies entirely inside i.
func (i Interval) Contains(o Interval) bool {
	return i.Start <= o.Start && o.End <= i.End
}

// Overlaps reports whether the two intervals share at least one age.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

// String renders the interval as "start–end".
func (i Interval) String() string {
	return FormatNumber(i.Start) + "–" + FormatNumber(i.End)
}

// Merge returns the union of the intervals as a sorted list of disjoint
// intervals. Touching intervals such as [0,10) and [10,20) are joined.
func Merge(intervals []Interval) []Interval {
	sorted := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if !iv.Empty() {
			sorted = append(sorted, iv)
		}
	}

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	var merged []Interval
	for _, iv := range sorted {
		if n := len(merged); n > 0 && iv.Start <= merged[n-1].End {
			if iv.End > merged[n-1].End {
				merged[n-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}

	return merged
}

// Gaps returns the parts of domain not covered by merged, which must be the
// output of Merge.
func Gaps(merged []Interval, domain Interval) []Interval {
	var gaps []Interval

	cursor := domain.Start
	for _, iv := range merged {
		if iv.End <= cursor {
			continue
		}
		if iv.Start >= domain.End {
			break
		}
		if iv.Start > cursor {
			gaps = append(gaps, Interval{Start: cursor, End: iv.Start})
		}
		cursor = iv.End
	}

	if cursor < domain.End {
		gaps = append(gaps, Interval{Start: cursor, End: domain.End})
	}

	return gaps
}

// FormatIntervals renders intervals as "0–18, 25–120".
func FormatIntervals(intervals []Interval) string {
	parts := make([]string, 0, len(intervals))
	for _, iv := range intervals {
		parts = append(parts, iv.String())
	}

	return strings.Join(parts, ", ")
}
