/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ranges

// FillGaps returns the ranges to insert so that every (parameter, unit,
// method) partition of rs covers the whole age domain. Coverage counts every
// range with readable ages; donors are numeric ranges covering at least one
// age.
//
// A gap borrows bounds from the nearest donor: the range ending at or before
// the gap start with the greatest age_max, else the range starting at or
// after the gap start with the smallest age_min. A left donor always wins
// over a right one regardless of distance. Remaining ties go to the wider
// left donor or the narrower right donor, then to the earlier row.
//
// When Male and Female numeric ranges carry different values the partition
// is sex-aware and each gap gets one range per sex, each searching its own
// sex first and then any sex. Otherwise one Unisex range is inserted,
// preferring a Unisex donor. Without any donor the gap gets a Unisex text
// placeholder.
func FillGaps(rs []Range, placeholder string) []Range {
	keys, groups := groupBy(rs, func(r Range) (Partition, bool) {
		return r.Partition(), true
	})

	var inserts []Range
	for _, key := range keys {
		inserts = append(inserts, fillPartition(key, groups[key], placeholder)...)
	}

	return inserts
}

func fillPartition(key Partition, part []Range, placeholder string) []Range {
	var (
		covered []Interval
		donors  []Range
	)

	for _, r := range part {
		span, ok := r.Span()
		if !ok {
			continue
		}
		covered = append(covered, span)
		if r.Numeric() && !span.Empty() {
			donors = append(donors, r)
		}
	}

	sexes := []Sex{SexUnisex}
	if sexAware(donors) {
		sexes = []Sex{SexMale, SexFemale}
	}

	var inserts []Range
	for _, gap := range Gaps(Merge(covered), Domain) {
		filled := false
		for _, sex := range sexes {
			donor, ok := nearestDonor(donors, gap, sex)
			if !ok {
				continue
			}
			inserts = append(inserts, synthesize(key, gap, sex, donor))
			filled = true
		}

		if !filled {
			inserts = append(inserts, placeholderRange(key, gap, placeholder))
		}
	}

	return inserts
}

type bounds struct {
	lower, upper float64
}

// sexAware reports whether both Male and Female numeric ranges exist and
// their sets of (lower, upper) values differ.
func sexAware(donors []Range) bool {
	values := map[Sex]map[bounds]bool{
		SexMale:   {},
		SexFemale: {},
	}

	for _, r := range donors {
		if set, ok := values[r.Sex]; ok {
			set[bounds{*r.Lower, *r.Upper}] = true
		}
	}

	male, female := values[SexMale], values[SexFemale]
	if len(male) == 0 || len(female) == 0 {
		return false
	}

	if len(male) != len(female) {
		return true
	}

	for b := range male {
		if !female[b] {
			return true
		}
	}

	return false
}

// nearestDonor searches donors of the preferred sex first, then donors of
// any sex.
func nearestDonor(donors []Range, gap Interval, prefer Sex) (Range, bool) {
	if d, ok := nearest(donors, gap, func(r Range) bool { return r.Sex == prefer }); ok {
		return d, true
	}

	return nearest(donors, gap, func(Range) bool { return true })
}

func nearest(donors []Range, gap Interval, eligible func(Range) bool) (Range, bool) {
	var (
		left, right       Range
		hasLeft, hasRight bool
	)

	for _, r := range donors {
		if !eligible(r) {
			continue
		}

		span, _ := r.Span()
		switch {
		case span.End <= gap.Start:
			if !hasLeft || betterLeft(span, r.Order, left) {
				left, hasLeft = r, true
			}
		case span.Start >= gap.Start:
			if !hasRight || betterRight(span, r.Order, right) {
				right, hasRight = r, true
			}
		}
	}

	if hasLeft {
		return left, true
	}

	return right, hasRight
}

func betterLeft(span Interval, order int, cur Range) bool {
	c, _ := cur.Span()
	if span.End != c.End {
		return span.End > c.End
	}
	if span.Start != c.Start {
		return span.Start < c.Start
	}
	return order < cur.Order
}

func betterRight(span Interval, order int, cur Range) bool {
	c, _ := cur.Span()
	if span.Start != c.Start {
		return span.Start < c.Start
	}
	if span.End != c.End {
		return span.End < c.End
	}
	return order < cur.Order
}

func synthesize(key Partition, gap Interval, sex Sex, donor Range) Range {
	return Range{
		ParameterID: key.ParameterID,
		Sex:         sex,
		AgeMin:      ptr(gap.Start),
		AgeMax:      ptr(gap.End),
		Unit:        key.Unit,
		Method:      key.Method,
		Lower:       ptr(*donor.Lower),
		Upper:       ptr(*donor.Upper),
		Origin:      OriginGapFill,
		Order:       -1,
	}
}

func placeholderRange(key Partition, gap Interval, text string) Range {
	return Range{
		ParameterID: key.ParameterID,
		Sex:         SexUnisex,
		AgeMin:      ptr(gap.Start),
		AgeMax:      ptr(gap.End),
		Unit:        key.Unit,
		Method:      key.Method,
		Text:        &text,
		Origin:      OriginPlaceholder,
		Order:       -1,
	}
}
