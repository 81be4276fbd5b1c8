/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ranges

// domainKey identifies an exact domain: same ages, unit, method and text.
type domainKey struct {
	Partition
	Text   string
	AgeMin float64
	AgeMax float64
}

// Collapse removes sex-specific duplicates made redundant by an exact-domain
// counterpart. For each exact domain holding Male, Female and Unisex ranges,
// value-equal Male and Female bounds mean the split is spurious and both go;
// otherwise the split is more informative and the Unisex range goes. Ranges
// with unreadable ages are kept untouched.
func Collapse(rs []Range) (survivors []Range, deletions []Deletion) {
	keys, groups := groupBy(rs, func(r Range) (domainKey, bool) {
		span, ok := r.Span()
		if !ok {
			return domainKey{}, false
		}
		return domainKey{Partition: r.Partition(), Text: r.TextKey(), AgeMin: span.Start, AgeMax: span.End}, true
	})

	for _, key := range keys {
		deletions = append(deletions, collapseGroup(groups[key])...)
	}

	return without(rs, deletions), deletions
}

func collapseGroup(group []Range) []Deletion {
	bySex := map[Sex][]Range{}
	for _, r := range group {
		bySex[r.Sex] = append(bySex[r.Sex], r)
	}

	male, female, unisex := bySex[SexMale], bySex[SexFemale], bySex[SexUnisex]
	if len(male) == 0 || len(female) == 0 || len(unisex) == 0 {
		return nil
	}

	var deletions []Deletion
	if sameBounds(male[0], female[0]) {
		for _, r := range append(append([]Range{}, male...), female...) {
			deletions = append(deletions, Deletion{Range: r, Reason: ReasonValueEqualSex})
		}
		return deletions
	}

	for _, r := range unisex {
		deletions = append(deletions, Deletion{Range: r, Reason: ReasonUnisexSuperseded})
	}

	return deletions
}

func sameBounds(a, b Range) bool {
	return sameValue(a.Lower, b.Lower) && sameValue(a.Upper, b.Upper)
}

func sameValue(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}

// groupBy partitions rs by key, keeping first-seen key order and input order
// inside each group. Ranges for which key reports false are skipped.
func groupBy[K comparable](rs []Range, key func(Range) (K, bool)) ([]K, map[K][]Range) {
	var keys []K
	groups := map[K][]Range{}

	for _, r := range rs {
		k, ok := key(r)
		if !ok {
			continue
		}
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], r)
	}

	return keys, groups
}

// without returns rs minus the deleted ranges, preserving order.
func without(rs []Range, deletions []Deletion) []Range {
	if len(deletions) == 0 {
		return rs
	}

	gone := make(map[int]bool, len(deletions))
	for _, d := range deletions {
		gone[d.Range.Order] = true
	}

	out := make([]Range, 0, len(rs)-len(deletions))
	for _, r := range rs {
		if !gone[r.Order] {
			out = append(out, r)
		}
	}

	return out
}
