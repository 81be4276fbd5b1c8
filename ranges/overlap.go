/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ranges

import (
	"math"
	"sort"
)

// Resolution is the outcome of resolving overlaps in a set of ranges.
// Survivors carry their updated ages; Truncations list the original ranges
// whose start moved.
type Resolution struct {
	Survivors   []Range
	Deletions   []Deletion
	Truncations []Truncation
}

// then runs step on the survivors of res and accumulates its changes.
func (res Resolution) then(step func([]Range) Resolution) Resolution {
	next := step(res.Survivors)

	return Resolution{
		Survivors:   next.Survivors,
		Deletions:   append(append([]Deletion{}, res.Deletions...), next.Deletions...),
		Truncations: append(append([]Truncation{}, res.Truncations...), next.Truncations...),
	}
}

// Resolve removes ambiguous overlap from rs. Coarse elimination runs first on
// each (parameter, sex, unit, method, text) partition so that narrow ranges
// are not truncated away by the catch-all range they refine. Sweep A then
// clears overlap between numeric ranges of each sex bucket of a (parameter,
// unit, method) partition, and Sweep B repeats the sweep over the fine
// partitions, which also covers text-only ranges. Truncations in the result
// are relative to rs.
func Resolve(rs []Range) Resolution {
	res := Resolution{Survivors: rs}

	res = res.then(func(rs []Range) Resolution {
		return perPartition(rs, fineKey, EliminateCoarse)
	})
	res = res.then(func(rs []Range) Resolution {
		return perPartition(rs, numericSexKey, Sweep)
	})
	res = res.then(func(rs []Range) Resolution {
		return perPartition(rs, fineKey, Sweep)
	})

	res.Truncations = truncationsAgainst(rs, res.Survivors)

	return res
}

func fineKey(r Range) (FinePartition, bool) {
	if _, ok := r.Span(); !ok {
		return FinePartition{}, false
	}
	return r.FinePartition(), true
}

func numericSexKey(r Range) (sexPartition, bool) {
	if _, ok := r.Span(); !ok || !r.Numeric() {
		return sexPartition{}, false
	}
	return r.sexPartition(), true
}

// perPartition applies fn to each partition of rs and stitches the results
// back together in input order. Ranges outside every partition pass through.
func perPartition[K comparable](rs []Range, key func(Range) (K, bool), fn func([]Range) Resolution) Resolution {
	keys, groups := groupBy(rs, key)

	var out Resolution
	updated := map[int]Range{}

	for _, k := range keys {
		res := fn(groups[k])
		out.Deletions = append(out.Deletions, res.Deletions...)
		out.Truncations = append(out.Truncations, res.Truncations...)
		for _, r := range res.Survivors {
			updated[r.Order] = r
		}
	}

	for _, r := range without(rs, out.Deletions) {
		if u, ok := updated[r.Order]; ok {
			r = u
		}
		out.Survivors = append(out.Survivors, r)
	}

	return out
}

func truncationsAgainst(original, survivors []Range) []Truncation {
	byOrder := make(map[int]Range, len(original))
	for _, r := range original {
		byOrder[r.Order] = r
	}

	var truncations []Truncation
	for _, r := range survivors {
		orig, ok := byOrder[r.Order]
		if !ok || r.AgeMin == nil || orig.AgeMin == nil || *r.AgeMin == *orig.AgeMin {
			continue
		}
		truncations = append(truncations, Truncation{Range: orig, AgeMin: *r.AgeMin})
	}

	return truncations
}

// sweepState is the value threaded through the frontier fold.
type sweepState struct {
	frontier float64
	res      Resolution
}

// Sweep resolves overlap within one partition with a left-to-right frontier
// fold over the ranges sorted by (age_min, age_max, order). A range ending at
// or before the frontier is subsumed and deleted; one starting before it is
// truncated to start at the frontier. Of two identical domains the earlier
// row survives.
func Sweep(part []Range) Resolution {
	st := sweepState{frontier: math.Inf(-1)}
	for _, r := range sortBySpan(part) {
		st = sweepStep(st, r)
	}

	return st.res
}

func sweepStep(st sweepState, r Range) sweepState {
	span, ok := r.Span()
	if !ok {
		st.res.Survivors = append(st.res.Survivors, r)
		return st
	}

	switch {
	case span.Start < st.frontier && span.End <= st.frontier:
		st.res.Deletions = append(st.res.Deletions, Deletion{Range: r, Reason: ReasonSubsumed})
		return st
	case span.Start < st.frontier:
		st.res.Truncations = append(st.res.Truncations, Truncation{Range: r, AgeMin: st.frontier})
		r.AgeMin = ptr(st.frontier)
	}

	st.res.Survivors = append(st.res.Survivors, r)
	st.frontier = math.Max(st.frontier, span.End)

	return st
}

func sortBySpan(rs []Range) []Range {
	sorted := append([]Range{}, rs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, _ := sorted[i].Span()
		b, _ := sorted[j].Span()
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return sorted[i].Order < sorted[j].Order
	})

	return sorted
}

// EliminateCoarse removes catch-all ranges superseded by narrower ones in one
// fine partition: wide ranges first, then ranges tiled by their inner ranges,
// then ranges whose start is covered by inner ranges.
func EliminateCoarse(part []Range) Resolution {
	return Resolution{Survivors: part}.
		then(EliminateWide).
		then(EliminateTiled).
		then(AdvancePrefix)
}

func isWide(r Range) bool {
	span, ok := r.Span()
	return ok && span.Start <= DomainMin && span.End >= DomainMax
}

// EliminateWide deletes every range spanning the whole age domain when the
// partition also holds a narrower non-empty range.
func EliminateWide(part []Range) Resolution {
	narrower := false
	for _, r := range part {
		if span, ok := r.Span(); ok && !span.Empty() && !isWide(r) {
			narrower = true
			break
		}
	}

	if !narrower {
		return Resolution{Survivors: part}
	}

	var res Resolution
	for _, r := range part {
		if isWide(r) {
			res.Deletions = append(res.Deletions, Deletion{Range: r, Reason: ReasonWide})
			continue
		}
		res.Survivors = append(res.Survivors, r)
	}

	return res
}

// EliminateTiled deletes a range when at least two distinct ranges strictly
// inside it merge to exactly its span.
func EliminateTiled(part []Range) Resolution {
	return eliminateContaining(part, func(span Interval, inner []Interval) (*float64, Reason, bool) {
		if len(inner) == 1 && inner[0] == span {
			return nil, ReasonTiled, true
		}
		return nil, "", false
	})
}

// AdvancePrefix moves the start of a range past the inner coverage that
// begins at its own start, deleting the range when nothing is left. Inner
// coverage starting after the range start leaves the range alone.
func AdvancePrefix(part []Range) Resolution {
	return eliminateContaining(part, func(span Interval, inner []Interval) (*float64, Reason, bool) {
		if inner[0].Start != span.Start {
			return nil, "", false
		}
		if inner[0].End >= span.End {
			return nil, ReasonPrefixExhausted, true
		}
		return ptr(inner[0].End), "", true
	})
}

// containVerdict inspects the merged inner coverage of a range. It returns a
// new start, or a deletion reason, and whether to act at all.
type containVerdict func(span Interval, inner []Interval) (newStart *float64, reason Reason, act bool)

// eliminateContaining visits ranges narrowest first, so that inner ranges are
// settled before the ranges containing them, and applies verdict to every
// range strictly containing at least two distinct inner ranges.
func eliminateContaining(part []Range, verdict containVerdict) Resolution {
	work := append([]Range{}, part...)
	deleted := make([]bool, len(work))

	visit := make([]int, len(work))
	for i := range visit {
		visit[i] = i
	}
	sort.SliceStable(visit, func(a, b int) bool {
		sa, _ := work[visit[a]].Span()
		sb, _ := work[visit[b]].Span()
		if wa, wb := sa.End-sa.Start, sb.End-sb.Start; wa != wb {
			return wa < wb
		}
		return work[visit[a]].Order < work[visit[b]].Order
	})

	var res Resolution
	for _, i := range visit {
		span, ok := work[i].Span()
		if !ok || span.Empty() {
			continue
		}

		inner := innerSpans(work, deleted, i, span)
		if len(inner) < 2 {
			continue
		}

		newStart, reason, act := verdict(span, Merge(inner))
		switch {
		case !act:
		case newStart == nil:
			deleted[i] = true
			res.Deletions = append(res.Deletions, Deletion{Range: work[i], Reason: reason})
		default:
			res.Truncations = append(res.Truncations, Truncation{Range: work[i], AgeMin: *newStart})
			work[i].AgeMin = newStart
		}
	}

	for i, r := range work {
		if !deleted[i] {
			res.Survivors = append(res.Survivors, r)
		}
	}

	return res
}

// innerSpans returns the distinct non-empty spans of live ranges strictly
// inside span, excluding the range at index self.
func innerSpans(work []Range, deleted []bool, self int, span Interval) []Interval {
	seen := map[Interval]bool{}

	var inner []Interval
	for j, r := range work {
		if j == self || deleted[j] {
			continue
		}
		s, ok := r.Span()
		if !ok || s.Empty() || s == span || !span.Contains(s) || seen[s] {
			continue
		}
		seen[s] = true
		inner = append(inner, s)
	}

	return inner
}
