// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package ranges

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSweepDeletesSubsumedAndTruncatesOverlap(t *testing.T) {
	t.Parallel()

	res := Sweep([]Range{
		numeric(0, SexUnisex, 0, 50, 1, 2),
		numeric(1, SexUnisex, 30, 80, 3, 4),
		numeric(2, SexUnisex, 40, 60, 5, 6),
		numeric(3, SexUnisex, 0, 50, 7, 8),
	})

	if diff := cmp.Diff([]int{0, 1}, orders(res.Survivors)); diff != "" {
		t.Fatalf("unexpected survivors (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Interval{{Start: 0, End: 50}, {Start: 50, End: 80}}, spans(res.Survivors)); diff != "" {
		t.Fatalf("unexpected survivor spans (-want +got):\n%s", diff)
	}

	var deleted []int
	for _, d := range res.Deletions {
		if d.Reason != ReasonSubsumed {
			t.Fatalf("expected reason %q, got %q", ReasonSubsumed, d.Reason)
		}
		deleted = append(deleted, d.Range.Order)
	}
	if diff := cmp.Diff([]int{3, 2}, deleted); diff != "" {
		t.Fatalf("unexpected deletions (-want +got):\n%s", diff)
	}

	if len(res.Truncations) != 1 || res.Truncations[0].Range.Order != 1 || res.Truncations[0].AgeMin != 50 {
		t.Fatalf("expected range 1 truncated to 50, got %+v", res.Truncations)
	}
}

func TestSweepKeepsEarliestOfIdenticalDomains(t *testing.T) {
	t.Parallel()

	res := Sweep([]Range{
		numeric(4, SexUnisex, 0, 120, 9, 9),
		numeric(1, SexUnisex, 0, 120, 1, 2),
	})

	if diff := cmp.Diff([]int{1}, orders(res.Survivors)); diff != "" {
		t.Fatalf("expected the earlier row to win (-want +got):\n%s", diff)
	}
}

func TestEliminateWide(t *testing.T) {
	t.Parallel()

	res := EliminateWide([]Range{
		numeric(0, SexUnisex, 0, 120, 1, 2),
		numeric(1, SexUnisex, 0, 50, 3, 4),
	})
	if len(res.Deletions) != 1 || res.Deletions[0].Reason != ReasonWide || res.Deletions[0].Range.Order != 0 {
		t.Fatalf("expected wide range deleted, got %+v", res.Deletions)
	}

	alone := EliminateWide([]Range{numeric(0, SexUnisex, 0, 120, 1, 2)})
	if len(alone.Deletions) != 0 || len(alone.Survivors) != 1 {
		t.Fatalf("expected a lone wide range to survive")
	}

	empty := EliminateWide([]Range{
		numeric(0, SexUnisex, 0, 120, 70, 100),
		numeric(1, SexUnisex, 0, 0, 60, 90),
		numeric(2, SexUnisex, 50, 50, 60, 90),
	})
	if len(empty.Deletions) != 0 || len(empty.Survivors) != 3 {
		t.Fatalf("expected zero-width ranges not to count as narrower, got %+v", empty.Deletions)
	}
}

func TestEliminateTiled(t *testing.T) {
	t.Parallel()

	tiled := EliminateTiled([]Range{
		numeric(0, SexUnisex, 10, 60, 1, 2),
		numeric(1, SexUnisex, 10, 30, 3, 4),
		numeric(2, SexUnisex, 30, 60, 5, 6),
	})
	if len(tiled.Deletions) != 1 || tiled.Deletions[0].Reason != ReasonTiled || tiled.Deletions[0].Range.Order != 0 {
		t.Fatalf("expected tiled range deleted, got %+v", tiled.Deletions)
	}

	holey := EliminateTiled([]Range{
		numeric(0, SexUnisex, 10, 60, 1, 2),
		numeric(1, SexUnisex, 10, 30, 3, 4),
		numeric(2, SexUnisex, 40, 60, 5, 6),
	})
	if len(holey.Deletions) != 0 {
		t.Fatalf("expected no deletion when inner ranges leave a hole, got %+v", holey.Deletions)
	}

	single := EliminateTiled([]Range{
		numeric(0, SexUnisex, 10, 60, 1, 2),
		numeric(1, SexUnisex, 10, 60, 3, 4),
		numeric(2, SexUnisex, 10, 30, 5, 6),
	})
	if len(single.Deletions) != 0 {
		t.Fatalf("expected identical domains not to count as inner ranges, got %+v", single.Deletions)
	}
}

func TestAdvancePrefix(t *testing.T) {
	t.Parallel()

	res := AdvancePrefix([]Range{
		numeric(0, SexUnisex, 0, 60, 1, 2),
		numeric(1, SexUnisex, 0, 10, 3, 4),
		numeric(2, SexUnisex, 10, 20, 5, 6),
	})
	if len(res.Deletions) != 0 {
		t.Fatalf("expected no deletions, got %+v", res.Deletions)
	}
	if len(res.Truncations) != 1 || res.Truncations[0].AgeMin != 20 {
		t.Fatalf("expected start advanced to 20, got %+v", res.Truncations)
	}
	assertFloatPtr(t, res.Survivors[0].AgeMin, 20)

	exhausted := AdvancePrefix([]Range{
		numeric(0, SexUnisex, 0, 20, 1, 2),
		numeric(1, SexUnisex, 0, 10, 3, 4),
		numeric(2, SexUnisex, 10, 20, 5, 6),
	})
	if len(exhausted.Deletions) != 1 || exhausted.Deletions[0].Reason != ReasonPrefixExhausted {
		t.Fatalf("expected prefix-exhausted deletion, got %+v", exhausted.Deletions)
	}
}

func TestAdvancePrefixIgnoresInnerCoverageStartingLater(t *testing.T) {
	t.Parallel()

	part := []Range{
		numeric(0, SexUnisex, 0, 60, 1, 2),
		numeric(1, SexUnisex, 10, 20, 3, 4),
		numeric(2, SexUnisex, 20, 30, 5, 6),
	}

	for name, step := range map[string]func([]Range) Resolution{
		"tiled":  EliminateTiled,
		"prefix": AdvancePrefix,
	} {
		res := step(part)
		if len(res.Deletions) != 0 || len(res.Truncations) != 0 {
			t.Fatalf("%s: expected no action, got %+v / %+v", name, res.Deletions, res.Truncations)
		}
	}

	// The sweep then keeps the earlier-starting range and drops the ones it
	// subsumes.
	res := Resolve(part)
	if diff := cmp.Diff([]int{0}, orders(res.Survivors)); diff != "" {
		t.Fatalf("unexpected survivors (-want +got):\n%s", diff)
	}
}

func TestResolveCoarseElimination(t *testing.T) {
	t.Parallel()

	narrowLow := numeric(1, SexUnisex, 0, 50, 3, 4)
	narrowHigh := numeric(2, SexUnisex, 50, 120, 5, 6)

	res := Resolve([]Range{numeric(0, SexUnisex, 0, 120, 1, 2), narrowLow, narrowHigh})

	if diff := cmp.Diff([]Range{narrowLow, narrowHigh}, res.Survivors); diff != "" {
		t.Fatalf("expected narrow ranges unchanged (-want +got):\n%s", diff)
	}
	if len(res.Deletions) != 1 || res.Deletions[0].Range.Order != 0 {
		t.Fatalf("expected the wide range deleted, got %+v", res.Deletions)
	}
	if len(res.Truncations) != 0 {
		t.Fatalf("expected no truncations, got %+v", res.Truncations)
	}
}

func TestResolveReportsTruncationsAgainstInput(t *testing.T) {
	t.Parallel()

	res := Resolve([]Range{
		numeric(0, SexUnisex, 0, 60, 1, 2),
		numeric(1, SexUnisex, 0, 10, 3, 4),
		numeric(2, SexUnisex, 10, 20, 5, 6),
		numeric(3, SexMale, 0, 50, 1, 2),
		numeric(4, SexMale, 30, 80, 1, 3),
	})

	got := map[int]float64{}
	for _, tr := range res.Truncations {
		got[tr.Range.Order] = tr.AgeMin
	}

	if diff := cmp.Diff(map[int]float64{0: 20, 4: 50}, got); diff != "" {
		t.Fatalf("unexpected truncations (-want +got):\n%s", diff)
	}
	if len(res.Deletions) != 0 {
		t.Fatalf("expected no deletions, got %+v", res.Deletions)
	}
}

func TestResolveLeavesNoOverlapPerSex(t *testing.T) {
	t.Parallel()

	rs := []Range{
		numeric(0, SexUnisex, 0, 120, 1, 2),
		numeric(1, SexUnisex, 5, 40, 1, 3),
		numeric(2, SexUnisex, 30, 70, 2, 3),
		numeric(3, SexUnisex, 65, 90, 2, 4),
		numeric(4, SexMale, 0, 18, 1, 2),
		numeric(5, SexMale, 10, 65, 1, 5),
		numeric(6, SexMale, 10, 65, 1, 6),
		numeric(7, SexFemale, 0, 30, 3, 4),
		numeric(8, SexFemale, 20, 25, 3, 5),
		numeric(9, SexFemale, 25, 120, 3, 6),
	}

	res := Resolve(rs)

	for i, a := range res.Survivors {
		for _, b := range res.Survivors[i+1:] {
			if a.sexPartition() != b.sexPartition() {
				continue
			}
			sa, _ := a.Span()
			sb, _ := b.Span()
			if sa.Overlaps(sb) {
				t.Fatalf("ranges %d %v and %d %v overlap", a.Order, sa, b.Order, sb)
			}
		}
	}
}

func TestResolveKeepsSexSpecificRangesOverUnisex(t *testing.T) {
	t.Parallel()

	res := Resolve([]Range{
		numeric(0, SexUnisex, 0, 120, 1, 2),
		numeric(1, SexMale, 18, 120, 3, 4),
		numeric(2, SexFemale, 18, 120, 5, 6),
	})

	if diff := cmp.Diff([]int{0, 1, 2}, orders(res.Survivors)); diff != "" {
		t.Fatalf("expected every sex bucket kept (-want +got):\n%s", diff)
	}
}

func TestResolveIgnoresUnreadableAges(t *testing.T) {
	t.Parallel()

	broken := numeric(1, SexUnisex, 0, 0, 1, 2)
	broken.AgeMin = nil

	res := Resolve([]Range{numeric(0, SexUnisex, 0, 50, 1, 2), broken})

	if diff := cmp.Diff([]int{0, 1}, orders(res.Survivors)); diff != "" {
		t.Fatalf("unexpected survivors (-want +got):\n%s", diff)
	}
}
