// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/humaidq/labranges/ranges"
)

var errAbort = errors.New("abort")

// forEachStore runs fn against SQLite and, when configured, PostgreSQL.
func forEachStore(t *testing.T, fn func(t *testing.T, store rangeStore)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		fn(t, newSQLiteStore(t))
	})

	t.Run("postgres", func(t *testing.T) {
		fn(t, requirePostgres(t))
	})
}

func TestRawRangeRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, store rangeStore) {
		ctx := testContext()

		if err := store.UpsertParameter(ctx, ranges.Parameter{ID: "glu", Analysis: "Metabolic", Category: "Metabolic", Name: "Glucose"}); err != nil {
			t.Fatalf("UpsertParameter failed: %v", err)
		}

		first := ranges.RawRange{
			ParameterID: "glu",
			Sex:         stringPtr("Masculino"),
			AgeMin:      stringPtr("0"),
			AgeMax:      stringPtr("18,5"),
			Unit:        stringPtr("mg/dL"),
			Lower:       stringPtr("70"),
			Upper:       stringPtr("99"),
		}
		second := ranges.RawRange{ParameterID: "glu", AgeMin: stringPtr("abc")}

		mustInsertRange(t, store, first)
		mustInsertRange(t, store, second)

		rows, err := store.ListRanges(ctx)
		if err != nil {
			t.Fatalf("ListRanges failed: %v", err)
		}

		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}

		if rows[0].AgeMax == nil || *rows[0].AgeMax != "18,5" {
			t.Fatalf("expected raw age_max 18,5 to survive, got %v", rows[0].AgeMax)
		}

		if rows[0].Origin != string(ranges.OriginAuthored) {
			t.Fatalf("expected authored origin, got %q", rows[0].Origin)
		}

		if rows[1].Sex != nil || rows[1].Lower != nil {
			t.Fatalf("expected NULL sex and lower bound, got %v %v", rows[1].Sex, rows[1].Lower)
		}

		if rows[1].AgeMin == nil || *rows[1].AgeMin != "abc" {
			t.Fatalf("expected unreadable age to be kept as text, got %v", rows[1].AgeMin)
		}
	})
}

func TestUpsertParameterUpdates(t *testing.T) {
	forEachStore(t, func(t *testing.T, store rangeStore) {
		ctx := testContext()

		p := ranges.Parameter{ID: "tsh", Analysis: "Thyroid", Category: "Hormones", Name: "TSH"}
		if err := store.UpsertParameter(ctx, p); err != nil {
			t.Fatalf("UpsertParameter failed: %v", err)
		}

		p.Name = "Thyroid stimulating hormone"
		if err := store.UpsertParameter(ctx, p); err != nil {
			t.Fatalf("UpsertParameter failed: %v", err)
		}

		params, err := store.ListParameters(ctx)
		if err != nil {
			t.Fatalf("ListParameters failed: %v", err)
		}

		if diff := cmp.Diff([]ranges.Parameter{p}, params); diff != "" {
			t.Fatalf("parameters mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestInsertRangeIfAbsent(t *testing.T) {
	forEachStore(t, func(t *testing.T, store rangeStore) {
		ctx := testContext()

		lower, upper, ageMin, ageMax := 1.5, 4.0, 0.0, 18.0
		r := ranges.Range{
			ParameterID: "k",
			Sex:         ranges.SexUnisex,
			AgeMin:      &ageMin,
			AgeMax:      &ageMax,
			Unit:        "mmol/L",
			Lower:       &lower,
			Upper:       &upper,
			Origin:      ranges.OriginGapFill,
		}

		var inserted []bool
		err := store.InTx(ctx, func(tx ranges.Tx) error {
			for range 2 {
				ok, err := tx.InsertRangeIfAbsent(ctx, r)
				if err != nil {
					return err
				}
				inserted = append(inserted, ok)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("InTx failed: %v", err)
		}

		if diff := cmp.Diff([]bool{true, false}, inserted); diff != "" {
			t.Fatalf("inserted mismatch (-want +got):\n%s", diff)
		}

		rows, err := store.ListRanges(ctx)
		if err != nil {
			t.Fatalf("ListRanges failed: %v", err)
		}

		if len(rows) != 1 {
			t.Fatalf("expected 1 row, got %d", len(rows))
		}

		got := rows[0]
		if got.Unit == nil || *got.Unit != "mmol/L" || got.Method != nil {
			t.Fatalf("expected unit mmol/L and NULL method, got %v %v", got.Unit, got.Method)
		}

		if got.Lower == nil || *got.Lower != "1.5" || got.AgeMax == nil || *got.AgeMax != "18" {
			t.Fatalf("expected canonical numbers, got lower=%v age_max=%v", got.Lower, got.AgeMax)
		}

		if got.Origin != string(ranges.OriginGapFill) {
			t.Fatalf("expected gap_fill origin, got %q", got.Origin)
		}
	})
}

func TestInTxRollsBackOnError(t *testing.T) {
	forEachStore(t, func(t *testing.T, store rangeStore) {
		ctx := testContext()

		mustInsertRange(t, store, ranges.RawRange{ParameterID: "p", AgeMin: stringPtr("0"), AgeMax: stringPtr("120")})

		err := store.InTx(ctx, func(tx ranges.Tx) error {
			rows, err := tx.ListRanges(ctx)
			if err != nil {
				return err
			}
			if err := tx.DeleteRange(ctx, rows[0].ID); err != nil {
				return err
			}
			return errAbort
		})
		if !errors.Is(err, errAbort) {
			t.Fatalf("expected errAbort, got %v", err)
		}

		rows, err := store.ListRanges(ctx)
		if err != nil {
			t.Fatalf("ListRanges failed: %v", err)
		}

		if len(rows) != 1 {
			t.Fatalf("expected the delete to be rolled back, got %d rows", len(rows))
		}
	})
}

func TestSeedAndRepair(t *testing.T) {
	forEachStore(t, func(t *testing.T, store rangeStore) {
		ctx := testContext()

		seeded, err := Seed(ctx, store)
		if err != nil {
			t.Fatalf("Seed failed: %v", err)
		}

		if seeded.Parameters != 10 || seeded.Ranges != 23 {
			t.Fatalf("expected 10 parameters and 23 ranges, got %+v", seeded)
		}

		summary, err := ranges.Repair(ctx, store, ranges.Options{})
		if err != nil {
			t.Fatalf("Repair failed: %v", err)
		}

		want := ranges.Summary{
			HygieneSwaps:              1,
			TextMarkings:              1,
			ValueEqualSexDeletions:    2,
			UnisexSupersededDeletions: 1,
			CoarseDeletions:           1,
			Truncations:               1,
			GapInsertions:             5,
		}
		if diff := cmp.Diff(want, summary); diff != "" {
			t.Fatalf("summary mismatch (-want +got):\n%s", diff)
		}

		rows, err := store.ListRanges(ctx)
		if err != nil {
			t.Fatalf("ListRanges failed: %v", err)
		}
		assertCovered(t, rows)

		again, err := ranges.Repair(ctx, store, ranges.Options{})
		if err != nil {
			t.Fatalf("second Repair failed: %v", err)
		}

		if again.Changes() != 0 {
			t.Fatalf("expected second repair to change nothing, got %+v", again)
		}
	})
}

func TestRepairDryRunLeavesStoreUntouched(t *testing.T) {
	forEachStore(t, func(t *testing.T, store rangeStore) {
		ctx := testContext()

		if _, err := Seed(ctx, store); err != nil {
			t.Fatalf("Seed failed: %v", err)
		}

		before, err := store.ListRanges(ctx)
		if err != nil {
			t.Fatalf("ListRanges failed: %v", err)
		}

		summary, err := ranges.Repair(ctx, store, ranges.Options{DryRun: true})
		if err != nil {
			t.Fatalf("Repair failed: %v", err)
		}

		if !summary.DryRun || summary.Changes() == 0 {
			t.Fatalf("expected a dry run reporting changes, got %+v", summary)
		}

		after, err := store.ListRanges(ctx)
		if err != nil {
			t.Fatalf("ListRanges failed: %v", err)
		}

		if diff := cmp.Diff(before, after); diff != "" {
			t.Fatalf("dry run modified ranges (-before +after):\n%s", diff)
		}
	})
}

func TestCheckSchemaAfterSync(t *testing.T) {
	forEachStore(t, func(t *testing.T, store rangeStore) {
		if err := store.CheckSchema(testContext()); err != nil {
			t.Fatalf("CheckSchema failed: %v", err)
		}
	})
}
