// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"testing"

	"github.com/humaidq/labranges/ranges"
)

func testContext() context.Context {
	return context.Background()
}

func stringPtr(value string) *string {
	return &value
}

// rangeStore is what the shared store tests exercise on both backends.
type rangeStore interface {
	ranges.Store
	Seeder
	ListRanges(ctx context.Context) ([]ranges.RawRange, error)
	ListParameters(ctx context.Context) ([]ranges.Parameter, error)
	CheckSchema(ctx context.Context) error
}

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := OpenSQLite(testContext(), ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(store.Close)

	if err := store.SyncSchema(testContext()); err != nil {
		t.Fatalf("SyncSchema failed: %v", err)
	}

	return store
}

func mustInsertRange(t *testing.T, s Seeder, r ranges.RawRange) {
	t.Helper()
	if _, err := s.InsertRawRange(testContext(), r); err != nil {
		t.Fatalf("InsertRawRange failed: %v", err)
	}
}

func assertCovered(t *testing.T, rows []ranges.RawRange) {
	t.Helper()

	byPartition := map[ranges.Partition][]ranges.Interval{}
	for _, r := range ranges.NormalizeAll(rows) {
		span, ok := r.Span()
		if !ok {
			continue
		}
		byPartition[r.Partition()] = append(byPartition[r.Partition()], span)
		if !r.HasValue() {
			t.Fatalf("range %s has neither bounds nor text", r.ID)
		}
	}

	for key, spans := range byPartition {
		if gaps := ranges.Gaps(ranges.Merge(spans), ranges.Domain); len(gaps) != 0 {
			t.Fatalf("partition %+v has gaps %s", key, ranges.FormatIntervals(gaps))
		}
	}
}
