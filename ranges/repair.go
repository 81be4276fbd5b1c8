/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ranges

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Tx is the reference range storage seen from inside one transaction. Reads
// after writes must observe those writes.
type Tx interface {
	// ListRanges returns every reference range in (created_at, id) order.
	ListRanges(ctx context.Context) ([]RawRange, error)
	UpdateAges(ctx context.Context, id uuid.UUID, ageMin, ageMax float64) error
	UpdateBounds(ctx context.Context, id uuid.UUID, lower, upper float64) error
	SetTextValue(ctx context.Context, id uuid.UUID, text string) error
	// MarkLegacyPlaceholders sets text on legacy rows that have neither
	// bounds nor text. A missing legacy table is not an error.
	MarkLegacyPlaceholders(ctx context.Context, text string) (int64, error)
	DeleteRange(ctx context.Context, id uuid.UUID) error
	UpdateAgeMin(ctx context.Context, id uuid.UUID, ageMin float64) error
	// InsertRangeIfAbsent inserts r unless a row with the same parameter,
	// sex, ages, unit and method exists. It reports whether it inserted.
	InsertRangeIfAbsent(ctx context.Context, r Range) (bool, error)
}

// Store runs fn in a transaction, committing when fn returns nil and rolling
// back otherwise.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Options configure a repair run.
type Options struct {
	// Placeholder is the text written to ranges that need an operator to
	// supply a value. Empty means DefaultPlaceholderText.
	Placeholder string
	// DryRun computes every change and then rolls the transaction back.
	DryRun bool
}

func (o Options) placeholder() string {
	if o.Placeholder == "" {
		return DefaultPlaceholderText
	}
	return o.Placeholder
}

// Summary counts the changes of a repair run.
type Summary struct {
	HygieneSwaps              int  `json:"hygiene_swaps"`
	TextMarkings              int  `json:"text_markings"`
	LegacyTextMarkings        int  `json:"legacy_text_markings"`
	ValueEqualSexDeletions    int  `json:"value_equal_sex_deletions"`
	UnisexSupersededDeletions int  `json:"unisex_superseded_deletions"`
	CoarseDeletions           int  `json:"coarse_deletions"`
	OverlapDeletions          int  `json:"overlap_deletions"`
	Truncations               int  `json:"truncations"`
	GapInsertions             int  `json:"gap_insertions"`
	PlaceholderInsertions     int  `json:"placeholder_insertions"`
	DryRun                    bool `json:"dry_run"`
}

// Changes returns the total number of rows changed.
func (s Summary) Changes() int {
	return s.HygieneSwaps + s.TextMarkings + s.LegacyTextMarkings +
		s.ValueEqualSexDeletions + s.UnisexSupersededDeletions +
		s.CoarseDeletions + s.OverlapDeletions + s.Truncations +
		s.GapInsertions + s.PlaceholderInsertions
}

// KeyVals returns the summary as logger key/value pairs.
func (s Summary) KeyVals() []any {
	return []any{
		"hygiene_swaps", s.HygieneSwaps,
		"text_markings", s.TextMarkings,
		"legacy_text_markings", s.LegacyTextMarkings,
		"value_equal_sex_deletions", s.ValueEqualSexDeletions,
		"unisex_superseded_deletions", s.UnisexSupersededDeletions,
		"coarse_deletions", s.CoarseDeletions,
		"overlap_deletions", s.OverlapDeletions,
		"truncations", s.Truncations,
		"gap_insertions", s.GapInsertions,
		"placeholder_insertions", s.PlaceholderInsertions,
		"dry_run", s.DryRun,
	}
}

func (s *Summary) countDeletions(deletions []Deletion) {
	for _, d := range deletions {
		switch d.Reason {
		case ReasonValueEqualSex:
			s.ValueEqualSexDeletions++
		case ReasonUnisexSuperseded:
			s.UnisexSupersededDeletions++
		case ReasonWide, ReasonTiled, ReasonPrefixExhausted:
			s.CoarseDeletions++
		case ReasonSubsumed:
			s.OverlapDeletions++
		}
	}
}

// Repair runs hygiene, text marking, collapse, overlap resolution and gap
// filling in a single transaction. Any error rolls every step back.
func Repair(ctx context.Context, store Store, opts Options) (Summary, error) {
	if store == nil {
		return Summary{}, ErrStoreRequired
	}

	var summary Summary
	err := store.InTx(ctx, func(tx Tx) error {
		s, err := repairTx(ctx, tx, opts.placeholder())
		summary = s
		if err != nil {
			return err
		}

		if opts.DryRun {
			return errDryRun
		}

		return nil
	})

	summary.DryRun = opts.DryRun

	if err != nil && !errors.Is(err, errDryRun) {
		logger.Error("Repair rolled back", "error", err)
		return summary, err
	}

	logger.Info("Repair finished", summary.KeyVals()...)

	return summary, nil
}

func repairTx(ctx context.Context, tx Tx, placeholder string) (Summary, error) {
	var summary Summary

	rs, err := loadWithHygiene(ctx, tx, &summary)
	if err != nil {
		return summary, err
	}

	for i, r := range rs {
		if r.HasValue() {
			continue
		}
		if err := tx.SetTextValue(ctx, r.ID, placeholder); err != nil {
			return summary, fmt.Errorf("failed to mark range %s: %w", r.ID, err)
		}
		rs[i].Text = &placeholder
		summary.TextMarkings++
	}

	legacy, err := tx.MarkLegacyPlaceholders(ctx, placeholder)
	if err != nil {
		return summary, fmt.Errorf("failed to mark legacy ranges: %w", err)
	}
	summary.LegacyTextMarkings = int(legacy)

	rs, deletions := Collapse(rs)
	summary.countDeletions(deletions)
	if err := deleteAll(ctx, tx, deletions); err != nil {
		return summary, err
	}

	res := Resolve(rs)
	summary.countDeletions(res.Deletions)
	if err := deleteAll(ctx, tx, res.Deletions); err != nil {
		return summary, err
	}

	for _, t := range res.Truncations {
		if err := tx.UpdateAgeMin(ctx, t.Range.ID, t.AgeMin); err != nil {
			return summary, fmt.Errorf("failed to truncate range %s: %w", t.Range.ID, err)
		}
		summary.Truncations++
	}

	// Gap filling works on what the steps above persisted.
	raws, err := tx.ListRanges(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to re-read ranges: %w", err)
	}

	for _, r := range FillGaps(NormalizeAll(raws), placeholder) {
		inserted, err := tx.InsertRangeIfAbsent(ctx, r)
		if err != nil {
			return summary, fmt.Errorf("failed to insert range for %s: %w", r.ParameterID, err)
		}
		if !inserted {
			continue
		}

		if r.Origin == OriginPlaceholder {
			summary.PlaceholderInsertions++
		} else {
			summary.GapInsertions++
		}
	}

	return summary, nil
}

// loadWithHygiene reads and normalizes every range, persisting swapped ages
// and bounds.
func loadWithHygiene(ctx context.Context, tx Tx, summary *Summary) ([]Range, error) {
	raws, err := tx.ListRanges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ranges: %w", err)
	}

	rs := make([]Range, 0, len(raws))
	for i, raw := range raws {
		r, h := Normalize(raw, i)

		if h.AgesSwapped {
			if err := tx.UpdateAges(ctx, r.ID, *r.AgeMin, *r.AgeMax); err != nil {
				return nil, fmt.Errorf("failed to swap ages of range %s: %w", r.ID, err)
			}
		}

		if h.BoundsSwapped {
			if err := tx.UpdateBounds(ctx, r.ID, *r.Lower, *r.Upper); err != nil {
				return nil, fmt.Errorf("failed to swap bounds of range %s: %w", r.ID, err)
			}
		}

		if h.Any() {
			summary.HygieneSwaps++
		}

		rs = append(rs, r)
	}

	return rs, nil
}

func deleteAll(ctx context.Context, tx Tx, deletions []Deletion) error {
	for _, d := range deletions {
		if err := tx.DeleteRange(ctx, d.Range.ID); err != nil {
			return fmt.Errorf("failed to delete range %s: %w", d.Range.ID, err)
		}
		logger.Debug("Deleted range", "id", d.Range.ID, "parameter", d.Range.ParameterID, "reason", d.Reason)
	}

	return nil
}
