/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package audit

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/humaidq/labranges/ranges"
)

// Format names a report rendering.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatHTML  Format = "html"
)

// ParseFormat validates a format name. Empty means table.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatTable, "":
		return FormatTable, nil
	case FormatHTML:
		return FormatHTML, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// ParseDelimiter returns the single character of s.
func ParseDelimiter(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, s)
	}

	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, s)
	}

	return r, nil
}

// Render writes the report in format. delim is only used by the table format.
func Render(w io.Writer, report Report, format Format, delim rune) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, report)
	case FormatTable:
		return WriteTable(w, report, delim)
	case FormatHTML:
		return WriteHTML(w, report)
	}

	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, report Report) error {
	if report.Findings == nil {
		report.Findings = []Finding{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	return nil
}

var tableHeader = []string{
	"analysis", "category", "parameter", "unit", "methods",
	"male", "female", "unisex", "combined", "gaps", "severity", "note",
}

// WriteTable writes one delimited row per finding followed by the total and
// actionable counts.
func WriteTable(w io.Writer, report Report, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim

	records := [][]string{tableHeader}
	for _, f := range report.Findings {
		records = append(records, []string{
			f.Analysis,
			f.Category,
			f.Parameter,
			f.Unit,
			strings.Join(f.Methods, ", "),
			f.Coverage.Male,
			f.Coverage.Female,
			f.Coverage.Unisex,
			f.Coverage.Combined,
			f.Gaps,
			string(f.Severity),
			f.Note,
		})
	}

	records = append(records,
		[]string{"total", strconv.Itoa(report.Total)},
		[]string{"actionable", strconv.Itoa(report.Actionable)},
	)

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}

	return nil
}

// WriteHTML renders a stacked bar chart of covered and missing years per
// parameter. Advisory findings repeat a parameter and are skipped.
func WriteHTML(w io.Writer, report Report) error {
	var (
		names   []string
		covered []opts.BarData
		missing []opts.BarData
	)

	for _, f := range report.Findings {
		if f.Severity == SeveritySexSplitSuggested {
			continue
		}

		names = append(names, f.Parameter)
		covered = append(covered, opts.BarData{Value: f.CoveredYears})
		missing = append(missing, opts.BarData{Value: ranges.DomainMax - ranges.DomainMin - f.CoveredYears})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Reference range coverage",
			Width:     "100%",
			Height:    fmt.Sprintf("%dpx", 120+24*len(names)),
		}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("Coverage (%d findings, %d actionable)", report.Total, report.Actionable),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "years",
			Min:  ranges.DomainMin,
			Max:  ranges.DomainMax,
		}),
	)

	stacked := charts.WithBarChartOpts(opts.BarChart{Stack: "coverage"})

	bar.SetXAxis(names).
		AddSeries("Covered", covered, stacked).
		AddSeries("Missing", missing, stacked).
		XYReversal()

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	return nil
}
