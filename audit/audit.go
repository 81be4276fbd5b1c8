/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package audit

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/humaidq/labranges/ranges"
)

// Severity classifies a finding.
type Severity string

// Finding severities, most urgent first.
const (
	SeverityMissingRanges       Severity = "HIGH_MISSING_RANGES"
	SeverityMissingAll          Severity = "HIGH_MISSING_ALL"
	SeverityOnlyQualitative     Severity = "MEDIUM_ONLY_QUALITATIVE"
	SeveritySexSplitSuggested   Severity = "MEDIUM_SEX_SPLIT_SUGGESTED"
	SeverityQualitativeByDesign Severity = "INFO_QUALITATIVE_BY_DESIGN"
	SeverityOK                  Severity = "OK"
)

var severityRank = map[Severity]int{
	SeverityMissingRanges:       0,
	SeverityMissingAll:          1,
	SeverityOnlyQualitative:     2,
	SeveritySexSplitSuggested:   3,
	SeverityQualitativeByDesign: 4,
	SeverityOK:                  5,
}

// Actionable reports whether an operator needs to act on the finding.
func (s Severity) Actionable() bool {
	return s != SeverityQualitativeByDesign && s != SeverityOK
}

// Coverage holds the merged age intervals of each sex bucket, rendered as
// "0–18, 25–120".
type Coverage struct {
	Male     string `json:"male"`
	Female   string `json:"female"`
	Unisex   string `json:"unisex"`
	Combined string `json:"combined"`
}

// Finding is the audit verdict for one parameter.
type Finding struct {
	Analysis     string   `json:"analysis"`
	Category     string   `json:"category"`
	ParameterID  string   `json:"parameter_id"`
	Parameter    string   `json:"parameter"`
	Unit         string   `json:"unit"`
	Methods      []string `json:"methods"`
	Coverage     Coverage `json:"coverage"`
	Gaps         string   `json:"gaps"`
	CoveredYears float64  `json:"covered_years"`
	Severity     Severity `json:"severity"`
	Note         string   `json:"note"`
}

// Report is the result of an audit run.
type Report struct {
	Findings   []Finding `json:"findings"`
	Total      int       `json:"total"`
	Actionable int       `json:"actionable"`
}

// Source reads the catalog and the stored ranges.
type Source interface {
	ListParameters(ctx context.Context) ([]ranges.Parameter, error)
	ListRanges(ctx context.Context) ([]ranges.RawRange, error)
}

// Options configure an audit run.
type Options struct {
	// Classifier is asked whether text-only parameters are qualitative by
	// design. Nil means an AllowlistClassifier with the default terms.
	Classifier Classifier
	// SexDependent lists names that usually need Male and Female ranges. Nil
	// means the default patterns.
	SexDependent *PatternSet
	// IncludeOK adds findings for parameters without problems.
	IncludeOK bool
}

// Run audits every catalog parameter and every parameter referenced only by
// ranges. It never writes.
func Run(ctx context.Context, src Source, opts Options) (Report, error) {
	if src == nil {
		return Report{}, ErrSourceRequired
	}

	if opts.Classifier == nil {
		opts.Classifier = NewAllowlistClassifier(nil)
	}

	if opts.SexDependent == nil {
		patterns, err := CompilePatterns(nil)
		if err != nil {
			return Report{}, fmt.Errorf("failed to compile default patterns: %w", err)
		}
		opts.SexDependent = patterns
	}

	params, err := src.ListParameters(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list parameters: %w", err)
	}

	raws, err := src.ListRanges(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list ranges: %w", err)
	}

	report := Audit(params, ranges.NormalizeAll(raws), opts)

	logger.Info("Audit finished", "parameters", len(params), "ranges", len(raws),
		"total", report.Total, "actionable", report.Actionable)

	return report, nil
}

// Audit evaluates rs against the catalog params. Ranges whose parameter is
// missing from the catalog are audited under their parameter id.
func Audit(params []ranges.Parameter, rs []ranges.Range, opts Options) Report {
	byParam := map[string][]ranges.Range{}
	for _, r := range rs {
		byParam[r.ParameterID] = append(byParam[r.ParameterID], r)
	}

	known := map[string]bool{}
	for _, p := range params {
		known[p.ID] = true
	}

	var orphans []string
	for id := range byParam {
		if !known[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)

	for _, id := range orphans {
		params = append(params, ranges.Parameter{ID: id, Name: id})
	}

	var report Report
	for _, p := range params {
		for _, f := range evaluate(p, byParam[p.ID], opts) {
			if f.Severity != SeverityOK {
				report.Total++
				if f.Severity.Actionable() {
					report.Actionable++
				}
			} else if !opts.IncludeOK {
				continue
			}
			report.Findings = append(report.Findings, f)
		}
	}

	sort.SliceStable(report.Findings, func(i, j int) bool {
		a, b := report.Findings[i], report.Findings[j]
		if severityRank[a.Severity] != severityRank[b.Severity] {
			return severityRank[a.Severity] < severityRank[b.Severity]
		}
		if a.Analysis != b.Analysis {
			return a.Analysis < b.Analysis
		}
		return a.Parameter < b.Parameter
	})

	return report
}

func evaluate(p ranges.Parameter, rows []ranges.Range, opts Options) []Finding {
	f := Finding{
		Analysis:    p.Analysis,
		Category:    p.Category,
		ParameterID: p.ID,
		Parameter:   p.Name,
	}

	if len(rows) == 0 {
		f.Severity = SeverityMissingRanges
		f.Gaps = ranges.Domain.String()
		f.Note = "no reference ranges"
		return []Finding{f}
	}

	var (
		spans    = map[ranges.Sex][]ranges.Interval{}
		combined []ranges.Interval
		units    = map[string]bool{}
		methods  = map[string]bool{}
		textOnly = true
		split    = false
	)

	for _, r := range rows {
		if r.Unit != "" {
			units[r.Unit] = true
		}
		if r.Method != "" {
			methods[r.Method] = true
		}
		if r.Lower != nil || r.Upper != nil {
			textOnly = false
		}
		if r.Sex != ranges.SexUnisex {
			split = true
		}

		span, ok := r.Span()
		if !ok {
			continue
		}
		spans[r.Sex] = append(spans[r.Sex], span)
		combined = append(combined, span)
	}

	merged := ranges.Merge(combined)
	gaps := ranges.Gaps(merged, ranges.Domain)

	f.Unit = strings.Join(sortedKeys(units), ", ")
	f.Methods = sortedKeys(methods)
	f.Coverage = Coverage{
		Male:     ranges.FormatIntervals(ranges.Merge(spans[ranges.SexMale])),
		Female:   ranges.FormatIntervals(ranges.Merge(spans[ranges.SexFemale])),
		Unisex:   ranges.FormatIntervals(ranges.Merge(spans[ranges.SexUnisex])),
		Combined: ranges.FormatIntervals(merged),
	}
	f.Gaps = ranges.FormatIntervals(gaps)
	f.CoveredYears = coveredYears(merged)

	switch {
	case len(gaps) > 0:
		f.Severity = SeverityMissingAll
		f.Note = "ages " + f.Gaps + " have no range"
	case textOnly && qualitativeByDesign(opts.Classifier, p):
		f.Severity = SeverityQualitativeByDesign
		f.Note = "text-only ranges, qualitative by design"
	case textOnly:
		f.Severity = SeverityOnlyQualitative
		f.Note = "only text ranges, numeric bounds expected"
	default:
		f.Severity = SeverityOK
	}

	findings := []Finding{f}

	if len(gaps) == 0 && !split && opts.SexDependent.Match(p.Name) {
		advisory := f
		advisory.Severity = SeveritySexSplitSuggested
		advisory.Note = "Unisex ranges only, values usually differ by sex"
		findings = append(findings, advisory)
	}

	return findings
}

func qualitativeByDesign(c Classifier, p ranges.Parameter) bool {
	if c.IsQualitativeByDesign(p.Name) {
		return true
	}

	return p.Analysis != "" && c.IsQualitativeByDesign(p.Analysis+" "+p.Name)
}

func coveredYears(merged []ranges.Interval) float64 {
	var total float64
	for _, iv := range merged {
		start := max(iv.Start, ranges.DomainMin)
		end := min(iv.End, ranges.DomainMax)
		if end > start {
			total += end - start
		}
	}

	return total
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
