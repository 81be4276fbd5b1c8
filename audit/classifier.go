/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package audit

import (
	"regexp"
	"strings"

	"github.com/humaidq/labranges/ranges"
)

// Classifier decides whether a parameter is qualitative by design, such as a
// serology result that is only ever reported as text.
type Classifier interface {
	IsQualitativeByDesign(name string) bool
}

// DefaultQualitativeTerms are matched when no allowlist is configured.
var DefaultQualitativeTerms = []string{
	"color",
	"aspecto",
	"appearance",
	"olor",
	"grupo sanguineo",
	"blood group",
	"factor rh",
	"antibodies",
	"anticuerpos",
	"antigeno",
	"antigen",
	"hiv",
	"vdrl",
	"cultivo",
	"culture",
	"sedimento",
	"sediment",
}

// AllowlistClassifier matches names against terms after case and diacritic
// folding. A name is qualitative when it contains any term.
type AllowlistClassifier struct {
	terms []string
}

// NewAllowlistClassifier returns a classifier for terms. Blank terms are
// ignored; no terms means DefaultQualitativeTerms.
func NewAllowlistClassifier(terms []string) *AllowlistClassifier {
	if len(terms) == 0 {
		terms = DefaultQualitativeTerms
	}

	c := &AllowlistClassifier{}
	for _, term := range terms {
		if folded := ranges.Fold(term); folded != "" {
			c.terms = append(c.terms, folded)
		}
	}

	return c
}

// IsQualitativeByDesign reports whether name contains an allowlisted term.
func (c *AllowlistClassifier) IsQualitativeByDesign(name string) bool {
	folded := ranges.Fold(name)
	if folded == "" {
		return false
	}

	for _, term := range c.terms {
		if strings.Contains(folded, term) {
			return true
		}
	}

	return false
}

// DefaultSexDependentPatterns name hormones and other analytes whose normal
// values depend on sex.
var DefaultSexDependentPatterns = []string{
	`testosterona|testosterone`,
	`estradiol`,
	`estrogeno|estrogen`,
	`progesterona|progesterone`,
	`prolactina|prolactin`,
	`\blh\b|luteinizante|luteinizing`,
	`\bfsh\b|foliculo ?estimulante|follicle`,
	`\bshbg\b`,
	`\bdhea`,
	`\bamh\b|antimulleriana|anti-mullerian`,
	`hemoglobina|hemoglobin`,
	`ferritina|ferritin`,
	`creatinina|creatinine`,
}

// PatternSet is a compiled list of case-insensitive name patterns.
type PatternSet struct {
	patterns []*regexp.Regexp
}

// CompilePatterns compiles case-insensitive patterns. Names are folded before
// matching, so patterns need no accents. An empty list means
// DefaultSexDependentPatterns.
func CompilePatterns(patterns []string) (*PatternSet, error) {
	if len(patterns) == 0 {
		patterns = DefaultSexDependentPatterns
	}

	set := &PatternSet{}
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}

		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		set.patterns = append(set.patterns, re)
	}

	return set, nil
}

// Match reports whether name matches any pattern.
func (s *PatternSet) Match(name string) bool {
	if s == nil {
		return false
	}

	folded := ranges.Fold(name)
	for _, re := range s.patterns {
		if re.MatchString(folded) {
			return true
		}
	}

	return false
}
