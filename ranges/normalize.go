/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ranges

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// sexTokens maps folded labels, as operators type them, to a sex bucket.
var sexTokens = map[string]Sex{
	"m":         SexMale,
	"male":      SexMale,
	"man":       SexMale,
	"men":       SexMale,
	"masculino": SexMale,
	"masc":      SexMale,
	"hombre":    SexMale,
	"hombres":   SexMale,
	"h":         SexMale,
	"varon":     SexMale,
	"f":         SexFemale,
	"female":    SexFemale,
	"woman":     SexFemale,
	"women":     SexFemale,
	"femenino":  SexFemale,
	"fem":       SexFemale,
	"mujer":     SexFemale,
	"mujeres":   SexFemale,
	"unisex":    SexUnisex,
	"ambos":     SexUnisex,
	"both":      SexUnisex,
	"any":       SexUnisex,
	"todos":     SexUnisex,
	"mixto":     SexUnisex,
	"u":         SexUnisex,
}

// Fold lowercases s, trims it and strips diacritics so that "Varón" and
// "varon" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	return strings.ToLower(strings.TrimSpace(folded))
}

// NormalizeSex maps a free-text sex label to a bucket. Unknown or empty
// labels are Unisex.
func NormalizeSex(raw string) Sex {
	key := strings.Trim(Fold(raw), ".")
	if sex, ok := sexTokens[key]; ok {
		return sex
	}

	return SexUnisex
}

// CoerceAge parses an age in years. An empty value takes def; an unreadable or
// non-finite value yields nil. Results are clamped to the age domain.
func CoerceAge(raw string, def float64) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ptr(clampAge(def))
	}

	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}

	return ptr(clampAge(f))
}

func clampAge(f float64) float64 {
	return math.Min(math.Max(f, DomainMin), DomainMax)
}

// CoerceNumber parses a bound after dropping every character that cannot be
// part of a number, so "< 5,5 mg" reads as 5.5. Either '.' or ',' is the
// decimal separator; thousands separators are not supported, so "1.000,5"
// is unparseable. Exponent notation such as "1e3" is rejected. It returns nil
// when nothing parseable remains.
func CoerceNumber(raw string) *float64 {
	if hasExponent(raw) {
		return nil
	}

	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r == ',':
			b.WriteRune('.')
		}
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return nil
	}

	f, _ := d.Float64()

	return &f
}

// hasExponent reports whether raw holds a digit followed by e or E and then
// a digit or sign.
func hasExponent(raw string) bool {
	rs := []rune(raw)
	for i := 1; i+1 < len(rs); i++ {
		if rs[i] != 'e' && rs[i] != 'E' {
			continue
		}
		prev, next := rs[i-1], rs[i+1]
		if unicode.IsDigit(prev) && (unicode.IsDigit(next) || next == '+' || next == '-') {
			return true
		}
	}

	return false
}

// FormatNumber renders f without trailing zeros, the canonical text form the
// pipeline writes back to storage.
func FormatNumber(f float64) string {
	return decimal.NewFromFloat(f).String()
}

// HygieneSwap puts inverted ages and bounds back in order. It reports which
// pairs it swapped.
func HygieneSwap(r *Range) (agesSwapped, boundsSwapped bool) {
	if r.AgeMin != nil && r.AgeMax != nil && *r.AgeMin > *r.AgeMax {
		r.AgeMin, r.AgeMax = r.AgeMax, r.AgeMin
		agesSwapped = true
	}

	if r.Lower != nil && r.Upper != nil && *r.Lower > *r.Upper {
		r.Lower, r.Upper = r.Upper, r.Lower
		boundsSwapped = true
	}

	return agesSwapped, boundsSwapped
}

// Hygiene records which pairs of a row were stored inverted.
type Hygiene struct {
	AgesSwapped   bool
	BoundsSwapped bool
}

// Any reports whether either pair was swapped.
func (h Hygiene) Any() bool {
	return h.AgesSwapped || h.BoundsSwapped
}

// Normalize interprets a stored row. Hygiene is applied, so the result always
// satisfies AgeMin <= AgeMax and Lower <= Upper when both are present.
func Normalize(raw RawRange, order int) (Range, Hygiene) {
	r := Range{
		ID:          raw.ID,
		ParameterID: strings.TrimSpace(raw.ParameterID),
		Sex:         NormalizeSex(deref(raw.Sex)),
		AgeMin:      CoerceAge(deref(raw.AgeMin), DomainMin),
		AgeMax:      CoerceAge(deref(raw.AgeMax), DomainMax),
		Unit:        strings.TrimSpace(deref(raw.Unit)),
		Method:      strings.TrimSpace(deref(raw.Method)),
		Lower:       CoerceNumber(deref(raw.Lower)),
		Upper:       CoerceNumber(deref(raw.Upper)),
		Origin:      Origin(raw.Origin),
		Order:       order,
	}

	if text := strings.TrimSpace(deref(raw.TextValue)); text != "" {
		r.Text = &text
	}

	if r.Origin == "" {
		r.Origin = OriginAuthored
	}

	var h Hygiene
	h.AgesSwapped, h.BoundsSwapped = HygieneSwap(&r)

	return r, h
}

// NormalizeAll normalizes rows, keeping their order as the tie-break order.
func NormalizeAll(raws []RawRange) []Range {
	out := make([]Range, 0, len(raws))
	for i, raw := range raws {
		r, _ := Normalize(raw, i)
		out = append(out, r)
	}

	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
