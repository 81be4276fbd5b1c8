// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := map[string]Format{"": FormatTable, "JSON": FormatJSON, "table": FormatTable, "html": FormatHTML}
	for name, want := range tests {
		got, err := ParseFormat(name)
		if err != nil {
			t.Fatalf("ParseFormat(%q) failed: %v", name, err)
		}
		if got != want {
			t.Fatalf("ParseFormat(%q): expected %q, got %q", name, want, got)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestParseDelimiter(t *testing.T) {
	t.Parallel()

	if r, err := ParseDelimiter(";"); err != nil || r != ';' {
		t.Fatalf("expected ';', got %q (%v)", r, err)
	}

	for _, bad := range []string{"", ";;", "\n", `"`} {
		if _, err := ParseDelimiter(bad); !errors.Is(err, ErrInvalidDelimiter) {
			t.Fatalf("expected ErrInvalidDelimiter for %q, got %v", bad, err)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	report := Audit(testCatalog(), testRanges(), Options{})

	var buf bytes.Buffer
	if err := WriteJSON(&buf, report); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var decoded struct {
		Findings []struct {
			Parameter string `json:"parameter"`
			Severity  string `json:"severity"`
		} `json:"findings"`
		Actionable int `json:"actionable"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}

	if decoded.Actionable != 4 || len(decoded.Findings) != 5 {
		t.Fatalf("expected 5 findings and 4 actionable, got %d and %d", len(decoded.Findings), decoded.Actionable)
	}

	if decoded.Findings[0].Severity != string(SeverityMissingRanges) {
		t.Fatalf("expected missing ranges first, got %q", decoded.Findings[0].Severity)
	}
}

func TestWriteJSONEmptyReport(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteJSON(&buf, Report{}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	if !strings.Contains(buf.String(), `"findings": []`) {
		t.Fatalf("expected an empty findings array, got %s", buf.String())
	}
}

func TestWriteTable(t *testing.T) {
	t.Parallel()

	report := Audit(testCatalog()[1:2], testRanges(), Options{})

	var buf bytes.Buffer
	if err := WriteTable(&buf, report, ';'); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, one finding and two counts, got %q", lines)
	}

	if !strings.HasPrefix(lines[0], "analysis;category;parameter;") {
		t.Fatalf("unexpected header %q", lines[0])
	}

	if !strings.Contains(lines[1], ";HIGH_MISSING_ALL;") {
		t.Fatalf("expected severity in row, got %q", lines[1])
	}

	if lines[3] != "actionable;1" {
		t.Fatalf("expected actionable count row, got %q", lines[3])
	}
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	report := Audit(testCatalog(), testRanges(), Options{})

	var buf bytes.Buffer
	if err := Render(&buf, report, FormatHTML, ','); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"<html", "echarts", "Vitamin D", "Reference range coverage"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected HTML to contain %q", want)
		}
	}
}
