/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/humaidq/labranges/ranges"
)

// Seeder writes catalog entries and raw ranges.
type Seeder interface {
	UpsertParameter(ctx context.Context, p ranges.Parameter) error
	InsertRawRange(ctx context.Context, r ranges.RawRange) (uuid.UUID, error)
}

// SeedResult counts what Seed wrote.
type SeedResult struct {
	Parameters int
	Ranges     int
}

type seedRange struct {
	Sex    string
	AgeMin string
	AgeMax string
	Unit   string
	Lower  string
	Upper  string
	Text   string
}

type seedParameter struct {
	Parameter ranges.Parameter
	Ranges    []seedRange
}

func bucket(a AgeRange, sex, unit, lower, upper string) seedRange {
	b := a.Bounds()
	return seedRange{
		Sex:    sex,
		AgeMin: ranges.FormatNumber(b.Start),
		AgeMax: ranges.FormatNumber(b.End),
		Unit:   unit,
		Lower:  lower,
		Upper:  upper,
	}
}

func param(id, analysis string, category LabTestCategory, name string) ranges.Parameter {
	return ranges.Parameter{ID: id, Analysis: analysis, Category: string(category), Name: name}
}

// demoCatalog is a small catalog whose ranges carry the inconsistencies
// operators typically introduce: overlaps, inverted values, catch-all rows,
// spurious sex splits and missing age bands.
func demoCatalog() []seedParameter {
	return []seedParameter{
		{
			Parameter: param("hgb", "Complete Blood Count", CategoryBloodCounts, "Hemoglobin"),
			Ranges: []seedRange{
				bucket(AgePediatric, "Unisex", "g/dL", "10.0", "15.5"),
				bucket(AgeAdult, "Male", "g/dL", "13.2", "16.6"),
				bucket(AgeAdult, "Female", "g/dL", "11.6", "15.0"),
				bucket(AgeAdult, "Ambos", "g/dL", "12", "16"),
				bucket(AgeMiddleAge, "M", "g/dL", "13.0", "16.5"),
				bucket(AgeMiddleAge, "F", "g/dL", "11.5", "14.8"),
			},
		},
		{
			Parameter: param("wbc", "Complete Blood Count", CategoryBloodCounts, "White blood cells"),
			Ranges: []seedRange{
				{Sex: "", AgeMin: "0", AgeMax: "120", Unit: "×10³/μL", Lower: "4.5", Upper: "11.0"},
				bucket(AgePediatric, "", "×10³/μL", "4.5", "13.0"),
				bucket(AgeAdult, "", "×10³/μL", "4.5", "11.0"),
				bucket(AgeMiddleAge, "", "×10³/μL", "4.5", "11.0"),
				{Sex: "", AgeMin: "120", AgeMax: "65", Unit: "×10³/μL", Lower: "10,5", Upper: "4,0"},
			},
		},
		{
			Parameter: param("glu", "Metabolic Panel", CategoryMetabolic, "Glucose fasting FBS"),
			Ranges: []seedRange{
				{Sex: "Unisex", AgeMin: "0", AgeMax: "50", Unit: "mg/dL", Lower: "70", Upper: "99"},
				{Sex: "Unisex", AgeMin: "45", AgeMax: "120", Unit: "mg/dL", Lower: "70", Upper: "100"},
			},
		},
		{
			Parameter: param("crea", "Metabolic Panel", CategoryMetabolic, "Creatinine"),
			Ranges: []seedRange{
				{Sex: "Masculino", AgeMin: "18", AgeMax: "120", Unit: "mg/dL", Lower: "0.74", Upper: "1.35"},
				{Sex: "Femenino", AgeMin: "18", AgeMax: "120", Unit: "mg/dL", Lower: "0.59", Upper: "1.04"},
			},
		},
		{
			Parameter: param("chol", "Lipid Panel", CategoryLipidPanel, "Total Cholesterol"),
			Ranges: []seedRange{
				{Sex: "Male", AgeMin: "0", AgeMax: "120", Unit: "mg/dL", Lower: "0", Upper: "200"},
				{Sex: "Female", AgeMin: "0", AgeMax: "120", Unit: "mg/dL", Lower: "0", Upper: "200"},
				{Sex: "Unisex", AgeMin: "0", AgeMax: "120", Unit: "mg/dL", Lower: "0", Upper: "200"},
			},
		},
		{
			Parameter: param("tsh", "Thyroid Panel", CategoryHormones, "TSH"),
			Ranges: []seedRange{
				{AgeMin: "0", AgeMax: "18", Unit: "mIU/L", Lower: "0.7", Upper: "6.4"},
				{AgeMin: "25", AgeMax: "120", Unit: "mIU/L", Lower: "0.4", Upper: "4.5"},
			},
		},
		{
			Parameter: param("testo", "Hormone Panel", CategoryHormones, "Testosterone, Total"),
			Ranges: []seedRange{
				{AgeMin: "0", AgeMax: "120", Unit: "nmol/L", Lower: "8.6", Upper: "29"},
			},
		},
		{
			Parameter: param("hiv", "Serology", CategoryImmunology, "HIV 1/2 Antibodies"),
			Ranges: []seedRange{
				{AgeMin: "0", AgeMax: "120", Text: "No reactivo"},
			},
		},
		{
			Parameter: param("urine-color", "Urinalysis", CategoryUrinalysis, "Color"),
			Ranges: []seedRange{
				{AgeMin: "0", AgeMax: "120"},
			},
		},
		{
			Parameter: param("vitd", "Vitamins", CategoryMetabolic, "Vitamin D"),
		},
	}
}

// Seed loads the demo catalog.
func Seed(ctx context.Context, s Seeder) (SeedResult, error) {
	var res SeedResult

	for _, sp := range demoCatalog() {
		if err := s.UpsertParameter(ctx, sp.Parameter); err != nil {
			return res, err
		}
		res.Parameters++

		for _, r := range sp.Ranges {
			raw := ranges.RawRange{
				ParameterID: sp.Parameter.ID,
				Sex:         nullable(r.Sex),
				AgeMin:      nullable(r.AgeMin),
				AgeMax:      nullable(r.AgeMax),
				Unit:        nullable(r.Unit),
				Lower:       nullable(r.Lower),
				Upper:       nullable(r.Upper),
				TextValue:   nullable(r.Text),
				Origin:      string(ranges.OriginAuthored),
			}

			if _, err := s.InsertRawRange(ctx, raw); err != nil {
				return res, fmt.Errorf("failed to seed %s: %w", sp.Parameter.ID, err)
			}
			res.Ranges++
		}
	}

	logger.Info("Seeded demo catalog", "parameters", res.Parameters, "ranges", res.Ranges)

	return res, nil
}
