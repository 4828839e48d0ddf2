package services

import (
	"testing"
	"time"
)

func TestGenerateLevelingExcel(t *testing.T) {
	quotes := levelFixture()
	for i := range quotes {
		quotes[i].Items[0].UOM = "SF"
	}
	data := LevelingExport{
		ProjectName: "Riverside Clinic",
		GeneratedAt: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Comparison:  CompareBids(quotes),
		Leveling:    LevelBids(quotes),
	}

	result, err := GenerateLevelingExcel(data)
	if err != nil {
		t.Fatalf("GenerateLevelingExcel() error = %v", err)
	}

	f := openWorkbook(t, result)

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Comparison" || sheets[1] != "Leveling" {
		t.Fatalf("sheets = %v, want [Comparison Leveling]", sheets)
	}

	tests := []struct {
		sheet, cell, want string
	}{
		{"Comparison", "A1", "Bid Leveling - Riverside Clinic"},
		{"Comparison", "A2", "Generated: 2026-03-15"},
		{"Comparison", "D4", "Acme Supply"},
		{"Comparison", "F4", "Coastal Trade"},
		{"Comparison", "A5", "Copper Pipe"},
		{"Comparison", "C5", "$12.00"},
		{"Comparison", "F5", "$12.00"},
		{"Comparison", "A6", "VCT Flooring"},
		{"Comparison", "E6", "$2.80"},
		{"Leveling", "A4", "Copper Pipe"},
		{"Leveling", "D4", "Coastal Trade"},
		{"Leveling", "C7", "$1,480.00"},
		{"Leveling", "C9", "$220.00"},
		{"Leveling", "A12", "Budget Build"},
	}
	for _, tt := range tests {
		t.Run(tt.sheet+"!"+tt.cell, func(t *testing.T) {
			got, _ := f.GetCellValue(tt.sheet, tt.cell)
			if got != tt.want {
				t.Errorf("%s!%s = %q, want %q", tt.sheet, tt.cell, got, tt.want)
			}
		})
	}
}

func TestGenerateLevelingExcel_Empty(t *testing.T) {
	result, err := GenerateLevelingExcel(LevelingExport{})
	if err != nil {
		t.Fatalf("GenerateLevelingExcel() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateLevelingExcel() returned empty bytes")
	}
}

func TestSanitizeExcelCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"=SUM(A1)", "'=SUM(A1)"},
		{"+1", "'+1"},
		{"-2", "'-2"},
		{"@cmd", "'@cmd"},
		{"Copper Pipe", "Copper Pipe"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeExcelCell(tt.in); got != tt.want {
			t.Errorf("sanitizeExcelCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
