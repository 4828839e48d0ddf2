package services

import (
	"errors"
	"math"
	"testing"
)

func sheetRow(pairs ...string) SheetRow {
	row := make(SheetRow, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		row = append(row, SheetCell{Header: pairs[i], Value: pairs[i+1]})
	}
	return row
}

// staticDecoder returns the same rows for every attachment.
func staticDecoder(rows []SheetRow, err error) SheetDecoder {
	return func(Attachment) ([]SheetRow, error) { return rows, err }
}

func TestParseQuote_StructuredRoundTrip(t *testing.T) {
	rows := []SheetRow{sheetRow("Description", "Copper Pipe 1in", "Quantity", "10", "Unit Price", "5.00")}

	lines, method, err := ParseQuote(QuotePayload{Attachments: []Attachment{{Name: "q.csv"}}}, staticDecoder(rows, nil))
	if err != nil {
		t.Fatalf("ParseQuote() error: %v", err)
	}
	if method != ParseStructured {
		t.Errorf("method = %q, want STRUCTURED", method)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].TotalPrice != 50 {
		t.Errorf("TotalPrice = %v, want 50", lines[0].TotalPrice)
	}
	if lines[0].Description != "Copper Pipe 1in" {
		t.Errorf("Description = %q", lines[0].Description)
	}
}

func TestParseSheetRows_HeaderSynonyms(t *testing.T) {
	tests := []struct {
		name       string
		row        SheetRow
		wantLines  int
		wantDesc   string
		wantQty    float64
		wantUnit   float64
		wantTotal  float64
		wantUOM    string
		wantSKU    string
		wantLeadTm int
	}{
		{
			name:      "qty and price synonyms",
			row:       sheetRow("Item", "VCT Flooring", "Qty", "1,100", "U/M", "sq ft", "Price", "$3.25"),
			wantLines: 1, wantDesc: "VCT Flooring", wantQty: 1100, wantUnit: 3.25, wantTotal: 3575, wantUOM: "SF",
		},
		{
			name:      "explicit total kept",
			row:       sheetRow("DESCRIPTION", "Pipe Fittings", "QUANTITY", "15", "Unit_Cost", "2.10", "Extended Price", "30.00"),
			wantLines: 1, wantDesc: "Pipe Fittings", wantQty: 15, wantUnit: 2.10, wantTotal: 30, wantUOM: "EA",
		},
		{
			name:      "missing quantity defaults to one",
			row:       sheetRow("Material", "Packaged Rooftop Unit", "Rate", "14,250.00"),
			wantLines: 1, wantDesc: "Packaged Rooftop Unit", wantQty: 1, wantUnit: 14250, wantTotal: 14250, wantUOM: "EA",
		},
		{
			name:      "sku and lead time",
			row:       sheetRow("Part #", "CU-L-1", "Unit Price", "4.80", "Lead Time (days)", "7"),
			wantLines: 1, wantDesc: "CU-L-1", wantQty: 1, wantUnit: 4.8, wantTotal: 4.8, wantUOM: "EA", wantSKU: "CU-L-1", wantLeadTm: 7,
		},
		{
			name:      "zero price dropped",
			row:       sheetRow("Description", "Freight", "Unit Price", "0"),
			wantLines: 0,
		},
		{
			name:      "leading dot price",
			row:       sheetRow("Description", "Brass Washer", "Qty", "40", "Unit Price", "$.99"),
			wantLines: 1, wantDesc: "Brass Washer", wantQty: 40, wantUnit: 0.99, wantTotal: 39.6, wantUOM: "EA",
		},
		{
			name:      "negative price dropped",
			row:       sheetRow("Description", "Restocking Credit", "Unit Price", "-25.00"),
			wantLines: 0,
		},
		{
			name:      "negative dollar price dropped",
			row:       sheetRow("Description", "Restocking Credit", "Unit Price", "-$25.00"),
			wantLines: 0,
		},
		{
			name:      "negative total dropped",
			row:       sheetRow("Description", "Return", "Qty", "2", "Unit Price", "10", "Total", "-20"),
			wantLines: 0,
		},
		{
			name:      "negative quantity dropped",
			row:       sheetRow("Description", "Return", "Qty", "-2", "Unit Price", "10"),
			wantLines: 0,
		},
		{
			name:      "no price column dropped",
			row:       sheetRow("Description", "Note", "Comments", "call us"),
			wantLines: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := parseSheetRows([]SheetRow{tt.row})
			if len(lines) != tt.wantLines {
				t.Fatalf("lines = %d, want %d", len(lines), tt.wantLines)
			}
			if tt.wantLines == 0 {
				return
			}
			l := lines[0]
			if l.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", l.Description, tt.wantDesc)
			}
			if l.Quantity != tt.wantQty {
				t.Errorf("Quantity = %v, want %v", l.Quantity, tt.wantQty)
			}
			if math.Abs(l.UnitPrice-tt.wantUnit) > 0.0001 {
				t.Errorf("UnitPrice = %v, want %v", l.UnitPrice, tt.wantUnit)
			}
			if math.Abs(l.TotalPrice-tt.wantTotal) > 0.001 {
				t.Errorf("TotalPrice = %v, want %v", l.TotalPrice, tt.wantTotal)
			}
			if l.UOM != tt.wantUOM {
				t.Errorf("UOM = %q, want %q", l.UOM, tt.wantUOM)
			}
			if l.SKU != tt.wantSKU {
				t.Errorf("SKU = %q, want %q", l.SKU, tt.wantSKU)
			}
			if l.LeadTimeDays != tt.wantLeadTm {
				t.Errorf("LeadTimeDays = %d, want %d", l.LeadTimeDays, tt.wantLeadTm)
			}
		})
	}
}

func TestParseQuote_FreeTextScenario(t *testing.T) {
	lines, method, err := ParseQuote(QuotePayload{Text: "VCT Flooring - $3.50"}, nil)
	if err != nil {
		t.Fatalf("ParseQuote() error: %v", err)
	}
	if method != ParseFreeText {
		t.Errorf("method = %q, want FREE_TEXT", method)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	l := lines[0]
	if l.Description != "VCT Flooring " {
		t.Errorf("Description = %q, want %q", l.Description, "VCT Flooring ")
	}
	if l.UnitPrice != 3.50 {
		t.Errorf("UnitPrice = %v, want 3.50", l.UnitPrice)
	}
	if l.Quantity != 1 {
		t.Errorf("Quantity = %v, want 1", l.Quantity)
	}
	if l.UOM != "EA" {
		t.Errorf("UOM = %q, want EA", l.UOM)
	}
}

func TestParseFreeText(t *testing.T) {
	text := "Hi team,\r\n" +
		"Please see pricing below.\n" +
		"Copper Pipe Type L 1in - $4.85/ft\n" +
		"2x2 Ceiling Tile - 2.40\n" +
		"Packaged Rooftop Unit - $13,900.00 (6 wk lead)\n" +
		"\n" +
		"Total: $14,000\n" +
		"Thanks!"

	lines := parseFreeText(text)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %+v", len(lines), lines)
	}

	tests := []struct {
		desc  string
		price float64
	}{
		{"Copper Pipe Type L 1in ", 4.85},
		{"2x2 Ceiling Tile ", 2.40},
		{"Packaged Rooftop Unit ", 13900},
	}
	for i, tt := range tests {
		if lines[i].Description != tt.desc {
			t.Errorf("line %d Description = %q, want %q", i, lines[i].Description, tt.desc)
		}
		if lines[i].UnitPrice != tt.price {
			t.Errorf("line %d UnitPrice = %v, want %v", i, lines[i].UnitPrice, tt.price)
		}
		if lines[i].TotalPrice != tt.price {
			t.Errorf("line %d TotalPrice = %v, want %v", i, lines[i].TotalPrice, tt.price)
		}
	}
}

func TestFreeTextPrice(t *testing.T) {
	tests := []struct {
		line   string
		want   float64
		wantOK bool
	}{
		{"Brass Washer - $.99", 0.99, true},
		{"Brass Washer - .75", 0.75, true},
		{"Brass Washer - 0.75", 0.75, true},
		{"Copper Pipe - $1,234.50", 1234.5, true},
		{"Restocking Credit -$25.00", -25, true},
		{"Gasket 12", 12, true},
		{"No price here", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := freeTextPrice(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("freeTextPrice(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if math.Abs(got-tt.want) > 0.0001 {
				t.Errorf("freeTextPrice(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseQuote_FreeTextDecimalsAndCredits(t *testing.T) {
	text := "Brass Washer - $.99\n" +
		"Rubber Gasket - .75\n" +
		"Restocking Credit -$25.00\n"

	lines, method, err := ParseQuote(QuotePayload{Text: text}, nil)
	if err != nil {
		t.Fatalf("ParseQuote() error: %v", err)
	}
	if method != ParseFreeText {
		t.Errorf("method = %q, want FREE_TEXT", method)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines (credit skipped), got %d: %+v", len(lines), lines)
	}
	if math.Abs(lines[0].UnitPrice-0.99) > 0.0001 {
		t.Errorf("washer UnitPrice = %v, want 0.99", lines[0].UnitPrice)
	}
	if math.Abs(lines[1].UnitPrice-0.75) > 0.0001 {
		t.Errorf("gasket UnitPrice = %v, want 0.75", lines[1].UnitPrice)
	}
}

func TestParseQuote_FallsBackToText(t *testing.T) {
	payload := QuotePayload{
		Text:        "PVC DWV Pipe - $2.15",
		Attachments: []Attachment{{Name: "scan.pdf"}},
	}
	lines, method, err := ParseQuote(payload, staticDecoder(nil, ErrInvalidInput))
	if err != nil {
		t.Fatalf("ParseQuote() error: %v", err)
	}
	if method != ParseFreeText || len(lines) != 1 {
		t.Errorf("method = %q, lines = %d; want FREE_TEXT with 1 line", method, len(lines))
	}
}

func TestParseQuote_Unparseable(t *testing.T) {
	tests := []struct {
		name    string
		payload QuotePayload
	}{
		{"empty", QuotePayload{}},
		{"no prices", QuotePayload{Text: "We will get back to you next week."}},
		{"sheet without prices", QuotePayload{Attachments: []Attachment{{Name: "q.csv"}}}},
	}

	decoder := staticDecoder([]SheetRow{sheetRow("Description", "Pipe", "Notes", "TBD")}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseQuote(tt.payload, decoder)
			if !errors.Is(err, ErrUnparseableQuote) {
				t.Errorf("ParseQuote() error = %v, want ErrUnparseableQuote", err)
			}
		})
	}
}

func TestMatchQuoteLines(t *testing.T) {
	candidates := []RFQLine{
		{BOMItem: BOMLineItem{ID: "b1", Description: "Copper Pipe Type L 1in"}, SKU: "CU-L-1"},
		{BOMItem: BOMLineItem{ID: "b2", Description: "VCT Flooring"}, SKU: "FLR-VCT-12"},
		{BOMItem: BOMLineItem{ID: "b3", Description: "Packaged Rooftop Unit"}, SKU: "RTU-PKG"},
	}

	tests := []struct {
		name    string
		line    ParsedQuoteLine
		wantBOM string
	}{
		{"sku wins over description", ParsedQuoteLine{SKU: "RTU-PKG", Description: "VCT Flooring"}, "b3"},
		{"quote text contains bom text", ParsedQuoteLine{Description: "Armstrong VCT Flooring 12x12"}, "b2"},
		{"bom text contains quote text", ParsedQuoteLine{Description: "rooftop unit"}, "b3"},
		{"case insensitive", ParsedQuoteLine{Description: "COPPER PIPE TYPE L 1IN"}, "b1"},
		{"pre-hyphen whitespace tolerated", ParsedQuoteLine{Description: "VCT Flooring "}, "b2"},
		{"unknown sku falls back to text", ParsedQuoteLine{SKU: "ZZZ", Description: "VCT Flooring"}, "b2"},
		{"no match", ParsedQuoteLine{Description: "Drywall Screws"}, ""},
		{"blank description", ParsedQuoteLine{Description: "  "}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, unmatched := MatchQuoteLines([]ParsedQuoteLine{tt.line}, candidates)
			if tt.wantBOM == "" {
				if len(matched) != 0 || len(unmatched) != 1 {
					t.Errorf("matched=%d unmatched=%d, want 0/1", len(matched), len(unmatched))
				}
				return
			}
			if len(matched) != 1 {
				t.Fatalf("expected a match, got none")
			}
			if matched[0].BOMItem.ID != tt.wantBOM {
				t.Errorf("matched %q, want %q", matched[0].BOMItem.ID, tt.wantBOM)
			}
		})
	}
}
