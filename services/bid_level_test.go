package services

import (
	"errors"
	"slices"
	"testing"

	"bidprep/testhelpers"
)

func levelFixture() []Quote {
	return []Quote{
		{
			ID: "q1", VendorID: "v1", VendorName: "Acme Supply", TotalAmount: 1650,
			Items: []QuoteItem{
				{Description: "VCT Flooring", Quantity: 100, UnitPrice: 3.50, TotalPrice: 350},
				{Description: "Copper Pipe", Quantity: 100, UnitPrice: 13.00, TotalPrice: 1300},
			},
		},
		{
			ID: "q2", VendorID: "v2", VendorName: "Budget Build", TotalAmount: 1580,
			Items: []QuoteItem{
				{Description: "VCT Flooring", Quantity: 100, UnitPrice: 2.80, TotalPrice: 280},
				{Description: "Copper Pipe", Quantity: 100, UnitPrice: 13.00, TotalPrice: 1300},
			},
		},
		{
			ID: "q3", VendorID: "v3", VendorName: "Coastal Trade", TotalAmount: 1600,
			Items: []QuoteItem{
				{Description: "VCT Flooring", Quantity: 100, UnitPrice: 4.00, TotalPrice: 400},
				{Description: "Copper Pipe", Quantity: 100, UnitPrice: 12.00, TotalPrice: 1200},
			},
		},
	}
}

func TestCompareBids(t *testing.T) {
	cmp := CompareBids(levelFixture())
	if len(cmp.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(cmp.Rows))
	}

	tests := []struct {
		row        int
		desc       string
		lowest     float64
		wantLowest []bool
	}{
		{0, "Copper Pipe", 12.00, []bool{false, false, true}},
		{1, "VCT Flooring", 2.80, []bool{false, true, false}},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			row := cmp.Rows[tt.row]
			if row.Description != tt.desc {
				t.Fatalf("row %d = %q, want %q", tt.row, row.Description, tt.desc)
			}
			if row.LowestUnitPrice != tt.lowest {
				t.Errorf("LowestUnitPrice = %v, want %v", row.LowestUnitPrice, tt.lowest)
			}
			for i, b := range row.Bids {
				if b.Lowest != tt.wantLowest[i] {
					t.Errorf("bid %s Lowest = %v, want %v", b.VendorName, b.Lowest, tt.wantLowest[i])
				}
			}
		})
	}
}

func TestCompareBids_TiesAllMarked(t *testing.T) {
	quotes := []Quote{
		{ID: "q1", VendorName: "A", Items: []QuoteItem{{Description: "Pipe", UnitPrice: 5}}},
		{ID: "q2", VendorName: "B", Items: []QuoteItem{{Description: "Pipe", UnitPrice: 5}}},
		{ID: "q3", VendorName: "C", Items: []QuoteItem{{Description: "pipe", UnitPrice: 1}}},
	}
	cmp := CompareBids(quotes)
	// Descriptions group exactly, so "pipe" is its own row.
	if len(cmp.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(cmp.Rows))
	}
	for _, b := range cmp.Rows[0].Bids {
		if !b.Lowest {
			t.Errorf("tied bid %s not marked lowest", b.VendorName)
		}
	}
}

func TestCompareBids_LowestEqualsGroupMinimum(t *testing.T) {
	for _, row := range CompareBids(levelFixture()).Rows {
		minPrice := row.Bids[0].UnitPrice
		for _, b := range row.Bids {
			minPrice = min(minPrice, b.UnitPrice)
		}
		for _, b := range row.Bids {
			if b.Lowest && b.UnitPrice != minPrice {
				t.Errorf("%s: bid %v marked lowest but minimum is %v", row.Description, b.UnitPrice, minPrice)
			}
		}
	}
}

func TestLevelBids(t *testing.T) {
	lv := LevelBids(levelFixture())

	// Flooring: min 280 (Budget), max 400 (Coastal).
	// Pipe: min 1200 (Coastal), max 1300 (Acme first seen).
	if lv.LowestTotal != 1480 {
		t.Errorf("LowestTotal = %v, want 1480", lv.LowestTotal)
	}
	if lv.HighestTotal != 1700 {
		t.Errorf("HighestTotal = %v, want 1700", lv.HighestTotal)
	}
	if lv.PotentialSavings != 220 {
		t.Errorf("PotentialSavings = %v, want 220", lv.PotentialSavings)
	}
	if lv.Groups[0].LowestVendor != "Coastal Trade" || lv.Groups[0].HighestVendor != "Acme Supply" {
		t.Errorf("pipe group = %+v", lv.Groups[0])
	}

	// The cheapest single quote is not the vendor holding most item-level minima.
	if lv.CheapestVendor == nil || lv.CheapestVendor.VendorName != "Budget Build" {
		t.Errorf("CheapestVendor = %+v, want Budget Build", lv.CheapestVendor)
	}
	if lv.MostExpensiveVendor == nil || lv.MostExpensiveVendor.VendorName != "Acme Supply" {
		t.Errorf("MostExpensiveVendor = %+v, want Acme Supply", lv.MostExpensiveVendor)
	}
	if len(lv.Vendors) != 3 {
		t.Errorf("expected 3 vendor totals, got %d", len(lv.Vendors))
	}
}

func TestLevelBids_SavingsNeverNegative(t *testing.T) {
	tests := []struct {
		name   string
		quotes []Quote
	}{
		{"fixture", levelFixture()},
		{"single bid", []Quote{{ID: "q", Items: []QuoteItem{{Description: "X", TotalPrice: 10}}}}},
		{"zero prices", []Quote{
			{ID: "a", Items: []QuoteItem{{Description: "X"}}},
			{ID: "b", Items: []QuoteItem{{Description: "X"}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lv := LevelBids(tt.quotes)
			if lv.PotentialSavings < 0 {
				t.Errorf("PotentialSavings = %v, want >= 0", lv.PotentialSavings)
			}
			if lv.PotentialSavings != roundTo(lv.HighestTotal-lv.LowestTotal, 2) {
				t.Errorf("PotentialSavings = %v, want highest - lowest", lv.PotentialSavings)
			}
		})
	}
}

func TestLevelBids_Empty(t *testing.T) {
	lv := LevelBids(nil)
	if lv.LowestTotal != 0 || lv.HighestTotal != 0 || lv.PotentialSavings != 0 {
		t.Errorf("expected zero totals, got %+v", lv)
	}
	if lv.CheapestVendor != nil || lv.MostExpensiveVendor != nil {
		t.Error("expected nil vendor picks for no quotes")
	}
}

func TestLevelBids_SumsQuotesPerVendor(t *testing.T) {
	quotes := []Quote{
		{ID: "q1", VendorID: "v1", VendorName: "A", TotalAmount: 100},
		{ID: "q2", VendorID: "v1", VendorName: "A", TotalAmount: 150},
		{ID: "q3", VendorID: "v2", VendorName: "B", TotalAmount: 200},
	}
	lv := LevelBids(quotes)
	if lv.CheapestVendor.VendorName != "B" {
		t.Errorf("CheapestVendor = %q, want B", lv.CheapestVendor.VendorName)
	}
	if lv.MostExpensiveVendor.Total != 250 || lv.MostExpensiveVendor.QuoteCount != 2 {
		t.Errorf("MostExpensiveVendor = %+v, want A with 250 over 2 quotes", lv.MostExpensiveVendor)
	}
}

func TestLevelBids_RevisedQuoteReplacesEarlier(t *testing.T) {
	quotes := []Quote{
		{ID: "q1", VendorID: "v1", VendorName: "Acme", RFQID: "r1", Revision: 1, TotalAmount: 1000,
			Items: []QuoteItem{{Description: "Copper Pipe", Quantity: 100, UnitPrice: 10, TotalPrice: 1000}}},
		{ID: "q2", VendorID: "v2", VendorName: "Beta", RFQID: "r2", Revision: 1, TotalAmount: 1200,
			Items: []QuoteItem{{Description: "Copper Pipe", Quantity: 100, UnitPrice: 12, TotalPrice: 1200}}},
		{ID: "q3", VendorID: "v1", VendorName: "Acme", RFQID: "r1", Revision: 2, TotalAmount: 900,
			Items: []QuoteItem{{Description: "Copper Pipe", Quantity: 100, UnitPrice: 9, TotalPrice: 900}}},
	}

	lv := LevelBids(quotes)
	if lv.CheapestVendor == nil || lv.CheapestVendor.VendorName != "Acme" {
		t.Fatalf("CheapestVendor = %+v, want Acme", lv.CheapestVendor)
	}
	if lv.CheapestVendor.Total != 900 || lv.CheapestVendor.QuoteCount != 1 {
		t.Errorf("CheapestVendor = %+v, want 900 over 1 quote", lv.CheapestVendor)
	}
	if len(lv.Groups) != 1 || lv.Groups[0].BidCount != 2 {
		t.Fatalf("Groups = %+v, want one group with 2 bids", lv.Groups)
	}
	if lv.LowestTotal != 900 || lv.HighestTotal != 1200 {
		t.Errorf("LowestTotal = %v, HighestTotal = %v, want 900 and 1200", lv.LowestTotal, lv.HighestTotal)
	}

	cmp := CompareBids(quotes)
	if len(cmp.Rows) != 1 || len(cmp.Rows[0].Bids) != 2 {
		t.Fatalf("Rows = %+v, want one row with 2 bids", cmp.Rows)
	}
	for _, b := range cmp.Rows[0].Bids {
		if b.QuoteID == "q1" {
			t.Error("superseded quote q1 still compared")
		}
	}
}

func TestCurrentQuotes(t *testing.T) {
	tests := []struct {
		name   string
		quotes []Quote
		want   []string
	}{
		{
			name: "no rfq keeps all",
			quotes: []Quote{
				{ID: "a", VendorID: "v1"},
				{ID: "b", VendorID: "v1"},
			},
			want: []string{"a", "b"},
		},
		{
			name: "highest revision wins regardless of order",
			quotes: []Quote{
				{ID: "a", RFQID: "r1", Revision: 2},
				{ID: "b", RFQID: "r1", Revision: 1},
			},
			want: []string{"a"},
		},
		{
			name: "equal revisions keep the later quote",
			quotes: []Quote{
				{ID: "a", RFQID: "r1"},
				{ID: "b", RFQID: "r2"},
				{ID: "c", RFQID: "r1"},
			},
			want: []string{"b", "c"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := currentQuotes(tt.quotes)
			ids := make([]string, 0, len(got))
			for _, q := range got {
				ids = append(ids, q.ID)
			}
			if !slices.Equal(ids, tt.want) {
				t.Errorf("currentQuotes() = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestLoadProjectQuotes(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Level Project")
	other := testhelpers.CreateTestProject(t, app, "Other Project")
	v1 := testhelpers.CreateTestVendor(t, app, "Acme Supply", "MATERIAL_SUPPLIER", []string{"A"})
	v2 := testhelpers.CreateTestVendor(t, app, "Budget Build", "MATERIAL_SUPPLIER", []string{"A"})

	q1 := testhelpers.CreateTestQuote(t, app, proj.Id, v1.Id, "", "RECEIVED", 350)
	testhelpers.CreateTestQuoteItem(t, app, q1.Id, "", "VCT Flooring", 100, 3.5)
	q2 := testhelpers.CreateTestQuote(t, app, proj.Id, v2.Id, "", "RECEIVED", 280)
	testhelpers.CreateTestQuoteItem(t, app, q2.Id, "", "VCT Flooring", 100, 2.8)
	testhelpers.CreateTestQuote(t, app, other.Id, v1.Id, "", "RECEIVED", 999)

	quotes, err := LoadProjectQuotes(app, proj.Id)
	if err != nil {
		t.Fatalf("LoadProjectQuotes() error: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}
	names := map[string]bool{}
	for _, q := range quotes {
		names[q.VendorName] = true
		if len(q.Items) != 1 {
			t.Errorf("quote %s has %d items, want 1", q.ID, len(q.Items))
		}
	}
	if !names["Acme Supply"] || !names["Budget Build"] {
		t.Errorf("vendor names = %v", names)
	}

	lv := LevelBids(quotes)
	if lv.PotentialSavings != 70 {
		t.Errorf("PotentialSavings = %v, want 70", lv.PotentialSavings)
	}
}

func TestLoadProjectQuotes_UnknownProject(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if _, err := LoadProjectQuotes(app, "missingproject1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
