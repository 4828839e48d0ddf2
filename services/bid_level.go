package services

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// Bid is one vendor's price for a compared line.
type Bid struct {
	QuoteID    string  `json:"quote_id"`
	VendorID   string  `json:"vendor_id"`
	VendorName string  `json:"vendor_name"`
	Quantity   float64 `json:"quantity"`
	UOM        string  `json:"uom"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
	Lowest     bool    `json:"lowest"`
}

// ComparisonRow groups the bids that share an exact description.
type ComparisonRow struct {
	Description     string  `json:"description"`
	LowestUnitPrice float64 `json:"lowest_unit_price"`
	Bids            []Bid   `json:"bids"`
}

// BidComparison is the side-by-side view of every quote on a project.
type BidComparison struct {
	Rows []ComparisonRow `json:"rows"`
}

// CompareBids groups quote items by exact description and marks, in each
// group, every bid whose unit price equals the group minimum. Rows are
// ordered by description; bids keep quote order. Superseded revisions are
// left out.
func CompareBids(quotes []Quote) BidComparison {
	rows := groupBids(currentQuotes(quotes))
	for i := range rows {
		row := &rows[i]
		row.LowestUnitPrice = row.Bids[0].UnitPrice
		for _, b := range row.Bids[1:] {
			row.LowestUnitPrice = min(row.LowestUnitPrice, b.UnitPrice)
		}
		for j := range row.Bids {
			row.Bids[j].Lowest = row.Bids[j].UnitPrice == row.LowestUnitPrice
		}
	}
	return BidComparison{Rows: rows}
}

func groupBids(quotes []Quote) []ComparisonRow {
	index := make(map[string]int)
	var rows []ComparisonRow
	for _, q := range quotes {
		for _, item := range q.Items {
			i, ok := index[item.Description]
			if !ok {
				i = len(rows)
				index[item.Description] = i
				rows = append(rows, ComparisonRow{Description: item.Description})
			}
			rows[i].Bids = append(rows[i].Bids, Bid{
				QuoteID:    q.ID,
				VendorID:   q.VendorID,
				VendorName: q.VendorName,
				Quantity:   item.Quantity,
				UOM:        item.UOM,
				UnitPrice:  item.UnitPrice,
				TotalPrice: item.TotalPrice,
			})
		}
	}
	slices.SortStableFunc(rows, func(a, b ComparisonRow) int {
		return cmp.Compare(a.Description, b.Description)
	})
	return rows
}

// LevelGroup is the price spread of one description across vendors.
type LevelGroup struct {
	Description   string  `json:"description"`
	BidCount      int     `json:"bid_count"`
	LowestTotal   float64 `json:"lowest_total"`
	LowestVendor  string  `json:"lowest_vendor"`
	HighestTotal  float64 `json:"highest_total"`
	HighestVendor string  `json:"highest_vendor"`
}

// VendorTotal is the sum of one vendor's quoted grand totals on a project.
type VendorTotal struct {
	VendorID   string  `json:"vendor_id"`
	VendorName string  `json:"vendor_name"`
	QuoteCount int     `json:"quote_count"`
	Total      float64 `json:"total"`
}

// BidLeveling holds two separate answers to "who is cheapest".
//
// The item-level figures pick the lowest and highest bid per description and
// sum them, so LowestTotal may combine several vendors. The vendor-level
// figures compare whole quotes. The two can disagree.
type BidLeveling struct {
	Groups           []LevelGroup `json:"groups"`
	LowestTotal      float64      `json:"lowest_total"`
	HighestTotal     float64      `json:"highest_total"`
	PotentialSavings float64      `json:"potential_savings"`

	Vendors             []VendorTotal `json:"vendors"`
	CheapestVendor      *VendorTotal  `json:"cheapest_vendor"`
	MostExpensiveVendor *VendorTotal  `json:"most_expensive_vendor"`
}

// LevelBids computes item-level and vendor-level leveling for a project's
// quotes. Only the latest revision per RFQ counts. An empty input yields zero
// totals and nil vendor picks.
func LevelBids(quotes []Quote) BidLeveling {
	var lv BidLeveling
	quotes = currentQuotes(quotes)

	for _, row := range groupBids(quotes) {
		g := LevelGroup{
			Description:   row.Description,
			BidCount:      len(row.Bids),
			LowestTotal:   row.Bids[0].TotalPrice,
			LowestVendor:  row.Bids[0].VendorName,
			HighestTotal:  row.Bids[0].TotalPrice,
			HighestVendor: row.Bids[0].VendorName,
		}
		for _, b := range row.Bids[1:] {
			if b.TotalPrice < g.LowestTotal {
				g.LowestTotal, g.LowestVendor = b.TotalPrice, b.VendorName
			}
			if b.TotalPrice > g.HighestTotal {
				g.HighestTotal, g.HighestVendor = b.TotalPrice, b.VendorName
			}
		}
		lv.Groups = append(lv.Groups, g)
		lv.LowestTotal += g.LowestTotal
		lv.HighestTotal += g.HighestTotal
	}
	lv.LowestTotal = roundTo(lv.LowestTotal, 2)
	lv.HighestTotal = roundTo(lv.HighestTotal, 2)
	lv.PotentialSavings = roundTo(lv.HighestTotal-lv.LowestTotal, 2)

	lv.Vendors = vendorTotals(quotes)
	if n := len(lv.Vendors); n > 0 {
		lv.CheapestVendor = &lv.Vendors[0]
		lv.MostExpensiveVendor = &lv.Vendors[n-1]
	}
	return lv
}

// currentQuotes keeps, for each RFQ, only the quote with the highest
// revision; on a tie the later quote wins. Quotes without an RFQ are all
// kept. Input order is preserved.
func currentQuotes(quotes []Quote) []Quote {
	latest := make(map[string]int)
	for i, q := range quotes {
		if q.RFQID == "" {
			continue
		}
		if j, ok := latest[q.RFQID]; !ok || q.Revision >= quotes[j].Revision {
			latest[q.RFQID] = i
		}
	}
	out := make([]Quote, 0, len(quotes))
	for i, q := range quotes {
		if q.RFQID != "" && latest[q.RFQID] != i {
			continue
		}
		out = append(out, q)
	}
	return out
}

// vendorTotals sums quote totals per vendor, cheapest first.
func vendorTotals(quotes []Quote) []VendorTotal {
	index := make(map[string]int)
	var out []VendorTotal
	for _, q := range quotes {
		i, ok := index[q.VendorID]
		if !ok {
			i = len(out)
			index[q.VendorID] = i
			out = append(out, VendorTotal{VendorID: q.VendorID, VendorName: q.VendorName})
		}
		out[i].QuoteCount++
		out[i].Total = roundTo(out[i].Total+q.TotalAmount, 2)
	}
	slices.SortStableFunc(out, func(a, b VendorTotal) int {
		if c := cmp.Compare(a.Total, b.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.VendorName, b.VendorName)
	})
	return out
}

// LoadProjectQuotes returns every quote on a project with its items and
// vendor name, oldest first.
func LoadProjectQuotes(app core.App, projectID string) ([]Quote, error) {
	if _, err := app.FindRecordById("projects", projectID); err != nil {
		return nil, LookupErr(err, "project", projectID)
	}

	records, err := app.FindRecordsByFilter(
		"quotes",
		"project = {:project}",
		"created",
		0, 0,
		dbx.Params{"project": projectID},
	)
	if err != nil {
		return nil, fmt.Errorf("load quotes: %w", err)
	}
	if len(records) == 0 {
		return []Quote{}, nil
	}

	itemRecords, err := app.FindRecordsByFilter(
		"quote_items",
		"quote.project = {:project}",
		"",
		0, 0,
		dbx.Params{"project": projectID},
	)
	if err != nil {
		return nil, fmt.Errorf("load quote items: %w", err)
	}
	itemsByQuote := make(map[string][]QuoteItem)
	for _, rec := range itemRecords {
		item := quoteItemFromRecord(rec)
		itemsByQuote[item.QuoteID] = append(itemsByQuote[item.QuoteID], item)
	}

	vendorIDs := make([]string, 0, len(records))
	for _, rec := range records {
		vendorIDs = append(vendorIDs, rec.GetString("vendor"))
	}
	vendorRecords, err := app.FindRecordsByIds("vendors", vendorIDs)
	if err != nil {
		return nil, fmt.Errorf("load quote vendors: %w", err)
	}
	vendorNames := make(map[string]string, len(vendorRecords))
	for _, rec := range vendorRecords {
		vendorNames[rec.Id] = rec.GetString("name")
	}

	quotes := make([]Quote, 0, len(records))
	for _, rec := range records {
		q := quoteFromRecord(rec)
		q.VendorName = vendorNames[q.VendorID]
		q.Items = itemsByQuote[q.ID]
		if q.Items == nil {
			q.Items = []QuoteItem{}
		}
		quotes = append(quotes, *q)
	}
	return quotes, nil
}
