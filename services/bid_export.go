package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	comparisonSheet = "Comparison"
	levelingSheet   = "Leveling"
)

// LevelingExport holds everything written to the leveling workbook.
type LevelingExport struct {
	ProjectName string
	GeneratedAt time.Time
	Comparison  BidComparison
	Leveling    BidLeveling
}

type levelingStyles struct {
	title, header, cell, lowest, label, value int
}

// GenerateLevelingExcel writes a two-sheet workbook: a side-by-side unit
// price comparison with the lowest bids highlighted, and the item-level and
// vendor-level leveling summary.
func GenerateLevelingExcel(data LevelingExport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), comparisonSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	if _, err := f.NewSheet(levelingSheet); err != nil {
		return nil, fmt.Errorf("create leveling sheet: %w", err)
	}

	styles, err := newLevelingStyles(f)
	if err != nil {
		return nil, err
	}

	title := "Bid Leveling"
	if data.ProjectName != "" {
		title += " - " + data.ProjectName
	}
	generated := data.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	if err := writeComparisonSheet(f, styles, title, generated, data.Comparison); err != nil {
		return nil, err
	}
	if err := writeLevelingSheet(f, styles, title, data.Leveling); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func newLevelingStyles(f *excelize.File) (levelingStyles, error) {
	var s levelingStyles
	defs := []struct {
		dst   *int
		name  string
		style *excelize.Style
	}{
		{&s.title, "title", &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}},
		{&s.header, "header", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    thinBorders(),
		}},
		{&s.cell, "cell", &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}},
		{&s.lowest, "lowest", &excelize.Style{
			Font:   &excelize.Font{Bold: true, Size: 10, Color: "#006100"},
			Fill:   excelize.Fill{Type: "pattern", Color: []string{"#C6EFCE"}, Pattern: 1},
			Border: thinBorders(),
		}},
		{&s.label, "summary label", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11},
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		{&s.value, "summary value", &excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, fmt.Errorf("create %s style: %w", d.name, err)
		}
		*d.dst = id
	}
	return s, nil
}

// comparisonVendor is a vendor column in the comparison sheet.
type comparisonVendor struct {
	id, name string
}

func comparisonVendors(c BidComparison) []comparisonVendor {
	seen := make(map[string]bool)
	var out []comparisonVendor
	for _, row := range c.Rows {
		for _, b := range row.Bids {
			if seen[b.VendorID] {
				continue
			}
			seen[b.VendorID] = true
			out = append(out, comparisonVendor{id: b.VendorID, name: b.VendorName})
		}
	}
	return out
}

func writeComparisonSheet(f *excelize.File, s levelingStyles, title string, generated time.Time, c BidComparison) error {
	sheet := comparisonSheet
	vendors := comparisonVendors(c)
	lastCol, err := excelize.ColumnNumberToName(len(vendors) + 3)
	if err != nil {
		return fmt.Errorf("comparison columns: %w", err)
	}

	f.SetCellValue(sheet, "A1", sanitizeExcelCell(title))
	f.SetCellStyle(sheet, "A1", "A1", s.title)
	f.SetCellValue(sheet, "A2", "Generated: "+generated.Format("2006-01-02"))

	header := []any{"Description", "UOM", "Lowest Unit Price"}
	for _, v := range vendors {
		header = append(header, sanitizeExcelCell(v.name))
	}
	if err := f.SetSheetRow(sheet, "A4", &header); err != nil {
		return fmt.Errorf("write comparison header: %w", err)
	}
	f.SetCellStyle(sheet, "A4", lastCol+"4", s.header)
	f.SetColWidth(sheet, "A", "A", 40)
	f.SetColWidth(sheet, "B", lastCol, 16)

	for i, row := range c.Rows {
		r := i + 5
		uom := ""
		if len(row.Bids) > 0 {
			uom = row.Bids[0].UOM
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", r), sanitizeExcelCell(row.Description))
		f.SetCellValue(sheet, fmt.Sprintf("B%d", r), sanitizeExcelCell(uom))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", r), FormatUSD(row.LowestUnitPrice))
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", r), fmt.Sprintf("%s%d", lastCol, r), s.cell)

		for j, v := range vendors {
			bid, ok := vendorBid(row, v.id)
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(j+4, r)
			f.SetCellValue(sheet, cell, FormatUSD(bid.UnitPrice))
			if bid.Lowest {
				f.SetCellStyle(sheet, cell, cell, s.lowest)
			}
		}
	}
	return nil
}

// vendorBid returns the vendor's cheapest bid in a row.
func vendorBid(row ComparisonRow, vendorID string) (Bid, bool) {
	var best Bid
	found := false
	for _, b := range row.Bids {
		if b.VendorID != vendorID {
			continue
		}
		if !found || b.UnitPrice < best.UnitPrice {
			best, found = b, true
		}
	}
	return best, found
}

func writeLevelingSheet(f *excelize.File, s levelingStyles, title string, lv BidLeveling) error {
	sheet := levelingSheet

	f.SetCellValue(sheet, "A1", sanitizeExcelCell(title))
	f.SetCellStyle(sheet, "A1", "A1", s.title)

	header := []any{"Description", "Bids", "Lowest Total", "Lowest Vendor", "Highest Total", "Highest Vendor"}
	if err := f.SetSheetRow(sheet, "A3", &header); err != nil {
		return fmt.Errorf("write leveling header: %w", err)
	}
	f.SetCellStyle(sheet, "A3", "F3", s.header)
	f.SetColWidth(sheet, "A", "A", 40)
	f.SetColWidth(sheet, "B", "F", 18)

	row := 4
	for _, g := range lv.Groups {
		values := []any{
			sanitizeExcelCell(g.Description),
			g.BidCount,
			FormatUSD(g.LowestTotal),
			sanitizeExcelCell(g.LowestVendor),
			FormatUSD(g.HighestTotal),
			sanitizeExcelCell(g.HighestVendor),
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return fmt.Errorf("write leveling row: %w", err)
		}
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), s.cell)
		row++
	}

	row++
	summary := []struct {
		label string
		value float64
	}{
		{"Lowest Achievable Total:", lv.LowestTotal},
		{"Highest Total:", lv.HighestTotal},
		{"Potential Savings:", lv.PotentialSavings},
	}
	for _, line := range summary {
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), line.label)
		f.SetCellStyle(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), s.label)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), FormatUSD(line.value))
		f.SetCellStyle(sheet, fmt.Sprintf("C%d", row), fmt.Sprintf("C%d", row), s.value)
		row++
	}

	row++
	vendorHeader := []any{"Vendor", "Quotes", "Quoted Total"}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &vendorHeader); err != nil {
		return fmt.Errorf("write vendor header: %w", err)
	}
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row), s.header)
	row++
	for i, v := range lv.Vendors {
		values := []any{sanitizeExcelCell(v.VendorName), v.QuoteCount, FormatUSD(v.Total)}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return fmt.Errorf("write vendor row: %w", err)
		}
		style := s.cell
		if i == 0 {
			style = s.lowest
		}
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row), style)
		row++
	}
	return nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
