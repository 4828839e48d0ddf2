package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const rosterSheet = "Vendors"

// RosterField describes one column of the vendor roster workbook.
type RosterField struct {
	Key          string // vendors collection field
	Label        string // header shown in Excel
	Description  string // shown on the Instructions sheet
	FormatRule   string
	ExampleValue string
	Required     bool
}

// VendorRosterFields returns the roster columns in workbook order.
func VendorRosterFields() []RosterField {
	return []RosterField{
		{Key: "name", Label: "Vendor Name", Description: "Company name, unique in the roster", ExampleValue: "Metro Plumbing Supply", Required: true},
		{Key: "vendor_type", Label: "Vendor Type", Description: "What the vendor provides (select from dropdown)", FormatRule: "MATERIAL_SUPPLIER, SUBCONTRACTOR or BOTH", ExampleValue: "MATERIAL_SUPPLIER", Required: true},
		{Key: "email", Label: "Email", Description: "Address RFQs are sent to", FormatRule: "Valid email format", ExampleValue: "bids@metroplumbing.com", Required: true},
		{Key: "contact_name", Label: "Contact Name", Description: "Estimator or sales contact", ExampleValue: "Dana Ortiz"},
		{Key: "phone", Label: "Phone", Description: "Contact phone number", ExampleValue: "(555) 010-4477"},
		{Key: "trades", Label: "Trades", Description: "Trade codes the vendor covers", FormatRule: "Comma separated: M, E, P, A, S, F", ExampleValue: "P, M", Required: true},
		{Key: "materials", Label: "Materials", Description: "Material names supplied (suppliers only)", FormatRule: "Semicolon separated", ExampleValue: "Copper Pipe; PVC Fittings"},
		{Key: "services", Label: "Services", Description: "Services offered (subcontractors only)", FormatRule: "Semicolon separated", ExampleValue: "Rough-in; Fixture setting"},
		{Key: "service_radius_miles", Label: "Service Radius (mi)", Description: "How far the vendor travels or delivers", FormatRule: "Number, 0 or more", ExampleValue: "50"},
		{Key: "rating", Label: "Rating", Description: "Internal rating", FormatRule: "Number from 0 to 5", ExampleValue: "4.5"},
	}
}

// GenerateVendorTemplate creates a downloadable .xlsx roster template with a
// vendor type dropdown and a hidden Instructions sheet.
func GenerateVendorTemplate() ([]byte, error) {
	fields := VendorRosterFields()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), rosterSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	requiredHeaderStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1D4ED8"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	optionalHeaderStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#6B7280"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	columns := columnLetters(len(fields))
	for i, field := range fields {
		cell := columns[i] + "1"
		header, style := field.Label, optionalHeaderStyle
		if field.Required {
			header, style = header+" *", requiredHeaderStyle
		}
		f.SetCellValue(rosterSheet, cell, header)
		f.SetCellStyle(rosterSheet, cell, cell, style)
		f.SetColWidth(rosterSheet, columns[i], columns[i], max(float64(len(field.Label))*1.3, 15))

		if field.Key == "vendor_type" {
			dv := excelize.NewDataValidation(true)
			dv.Sqref = fmt.Sprintf("%s2:%s1048576", columns[i], columns[i])
			dv.SetDropList([]string{string(VendorMaterialSupplier), string(VendorSubcontractor), string(VendorBoth)})
			f.AddDataValidation(rosterSheet, dv)
		}
	}

	f.SetPanes(rosterSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	addRosterInstructions(f, fields)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel template: %w", err)
	}
	return buf.Bytes(), nil
}

func addRosterInstructions(f *excelize.File, fields []RosterField) {
	sheet := "Instructions"
	f.NewSheet(sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
	})

	f.SetCellValue(sheet, "A1", "Vendor Roster Import - Instructions")
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	header := []any{"Field Name", "Required?", "Format Rule", "Description", "Example"}
	f.SetSheetRow(sheet, "A3", &header)
	f.SetCellStyle(sheet, "A3", "E3", headerStyle)

	for i, field := range fields {
		req := "Optional"
		if field.Required {
			req = "Required"
		}
		values := []any{field.Label, req, field.FormatRule, field.Description, field.ExampleValue}
		f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+4), &values)
	}

	cols := columnLetters(5)
	for i, w := range []float64{20, 12, 32, 45, 28} {
		f.SetColWidth(sheet, cols[i], cols[i], w)
	}
	f.SetSheetVisible(sheet, false)
}

// GenerateVendorRosterExcel exports vendors in the template's column layout,
// so an exported roster can be edited and imported again.
func GenerateVendorRosterExcel(vendors []Vendor) ([]byte, error) {
	fields := VendorRosterFields()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), rosterSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	dataStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 10},
		Border:    thinBorders(),
		Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create data style: %w", err)
	}

	columns := columnLetters(len(fields))
	lastCol := columns[len(columns)-1]

	header := make([]any, len(fields))
	for i, field := range fields {
		header[i] = field.Label
		f.SetColWidth(rosterSheet, columns[i], columns[i], max(float64(len(field.Label))*1.3, 15))
	}
	f.SetSheetRow(rosterSheet, "A1", &header)
	f.SetCellStyle(rosterSheet, "A1", lastCol+"1", headerStyle)

	for i, v := range vendors {
		row := i + 2
		values := make([]any, len(fields))
		for j, field := range fields {
			values[j] = sanitizeExcelCell(rosterValue(v, field.Key))
		}
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetSheetRow(rosterSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write vendor row: %w", err)
		}
		f.SetCellStyle(rosterSheet, cell, fmt.Sprintf("%s%d", lastCol, row), dataStyle)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func rosterValue(v Vendor, key string) string {
	switch key {
	case "name":
		return v.Name
	case "vendor_type":
		return string(v.Type())
	case "email":
		return v.Email
	case "contact_name":
		return v.ContactName
	case "phone":
		return v.Phone
	case "trades":
		codes := make([]string, 0, len(v.Trades()))
		for _, t := range v.Trades() {
			codes = append(codes, string(t))
		}
		return strings.Join(codes, ", ")
	case "materials":
		return strings.Join(v.Materials(), "; ")
	case "services":
		return strings.Join(v.Services(), "; ")
	case "service_radius_miles":
		if v.ServiceRadiusMiles == 0 {
			return ""
		}
		return fmt.Sprintf("%g", v.ServiceRadiusMiles)
	case "rating":
		if v.Rating == 0 {
			return ""
		}
		return fmt.Sprintf("%g", v.Rating)
	}
	return ""
}

// columnLetters returns Excel column letters for n columns: A, B, ... Z, AA, AB ...
func columnLetters(n int) []string {
	cols := make([]string, n)
	for i := range n {
		name, _ := excelize.ColumnNumberToName(i + 1)
		cols[i] = name
	}
	return cols
}
