package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Attachment is one file sent with a vendor response.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// SheetCell is one header/value pair of a decoded row.
type SheetCell struct {
	Header string
	Value  string
}

// SheetRow is one data row in column order.
type SheetRow []SheetCell

// SheetDecoder turns an attachment into rows keyed by the header row.
type SheetDecoder func(a Attachment) ([]SheetRow, error)

// DecodeSheet decodes .xlsx and .csv attachments. Other files are rejected
// with ErrInvalidInput so callers can fall back to free text.
func DecodeSheet(a Attachment) ([]SheetRow, error) {
	var (
		headers []string
		rows    [][]string
		err     error
	)

	switch sheetKind(a) {
	case "csv":
		headers, rows, err = parseCSV(bytes.NewReader(a.Data))
	case "xlsx":
		headers, rows, err = parseExcel(bytes.NewReader(a.Data))
	default:
		return nil, fmt.Errorf("%w: unsupported attachment %q", ErrInvalidInput, a.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, a.Name, err)
	}

	out := make([]SheetRow, 0, len(rows))
	for _, row := range rows {
		sr := make(SheetRow, 0, len(headers))
		blank := true
		for i, h := range headers {
			value := ""
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			if value != "" {
				blank = false
			}
			sr = append(sr, SheetCell{Header: h, Value: value})
		}
		if !blank {
			out = append(out, sr)
		}
	}
	return out, nil
}

func sheetKind(a Attachment) string {
	switch strings.ToLower(filepath.Ext(a.Name)) {
	case ".csv":
		return "csv"
	case ".xlsx", ".xlsm":
		return "xlsx"
	}
	switch {
	case strings.Contains(a.ContentType, "csv"):
		return "csv"
	case strings.Contains(a.ContentType, "spreadsheetml"):
		return "xlsx"
	}
	return ""
}

// parseCSV reads a CSV file and returns headers + data rows.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	return allRows[0], allRows[1:], nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	return rows[0], rows[1:], nil
}
