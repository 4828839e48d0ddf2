package services

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"
)

const importBatchSize = 100

// ImportResult holds the outcome of a roster import.
type ImportResult struct {
	TotalRows  int              `json:"total_rows"`
	Created    int              `json:"created"`
	Updated    int              `json:"updated"`
	Failed     int              `json:"failed"`
	Errors     []ImportRowError `json:"errors,omitempty"`
	RolledBack bool             `json:"rolled_back"`
}

// ImportRowError is a problem with one row. Row numbers count the header as
// row 1.
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// VendorImportRow is one roster row after decoding.
type VendorImportRow struct {
	Row                int      `json:"-"`
	Name               string   `json:"name"`
	VendorType         string   `json:"vendor_type"`
	Email              string   `json:"email"`
	ContactName        string   `json:"contact_name"`
	Phone              string   `json:"phone"`
	Trades             []Trade  `json:"trades"`
	Materials          []string `json:"materials"`
	Services           []string `json:"services"`
	ServiceRadiusMiles float64  `json:"service_radius_miles"`
	Rating             float64  `json:"rating"`

	parseErrors []ImportRowError
}

func (r VendorImportRow) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.VendorType, validation.Required, validation.In(
			string(VendorMaterialSupplier), string(VendorSubcontractor), string(VendorBoth))),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Trades, validation.Required, validation.Each(validation.In(tradeRuleValues()...))),
		validation.Field(&r.Materials, validation.When(r.VendorType == string(VendorSubcontractor),
			validation.Empty.Error("subcontractors do not list materials"))),
		validation.Field(&r.Services, validation.When(r.VendorType == string(VendorMaterialSupplier),
			validation.Empty.Error("material suppliers do not list services"))),
		validation.Field(&r.ServiceRadiusMiles, validation.Min(0.0)),
		validation.Field(&r.Rating, validation.Min(0.0), validation.Max(5.0)),
	)
}

// ParseVendorRows maps decoded sheet rows onto roster rows by header label.
// A trailing " *" on a header is ignored.
func ParseVendorRows(rows []SheetRow) []VendorImportRow {
	byLabel := make(map[string]string)
	for _, f := range VendorRosterFields() {
		byLabel[strings.ToLower(f.Label)] = f.Key
		byLabel[f.Key] = f.Key
	}

	out := make([]VendorImportRow, 0, len(rows))
	for i, row := range rows {
		r := VendorImportRow{Row: i + 2}
		for _, cell := range row {
			label := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(cell.Header), "*")))
			value := strings.TrimSpace(cell.Value)
			switch byLabel[label] {
			case "name":
				r.Name = value
			case "vendor_type":
				r.VendorType = strings.ToUpper(value)
			case "email":
				r.Email = value
			case "contact_name":
				r.ContactName = value
			case "phone":
				r.Phone = value
			case "trades":
				for _, code := range splitList(value, ",") {
					r.Trades = append(r.Trades, Trade(strings.ToUpper(code)))
				}
			case "materials":
				r.Materials = splitList(value, ";")
			case "services":
				r.Services = splitList(value, ";")
			case "service_radius_miles":
				r.ServiceRadiusMiles = r.parseNumber(value, "Service Radius (mi)")
			case "rating":
				r.Rating = r.parseNumber(value, "Rating")
			}
		}
		out = append(out, r)
	}
	return out
}

func (r *VendorImportRow) parseNumber(value, label string) float64 {
	if value == "" {
		return 0
	}
	n, err := cast.ToFloat64E(value)
	if err != nil {
		r.parseErrors = append(r.parseErrors, ImportRowError{
			Row:     r.Row,
			Field:   label,
			Message: fmt.Sprintf("%q is not a number", value),
		})
	}
	return n
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateVendorRows checks every row and reports all problems, including
// vendor names repeated within the file.
func ValidateVendorRows(rows []VendorImportRow) []ImportRowError {
	labels := make(map[string]string)
	for _, f := range VendorRosterFields() {
		labels[f.Key] = f.Label
	}

	var out []ImportRowError
	seen := make(map[string]int)
	for _, r := range rows {
		out = append(out, r.parseErrors...)

		if err := r.Validate(); err != nil {
			var fieldErrs validation.Errors
			if errors.As(err, &fieldErrs) {
				for _, key := range slices.Sorted(maps.Keys(fieldErrs)) {
					out = append(out, ImportRowError{Row: r.Row, Field: labels[key], Message: fieldErrs[key].Error()})
				}
			} else {
				out = append(out, ImportRowError{Row: r.Row, Message: err.Error()})
			}
		}

		key := strings.ToLower(r.Name)
		if key == "" {
			continue
		}
		if first, ok := seen[key]; ok {
			out = append(out, ImportRowError{
				Row:     r.Row,
				Field:   labels["name"],
				Message: fmt.Sprintf("duplicate of row %d", first),
			})
			continue
		}
		seen[key] = r.Row
	}
	return out
}

// ImportVendors decodes a roster sheet and creates or updates vendors by
// name (case-insensitive). Nothing is written when any row is invalid.
// Valid rows are committed in chunks; a failing chunk is rolled back on its
// own and reported.
func ImportVendors(app core.App, a Attachment) (*ImportResult, error) {
	sheet, err := DecodeSheet(a)
	if err != nil {
		return nil, err
	}
	rows := ParseVendorRows(sheet)
	result := &ImportResult{TotalRows: len(rows)}

	if errs := ValidateVendorRows(rows); len(errs) > 0 {
		failed := make(map[int]bool)
		for _, e := range errs {
			failed[e.Row] = true
		}
		result.Failed = len(failed)
		result.Errors = errs
		result.RolledBack = true
		return result, nil
	}

	existing, err := vendorIDsByName(app)
	if err != nil {
		return nil, err
	}
	col, err := app.FindCollectionByNameOrId("vendors")
	if err != nil {
		return nil, fmt.Errorf("vendors collection not found: %w", err)
	}

	for start := 0; start < len(rows); start += importBatchSize {
		chunk := rows[start:min(start+importBatchSize, len(rows))]
		created, updated, chunkErrs := commitVendorChunk(app, col, chunk, existing)
		if len(chunkErrs) > 0 {
			result.Errors = append(result.Errors, chunkErrs...)
			result.Failed += len(chunk)
			result.RolledBack = true
			continue
		}
		result.Created += created
		result.Updated += updated
	}

	app.Logger().Info("vendor roster imported",
		"component", "vendors",
		"rows", result.TotalRows,
		"created", result.Created,
		"updated", result.Updated,
		"failed", result.Failed,
	)
	return result, nil
}

func vendorIDsByName(app core.App) (map[string]string, error) {
	records, err := app.FindAllRecords("vendors")
	if err != nil {
		return nil, fmt.Errorf("load vendors: %w", err)
	}
	out := make(map[string]string, len(records))
	for _, rec := range records {
		out[strings.ToLower(rec.GetString("name"))] = rec.Id
	}
	return out, nil
}

// commitVendorChunk saves one chunk in a transaction. If any row fails the
// whole chunk is rolled back.
func commitVendorChunk(app core.App, col *core.Collection, rows []VendorImportRow, existing map[string]string) (int, int, []ImportRowError) {
	var created, updated int
	var rowErrs []ImportRowError

	err := app.RunInTransaction(func(txApp core.App) error {
		for _, r := range rows {
			var rec *core.Record
			if id, ok := existing[strings.ToLower(r.Name)]; ok {
				found, err := txApp.FindRecordById(col, id)
				if err != nil {
					rowErrs = append(rowErrs, ImportRowError{Row: r.Row, Message: "vendor disappeared during import"})
					return fmt.Errorf("row %d: %w", r.Row, err)
				}
				rec = found
				updated++
			} else {
				rec = core.NewRecord(col)
				rec.Set("active", true)
				created++
			}

			trades := make([]string, len(r.Trades))
			for i, t := range r.Trades {
				trades[i] = string(t)
			}
			rec.Set("name", r.Name)
			rec.Set("vendor_type", r.VendorType)
			rec.Set("email", r.Email)
			rec.Set("contact_name", r.ContactName)
			rec.Set("phone", r.Phone)
			rec.Set("trades", trades)
			rec.Set("materials", r.Materials)
			rec.Set("services", r.Services)
			rec.Set("service_radius_miles", r.ServiceRadiusMiles)
			rec.Set("rating", r.Rating)

			if err := txApp.Save(rec); err != nil {
				rowErrs = append(rowErrs, ImportRowError{Row: r.Row, Message: fmt.Sprintf("failed to save: %v", err)})
				return fmt.Errorf("save failed at row %d: %w", r.Row, err)
			}
		}
		return nil
	})
	if err != nil {
		app.Logger().Warn("vendor import chunk rolled back", "component", "vendors", "error", err)
		if len(rowErrs) == 0 && len(rows) > 0 {
			rowErrs = append(rowErrs, ImportRowError{Row: rows[0].Row, Message: fmt.Sprintf("transaction failed: %v", err)})
		}
		return 0, 0, rowErrs
	}
	return created, updated, nil
}
