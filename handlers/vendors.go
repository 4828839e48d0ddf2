package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"bidprep/services"
)

// coverageInputs loads the project's BOM lines and the active roster.
func coverageInputs(app *pocketbase.PocketBase, e *core.RequestEvent) ([]services.BOMLineItem, []services.Vendor, error) {
	project, err := loadProject(app, e)
	if err != nil {
		return nil, nil, err
	}
	items, err := services.ListProjectBOMItems(app, project.Id)
	if err != nil {
		return nil, nil, err
	}
	vendors, err := services.LoadVendors(app)
	if err != nil {
		return nil, nil, err
	}
	return items, vendors, nil
}

// HandleVendorCoverage scores every active vendor against the project's BOM.
// Route: GET /api/bidprep/projects/{projectId}/vendors/coverage
func HandleVendorCoverage(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		items, vendors, err := coverageInputs(app, e)
		if err != nil {
			return respondError(e, "vendor_coverage", err)
		}
		return e.JSON(http.StatusOK, services.VendorCoverages(items, vendors))
	}
}

// HandleRemainingMaterials reports what the selected vendors leave
// uncovered. Vendors are passed as repeated or comma separated ?vendor=
// parameters.
// Route: GET /api/bidprep/projects/{projectId}/vendors/remaining
func HandleRemainingMaterials(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		items, vendors, err := coverageInputs(app, e)
		if err != nil {
			return respondError(e, "vendor_remaining", err)
		}

		var selected []string
		for _, v := range e.Request.URL.Query()["vendor"] {
			for _, id := range strings.Split(v, ",") {
				if id = strings.TrimSpace(id); id != "" {
					selected = append(selected, id)
				}
			}
		}
		return e.JSON(http.StatusOK, services.RemainingMaterials(items, vendors, selected))
	}
}

// HandleSuggestVendors returns a greedy vendor pick list for the project.
// Route: GET /api/bidprep/projects/{projectId}/vendors/suggest
func HandleSuggestVendors(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		items, vendors, err := coverageInputs(app, e)
		if err != nil {
			return respondError(e, "vendor_suggest", err)
		}
		return e.JSON(http.StatusOK, services.SuggestVendors(items, vendors))
	}
}

// VendorPricesResponse lists the cached quote prices for one vendor.
type VendorPricesResponse struct {
	VendorID   string                 `json:"vendor_id"`
	VendorName string                 `json:"vendor_name"`
	Prices     []services.VendorPrice `json:"prices"`
}

// HandleVendorPrices returns the latest quoted price per material for a
// vendor, as recorded by quote ingestion.
// Route: GET /api/bidprep/vendors/{vendorId}/prices
func HandleVendorPrices(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		vendor, err := services.GetVendor(app, e.Request.PathValue("vendorId"))
		if err != nil {
			return respondError(e, "vendor_prices", err)
		}
		prices, err := services.ListVendorPrices(app, vendor.ID)
		if err != nil {
			return respondError(e, "vendor_prices", err)
		}
		return e.JSON(http.StatusOK, VendorPricesResponse{
			VendorID:   vendor.ID,
			VendorName: vendor.Name,
			Prices:     prices,
		})
	}
}

// HandleVendorTemplate downloads the blank vendor roster workbook.
// Route: GET /api/bidprep/vendors/template
func HandleVendorTemplate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, err := services.GenerateVendorTemplate()
		if err != nil {
			return respondError(e, "vendor_template", err)
		}
		return sendFile(e, xlsxContentType, "Vendor_Roster_Template.xlsx", data)
	}
}

// HandleVendorExport downloads the active roster in the template layout.
// Route: GET /api/bidprep/vendors/export
func HandleVendorExport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		vendors, err := services.LoadVendors(app)
		if err != nil {
			return respondError(e, "vendor_export", err)
		}
		data, err := services.GenerateVendorRosterExcel(vendors)
		if err != nil {
			return respondError(e, "vendor_export", err)
		}
		filename := fmt.Sprintf("Vendor_Roster_%s.xlsx", time.Now().Format("2006-01-02"))
		return sendFile(e, xlsxContentType, filename, data)
	}
}

// HandleVendorImport validates an uploaded roster and, when every row is
// valid, creates or updates the vendors. A file with invalid rows is
// answered with 422 and the row errors; nothing is written.
// Route: POST /api/bidprep/vendors/import
func HandleVendorImport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseMultipartForm(maxUploadBytes); err != nil {
			return respondError(e, "vendor_import", fmt.Errorf("%w: file too large or invalid form data", services.ErrInvalidInput))
		}
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return respondError(e, "vendor_import", fmt.Errorf("%w: missing file field", services.ErrInvalidInput))
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return respondError(e, "vendor_import", fmt.Errorf("%w: read upload: %v", services.ErrInvalidInput, err))
		}

		result, err := services.ImportVendors(app, services.Attachment{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
		if err != nil {
			return respondError(e, "vendor_import", err)
		}
		if result.RolledBack {
			return e.JSON(http.StatusUnprocessableEntity, result)
		}
		return e.JSON(http.StatusOK, result)
	}
}
