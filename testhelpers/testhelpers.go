// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"bidprep/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// saveRecord creates a record in the named collection with the given fields.
func saveRecord(t *testing.T, app core.App, collection string, fields map[string]any) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collection)
	if err != nil {
		t.Fatalf("failed to find %s collection: %v", collection, err)
	}

	record := core.NewRecord(col)
	for k, v := range fields {
		record.Set(k, v)
	}

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test %s record: %v", collection, err)
	}

	return record
}

// CreateTestProject creates an active project with no takeoff job.
func CreateTestProject(t *testing.T, app core.App, name string) *core.Record {
	t.Helper()

	return saveRecord(t, app, "projects", map[string]any{
		"name":             name,
		"reference_number": "TP-1",
		"status":           "active",
	})
}

// CreateTestProjectWithTakeoff creates an active project linked to a takeoff job.
func CreateTestProjectWithTakeoff(t *testing.T, app core.App, name, jobID string) *core.Record {
	t.Helper()

	return saveRecord(t, app, "projects", map[string]any{
		"name":             name,
		"reference_number": "TP-1",
		"status":           "active",
		"takeoff_job":      jobID,
	})
}

// CreateTestTakeoffJob creates a takeoff job with the given status.
func CreateTestTakeoffJob(t *testing.T, app core.App, name, status string) *core.Record {
	t.Helper()

	return saveRecord(t, app, "takeoff_jobs", map[string]any{
		"name":   name,
		"status": status,
	})
}

// Feature describes a takeoff feature to create in tests.
type Feature struct {
	Type         string
	Label        string
	Area         float64
	Length       float64
	Diameter     float64
	MaterialHint string
	Count        float64
	Metadata     map[string]any
}

// CreateTestFeature creates a takeoff feature on a job.
func CreateTestFeature(t *testing.T, app core.App, jobID string, sortOrder int, f Feature) *core.Record {
	t.Helper()

	fields := map[string]any{
		"job":           jobID,
		"feature_type":  f.Type,
		"label":         f.Label,
		"area":          f.Area,
		"length":        f.Length,
		"diameter":      f.Diameter,
		"material_hint": f.MaterialHint,
		"count":         f.Count,
		"sort_order":    sortOrder,
	}
	if f.Metadata != nil {
		fields["metadata"] = f.Metadata
	}
	return saveRecord(t, app, "takeoff_features", fields)
}

// CreateTestVendor creates an active vendor with the given type and trades.
func CreateTestVendor(t *testing.T, app core.App, name, vendorType string, trades []string) *core.Record {
	t.Helper()

	return saveRecord(t, app, "vendors", map[string]any{
		"name":         name,
		"email":        strings.ToLower(strings.ReplaceAll(name, " ", "")) + "@example.com",
		"contact_name": "Test Contact",
		"phone":        "555-0100",
		"vendor_type":  vendorType,
		"trades":       trades,
		"active":       true,
	})
}

// CreateTestEstimate creates an estimate in the given status.
func CreateTestEstimate(t *testing.T, app core.App, projectID, status string) *core.Record {
	t.Helper()

	return saveRecord(t, app, "estimates", map[string]any{
		"project": projectID,
		"run_id":  "run-" + projectID,
		"status":  status,
	})
}

// CreateTestMaterial creates an active registry material used once.
func CreateTestMaterial(t *testing.T, app core.App, name, trade string) *core.Record {
	t.Helper()

	return saveRecord(t, app, "materials", map[string]any{
		"name":       name,
		"trade":      trade,
		"times_used": 1,
		"active":     true,
	})
}

// BOMItem describes a BOM line to create in tests.
type BOMItem struct {
	Description string
	SKU         string
	Trade       string
	Category    string
	UOM         string
	Quantity    float64
	UnitCost    float64
	MaterialID  string
}

// CreateTestBOMItem creates a BOM line under an estimate. Raw and final
// quantities are both set to Quantity.
func CreateTestBOMItem(t *testing.T, app core.App, projectID, estimateID string, item BOMItem) *core.Record {
	t.Helper()

	if item.Trade == "" {
		item.Trade = "A"
	}
	if item.Category == "" {
		item.Category = "General"
	}
	if item.UOM == "" {
		item.UOM = "EA"
	}
	fields := map[string]any{
		"project":        projectID,
		"estimate":       estimateID,
		"description":    item.Description,
		"sku":            item.SKU,
		"trade":          item.Trade,
		"category":       item.Category,
		"uom":            item.UOM,
		"raw_quantity":   item.Quantity,
		"final_quantity": item.Quantity,
		"unit_cost":      item.UnitCost,
		"total_cost":     item.Quantity * item.UnitCost,
		"confidence":     0.8,
		"source":         "TEST",
	}
	if item.MaterialID != "" {
		fields["material"] = item.MaterialID
	}
	return saveRecord(t, app, "bom_line_items", fields)
}

// CreateTestRFQ creates a DRAFT RFQ for one vendor.
func CreateTestRFQ(t *testing.T, app core.App, projectID, vendorID, rfqNumber string) *core.Record {
	t.Helper()

	return saveRecord(t, app, "rfqs", map[string]any{
		"project":    projectID,
		"vendor":     vendorID,
		"rfq_number": rfqNumber,
		"status":     "DRAFT",
	})
}

// CreateTestRFQItem snapshots a BOM line onto an RFQ.
func CreateTestRFQItem(t *testing.T, app core.App, rfqID string, bomItem *core.Record, sortOrder int) *core.Record {
	t.Helper()

	return saveRecord(t, app, "rfq_items", map[string]any{
		"rfq":         rfqID,
		"bom_item":    bomItem.Id,
		"description": bomItem.GetString("description"),
		"sku":         bomItem.GetString("sku"),
		"quantity":    bomItem.GetFloat("final_quantity"),
		"uom":         bomItem.GetString("uom"),
		"sort_order":  sortOrder,
	})
}

// CreateTestQuote creates a quote in the given status.
func CreateTestQuote(t *testing.T, app core.App, projectID, vendorID, rfqID, status string, total float64) *core.Record {
	t.Helper()

	fields := map[string]any{
		"project":      projectID,
		"vendor":       vendorID,
		"status":       status,
		"parse_method": "STRUCTURED",
		"total_amount": total,
	}
	if rfqID != "" {
		fields["rfq"] = rfqID
	}
	return saveRecord(t, app, "quotes", fields)
}

// CreateTestQuoteItem creates a quote line priced at qty × unitPrice.
func CreateTestQuoteItem(t *testing.T, app core.App, quoteID, bomItemID, description string, qty, unitPrice float64) *core.Record {
	t.Helper()

	fields := map[string]any{
		"quote":       quoteID,
		"description": description,
		"quantity":    qty,
		"uom":         "EA",
		"unit_price":  unitPrice,
		"total_price": qty * unitPrice,
	}
	if bomItemID != "" {
		fields["bom_item"] = bomItemID
	}
	return saveRecord(t, app, "quote_items", fields)
}

// CreateTestMaterialRule creates a material rule. Zero values are left unset.
func CreateTestMaterialRule(t *testing.T, app core.App, materialName string, unitCost, hoursPerUnit float64) *core.Record {
	t.Helper()

	return saveRecord(t, app, "material_rules", map[string]any{
		"material_name":        materialName,
		"unit_cost":            unitCost,
		"labor_hours_per_unit": hoursPerUnit,
	})
}

// CreateTestTradeMarkup sets the markup percentage for a trade.
func CreateTestTradeMarkup(t *testing.T, app core.App, trade string, percent float64) *core.Record {
	t.Helper()

	return saveRecord(t, app, "trade_markups", map[string]any{
		"trade":          trade,
		"markup_percent": percent,
	})
}

// AssertBodyContains checks that body contains all specified fragments.
func AssertBodyContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected body to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
