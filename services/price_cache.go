package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bidprep/metrics"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// VendorPrice is the latest known price of one material from one vendor.
type VendorPrice struct {
	VendorID      string    `json:"vendor_id"`
	MaterialID    string    `json:"material_id"`
	UnitCost      float64   `json:"unit_cost"`
	UOM           string    `json:"uom"`
	LeadTimeDays  int       `json:"lead_time_days"`
	LastQuoteDate time.Time `json:"last_quote_date"`
	SourceQuoteID string    `json:"source_quote_id"`
}

// UpsertVendorPrice writes the price for the (vendor, material) pair,
// replacing any earlier value. The read and write share one transaction and
// the pair is backed by a unique index, so concurrent quotes cannot leave
// two rows or lose the later write.
func UpsertVendorPrice(app core.App, p VendorPrice) error {
	if p.VendorID == "" || p.MaterialID == "" {
		return fmt.Errorf("%w: vendor and material are required", ErrInvalidInput)
	}
	if p.UnitCost <= 0 {
		return fmt.Errorf("%w: unit cost must be positive", ErrInvalidInput)
	}

	err := app.RunInTransaction(func(txApp core.App) error {
		rec, err := txApp.FindFirstRecordByFilter(
			"vendor_material_pricing",
			"vendor = {:vendor} && material = {:material}",
			dbx.Params{"vendor": p.VendorID, "material": p.MaterialID},
		)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("lookup vendor price: %w", err)
			}
			col, err := txApp.FindCollectionByNameOrId("vendor_material_pricing")
			if err != nil {
				return fmt.Errorf("vendor_material_pricing collection: %w", err)
			}
			rec = core.NewRecord(col)
			rec.Set("vendor", p.VendorID)
			rec.Set("material", p.MaterialID)
		}

		rec.Set("unit_cost", p.UnitCost)
		rec.Set("uom", p.UOM)
		if p.LeadTimeDays > 0 {
			rec.Set("lead_time_days", p.LeadTimeDays)
		}
		rec.Set("last_quote_date", p.LastQuoteDate.UTC())
		if p.SourceQuoteID != "" {
			rec.Set("source_quote", p.SourceQuoteID)
		}
		return txApp.Save(rec)
	})
	if err != nil {
		return fmt.Errorf("upsert vendor price: %w", err)
	}
	metrics.VendorPricesUpserted.Inc()
	return nil
}

// GetVendorPrice returns the cached price for a pair, or ErrNotFound.
func GetVendorPrice(app core.App, vendorID, materialID string) (*VendorPrice, error) {
	rec, err := app.FindFirstRecordByFilter(
		"vendor_material_pricing",
		"vendor = {:vendor} && material = {:material}",
		dbx.Params{"vendor": vendorID, "material": materialID},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return vendorPriceFromRecord(rec), nil
}

// ListVendorPrices returns every cached price for a vendor.
func ListVendorPrices(app core.App, vendorID string) ([]VendorPrice, error) {
	records, err := app.FindAllRecords("vendor_material_pricing", dbx.HashExp{"vendor": vendorID})
	if err != nil {
		return nil, fmt.Errorf("load vendor prices: %w", err)
	}
	out := make([]VendorPrice, 0, len(records))
	for _, rec := range records {
		out = append(out, *vendorPriceFromRecord(rec))
	}
	return out, nil
}

func vendorPriceFromRecord(r *core.Record) *VendorPrice {
	return &VendorPrice{
		VendorID:      r.GetString("vendor"),
		MaterialID:    r.GetString("material"),
		UnitCost:      r.GetFloat("unit_cost"),
		UOM:           r.GetString("uom"),
		LeadTimeDays:  r.GetInt("lead_time_days"),
		LastQuoteDate: r.GetDateTime("last_quote_date").Time(),
		SourceQuoteID: r.GetString("source_quote"),
	}
}
