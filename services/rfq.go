package services

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// CreateRFQInput selects the BOM lines to send to one vendor.
type CreateRFQInput struct {
	ProjectID  string    `json:"project_id"`
	VendorID   string    `json:"vendor_id"`
	BOMItemIDs []string  `json:"bom_item_ids"`
	DueDate    time.Time `json:"due_date"`
	Notes      string    `json:"notes"`
}

func (in CreateRFQInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ProjectID, validation.Required),
		validation.Field(&in.VendorID, validation.Required),
		validation.Field(&in.BOMItemIDs, validation.Required, validation.Each(validation.Required)),
		validation.Field(&in.Notes, validation.Length(0, 2000)),
	)
}

// CreateRFQ creates a DRAFT RFQ for one vendor and snapshots the selected BOM
// lines into its items, in the order given. Every line must belong to the
// project. Later changes to the BOM do not reach the RFQ.
func CreateRFQ(app core.App, in CreateRFQInput, now time.Time) (*RFQ, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, err := app.FindRecordById("projects", in.ProjectID); err != nil {
		return nil, LookupErr(err, "project", in.ProjectID)
	}
	vendor, err := GetVendor(app, in.VendorID)
	if err != nil {
		return nil, err
	}
	if !vendor.Active {
		return nil, fmt.Errorf("%w: vendor %s is inactive", ErrInvalidInput, vendor.Name)
	}

	bomRecords, err := app.FindRecordsByIds("bom_line_items", in.BOMItemIDs)
	if err != nil {
		return nil, fmt.Errorf("load bom items: %w", err)
	}
	byID := make(map[string]*core.Record, len(bomRecords))
	for _, rec := range bomRecords {
		if rec.GetString("project") != in.ProjectID {
			return nil, fmt.Errorf("%w: bom item %s belongs to another project", ErrInvalidInput, rec.Id)
		}
		byID[rec.Id] = rec
	}
	for _, id := range in.BOMItemIDs {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: bom item %s not found", ErrInvalidInput, id)
		}
	}

	var rfq *RFQ
	err = app.RunInTransaction(func(txApp core.App) error {
		number, err := GenerateRFQNumber(txApp, in.ProjectID, now)
		if err != nil {
			return err
		}

		rfqCol, err := txApp.FindCollectionByNameOrId("rfqs")
		if err != nil {
			return err
		}
		rec := core.NewRecord(rfqCol)
		rec.Set("project", in.ProjectID)
		rec.Set("vendor", in.VendorID)
		rec.Set("rfq_number", number)
		rec.Set("status", string(RFQDraft))
		rec.Set("notes", in.Notes)
		if !in.DueDate.IsZero() {
			rec.Set("due_date", in.DueDate.UTC())
		}
		if err := txApp.Save(rec); err != nil {
			return fmt.Errorf("create rfq: %w", err)
		}

		itemCol, err := txApp.FindCollectionByNameOrId("rfq_items")
		if err != nil {
			return err
		}
		rfq = rfqFromRecord(rec)
		rfq.Items = make([]RFQItem, 0, len(in.BOMItemIDs))
		for i, id := range in.BOMItemIDs {
			bom := byID[id]
			item := core.NewRecord(itemCol)
			item.Set("rfq", rec.Id)
			item.Set("bom_item", bom.Id)
			item.Set("description", bom.GetString("description"))
			item.Set("sku", bom.GetString("sku"))
			item.Set("quantity", bom.GetFloat("final_quantity"))
			item.Set("uom", bom.GetString("uom"))
			item.Set("sort_order", i+1)
			if err := txApp.Save(item); err != nil {
				return fmt.Errorf("create rfq item: %w", err)
			}
			rfq.Items = append(rfq.Items, rfqItemFromRecord(item))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	app.Logger().Info("rfq created",
		"component", "rfq",
		"rfq", rfq.ID,
		"number", rfq.Number,
		"vendor", vendor.Name,
		"items", len(rfq.Items),
	)
	return rfq, nil
}

// GetRFQ loads an RFQ with its items in sort order.
func GetRFQ(app core.App, rfqID string) (*RFQ, error) {
	rec, err := app.FindRecordById("rfqs", rfqID)
	if err != nil {
		return nil, LookupErr(err, "rfq", rfqID)
	}
	rfq := rfqFromRecord(rec)

	items, err := app.FindRecordsByFilter(
		"rfq_items",
		"rfq = {:rfq}",
		"sort_order",
		0, 0,
		dbx.Params{"rfq": rfqID},
	)
	if err != nil {
		return nil, fmt.Errorf("load rfq items: %w", err)
	}
	rfq.Items = make([]RFQItem, 0, len(items))
	for _, item := range items {
		rfq.Items = append(rfq.Items, rfqItemFromRecord(item))
	}
	return rfq, nil
}

// ListProjectRFQs returns a project's RFQs, newest first, without items.
func ListProjectRFQs(app core.App, projectID string) ([]RFQ, error) {
	records, err := app.FindRecordsByFilter(
		"rfqs",
		"project = {:project}",
		"-created",
		0, 0,
		dbx.Params{"project": projectID},
	)
	if err != nil {
		return nil, fmt.Errorf("load rfqs: %w", err)
	}
	out := make([]RFQ, 0, len(records))
	for _, rec := range records {
		out = append(out, *rfqFromRecord(rec))
	}
	return out, nil
}
