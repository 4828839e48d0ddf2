package services

import (
	"context"
	"fmt"
	"time"

	"bidprep/metrics"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// IngestRequest is a vendor response to one RFQ.
type IngestRequest struct {
	RFQID       string
	Text        string
	Attachments []Attachment
}

func (r IngestRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RFQID, validation.Required),
		validation.Field(&r.Text, validation.When(len(r.Attachments) == 0,
			validation.Required.Error("text is required when there are no attachments"))),
	)
}

// IngestResult describes the quote created from a vendor response.
// Unmatched lines were parsed but match no RFQ line; they are not persisted
// as quote items and are left for the caller to reconcile.
type IngestResult struct {
	Quote         *Quote            `json:"quote"`
	Unmatched     []ParsedQuoteLine `json:"unmatched"`
	PricesUpdated int               `json:"prices_updated"`
	Superseded    []string          `json:"superseded,omitempty"`
}

// QuoteIngestor parses vendor responses into quotes.
type QuoteIngestor struct {
	app    core.App
	decode SheetDecoder
	now    func() time.Time
}

func NewQuoteIngestor(app core.App, decode SheetDecoder) *QuoteIngestor {
	if decode == nil {
		decode = DecodeSheet
	}
	return &QuoteIngestor{app: app, decode: decode, now: time.Now}
}

// Ingest parses the response, reconciles it against the RFQ's lines and, in
// one transaction, creates the quote with its matched items, refreshes the
// vendor price cache for matched lines linked to a material, and marks the
// RFQ RESPONDED. A response on an RFQ that already has quotes is a
// revision: it gets the next revision number and open earlier quotes are
// REJECTED as superseded. Nothing is written when the response cannot be
// parsed or when a quote on the RFQ was already accepted.
func (q *QuoteIngestor) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	logger := q.app.Logger().With("component", "quotes", "rfq", req.RFQID)

	rfqRec, err := q.app.FindRecordById("rfqs", req.RFQID)
	if err != nil {
		return nil, LookupErr(err, "rfq", req.RFQID)
	}
	candidates, err := loadRFQLines(q.app, rfqRec.Id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines, method, err := ParseQuote(QuotePayload{Text: req.Text, Attachments: req.Attachments}, q.decode)
	if err != nil {
		metrics.QuoteParseFailures.Inc()
		logger.Warn("vendor response could not be parsed", "attachments", len(req.Attachments))
		return nil, err
	}
	matched, unmatched := MatchQuoteLines(lines, candidates)

	vendorID := rfqRec.GetString("vendor")
	quotedAt := q.now().UTC()
	result := &IngestResult{Unmatched: unmatched}

	err = q.app.RunInTransaction(func(txApp core.App) error {
		prior, err := txApp.FindRecordsByFilter(
			"quotes",
			"rfq = {:rfq}",
			"",
			0, 0,
			dbx.Params{"rfq": rfqRec.Id},
		)
		if err != nil {
			return fmt.Errorf("load prior quotes: %w", err)
		}
		revision := 1
		for _, p := range prior {
			if QuoteStatus(p.GetString("status")) == QuoteAccepted {
				return fmt.Errorf("%w: rfq %s already has an accepted quote", ErrInvalidState, rfqRec.Id)
			}
			revision = max(revision, p.GetInt("revision")+1)
		}

		quoteCol, err := txApp.FindCollectionByNameOrId("quotes")
		if err != nil {
			return err
		}
		quoteRec := core.NewRecord(quoteCol)
		quoteRec.Set("project", rfqRec.GetString("project"))
		quoteRec.Set("vendor", vendorID)
		quoteRec.Set("rfq", rfqRec.Id)
		quoteRec.Set("status", string(QuoteReceived))
		quoteRec.Set("parse_method", string(method))
		quoteRec.Set("raw_text", req.Text)
		quoteRec.Set("unmatched_lines", unmatched)
		quoteRec.Set("revision", revision)
		if err := txApp.Save(quoteRec); err != nil {
			return fmt.Errorf("create quote: %w", err)
		}

		for _, p := range prior {
			if QuoteStatus(p.GetString("status")).Terminal() {
				continue
			}
			p.Set("status", string(QuoteRejected))
			if err := txApp.Save(p); err != nil {
				return fmt.Errorf("supersede quote %s: %w", p.Id, err)
			}
			result.Superseded = append(result.Superseded, p.Id)
		}

		itemCol, err := txApp.FindCollectionByNameOrId("quote_items")
		if err != nil {
			return err
		}
		items := make([]QuoteItem, 0, len(matched))
		var total float64
		for _, m := range matched {
			rec := core.NewRecord(itemCol)
			rec.Set("quote", quoteRec.Id)
			rec.Set("bom_item", m.BOMItem.ID)
			rec.Set("description", m.Line.Description)
			rec.Set("sku", m.Line.SKU)
			rec.Set("quantity", m.Line.Quantity)
			rec.Set("uom", m.Line.UOM)
			rec.Set("unit_price", m.Line.UnitPrice)
			rec.Set("total_price", m.Line.TotalPrice)
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("create quote item %q: %w", m.Line.Description, err)
			}
			items = append(items, quoteItemFromRecord(rec))
			total += m.Line.TotalPrice

			if m.Line.UnitPrice > 0 && m.BOMItem.MaterialID != "" {
				err := UpsertVendorPrice(txApp, VendorPrice{
					VendorID:      vendorID,
					MaterialID:    m.BOMItem.MaterialID,
					UnitCost:      m.Line.UnitPrice,
					UOM:           m.Line.UOM,
					LeadTimeDays:  m.Line.LeadTimeDays,
					LastQuoteDate: quotedAt,
					SourceQuoteID: quoteRec.Id,
				})
				if err != nil {
					return err
				}
				result.PricesUpdated++
			}
		}

		quoteRec.Set("total_amount", roundTo(total, 2))
		if err := txApp.Save(quoteRec); err != nil {
			return fmt.Errorf("update quote total: %w", err)
		}

		rfqRec.Set("status", string(RFQResponded))
		if err := txApp.Save(rfqRec); err != nil {
			return fmt.Errorf("mark rfq responded: %w", err)
		}

		result.Quote = quoteFromRecord(quoteRec)
		result.Quote.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.QuotesParsed.WithLabelValues(string(method)).Inc()
	metrics.QuoteLinesUnmatched.Add(float64(len(unmatched)))
	logger.Info("quote ingested",
		"quote", result.Quote.ID,
		"method", method,
		"matched", len(matched),
		"unmatched", len(unmatched),
		"prices_updated", result.PricesUpdated,
		"revision", result.Quote.Revision,
		"superseded", len(result.Superseded),
	)
	return result, nil
}

// loadRFQLines returns the RFQ's snapshot lines paired with their BOM lines.
// Snapshot description and SKU are used for matching.
func loadRFQLines(app core.App, rfqID string) ([]RFQLine, error) {
	records, err := app.FindRecordsByFilter(
		"rfq_items",
		"rfq = {:rfq}",
		"sort_order",
		0, 0,
		dbx.Params{"rfq": rfqID},
	)
	if err != nil {
		return nil, fmt.Errorf("load rfq items: %w", err)
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.GetString("bom_item"))
	}
	bomRecords, err := app.FindRecordsByIds("bom_line_items", ids)
	if err != nil {
		return nil, fmt.Errorf("load rfq bom items: %w", err)
	}
	bomByID := make(map[string]BOMLineItem, len(bomRecords))
	for _, rec := range bomRecords {
		bomByID[rec.Id] = bomItemFromRecord(rec)
	}

	out := make([]RFQLine, 0, len(records))
	for _, rec := range records {
		item := rfqItemFromRecord(rec)
		bom, ok := bomByID[item.BOMItemID]
		if !ok {
			continue
		}
		bom.Description = item.Description
		out = append(out, RFQLine{BOMItem: bom, SKU: item.SKU})
	}
	return out, nil
}

// GetQuote loads a quote with its items and vendor name.
func GetQuote(app core.App, quoteID string) (*Quote, error) {
	rec, err := app.FindRecordById("quotes", quoteID)
	if err != nil {
		return nil, LookupErr(err, "quote", quoteID)
	}
	quote := quoteFromRecord(rec)
	if vendor, err := app.FindRecordById("vendors", quote.VendorID); err == nil {
		quote.VendorName = vendor.GetString("name")
	}
	items, err := app.FindAllRecords("quote_items", dbx.HashExp{"quote": quote.ID})
	if err != nil {
		return nil, fmt.Errorf("load quote items: %w", err)
	}
	quote.Items = make([]QuoteItem, 0, len(items))
	for _, item := range items {
		quote.Items = append(quote.Items, quoteItemFromRecord(item))
	}
	return quote, nil
}
