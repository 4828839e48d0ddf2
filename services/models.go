package services

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"
)

// FeatureType identifies the geometry kind of a takeoff feature.
type FeatureType string

const (
	FeatureRoom      FeatureType = "ROOM"
	FeaturePipe      FeatureType = "PIPE"
	FeatureFixture   FeatureType = "FIXTURE"
	FeatureEquipment FeatureType = "EQUIPMENT"
)

// TakeoffFeature is one measured element from the upstream takeoff.
type TakeoffFeature struct {
	ID           string         `json:"id"`
	JobID        string         `json:"job_id"`
	Type         FeatureType    `json:"feature_type"`
	Label        string         `json:"label"`
	Area         float64        `json:"area"`
	Length       float64        `json:"length"`
	Diameter     float64        `json:"diameter"`
	MaterialHint string         `json:"material_hint"`
	Count        float64        `json:"count"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Material is a canonical registry entry, unique by (Name, Trade).
type Material struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Trade        Trade          `json:"trade"`
	Description  string         `json:"description"`
	SKU          string         `json:"sku"`
	Category     string         `json:"category"`
	Manufacturer string         `json:"manufacturer"`
	Model        string         `json:"model"`
	UOM          string         `json:"uom"`
	WasteFactor  float64        `json:"waste_factor"`
	Specs        map[string]any `json:"specs,omitempty"`
	TimesUsed    int            `json:"times_used"`
	LastUsed     time.Time      `json:"last_used"`
	Active       bool           `json:"active"`
}

// BOMLineItem is one priced line of a generated bill of materials.
type BOMLineItem struct {
	ID            string  `json:"id"`
	ProjectID     string  `json:"project_id"`
	EstimateID    string  `json:"estimate_id"`
	MaterialID    string  `json:"material_id,omitempty"`
	CSIDivision   string  `json:"csi_division"`
	Category      string  `json:"category"`
	Trade         Trade   `json:"trade"`
	Description   string  `json:"description"`
	SKU           string  `json:"sku"`
	UOM           string  `json:"uom"`
	RawQuantity   float64 `json:"raw_quantity"`
	WasteFactor   float64 `json:"waste_factor"`
	FinalQuantity float64 `json:"final_quantity"`
	UnitCost      float64 `json:"unit_cost"`
	TotalCost     float64 `json:"total_cost"`
	Confidence    float64 `json:"confidence"`
	Source        string  `json:"source"`
	SourceFeature string  `json:"source_feature,omitempty"`
}

// EstimateStatus tracks one BOM generation run.
type EstimateStatus string

const (
	EstimateGenerating EstimateStatus = "GENERATING"
	EstimateComplete   EstimateStatus = "COMPLETE"
	EstimatePartial    EstimateStatus = "PARTIAL"
	EstimateSuperseded EstimateStatus = "SUPERSEDED"
)

// Estimate aggregates the line items of one generation run.
type Estimate struct {
	ID              string         `json:"id"`
	ProjectID       string         `json:"project_id"`
	RunID           string         `json:"run_id"`
	Status          EstimateStatus `json:"status"`
	MaterialCost    float64        `json:"material_cost"`
	AvgConfidence   float64        `json:"avg_confidence"`
	ItemCount       int            `json:"item_count"`
	FailedFeatures  int            `json:"failed_features"`
	SkippedFeatures int            `json:"skipped_features"`
}

// ── Record mapping ──────────────────────────────────────────────────────

func featureFromRecord(r *core.Record) TakeoffFeature {
	var metadata map[string]any
	_ = r.UnmarshalJSONField("metadata", &metadata)
	return TakeoffFeature{
		ID:           r.Id,
		JobID:        r.GetString("job"),
		Type:         FeatureType(r.GetString("feature_type")),
		Label:        r.GetString("label"),
		Area:         r.GetFloat("area"),
		Length:       r.GetFloat("length"),
		Diameter:     r.GetFloat("diameter"),
		MaterialHint: r.GetString("material_hint"),
		Count:        r.GetFloat("count"),
		Metadata:     metadata,
	}
}

func materialFromRecord(r *core.Record) *Material {
	var specs map[string]any
	_ = r.UnmarshalJSONField("specs", &specs)
	return &Material{
		ID:           r.Id,
		Name:         r.GetString("name"),
		Trade:        Trade(r.GetString("trade")),
		Description:  r.GetString("description"),
		SKU:          r.GetString("sku"),
		Category:     r.GetString("category"),
		Manufacturer: r.GetString("manufacturer"),
		Model:        r.GetString("model"),
		UOM:          r.GetString("uom"),
		WasteFactor:  r.GetFloat("waste_factor"),
		Specs:        specs,
		TimesUsed:    r.GetInt("times_used"),
		LastUsed:     r.GetDateTime("last_used").Time(),
		Active:       r.GetBool("active"),
	}
}

func bomItemFromRecord(r *core.Record) BOMLineItem {
	return BOMLineItem{
		ID:            r.Id,
		ProjectID:     r.GetString("project"),
		EstimateID:    r.GetString("estimate"),
		MaterialID:    r.GetString("material"),
		CSIDivision:   r.GetString("csi_division"),
		Category:      r.GetString("category"),
		Trade:         Trade(r.GetString("trade")),
		Description:   r.GetString("description"),
		SKU:           r.GetString("sku"),
		UOM:           r.GetString("uom"),
		RawQuantity:   r.GetFloat("raw_quantity"),
		WasteFactor:   r.GetFloat("waste_factor"),
		FinalQuantity: r.GetFloat("final_quantity"),
		UnitCost:      r.GetFloat("unit_cost"),
		TotalCost:     r.GetFloat("total_cost"),
		Confidence:    r.GetFloat("confidence"),
		Source:        r.GetString("source"),
		SourceFeature: r.GetString("source_feature"),
	}
}

func estimateFromRecord(r *core.Record) *Estimate {
	return &Estimate{
		ID:              r.Id,
		ProjectID:       r.GetString("project"),
		RunID:           r.GetString("run_id"),
		Status:          EstimateStatus(r.GetString("status")),
		MaterialCost:    r.GetFloat("material_cost"),
		AvgConfidence:   r.GetFloat("avg_confidence"),
		ItemCount:       r.GetInt("item_count"),
		FailedFeatures:  r.GetInt("failed_features"),
		SkippedFeatures: r.GetInt("skipped_features"),
	}
}

// metadataString returns metadata[key] as a string, or "" when absent.
func metadataString(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	return cast.ToString(metadata[key])
}

// ── RFQs and quotes ─────────────────────────────────────────────────────

// RFQStatus tracks an RFQ from draft to vendor response.
type RFQStatus string

const (
	RFQDraft     RFQStatus = "DRAFT"
	RFQSent      RFQStatus = "SENT"
	RFQResponded RFQStatus = "RESPONDED"
)

// RFQ is a request for quote sent to one vendor.
type RFQ struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	VendorID  string    `json:"vendor_id"`
	Number    string    `json:"rfq_number"`
	Status    RFQStatus `json:"status"`
	DueDate   time.Time `json:"due_date"`
	SentAt    time.Time `json:"sent_at"`
	Notes     string    `json:"notes"`
	Items     []RFQItem `json:"items"`
}

// RFQItem is a snapshot of a BOM line taken when the RFQ was created.
type RFQItem struct {
	ID          string  `json:"id"`
	BOMItemID   string  `json:"bom_item_id"`
	Description string  `json:"description"`
	SKU         string  `json:"sku"`
	Quantity    float64 `json:"quantity"`
	UOM         string  `json:"uom"`
}

// QuoteStatus tracks a quote through review. ACCEPTED and REJECTED are terminal.
type QuoteStatus string

const (
	QuoteReceived    QuoteStatus = "RECEIVED"
	QuoteUnderReview QuoteStatus = "UNDER_REVIEW"
	QuoteAccepted    QuoteStatus = "ACCEPTED"
	QuoteRejected    QuoteStatus = "REJECTED"
)

// Terminal reports whether the status can no longer change.
func (s QuoteStatus) Terminal() bool {
	return s == QuoteAccepted || s == QuoteRejected
}

// Quote is a vendor's response to an RFQ.
type Quote struct {
	ID             string            `json:"id"`
	ProjectID      string            `json:"project_id"`
	VendorID       string            `json:"vendor_id"`
	VendorName     string            `json:"vendor_name"`
	RFQID          string            `json:"rfq_id,omitempty"`
	Status         QuoteStatus       `json:"status"`
	ParseMethod    ParseMethod       `json:"parse_method"`
	TotalAmount    float64           `json:"total_amount"`
	Revision       int               `json:"revision"`
	UnmatchedLines []ParsedQuoteLine `json:"unmatched_lines"`
	Items          []QuoteItem       `json:"items"`
}

// QuoteItem is one persisted, matched quote line.
type QuoteItem struct {
	ID          string  `json:"id"`
	QuoteID     string  `json:"quote_id"`
	BOMItemID   string  `json:"bom_item_id,omitempty"`
	Description string  `json:"description"`
	SKU         string  `json:"sku,omitempty"`
	Quantity    float64 `json:"quantity"`
	UOM         string  `json:"uom"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

func rfqFromRecord(r *core.Record) *RFQ {
	return &RFQ{
		ID:        r.Id,
		ProjectID: r.GetString("project"),
		VendorID:  r.GetString("vendor"),
		Number:    r.GetString("rfq_number"),
		Status:    RFQStatus(r.GetString("status")),
		DueDate:   r.GetDateTime("due_date").Time(),
		SentAt:    r.GetDateTime("sent_at").Time(),
		Notes:     r.GetString("notes"),
	}
}

func rfqItemFromRecord(r *core.Record) RFQItem {
	return RFQItem{
		ID:          r.Id,
		BOMItemID:   r.GetString("bom_item"),
		Description: r.GetString("description"),
		SKU:         r.GetString("sku"),
		Quantity:    r.GetFloat("quantity"),
		UOM:         r.GetString("uom"),
	}
}

func quoteFromRecord(r *core.Record) *Quote {
	unmatched := []ParsedQuoteLine{}
	_ = r.UnmarshalJSONField("unmatched_lines", &unmatched)
	return &Quote{
		ID:             r.Id,
		ProjectID:      r.GetString("project"),
		VendorID:       r.GetString("vendor"),
		RFQID:          r.GetString("rfq"),
		Status:         QuoteStatus(r.GetString("status")),
		ParseMethod:    ParseMethod(r.GetString("parse_method")),
		TotalAmount:    r.GetFloat("total_amount"),
		Revision:       r.GetInt("revision"),
		UnmatchedLines: unmatched,
	}
}

func quoteItemFromRecord(r *core.Record) QuoteItem {
	return QuoteItem{
		ID:          r.Id,
		QuoteID:     r.GetString("quote"),
		BOMItemID:   r.GetString("bom_item"),
		Description: r.GetString("description"),
		SKU:         r.GetString("sku"),
		Quantity:    r.GetFloat("quantity"),
		UOM:         r.GetString("uom"),
		UnitPrice:   r.GetFloat("unit_price"),
		TotalPrice:  r.GetFloat("total_price"),
	}
}
