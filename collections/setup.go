package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

// Trade codes shared by every collection that classifies work.
var tradeValues = []string{"M", "E", "P", "A", "S", "F"}

// Setup programmatically creates/ensures every collection used by the
// estimating and bidding pipeline. Collections are created leaf-first so
// relation fields can point at already-saved collection ids.
func Setup(app core.App) {
	// ── Takeoff (upstream mirror, read-only for the core) ──────────────

	takeoffJobs := ensureCollection(app, "takeoff_jobs", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"processing", "complete", "failed"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	ensureCollection(app, "takeoff_features", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "job",
			Required:      true,
			CollectionId:  takeoffJobs.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "feature_type",
			Required:  true,
			Values:    []string{"ROOM", "PIPE", "FIXTURE", "EQUIPMENT"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "label"})
		c.Fields.Add(&core.NumberField{Name: "area"})
		c.Fields.Add(&core.NumberField{Name: "length"})
		c.Fields.Add(&core.NumberField{Name: "diameter"})
		c.Fields.Add(&core.TextField{Name: "material_hint"})
		c.Fields.Add(&core.NumberField{Name: "count"})
		c.Fields.Add(&core.JSONField{Name: "metadata"})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
	})

	// ── Projects and estimates ─────────────────────────────────────────

	projects := ensureCollection(app, "projects", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "client_name"})
		c.Fields.Add(&core.TextField{Name: "reference_number"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"active", "bidding", "awarded", "completed", "on_hold"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "takeoff_job",
			CollectionId: takeoffJobs.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	estimates := ensureCollection(app, "estimates", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "project",
			Required:      true,
			CollectionId:  projects.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "run_id", Required: true})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"GENERATING", "COMPLETE", "PARTIAL", "SUPERSEDED"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "material_cost"})
		c.Fields.Add(&core.NumberField{Name: "avg_confidence"})
		c.Fields.Add(&core.NumberField{Name: "item_count"})
		c.Fields.Add(&core.NumberField{Name: "failed_features"})
		c.Fields.Add(&core.NumberField{Name: "skipped_features"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	// ── Material registry and BOM ──────────────────────────────────────

	materials := ensureCollection(app, "materials", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.SelectField{Name: "trade", Required: true, Values: tradeValues, MaxSelect: 1})
		c.Fields.Add(&core.TextField{Name: "description"})
		c.Fields.Add(&core.TextField{Name: "sku"})
		c.Fields.Add(&core.TextField{Name: "category"})
		c.Fields.Add(&core.TextField{Name: "manufacturer"})
		c.Fields.Add(&core.TextField{Name: "model"})
		c.Fields.Add(&core.TextField{Name: "uom"})
		c.Fields.Add(&core.NumberField{Name: "waste_factor"})
		c.Fields.Add(&core.JSONField{Name: "specs"})
		c.Fields.Add(&core.NumberField{Name: "times_used", OnlyInt: true})
		c.Fields.Add(&core.DateField{Name: "last_used"})
		c.Fields.Add(&core.BoolField{Name: "active"})
		c.AddIndex("idx_materials_name_trade", true, "name, trade", "")
	})

	bomItems := ensureCollection(app, "bom_line_items", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "project",
			Required:      true,
			CollectionId:  projects.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:          "estimate",
			Required:      true,
			CollectionId:  estimates.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "material",
			CollectionId: materials.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.TextField{Name: "csi_division"})
		c.Fields.Add(&core.TextField{Name: "category", Required: true})
		c.Fields.Add(&core.SelectField{Name: "trade", Required: true, Values: tradeValues, MaxSelect: 1})
		c.Fields.Add(&core.TextField{Name: "description", Required: true})
		c.Fields.Add(&core.TextField{Name: "sku"})
		c.Fields.Add(&core.TextField{Name: "uom", Required: true})
		c.Fields.Add(&core.NumberField{Name: "raw_quantity"})
		c.Fields.Add(&core.NumberField{Name: "waste_factor"})
		c.Fields.Add(&core.NumberField{Name: "final_quantity"})
		c.Fields.Add(&core.NumberField{Name: "unit_cost"})
		c.Fields.Add(&core.NumberField{Name: "total_cost"})
		c.Fields.Add(&core.NumberField{Name: "confidence"})
		c.Fields.Add(&core.TextField{Name: "source"})
		c.Fields.Add(&core.TextField{Name: "source_feature"})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	// ── Vendors ────────────────────────────────────────────────────────

	vendors := ensureCollection(app, "vendors", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.EmailField{Name: "email"})
		c.Fields.Add(&core.TextField{Name: "contact_name"})
		c.Fields.Add(&core.TextField{Name: "phone"})
		c.Fields.Add(&core.SelectField{
			Name:      "vendor_type",
			Values:    []string{"MATERIAL_SUPPLIER", "SUBCONTRACTOR", "BOTH"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.SelectField{Name: "trades", Values: tradeValues, MaxSelect: len(tradeValues)})
		c.Fields.Add(&core.JSONField{Name: "materials"})
		c.Fields.Add(&core.JSONField{Name: "services"})
		c.Fields.Add(&core.NumberField{Name: "service_radius_miles"})
		c.Fields.Add(&core.NumberField{Name: "rating"})
		c.Fields.Add(&core.BoolField{Name: "active"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	// ── RFQs and quotes ────────────────────────────────────────────────

	rfqs := ensureCollection(app, "rfqs", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "project",
			Required:      true,
			CollectionId:  projects.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "vendor",
			Required:     true,
			CollectionId: vendors.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.TextField{Name: "rfq_number", Required: true})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"DRAFT", "SENT", "RESPONDED"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.DateField{Name: "due_date"})
		c.Fields.Add(&core.DateField{Name: "sent_at"})
		c.Fields.Add(&core.TextField{Name: "notes"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "rfq_items", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "rfq",
			Required:      true,
			CollectionId:  rfqs.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "bom_item",
			Required:     true,
			CollectionId: bomItems.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.TextField{Name: "description", Required: true})
		c.Fields.Add(&core.TextField{Name: "sku"})
		c.Fields.Add(&core.NumberField{Name: "quantity"})
		c.Fields.Add(&core.TextField{Name: "uom"})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
	})

	quotes := ensureCollection(app, "quotes", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "project",
			Required:      true,
			CollectionId:  projects.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "vendor",
			Required:     true,
			CollectionId: vendors.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "rfq",
			CollectionId: rfqs.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"RECEIVED", "UNDER_REVIEW", "ACCEPTED", "REJECTED"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "parse_method",
			Values:    []string{"STRUCTURED", "FREE_TEXT"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "total_amount"})
		c.Fields.Add(&core.NumberField{Name: "revision", OnlyInt: true})
		c.Fields.Add(&core.JSONField{Name: "unmatched_lines"})
		c.Fields.Add(&core.TextField{Name: "raw_text"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "quote_items", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "quote",
			Required:      true,
			CollectionId:  quotes.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "bom_item",
			CollectionId: bomItems.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.TextField{Name: "description", Required: true})
		c.Fields.Add(&core.TextField{Name: "sku"})
		c.Fields.Add(&core.NumberField{Name: "quantity"})
		c.Fields.Add(&core.TextField{Name: "uom"})
		c.Fields.Add(&core.NumberField{Name: "unit_price"})
		c.Fields.Add(&core.NumberField{Name: "total_price"})
	})

	ensureCollection(app, "vendor_material_pricing", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "vendor",
			Required:      true,
			CollectionId:  vendors.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:          "material",
			Required:      true,
			CollectionId:  materials.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "unit_cost"})
		c.Fields.Add(&core.TextField{Name: "uom"})
		c.Fields.Add(&core.NumberField{Name: "lead_time_days", OnlyInt: true})
		c.Fields.Add(&core.DateField{Name: "last_quote_date"})
		c.Fields.Add(&core.RelationField{
			Name:         "source_quote",
			CollectionId: quotes.Id,
			MaxSelect:    1,
		})
		c.AddIndex("idx_vendor_material_pricing_pair", true, "vendor, material", "")
	})

	// ── Admin overrides ────────────────────────────────────────────────

	ensureCollection(app, "material_rules", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "material_name", Required: true})
		c.Fields.Add(&core.NumberField{Name: "unit_cost"})
		c.Fields.Add(&core.NumberField{Name: "labor_hours_per_unit"})
		c.Fields.Add(&core.NumberField{Name: "waste_factor"})
		c.Fields.Add(&core.BoolField{Name: "has_waste_factor"})
		c.AddIndex("idx_material_rules_name", true, "material_name", "")
	})

	ensureCollection(app, "trade_markups", func(c *core.Collection) {
		c.Fields.Add(&core.SelectField{Name: "trade", Required: true, Values: tradeValues, MaxSelect: 1})
		c.Fields.Add(&core.NumberField{Name: "markup_percent"})
		c.AddIndex("idx_trade_markups_trade", true, "trade", "")
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app core.App, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
