package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

// ── Definition structs ───────────────────────────────────────────────────

type vendorDef struct {
	name        string
	email       string
	contactName string
	phone       string
	vendorType  string
	trades      []string
	materials   []string
	services    []string
	radiusMiles float64
	rating      float64
}

type featureDef struct {
	featureType  string
	label        string
	area         float64
	length       float64
	diameter     float64
	materialHint string
	count        float64
	metadata     map[string]any
}

type ruleDef struct {
	materialName      string
	unitCost          float64
	laborHoursPerUnit float64
	wasteFactor       float64
	hasWasteFactor    bool
}

// Seed populates an empty database with a demo takeoff, project, vendor
// roster, default trade markups and a few material rules. It is safe to call
// on every startup because it returns early if any project records already
// exist.
func Seed(app core.App) error {
	// ── idempotency: skip if projects already exist ──────────────────
	projectsCol, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		return fmt.Errorf("seed: could not find projects collection: %w", err)
	}
	existing, err := app.FindAllRecords(projectsCol)
	if err != nil {
		return fmt.Errorf("seed: could not query projects: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	log.Println("seed: projects collection is empty – inserting seed data …")

	jobsCol, err := app.FindCollectionByNameOrId("takeoff_jobs")
	if err != nil {
		return fmt.Errorf("seed: could not find takeoff_jobs collection: %w", err)
	}
	featuresCol, err := app.FindCollectionByNameOrId("takeoff_features")
	if err != nil {
		return fmt.Errorf("seed: could not find takeoff_features collection: %w", err)
	}
	vendorsCol, err := app.FindCollectionByNameOrId("vendors")
	if err != nil {
		return fmt.Errorf("seed: could not find vendors collection: %w", err)
	}
	rulesCol, err := app.FindCollectionByNameOrId("material_rules")
	if err != nil {
		return fmt.Errorf("seed: could not find material_rules collection: %w", err)
	}

	// ── takeoff job + features ───────────────────────────────────────
	job := core.NewRecord(jobsCol)
	job.Set("name", "Level 1 Tenant Fit-Out")
	job.Set("status", "complete")
	if err := app.Save(job); err != nil {
		return fmt.Errorf("seed: could not save takeoff job: %w", err)
	}

	features := []featureDef{
		{featureType: "ROOM", label: "Open Office 101", area: 1850},
		{featureType: "ROOM", label: "Conference 102", area: 420},
		{featureType: "ROOM", label: "Restroom 103", area: 160},
		{featureType: "PIPE", label: "Domestic Cold Water", length: 145, diameter: 1, materialHint: "Copper"},
		{featureType: "PIPE", label: "Sanitary Waste", length: 88, diameter: 4, materialHint: "PVC"},
		{featureType: "FIXTURE", label: "Water Closet", count: 2, metadata: map[string]any{"type": "toilet", "manufacturer": "Kohler"}},
		{featureType: "FIXTURE", label: "Lavatory", count: 2, metadata: map[string]any{"type": "sink"}},
		{featureType: "EQUIPMENT", label: "RTU-1", count: 1, metadata: map[string]any{"type": "rooftop unit", "tons": 7.5}},
	}
	for i, d := range features {
		r := core.NewRecord(featuresCol)
		r.Set("job", job.Id)
		r.Set("feature_type", d.featureType)
		r.Set("label", d.label)
		r.Set("area", d.area)
		r.Set("length", d.length)
		r.Set("diameter", d.diameter)
		r.Set("material_hint", d.materialHint)
		r.Set("count", d.count)
		if d.metadata != nil {
			r.Set("metadata", d.metadata)
		}
		r.Set("sort_order", i+1)
		if err := app.Save(r); err != nil {
			return fmt.Errorf("seed: could not save takeoff feature %q: %w", d.label, err)
		}
	}

	// ── project ──────────────────────────────────────────────────────
	project := core.NewRecord(projectsCol)
	project.Set("name", "Riverside Medical Office – Suite 100")
	project.Set("client_name", "Riverside Health Partners")
	project.Set("reference_number", "RMO-100")
	project.Set("status", "active")
	project.Set("takeoff_job", job.Id)
	if err := app.Save(project); err != nil {
		return fmt.Errorf("seed: could not save project: %w", err)
	}

	// ── vendors ──────────────────────────────────────────────────────
	vendors := []vendorDef{
		{
			name: "Metro Plumbing Supply", email: "quotes@metroplumbing.example", contactName: "Dana Ortiz",
			phone: "555-0141", vendorType: "MATERIAL_SUPPLIER", trades: []string{"P"},
			materials: []string{"Copper Pipe Type L", "PVC DWV Pipe"}, radiusMiles: 60, rating: 4.5,
		},
		{
			name: "Summit Interiors", email: "bids@summitinteriors.example", contactName: "Lee Park",
			phone: "555-0177", vendorType: "SUBCONTRACTOR", trades: []string{"A"},
			services: []string{"flooring", "painting", "acoustical ceilings"}, radiusMiles: 40, rating: 4.2,
		},
		{
			name: "Allied Mechanical", email: "estimating@alliedmech.example", contactName: "Sam Reyes",
			phone: "555-0190", vendorType: "BOTH", trades: []string{"M", "P"},
			materials: []string{"Packaged Rooftop Unit"}, services: []string{"hvac install", "plumbing rough-in"},
			radiusMiles: 100, rating: 4.8,
		},
	}
	for _, d := range vendors {
		r := core.NewRecord(vendorsCol)
		r.Set("name", d.name)
		r.Set("email", d.email)
		r.Set("contact_name", d.contactName)
		r.Set("phone", d.phone)
		r.Set("vendor_type", d.vendorType)
		r.Set("trades", d.trades)
		r.Set("materials", d.materials)
		r.Set("services", d.services)
		r.Set("service_radius_miles", d.radiusMiles)
		r.Set("rating", d.rating)
		r.Set("active", true)
		if err := app.Save(r); err != nil {
			return fmt.Errorf("seed: could not save vendor %q: %w", d.name, err)
		}
	}

	// ── material rules ───────────────────────────────────────────────
	rules := []ruleDef{
		{materialName: "Packaged Rooftop Unit", unitCost: 14250, laborHoursPerUnit: 24},
		{materialName: "Acoustic Ceiling Tile 2x2", laborHoursPerUnit: 0.025, wasteFactor: 0.08, hasWasteFactor: true},
	}
	for _, d := range rules {
		r := core.NewRecord(rulesCol)
		r.Set("material_name", d.materialName)
		r.Set("unit_cost", d.unitCost)
		r.Set("labor_hours_per_unit", d.laborHoursPerUnit)
		r.Set("waste_factor", d.wasteFactor)
		r.Set("has_waste_factor", d.hasWasteFactor)
		if err := app.Save(r); err != nil {
			return fmt.Errorf("seed: could not save material rule %q: %w", d.materialName, err)
		}
	}

	log.Printf("seed: inserted project %q with %d takeoff features and %d vendors\n",
		project.GetString("name"), len(features), len(vendors))
	return nil
}
