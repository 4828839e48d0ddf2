package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// MaterialDescriptor is what a caller knows about a material when it
// references it. Name and Trade identify the registry row.
type MaterialDescriptor struct {
	Name         string
	Trade        Trade
	Description  string
	SKU          string
	Category     string
	Manufacturer string
	Model        string
	UOM          string
	WasteFactor  float64
	Specs        map[string]any
}

func (d MaterialDescriptor) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&d.Trade, validation.Required, validation.In(tradeRuleValues()...)),
		validation.Field(&d.WasteFactor, validation.Min(0.0)),
	)
}

func tradeRuleValues() []any {
	values := make([]any, len(AllTrades))
	for i, t := range AllTrades {
		values[i] = t
	}
	return values
}

// MaterialResolver resolves a descriptor to its canonical registry entry.
type MaterialResolver interface {
	Resolve(ctx context.Context, d MaterialDescriptor) (*Material, error)
}

// MaterialRegistry is the PocketBase-backed MaterialResolver.
type MaterialRegistry struct {
	app core.App
	now func() time.Time
}

func NewMaterialRegistry(app core.App) *MaterialRegistry {
	return &MaterialRegistry{app: app, now: time.Now}
}

// Resolve looks up the material by (name, trade). An existing row has its
// usage counter incremented, its last-used time refreshed and any newly
// supplied descriptive fields merged in. A missing row is created with a
// usage count of one. If a concurrent create wins the unique index, the
// lookup is retried once and treated as a hit.
func (r *MaterialRegistry) Resolve(ctx context.Context, d MaterialDescriptor) (*Material, error) {
	d.Name = strings.TrimSpace(d.Name)
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var (
		mat *Material
		err error
	)
	for attempt := 0; attempt < 2; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		mat, err = r.resolveOnce(d)
		if err == nil || !errors.Is(err, errMaterialCreate) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return mat, nil
}

var errMaterialCreate = errors.New("create material")

func (r *MaterialRegistry) resolveOnce(d MaterialDescriptor) (*Material, error) {
	var resolved *Material
	err := r.app.RunInTransaction(func(txApp core.App) error {
		rec, err := txApp.FindFirstRecordByFilter("materials",
			"name = {:name} && trade = {:trade}",
			dbx.Params{"name": d.Name, "trade": string(d.Trade)},
		)
		switch {
		case err == nil:
			merged := mergeMaterial(*materialFromRecord(rec), d)
			applyMaterial(rec, merged)
			rec.Set("times_used", rec.GetInt("times_used")+1)
			rec.Set("last_used", r.now().UTC())
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("update material %q: %w", d.Name, err)
			}
		case errors.Is(err, sql.ErrNoRows):
			col, err := txApp.FindCollectionByNameOrId("materials")
			if err != nil {
				return fmt.Errorf("materials collection: %w", err)
			}
			rec = core.NewRecord(col)
			applyMaterial(rec, mergeMaterial(Material{Name: d.Name, Trade: d.Trade}, d))
			rec.Set("times_used", 1)
			rec.Set("last_used", r.now().UTC())
			rec.Set("active", true)
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("%w %q: %v", errMaterialCreate, d.Name, err)
			}
		default:
			return fmt.Errorf("lookup material %q: %w", d.Name, err)
		}
		resolved = materialFromRecord(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// mergeMaterial returns existing with the descriptor's non-empty fields
// applied. Empty descriptor values never clear a stored value, and specs
// merge key by key.
func mergeMaterial(existing Material, d MaterialDescriptor) Material {
	merged := existing
	setIfPresent(&merged.Description, d.Description)
	setIfPresent(&merged.SKU, d.SKU)
	setIfPresent(&merged.Category, d.Category)
	setIfPresent(&merged.Manufacturer, d.Manufacturer)
	setIfPresent(&merged.Model, d.Model)
	setIfPresent(&merged.UOM, d.UOM)
	if d.WasteFactor > 0 {
		merged.WasteFactor = d.WasteFactor
	}

	if len(d.Specs) > 0 {
		specs := make(map[string]any, len(existing.Specs)+len(d.Specs))
		maps.Copy(specs, existing.Specs)
		for k, v := range d.Specs {
			if v == nil {
				continue
			}
			if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
				continue
			}
			specs[k] = v
		}
		merged.Specs = specs
	}
	return merged
}

func setIfPresent(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func applyMaterial(rec *core.Record, m Material) {
	rec.Set("name", m.Name)
	rec.Set("trade", string(m.Trade))
	rec.Set("description", m.Description)
	rec.Set("sku", m.SKU)
	rec.Set("category", m.Category)
	rec.Set("manufacturer", m.Manufacturer)
	rec.Set("model", m.Model)
	rec.Set("uom", m.UOM)
	rec.Set("waste_factor", m.WasteFactor)
	if m.Specs != nil {
		rec.Set("specs", m.Specs)
	}
}
