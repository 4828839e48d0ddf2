package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bidprep/config"
	"bidprep/metrics"

	"github.com/google/uuid"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"golang.org/x/sync/errgroup"
)

// FeatureFailure records a feature whose lines could not all be persisted.
type FeatureFailure struct {
	FeatureID   string `json:"feature_id"`
	Description string `json:"description"`
	Error       string `json:"error"`
}

// BOMResult is the outcome of one generation run.
type BOMResult struct {
	Estimate         *Estimate        `json:"estimate"`
	Items            []BOMLineItem    `json:"items"`
	Failures         []FeatureFailure `json:"failures"`
	SkippedFeatures  []string         `json:"skipped_features"`
	RegistryFailures int              `json:"registry_failures"`
}

// BOMGenerator turns a project's takeoff into a priced bill of materials.
type BOMGenerator struct {
	app      core.App
	takeoff  TakeoffSource
	registry MaterialResolver
	cfg      config.EstimatingConfig
}

func NewBOMGenerator(app core.App, takeoff TakeoffSource, registry MaterialResolver, cfg config.EstimatingConfig) *BOMGenerator {
	if cfg.BOMParallelism <= 0 {
		cfg.BOMParallelism = 1
	}
	if cfg.CeilingHeightFt <= 0 {
		cfg.CeilingHeightFt = DefaultCeilingHeightFt
	}
	if cfg.RegenerationMode == "" {
		cfg.RegenerationMode = config.RegenerationAppend
	}
	return &BOMGenerator{app: app, takeoff: takeoff, registry: registry, cfg: cfg}
}

// Generate derives line items for every takeoff feature of the project and
// persists them under a new estimate. An unavailable takeoff fails before
// anything is written. Lines that cannot be saved mark the estimate PARTIAL
// and are reported in the result; registry failures only drop the material
// link.
func (g *BOMGenerator) Generate(ctx context.Context, projectID string, o Overrides) (*BOMResult, error) {
	started := time.Now()
	logger := g.app.Logger().With("component", "bom", "project", projectID)

	project, err := g.app.FindRecordById("projects", projectID)
	if err != nil {
		return nil, LookupErr(err, "project", projectID)
	}

	features, err := g.takeoff.Features(ctx, project.GetString("takeoff_job"))
	if err != nil {
		if !errors.Is(err, ErrTakeoffUnavailable) {
			err = fmt.Errorf("%w: %v", ErrTakeoffUnavailable, err)
		}
		return nil, err
	}

	derived, err := g.deriveAll(ctx, features, o)
	if err != nil {
		return nil, err
	}

	estimate, err := g.createEstimate(projectID)
	if err != nil {
		return nil, err
	}

	result := &BOMResult{SkippedFeatures: []string{}, Failures: []FeatureFailure{}}
	sortOrder := 0
	for i, f := range features {
		lines := derived[i]
		if len(lines) == 0 {
			result.SkippedFeatures = append(result.SkippedFeatures, f.ID)
			continue
		}
		if ctx.Err() != nil {
			result.Failures = append(result.Failures, FeatureFailure{
				FeatureID:   f.ID,
				Description: f.Label,
				Error:       ctx.Err().Error(),
			})
			continue
		}
		for _, line := range lines {
			item := line.Item
			item.ProjectID = projectID
			item.EstimateID = estimate.Id

			mat, err := g.registry.Resolve(ctx, line.Material)
			if err != nil {
				result.RegistryFailures++
				metrics.RegistryFailures.Inc()
				logger.Warn("material registry failed, saving line unlinked",
					"material", line.Material.Name, "error", err)
			} else {
				item.MaterialID = mat.ID
			}

			sortOrder++
			if err := g.saveItem(&item, sortOrder); err != nil {
				metrics.BOMFeatureFailures.Inc()
				logger.Error("could not save BOM line", "feature", f.ID, "line", item.Description, "error", err)
				result.Failures = append(result.Failures, FeatureFailure{
					FeatureID:   f.ID,
					Description: item.Description,
					Error:       err.Error(),
				})
				break
			}
			metrics.BOMItemsGenerated.WithLabelValues(string(item.Trade)).Inc()
		}
	}

	items, err := g.finalize(estimate, result)
	if err != nil {
		return nil, err
	}
	result.Items = items
	result.Estimate = estimateFromRecord(estimate)

	if g.cfg.RegenerationMode == config.RegenerationSupersede {
		if err := g.supersedePrior(projectID, estimate.Id); err != nil {
			return nil, err
		}
	}

	metrics.BOMGenerationSeconds.Observe(time.Since(started).Seconds())
	logger.Info("BOM generated",
		"estimate", estimate.Id,
		"status", result.Estimate.Status,
		"items", len(items),
		"failed", len(result.Failures),
		"skipped", len(result.SkippedFeatures),
	)
	return result, nil
}

// deriveAll runs DeriveLineItems for every feature, bounded by the
// configured parallelism. Output order matches the feature order.
func (g *BOMGenerator) deriveAll(ctx context.Context, features []TakeoffFeature, o Overrides) ([][]DerivedLine, error) {
	derived := make([][]DerivedLine, len(features))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.BOMParallelism)
	for i, f := range features {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			derived[i] = DeriveLineItems(f, o, g.cfg.CeilingHeightFt)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return derived, nil
}

func (g *BOMGenerator) createEstimate(projectID string) (*core.Record, error) {
	col, err := g.app.FindCollectionByNameOrId("estimates")
	if err != nil {
		return nil, fmt.Errorf("estimates collection: %w", err)
	}
	rec := core.NewRecord(col)
	rec.Set("project", projectID)
	rec.Set("run_id", uuid.NewString())
	rec.Set("status", string(EstimateGenerating))
	if err := g.app.Save(rec); err != nil {
		return nil, fmt.Errorf("create estimate: %w", err)
	}
	return rec, nil
}

func (g *BOMGenerator) saveItem(item *BOMLineItem, sortOrder int) error {
	col, err := g.app.FindCollectionByNameOrId("bom_line_items")
	if err != nil {
		return err
	}
	rec := core.NewRecord(col)
	rec.Set("project", item.ProjectID)
	rec.Set("estimate", item.EstimateID)
	if item.MaterialID != "" {
		rec.Set("material", item.MaterialID)
	}
	rec.Set("csi_division", item.CSIDivision)
	rec.Set("category", item.Category)
	rec.Set("trade", string(item.Trade))
	rec.Set("description", item.Description)
	rec.Set("sku", item.SKU)
	rec.Set("uom", item.UOM)
	rec.Set("raw_quantity", item.RawQuantity)
	rec.Set("waste_factor", item.WasteFactor)
	rec.Set("final_quantity", item.FinalQuantity)
	rec.Set("unit_cost", item.UnitCost)
	rec.Set("total_cost", item.TotalCost)
	rec.Set("confidence", item.Confidence)
	rec.Set("source", item.Source)
	rec.Set("source_feature", item.SourceFeature)
	rec.Set("sort_order", sortOrder)
	if err := g.app.Save(rec); err != nil {
		return err
	}
	item.ID = rec.Id
	return nil
}

// finalize recomputes the estimate totals from what was actually persisted
// and settles its status.
func (g *BOMGenerator) finalize(estimate *core.Record, result *BOMResult) ([]BOMLineItem, error) {
	records, err := g.app.FindRecordsByFilter(
		"bom_line_items",
		"estimate = {:estimate}",
		"sort_order",
		0, 0,
		dbx.Params{"estimate": estimate.Id},
	)
	if err != nil {
		return nil, fmt.Errorf("load estimate items: %w", err)
	}
	items := make([]BOMLineItem, 0, len(records))
	for _, rec := range records {
		items = append(items, bomItemFromRecord(rec))
	}

	totals := CalcEstimateTotals(items)
	status := EstimateComplete
	if len(result.Failures) > 0 {
		status = EstimatePartial
	}
	estimate.Set("material_cost", roundTo(totals.MaterialCost, 2))
	estimate.Set("avg_confidence", roundTo(totals.AvgConfidence, 4))
	estimate.Set("item_count", totals.ItemCount)
	estimate.Set("failed_features", len(result.Failures))
	estimate.Set("skipped_features", len(result.SkippedFeatures))
	estimate.Set("status", string(status))
	if err := g.app.Save(estimate); err != nil {
		return nil, fmt.Errorf("finalize estimate: %w", err)
	}
	return items, nil
}

// supersedePrior marks every earlier estimate of the project SUPERSEDED.
func (g *BOMGenerator) supersedePrior(projectID, keepID string) error {
	return g.app.RunInTransaction(func(txApp core.App) error {
		prior, err := txApp.FindRecordsByFilter(
			"estimates",
			"project = {:project} && id != {:keep} && status != {:superseded}",
			"", 0, 0,
			dbx.Params{"project": projectID, "keep": keepID, "superseded": string(EstimateSuperseded)},
		)
		if err != nil {
			return fmt.Errorf("load prior estimates: %w", err)
		}
		for _, rec := range prior {
			rec.Set("status", string(EstimateSuperseded))
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("supersede estimate %s: %w", rec.Id, err)
			}
		}
		return nil
	})
}

// ListProjectBOMItems returns the project's BOM lines, excluding lines that
// belong to superseded estimates or to a run that is still generating.
func ListProjectBOMItems(app core.App, projectID string) ([]BOMLineItem, error) {
	records, err := app.FindRecordsByFilter(
		"bom_line_items",
		"project = {:project} && estimate.status != {:superseded} && estimate.status != {:generating}",
		"created,sort_order",
		0, 0,
		dbx.Params{
			"project":    projectID,
			"superseded": string(EstimateSuperseded),
			"generating": string(EstimateGenerating),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("load BOM items for project %s: %w", projectID, err)
	}
	items := make([]BOMLineItem, 0, len(records))
	for _, rec := range records {
		items = append(items, bomItemFromRecord(rec))
	}
	return items, nil
}

// ListEstimates returns the project's estimates, newest first.
func ListEstimates(app core.App, projectID string) ([]*Estimate, error) {
	records, err := app.FindRecordsByFilter(
		"estimates",
		"project = {:project}",
		"-created",
		0, 0,
		dbx.Params{"project": projectID},
	)
	if err != nil {
		return nil, fmt.Errorf("load estimates for project %s: %w", projectID, err)
	}
	out := make([]*Estimate, 0, len(records))
	for _, rec := range records {
		out = append(out, estimateFromRecord(rec))
	}
	return out, nil
}
