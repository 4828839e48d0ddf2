package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"bidprep/config"
	"bidprep/services"
)

// BOMListResponse is a project's visible BOM with its estimates.
type BOMListResponse struct {
	ProjectID string                  `json:"project_id"`
	Items     []services.BOMLineItem  `json:"items"`
	Totals    services.EstimateTotals `json:"totals"`
	Estimates []*services.Estimate    `json:"estimates"`
}

// HandleGenerateBOM runs BOM generation over the project's takeoff job.
// Route: POST /api/bidprep/projects/{projectId}/bom
func HandleGenerateBOM(app *pocketbase.PocketBase, cfg config.EstimatingConfig) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")

		overrides, err := services.LoadOverrides(app)
		if err != nil {
			return respondError(e, "bom_generate", err)
		}

		gen := services.NewBOMGenerator(app,
			services.NewRecordTakeoffSource(app),
			services.NewMaterialRegistry(app),
			cfg,
		)
		result, err := gen.Generate(e.Request.Context(), projectID, overrides)
		if err != nil {
			return respondError(e, "bom_generate", err)
		}
		return e.JSON(http.StatusCreated, result)
	}
}

// HandleListBOM returns the project's BOM lines, excluding superseded runs.
// Route: GET /api/bidprep/projects/{projectId}/bom
func HandleListBOM(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		project, err := loadProject(app, e)
		if err != nil {
			return respondError(e, "bom_list", err)
		}

		items, err := services.ListProjectBOMItems(app, project.Id)
		if err != nil {
			return respondError(e, "bom_list", err)
		}
		estimates, err := services.ListEstimates(app, project.Id)
		if err != nil {
			return respondError(e, "bom_list", err)
		}

		return e.JSON(http.StatusOK, BOMListResponse{
			ProjectID: project.Id,
			Items:     items,
			Totals:    services.CalcEstimateTotals(items),
			Estimates: estimates,
		})
	}
}

// HandleLaborEstimate returns the per-trade labor breakdown for the
// project's BOM.
// Route: GET /api/bidprep/projects/{projectId}/labor
func HandleLaborEstimate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		project, err := loadProject(app, e)
		if err != nil {
			return respondError(e, "labor", err)
		}
		est, err := services.EstimateProjectLabor(app, project.Id)
		if err != nil {
			return respondError(e, "labor", err)
		}
		return e.JSON(http.StatusOK, est)
	}
}
