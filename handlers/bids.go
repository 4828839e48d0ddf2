package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"bidprep/services"
)

// LevelingResponse carries both savings views of a project's bids.
type LevelingResponse struct {
	ProjectID  string                 `json:"project_id"`
	QuoteCount int                    `json:"quote_count"`
	Comparison services.BidComparison `json:"comparison"`
	Leveling   services.BidLeveling   `json:"leveling"`
}

// HandleCompareBids returns the side-by-side unit price comparison.
// Route: GET /api/bidprep/projects/{projectId}/bids/compare
func HandleCompareBids(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quotes, err := services.LoadProjectQuotes(app, e.Request.PathValue("projectId"))
		if err != nil {
			return respondError(e, "bids_compare", err)
		}
		return e.JSON(http.StatusOK, services.CompareBids(quotes))
	}
}

// HandleLevelBids returns the comparison plus item-level and vendor-level
// leveling.
// Route: GET /api/bidprep/projects/{projectId}/bids/level
func HandleLevelBids(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		quotes, err := services.LoadProjectQuotes(app, projectID)
		if err != nil {
			return respondError(e, "bids_level", err)
		}
		return e.JSON(http.StatusOK, LevelingResponse{
			ProjectID:  projectID,
			QuoteCount: len(quotes),
			Comparison: services.CompareBids(quotes),
			Leveling:   services.LevelBids(quotes),
		})
	}
}

// HandleLevelingExport downloads the leveling workbook.
// Route: GET /api/bidprep/projects/{projectId}/bids/level/export
func HandleLevelingExport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		project, err := loadProject(app, e)
		if err != nil {
			return respondError(e, "bids_export", err)
		}
		quotes, err := services.LoadProjectQuotes(app, project.Id)
		if err != nil {
			return respondError(e, "bids_export", err)
		}

		now := time.Now()
		data, err := services.GenerateLevelingExcel(services.LevelingExport{
			ProjectName: project.GetString("name"),
			GeneratedAt: now,
			Comparison:  services.CompareBids(quotes),
			Leveling:    services.LevelBids(quotes),
		})
		if err != nil {
			return respondError(e, "bids_export", err)
		}

		filename := fmt.Sprintf("Bid_Leveling_%s_%s.xlsx", sanitizeFilename(project.GetString("name")), now.Format("2006-01-02"))
		return sendFile(e, xlsxContentType, filename, data)
	}
}
