package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bidprep/collections"
	"bidprep/config"
	"bidprep/handlers"
	"bidprep/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	app := pocketbase.New()

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		prepareSchema(app)
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		api := se.Router.Group("/api/bidprep")
		api.BindFunc(handlers.RequestMetrics())

		// ── Project-scoped estimating ───────────────────────────
		project := api.Group("/projects/{projectId}")
		project.BindFunc(handlers.ProjectScope(app))

		project.POST("/bom", handlers.HandleGenerateBOM(app, cfg.Estimating))
		project.GET("/bom", handlers.HandleListBOM(app))
		project.GET("/labor", handlers.HandleLaborEstimate(app))

		// ── Vendor matching ─────────────────────────────────────
		project.GET("/vendors/coverage", handlers.HandleVendorCoverage(app))
		project.GET("/vendors/remaining", handlers.HandleRemainingMaterials(app))
		project.GET("/vendors/suggest", handlers.HandleSuggestVendors(app))

		// ── RFQs ────────────────────────────────────────────────
		notifier := services.NewMailNotifier(app, cfg.Mail)
		project.POST("/rfqs", handlers.HandleCreateRFQ(app))
		project.GET("/rfqs", handlers.HandleListRFQs(app))
		project.GET("/rfqs/{rfqId}", handlers.HandleGetRFQ(app))
		project.POST("/rfqs/{rfqId}/send", handlers.HandleSendRFQ(app, notifier, cfg.Mail))
		project.GET("/rfqs/{rfqId}/pdf", handlers.HandleRFQPDF(app, cfg.Company))

		// ── Bid leveling ────────────────────────────────────────
		project.GET("/bids/compare", handlers.HandleCompareBids(app))
		project.GET("/bids/level", handlers.HandleLevelBids(app))
		project.GET("/bids/level/export", handlers.HandleLevelingExport(app))

		// ── Quotes ──────────────────────────────────────────────
		api.POST("/rfqs/{rfqId}/quotes", handlers.HandleIngestQuote(app))
		api.GET("/quotes/{quoteId}", handlers.HandleGetQuote(app))
		api.POST("/quotes/{quoteId}/award", handlers.HandleAwardQuote(app))

		// ── Vendor roster ───────────────────────────────────────
		api.GET("/vendors/template", handlers.HandleVendorTemplate(app))
		api.GET("/vendors/export", handlers.HandleVendorExport(app))
		api.POST("/vendors/import", handlers.HandleVendorImport(app))
		api.GET("/vendors/{vendorId}/prices", handlers.HandleVendorPrices(app))

		if cfg.MetricsEnabled {
			se.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
		}

		return se.Next()
	})

	app.RootCmd.AddCommand(
		newBOMCommand(app, cfg),
		newLevelCommand(app),
	)

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

// prepareSchema creates collections, seeds reference data and runs the
// startup migrations. Failures after Setup are logged and startup continues.
func prepareSchema(app core.App) {
	collections.Setup(app)
	if err := collections.Seed(app); err != nil {
		log.Printf("Warning: seed data failed: %v", err)
	}
	if err := collections.MigrateVendorTypes(app); err != nil {
		log.Printf("Warning: vendor type migration failed: %v", err)
	}
	if err := collections.EnsureTradeMarkups(app); err != nil {
		log.Printf("Warning: trade markup migration failed: %v", err)
	}
}
