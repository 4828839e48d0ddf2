package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cobra"

	"bidprep/config"
	"bidprep/services"
)

// newBOMCommand generates a BOM for one project from the command line.
func newBOMCommand(app *pocketbase.PocketBase, cfg *config.Config) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "bom <projectId>",
		Short: "Generate a bill of materials from the project's takeoff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prepareSchema(app)

			estimating := cfg.Estimating
			if mode != "" {
				estimating.RegenerationMode = mode
			}

			overrides, err := services.LoadOverrides(app)
			if err != nil {
				return err
			}
			gen := services.NewBOMGenerator(app,
				services.NewRecordTakeoffSource(app),
				services.NewMaterialRegistry(app),
				estimating,
			)
			result, err := gen.Generate(cmd.Context(), args[0], overrides)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			est := result.Estimate
			fmt.Fprintf(out, "Estimate %s (%s): %d items, material cost %s\n",
				est.ID, est.Status, est.ItemCount, services.FormatUSD(est.MaterialCost))

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TRADE\tDESCRIPTION\tQTY\tUOM\tTOTAL")
			for _, item := range result.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					item.Trade, item.Description, services.FormatQuantity(item.FinalQuantity), item.UOM, services.FormatUSD(item.TotalCost))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			for _, f := range result.Failures {
				fmt.Fprintf(out, "failed: %s (%s): %s\n", f.Description, f.FeatureID, f.Error)
			}
			if result.RegistryFailures > 0 {
				fmt.Fprintf(out, "%d lines saved without a material link\n", result.RegistryFailures)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "regeneration mode override (append or supersede)")
	return cmd
}

// newLevelCommand prints a project's bid leveling and optionally writes the
// leveling workbook.
func newLevelCommand(app *pocketbase.PocketBase) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "level <projectId>",
		Short: "Level the vendor quotes received for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prepareSchema(app)

			project, err := app.FindRecordById("projects", args[0])
			if err != nil {
				return services.LookupErr(err, "project", args[0])
			}
			quotes, err := services.LoadProjectQuotes(app, project.Id)
			if err != nil {
				return err
			}
			comparison := services.CompareBids(quotes)
			leveling := services.LevelBids(quotes)

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DESCRIPTION\tBIDS\tLOWEST\tVENDOR\tHIGHEST\tVENDOR")
			for _, g := range leveling.Groups {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
					g.Description, g.BidCount,
					services.FormatUSD(g.LowestTotal), g.LowestVendor,
					services.FormatUSD(g.HighestTotal), g.HighestVendor)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(out, "\nLowest achievable total: %s\n", services.FormatUSD(leveling.LowestTotal))
			fmt.Fprintf(out, "Highest total:           %s\n", services.FormatUSD(leveling.HighestTotal))
			fmt.Fprintf(out, "Potential savings:       %s\n", services.FormatUSD(leveling.PotentialSavings))
			if v := leveling.CheapestVendor; v != nil {
				fmt.Fprintf(out, "Cheapest single vendor:  %s (%s)\n", v.VendorName, services.FormatUSD(v.Total))
			}

			if outPath == "" {
				return nil
			}
			data, err := services.GenerateLevelingExcel(services.LevelingExport{
				ProjectName: project.GetString("name"),
				GeneratedAt: time.Now(),
				Comparison:  comparison,
				Leveling:    leveling,
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintf(out, "Wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the leveling workbook to this .xlsx path")
	return cmd
}
