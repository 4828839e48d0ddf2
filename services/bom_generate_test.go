package services

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"bidprep/config"
	"bidprep/testhelpers"

	"github.com/pocketbase/pocketbase/core"
)

func testEstimatingConfig(mode string) config.EstimatingConfig {
	return config.EstimatingConfig{CeilingHeightFt: 8, RegenerationMode: mode, BOMParallelism: 4}
}

// seedTakeoffProject creates a completed takeoff job with the given features
// and a project pointing at it.
func seedTakeoffProject(t *testing.T, app core.App, features ...testhelpers.Feature) *core.Record {
	t.Helper()
	job := testhelpers.CreateTestTakeoffJob(t, app, "Level 1", "complete")
	for i, f := range features {
		testhelpers.CreateTestFeature(t, app, job.Id, i+1, f)
	}
	return testhelpers.CreateTestProjectWithTakeoff(t, app, "Takeoff Project", job.Id)
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, MaterialDescriptor) (*Material, error) {
	return nil, errors.New("registry offline")
}

type failingTakeoff struct{}

func (failingTakeoff) Features(context.Context, string) ([]TakeoffFeature, error) {
	return nil, errors.New("connection refused")
}

func TestBOMGenerator_SingleRoom(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := seedTakeoffProject(t, app, testhelpers.Feature{Type: "ROOM", Label: "Office", Area: 1000})

	gen := NewBOMGenerator(app, NewRecordTakeoffSource(app), NewMaterialRegistry(app), testEstimatingConfig(config.RegenerationAppend))
	result, err := gen.Generate(context.Background(), proj.Id, Overrides{})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if len(result.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result.Items))
	}
	wantQty := []float64{1100, 4 * math.Sqrt(1000) * 8 * 1.05, 1080}
	for i, item := range result.Items {
		if math.Abs(item.FinalQuantity-wantQty[i]) > 0.001 {
			t.Errorf("item %d (%s) FinalQuantity = %v, want %v", i, item.Description, item.FinalQuantity, wantQty[i])
		}
		if item.MaterialID == "" {
			t.Errorf("item %d should be linked to a material", i)
		}
		if item.EstimateID != result.Estimate.ID {
			t.Errorf("item %d estimate = %q, want %q", i, item.EstimateID, result.Estimate.ID)
		}
	}

	est := result.Estimate
	if est.Status != EstimateComplete {
		t.Errorf("Status = %q, want COMPLETE", est.Status)
	}
	if est.ItemCount != 3 {
		t.Errorf("ItemCount = %d, want 3", est.ItemCount)
	}
	totals := CalcEstimateTotals(result.Items)
	if math.Abs(est.MaterialCost-totals.MaterialCost) > 0.01 {
		t.Errorf("MaterialCost = %v, want %v", est.MaterialCost, totals.MaterialCost)
	}
	if math.Abs(est.AvgConfidence-totals.AvgConfidence) > 0.0001 {
		t.Errorf("AvgConfidence = %v, want %v", est.AvgConfidence, totals.AvgConfidence)
	}
	if est.RunID == "" {
		t.Error("RunID should be set")
	}
}

func TestBOMGenerator_MixedFeatures(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := seedTakeoffProject(t, app,
		testhelpers.Feature{Type: "ROOM", Label: "Exam", Area: 160},
		testhelpers.Feature{Type: "PIPE", Label: "Copper supply", Length: 145, Diameter: 1},
		testhelpers.Feature{Type: "FIXTURE", Label: "Toilet", Count: 2},
		testhelpers.Feature{Type: "ROOM", Label: "Unmeasured", Area: 0},
	)

	gen := NewBOMGenerator(app, NewRecordTakeoffSource(app), NewMaterialRegistry(app), testEstimatingConfig(config.RegenerationAppend))
	result, err := gen.Generate(context.Background(), proj.Id, Overrides{})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if len(result.Items) != 6 {
		t.Errorf("expected 6 items, got %d", len(result.Items))
	}
	if len(result.SkippedFeatures) != 1 {
		t.Errorf("expected 1 skipped feature, got %d", len(result.SkippedFeatures))
	}
	if result.Estimate.SkippedFeatures != 1 {
		t.Errorf("estimate SkippedFeatures = %d, want 1", result.Estimate.SkippedFeatures)
	}

	var fittings *BOMLineItem
	for i := range result.Items {
		if result.Items[i].Category == "Pipe Fittings" {
			fittings = &result.Items[i]
		}
	}
	if fittings == nil {
		t.Fatal("expected a fittings line")
	}
	if fittings.RawQuantity != 15 {
		t.Errorf("fittings RawQuantity = %v, want 15", fittings.RawQuantity)
	}
}

func TestBOMGenerator_RegenerationIncrementsUsage(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := seedTakeoffProject(t, app, testhelpers.Feature{Type: "ROOM", Area: 500})

	gen := NewBOMGenerator(app, NewRecordTakeoffSource(app), NewMaterialRegistry(app), testEstimatingConfig(config.RegenerationAppend))
	for i := 0; i < 2; i++ {
		if _, err := gen.Generate(context.Background(), proj.Id, Overrides{}); err != nil {
			t.Fatalf("Generate() run %d error: %v", i+1, err)
		}
	}

	materials, _ := app.FindAllRecords("materials")
	if len(materials) != 3 {
		t.Fatalf("expected 3 materials, got %d", len(materials))
	}
	for _, m := range materials {
		if got := m.GetInt("times_used"); got != 2 {
			t.Errorf("%s times_used = %d, want 2", m.GetString("name"), got)
		}
	}

	items, err := ListProjectBOMItems(app, proj.Id)
	if err != nil {
		t.Fatalf("ListProjectBOMItems() error: %v", err)
	}
	if len(items) != 6 {
		t.Errorf("append mode: expected 6 visible items, got %d", len(items))
	}
}

func TestBOMGenerator_SupersedeMode(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := seedTakeoffProject(t, app, testhelpers.Feature{Type: "ROOM", Area: 500})

	gen := NewBOMGenerator(app, NewRecordTakeoffSource(app), NewMaterialRegistry(app), testEstimatingConfig(config.RegenerationSupersede))
	first, err := gen.Generate(context.Background(), proj.Id, Overrides{})
	if err != nil {
		t.Fatalf("first Generate() error: %v", err)
	}
	second, err := gen.Generate(context.Background(), proj.Id, Overrides{})
	if err != nil {
		t.Fatalf("second Generate() error: %v", err)
	}

	prior, _ := app.FindRecordById("estimates", first.Estimate.ID)
	if got := prior.GetString("status"); got != string(EstimateSuperseded) {
		t.Errorf("first estimate status = %q, want SUPERSEDED", got)
	}
	if second.Estimate.Status != EstimateComplete {
		t.Errorf("second estimate status = %q, want COMPLETE", second.Estimate.Status)
	}

	items, _ := ListProjectBOMItems(app, proj.Id)
	if len(items) != 3 {
		t.Fatalf("supersede mode: expected 3 visible items, got %d", len(items))
	}
	for _, item := range items {
		if item.EstimateID != second.Estimate.ID {
			t.Errorf("visible item from estimate %q, want %q", item.EstimateID, second.Estimate.ID)
		}
	}
}

func TestBOMGenerator_RegistryFailureStillSavesLines(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := seedTakeoffProject(t, app, testhelpers.Feature{Type: "FIXTURE", Label: "Sink", Count: 1})

	gen := NewBOMGenerator(app, NewRecordTakeoffSource(app), failingResolver{}, testEstimatingConfig(config.RegenerationAppend))
	result, err := gen.Generate(context.Background(), proj.Id, Overrides{})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
	if result.Items[0].MaterialID != "" {
		t.Errorf("MaterialID = %q, want empty", result.Items[0].MaterialID)
	}
	if result.RegistryFailures != 1 {
		t.Errorf("RegistryFailures = %d, want 1", result.RegistryFailures)
	}
	if result.Estimate.Status != EstimateComplete {
		t.Errorf("Status = %q, want COMPLETE", result.Estimate.Status)
	}
}

func TestListProjectBOMItems_EstimateStatus(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Visibility Project")

	tests := []struct {
		status  string
		visible bool
	}{
		{"COMPLETE", true},
		{"PARTIAL", true},
		{"GENERATING", false},
		{"SUPERSEDED", false},
	}
	for _, tt := range tests {
		est := testhelpers.CreateTestEstimate(t, app, proj.Id, tt.status)
		testhelpers.CreateTestBOMItem(t, app, proj.Id, est.Id, testhelpers.BOMItem{
			Description: tt.status + " line", Trade: "A", UOM: "SF", Quantity: 10, UnitCost: 1,
		})
	}

	items, err := ListProjectBOMItems(app, proj.Id)
	if err != nil {
		t.Fatalf("ListProjectBOMItems() error: %v", err)
	}
	visible := map[string]bool{}
	for _, item := range items {
		visible[item.Description] = true
	}
	for _, tt := range tests {
		if got := visible[tt.status+" line"]; got != tt.visible {
			t.Errorf("%s estimate line visible = %v, want %v", tt.status, got, tt.visible)
		}
	}
}

func TestBOMGenerator_SaveFailureMarksPartial(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := seedTakeoffProject(t, app,
		testhelpers.Feature{Type: "ROOM", Label: "Office", Area: 1000},
		testhelpers.Feature{Type: "FIXTURE", Label: "Toilet", Count: 2},
	)
	features, err := NewRecordTakeoffSource(app).Features(context.Background(), proj.GetString("takeoff_job"))
	if err != nil {
		t.Fatalf("Features() error: %v", err)
	}
	app.OnRecordCreate("bom_line_items").BindFunc(func(e *core.RecordEvent) error {
		if e.Record.GetString("description") == "Interior Wall Paint" {
			return errors.New("disk full")
		}
		return e.Next()
	})

	gen := NewBOMGenerator(app, NewRecordTakeoffSource(app), NewMaterialRegistry(app), testEstimatingConfig(config.RegenerationAppend))
	result, err := gen.Generate(context.Background(), proj.Id, Overrides{})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	// The room stops at the failed paint line; the toilet still saves.
	var got []string
	for _, item := range result.Items {
		got = append(got, item.Description)
	}
	want := []string{"VCT Flooring", "Water Closet, Floor Mounted"}
	if !slices.Equal(got, want) {
		t.Fatalf("persisted items = %v, want %v", got, want)
	}

	if len(result.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %+v", result.Failures)
	}
	failure := result.Failures[0]
	if failure.FeatureID != features[0].ID {
		t.Errorf("failure FeatureID = %q, want %q", failure.FeatureID, features[0].ID)
	}
	if failure.Description != "Interior Wall Paint" {
		t.Errorf("failure Description = %q, want Interior Wall Paint", failure.Description)
	}
	if !strings.Contains(failure.Error, "disk full") {
		t.Errorf("failure Error = %q, want the save error", failure.Error)
	}

	est := result.Estimate
	if est.Status != EstimatePartial {
		t.Errorf("Status = %q, want PARTIAL", est.Status)
	}
	if est.FailedFeatures != 1 {
		t.Errorf("FailedFeatures = %d, want 1", est.FailedFeatures)
	}
	if est.ItemCount != 2 {
		t.Errorf("ItemCount = %d, want 2", est.ItemCount)
	}
	wantCost := 1100*3.25 + 2*1.05*650
	if math.Abs(est.MaterialCost-wantCost) > 0.01 {
		t.Errorf("MaterialCost = %v, want %v from persisted lines only", est.MaterialCost, wantCost)
	}

	stored, err := app.FindRecordById("estimates", est.ID)
	if err != nil {
		t.Fatalf("FindRecordById() error: %v", err)
	}
	if got := stored.GetString("status"); got != string(EstimatePartial) {
		t.Errorf("stored status = %q, want PARTIAL", got)
	}
	if got := stored.GetInt("failed_features"); got != 1 {
		t.Errorf("stored failed_features = %d, want 1", got)
	}
}

func TestBOMGenerator_TakeoffUnavailable(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	tests := []struct {
		name    string
		project func() *core.Record
		source  TakeoffSource
	}{
		{
			name:    "no takeoff job linked",
			project: func() *core.Record { return testhelpers.CreateTestProject(t, app, "No Takeoff") },
			source:  NewRecordTakeoffSource(app),
		},
		{
			name: "job still processing",
			project: func() *core.Record {
				job := testhelpers.CreateTestTakeoffJob(t, app, "Pending", "processing")
				return testhelpers.CreateTestProjectWithTakeoff(t, app, "Pending Takeoff", job.Id)
			},
			source: NewRecordTakeoffSource(app),
		},
		{
			name: "source error",
			project: func() *core.Record {
				job := testhelpers.CreateTestTakeoffJob(t, app, "Remote", "complete")
				return testhelpers.CreateTestProjectWithTakeoff(t, app, "Remote Takeoff", job.Id)
			},
			source: failingTakeoff{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proj := tt.project()
			gen := NewBOMGenerator(app, tt.source, NewMaterialRegistry(app), testEstimatingConfig(config.RegenerationAppend))
			_, err := gen.Generate(context.Background(), proj.Id, Overrides{})
			if !errors.Is(err, ErrTakeoffUnavailable) {
				t.Fatalf("Generate() error = %v, want ErrTakeoffUnavailable", err)
			}
			estimates, _ := ListEstimates(app, proj.Id)
			if len(estimates) != 0 {
				t.Errorf("expected no estimate, got %d", len(estimates))
			}
		})
	}
}

func TestBOMGenerator_UnknownProject(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	gen := NewBOMGenerator(app, NewRecordTakeoffSource(app), NewMaterialRegistry(app), testEstimatingConfig(config.RegenerationAppend))
	_, err := gen.Generate(context.Background(), "missing", Overrides{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Generate() error = %v, want ErrNotFound", err)
	}
}

func TestBOMGenerator_AppliesMaterialRules(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := seedTakeoffProject(t, app, testhelpers.Feature{Type: "EQUIPMENT", Label: "Rooftop unit", Count: 1})
	testhelpers.CreateTestMaterialRule(t, app, "Packaged Rooftop Unit", 14250, 24)

	o, err := LoadOverrides(app)
	if err != nil {
		t.Fatalf("LoadOverrides() error: %v", err)
	}
	gen := NewBOMGenerator(app, NewRecordTakeoffSource(app), NewMaterialRegistry(app), testEstimatingConfig(config.RegenerationAppend))
	result, err := gen.Generate(context.Background(), proj.Id, o)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if got := result.Items[0].UnitCost; got != 14250 {
		t.Errorf("UnitCost = %v, want 14250", got)
	}
	if got := result.Estimate.MaterialCost; math.Abs(got-14250*1.05) > 0.01 {
		t.Errorf("MaterialCost = %v, want %v", got, 14250*1.05)
	}
}
