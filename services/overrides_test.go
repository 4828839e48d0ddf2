package services

import (
	"testing"

	"bidprep/testhelpers"
)

func TestLoadOverrides(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestMaterialRule(t, app, "Packaged Rooftop Unit", 14250, 24)
	testhelpers.CreateTestMaterialRule(t, app, "Interior Wall Paint", 0, 0.02)
	testhelpers.CreateTestTradeMarkup(t, app, "M", 12.5)

	o, err := LoadOverrides(app)
	if err != nil {
		t.Fatalf("LoadOverrides() error: %v", err)
	}

	rtu, ok := o.Rule("Packaged Rooftop Unit")
	if !ok {
		t.Fatal("expected rule for Packaged Rooftop Unit")
	}
	if rtu.UnitCost == nil || *rtu.UnitCost != 14250 {
		t.Errorf("UnitCost = %v, want 14250", rtu.UnitCost)
	}
	if rtu.LaborHoursPerUnit == nil || *rtu.LaborHoursPerUnit != 24 {
		t.Errorf("LaborHoursPerUnit = %v, want 24", rtu.LaborHoursPerUnit)
	}
	if rtu.WasteFactor != nil {
		t.Errorf("WasteFactor = %v, want nil", *rtu.WasteFactor)
	}

	paint, _ := o.Rule("Interior Wall Paint")
	if paint.UnitCost != nil {
		t.Errorf("zero unit cost should be unset, got %v", *paint.UnitCost)
	}

	if _, ok := o.Rule("Unknown"); ok {
		t.Error("expected no rule for Unknown")
	}
	if got := o.Markup(TradeMechanical); got != 12.5 {
		t.Errorf("Markup(M) = %v, want 12.5", got)
	}
	if got := o.Markup(TradeElectrical); got != 0 {
		t.Errorf("Markup(E) = %v, want 0", got)
	}
}

func TestOverrides_ZeroValue(t *testing.T) {
	var o Overrides
	if _, ok := o.Rule("anything"); ok {
		t.Error("zero Overrides should have no rules")
	}
	if got := o.Markup(TradePlumbing); got != 0 {
		t.Errorf("zero Overrides markup = %v, want 0", got)
	}
}
