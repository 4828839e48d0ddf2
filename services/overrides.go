package services

import (
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase/core"
)

// MaterialRule overrides defaults for one material, matched by exact name.
// Nil fields fall through to the category defaults.
type MaterialRule struct {
	MaterialName      string
	UnitCost          *float64
	LaborHoursPerUnit *float64
	WasteFactor       *float64
}

// Overrides is the admin-configured override state for one run. It is read
// once and passed by value so estimating code never touches the store.
type Overrides struct {
	MaterialRules map[string]MaterialRule
	Markups       map[Trade]float64
}

// Rule returns the rule for a material description, if any.
func (o Overrides) Rule(description string) (MaterialRule, bool) {
	if o.MaterialRules == nil {
		return MaterialRule{}, false
	}
	rule, ok := o.MaterialRules[strings.TrimSpace(description)]
	return rule, ok
}

// Markup returns the markup percentage for a trade, zero when unset.
func (o Overrides) Markup(trade Trade) float64 {
	return o.Markups[trade]
}

// LoadOverrides snapshots the material_rules and trade_markups collections.
func LoadOverrides(app core.App) (Overrides, error) {
	out := Overrides{
		MaterialRules: make(map[string]MaterialRule),
		Markups:       make(map[Trade]float64),
	}

	rules, err := app.FindAllRecords("material_rules")
	if err != nil {
		return out, fmt.Errorf("load material rules: %w", err)
	}
	for _, rec := range rules {
		rule := MaterialRule{MaterialName: strings.TrimSpace(rec.GetString("material_name"))}
		if v := rec.GetFloat("unit_cost"); v > 0 {
			rule.UnitCost = &v
		}
		if v := rec.GetFloat("labor_hours_per_unit"); v > 0 {
			rule.LaborHoursPerUnit = &v
		}
		if rec.GetBool("has_waste_factor") {
			v := rec.GetFloat("waste_factor")
			rule.WasteFactor = &v
		}
		out.MaterialRules[rule.MaterialName] = rule
	}

	markups, err := app.FindAllRecords("trade_markups")
	if err != nil {
		return out, fmt.Errorf("load trade markups: %w", err)
	}
	for _, rec := range markups {
		out.Markups[Trade(rec.GetString("trade"))] = rec.GetFloat("markup_percent")
	}
	return out, nil
}

func floatPtr(v float64) *float64 { return &v }
