package services

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"
)

// laborRate pairs installation hours per unit with an hourly rate.
type laborRate struct {
	HoursPerUnit float64
	HourlyRate   float64
}

// defaultLaborRates is keyed like defaultUnitCosts.
var defaultLaborRates = map[costKey]laborRate{
	{"Flooring", "SF"}:          {0.020, 55},
	{"Wall Finishes", "SF"}:     {0.012, 48},
	{"Ceiling", "SF"}:           {0.025, 52},
	{"Plumbing Pipe", "LF"}:     {0.120, 78},
	{"Pipe Fittings", "EA"}:     {0.350, 78},
	{"Plumbing Fixtures", "EA"}: {3.000, 78},
	{"HVAC Equipment", "EA"}:    {16.00, 85},
	{"Equipment", "EA"}:         {4.000, 60},
}

// tradeLaborFallback applies when neither a rule nor the category table knows the item.
var tradeLaborFallback = map[Trade]laborRate{
	TradeMechanical:     {0.10, 85},
	TradeElectrical:     {0.10, 80},
	TradePlumbing:       {0.10, 78},
	TradeArchitectural:  {0.05, 55},
	TradeStructural:     {0.10, 70},
	TradeFireProtection: {0.10, 75},
}

// TradeLabor is the labor subtotal for one trade.
type TradeLabor struct {
	Trade         Trade   `json:"trade"`
	TradeName     string  `json:"trade_name"`
	ItemCount     int     `json:"item_count"`
	Hours         float64 `json:"hours"`
	LaborCost     float64 `json:"labor_cost"`
	MarkupPercent float64 `json:"markup_percent"`
	MarkedUpCost  float64 `json:"marked_up_cost"`
}

// LaborEstimate is the labor breakdown for a set of BOM lines. BlendedRate
// is nil when there are no labor hours.
type LaborEstimate struct {
	Trades            []TradeLabor `json:"trades"`
	TotalHours        float64      `json:"total_hours"`
	TotalLaborCost    float64      `json:"total_labor_cost"`
	TotalMarkedUpCost float64      `json:"total_marked_up_cost"`
	BlendedRate       *float64     `json:"blended_rate"`
}

// EstimateLabor accumulates hours and cost per trade, then applies each
// trade's markup. Labor hours come from a material rule matching the
// description, else the category/uom table, else the trade fallback.
func EstimateLabor(items []BOMLineItem, o Overrides) (*LaborEstimate, error) {
	if len(items) == 0 {
		return nil, ErrNoBOMItems
	}

	byTrade := make(map[Trade]*TradeLabor)
	for _, item := range items {
		trade := item.Trade
		if !trade.Valid() {
			trade = ClassifyTrade(item.CSIDivision, item.Category)
		}

		rate := lookupLaborRate(item, trade, o)
		hours := item.FinalQuantity * rate.HoursPerUnit
		cost := hours * rate.HourlyRate

		tl, ok := byTrade[trade]
		if !ok {
			tl = &TradeLabor{Trade: trade, TradeName: trade.Name()}
			byTrade[trade] = tl
		}
		tl.ItemCount++
		tl.Hours += hours
		tl.LaborCost += cost
	}

	est := &LaborEstimate{Trades: make([]TradeLabor, 0, len(byTrade))}
	for _, trade := range AllTrades {
		tl, ok := byTrade[trade]
		if !ok {
			continue
		}
		tl.MarkupPercent = o.Markup(trade)
		tl.MarkedUpCost = roundTo(CalcMarkup(tl.LaborCost, tl.MarkupPercent), 2)
		tl.Hours = roundTo(tl.Hours, 2)
		tl.LaborCost = roundTo(tl.LaborCost, 2)

		est.TotalHours += tl.Hours
		est.TotalLaborCost += tl.LaborCost
		est.TotalMarkedUpCost += tl.MarkedUpCost
		est.Trades = append(est.Trades, *tl)
	}

	est.TotalHours = roundTo(est.TotalHours, 2)
	est.TotalLaborCost = roundTo(est.TotalLaborCost, 2)
	est.TotalMarkedUpCost = roundTo(est.TotalMarkedUpCost, 2)
	if est.TotalHours > 0 {
		blended := roundTo(est.TotalLaborCost/est.TotalHours, 2)
		est.BlendedRate = &blended
	}
	return est, nil
}

func lookupLaborRate(item BOMLineItem, trade Trade, o Overrides) laborRate {
	rate, ok := defaultLaborRates[costKey{item.Category, item.UOM}]
	if !ok {
		rate = tradeLaborFallback[trade]
	}
	if rule, ok := o.Rule(item.Description); ok && rule.LaborHoursPerUnit != nil {
		rate.HoursPerUnit = *rule.LaborHoursPerUnit
	}
	return rate
}

// EstimateProjectLabor loads the project's visible BOM lines and the current
// overrides and runs EstimateLabor.
func EstimateProjectLabor(app core.App, projectID string) (*LaborEstimate, error) {
	items, err := ListProjectBOMItems(app, projectID)
	if err != nil {
		return nil, err
	}
	o, err := LoadOverrides(app)
	if err != nil {
		return nil, err
	}
	est, err := EstimateLabor(items, o)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	return est, nil
}
