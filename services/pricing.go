// Package services implements the estimating and bidding pipeline: BOM
// generation from takeoff geometry, the material registry, labor estimation,
// vendor matching, RFQs, quote parsing and bid leveling.
package services

import "math"

// CalcFinalQuantity applies a fractional waste factor to a raw quantity.
func CalcFinalQuantity(rawQty, wasteFactor float64) float64 {
	return rawQty * (1 + wasteFactor)
}

// CalcLineTotal returns quantity × unit price.
func CalcLineTotal(qty, unitPrice float64) float64 {
	return qty * unitPrice
}

// CalcMarkup returns the cost after applying a markup percentage.
func CalcMarkup(cost, markupPercent float64) float64 {
	return cost * (1 + markupPercent/100)
}

// EstimateTotals holds the aggregate values recomputed after each run.
type EstimateTotals struct {
	MaterialCost  float64 `json:"material_cost"`
	AvgConfidence float64 `json:"avg_confidence"`
	ItemCount     int     `json:"item_count"`
}

// CalcEstimateTotals sums line costs and averages confidence over the full
// item set. An empty set yields zero totals.
func CalcEstimateTotals(items []BOMLineItem) EstimateTotals {
	var totals EstimateTotals
	var confidence float64
	for _, item := range items {
		totals.MaterialCost += item.TotalCost
		confidence += item.Confidence
	}
	totals.ItemCount = len(items)
	if len(items) > 0 {
		totals.AvgConfidence = confidence / float64(len(items))
	}
	return totals
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
