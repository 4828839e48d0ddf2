package services

import (
	"cmp"
	"maps"
	"slices"
)

// VendorCoverage scores one vendor against the BOM on trades alone.
// MaterialMatches counts items whose description is on the vendor's
// material list and is informational only.
type VendorCoverage struct {
	VendorID        string     `json:"vendor_id"`
	VendorName      string     `json:"vendor_name"`
	VendorType      VendorType `json:"vendor_type"`
	Trades          []Trade    `json:"trades"`
	CoveredItems    int        `json:"covered_items"`
	TotalItems      int        `json:"total_items"`
	CoveragePercent float64    `json:"coverage_percent"`
	MaterialMatches int        `json:"material_matches"`
}

// VendorCoverages computes each vendor's coverage independently. The result
// is ordered by coverage, then rating, then name.
func VendorCoverages(items []BOMLineItem, vendors []Vendor) []VendorCoverage {
	out := make([]VendorCoverage, 0, len(vendors))
	rating := make(map[string]float64, len(vendors))
	for _, v := range vendors {
		vc := VendorCoverage{
			VendorID:   v.ID,
			VendorName: v.Name,
			VendorType: v.Type(),
			Trades:     v.Trades(),
			TotalItems: len(items),
		}
		for _, item := range items {
			if v.CoversTrade(item.Trade) {
				vc.CoveredItems++
			}
			if v.ListsMaterial(item.Description) {
				vc.MaterialMatches++
			}
		}
		vc.CoveragePercent = coveragePercent(vc.CoveredItems, vc.TotalItems)
		rating[v.ID] = v.Rating
		out = append(out, vc)
	}

	slices.SortStableFunc(out, func(a, b VendorCoverage) int {
		if c := cmp.Compare(b.CoveragePercent, a.CoveragePercent); c != 0 {
			return c
		}
		if c := cmp.Compare(rating[b.VendorID], rating[a.VendorID]); c != 0 {
			return c
		}
		return cmp.Compare(a.VendorName, b.VendorName)
	})
	return out
}

// RemainingGroup lists the uncovered BOM lines of one trade.
type RemainingGroup struct {
	Trade     Trade         `json:"trade"`
	TradeName string        `json:"trade_name"`
	Items     []BOMLineItem `json:"items"`
}

// RemainingView is what is still uncovered after a caller picks vendors.
type RemainingView struct {
	SelectedVendorIDs []string         `json:"selected_vendor_ids"`
	CoveredTrades     []Trade          `json:"covered_trades"`
	CoveredItems      int              `json:"covered_items"`
	TotalItems        int              `json:"total_items"`
	CoveragePercent   float64          `json:"coverage_percent"`
	Remaining         []RemainingGroup `json:"remaining"`
}

// RemainingMaterials unions the trades of the selected vendors and reports
// every BOM line whose trade is still uncovered, grouped by trade. Unknown
// vendor ids are ignored.
func RemainingMaterials(items []BOMLineItem, vendors []Vendor, selectedIDs []string) RemainingView {
	selected := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}

	covered := make(map[Trade]bool)
	view := RemainingView{SelectedVendorIDs: []string{}, CoveredTrades: []Trade{}, Remaining: []RemainingGroup{}}
	for _, v := range vendors {
		if !selected[v.ID] {
			continue
		}
		view.SelectedVendorIDs = append(view.SelectedVendorIDs, v.ID)
		for _, t := range v.Trades() {
			covered[t] = true
		}
	}
	for _, t := range AllTrades {
		if covered[t] {
			view.CoveredTrades = append(view.CoveredTrades, t)
		}
	}

	groups := make(map[Trade][]BOMLineItem)
	for _, item := range items {
		if covered[item.Trade] {
			view.CoveredItems++
			continue
		}
		groups[item.Trade] = append(groups[item.Trade], item)
	}
	view.TotalItems = len(items)
	view.CoveragePercent = coveragePercent(view.CoveredItems, view.TotalItems)

	for _, t := range AllTrades {
		if g, ok := groups[t]; ok {
			view.Remaining = append(view.Remaining, RemainingGroup{Trade: t, TradeName: t.Name(), Items: g})
			delete(groups, t)
		}
	}
	// Lines stored with a trade outside the fixed set still show up.
	for _, t := range slices.Sorted(maps.Keys(groups)) {
		view.Remaining = append(view.Remaining, RemainingGroup{Trade: t, TradeName: t.Name(), Items: groups[t]})
	}
	return view
}

// SuggestionStep is one vendor picked by SuggestVendors.
type SuggestionStep struct {
	VendorID          string  `json:"vendor_id"`
	VendorName        string  `json:"vendor_name"`
	NewlyCovered      int     `json:"newly_covered"`
	CumulativePercent float64 `json:"cumulative_percent"`
}

// VendorSuggestion is a greedy pick list; callers still choose vendors.
type VendorSuggestion struct {
	Steps           []SuggestionStep `json:"steps"`
	UncoveredTrades []Trade          `json:"uncovered_trades"`
	CoveragePercent float64          `json:"coverage_percent"`
}

// SuggestVendors approximates a minimum vendor set with the greedy set-cover
// heuristic: repeatedly take the vendor covering the most still-uncovered
// lines, breaking ties by rating and then name, until no vendor adds
// coverage.
func SuggestVendors(items []BOMLineItem, vendors []Vendor) VendorSuggestion {
	uncovered := make(map[int]bool, len(items))
	for i := range items {
		uncovered[i] = true
	}
	used := make(map[string]bool)
	result := VendorSuggestion{Steps: []SuggestionStep{}, UncoveredTrades: []Trade{}}
	coveredCount := 0

	for len(uncovered) > 0 {
		best := -1
		bestGain := 0
		for vi, v := range vendors {
			if used[v.ID] {
				continue
			}
			gain := 0
			for i := range uncovered {
				if v.CoversTrade(items[i].Trade) {
					gain++
				}
			}
			if gain == 0 {
				continue
			}
			if best == -1 || gain > bestGain || gain == bestGain && betterVendor(v, vendors[best]) {
				best, bestGain = vi, gain
			}
		}
		if best == -1 {
			break
		}

		v := vendors[best]
		used[v.ID] = true
		for i := range uncovered {
			if v.CoversTrade(items[i].Trade) {
				delete(uncovered, i)
			}
		}
		coveredCount += bestGain
		result.Steps = append(result.Steps, SuggestionStep{
			VendorID:          v.ID,
			VendorName:        v.Name,
			NewlyCovered:      bestGain,
			CumulativePercent: coveragePercent(coveredCount, len(items)),
		})
	}

	missing := make(map[Trade]bool)
	for i := range uncovered {
		missing[items[i].Trade] = true
	}
	for _, t := range AllTrades {
		if missing[t] {
			result.UncoveredTrades = append(result.UncoveredTrades, t)
		}
	}
	result.CoveragePercent = coveragePercent(coveredCount, len(items))
	return result
}

func betterVendor(a, b Vendor) bool {
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	return a.Name < b.Name
}

// coveragePercent returns covered/total as a percentage rounded to one
// decimal, and zero for an empty total.
func coveragePercent(covered, total int) float64 {
	if total == 0 {
		return 0
	}
	return roundTo(float64(covered)/float64(total)*100, 1)
}
