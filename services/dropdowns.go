package services

import "strings"

// UOMOptions lists the units of measure used on BOM lines, RFQs and quotes.
var UOMOptions = []string{
	"EA",
	"LF",
	"SF",
	"SY",
	"CY",
	"GAL",
	"LB",
	"TON",
	"BOX",
	"ROLL",
	"SET",
	"PR",
	"LS",
	"HR",
}

// uomSynonyms maps common vendor spellings to a canonical unit.
var uomSynonyms = map[string]string{
	"each":     "EA",
	"ea.":      "EA",
	"pc":       "EA",
	"pcs":      "EA",
	"nos":      "EA",
	"unit":     "EA",
	"ft":       "LF",
	"lin ft":   "LF",
	"lf.":      "LF",
	"feet":     "LF",
	"sqft":     "SF",
	"sq ft":    "SF",
	"sq. ft.":  "SF",
	"sy.":      "SY",
	"sq yd":    "SY",
	"cu yd":    "CY",
	"gallon":   "GAL",
	"lbs":      "LB",
	"lot":      "LS",
	"lump sum": "LS",
	"pair":     "PR",
	"hour":     "HR",
	"hrs":      "HR",
}

// NormalizeUOM maps a free-form unit to one of UOMOptions. Unknown units are
// returned upper-cased, and an empty unit becomes EA.
func NormalizeUOM(uom string) string {
	trimmed := strings.TrimSpace(uom)
	if trimmed == "" {
		return "EA"
	}
	lower := strings.ToLower(trimmed)
	if canonical, ok := uomSynonyms[lower]; ok {
		return canonical
	}
	return strings.ToUpper(trimmed)
}

