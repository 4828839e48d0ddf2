package services

import (
	"fmt"
	"math"
	"strings"
)

// DefaultCeilingHeightFt is used for wall area when no height is configured.
const DefaultCeilingHeightFt = 8.0

// lineTemplate is the fixed catalog data behind one kind of BOM line.
type lineTemplate struct {
	Description string
	CSIDivision string
	Category    string
	SKU         string
	UOM         string
	WasteFactor float64
	Confidence  float64
}

var (
	flooringTemplate = lineTemplate{"VCT Flooring", "09 65 19", "Flooring", "FLR-VCT-12", "SF", 0.10, 0.85}
	paintTemplate    = lineTemplate{"Interior Wall Paint", "09 91 23", "Wall Finishes", "PNT-INT-EGG", "SF", 0.05, 0.75}
	ceilingTemplate  = lineTemplate{"Acoustic Ceiling Tile 2x2", "09 51 13", "Ceiling", "ACT-2X2", "SF", 0.08, 0.85}

	toiletTemplate    = lineTemplate{"Water Closet, Floor Mounted", "22 42 13", "Plumbing Fixtures", "WC-FM", "EA", 0.05, 0.80}
	lavatoryTemplate  = lineTemplate{"Lavatory, Wall Hung", "22 42 16", "Plumbing Fixtures", "LAV-WH", "EA", 0.05, 0.80}
	rooftopTemplate   = lineTemplate{"Packaged Rooftop Unit", "23 74 13", "HVAC Equipment", "RTU-PKG", "EA", 0.05, 0.80}
	equipmentTemplate = lineTemplate{"General Equipment", "11 00 00", "Equipment", "EQP-GEN", "EA", 0.05, 0.60}
)

// pipeTemplate pairs a pipe line with the fittings line derived from it.
type pipeTemplate struct {
	pipe     lineTemplate
	fittings lineTemplate
}

var (
	copperPipe = pipeTemplate{
		pipe:     lineTemplate{"Copper Pipe Type L", "22 11 16", "Plumbing Pipe", "CU-L", "LF", 0.15, 0.90},
		fittings: lineTemplate{"Copper Fittings", "22 11 16", "Pipe Fittings", "CU-FIT", "EA", 0.10, 0.75},
	}
	pvcPipe = pipeTemplate{
		pipe:     lineTemplate{"PVC DWV Pipe", "22 13 16", "Plumbing Pipe", "PVC-DWV", "LF", 0.15, 0.90},
		fittings: lineTemplate{"PVC DWV Fittings", "22 13 16", "Pipe Fittings", "PVC-FIT", "EA", 0.10, 0.75},
	}
	genericPipe = pipeTemplate{
		pipe:     lineTemplate{"Pipe", "22 11 16", "Plumbing Pipe", "PIPE-GEN", "LF", 0.15, 0.60},
		fittings: lineTemplate{"Pipe Fittings", "22 11 16", "Pipe Fittings", "FIT-GEN", "EA", 0.10, 0.60},
	}
)

// feetPerFitting allows one fitting for every ten linear feet of pipe.
const feetPerFitting = 10.0

type costKey struct {
	category string
	uom      string
}

// defaultUnitCosts are placeholder prices used until vendor quotes exist.
var defaultUnitCosts = map[costKey]float64{
	{"Flooring", "SF"}:          3.25,
	{"Wall Finishes", "SF"}:     0.85,
	{"Ceiling", "SF"}:           2.40,
	{"Plumbing Pipe", "LF"}:     8.50,
	{"Pipe Fittings", "EA"}:     12.00,
	{"Plumbing Fixtures", "EA"}: 650.00,
	{"HVAC Equipment", "EA"}:    12500.00,
	{"Equipment", "EA"}:         1500.00,
}

// DerivedLine is one BOM line computed from a takeoff feature, together with
// the registry descriptor for the material it references.
type DerivedLine struct {
	Item     BOMLineItem
	Material MaterialDescriptor
}

// DeriveLineItems computes the BOM lines for a single feature. It depends
// only on its inputs, so features can be derived in any order or in
// parallel. Features without usable geometry yield no lines.
func DeriveLineItems(f TakeoffFeature, o Overrides, ceilingHeightFt float64) []DerivedLine {
	if ceilingHeightFt <= 0 {
		ceilingHeightFt = DefaultCeilingHeightFt
	}
	source := "TAKEOFF_" + string(f.Type)

	switch f.Type {
	case FeatureRoom:
		if f.Area <= 0 {
			return nil
		}
		// Wall area assumes a square room: perimeter 4·√A times the ceiling height.
		wallArea := 4 * math.Sqrt(f.Area) * ceilingHeightFt
		return []DerivedLine{
			buildLine(flooringTemplate, f.Area, f, o, source),
			buildLine(paintTemplate, wallArea, f, o, source),
			buildLine(ceilingTemplate, f.Area, f, o, source),
		}

	case FeaturePipe:
		if f.Length <= 0 {
			return nil
		}
		tmpl := selectPipeTemplate(f)
		pipe := tmpl.pipe
		fittings := tmpl.fittings
		if f.Diameter > 0 {
			size := formatDiameter(f.Diameter)
			pipe.Description += " " + size
			pipe.SKU += "-" + strings.TrimSuffix(size, "in")
			fittings.Description += " " + size
			fittings.SKU += "-" + strings.TrimSuffix(size, "in")
		}
		return []DerivedLine{
			buildLine(pipe, f.Length, f, o, source),
			buildLine(fittings, math.Ceil(f.Length/feetPerFitting), f, o, source),
		}

	case FeatureFixture, FeatureEquipment:
		qty := f.Count
		if qty <= 0 {
			qty = 1
		}
		return []DerivedLine{buildLine(selectFixtureTemplate(f), qty, f, o, source)}
	}
	return nil
}

func buildLine(t lineTemplate, rawQty float64, f TakeoffFeature, o Overrides, source string) DerivedLine {
	waste := t.WasteFactor
	unitCost, known := defaultUnitCosts[costKey{t.Category, t.UOM}]
	confidence := t.Confidence
	if !known {
		confidence = math.Min(confidence, 0.5)
	}
	if rule, ok := o.Rule(t.Description); ok {
		if rule.UnitCost != nil {
			unitCost = *rule.UnitCost
		}
		if rule.WasteFactor != nil {
			waste = *rule.WasteFactor
		}
	}

	finalQty := roundTo(CalcFinalQuantity(rawQty, waste), 4)
	trade := ClassifyTrade(t.CSIDivision, t.Category)

	item := BOMLineItem{
		CSIDivision:   t.CSIDivision,
		Category:      t.Category,
		Trade:         trade,
		Description:   t.Description,
		SKU:           t.SKU,
		UOM:           t.UOM,
		RawQuantity:   roundTo(rawQty, 4),
		WasteFactor:   waste,
		FinalQuantity: finalQty,
		UnitCost:      unitCost,
		TotalCost:     roundTo(CalcLineTotal(finalQty, unitCost), 2),
		Confidence:    confidence,
		Source:        source,
		SourceFeature: f.ID,
	}

	desc := MaterialDescriptor{
		Name:         t.Description,
		Trade:        trade,
		Description:  f.Label,
		SKU:          t.SKU,
		Category:     t.Category,
		Manufacturer: metadataString(f.Metadata, "manufacturer"),
		Model:        metadataString(f.Metadata, "model"),
		UOM:          t.UOM,
		WasteFactor:  waste,
	}
	if specs, ok := f.Metadata["specs"].(map[string]any); ok {
		desc.Specs = specs
	}
	return DerivedLine{Item: item, Material: desc}
}

// featureText is the lower-cased text searched for material keywords.
func featureText(f TakeoffFeature) string {
	parts := []string{
		f.Label,
		f.MaterialHint,
		metadataString(f.Metadata, "material"),
		metadataString(f.Metadata, "type"),
		metadataString(f.Metadata, "description"),
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func selectPipeTemplate(f TakeoffFeature) pipeTemplate {
	text := featureText(f)
	switch {
	case strings.Contains(text, "copper"):
		return copperPipe
	case strings.Contains(text, "pvc"):
		return pvcPipe
	default:
		return genericPipe
	}
}

func selectFixtureTemplate(f TakeoffFeature) lineTemplate {
	text := featureText(f)
	switch {
	case strings.Contains(text, "toilet"), strings.Contains(text, "water closet"):
		return toiletTemplate
	case strings.Contains(text, "lavatory"), strings.Contains(text, "sink"):
		return lavatoryTemplate
	case strings.Contains(text, "rooftop"), hasWord(text, "rtu"):
		return rooftopTemplate
	default:
		return equipmentTemplate
	}
}

func hasWord(text, word string) bool {
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if w == word {
			return true
		}
	}
	return false
}

// formatDiameter renders a nominal diameter such as 1, 0.75 or 4 as "1in".
func formatDiameter(d float64) string {
	return fmt.Sprintf("%gin", roundTo(d, 3))
}
