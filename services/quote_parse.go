package services

import (
	"regexp"
	"strings"

	"github.com/spf13/cast"
)

// ParseMethod records which tier produced a quote's lines.
type ParseMethod string

const (
	ParseStructured ParseMethod = "STRUCTURED"
	ParseFreeText   ParseMethod = "FREE_TEXT"
)

// ParsedQuoteLine is one priced line read from a vendor response.
type ParsedQuoteLine struct {
	Description  string  `json:"description"`
	SKU          string  `json:"sku,omitempty"`
	Quantity     float64 `json:"quantity"`
	UOM          string  `json:"uom"`
	UnitPrice    float64 `json:"unit_price"`
	TotalPrice   float64 `json:"total_price"`
	LeadTimeDays int     `json:"lead_time_days,omitempty"`
	Raw          string  `json:"raw,omitempty"`
}

// QuotePayload is a raw vendor response.
type QuotePayload struct {
	Text        string
	Attachments []Attachment
}

// quoteColumn names the fields a quote sheet can carry.
type quoteColumn int

const (
	colUnknown quoteColumn = iota
	colDescription
	colQuantity
	colUnit
	colUnitPrice
	colTotalPrice
	colSKU
	colLeadTime
)

// headerSynonyms maps normalized header text to a quote column.
var headerSynonyms = map[string]quoteColumn{
	"description":      colDescription,
	"item":             colDescription,
	"item description": colDescription,
	"material":         colDescription,
	"product":          colDescription,
	"desc":             colDescription,
	"quantity":         colQuantity,
	"qty":              colQuantity,
	"qty.":             colQuantity,
	"count":            colQuantity,
	"unit":             colUnit,
	"units":            colUnit,
	"uom":              colUnit,
	"u/m":              colUnit,
	"unit of measure":  colUnit,
	"unit price":       colUnitPrice,
	"unit cost":        colUnitPrice,
	"price":            colUnitPrice,
	"price each":       colUnitPrice,
	"rate":             colUnitPrice,
	"each":             colUnitPrice,
	"total":            colTotalPrice,
	"total price":      colTotalPrice,
	"line total":       colTotalPrice,
	"extended":         colTotalPrice,
	"extended price":   colTotalPrice,
	"ext price":        colTotalPrice,
	"amount":           colTotalPrice,
	"sku":              colSKU,
	"part number":      colSKU,
	"part #":           colSKU,
	"part no":          colSKU,
	"item #":           colSKU,
	"item number":      colSKU,
	"catalog #":        colSKU,
	"lead time":        colLeadTime,
	"lead time days":   colLeadTime,
	"lead time (days)": colLeadTime,
	"lead days":        colLeadTime,
}

// normalizeHeader lower-cases a header, treats underscores as spaces and
// collapses whitespace, so "Unit_Price " and "unit  price" both match.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.ReplaceAll(h, "_", " "))
	h = strings.TrimSuffix(strings.TrimSpace(h), ":")
	return strings.Join(strings.Fields(h), " ")
}

// ParseQuote extracts priced lines from a vendor response. Attachments that
// decode as sheets are tried first; if none yields a line, the text body is
// parsed line by line. ErrUnparseableQuote is returned when both tiers come
// up empty.
func ParseQuote(p QuotePayload, decode SheetDecoder) ([]ParsedQuoteLine, ParseMethod, error) {
	if decode == nil {
		decode = DecodeSheet
	}

	var structured []ParsedQuoteLine
	for _, a := range p.Attachments {
		rows, err := decode(a)
		if err != nil {
			continue
		}
		structured = append(structured, parseSheetRows(rows)...)
	}
	if len(structured) > 0 {
		return structured, ParseStructured, nil
	}

	if lines := parseFreeText(p.Text); len(lines) > 0 {
		return lines, ParseFreeText, nil
	}
	return nil, "", ErrUnparseableQuote
}

// parseSheetRows keeps rows with a positive unit price and no negative
// quantity or total. Quantity defaults to 1 and the total is derived when the
// sheet has none.
func parseSheetRows(rows []SheetRow) []ParsedQuoteLine {
	var out []ParsedQuoteLine
	for _, row := range rows {
		var line ParsedQuoteLine
		for _, cell := range row {
			switch headerSynonyms[normalizeHeader(cell.Header)] {
			case colDescription:
				line.Description = cell.Value
			case colQuantity:
				line.Quantity = parseAmount(cell.Value)
			case colUnit:
				line.UOM = cell.Value
			case colUnitPrice:
				line.UnitPrice = parseAmount(cell.Value)
			case colTotalPrice:
				line.TotalPrice = parseAmount(cell.Value)
			case colSKU:
				line.SKU = cell.Value
			case colLeadTime:
				line.LeadTimeDays = int(parseAmount(cell.Value))
			}
		}

		// Credits and negative quantities are not prices for the BOM line.
		if line.UnitPrice <= 0 || line.TotalPrice < 0 || line.Quantity < 0 {
			continue
		}
		line.LeadTimeDays = max(line.LeadTimeDays, 0)
		if line.Description == "" {
			line.Description = line.SKU
		}
		if line.Description == "" {
			continue
		}
		if line.Quantity <= 0 {
			line.Quantity = 1
		}
		if line.TotalPrice <= 0 {
			line.TotalPrice = roundTo(CalcLineTotal(line.Quantity, line.UnitPrice), 2)
		}
		line.UOM = NormalizeUOM(line.UOM)
		out = append(out, line)
	}
	return out
}

// parseAmount reads numbers such as "1,234.50", "$5", ".75", "-$25" or
// "12 EA". A minus sign counts only when it touches the number or its
// dollar sign.
func parseAmount(s string) float64 {
	v, _ := matchAmount(amountPattern, s)
	return v
}

// amountPattern matches a decimal with optional thousands separators, an
// optional leading dollar sign and an optional adjacent minus sign.
var amountPattern = regexp.MustCompile(`(-?)(?:\$\s*)?(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?|\.\d+)`)

var dollarAmountPattern = regexp.MustCompile(`(-?)\$\s*(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?|\.\d+)`)

func matchAmount(re *regexp.Regexp, s string) (float64, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v := cast.ToFloat64(strings.ReplaceAll(m[2], ",", ""))
	if m[1] == "-" {
		v = -v
	}
	return v, true
}

// summaryLinePrefixes mark free-text lines that restate totals.
var summaryLinePrefixes = []string{"total", "subtotal", "sub-total", "grand total"}

// parseFreeText reads one item per line that carries a price. The price is
// the first dollar amount on the line, else the first number after the
// hyphen, else the first number. The description is the text before the
// first hyphen, kept as written. Quantity is 1 and the unit EA.
func parseFreeText(text string) []ParsedQuoteLine {
	var out []ParsedQuoteLine
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" || isSummaryLine(line) {
			continue
		}

		price, ok := freeTextPrice(line)
		if !ok || price <= 0 {
			continue
		}

		desc := line
		if i := strings.Index(line, "-"); i >= 0 {
			desc = line[:i]
		}
		if strings.TrimSpace(desc) == "" {
			desc = strings.TrimSpace(line)
		}

		out = append(out, ParsedQuoteLine{
			Description: desc,
			Quantity:    1,
			UOM:         "EA",
			UnitPrice:   price,
			TotalPrice:  price,
			Raw:         line,
		})
	}
	return out
}

// freeTextPrice treats the first hyphen as the description separator, so
// "Washer - .75" is 0.75 while "Credit -$5" is negative and later skipped.
func freeTextPrice(line string) (float64, bool) {
	if v, ok := matchAmount(dollarAmountPattern, line); ok {
		return v, true
	}
	if i := strings.Index(line, "-"); i >= 0 {
		if v, ok := matchAmount(amountPattern, line[i+1:]); ok {
			return v, true
		}
	}
	return matchAmount(amountPattern, line)
}

func isSummaryLine(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	for _, p := range summaryLinePrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// RFQLine is a BOM line that a quote can be reconciled against.
type RFQLine struct {
	BOMItem BOMLineItem
	SKU     string
}

// MatchedQuoteLine pairs a parsed line with the BOM line it prices.
type MatchedQuoteLine struct {
	Line    ParsedQuoteLine
	BOMItem BOMLineItem
}

// MatchQuoteLines reconciles parsed lines with RFQ-scoped BOM lines: an
// exact SKU match first, then case-insensitive containment of either
// description in the other. Lines with no match are returned separately.
func MatchQuoteLines(lines []ParsedQuoteLine, candidates []RFQLine) ([]MatchedQuoteLine, []ParsedQuoteLine) {
	matched := make([]MatchedQuoteLine, 0, len(lines))
	unmatched := make([]ParsedQuoteLine, 0)
	for _, line := range lines {
		if c, ok := matchQuoteLine(line, candidates); ok {
			matched = append(matched, MatchedQuoteLine{Line: line, BOMItem: c.BOMItem})
			continue
		}
		unmatched = append(unmatched, line)
	}
	return matched, unmatched
}

func matchQuoteLine(line ParsedQuoteLine, candidates []RFQLine) (RFQLine, bool) {
	if sku := strings.TrimSpace(line.SKU); sku != "" {
		for _, c := range candidates {
			if strings.TrimSpace(c.SKU) == sku {
				return c, true
			}
		}
	}

	desc := strings.ToLower(strings.TrimSpace(line.Description))
	if desc == "" {
		return RFQLine{}, false
	}
	for _, c := range candidates {
		other := strings.ToLower(strings.TrimSpace(c.BOMItem.Description))
		if other == "" {
			continue
		}
		if strings.Contains(other, desc) || strings.Contains(desc, other) {
			return c, true
		}
	}
	return RFQLine{}, false
}
