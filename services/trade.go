package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Trade is a single-letter trade code.
type Trade string

const (
	TradeMechanical     Trade = "M"
	TradeElectrical     Trade = "E"
	TradePlumbing       Trade = "P"
	TradeArchitectural  Trade = "A"
	TradeStructural     Trade = "S"
	TradeFireProtection Trade = "F"
)

// AllTrades lists every trade in display order.
var AllTrades = []Trade{
	TradeMechanical,
	TradeElectrical,
	TradePlumbing,
	TradeArchitectural,
	TradeStructural,
	TradeFireProtection,
}

var tradeNames = map[Trade]string{
	TradeMechanical:     "Mechanical",
	TradeElectrical:     "Electrical",
	TradePlumbing:       "Plumbing",
	TradeArchitectural:  "Architectural",
	TradeStructural:     "Structural",
	TradeFireProtection: "Fire Protection",
}

// Name returns the display name of the trade, or the raw code when unknown.
func (t Trade) Name() string {
	if name, ok := tradeNames[t]; ok {
		return name
	}
	return string(t)
}

// Valid reports whether t is one of the fixed trade codes.
func (t Trade) Valid() bool {
	_, ok := tradeNames[t]
	return ok
}

// divisionTrades maps two-digit CSI MasterFormat division prefixes to trades.
var divisionTrades = map[string]Trade{
	"03": TradeStructural,
	"04": TradeStructural,
	"05": TradeStructural,
	"06": TradeArchitectural,
	"07": TradeArchitectural,
	"08": TradeArchitectural,
	"09": TradeArchitectural,
	"10": TradeArchitectural,
	"12": TradeArchitectural,
	"21": TradeFireProtection,
	"22": TradePlumbing,
	"23": TradeMechanical,
	"25": TradeMechanical,
	"26": TradeElectrical,
	"27": TradeElectrical,
	"28": TradeElectrical,
}

// tradeKeywords is checked in order; the first keyword found wins.
var tradeKeywords = []struct {
	keyword string
	trade   Trade
}{
	{"plumbing", TradePlumbing},
	{"pipe", TradePlumbing},
	{"hvac", TradeMechanical},
	{"mechanical", TradeMechanical},
	{"duct", TradeMechanical},
	{"electric", TradeElectrical},
	{"wire", TradeElectrical},
	{"conduit", TradeElectrical},
	{"floor", TradeArchitectural},
	{"wall", TradeArchitectural},
	{"ceiling", TradeArchitectural},
	{"fire", TradeFireProtection},
	{"sprinkler", TradeFireProtection},
	{"concrete", TradeStructural},
	{"steel", TradeStructural},
	{"structural", TradeStructural},
}

// ClassifyTrade maps a CSI division code and/or a free-text category to a
// trade. The division prefix table is consulted first, then the keyword
// list, and Architectural is the fallback.
func ClassifyTrade(division, category string) Trade {
	if prefix := divisionPrefix(division); prefix != "" {
		if trade, ok := divisionTrades[prefix]; ok {
			return trade
		}
	}

	// Casers keep state, so each call folds with its own.
	folded := cases.Fold().String(category)
	for _, kw := range tradeKeywords {
		if strings.Contains(folded, kw.keyword) {
			return kw.trade
		}
	}
	return TradeArchitectural
}

// divisionPrefix returns the first two digits of a division code such as
// "09 65 19" or "096519", or "" when there are fewer than two.
func divisionPrefix(division string) string {
	digits := make([]rune, 0, 2)
	for _, r := range strings.TrimSpace(division) {
		if !unicode.IsDigit(r) {
			if len(digits) > 0 {
				break
			}
			continue
		}
		digits = append(digits, r)
		if len(digits) == 2 {
			return string(digits)
		}
	}
	return ""
}
