package services

import "testing"

func TestClassifyTrade(t *testing.T) {
	tests := []struct {
		name     string
		division string
		category string
		expect   Trade
	}{
		{"finishes division", "09", "", TradeArchitectural},
		{"full division code", "09 65 19", "Flooring", TradeArchitectural},
		{"compact division code", "221116", "", TradePlumbing},
		{"hvac division", "23 74 13", "", TradeMechanical},
		{"electrical division", "26", "", TradeElectrical},
		{"fire suppression division", "21", "", TradeFireProtection},
		{"concrete division", "03 30 00", "", TradeStructural},
		{"division wins over category", "22", "Ceiling", TradePlumbing},
		{"unknown division falls to keyword", "99", "Ductwork", TradeMechanical},
		{"plumbing keyword", "", "Plumbing Fixtures", TradePlumbing},
		{"pipe keyword", "", "Pipe Fittings", TradePlumbing},
		{"electric keyword", "", "Electrical Wire", TradeElectrical},
		{"conduit keyword", "", "EMT Conduit", TradeElectrical},
		{"wall keyword", "", "Wall Finishes", TradeArchitectural},
		{"sprinkler keyword", "", "Sprinkler Heads", TradeFireProtection},
		{"steel keyword", "", "Steel Joists", TradeStructural},
		{"keyword order pipe before fire", "", "Fire Pipe", TradePlumbing},
		{"case insensitive", "", "HVAC", TradeMechanical},
		{"unknown everything", "", "Widgets", TradeArchitectural},
		{"empty input", "", "", TradeArchitectural},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyTrade(tt.division, tt.category)
			if got != tt.expect {
				t.Errorf("ClassifyTrade(%q, %q) = %q, want %q", tt.division, tt.category, got, tt.expect)
			}
			if again := ClassifyTrade(tt.division, tt.category); again != got {
				t.Errorf("ClassifyTrade not deterministic: %q then %q", got, again)
			}
		})
	}
}

func TestDivisionPrefix(t *testing.T) {
	tests := []struct {
		input  string
		expect string
	}{
		{"09", "09"},
		{"09 65 19", "09"},
		{"096519", "09"},
		{" 22-11-16", "22"},
		{"Div 23", "23"},
		{"9", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := divisionPrefix(tt.input); got != tt.expect {
				t.Errorf("divisionPrefix(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestTradeName(t *testing.T) {
	if got := TradeFireProtection.Name(); got != "Fire Protection" {
		t.Errorf("Name() = %q, want Fire Protection", got)
	}
	if got := Trade("X").Name(); got != "X" {
		t.Errorf("Name() for unknown = %q, want X", got)
	}
	if Trade("X").Valid() {
		t.Error("Trade X should not be valid")
	}
	for _, tr := range AllTrades {
		if !tr.Valid() {
			t.Errorf("trade %q should be valid", tr)
		}
	}
}
