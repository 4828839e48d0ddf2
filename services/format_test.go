package services

import "testing"

func TestFormatUSD_Values(t *testing.T) {
	tests := []struct {
		name   string
		input  float64
		expect string
	}{
		{"zero", 0, "$0.00"},
		{"small integer", 5, "$5.00"},
		{"with decimals", 42.5, "$42.50"},
		{"hundreds", 999.99, "$999.99"},
		{"thousands", 1234.56, "$1,234.56"},
		{"millions", 1234567.89, "$1,234,567.89"},
		{"rounds to cents", 3.006, "$3.01"},
		{"negative", -100, "-$100.00"},
		{"negative thousands", -2500.5, "-$2,500.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatUSD(tt.input)
			if got != tt.expect {
				t.Errorf("FormatUSD(%v) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		name   string
		input  float64
		expect string
	}{
		{"integer", 12, "12"},
		{"thousands", 1100, "1,100"},
		{"fraction", 12.5, "12.5"},
		{"two decimals", 1080.25, "1,080.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatQuantity(tt.input)
			if got != tt.expect {
				t.Errorf("FormatQuantity(%v) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}
