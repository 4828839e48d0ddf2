package services

import (
	"math"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usdPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatUSD formats an amount as US dollars with thousands separators and
// exactly two decimal places (e.g., $1,234.50, -$12.00).
func FormatUSD(amount float64) string {
	if amount < 0 {
		return "-" + FormatUSD(-amount)
	}
	return usdPrinter.Sprintf("$%.2f", math.Round(amount*100)/100)
}

// FormatQuantity formats a quantity with thousands separators and at most
// two decimals, dropping trailing zeros (e.g., 1,100 or 12.5).
func FormatQuantity(qty float64) string {
	return humanize.CommafWithDigits(qty, 2)
}
