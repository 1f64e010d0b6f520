// Package format renders prices and counters for admin views.
package format

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencySymbol prefixes every displayed price. The unit is fixed.
const CurrencySymbol = "฿"

var printer = message.NewPrinter(language.English)

// Amount renders n with thousands separators and at most two fraction digits.
func Amount(n float64) string {
	return printer.Sprint(number.Decimal(n, number.MaxFractionDigits(2)))
}

// Price renders n as a display price, e.g. ฿1,200.
func Price(n float64) string {
	return CurrencySymbol + Amount(n)
}

// Counter renders a length counter such as "12/50".
func Counter(n, limit int) string {
	return fmt.Sprintf("%d/%d", n, limit)
}
