package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders a monetary amount with thousands grouping and
// two decimals for receipt and notification text.
func FormatAmount(v float64) string {
	return amountPrinter.Sprint(number.Decimal(v, number.Scale(2)))
}
