// Package format renders monetary values and rates for display.
package format

import (
	"math"
	"strconv"

	"github.com/iwvelando/use-of-proceeds/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Currency returns a whole-dollar US currency string with thousands
// separators (e.g., "$12,345" or "-$1,200"). Halves round away from zero.
// Formatting never changes the stored value.
func Currency(amount float64) string {
	if !mathutil.IsFinite(amount) {
		return "$0"
	}
	rounded := math.Round(amount)
	if rounded < 0 {
		return "-$" + printer.Sprintf("%d", int64(-rounded))
	}
	return "$" + printer.Sprintf("%d", int64(rounded))
}

// NumericCurrency returns the whole-dollar amount with separators but without
// a currency symbol (e.g., "-1,234").
func NumericCurrency(amount float64) string {
	if !mathutil.IsFinite(amount) {
		return "0"
	}
	return printer.Sprintf("%d", int64(math.Round(amount)))
}

// Percent renders an annual rate such as 6.5 as "6.50%".
func Percent(rate float64) string {
	if !mathutil.IsFinite(rate) {
		rate = 0
	}
	return strconv.FormatFloat(rate, 'f', 2, 64) + "%"
}
