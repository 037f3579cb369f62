package engine

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// money renders a currency amount for history entries.
func money(amount int) string {
	if amount < 0 {
		return "-$" + humanize.Comma(int64(-amount))
	}
	return "$" + humanize.Comma(int64(amount))
}

// moneyf renders a fractional currency amount, rounded to whole units.
func moneyf(amount float64) string {
	return money(int(math.Round(amount)))
}

// percent renders an annual rate for history entries.
func percent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}
