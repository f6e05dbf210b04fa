package money

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// USD formats a value as a dollar string with comma grouping and two
// decimal places, e.g. 1234.5 -> "$1,234.50". The value is rounded
// half-up via decimal first so float artifacts never leak into output.
func USD(v float64) string {
	rounded := decimal.NewFromFloat(v).Round(2).InexactFloat64()
	return "$" + humanize.FormatFloat("#,###.##", rounded)
}
