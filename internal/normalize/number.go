// Package normalize maps brokerage-native rows into the dashboard's models.
// Numeric fields are parsed leniently: anything unparsable becomes zero.
package normalize

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"brokerdash/internal/broker"
)

// ParseDecimal parses a brokerage numeric string. Thousands separators,
// whitespace, a trailing percent sign and a leading plus are ignored; a
// leading minus is kept. Unparsable input yields zero.
func ParseDecimal(s string) decimal.Decimal {
	d, _ := TryParseNumber(s)
	return d
}

// ParseNumber is ParseDecimal as a float64.
func ParseNumber(s string) float64 {
	f, _ := ParseDecimal(s).Float64()
	return f
}

// TryParseNumber is ParseDecimal that also reports whether s held a number,
// so callers can skip rows instead of counting them as zero.
func TryParseNumber(s string) (decimal.Decimal, bool) {
	return broker.ParseNumeric(s)
}

// FormatNumber renders v with thousands separators and exactly decimals
// fraction digits, e.g. FormatNumber(1234.5, 2) == "1,234.50".
func FormatNumber(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return humanize.FormatFloat("#,###."+strings.Repeat("#", decimals), v)
}
