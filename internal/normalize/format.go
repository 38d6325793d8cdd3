package normalize

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"brokerdash/internal/models"
)

// Classify maps a P&L figure to gain (>0), loss (<0) or neutral (0 and NaN).
func Classify(n float64) models.Sign {
	switch {
	case n > 0:
		return models.SignGain
	case n < 0:
		return models.SignLoss
	default:
		return models.SignNeutral
	}
}

// FormatMoney renders v in currency with its symbol and the currency's
// fraction digits, e.g. "₩1,234,500" or "$1,234.50". Unknown currency codes
// fall back to FormatNumber with two decimals and the code appended.
func FormatMoney(v float64, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return FormatNumber(v, 2) + " " + currency
	}
	factor := decimal.New(1, int32(cur.Fraction))
	minor := decimal.NewFromFloat(v).Mul(factor).Round(0).IntPart()
	return money.New(minor, currency).Display()
}

// FormatPct renders a percentage with an explicit sign, e.g. "+1.23%", or
// "?" when it is unknown.
func FormatPct(p models.Percent) string {
	if !p.Known {
		return models.UnknownPercentText
	}
	if p.Value > 0 {
		return fmt.Sprintf("+%.2f%%", p.Value)
	}
	return fmt.Sprintf("%.2f%%", p.Value)
}
