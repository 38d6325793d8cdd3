package normalize

import (
	"math"

	"github.com/shopspring/decimal"

	"brokerdash/internal/broker"
	"brokerdash/internal/broker/kis"
	"brokerdash/internal/broker/kiwoom"
	"brokerdash/internal/broker/ls"
	"brokerdash/internal/models"
)

// RawPosition is a brokerage-native holding row tagged with its brokerage.
type RawPosition interface {
	Brokerage() broker.Kind
}

// RawOrder is a brokerage-native order row tagged with its brokerage.
type RawOrder interface {
	Brokerage() broker.Kind
}

// Position maps any supported raw holding row. ok is false for row types
// this package does not know.
func Position(row RawPosition) (p models.Position, ok bool) {
	switch r := row.(type) {
	case kis.StockPosition:
		return kisStockPosition(r), true
	case kis.FuturesPosition:
		return kisFuturesPosition(r), true
	case kis.OverseasPosition:
		return kisOverseasPosition(r), true
	case kiwoom.Position:
		return kiwoomPosition(r), true
	case ls.Position:
		return lsPosition(r), true
	}
	return models.Position{}, false
}

// Order maps any supported raw order row.
func Order(row RawOrder) (o models.Order, ok bool) {
	switch r := row.(type) {
	case kis.StockOrder:
		return kisStockOrder(r), true
	case kis.FuturesOrder:
		return kisFuturesOrder(r), true
	}
	return models.Order{}, false
}

// Positions maps rows and drops holdings with no remaining quantity.
func Positions[T RawPosition](rows []T) []models.Position {
	out := make([]models.Position, 0, len(rows))
	for _, row := range rows {
		p, ok := Position(row)
		if !ok || p.Quantity <= 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Orders maps order rows in their original order.
func Orders[T RawOrder](rows []T) []models.Order {
	out := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		if o, ok := Order(row); ok {
			out = append(out, o)
		}
	}
	return out
}

// PctOfCost returns pnl as a percentage of cost rounded to two decimals, or
// the unknown sentinel when cost is zero or either input is not finite.
func PctOfCost(pnl, cost float64) models.Percent {
	if cost == 0 || !finite(cost) || !finite(pnl) {
		return models.UnknownPercent()
	}
	pct := decimal.NewFromFloat(pnl).Div(decimal.NewFromFloat(cost)).Mul(decimal.NewFromInt(100)).Round(2)
	v, _ := pct.Float64()
	return models.KnownPercent(v)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ratioPct is PctOfCost for per-row fields, where an unknown ratio shows as 0.
func ratioPct(pnl, cost float64) float64 {
	p := PctOfCost(pnl, cost)
	if !p.Known {
		return 0
	}
	return p.Value
}

func summary(kind broker.Kind, currency string, eval, cost, pnl float64) models.BalanceSummary {
	return models.BalanceSummary{
		Brokerage:      kind,
		Currency:       currency,
		EvalAmount:     eval,
		PurchaseAmount: cost,
		PnlAmount:      pnl,
		PnlPercent:     PctOfCost(pnl, cost),
		Sign:           Classify(pnl),
	}
}
