package services

import (
	"math"
	"sort"

	"brokerdash/internal/models"
	"brokerdash/internal/normalize"
)

// finiteOrZero treats NaN and infinities as 0 so one bad summary field cannot
// poison the combined totals.
func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// CombineTotals merges the stock and futures balance summaries into the KPI
// totals: P&L and cost per side and combined, with percentages of cost.
func CombineTotals(stock, futures models.BalanceSummary) models.Totals {
	t := models.Totals{
		StockPnl:    finiteOrZero(stock.PnlAmount),
		FuturesPnl:  finiteOrZero(futures.PnlAmount),
		StockCost:   finiteOrZero(stock.PurchaseAmount),
		FuturesCost: finiteOrZero(futures.PurchaseAmount),
	}
	t.TotalPnl = t.StockPnl + t.FuturesPnl
	t.TotalCost = t.StockCost + t.FuturesCost

	t.StockPct = PctOfCost(t.StockPnl, t.StockCost)
	t.FuturesPct = PctOfCost(t.FuturesPnl, t.FuturesCost)
	t.TotalPct = PctOfCost(t.TotalPnl, t.TotalCost)
	t.TotalSign = normalize.Classify(t.TotalPnl)
	t.TotalDisplay = normalize.FormatMoney(t.TotalPnl, "KRW")
	return t
}

// weight renders part as a share of total, "0.00%" when total is 0.
func weight(part, total float64) string {
	if total == 0 {
		return "0.00%"
	}
	return normalize.FormatNumber(part/total*100, 2) + "%"
}

// HoldingWeights returns each position's share of the summed evaluation
// amount, largest first.
func HoldingWeights(positions []models.Position) []models.HoldingWeight {
	var total float64
	for _, p := range positions {
		total += finiteOrZero(p.EvalAmount)
	}

	out := make([]models.HoldingWeight, 0, len(positions))
	for _, p := range positions {
		eval := finiteOrZero(p.EvalAmount)
		out = append(out, models.HoldingWeight{
			Symbol:     p.Symbol,
			Name:       p.Name,
			EvalAmount: eval,
			Weight:     weight(eval, total),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EvalAmount > out[j].EvalAmount
	})
	return out
}

// DefaultSector labels positions whose industry is unknown.
const DefaultSector = "ETF"

// SectorAllocation groups positions by industry and returns each industry's
// share of the summed evaluation amount, largest first.
func SectorAllocation(positions []models.Position) []models.SectorWeight {
	totals := make(map[string]float64)
	var total float64
	for _, p := range positions {
		industry := p.Industry
		if industry == "" {
			industry = DefaultSector
		}
		eval := finiteOrZero(p.EvalAmount)
		totals[industry] += eval
		total += eval
	}

	out := make([]models.SectorWeight, 0, len(totals))
	for industry, eval := range totals {
		out = append(out, models.SectorWeight{
			Industry:   industry,
			EvalAmount: eval,
			Weight:     weight(eval, total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EvalAmount != out[j].EvalAmount {
			return out[i].EvalAmount > out[j].EvalAmount
		}
		return out[i].Industry < out[j].Industry
	})
	return out
}
