// Package services combines normalized brokerage data into the figures the
// dashboard shows: period P&L buckets, KPI totals and allocation weights.
package services

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"brokerdash/internal/broker/kis"
	"brokerdash/internal/models"
	"brokerdash/internal/normalize"
)

type pnlBucket struct {
	total, stock, future decimal.Decimal
	trades               int
}

// CombinePnl buckets realized stock and futures P&L by date. Stock rows are
// keyed by trade date and futures rows by order date. Rows with an empty date
// or an unparsable P&L are skipped. The result is sorted by date, newest
// first.
//
// ContangoCount, BackCount and CashFlow are reserved for the UI and stay 0.
func CombinePnl(stockRows []kis.StockPnlRow, futureRows []kis.FuturesPnlRow) []models.DailyPnl {
	buckets := make(map[string]*pnlBucket)

	add := func(date, raw string, stock bool) {
		date = strings.TrimSpace(date)
		pnl, ok := normalize.TryParseNumber(raw)
		if date == "" || !ok {
			return
		}
		b, exists := buckets[date]
		if !exists {
			b = &pnlBucket{}
			buckets[date] = b
		}
		b.total = b.total.Add(pnl)
		if stock {
			b.stock = b.stock.Add(pnl)
		} else {
			b.future = b.future.Add(pnl)
		}
		b.trades++
	}

	for _, r := range stockRows {
		add(r.TradeDate, r.RealizedPnl, true)
	}
	for _, r := range futureRows {
		add(r.OrderDate, r.TradePnl, false)
	}

	out := make([]models.DailyPnl, 0, len(buckets))
	for date, b := range buckets {
		out = append(out, models.DailyPnl{
			Date:       date,
			TotalPnl:   b.total.InexactFloat64(),
			StockPnl:   b.stock.InexactFloat64(),
			FuturePnl:  b.future.InexactFloat64(),
			TradeCount: b.trades,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// PctOfCost returns pnl as a percentage of cost, rounded to two decimals. A
// zero or non-finite cost, or a non-finite pnl, yields the unknown Percent,
// which renders as "?".
func PctOfCost(pnl, cost float64) models.Percent {
	return normalize.PctOfCost(pnl, cost)
}
