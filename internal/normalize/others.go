package normalize

import (
	"math"
	"strings"

	"brokerdash/internal/broker"
	"brokerdash/internal/broker/kiwoom"
	"brokerdash/internal/broker/ls"
	"brokerdash/internal/models"
)

// Kiwoom pads numbers with zeros and signs prices by direction of the day's
// change, so prices are taken as magnitudes.
func kiwoomPosition(r kiwoom.Position) models.Position {
	qty := ParseNumber(r.Quantity)
	avg := math.Abs(ParseNumber(r.PurchasePrice))
	cur := math.Abs(ParseNumber(r.CurrentPrice))
	pnl := ParseNumber(r.PnlAmount)
	return models.Position{
		Brokerage:      broker.KindKiwoom,
		Symbol:         strings.TrimPrefix(strings.TrimSpace(r.Code), "A"),
		Name:           strings.TrimSpace(r.Name),
		Quantity:       qty,
		AvgPrice:       avg,
		CurrentPrice:   cur,
		PurchaseAmount: avg * qty,
		EvalAmount:     cur * qty,
		PnlAmount:      pnl,
		PnlPercent:     ParseNumber(r.PnlRate),
		Currency:       krw,
		Industry:       r.Industry,
		Sign:           Classify(pnl),
	}
}

func lsPosition(r ls.Position) models.Position {
	pnl := r.PnlAmount.Float64()
	return models.Position{
		Brokerage:      broker.KindLS,
		Symbol:         strings.TrimSpace(r.Code),
		Name:           strings.TrimSpace(r.Name),
		Quantity:       r.Quantity.Float64(),
		AvgPrice:       r.AvgPrice.Float64(),
		CurrentPrice:   r.CurrentPrice.Float64(),
		PurchaseAmount: r.PurchaseAmount.Float64(),
		EvalAmount:     r.EvalAmount.Float64(),
		PnlAmount:      pnl,
		PnlPercent:     r.PnlRate.Float64(),
		Currency:       krw,
		Sign:           Classify(pnl),
	}
}

// KiwoomBalance normalizes a kt00018 balance.
func KiwoomBalance(res *kiwoom.BalanceResponse) models.Balance {
	pnl := ParseNumber(res.TotalPnl)
	sum := summary(broker.KindKiwoom, krw,
		ParseNumber(res.TotalEval),
		ParseNumber(res.TotalPurchase),
		pnl)
	if _, ok := TryParseNumber(res.ReturnRate); ok {
		sum.PnlPercent = models.KnownPercent(ParseNumber(res.ReturnRate))
	}
	sum.Deposit = ParseNumber(res.EstimatedAsset)
	return models.Balance{Summary: sum, Positions: Positions(res.Positions)}
}

// LSBalance normalizes a t0424 balance.
func LSBalance(res *ls.BalanceResponse) models.Balance {
	s := res.Summary
	sum := summary(broker.KindLS, krw, s.EvalAmount.Float64(), s.PurchaseAmount.Float64(), s.EvalPnl.Float64())
	sum.Deposit = s.EstimatedAsset.Float64()
	return models.Balance{Summary: sum, Positions: Positions(res.Positions)}
}
