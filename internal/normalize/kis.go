package normalize

import (
	"strings"

	"brokerdash/internal/broker"
	"brokerdash/internal/broker/kis"
	"brokerdash/internal/models"
)

const krw = "KRW"

func kisStockPosition(r kis.StockPosition) models.Position {
	pnl := ParseNumber(r.PnlAmount)
	return models.Position{
		Brokerage:      broker.KindKIS,
		Symbol:         strings.TrimSpace(r.Symbol),
		Name:           strings.TrimSpace(r.Name),
		Side:           r.TradeType,
		Quantity:       ParseNumber(r.Quantity),
		AvgPrice:       ParseNumber(r.AvgPrice),
		CurrentPrice:   ParseNumber(r.CurrentPrice),
		PurchaseAmount: ParseNumber(r.PurchaseAmount),
		EvalAmount:     ParseNumber(r.EvalAmount),
		PnlAmount:      pnl,
		PnlPercent:     ParseNumber(r.PnlRate),
		Currency:       krw,
		Sign:           Classify(pnl),
	}
}

// KIS does not report a futures P&L rate, so it is derived from the
// purchase amount.
func kisFuturesPosition(r kis.FuturesPosition) models.Position {
	pnl := ParseNumber(r.PnlAmount)
	cost := ParseNumber(r.PurchaseAmount)
	return models.Position{
		Brokerage:      broker.KindKIS,
		Symbol:         strings.TrimSpace(r.Symbol),
		Name:           strings.TrimSpace(r.Name),
		Side:           r.Side,
		Quantity:       ParseNumber(r.Quantity),
		AvgPrice:       ParseNumber(r.AvgPrice),
		CurrentPrice:   ParseNumber(r.SettlePrice),
		PurchaseAmount: cost,
		EvalAmount:     ParseNumber(r.EvalAmount),
		PnlAmount:      pnl,
		PnlPercent:     ratioPct(pnl, cost),
		Currency:       krw,
		Divergence:     r.Divergence,
		Sign:           Classify(pnl),
	}
}

func kisOverseasPosition(r kis.OverseasPosition) models.Position {
	pnl := ParseNumber(r.PnlAmount)
	return models.Position{
		Brokerage:      broker.KindKIS,
		Symbol:         strings.TrimSpace(r.Symbol),
		Name:           strings.TrimSpace(r.Name),
		Quantity:       ParseNumber(r.Quantity),
		AvgPrice:       ParseNumber(r.AvgPrice),
		CurrentPrice:   ParseNumber(r.CurrentPrice),
		PurchaseAmount: ParseNumber(r.PurchaseAmount),
		EvalAmount:     ParseNumber(r.EvalAmount),
		PnlAmount:      pnl,
		PnlPercent:     ParseNumber(r.PnlRate),
		Currency:       strings.TrimSpace(r.Currency),
		Sign:           Classify(pnl),
	}
}

func kisStockOrder(r kis.StockOrder) models.Order {
	return models.Order{
		Brokerage:    broker.KindKIS,
		OrderNo:      r.OrderNo,
		Date:         r.OrderDate,
		Time:         r.OrderTime,
		Name:         strings.TrimSpace(r.Name),
		Side:         r.Side,
		OrderQty:     ParseNumber(r.OrderQty),
		FilledQty:    ParseNumber(r.FilledQty),
		OrderPrice:   ParseNumber(r.OrderPrice),
		AvgFillPrice: ParseNumber(r.AvgFillPrice),
		FilledAmount: ParseNumber(r.FilledAmount),
	}
}

func kisFuturesOrder(r kis.FuturesOrder) models.Order {
	return models.Order{
		Brokerage:    broker.KindKIS,
		OrderNo:      r.OrderNo,
		Date:         r.OrderDate,
		Name:         strings.TrimSpace(r.Name),
		Side:         r.Side,
		OrderQty:     ParseNumber(r.OrderQty),
		FilledQty:    ParseNumber(r.FilledQty),
		OrderPrice:   ParseNumber(r.OrderPrice),
		AvgFillPrice: ParseNumber(r.AvgFillPrice),
		FilledAmount: ParseNumber(r.FilledAmount),
	}
}

// KISBalance normalizes the domestic stock balance.
func KISBalance(res *kis.BalanceResult) models.Balance {
	s := res.Summary
	sum := summary(broker.KindKIS, krw,
		ParseNumber(s.TotalEvalAmount),
		ParseNumber(s.PurchaseAmountTotal),
		ParseNumber(s.PnlAmountTotal))
	sum.Deposit = ParseNumber(s.Deposit)
	return models.Balance{Summary: sum, Positions: Positions(res.Positions)}
}

// KISFuturesBalance normalizes the futures/options balance. KIS reports no
// evaluation total, so it is cost plus P&L; Deposit is the estimated
// deposit assets.
func KISFuturesBalance(res *kis.FuturesBalanceResult) models.Balance {
	s := res.Summary
	cost := ParseNumber(s.PurchaseAmountTotal)
	pnl := ParseNumber(s.PnlAmountTotal)
	sum := summary(broker.KindKIS, krw, cost+pnl, cost, pnl)
	sum.Deposit = ParseNumber(s.EstimatedDeposit)
	return models.Balance{Summary: sum, Positions: Positions(res.Positions)}
}

// KISOverseasBalance normalizes an overseas balance held in currency.
func KISOverseasBalance(res *kis.OverseasBalanceResult, currency string) models.Balance {
	s := res.Summary
	cost := ParseNumber(s.PurchaseAmountTotal)
	pnl := ParseNumber(s.PnlAmountTotal)
	sum := summary(broker.KindKIS, currency, cost+pnl, cost, pnl)
	if _, ok := TryParseNumber(s.ReturnRate); ok {
		sum.PnlPercent = models.KnownPercent(ParseNumber(s.ReturnRate))
	}
	return models.Balance{Summary: sum, Positions: Positions(res.Positions)}
}

// KISStockOrders normalizes the stock order history.
func KISStockOrders(res *kis.StockOrdersResult) models.Orders {
	return models.Orders{
		Orders: Orders(res.Orders),
		Summary: models.OrderSummary{
			OrderQty:     ParseNumber(res.Summary.OrderQtyTotal),
			FilledQty:    ParseNumber(res.Summary.FilledQtyTotal),
			FilledAmount: ParseNumber(res.Summary.FilledAmount),
		},
	}
}

// KISFuturesOrders normalizes the futures order history.
func KISFuturesOrders(res *kis.FuturesOrdersResult) models.Orders {
	return models.Orders{
		Orders: Orders(res.Orders),
		Summary: models.OrderSummary{
			OrderQty:     ParseNumber(res.Summary.OrderQtyTotal),
			FilledQty:    ParseNumber(res.Summary.FilledQtyTotal),
			FilledAmount: ParseNumber(res.Summary.FilledAmount),
		},
	}
}
