// Package models contains the normalized, brokerage-agnostic rows served to
// the dashboard.
package models

import (
	"encoding/json"
	"strconv"

	"brokerdash/internal/broker"
)

// Sign classifies a P&L figure. Gains are rendered red and losses blue,
// following the Korean market convention.
type Sign string

const (
	SignGain    Sign = "gain"
	SignLoss    Sign = "loss"
	SignNeutral Sign = "neutral"
)

// Percent is a percentage that may be unknown, for example a return on a
// zero cost basis. Unknown values marshal as "?".
type Percent struct {
	Value float64
	Known bool
}

// UnknownPercentText is the rendering of an unknown Percent.
const UnknownPercentText = "?"

// KnownPercent returns a known Percent.
func KnownPercent(v float64) Percent { return Percent{Value: v, Known: true} }

// UnknownPercent returns the unknown sentinel.
func UnknownPercent() Percent { return Percent{} }

// String renders the value with two decimals, or "?".
func (p Percent) String() string {
	if !p.Known {
		return UnknownPercentText
	}
	return strconv.FormatFloat(p.Value, 'f', 2, 64)
}

// MarshalJSON implements json.Marshaler.
func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.Known {
		return json.Marshal(UnknownPercentText)
	}
	return json.Marshal(p.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Percent) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*p = UnknownPercent()
		return nil
	}
	*p = KnownPercent(v)
	return nil
}

// Position is one holding.
type Position struct {
	Brokerage      broker.Kind `json:"brokerage"`
	Symbol         string      `json:"symbol"`
	Name           string      `json:"name"`
	Side           string      `json:"side,omitempty"`
	Quantity       float64     `json:"quantity"`
	AvgPrice       float64     `json:"avg_price"`
	CurrentPrice   float64     `json:"current_price"`
	PurchaseAmount float64     `json:"purchase_amount"`
	EvalAmount     float64     `json:"eval_amount"`
	PnlAmount      float64     `json:"pnl_amount"`
	PnlPercent     float64     `json:"pnl_percent"`
	Currency       string      `json:"currency"`
	Divergence     string      `json:"divergence,omitempty"` // futures only
	Industry       string      `json:"industry,omitempty"`
	Sign           Sign        `json:"sign"`
}

// Order is one order with its fills.
type Order struct {
	Brokerage    broker.Kind `json:"brokerage"`
	OrderNo      string      `json:"order_no"`
	Date         string      `json:"date,omitempty"`
	Time         string      `json:"time,omitempty"`
	Name         string      `json:"name"`
	Side         string      `json:"side"`
	OrderQty     float64     `json:"order_qty"`
	FilledQty    float64     `json:"filled_qty"`
	OrderPrice   float64     `json:"order_price"`
	AvgFillPrice float64     `json:"avg_fill_price"`
	FilledAmount float64     `json:"filled_amount"`
}

// OrderSummary totals an order list.
type OrderSummary struct {
	OrderQty     float64 `json:"order_qty"`
	FilledQty    float64 `json:"filled_qty"`
	FilledAmount float64 `json:"filled_amount"`
}

// Orders is a normalized order history.
type Orders struct {
	Orders  []Order      `json:"orders"`
	Summary OrderSummary `json:"summary"`
}

// BalanceSummary is the account-level total of a balance.
type BalanceSummary struct {
	Brokerage      broker.Kind `json:"brokerage"`
	Currency       string      `json:"currency"`
	EvalAmount     float64     `json:"eval_amount"`
	PurchaseAmount float64     `json:"purchase_amount"`
	PnlAmount      float64     `json:"pnl_amount"`
	PnlPercent     Percent     `json:"pnl_percent"`
	Deposit        float64     `json:"deposit,omitempty"`
	Sign           Sign        `json:"sign"`
}

// Balance is a normalized balance: the holdings and their total.
type Balance struct {
	Summary   BalanceSummary `json:"summary"`
	Positions []Position     `json:"positions"`
}

// DailyPnl is one date's realized P&L bucket. JSON keys follow the dashboard
// UI's naming.
type DailyPnl struct {
	Date          string  `json:"date"`
	TotalPnl      float64 `json:"totalPnl"`
	StockPnl      float64 `json:"stockPnl"`
	FuturePnl     float64 `json:"futurePnl"`
	TradeCount    int     `json:"trade_count"`
	ContangoCount int     `json:"contango_count"`
	BackCount     int     `json:"back_count"`
	CashFlow      float64 `json:"cash_flow"`
}

// Totals combines the stock and futures balances into the dashboard KPIs.
type Totals struct {
	StockPnl     float64 `json:"stock_pnl"`
	FuturesPnl   float64 `json:"futures_pnl"`
	TotalPnl     float64 `json:"total_pnl"`
	StockCost    float64 `json:"stock_cost"`
	FuturesCost  float64 `json:"futures_cost"`
	TotalCost    float64 `json:"total_cost"`
	StockPct     Percent `json:"stock_pct"`
	FuturesPct   Percent `json:"futures_pct"`
	TotalPct     Percent `json:"total_pct"`
	TotalSign    Sign    `json:"total_sign"`
	TotalDisplay string  `json:"total_display"`
}

// HoldingWeight is a position's share of the account evaluation.
type HoldingWeight struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	EvalAmount float64 `json:"eval_amount"`
	Weight     string  `json:"weight"`
}

// SectorWeight is an industry's share of the account evaluation.
type SectorWeight struct {
	Industry   string  `json:"industry"`
	EvalAmount float64 `json:"eval_amount"`
	Weight     string  `json:"weight"`
}

// MarketStatus reports whether the Korean market is open and how often the
// UI should poll each feed. A zero interval disables polling.
type MarketStatus struct {
	Open                bool           `json:"open"`
	Now                 string         `json:"now"`
	PollIntervalSeconds map[string]int `json:"poll_interval_seconds"`
}
