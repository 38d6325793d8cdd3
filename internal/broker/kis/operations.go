package kis

import (
	"context"
	"strings"

	"brokerdash/internal/broker"
)

// defaultDivergence is reported when a futures quote cannot be read.
const defaultDivergence = "0.00"

// BalanceResult is the domestic stock balance.
type BalanceResult struct {
	Positions []StockPosition
	Summary   StockBalanceSummary
}

// FuturesBalanceResult is the futures/options balance.
type FuturesBalanceResult struct {
	Positions []FuturesPosition
	Summary   FuturesBalanceSummary
}

// OverseasBalanceResult is the overseas stock balance for one exchange.
type OverseasBalanceResult struct {
	Positions []OverseasPosition
	Summary   OverseasBalanceSummary
}

// StockOrdersResult is the stock order history over a date range.
type StockOrdersResult struct {
	Orders  []StockOrder
	Summary StockOrderSummary
}

// FuturesOrdersResult is the futures order history over a date range.
type FuturesOrdersResult struct {
	Orders  []FuturesOrder
	Summary FuturesOrderSummary
}

// StockPnlResult is the realized stock P&L over a date range.
type StockPnlResult struct {
	Rows    []StockPnlRow
	Summary StockPnlSummary
}

// FuturesPnlResult is the realized futures P&L over a date range.
type FuturesPnlResult struct {
	Rows    []FuturesPnlRow
	Summary FuturesPnlSummary
}

// FetchBalance returns the domestic stock balance of acct.
func (c *Client) FetchBalance(ctx context.Context, acct broker.Account) (*BalanceResult, error) {
	env, err := c.Call(ctx, OpBalance, AccountParams(acct))
	if err != nil {
		return nil, err
	}
	positions, err := DecodeRows[StockPosition](env.Output1)
	if err != nil {
		return nil, decodeFailure(OpBalance, err)
	}
	summary, err := DecodeSummary[StockBalanceSummary](env.Output2)
	if err != nil {
		return nil, decodeFailure(OpBalance, err)
	}
	return &BalanceResult{Positions: positions, Summary: summary}, nil
}

// FetchFuturesBalance returns the futures/options balance of acct, with each
// position's divergence rate read from its price quote. A failed quote leaves
// the divergence at 0.00.
func (c *Client) FetchFuturesBalance(ctx context.Context, acct broker.Account) (*FuturesBalanceResult, error) {
	env, err := c.Call(ctx, OpFuturesBalance, AccountParams(acct))
	if err != nil {
		return nil, err
	}
	positions, err := DecodeRows[FuturesPosition](env.Output1)
	if err != nil {
		return nil, decodeFailure(OpFuturesBalance, err)
	}
	summary, err := DecodeSummary[FuturesBalanceSummary](env.Output2)
	if err != nil {
		return nil, decodeFailure(OpFuturesBalance, err)
	}

	for i := range positions {
		positions[i].Divergence = c.divergence(ctx, positions[i].Symbol)
	}
	return &FuturesBalanceResult{Positions: positions, Summary: summary}, nil
}

func (c *Client) divergence(ctx context.Context, symbol string) string {
	quote, err := c.FetchFuturesPrice(ctx, symbol)
	if err != nil {
		c.logger.Warn("divergence lookup failed", "symbol", symbol, "error", err)
		return defaultDivergence
	}
	if d := strings.TrimSpace(quote.Divergence); d != "" {
		return d
	}
	return defaultDivergence
}

// FetchOverseasBalance returns the overseas balance of acct on one exchange
// (NASD, NYSE, ...) in one trading currency (USD, HKD, ...).
func (c *Client) FetchOverseasBalance(ctx context.Context, acct broker.Account, exchange, currency string) (*OverseasBalanceResult, error) {
	params := AccountParams(acct)
	params[ParamExchange] = exchange
	params[ParamCurrency] = currency

	env, err := c.Call(ctx, OpOverseasBalance, params)
	if err != nil {
		return nil, err
	}
	positions, err := DecodeRows[OverseasPosition](env.Output1)
	if err != nil {
		return nil, decodeFailure(OpOverseasBalance, err)
	}
	summary, err := DecodeSummary[OverseasBalanceSummary](env.Output2)
	if err != nil {
		return nil, decodeFailure(OpOverseasBalance, err)
	}
	return &OverseasBalanceResult{Positions: positions, Summary: summary}, nil
}

// FetchDailyOrders returns every stock order placed between start and end
// (YYYYMMDD, inclusive).
func (c *Client) FetchDailyOrders(ctx context.Context, acct broker.Account, start, end string) (*StockOrdersResult, error) {
	env, err := c.FetchAllPages(ctx, OpDailyOrders, dateParams(acct, start, end))
	if err != nil {
		return nil, err
	}
	orders, err := DecodeRows[StockOrder](env.Output1)
	if err != nil {
		return nil, decodeFailure(OpDailyOrders, err)
	}
	summary, err := DecodeSummary[StockOrderSummary](env.Output2)
	if err != nil {
		return nil, decodeFailure(OpDailyOrders, err)
	}
	return &StockOrdersResult{Orders: orders, Summary: summary}, nil
}

// FetchFuturesOrders returns every futures/options order placed between start
// and end (YYYYMMDD, inclusive), newest first.
func (c *Client) FetchFuturesOrders(ctx context.Context, acct broker.Account, start, end string) (*FuturesOrdersResult, error) {
	env, err := c.FetchAllPages(ctx, OpFuturesOrders, dateParams(acct, start, end))
	if err != nil {
		return nil, err
	}
	orders, err := DecodeRows[FuturesOrder](env.Output1)
	if err != nil {
		return nil, decodeFailure(OpFuturesOrders, err)
	}
	summary, err := DecodeSummary[FuturesOrderSummary](env.Output2)
	if err != nil {
		return nil, decodeFailure(OpFuturesOrders, err)
	}
	return &FuturesOrdersResult{Orders: orders, Summary: summary}, nil
}

// FetchFuturesPrice returns the current quote of a futures contract.
func (c *Client) FetchFuturesPrice(ctx context.Context, symbol string) (*FuturesQuote, error) {
	env, err := c.Call(ctx, OpFuturesPrice, Params{ParamSymbol: symbol})
	if err != nil {
		return nil, err
	}
	quote, err := DecodeSummary[FuturesQuote](env.Output1)
	if err != nil {
		return nil, decodeFailure(OpFuturesPrice, err)
	}
	return &quote, nil
}

// FetchStockPnl returns realized stock P&L rows between start and end.
func (c *Client) FetchStockPnl(ctx context.Context, acct broker.Account, start, end string) (*StockPnlResult, error) {
	env, err := c.FetchAllPages(ctx, OpStockPeriodPnl, dateParams(acct, start, end))
	if err != nil {
		return nil, err
	}
	rows, err := DecodeRows[StockPnlRow](env.Output1)
	if err != nil {
		return nil, decodeFailure(OpStockPeriodPnl, err)
	}
	summary, err := DecodeSummary[StockPnlSummary](env.Output2)
	if err != nil {
		return nil, decodeFailure(OpStockPeriodPnl, err)
	}
	return &StockPnlResult{Rows: rows, Summary: summary}, nil
}

// FetchFuturesPnl returns realized futures P&L rows between start and end.
func (c *Client) FetchFuturesPnl(ctx context.Context, acct broker.Account, start, end string) (*FuturesPnlResult, error) {
	env, err := c.FetchAllPages(ctx, OpFuturesPeriodPnl, dateParams(acct, start, end))
	if err != nil {
		return nil, err
	}
	rows, err := DecodeRows[FuturesPnlRow](env.Output1)
	if err != nil {
		return nil, decodeFailure(OpFuturesPeriodPnl, err)
	}
	summary, err := DecodeSummary[FuturesPnlSummary](env.Output2)
	if err != nil {
		return nil, decodeFailure(OpFuturesPeriodPnl, err)
	}
	return &FuturesPnlResult{Rows: rows, Summary: summary}, nil
}

func dateParams(acct broker.Account, start, end string) Params {
	p := AccountParams(acct)
	p[ParamStartDate] = start
	p[ParamEndDate] = end
	return p
}
