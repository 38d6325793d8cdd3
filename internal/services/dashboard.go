package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"brokerdash/internal/broker"
	"brokerdash/internal/broker/kis"
	"brokerdash/internal/broker/kiwoom"
	"brokerdash/internal/broker/ls"
	"brokerdash/internal/models"
	"brokerdash/internal/normalize"
)

// ErrNotConfigured is returned when a brokerage has no client configured.
var ErrNotConfigured = errors.New("brokerage not configured")

// KISClient is the subset of *kis.Client the dashboard uses.
type KISClient interface {
	FetchBalance(ctx context.Context, acct broker.Account) (*kis.BalanceResult, error)
	FetchFuturesBalance(ctx context.Context, acct broker.Account) (*kis.FuturesBalanceResult, error)
	FetchOverseasBalance(ctx context.Context, acct broker.Account, exchange, currency string) (*kis.OverseasBalanceResult, error)
	FetchDailyOrders(ctx context.Context, acct broker.Account, start, end string) (*kis.StockOrdersResult, error)
	FetchFuturesOrders(ctx context.Context, acct broker.Account, start, end string) (*kis.FuturesOrdersResult, error)
	FetchStockPnl(ctx context.Context, acct broker.Account, start, end string) (*kis.StockPnlResult, error)
	FetchFuturesPnl(ctx context.Context, acct broker.Account, start, end string) (*kis.FuturesPnlResult, error)
}

// KiwoomClient is the subset of *kiwoom.Client the dashboard uses.
type KiwoomClient interface {
	FetchBalance(ctx context.Context, q kiwoom.BalanceQuery) (*kiwoom.BalanceResponse, error)
}

// LSClient is the subset of *ls.Client the dashboard uses.
type LSClient interface {
	FetchBalance(ctx context.Context, in ls.BalanceInBlock) (*ls.BalanceResponse, error)
}

// Accounts are the KIS accounts the dashboard reads. Futures shares the
// stock account number under a different product code.
type Accounts struct {
	Stock   broker.Account
	Futures broker.Account
}

// Summary is the combined KPI view.
type Summary struct {
	Stock   models.BalanceSummary `json:"stock"`
	Futures models.BalanceSummary `json:"futures"`
	Totals  models.Totals         `json:"totals"`
}

// KiwoomView is a Kiwoom balance with its allocation breakdowns.
type KiwoomView struct {
	models.Balance
	Holdings []models.HoldingWeight `json:"holdings"`
	Sectors  []models.SectorWeight  `json:"sectors"`
}

// DashboardService fetches brokerage data and shapes it for the dashboard.
type DashboardService struct {
	kis      KISClient
	kiwoom   KiwoomClient
	ls       LSClient
	accounts Accounts
	now      func() time.Time
	logger   *slog.Logger
}

// NewDashboardService creates a DashboardService. Brokerage clients are
// attached with the With* methods; calls for a missing one fail with
// ErrNotConfigured.
func NewDashboardService(accounts Accounts, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		accounts: accounts,
		now:      time.Now,
		logger:   logger.With("component", "dashboard"),
	}
}

// WithKIS sets the KIS client.
func (s *DashboardService) WithKIS(c KISClient) *DashboardService {
	s.kis = c
	return s
}

// WithKiwoom sets the Kiwoom client.
func (s *DashboardService) WithKiwoom(c KiwoomClient) *DashboardService {
	s.kiwoom = c
	return s
}

// WithLS sets the LS client.
func (s *DashboardService) WithLS(c LSClient) *DashboardService {
	s.ls = c
	return s
}

// WithClock replaces the clock used for default dates.
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

// Today returns the current KST date as YYYYMMDD.
func (s *DashboardService) Today() string {
	return s.now().In(broker.KST).Format("20060102")
}

func (s *DashboardService) requireKIS() error {
	if s.kis == nil {
		return ErrNotConfigured
	}
	return nil
}

// Balance returns the KIS domestic stock balance.
func (s *DashboardService) Balance(ctx context.Context) (models.Balance, error) {
	if err := s.requireKIS(); err != nil {
		return models.Balance{}, err
	}
	res, err := s.kis.FetchBalance(ctx, s.accounts.Stock)
	if err != nil {
		return models.Balance{}, err
	}
	return normalize.KISBalance(res), nil
}

// FuturesBalance returns the KIS futures/options balance.
func (s *DashboardService) FuturesBalance(ctx context.Context) (models.Balance, error) {
	if err := s.requireKIS(); err != nil {
		return models.Balance{}, err
	}
	res, err := s.kis.FetchFuturesBalance(ctx, s.accounts.Futures)
	if err != nil {
		return models.Balance{}, err
	}
	return normalize.KISFuturesBalance(res), nil
}

// OverseasBalance returns the KIS overseas balance on exchange, valued in
// currency. Empty arguments default to NASD and USD.
func (s *DashboardService) OverseasBalance(ctx context.Context, exchange, currency string) (models.Balance, error) {
	if err := s.requireKIS(); err != nil {
		return models.Balance{}, err
	}
	if exchange == "" {
		exchange = "NASD"
	}
	if currency == "" {
		currency = "USD"
	}
	res, err := s.kis.FetchOverseasBalance(ctx, s.accounts.Stock, exchange, currency)
	if err != nil {
		return models.Balance{}, err
	}
	return normalize.KISOverseasBalance(res, currency), nil
}

// Orders returns the stock orders placed on date (YYYYMMDD, default today).
func (s *DashboardService) Orders(ctx context.Context, date string) (models.Orders, error) {
	if err := s.requireKIS(); err != nil {
		return models.Orders{}, err
	}
	if date == "" {
		date = s.Today()
	}
	res, err := s.kis.FetchDailyOrders(ctx, s.accounts.Stock, date, date)
	if err != nil {
		return models.Orders{}, err
	}
	return normalize.KISStockOrders(res), nil
}

// FuturesOrders returns the futures orders placed on date (YYYYMMDD, default
// today).
func (s *DashboardService) FuturesOrders(ctx context.Context, date string) (models.Orders, error) {
	if err := s.requireKIS(); err != nil {
		return models.Orders{}, err
	}
	if date == "" {
		date = s.Today()
	}
	res, err := s.kis.FetchFuturesOrders(ctx, s.accounts.Futures, date, date)
	if err != nil {
		return models.Orders{}, err
	}
	return normalize.KISFuturesOrders(res), nil
}

// PeriodPnl fetches realized stock and futures P&L between start and end
// concurrently and buckets them by date. Either side failing fails the call.
func (s *DashboardService) PeriodPnl(ctx context.Context, start, end string) ([]models.DailyPnl, error) {
	if err := s.requireKIS(); err != nil {
		return nil, err
	}

	var stock *kis.StockPnlResult
	var futures *kis.FuturesPnlResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stock, err = s.kis.FetchStockPnl(gctx, s.accounts.Stock, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		futures, err = s.kis.FetchFuturesPnl(gctx, s.accounts.Futures, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	days := CombinePnl(stock.Rows, futures.Rows)
	s.logger.Debug("period pnl combined", "start", start, "end", end,
		"stock_rows", len(stock.Rows), "futures_rows", len(futures.Rows), "days", len(days))
	return days, nil
}

// Summary fetches the stock and futures balances concurrently and combines
// their totals.
func (s *DashboardService) Summary(ctx context.Context) (*Summary, error) {
	if err := s.requireKIS(); err != nil {
		return nil, err
	}

	var stock, futures models.Balance
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stock, err = s.Balance(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		futures, err = s.FuturesBalance(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Summary{
		Stock:   stock.Summary,
		Futures: futures.Summary,
		Totals:  CombineTotals(stock.Summary, futures.Summary),
	}, nil
}

// KiwoomBalance returns the Kiwoom balance with holding and sector weights.
func (s *DashboardService) KiwoomBalance(ctx context.Context, q kiwoom.BalanceQuery) (*KiwoomView, error) {
	if s.kiwoom == nil {
		return nil, ErrNotConfigured
	}
	res, err := s.kiwoom.FetchBalance(ctx, q)
	if err != nil {
		return nil, err
	}
	bal := normalize.KiwoomBalance(res)
	return &KiwoomView{
		Balance:  bal,
		Holdings: HoldingWeights(bal.Positions),
		Sectors:  SectorAllocation(bal.Positions),
	}, nil
}

// LSBalance returns the LS balance.
func (s *DashboardService) LSBalance(ctx context.Context, in ls.BalanceInBlock) (models.Balance, error) {
	if s.ls == nil {
		return models.Balance{}, ErrNotConfigured
	}
	res, err := s.ls.FetchBalance(ctx, in)
	if err != nil {
		return models.Balance{}, err
	}
	return normalize.LSBalance(res), nil
}
