package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"brokerdash/internal/broker"
	"brokerdash/internal/broker/kis"
	"brokerdash/internal/broker/kiwoom"
	"brokerdash/internal/broker/ls"
)

type fakeKIS struct {
	stockPnlErr error
	lastStart   string
	lastEnd     string
	lastAcct    broker.Account
}

func (f *fakeKIS) FetchBalance(ctx context.Context, acct broker.Account) (*kis.BalanceResult, error) {
	f.lastAcct = acct
	return &kis.BalanceResult{
		Positions: []kis.StockPosition{{Symbol: "005930", Quantity: "1", PnlAmount: "100"}},
		Summary:   kis.StockBalanceSummary{PurchaseAmountTotal: "1000", PnlAmountTotal: "100"},
	}, nil
}

func (f *fakeKIS) FetchFuturesBalance(ctx context.Context, acct broker.Account) (*kis.FuturesBalanceResult, error) {
	return &kis.FuturesBalanceResult{
		Summary: kis.FuturesBalanceSummary{PurchaseAmountTotal: "1000", PnlAmountTotal: "-300"},
	}, nil
}

func (f *fakeKIS) FetchOverseasBalance(ctx context.Context, acct broker.Account, exchange, currency string) (*kis.OverseasBalanceResult, error) {
	f.lastStart = exchange
	return &kis.OverseasBalanceResult{}, nil
}

func (f *fakeKIS) FetchDailyOrders(ctx context.Context, acct broker.Account, start, end string) (*kis.StockOrdersResult, error) {
	f.lastStart, f.lastEnd = start, end
	return &kis.StockOrdersResult{Orders: []kis.StockOrder{{OrderNo: "1"}}}, nil
}

func (f *fakeKIS) FetchFuturesOrders(ctx context.Context, acct broker.Account, start, end string) (*kis.FuturesOrdersResult, error) {
	f.lastAcct = acct
	f.lastStart, f.lastEnd = start, end
	return &kis.FuturesOrdersResult{}, nil
}

func (f *fakeKIS) FetchStockPnl(ctx context.Context, acct broker.Account, start, end string) (*kis.StockPnlResult, error) {
	if f.stockPnlErr != nil {
		return nil, f.stockPnlErr
	}
	return &kis.StockPnlResult{Rows: []kis.StockPnlRow{{TradeDate: "20240102", RealizedPnl: "100"}}}, nil
}

func (f *fakeKIS) FetchFuturesPnl(ctx context.Context, acct broker.Account, start, end string) (*kis.FuturesPnlResult, error) {
	return &kis.FuturesPnlResult{Rows: []kis.FuturesPnlRow{{OrderDate: "20240103", TradePnl: "-50"}}}, nil
}

type fakeKiwoom struct{}

func (fakeKiwoom) FetchBalance(ctx context.Context, q kiwoom.BalanceQuery) (*kiwoom.BalanceResponse, error) {
	return &kiwoom.BalanceResponse{
		Positions: []kiwoom.Position{
			{Code: "A005930", Quantity: "1", CurrentPrice: "300", Industry: "Semiconductors"},
			{Code: "A069500", Quantity: "1", CurrentPrice: "100"},
		},
	}, nil
}

var testAccounts = Accounts{
	Stock:   broker.Account{Number: "12345678", ProductCode: "01"},
	Futures: broker.Account{Number: "12345678", ProductCode: "03"},
}

func newTestDashboard(k KISClient) *DashboardService {
	clock := func() time.Time { return time.Date(2024, 6, 14, 16, 0, 0, 0, time.UTC) }
	return NewDashboardService(testAccounts, nil).WithKIS(k).WithClock(clock)
}

func TestDashboard_PeriodPnl(t *testing.T) {
	days, err := newTestDashboard(&fakeKIS{}).PeriodPnl(context.Background(), "20240101", "20240131")
	if err != nil {
		t.Fatalf("PeriodPnl() error = %v", err)
	}
	if len(days) != 2 || days[0].Date != "20240103" || days[1].Date != "20240102" {
		t.Errorf("PeriodPnl() = %+v, want two buckets newest first", days)
	}
}

func TestDashboard_PeriodPnlFailsOnEitherSide(t *testing.T) {
	want := &broker.UpstreamError{Operation: "stock_period_pnl", Status: 500}
	_, err := newTestDashboard(&fakeKIS{stockPnlErr: want}).PeriodPnl(context.Background(), "20240101", "20240131")
	var ue *broker.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("PeriodPnl() error = %v, want UpstreamError", err)
	}
}

func TestDashboard_Summary(t *testing.T) {
	sum, err := newTestDashboard(&fakeKIS{}).Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum.Totals.TotalPnl != -200 || sum.Totals.TotalCost != 2000 {
		t.Errorf("Totals = %+v", sum.Totals)
	}
	if sum.Totals.TotalPct.String() != "-10.00" {
		t.Errorf("TotalPct = %v, want -10.00", sum.Totals.TotalPct)
	}
}

func TestDashboard_OrdersDefaultToTodayKST(t *testing.T) {
	k := &fakeKIS{}
	if _, err := newTestDashboard(k).FuturesOrders(context.Background(), ""); err != nil {
		t.Fatalf("FuturesOrders() error = %v", err)
	}
	// 16:00 UTC is already the next day in Seoul.
	if k.lastStart != "20240615" || k.lastEnd != "20240615" {
		t.Errorf("date range = %s..%s, want 20240615..20240615", k.lastStart, k.lastEnd)
	}
	if k.lastAcct != testAccounts.Futures {
		t.Errorf("account = %+v, want futures account", k.lastAcct)
	}
}

func TestDashboard_OverseasDefaults(t *testing.T) {
	k := &fakeKIS{}
	bal, err := newTestDashboard(k).OverseasBalance(context.Background(), "", "")
	if err != nil {
		t.Fatalf("OverseasBalance() error = %v", err)
	}
	if k.lastStart != "NASD" || bal.Summary.Currency != "USD" {
		t.Errorf("exchange = %q currency = %q, want NASD USD", k.lastStart, bal.Summary.Currency)
	}
}

func TestDashboard_KiwoomBalance(t *testing.T) {
	svc := NewDashboardService(testAccounts, nil).WithKiwoom(fakeKiwoom{})
	view, err := svc.KiwoomBalance(context.Background(), kiwoom.BalanceQuery{})
	if err != nil {
		t.Fatalf("KiwoomBalance() error = %v", err)
	}
	if len(view.Sectors) != 2 || view.Sectors[0].Industry != "Semiconductors" || view.Sectors[0].Weight != "75.00%" {
		t.Errorf("Sectors = %+v", view.Sectors)
	}
	if len(view.Holdings) != 2 || view.Holdings[0].Symbol != "005930" {
		t.Errorf("Holdings = %+v", view.Holdings)
	}
}

func TestDashboard_NotConfigured(t *testing.T) {
	svc := NewDashboardService(testAccounts, nil)
	if _, err := svc.Balance(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Balance() error = %v, want ErrNotConfigured", err)
	}
	if _, err := svc.KiwoomBalance(context.Background(), kiwoom.BalanceQuery{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("KiwoomBalance() error = %v, want ErrNotConfigured", err)
	}
	if _, err := svc.LSBalance(context.Background(), ls.BalanceInBlock{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("LSBalance() error = %v, want ErrNotConfigured", err)
	}
}
