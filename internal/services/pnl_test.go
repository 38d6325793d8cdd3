package services

import (
	"math"
	"testing"

	"brokerdash/internal/broker/kis"
	"brokerdash/internal/models"
)

func TestCombinePnl(t *testing.T) {
	stock := []kis.StockPnlRow{
		{TradeDate: "20240102", RealizedPnl: "1,000"},
		{TradeDate: "20240102", RealizedPnl: "-250"},
		{TradeDate: "20240103", RealizedPnl: "500"},
	}
	futures := []kis.FuturesPnlRow{
		{OrderDate: "20240103", TradePnl: "-2,000"},
		{OrderDate: "20240104", TradePnl: "300"},
	}

	got := CombinePnl(stock, futures)
	want := []models.DailyPnl{
		{Date: "20240104", TotalPnl: 300, FuturePnl: 300, TradeCount: 1},
		{Date: "20240103", TotalPnl: -1500, StockPnl: 500, FuturePnl: -2000, TradeCount: 2},
		{Date: "20240102", TotalPnl: 750, StockPnl: 750, TradeCount: 2},
	}

	if len(got) != len(want) {
		t.Fatalf("len(CombinePnl()) = %d, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CombinePnl()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCombinePnl_SingleRow(t *testing.T) {
	got := CombinePnl([]kis.StockPnlRow{{TradeDate: "20240105", RealizedPnl: "1234.5"}}, nil)
	if len(got) != 1 {
		t.Fatalf("len(CombinePnl()) = %d, want 1", len(got))
	}
	d := got[0]
	if d.TotalPnl != 1234.5 || d.StockPnl != 1234.5 || d.FuturePnl != 0 || d.TradeCount != 1 {
		t.Errorf("CombinePnl() = %+v", d)
	}
}

func TestCombinePnl_SkipsUnparsableRows(t *testing.T) {
	stock := []kis.StockPnlRow{
		{TradeDate: "20240102", RealizedPnl: "abc"},
		{TradeDate: "20240102", RealizedPnl: ""},
		{TradeDate: "", RealizedPnl: "100"},
		{TradeDate: "20240102", RealizedPnl: "10"},
	}

	got := CombinePnl(stock, nil)
	if len(got) != 1 || got[0].TradeCount != 1 || got[0].TotalPnl != 10 {
		t.Errorf("CombinePnl() = %+v, want one bucket with a single 10 trade", got)
	}
}

func TestCombinePnl_DecimalAccumulation(t *testing.T) {
	var rows []kis.StockPnlRow
	for i := 0; i < 10; i++ {
		rows = append(rows, kis.StockPnlRow{TradeDate: "20240102", RealizedPnl: "0.1"})
	}
	got := CombinePnl(rows, nil)
	if got[0].TotalPnl != 1 {
		t.Errorf("TotalPnl = %v, want exactly 1", got[0].TotalPnl)
	}
}

func TestCombinePnl_Empty(t *testing.T) {
	got := CombinePnl(nil, nil)
	if got == nil || len(got) != 0 {
		t.Errorf("CombinePnl(nil, nil) = %#v, want empty non-nil slice", got)
	}
}

func TestPctOfCost(t *testing.T) {
	tests := []struct {
		pnl, cost float64
		want      models.Percent
	}{
		{100, 0, models.UnknownPercent()},
		{0, 0, models.UnknownPercent()},
		{-5, 0, models.UnknownPercent()},
		{10, math.Inf(-1), models.UnknownPercent()},
		{25, 200, models.KnownPercent(12.5)},
		{2, 3, models.KnownPercent(66.67)},
	}

	for _, tc := range tests {
		got := PctOfCost(tc.pnl, tc.cost)
		if got != tc.want {
			t.Errorf("PctOfCost(%v, %v) = %+v, want %+v", tc.pnl, tc.cost, got, tc.want)
		}
	}
	if s := PctOfCost(100, 0).String(); s != "?" {
		t.Errorf("PctOfCost(100, 0).String() = %q, want ?", s)
	}
}
