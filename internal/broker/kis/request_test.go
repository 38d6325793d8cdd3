package kis

import (
	"context"
	"errors"
	"testing"

	"brokerdash/internal/broker"
)

var testCreds = broker.Credentials{ID: "kis-main", AppKey: "app-key", AppSecret: "app-secret"}

var testAccount = broker.Account{Number: "12345678", ProductCode: "01"}

func TestBuildRequest_Balance(t *testing.T) {
	req, err := BuildRequest(context.Background(), "https://kis.example/", OpBalance, AccountParams(testAccount), Cursor{}, "tok", testCreds)
	if err != nil {
		t.Fatalf("BuildRequest() error = %v", err)
	}

	if req.URL.Path != "/uapi/domestic-stock/v1/trading/inquire-balance" {
		t.Errorf("path = %q, want inquire-balance", req.URL.Path)
	}

	q := req.URL.Query()
	wantQuery := map[string]string{
		"CANO":           "12345678",
		"ACNT_PRDT_CD":   "01",
		"INQR_DVSN":      "02",
		"UNPR_DVSN":      "01",
		"PRCS_DVSN":      "00",
		"CTX_AREA_FK100": "",
		"CTX_AREA_NK100": "",
	}
	for k, want := range wantQuery {
		if _, ok := q[k]; !ok {
			t.Errorf("query %s missing", k)
			continue
		}
		if got := q.Get(k); got != want {
			t.Errorf("query %s = %q, want %q", k, got, want)
		}
	}

	wantHeaders := map[string]string{
		"Content-Type":  "application/json; charset=utf-8",
		"Authorization": "Bearer tok",
		"appkey":        "app-key",
		"appsecret":     "app-secret",
		"tr_id":         "TTTC8434R",
		"custtype":      "P",
	}
	for k, want := range wantHeaders {
		if got := req.Header.Get(k); got != want {
			t.Errorf("header %s = %q, want %q", k, got, want)
		}
	}
	if _, ok := req.Header["Tr_cont"]; ok {
		t.Error("single-page operation should not send tr_cont")
	}
}

func TestBuildRequest_PaginatedCursor(t *testing.T) {
	params := dateParams(testAccount, "20240101", "20240131")
	cursor := Cursor{FK: "fk", NK: "nk", Flag: "N"}

	req, err := BuildRequest(context.Background(), "https://kis.example", OpFuturesOrders, params, cursor, "tok", testCreds)
	if err != nil {
		t.Fatalf("BuildRequest() error = %v", err)
	}

	q := req.URL.Query()
	if q.Get("STRT_ORD_DT") != "20240101" || q.Get("END_ORD_DT") != "20240131" {
		t.Errorf("dates = %q..%q, want 20240101..20240131", q.Get("STRT_ORD_DT"), q.Get("END_ORD_DT"))
	}
	if q.Get("CTX_AREA_FK200") != "fk" || q.Get("CTX_AREA_NK200") != "nk" {
		t.Errorf("cursor = %q/%q, want fk/nk", q.Get("CTX_AREA_FK200"), q.Get("CTX_AREA_NK200"))
	}
	if got := req.Header.Get("tr_cont"); got != "N" {
		t.Errorf("tr_cont = %q, want %q", got, "N")
	}
	if got := req.Header.Get("tr_id"); got != "TTTO5201R" {
		t.Errorf("tr_id = %q, want %q", got, "TTTO5201R")
	}
}

func TestBuildRequest_TransactionIDs(t *testing.T) {
	want := map[Operation]string{
		OpBalance:          "TTTC8434R",
		OpFuturesBalance:   "CTFO6118R",
		OpOverseasBalance:  "TTTS3012R",
		OpDailyOrders:      "TTTC0081R",
		OpFuturesOrders:    "TTTO5201R",
		OpFuturesPrice:     "FHMIF10000000",
		OpStockPeriodPnl:   "TTTC8715R",
		OpFuturesPeriodPnl: "CTFO6119R",
	}
	for op, id := range want {
		if got := TrID(op); got != id {
			t.Errorf("TrID(%s) = %q, want %q", op, got, id)
		}
	}
}

func TestBuildRequest_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		op        Operation
		params    Params
		wantField string
	}{
		{"unknown operation", "transfer", Params{}, ""},
		{"missing account", OpBalance, Params{ParamProductCode: "01"}, ParamAccount},
		{"blank product code", OpBalance, Params{ParamAccount: "1", ParamProductCode: "  "}, ParamProductCode},
		{"missing start date", OpDailyOrders, Params{ParamAccount: "1", ParamProductCode: "01", ParamEndDate: "20240101"}, ParamStartDate},
		{"malformed end date", OpDailyOrders, dateParams(testAccount, "20240101", "2024-01-31"), ParamEndDate},
		{"missing exchange", OpOverseasBalance, AccountParams(testAccount), ParamExchange},
		{"missing symbol", OpFuturesPrice, Params{}, ParamSymbol},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildRequest(context.Background(), "https://kis.example", tc.op, tc.params, Cursor{}, "tok", testCreds)
			var ire *broker.InvalidRequestError
			if !errors.As(err, &ire) {
				t.Fatalf("BuildRequest() error = %v, want InvalidRequestError", err)
			}
			if ire.Field != tc.wantField {
				t.Errorf("Field = %q, want %q", ire.Field, tc.wantField)
			}
		})
	}
}

func TestBuildRequest_OverridableDefaults(t *testing.T) {
	params := AccountParams(testAccount)
	params["settlement_status"] = "1"

	req, err := BuildRequest(context.Background(), "https://kis.example", OpFuturesBalance, params, Cursor{}, "tok", testCreds)
	if err != nil {
		t.Fatalf("BuildRequest() error = %v", err)
	}
	if got := req.URL.Query().Get("EXCC_STAT_CD"); got != "1" {
		t.Errorf("EXCC_STAT_CD = %q, want %q", got, "1")
	}
	if got := req.URL.Query().Get("MGNA_DVSN"); got != "01" {
		t.Errorf("MGNA_DVSN = %q, want %q", got, "01")
	}
}
