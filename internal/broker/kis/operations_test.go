package kis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"brokerdash/internal/broker"
)

func TestFetchBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("tr_id"); got != "TTTC8434R" {
			t.Errorf("tr_id = %q, want TTTC8434R", got)
		}
		w.Write([]byte(`{"rt_cd":"0","msg1":"ok",
			"output1":[{"prdt_name":"Samsung","hldg_qty":"10","evlu_pfls_amt":"-1,500"}],
			"output2":[{"tot_evlu_amt":"1,000,000","evlu_pfls_smtl_amt":"-1500","pchs_amt_smtl_amt":"1001500"}]}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv).FetchBalance(context.Background(), testAccount)
	if err != nil {
		t.Fatalf("FetchBalance() error = %v", err)
	}
	if len(res.Positions) != 1 || res.Positions[0].Name != "Samsung" || res.Positions[0].PnlAmount != "-1,500" {
		t.Errorf("Positions = %+v, want one Samsung row", res.Positions)
	}
	if res.Summary.TotalEvalAmount != "1,000,000" {
		t.Errorf("Summary.TotalEvalAmount = %q, want %q", res.Summary.TotalEvalAmount, "1,000,000")
	}
}

func TestFetchBalance_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantCode   string
	}{
		{"http error", http.StatusBadGateway, "bad gateway", http.StatusBadGateway, ""},
		{"business error", http.StatusOK, `{"rt_cd":"1","msg_cd":"OPSQ0002","msg1":"no account"}`, http.StatusOK, "OPSQ0002"},
		{"malformed body", http.StatusOK, `<html>`, http.StatusOK, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv).FetchBalance(context.Background(), testAccount)
			var ue *broker.UpstreamError
			if !errors.As(err, &ue) {
				t.Fatalf("FetchBalance() error = %v, want UpstreamError", err)
			}
			if ue.Status != tc.wantStatus || ue.Code != tc.wantCode {
				t.Errorf("UpstreamError = %+v, want status %d code %q", ue, tc.wantStatus, tc.wantCode)
			}
		})
	}
}

func TestFetchFuturesBalance_Divergence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("tr_id") {
		case "CTFO6118R":
			w.Write([]byte(`{"rt_cd":"0",
				"output1":[{"shtn_pdno":"101V9000","cblc_qty":"1"},{"shtn_pdno":"BROKEN","cblc_qty":"2"},{"shtn_pdno":"EMPTY","cblc_qty":"3"}],
				"output2":{"prsm_dpast":"5000000","evlu_pfls_amt_smtl":"12000","pchs_amt_smtl":"400000"}}`))
		case "FHMIF10000000":
			switch r.URL.Query().Get("FID_INPUT_ISCD") {
			case "101V9000":
				w.Write([]byte(`{"rt_cd":"0","output1":{"dprt":"-0.12","futs_prpr":"350.10"}}`))
			case "EMPTY":
				w.Write([]byte(`{"rt_cd":"0","output1":{"futs_prpr":"1"}}`))
			default:
				w.WriteHeader(http.StatusInternalServerError)
			}
		default:
			t.Errorf("unexpected tr_id %q", r.Header.Get("tr_id"))
		}
	}))
	defer srv.Close()

	res, err := newTestClient(srv).FetchFuturesBalance(context.Background(), testAccount)
	if err != nil {
		t.Fatalf("FetchFuturesBalance() error = %v", err)
	}

	want := []string{"-0.12", "0.00", "0.00"}
	if len(res.Positions) != len(want) {
		t.Fatalf("len(Positions) = %d, want %d", len(res.Positions), len(want))
	}
	for i, p := range res.Positions {
		if p.Divergence != want[i] {
			t.Errorf("Positions[%d].Divergence = %q, want %q", i, p.Divergence, want[i])
		}
	}
	if res.Summary.PurchaseAmountTotal != "400000" {
		t.Errorf("Summary.PurchaseAmountTotal = %q, want %q", res.Summary.PurchaseAmountTotal, "400000")
	}
}

func TestFetchOverseasBalance_SendsExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("OVRS_EXCG_CD") != "NASD" || q.Get("TR_CRCY_CD") != "USD" {
			t.Errorf("exchange/currency = %q/%q, want NASD/USD", q.Get("OVRS_EXCG_CD"), q.Get("TR_CRCY_CD"))
		}
		w.Write([]byte(`{"rt_cd":"0","output1":[{"ovrs_pdno":"AAPL","tr_crcy_cd":"USD"}],"output2":{"tot_pftrt":"3.2"}}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv).FetchOverseasBalance(context.Background(), testAccount, "NASD", "USD")
	if err != nil {
		t.Fatalf("FetchOverseasBalance() error = %v", err)
	}
	if len(res.Positions) != 1 || res.Positions[0].Symbol != "AAPL" || res.Summary.ReturnRate != "3.2" {
		t.Errorf("FetchOverseasBalance() = %+v, want AAPL with 3.2%%", res)
	}
}

func TestFetchFuturesPnl_RowsAndSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("tr_id"); got != "CTFO6119R" {
			t.Errorf("tr_id = %q, want CTFO6119R", got)
		}
		w.Write([]byte(`{"rt_cd":"0",
			"output1":[{"ord_dt":"20240102","trad_pfls":"50000"},{"ord_dt":"20240103","trad_pfls":"-20000"}],
			"output2":{"trad_pfls_smtl":"30000"}}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv).FetchFuturesPnl(context.Background(), testAccount, "20240101", "20240105")
	if err != nil {
		t.Fatalf("FetchFuturesPnl() error = %v", err)
	}
	if len(res.Rows) != 2 || res.Rows[1].OrderDate != "20240103" || res.Summary.TradePnlTotal != "30000" {
		t.Errorf("FetchFuturesPnl() = %+v, want 2 rows and 30000 total", res)
	}
}
