package kis

import (
	"bytes"
	"encoding/json"
	"fmt"

	"brokerdash/internal/broker"
)

// Envelope is the common KIS response shape. Output blocks stay raw because
// their shape differs per operation: output1 is usually a row list and
// output2 is an object or a one-element list.
type Envelope struct {
	RtCd  string `json:"rt_cd"`
	MsgCd string `json:"msg_cd"`
	Msg1  string `json:"msg1"`

	CtxAreaFK100 string `json:"ctx_area_fk100,omitempty"`
	CtxAreaNK100 string `json:"ctx_area_nk100,omitempty"`
	CtxAreaFK200 string `json:"ctx_area_fk200,omitempty"`
	CtxAreaNK200 string `json:"ctx_area_nk200,omitempty"`

	Output1 json.RawMessage `json:"output1,omitempty"`
	Output2 json.RawMessage `json:"output2,omitempty"`
}

// Succeeded reports whether the business status block signals success.
// Responses without an rt_cd are treated as successful.
func (e *Envelope) Succeeded() bool {
	return e.RtCd == "" || e.RtCd == "0"
}

func (e *Envelope) cursor(width int) (fk, nk string) {
	if width == 200 {
		return e.CtxAreaFK200, e.CtxAreaNK200
	}
	return e.CtxAreaFK100, e.CtxAreaNK100
}

// DecodeRows decodes a row-list output block. An absent or null block yields
// no rows.
func DecodeRows[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '{' {
		var one T
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, fmt.Errorf("decoding row: %w", err)
		}
		return []T{one}, nil
	}
	var rows []T
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decoding rows: %w", err)
	}
	return rows, nil
}

// DecodeSummary decodes an output block that is either an object or a list
// whose first element is the summary. An empty block yields the zero value.
func DecodeSummary[T any](raw json.RawMessage) (T, error) {
	var out T
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}
	if raw[0] == '[' {
		var list []T
		if err := json.Unmarshal(raw, &list); err != nil {
			return out, fmt.Errorf("decoding summary: %w", err)
		}
		if len(list) > 0 {
			out = list[0]
		}
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decoding summary: %w", err)
	}
	return out, nil
}

// StockPosition is one row of the domestic stock balance (TTTC8434R output1).
type StockPosition struct {
	Symbol         string `json:"pdno"`
	Name           string `json:"prdt_name"`
	TradeType      string `json:"trad_dvsn_name"`
	Quantity       string `json:"hldg_qty"`
	AvgPrice       string `json:"pchs_avg_pric"`
	CurrentPrice   string `json:"prpr"`
	PurchaseAmount string `json:"pchs_amt"`
	EvalAmount     string `json:"evlu_amt"`
	PnlAmount      string `json:"evlu_pfls_amt"`
	PnlRate        string `json:"evlu_pfls_rt"`
}

// Brokerage implements the normalizer's row tag.
func (StockPosition) Brokerage() broker.Kind { return broker.KindKIS }

// StockBalanceSummary is TTTC8434R output2[0].
type StockBalanceSummary struct {
	TotalEvalAmount     string `json:"tot_evlu_amt"`
	PnlAmountTotal      string `json:"evlu_pfls_smtl_amt"`
	PurchaseAmountTotal string `json:"pchs_amt_smtl_amt"`
	Deposit             string `json:"dnca_tot_amt"`
	NetAsset            string `json:"nass_amt"`
}

// FuturesPosition is one row of the futures/options balance (CTFO6118R
// output1). Divergence is filled in from the price quote after decoding.
type FuturesPosition struct {
	Symbol         string `json:"shtn_pdno"`
	Name           string `json:"prdt_name"`
	Side           string `json:"sll_buy_dvsn_name"`
	Quantity       string `json:"cblc_qty"`
	AvgPrice       string `json:"ccld_avg_unpr1"`
	SettlePrice    string `json:"idx_clpr"`
	PurchaseAmount string `json:"pchs_amt"`
	EvalAmount     string `json:"evlu_amt"`
	PnlAmount      string `json:"evlu_pfls_amt"`
	Divergence     string `json:"divergence"`
}

func (FuturesPosition) Brokerage() broker.Kind { return broker.KindKIS }

// FuturesBalanceSummary is CTFO6118R output2.
type FuturesBalanceSummary struct {
	EstimatedDeposit       string `json:"prsm_dpast"`
	EstimatedDepositAmount string `json:"prsm_dpast_amt"`
	PnlAmountTotal         string `json:"evlu_pfls_amt_smtl"`
	PurchaseAmountTotal    string `json:"pchs_amt_smtl"`
}

// OverseasPosition is one row of the overseas stock balance (TTTS3012R output1).
type OverseasPosition struct {
	Symbol         string `json:"ovrs_pdno"`
	Name           string `json:"ovrs_item_name"`
	PnlAmount      string `json:"frcr_evlu_pfls_amt"`
	PnlRate        string `json:"evlu_pfls_rt"`
	AvgPrice       string `json:"pchs_avg_pric"`
	Quantity       string `json:"ovrs_cblc_qty"`
	OrderableQty   string `json:"ord_psbl_qty"`
	PurchaseAmount string `json:"frcr_pchs_amt1"`
	EvalAmount     string `json:"ovrs_stck_evlu_amt"`
	CurrentPrice   string `json:"now_pric2"`
	Currency       string `json:"tr_crcy_cd"`
	Exchange       string `json:"ovrs_excg_cd"`
}

func (OverseasPosition) Brokerage() broker.Kind { return broker.KindKIS }

// OverseasBalanceSummary is TTTS3012R output2.
type OverseasBalanceSummary struct {
	PurchaseAmountTotal string `json:"frcr_pchs_amt1"`
	RealizedPnl         string `json:"ovrs_rlzt_pfls_amt"`
	TotalPnl            string `json:"ovrs_tot_pfls"`
	RealizedReturnRate  string `json:"rlzt_erng_rt"`
	PnlAmountTotal      string `json:"tot_evlu_pfls_amt"`
	ReturnRate          string `json:"tot_pftrt"`
}

// StockOrder is one row of the daily stock order history (TTTC0081R output1).
type StockOrder struct {
	OrderNo      string `json:"odno"`
	OrderDate    string `json:"ord_dt"`
	OrderTime    string `json:"ord_tmd"`
	Name         string `json:"prdt_name"`
	Side         string `json:"sll_buy_dvsn_cd_name"`
	OrderQty     string `json:"ord_qty"`
	FilledQty    string `json:"tot_ccld_qty"`
	OrderPrice   string `json:"ord_unpr"`
	AvgFillPrice string `json:"avg_prvs"`
	FilledAmount string `json:"tot_ccld_amt"`
}

func (StockOrder) Brokerage() broker.Kind { return broker.KindKIS }

// StockOrderSummary is TTTC0081R output2.
type StockOrderSummary struct {
	OrderQtyTotal  string `json:"tot_ord_qty"`
	FilledQtyTotal string `json:"tot_ccld_qty"`
	FilledAmount   string `json:"tot_ccld_amt"`
}

// FuturesOrder is one row of the daily futures order history (TTTO5201R output1).
type FuturesOrder struct {
	OrderNo      string `json:"odno"`
	OrderDate    string `json:"ord_dt"`
	Name         string `json:"prdt_name"`
	Side         string `json:"trad_dvsn_name"`
	OrderQty     string `json:"ord_qty"`
	FilledQty    string `json:"tot_ccld_qty"`
	OrderPrice   string `json:"ord_idx"`
	AvgFillPrice string `json:"avg_idx"`
	FilledAmount string `json:"tot_ccld_amt"`
}

func (FuturesOrder) Brokerage() broker.Kind { return broker.KindKIS }

// FuturesOrderSummary is TTTO5201R output2.
type FuturesOrderSummary struct {
	OrderQtyTotal  string `json:"tot_ord_qty"`
	FilledQtyTotal string `json:"tot_ccld_qty_smtl"`
	FilledAmount   string `json:"tot_ccld_amt_smtl"`
}

// FuturesQuote is the subset of FHMIF10000000 output1 the dashboard uses.
type FuturesQuote struct {
	Name          string `json:"hts_kor_isnm"`
	Price         string `json:"futs_prpr"`
	Change        string `json:"futs_prdy_vrss"`
	ChangeRate    string `json:"futs_prdy_ctrt"`
	PrevClose     string `json:"futs_prdy_clpr"`
	Basis         string `json:"basis"`
	MarketBasis   string `json:"mrkt_basis"`
	TheoreticalPx string `json:"hts_thpr"`
	Divergence    string `json:"dprt"`
}

// StockPnlRow is one row of the stock period trade profit (TTTC8715R output1).
type StockPnlRow struct {
	TradeDate   string `json:"trad_dt"`
	Symbol      string `json:"pdno"`
	Name        string `json:"prdt_name"`
	TradeType   string `json:"trad_dvsn_name"`
	BuyAmount   string `json:"buy_amt"`
	SellAmount  string `json:"sll_amt"`
	RealizedPnl string `json:"rlzt_pfls"`
	PnlRate     string `json:"pfls_rt"`
	Fee         string `json:"fee"`
	Tax         string `json:"tl_tax"`
}

// StockPnlSummary is TTTC8715R output2.
type StockPnlSummary struct {
	TotalRealizedPnl string `json:"tot_rlzt_pfls"`
	TotalFee         string `json:"tot_fee"`
	TotalTax         string `json:"tot_tltx"`
	ReturnRate       string `json:"tot_pftrt"`
}

// FuturesPnlRow is one row of the futures daily amount/fee inquiry
// (CTFO6119R output1).
type FuturesPnlRow struct {
	OrderDate  string `json:"ord_dt"`
	Symbol     string `json:"pdno"`
	Name       string `json:"item_name"`
	SellAmount string `json:"sll_agrm_amt"`
	BuyAmount  string `json:"buy_agrm_amt"`
	FeeTotal   string `json:"tot_fee_smtl"`
	TradePnl   string `json:"trad_pfls"`
}

// FuturesPnlSummary is CTFO6119R output2.
type FuturesPnlSummary struct {
	FeeTotal      string `json:"fee_smtl"`
	TradePnlTotal string `json:"trad_pfls_smtl"`
}
