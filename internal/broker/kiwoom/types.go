package kiwoom

import "brokerdash/internal/broker"

// Status is the business status block present on every Kiwoom response.
type Status struct {
	ReturnCode int    `json:"return_code"`
	ReturnMsg  string `json:"return_msg"`
}

// BalanceResponse is the kt00018 account evaluation balance.
type BalanceResponse struct {
	Status
	TotalPurchase  string     `json:"tot_pur_amt"`
	TotalEval      string     `json:"tot_evlt_amt"`
	TotalPnl       string     `json:"tot_evlt_pl"`
	ReturnRate     string     `json:"tot_prft_rt"`
	EstimatedAsset string     `json:"prsm_dpst_aset_amt"`
	Positions      []Position `json:"acnt_evlt_remn_indv_tot"`
}

// Position is one holding in a kt00018 response. Industry is filled in from
// ka10100 after decoding.
type Position struct {
	Code          string `json:"stk_cd"`
	Name          string `json:"stk_nm"`
	PnlAmount     string `json:"evltv_prft"`
	PnlRate       string `json:"prft_rt"`
	Quantity      string `json:"rmnd_qty"`
	PurchasePrice string `json:"pur_pric"`
	CurrentPrice  string `json:"cur_prc"`
	Weight        string `json:"poss_rt"`
	Industry      string `json:"upName"`
}

// Brokerage implements the normalizer's row tag.
func (Position) Brokerage() broker.Kind { return broker.KindKiwoom }

// StockInfo is the subset of a ka10100 response the dashboard uses.
type StockInfo struct {
	Status
	Code     string `json:"code"`
	Name     string `json:"name"`
	Industry string `json:"upName"`
}
