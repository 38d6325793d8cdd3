package ls

import "brokerdash/internal/broker"

// BalanceInBlock is the t0424 request block.
type BalanceInBlock struct {
	PriceType   string `json:"prcgb"`       // unit price basis
	SettleType  string `json:"chegb"`       // settlement basis
	SessionType string `json:"dangb"`       // single-price session
	FeeType     string `json:"charge"`      // include fees
	Cursor      string `json:"cts_expcode"` // continuation symbol
}

type balanceRequest struct {
	InBlock BalanceInBlock `json:"t0424InBlock"`
}

// BalanceResponse is the t0424 stock balance. Numeric fields usually arrive
// as JSON numbers but are decoded leniently.
type BalanceResponse struct {
	RspCd     string         `json:"rsp_cd"`
	RspMsg    string         `json:"rsp_msg"`
	Summary   BalanceSummary `json:"t0424OutBlock"`
	Positions []Position     `json:"t0424OutBlock1"`
}

// BalanceSummary is t0424OutBlock.
type BalanceSummary struct {
	RealizedPnl     broker.FlexibleFloat `json:"dtsunik"`
	PurchaseAmount  broker.FlexibleFloat `json:"mamt"`
	EstimatedD2Cash broker.FlexibleFloat `json:"sunamt1"`
	EvalAmount      broker.FlexibleFloat `json:"tappamt"`
	EstimatedAsset  broker.FlexibleFloat `json:"sunamt"`
	EvalPnl         broker.FlexibleFloat `json:"tdtsunik"`
	Cursor          string               `json:"cts_expcode"`
}

// Position is one row of t0424OutBlock1.
type Position struct {
	Name           string               `json:"hname"`
	Code           string               `json:"expcode"`
	Quantity       broker.FlexibleFloat `json:"janqty"`
	SellableQty    broker.FlexibleFloat `json:"mdposqt"`
	AvgPrice       broker.FlexibleFloat `json:"pamt"`
	CurrentPrice   broker.FlexibleFloat `json:"price"`
	PurchaseAmount broker.FlexibleFloat `json:"mamt"`
	EvalAmount     broker.FlexibleFloat `json:"appamt"`
	PnlAmount      broker.FlexibleFloat `json:"dtsunik"`
	PnlRate        broker.FlexibleFloat `json:"sunikrt"`
	Weight         broker.FlexibleFloat `json:"janrt"`
	Fee            broker.FlexibleFloat `json:"fee"`
	Tax            broker.FlexibleFloat `json:"tax"`
	Market         string               `json:"marketgb"`
}

// Brokerage implements the normalizer's row tag.
func (Position) Brokerage() broker.Kind { return broker.KindLS }
