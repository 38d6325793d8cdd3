// Package kis is the adapter for the KIS (Korea Investment & Securities)
// open trading API.
package kis

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"brokerdash/internal/broker"
)

// Operation names a logical KIS call.
type Operation string

const (
	OpBalance          Operation = "balance"
	OpFuturesBalance   Operation = "futures-balance"
	OpOverseasBalance  Operation = "overseas-balance"
	OpDailyOrders      Operation = "daily-orders"
	OpFuturesOrders    Operation = "futures-orders"
	OpFuturesPrice     Operation = "futures-price"
	OpStockPeriodPnl   Operation = "stock-period-pnl"
	OpFuturesPeriodPnl Operation = "futures-period-pnl"
)

// Logical parameter names accepted by BuildRequest.
const (
	ParamAccount     = "account"
	ParamProductCode = "product_code"
	ParamStartDate   = "start_date"
	ParamEndDate     = "end_date"
	ParamExchange    = "exchange"
	ParamCurrency    = "currency"
	ParamSymbol      = "symbol"
)

// Params carries the caller-supplied values for an operation, keyed by the
// logical names above.
type Params map[string]string

// AccountParams returns Params for an account-scoped operation.
func AccountParams(acct broker.Account) Params {
	return Params{ParamAccount: acct.Number, ParamProductCode: acct.ProductCode}
}

// Cursor is the continuation state carried between pages. Flag is sent as the
// tr_cont request header and is empty on the first page.
type Cursor struct {
	FK   string
	NK   string
	Flag string
}

type param struct {
	name     string // logical name; empty for fixed values
	query    string
	required bool
	date     bool
	value    string // default, or the fixed value when name is empty
}

type endpoint struct {
	path        string
	trID        string
	params      []param
	cursorWidth int // 0, 100 or 200
	paginated   bool
}

var accountParams = []param{
	{name: ParamAccount, query: "CANO", required: true},
	{name: ParamProductCode, query: "ACNT_PRDT_CD", required: true},
}

func withAccount(rest ...param) []param {
	return append(append([]param{}, accountParams...), rest...)
}

var operations = map[Operation]endpoint{
	OpBalance: {
		path: "/uapi/domestic-stock/v1/trading/inquire-balance",
		trID: "TTTC8434R",
		params: withAccount(
			param{query: "AFHR_FLPR_YN", value: "N"},
			param{query: "OFL_YN", value: ""},
			param{query: "INQR_DVSN", value: "02"},
			param{query: "UNPR_DVSN", value: "01"},
			param{query: "FUND_STTL_ICLD_YN", value: "N"},
			param{query: "FNCG_AMT_AUTO_RDPT_YN", value: "N"},
			param{query: "PRCS_DVSN", value: "00"},
		),
		cursorWidth: 100,
	},
	OpFuturesBalance: {
		path: "/uapi/domestic-futureoption/v1/trading/inquire-balance",
		trID: "CTFO6118R",
		params: withAccount(
			param{name: "margin_division", query: "MGNA_DVSN", value: "01"},
			param{name: "settlement_status", query: "EXCC_STAT_CD", value: "2"},
		),
		cursorWidth: 200,
	},
	OpOverseasBalance: {
		path: "/uapi/overseas-stock/v1/trading/inquire-balance",
		trID: "TTTS3012R",
		params: withAccount(
			param{name: ParamExchange, query: "OVRS_EXCG_CD", required: true},
			param{name: ParamCurrency, query: "TR_CRCY_CD", required: true},
		),
		cursorWidth: 200,
	},
	OpDailyOrders: {
		path: "/uapi/domestic-stock/v1/trading/inquire-daily-ccld",
		trID: "TTTC0081R",
		params: withAccount(
			param{name: ParamStartDate, query: "INQR_STRT_DT", required: true, date: true},
			param{name: ParamEndDate, query: "INQR_END_DT", required: true, date: true},
			param{query: "SLL_BUY_DVSN_CD", value: "00"},
			param{query: "PDNO", value: ""},
			param{query: "ORD_GNO_BRNO", value: ""},
			param{query: "ODNO", value: ""},
			param{query: "CCLD_DVSN", value: "00"},
			param{query: "INQR_DVSN", value: "00"},
			param{query: "INQR_DVSN_1", value: ""},
			param{query: "INQR_DVSN_3", value: "00"},
			param{query: "EXCG_ID_DVSN_CD", value: "KRX"},
		),
		cursorWidth: 100,
		paginated:   true,
	},
	OpFuturesOrders: {
		path: "/uapi/domestic-futureoption/v1/trading/inquire-ccnl",
		trID: "TTTO5201R",
		params: withAccount(
			param{name: ParamStartDate, query: "STRT_ORD_DT", required: true, date: true},
			param{name: ParamEndDate, query: "END_ORD_DT", required: true, date: true},
			param{query: "SLL_BUY_DVSN_CD", value: "00"},
			param{query: "CCLD_NCCS_DVSN", value: "00"},
			param{query: "SORT_SQN", value: "DS"},
			param{query: "STRT_ODNO", value: ""},
			param{query: "PDNO", value: ""},
			param{query: "MKET_ID_CD", value: ""},
		),
		cursorWidth: 200,
		paginated:   true,
	},
	OpFuturesPrice: {
		path: "/uapi/domestic-futureoption/v1/quotations/inquire-price",
		trID: "FHMIF10000000",
		params: []param{
			{query: "FID_COND_MRKT_DIV_CODE", value: "JF"},
			{name: ParamSymbol, query: "FID_INPUT_ISCD", required: true},
		},
	},
	OpStockPeriodPnl: {
		path: "/uapi/domestic-stock/v1/trading/inquire-period-trade-profit",
		trID: "TTTC8715R",
		params: withAccount(
			param{name: ParamStartDate, query: "INQR_STRT_DT", required: true, date: true},
			param{name: ParamEndDate, query: "INQR_END_DT", required: true, date: true},
			param{name: ParamSymbol, query: "PDNO", value: ""},
			param{query: "SORT_DVSN", value: "00"},
			param{query: "CBLC_DVSN", value: "00"},
		),
		cursorWidth: 100,
		paginated:   true,
	},
	OpFuturesPeriodPnl: {
		path: "/uapi/domestic-futureoption/v1/trading/inquire-daily-amount-fee",
		trID: "CTFO6119R",
		params: withAccount(
			param{name: ParamStartDate, query: "INQR_STRT_DAY", required: true, date: true},
			param{name: ParamEndDate, query: "INQR_END_DAY", required: true, date: true},
		),
		cursorWidth: 200,
		paginated:   true,
	},
}

// Paginated reports whether op is fetched with the continuation loop.
func Paginated(op Operation) bool {
	return operations[op].paginated
}

// TrID returns the transaction identifier KIS expects for op.
func TrID(op Operation) string {
	return operations[op].trID
}

// BuildRequest builds the HTTP request for one page of op. It performs no
// I/O. A missing or malformed parameter yields an InvalidRequestError.
func BuildRequest(ctx context.Context, domain string, op Operation, params Params, cursor Cursor, token string, creds broker.Credentials) (*http.Request, error) {
	ep, ok := operations[op]
	if !ok {
		return nil, &broker.InvalidRequestError{Operation: string(op), Reason: "unknown operation"}
	}

	q, err := ep.query(op, params)
	if err != nil {
		return nil, err
	}
	if ep.cursorWidth > 0 {
		fk, nk := cursorKeys(ep.cursorWidth)
		q.Set(fk, cursor.FK)
		q.Set(nk, cursor.NK)
	}

	u := strings.TrimRight(domain, "/") + ep.path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &broker.InvalidRequestError{Operation: string(op), Reason: err.Error()}
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("appkey", creds.AppKey)
	req.Header.Set("appsecret", creds.AppSecret)
	req.Header.Set("tr_id", ep.trID)
	req.Header.Set("custtype", "P")
	if ep.paginated {
		req.Header.Set("tr_cont", cursor.Flag)
	}
	return req, nil
}

func (s endpoint) query(op Operation, params Params) (url.Values, error) {
	q := url.Values{}
	for _, p := range s.params {
		v := p.value
		if p.name != "" {
			if given, ok := params[p.name]; ok && strings.TrimSpace(given) != "" {
				v = strings.TrimSpace(given)
			}
		}
		if p.required && v == "" {
			return nil, &broker.InvalidRequestError{Operation: string(op), Field: p.name}
		}
		if p.date {
			if _, err := time.Parse("20060102", v); err != nil {
				return nil, &broker.InvalidRequestError{Operation: string(op), Field: p.name, Reason: "expected YYYYMMDD for"}
			}
		}
		q.Set(p.query, v)
	}
	return q, nil
}

func cursorKeys(width int) (fk, nk string) {
	if width == 200 {
		return "CTX_AREA_FK200", "CTX_AREA_NK200"
	}
	return "CTX_AREA_FK100", "CTX_AREA_NK100"
}
