// Package kiwoom is the adapter for the Kiwoom REST API.
package kiwoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"brokerdash/internal/broker"
)

// DefaultDomain is the production REST endpoint.
const DefaultDomain = "https://api.kiwoom.com"

// API identifiers sent in the api-id header.
const (
	APIBalance   = "kt00018"
	APIStockInfo = "ka10100"
)

// DefaultIndustry is used for holdings Kiwoom reports no industry for, which
// in practice are exchange-traded funds.
const DefaultIndustry = "ETF"

var apiPaths = map[string]string{
	APIBalance:   "/api/dostk/acnt",
	APIStockInfo: "/api/dostk/stkinfo",
}

// Client calls the Kiwoom REST API for one credential set.
type Client struct {
	domain    string
	account   broker.Account
	transport *broker.Transport
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default 30s-timeout HTTP client.
func WithHTTPClient(d broker.Doer) Option {
	return func(c *Client) { c.transport.Client = d }
}

// WithRateLimit replaces the default outbound limiter.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *Client) { c.transport.Limiter = l }
}

// WithAccount sets the account number and product code sent with balance
// requests. Without one, Kiwoom answers for the account bound to the token.
func WithAccount(acct broker.Account) Option {
	return func(c *Client) { c.account = acct }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.With("component", "kiwoom")
		}
	}
}

// NewClient creates a Kiwoom client. An empty domain selects DefaultDomain.
func NewClient(domain string, creds broker.Credentials, tokens broker.TokenProvider, opts ...Option) *Client {
	if domain == "" {
		domain = DefaultDomain
	}
	c := &Client{
		domain: strings.TrimRight(domain, "/"),
		transport: &broker.Transport{
			Client:          broker.NewHTTPClient(broker.DefaultTimeout),
			Tokens:          tokens,
			CredentialSetID: creds.ID,
			Limiter:         rate.NewLimiter(5, 2),
		},
		logger: slog.Default().With("component", "kiwoom"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.transport.Logger = c.logger
	return c
}

// BuildRequest builds a Kiwoom POST request. It performs no I/O.
func BuildRequest(ctx context.Context, domain, apiID string, body any, token string) (*http.Request, error) {
	path, ok := apiPaths[apiID]
	if !ok {
		return nil, &broker.InvalidRequestError{Operation: apiID, Reason: "unknown api-id"}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, &broker.InvalidRequestError{Operation: apiID, Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, domain+path, bytes.NewReader(data))
	if err != nil {
		return nil, &broker.InvalidRequestError{Operation: apiID, Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("api-id", apiID)
	return req, nil
}

// call posts body to apiID and decodes the response into out, which must
// embed Status.
func (c *Client) call(ctx context.Context, apiID string, body any, out interface{ status() Status }) error {
	resp, err := c.transport.Send(ctx, func(ctx context.Context, tok string) (*http.Request, error) {
		return BuildRequest(ctx, c.domain, apiID, body, tok)
	})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &broker.UpstreamError{Operation: apiID, Status: resp.Status, Message: string(resp.Body)}
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &broker.UpstreamError{Operation: apiID, Status: resp.Status, Message: fmt.Sprintf("malformed response: %v", err)}
	}
	if st := out.status(); st.ReturnCode != 0 {
		return &broker.UpstreamError{
			Operation: apiID,
			Status:    resp.Status,
			Code:      strconv.Itoa(st.ReturnCode),
			Message:   st.ReturnMsg,
		}
	}
	return nil
}

func (s Status) status() Status { return s }

// BalanceQuery selects how kt00018 aggregates holdings.
type BalanceQuery struct {
	QueryType string // "1" combined, "2" per lot
	Exchange  string // "KRX" or "NXT"
}

// FetchBalance returns the account evaluation balance with each holding's
// industry name. A failed industry lookup leaves Industry empty.
func (c *Client) FetchBalance(ctx context.Context, q BalanceQuery) (*BalanceResponse, error) {
	if q.QueryType == "" {
		q.QueryType = "1"
	}
	if q.Exchange == "" {
		q.Exchange = "KRX"
	}
	if q.QueryType != "1" && q.QueryType != "2" {
		return nil, &broker.InvalidRequestError{Operation: APIBalance, Field: "qry_tp", Reason: "expected 1 or 2 for"}
	}
	if q.Exchange != "KRX" && q.Exchange != "NXT" {
		return nil, &broker.InvalidRequestError{Operation: APIBalance, Field: "dmst_stex_tp", Reason: "expected KRX or NXT for"}
	}

	var out BalanceResponse
	body := map[string]string{"qry_tp": q.QueryType, "dmst_stex_tp": q.Exchange}
	if c.account.Number != "" {
		body["cano"] = c.account.Number
		body["acntPrdtCd"] = c.account.ProductCode
	}
	if err := c.call(ctx, APIBalance, body, &out); err != nil {
		return nil, err
	}

	for i := range out.Positions {
		p := &out.Positions[i]
		info, err := c.StockInfo(ctx, p.Code)
		if err != nil {
			c.logger.Warn("industry lookup failed", "code", p.Code, "error", err)
			p.Industry = ""
			continue
		}
		p.Industry = info.Industry
		if p.Industry == "" {
			p.Industry = DefaultIndustry
		}
	}
	return &out, nil
}

// StockInfo looks up a stock by code. Kiwoom balance codes carry an "A"
// prefix that ka10100 does not accept; it is stripped here.
func (c *Client) StockInfo(ctx context.Context, code string) (*StockInfo, error) {
	code = strings.TrimPrefix(strings.TrimSpace(code), "A")
	if code == "" {
		return nil, &broker.InvalidRequestError{Operation: APIStockInfo, Field: "stk_cd"}
	}
	var out StockInfo
	if err := c.call(ctx, APIStockInfo, map[string]string{"stk_cd": code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
