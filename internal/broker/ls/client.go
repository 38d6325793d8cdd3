// Package ls is the adapter for the LS Securities open API.
package ls

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"brokerdash/internal/broker"
)

const (
	// TrBalance is the stock balance transaction code.
	TrBalance = "t0424"

	successCode = "00000"

	// DefaultMaxPages bounds the t0424 continuation loop.
	DefaultMaxPages = 20
)

var trPaths = map[string]string{
	TrBalance: "/stock/accno",
}

// Client calls the LS open API for one credential set.
type Client struct {
	domain    string
	transport *broker.Transport
	maxPages  int
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

// WithMaxPages sets the continuation guard.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.With("component", "ls")
		}
	}
}

// NewClient creates an LS client.
func NewClient(domain string, creds broker.Credentials, tokens broker.TokenProvider, opts ...Option) *Client {
	c := &Client{
		domain: strings.TrimRight(domain, "/"),
		transport: &broker.Transport{
			Client:          broker.NewHTTPClient(broker.DefaultTimeout),
			Tokens:          tokens,
			CredentialSetID: creds.ID,
			// t0424 is limited to one call per second.
			Limiter: rate.NewLimiter(1, 1),
		},
		maxPages: DefaultMaxPages,
		logger:   slog.Default().With("component", "ls"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.transport.Logger = c.logger
	return c
}

// Continuation is the LS header-level continuation state.
type Continuation struct {
	More bool
	Key  string
}

// BuildRequest builds an LS POST request. It performs no I/O.
func BuildRequest(ctx context.Context, domain, trCode string, body any, cont Continuation, token string) (*http.Request, error) {
	path, ok := trPaths[trCode]
	if !ok {
		return nil, &broker.InvalidRequestError{Operation: trCode, Reason: "unknown tr_cd"}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, &broker.InvalidRequestError{Operation: trCode, Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, domain+path, bytes.NewReader(data))
	if err != nil {
		return nil, &broker.InvalidRequestError{Operation: trCode, Reason: err.Error()}
	}
	flag := "N"
	if cont.More {
		flag = "Y"
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("tr_cd", trCode)
	req.Header.Set("tr_cont", flag)
	req.Header.Set("tr_cont_key", cont.Key)
	return req, nil
}

// FetchBalance returns the t0424 stock balance, following continuation until
// every holding is read. The summary is taken from the last page.
func (c *Client) FetchBalance(ctx context.Context, in BalanceInBlock) (*BalanceResponse, error) {
	var (
		cont   Continuation
		result *BalanceResponse
	)
	for page := 1; ; page++ {
		body := balanceRequest{InBlock: in}
		resp, err := c.transport.Send(ctx, func(ctx context.Context, tok string) (*http.Request, error) {
			return BuildRequest(ctx, c.domain, TrBalance, body, cont, tok)
		})
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			if page == 1 {
				return nil, &broker.UpstreamError{Operation: TrBalance, Status: resp.Status, Message: string(resp.Body)}
			}
			return nil, &broker.PageFetchError{Operation: TrBalance, Page: page, Status: resp.Status, Body: string(resp.Body)}
		}

		var out BalanceResponse
		if err := json.Unmarshal(resp.Body, &out); err != nil {
			return nil, &broker.UpstreamError{Operation: TrBalance, Status: resp.Status, Message: fmt.Sprintf("malformed response: %v", err)}
		}
		if out.RspCd != successCode {
			return nil, &broker.UpstreamError{Operation: TrBalance, Status: resp.Status, Code: out.RspCd, Message: out.RspMsg}
		}

		if result == nil {
			result = &out
		} else {
			result.Positions = append(result.Positions, out.Positions...)
			result.Summary = out.Summary
			result.RspMsg = out.RspMsg
		}

		more := strings.TrimSpace(resp.Header.Get("tr_cont")) == "Y" && strings.TrimSpace(out.Summary.Cursor) != ""
		if !more {
			return result, nil
		}
		if page >= c.maxPages {
			return nil, &broker.PaginationLimitExceeded{Operation: TrBalance, Limit: c.maxPages}
		}
		cont = Continuation{More: true, Key: strings.TrimSpace(resp.Header.Get("tr_cont_key"))}
		in.Cursor = strings.TrimSpace(out.Summary.Cursor)
	}
}
