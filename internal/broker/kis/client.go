package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"brokerdash/internal/broker"
)

const (
	// DefaultMaxPages bounds a paginated fetch.
	DefaultMaxPages = 50

	// KIS allows roughly 20 calls per second per app key.
	defaultRate  = 18
	defaultBurst = 5

	maxErrorBody = 512
)

// Client calls the KIS open API for one credential set.
type Client struct {
	domain    string
	creds     broker.Credentials
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

// WithMaxPages sets the pagination guard.
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
			c.logger = l.With("component", "kis")
		}
	}
}

// NewClient creates a KIS client. tokens is shared with every other client
// using the same credential sets.
func NewClient(domain string, creds broker.Credentials, tokens broker.TokenProvider, opts ...Option) *Client {
	c := &Client{
		domain: domain,
		creds:  creds,
		transport: &broker.Transport{
			Client:          broker.NewHTTPClient(broker.DefaultTimeout),
			Tokens:          tokens,
			CredentialSetID: creds.ID,
			Limiter:         rate.NewLimiter(defaultRate, defaultBurst),
		},
		maxPages: DefaultMaxPages,
		logger:   slog.Default().With("component", "kis"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.transport.Logger = c.logger
	return c
}

// Call performs a single-page operation and returns its envelope. A non-2xx
// status or a failing rt_cd yields an UpstreamError.
func (c *Client) Call(ctx context.Context, op Operation, params Params) (*Envelope, error) {
	resp, err := c.send(ctx, op, params, Cursor{})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &broker.UpstreamError{Operation: string(op), Status: resp.Status, Message: truncate(resp.Body)}
	}
	return decodeEnvelope(op, resp)
}

func (c *Client) send(ctx context.Context, op Operation, params Params, cursor Cursor) (*broker.Response, error) {
	// Validate before spending a token lookup.
	if _, err := BuildRequest(ctx, c.domain, op, params, cursor, "", c.creds); err != nil {
		return nil, err
	}
	return c.transport.Send(ctx, func(ctx context.Context, tok string) (*http.Request, error) {
		return BuildRequest(ctx, c.domain, op, params, cursor, tok, c.creds)
	})
}

func decodeEnvelope(op Operation, resp *broker.Response) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, &broker.UpstreamError{
			Operation: string(op),
			Status:    resp.Status,
			Message:   fmt.Sprintf("malformed response: %v", err),
		}
	}
	if !env.Succeeded() {
		return nil, &broker.UpstreamError{
			Operation: string(op),
			Status:    resp.Status,
			Code:      env.MsgCd,
			Message:   env.Msg1,
		}
	}
	return &env, nil
}

func decodeFailure(op Operation, err error) error {
	return &broker.UpstreamError{Operation: string(op), Status: 200, Message: err.Error()}
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
