package broker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds every outbound brokerage call.
	DefaultTimeout = 30 * time.Second

	defaultAttempts = 3
	defaultBackoff  = 250 * time.Millisecond
)

// NewHTTPClient returns an http.Client with the given timeout, falling back
// to DefaultTimeout for non-positive values.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Response is a fully read brokerage response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status <= 299
}

// RequestBuilder builds one outbound request using the given access token.
// It is called again for every transport retry so request bodies are fresh.
type RequestBuilder func(ctx context.Context, token string) (*http.Request, error)

// Transport sends authenticated requests for one credential set. It throttles
// with a token-bucket limiter and retries transport errors (no response
// received). Non-2xx responses are returned to the caller as-is.
type Transport struct {
	Client          Doer
	Tokens          TokenProvider
	CredentialSetID string
	Limiter         *rate.Limiter
	Attempts        int
	Backoff         time.Duration
	Logger          *slog.Logger
}

// Send obtains a token, builds the request and sends it.
func (t *Transport) Send(ctx context.Context, build RequestBuilder) (*Response, error) {
	tok, err := t.Tokens.AccessToken(ctx, t.CredentialSetID)
	if err != nil {
		return nil, err
	}

	client := t.Client
	if client == nil {
		client = NewHTTPClient(DefaultTimeout)
	}
	attempts := t.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	backoff := t.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	var resp *Response
	err = Retry(ctx, attempts, backoff, func() (bool, error) {
		if t.Limiter != nil {
			if err := t.Limiter.Wait(ctx); err != nil {
				return false, err
			}
		}

		req, err := build(ctx, tok)
		if err != nil {
			return false, err
		}

		httpResp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			t.logger().Warn("brokerage request failed", "url", req.URL.Path, "error", err)
			return true, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return true, fmt.Errorf("reading %s response: %w", req.URL.Path, err)
		}
		resp = &Response{Status: httpResp.StatusCode, Header: httpResp.Header, Body: body}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	if resp.Status == http.StatusUnauthorized {
		if inv, ok := t.Tokens.(TokenInvalidator); ok {
			inv.Invalidate(t.CredentialSetID)
		}
	}
	return resp, nil
}

func (t *Transport) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}
