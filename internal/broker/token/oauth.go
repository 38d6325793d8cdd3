package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"brokerdash/internal/broker"
)

const (
	// expiryMargin is subtracted from expires_in so a token is refreshed an
	// hour before the brokerage stops accepting it.
	expiryMargin = time.Hour

	defaultHTTPTimeout = 30 * time.Second
)

// KISOAuth exchanges KIS client credentials at {domain}/oauth2/tokenP.
type KISOAuth struct {
	Client    broker.Doer
	Domain    string
	AppKey    string
	AppSecret string
	Now       func() time.Time
}

type kisTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	// access_token_token_expired is informational; expiry is derived from expires_in.
	ExpiredAt string `json:"access_token_token_expired"`
}

// Name implements Source.
func (o *KISOAuth) Name() string { return "kis oauth" }

// Fetch implements Source.
func (o *KISOAuth) Fetch(ctx context.Context) (Token, error) {
	status, body, err := postJSON(ctx, o.Client, o.Domain+"/oauth2/tokenP", map[string]string{
		"grant_type": "client_credentials",
		"appkey":     o.AppKey,
		"appsecret":  o.AppSecret,
	})
	if err != nil {
		return Token{}, &broker.TokenAcquisitionError{Source: o.Name(), Err: err}
	}
	if status < 200 || status > 299 {
		return Token{}, &broker.TokenAcquisitionError{Source: o.Name(), Status: status, Body: string(body)}
	}

	var resp kisTokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Token{}, &broker.TokenAcquisitionError{Source: o.Name(), Status: status, Body: string(body), Err: err}
	}
	if resp.AccessToken == "" || resp.ExpiresIn == 0 {
		return Token{}, &broker.TokenAcquisitionError{Source: o.Name(), Status: status, Body: string(body)}
	}

	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	return Token{
		Value:     resp.AccessToken,
		ExpiresAt: now().Add(time.Duration(resp.ExpiresIn)*time.Second - expiryMargin),
	}, nil
}

// KiwoomOAuth exchanges Kiwoom client credentials at {domain}/oauth2/token.
type KiwoomOAuth struct {
	Client    broker.Doer
	Domain    string
	AppKey    string
	SecretKey string
}

type kiwoomTokenResponse struct {
	ExpiresDt  string `json:"expires_dt"`
	TokenType  string `json:"token_type"`
	Token      string `json:"token"`
	ReturnCode int    `json:"return_code"`
	ReturnMsg  string `json:"return_msg"`
}

// Name implements Source.
func (o *KiwoomOAuth) Name() string { return "kiwoom oauth" }

// Fetch implements Source.
func (o *KiwoomOAuth) Fetch(ctx context.Context) (Token, error) {
	status, body, err := postJSON(ctx, o.Client, o.Domain+"/oauth2/token", map[string]string{
		"grant_type": "client_credentials",
		"appkey":     o.AppKey,
		"secretkey":  o.SecretKey,
	})
	if err != nil {
		return Token{}, &broker.TokenAcquisitionError{Source: o.Name(), Err: err}
	}
	if status < 200 || status > 299 {
		return Token{}, &broker.TokenAcquisitionError{Source: o.Name(), Status: status, Body: string(body)}
	}

	var resp kiwoomTokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Token{}, &broker.TokenAcquisitionError{Source: o.Name(), Status: status, Body: string(body), Err: err}
	}
	if resp.ReturnCode != 0 || resp.Token == "" {
		return Token{}, &broker.TokenAcquisitionError{Source: o.Name(), Status: status, Body: string(body)}
	}

	expiresAt, err := ParseExpiry(resp.ExpiresDt, KiwoomExpiryLayout)
	if err != nil {
		return Token{}, &broker.TokenAcquisitionError{Source: o.Name(), Status: status, Body: string(body), Err: err}
	}
	return Token{Value: resp.Token, ExpiresAt: expiresAt}, nil
}

func postJSON(ctx context.Context, client broker.Doer, url string, payload any) (int, []byte, error) {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encoding token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading token response: %w", err)
	}
	return resp.StatusCode, body, nil
}
