// Package broker holds the types shared by the brokerage adapters.
package broker

import (
	"context"
	"net/http"
	"time"
)

// KST is the fixed UTC+9 zone the Korean brokerages report timestamps in.
var KST = time.FixedZone("KST", 9*60*60)

// Kind identifies a brokerage backend.
type Kind string

const (
	KindKIS    Kind = "kis"
	KindKiwoom Kind = "kiwoom"
	KindLS     Kind = "ls"
)

// Credentials is the credential set used to talk to one brokerage account.
// ID keys the token cache, so two adapters sharing an ID share a token.
type Credentials struct {
	ID        string
	AppKey    string
	AppSecret string
	SecretID  string // secret-store identifier holding the cached token
}

// Account identifies a brokerage account: the 8-digit account number and the
// 2-digit product code.
type Account struct {
	Number      string
	ProductCode string
}

// TokenProvider returns a valid access token for a credential set.
type TokenProvider interface {
	AccessToken(ctx context.Context, credentialSetID string) (string, error)
}

// TokenInvalidator is implemented by token providers that can drop a cached
// token, used when the brokerage rejects it before its recorded expiry.
type TokenInvalidator interface {
	Invalidate(credentialSetID string)
}

// Doer is the subset of *http.Client used by the adapters.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}
