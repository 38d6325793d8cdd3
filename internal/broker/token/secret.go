package token

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/golang-jwt/jwt/v5"

	"brokerdash/internal/broker"
	"brokerdash/internal/secretstore"
)

// Expiry layouts used by the brokerages' token secrets, read in KST.
const (
	KISExpiryLayout    = "2006-01-02 15:04:05"
	KiwoomExpiryLayout = "20060102150405"
)

// SecretSource reads a token blob that an external job keeps fresh in a
// secret store. The blob is JSON; TokenPath and ExpiryPath are JSONPath
// expressions into it.
type SecretSource struct {
	Store        secretstore.Getter
	SecretID     string
	TokenPath    string
	ExpiryPath   string
	ExpiryLayout string
}

// NewKISSecretSource returns a SecretSource for the KIS token secret format:
// {"access_token": "...", "access_token_token_expired": "YYYY-MM-DD HH:mm:ss"}.
func NewKISSecretSource(store secretstore.Getter, secretID string) *SecretSource {
	return &SecretSource{
		Store:        store,
		SecretID:     secretID,
		TokenPath:    "$.access_token",
		ExpiryPath:   "$.access_token_token_expired",
		ExpiryLayout: KISExpiryLayout,
	}
}

// NewKiwoomSecretSource returns a SecretSource for the Kiwoom token secret
// format: {"token": "...", "expires_dt": "YYYYMMDDHHMMSS"}.
func NewKiwoomSecretSource(store secretstore.Getter, secretID string) *SecretSource {
	return &SecretSource{
		Store:        store,
		SecretID:     secretID,
		TokenPath:    "$.token",
		ExpiryPath:   "$.expires_dt",
		ExpiryLayout: KiwoomExpiryLayout,
	}
}

// Name implements Source.
func (s *SecretSource) Name() string {
	return "secret store " + s.SecretID
}

// Fetch implements Source.
func (s *SecretSource) Fetch(ctx context.Context) (Token, error) {
	raw, err := s.Store.GetSecret(ctx, s.SecretID)
	if err != nil {
		return Token{}, &broker.TokenAcquisitionError{
			Source: s.Name(),
			Status: secretstore.StatusCode(err),
			Err:    err,
		}
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Token{}, &broker.TokenAcquisitionError{
			Source: s.Name(),
			Body:   "secret is not JSON",
			Err:    err,
		}
	}

	value, ok := lookupString(doc, s.TokenPath)
	if !ok || value == "" {
		return Token{}, &broker.TokenAcquisitionError{
			Source: s.Name(),
			Body:   fmt.Sprintf("missing field %s", s.TokenPath),
		}
	}

	expiresAt, err := s.expiry(doc, value)
	if err != nil {
		return Token{}, &broker.TokenAcquisitionError{Source: s.Name(), Body: err.Error()}
	}

	return Token{Value: value, ExpiresAt: expiresAt}, nil
}

func (s *SecretSource) expiry(doc any, value string) (time.Time, error) {
	if expStr, ok := lookupString(doc, s.ExpiryPath); ok && expStr != "" {
		t, err := ParseExpiry(expStr, s.ExpiryLayout)
		if err != nil {
			return time.Time{}, fmt.Errorf("field %s: %w", s.ExpiryPath, err)
		}
		return t, nil
	}
	if t, ok := JWTExpiry(value); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("missing field %s", s.ExpiryPath)
}

// ParseExpiry parses a brokerage timestamp string in KST.
func ParseExpiry(value, layout string) (time.Time, error) {
	return time.ParseInLocation(layout, strings.TrimSpace(value), broker.KST)
}

// JWTExpiry reads the exp claim of a JWT without verifying its signature.
// Brokerage access tokens are JWTs whose exp matches the issued expiry.
func JWTExpiry(value string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(value, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// lookupString evaluates a JSONPath expression and returns its string value.
func lookupString(doc any, path string) (string, bool) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return "", false
	}
	// jsonpath may answer with a list of one element
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return "", false
		}
		v = list[0]
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return fmt.Sprintf("%.0f", t), true
	default:
		return "", false
	}
}
