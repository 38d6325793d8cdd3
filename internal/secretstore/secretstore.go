// Package secretstore reads token blobs from an external key-value secret
// service. The brokerage token cache only ever reads; writing is for the CLI
// and for local development.
package secretstore

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// ErrNotFound indicates the secret ID does not exist in the store.
var ErrNotFound = errors.New("secret not found")

// Getter returns the raw secret string stored under id.
type Getter interface {
	GetSecret(ctx context.Context, id string) (string, error)
}

// Putter stores a raw secret string under id.
type Putter interface {
	PutSecret(ctx context.Context, id, value string) error
}

// StatusCode extracts an HTTP status from a store error when the backend
// reports one (AWS response errors do). It returns 0 otherwise.
func StatusCode(err error) int {
	var withStatus interface{ HTTPStatusCode() int }
	if errors.As(err, &withStatus) {
		return withStatus.HTTPStatusCode()
	}
	if errors.Is(err, ErrNotFound) {
		return 404
	}
	return 0
}

var envUnsafe = regexp.MustCompile(`[^A-Z0-9]+`)

// EnvKey returns the environment variable name the Env store reads for id.
func EnvKey(id string) string {
	return "SECRET_" + strings.Trim(envUnsafe.ReplaceAllString(strings.ToUpper(id), "_"), "_")
}
