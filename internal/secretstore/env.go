package secretstore

import (
	"context"
	"fmt"
	"os"
)

// Env reads secrets from environment variables named by EnvKey.
type Env struct {
	lookup func(string) (string, bool)
}

// NewEnv creates an Env store over the process environment.
func NewEnv() *Env {
	return &Env{lookup: os.LookupEnv}
}

// GetSecret implements Getter.
func (e *Env) GetSecret(_ context.Context, id string) (string, error) {
	key := EnvKey(id)
	v, ok := e.lookup(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%s (%s): %w", id, key, ErrNotFound)
	}
	return v, nil
}
