// Package token caches brokerage access tokens per credential set.
package token

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"brokerdash/internal/broker"
)

// Token is an access token and the instant it stops being usable.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token can still be handed out at now.
func (t Token) Valid(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

// Source produces a fresh token for one credential set.
type Source interface {
	Fetch(ctx context.Context) (Token, error)
	// Name describes the source in errors and logs.
	Name() string
}

// Entry describes one cached token without exposing its value.
type Entry struct {
	ID        string
	Source    string
	ExpiresAt time.Time
	Cached    bool
}

// Store is the process-wide token cache. Construct one per process and share
// it between every adapter that uses the same credential sets.
type Store struct {
	mu      sync.RWMutex
	tokens  map[string]Token
	sources map[string]Source

	group  singleflight.Group
	now    func() time.Time
	logger *slog.Logger
}

// NewStore creates an empty Store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		tokens:  make(map[string]Token),
		sources: make(map[string]Source),
		now:     time.Now,
		logger:  logger.With("component", "token"),
	}
}

// SetClock replaces the time source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Register binds a refresh source to a credential-set ID. Re-registering an
// ID drops its cached token.
func (s *Store) Register(id string, src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[id] = src
	delete(s.tokens, id)
}

// Put seeds the cache directly.
func (s *Store) Put(id string, tok Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[id] = tok
}

// AccessToken returns the cached token for id while it is unexpired, and
// otherwise refreshes it from the registered source. Concurrent callers that
// miss on the same ID share a single refresh.
func (s *Store) AccessToken(ctx context.Context, id string) (string, error) {
	if tok, ok := s.cached(id); ok {
		return tok.Value, nil
	}

	ch := s.group.DoChan(id, func() (any, error) {
		// A refresh that finished while we were queued may have filled the entry.
		if tok, ok := s.cached(id); ok {
			return tok, nil
		}
		return s.refresh(context.WithoutCancel(ctx), id)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(Token).Value, nil
	}
}

// Refresh fetches a new token for id regardless of the cached entry.
func (s *Store) Refresh(ctx context.Context, id string) (Token, error) {
	v, err, _ := s.group.Do(id, func() (any, error) {
		return s.refresh(ctx, id)
	})
	if err != nil {
		return Token{}, err
	}
	return v.(Token), nil
}

// Invalidate drops the cached token for id.
func (s *Store) Invalidate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, id)
}

// IDs returns the registered credential-set IDs in sorted order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sources))
	for id := range s.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot reports every registered credential set and its cached expiry.
func (s *Store) Snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	entries := make([]Entry, 0, len(s.sources))
	for id, src := range s.sources {
		tok, ok := s.tokens[id]
		entries = append(entries, Entry{
			ID:        id,
			Source:    src.Name(),
			ExpiresAt: tok.ExpiresAt,
			Cached:    ok && tok.Valid(now),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

func (s *Store) cached(id string) (Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.tokens[id]
	if !ok || !tok.Valid(s.now()) {
		return Token{}, false
	}
	return tok, true
}

func (s *Store) refresh(ctx context.Context, id string) (Token, error) {
	s.mu.RLock()
	src, ok := s.sources[id]
	now := s.now
	s.mu.RUnlock()
	if !ok {
		return Token{}, &broker.TokenAcquisitionError{
			Source: id,
			Err:    fmt.Errorf("no token source registered for %q", id),
		}
	}

	tok, err := src.Fetch(ctx)
	if err != nil {
		s.logger.Warn("token refresh failed", "id", id, "source", src.Name(), "error", err)
		return Token{}, err
	}
	if !tok.Valid(now()) {
		return Token{}, &broker.TokenAcquisitionError{
			Source: src.Name(),
			Body:   fmt.Sprintf("token already expired at %s", tok.ExpiresAt.Format(time.RFC3339)),
		}
	}

	s.mu.Lock()
	s.tokens[id] = tok
	s.mu.Unlock()

	s.logger.Info("token refreshed", "id", id, "source", src.Name(), "expires_at", tok.ExpiresAt)
	return tok, nil
}
