package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"brokerdash/internal/broker"
	"brokerdash/internal/broker/token"
)

// DefaultPrewarmSchedule fires at 08:50 KST on weekdays, ten minutes before
// the open.
const DefaultPrewarmSchedule = "50 8 * * 1-5"

const prewarmTimeout = 2 * time.Minute

// TokenRefresher is the part of *token.Store the prewarmer drives.
type TokenRefresher interface {
	IDs() []string
	Refresh(ctx context.Context, id string) (token.Token, error)
}

// Prewarmer refreshes every registered credential set on a cron schedule so
// the first dashboard request of the day finds a fresh token.
type Prewarmer struct {
	cron   *cron.Cron
	tokens TokenRefresher
	logger *slog.Logger
}

// NewPrewarmer parses schedule (standard 5-field cron, evaluated in KST) and
// returns a stopped Prewarmer.
func NewPrewarmer(tokens TokenRefresher, schedule string, logger *slog.Logger) (*Prewarmer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if schedule == "" {
		schedule = DefaultPrewarmSchedule
	}
	p := &Prewarmer{
		cron:   cron.New(cron.WithLocation(broker.KST)),
		tokens: tokens,
		logger: logger.With("component", "prewarm"),
	}
	if _, err := p.cron.AddFunc(schedule, p.run); err != nil {
		return nil, fmt.Errorf("parsing prewarm schedule %q: %w", schedule, err)
	}
	return p, nil
}

// Start runs the schedule in the background.
func (p *Prewarmer) Start() {
	p.cron.Start()
	p.logger.Info("token prewarm scheduled", "next", p.Next())
}

// Stop halts the schedule. The returned context is done once a running job
// has finished.
func (p *Prewarmer) Stop() context.Context {
	return p.cron.Stop()
}

// Next is the next scheduled run, or the zero time before Start.
func (p *Prewarmer) Next() time.Time {
	entries := p.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (p *Prewarmer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), prewarmTimeout)
	defer cancel()
	if _, err := p.RunOnce(ctx); err != nil {
		p.logger.Warn("token prewarm incomplete", "error", err)
	}
}

// RunOnce refreshes every credential set and returns how many succeeded. A
// failure does not stop the remaining refreshes; all failures are joined.
func (p *Prewarmer) RunOnce(ctx context.Context) (int, error) {
	var errs []error
	refreshed := 0
	for _, id := range p.tokens.IDs() {
		tok, err := p.tokens.Refresh(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("refreshing %s: %w", id, err))
			continue
		}
		refreshed++
		p.logger.Info("token prewarmed", "credential_set", id, "expires_at", tok.ExpiresAt)
	}
	return refreshed, errors.Join(errs...)
}
