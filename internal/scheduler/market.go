// Package scheduler knows the Korean market hours and runs the token prewarm
// job before the open.
package scheduler

import (
	"time"

	"brokerdash/internal/broker"
	"brokerdash/internal/models"
)

// Default regular-session bounds, as HHMM in KST.
const (
	DefaultOpen  = 900
	DefaultClose = 1545
)

// IsMarketOpen reports whether hhmm of t in KST lies within [from, to] on
// a weekday. The first minute after midnight counts as open on every day so
// clients pick up the new trading date.
func IsMarketOpen(t time.Time, from, to int) bool {
	kst := t.In(broker.KST)
	if kst.Hour() == 0 && kst.Minute() < 1 {
		return true
	}
	switch kst.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	hhmm := kst.Hour()*100 + kst.Minute()
	return hhmm >= from && hhmm <= to
}

// Feed is a dashboard data feed the UI polls.
type Feed string

const (
	FeedBalance        Feed = "balance"
	FeedFuturesBalance Feed = "futures-balance"
	FeedOrders         Feed = "orders"
	FeedFuturesOrders  Feed = "futures-orders"
	FeedPeriodPnl      Feed = "period-pnl"
)

var marketPoll = map[Feed]time.Duration{
	FeedBalance:        5 * time.Second,
	FeedFuturesBalance: 5 * time.Second,
	FeedOrders:         5 * time.Second,
	FeedFuturesOrders:  6 * time.Second,
}

// PollInterval is how often the UI should refresh feed at t. Zero disables
// polling: outside market hours, and always for feeds that only change after
// the close.
func PollInterval(feed Feed, t time.Time) time.Duration {
	if !IsMarketOpen(t, DefaultOpen, DefaultClose) {
		return 0
	}
	return marketPoll[feed]
}

// Status is the market state at t.
type Status struct {
	Open          bool
	Now           time.Time
	PollIntervals map[Feed]time.Duration
}

// StatusAt reports the market state and every feed's poll interval at t.
func StatusAt(t time.Time) Status {
	s := Status{
		Open:          IsMarketOpen(t, DefaultOpen, DefaultClose),
		Now:           t.In(broker.KST),
		PollIntervals: make(map[Feed]time.Duration, len(marketPoll)+1),
	}
	for _, f := range []Feed{FeedBalance, FeedFuturesBalance, FeedOrders, FeedFuturesOrders, FeedPeriodPnl} {
		s.PollIntervals[f] = PollInterval(f, t)
	}
	return s
}

// Model renders s for the API.
func (s Status) Model() models.MarketStatus {
	secs := make(map[string]int, len(s.PollIntervals))
	for f, d := range s.PollIntervals {
		secs[string(f)] = int(d / time.Second)
	}
	return models.MarketStatus{
		Open:                s.Open,
		Now:                 s.Now.Format(time.RFC3339),
		PollIntervalSeconds: secs,
	}
}
