// Package handlers provides the HTTP handlers of the dashboard API.
package handlers

import (
	"log/slog"
	"time"

	"brokerdash/internal/broker/token"
	"brokerdash/internal/services"
)

// TokenStatus reports the cached token state of every credential set.
type TokenStatus interface {
	Snapshot() []token.Entry
}

// Dependencies holds all handler dependencies.
type Dependencies struct {
	Dashboard *services.DashboardService
	Tokens    TokenStatus
	Logger    *slog.Logger
	Now       func() time.Time
}

// NewDependencies creates an empty Dependencies container.
// Use the builder methods to set required dependencies.
func NewDependencies() *Dependencies {
	return &Dependencies{
		Logger: slog.Default(),
		Now:    time.Now,
	}
}

// WithDashboard sets the dashboard service.
func (d *Dependencies) WithDashboard(s *services.DashboardService) *Dependencies {
	d.Dashboard = s
	return d
}

// WithTokens sets the token status source used by the health check.
func (d *Dependencies) WithTokens(t TokenStatus) *Dependencies {
	d.Tokens = t
	return d
}

// WithLogger sets the logger.
func (d *Dependencies) WithLogger(l *slog.Logger) *Dependencies {
	d.Logger = l
	return d
}

// WithClock replaces the clock used for market status.
func (d *Dependencies) WithClock(now func() time.Time) *Dependencies {
	d.Now = now
	return d
}
