package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"brokerdash/internal/database"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditSecretStored   AuditAction = "secret.stored"
	AuditTokenRefreshed AuditAction = "token.refreshed"
	AuditTokenFailed    AuditAction = "token.failed"
)

// AuditEntry represents an audit log entry. Subject is a secret or
// credential set ID; secret values are never recorded.
type AuditEntry struct {
	ID        int64       `json:"id"`
	Action    AuditAction `json:"action"`
	Subject   string      `json:"subject"`
	Detail    string      `json:"detail,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// AuditService handles audit logging in the local secret database.
type AuditService struct {
	db     *database.DB
	now    func() time.Time
	logger *slog.Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(db *database.DB, logger *slog.Logger) *AuditService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditService{db: db, now: time.Now, logger: logger.With("component", "audit")}
}

// Log records an audit entry. A nil service is a no-op, so callers need not
// check whether auditing is enabled.
func (s *AuditService) Log(ctx context.Context, action AuditAction, subject, detail string) {
	if s == nil {
		return
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (action, subject, detail, created_at)
		VALUES (?, ?, ?, ?)
	`, action, subject, detail, s.now().UTC())
	if err != nil {
		s.logger.Warn("failed to write audit log", "action", action, "subject", subject, "error", err)
	}
}

// Recent retrieves the most recent audit entries, newest first.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, subject, detail, created_at
		FROM audit_log
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.Subject, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteOlderThan removes audit entries older than the given duration.
func (s *AuditService) DeleteOlderThan(ctx context.Context, d time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-d)
	result, err := s.db.ExecContext(ctx, `DELETE FROM audit_log WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// FormatEntry returns a human-readable description of an audit entry.
func FormatEntry(e AuditEntry) string {
	s := fmt.Sprintf("[%s] %s %s", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, e.Subject)
	if e.Detail != "" {
		s += ": " + e.Detail
	}
	return s
}
