package secretstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"brokerdash/internal/broker"
	"brokerdash/internal/database"
)

// SQLite is a local secret store. Values are sealed with the Encryptor before
// they reach the database.
type SQLite struct {
	db  *database.DB
	enc *broker.Encryptor
}

// NewSQLite creates a store over an already migrated database.
func NewSQLite(db *database.DB, enc *broker.Encryptor) *SQLite {
	return &SQLite{db: db, enc: enc}
}

// GetSecret implements Getter.
func (s *SQLite) GetSecret(ctx context.Context, id string) (string, error) {
	var sealed string
	err := s.db.QueryRowContext(ctx, `SELECT sealed_value FROM secrets WHERE id = ?`, id).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading secret %s: %w", id, err)
	}

	value, err := s.enc.Open(sealed, id)
	if err != nil {
		return "", fmt.Errorf("opening secret %s: %w", id, err)
	}
	return value, nil
}

// PutSecret implements Putter.
func (s *SQLite) PutSecret(ctx context.Context, id, value string) error {
	sealed, err := s.enc.Seal(value, id)
	if err != nil {
		return fmt.Errorf("sealing secret %s: %w", id, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO secrets (id, sealed_value)
		VALUES (?, ?)
		ON CONFLICT(id)
		DO UPDATE SET sealed_value = excluded.sealed_value, updated_at = CURRENT_TIMESTAMP
	`, id, sealed)
	if err != nil {
		return fmt.Errorf("writing secret %s: %w", id, err)
	}
	return nil
}

// Delete removes a secret. Deleting a missing ID is not an error.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM secrets WHERE id = ?`, id)
	return err
}
