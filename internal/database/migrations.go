package database

// All migrations use IF NOT EXISTS to be idempotent.

// migrationSecrets stores sealed token blobs keyed by secret ID.
const migrationSecrets = `
CREATE TABLE IF NOT EXISTS secrets (
    id TEXT PRIMARY KEY,
    sealed_value TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

const migrationSecretIndexes = `
CREATE INDEX IF NOT EXISTS idx_secrets_updated_at ON secrets(updated_at);
`

// migrationAuditLog records secret writes and token refreshes.
const migrationAuditLog = `
CREATE TABLE IF NOT EXISTS audit_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    action TEXT NOT NULL,
    subject TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);
`

const migrationAuditLogIndexes = `
CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at);
`
