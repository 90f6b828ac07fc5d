package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// Notification history is event-sourced: batches and records are append-only,
// and a user's "last notified store set" is always recomputed from the most
// recent batch. Deleting a user cascades to credentials, batches and records.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id                 INTEGER PRIMARY KEY,
    email              TEXT NOT NULL,
    password_hash      TEXT NOT NULL,
    monitoring_enabled INTEGER NOT NULL DEFAULT 1,
    created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);

CREATE TABLE IF NOT EXISTS user_credentials (
    user_id    INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    ciphertext BLOB NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notification_batches (
    id         INTEGER PRIMARY KEY,
    batch_id   TEXT NOT NULL UNIQUE,
    user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    new_stores INTEGER NOT NULL DEFAULT 0,
    sent_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_batches_user ON notification_batches(user_id, id);

CREATE TABLE IF NOT EXISTS notification_records (
    id         INTEGER PRIMARY KEY,
    batch_id   INTEGER NOT NULL REFERENCES notification_batches(id) ON DELETE CASCADE,
    user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    item_key   TEXT NOT NULL,
    store_name TEXT NOT NULL,
    item_name  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_batch ON notification_records(batch_id);
CREATE INDEX IF NOT EXISTS idx_records_user_item ON notification_records(user_id, item_key);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
