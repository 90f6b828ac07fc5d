package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// getOrCreateSecret returns the named secret from the settings table,
// generating and persisting a random one on first use. Uses INSERT OR IGNORE
// + re-SELECT to avoid a TOCTOU race on concurrent startup.
func getOrCreateSecret(ctx context.Context, db *sql.DB, key string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating %s: %w", key, err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		key, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	// Always read back (either our insert or the existing value).
	var secret string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}

	return secret, nil
}

// GetJWTSecret returns the session-token signing key, generating it on first
// run.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	return getOrCreateSecret(ctx, db, "jwt_secret")
}

// GetEncryptionKey returns the hex-encoded 32-byte key used to encrypt
// marketplace credentials at rest, generating it on first run. Losing this
// key invalidates all stored credentials, so it lives in the database next
// to the data it protects unless overridden via configuration.
func GetEncryptionKey(ctx context.Context, db *sql.DB) (string, error) {
	return getOrCreateSecret(ctx, db, "encryption_key")
}
