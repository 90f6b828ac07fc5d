package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SaveCredentials stores a user's encrypted marketplace credentials,
// replacing any existing blob. The marketplace rotates tokens, so this is
// also called mid-poll when a fetch refreshes them.
func SaveCredentials(ctx context.Context, db *sql.DB, userID int64, ciphertext []byte) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO user_credentials (user_id, ciphertext) VALUES (?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET ciphertext = excluded.ciphertext, updated_at = CURRENT_TIMESTAMP`,
		userID, ciphertext,
	)
	if err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// GetCredentials returns a user's encrypted credential blob, or nil if none
// are stored. Absence is not an error: the user is simply skipped by the
// poll loop.
func GetCredentials(ctx context.Context, db *sql.DB, userID int64) ([]byte, error) {
	var ciphertext []byte
	err := db.QueryRowContext(ctx,
		`SELECT ciphertext FROM user_credentials WHERE user_id = ?`, userID,
	).Scan(&ciphertext)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting credentials: %w", err)
	}
	return ciphertext, nil
}
