package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ritwyck/too-good-to-go-terminal/internal/model"
)

// CreateUser creates a new subscriber with monitoring enabled.
func CreateUser(ctx context.Context, db *sql.DB, email, passwordHash string) (*model.User, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash) VALUES (?, ?)`,
		email, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, monitoring_enabled, created_at, updated_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.MonitoringEnabled, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email.
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, monitoring_enabled, created_at, updated_at
		 FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.MonitoringEnabled, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListMonitoringEligible returns all users that the poll loop should check:
// monitoring enabled AND marketplace credentials stored.
func ListMonitoringEligible(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT u.id, u.email, u.password_hash, u.monitoring_enabled, u.created_at, u.updated_at
		 FROM users u
		 JOIN user_credentials c ON c.user_id = u.id
		 WHERE u.monitoring_enabled = 1
		 ORDER BY u.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing eligible users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.MonitoringEnabled, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetMonitoring enables or disables notification monitoring for a user.
func SetMonitoring(ctx context.Context, db *sql.DB, id int64, enabled bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET monitoring_enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		enabled, id,
	)
	if err != nil {
		return fmt.Errorf("setting monitoring: %w", err)
	}
	return nil
}

// DeleteUser removes a user. Credentials, notification batches and records
// are removed by cascade.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}
