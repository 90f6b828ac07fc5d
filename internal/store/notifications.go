package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ritwyck/too-good-to-go-terminal/internal/model"
)

// RecordBatch persists the outcome of one sent notification: a batch row plus
// one record per included item, in a single transaction. All-or-nothing — a
// partial batch would corrupt the last-notified read contract, so any failure
// rolls the whole batch back. Returns the generated batch UUID.
func RecordBatch(ctx context.Context, db *sql.DB, userID int64, items []model.Item, newStores int) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("refusing to record empty batch")
	}

	batchID := uuid.NewString()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO notification_batches (batch_id, user_id, new_stores) VALUES (?, ?, ?)`,
		batchID, userID, newStores,
	)
	if err != nil {
		return "", fmt.Errorf("recording batch: %w", err)
	}

	rowID, err := result.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("getting batch id: %w", err)
	}

	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO notification_records (batch_id, user_id, item_key, store_name, item_name)
			 VALUES (?, ?, ?, ?, ?)`,
			rowID, userID, item.Key, item.Store, item.Name,
		)
		if err != nil {
			return "", fmt.Errorf("recording notification for %s: %w", item.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing batch: %w", err)
	}

	return batchID, nil
}

// LastNotifiedStores returns the distinct store names included in the user's
// most recent notification batch. Returns an empty set if the user has never
// been notified.
func LastNotifiedStores(ctx context.Context, db *sql.DB, userID int64) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT store_name FROM notification_records
		 WHERE batch_id = (SELECT id FROM notification_batches WHERE user_id = ? ORDER BY id DESC LIMIT 1)`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting last notified stores: %w", err)
	}
	defer rows.Close()

	stores := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning store name: %w", err)
		}
		stores[name] = true
	}
	return stores, rows.Err()
}

// ListRecentRecords returns the user's most recent notification records,
// newest batch first, for the dashboard history view.
func ListRecentRecords(ctx context.Context, db *sql.DB, userID int64, limit int) ([]model.NotificationRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT r.id, r.batch_id, r.user_id, r.item_key, r.store_name, r.item_name, b.sent_at
		 FROM notification_records r
		 JOIN notification_batches b ON b.id = r.batch_id
		 WHERE r.user_id = ?
		 ORDER BY b.id DESC, r.id
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing notification records: %w", err)
	}
	defer rows.Close()

	var records []model.NotificationRecord
	for rows.Next() {
		var r model.NotificationRecord
		if err := rows.Scan(&r.ID, &r.BatchID, &r.UserID, &r.ItemKey, &r.StoreName, &r.ItemName, &r.SentAt); err != nil {
			return nil, fmt.Errorf("scanning notification record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
