package model

import "time"

// NotificationBatch groups the records produced by one sent email. BatchID is
// a generated UUID; SentAt is metadata only, batch membership is always
// resolved through the batch row.
type NotificationBatch struct {
	ID        int64     `json:"id"`
	BatchID   string    `json:"batch_id"`
	UserID    int64     `json:"user_id"`
	NewStores int       `json:"new_stores"`
	SentAt    time.Time `json:"sent_at"`
}

// NotificationRecord is one item included in a sent notification. Records are
// append-only: they are never updated and are removed only when the owning
// user is deregistered.
type NotificationRecord struct {
	ID        int64     `json:"id"`
	BatchID   int64     `json:"batch_id"`
	UserID    int64     `json:"user_id"`
	ItemKey   string    `json:"item_key"`
	StoreName string    `json:"store_name"`
	ItemName  string    `json:"item_name"`
	SentAt    time.Time `json:"sent_at"`
}
