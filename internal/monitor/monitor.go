// Package monitor drives the poll cycle: enumerate eligible users, fetch
// their favorites, detect notification-worthy changes and send emails.
package monitor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ritwyck/too-good-to-go-terminal/internal/metrics"
	"github.com/ritwyck/too-good-to-go-terminal/internal/model"
	"github.com/ritwyck/too-good-to-go-terminal/internal/secrets"
	"github.com/ritwyck/too-good-to-go-terminal/internal/store"
	"github.com/ritwyck/too-good-to-go-terminal/internal/tgtg"
)

// ItemFetcher fetches the raw favorite listings for one user's credentials.
// A non-nil rotated value carries refreshed credentials the caller must
// persist.
type ItemFetcher interface {
	FetchItems(ctx context.Context, creds model.Credentials) (listings []tgtg.Listing, rotated *model.Credentials, err error)
}

// Notifier delivers an availability email. A returned error means nothing
// was delivered and no state may be advanced.
type Notifier interface {
	Send(ctx context.Context, to string, items []model.Item, newStores int) error
}

// Monitor runs the polling loop. Cycles never overlap: users are checked
// sequentially and the next tick is only honored after the current cycle
// finishes.
type Monitor struct {
	DB           *sql.DB
	Fetcher      ItemFetcher
	Notifier     Notifier
	Key          *[secrets.KeySize]byte
	Interval     time.Duration
	CheckTimeout time.Duration
	Log          *zap.Logger
}

// CheckResult is the outcome of one user's check within a cycle. Failures
// are values here, not panics or aborts: one user's error never reaches a
// sibling.
type CheckResult struct {
	UserID      int64
	Email       string
	Notified    bool
	StoresAdded []string
	Err         error
}

// Run executes an immediate cycle, then one per interval, until ctx is
// canceled. Per-user failures are contained; only a persistence failure
// while enumerating users stops the loop, surfaced as the returned error.
func (m *Monitor) Run(ctx context.Context) error {
	m.Log.Info("monitor started",
		zap.Duration("interval", m.Interval),
		zap.Duration("check_timeout", m.CheckTimeout),
	)

	if err := m.runCycle(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Log.Info("monitor stopped")
			return nil
		case <-ticker.C:
			if err := m.runCycle(ctx); err != nil {
				return err
			}
		}
	}
}

// runCycle checks every eligible user once.
func (m *Monitor) runCycle(ctx context.Context) error {
	start := time.Now()

	users, err := store.ListMonitoringEligible(ctx, m.DB)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("enumerating users: %w", err)
	}

	m.Log.Info("poll cycle started", zap.Int("users", len(users)))

	var notified, failed int
	for _, user := range users {
		if ctx.Err() != nil {
			return nil
		}

		result := m.checkUser(ctx, user)
		switch {
		case result.Err != nil:
			failed++
			metrics.UserChecks.WithLabelValues("failed").Inc()
			m.Log.Warn("user check failed",
				zap.Int64("user_id", result.UserID),
				zap.String("email", result.Email),
				zap.Error(result.Err),
			)
		case result.Notified:
			notified++
			metrics.UserChecks.WithLabelValues("notified").Inc()
			m.Log.Info("user notified",
				zap.Int64("user_id", result.UserID),
				zap.String("email", result.Email),
				zap.Strings("stores_added", result.StoresAdded),
			)
		default:
			metrics.UserChecks.WithLabelValues("ok").Inc()
		}
	}

	metrics.PollCycles.Inc()
	m.Log.Info("poll cycle finished",
		zap.Int("users", len(users)),
		zap.Int("notified", notified),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// checkUser runs the full pipeline for one user: fetch, normalize, snapshot,
// detect, send, record. Every failure is captured in the result; a bounded
// timeout keeps a hung fetch from stalling the whole cycle.
func (m *Monitor) checkUser(ctx context.Context, user model.User) (result CheckResult) {
	result = CheckResult{UserID: user.ID, Email: user.Email}

	ctx, cancel := context.WithTimeout(ctx, m.CheckTimeout)
	defer cancel()

	creds, err := m.loadCredentials(ctx, user.ID)
	if err != nil {
		result.Err = err
		return result
	}
	if creds == nil {
		// Credentials vanished between enumeration and check; not an error.
		return result
	}

	listings, rotated, err := m.Fetcher.FetchItems(ctx, *creds)
	if err != nil {
		result.Err = fmt.Errorf("fetching items: %w", err)
		return result
	}

	if rotated != nil {
		if err := m.saveCredentials(ctx, user.ID, rotated); err != nil {
			// The rotated token still worked for this fetch; next cycle
			// refreshes again.
			m.Log.Warn("failed to persist rotated credentials",
				zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}

	items := m.normalize(user.ID, listings)
	snap := BuildSnapshot(items)

	lastNotified, err := store.LastNotifiedStores(ctx, m.DB, user.ID)
	if err != nil {
		result.Err = fmt.Errorf("reading notification history: %w", err)
		return result
	}

	decision := Detect(snap, lastNotified)
	if !decision.Notify {
		return result
	}

	if err := m.Notifier.Send(ctx, user.Email, decision.Items, len(decision.StoresAdded)); err != nil {
		// Nothing was recorded, so the next successful cycle recomputes the
		// same added stores and tries again.
		result.Err = fmt.Errorf("sending notification: %w", err)
		return result
	}
	metrics.NotificationsSent.Inc()

	if _, err := store.RecordBatch(ctx, m.DB, user.ID, decision.Items, len(decision.StoresAdded)); err != nil {
		// The email went out but the batch rolled back; the user may be
		// notified again next cycle. Preferable to silently losing history.
		result.Err = fmt.Errorf("recording batch: %w", err)
		return result
	}

	result.Notified = true
	result.StoresAdded = decision.StoresAdded
	return result
}

// normalize converts raw listings, skipping malformed records so one bad
// listing never aborts the user's batch.
func (m *Monitor) normalize(userID int64, listings []tgtg.Listing) []model.Item {
	var items []model.Item
	for _, listing := range listings {
		item, err := tgtg.Normalize(listing)
		if err != nil {
			m.Log.Warn("skipping malformed listing",
				zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		items = append(items, item)
	}
	return items
}

func (m *Monitor) loadCredentials(ctx context.Context, userID int64) (*model.Credentials, error) {
	blob, err := store.GetCredentials(ctx, m.DB, userID)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	if blob == nil {
		return nil, nil
	}

	plaintext, err := secrets.Open(m.Key, blob)
	if err != nil {
		return nil, fmt.Errorf("decrypting credentials: %w", err)
	}

	var creds model.Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("decoding credentials: %w", err)
	}
	return &creds, nil
}

func (m *Monitor) saveCredentials(ctx context.Context, userID int64, creds *model.Credentials) error {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	ciphertext, err := secrets.Seal(m.Key, plaintext)
	if err != nil {
		return fmt.Errorf("encrypting credentials: %w", err)
	}

	return store.SaveCredentials(ctx, m.DB, userID, ciphertext)
}
