// Package metrics exposes Prometheus counters for the poll loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PollCycles counts completed poll cycles.
	PollCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tgtg_poll_cycles_total",
		Help: "Completed poll cycles.",
	})

	// UserChecks counts per-user checks by outcome: ok, notified or failed.
	UserChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tgtg_user_checks_total",
		Help: "Per-user checks by outcome.",
	}, []string{"outcome"})

	// NotificationsSent counts successfully delivered notification emails.
	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tgtg_notifications_sent_total",
		Help: "Notification emails delivered.",
	})
)
