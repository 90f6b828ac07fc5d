package monitor

import "github.com/ritwyck/too-good-to-go-terminal/internal/model"

// Snapshot is the set of currently available items for one user's poll, plus
// the distinct store names among them. Snapshots are rebuilt from scratch
// every cycle and never persisted. Items with zero bags are excluded
// entirely; they carry no identity for notification purposes.
type Snapshot struct {
	// Items in source order.
	Items []model.Item
	// Stores in order of first appearance.
	Stores []string
}

// BuildSnapshot filters normalized items down to those with bags available.
// Pure function: empty input yields an empty snapshot, not an error.
func BuildSnapshot(items []model.Item) Snapshot {
	var snap Snapshot
	seen := make(map[string]bool)

	for _, item := range items {
		if item.Available <= 0 {
			continue
		}
		snap.Items = append(snap.Items, item)
		if !seen[item.Store] {
			seen[item.Store] = true
			snap.Stores = append(snap.Stores, item.Store)
		}
	}

	return snap
}

// Empty reports whether the snapshot has no available items.
func (s Snapshot) Empty() bool {
	return len(s.Items) == 0
}

// StoreSet returns the snapshot's store names as a set.
func (s Snapshot) StoreSet() map[string]bool {
	set := make(map[string]bool, len(s.Stores))
	for _, store := range s.Stores {
		set[store] = true
	}
	return set
}
