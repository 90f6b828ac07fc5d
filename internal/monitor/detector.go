package monitor

import "github.com/ritwyck/too-good-to-go-terminal/internal/model"

// Decision is the change detector's verdict for one user's cycle.
type Decision struct {
	// Notify is true when the current snapshot contains at least one store
	// absent from the last notification.
	Notify bool
	// StoresAdded lists the newly appeared stores in order of first
	// appearance in the snapshot. Set membership drives the decision; the
	// order is only for display.
	StoresAdded []string
	// Items is the full current snapshot with IsNew tagged, so a
	// notification shows complete availability with the novel stores
	// highlighted. Nil when Notify is false.
	Items []model.Item
}

// Detect compares the current snapshot against the store set of the user's
// most recent notification and decides whether to notify.
//
// The comparison is store-level, not item-level: a store reappearing after
// selling out is newsworthy, while quantity fluctuations or item renames
// within an already-notified store are not. Store removals never trigger —
// the last-notified set shrinks only when a later notification is sent
// without the store. That also means the set never expires: a store stays
// "known" through any number of empty cycles until a batch replaces it.
// This is deliberate; expiring it would re-announce every restock of a
// long-listed store.
func Detect(snap Snapshot, lastNotified map[string]bool) Decision {
	if snap.Empty() {
		return Decision{}
	}

	var added []string
	for _, store := range snap.Stores {
		if !lastNotified[store] {
			added = append(added, store)
		}
	}
	if len(added) == 0 {
		return Decision{}
	}

	addedSet := make(map[string]bool, len(added))
	for _, store := range added {
		addedSet[store] = true
	}

	items := make([]model.Item, len(snap.Items))
	for i, item := range snap.Items {
		item.IsNew = addedSet[item.Store]
		items[i] = item
	}

	return Decision{Notify: true, StoresAdded: added, Items: items}
}
