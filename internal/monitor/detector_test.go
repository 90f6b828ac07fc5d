package monitor

import (
	"reflect"
	"testing"

	"github.com/ritwyck/too-good-to-go-terminal/internal/model"
)

func stores(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}

func TestDetectFirstCheckNotifiesOnAnything(t *testing.T) {
	snap := BuildSnapshot([]model.Item{item("Bakery", "s1_i1", 2)})

	d := Detect(snap, stores())
	if !d.Notify {
		t.Fatal("expected notification on first check with availability")
	}
	if !reflect.DeepEqual(d.StoresAdded, []string{"Bakery"}) {
		t.Errorf("expected StoresAdded {Bakery}, got %v", d.StoresAdded)
	}
}

func TestDetectStoreAdditionTriggersQuantityChangeDoesNot(t *testing.T) {
	// Last notification covered A; A changed quantity and B appeared.
	snap := BuildSnapshot([]model.Item{
		item("A", "a_i1", 5), // was 2 last cycle; quantity churn is silent
		item("B", "b_i1", 1),
	})

	d := Detect(snap, stores("A"))
	if !d.Notify {
		t.Fatal("expected notification for added store B")
	}
	if !reflect.DeepEqual(d.StoresAdded, []string{"B"}) {
		t.Errorf("expected StoresAdded {B}, got %v", d.StoresAdded)
	}

	// Only A, with changed quantity: nothing to say.
	d = Detect(BuildSnapshot([]model.Item{item("A", "a_i1", 5)}), stores("A"))
	if d.Notify {
		t.Error("expected no notification for quantity change alone")
	}
}

func TestDetectRemovalIsSilent(t *testing.T) {
	d := Detect(BuildSnapshot([]model.Item{item("A", "a_i1", 2)}), stores("A", "B"))
	if d.Notify {
		t.Error("expected no notification when a store merely disappears")
	}
}

func TestDetectEmptySnapshotNeverNotifies(t *testing.T) {
	if d := Detect(BuildSnapshot(nil), stores()); d.Notify {
		t.Error("expected no notification for empty snapshot and empty history")
	}
	if d := Detect(BuildSnapshot(nil), stores("A", "B")); d.Notify {
		t.Error("expected no notification for empty snapshot regardless of history")
	}
}

func TestDetectIdempotentOnUnchangedInput(t *testing.T) {
	snap := BuildSnapshot([]model.Item{item("A", "a_i1", 2)})
	last := stores("A")

	if d := Detect(snap, last); d.Notify {
		t.Fatal("expected no notification for unchanged snapshot")
	}
	// Same inputs again: still silent.
	if d := Detect(snap, last); d.Notify {
		t.Error("expected detector to stay silent on repeated identical input")
	}
}

func TestDetectReintroduction(t *testing.T) {
	snap := BuildSnapshot([]model.Item{item("A", "a_i1", 2)})

	// A is still in the last-notified set: its return is not news.
	if d := Detect(snap, stores("A")); d.Notify {
		t.Error("expected no re-fire while store remains in last-notified set")
	}

	// A later batch was sent without A (e.g. only B); A's return now fires.
	d := Detect(snap, stores("B"))
	if !d.Notify {
		t.Fatal("expected re-fire once store left the last-notified set")
	}
	if !reflect.DeepEqual(d.StoresAdded, []string{"A"}) {
		t.Errorf("expected StoresAdded {A}, got %v", d.StoresAdded)
	}
}

func TestDetectTagsAllItemsWithNovelty(t *testing.T) {
	snap := BuildSnapshot([]model.Item{
		item("A", "a_i1", 2),
		item("B", "b_i1", 1),
		item("A", "a_i2", 3),
	})

	d := Detect(snap, stores("A"))
	if !d.Notify {
		t.Fatal("expected notification")
	}
	// The payload carries the full snapshot, not just the added stores.
	if len(d.Items) != 3 {
		t.Fatalf("expected all 3 items in payload, got %d", len(d.Items))
	}
	for _, it := range d.Items {
		wantNew := it.Store == "B"
		if it.IsNew != wantNew {
			t.Errorf("item %s IsNew = %v, want %v", it.Key, it.IsNew, wantNew)
		}
	}
}

func TestDetectDoesNotMutateInput(t *testing.T) {
	items := []model.Item{item("B", "b_i1", 1)}
	snap := BuildSnapshot(items)

	Detect(snap, stores())
	if items[0].IsNew {
		t.Error("expected input items untouched")
	}
}

func TestDetectAddedStoreOrder(t *testing.T) {
	snap := BuildSnapshot([]model.Item{
		item("C", "c_i1", 1),
		item("A", "a_i1", 1),
		item("B", "b_i1", 1),
	})

	d := Detect(snap, stores("A"))
	if !reflect.DeepEqual(d.StoresAdded, []string{"C", "B"}) {
		t.Errorf("expected first-appearance order {C, B}, got %v", d.StoresAdded)
	}
}
