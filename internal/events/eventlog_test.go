package events

import (
	"sync"
	"testing"
)

func TestAppendAndReplay(t *testing.T) {
	log := NewLog(nil)

	log.Append(NewEntry(KindPurchase, 1, "P1", "Bought Maple Row 7"))
	log.Append(NewEntry(KindRent, 30, "P1", "Collected rent"))
	log.Append(NewEntry(KindRateChange, 30, "", "Central bank held the rate"))

	all := log.Replay()
	if len(all) != 3 {
		t.Fatalf("Replay returned %d entries, want 3", len(all))
	}
	if all[0].Kind != KindPurchase || all[2].Kind != KindRateChange {
		t.Errorf("Entries should replay in append order")
	}
}

func TestFilters(t *testing.T) {
	log := NewLog(nil)
	log.Append(NewEntry(KindPurchase, 1, "P1", "buy"))
	log.Append(NewEntry(KindRent, 30, "P1", "rent"))
	log.Append(NewEntry(KindRent, 30, "P2", "rent"))
	log.Append(NewEntry(KindSale, 60, "P2", "sell"))

	if got := log.GetByDay(30); len(got) != 2 {
		t.Errorf("GetByDay(30) returned %d entries, want 2", len(got))
	}
	if got := log.GetByProperty("P1"); len(got) != 2 {
		t.Errorf("GetByProperty(P1) returned %d entries, want 2", len(got))
	}
	if got := log.GetByDay(99); len(got) != 0 {
		t.Errorf("GetByDay(99) returned %d entries, want 0", len(got))
	}
}

type recordingPersister struct {
	mu      sync.Mutex
	entries []Entry
}

func (p *recordingPersister) Append(e Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, e)
	return nil
}

func TestPersistencePreservesAppendOrder(t *testing.T) {
	p := &recordingPersister{}
	log := NewLog(p)

	for i := 0; i < 50; i++ {
		log.Append(NewEntry(KindRent, i, "P1", "rent"))
	}
	log.Close()

	if len(p.entries) != 50 {
		t.Fatalf("Persisted %d entries, want 50", len(p.entries))
	}
	for i, e := range p.entries {
		if e.Day != i {
			t.Fatalf("Entry %d persisted out of order (day %d)", i, e.Day)
		}
	}
}

func TestNewEntryIdentity(t *testing.T) {
	a := NewEntry(KindSystem, 0, "", "reset")
	b := NewEntry(KindSystem, 0, "", "reset")

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("Entries must get unique identifiers, got %q and %q", a.ID, b.ID)
	}
	if a.Timestamp.IsZero() {
		t.Errorf("Entries must be timestamped")
	}
}
