package ledger

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/appetiteclub/apt/seed"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	d, _ := s.SendToKitchen("T1", []OrderItem{{PlateID: "p1", Qty: 2}})
	s.RegisterPurchase("salt", 1, "kg", 2)

	snap := s.Snapshot()

	other := NewStore(Options{})
	if err := other.Restore(snap); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	o, err := other.Order(d.Order.ID)
	if err != nil || !o.Total.Equal(d.Order.Total) {
		t.Errorf("restored order = %+v, %v", o, err)
	}
	if tbl, _ := other.Table("T1"); tbl.CurrentOrderID != d.Order.ID {
		t.Errorf("restored table lost its order: %+v", tbl)
	}
	if log, _ := other.Purchases("salt"); len(log) != 1 {
		t.Errorf("restored purchase log len = %d, want 1", len(log))
	}
	if got := other.Plates(); len(got) != 3 || got[0].ID != "p1" {
		t.Errorf("restored plates out of order: %+v", got)
	}
}

func TestRestoreRejectsInconsistentState(t *testing.T) {
	tests := []struct {
		name string
		snap *Snapshot
	}{
		{name: "nil", snap: nil},
		{
			name: "duplicateIngredient",
			snap: &Snapshot{Ingredients: []Ingredient{{ID: "a", Name: "A"}, {ID: "a", Name: "B"}}},
		},
		{
			name: "criticalAboveMin",
			snap: &Snapshot{Ingredients: []Ingredient{{ID: "a", Name: "A", MinQty: 1, CriticalQty: 2}}},
		},
		{
			name: "occupiedWithoutOrder",
			snap: &Snapshot{Tables: []Table{{ID: "T1", Status: TableOccupied}}},
		},
		{
			name: "orphanActiveOrder",
			snap: &Snapshot{
				Tables: []Table{{ID: "T1", Status: TableAvailable}},
				Orders: []Order{{ID: "o1", TableID: "T1", Status: OrderPreparing}},
			},
		},
		{
			name: "tableHoldsPaidOrder",
			snap: &Snapshot{
				Tables: []Table{{ID: "T1", Status: TableBilling, CurrentOrderID: "o1"}},
				Orders: []Order{{ID: "o1", TableID: "T1", Status: OrderPaid}},
			},
		},
		{
			name: "unknownPlateStatus",
			snap: &Snapshot{Plates: []Plate{{ID: "p", Name: "P", Status: "archived"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			if err := s.Restore(tt.snap); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Restore() error = %v, want ErrInvalidInput", err)
			}
			if len(s.Ingredients()) != 2 || len(s.Tables()) != 3 {
				t.Error("failed restore replaced the state")
			}
		})
	}
}

func TestMemorySnapshotStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemorySnapshotStore()

	snap, err := m.Load(ctx)
	if err != nil || snap != nil {
		t.Fatalf("empty Load() = %v, %v; want nil, nil", snap, err)
	}
	if err := m.Save(ctx, nil); err == nil {
		t.Error("Save(nil) should fail")
	}

	s := newTestStore(t)
	if err := m.Save(ctx, s.Snapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	snap, _ = m.Load(ctx)
	if snap.IsEmpty() || len(snap.Ingredients) != 2 {
		t.Errorf("loaded snapshot = %+v", snap)
	}
	if m.Saves() != 1 {
		t.Errorf("saves = %d, want 1", m.Saves())
	}
}

func TestParseSeed(t *testing.T) {
	data, err := os.ReadFile("../../seed.json")
	if err != nil {
		t.Fatalf("read seed: %v", err)
	}

	snap, err := ParseSeed(data)
	if err != nil {
		t.Fatalf("ParseSeed() error = %v", err)
	}
	if len(snap.Ingredients) == 0 || len(snap.Plates) == 0 || len(snap.Tables) == 0 {
		t.Fatalf("seed is missing sections: %d/%d/%d", len(snap.Ingredients), len(snap.Plates), len(snap.Tables))
	}
	if len(snap.Orders) != 0 {
		t.Error("seed should not create orders")
	}

	s := NewStore(Options{})
	if err := s.Restore(snap); err != nil {
		t.Fatalf("seed does not restore cleanly: %v", err)
	}
}

func TestParseSeedErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "badJSON", data: "{"},
		{name: "occupiedTable", data: `{"tables":[{"id":"T1","seats":2,"status":"occupied"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSeed([]byte(tt.data)); err == nil {
				t.Error("ParseSeed() should fail")
			}
		})
	}
}

const testSeed = `{
  "ingredients": [{"id": "flour", "name": "Harina", "current_qty": 500, "unit_price": 0.01, "min_qty": 2000, "critical_qty": 1000}],
  "plates": [{"id": "p1", "name": "Focaccia", "selling_price": 10, "ingredients": [{"ingredient_id": "flour", "qty": 200}]}],
  "tables": [{"id": "T1", "seats": 4}, {"id": "T2", "seats": 2, "status": "reserved"}]
}`

func TestApplySeedsOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore(Options{})
	tracker := NewMemorySeedTracker()

	if err := ApplySeeds(ctx, s, []byte(testSeed), tracker, nil); err != nil {
		t.Fatalf("ApplySeeds() error = %v", err)
	}
	if len(s.Ingredients()) != 1 || len(s.Plates()) != 1 || len(s.Tables()) != 2 {
		t.Fatalf("seeded counts = %d/%d/%d", len(s.Ingredients()), len(s.Plates()), len(s.Tables()))
	}

	// Purchases made after seeding must survive a second run.
	s.RegisterPurchase("flour", 2, "kg", 30)
	if err := ApplySeeds(ctx, s, []byte(testSeed), tracker, nil); err != nil {
		t.Fatalf("second ApplySeeds() error = %v", err)
	}
	ing, _ := s.Ingredient("flour")
	if !approx(ing.CurrentQty, 2500) {
		t.Errorf("flour qty = %v, seeds should not re-apply", ing.CurrentQty)
	}
}

func TestMergeKeepsExisting(t *testing.T) {
	s := newTestStore(t)
	s.RegisterPurchase("flour", 1, "kg", 10)

	n, err := s.Merge(&Snapshot{
		Ingredients: []Ingredient{{ID: "flour", Name: "Otra harina"}, {ID: "yeast", Name: "Levadura"}},
		Tables:      []Table{{ID: "T1", Status: TableAvailable}, {ID: "T4", Status: TableAvailable}},
	})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if n != 2 {
		t.Errorf("added = %d, want 2", n)
	}
	ing, _ := s.Ingredient("flour")
	if ing.Name != "Harina" || !approx(ing.CurrentQty, 1500) {
		t.Errorf("existing flour was overwritten: %+v", ing)
	}
	if _, err := s.Table("T4"); err != nil {
		t.Errorf("T4 missing after merge: %v", err)
	}
}

func TestSeedingFunc(t *testing.T) {
	ctx := context.Background()

	t.Run("seedsAndSaves", func(t *testing.T) {
		s := NewStore(Options{})
		snaps := NewMemorySnapshotStore()
		start := SeedingFunc(s, snaps, []byte(testSeed), NewMemorySeedTracker(), nil)

		if err := start(ctx); err != nil {
			t.Fatalf("start error = %v", err)
		}
		if snaps.Saves() != 1 {
			t.Errorf("saves = %d, want 1", snaps.Saves())
		}
	})

	t.Run("restoresSavedState", func(t *testing.T) {
		snaps := NewMemorySnapshotStore()
		prev := newTestStore(t)
		d, _ := prev.SendToKitchen("T1", []OrderItem{{PlateID: "p1", Qty: 1}})
		if err := snaps.Save(ctx, prev.Snapshot()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		s := NewStore(Options{})
		tracker := NewMemorySeedTracker()
		start := SeedingFunc(s, snaps, []byte(testSeed), tracker, nil)
		if err := start(ctx); err != nil {
			t.Fatalf("start error = %v", err)
		}

		if _, err := s.Order(d.Order.ID); err != nil {
			t.Errorf("restored order missing: %v", err)
		}
		ing, _ := s.Ingredient("flour")
		if ing.Name != "Harina" {
			t.Errorf("flour = %+v", ing)
		}
		if problems := s.CheckFloor(); len(problems) > 0 {
			t.Errorf("floor inconsistent after seeding: %v", problems)
		}
	})

	t.Run("noSeedData", func(t *testing.T) {
		s := NewStore(Options{})
		snaps := NewMemorySnapshotStore()
		if err := SeedingFunc(s, snaps, nil, NewMemorySeedTracker(), nil)(ctx); err != nil {
			t.Fatalf("start error = %v", err)
		}
		if len(s.Ingredients()) != 0 || snaps.Saves() != 0 {
			t.Error("nothing should be seeded or saved")
		}
	})
}

func TestSnapshotRevisionsGrow(t *testing.T) {
	s := newTestStore(t)
	first := s.Snapshot()
	second := s.Snapshot()
	if second.Revision <= first.Revision {
		t.Fatalf("revisions %d then %d, want growing", first.Revision, second.Revision)
	}

	restored := NewStore(Options{})
	if err := restored.Restore(second); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if next := restored.Snapshot(); next.Revision <= second.Revision {
		t.Errorf("revision after restore = %d, want above %d", next.Revision, second.Revision)
	}
}

func TestPersisterDropsStaleSnapshots(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	snaps := NewMemorySnapshotStore()
	p := NewPersister(s, snaps)

	older := s.Snapshot()
	if _, err := s.SendToKitchen("T1", []OrderItem{{PlateID: "p1", Qty: 1}}); err != nil {
		t.Fatal(err)
	}
	newer := s.Snapshot()

	// The request that snapshotted last finishes first.
	if saved, err := p.Save(ctx, newer); err != nil || !saved {
		t.Fatalf("Save(newer) = %v, %v", saved, err)
	}
	if saved, err := p.Save(ctx, older); err != nil || saved {
		t.Fatalf("Save(older) = %v, %v, want skipped", saved, err)
	}

	stored, _ := snaps.Load(ctx)
	if stored.Revision != newer.Revision || len(stored.Orders) != 1 {
		t.Errorf("stored revision %d with %d orders, want %d with 1", stored.Revision, len(stored.Orders), newer.Revision)
	}
	if snaps.Saves() != 1 {
		t.Errorf("saves = %d, want 1", snaps.Saves())
	}
	if p.Revision() != newer.Revision {
		t.Errorf("Revision() = %d, want %d", p.Revision(), newer.Revision)
	}
}

func TestPersisterConcurrentWritesKeepNewest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	snaps := NewMemorySnapshotStore()
	p := NewPersister(s, snaps)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Persist(ctx); err != nil {
				t.Errorf("Persist() error = %v", err)
			}
		}()
	}
	wg.Wait()

	stored, _ := snaps.Load(ctx)
	if stored.Revision != p.Revision() {
		t.Errorf("stored revision %d, persister at %d", stored.Revision, p.Revision())
	}
	if last := s.Snapshot().Revision; stored.Revision >= last {
		t.Errorf("stored revision %d should be below a fresh snapshot %d", stored.Revision, last)
	}
}

func TestMemorySnapshotStoreRejectsOlderRevision(t *testing.T) {
	ctx := context.Background()
	m := NewMemorySnapshotStore()
	if err := m.Save(ctx, &Snapshot{Revision: 5}); err != nil {
		t.Fatalf("Save(5) error = %v", err)
	}

	tests := []struct {
		name     string
		revision uint64
		wantErr  error
	}{
		{name: "older", revision: 4, wantErr: ErrStaleSnapshot},
		{name: "same", revision: 5, wantErr: ErrStaleSnapshot},
		{name: "newer", revision: 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Save(ctx, &Snapshot{Revision: tt.revision})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Save(%d) error = %v, want %v", tt.revision, err, tt.wantErr)
			}
		})
	}
}

func TestMemorySeedTrackerAppliesOnce(t *testing.T) {
	ctx := context.Background()
	tracker := NewMemorySeedTracker()
	runs := 0
	seeds := []seed.Seed{{ID: "s1", Run: func(context.Context) error { runs++; return nil }}}

	for i := 0; i < 2; i++ {
		if err := seed.Apply(ctx, tracker, seeds, "ledger"); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
	}
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
}
