package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Snapshot is the full ledger state as handed to a SnapshotStore. Revision
// grows with every snapshot taken, so a store can refuse to go backwards.
type Snapshot struct {
	Revision    uint64       `json:"revision" bson:"revision"`
	Ingredients []Ingredient `json:"ingredients" bson:"ingredients"`
	Plates      []Plate      `json:"plates" bson:"plates"`
	Tables      []Table      `json:"tables" bson:"tables"`
	Orders      []Order      `json:"orders" bson:"orders"`
	Purchases   []Purchase   `json:"purchases" bson:"purchases"`
	SavedAt     time.Time    `json:"saved_at" bson:"saved_at"`
}

func (s *Snapshot) IsEmpty() bool {
	return s == nil || (len(s.Ingredients) == 0 && len(s.Plates) == 0 && len(s.Tables) == 0 && len(s.Orders) == 0)
}

// SnapshotStore is the save/load contract for durability. Load returns a nil
// snapshot when nothing was saved yet. Save writes the whole snapshot in one
// atomic step and returns ErrStaleSnapshot when a newer revision is stored.
type SnapshotStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// Snapshot copies the current state.
func (s *Store) Snapshot() *Snapshot {
	s.floorMu.RLock()
	defer s.floorMu.RUnlock()
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()

	snap := &Snapshot{
		Ingredients: make([]Ingredient, 0, len(s.ingredients)),
		Plates:      make([]Plate, 0, len(s.plates)),
		Tables:      make([]Table, 0, len(s.tables)),
		Orders:      make([]Order, 0, len(s.orders)),
		Purchases:   append([]Purchase{}, s.purchases...),
		SavedAt:     time.Now().UTC(),
		// Taken under both locks: a later revision never holds older state.
		Revision: s.revision.Add(1),
	}
	for _, ing := range s.ingredients {
		snap.Ingredients = append(snap.Ingredients, *ing)
	}
	for _, p := range s.plates {
		snap.Plates = append(snap.Plates, p.clone())
	}
	for _, t := range s.tables {
		snap.Tables = append(snap.Tables, *t)
	}
	for _, o := range s.orders {
		snap.Orders = append(snap.Orders, o.clone())
	}
	return snap
}

// Restore replaces the whole state with snap after validating it. On error
// the current state is kept.
func (s *Store) Restore(snap *Snapshot) error {
	if snap == nil {
		return invalid("snapshot is nil")
	}

	ingredients := make([]*Ingredient, 0, len(snap.Ingredients))
	ingByID := map[string]*Ingredient{}
	for _, in := range snap.Ingredients {
		ing := in
		if strings.TrimSpace(ing.ID) == "" || strings.TrimSpace(ing.Name) == "" {
			return invalid("ingredient without id or name")
		}
		if _, dup := ingByID[ing.ID]; dup {
			return invalid("duplicate ingredient %q", ing.ID)
		}
		if ing.CurrentQty < 0 || ing.UnitPrice < 0 {
			return invalid("ingredient %q has negative stock or price", ing.ID)
		}
		if ing.CriticalQty > ing.MinQty {
			return invalid("ingredient %q has critical qty above min qty", ing.ID)
		}
		ingredients = append(ingredients, &ing)
		ingByID[ing.ID] = &ing
	}

	plates := make([]*Plate, 0, len(snap.Plates))
	plateByID := map[string]*Plate{}
	for _, in := range snap.Plates {
		p := in.clone()
		if strings.TrimSpace(p.ID) == "" {
			return invalid("plate without id")
		}
		if _, dup := plateByID[p.ID]; dup {
			return invalid("duplicate plate %q", p.ID)
		}
		if p.Status == "" {
			p.Status = PlateActive
		}
		if !p.Status.Valid() {
			return invalid("plate %q has unknown status %q", p.ID, p.Status)
		}
		seen := map[string]bool{}
		for _, pi := range p.Ingredients {
			if seen[pi.IngredientID] {
				return invalid("plate %q lists ingredient %q twice", p.ID, pi.IngredientID)
			}
			seen[pi.IngredientID] = true
		}
		plates = append(plates, &p)
		plateByID[p.ID] = &p
	}

	tables := make([]*Table, 0, len(snap.Tables))
	tableByID := map[string]*Table{}
	for _, in := range snap.Tables {
		t := in
		if strings.TrimSpace(t.ID) == "" {
			return invalid("table without id")
		}
		if _, dup := tableByID[t.ID]; dup {
			return invalid("duplicate table %q", t.ID)
		}
		if t.Status == "" {
			t.Status = TableAvailable
		}
		if !t.Status.Valid() {
			return invalid("table %q has unknown status %q", t.ID, t.Status)
		}
		tables = append(tables, &t)
		tableByID[t.ID] = &t
	}

	orders := make([]*Order, 0, len(snap.Orders))
	orderByID := map[string]*Order{}
	for _, in := range snap.Orders {
		o := in.clone()
		if strings.TrimSpace(o.ID) == "" {
			return invalid("order without id")
		}
		if _, dup := orderByID[o.ID]; dup {
			return invalid("duplicate order %q", o.ID)
		}
		if !o.Status.Valid() {
			return invalid("order %q has unknown status %q", o.ID, o.Status)
		}
		orders = append(orders, &o)
		orderByID[o.ID] = &o
	}

	if problems := checkFloor(tables, orderByID); len(problems) > 0 {
		return invalid("inconsistent floor: %s", strings.Join(problems, "; "))
	}

	s.floorMu.Lock()
	defer s.floorMu.Unlock()
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()

	s.ingredients, s.ingByID = ingredients, ingByID
	s.plates, s.plateByID = plates, plateByID
	s.purchases = append([]Purchase{}, snap.Purchases...)
	s.tables, s.tableByID = tables, tableByID
	s.orders, s.orderByID = orders, orderByID
	if snap.Revision > s.revision.Load() {
		s.revision.Store(snap.Revision)
	}
	return nil
}

// Persister serializes snapshot writes for one store. Snapshots are taken
// outside its lock, so two requests can finish out of order; the older one is
// dropped instead of overwriting newer state.
type Persister struct {
	store     *Store
	snapshots SnapshotStore

	mu    sync.Mutex
	saved uint64
}

func NewPersister(store *Store, snapshots SnapshotStore) *Persister {
	return &Persister{store: store, snapshots: snapshots}
}

// Persist snapshots the store and saves it.
func (p *Persister) Persist(ctx context.Context) (bool, error) {
	return p.Save(ctx, p.store.Snapshot())
}

// Save writes snap unless a newer revision was already written. It reports
// whether the write happened.
func (p *Persister) Save(ctx context.Context, snap *Snapshot) (bool, error) {
	if p == nil || p.snapshots == nil {
		return false, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if snap.Revision <= p.saved {
		return false, nil
	}
	err := p.snapshots.Save(ctx, snap)
	if errors.Is(err, ErrStaleSnapshot) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	p.saved = snap.Revision
	return true, nil
}

// Revision is the last revision written.
func (p *Persister) Revision() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved
}

// MemorySnapshotStore keeps the last saved snapshot in process memory.
type MemorySnapshotStore struct {
	mu    sync.Mutex
	snap  *Snapshot
	saves int
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

func (m *MemorySnapshotStore) Load(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, nil
	}
	cp := *m.snap
	return &cp, nil
}

func (m *MemorySnapshotStore) Save(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("cannot save nil snapshot")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap != nil && snap.Revision <= m.snap.Revision {
		return fmt.Errorf("%w: revision %d, stored %d", ErrStaleSnapshot, snap.Revision, m.snap.Revision)
	}
	cp := *snap
	m.snap = &cp
	m.saves++
	return nil
}

// Saves reports how many snapshots were written.
func (m *MemorySnapshotStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
