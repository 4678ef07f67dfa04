package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
)

const seedApplication = "ledger"

type bootstrapSeedDocument struct {
	Ingredients []ingredientSeed `json:"ingredients"`
	Plates      []plateSeed      `json:"plates"`
	Tables      []tableSeed      `json:"tables"`
}

type ingredientSeed struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	CurrentQty  float64 `json:"current_qty"`
	UnitPrice   float64 `json:"unit_price"`
	MinQty      float64 `json:"min_qty"`
	CriticalQty float64 `json:"critical_qty"`
	Icon        string  `json:"icon"`
}

type plateSeed struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Category     string            `json:"category"`
	SellingPrice float64           `json:"selling_price"`
	Status       string            `json:"status"`
	Image        string            `json:"image"`
	Ingredients  []PlateIngredient `json:"ingredients"`
}

type tableSeed struct {
	ID     string `json:"id"`
	Seats  int    `json:"seats"`
	Status string `json:"status"`
}

// ParseSeed turns a seed document into a snapshot. Seeded tables may only be
// available or reserved; nothing seeds orders.
func ParseSeed(data []byte) (*Snapshot, error) {
	if len(data) == 0 {
		return nil, errors.New("seed document is empty")
	}
	var doc bootstrapSeedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode seed document: %w", err)
	}

	snap := &Snapshot{}
	for _, s := range doc.Ingredients {
		ing := NewIngredient()
		ing.ID = s.ID
		ing.Name = s.Name
		if s.Category != "" {
			ing.Category = s.Category
		}
		if s.Icon != "" {
			ing.Icon = s.Icon
		}
		ing.CurrentQty = s.CurrentQty
		if s.UnitPrice > 0 {
			ing.UnitPrice = s.UnitPrice
		}
		ing.MinQty = s.MinQty
		ing.CriticalQty = s.CriticalQty
		ing.BeforeCreate()
		snap.Ingredients = append(snap.Ingredients, *ing)
	}
	for _, s := range doc.Plates {
		p := Plate{
			ID:           s.ID,
			Name:         s.Name,
			Category:     s.Category,
			SellingPrice: s.SellingPrice,
			Status:       PlateStatus(s.Status),
			Image:        s.Image,
			Ingredients:  append([]PlateIngredient(nil), s.Ingredients...),
		}
		p.BeforeCreate()
		snap.Plates = append(snap.Plates, p)
	}
	for _, s := range doc.Tables {
		t := NewTable(s.ID, s.Seats)
		if s.Status != "" {
			t.Status = TableStatus(s.Status)
		}
		if t.Status != TableAvailable && t.Status != TableReserved {
			return nil, fmt.Errorf("seed table %s: status %q cannot be seeded", s.ID, s.Status)
		}
		snap.Tables = append(snap.Tables, *t)
	}
	return snap, nil
}

// Merge adds every entity of snap whose id is not yet known, leaving existing
// ones untouched. It returns how many entities were added. Meant for startup,
// before the ledger takes traffic.
func (s *Store) Merge(snap *Snapshot) (int, error) {
	current := s.Snapshot()
	added := 0

	ingIDs := map[string]bool{}
	for _, ing := range current.Ingredients {
		ingIDs[ing.ID] = true
	}
	for _, ing := range snap.Ingredients {
		if !ingIDs[ing.ID] {
			current.Ingredients = append(current.Ingredients, ing)
			added++
		}
	}

	plateIDs := map[string]bool{}
	for _, p := range current.Plates {
		plateIDs[p.ID] = true
	}
	for _, p := range snap.Plates {
		if !plateIDs[p.ID] {
			current.Plates = append(current.Plates, p)
			added++
		}
	}

	tableIDs := map[string]bool{}
	for _, t := range current.Tables {
		tableIDs[t.ID] = true
	}
	for _, t := range snap.Tables {
		if !tableIDs[t.ID] {
			current.Tables = append(current.Tables, t)
			added++
		}
	}

	if added == 0 {
		return 0, nil
	}
	if err := s.Restore(current); err != nil {
		return 0, err
	}
	return added, nil
}

// Seeds returns the bootstrap seeds for the ledger: the catalog first, the
// floor second.
func Seeds(store *Store, snap *Snapshot, logger apt.Logger) []seed.Seed {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	catalog := &Snapshot{Ingredients: snap.Ingredients, Plates: snap.Plates}
	floor := &Snapshot{Tables: snap.Tables}

	return []seed.Seed{
		{
			ID:          "2026-10-01_ledger_catalog",
			Description: "Load starter ingredients and plates",
			Run: func(ctx context.Context) error {
				n, err := store.Merge(catalog)
				if err != nil {
					return err
				}
				logger.Info("catalog seeded", "added", n)
				return nil
			},
		},
		{
			ID:          "2026-10-01_ledger_floor",
			Description: "Load dining room tables",
			Run: func(ctx context.Context) error {
				n, err := store.Merge(floor)
				if err != nil {
					return err
				}
				logger.Info("floor seeded", "added", n)
				return nil
			},
		},
	}
}

// ApplySeeds parses the seed document and applies it once per tracker.
func ApplySeeds(ctx context.Context, store *Store, data []byte, tracker seed.Tracker, logger apt.Logger) error {
	if store == nil {
		return errors.New("ledger store is required")
	}
	snap, err := ParseSeed(data)
	if err != nil {
		return err
	}
	return seed.Apply(ctx, tracker, Seeds(store, snap, logger), seedApplication)
}

// SeedingFunc returns a lifecycle OnStart hook that loads the last snapshot
// and then applies the seeds, saving the result when anything changed.
func SeedingFunc(store *Store, snapshots SnapshotStore, data []byte, tracker seed.Tracker, logger apt.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return func(ctx context.Context) error {
		if snapshots != nil {
			snap, err := snapshots.Load(ctx)
			if err != nil {
				return fmt.Errorf("cannot load ledger snapshot: %w", err)
			}
			if !snap.IsEmpty() {
				if err := store.Restore(snap); err != nil {
					return fmt.Errorf("cannot restore ledger snapshot: %w", err)
				}
				logger.Info("ledger restored from snapshot", "saved_at", snap.SavedAt)
			}
		}

		if data == nil {
			return nil
		}
		before := len(store.Ingredients()) + len(store.Plates()) + len(store.Tables())
		if err := ApplySeeds(ctx, store, data, tracker, logger); err != nil {
			return err
		}
		after := len(store.Ingredients()) + len(store.Plates()) + len(store.Tables())
		if after != before && snapshots != nil {
			if err := snapshots.Save(ctx, store.Snapshot()); err != nil {
				return fmt.Errorf("cannot save seeded ledger: %w", err)
			}
		}
		return nil
	}
}
