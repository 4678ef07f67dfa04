package ledger

import (
	"strings"
)

// DraftPlate opens a draft over a stored plate.
func (s *Store) DraftPlate(id string) (*PlateDraft, error) {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()

	p, ok := s.plateByID[id]
	if !ok {
		return nil, notFound("plate", id)
	}
	return draftOf(*p), nil
}

// PreviewCosting prices a draft without saving it.
func (s *Store) PreviewCosting(d *PlateDraft) PlateCosting {
	return s.Costing(d.plate)
}

// SavePlate commits a draft. Drafts without an id create a new plate; others
// replace the stored plate wholesale.
func (s *Store) SavePlate(d *PlateDraft) (Plate, error) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	return s.commitLocked(d)
}

// EditPlate applies fn to a draft of the stored plate and commits it, all
// under the catalog lock.
func (s *Store) EditPlate(id string, fn func(d *PlateDraft) error) (Plate, error) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()

	p, ok := s.plateByID[id]
	if !ok {
		return Plate{}, notFound("plate", id)
	}
	d := draftOf(*p)
	if err := fn(d); err != nil {
		return Plate{}, err
	}
	return s.commitLocked(d)
}

// AddIngredientToRecipe adds an ingredient to a stored plate. A duplicate is
// a no-op.
func (s *Store) AddIngredientToRecipe(plateID, ingredientID string, qty float64) (Plate, error) {
	return s.EditPlate(plateID, func(d *PlateDraft) error {
		d.AddIngredient(ingredientID, qty)
		return nil
	})
}

func (s *Store) UpdateIngredientQty(plateID, ingredientID string, qty float64) (Plate, error) {
	return s.EditPlate(plateID, func(d *PlateDraft) error {
		return d.UpdateIngredientQty(ingredientID, qty)
	})
}

func (s *Store) RemoveIngredientFromRecipe(plateID, ingredientID string) (Plate, error) {
	return s.EditPlate(plateID, func(d *PlateDraft) error {
		d.RemoveIngredient(ingredientID)
		return nil
	})
}

func (s *Store) SetPlateStatus(id string, status PlateStatus) (Plate, error) {
	if !status.Valid() {
		return Plate{}, invalid("unknown plate status %q", status)
	}
	return s.EditPlate(id, func(d *PlateDraft) error {
		d.SetStatus(status)
		return nil
	})
}

func (s *Store) commitLocked(d *PlateDraft) (Plate, error) {
	next := d.plate.clone()

	var stored *Plate
	if next.ID != "" {
		p, ok := s.plateByID[next.ID]
		if !ok {
			return Plate{}, notFound("plate", next.ID)
		}
		stored = p
	}

	if strings.TrimSpace(next.Name) == "" {
		return Plate{}, invalid("plate name is required")
	}
	if !positive(next.SellingPrice) {
		return Plate{}, invalid("selling price must be greater than 0")
	}
	if next.Status == "" {
		next.Status = PlateActive
	}
	if !next.Status.Valid() {
		return Plate{}, invalid("unknown plate status %q", next.Status)
	}

	seen := map[string]bool{}
	for _, pi := range next.Ingredients {
		if seen[pi.IngredientID] {
			return Plate{}, invalid("ingredient %q appears twice", pi.IngredientID)
		}
		seen[pi.IngredientID] = true
		if !positive(pi.Qty) {
			return Plate{}, invalid("qty for ingredient %q must be greater than 0", pi.IngredientID)
		}
		if _, ok := s.ingByID[pi.IngredientID]; ok {
			continue
		}
		// References that already dangled in the stored plate are tolerated.
		if stored != nil {
			if _, had := stored.IngredientQty(pi.IngredientID); had {
				continue
			}
		}
		return Plate{}, invalid("unknown ingredient %q", pi.IngredientID)
	}

	if stored == nil {
		p := next
		p.BeforeCreate()
		s.plates = append(s.plates, &p)
		s.plateByID[p.ID] = &p
		d.plate.ID = p.ID
		return p.clone(), nil
	}

	next.CreatedAt = stored.CreatedAt
	next.BeforeUpdate()
	*stored = next
	return stored.clone(), nil
}
