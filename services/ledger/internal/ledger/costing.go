package ledger

type MarginHealth string

const (
	MarginHealthy        MarginHealth = "healthy"
	MarginNeedsAttention MarginHealth = "needs-attention"
)

// PriceLookup returns the current unit price of an ingredient.
type PriceLookup func(ingredientID string) (float64, bool)

type PlateCosting struct {
	PlateID string       `json:"plate_id,omitempty"`
	Cost    float64      `json:"cost"`
	Margin  float64      `json:"margin"`
	Health  MarginHealth `json:"health"`
	// Missing lists referenced ingredients that no longer resolve.
	Missing []string `json:"missing,omitempty"`
}

// ComputeCost sums qty × unit price over the composition. Unknown
// ingredients contribute zero.
func ComputeCost(p Plate, price PriceLookup) float64 {
	var cost float64
	for _, pi := range p.Ingredients {
		if up, ok := price(pi.IngredientID); ok {
			cost += pi.Qty * up
		}
	}
	return cost
}

// ComputeMargin is the percentage of the selling price left after cost, or
// zero for plates without a positive selling price.
func ComputeMargin(p Plate, cost float64) float64 {
	if p.SellingPrice <= 0 {
		return 0
	}
	return (p.SellingPrice - cost) / p.SellingPrice * 100
}

func ClassifyMargin(margin, healthyAbove float64) MarginHealth {
	if margin > healthyAbove {
		return MarginHealthy
	}
	return MarginNeedsAttention
}

// ComputeCost prices a plate with current ingredient prices.
func (s *Store) ComputeCost(p Plate) float64 {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()
	return ComputeCost(p, s.priceLocked)
}

func (s *Store) ComputeMargin(p Plate) float64 {
	return ComputeMargin(p, s.ComputeCost(p))
}

// Costing derives cost, margin and health for any plate value, stored or not.
func (s *Store) Costing(p Plate) PlateCosting {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()
	return s.costingLocked(p)
}

func (s *Store) PlateCosting(id string) (PlateCosting, error) {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()

	p, ok := s.plateByID[id]
	if !ok {
		return PlateCosting{}, notFound("plate", id)
	}
	return s.costingLocked(*p), nil
}

func (s *Store) costingLocked(p Plate) PlateCosting {
	cost := ComputeCost(p, s.priceLocked)
	margin := ComputeMargin(p, cost)
	pc := PlateCosting{
		PlateID: p.ID,
		Cost:    cost,
		Margin:  margin,
		Health:  ClassifyMargin(margin, s.opts.HealthyMargin),
	}
	for _, pi := range p.Ingredients {
		if _, ok := s.ingByID[pi.IngredientID]; !ok {
			pc.Missing = append(pc.Missing, pi.IngredientID)
		}
	}
	return pc
}

func (s *Store) priceLocked(ingredientID string) (float64, bool) {
	ing, ok := s.ingByID[ingredientID]
	if !ok {
		return 0, false
	}
	return ing.UnitPrice, true
}
