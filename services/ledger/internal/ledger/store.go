package ledger

import (
	"math"
	"sync"
	"sync/atomic"
)

// DefaultHealthyMargin is the margin percentage above which a plate is
// considered healthy.
const DefaultHealthyMargin = 70.0

type Options struct {
	HealthyMargin float64
}

// Store owns the ledger state. The catalog (ingredients, plates, purchase log)
// and the floor (tables, orders) each have their own lock. Operations that
// need both take the floor lock first.
type Store struct {
	opts Options

	catalogMu   sync.RWMutex
	ingredients []*Ingredient
	ingByID     map[string]*Ingredient
	plates      []*Plate
	plateByID   map[string]*Plate
	purchases   []Purchase

	floorMu   sync.RWMutex
	tables    []*Table
	tableByID map[string]*Table
	orders    []*Order
	orderByID map[string]*Order

	revision atomic.Uint64
}

func NewStore(opts Options) *Store {
	if opts.HealthyMargin <= 0 {
		opts.HealthyMargin = DefaultHealthyMargin
	}
	return &Store{
		opts:      opts,
		ingByID:   map[string]*Ingredient{},
		plateByID: map[string]*Plate{},
		tableByID: map[string]*Table{},
		orderByID: map[string]*Order{},
	}
}

func (s *Store) HealthyMargin() float64 {
	return s.opts.HealthyMargin
}

func (s *Store) Ingredients() []Ingredient {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()

	out := make([]Ingredient, 0, len(s.ingredients))
	for _, ing := range s.ingredients {
		out = append(out, *ing)
	}
	return out
}

func (s *Store) Ingredient(id string) (Ingredient, error) {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()

	ing, ok := s.ingByID[id]
	if !ok {
		return Ingredient{}, notFound("ingredient", id)
	}
	return *ing, nil
}

// Purchases lists the purchase log of one ingredient, oldest first.
func (s *Store) Purchases(ingredientID string) ([]Purchase, error) {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()

	if _, ok := s.ingByID[ingredientID]; !ok {
		return nil, notFound("ingredient", ingredientID)
	}
	out := []Purchase{}
	for _, p := range s.purchases {
		if p.IngredientID == ingredientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) Plates() []Plate {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()

	out := make([]Plate, 0, len(s.plates))
	for _, p := range s.plates {
		out = append(out, p.clone())
	}
	return out
}

func (s *Store) Plate(id string) (Plate, error) {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()

	p, ok := s.plateByID[id]
	if !ok {
		return Plate{}, notFound("plate", id)
	}
	return p.clone(), nil
}

func (s *Store) Tables() []Table {
	s.floorMu.RLock()
	defer s.floorMu.RUnlock()

	out := make([]Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, *t)
	}
	return out
}

func (s *Store) Table(id string) (Table, error) {
	s.floorMu.RLock()
	defer s.floorMu.RUnlock()

	t, ok := s.tableByID[id]
	if !ok {
		return Table{}, notFound("table", id)
	}
	return *t, nil
}

// Orders lists orders in creation order. An empty status lists all of them.
func (s *Store) Orders(status OrderStatus) []Order {
	s.floorMu.RLock()
	defer s.floorMu.RUnlock()

	out := []Order{}
	for _, o := range s.orders {
		if status == "" || o.Status == status {
			out = append(out, o.clone())
		}
	}
	return out
}

func (s *Store) Order(id string) (Order, error) {
	s.floorMu.RLock()
	defer s.floorMu.RUnlock()

	o, ok := s.orderByID[id]
	if !ok {
		return Order{}, notFound("order", id)
	}
	return o.clone(), nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
