package alerts

import (
	"sort"
	"sync"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/controlrest/pkg/enums/stocktier"
	"github.com/appetiteclub/controlrest/services/ledger/internal/ledger"
)

// Alert is the board entry for one ingredient.
type Alert struct {
	IngredientID string    `json:"ingredient_id"`
	Name         string    `json:"name"`
	Icon         string    `json:"icon,omitempty"`
	CurrentQty   float64   `json:"current_qty"`
	MinQty       float64   `json:"min_qty"`
	CriticalQty  float64   `json:"critical_qty"`
	Tier         string    `json:"tier"`
	TierLabel    string    `json:"tier_label"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (a *Alert) GetID() string {
	return a.IngredientID
}

func (a *Alert) ResourceType() string {
	return "alert"
}

func (a Alert) severity() int {
	if t := stocktier.ByName(a.Tier); t != nil {
		return t.Severity
	}
	return 0
}

// IngredientSource is the ledger the board classifies from.
type IngredientSource interface {
	Ingredients() []ledger.Ingredient
	Ingredient(id string) (ledger.Ingredient, error)
}

// Board holds the stock tier of every ingredient it has heard of. With a
// source, reads classify the source's current stock and cached entries only
// cover ingredients the source does not know. Without one, the newest event
// per ingredient wins.
type Board struct {
	mu     sync.RWMutex
	state  map[string]Alert
	source IngredientSource
	logger apt.Logger
}

func NewBoard(source IngredientSource, logger apt.Logger) *Board {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Board{
		state:  make(map[string]Alert),
		source: source,
		logger: logger,
	}
}

func (b *Board) Warm() {
	if b.source == nil {
		return
	}
	for _, ing := range b.source.Ingredients() {
		b.Set(alertFor(ing))
	}
}

func (b *Board) Get(ingredientID string) (Alert, bool) {
	if b.source != nil {
		if ing, err := b.source.Ingredient(ingredientID); err == nil {
			return alertFor(ing), true
		}
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.state[ingredientID]
	return a, ok
}

// Set records a, unless the board already holds a newer entry for the same
// ingredient. It reports whether a was kept.
func (b *Board) Set(a Alert) bool {
	if a.IngredientID == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if cur, ok := b.state[a.IngredientID]; ok && cur.UpdatedAt.After(a.UpdatedAt) {
		return false
	}
	b.state[a.IngredientID] = a
	return true
}

// Refresh reclassifies one ingredient from the source. It reports false when
// there is no source or the source does not know the ingredient.
func (b *Board) Refresh(ingredientID string) (Alert, bool) {
	if b.source == nil {
		return Alert{}, false
	}
	ing, err := b.source.Ingredient(ingredientID)
	if err != nil {
		return Alert{}, false
	}
	a := alertFor(ing)
	b.mu.Lock()
	b.state[a.IngredientID] = a
	b.mu.Unlock()
	return a, true
}

// List returns the ingredients that need restocking, critical first and then
// by name.
func (b *Board) List() []Alert {
	current := map[string]Alert{}
	if b.source != nil {
		for _, ing := range b.source.Ingredients() {
			current[ing.ID] = alertFor(ing)
		}
	}

	b.mu.RLock()
	for id, a := range b.state {
		if _, known := current[id]; !known {
			current[id] = a
		}
	}
	b.mu.RUnlock()

	out := make([]Alert, 0, len(current))
	for _, a := range current {
		if a.severity() > 0 {
			out = append(out, a)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		si, sj := out[i].severity(), out[j].severity()
		if si != sj {
			return si > sj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func alertFor(ing ledger.Ingredient) Alert {
	tier := ledger.Classify(ing)
	return Alert{
		IngredientID: ing.ID,
		Name:         ing.Name,
		Icon:         ing.Icon,
		CurrentQty:   ing.CurrentQty,
		MinQty:       ing.MinQty,
		CriticalQty:  ing.CriticalQty,
		Tier:         tier.Code(),
		TierLabel:    tier.Label(),
		UpdatedAt:    ing.UpdatedAt,
	}
}
