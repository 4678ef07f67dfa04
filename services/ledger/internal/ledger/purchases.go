package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/controlrest/pkg/enums/stocktier"
	"github.com/appetiteclub/controlrest/pkg/enums/unit"
)

// Restock is the outcome of a registered purchase.
type Restock struct {
	Purchase     Purchase
	Ingredient   Ingredient
	Tier         stocktier.Tier
	PreviousTier stocktier.Tier
}

// CreateIngredient appends a new ingredient with zero stock and the default
// unit price. Empty category and icon take defaults; when both thresholds are
// zero they take the default thresholds too.
func (s *Store) CreateIngredient(name, category string, minQty, criticalQty float64, icon string) (Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Ingredient{}, invalid("ingredient name is required")
	}
	if minQty < 0 || criticalQty < 0 {
		return Ingredient{}, invalid("thresholds cannot be negative")
	}

	ing := NewIngredient()
	ing.Name = name
	if c := strings.TrimSpace(category); c != "" {
		ing.Category = c
	}
	if i := strings.TrimSpace(icon); i != "" {
		ing.Icon = i
	}
	if minQty != 0 || criticalQty != 0 {
		ing.MinQty = minQty
		ing.CriticalQty = criticalQty
	}
	if ing.CriticalQty > ing.MinQty {
		return Ingredient{}, invalid("critical qty %.2f exceeds min qty %.2f", ing.CriticalQty, ing.MinQty)
	}
	ing.BeforeCreate()

	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()

	s.ingredients = append(s.ingredients, ing)
	s.ingByID[ing.ID] = ing
	return *ing, nil
}

// RegisterPurchase adds stock to an ingredient and blends its unit price.
//
// The new unit price is the plain mean of the old price and the purchase's
// price per gram, regardless of the quantities involved. This two-point
// average is intentional and kept as is.
func (s *Store) RegisterPurchase(ingredientID string, quantity float64, unitName string, totalPrice float64) (Restock, error) {
	if !positive(quantity) {
		return Restock{}, invalid("quantity must be greater than 0")
	}
	if !positive(totalPrice) {
		return Restock{}, invalid("total price must be greater than 0")
	}
	u := unit.ByName(unitName)
	if u == nil {
		return Restock{}, invalid("unknown unit %q, want one of %s", unitName, strings.Join(unit.Names(), ", "))
	}
	grams := u.ToGrams(quantity)

	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()

	ing, ok := s.ingByID[ingredientID]
	if !ok {
		return Restock{}, fmt.Errorf("%w: %w", ErrInvalidInput, notFound("ingredient", ingredientID))
	}

	prevTier := Classify(*ing)
	incoming := totalPrice / grams
	p := Purchase{
		ID:              apt.GenerateNewID().String(),
		IngredientID:    ing.ID,
		Quantity:        quantity,
		Unit:            u.Code(),
		Grams:           grams,
		TotalPrice:      totalPrice,
		IncomingPrice:   incoming,
		UnitPriceBefore: ing.UnitPrice,
		QtyBefore:       ing.CurrentQty,
		At:              time.Now(),
	}

	ing.CurrentQty += grams
	ing.UnitPrice = (ing.UnitPrice + incoming) / 2
	ing.BeforeUpdate()

	p.UnitPriceAfter = ing.UnitPrice
	p.QtyAfter = ing.CurrentQty
	s.purchases = append(s.purchases, p)

	return Restock{
		Purchase:     p,
		Ingredient:   *ing,
		Tier:         Classify(*ing),
		PreviousTier: prevTier,
	}, nil
}
