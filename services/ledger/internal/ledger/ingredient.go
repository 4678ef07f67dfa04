package ledger

import (
	"time"

	"github.com/appetiteclub/apt"
)

const (
	DefaultIngredientCategory = "Vegetales"
	DefaultIngredientIcon     = "📦"
	DefaultMinQty             = 1000.0
	DefaultCriticalQty        = 500.0
	// DefaultUnitPrice keeps new ingredients away from a zero price until
	// their first purchase.
	DefaultUnitPrice = 0.01
)

// Ingredient quantities are grams, prices are currency per gram.
type Ingredient struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Category    string    `json:"category" bson:"category"`
	CurrentQty  float64   `json:"current_qty" bson:"current_qty"`
	UnitPrice   float64   `json:"unit_price" bson:"unit_price"`
	MinQty      float64   `json:"min_qty" bson:"min_qty"`
	CriticalQty float64   `json:"critical_qty" bson:"critical_qty"`
	Icon        string    `json:"icon" bson:"icon"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

func (i *Ingredient) GetID() string {
	return i.ID
}

func (i *Ingredient) ResourceType() string {
	return "ingredient"
}

func NewIngredient() *Ingredient {
	return &Ingredient{
		ID:          apt.GenerateNewID().String(),
		Category:    DefaultIngredientCategory,
		Icon:        DefaultIngredientIcon,
		UnitPrice:   DefaultUnitPrice,
		MinQty:      DefaultMinQty,
		CriticalQty: DefaultCriticalQty,
	}
}

func (i *Ingredient) EnsureID() {
	if i.ID == "" {
		i.ID = apt.GenerateNewID().String()
	}
}

func (i *Ingredient) BeforeCreate() {
	i.EnsureID()
	i.CreatedAt = time.Now()
	i.UpdatedAt = i.CreatedAt
}

func (i *Ingredient) BeforeUpdate() {
	i.UpdatedAt = time.Now()
}

// Purchase is one entry of the append-only purchase log.
type Purchase struct {
	ID              string    `json:"id" bson:"_id"`
	IngredientID    string    `json:"ingredient_id" bson:"ingredient_id"`
	Quantity        float64   `json:"quantity" bson:"quantity"`
	Unit            string    `json:"unit" bson:"unit"`
	Grams           float64   `json:"grams" bson:"grams"`
	TotalPrice      float64   `json:"total_price" bson:"total_price"`
	IncomingPrice   float64   `json:"incoming_unit_price" bson:"incoming_unit_price"`
	UnitPriceBefore float64   `json:"unit_price_before" bson:"unit_price_before"`
	UnitPriceAfter  float64   `json:"unit_price_after" bson:"unit_price_after"`
	QtyBefore       float64   `json:"qty_before" bson:"qty_before"`
	QtyAfter        float64   `json:"qty_after" bson:"qty_after"`
	At              time.Time `json:"at" bson:"at"`
}

func (p *Purchase) GetID() string {
	return p.ID
}

func (p *Purchase) ResourceType() string {
	return "purchase"
}
