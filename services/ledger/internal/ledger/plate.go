package ledger

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/shopspring/decimal"
)

type PlateStatus string

const (
	PlateActive   PlateStatus = "active"
	PlateInactive PlateStatus = "inactive"
)

func (s PlateStatus) Valid() bool {
	return s == PlateActive || s == PlateInactive
}

// PlateIngredient is a weak reference: the ingredient may be missing at read
// time and then contributes nothing to cost.
type PlateIngredient struct {
	IngredientID string  `json:"ingredient_id" bson:"ingredient_id"`
	Qty          float64 `json:"qty" bson:"qty"`
}

type Plate struct {
	ID           string            `json:"id" bson:"_id"`
	Name         string            `json:"name" bson:"name"`
	Category     string            `json:"category" bson:"category"`
	SellingPrice float64           `json:"selling_price" bson:"selling_price"`
	Ingredients  []PlateIngredient `json:"ingredients" bson:"ingredients"`
	Status       PlateStatus       `json:"status" bson:"status"`
	Image        string            `json:"image,omitempty" bson:"image,omitempty"`
	CreatedAt    time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" bson:"updated_at"`
}

func (p *Plate) GetID() string {
	return p.ID
}

func (p *Plate) ResourceType() string {
	return "plate"
}

func (p *Plate) EnsureID() {
	if p.ID == "" {
		p.ID = apt.GenerateNewID().String()
	}
}

func (p *Plate) BeforeCreate() {
	p.EnsureID()
	if p.Status == "" {
		p.Status = PlateActive
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
}

func (p *Plate) BeforeUpdate() {
	p.UpdatedAt = time.Now()
}

func (p *Plate) IsActive() bool {
	return p.Status == PlateActive
}

// Price is the selling price as money. Prices are entered with at most a
// few decimals, so the shortest float representation is the exact amount.
func (p Plate) Price() decimal.Decimal {
	return decimal.NewFromFloat(p.SellingPrice)
}

// IngredientQty returns the grams of ingredientID in the composition.
func (p Plate) IngredientQty(ingredientID string) (float64, bool) {
	for _, pi := range p.Ingredients {
		if pi.IngredientID == ingredientID {
			return pi.Qty, true
		}
	}
	return 0, false
}

func (p Plate) clone() Plate {
	p.Ingredients = append([]PlateIngredient(nil), p.Ingredients...)
	return p
}
