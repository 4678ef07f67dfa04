package event

import "time"

const (
	InventoryStockTopic    = "inventory.stock"
	EventIngredientCreated = "inventory.ingredient.created"
	EventIngredientStocked = "inventory.ingredient.stocked"
)

// IngredientStockEvent is emitted after an ingredient is created or
// restocked. Tier values are stocktier codes.
type IngredientStockEvent struct {
	EventType    string    `json:"event_type"`
	OccurredAt   time.Time `json:"occurred_at"`
	IngredientID string    `json:"ingredient_id"`
	Name         string    `json:"name"`
	Icon         string    `json:"icon,omitempty"`
	CurrentQty   float64   `json:"current_qty"`
	MinQty       float64   `json:"min_qty"`
	CriticalQty  float64   `json:"critical_qty"`
	UnitPrice    float64   `json:"unit_price"`
	Tier         string    `json:"tier"`
	PreviousTier string    `json:"previous_tier,omitempty"`
}
