package ledger

type IngredientCreateRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Category    string  `json:"category" validate:"max=60"`
	MinQty      float64 `json:"min_qty" validate:"gte=0"`
	CriticalQty float64 `json:"critical_qty" validate:"gte=0"`
	Icon        string  `json:"icon" validate:"max=16"`
}

type PurchaseCreateRequest struct {
	Quantity   float64 `json:"quantity" validate:"gt=0"`
	Unit       string  `json:"unit" validate:"required,oneof=kg gr lb"`
	TotalPrice float64 `json:"total_price" validate:"gt=0"`
}

type RecipeIngredientRequest struct {
	IngredientID string  `json:"ingredient_id" validate:"required"`
	Qty          float64 `json:"qty" validate:"gte=0"`
}

type PlateSaveRequest struct {
	Name         string                    `json:"name" validate:"required,max=120"`
	Category     string                    `json:"category" validate:"max=60"`
	SellingPrice float64                   `json:"selling_price" validate:"gt=0"`
	Image        string                    `json:"image" validate:"omitempty,max=512"`
	Status       string                    `json:"status" validate:"omitempty,oneof=active inactive"`
	Ingredients  []RecipeIngredientRequest `json:"ingredients" validate:"dive"`
}

type RecipeQtyUpdateRequest struct {
	Qty float64 `json:"qty" validate:"gt=0"`
}

type PlateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

type CartItemRequest struct {
	PlateID string `json:"plate_id" validate:"required"`
	Qty     int    `json:"qty" validate:"gt=0"`
	Notes   string `json:"notes" validate:"max=280"`
}

type KitchenSendRequest struct {
	Items []CartItemRequest `json:"items" validate:"required,min=1,dive"`
}

type ReservationRequest struct {
	Reserved bool `json:"reserved"`
}

func (r KitchenSendRequest) cart() []OrderItem {
	items := make([]OrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, OrderItem{PlateID: it.PlateID, Qty: it.Qty, Notes: it.Notes})
	}
	return items
}

// apply writes the request onto a draft, replacing its composition.
func (r PlateSaveRequest) apply(d *PlateDraft) {
	d.SetName(r.Name).
		SetCategory(r.Category).
		SetSellingPrice(r.SellingPrice).
		SetImage(r.Image)
	if r.Status != "" {
		d.SetStatus(PlateStatus(r.Status))
	}
	d.ClearIngredients()
	for _, ing := range r.Ingredients {
		d.AddIngredient(ing.IngredientID, ing.Qty)
	}
}
