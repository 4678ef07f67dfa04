package ledger

import "strings"

// DefaultRecipeQty is the grams used when an ingredient is added to a recipe
// without an explicit quantity.
const DefaultRecipeQty = 100.0

// PlateDraft is a private working copy of a plate. Edits stay invisible to
// other readers until the draft is saved through the Store.
type PlateDraft struct {
	plate Plate
}

func NewPlateDraft() *PlateDraft {
	return &PlateDraft{plate: Plate{Status: PlateActive}}
}

func draftOf(p Plate) *PlateDraft {
	return &PlateDraft{plate: p.clone()}
}

// PlateID is empty for plates that were never saved.
func (d *PlateDraft) PlateID() string {
	return d.plate.ID
}

// Plate returns a copy of the draft as it stands.
func (d *PlateDraft) Plate() Plate {
	return d.plate.clone()
}

func (d *PlateDraft) SetName(name string) *PlateDraft {
	d.plate.Name = strings.TrimSpace(name)
	return d
}

func (d *PlateDraft) SetCategory(category string) *PlateDraft {
	d.plate.Category = strings.TrimSpace(category)
	return d
}

func (d *PlateDraft) SetSellingPrice(price float64) *PlateDraft {
	d.plate.SellingPrice = price
	return d
}

func (d *PlateDraft) SetImage(image string) *PlateDraft {
	d.plate.Image = image
	return d
}

func (d *PlateDraft) SetStatus(status PlateStatus) *PlateDraft {
	d.plate.Status = status
	return d
}

// AddIngredient appends an ingredient to the composition. Adding one that is
// already present is a no-op and returns false. A non-positive qty uses
// DefaultRecipeQty.
func (d *PlateDraft) AddIngredient(ingredientID string, qty float64) bool {
	if _, ok := d.plate.IngredientQty(ingredientID); ok {
		return false
	}
	if qty <= 0 {
		qty = DefaultRecipeQty
	}
	d.plate.Ingredients = append(d.plate.Ingredients, PlateIngredient{IngredientID: ingredientID, Qty: qty})
	return true
}

func (d *PlateDraft) UpdateIngredientQty(ingredientID string, qty float64) error {
	if !positive(qty) {
		return invalid("ingredient qty must be greater than 0")
	}
	for i := range d.plate.Ingredients {
		if d.plate.Ingredients[i].IngredientID == ingredientID {
			d.plate.Ingredients[i].Qty = qty
			return nil
		}
	}
	return notFound("recipe ingredient", ingredientID)
}

// RemoveIngredient drops an ingredient from the composition, reporting
// whether it was present.
func (d *PlateDraft) RemoveIngredient(ingredientID string) bool {
	for i, pi := range d.plate.Ingredients {
		if pi.IngredientID == ingredientID {
			d.plate.Ingredients = append(d.plate.Ingredients[:i], d.plate.Ingredients[i+1:]...)
			return true
		}
	}
	return false
}

func (d *PlateDraft) ClearIngredients() *PlateDraft {
	d.plate.Ingredients = nil
	return d
}
