package ledger

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

const epsilon = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// money compares an amount against its exact decimal text.
func money(got decimal.Decimal, want string) bool {
	return got.Equal(decimal.RequireFromString(want))
}

// newTestStore returns a store holding flour, one active and one inactive
// plate, two free tables and a reserved one.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(Options{})
	snap := &Snapshot{
		Ingredients: []Ingredient{
			{ID: "flour", Name: "Harina", Category: "Secos", CurrentQty: 500, UnitPrice: 0.01, MinQty: 2000, CriticalQty: 1000},
			{ID: "salt", Name: "Sal", Category: "Secos", CurrentQty: 5000, UnitPrice: 0.001, MinQty: 1000, CriticalQty: 500},
		},
		Plates: []Plate{
			{ID: "p1", Name: "Focaccia", SellingPrice: 10, Status: PlateActive, Ingredients: []PlateIngredient{{IngredientID: "flour", Qty: 200}}},
			{ID: "p2", Name: "Pan", SellingPrice: 4, Status: PlateActive, Ingredients: []PlateIngredient{{IngredientID: "flour", Qty: 100}, {IngredientID: "salt", Qty: 5}}},
			{ID: "off", Name: "Retirado", SellingPrice: 7, Status: PlateInactive},
		},
		Tables: []Table{
			{ID: "T1", Seats: 4, Status: TableAvailable},
			{ID: "T2", Seats: 2, Status: TableAvailable},
			{ID: "T3", Seats: 6, Status: TableReserved},
		},
	}
	if err := s.Restore(snap); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	return s
}
