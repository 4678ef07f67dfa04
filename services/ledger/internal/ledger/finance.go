package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinanceFilter bounds paid orders by payment time, [From, To). Zero values
// leave the side open.
type FinanceFilter struct {
	From time.Time
	To   time.Time
}

func (f FinanceFilter) includes(t time.Time) bool {
	if !f.From.IsZero() && t.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !t.Before(f.To) {
		return false
	}
	return true
}

// FinanceSummary money fields are exact decimals. AverageTicket and
// InventoryValue are rounded to cents.
type FinanceSummary struct {
	Sales          decimal.Decimal `json:"sales"`
	PaidOrders     int             `json:"paid_orders"`
	AverageTicket  decimal.Decimal `json:"average_ticket"`
	OpenOrders     int             `json:"open_orders"`
	OpenTotal      decimal.Decimal `json:"open_total"`
	LowStock       int             `json:"low_stock"`
	CriticalStock  int             `json:"critical_stock"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
	ActivePlates   int             `json:"active_plates"`
	OccupiedTables int             `json:"occupied_tables"`
}

// Finance aggregates sales from paid orders together with stock health. Low
// stock counts every ingredient at or under its minimum, critical ones
// included.
func (s *Store) Finance(f FinanceFilter) FinanceSummary {
	s.floorMu.RLock()
	defer s.floorMu.RUnlock()
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()

	fs := FinanceSummary{
		Sales:          decimal.Zero,
		AverageTicket:  decimal.Zero,
		OpenTotal:      decimal.Zero,
		InventoryValue: decimal.Zero,
	}
	for _, o := range s.orders {
		if !o.IsActive() {
			paidAt := o.UpdatedAt
			if o.PaidAt != nil {
				paidAt = *o.PaidAt
			}
			if f.includes(paidAt) {
				fs.Sales = fs.Sales.Add(o.Total)
				fs.PaidOrders++
			}
			continue
		}
		fs.OpenOrders++
		fs.OpenTotal = fs.OpenTotal.Add(o.Total)
	}
	if fs.PaidOrders > 0 {
		fs.AverageTicket = fs.Sales.Div(decimal.NewFromInt(int64(fs.PaidOrders))).Round(2)
	}

	for _, t := range s.tables {
		if t.Status.HoldsOrder() {
			fs.OccupiedTables++
		}
	}

	for _, ing := range s.ingredients {
		if ing.CurrentQty <= ing.MinQty {
			fs.LowStock++
		}
		if ing.CurrentQty <= ing.CriticalQty {
			fs.CriticalStock++
		}
		value := decimal.NewFromFloat(ing.CurrentQty).Mul(decimal.NewFromFloat(ing.UnitPrice))
		fs.InventoryValue = fs.InventoryValue.Add(value)
	}
	fs.InventoryValue = fs.InventoryValue.Round(2)
	for _, p := range s.plates {
		if p.IsActive() {
			fs.ActivePlates++
		}
	}
	return fs
}
