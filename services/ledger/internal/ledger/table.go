package ledger

import "time"

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
	TableBilling   TableStatus = "billing"
)

func (s TableStatus) Valid() bool {
	switch s {
	case TableAvailable, TableOccupied, TableReserved, TableBilling:
		return true
	}
	return false
}

// HoldsOrder reports whether a table in this status must point at an order.
func (s TableStatus) HoldsOrder() bool {
	return s == TableOccupied || s == TableBilling
}

type Table struct {
	ID             string      `json:"id" bson:"_id"`
	Seats          int         `json:"seats" bson:"seats"`
	Status         TableStatus `json:"status" bson:"status"`
	CurrentOrderID string      `json:"current_order_id,omitempty" bson:"current_order_id,omitempty"`
	UpdatedAt      time.Time   `json:"updated_at" bson:"updated_at"`
}

func (t *Table) GetID() string {
	return t.ID
}

func (t *Table) ResourceType() string {
	return "table"
}

func NewTable(id string, seats int) *Table {
	return &Table{
		ID:     id,
		Seats:  seats,
		Status: TableAvailable,
	}
}

func (t *Table) occupy(orderID string) {
	t.Status = TableOccupied
	t.CurrentOrderID = orderID
	t.UpdatedAt = time.Now()
}

func (t *Table) release() {
	t.Status = TableAvailable
	t.CurrentOrderID = ""
	t.UpdatedAt = time.Now()
}

func (t *Table) setStatus(s TableStatus) {
	t.Status = s
	t.UpdatedAt = time.Now()
}
