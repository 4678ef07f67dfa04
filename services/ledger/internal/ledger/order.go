package ledger

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderOpen      OrderStatus = "open"
	OrderPreparing OrderStatus = "preparing"
	OrderDelivered OrderStatus = "delivered"
	OrderPaid      OrderStatus = "paid"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderOpen, OrderPreparing, OrderDelivered, OrderPaid:
		return true
	}
	return false
}

type OrderItem struct {
	PlateID string `json:"plate_id" bson:"plate_id"`
	Qty     int    `json:"qty" bson:"qty"`
	Notes   string `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Order totals are snapshotted when the order is sent to the kitchen.
type Order struct {
	ID          string          `json:"id" bson:"_id"`
	TableID     string          `json:"table_id" bson:"table_id"`
	Items       []OrderItem     `json:"items" bson:"items"`
	Status      OrderStatus     `json:"status" bson:"status"`
	Total       decimal.Decimal `json:"total" bson:"total"`
	Timestamp   time.Time       `json:"timestamp" bson:"timestamp"`
	UpdatedAt   time.Time       `json:"updated_at" bson:"updated_at"`
	DeliveredAt *time.Time      `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	PaidAt      *time.Time      `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
}

func (o *Order) GetID() string {
	return o.ID
}

func (o *Order) ResourceType() string {
	return "order"
}

func NewOrder(tableID string) *Order {
	return &Order{
		ID:      apt.GenerateNewID().String(),
		TableID: tableID,
		Status:  OrderOpen,
	}
}

func (o *Order) EnsureID() {
	if o.ID == "" {
		o.ID = apt.GenerateNewID().String()
	}
}

func (o *Order) BeforeCreate() {
	o.EnsureID()
	o.Timestamp = time.Now()
	o.UpdatedAt = o.Timestamp
}

func (o *Order) BeforeUpdate() {
	o.UpdatedAt = time.Now()
}

// IsActive is true until the order is paid.
func (o *Order) IsActive() bool {
	return o.Status != OrderPaid
}

func (o *Order) MarkAsPreparing() {
	o.Status = OrderPreparing
	o.DeliveredAt = nil
	o.UpdatedAt = time.Now()
}

func (o *Order) MarkAsDelivered() {
	now := time.Now()
	o.Status = OrderDelivered
	o.DeliveredAt = &now
	o.UpdatedAt = now
}

func (o *Order) MarkAsPaid() {
	now := time.Now()
	o.Status = OrderPaid
	o.PaidAt = &now
	o.UpdatedAt = now
}

func (o Order) clone() Order {
	o.Items = append([]OrderItem(nil), o.Items...)
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		o.DeliveredAt = &t
	}
	if o.PaidAt != nil {
		t := *o.PaidAt
		o.PaidAt = &t
	}
	return o
}
