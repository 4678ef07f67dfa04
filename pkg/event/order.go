package event

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusTopic    = "orders.status"
	EventOrderDelivered = "order.delivered"
	EventOrderPaid      = "order.paid"
)

// OrderStatusEvent reports a forward move of an order after it left the
// kitchen queue.
type OrderStatusEvent struct {
	EventType      string          `json:"event_type"`
	OccurredAt     time.Time       `json:"occurred_at"`
	OrderID        string          `json:"order_id"`
	TableID        string          `json:"table_id"`
	Status         string          `json:"status"`
	PreviousStatus string          `json:"previous_status"`
	Total          decimal.Decimal `json:"total"`
}
