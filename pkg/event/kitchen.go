package event

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	KitchenTicketsTopic        = "kitchen.tickets"
	EventKitchenTicketCreated  = "kitchen.ticket.created"
	EventKitchenTicketReplaced = "kitchen.ticket.replaced"
)

type KitchenTicketLine struct {
	PlateID   string          `json:"plate_id"`
	PlateName string          `json:"plate_name,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Notes     string          `json:"notes,omitempty"`
}

// KitchenTicketEvent carries the full item list of an order each time it is
// sent to the kitchen. A replaced ticket supersedes the previous one for the
// same order.
type KitchenTicketEvent struct {
	EventType  string              `json:"event_type"`
	OccurredAt time.Time           `json:"occurred_at"`
	OrderID    string              `json:"order_id"`
	TableID    string              `json:"table_id"`
	Status     string              `json:"status"`
	Total      decimal.Decimal     `json:"total"`
	Lines      []KitchenTicketLine `json:"lines"`
}
