package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type DispatchAction string

const (
	DispatchCreated    DispatchAction = "created"
	DispatchReticketed DispatchAction = "reticketed"
	// DispatchIgnored is returned for reserved tables: nothing changes.
	DispatchIgnored DispatchAction = "ignored"
)

// TicketLine is an order item priced at send time.
type TicketLine struct {
	PlateID   string          `json:"plate_id"`
	PlateName string          `json:"plate_name"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Notes     string          `json:"notes,omitempty"`
}

// Dispatch is the outcome of SendToKitchen.
type Dispatch struct {
	Action              DispatchAction `json:"action"`
	Order               Order          `json:"order"`
	Table               Table          `json:"table"`
	PreviousTableStatus TableStatus    `json:"previous_table_status"`
	Lines               []TicketLine   `json:"lines,omitempty"`
}

// Settlement is the outcome of MarkPaid.
type Settlement struct {
	Order               Order       `json:"order"`
	PreviousOrderStatus OrderStatus `json:"previous_order_status"`
	Table               *Table      `json:"table,omitempty"`
	PreviousTableStatus TableStatus `json:"previous_table_status,omitempty"`
}

// SendToKitchen submits a table's cart. A table without an active order gets
// a new order in preparing and becomes occupied. A table with an active order
// has that order's items and total replaced (re-ticketing), never appended.
// Reserved tables are left untouched.
func (s *Store) SendToKitchen(tableID string, cart []OrderItem) (Dispatch, error) {
	if strings.TrimSpace(tableID) == "" {
		return Dispatch{}, invalid("table id is required")
	}
	if len(cart) == 0 {
		return Dispatch{}, invalid("cart is empty")
	}
	for i, it := range cart {
		if strings.TrimSpace(it.PlateID) == "" {
			return Dispatch{}, invalid("item %d: plate id is required", i)
		}
		if it.Qty <= 0 {
			return Dispatch{}, invalid("item %d: qty must be greater than 0", i)
		}
	}

	s.floorMu.Lock()
	defer s.floorMu.Unlock()

	table, ok := s.tableByID[tableID]
	if !ok {
		return Dispatch{}, notFound("table", tableID)
	}
	prev := table.Status
	if prev == TableReserved {
		return Dispatch{Action: DispatchIgnored, Table: *table, PreviousTableStatus: prev}, nil
	}

	lines, total, err := s.priceCart(cart)
	if err != nil {
		return Dispatch{}, err
	}
	items := append([]OrderItem(nil), cart...)

	if current, ok := s.orderByID[table.CurrentOrderID]; ok && current.IsActive() {
		current.Items = items
		current.Total = total
		current.MarkAsPreparing()
		return Dispatch{
			Action:              DispatchReticketed,
			Order:               current.clone(),
			Table:               *table,
			PreviousTableStatus: prev,
			Lines:               lines,
		}, nil
	}

	o := NewOrder(tableID)
	o.BeforeCreate()
	o.Items = items
	o.Total = total
	o.MarkAsPreparing()

	s.orders = append(s.orders, o)
	s.orderByID[o.ID] = o
	table.occupy(o.ID)

	return Dispatch{
		Action:              DispatchCreated,
		Order:               o.clone(),
		Table:               *table,
		PreviousTableStatus: prev,
		Lines:               lines,
	}, nil
}

// priceCart reads current plate prices. Callers hold the floor lock.
func (s *Store) priceCart(cart []OrderItem) ([]TicketLine, decimal.Decimal, error) {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()

	lines := make([]TicketLine, 0, len(cart))
	total := decimal.Zero
	for _, it := range cart {
		p, ok := s.plateByID[it.PlateID]
		if !ok {
			return nil, decimal.Zero, notFound("plate", it.PlateID)
		}
		if !p.IsActive() {
			return nil, decimal.Zero, invalid("plate %q is not active", p.ID)
		}
		price := p.Price()
		total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Qty))))
		lines = append(lines, TicketLine{
			PlateID:   p.ID,
			PlateName: p.Name,
			Qty:       it.Qty,
			UnitPrice: price,
			Notes:     it.Notes,
		})
	}
	return lines, total, nil
}

// RequestBill moves an occupied table to billing. Asking again is a no-op.
func (s *Store) RequestBill(tableID string) (Table, TableStatus, error) {
	s.floorMu.Lock()
	defer s.floorMu.Unlock()

	t, ok := s.tableByID[tableID]
	if !ok {
		return Table{}, "", notFound("table", tableID)
	}
	prev := t.Status
	switch prev {
	case TableBilling:
	case TableOccupied:
		t.setStatus(TableBilling)
	default:
		return Table{}, prev, invalid("table %q is %s, only occupied tables can request the bill", tableID, prev)
	}
	return *t, prev, nil
}

// MarkDelivered records that the kitchen served an order.
func (s *Store) MarkDelivered(orderID string) (Order, OrderStatus, error) {
	s.floorMu.Lock()
	defer s.floorMu.Unlock()

	o, ok := s.orderByID[orderID]
	if !ok || !o.IsActive() {
		return Order{}, "", fmt.Errorf("%w: order %q is missing or already paid", ErrNotFound, orderID)
	}
	prev := o.Status
	if prev != OrderDelivered {
		o.MarkAsDelivered()
	}
	return o.clone(), prev, nil
}

// MarkPaid closes an order and frees its table in one step.
func (s *Store) MarkPaid(orderID string) (Settlement, error) {
	s.floorMu.Lock()
	defer s.floorMu.Unlock()

	o, ok := s.orderByID[orderID]
	if !ok || !o.IsActive() {
		return Settlement{}, fmt.Errorf("%w: order %q is missing or already paid", ErrNotFound, orderID)
	}

	st := Settlement{PreviousOrderStatus: o.Status}
	o.MarkAsPaid()
	st.Order = o.clone()

	if t, ok := s.tableByID[o.TableID]; ok && t.CurrentOrderID == o.ID {
		st.PreviousTableStatus = t.Status
		t.release()
		released := *t
		st.Table = &released
	}
	return st, nil
}

// SetTableReservation is the hook for external reservation management. Only
// available and reserved tables can be toggled.
func (s *Store) SetTableReservation(tableID string, reserved bool) (Table, TableStatus, error) {
	s.floorMu.Lock()
	defer s.floorMu.Unlock()

	t, ok := s.tableByID[tableID]
	if !ok {
		return Table{}, "", notFound("table", tableID)
	}
	prev := t.Status
	from, to := TableAvailable, TableReserved
	if !reserved {
		from, to = TableReserved, TableAvailable
	}
	switch prev {
	case to:
	case from:
		t.setStatus(to)
	default:
		return Table{}, prev, invalid("table %q is %s", tableID, prev)
	}
	return *t, prev, nil
}

// CheckFloor reports every table/order inconsistency. An empty result means
// the floor is sound.
func (s *Store) CheckFloor() []string {
	s.floorMu.RLock()
	defer s.floorMu.RUnlock()
	return checkFloor(s.tables, s.orderByID)
}

func checkFloor(tables []*Table, orders map[string]*Order) []string {
	var problems []string
	claimed := map[string]string{}
	for _, t := range tables {
		hasOrder := t.CurrentOrderID != ""
		if t.Status.HoldsOrder() != hasOrder {
			problems = append(problems, fmt.Sprintf("table %s is %s with current order %q", t.ID, t.Status, t.CurrentOrderID))
		}
		if !hasOrder {
			continue
		}
		o, ok := orders[t.CurrentOrderID]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("table %s points at unknown order %s", t.ID, t.CurrentOrderID))
		case !o.IsActive():
			problems = append(problems, fmt.Sprintf("table %s points at paid order %s", t.ID, o.ID))
		case o.TableID != t.ID:
			problems = append(problems, fmt.Sprintf("table %s points at order %s of table %s", t.ID, o.ID, o.TableID))
		}
		if other, dup := claimed[t.CurrentOrderID]; dup {
			problems = append(problems, fmt.Sprintf("order %s is held by tables %s and %s", t.CurrentOrderID, other, t.ID))
		}
		claimed[t.CurrentOrderID] = t.ID
	}
	for id, o := range orders {
		if o.IsActive() && claimed[id] == "" {
			problems = append(problems, fmt.Sprintf("active order %s is not held by any table", id))
		}
	}
	return problems
}
