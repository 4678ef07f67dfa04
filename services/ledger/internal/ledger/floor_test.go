package ledger

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"
)

func TestSendToKitchenScenario(t *testing.T) {
	s := newTestStore(t)

	d, err := s.SendToKitchen("T1", []OrderItem{{PlateID: "p1", Qty: 2}})
	if err != nil {
		t.Fatalf("SendToKitchen() error = %v", err)
	}
	if d.Action != DispatchCreated {
		t.Errorf("action = %s, want created", d.Action)
	}
	if !money(d.Order.Total, "20") {
		t.Errorf("total = %v, want 20", d.Order.Total)
	}
	if d.Order.Status != OrderPreparing {
		t.Errorf("order status = %s, want preparing", d.Order.Status)
	}
	if d.Table.Status != TableOccupied || d.Table.CurrentOrderID != d.Order.ID {
		t.Errorf("table = %+v, want occupied by %s", d.Table, d.Order.ID)
	}
	if d.PreviousTableStatus != TableAvailable {
		t.Errorf("previous table status = %s", d.PreviousTableStatus)
	}

	again, err := s.SendToKitchen("T1", []OrderItem{{PlateID: "p1", Qty: 3}})
	if err != nil {
		t.Fatalf("second SendToKitchen() error = %v", err)
	}
	if again.Action != DispatchReticketed {
		t.Errorf("action = %s, want reticketed", again.Action)
	}
	if again.Order.ID != d.Order.ID {
		t.Errorf("re-ticket created a new order %s", again.Order.ID)
	}
	if !money(again.Order.Total, "30") {
		t.Errorf("total = %v, want 30 (replaced, not added)", again.Order.Total)
	}
	if len(again.Order.Items) != 1 || again.Order.Items[0].Qty != 3 {
		t.Errorf("items = %+v, want one line of 3", again.Order.Items)
	}
	if n := len(s.Orders("")); n != 1 {
		t.Errorf("orders = %d, want 1", n)
	}
	if problems := s.CheckFloor(); len(problems) > 0 {
		t.Errorf("floor inconsistent: %v", problems)
	}
}

func TestSendToKitchenReticketResetsDelivered(t *testing.T) {
	s := newTestStore(t)
	d, _ := s.SendToKitchen("T1", []OrderItem{{PlateID: "p1", Qty: 1}})
	if _, _, err := s.MarkDelivered(d.Order.ID); err != nil {
		t.Fatalf("MarkDelivered() error = %v", err)
	}
	if _, _, err := s.RequestBill("T1"); err != nil {
		t.Fatalf("RequestBill() error = %v", err)
	}

	again, err := s.SendToKitchen("T1", []OrderItem{{PlateID: "p2", Qty: 2}})
	if err != nil {
		t.Fatalf("SendToKitchen() error = %v", err)
	}
	if again.Order.Status != OrderPreparing || again.Order.DeliveredAt != nil {
		t.Errorf("re-ticketed order = %+v, want preparing", again.Order)
	}
	if again.Table.Status != TableBilling {
		t.Errorf("table status = %s, re-ticketing should not move the table", again.Table.Status)
	}
}

func TestSendToKitchenReservedIsIgnored(t *testing.T) {
	s := newTestStore(t)

	d, err := s.SendToKitchen("T3", []OrderItem{{PlateID: "p1", Qty: 1}})
	if err != nil {
		t.Fatalf("SendToKitchen() error = %v", err)
	}
	if d.Action != DispatchIgnored {
		t.Errorf("action = %s, want ignored", d.Action)
	}
	if len(s.Orders("")) != 0 {
		t.Error("reserved table should not get an order")
	}
	if tbl, _ := s.Table("T3"); tbl.Status != TableReserved {
		t.Errorf("T3 status = %s, want reserved", tbl.Status)
	}
}

func TestSendToKitchenErrors(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		cart    []OrderItem
		wantErr error
	}{
		{name: "emptyCart", table: "T1", cart: nil, wantErr: ErrInvalidInput},
		{name: "zeroQty", table: "T1", cart: []OrderItem{{PlateID: "p1", Qty: 0}}, wantErr: ErrInvalidInput},
		{name: "missingPlateID", table: "T1", cart: []OrderItem{{Qty: 1}}, wantErr: ErrInvalidInput},
		{name: "inactivePlate", table: "T1", cart: []OrderItem{{PlateID: "off", Qty: 1}}, wantErr: ErrInvalidInput},
		{name: "unknownPlate", table: "T1", cart: []OrderItem{{PlateID: "p1", Qty: 1}, {PlateID: "nope", Qty: 1}}, wantErr: ErrNotFound},
		{name: "unknownTable", table: "T9", cart: []OrderItem{{PlateID: "p1", Qty: 1}}, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			before := s.Snapshot()

			_, err := s.SendToKitchen(tt.table, tt.cart)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}

			after := s.Snapshot()
			if !reflect.DeepEqual(before.Tables, after.Tables) || len(after.Orders) != 0 {
				t.Error("rejected send changed the floor")
			}
		})
	}
}

func TestSendToKitchenPricesAtSendTime(t *testing.T) {
	s := newTestStore(t)
	d, _ := s.SendToKitchen("T1", []OrderItem{{PlateID: "p2", Qty: 2}})

	_, err := s.EditPlate("p2", func(pd *PlateDraft) error {
		pd.SetSellingPrice(100)
		return nil
	})
	if err != nil {
		t.Fatalf("EditPlate() error = %v", err)
	}

	o, _ := s.Order(d.Order.ID)
	if !money(o.Total, "8") {
		t.Errorf("total = %v, want 8 from the price at send time", o.Total)
	}
}

func TestRequestBill(t *testing.T) {
	s := newTestStore(t)

	if _, _, err := s.RequestBill("T1"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("billing an available table: error = %v, want ErrInvalidInput", err)
	}
	if _, _, err := s.RequestBill("T9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown table: error = %v, want ErrNotFound", err)
	}

	s.SendToKitchen("T1", []OrderItem{{PlateID: "p1", Qty: 1}})
	tbl, prev, err := s.RequestBill("T1")
	if err != nil {
		t.Fatalf("RequestBill() error = %v", err)
	}
	if prev != TableOccupied || tbl.Status != TableBilling {
		t.Errorf("transition = %s -> %s, want occupied -> billing", prev, tbl.Status)
	}

	tbl, prev, err = s.RequestBill("T1")
	if err != nil || prev != TableBilling || tbl.Status != TableBilling {
		t.Errorf("second RequestBill() = %s -> %s, %v; want billing no-op", prev, tbl.Status, err)
	}
}

func TestMarkDelivered(t *testing.T) {
	s := newTestStore(t)
	d, _ := s.SendToKitchen("T1", []OrderItem{{PlateID: "p1", Qty: 1}})

	o, prev, err := s.MarkDelivered(d.Order.ID)
	if err != nil {
		t.Fatalf("MarkDelivered() error = %v", err)
	}
	if prev != OrderPreparing || o.Status != OrderDelivered || o.DeliveredAt == nil {
		t.Errorf("order = %+v, prev = %s", o, prev)
	}

	if _, _, err := s.MarkDelivered("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown order: error = %v, want ErrNotFound", err)
	}
}

func TestMarkPaid(t *testing.T) {
	s := newTestStore(t)
	d, _ := s.SendToKitchen("T1", []OrderItem{{PlateID: "p1", Qty: 2}})

	st, err := s.MarkPaid(d.Order.ID)
	if err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	if st.Order.Status != OrderPaid || st.Order.PaidAt == nil {
		t.Errorf("order = %+v, want paid", st.Order)
	}
	if st.Table == nil || st.Table.Status != TableAvailable || st.Table.CurrentOrderID != "" {
		t.Errorf("table = %+v, want released", st.Table)
	}
	if st.PreviousTableStatus != TableOccupied {
		t.Errorf("previous table status = %s", st.PreviousTableStatus)
	}

	before := s.Snapshot()
	_, err = s.MarkPaid(d.Order.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("second MarkPaid() error = %v, want ErrNotFound", err)
	}
	after := s.Snapshot()
	if !reflect.DeepEqual(before.Orders, after.Orders) || !reflect.DeepEqual(before.Tables, after.Tables) {
		t.Error("second MarkPaid() changed state")
	}

	if _, err := s.MarkPaid("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown order: error = %v, want ErrNotFound", err)
	}
}

func TestSetTableReservation(t *testing.T) {
	s := newTestStore(t)

	tbl, prev, err := s.SetTableReservation("T1", true)
	if err != nil || prev != TableAvailable || tbl.Status != TableReserved {
		t.Fatalf("reserve T1 = %s -> %s, %v", prev, tbl.Status, err)
	}
	if _, _, err := s.SetTableReservation("T1", true); err != nil {
		t.Errorf("reserving twice should be a no-op, got %v", err)
	}
	tbl, _, err = s.SetTableReservation("T1", false)
	if err != nil || tbl.Status != TableAvailable {
		t.Errorf("release T1 = %s, %v", tbl.Status, err)
	}

	s.SendToKitchen("T2", []OrderItem{{PlateID: "p1", Qty: 1}})
	if _, _, err := s.SetTableReservation("T2", true); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("reserving an occupied table: error = %v, want ErrInvalidInput", err)
	}
}

// TestFloorStaysConsistent drives random operation sequences and checks the
// table/order pairing after every step.
func TestFloorStaysConsistent(t *testing.T) {
	tables := []string{"T1", "T2", "T3"}
	plates := []string{"p1", "p2", "off"}

	for seed := int64(1); seed <= 20; seed++ {
		t.Run(fmt.Sprintf("seed%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			s := newTestStore(t)

			for step := 0; step < 200; step++ {
				tableID := tables[rng.Intn(len(tables))]
				switch rng.Intn(6) {
				case 0, 1:
					cart := []OrderItem{{PlateID: plates[rng.Intn(len(plates))], Qty: rng.Intn(3)}}
					_, _ = s.SendToKitchen(tableID, cart)
				case 2:
					_, _, _ = s.RequestBill(tableID)
				case 3:
					if tbl, _ := s.Table(tableID); tbl.CurrentOrderID != "" {
						_, _, _ = s.MarkDelivered(tbl.CurrentOrderID)
					}
				case 4:
					if tbl, _ := s.Table(tableID); tbl.CurrentOrderID != "" {
						_, _ = s.MarkPaid(tbl.CurrentOrderID)
					}
				case 5:
					_, _, _ = s.SetTableReservation(tableID, rng.Intn(2) == 0)
				}

				if problems := s.CheckFloor(); len(problems) > 0 {
					t.Fatalf("step %d: %v", step, problems)
				}
			}
		})
	}
}
