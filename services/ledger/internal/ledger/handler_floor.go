package ledger

import (
	"fmt"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/controlrest/pkg"
	"github.com/appetiteclub/controlrest/pkg/event"
)

// Table handlers

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListTables")
	defer finish()

	apt.RespondCollection(w, h.store.Tables(), "table")
}

func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetTable")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	table, err := h.store.Table(id)
	if err != nil {
		h.respondLedgerError(w, log, err, "get table")
		return
	}
	apt.RespondSuccess(w, table, pkg.LinksFor(&table)...)
}

func (h *Handler) SendToKitchen(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SendToKitchen")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableID, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := decodePayload[KitchenSendRequest](w, r, log)
	if !ok {
		return
	}
	if h.rejectInvalid(w, log, ValidateKitchenSend(ctx, req)) {
		return
	}

	dispatch, err := h.store.SendToKitchen(tableID, req.cart())
	if err != nil {
		h.respondLedgerError(w, log, err, "send order to kitchen")
		return
	}

	if dispatch.Action == DispatchIgnored {
		log.Info("table is reserved, order ignored", "table_id", tableID)
		apt.Respond(w, http.StatusAccepted, dispatch, map[string]interface{}{"action": dispatch.Action})
		return
	}

	log.Info("order sent to kitchen",
		"table_id", tableID,
		"order_id", dispatch.Order.ID,
		"action", dispatch.Action,
		"total", dispatch.Order.Total,
	)

	h.persist(ctx, log)
	h.publishKitchenTicket(ctx, log, dispatch)
	h.publishTableStatus(ctx, log, dispatch.Table, dispatch.PreviousTableStatus, dispatch.Order.ID, "order sent to kitchen")

	status := http.StatusOK
	if dispatch.Action == DispatchCreated {
		status = http.StatusCreated
	}
	order := dispatch.Order
	apt.Respond(w, status, dispatch, map[string]interface{}{
		"action": dispatch.Action,
		"links":  pkg.LinksFor(&order),
	})
}

func (h *Handler) RequestBill(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RequestBill")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableID, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	table, prev, err := h.store.RequestBill(tableID)
	if err != nil {
		h.respondLedgerError(w, log, err, "request bill")
		return
	}
	log.Info("bill requested", "table_id", tableID, "order_id", table.CurrentOrderID)

	h.persist(ctx, log)
	h.publishTableStatus(ctx, log, table, prev, table.CurrentOrderID, "bill requested")

	apt.RespondSuccess(w, table, pkg.LinksFor(&table)...)
}

func (h *Handler) SetReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetReservation")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableID, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := decodePayload[ReservationRequest](w, r, log)
	if !ok {
		return
	}

	table, prev, err := h.store.SetTableReservation(tableID, req.Reserved)
	if err != nil {
		h.respondLedgerError(w, log, err, "update reservation")
		return
	}

	h.persist(ctx, log)
	h.publishTableStatus(ctx, log, table, prev, "", "reservation updated")

	apt.RespondSuccess(w, table, pkg.LinksFor(&table)...)
}

// Order handlers

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	log := h.log(r)

	status := OrderStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		log.Debug("invalid status filter", "status", status)
		apt.RespondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid status %q", status))
		return
	}
	apt.RespondCollection(w, h.store.Orders(status), "order")
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	order, err := h.store.Order(id)
	if err != nil {
		h.respondLedgerError(w, log, err, "get order")
		return
	}
	apt.RespondSuccess(w, order, pkg.LinksFor(&order)...)
}

func (h *Handler) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeliverOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	order, prev, err := h.store.MarkDelivered(id)
	if err != nil {
		h.respondLedgerError(w, log, err, "mark order delivered")
		return
	}
	log.Info("order delivered", "order_id", id, "table_id", order.TableID)

	h.persist(ctx, log)
	h.publishOrderStatus(ctx, log, event.EventOrderDelivered, order, prev)

	apt.RespondSuccess(w, order, pkg.LinksFor(&order)...)
}

func (h *Handler) PayOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PayOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	st, err := h.store.MarkPaid(id)
	if err != nil {
		h.respondLedgerError(w, log, err, "mark order paid")
		return
	}
	log.Info("order paid", "order_id", id, "table_id", st.Order.TableID, "total", st.Order.Total)

	h.persist(ctx, log)
	h.publishOrderStatus(ctx, log, event.EventOrderPaid, st.Order, st.PreviousOrderStatus)
	if st.Table != nil {
		h.publishTableStatus(ctx, log, *st.Table, st.PreviousTableStatus, st.Order.ID, "order paid")
	}

	apt.RespondSuccess(w, st, pkg.LinksFor(&st.Order)...)
}

// Finance

func (h *Handler) GetFinanceSummary(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetFinanceSummary")
	defer finish()

	log := h.log(r)

	var filter FinanceFilter
	for name, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		t, err := parseDay(raw)
		if err != nil {
			log.Debug("invalid finance filter", "param", name, "value", raw)
			apt.RespondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s, want RFC3339 or YYYY-MM-DD", name))
			return
		}
		*dst = t
	}

	apt.RespondSuccess(w, h.store.Finance(filter))
}

func parseDay(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}
