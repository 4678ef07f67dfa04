package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/controlrest/pkg"
	"github.com/appetiteclub/controlrest/pkg/enums/stocktier"
	"github.com/appetiteclub/controlrest/pkg/event"
)

const MaxBodyBytes = 1 << 20

const ledgerEventSource = "ledger-service"

// TicketFeed receives every kitchen ticket the ledger emits.
type TicketFeed interface {
	Broadcast(evt event.KitchenTicketEvent)
}

type HandlerDeps struct {
	Store *Store
	// Snapshots is optional. When set, state is saved after every mutation.
	Snapshots SnapshotStore
	// Publisher is optional.
	Publisher events.Publisher
	// Tickets is optional. It backs the live kitchen stream.
	Tickets TicketFeed
}

type Handler struct {
	store     *Store
	persister *Persister
	publisher events.Publisher
	tickets   TicketFeed
	logger    apt.Logger
	config    *apt.Config
	tlm       *telemetry.HTTP
}

func NewHandler(deps HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	h := &Handler{
		store:     deps.Store,
		publisher: deps.Publisher,
		tickets:   deps.Tickets,
		logger:    logger,
		config:    config,
		tlm:       telemetry.NewHTTP(),
	}
	if deps.Snapshots != nil {
		h.persister = NewPersister(deps.Store, deps.Snapshots)
	}
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ingredients", func(r chi.Router) {
		r.Get("/", h.ListIngredients)
		r.Post("/", h.CreateIngredient)
		r.Get("/{id}", h.GetIngredient)
		r.Post("/{id}/purchases", h.RegisterPurchase)
		r.Get("/{id}/purchases", h.ListPurchases)
	})

	r.Route("/plates", func(r chi.Router) {
		r.Get("/", h.ListPlates)
		r.Post("/", h.CreatePlate)
		r.Post("/preview", h.PreviewPlate)
		r.Get("/{id}", h.GetPlate)
		r.Put("/{id}", h.UpdatePlate)
		r.Patch("/{id}/status", h.SetPlateStatus)
		r.Post("/{id}/ingredients", h.AddRecipeIngredient)
		r.Patch("/{id}/ingredients/{ingredientID}", h.UpdateRecipeIngredient)
		r.Delete("/{id}/ingredients/{ingredientID}", h.RemoveRecipeIngredient)
	})

	r.Route("/tables", func(r chi.Router) {
		r.Get("/", h.ListTables)
		r.Get("/{id}", h.GetTable)
		r.Post("/{id}/kitchen", h.SendToKitchen)
		r.Post("/{id}/bill", h.RequestBill)
		r.Put("/{id}/reservation", h.SetReservation)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Post("/{id}/deliver", h.DeliverOrder)
		r.Post("/{id}/pay", h.PayOrder)
	})

	r.Get("/finance/summary", h.GetFinanceSummary)
}

// Helper methods

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (string, bool) {
	return h.parseParam(w, r, log, "id")
}

func (h *Handler) parseParam(w http.ResponseWriter, r *http.Request, log apt.Logger, name string) (string, bool) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if value == "" {
		log.Debug("missing path parameter", "param", name)
		apt.RespondError(w, http.StatusBadRequest, "Missing "+name+" parameter")
		return "", false
	}
	return value, true
}

func decodePayload[T any](w http.ResponseWriter, r *http.Request, log apt.Logger) (T, bool) {
	var req T
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("error reading request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return req, false
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		apt.RespondError(w, http.StatusBadRequest, "Request body is empty")
		return req, false
	}

	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("error decoding JSON", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return req, false
	}

	return req, true
}

// respondCreated writes a 201 in the success envelope.
func respondCreated(w http.ResponseWriter, data interface{}, links ...apt.Link) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(apt.SuccessResponse{Data: data, Links: links})
}

func (h *Handler) rejectInvalid(w http.ResponseWriter, log apt.Logger, problems apt.ValidationErrors) bool {
	if !problems.HasErrors() {
		return false
	}
	log.Debug("validation failed", "errors", problems)
	apt.Error(w, http.StatusBadRequest, "validation_failed", "Validation failed", problems...)
	return true
}

// respondLedgerError maps ledger errors onto HTTP statuses.
func (h *Handler) respondLedgerError(w http.ResponseWriter, log apt.Logger, err error, action string) {
	switch {
	case errors.Is(err, ErrNotFound):
		log.Debug(action+" rejected", "error", err)
		apt.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidInput):
		log.Debug(action+" rejected", "error", err)
		apt.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error("cannot "+action, "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not "+action)
	}
}

// persist saves a snapshot after a committed mutation. Failures are logged;
// the in-memory ledger stays authoritative.
func (h *Handler) persist(ctx context.Context, log apt.Logger) {
	if h.persister == nil {
		return
	}
	saved, err := h.persister.Persist(ctx)
	if err != nil {
		log.Error("cannot save ledger snapshot", "error", err)
		return
	}
	if !saved {
		log.Debug("newer ledger snapshot already saved")
	}
}

func (h *Handler) publish(ctx context.Context, log apt.Logger, topic string, payload any) {
	if h.publisher == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error("cannot marshal event", "topic", topic, "error", err)
		return
	}
	if err := h.publisher.Publish(ctx, topic, data); err != nil {
		log.Error("cannot publish event", "topic", topic, "error", err)
	}
}

func (h *Handler) publishStockEvent(ctx context.Context, log apt.Logger, eventType string, ing Ingredient, tier, prev stocktier.Tier) {
	evt := event.IngredientStockEvent{
		EventType:    eventType,
		OccurredAt:   time.Now().UTC(),
		IngredientID: ing.ID,
		Name:         ing.Name,
		Icon:         ing.Icon,
		CurrentQty:   ing.CurrentQty,
		MinQty:       ing.MinQty,
		CriticalQty:  ing.CriticalQty,
		UnitPrice:    ing.UnitPrice,
		Tier:         tier.Code(),
	}
	if prev.Name != "" {
		evt.PreviousTier = prev.Code()
	}
	h.publish(ctx, log, event.InventoryStockTopic, evt)
}

func (h *Handler) publishKitchenTicket(ctx context.Context, log apt.Logger, d Dispatch) {
	eventType := event.EventKitchenTicketCreated
	if d.Action == DispatchReticketed {
		eventType = event.EventKitchenTicketReplaced
	}
	lines := make([]event.KitchenTicketLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		lines = append(lines, event.KitchenTicketLine{
			PlateID:   l.PlateID,
			PlateName: l.PlateName,
			Quantity:  l.Qty,
			UnitPrice: l.UnitPrice,
			Notes:     l.Notes,
		})
	}
	evt := event.KitchenTicketEvent{
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		OrderID:    d.Order.ID,
		TableID:    d.Order.TableID,
		Status:     string(d.Order.Status),
		Total:      d.Order.Total,
		Lines:      lines,
	}
	h.publish(ctx, log, event.KitchenTicketsTopic, evt)
	if h.tickets != nil {
		h.tickets.Broadcast(evt)
	}
}

func (h *Handler) publishTableStatus(ctx context.Context, log apt.Logger, t Table, prev TableStatus, orderID, reason string) {
	if t.Status == prev {
		return
	}
	h.publish(ctx, log, pkg.TableStatusTopic, pkg.TableStatusEvent{
		EventType:      pkg.EventTableStatusChanged,
		TableID:        t.ID,
		Status:         string(t.Status),
		PreviousStatus: string(prev),
		OrderID:        orderID,
		Reason:         reason,
		Source:         ledgerEventSource,
		OccurredAt:     time.Now().UTC(),
	})
}

func (h *Handler) publishOrderStatus(ctx context.Context, log apt.Logger, eventType string, o Order, prev OrderStatus) {
	if o.Status == prev {
		return
	}
	h.publish(ctx, log, event.OrderStatusTopic, event.OrderStatusEvent{
		EventType:      eventType,
		OccurredAt:     time.Now().UTC(),
		OrderID:        o.ID,
		TableID:        o.TableID,
		Status:         string(o.Status),
		PreviousStatus: string(prev),
		Total:          o.Total,
	})
}
