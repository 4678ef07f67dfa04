package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/controlrest/pkg"
	"github.com/appetiteclub/controlrest/pkg/event"
	"github.com/appetiteclub/controlrest/services/ledger/internal/ledger"
)

type fakeSource []ledger.Ingredient

func (f fakeSource) Ingredients() []ledger.Ingredient { return f }

func (f fakeSource) Ingredient(id string) (ledger.Ingredient, error) {
	for _, ing := range f {
		if ing.ID == id {
			return ing, nil
		}
	}
	return ledger.Ingredient{}, ledger.ErrNotFound
}

func TestBoardWarmAndList(t *testing.T) {
	source := fakeSource{
		{ID: "a", Name: "Arroz", CurrentQty: 5000, MinQty: 1000, CriticalQty: 500},
		{ID: "b", Name: "Tomate", CurrentQty: 900, MinQty: 1000, CriticalQty: 500},
		{ID: "c", Name: "Carne", CurrentQty: 100, MinQty: 1000, CriticalQty: 500},
		{ID: "d", Name: "Ajo", CurrentQty: 800, MinQty: 1000, CriticalQty: 500},
	}
	board := NewBoard(source, nil)
	board.Warm()

	got := board.List()
	wantOrder := []string{"c", "d", "b"}
	if len(got) != len(wantOrder) {
		t.Fatalf("List() len = %d, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].IngredientID != id {
			t.Errorf("List()[%d] = %s, want %s", i, got[i].IngredientID, id)
		}
	}

	if a, ok := board.Get("a"); !ok || a.Tier != "NORMAL" {
		t.Errorf("Get(a) = %+v, %v; want NORMAL entry", a, ok)
	}
}

func TestBoardSetIgnoresEmptyID(t *testing.T) {
	board := NewBoard(nil, nil)
	board.Set(Alert{Tier: "CRITICAL"})
	if len(board.List()) != 0 {
		t.Error("Set() should ignore alerts without ingredient id")
	}
}

func TestStockSubscriberStartNilSubscriber(t *testing.T) {
	sub := NewStockSubscriber(nil, nil, nil)

	err := sub.Start(context.Background())
	if err == nil {
		t.Fatal("Start() with nil subscriber should return error")
	}
	if err.Error() != "stock subscriber not configured" {
		t.Errorf("Start() error = %q", err.Error())
	}
}

func TestStockSubscriberHandleEvent(t *testing.T) {
	tests := []struct {
		name     string
		msg      []byte
		wantTier string
		tracked  bool
	}{
		{
			name:     "criticalEvent",
			msg:      mustJSON(t, event.IngredientStockEvent{IngredientID: "x", Name: "Harina", Tier: "CRITICAL"}),
			wantTier: "CRITICAL",
			tracked:  true,
		},
		{
			name:     "lowercaseTier",
			msg:      mustJSON(t, event.IngredientStockEvent{IngredientID: "x", Name: "Harina", Tier: "low"}),
			wantTier: "LOW",
			tracked:  true,
		},
		{
			name:    "unknownTier",
			msg:     mustJSON(t, event.IngredientStockEvent{IngredientID: "x", Tier: "EMPTY"}),
			tracked: false,
		},
		{
			name:    "missingID",
			msg:     mustJSON(t, event.IngredientStockEvent{Tier: "LOW"}),
			tracked: false,
		},
		{
			name:    "invalidJSON",
			msg:     []byte("{"),
			tracked: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := NewBoard(nil, nil)
			sub := NewStockSubscriber(nil, board, nil)

			if err := sub.handleEvent(context.Background(), tt.msg); err != nil {
				t.Fatalf("handleEvent() error = %v", err)
			}

			a, ok := board.Get("x")
			if ok != tt.tracked {
				t.Fatalf("tracked = %v, want %v", ok, tt.tracked)
			}
			if ok && a.Tier != tt.wantTier {
				t.Errorf("tier = %s, want %s", a.Tier, tt.wantTier)
			}
		})
	}
}

func TestStockSubscriberOverBus(t *testing.T) {
	bus := pkg.NewBus()
	source := fakeSource{{ID: "f", Name: "Harina", CurrentQty: 100, MinQty: 2000, CriticalQty: 1000}}
	board := NewBoard(source, nil)
	sub := NewStockSubscriber(bus, board, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := sub.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(board.List()) != 1 {
		t.Fatalf("warm board should hold one alert, got %d", len(board.List()))
	}

	restocked := event.IngredientStockEvent{
		EventType:    event.EventIngredientStocked,
		OccurredAt:   time.Now().UTC(),
		IngredientID: "f",
		Name:         "Harina",
		CurrentQty:   2500,
		MinQty:       2000,
		CriticalQty:  1000,
		Tier:         "NORMAL",
		PreviousTier: "CRITICAL",
	}
	source[0].CurrentQty = 2500
	if err := bus.Publish(ctx, event.InventoryStockTopic, mustJSON(t, restocked)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(board.List()) != 0 {
		t.Errorf("restocked ingredient should leave the board, got %+v", board.List())
	}
}

func TestHandlerListAndGet(t *testing.T) {
	board := NewBoard(fakeSource{{ID: "c", Name: "Carne", CurrentQty: 0, MinQty: 1000, CriticalQty: 500}}, nil)
	board.Warm()
	r := chi.NewRouter()
	NewHandler(board, nil).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alerts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /alerts status = %d", rec.Code)
	}
	var body struct {
		Data []Alert `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Tier != "CRITICAL" {
		t.Errorf("unexpected alerts: %+v", body.Data)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alerts/c", nil))
	var one apt.SuccessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &one); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(one.Links) == 0 || one.Links[0].Href != "/alerts/c" {
		t.Errorf("GET /alerts/c links = %+v, want self link first", one.Links)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alerts/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /alerts/missing status = %d, want 404", rec.Code)
	}
}

func TestBoardSetKeepsNewestEntry(t *testing.T) {
	board := NewBoard(nil, nil)
	newer := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	older := newer.Add(-5 * time.Second)

	tests := []struct {
		name     string
		alert    Alert
		wantKept bool
	}{
		{name: "first", alert: Alert{IngredientID: "f", Tier: "NORMAL", CurrentQty: 2600, UpdatedAt: newer}, wantKept: true},
		{name: "older", alert: Alert{IngredientID: "f", Tier: "LOW", CurrentQty: 1500, UpdatedAt: older}, wantKept: false},
		{name: "sameInstant", alert: Alert{IngredientID: "f", Tier: "NORMAL", CurrentQty: 2600, UpdatedAt: newer}, wantKept: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := board.Set(tt.alert); got != tt.wantKept {
				t.Errorf("Set() = %v, want %v", got, tt.wantKept)
			}
		})
	}

	if a, _ := board.Get("f"); a.Tier != "NORMAL" || a.CurrentQty != 2600 {
		t.Errorf("board = %s %.0f, want NORMAL 2600", a.Tier, a.CurrentQty)
	}
}

func TestStockSubscriberReorderedPurchases(t *testing.T) {
	store := ledger.NewStore(ledger.Options{})
	flour, err := store.CreateIngredient("Harina", "dry", 2000, 1000, "")
	if err != nil {
		t.Fatalf("CreateIngredient() error = %v", err)
	}
	first, err := store.RegisterPurchase(flour.ID, 1500, "gr", 20)
	if err != nil {
		t.Fatalf("RegisterPurchase() error = %v", err)
	}
	second, err := store.RegisterPurchase(flour.ID, 1100, "gr", 15)
	if err != nil {
		t.Fatalf("RegisterPurchase() error = %v", err)
	}
	if first.Tier.Code() != "LOW" || second.Tier.Code() != "NORMAL" {
		t.Fatalf("tiers = %s then %s, want LOW then NORMAL", first.Tier.Code(), second.Tier.Code())
	}

	stockEvent := func(r ledger.Restock, at time.Time) []byte {
		return mustJSON(t, event.IngredientStockEvent{
			EventType:    event.EventIngredientStocked,
			OccurredAt:   at,
			IngredientID: r.Ingredient.ID,
			Name:         r.Ingredient.Name,
			CurrentQty:   r.Ingredient.CurrentQty,
			MinQty:       r.Ingredient.MinQty,
			CriticalQty:  r.Ingredient.CriticalQty,
			Tier:         r.Tier.Code(),
			PreviousTier: r.PreviousTier.Code(),
		})
	}
	base := time.Now().UTC()
	olderMsg := stockEvent(first, base)
	newerMsg := stockEvent(second, base.Add(time.Second))

	tests := []struct {
		name   string
		source IngredientSource
	}{
		{name: "withLedger", source: store},
		{name: "eventsOnly", source: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := NewBoard(tt.source, nil)
			sub := NewStockSubscriber(nil, board, nil)

			for _, msg := range [][]byte{newerMsg, olderMsg} {
				if err := sub.handleEvent(context.Background(), msg); err != nil {
					t.Fatalf("handleEvent() error = %v", err)
				}
			}

			a, ok := board.Get(flour.ID)
			if !ok {
				t.Fatal("flour should be tracked")
			}
			if a.Tier != "NORMAL" || a.CurrentQty != 2600 {
				t.Errorf("board = %s %.0f, want NORMAL 2600", a.Tier, a.CurrentQty)
			}
			if got := board.List(); len(got) != 0 {
				t.Errorf("List() = %+v, want no restock alerts", got)
			}
		})
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}
