package ledger

import (
	"net/http"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/controlrest/pkg"
	"github.com/appetiteclub/controlrest/pkg/enums/stocktier"
	"github.com/appetiteclub/controlrest/pkg/event"
)

// IngredientView is an ingredient with its current stock tier.
type IngredientView struct {
	Ingredient
	Tier      string `json:"tier"`
	TierLabel string `json:"tier_label"`
}

func newIngredientView(ing Ingredient) IngredientView {
	tier := Classify(ing)
	return IngredientView{Ingredient: ing, Tier: tier.Code(), TierLabel: tier.Label()}
}

// PlateView is a plate with its live costing.
type PlateView struct {
	Plate
	Costing PlateCosting `json:"costing"`
}

// Ingredient handlers

func (h *Handler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListIngredients")
	defer finish()

	ingredients := h.store.Ingredients()
	views := make([]IngredientView, 0, len(ingredients))
	for _, ing := range ingredients {
		views = append(views, newIngredientView(ing))
	}
	apt.RespondCollection(w, views, "ingredient")
}

func (h *Handler) GetIngredient(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetIngredient")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	ing, err := h.store.Ingredient(id)
	if err != nil {
		h.respondLedgerError(w, log, err, "get ingredient")
		return
	}

	view := newIngredientView(ing)
	apt.RespondSuccess(w, view, pkg.LinksFor(&view)...)
}

func (h *Handler) CreateIngredient(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateIngredient")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	req, ok := decodePayload[IngredientCreateRequest](w, r, log)
	if !ok {
		return
	}
	if h.rejectInvalid(w, log, ValidateIngredientCreate(ctx, req)) {
		return
	}

	ing, err := h.store.CreateIngredient(req.Name, req.Category, req.MinQty, req.CriticalQty, req.Icon)
	if err != nil {
		h.respondLedgerError(w, log, err, "create ingredient")
		return
	}
	log.Info("ingredient created", "ingredient_id", ing.ID, "name", ing.Name)

	h.persist(ctx, log)
	h.publishStockEvent(ctx, log, event.EventIngredientCreated, ing, Classify(ing), stocktier.Tier{})

	view := newIngredientView(ing)
	respondCreated(w, view, pkg.LinksFor(&view)...)
}

func (h *Handler) RegisterPurchase(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RegisterPurchase")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := decodePayload[PurchaseCreateRequest](w, r, log)
	if !ok {
		return
	}
	if h.rejectInvalid(w, log, ValidatePurchaseCreate(ctx, req)) {
		return
	}

	restock, err := h.store.RegisterPurchase(id, req.Quantity, req.Unit, req.TotalPrice)
	if err != nil {
		h.respondLedgerError(w, log, err, "register purchase")
		return
	}
	log.Info("purchase registered",
		"ingredient_id", id,
		"grams", restock.Purchase.Grams,
		"unit_price", restock.Ingredient.UnitPrice,
		"tier", restock.Tier.Code(),
	)

	h.persist(ctx, log)
	h.publishStockEvent(ctx, log, event.EventIngredientStocked, restock.Ingredient, restock.Tier, restock.PreviousTier)

	respondCreated(w, map[string]interface{}{
		"purchase":   restock.Purchase,
		"ingredient": newIngredientView(restock.Ingredient),
	})
}

func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListPurchases")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	purchases, err := h.store.Purchases(id)
	if err != nil {
		h.respondLedgerError(w, log, err, "list purchases")
		return
	}
	apt.RespondCollection(w, purchases, "purchase")
}

// Plate handlers

func (h *Handler) plateView(p Plate) PlateView {
	return PlateView{Plate: p, Costing: h.store.Costing(p)}
}

func (h *Handler) ListPlates(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListPlates")
	defer finish()

	plates := h.store.Plates()
	views := make([]PlateView, 0, len(plates))
	for _, p := range plates {
		views = append(views, h.plateView(p))
	}
	apt.RespondCollection(w, views, "plate")
}

func (h *Handler) GetPlate(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetPlate")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	p, err := h.store.Plate(id)
	if err != nil {
		h.respondLedgerError(w, log, err, "get plate")
		return
	}

	view := h.plateView(p)
	apt.RespondSuccess(w, view, pkg.LinksFor(&view)...)
}

func (h *Handler) CreatePlate(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreatePlate")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	req, ok := decodePayload[PlateSaveRequest](w, r, log)
	if !ok {
		return
	}
	if h.rejectInvalid(w, log, ValidatePlateSave(ctx, req)) {
		return
	}

	draft := NewPlateDraft()
	req.apply(draft)

	p, err := h.store.SavePlate(draft)
	if err != nil {
		h.respondLedgerError(w, log, err, "save plate")
		return
	}
	log.Info("plate created", "plate_id", p.ID, "name", p.Name)

	h.persist(ctx, log)

	view := h.plateView(p)
	respondCreated(w, view, pkg.LinksFor(&view)...)
}

// PreviewPlate prices a plate payload without saving it.
func (h *Handler) PreviewPlate(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PreviewPlate")
	defer finish()

	log := h.log(r)

	req, ok := decodePayload[PlateSaveRequest](w, r, log)
	if !ok {
		return
	}

	draft := NewPlateDraft()
	req.apply(draft)
	apt.RespondSuccess(w, h.store.PreviewCosting(draft))
}

func (h *Handler) UpdatePlate(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdatePlate")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := decodePayload[PlateSaveRequest](w, r, log)
	if !ok {
		return
	}
	if h.rejectInvalid(w, log, ValidatePlateSave(ctx, req)) {
		return
	}

	p, err := h.store.EditPlate(id, func(d *PlateDraft) error {
		req.apply(d)
		return nil
	})
	h.respondPlateEdit(w, r, log, p, err, "update plate")
}

func (h *Handler) SetPlateStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetPlateStatus")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := decodePayload[PlateStatusRequest](w, r, log)
	if !ok {
		return
	}
	if h.rejectInvalid(w, log, ValidatePlateStatus(ctx, req)) {
		return
	}

	p, err := h.store.SetPlateStatus(id, PlateStatus(req.Status))
	h.respondPlateEdit(w, r, log, p, err, "set plate status")
}

func (h *Handler) AddRecipeIngredient(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddRecipeIngredient")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := decodePayload[RecipeIngredientRequest](w, r, log)
	if !ok {
		return
	}
	if h.rejectInvalid(w, log, ValidateRecipeIngredient(ctx, req)) {
		return
	}

	p, err := h.store.AddIngredientToRecipe(id, req.IngredientID, req.Qty)
	h.respondPlateEdit(w, r, log, p, err, "add recipe ingredient")
}

func (h *Handler) UpdateRecipeIngredient(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateRecipeIngredient")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}
	ingredientID, ok := h.parseParam(w, r, log, "ingredientID")
	if !ok {
		return
	}

	req, ok := decodePayload[RecipeQtyUpdateRequest](w, r, log)
	if !ok {
		return
	}
	if h.rejectInvalid(w, log, ValidateRecipeQtyUpdate(ctx, req)) {
		return
	}

	p, err := h.store.UpdateIngredientQty(id, ingredientID, req.Qty)
	h.respondPlateEdit(w, r, log, p, err, "update recipe ingredient")
}

func (h *Handler) RemoveRecipeIngredient(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RemoveRecipeIngredient")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}
	ingredientID, ok := h.parseParam(w, r, log, "ingredientID")
	if !ok {
		return
	}

	p, err := h.store.RemoveIngredientFromRecipe(id, ingredientID)
	h.respondPlateEdit(w, r, log, p, err, "remove recipe ingredient")
}

func (h *Handler) respondPlateEdit(w http.ResponseWriter, r *http.Request, log apt.Logger, p Plate, err error, action string) {
	if err != nil {
		h.respondLedgerError(w, log, err, action)
		return
	}
	log.Info("plate updated", "plate_id", p.ID, "action", action)
	h.persist(r.Context(), log)

	view := h.plateView(p)
	apt.RespondSuccess(w, view, pkg.LinksFor(&view)...)
}
