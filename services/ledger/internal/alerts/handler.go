package alerts

import (
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/controlrest/pkg"
)

type Handler struct {
	board  *Board
	logger apt.Logger
}

func NewHandler(board *Board, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{board: board, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/alerts", h.ListAlerts)
	r.Get("/alerts/{id}", h.GetAlert)
}

func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	apt.RespondCollection(w, h.board.List(), "alert")
}

func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, ok := h.board.Get(id)
	if !ok {
		apt.RespondError(w, http.StatusNotFound, "Ingredient not tracked")
		return
	}
	apt.RespondSuccess(w, a, pkg.LinksFor(&a)...)
}
