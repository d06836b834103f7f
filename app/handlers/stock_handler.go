package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jdlcruz/go-hardwarepos/app/services"
	"github.com/unrolled/render"
)

type StockHandler struct {
	render   *render.Render
	resolver *services.StockResolver
}

func NewStockHandler(rnd *render.Render, resolver *services.StockResolver) *StockHandler {
	return &StockHandler{render: rnd, resolver: resolver}
}

func (h *StockHandler) Available(w http.ResponseWriter, r *http.Request) {
	variantID := mux.Vars(r)["id"]

	available, err := h.resolver.ResolveAvailableQuantity(r.Context(), variantID)
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}

	h.render.JSON(w, http.StatusOK, map[string]interface{}{
		"variant_id": variantID,
		"available":  available,
	})
}
