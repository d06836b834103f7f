package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/jdlcruz/go-hardwarepos/app/helpers"
	"github.com/jdlcruz/go-hardwarepos/app/services"
	"github.com/shopspring/decimal"
	"github.com/unrolled/render"
)

type SupplyHandler struct {
	render        *render.Render
	validate      *validator.Validate
	supplyService *services.SupplyService
}

func NewSupplyHandler(rnd *render.Render, validate *validator.Validate, supplyService *services.SupplyService) *SupplyHandler {
	return &SupplyHandler{
		render:        rnd,
		validate:      validate,
		supplyService: supplyService,
	}
}

type restockPayload struct {
	Quantity      int    `json:"quantity" validate:"required,gt=0"`
	SupplierPrice string `json:"supplier_price"`
	Notes         string `json:"notes"`
}

func (h *SupplyHandler) Restock(w http.ResponseWriter, r *http.Request) {
	variantID := mux.Vars(r)["id"]

	var payload restockPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": helpers.FormatValidationErrors(err.(validator.ValidationErrors))})
		return
	}

	supplierPrice := decimal.Zero
	if payload.SupplierPrice != "" {
		parsed, err := decimal.NewFromString(payload.SupplierPrice)
		if err != nil {
			h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "supplier_price must be a decimal number"})
			return
		}
		supplierPrice = parsed
	}

	history, err := h.supplyService.Restock(r.Context(), variantID, payload.Quantity, supplierPrice, payload.Notes)
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	h.render.JSON(w, http.StatusCreated, history)
}

type pullOutPayload struct {
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Notes    string `json:"notes"`
}

func (h *SupplyHandler) PullOut(w http.ResponseWriter, r *http.Request) {
	supplyHistoryID := mux.Vars(r)["id"]

	var payload pullOutPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": helpers.FormatValidationErrors(err.(validator.ValidationErrors))})
		return
	}

	history, err := h.supplyService.PullOut(r.Context(), supplyHistoryID, payload.Quantity, payload.Notes)
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	h.render.JSON(w, http.StatusOK, history)
}

func (h *SupplyHandler) Redo(w http.ResponseWriter, r *http.Request) {
	supplyHistoryID := mux.Vars(r)["id"]

	history, err := h.supplyService.Redo(r.Context(), supplyHistoryID)
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	h.render.JSON(w, http.StatusOK, history)
}

func (h *SupplyHandler) HistoryForVariant(w http.ResponseWriter, r *http.Request) {
	variantID := mux.Vars(r)["id"]

	histories, err := h.supplyService.HistoryForVariant(r.Context(), variantID)
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	h.render.JSON(w, http.StatusOK, histories)
}
