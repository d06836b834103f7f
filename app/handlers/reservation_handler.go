package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/jdlcruz/go-hardwarepos/app/helpers"
	"github.com/jdlcruz/go-hardwarepos/app/models"
	"github.com/jdlcruz/go-hardwarepos/app/services"
	"github.com/shopspring/decimal"
	"github.com/unrolled/render"
)

type ReservationHandler struct {
	render             *render.Render
	validate           *validator.Validate
	reservationService *services.ReservationService
}

func NewReservationHandler(rnd *render.Render, validate *validator.Validate, reservationService *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{
		render:             rnd,
		validate:           validate,
		reservationService: reservationService,
	}
}

type reservationLinePayload struct {
	ProductVariantID string `json:"product_variant_id" validate:"required"`
	Quantity         int    `json:"quantity" validate:"required,gt=0"`
}

type createReservationPayload struct {
	Lines           []reservationLinePayload `json:"lines" validate:"required,min=1,dive"`
	ReservationDate string                   `json:"reservation_date"`
	Notes           string                   `json:"notes"`
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.render.JSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var payload createReservationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": helpers.FormatValidationErrors(err.(validator.ValidationErrors))})
		return
	}

	var reservationDate time.Time
	if payload.ReservationDate != "" {
		parsed, err := time.Parse("2006-01-02", payload.ReservationDate)
		if err != nil {
			h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "reservation_date must be YYYY-MM-DD"})
			return
		}
		reservationDate = parsed
	}

	reservation, err := h.reservationService.CreateReservation(r.Context(), actor.ID, toServiceLines(payload.Lines), reservationDate, payload.Notes)
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}

	log.Printf("SUCCESS: reservation %s created for user %s", reservation.ID, actor.ID)
	h.render.JSON(w, http.StatusCreated, reservation)
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	reservationID := mux.Vars(r)["id"]

	reservation, err := h.reservationService.GetReservation(r.Context(), reservationID)
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	h.render.JSON(w, http.StatusOK, reservation)
}

func (h *ReservationHandler) History(w http.ResponseWriter, r *http.Request) {
	reservationID := mux.Vars(r)["id"]

	entries, err := h.reservationService.GetHistory(r.Context(), reservationID)
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	h.render.JSON(w, http.StatusOK, entries)
}

type editDetailsPayload struct {
	Lines   []reservationLinePayload `json:"lines" validate:"required,min=1,dive"`
	Remarks string                   `json:"remarks"`
}

func (h *ReservationHandler) EditDetails(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.render.JSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	reservationID := mux.Vars(r)["id"]

	var payload editDetailsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": helpers.FormatValidationErrors(err.(validator.ValidationErrors))})
		return
	}

	reservation, err := h.reservationService.EditReservationDetails(r.Context(), reservationID, toServiceLines(payload.Lines), payload.Remarks, actor)
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	h.render.JSON(w, http.StatusOK, reservation)
}

type changeStatusPayload struct {
	Status     string `json:"status" validate:"required,oneof=pending confirmed completed cancelled failed"`
	AmountPaid string `json:"amount_paid"`
}

func (h *ReservationHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.render.JSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	reservationID := mux.Vars(r)["id"]

	var payload changeStatusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": helpers.FormatValidationErrors(err.(validator.ValidationErrors))})
		return
	}

	newStatus, ok := models.ParseReservationStatus(payload.Status)
	if !ok {
		h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
		return
	}

	var amountPaid *decimal.Decimal
	if payload.AmountPaid != "" {
		parsed, err := decimal.NewFromString(payload.AmountPaid)
		if err != nil {
			h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "amount_paid must be a decimal number"})
			return
		}
		amountPaid = &parsed
	}

	reservation, err := h.reservationService.ChangeReservationStatus(r.Context(), reservationID, newStatus, actor, amountPaid)
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	h.render.JSON(w, http.StatusOK, reservation)
}

type validateLinePayload struct {
	ProductVariantID string `json:"product_variant_id" validate:"required"`
	Quantity         int    `json:"quantity" validate:"required"`
}

// ValidateLine is the interactive clamp endpoint: it reports the quantity
// the edit form should fall back to, without committing anything.
func (h *ReservationHandler) ValidateLine(w http.ResponseWriter, r *http.Request) {
	reservationID := mux.Vars(r)["id"]

	var payload validateLinePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": helpers.FormatValidationErrors(err.(validator.ValidationErrors))})
		return
	}

	result, err := h.reservationService.ValidateLineEdit(r.Context(), reservationID, payload.ProductVariantID, payload.Quantity)
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	h.render.JSON(w, http.StatusOK, map[string]interface{}{
		"accepted": result.Accepted,
		"clamped":  result.Clamped,
		"ceiling":  result.Ceiling,
	})
}

func toServiceLines(payload []reservationLinePayload) []services.ReservationLine {
	lines := make([]services.ReservationLine, 0, len(payload))
	for _, p := range payload {
		lines = append(lines, services.ReservationLine{VariantID: p.ProductVariantID, Quantity: p.Quantity})
	}
	return lines
}
