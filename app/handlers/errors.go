package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/jdlcruz/go-hardwarepos/app/helpers"
	"github.com/jdlcruz/go-hardwarepos/app/models"
	"github.com/jdlcruz/go-hardwarepos/app/services"
	"github.com/unrolled/render"
)

// writeServiceError maps engine errors onto HTTP responses, carrying the
// numeric ceiling where one exists so clients can clamp and re-prompt.
func writeServiceError(rnd *render.Render, w http.ResponseWriter, err error) {
	var insufficient *services.InsufficientStockError
	var pullable *services.ExceedsPullableError
	var nothingToRedo *services.NothingToRedoError
	var transition *services.InvalidTransitionError
	var concurrent *services.ConcurrentModificationError

	switch {
	case errors.As(err, &insufficient):
		rnd.JSON(w, http.StatusConflict, map[string]interface{}{
			"error":         insufficient.Error(),
			"variant_id":    insufficient.VariantID,
			"max_available": insufficient.Available,
		})
	case errors.As(err, &pullable):
		rnd.JSON(w, http.StatusConflict, map[string]interface{}{
			"error":        pullable.Error(),
			"max_pullable": pullable.MaxPullable,
		})
	case errors.As(err, &nothingToRedo):
		rnd.JSON(w, http.StatusConflict, map[string]string{"error": nothingToRedo.Error()})
	case errors.As(err, &transition):
		rnd.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": transition.Error()})
	case errors.As(err, &concurrent):
		rnd.JSON(w, http.StatusConflict, map[string]string{"error": concurrent.Error()})
	case errors.Is(err, services.ErrForbidden):
		rnd.JSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrReservationLocked),
		errors.Is(err, services.ErrDuplicateVariantLine),
		errors.Is(err, services.ErrAmountPaidRequired),
		errors.Is(err, services.ErrConversionCycle):
		rnd.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrVariantNotFound),
		errors.Is(err, services.ErrReservationNotFound),
		errors.Is(err, services.ErrSupplyNotFound):
		rnd.JSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: unhandled service error: %v", err)
		rnd.JSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func actorFromRequest(r *http.Request) (services.Actor, bool) {
	user, ok := r.Context().Value(helpers.ContextKeyUser).(*models.User)
	if !ok || user == nil {
		return services.Actor{}, false
	}
	return services.Actor{ID: user.ID, Role: user.Role}, true
}
