package middlewares

import (
	"log"
	"net/http"

	"github.com/jdlcruz/go-hardwarepos/app/helpers"
	"github.com/jdlcruz/go-hardwarepos/app/models"
)

// StaffOnlyMiddleware rejects requests whose session actor is not staff.
func StaffOnlyMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := r.Context().Value(helpers.ContextKeyUser).(*models.User)
			if !ok || user == nil {
				http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
				return
			}
			if !user.IsStaff() {
				log.Printf("StaffOnlyMiddleware: user %s (%s) attempted a staff operation", user.ID, user.Email)
				http.Error(w, `{"error":"staff role required"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
