package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jdlcruz/go-hardwarepos/app/helpers"
	"github.com/jdlcruz/go-hardwarepos/app/repositories"
	"github.com/jdlcruz/go-hardwarepos/app/utils/sessions"
	"github.com/unrolled/render"
)

type AuthHandler struct {
	render       *render.Render
	validate     *validator.Validate
	userRepo     repositories.UserRepositoryImpl
	sessionStore sessions.SessionStore
}

func NewAuthHandler(rnd *render.Render, validate *validator.Validate, userRepo repositories.UserRepositoryImpl, sessionStore sessions.SessionStore) *AuthHandler {
	return &AuthHandler{
		render:       rnd,
		validate:     validate,
		userRepo:     userRepo,
		sessionStore: sessionStore,
	}
}

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": helpers.FormatValidationErrors(err.(validator.ValidationErrors))})
		return
	}

	user, err := h.userRepo.FindByEmail(r.Context(), payload.Email)
	if err != nil {
		log.Printf("ERROR: AuthHandler: looking up %s: %v", payload.Email, err)
		h.render.JSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if user == nil || !helpers.CheckPassword(user.Password, payload.Password) {
		h.render.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
		return
	}

	if err := h.sessionStore.SetUserID(w, r, user.ID); err != nil {
		log.Printf("ERROR: AuthHandler: saving session for %s: %v", user.ID, err)
		h.render.JSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.render.JSON(w, http.StatusOK, map[string]string{
		"user_id": user.ID,
		"role":    user.Role,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionStore.ClearSession(w, r); err != nil {
		log.Printf("ERROR: AuthHandler: clearing session: %v", err)
	}
	h.render.JSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
