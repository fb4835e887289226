package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"banking-core/internal/model"
)

// Authenticator is implemented by service.AuthService.
type Authenticator interface {
	TokenParser
	SignUp(ctx context.Context, input model.SignUpInput) (*model.User, error)
	SignIn(ctx context.Context, input model.SignInInput) (string, error)
}

type AuthHandler struct {
	auth   Authenticator
	logger *logrus.Logger
}

func NewAuthHandler(auth Authenticator, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

func (h *AuthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/signup", h.SignUp).Methods(http.MethodPost)
	router.HandleFunc("/signin", h.SignIn).Methods(http.MethodPost)
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var input model.SignUpInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, h.logger, err, "Failed to decode sign-up request")
		return
	}

	user, err := h.auth.SignUp(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err, "Sign-up failed")
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, map[string]any{
		"id":         user.ID,
		"full_name":  user.FullName,
		"email":      user.Email,
		"created_at": user.CreatedAt.Format(time.RFC3339),
	})
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var input model.SignInInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, h.logger, err, "Failed to decode sign-in request")
		return
	}

	token, err := h.auth.SignIn(r.Context(), input)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			writeError(w, h.logger, err, "Sign-in failed")
			return
		}
		h.logger.WithError(err).Warn("Sign-in failed")
		writeJSON(w, h.logger, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]string{"token": token})
}
