package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/outbreak-atlas/atlas-server/internal/apperr"
	"github.com/outbreak-atlas/atlas-server/internal/models"
	"github.com/outbreak-atlas/atlas-server/internal/validate"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	users  UserStore
	tokens TokenIssuer
	logger *zap.SugaredLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users UserStore, tokens TokenIssuer, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, logger: logger}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.Registration
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	user, err := h.users.Register(r.Context(), &req)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	token, err := h.tokens.Issue(user)
	if err != nil {
		respondErr(w, r, h.logger, apperr.Internal(err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"user": user, "token": token})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	user, err := h.users.Authenticate(r.Context(), &req)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	token, err := h.tokens.Issue(user)
	if err != nil {
		respondErr(w, r, h.logger, apperr.Internal(err))
		return
	}

	h.logger.Infow("User logged in", "id", user.ID)
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}
