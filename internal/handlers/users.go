package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/outbreak-atlas/atlas-server/internal/apperr"
	"github.com/outbreak-atlas/atlas-server/internal/middleware"
	"github.com/outbreak-atlas/atlas-server/internal/models"
	"github.com/outbreak-atlas/atlas-server/internal/validate"
)

// UserHandler handles account endpoints. Access checks run in middleware.
type UserHandler struct {
	users  UserStore
	logger *zap.SugaredLogger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users UserStore, logger *zap.SugaredLogger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

type deletedUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// List handles GET /users/all
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// Me handles GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondErr(w, r, h.logger, apperr.Unauthorized("Authorization required"))
		return
	}
	h.respondUser(w, r, func() (*models.User, error) { return h.users.Get(r.Context(), claims.ID) })
}

// Get handles GET /users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := validate.ID(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	h.respondUser(w, r, func() (*models.User, error) { return h.users.Get(r.Context(), id) })
}

// GetByUsername handles GET /users/username/{username}
func (h *UserHandler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	h.respondUser(w, r, func() (*models.User, error) { return h.users.GetByUsername(r.Context(), username) })
}

// Update handles PATCH /users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := validate.ID(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	patch, err := decodeUserPatch(r)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	h.respondUser(w, r, func() (*models.User, error) { return h.users.Update(r.Context(), id, patch) })
}

// UpdateByUsername handles PATCH /users/username/{username}
func (h *UserHandler) UpdateByUsername(w http.ResponseWriter, r *http.Request) {
	patch, err := decodeUserPatch(r)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	username := chi.URLParam(r, "username")
	h.respondUser(w, r, func() (*models.User, error) { return h.users.UpdateByUsername(r.Context(), username, patch) })
}

// Delete handles DELETE /users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := validate.ID(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	user, err := h.users.Delete(r.Context(), id)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]deletedUser{"deleted": {ID: user.ID, Username: user.Username}})
}

// DeleteByUsername handles DELETE /users/username/{username}
func (h *UserHandler) DeleteByUsername(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.DeleteByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]deletedUser{"deleted": {ID: user.ID, Username: user.Username}})
}

func (h *UserHandler) respondUser(w http.ResponseWriter, r *http.Request, load func() (*models.User, error)) {
	user, err := load()
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]*models.User{"user": user})
}

func decodeUserPatch(r *http.Request) (*models.UserPatch, error) {
	var patch models.UserPatch
	if err := decodeJSON(r, &patch); err != nil {
		return nil, err
	}
	if err := validate.Struct(patch); err != nil {
		return nil, err
	}
	return &patch, nil
}
