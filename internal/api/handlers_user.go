package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/mymichlin/discovery/internal/api/respond"
	"github.com/mymichlin/discovery/internal/core"
	"github.com/mymichlin/discovery/internal/model"
)

// UserHandler handles the local profile.
type UserHandler struct {
	c *core.Core
}

func NewUserHandler(c *core.Core) *UserHandler { return &UserHandler{c: c} }

// GetUser handles GET /api/user.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.c.Catalog.User(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if u == nil {
		respond.WriteNotFound(w, "user not set")
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}

// PutUser handles PUT /api/user. The body replaces the whole profile.
func (h *UserHandler) PutUser(w http.ResponseWriter, r *http.Request) {
	var u model.User
	if err := decodeJSON(w, r, &u); err != nil {
		writeErr(w, r, err)
		return
	}
	out, err := h.c.Catalog.SaveUser(r.Context(), &u)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// PutImage handles PUT /api/user/image with the raw image bytes as body.
func (h *UserHandler) PutImage(w http.ResponseWriter, r *http.Request) {
	img, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeErr(w, r, fmt.Errorf("%w: %v", model.ErrValidation, err))
		return
	}
	out, err := h.c.Catalog.SetUserImage(r.Context(), img)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

type cuisineRequest struct {
	Cuisine string `json:"cuisine"`
}

// ToggleCuisine handles POST /api/user/cuisines.
func (h *UserHandler) ToggleCuisine(w http.ResponseWriter, r *http.Request) {
	var req cuisineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	out, err := h.c.Users.ToggleCuisine(r.Context(), req.Cuisine)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
