package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mymichlin/discovery/internal/api/respond"
	"github.com/mymichlin/discovery/internal/core"
	"github.com/mymichlin/discovery/internal/model"
)

type ReviewHandler struct {
	c *core.Core
}

func NewReviewHandler(c *core.Core) *ReviewHandler { return &ReviewHandler{c: c} }

type createReviewRequest struct {
	Rating      float64    `json:"rating"`
	Comment     *string    `json:"comment,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// ListReviews handles GET /api/restaurants/{id}/reviews. Local reviews come first.
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	out, err := h.c.Catalog.ReviewsFor(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// CreateReview handles POST /api/restaurants/{id}/reviews.
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	rv := &model.Review{
		RestaurantID: mux.Vars(r)["id"],
		Rating:       req.Rating,
		Comment:      req.Comment,
	}
	if req.PublishedAt != nil {
		rv.PublishedAt = *req.PublishedAt
	}
	out, err := h.c.Catalog.AddReview(r.Context(), rv)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ImportReviews handles POST /api/restaurants/{id}/reviews/import.
func (h *ReviewHandler) ImportReviews(w http.ResponseWriter, r *http.Request) {
	out, err := h.c.Places.ImportReviews(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteReview handles DELETE /api/reviews/{id}. Deleting an absent review succeeds.
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.c.Catalog.DeleteReview(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
