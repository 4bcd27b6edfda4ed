package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mymichlin/discovery/internal/api/respond"
	"github.com/mymichlin/discovery/internal/core"
	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/places"
	"github.com/mymichlin/discovery/internal/searchcache"
)

type RestaurantHandler struct {
	c *core.Core
}

func NewRestaurantHandler(c *core.Core) *RestaurantHandler { return &RestaurantHandler{c: c} }

// ListRestaurants handles GET /api/restaurants?favourite=&sort=&desc=.
func (h *RestaurantHandler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	fav, err := boolParam(r, "favourite")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	desc, err := boolParam(r, "desc")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	q := model.RestaurantQuery{
		FavouriteOnly: fav,
		Cuisine:       r.URL.Query().Get("cuisine"),
		SortBy:        model.RestaurantSort(r.URL.Query().Get("sort")),
		Descending:    desc,
	}
	out, err := h.c.Catalog.Restaurants(r.Context(), q)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// GetRestaurant handles GET /api/restaurants/{id}, fetching unknown places from the provider.
func (h *RestaurantHandler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	out, err := h.c.Places.Details(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// ToggleFavourite handles POST /api/restaurants/{id}/favourite.
func (h *RestaurantHandler) ToggleFavourite(w http.ResponseWriter, r *http.Request) {
	out, err := h.c.Catalog.ToggleFavourite(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// ListCategory handles GET /api/categories/{category}/restaurants?lat=&lng=&radius=.
// Without a coordinate the user's home (or the default city) is used.
func (h *RestaurantHandler) ListCategory(w http.ResponseWriter, r *http.Request) {
	cat := searchcache.Category(mux.Vars(r)["category"])
	coord, ok, err := coordinateParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	radius, _, err := floatParam(r, "radius")
	if err != nil {
		writeErr(w, r, err)
		return
	}

	var out []*model.Restaurant
	if ok {
		out, err = h.c.Cache.Resolve(r.Context(), cat, coord, radius)
	} else {
		out, err = h.c.Cache.ResolveDefault(r.Context(), cat)
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Search handles GET /api/search?q=&lat=&lng=&radius=.
func (h *RestaurantHandler) Search(w http.ResponseWriter, r *http.Request) {
	coord, err := h.center(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	radius, _, err := floatParam(r, "radius")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	out, err := h.c.Places.Search(r.Context(), r.URL.Query().Get("q"), coord, radius)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Suggest handles GET /api/suggest?q=&lat=&lng=: restaurant and suburb
// predictions for partial input.
func (h *RestaurantHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	coord, err := h.center(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	out, err := h.c.Places.Suggest(r.Context(), r.URL.Query().Get("q"), coord)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if out == nil {
		out = []places.Suggestion{}
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// SearchArea handles GET /api/search/area/{placeId}, a nearby search around
// a suggested place.
func (h *RestaurantHandler) SearchArea(w http.ResponseWriter, r *http.Request) {
	out, err := h.c.Places.SearchArea(r.Context(), mux.Vars(r)["placeId"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// center reads lat/lng, falling back to the user's home and then the default city.
func (h *RestaurantHandler) center(r *http.Request) (model.Coordinate, error) {
	coord, ok, err := coordinateParam(r)
	if err != nil || ok {
		return coord, err
	}
	if u, uerr := h.c.Catalog.User(r.Context()); uerr == nil && u != nil && !u.Home.IsZero() {
		return u.Home, nil
	}
	return model.Melbourne, nil
}
