package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/mymichlin/discovery/internal/api/recovery"
	"github.com/mymichlin/discovery/internal/core"
)

// NewRouter creates and configures the HTTP router. healthy reports the
// aggregated service health; nil means always healthy.
func NewRouter(c *core.Core, healthy func() bool) http.Handler {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	health := NewHealthHandler(healthy)
	users := NewUserHandler(c)
	restaurants := NewRestaurantHandler(c)
	reviews := NewReviewHandler(c)
	chat := NewChatHandler(c)

	router.HandleFunc("/api/health", health.CheckHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	router.HandleFunc("/api/user", users.GetUser).Methods("GET")
	router.HandleFunc("/api/user", users.PutUser).Methods("PUT")
	router.HandleFunc("/api/user/image", users.PutImage).Methods("PUT")
	router.HandleFunc("/api/user/cuisines", users.ToggleCuisine).Methods("POST")

	router.HandleFunc("/api/restaurants", restaurants.ListRestaurants).Methods("GET")
	router.HandleFunc("/api/restaurants/{id}", restaurants.GetRestaurant).Methods("GET")
	router.HandleFunc("/api/restaurants/{id}/favourite", restaurants.ToggleFavourite).Methods("POST")
	router.HandleFunc("/api/categories/{category}/restaurants", restaurants.ListCategory).Methods("GET")
	router.HandleFunc("/api/search", restaurants.Search).Methods("GET")
	router.HandleFunc("/api/search/area/{placeId}", restaurants.SearchArea).Methods("GET")
	router.HandleFunc("/api/suggest", restaurants.Suggest).Methods("GET")

	router.HandleFunc("/api/restaurants/{id}/reviews", reviews.ListReviews).Methods("GET")
	router.HandleFunc("/api/restaurants/{id}/reviews", reviews.CreateReview).Methods("POST")
	router.HandleFunc("/api/restaurants/{id}/reviews/import", reviews.ImportReviews).Methods("POST")
	router.HandleFunc("/api/reviews/{id}", reviews.DeleteReview).Methods("DELETE")

	router.HandleFunc("/api/chat", chat.History).Methods("GET")
	router.HandleFunc("/api/chat", chat.Send).Methods("POST")
	router.HandleFunc("/api/chat", chat.Clear).Methods("DELETE")

	opts := cors.Options{
		AllowedOrigins: c.Config.Origins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}
	// An empty list would let the cors package allow everyone.
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(opts).Handler(router)
}
