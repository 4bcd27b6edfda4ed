package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mymichlin/discovery/internal/config"
	"github.com/mymichlin/discovery/internal/core"
	"github.com/mymichlin/discovery/internal/genai"
	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/places"
	"github.com/mymichlin/discovery/internal/places/placestest"
	"github.com/mymichlin/discovery/internal/store/sqlite"
)

type fixture struct {
	core   *core.Core
	fake   *placestest.Fake
	router http.Handler
}

func newFixture(t *testing.T, m genai.Model) *fixture {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	fake := &placestest.Fake{
		Text: [][]places.Place{{placestest.Place("a", 4.5, 10), placestest.Place("b", 4.0, 99)}},
		Details: map[string]*places.Place{
			"z": ptr(placestest.Place("z", 3.9, 5, "thai_restaurant")),
		},
		Review: map[string][]places.Review{
			"a": {{Name: "places/a/reviews/1", Author: "Sam", Rating: 5, Text: "great", PublishTime: time.Now().Add(-time.Hour)}},
		},
	}
	c := core.New(config.NewForTesting(), core.Deps{Store: st, Provider: fake, Model: m}, zerolog.Nop())
	t.Cleanup(func() { _ = c.Close() })
	return &fixture{core: c, fake: fake, router: NewRouter(c, nil)}
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	rr := f.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "healthy", decode[map[string]interface{}](t, rr)["status"])

	down := NewRouter(f.core, func() bool { return false })
	rr = httptest.NewRecorder()
	down.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "unhealthy", decode[map[string]interface{}](t, rr)["status"])
}

func TestUser_PutGetAndToggle(t *testing.T) {
	f := newFixture(t, nil)

	rr := f.do(t, http.MethodGet, "/api/user", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, http.MethodPut, "/api/user", model.User{Name: "Ada", City: "Melbourne", PriceTier: 2})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = f.do(t, http.MethodPost, "/api/user/cuisines", map[string]string{"cuisine": "thai"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, []string{"thai"}, decode[model.User](t, rr).PreferredCuisines)

	rr = f.do(t, http.MethodGet, "/api/user", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Ada", decode[model.User](t, rr).Name)

	rr = f.do(t, http.MethodPut, "/api/user", model.User{Name: "Ada", PriceTier: 9})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUser_RejectsUnknownFields(t *testing.T) {
	f := newFixture(t, nil)
	rr := f.do(t, http.MethodPut, "/api/user", map[string]interface{}{"name": "Ada", "shoeSize": 9})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCategories_ResolveAndFavourite(t *testing.T) {
	f := newFixture(t, nil)

	rr := f.do(t, http.MethodGet, "/api/categories/trending/restaurants?lat=-37.81&lng=144.96", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decode[[]model.Restaurant](t, rr)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)

	// Close enough to the last coordinate: served from the cache.
	rr = f.do(t, http.MethodGet, "/api/categories/trending/restaurants?lat=-37.8101&lng=144.9601", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, f.fake.Calls())

	rr = f.do(t, http.MethodPost, "/api/restaurants/a/favourite", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[model.Restaurant](t, rr).Favourite)

	rr = f.do(t, http.MethodGet, "/api/restaurants?favourite=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	favs := decode[[]model.Restaurant](t, rr)
	require.Len(t, favs, 1)
	assert.Equal(t, "a", favs[0].ID)
}

func TestCategories_BadInput(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/categories/fancy/restaurants", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/categories/trending/restaurants?lat=1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/categories/trending/restaurants?lat=99&lng=0", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/restaurants?sort=price", nil).Code)
}

func TestProviderFailureIsBadGateway(t *testing.T) {
	f := newFixture(t, nil)
	f.fake.SetErr(&places.Error{Op: "searchText", StatusCode: 503, Retryable: true})
	rr := f.do(t, http.MethodGet, "/api/search?q=pho", nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestSearch(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/search?q=", nil).Code)

	rr := f.do(t, http.MethodGet, "/api/search?q=pho&lat=-37.8&lng=144.9&radius=500", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Len(t, decode[[]model.Restaurant](t, rr), 2)
}

func TestRestaurantDetails(t *testing.T) {
	f := newFixture(t, nil)
	rr := f.do(t, http.MethodGet, "/api/restaurants/z", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "thai_restaurant", decode[model.Restaurant](t, rr).Cuisine)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/restaurants/missing", nil).Code)
}

func TestReviews_Lifecycle(t *testing.T) {
	f := newFixture(t, nil)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/search?q=pho", nil).Code)

	rr := f.do(t, http.MethodPost, "/api/restaurants/a/reviews", map[string]interface{}{"rating": 4, "comment": "nice"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	local := decode[model.Review](t, rr)
	assert.True(t, local.AuthorLocal)

	rr = f.do(t, http.MethodPost, "/api/restaurants/a/reviews/import", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	all := decode[[]model.Review](t, rr)
	require.Len(t, all, 2)
	assert.Equal(t, local.ID, all[0].ID)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodDelete, "/api/reviews/"+all[1].ID, nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/reviews/"+local.ID, nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/reviews/"+local.ID, nil).Code)

	assert.Equal(t, http.StatusNotFound,
		f.do(t, http.MethodPost, "/api/restaurants/nope/reviews", map[string]interface{}{"rating": 3}).Code)
}

func TestChat(t *testing.T) {
	f := newFixture(t, genai.ModelFunc(func(_ context.Context, prompt string) (string, error) {
		return "try the pho", nil
	}))

	rr := f.do(t, http.MethodPost, "/api/chat", map[string]string{"text": "dinner?"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "try the pho", decode[model.ChatMessage](t, rr).Text)

	rr = f.do(t, http.MethodGet, "/api/chat", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.ChatMessage](t, rr), 2)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/chat", nil).Code)
	rr = f.do(t, http.MethodGet, "/api/chat", nil)
	assert.Empty(t, decode[[]model.ChatMessage](t, rr))
}

func TestChat_Unconfigured(t *testing.T) {
	f := newFixture(t, nil)
	rr := f.do(t, http.MethodPost, "/api/chat", map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestChat_ModelFailureIsBadGateway(t *testing.T) {
	f := newFixture(t, genai.ModelFunc(func(context.Context, string) (string, error) {
		return "", &genai.Error{StatusCode: http.StatusTooManyRequests, Body: "quota", Retryable: true}
	}))
	rr := f.do(t, http.MethodPost, "/api/chat", map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "429")
}

func TestSuggestAndArea(t *testing.T) {
	f := newFixture(t, nil)
	f.fake.Suggestions = map[string][]places.Suggestion{
		"restaurant": {{PlaceID: "a", MainText: "A"}},
		"locality":   {{PlaceID: "fitzroy", MainText: "Fitzroy"}},
	}
	f.fake.Details["fitzroy"] = &places.Place{ID: "fitzroy", Location: model.Coordinate{Lat: -37.7991, Lng: 144.9786}}
	f.fake.Nearby = [][]places.Place{{placestest.Place("n1", 4.2, 30)}}

	rr := f.do(t, http.MethodGet, "/api/suggest?q=fitz&lat=-37.8&lng=144.97", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decode[[]places.Suggestion](t, rr)
	require.Len(t, got, 2)
	assert.Equal(t, "fitzroy", got[1].PlaceID)
	assert.Equal(t, model.Coordinate{Lat: -37.8, Lng: 144.97}, f.fake.AutoCalls[0].Origin)

	rr = f.do(t, http.MethodGet, "/api/suggest?q=fitz", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.Melbourne, f.fake.AutoCalls[2].Origin)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/suggest?q=", nil).Code)

	rr = f.do(t, http.MethodGet, "/api/search/area/fitzroy", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rs := decode[[]model.Restaurant](t, rr)
	require.Len(t, rs, 1)
	assert.Equal(t, "n1", rs[0].ID)
	assert.Equal(t, 3000.0, f.fake.NearbyCalls[0].Restriction.RadiusMeters)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/search/area/nowhere", nil).Code)
}

func TestCORS_EmptyOriginsByEnvironment(t *testing.T) {
	f := newFixture(t, nil)
	preflight := func(h http.Handler) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/user", nil)
		req.Header.Set("Origin", "http://evil.test")
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	f.core.Config.AllowedOrigins = ""
	assert.Equal(t, "*", preflight(NewRouter(f.core, nil)).Header().Get("Access-Control-Allow-Origin"))

	f.core.Config.Environment = config.EnvProduction
	assert.Empty(t, preflight(NewRouter(f.core, nil)).Header().Get("Access-Control-Allow-Origin"))

	f.core.Config.AllowedOrigins = "https://app.test"
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://app.test")
	rr := httptest.NewRecorder()
	NewRouter(f.core, nil).ServeHTTP(rr, req)
	assert.Equal(t, "https://app.test", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestWriteErr_Internal(t *testing.T) {
	rr := httptest.NewRecorder()
	writeErr(rr, httptest.NewRequest(http.MethodGet, "/x", nil), errors.New("disk on fire"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "disk on fire")
}

func TestMetricsExposed(t *testing.T) {
	f := newFixture(t, nil)
	rr := f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}
