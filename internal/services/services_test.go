package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mymichlin/discovery/internal/catalog"
	"github.com/mymichlin/discovery/internal/events"
	"github.com/mymichlin/discovery/internal/genai"
	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/places"
	"github.com/mymichlin/discovery/internal/places/placestest"
	"github.com/mymichlin/discovery/internal/reconcile"
	"github.com/mymichlin/discovery/internal/store/sqlite"
)

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	n := events.NewNotifier(events.StoreSnapshotter(st), zerolog.Nop())
	return catalog.New(st, n, zerolog.Nop())
}

func newPlaceService(t *testing.T, fake *placestest.Fake) (*PlaceService, *catalog.Catalog) {
	cat := newCatalog(t)
	rec := reconcile.New(cat, zerolog.Nop())
	return NewPlaceService(cat, fake, rec, zerolog.Nop()), cat
}

func TestSearch_QueryShapeAndStored(t *testing.T) {
	fake := &placestest.Fake{Text: [][]places.Place{{placestest.Place("r1", 4.5, 40), placestest.Place("r2", 4.0, 400)}}}
	svc, cat := newPlaceService(t, fake)
	ctx := context.Background()

	out, err := svc.Search(ctx, "  dumplings ", model.Melbourne, 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "r2", out[0].ID)

	q := fake.TextCalls[0]
	assert.Equal(t, "dumplings", q.Text)
	assert.Equal(t, 15, q.MaxResults)
	assert.Equal(t, 10000.0, q.Bias.RadiusMeters)

	stored, err := cat.Restaurant(ctx, "r1")
	require.NoError(t, err)
	assert.NotNil(t, stored)

	_, err = svc.Search(ctx, "chips", model.Melbourne, 0)
	require.NoError(t, err)
	assert.Len(t, fake.TextCalls, 2, "search is never cached")

	_, err = svc.Search(ctx, " ", model.Melbourne, 0)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestDetails_CatalogFirst(t *testing.T) {
	p := placestest.Place("d1", 4.2, 12, "vietnamese_restaurant")
	fake := &placestest.Fake{Details: map[string]*places.Place{"d1": &p}}
	svc, _ := newPlaceService(t, fake)
	ctx := context.Background()

	r, err := svc.Details(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "vietnamese_restaurant", r.Cuisine)

	_, err = svc.Details(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, fake.DetailCalls)

	_, err = svc.Details(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestImportReviews(t *testing.T) {
	p := placestest.Place("p", 4, 1)
	fake := &placestest.Fake{
		Details: map[string]*places.Place{"p": &p},
		Review: map[string][]places.Review{"p": {
			{Name: "places/p/reviews/1", Rating: 4, Text: "ok", PublishTime: time.Now()},
		}},
	}
	svc, cat := newPlaceService(t, fake)
	ctx := context.Background()

	_, err := svc.Details(ctx, "p")
	require.NoError(t, err)
	_, err = cat.AddReview(ctx, &model.Review{RestaurantID: "p", Rating: 5, PublishedAt: time.Now().Add(-24 * time.Hour)})
	require.NoError(t, err)

	all, err := svc.ImportReviews(ctx, "p")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].AuthorLocal)

	all, err = svc.ImportReviews(ctx, "p")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBuildPrompt(t *testing.T) {
	u := &model.User{Name: "Ada", City: "Melbourne", Country: "Australia", PreferredCuisines: []string{"thai", "ramen"}, PriceTier: 3}
	p := BuildPrompt(u, "where for dinner?")
	assert.Contains(t, p, "- Name: Ada")
	assert.Contains(t, p, "- City: Melbourne, Australia")
	assert.Contains(t, p, "- Favourite cuisines: thai, ramen")
	assert.Contains(t, p, "- Price range: 3 / 5")
	assert.True(t, strings.HasSuffix(p, "User: where for dinner?"))

	assert.Contains(t, BuildPrompt(nil, "hi"), "User preferences not found.")
	assert.Contains(t, BuildPrompt(&model.User{Name: "B"}, "hi"), "Not specified")
}

func TestChatSend(t *testing.T) {
	cat := newCatalog(t)
	ctx := context.Background()
	_, err := cat.SaveUser(ctx, &model.User{Name: "Ada", PreferredCuisines: []string{"thai"}})
	require.NoError(t, err)

	var prompt string
	svc := NewChatService(cat, genai.ModelFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "Try Chin Chin.", nil
	}), zerolog.Nop())

	reply, err := svc.Send(ctx, "thai tonight?")
	require.NoError(t, err)
	assert.False(t, reply.FromUser)
	assert.Equal(t, "Try Chin Chin.", reply.Text)
	assert.Contains(t, prompt, "Favourite cuisines: thai")

	history, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].FromUser)

	require.NoError(t, svc.Clear(ctx))
	history, err = svc.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestChatSend_EmptyAndFailedReply(t *testing.T) {
	cat := newCatalog(t)
	ctx := context.Background()

	empty := NewChatService(cat, genai.ModelFunc(func(context.Context, string) (string, error) { return "", nil }), zerolog.Nop())
	reply, err := empty.Send(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, NoReply, reply.Text)

	failing := NewChatService(cat, genai.ModelFunc(func(context.Context, string) (string, error) {
		return "", errors.New("quota")
	}), zerolog.Nop())
	_, err = failing.Send(ctx, "again")
	require.Error(t, err)
	history, err := failing.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 3, "user message kept on failure")
}

func TestToggleCuisine(t *testing.T) {
	cat := newCatalog(t)
	ctx := context.Background()
	svc := NewUserService(cat)

	_, err := svc.ToggleCuisine(ctx, "thai")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = cat.SaveUser(ctx, &model.User{Name: "Ada", PreferredCuisines: []string{"thai"}})
	require.NoError(t, err)
	_, err = cat.SetUserImage(ctx, []byte{9})
	require.NoError(t, err)

	u, err := svc.ToggleCuisine(ctx, "ramen")
	require.NoError(t, err)
	assert.Equal(t, []string{"thai", "ramen"}, u.PreferredCuisines)
	assert.Equal(t, []byte{9}, u.ProfileImage)

	u, err = svc.ToggleCuisine(ctx, "thai")
	require.NoError(t, err)
	assert.Equal(t, []string{"ramen"}, u.PreferredCuisines)

	u, err = svc.ToggleCuisine(ctx, "Italian Restaurant")
	require.NoError(t, err)
	assert.Equal(t, []string{"ramen", "italian_restaurant"}, u.PreferredCuisines)

	_, err = svc.ToggleCuisine(ctx, "   ")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestSuggest_RestaurantsThenSuburbs(t *testing.T) {
	fake := &placestest.Fake{Suggestions: map[string][]places.Suggestion{
		"restaurant": {{PlaceID: "r1", MainText: "Chin Chin"}, {PlaceID: "shared"}},
		"locality":   {{PlaceID: "fitzroy", MainText: "Fitzroy"}, {PlaceID: "shared"}},
	}}
	svc, _ := newPlaceService(t, fake)

	out, err := svc.Suggest(context.Background(), " chin ", model.Melbourne)
	require.NoError(t, err)
	var ids []string
	for _, s := range out {
		ids = append(ids, s.PlaceID)
	}
	assert.Equal(t, []string{"r1", "shared", "fitzroy"}, ids)

	require.Len(t, fake.AutoCalls, 2)
	assert.Equal(t, []string{"restaurant"}, fake.AutoCalls[0].IncludedPrimaryTypes)
	assert.Equal(t, []string{"locality", "sublocality"}, fake.AutoCalls[1].IncludedPrimaryTypes)
	for _, q := range fake.AutoCalls {
		assert.Equal(t, "chin", q.Input)
		assert.Equal(t, model.Melbourne, q.Origin)
		assert.InDelta(t, model.Melbourne.Lat-0.004, q.Bias.Low.Lat, 1e-9)
		assert.InDelta(t, model.Melbourne.Lng+0.004, q.Bias.High.Lng, 1e-9)
	}
}

func TestSuggest_PartialAndTotalFailure(t *testing.T) {
	upstream := &places.Error{Op: "autocomplete", StatusCode: 500}
	fake := &placestest.Fake{
		Suggestions: map[string][]places.Suggestion{"locality": {{PlaceID: "fitzroy"}}},
		SuggestErr:  map[string]error{"restaurant": upstream},
	}
	svc, _ := newPlaceService(t, fake)
	ctx := context.Background()

	out, err := svc.Suggest(ctx, "fitz", model.Melbourne)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "fitzroy", out[0].PlaceID)

	fake.SuggestErr["locality"] = upstream
	_, err = svc.Suggest(ctx, "fitz", model.Melbourne)
	var pe *places.Error
	assert.ErrorAs(t, err, &pe)

	_, err = svc.Suggest(ctx, "  ", model.Melbourne)
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.Suggest(ctx, "x", model.Coordinate{Lat: 200})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestSearchArea_NearbyAroundPlace(t *testing.T) {
	fitzroy := model.Coordinate{Lat: -37.7991, Lng: 144.9786}
	fake := &placestest.Fake{
		Details: map[string]*places.Place{"fitzroy": {ID: "fitzroy", Location: fitzroy}},
		Nearby: [][]places.Place{
			{placestest.Place("thai1", 4.6, 50)},
			{placestest.Place("thai1", 4.6, 50), placestest.Place("big", 4.1, 800)},
		},
	}
	svc, cat := newPlaceService(t, fake)
	ctx := context.Background()
	_, err := cat.SaveUser(ctx, &model.User{Name: "Ada", PreferredCuisines: []string{"Thai Restaurant", "thai"}})
	require.NoError(t, err)

	out, err := svc.SearchArea(ctx, "fitzroy")
	require.NoError(t, err)
	var ids []string
	for _, r := range out {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"thai1", "big"}, ids)

	require.Len(t, fake.NearbyCalls, 2)
	pref, general := fake.NearbyCalls[0], fake.NearbyCalls[1]
	assert.Equal(t, []string{"thai_restaurant"}, pref.IncludedPrimaryTypes)
	assert.Equal(t, 5, pref.MaxResults)
	assert.Equal(t, 10, general.MaxResults)
	assert.Equal(t, fitzroy, general.Restriction.Center)
	assert.Equal(t, 3000.0, general.Restriction.RadiusMeters)

	_, err = svc.SearchArea(ctx, "fitzroy")
	require.NoError(t, err)
	assert.Len(t, fake.NearbyCalls, 4, "not cached")
}

func TestSearchArea_Errors(t *testing.T) {
	fake := &placestest.Fake{}
	svc, _ := newPlaceService(t, fake)
	ctx := context.Background()

	_, err := svc.SearchArea(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = svc.SearchArea(ctx, " ")
	assert.ErrorIs(t, err, model.ErrValidation)

	fake.SetErr(&places.Error{Op: "details", StatusCode: 503})
	_, err = svc.SearchArea(ctx, "fitzroy")
	var pe *places.Error
	assert.ErrorAs(t, err, &pe)
	assert.Empty(t, fake.NearbyCalls)
}
