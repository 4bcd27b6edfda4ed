// Package storetest holds a compliance suite shared by every store.Store driver.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/store"
)

// Run exercises the compliance suite against a store.Store implementation.
// makeStore is called once; subtests share the store and run sequentially.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)

	t.Run("Users", func(t *testing.T) { testUsers(t, s) })
	t.Run("RestaurantsUpsert", func(t *testing.T) { testRestaurantsUpsert(t, s) })
	t.Run("RestaurantsList", func(t *testing.T) { testRestaurantsList(t, s) })
	t.Run("Reviews", func(t *testing.T) { testReviews(t, s) })
	t.Run("Chats", func(t *testing.T) { testChats(t, s) })
	t.Run("HealthPing", func(t *testing.T) {
		require.NoError(t, s.HealthPing(context.Background()))
	})
}

func uniq(prefix string) string { return prefix + "-" + uuid.New().String()[:8] }

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, created, err := s.Users().Put(ctx, &model.User{
		Name:              "Ada",
		City:              "Melbourne",
		Country:           "Australia",
		PreferredCuisines: []string{"thai", "ramen", "thai"},
		PriceTier:         2,
		Home:              model.Melbourne,
	})
	require.NoError(t, err)
	_ = created // the suite may run against a store that already has a user

	got, err := s.Users().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, []string{"thai", "ramen"}, got.PreferredCuisines)
	assert.InDelta(t, model.Melbourne.Lat, got.Home.Lat, 1e-9)

	out, created, err := s.Users().Put(ctx, &model.User{Name: "Grace", PriceTier: 4})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Grace", out.Name)
	assert.Empty(t, out.PreferredCuisines)
	assert.Equal(t, "", out.City)

	withImg, err := s.Users().SetImage(ctx, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, withImg.ProfileImage)
	assert.Equal(t, "Grace", withImg.Name)
}

func testRestaurantsUpsert(t *testing.T, s store.Store) {
	ctx := context.Background()
	id := uniq("place")

	out, inserted, err := s.Restaurants().UpsertMany(ctx, []*model.Restaurant{
		{ID: id, Name: "First", Rating: 4.2, RatingCount: 10, Cuisine: "thai", Location: model.Melbourne},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []bool{true}, inserted)
	assert.Equal(t, "First", out[0].Name)
	assert.False(t, out[0].CreatedAt.IsZero())

	fav, err := s.Restaurants().ToggleFavourite(ctx, id)
	require.NoError(t, err)
	assert.True(t, fav.Favourite)

	// Re-fetch must not overwrite anything, least of all the favourite flag.
	out, inserted, err = s.Restaurants().UpsertMany(ctx, []*model.Restaurant{
		{ID: id, Name: "Second", Rating: 1.0, Cuisine: "pizza"},
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, inserted)
	assert.Equal(t, "First", out[0].Name)
	assert.True(t, out[0].Favourite)

	_, err = s.Restaurants().Get(ctx, uniq("absent"))
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.Restaurants().ToggleFavourite(ctx, uniq("absent"))
	assert.ErrorIs(t, err, model.ErrNotFound)

	// A bad record aborts the whole batch.
	good := uniq("place")
	_, _, err = s.Restaurants().UpsertMany(ctx, []*model.Restaurant{{ID: good, Name: "ok"}, {Name: "no id"}})
	require.Error(t, err)
	_, err = s.Restaurants().Get(ctx, good)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func testRestaurantsList(t *testing.T, s store.Store) {
	ctx := context.Background()
	a, b, c := uniq("a"), uniq("b"), uniq("c")
	_, _, err := s.Restaurants().UpsertMany(ctx, []*model.Restaurant{
		{ID: a, Name: "Zucca", Rating: 4.5, RatingCount: 20, Cuisine: "italian"},
		{ID: b, Name: "Bao", Rating: 4.5, RatingCount: 5, Cuisine: "chinese"},
		{ID: c, Name: "Miso", Rating: 3.0, RatingCount: 50, Cuisine: "japanese"},
	})
	require.NoError(t, err)

	ids := []string{a, b, c}
	byName, err := s.Restaurants().List(ctx, model.RestaurantQuery{IDs: ids})
	require.NoError(t, err)
	assert.Equal(t, []string{b, c, a}, restaurantIDs(byName))

	// Ties on rating keep insertion order.
	byRating, err := s.Restaurants().List(ctx, model.RestaurantQuery{IDs: ids, SortBy: model.SortByRating, Descending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b, c}, restaurantIDs(byRating))

	good, err := s.Restaurants().List(ctx, model.RestaurantQuery{IDs: ids, MinRating: 4, SortBy: model.SortByRatingCount})
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, restaurantIDs(good))

	_, err = s.Restaurants().ToggleFavourite(ctx, c)
	require.NoError(t, err)
	favs, err := s.Restaurants().List(ctx, model.RestaurantQuery{IDs: ids, FavouriteOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{c}, restaurantIDs(favs))

	limited, err := s.Restaurants().List(ctx, model.RestaurantQuery{IDs: ids, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := s.Restaurants().List(ctx, model.RestaurantQuery{IDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = s.Restaurants().List(ctx, model.RestaurantQuery{SortBy: "phone"})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func testReviews(t *testing.T, s store.Store) {
	ctx := context.Background()
	place := uniq("place")
	_, _, err := s.Restaurants().UpsertMany(ctx, []*model.Restaurant{{ID: place, Name: "Reviewed"}})
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Microsecond)
	comment := "great noodles"
	ref := uniq("ref")
	created, err := s.Reviews().CreateMany(ctx, place, []*model.Review{
		{AuthorLocal: true, Comment: &comment, Rating: 5, PublishedAt: now.Add(-time.Hour)},
		{Rating: 3, PublishedAt: now, ExternalRef: &ref},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotEmpty(t, created[0].ID)
	assert.NotEqual(t, created[0].ID, created[1].ID)
	assert.Equal(t, place, created[0].RestaurantID)

	again, err := s.Reviews().CreateMany(ctx, place, []*model.Review{{Rating: 3, PublishedAt: now, ExternalRef: &ref}})
	require.NoError(t, err)
	assert.Empty(t, again)

	list, err := s.Reviews().List(ctx, model.ReviewQuery{RestaurantID: place})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, created[1].ID, list[0].ID, "newest first")
	assert.True(t, list[0].PublishedAt.Equal(now))

	local, err := s.Reviews().List(ctx, model.ReviewQuery{RestaurantID: place, LocalOnly: true})
	require.NoError(t, err)
	require.Len(t, local, 1)
	require.NotNil(t, local[0].Comment)
	assert.Equal(t, comment, *local[0].Comment)

	_, err = s.Reviews().CreateMany(ctx, uniq("absent"), []*model.Review{{Rating: 1}})
	assert.ErrorIs(t, err, model.ErrNotFound)

	got, err := s.Reviews().Get(ctx, created[0].ID)
	require.NoError(t, err)
	assert.True(t, got.AuthorLocal)

	ok, err := s.Reviews().Delete(ctx, created[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Reviews().Delete(ctx, created[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = s.Reviews().Get(ctx, created[0].ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func testChats(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Chats().Clear(ctx))

	base := time.Now()
	for i, text := range []string{"hi", "hello!", "where to eat?"} {
		require.NoError(t, s.Chats().Append(ctx, &model.ChatMessage{
			ID: uuid.New().String(), Text: text, FromUser: i%2 == 0, SentAt: base.Add(time.Duration(i) * time.Millisecond),
		}))
	}
	msgs, err := s.Chats().List(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.True(t, msgs[0].FromUser)
	assert.False(t, msgs[1].FromUser)
	assert.Equal(t, "where to eat?", msgs[2].Text)

	require.NoError(t, s.Chats().Clear(ctx))
	msgs, err = s.Chats().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func restaurantIDs(rs []*model.Restaurant) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}
