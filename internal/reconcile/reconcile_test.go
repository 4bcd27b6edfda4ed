package reconcile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mymichlin/discovery/internal/catalog"
	"github.com/mymichlin/discovery/internal/events"
	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/places"
	"github.com/mymichlin/discovery/internal/places/placestest"
	"github.com/mymichlin/discovery/internal/store/sqlite"
)

func newCatalog(t *testing.T) (*catalog.Catalog, *events.Channel) {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "r.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	n := events.NewNotifier(events.StoreSnapshotter(st), zerolog.Nop())
	ch := events.NewChannel(64)
	_, err = n.Subscribe(context.Background(), ch, model.KindRestaurant)
	require.NoError(t, err)
	<-ch.Events() // replay
	return catalog.New(st, n, zerolog.Nop()), ch
}

func ids(rs []*model.Restaurant) []string {
	var out []string
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestRank_CountThenRating(t *testing.T) {
	in := []places.Place{
		placestest.Place("i0", 4.9, 5),
		placestest.Place("i1", 3.0, 20),
		placestest.Place("i2", 4.5, 20),
	}
	got := Rank(in)
	assert.Equal(t, "i2", got[0].ID)
	assert.Equal(t, "i1", got[1].ID)
	assert.Equal(t, "i0", got[2].ID)
	assert.Equal(t, "i0", in[0].ID, "input untouched")
}

func TestToRestaurant_Mapping(t *testing.T) {
	p := places.Place{ID: "x", PriceLevel: places.PriceVeryExpensive, Types: []string{"point_of_interest", "ramen_restaurant"}}
	r := ToRestaurant(p)
	assert.Equal(t, 5, r.PriceTier)
	assert.Equal(t, 0.0, r.Rating)
	assert.Equal(t, "ramen_restaurant", r.Cuisine)
	assert.Equal(t, "Unknown", r.Name)
	assert.False(t, r.Favourite)

	assert.Equal(t, DefaultCuisine, Cuisine([]string{"restaurant", "food", "establishment"}))
	assert.Equal(t, DefaultCuisine, Cuisine(nil))
	assert.Equal(t, 0, ToRestaurant(places.Place{ID: "y", PriceLevel: "SOMETHING_NEW"}).PriceTier)
}

func TestReconcile_RankedOrderAndEvents(t *testing.T) {
	cat, ch := newCatalog(t)
	rec := New(cat, zerolog.Nop())

	out, err := rec.Reconcile(context.Background(), []places.Place{
		placestest.Place("i0", 4.9, 5),
		placestest.Place("i1", 3.0, 20),
		placestest.Place("i2", 4.5, 20),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"i2", "i1", "i0"}, ids(out))
	assert.Len(t, ch.Events(), 3)
}

func TestReconcile_DedupAcrossBatchesKeepsFirst(t *testing.T) {
	cat, _ := newCatalog(t)
	rec := New(cat, zerolog.Nop())

	out, err := rec.Reconcile(context.Background(),
		[]places.Place{placestest.Place("a", 4, 10), placestest.Place("b", 4, 50)},
		[]places.Place{placestest.Place("a", 4, 10), placestest.Place("c", 4, 99)},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, ids(out))
}

func TestReconcile_FavouriteSurvivesRefetch(t *testing.T) {
	cat, ch := newCatalog(t)
	rec := New(cat, zerolog.Nop())
	ctx := context.Background()

	_, err := rec.Reconcile(ctx, []places.Place{placestest.Place("fav", 4.2, 100)})
	require.NoError(t, err)
	_, err = cat.ToggleFavourite(ctx, "fav")
	require.NoError(t, err)
	for len(ch.Events()) > 0 {
		<-ch.Events()
	}

	refetched := placestest.Place("fav", 1.0, 1)
	refetched.DisplayName = "Renamed"
	out, err := rec.Reconcile(ctx, []places.Place{refetched})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Favourite)
	assert.Equal(t, "fav", out[0].Name)
	assert.Empty(t, ch.Events(), "no add for an existing record")
}

func TestReconcile_EmptyAndCancelled(t *testing.T) {
	cat, ch := newCatalog(t)
	rec := New(cat, zerolog.Nop())

	out, err := rec.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = rec.Reconcile(ctx, []places.Place{placestest.Place("late", 4, 1)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ch.Events())
	got, err := cat.Restaurant(context.Background(), "late")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReconcile_PhotosForNewPlacesOnly(t *testing.T) {
	cat, _ := newCatalog(t)
	fake := &placestest.Fake{Photos: map[string][]byte{"ph/new": {1, 2}}}
	rec := New(cat, zerolog.Nop(), WithPhotos(fake))
	ctx := context.Background()

	old := placestest.Place("old", 4, 1)
	old.PhotoRef = "ph/old"
	_, err := New(cat, zerolog.Nop()).Reconcile(ctx, []places.Place{old})
	require.NoError(t, err)

	fresh := placestest.Place("new", 4, 2)
	fresh.PhotoRef = "ph/new"
	broken := placestest.Place("broken", 4, 0)
	broken.PhotoRef = "ph/missing"

	out, err := rec.Reconcile(ctx, []places.Place{old, fresh, broken})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"ph/new", "ph/missing"}, fake.PhotoCalls)
	assert.Equal(t, []byte{1, 2}, out[0].Image)
	assert.Empty(t, out[2].Image)
}

func TestImportReviews(t *testing.T) {
	cat, _ := newCatalog(t)
	rec := New(cat, zerolog.Nop())
	ctx := context.Background()
	_, err := rec.Reconcile(ctx, []places.Place{placestest.Place("p", 4, 1)})
	require.NoError(t, err)

	prs := []places.Review{
		{Name: "places/p/reviews/1", Rating: 5, Text: "superb", PublishTime: time.Now().Add(-time.Hour), RelativeTime: "an hour ago"},
		{Name: "places/p/reviews/2", Rating: 2, PublishTime: time.Now()},
	}
	got, err := rec.ImportReviews(ctx, "p", prs)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].Comment)
	assert.Equal(t, "superb", *got[0].Comment)
	assert.Nil(t, got[1].Comment)
	assert.False(t, got[0].AuthorLocal)

	again, err := rec.ImportReviews(ctx, "p", prs)
	require.NoError(t, err)
	assert.Empty(t, again)
}
