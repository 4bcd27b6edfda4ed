package core

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mymichlin/discovery/internal/config"
	"github.com/mymichlin/discovery/internal/events"
	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/places"
	"github.com/mymichlin/discovery/internal/places/placestest"
	"github.com/mymichlin/discovery/internal/searchcache"
	"github.com/mymichlin/discovery/internal/store/sqlite"
)

func TestCore_EndToEndFlow(t *testing.T) {
	st, err := sqlite.New(filepath.Join(t.TempDir(), "core.db"))
	require.NoError(t, err)
	fake := &placestest.Fake{Text: [][]places.Place{{placestest.Place("a", 4.5, 10), placestest.Place("b", 4.0, 99)}}}
	c := New(config.NewForTesting(), Deps{Store: st, Provider: fake}, zerolog.Nop())
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	ch := events.NewChannel(16)
	sub, err := c.Notifier.Subscribe(ctx, ch, model.KindRestaurant)
	require.NoError(t, err)
	defer sub.Close()
	replay := <-ch.Events()
	assert.Empty(t, replay.Restaurants)

	out, err := c.Cache.Resolve(ctx, searchcache.Trending, model.Melbourne, 0)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	var added []string
	for len(ch.Events()) > 0 {
		e := <-ch.Events()
		assert.Equal(t, model.ChangeAdd, e.Change)
		added = append(added, e.Restaurants[0].ID)
	}
	assert.Equal(t, []string{"b", "a"}, added)

	_, err = c.Chat.Send(ctx, "hi")
	assert.Error(t, err, "no model configured")
}

func TestOpen_SQLite(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "open.db")
	cfg.CacheSerialize = true
	cfg.FetchPhotos = true

	c, err := Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	assert.Len(t, c.Cache.Categories(), 3)
}
