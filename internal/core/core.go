// Package core wires the discovery components into one explicitly
// constructed container shared by the HTTP service and the CLI.
package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mymichlin/discovery/internal/catalog"
	"github.com/mymichlin/discovery/internal/config"
	"github.com/mymichlin/discovery/internal/events"
	"github.com/mymichlin/discovery/internal/factory"
	"github.com/mymichlin/discovery/internal/genai"
	"github.com/mymichlin/discovery/internal/places"
	"github.com/mymichlin/discovery/internal/reconcile"
	"github.com/mymichlin/discovery/internal/searchcache"
	"github.com/mymichlin/discovery/internal/services"
	"github.com/mymichlin/discovery/internal/store"
)

// Deps are the external dependencies of the core.
type Deps struct {
	Store    store.Store
	Provider places.Provider
	// Photos is optional; when set newly seen places get their first photo.
	Photos places.PhotoFetcher
	Model  genai.Model
}

type Core struct {
	Config *config.Config
	Log    zerolog.Logger

	Store      store.Store
	Notifier   *events.Notifier
	Catalog    *catalog.Catalog
	Reconciler *reconcile.Reconciler
	Cache      *searchcache.Cache

	Places *services.PlaceService
	Chat   *services.ChatService
	Users  *services.UserService
}

// New assembles the core around deps.
func New(cfg *config.Config, deps Deps, log zerolog.Logger) *Core {
	n := events.NewNotifier(events.StoreSnapshotter(deps.Store), log.With().Str("component", "notifier").Logger())
	cat := catalog.New(deps.Store, n, log.With().Str("component", "catalog").Logger())

	var recOpts []reconcile.Option
	if deps.Photos != nil {
		recOpts = append(recOpts, reconcile.WithPhotos(deps.Photos))
	}
	rec := reconcile.New(cat, log.With().Str("component", "reconcile").Logger(), recOpts...)

	cacheOpts := []searchcache.Option{searchcache.WithThreshold(cfg.CacheDistanceMeters)}
	if cfg.CacheSerialize {
		cacheOpts = append(cacheOpts, searchcache.WithSerializedCategories())
	}
	cache := searchcache.New(deps.Provider, rec, cat, log.With().Str("component", "searchcache").Logger(), cacheOpts...)

	model := deps.Model
	if model == nil {
		model = genai.Unconfigured
	}

	return &Core{
		Config:     cfg,
		Log:        log,
		Store:      deps.Store,
		Notifier:   n,
		Catalog:    cat,
		Reconciler: rec,
		Cache:      cache,
		Places:     services.NewPlaceService(cat, deps.Provider, rec, log.With().Str("component", "places").Logger()),
		Chat:       services.NewChatService(cat, model, log.With().Str("component", "chat").Logger()),
		Users:      services.NewUserService(cat),
	}
}

// Open builds the configured store, provider and model and assembles the core.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Core, error) {
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	client := factory.NewPlacesClient(cfg, log)
	deps := Deps{Store: st, Provider: client, Model: factory.NewModel(cfg, log)}
	if cfg.FetchPhotos {
		deps.Photos = client
	}
	return New(cfg, deps, log), nil
}

// Close releases the store.
func (c *Core) Close() error {
	return c.Store.Close()
}
