// Package searchcache decides per category whether to trust previously
// resolved place identifiers or query the provider again.
package searchcache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/places"
)

// DefaultThresholdMeters is the distance beyond which a cached list is stale.
const DefaultThresholdMeters = 1000

var ErrUnknownCategory = errors.New("unknown category")

// Catalog is the read side of the entity store used on cache hits.
type Catalog interface {
	User(ctx context.Context) (*model.User, error)
	Restaurants(ctx context.Context, q model.RestaurantQuery) ([]*model.Restaurant, error)
}

// Reconciler merges provider batches into the entity store.
type Reconciler interface {
	Reconcile(ctx context.Context, batches ...[]places.Place) ([]*model.Restaurant, error)
}

// State is the remembered outcome of the last successful resolution.
type State struct {
	LastCoordinate *model.Coordinate
	IDs            []string
}

type Cache struct {
	provider   places.Provider
	rec        Reconciler
	cat        Catalog
	log        zerolog.Logger
	strategies map[Category]Strategy
	threshold  float64
	serialize  bool

	mu    sync.Mutex
	state map[Category]State
	locks map[Category]*sync.Mutex
}

type Option func(*Cache)

// WithThreshold sets the staleness distance in meters.
func WithThreshold(meters float64) Option {
	return func(c *Cache) { c.threshold = meters }
}

// WithStrategy registers or replaces a category.
func WithStrategy(cat Category, s Strategy) Option {
	return func(c *Cache) { c.strategies[cat] = s }
}

// WithSerializedCategories allows at most one Resolve in flight per category.
// Without it concurrent misses for the same category each query the provider.
func WithSerializedCategories() Option {
	return func(c *Cache) { c.serialize = true }
}

func New(provider places.Provider, rec Reconciler, cat Catalog, log zerolog.Logger, opts ...Option) *Cache {
	c := &Cache{
		provider:   provider,
		rec:        rec,
		cat:        cat,
		log:        log,
		strategies: DefaultStrategies(),
		threshold:  DefaultThresholdMeters,
		state:      make(map[Category]State),
		locks:      make(map[Category]*sync.Mutex),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Categories lists the registered categories in name order.
func (c *Cache) Categories() []Category {
	out := make([]Category, 0, len(c.strategies))
	for k := range c.strategies {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DefaultRadius returns the radius a category uses when none is given.
func (c *Cache) DefaultRadius(cat Category) (float64, error) {
	s, ok := c.strategies[cat]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
	return s.DefaultRadius, nil
}

// Resolve returns the restaurants for a category around coord. A radius of
// zero uses the category default.
func (c *Cache) Resolve(ctx context.Context, cat Category, coord model.Coordinate, radius float64) ([]*model.Restaurant, error) {
	s, ok := c.strategies[cat]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
	if err := coord.Validate(); err != nil {
		return nil, err
	}
	if radius <= 0 {
		radius = s.DefaultRadius
	}
	if c.serialize {
		l := c.categoryLock(cat)
		l.Lock()
		defer l.Unlock()
	}

	st := c.State(cat)
	if st.LastCoordinate != nil && len(st.IDs) > 0 &&
		model.DistanceMeters(coord, *st.LastCoordinate) <= c.threshold {
		hitsTotal.WithLabelValues(string(cat)).Inc()
		return c.fromCache(ctx, st.IDs)
	}

	missesTotal.WithLabelValues(string(cat)).Inc()
	out, err := c.fetch(ctx, cat, s, coord, radius)
	if err != nil {
		providerFailuresTotal.WithLabelValues(string(cat)).Inc()
		return nil, err
	}

	ids := make([]string, 0, len(out))
	for _, r := range out {
		ids = append(ids, r.ID)
	}
	at := coord
	c.mu.Lock()
	c.state[cat] = State{LastCoordinate: &at, IDs: ids}
	c.mu.Unlock()

	c.log.Debug().Str("category", string(cat)).Int("results", len(ids)).Msg("category refreshed")
	return out, nil
}

func (c *Cache) fetch(ctx context.Context, cat Category, s Strategy, coord model.Coordinate, radius float64) ([]*model.Restaurant, error) {
	req := Request{Center: coord, RadiusMeters: radius}
	u, err := c.cat.User(ctx)
	if err != nil {
		return nil, err
	}
	if u != nil {
		req.Preferences = u.PreferredCuisines
	}
	batches, err := s.Fetch(ctx, c.provider, req)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", cat, err)
	}
	out, err := c.rec.Reconcile(ctx, batches...)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", cat, err)
	}
	return out, nil
}

// fromCache reads ids from the catalog preserving order. Missing ids are skipped.
func (c *Cache) fromCache(ctx context.Context, ids []string) ([]*model.Restaurant, error) {
	rs, err := c.cat.Restaurants(ctx, model.RestaurantQuery{IDs: ids})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Restaurant, len(rs))
	for _, r := range rs {
		byID[r.ID] = r
	}
	out := make([]*model.Restaurant, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// ResolveDefault resolves around the user's home, or Melbourne when unknown,
// with the category's default radius.
func (c *Cache) ResolveDefault(ctx context.Context, cat Category) ([]*model.Restaurant, error) {
	coord, err := c.defaultCoordinate(ctx)
	if err != nil {
		return nil, err
	}
	return c.Resolve(ctx, cat, coord, 0)
}

func (c *Cache) defaultCoordinate(ctx context.Context) (model.Coordinate, error) {
	u, err := c.cat.User(ctx)
	if err != nil {
		return model.Coordinate{}, err
	}
	if u == nil || u.Home.IsZero() {
		return model.Melbourne, nil
	}
	return u.Home, nil
}

// Prefetch resolves every category around coord concurrently and returns the
// first error.
func (c *Cache) Prefetch(ctx context.Context, coord model.Coordinate) (map[Category][]*model.Restaurant, error) {
	var (
		mu  sync.Mutex
		out = make(map[Category][]*model.Restaurant)
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, cat := range c.Categories() {
		cat := cat
		g.Go(func() error {
			rs, err := c.Resolve(gctx, cat, coord, 0)
			if err != nil {
				return err
			}
			mu.Lock()
			out[cat] = rs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// State returns a copy of the category state.
func (c *Cache) State(cat Category) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state[cat]
	out := State{IDs: append([]string(nil), st.IDs...)}
	if st.LastCoordinate != nil {
		at := *st.LastCoordinate
		out.LastCoordinate = &at
	}
	return out
}

// Invalidate forgets a category so the next Resolve queries the provider.
func (c *Cache) Invalidate(cat Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.state, cat)
}

func (c *Cache) categoryLock(cat Category) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[cat]
	if !ok {
		l = &sync.Mutex{}
		c.locks[cat] = l
	}
	return l
}
