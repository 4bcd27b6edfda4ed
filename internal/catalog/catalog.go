// Package catalog is the entity store: the upsert, query and delete contract
// over store.Store, publishing committed changes to the notifier.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mymichlin/discovery/internal/events"
	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/store"
)

// Publisher receives committed changes. *events.Notifier implements it.
type Publisher interface {
	Publish(events.Event)
}

// Catalog serializes every mutation with a single writer lock held across
// the store commit and the publish, so observers see events in commit order.
// Reads do not take the lock and always see committed state.
type Catalog struct {
	st  store.Store
	pub Publisher
	log zerolog.Logger

	mu  sync.Mutex
	now func() time.Time
}

func New(st store.Store, pub Publisher, log zerolog.Logger) *Catalog {
	return &Catalog{st: st, pub: pub, log: log, now: time.Now}
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrValidation) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &model.StoreError{Op: op, Err: err}
}

func (c *Catalog) publish(evt events.Event) {
	if c.pub == nil {
		return
	}
	c.pub.Publish(evt)
}

// --- User ---

// SaveUser creates the singleton user or fully replaces its fields.
func (c *Catalog) SaveUser(ctx context.Context, u *model.User) (*model.User, error) {
	if u == nil {
		return nil, fmt.Errorf("%w: nil user", model.ErrValidation)
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	out, created, err := c.st.Users().Put(ctx, u)
	if err != nil {
		return nil, wrap("save user", err)
	}
	change := model.ChangeUpdate
	if created {
		change = model.ChangeAdd
	}
	c.publish(events.Event{Kind: model.KindUser, Change: change, User: out})
	return out, nil
}

// SetUserImage replaces the profile image of the existing user.
func (c *Catalog) SetUserImage(ctx context.Context, img []byte) (*model.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out, err := c.st.Users().SetImage(ctx, img)
	if err != nil {
		return nil, wrap("set user image", err)
	}
	c.publish(events.Event{Kind: model.KindUser, Change: model.ChangeUpdate, User: out})
	return out, nil
}

// User returns the singleton user, or nil when none was saved yet.
func (c *Catalog) User(ctx context.Context) (*model.User, error) {
	u, err := c.st.Users().Get(ctx)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get user", err)
	}
	return u, nil
}

// --- Restaurants ---

// UpsertRestaurant stores r unless a record with the same ID exists, in which
// case the stored record is returned unchanged. created reports an insert.
func (c *Catalog) UpsertRestaurant(ctx context.Context, r *model.Restaurant) (*model.Restaurant, bool, error) {
	out, inserted, err := c.upsert(ctx, []*model.Restaurant{r})
	if err != nil {
		return nil, false, err
	}
	return out[0], inserted[0], nil
}

// UpsertRestaurants applies UpsertRestaurant to a batch in one commit.
// The result is the stored record for every input, in input order.
func (c *Catalog) UpsertRestaurants(ctx context.Context, rs []*model.Restaurant) ([]*model.Restaurant, error) {
	out, _, err := c.upsert(ctx, rs)
	return out, err
}

func (c *Catalog) upsert(ctx context.Context, rs []*model.Restaurant) ([]*model.Restaurant, []bool, error) {
	for i, r := range rs {
		if r == nil || strings.TrimSpace(r.ID) == "" {
			return nil, nil, fmt.Errorf("%w: restaurant %d has no id", model.ErrValidation, i)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	out, inserted, err := c.st.Restaurants().UpsertMany(ctx, rs)
	if err != nil {
		return nil, nil, wrap("upsert restaurants", err)
	}
	added := 0
	for i, ok := range inserted {
		if ok {
			added++
			c.publish(events.Event{Kind: model.KindRestaurant, Change: model.ChangeAdd, Restaurants: []*model.Restaurant{out[i]}})
		}
	}
	c.log.Debug().Int("batch", len(rs)).Int("added", added).Msg("restaurants upserted")
	return out, inserted, nil
}

// Restaurant returns the record with id, or nil when absent.
func (c *Catalog) Restaurant(ctx context.Context, id string) (*model.Restaurant, error) {
	r, err := c.st.Restaurants().Get(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get restaurant", err)
	}
	return r, nil
}

// Restaurants lists records matching q.
func (c *Catalog) Restaurants(ctx context.Context, q model.RestaurantQuery) ([]*model.Restaurant, error) {
	rs, err := c.st.Restaurants().List(ctx, q)
	if err != nil {
		return nil, wrap("list restaurants", err)
	}
	return rs, nil
}

// Favourites lists the favourite restaurants by name.
func (c *Catalog) Favourites(ctx context.Context) ([]*model.Restaurant, error) {
	return c.Restaurants(ctx, model.RestaurantQuery{FavouriteOnly: true, SortBy: model.SortByName})
}

// ToggleFavourite flips the favourite flag of id.
func (c *Catalog) ToggleFavourite(ctx context.Context, id string) (*model.Restaurant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out, err := c.st.Restaurants().ToggleFavourite(ctx, id)
	if err != nil {
		return nil, wrap("toggle favourite", err)
	}
	c.publish(events.Event{Kind: model.KindRestaurant, Change: model.ChangeUpdate, Restaurants: []*model.Restaurant{out}})
	return out, nil
}
