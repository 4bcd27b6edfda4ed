package events

import (
	"context"
	"errors"

	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/store"
)

// Snapshotter reads the current committed state used for subscribe replay.
type Snapshotter interface {
	CurrentUser(ctx context.Context) (*model.User, error)
	CurrentRestaurants(ctx context.Context) ([]*model.Restaurant, error)
	CurrentReviews(ctx context.Context, restaurantID string) ([]*model.Review, error)
	CurrentChats(ctx context.Context) ([]*model.ChatMessage, error)
}

// StoreSnapshotter reads replay state straight from a store.
func StoreSnapshotter(st store.Store) Snapshotter { return storeSnapshotter{st} }

type storeSnapshotter struct{ st store.Store }

func (s storeSnapshotter) CurrentUser(ctx context.Context) (*model.User, error) {
	u, err := s.st.Users().Get(ctx)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

func (s storeSnapshotter) CurrentRestaurants(ctx context.Context) ([]*model.Restaurant, error) {
	return s.st.Restaurants().List(ctx, model.RestaurantQuery{})
}

func (s storeSnapshotter) CurrentReviews(ctx context.Context, restaurantID string) ([]*model.Review, error) {
	rs, err := s.st.Reviews().List(ctx, model.ReviewQuery{RestaurantID: restaurantID})
	if err != nil {
		return nil, err
	}
	model.SortReviewsLocalFirst(rs)
	return rs, nil
}

func (s storeSnapshotter) CurrentChats(ctx context.Context) ([]*model.ChatMessage, error) {
	return s.st.Chats().List(ctx)
}
