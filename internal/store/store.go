package store

import (
	"context"

	"github.com/mymichlin/discovery/internal/model"
)

// Store exposes the raw persistence operations used by the catalog.
// Implementations live under internal/store/<driver>/ (sqlite, postgres).
// Every mutating call commits before it returns.
// Lookups of a single absent record return model.ErrNotFound.
type Store interface {
	Users() Users
	Restaurants() Restaurants
	Reviews() Reviews
	Chats() Chats

	HealthPing(ctx context.Context) error
	Close() error
}

type Users interface {
	Get(ctx context.Context) (*model.User, error)
	// Put fully replaces the singleton user; created reports whether it did not exist before.
	Put(ctx context.Context, u *model.User) (out *model.User, created bool, err error)
	SetImage(ctx context.Context, img []byte) (*model.User, error)
}

type Restaurants interface {
	// UpsertMany inserts records whose ID is not stored yet and returns the
	// stored version of every input, in input order, in one transaction.
	// inserted[i] is true when rs[i] was newly written.
	UpsertMany(ctx context.Context, rs []*model.Restaurant) (out []*model.Restaurant, inserted []bool, err error)
	Get(ctx context.Context, id string) (*model.Restaurant, error)
	List(ctx context.Context, q model.RestaurantQuery) ([]*model.Restaurant, error)
	ToggleFavourite(ctx context.Context, id string) (*model.Restaurant, error)
}

type Reviews interface {
	// CreateMany stores reviews for one restaurant. Reviews whose ExternalRef is
	// already stored are skipped; only the inserted rows are returned.
	CreateMany(ctx context.Context, restaurantID string, rs []*model.Review) ([]*model.Review, error)
	Get(ctx context.Context, id string) (*model.Review, error)
	List(ctx context.Context, q model.ReviewQuery) ([]*model.Review, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type Chats interface {
	Append(ctx context.Context, m *model.ChatMessage) error
	List(ctx context.Context) ([]*model.ChatMessage, error)
	Clear(ctx context.Context) error
}
