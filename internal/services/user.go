package services

import (
	"context"
	"fmt"

	"github.com/mymichlin/discovery/internal/catalog"
	"github.com/mymichlin/discovery/internal/model"
)

// UserService edits the profile on top of the catalog's full-replace save.
type UserService struct {
	cat *catalog.Catalog
}

func NewUserService(cat *catalog.Catalog) *UserService { return &UserService{cat: cat} }

// ToggleCuisine adds tag to the preferred cuisines, or removes it when present.
// Tags are stored as provider place types, so "Thai Restaurant" is kept as
// "thai_restaurant".
func (s *UserService) ToggleCuisine(ctx context.Context, tag string) (*model.User, error) {
	if model.NormalizeCuisine(tag) == "" {
		return nil, fmt.Errorf("%w: empty cuisine", model.ErrValidation)
	}
	u, err := s.cat.User(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user: %w", model.ErrNotFound)
	}
	next := *u
	next.PreferredCuisines = u.WithCuisineToggled(tag)
	return s.cat.SaveUser(ctx, &next)
}
