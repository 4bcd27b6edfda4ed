package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mymichlin/discovery/internal/catalog"
	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/places"
	"github.com/mymichlin/discovery/internal/reconcile"
)

const (
	searchMaxResults    = 15
	searchDefaultRadius = 10000
)

// PlaceService serves uncached provider lookups: free-text search, place
// details and review import.
type PlaceService struct {
	cat      *catalog.Catalog
	provider places.Provider
	rec      *reconcile.Reconciler
	log      zerolog.Logger
}

func NewPlaceService(cat *catalog.Catalog, provider places.Provider, rec *reconcile.Reconciler, log zerolog.Logger) *PlaceService {
	return &PlaceService{cat: cat, provider: provider, rec: rec, log: log}
}

// Search runs a free-text restaurant search around center and stores the results.
func (s *PlaceService) Search(ctx context.Context, text string, center model.Coordinate, radius float64) ([]*model.Restaurant, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty search text", model.ErrValidation)
	}
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radius <= 0 {
		radius = searchDefaultRadius
	}
	ps, err := s.provider.SearchByText(ctx, places.TextQuery{
		Text:         text,
		IncludedType: "restaurant",
		MaxResults:   searchMaxResults,
		Bias:         places.Circle{Center: center, RadiusMeters: radius},
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", text, err)
	}
	return s.rec.Reconcile(ctx, ps)
}

// Details returns the stored restaurant, fetching it from the provider when
// it is not stored yet.
func (s *PlaceService) Details(ctx context.Context, id string) (*model.Restaurant, error) {
	if r, err := s.cat.Restaurant(ctx, id); err != nil || r != nil {
		return r, err
	}
	p, err := s.provider.PlaceDetails(ctx, id)
	if places.IsNotFound(err) {
		return nil, fmt.Errorf("restaurant %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("details %s: %w", id, err)
	}
	out, err := s.rec.Reconcile(ctx, []places.Place{*p})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("restaurant %s: %w", id, model.ErrNotFound)
	}
	return out[0], nil
}

// ImportReviews fetches the provider reviews of a restaurant and stores the
// ones not imported before. It returns the full review list, local first.
func (s *PlaceService) ImportReviews(ctx context.Context, id string) ([]*model.Review, error) {
	if _, err := s.Details(ctx, id); err != nil {
		return nil, err
	}
	prs, err := s.provider.Reviews(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reviews %s: %w", id, err)
	}
	added, err := s.rec.ImportReviews(ctx, id, prs)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("restaurant", id).Int("fetched", len(prs)).Int("added", len(added)).Msg("reviews imported")
	return s.cat.ReviewsFor(ctx, id)
}
