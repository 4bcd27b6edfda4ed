package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/places"
	"github.com/mymichlin/discovery/internal/searchcache"
)

const (
	// suggestBiasDegrees is half the side of the box suggestions are biased to.
	suggestBiasDegrees = 0.004

	areaPreferredMax = 5
	areaGeneralMax   = 10
	areaRadius       = 3000
)

var (
	restaurantTypes = []string{"restaurant"}
	suburbTypes     = []string{"locality", "sublocality"}
)

// Suggest returns place predictions for partial input near center:
// restaurants first, then suburbs. A failed lookup is logged and skipped;
// an error is returned only when both fail.
func (s *PlaceService) Suggest(ctx context.Context, text string, center model.Coordinate) ([]places.Suggestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty suggestion text", model.ErrValidation)
	}
	if err := center.Validate(); err != nil {
		return nil, err
	}
	bias := places.RectAround(center, suggestBiasDegrees)

	var (
		out     []places.Suggestion
		failed  int
		lastErr error
		seen    = make(map[string]struct{})
	)
	for _, types := range [][]string{restaurantTypes, suburbTypes} {
		got, err := s.provider.Autocomplete(ctx, places.AutocompleteQuery{
			Input:                text,
			IncludedPrimaryTypes: types,
			Bias:                 bias,
			Origin:               center,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.Warn().Err(err).Strs("types", types).Str("text", text).Msg("autocomplete failed")
			failed++
			lastErr = err
			continue
		}
		for _, sg := range got {
			if _, dup := seen[sg.PlaceID]; dup {
				continue
			}
			seen[sg.PlaceID] = struct{}{}
			out = append(out, sg)
		}
	}
	if failed == 2 {
		return nil, fmt.Errorf("suggest %q: %w", text, lastErr)
	}
	return out, nil
}

// SearchArea runs an uncached nearby search around a selected place,
// typically a suburb picked from Suggest, using the user's preferred cuisines.
func (s *PlaceService) SearchArea(ctx context.Context, placeID string) ([]*model.Restaurant, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, fmt.Errorf("%w: empty place id", model.ErrValidation)
	}
	p, err := s.provider.PlaceDetails(ctx, placeID)
	if places.IsNotFound(err) {
		return nil, fmt.Errorf("place %s: %w", placeID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", placeID, err)
	}
	if err := p.Location.Validate(); err != nil {
		return nil, fmt.Errorf("locate %s: %w", placeID, err)
	}

	var prefs []string
	u, err := s.cat.User(ctx)
	if err != nil {
		return nil, err
	}
	if u != nil {
		prefs = u.PreferredCuisines
	}

	strategy := searchcache.NearbyStrategy(areaPreferredMax, areaGeneralMax, areaRadius)
	batches, err := strategy.Fetch(ctx, s.provider, searchcache.Request{
		Center:       p.Location,
		RadiusMeters: areaRadius,
		Preferences:  prefs,
	})
	if err != nil {
		return nil, fmt.Errorf("area %s: %w", placeID, err)
	}
	s.log.Debug().Str("place", placeID).Int("batches", len(batches)).Msg("area searched")
	return s.rec.Reconcile(ctx, batches...)
}
