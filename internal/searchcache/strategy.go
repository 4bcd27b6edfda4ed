package searchcache

import (
	"context"

	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/places"
)

// Category names a cached restaurant list.
type Category string

const (
	Trending Category = "trending"
	Budget   Category = "budget"
	Nearby   Category = "nearby"
)

// Request is the input handed to a strategy on a cache miss.
type Request struct {
	Center       model.Coordinate
	RadiusMeters float64
	// Preferences are the user's preferred cuisine tags, possibly empty.
	Preferences []string
}

// Strategy fetches the provider batches for a category. Each batch is ranked
// separately by the reconciler and batches are concatenated in order.
type Strategy struct {
	DefaultRadius float64
	Fetch         func(ctx context.Context, p places.Provider, req Request) ([][]places.Place, error)
}

const restaurantType = "restaurant"

// TextStrategy searches by a fixed text query biased towards the area.
func TextStrategy(text string, maxResults int, minRating, defaultRadius float64) Strategy {
	return Strategy{
		DefaultRadius: defaultRadius,
		Fetch: func(ctx context.Context, p places.Provider, req Request) ([][]places.Place, error) {
			ps, err := p.SearchByText(ctx, places.TextQuery{
				Text:         text,
				IncludedType: restaurantType,
				MaxResults:   maxResults,
				MinRating:    minRating,
				Bias:         places.Circle{Center: req.Center, RadiusMeters: req.RadiusMeters},
			})
			if err != nil {
				return nil, err
			}
			return [][]places.Place{ps}, nil
		},
	}
}

// NearbyStrategy runs a preference-filtered nearby search followed by a
// general one. Preferences that are not provider food types are left out of
// the filter; with none left only the general search runs.
func NearbyStrategy(preferredMax, generalMax int, defaultRadius float64) Strategy {
	return Strategy{
		DefaultRadius: defaultRadius,
		Fetch: func(ctx context.Context, p places.Provider, req Request) ([][]places.Place, error) {
			area := places.Circle{Center: req.Center, RadiusMeters: req.RadiusMeters}
			var batches [][]places.Place
			if prefs := model.CuisineTypes(req.Preferences); len(prefs) > 0 {
				preferred, err := p.SearchNearby(ctx, places.NearbyQuery{
					IncludedTypes:        []string{restaurantType},
					IncludedPrimaryTypes: prefs,
					MaxResults:           preferredMax,
					Restriction:          area,
				})
				if err != nil {
					return nil, err
				}
				batches = append(batches, preferred)
			}
			general, err := p.SearchNearby(ctx, places.NearbyQuery{
				IncludedTypes: []string{restaurantType},
				MaxResults:    generalMax,
				Restriction:   area,
			})
			if err != nil {
				return nil, err
			}
			return append(batches, general), nil
		},
	}
}

// DefaultStrategies returns the built-in categories.
func DefaultStrategies() map[Category]Strategy {
	return map[Category]Strategy{
		Trending: TextStrategy("Most Viewed Restaurants", 5, 4, 15000),
		Budget:   TextStrategy("Most Viewed Affordable Restaurants", 5, 4, 10000),
		Nearby:   NearbyStrategy(5, 10, 3000),
	}
}
