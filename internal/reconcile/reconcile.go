// Package reconcile merges provider results into the catalog.
package reconcile

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/places"
)

// Catalog is the subset of the entity store the reconciler writes through.
type Catalog interface {
	Restaurant(ctx context.Context, id string) (*model.Restaurant, error)
	UpsertRestaurants(ctx context.Context, rs []*model.Restaurant) ([]*model.Restaurant, error)
	ImportReviews(ctx context.Context, restaurantID string, rs []*model.Review) ([]*model.Review, error)
}

// DefaultCuisine is used when a place carries no specific type tag.
const DefaultCuisine = "restaurant"

// genericTypes are provider tags that say nothing about the cuisine.
var genericTypes = map[string]struct{}{
	"restaurant":        {},
	"food":              {},
	"establishment":     {},
	"point_of_interest": {},
	"geocode":           {},
}

type Reconciler struct {
	cat    Catalog
	photos places.PhotoFetcher
	log    zerolog.Logger
}

type Option func(*Reconciler)

// WithPhotos downloads the first photo of places not stored yet.
// A failed download leaves the image empty.
func WithPhotos(pf places.PhotoFetcher) Option {
	return func(r *Reconciler) { r.photos = pf }
}

func New(cat Catalog, log zerolog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{cat: cat, log: log}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Rank sorts places by rating count, then rating, both descending.
// The sort is stable and returns a new slice.
func Rank(ps []places.Place) []places.Place {
	out := append([]places.Place(nil), ps...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RatingCount != out[j].RatingCount {
			return out[i].RatingCount > out[j].RatingCount
		}
		return rating(out[i]) > rating(out[j])
	})
	return out
}

func rating(p places.Place) float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// Cuisine picks the first specific type tag, or DefaultCuisine.
func Cuisine(types []string) string {
	for _, t := range types {
		if _, generic := genericTypes[t]; !generic && t != "" {
			return t
		}
	}
	return DefaultCuisine
}

// ToRestaurant maps a provider place onto a restaurant record.
func ToRestaurant(p places.Place) *model.Restaurant {
	name := p.DisplayName
	if name == "" {
		name = "Unknown"
	}
	addr := p.Address
	if addr == "" {
		addr = "Unknown"
	}
	return &model.Restaurant{
		ID:          p.ID,
		Name:        name,
		Address:     addr,
		Phone:       p.Phone,
		Website:     p.Website,
		PriceTier:   p.PriceLevel.Tier(),
		Rating:      rating(p),
		RatingCount: p.RatingCount,
		Cuisine:     Cuisine(p.Types),
		Location:    p.Location,
		OpenNow:     p.OpenNow,
		Image:       p.Photo,
		PhotoRef:    p.PhotoRef,
	}
}

// Reconcile ranks each batch, concatenates them, collapses duplicate IDs to
// their first position and upserts the result in one commit. Existing records
// are returned as stored. The result follows the ranked order.
func (r *Reconciler) Reconcile(ctx context.Context, batches ...[]places.Place) ([]*model.Restaurant, error) {
	seen := make(map[string]struct{})
	var merged []places.Place
	for _, b := range batches {
		for _, p := range Rank(b) {
			if strings.TrimSpace(p.ID) == "" {
				r.log.Warn().Str("name", p.DisplayName).Msg("skipping place without id")
				continue
			}
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			merged = append(merged, p)
		}
	}
	if len(merged) == 0 {
		return []*model.Restaurant{}, nil
	}

	if r.photos != nil {
		if err := r.attachPhotos(ctx, merged); err != nil {
			return nil, err
		}
	}

	recs := make([]*model.Restaurant, 0, len(merged))
	for _, p := range merged {
		recs = append(recs, ToRestaurant(p))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.cat.UpsertRestaurants(ctx, recs)
}

func (r *Reconciler) attachPhotos(ctx context.Context, ps []places.Place) error {
	for i := range ps {
		p := &ps[i]
		if p.PhotoRef == "" || len(p.Photo) > 0 {
			continue
		}
		existing, err := r.cat.Restaurant(ctx, p.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		img, err := r.photos.Photo(ctx, p.PhotoRef)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.Warn().Str("place", p.ID).Err(err).Msg("photo download failed")
			continue
		}
		p.Photo = img
	}
	return nil
}

// ImportReviews stores provider reviews of restaurantID, skipping ones
// already imported.
func (r *Reconciler) ImportReviews(ctx context.Context, restaurantID string, rs []places.Review) ([]*model.Review, error) {
	recs := make([]*model.Review, 0, len(rs))
	for _, pr := range rs {
		rec := &model.Review{
			RestaurantID: restaurantID,
			Rating:       pr.Rating,
			PublishedAt:  pr.PublishTime,
		}
		if pr.Text != "" {
			text := pr.Text
			rec.Comment = &text
		}
		if pr.RelativeTime != "" {
			rel := pr.RelativeTime
			rec.RelativeTime = &rel
		}
		if pr.Name != "" {
			ref := pr.Name
			rec.ExternalRef = &ref
		}
		recs = append(recs, rec)
	}
	return r.cat.ImportReviews(ctx, restaurantID, recs)
}
