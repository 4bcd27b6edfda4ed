package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/mymichlin/discovery/internal/events"
	"github.com/mymichlin/discovery/internal/model"
)

// AddReview stores a review written by the local user.
func (c *Catalog) AddReview(ctx context.Context, r *model.Review) (*model.Review, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil review", model.ErrValidation)
	}
	rec := *r
	rec.AuthorLocal = true
	rec.ExternalRef = nil
	if rec.PublishedAt.IsZero() {
		rec.PublishedAt = c.now()
	}
	out, err := c.createReviews(ctx, rec.RestaurantID, []*model.Review{&rec})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// ImportReviews stores provider reviews for restaurantID. Reviews whose
// ExternalRef is already stored are skipped; the new ones are returned.
func (c *Catalog) ImportReviews(ctx context.Context, restaurantID string, rs []*model.Review) ([]*model.Review, error) {
	batch := make([]*model.Review, 0, len(rs))
	for _, r := range rs {
		rec := *r
		rec.AuthorLocal = false
		batch = append(batch, &rec)
	}
	if len(batch) == 0 {
		return nil, nil
	}
	return c.createReviews(ctx, restaurantID, batch)
}

func (c *Catalog) createReviews(ctx context.Context, restaurantID string, rs []*model.Review) ([]*model.Review, error) {
	for _, r := range rs {
		r.RestaurantID = restaurantID
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	out, err := c.st.Reviews().CreateMany(ctx, restaurantID, rs)
	if err != nil {
		return nil, wrap("create reviews", err)
	}
	if len(out) > 0 {
		c.publish(events.Event{Kind: model.KindReview, Change: model.ChangeAdd, Reviews: out})
	}
	return out, nil
}

// Reviews lists reviews matching q.
func (c *Catalog) Reviews(ctx context.Context, q model.ReviewQuery) ([]*model.Review, error) {
	rs, err := c.st.Reviews().List(ctx, q)
	if err != nil {
		return nil, wrap("list reviews", err)
	}
	return rs, nil
}

// ReviewsFor lists the reviews of a restaurant, locally authored first and
// newest first within each group.
func (c *Catalog) ReviewsFor(ctx context.Context, restaurantID string) ([]*model.Review, error) {
	rs, err := c.Reviews(ctx, model.ReviewQuery{RestaurantID: restaurantID})
	if err != nil {
		return nil, err
	}
	model.SortReviewsLocalFirst(rs)
	return rs, nil
}

// DeleteReview removes a locally authored review. Deleting an absent review
// is a no-op. Provider reviews cannot be deleted.
func (c *Catalog) DeleteReview(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.st.Reviews().Get(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return wrap("get review", err)
	}
	if !r.AuthorLocal {
		return fmt.Errorf("delete review %s: %w", id, model.ErrNotLocal)
	}
	deleted, err := c.st.Reviews().Delete(ctx, id)
	if err != nil {
		return wrap("delete review", err)
	}
	if deleted {
		c.publish(events.Event{Kind: model.KindReview, Change: model.ChangeRemove, Reviews: []*model.Review{r}})
	}
	return nil
}
