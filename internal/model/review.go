package model

import (
	"fmt"
	"sort"
)

// Validate checks the rating range and the owning restaurant.
func (r *Review) Validate() error {
	if r.RestaurantID == "" {
		return fmt.Errorf("%w: review needs a restaurant", ErrValidation)
	}
	if r.Rating < 0 || r.Rating > 5 {
		return fmt.Errorf("%w: rating must be 0-5, got %v", ErrValidation, r.Rating)
	}
	return nil
}

// SortReviewsLocalFirst orders locally authored reviews before imported ones,
// newest first within each group.
func SortReviewsLocalFirst(rs []*Review) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].AuthorLocal != rs[j].AuthorLocal {
			return rs[i].AuthorLocal
		}
		return rs[i].PublishedAt.After(rs[j].PublishedAt)
	})
}
