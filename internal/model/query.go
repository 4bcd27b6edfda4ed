package model

import "fmt"

// RestaurantSort names a sortable restaurant column.
type RestaurantSort string

const (
	SortByName        RestaurantSort = "name"
	SortByRating      RestaurantSort = "rating"
	SortByRatingCount RestaurantSort = "rating_count"
	SortByCreated     RestaurantSort = "created_at"
)

// RestaurantQuery filters and orders restaurants. Zero value lists everything by name.
type RestaurantQuery struct {
	IDs           []string
	FavouriteOnly bool
	Cuisine       string
	MinRating     float64
	SortBy        RestaurantSort
	Descending    bool
	Limit         int
}

// Validate checks the sort field against the known columns.
func (q RestaurantQuery) Validate() error {
	switch q.SortBy {
	case "", SortByName, SortByRating, SortByRatingCount, SortByCreated:
	default:
		return fmt.Errorf("%w: unknown sort field %q", ErrValidation, q.SortBy)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrValidation)
	}
	return nil
}

// ReviewQuery filters reviews. Results are ordered by PublishedAt, newest first
// unless OldestFirst is set.
type ReviewQuery struct {
	RestaurantID string
	LocalOnly    bool
	OldestFirst  bool
	Limit        int
}
